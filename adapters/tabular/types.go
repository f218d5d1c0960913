package tabular

// RawGrid is the decoded but uncleaned content of one uploaded file.
// Header carries the first row verbatim; Records carries every following row
// as strings, ragged rows included. Cleaning happens downstream.
type RawGrid struct {
	Header     []string
	Records    [][]string
	SheetNames []string // populated for workbooks so the UI can offer a picker
	Encoding   string   // populated for CSV input with the encoding that won
}
