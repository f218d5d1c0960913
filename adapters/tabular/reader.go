package tabular

import (
	"bytes"
	"encoding/csv"
	"log"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"eformboard/domain/core"

	"github.com/saintfish/chardet"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// Reader decodes uploaded CSV and workbook payloads into a RawGrid
type Reader struct{}

// NewReader creates a new tabular reader
func NewReader() *Reader {
	return &Reader{}
}

// fallbackEncodings is the ordered retry chain used when the sniffed encoding
// fails to produce valid text.
var fallbackEncodings = []string{"iso-8859-1", "windows-1252", "latin1"}

// Decode reads raw file bytes into a RawGrid. The filename extension selects
// the format; sheet selects a workbook sheet and defaults to the first one.
func (r *Reader) Decode(data []byte, filename, sheet string) (*RawGrid, error) {
	if len(data) == 0 {
		return nil, core.NewEmptyInputError("file is empty")
	}

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return r.decodeCSV(data, filename)
	case ".xlsx", ".xlsm":
		return r.decodeWorkbook(data, sheet)
	default:
		return nil, core.NewInputFormatError(ext)
	}
}

// decodeCSV sniffs the byte encoding, decodes to UTF-8 and parses the result.
// Falls back through common single-byte encodings when the sniffed one fails.
func (r *Reader) decodeCSV(data []byte, filename string) (*RawGrid, error) {
	detected := r.detectEncoding(data)

	tried := make([]string, 0, len(fallbackEncodings)+1)
	candidates := append([]string{detected}, fallbackEncodings...)

	for _, name := range candidates {
		if name == "" {
			continue
		}
		text, ok := r.decodeBytes(data, name)
		if !ok {
			tried = append(tried, name)
			continue
		}

		grid, err := r.parseCSV(text)
		if err != nil {
			tried = append(tried, name)
			continue
		}
		grid.Encoding = name
		log.Printf("[TabularReader] CSV decoded as %s (%d data rows)", name, len(grid.Records))
		return grid, nil
	}

	return nil, core.NewEncodingError(filename, tried)
}

// detectEncoding runs statistical charset sniffing over the payload
func (r *Reader) detectEncoding(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// decodeBytes converts data to a UTF-8 string using the named encoding
func (r *Reader) decodeBytes(data []byte, name string) (string, bool) {
	switch name {
	case "utf-8", "ascii":
		if !utf8.Valid(data) {
			return "", false
		}
		return string(data), true
	case "latin1", "latin-1", "iso-8859-1":
		return decodeWith(charmap.ISO8859_1, data)
	case "windows-1252", "cp1252":
		return decodeWith(charmap.Windows1252, data)
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", false
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

func decodeWith(cm *charmap.Charmap, data []byte) (string, bool) {
	decoded, err := cm.NewDecoder().Bytes(data)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

// parseCSV parses decoded text into a header row plus data records
func (r *Reader) parseCSV(text string) (*RawGrid, error) {
	// Strip a UTF-8 BOM so the first header cell stays clean
	text = strings.TrimPrefix(text, "\ufeff")

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1 // tolerate ragged rows, cleaning pads them

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.NewEmptyInputError("no rows in CSV")
	}

	return &RawGrid{Header: rows[0], Records: rows[1:]}, nil
}

// decodeWorkbook reads an xlsx/xlsm payload via excelize. An explicit sheet
// name wins; otherwise the first sheet is used.
func (r *Reader) decodeWorkbook(data []byte, sheet string) (*RawGrid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, core.NewInputFormatError("unreadable workbook: " + err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, core.NewEmptyInputError("workbook has no sheets")
	}

	selected := sheets[0]
	if sheet != "" {
		found := false
		for _, s := range sheets {
			if s == sheet {
				selected = s
				found = true
				break
			}
		}
		if !found {
			return nil, core.NewSchemaError("sheet", sheet)
		}
	}

	rows, err := f.GetRows(selected)
	if err != nil {
		return nil, core.NewInputFormatError("failed to read sheet " + selected + ": " + err.Error())
	}
	if len(rows) == 0 {
		return nil, core.NewEmptyInputError("sheet " + selected + " is empty")
	}

	log.Printf("[TabularReader] Workbook sheet %q read (%d rows, %d sheets available)",
		selected, len(rows), len(sheets))

	return &RawGrid{Header: rows[0], Records: rows[1:], SheetNames: sheets}, nil
}

// SheetNames enumerates workbook sheets without reading cell data, for the
// UI sheet picker on multi-sheet uploads.
func (r *Reader) SheetNames(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, core.NewInputFormatError("unreadable workbook: " + err.Error())
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
