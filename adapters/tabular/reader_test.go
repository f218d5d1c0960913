package tabular

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"eformboard/domain/core"
)

func TestDecodeUTF8CSV(t *testing.T) {
	grid, err := NewReader().Decode([]byte("Vessel,Job\nAlpha,J1\nBeta,J2\n"), "data.csv", "")
	require.NoError(t, err)

	assert.Equal(t, []string{"Vessel", "Job"}, grid.Header)
	assert.Len(t, grid.Records, 2)
}

func TestDecodeCSVWithBOM(t *testing.T) {
	grid, err := NewReader().Decode([]byte("\xef\xbb\xbfVessel,Job\nAlpha,J1\n"), "data.csv", "")
	require.NoError(t, err)
	assert.Equal(t, "Vessel", grid.Header[0], "BOM must not leak into the first header")
}

func TestDecodeLatin1CSVFallsBack(t *testing.T) {
	// 0xE9 is é in Latin-1/Windows-1252 but invalid as a standalone UTF-8 byte.
	raw := []byte("Vessel,Job\nM\xe9duse,Voyage pr\xe9vu\nFr\xe9gate G\xe9n\xe9rale,J2\n")

	grid, err := NewReader().Decode(raw, "data.csv", "")
	require.NoError(t, err)

	assert.Len(t, grid.Records, 2, "fallback decode must keep every row")
	assert.Equal(t, "Méduse", grid.Records[0][0])
	assert.Equal(t, "Frégate Générale", grid.Records[1][0])
	assert.NotEmpty(t, grid.Encoding)
	assert.NotEqual(t, "utf-8", grid.Encoding)
}

func TestDecodeRejectsUnknownExtension(t *testing.T) {
	_, err := NewReader().Decode([]byte("x"), "data.txt", "")
	require.Error(t, err)
	assert.True(t, core.IsInputFormatError(err))
}

func TestDecodeRejectsEmptyPayload(t *testing.T) {
	_, err := NewReader().Decode(nil, "data.csv", "")
	require.Error(t, err)
	assert.True(t, core.IsEmptyInputError(err))
}

func TestDecodeRaggedCSV(t *testing.T) {
	grid, err := NewReader().Decode([]byte("a,b,c\n1,2\n3,4,5,6\n"), "data.csv", "")
	require.NoError(t, err)
	assert.Len(t, grid.Records, 2)
}

// workbookBytes builds an in-memory xlsx for decode tests
func workbookBytes(t *testing.T, sheets map[string][][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeWorkbookDefaultSheet(t *testing.T) {
	data := workbookBytes(t, map[string][][]interface{}{
		"Data": {
			{"Vessel", "E-Form"},
			{"Alpha", "F1"},
		},
	})

	grid, err := NewReader().Decode(data, "data.xlsx", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Vessel", "E-Form"}, grid.Header)
	require.Len(t, grid.Records, 1)
	assert.Equal(t, "Alpha", grid.Records[0][0])
	assert.Equal(t, []string{"Data"}, grid.SheetNames)
}

func TestDecodeWorkbookNamedSheet(t *testing.T) {
	data := workbookBytes(t, map[string][][]interface{}{
		"Summary": {{"ignore"}},
		"Export": {
			{"Vessel", "Fleet"},
			{"Alpha", "NORTH Fleet"},
		},
	})

	grid, err := NewReader().Decode(data, "data.xlsx", "Export")
	require.NoError(t, err)
	assert.Equal(t, []string{"Vessel", "Fleet"}, grid.Header)
	require.Len(t, grid.Records, 1)
}

func TestDecodeWorkbookUnknownSheetFails(t *testing.T) {
	data := workbookBytes(t, map[string][][]interface{}{
		"Data": {{"Vessel"}, {"Alpha"}},
	})

	_, err := NewReader().Decode(data, "data.xlsx", "Missing")
	require.Error(t, err)
	assert.True(t, core.IsSchemaError(err))
}

func TestDecodeWorkbookGarbageFails(t *testing.T) {
	_, err := NewReader().Decode([]byte("definitely not a zip"), "data.xlsx", "")
	require.Error(t, err)
	assert.True(t, core.IsInputFormatError(err))
}

func TestSheetNames(t *testing.T) {
	data := workbookBytes(t, map[string][][]interface{}{
		"Data": {{"a"}},
	})

	sheets, err := NewReader().SheetNames(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"Data"}, sheets)
}
