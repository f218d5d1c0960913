package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueConstructors(t *testing.T) {
	s := NewStringValue("Alpha")
	assert.Equal(t, ValueTypeString, s.Type)
	assert.Equal(t, "Alpha", s.String())
	assert.False(t, s.IsNull())

	assert.True(t, NewStringValue("").IsNull(), "empty string collapses to null")

	n := NewNumberValue(42.5)
	assert.Equal(t, "42.5", n.String())
	got, ok := n.AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 42.5, got)

	null := NewNullValue()
	assert.True(t, null.IsNull())
	assert.Equal(t, "", null.String())
	_, ok = null.AsNumber()
	assert.False(t, ok)
}

func TestStringValueAsNumber(t *testing.T) {
	v := NewStringValue("17")
	n, ok := v.AsNumber()
	assert.True(t, ok)
	assert.Equal(t, 17.0, n)

	_, ok = NewStringValue("Alpha").AsNumber()
	assert.False(t, ok)
}

func TestRowGetMissingColumn(t *testing.T) {
	row := Row{"a": NewStringValue("x")}
	assert.True(t, row.Get("missing").IsNull())
}

func TestAppendColumn(t *testing.T) {
	tbl := New([]string{"a"})
	tbl.Rows = append(tbl.Rows, Row{"a": NewStringValue("1")}, Row{"a": NewStringValue("2")})

	err := tbl.AppendColumn("b", []Value{NewStringValue("x"), NewNullValue()})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, tbl.Columns)
	assert.Equal(t, "x", tbl.Rows[0].Get("b").String())
	assert.True(t, tbl.Rows[1].Get("b").IsNull())
}

func TestAppendColumnLengthMismatch(t *testing.T) {
	tbl := New([]string{"a"})
	tbl.Rows = append(tbl.Rows, Row{"a": NewStringValue("1")})

	err := tbl.AppendColumn("b", []Value{})
	assert.Error(t, err)
}

func TestAppendColumnDuplicate(t *testing.T) {
	tbl := New([]string{"a"})
	tbl.Rows = append(tbl.Rows, Row{"a": NewStringValue("1")})

	err := tbl.AppendColumn("a", []Value{NewStringValue("x")})
	assert.Error(t, err)
}

func TestCloneIsolation(t *testing.T) {
	tbl := New([]string{"a"})
	tbl.Rows = append(tbl.Rows, Row{"a": NewStringValue("original")})

	clone := tbl.Clone()
	clone.Rows[0]["a"] = NewStringValue("changed")
	require.NoError(t, clone.AppendColumn("b", []Value{NewNullValue()}))

	assert.Equal(t, "original", tbl.Rows[0].Get("a").String())
	assert.Equal(t, []string{"a"}, tbl.Columns)
}

func TestFilterSelectionIsEmpty(t *testing.T) {
	assert.True(t, FilterSelection{}.IsEmpty())
	assert.False(t, FilterSelection{Vessels: []string{"Alpha"}}.IsEmpty())
}
