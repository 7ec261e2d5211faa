package database

import (
	"database/sql"
)

// column layout of the reference table, key first
var referenceColumns = []string{"booknum", "bookname", "testament", "category"}

// column layout of the detail table, key first
var detailColumns = []string{"wordid", "word", "booknum", "chnum", "versenum"}

// ReferenceRecord is one row of the small lookup table (books).
// Columns that are NULL or absent in the source scan as invalid.
type ReferenceRecord struct {
	ID        int64          `db:"booknum" json:"booknum"`
	Name      sql.NullString `db:"bookname" json:"bookname"`
	Testament sql.NullString `db:"testament" json:"testament"`
	Category  sql.NullString `db:"category" json:"category"`
}

// Values returns the row in referenceColumns order with empty-string
// defaults for the optional tags.
func (r ReferenceRecord) Values() []interface{} {
	return []interface{}{r.ID, r.Name, r.Testament.String, r.Category.String}
}

// DetailRecord is one row of the larger table (words). The numeric fields
// point at ReferenceRecord.ID but nothing here enforces it.
type DetailRecord struct {
	ID      int64          `db:"wordid" json:"wordid"`
	Word    sql.NullString `db:"word" json:"word"`
	BookNum sql.NullInt64  `db:"booknum" json:"booknum"`
	Chapter sql.NullInt64  `db:"chnum" json:"chnum"`
	Verse   sql.NullInt64  `db:"versenum" json:"versenum"`
}

// Values returns the row in detailColumns order; missing numeric fields
// stay NULL, a missing word becomes the empty string.
func (d DetailRecord) Values() []interface{} {
	return []interface{}{d.ID, d.Word.String, d.BookNum, d.Chapter, d.Verse}
}

// Tables names the two tables a run copies. Column names are fixed by the record shapes.
type Tables struct {
	Reference string
	Detail    string
}

// TableInfo is a table name and its row count, as reported by an Inspector.
type TableInfo struct {
	Name string
	Rows int64
}

// what to do when the unique key already exists in the destination
type ConflictPolicy string

const (
	ConflictSkip   ConflictPolicy = "skip"
	ConflictUpdate ConflictPolicy = "update"
)

func nullableString(s sql.NullString) interface{} {
	if !s.Valid {
		return nil
	}
	return s.String
}

func nullableInt(n sql.NullInt64) interface{} {
	if !n.Valid {
		return nil
	}
	return n.Int64
}
