package ingest

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Column identifies a logical record field.
type Column int

// Logical record columns.
const (
	ColRegion Column = iota
	ColYear
	ColGender
	ColAge
	ColCases
	numColumns
)

var columnNames = [numColumns]string{"region", "year", "gender", "age", "cases"}

func (c Column) String() string { return columnNames[c] }

// columnAliases lists accepted header names per column, compared after
// lowercasing and replacing spaces with underscores.
var columnAliases = [numColumns][]string{
	ColRegion: {"region", "city", "district", "nama_kabupaten_kota", "kabupaten_kota", "kab_kota", "wilayah"},
	ColYear:   {"year", "tahun"},
	ColGender: {"gender", "sex", "jenis_kelamin"},
	ColAge:    {"age", "age_group", "age_bucket", "kelompok_umur", "kelompok_usia", "umur", "usia", "kategori_simple"},
	ColCases:  {"cases", "case_count", "count", "jumlah_kasus", "jumlah"},
}

// Header maps logical columns to positions in a source row.
type Header [numColumns]int

func normalizeHeader(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(s), "_")
}

// ResolveHeader finds every logical column in a header row. Missing columns
// are reported together in one error.
func ResolveHeader(row []string) (Header, error) {
	pos := make(map[string]int, len(row))
	for i, name := range row {
		key := normalizeHeader(name)
		if _, dup := pos[key]; !dup {
			pos[key] = i
		}
	}

	var h Header
	var missing []string
	for c := Column(0); c < numColumns; c++ {
		h[c] = -1
		for _, alias := range columnAliases[c] {
			if i, ok := pos[alias]; ok {
				h[c] = i
				break
			}
		}
		if h[c] < 0 {
			missing = append(missing, c.String())
		}
	}

	if len(missing) > 0 {
		return h, eris.Errorf("ingest: missing columns: %s", strings.Join(missing, ", "))
	}
	return h, nil
}

// Field returns the value of column c in row, or "" when the row is short.
func (h Header) Field(row []string, c Column) string {
	i := h[c]
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
