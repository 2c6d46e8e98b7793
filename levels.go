/*
Copyright © 2019 the geopot authors.
This file is part of geopot.

geopot is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

geopot is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with geopot.  If not, see <http://www.gnu.org/licenses/>.
*/

package geopot

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// A Coefficient is one row of a hybrid-coordinate table: pressure at the
// corresponding half level is A + B×ps, with A in Pa and B dimensionless.
type Coefficient struct {
	A, B float64
}

// A CoefficientTable holds the hybrid coefficients for a contiguous range
// of half-level rows. ERA5 tables are numbered from row 0 and ERA-Interim
// tables from row 1, so the starting row is explicit.
type CoefficientTable struct {
	start int
	rows  []Coefficient
}

// NewCoefficientTable creates a table whose first row has index start.
func NewCoefficientTable(start int, rows []Coefficient) *CoefficientTable {
	return &CoefficientTable{start: start, rows: rows}
}

// Coefficient returns the (a, b) pair at the given half-level row,
// failing with an *OutOfRangeError if the table does not contain it.
func (t *CoefficientTable) Coefficient(row int) (Coefficient, error) {
	if t == nil || row < t.start || row >= t.start+len(t.rows) {
		return Coefficient{}, &OutOfRangeError{Row: row}
	}
	return t.rows[row-t.start], nil
}

// MinRow returns the index of the first row in the table.
func (t *CoefficientTable) MinRow() int { return t.start }

// MaxRow returns the index of the last row in the table.
func (t *CoefficientTable) MaxRow() int { return t.start + len(t.rows) - 1 }

// Len returns the number of rows.
func (t *CoefficientTable) Len() int { return len(t.rows) }

// covers reports whether the table contains every row in [lo, hi].
func (t *CoefficientTable) covers(lo, hi int) bool {
	return len(t.rows) > 0 && lo >= t.start && hi <= t.MaxRow()
}

// ReadCoefficientTable reads a table in the published model-level
// definition format: one "n,a,b" record per half level, with an optional
// header record. Rows must be contiguous and in increasing order.
func ReadCoefficientTable(r io.Reader) (*CoefficientTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("geopot: reading coefficient table: %v", err)
	}
	var t *CoefficientTable
	for i, rec := range records {
		if len(rec) < 3 {
			return nil, fmt.Errorf("geopot: coefficient table record %d has %d fields; need at least 3", i+1, len(rec))
		}
		n, err := strconv.Atoi(strings.TrimSpace(rec[0]))
		if err != nil {
			if i == 0 { // header
				continue
			}
			return nil, fmt.Errorf("geopot: coefficient table record %d: %v", i+1, err)
		}
		a, err := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("geopot: coefficient table record %d: %v", i+1, err)
		}
		b, err := strconv.ParseFloat(strings.TrimSpace(rec[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("geopot: coefficient table record %d: %v", i+1, err)
		}
		if t == nil {
			t = NewCoefficientTable(n, nil)
		} else if n != t.start+len(t.rows) {
			return nil, fmt.Errorf("geopot: coefficient table rows are not contiguous: "+
				"row %d follows row %d", n, t.start+len(t.rows)-1)
		}
		t.rows = append(t.rows, Coefficient{A: a, B: b})
	}
	if t == nil {
		return nil, fmt.Errorf("geopot: coefficient table is empty")
	}
	return t, nil
}

// tomlTable is the file layout accepted by ReadCoefficientTableTOML.
type tomlTable struct {
	Start int
	A     []float64
	B     []float64
}

// ReadCoefficientTableTOML reads a table from a TOML file holding the
// starting row index and parallel a and b arrays:
//
//	start = 0
//	a = [0.0, 100.0, 200.0, 300.0]
//	b = [0.0, 0.3, 0.6, 1.0]
func ReadCoefficientTableTOML(r io.Reader) (*CoefficientTable, error) {
	var v tomlTable
	if _, err := toml.DecodeReader(r, &v); err != nil {
		return nil, fmt.Errorf("geopot: reading TOML coefficient table: %v", err)
	}
	if len(v.A) == 0 {
		return nil, fmt.Errorf("geopot: TOML coefficient table is empty")
	}
	if len(v.A) != len(v.B) {
		return nil, fmt.Errorf("geopot: TOML coefficient table has %d a values but %d b values",
			len(v.A), len(v.B))
	}
	rows := make([]Coefficient, len(v.A))
	for i := range rows {
		rows[i] = Coefficient{A: v.A[i], B: v.B[i]}
	}
	return NewCoefficientTable(v.Start, rows), nil
}
