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
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// GeopotDataVersion is the version of the output file format. It needs
// to be changed whenever the file layout changes.
const GeopotDataVersion = "1.0.0"

// MLData holds computed model-level fields for writing to or reading
// from a NetCDF file.
type MLData struct {
	// Scheme is the level-numbering convention the data was computed
	// under.
	Scheme Scheme

	// NLevels is the number of full model levels.
	NLevels int

	Data map[string]struct {
		Dims        []string
		Description string
		Units       string
		Data        *sparse.DenseArray
	}
}

// AddVariable adds a new variable to the catalog.
func (d *MLData) AddVariable(name string, dims []string, description, units string, data *sparse.DenseArray) {
	if d.Data == nil {
		d.Data = make(map[string]struct {
			Dims        []string
			Description string
			Units       string
			Data        *sparse.DenseArray
		})
	}
	d.Data[name] = struct {
		Dims        []string
		Description string
		Units       string
		Data        *sparse.DenseArray
	}{
		Dims:        dims,
		Description: description,
		Units:       units,
		Data:        data,
	}
}

// Write writes d to a NetCDF file. Dimension lengths are taken from the
// variables themselves, so every variable sharing a dimension name must
// agree on its length.
func (d *MLData) Write(w *os.File) error {
	// Sort the names so they write in the same order every time.
	names := make([]string, 0, len(d.Data))
	for n := range d.Data {
		names = append(names, n)
	}
	sort.Strings(names)

	var dimNames []string
	dimLens := make(map[string]int)
	for _, name := range names {
		dd := d.Data[name]
		if len(dd.Dims) != len(dd.Data.Shape) {
			return fmt.Errorf("geopot: variable %s has %d dimension names but %d dimensions",
				name, len(dd.Dims), len(dd.Data.Shape))
		}
		for i, dim := range dd.Dims {
			if l, ok := dimLens[dim]; ok {
				if l != dd.Data.Shape[i] {
					return fmt.Errorf("geopot: dimension %s has conflicting lengths %d and %d",
						dim, l, dd.Data.Shape[i])
				}
				continue
			}
			dimNames = append(dimNames, dim)
			dimLens[dim] = dd.Data.Shape[i]
		}
	}
	lens := make([]int, len(dimNames))
	for i, dim := range dimNames {
		lens[i] = dimLens[dim]
	}

	h := cdf.NewHeader(dimNames, lens)
	h.AddAttribute("", "comment", "geopot model-level geopotential data file")
	h.AddAttribute("", "data_version", GeopotDataVersion)
	h.AddAttribute("", "scheme", d.Scheme.String())
	h.AddAttribute("", "nlevels", []int32{int32(d.NLevels)})

	for _, name := range names {
		dd := d.Data[name]
		h.AddVariable(name, dd.Dims, []float32{0})
		h.AddAttribute(name, "description", dd.Description)
		h.AddAttribute(name, "units", dd.Units)
	}
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}

	for _, name := range names {
		dd := d.Data[name]
		if err = writeNCF(f, name, dd.Data); err != nil {
			return fmt.Errorf("geopot: writing variable %s to netcdf file: %v", name, err)
		}
	}
	return cdf.UpdateNumRecs(w)
}

// LoadMLData loads data that was written by Write.
func LoadMLData(rw cdf.ReaderWriterAt) (*MLData, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("geopot: loading model-level data: %v", err)
	}
	o := new(MLData)

	dataVersion, ok := f.Header.GetAttribute("", "data_version").(string)
	if !ok {
		return nil, fmt.Errorf("geopot: loading model-level data: file carries no data version")
	}
	if dataVersion != GeopotDataVersion {
		return nil, fmt.Errorf("geopot: loading model-level data: data version %s is incompatible "+
			"with the required version %s", dataVersion, GeopotDataVersion)
	}
	switch f.Header.GetAttribute("", "scheme").(string) {
	case "L137":
		o.Scheme = SchemeL137
	case "L60":
		o.Scheme = SchemeL60
	default:
		o.Scheme = SchemeInvalid
	}
	o.NLevels = int(f.Header.GetAttribute("", "nlevels").([]int32)[0])

	for _, v := range f.Header.Variables() {
		d := struct {
			Dims        []string
			Description string
			Units       string
			Data        *sparse.DenseArray
		}{}
		d.Description = f.Header.GetAttribute(v, "description").(string)
		d.Units = f.Header.GetAttribute(v, "units").(string)
		d.Dims = f.Header.Dimensions(v)
		dims := f.Header.Lengths(v)
		r := f.Reader(v, nil, nil)
		d.Data = sparse.ZerosDense(dims...)
		tmp := make([]float32, len(d.Data.Elements))
		if _, err = r.Read(tmp); err != nil {
			return nil, fmt.Errorf("geopot: loading variable %s: %v", v, err)
		}
		for i, val := range tmp {
			d.Data.Elements[i] = float64(val)
		}
		if o.Data == nil {
			o.Data = make(map[string]struct {
				Dims        []string
				Description string
				Units       string
				Data        *sparse.DenseArray
			})
		}
		o.Data[v] = d
	}
	return o, nil
}

// writeNCF writes a variable to a NetCDF file.
func writeNCF(f *cdf.File, Var string, data *sparse.DenseArray) error {
	// Check that data matches dimensions.
	n := 1
	for _, v := range data.Shape {
		n *= v
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}

	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(Var)
	start := make([]int, len(end))
	w := f.Writer(Var, start, end)
	_, err := w.Write(data32)
	return err
}
