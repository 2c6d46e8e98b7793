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
	"io"
	"os"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

type testVar struct {
	name  string
	dims  []string
	data  interface{}
	attrs map[string][]float64
}

func writeTestNCF(t *testing.T, path string, dims []string, lengths []int, vars []testVar) {
	h := cdf.NewHeader(dims, lengths)
	for _, v := range vars {
		switch v.data.(type) {
		case []int16:
			h.AddVariable(v.name, v.dims, []int16{0})
		case []float32:
			h.AddVariable(v.name, v.dims, []float32{0})
		case []float64:
			h.AddVariable(v.name, v.dims, []float64{0})
		default:
			t.Fatalf("unsupported test data type %T", v.data)
		}
		for name, val := range v.attrs {
			h.AddAttribute(v.name, name, val)
		}
	}
	h.Define()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	ff, err := cdf.Create(f, h)
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range vars {
		lens := ff.Header.Lengths(v.name)
		start := make([]int, len(lens))
		w := ff.Writer(v.name, start, lens)
		if _, err := w.Write(v.data); err != nil {
			t.Fatal(err)
		}
	}
	if err := cdf.UpdateNumRecs(f); err != nil {
		t.Fatal(err)
	}
}

// writeTestML creates a model-level file with packed temperature and
// float humidity: 2 time steps of 3 levels on a 2x2 grid.
func writeTestML(t *testing.T, path string) {
	tStored := make([]int16, 24)
	qVals := make([]float32, 24)
	for r := 0; r < 2; r++ {
		for i := 0; i < 12; i++ {
			tStored[r*12+i] = int16(100*(r+1) + i)
			qVals[r*12+i] = float32(0.001 * float64(i+1) * float64(r+1))
		}
	}
	writeTestNCF(t, path, []string{"time", "level", "y", "x"}, []int{2, 3, 2, 2}, []testVar{
		{
			name: "t", dims: []string{"time", "level", "y", "x"}, data: tStored,
			attrs: map[string][]float64{"scale_factor": {0.01}, "add_offset": {250}},
		},
		{name: "q", dims: []string{"time", "level", "y", "x"}, data: qVals},
	})
}

// writeTestSfc creates a single-level file with 2 time steps of surface
// pressure and a static surface geopotential on the same 2x2 grid.
func writeTestSfc(t *testing.T, path string) {
	spVals := make([]float64, 8)
	for r := 0; r < 2; r++ {
		for i := 0; i < 4; i++ {
			spVals[r*4+i] = 100000 + 1000*float64(r) + 10*float64(i)
		}
	}
	zVals := []float32{0, 981, 1962, 4905}
	writeTestNCF(t, path, []string{"time", "y", "x"}, []int{2, 2, 2}, []testVar{
		{name: "sp", dims: []string{"time", "y", "x"}, data: spVals},
		{name: "z", dims: []string{"y", "x"}, data: zVals},
	})
}

func TestERA5(t *testing.T) {
	const tolerance = 1.0e-8
	const mlPath, sfcPath = "tmp_era5_ml.nc", "tmp_era5_sfc.nc"
	writeTestML(t, mlPath)
	writeTestSfc(t, sfcPath)
	defer os.Remove(mlPath)
	defer os.Remove(sfcPath)

	e, err := NewERA5(mlPath, sfcPath, "", "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if e.NLevels() != 3 {
		t.Errorf("want 3 levels but have %d", e.NLevels())
	}
	if e.Records() != 2 {
		t.Errorf("want 2 records but have %d", e.Records())
	}

	tNext := e.Temperature()
	for r := 0; r < 2; r++ {
		data, err := tNext()
		if err != nil {
			t.Fatal(err)
		}
		want := sparse.ZerosDense(3, 2, 2)
		for i := 0; i < 12; i++ {
			want.Elements[i] = float64(int16(100*(r+1)+i))*0.01 + 250
		}
		arrayCompare(data, want, tolerance, "temperature", t)
	}
	if _, err := tNext(); err != io.EOF {
		t.Errorf("want io.EOF but have %v", err)
	}

	qNext := e.SpecificHumidity()
	data, err := qNext()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 12; i++ {
		want := float64(float32(0.001 * float64(i+1)))
		if data.Elements[i] != want {
			t.Errorf("humidity element %d: want %g but have %g", i, want, data.Elements[i])
		}
	}

	spNext := e.SurfacePressure()
	for r := 0; r < 2; r++ {
		data, err := spNext()
		if err != nil {
			t.Fatal(err)
		}
		want := sparse.ZerosDense(2, 2)
		for i := 0; i < 4; i++ {
			want.Elements[i] = 100000 + 1000*float64(r) + 10*float64(i)
		}
		arrayCompare(data, want, tolerance, "surface pressure", t)
	}

	// The static surface geopotential repeats for every time step.
	zsNext := e.SurfaceGeopotential()
	for r := 0; r < 2; r++ {
		data, err := zsNext()
		if err != nil {
			t.Fatal(err)
		}
		want := sparse.ZerosDense(2, 2)
		for i, v := range []float32{0, 981, 1962, 4905} {
			want.Elements[i] = float64(v)
		}
		arrayCompare(data, want, tolerance, "surface geopotential", t)
	}
	if _, err := zsNext(); err != io.EOF {
		t.Errorf("want io.EOF but have %v", err)
	}
}

func TestERA5SingleStepSurface(t *testing.T) {
	const tolerance = 1.0e-8
	const mlPath, sfcPath = "tmp_era5_ml1.nc", "tmp_era5_sfc1.nc"
	writeTestML(t, mlPath)
	defer os.Remove(mlPath)

	// Surface variables with a single time step repeat for every
	// model-level time step.
	spVals := []float64{100000, 100010, 100020, 100030}
	zVals := []float32{0, 981, 1962, 4905}
	writeTestNCF(t, sfcPath, []string{"time", "y", "x"}, []int{1, 2, 2}, []testVar{
		{name: "sp", dims: []string{"time", "y", "x"}, data: spVals},
		{name: "z", dims: []string{"time", "y", "x"}, data: zVals},
	})
	defer os.Remove(sfcPath)

	e, err := NewERA5(mlPath, sfcPath, "", "", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if e.Records() != 2 {
		t.Fatalf("want 2 records but have %d", e.Records())
	}
	spNext := e.SurfacePressure()
	for r := 0; r < 2; r++ {
		data, err := spNext()
		if err != nil {
			t.Fatal(err)
		}
		want := sparse.ZerosDense(2, 2)
		copy(want.Elements, spVals)
		arrayCompare(data, want, tolerance, "repeated surface pressure", t)
	}
	if _, err := spNext(); err != io.EOF {
		t.Errorf("want io.EOF but have %v", err)
	}
}

func TestERA5Errors(t *testing.T) {
	const mlPath, sfcPath = "tmp_era5_ml2.nc", "tmp_era5_sfc2.nc"
	writeTestML(t, mlPath)
	writeTestSfc(t, sfcPath)
	defer os.Remove(mlPath)
	defer os.Remove(sfcPath)

	if _, err := NewERA5("no_such_file.nc", sfcPath, "", "", "", ""); err == nil {
		t.Error("missing model-level file: want error but have none")
	}
	if _, err := NewERA5(mlPath, sfcPath, "foo", "", "", ""); err == nil {
		t.Error("missing temperature variable: want error but have none")
	}
	if _, err := NewERA5(mlPath, sfcPath, "", "", "", "foo"); err == nil {
		t.Error("missing surface variable: want error but have none")
	}

	// Mismatched horizontal grids are rejected.
	const badPath = "tmp_era5_bad.nc"
	writeTestNCF(t, badPath, []string{"time", "y", "x"}, []int{2, 3, 3}, []testVar{
		{name: "sp", dims: []string{"time", "y", "x"}, data: make([]float64, 18)},
		{name: "z", dims: []string{"y", "x"}, data: make([]float32, 9)},
	})
	defer os.Remove(badPath)
	if _, err := NewERA5(mlPath, badPath, "", "", "", ""); err == nil {
		t.Error("mismatched grids: want error but have none")
	}

	// A temperature variable without a level dimension is rejected.
	const flatPath = "tmp_era5_flat.nc"
	writeTestNCF(t, flatPath, []string{"y", "x"}, []int{2, 2}, []testVar{
		{name: "t", dims: []string{"y", "x"}, data: make([]float32, 4)},
		{name: "q", dims: []string{"y", "x"}, data: make([]float32, 4)},
	})
	defer os.Remove(flatPath)
	if _, err := NewERA5(flatPath, sfcPath, "", "", "", ""); err == nil {
		t.Error("missing level dimension: want error but have none")
	}
}
