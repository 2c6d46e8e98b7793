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
	"io"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// NextData is a closure that returns data for the next time step when
// called. It returns io.EOF after all time steps have been returned.
type NextData func() (*sparse.DenseArray, error)

// ERA5 reads the input fields for geopotential calculations from a pair
// of reanalysis NetCDF files: a model-level file holding temperature and
// specific humidity stacked along a level dimension, and a single-level
// file holding surface pressure and surface geopotential. Both ERA5 and
// ERA-Interim retrievals come in this layout.
type ERA5 struct {
	mlFile, sfcFile          string
	tVar, qVar, spVar, zsVar string

	nz      int
	records int
}

// NewERA5 creates a reader for the given model-level and single-level
// files. Empty variable names default to the retrieval names t, q, sp,
// and z. The constructor opens both files to count levels and time
// steps and to check that the requested variables exist on matching
// horizontal grids.
func NewERA5(mlFile, sfcFile, tVar, qVar, spVar, zsVar string) (*ERA5, error) {
	if tVar == "" {
		tVar = "t"
	}
	if qVar == "" {
		qVar = "q"
	}
	if spVar == "" {
		spVar = "sp"
	}
	if zsVar == "" {
		zsVar = "z"
	}
	e := &ERA5{
		mlFile: mlFile, sfcFile: sfcFile,
		tVar: tVar, qVar: qVar, spVar: spVar, zsVar: zsVar,
	}

	f, ff, err := openNCF(mlFile)
	if err != nil {
		return nil, fmt.Errorf("geopot: ERA5 model-level file: %v", err)
	}
	defer f.Close()
	tdims := ff.Header.Lengths(tVar)
	if len(tdims) == 0 {
		return nil, fmt.Errorf("geopot: variable %s is not in %s", tVar, mlFile)
	}
	if len(tdims) < 3 {
		return nil, fmt.Errorf("geopot: variable %s in %s needs (level, y, x) dimensions; shape is %v",
			tVar, mlFile, tdims)
	}
	qdims := ff.Header.Lengths(qVar)
	if len(qdims) == 0 {
		return nil, fmt.Errorf("geopot: variable %s is not in %s", qVar, mlFile)
	}
	e.nz = tdims[len(tdims)-3]
	mlRecs, err := varRecords(f, ff, tVar, 3)
	if err != nil {
		return nil, fmt.Errorf("geopot: ERA5 model-level file: %v", err)
	}
	qRecs, err := varRecords(f, ff, qVar, 3)
	if err != nil {
		return nil, fmt.Errorf("geopot: ERA5 model-level file: %v", err)
	}
	if qRecs != mlRecs {
		return nil, fmt.Errorf("geopot: %s has %d time steps for %s but %d for %s",
			mlFile, mlRecs, tVar, qRecs, qVar)
	}

	g, gg, err := openNCF(sfcFile)
	if err != nil {
		return nil, fmt.Errorf("geopot: ERA5 single-level file: %v", err)
	}
	defer g.Close()
	for _, v := range []string{spVar, zsVar} {
		sdims := gg.Header.Lengths(v)
		if len(sdims) == 0 {
			return nil, fmt.Errorf("geopot: variable %s is not in %s", v, sfcFile)
		}
		if len(sdims) < 2 {
			return nil, fmt.Errorf("geopot: variable %s in %s needs (y, x) dimensions; shape is %v",
				v, sfcFile, sdims)
		}
		if sdims[len(sdims)-1] != tdims[len(tdims)-1] ||
			sdims[len(sdims)-2] != tdims[len(tdims)-2] {
			return nil, fmt.Errorf("geopot: variable %s grid %v does not match the model-level grid %v",
				v, sdims[len(sdims)-2:], tdims[len(tdims)-2:])
		}
	}
	sfcRecs, err := varRecords(g, gg, spVar, 2)
	if err != nil {
		return nil, fmt.Errorf("geopot: ERA5 single-level file: %v", err)
	}
	zsRecs, err := varRecords(g, gg, zsVar, 2)
	if err != nil {
		return nil, fmt.Errorf("geopot: ERA5 single-level file: %v", err)
	}

	if mlRecs > 1 && sfcRecs > 1 && mlRecs != sfcRecs {
		return nil, fmt.Errorf("geopot: %s has %d time steps but %s has %d",
			mlFile, mlRecs, sfcFile, sfcRecs)
	}
	e.records = mlRecs
	if sfcRecs > e.records {
		e.records = sfcRecs
	}
	// Surface geopotential is often retrieved as a single static field;
	// anything else has to line up with the other variables.
	if zsRecs > 1 && zsRecs != e.records {
		return nil, fmt.Errorf("geopot: %s has %d time steps for %s but the other variables have %d",
			sfcFile, zsRecs, zsVar, e.records)
	}
	if e.records < 1 {
		return nil, fmt.Errorf("geopot: %s has no time steps", mlFile)
	}
	return e, nil
}

// NLevels returns the number of full model levels in the model-level
// file.
func (e *ERA5) NLevels() int { return e.nz }

// Records returns the number of time steps.
func (e *ERA5) Records() int { return e.records }

// Temperature returns an iterator over the stacked (level, y, x)
// temperature field [K], one time step per call.
func (e *ERA5) Temperature() NextData { return e.nextData(e.mlFile, e.tVar, 3) }

// SpecificHumidity returns an iterator over the stacked (level, y, x)
// specific humidity field [kg/kg].
func (e *ERA5) SpecificHumidity() NextData { return e.nextData(e.mlFile, e.qVar, 3) }

// SurfacePressure returns an iterator over the surface pressure field
// [Pa].
func (e *ERA5) SurfacePressure() NextData { return e.nextData(e.sfcFile, e.spVar, 2) }

// SurfaceGeopotential returns an iterator over the surface geopotential
// field [m2/s2]. Time-invariant retrievals are read whole and repeated
// for every time step.
func (e *ERA5) SurfaceGeopotential() NextData { return e.nextData(e.sfcFile, e.zsVar, 2) }

func (e *ERA5) nextData(path, v string, spatialDims int) NextData {
	var rec int
	return func() (*sparse.DenseArray, error) {
		if rec >= e.records {
			return nil, io.EOF
		}
		f, ff, err := openNCF(path)
		if err != nil {
			return nil, fmt.Errorf("geopot: %v", err)
		}
		defer f.Close()
		// A variable holding a single time step repeats for every step.
		r := rec
		if vr, err := varRecords(f, ff, v, spatialDims); err != nil {
			return nil, fmt.Errorf("geopot: %v", err)
		} else if r >= vr {
			r = vr - 1
		}
		data, err := readRecord(ff, v, r, spatialDims)
		rec++
		return data, err
	}
}

// openNCF opens a NetCDF file for reading.
func openNCF(path string) (*os.File, *cdf.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	ff, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("%s: %v", path, err)
	}
	return f, ff, nil
}

// varRecords returns the number of time steps held by variable v, which
// has spatialDims non-time dimensions. Variables without a time
// dimension count as a single step; for variables on the record
// dimension the count comes from the file size.
func varRecords(f *os.File, ff *cdf.File, v string, spatialDims int) (int, error) {
	dims := ff.Header.Lengths(v)
	if len(dims) <= spatialDims {
		return 1, nil
	}
	if dims[0] > 0 {
		return dims[0], nil
	}
	fi, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return int(ff.Header.NumRecs(fi.Size())), nil
}

// readRecord reads time step rec of variable v, returning an array over
// the variable's non-time dimensions. Variables without a time dimension
// are read whole regardless of rec. Short- and int-packed variables are
// unpacked using the scale_factor and add_offset attributes when
// present, as reanalysis retrievals are commonly packed.
func readRecord(ff *cdf.File, v string, rec, spatialDims int) (*sparse.DenseArray, error) {
	dims := ff.Header.Lengths(v)
	if len(dims) == 0 {
		return nil, fmt.Errorf("geopot: variable %s is not in the file", v)
	}
	timeVarying := len(dims) > spatialDims
	if timeVarying {
		dims = dims[1:]
	}
	nread := 1
	for _, d := range dims {
		nread *= d
	}
	var r cdf.Reader
	if timeVarying {
		start, end := make([]int, len(dims)+1), make([]int, len(dims)+1)
		start[0], end[0] = rec, rec+1
		r = ff.Reader(v, start, end)
	} else {
		r = ff.Reader(v, nil, nil)
	}
	buf := r.Zero(nread)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("geopot: reading variable %s: %v", v, err)
	}
	data := sparse.ZerosDense(dims...)
	switch b := buf.(type) {
	case []float32:
		for i, val := range b {
			data.Elements[i] = float64(val)
		}
	case []float64:
		copy(data.Elements, b)
	case []int16:
		for i, val := range b {
			data.Elements[i] = float64(val)
		}
	case []int32:
		for i, val := range b {
			data.Elements[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("geopot: variable %s has unsupported type %T", v, buf)
	}
	if scale, ok := attrFloat(ff, v, "scale_factor"); ok {
		floats.Scale(scale, data.Elements)
	}
	if offset, ok := attrFloat(ff, v, "add_offset"); ok {
		floats.AddConst(offset, data.Elements)
	}
	return data, nil
}

// attrFloat returns the first value of a numeric attribute.
func attrFloat(ff *cdf.File, v, name string) (float64, bool) {
	switch a := ff.Header.GetAttribute(v, name).(type) {
	case []float64:
		if len(a) > 0 {
			return a[0], true
		}
	case []float32:
		if len(a) > 0 {
			return float64(a[0]), true
		}
	}
	return 0, false
}
