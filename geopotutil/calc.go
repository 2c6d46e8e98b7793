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

package geopotutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/geopot"
	"gonum.org/v1/gonum/floats"
)

// Log is the logger used by the commands in this package.
var Log logrus.FieldLogger = logrus.StandardLogger()

// Calc calculates the geopotential of hybrid model levels from
// reanalysis output and saves the result.
//
// nLevels is the number of full model levels in the input data. It
// selects the level-numbering convention: 137 for ERA5 and 60 for
// ERA-Interim.
//
// levelsFile is the location of the hybrid coefficient table, in CSV
// or TOML format as chosen by the file extension.
//
// mlFile is the location of the NetCDF file holding temperature and
// specific humidity on model levels.
//
// sfcFile is the location of the NetCDF file holding surface pressure
// and surface geopotential; it may be the same file as mlFile.
//
// outputFile is the path where the calculated geopotential should be
// written.
//
// tVar, qVar, spVar, and zsVar are the input variable names; empty
// names default to t, q, sp, and z.
//
// levels lists the full model levels to include in the output file.
// An empty list includes all of them.
//
// halfLevels specifies whether to also write the geopotential at the
// half level below each output full level.
//
// jobs is the number of time records to process concurrently.
func Calc(nLevels int, levelsFile, mlFile, sfcFile, outputFile, tVar, qVar, spVar, zsVar string,
	levels []int, halfLevels bool, jobs int) error {
	vars := []string{levelsFile, mlFile, sfcFile, outputFile}
	varNames := []string{"LevelsFile", "MLFile", "SfcFile", "OutputFile"}
	for i, v := range vars {
		if v == "" {
			return fmt.Errorf("geopot: configuration variable %s is not specified", varNames[i])
		}
	}
	table, err := readTable(levelsFile)
	if err != nil {
		return err
	}
	cfg, err := geopot.NewConfig(nLevels, table)
	if err != nil {
		return err
	}
	e, err := geopot.NewERA5(mlFile, sfcFile, tVar, qVar, spVar, zsVar)
	if err != nil {
		return err
	}
	if e.NLevels() != nLevels {
		return fmt.Errorf("geopot: %s has %d model levels but NLevels is %d",
			mlFile, e.NLevels(), nLevels)
	}
	if len(levels) == 0 {
		levels = make([]int, nLevels)
		for i := range levels {
			levels[i] = i + 1
		}
	} else {
		for _, k := range levels {
			if k < 1 || k > nLevels {
				return fmt.Errorf("geopot: output level %d is outside the range 1 to %d", k, nLevels)
			}
		}
	}
	if jobs < 1 {
		jobs = 1
	}

	Log.WithFields(logrus.Fields{
		"scheme":  cfg.Scheme().String(),
		"records": e.Records(),
		"levels":  e.NLevels(),
	}).Info("geopot: calculating geopotential")

	full := make([][]*sparse.DenseArray, e.Records())
	var half [][]*sparse.DenseArray
	if halfLevels {
		half = make([][]*sparse.DenseArray, e.Records())
	}
	errs := make([]error, e.Records())

	tNext, qNext := e.Temperature(), e.SpecificHumidity()
	spNext, zsNext := e.SurfacePressure(), e.SurfaceGeopotential()

	type empty struct{}
	sem := make(chan empty, jobs) // semaphore pattern
	var readErr error
	for rec := 0; ; rec++ {
		t, err := tNext()
		if err == io.EOF {
			break
		} else if err != nil {
			readErr = err
			break
		}
		q, err := qNext()
		if err != nil {
			readErr = err
			break
		}
		sp, err := spNext()
		if err != nil {
			readErr = err
			break
		}
		zs, err := zsNext()
		if err != nil {
			readErr = err
			break
		}
		sem <- empty{}
		go func(rec int, t, q, sp, zs *sparse.DenseArray) { // concurrent processing
			defer func() { <-sem }()
			ls, err := geopot.LevelSetFromStacked(t, q, sp, zs)
			if err != nil {
				errs[rec] = err
				return
			}
			if full[rec], err = cfg.Profile(ls); err != nil {
				errs[rec] = err
				return
			}
			if halfLevels {
				if half[rec], err = cfg.HalfProfile(ls); err != nil {
					errs[rec] = err
					return
				}
			}
			Log.WithFields(logrus.Fields{"record": rec}).Debug("geopot: finished record")
		}(rec, t, q, sp, zs)
	}
	for i := 0; i < jobs; i++ { // wait for routines to finish
		sem <- empty{}
	}
	if readErr != nil {
		return readErr
	}
	for _, err := range errs {
		if err != nil {
			return err
		}
	}

	d := &geopot.MLData{Scheme: cfg.Scheme(), NLevels: nLevels}
	lv := sparse.ZerosDense(len(levels))
	for i, k := range levels {
		lv.Elements[i] = float64(k)
	}
	d.AddVariable("level", []string{"level"}, "model level number", "1", lv)
	d.AddVariable("z", []string{"time", "level", "y", "x"},
		"geopotential on full model levels", "m2 s-2", stackRecords(full, levels))
	if halfLevels {
		d.AddVariable("zh", []string{"time", "level", "y", "x"},
			"geopotential on the half level below each full model level", "m2 s-2",
			stackRecords(half, levels))
	}
	f, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("geopot: creating output file: %v", err)
	}
	if err := d.Write(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	top := levels[0]
	for _, k := range levels {
		if k < top {
			top = k
		}
	}
	phi := full[0][top-1]
	Log.WithFields(logrus.Fields{
		"file":         outputFile,
		"topLevel":     top,
		"topHeightMin": fmt.Sprintf("%.0f m", geopot.GeometricHeight(floats.Min(phi.Elements)).Value()),
		"topHeightMax": fmt.Sprintf("%.0f m", geopot.GeometricHeight(floats.Max(phi.Elements)).Value()),
	}).Info("geopot: wrote geopotential")
	return nil
}

// readTable reads a hybrid coefficient table in either CSV or TOML
// format, chosen by the file extension.
func readTable(path string) (*geopot.CoefficientTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geopot: opening level table: %v", err)
	}
	defer f.Close()
	if strings.ToLower(filepath.Ext(path)) == ".toml" {
		return geopot.ReadCoefficientTableTOML(f)
	}
	return geopot.ReadCoefficientTable(f)
}

// stackRecords combines per-record, per-level fields into a single
// (time, level, y, x) array holding the requested levels in order.
func stackRecords(recs [][]*sparse.DenseArray, levels []int) *sparse.DenseArray {
	ny := recs[0][levels[0]-1].Shape[0]
	nx := recs[0][levels[0]-1].Shape[1]
	out := sparse.ZerosDense(len(recs), len(levels), ny, nx)
	i := 0
	for _, rec := range recs {
		for _, k := range levels {
			copy(out.Elements[i:i+ny*nx], rec[k-1].Elements)
			i += ny * nx
		}
	}
	return out
}
