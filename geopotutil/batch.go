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
	"os"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"
)

// RunSpec describes one calculation in a batch run list. The fields
// have the same meanings as the corresponding calc command options.
type RunSpec struct {
	NLevels    int
	LevelsFile string
	MLFile     string
	SfcFile    string
	OutputFile string
	Vars       struct {
		Temperature         string
		Humidity            string
		SurfacePressure     string
		SurfaceGeopotential string
	}
	Levels     []int
	HalfLevels bool
	Jobs       int
}

// RunList is the contents of a batch run list file.
type RunList struct {
	Runs []RunSpec
}

// Batch runs the calculations listed in the TOML run list file at
// path, one after another, stopping at the first failure.
func Batch(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("geopot: opening run list: %v", err)
	}
	var list RunList
	_, err = toml.DecodeReader(f, &list)
	f.Close()
	if err != nil {
		return fmt.Errorf("geopot: reading run list: %v", err)
	}
	if len(list.Runs) == 0 {
		return fmt.Errorf("geopot: run list %s contains no runs", path)
	}
	for i, r := range list.Runs {
		Log.WithFields(logrus.Fields{
			"run":    i + 1,
			"of":     len(list.Runs),
			"output": r.OutputFile,
		}).Info("geopot: starting batch run")
		err := Calc(r.NLevels, os.ExpandEnv(r.LevelsFile), os.ExpandEnv(r.MLFile),
			os.ExpandEnv(r.SfcFile), os.ExpandEnv(r.OutputFile),
			r.Vars.Temperature, r.Vars.Humidity, r.Vars.SurfacePressure, r.Vars.SurfaceGeopotential,
			r.Levels, r.HalfLevels, r.Jobs)
		if err != nil {
			return fmt.Errorf("geopot: batch run %d: %v", i+1, err)
		}
	}
	return nil
}
