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

// Package geopotutil provides the geopot command-line interface.
package geopotutil

import (
	"fmt"
	"os"

	"github.com/lnashier/viper"
	"github.com/spatialmodel/geopot"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to geopot.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "NLevels",
			usage: `
              NLevels is the number of full model levels in the input data.
              It selects the level-numbering convention: 137 for the ERA5
              model levels and 60 for the ERA-Interim model levels.`,
			defaultVal: 137,
			flagsets:   []*pflag.FlagSet{calcCmd.Flags()},
		},
		{
			name: "LevelsFile",
			usage: `
              LevelsFile is the path to the table of hybrid coefficients
              (a and b) defining the model levels. The file may be either
              CSV with columns n,a,b or TOML with fields Start, A, and B.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{calcCmd.Flags()},
		},
		{
			name: "MLFile",
			usage: `
              MLFile is the path to the NetCDF file holding temperature and
              specific humidity on model levels.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{calcCmd.Flags()},
		},
		{
			name: "SfcFile",
			usage: `
              SfcFile is the path to the NetCDF file holding surface pressure
              and surface geopotential. It may be the same file as MLFile.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{calcCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path where the calculated geopotential
              will be written.`,
			shorthand:  "o",
			defaultVal: "geopotential.nc",
			flagsets:   []*pflag.FlagSet{calcCmd.Flags()},
		},
		{
			name: "Vars.Temperature",
			usage: `
              Vars.Temperature is the name of the model-level temperature
              variable in MLFile.`,
			defaultVal: "t",
			flagsets:   []*pflag.FlagSet{calcCmd.Flags()},
		},
		{
			name: "Vars.Humidity",
			usage: `
              Vars.Humidity is the name of the model-level specific humidity
              variable in MLFile.`,
			defaultVal: "q",
			flagsets:   []*pflag.FlagSet{calcCmd.Flags()},
		},
		{
			name: "Vars.SurfacePressure",
			usage: `
              Vars.SurfacePressure is the name of the surface pressure
              variable in SfcFile.`,
			defaultVal: "sp",
			flagsets:   []*pflag.FlagSet{calcCmd.Flags()},
		},
		{
			name: "Vars.SurfaceGeopotential",
			usage: `
              Vars.SurfaceGeopotential is the name of the surface geopotential
              variable in SfcFile.`,
			defaultVal: "z",
			flagsets:   []*pflag.FlagSet{calcCmd.Flags()},
		},
		{
			name: "Levels",
			usage: `
              Levels specifies a list of full model levels to be included in
              the output file. The default is to include all levels.`,
			defaultVal: []int{},
			flagsets:   []*pflag.FlagSet{calcCmd.Flags()},
		},
		{
			name: "HalfLevels",
			usage: `
              HalfLevels specifies whether to also write the geopotential at
              the half level below each output full level.`,
			defaultVal: false,
			flagsets:   []*pflag.FlagSet{calcCmd.Flags()},
		},
		{
			name: "Jobs",
			usage: `
              Jobs is the number of time records to process concurrently.`,
			defaultVal: 1,
			flagsets:   []*pflag.FlagSet{calcCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GEOPOT")

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(calcCmd)
	Root.AddCommand(batchCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("geopot: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "geopot",
	Short: "Calculate geopotential on hybrid model levels.",
	Long: `geopot calculates the geopotential of the full and half levels of a
hybrid pressure-coordinate atmospheric model, such as the ECMWF ERA5 and
ERA-Interim reanalyses, from temperature, specific humidity, surface
pressure, and surface geopotential.

Refer to the subcommand documentation for configuration options and default
settings. Configuration can be changed by using a configuration file (and
providing the path to the file using the --config flag), by using
command-line arguments, or by setting environment variables in the format
'GEOPOT_var' where 'var' is the name of the variable to be set. Many
configuration variables are additionally allowed to contain environment
variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of geopot.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("geopot v%s\n", geopot.Version)
	},
	DisableAutoGenTag: true,
}

// calcCmd is a command that calculates geopotential from reanalysis output.
var calcCmd = &cobra.Command{
	Use:   "calc",
	Short: "Calculate geopotential",
	Long: `calc reads temperature, specific humidity, surface pressure, and
surface geopotential from NetCDF files as specified by information in the
configuration file, integrates the hydrostatic equation through the model
levels for each time record, and saves the resulting geopotential field.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		levels, err := cast.ToIntSliceE(Cfg.Get("Levels"))
		if err != nil {
			return fmt.Errorf("geopot: reading 'Levels': %v", err)
		}
		return Calc(
			Cfg.GetInt("NLevels"),
			os.ExpandEnv(Cfg.GetString("LevelsFile")),
			os.ExpandEnv(Cfg.GetString("MLFile")),
			os.ExpandEnv(Cfg.GetString("SfcFile")),
			os.ExpandEnv(Cfg.GetString("OutputFile")),
			Cfg.GetString("Vars.Temperature"),
			Cfg.GetString("Vars.Humidity"),
			Cfg.GetString("Vars.SurfacePressure"),
			Cfg.GetString("Vars.SurfaceGeopotential"),
			levels,
			Cfg.GetBool("HalfLevels"),
			Cfg.GetInt("Jobs"),
		)
	},
	DisableAutoGenTag: true,
}

// batchCmd is a command that runs a list of calculations in sequence.
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run a list of calculations",
	Long: `batch runs the calculations listed in a TOML run list file, one
after another. Each entry in the file accepts the same fields as the calc
command configuration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("geopot: the batch command requires a single argument giving the path of the run list file; got %d arguments", len(args))
		}
		return Batch(os.ExpandEnv(args[0]))
	},
	DisableAutoGenTag: true,
}
