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

// Package geopot calculates geopotential on the full and half levels of
// hybrid pressure-coordinate atmospheric models, as used by the ECMWF
// ERA5 (137-level) and ERA-Interim (60-level) reanalyses.
//
// On a hybrid grid, pressure at a half level is p = a + b×ps, where ps is
// surface pressure and (a, b) come from a per-half-level coefficient
// table. Geopotential at the half level below full level k is obtained by
// hydrostatic integration from the surface upward, and geopotential at
// full level k adds a correction proportional to the virtual temperature
// of the layer. The two reanalyses number their half levels differently;
// a Config resolves the numbering once so that every later query uses the
// same rules.
package geopot

// Version gives the version number of this library.
const Version = "1.0.0"

const (
	// Physical constants
	rd = 287.06  // (J /(kg K)), specific gas constant for dry air
	rv = 461.    // (J /(kg K)), specific gas constant for water vapor
	g0 = 9.80665 // m/s2, standard acceleration of gravity
)

// A HalfLevel selects one of the two half levels bracketing a full level.
type HalfLevel int

const (
	// Below is the half level between a full level and the surface.
	Below HalfLevel = iota
	// Above is the half level between a full level and the top of the
	// atmosphere.
	Above
)

func (h HalfLevel) String() string {
	switch h {
	case Below:
		return "below"
	case Above:
		return "above"
	default:
		return "invalid"
	}
}

// A Scheme identifies a model-level numbering convention.
type Scheme int

const (
	// SchemeInvalid is the zero value; a Config carrying it refuses all
	// calculations.
	SchemeInvalid Scheme = iota
	// SchemeL137 is the ERA5 137-level convention, with half levels
	// numbered 0 (top of atmosphere) through 137 (surface).
	SchemeL137
	// SchemeL60 is the ERA-Interim 60-level convention, with half levels
	// numbered 1 (top of atmosphere) through 61 (surface); the surface
	// row is not part of its published table.
	SchemeL60
)

func (s Scheme) String() string {
	switch s {
	case SchemeL137:
		return "L137"
	case SchemeL60:
		return "L60"
	default:
		return "invalid"
	}
}

// levelRules holds the table-addressing rules for one numbering scheme,
// resolved once when a Config is created. For a full level k, the
// bracketing half levels are table rows k+below and k+above, except that
// at k == max the row below the bottom full level is the surface itself
// and resolves to the surface pressure field instead of a table row.
type levelRules struct {
	below, above int // row offsets from the full-level index
	lo, hi       int // required contiguous table rows for max level m: [lo, m+hi]
}

var schemeRules = map[Scheme]levelRules{
	SchemeL137: {below: 0, above: -1, lo: 0, hi: -1},
	SchemeL60:  {below: 1, above: 0, lo: 1, hi: 0},
}

// A Config holds a validated level-numbering convention, the maximum full
// level, and the coefficient table. It is a value type: create it once
// with NewConfig or NewConfigScheme and copy it freely; all methods are
// read-only. The zero Config fails every operation with a *ConfigError.
type Config struct {
	scheme Scheme
	max    int
	rules  levelRules
	table  *CoefficientTable
}

// NewConfig creates a Config for a model with maxLevel full levels,
// deriving the numbering convention from the level count: 137 selects
// SchemeL137 and 60 selects SchemeL60. Any other count returns a
// *ConfigError; there is no best-effort fallback, because a wrong row
// offset silently corrupts every level above it.
func NewConfig(maxLevel int, table *CoefficientTable) (Config, error) {
	var scheme Scheme
	switch maxLevel {
	case 137:
		scheme = SchemeL137
	case 60:
		scheme = SchemeL60
	default:
		return Config{}, &ConfigError{Levels: maxLevel}
	}
	return NewConfigScheme(scheme, maxLevel, table)
}

// NewConfigScheme creates a Config with an explicitly chosen numbering
// convention, for level counts that do not match a standard reanalysis,
// such as truncated research tables. The table must cover the contiguous
// row range the scheme requires for maxLevel.
func NewConfigScheme(scheme Scheme, maxLevel int, table *CoefficientTable) (Config, error) {
	rules, ok := schemeRules[scheme]
	if !ok {
		return Config{}, &ConfigError{Levels: maxLevel}
	}
	if maxLevel < 1 {
		return Config{}, &ConfigError{Levels: maxLevel}
	}
	if table == nil || !table.covers(rules.lo, maxLevel+rules.hi) {
		return Config{}, &ConfigError{
			Levels: maxLevel,
			reason: "coefficient table does not cover the required half levels",
		}
	}
	return Config{scheme: scheme, max: maxLevel, rules: rules, table: table}, nil
}

// Scheme returns the active numbering convention.
func (c Config) Scheme() Scheme { return c.scheme }

// MaxLevel returns the bottom full-level index.
func (c Config) MaxLevel() int { return c.max }

// valid reports whether the Config was created by a constructor.
func (c Config) valid() bool {
	return c.scheme != SchemeInvalid && c.max >= 1 && c.table != nil
}

// checkLevel returns an error unless the Config is valid and k is a full
// level within [1, MaxLevel].
func (c Config) checkLevel(k int) error {
	if !c.valid() {
		return &ConfigError{Levels: c.max, reason: "configuration is unset or invalid"}
	}
	if k < 1 || k > c.max {
		return &LevelError{Level: k, Max: c.max}
	}
	return nil
}
