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

import "fmt"

// A ConfigError reports a level count that matches no known numbering
// convention, a coefficient table that does not cover the range the
// convention requires, or a calculation attempted with an unset Config.
type ConfigError struct {
	Levels int
	reason string
}

func (e *ConfigError) Error() string {
	if e.reason != "" {
		return fmt.Sprintf("geopot: %s (%d levels)", e.reason, e.Levels)
	}
	return fmt.Sprintf("geopot: no level-numbering convention matches a %d-level model; "+
		"known conventions are 137 (ERA5) and 60 (ERA-Interim)", e.Levels)
}

// A LevelError reports a full-level index outside the configured range,
// or a half-level specifier that is neither Below nor Above.
type LevelError struct {
	Level   int
	Max     int
	Spec    HalfLevel
	BadSpec bool
}

func (e *LevelError) Error() string {
	if e.BadSpec {
		return fmt.Sprintf("geopot: invalid half-level specifier %d at level %d; "+
			"must be Below or Above", int(e.Spec), e.Level)
	}
	return fmt.Sprintf("geopot: level %d outside the valid range [1, %d]", e.Level, e.Max)
}

// An OutOfRangeError reports a half-level row missing from the
// coefficient table.
type OutOfRangeError struct {
	Row int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("geopot: no coefficient row %d in the table", e.Row)
}

// A MonotonicityError reports grid cells where pressure fails to increase
// from a full level's upper half level to its lower one, which leaves the
// logarithm in the hydrostatic integral undefined. Cells counts the
// offending grid cells and First holds the n-dimensional index of the
// first one.
type MonotonicityError struct {
	Level int
	Cells int
	First []int
}

func (e *MonotonicityError) Error() string {
	return fmt.Sprintf("geopot: half-level pressure not increasing downward at level %d: "+
		"%d grid cells, first at index %v", e.Level, e.Cells, e.First)
}
