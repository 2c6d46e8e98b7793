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

import "github.com/ctessum/unit"

var (
	// JoulePerKilogram is the dimension set for geopotential [m2 s-2].
	JoulePerKilogram = unit.Dimensions{unit.LengthDim: 2, unit.TimeDim: -2}

	// JoulePerKilogramKelvin is the dimension set for specific gas
	// constants [m2 s-2 K-1].
	JoulePerKilogramKelvin = unit.Dimensions{unit.LengthDim: 2, unit.TimeDim: -2,
		unit.TemperatureDim: -1}
)

// RDryAir returns the specific gas constant for dry air.
func RDryAir() *unit.Unit { return unit.New(rd, JoulePerKilogramKelvin) }

// RWaterVapor returns the specific gas constant for water vapor.
func RWaterVapor() *unit.Unit { return unit.New(rv, JoulePerKilogramKelvin) }

// Gravity returns the standard acceleration of gravity.
func Gravity() *unit.Unit { return unit.New(g0, unit.MeterPerSecond2) }

// GeometricHeight converts a geopotential value [m2 s-2] to height above
// the geoid [m].
func GeometricHeight(geopotential float64) *unit.Unit {
	return unit.Div(unit.New(geopotential, JoulePerKilogram), Gravity())
}
