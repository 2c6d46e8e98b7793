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
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// PressureAtHalfLevel returns the pressure field [Pa] at one of the two
// half levels bracketing full level k: a + b×ps with the (a, b) row
// addressed by the configured numbering convention. At k == MaxLevel the
// half level below the bottom full level coincides with the surface, so
// Below resolves to the surface pressure field itself; the two
// conventions place that boundary at different table rows (see the Scheme
// documentation), which is why the rule is resolved here rather than by
// the caller.
//
// Only the surface pressure field of ls is used. The returned field is
// newly allocated.
func (c Config) PressureAtHalfLevel(ls *LevelSet, k int, s HalfLevel) (*sparse.DenseArray, error) {
	if err := c.checkLevel(k); err != nil {
		return nil, err
	}
	var h int
	switch s {
	case Below:
		h = c.rules.below
	case Above:
		h = c.rules.above
	default:
		return nil, &LevelError{Level: k, Max: c.max, Spec: s, BadSpec: true}
	}
	sp := ls.SurfacePressure()
	if k == c.max && s == Below {
		return sp.Copy(), nil
	}
	coef, err := c.table.Coefficient(k + h)
	if err != nil {
		return nil, err
	}
	p := sp.ScaleCopy(coef.B)
	floats.AddConst(coef.A, p.Elements)
	return p, nil
}
