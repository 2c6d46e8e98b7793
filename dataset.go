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

	"github.com/ctessum/sparse"
)

// A LevelSet holds the grid fields for one geopotential calculation:
// temperature and specific humidity at every full level from 1 (top of
// atmosphere) to L (bottom), plus the level-independent surface pressure
// and surface geopotential. All fields must share one shape; the shape
// itself is arbitrary (latitude × longitude grids, single columns, or any
// other layout), since every operation on it is element-wise.
//
// The fields are owned by the caller; calculations read them but never
// write to them.
type LevelSet struct {
	t, q   []*sparse.DenseArray
	sp, zs *sparse.DenseArray
}

// NewLevelSet creates a LevelSet from per-level temperature and specific
// humidity fields (index 0 holds full level 1) and the surface pressure
// and surface geopotential fields.
func NewLevelSet(t, q []*sparse.DenseArray, sp, zs *sparse.DenseArray) (*LevelSet, error) {
	if len(t) == 0 {
		return nil, fmt.Errorf("geopot: level set has no levels")
	}
	if len(t) != len(q) {
		return nil, fmt.Errorf("geopot: level set has %d temperature levels but %d humidity levels",
			len(t), len(q))
	}
	if sp == nil || zs == nil {
		return nil, fmt.Errorf("geopot: level set needs surface pressure and surface geopotential")
	}
	if !sameShape(sp, zs) {
		return nil, fmt.Errorf("geopot: surface pressure shape %v does not match surface geopotential shape %v",
			sp.Shape, zs.Shape)
	}
	for i := range t {
		if t[i] == nil || q[i] == nil {
			return nil, fmt.Errorf("geopot: level %d is missing a field", i+1)
		}
		if !sameShape(t[i], sp) {
			return nil, fmt.Errorf("geopot: temperature shape %v at level %d does not match surface shape %v",
				t[i].Shape, i+1, sp.Shape)
		}
		if !sameShape(q[i], sp) {
			return nil, fmt.Errorf("geopot: humidity shape %v at level %d does not match surface shape %v",
				q[i].Shape, i+1, sp.Shape)
		}
	}
	return &LevelSet{t: t, q: q, sp: sp, zs: zs}, nil
}

// LevelSetFromStacked creates a LevelSet from fields stacked along a
// leading level dimension, the shape model-level files deliver: t and q
// have shape (levels, ...) and sp and zs have the remaining shape.
func LevelSetFromStacked(t, q, sp, zs *sparse.DenseArray) (*LevelSet, error) {
	if t == nil || q == nil {
		return nil, fmt.Errorf("geopot: stacked level set needs temperature and humidity")
	}
	if len(t.Shape) < 2 {
		return nil, fmt.Errorf("geopot: stacked fields must have a leading level dimension; shape is %v", t.Shape)
	}
	if !sameShape(t, q) {
		return nil, fmt.Errorf("geopot: stacked temperature shape %v does not match humidity shape %v",
			t.Shape, q.Shape)
	}
	nz := t.Shape[0]
	tl := make([]*sparse.DenseArray, nz)
	ql := make([]*sparse.DenseArray, nz)
	for k := 0; k < nz; k++ {
		tl[k] = unstack(t, k)
		ql[k] = unstack(q, k)
	}
	return NewLevelSet(tl, ql, sp, zs)
}

// unstack copies one slice of a stacked array along its leading
// dimension.
func unstack(a *sparse.DenseArray, k int) *sparse.DenseArray {
	dims := a.Shape[1:]
	n := 1
	for _, d := range dims {
		n *= d
	}
	out := sparse.ZerosDense(dims...)
	copy(out.Elements, a.Elements[k*n:(k+1)*n])
	return out
}

// sameShape reports whether two arrays have identical dimensions.
func sameShape(a, b *sparse.DenseArray) bool {
	if len(a.Shape) != len(b.Shape) {
		return false
	}
	for i, d := range a.Shape {
		if b.Shape[i] != d {
			return false
		}
	}
	return true
}

// Levels returns the number of full levels.
func (ls *LevelSet) Levels() int { return len(ls.t) }

// Temperature returns the temperature field [K] at full level k.
func (ls *LevelSet) Temperature(k int) (*sparse.DenseArray, error) {
	if k < 1 || k > len(ls.t) {
		return nil, &LevelError{Level: k, Max: len(ls.t)}
	}
	return ls.t[k-1], nil
}

// Humidity returns the specific humidity field [kg/kg] at full level k.
func (ls *LevelSet) Humidity(k int) (*sparse.DenseArray, error) {
	if k < 1 || k > len(ls.q) {
		return nil, &LevelError{Level: k, Max: len(ls.q)}
	}
	return ls.q[k-1], nil
}

// SurfacePressure returns the surface pressure field [Pa].
func (ls *LevelSet) SurfacePressure() *sparse.DenseArray { return ls.sp }

// SurfaceGeopotential returns the surface geopotential field [m2/s2].
func (ls *LevelSet) SurfaceGeopotential() *sparse.DenseArray { return ls.zs }
