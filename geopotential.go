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
	"math"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// The equations here follow the hydrostatic vertical discretization in
// the ECMWF IFS documentation (Cy41r1, Part III, Chapter 2): geopotential
// at the half level below full level k is the surface geopotential plus
// the sum of R_d Tv ln(p+/p−) over all layers below (eq. 2.21), and
// geopotential at full level k adds α R_d Tv for the layer itself
// (eqs. 2.22–2.23).

// virtualTemperature returns Tv = T (1 + (Rv/Rd − 1) q), the temperature
// dry air would need for the same density as the moist air.
func virtualTemperature(t, q *sparse.DenseArray) *sparse.DenseArray {
	tv := sparse.ZerosDense(t.Shape...)
	for i, v := range t.Elements {
		tv.Elements[i] = v * (1 + (rv/rd-1)*q.Elements[i])
	}
	return tv
}

// checkSet returns an error if the level set does not provide exactly the
// configured number of full levels.
func (c Config) checkSet(ls *LevelSet) error {
	if ls.Levels() != c.max {
		return fmt.Errorf("geopot: level set has %d levels but the configuration expects %d",
			ls.Levels(), c.max)
	}
	return nil
}

// checkMonotonic returns a *MonotonicityError if pressure anywhere on the
// grid fails to increase from the half level above full level k to the
// half level below it. The logarithms and ratios downstream are undefined
// on such cells, so they are rejected here instead of being carried
// through the arithmetic as NaN.
func checkMonotonic(pAbove, pBelow *sparse.DenseArray, k int) error {
	bad, first := 0, -1
	for i, a := range pAbove.Elements {
		if a <= 0 || pBelow.Elements[i] <= a {
			if first < 0 {
				first = i
			}
			bad++
		}
	}
	if bad > 0 {
		return &MonotonicityError{Level: k, Cells: bad, First: pAbove.IndexNd(first)}
	}
	return nil
}

// layerLogRatio returns ln(p_below/p_above) for full level k after
// validating monotonicity.
func (c Config) layerLogRatio(ls *LevelSet, k int) (*sparse.DenseArray, error) {
	pAbove, err := c.PressureAtHalfLevel(ls, k, Above)
	if err != nil {
		return nil, err
	}
	pBelow, err := c.PressureAtHalfLevel(ls, k, Below)
	if err != nil {
		return nil, err
	}
	if err := checkMonotonic(pAbove, pBelow, k); err != nil {
		return nil, err
	}
	r := sparse.ZerosDense(pAbove.Shape...)
	for i, a := range pAbove.Elements {
		r.Elements[i] = math.Log(pBelow.Elements[i] / a)
	}
	return r, nil
}

// layerTerm returns R_d Tv(j) ln(p_below(j)/p_above(j)), the thickness
// contribution of the layer at full level j to the hydrostatic integral.
func (c Config) layerTerm(ls *LevelSet, j int) (*sparse.DenseArray, error) {
	r, err := c.layerLogRatio(ls, j)
	if err != nil {
		return nil, err
	}
	t, err := ls.Temperature(j)
	if err != nil {
		return nil, err
	}
	q, err := ls.Humidity(j)
	if err != nil {
		return nil, err
	}
	tv := virtualTemperature(t, q)
	floats.Mul(r.Elements, tv.Elements)
	r.Scale(rd)
	return r, nil
}

// Alpha returns the α coefficient field for full level k. At k == 1 the
// top full level has no finite half-level pressure above it, so α is the
// boundary constant ln 2 everywhere; otherwise
// α = 1 − (p_above/Δp) ln(p_below/p_above). Fails with a
// *MonotonicityError on any grid cell where Δp is not positive.
func (c Config) Alpha(ls *LevelSet, k int) (*sparse.DenseArray, error) {
	if err := c.checkLevel(k); err != nil {
		return nil, err
	}
	sp := ls.SurfacePressure()
	if k == 1 {
		a := sparse.ZerosDense(sp.Shape...)
		for i := range a.Elements {
			a.Elements[i] = math.Ln2
		}
		return a, nil
	}
	pAbove, err := c.PressureAtHalfLevel(ls, k, Above)
	if err != nil {
		return nil, err
	}
	pBelow, err := c.PressureAtHalfLevel(ls, k, Below)
	if err != nil {
		return nil, err
	}
	if err := checkMonotonic(pAbove, pBelow, k); err != nil {
		return nil, err
	}
	out := sparse.ZerosDense(sp.Shape...)
	for i, a := range pAbove.Elements {
		b := pBelow.Elements[i]
		out.Elements[i] = 1 - a/(b-a)*math.Log(b/a)
	}
	return out, nil
}

// HalfLevelGeopotential returns the geopotential field [m2/s2] at the
// half level immediately below full level k, integrated upward from the
// surface. At k == MaxLevel the summation range is empty and the result
// is a copy of the surface geopotential.
func (c Config) HalfLevelGeopotential(ls *LevelSet, k int) (*sparse.DenseArray, error) {
	if err := c.checkLevel(k); err != nil {
		return nil, err
	}
	if err := c.checkSet(ls); err != nil {
		return nil, err
	}
	phi := ls.SurfaceGeopotential().Copy()
	for j := c.max; j > k; j-- {
		term, err := c.layerTerm(ls, j)
		if err != nil {
			return nil, err
		}
		phi.AddDense(term)
	}
	return phi, nil
}

// FullLevelGeopotential returns the geopotential field [m2/s2] at full
// level k: the half-level geopotential below it plus α R_d Tv for the
// layer. The calculation is pure; identical inputs give identical
// results.
func (c Config) FullLevelGeopotential(ls *LevelSet, k int) (*sparse.DenseArray, error) {
	phi, err := c.HalfLevelGeopotential(ls, k)
	if err != nil {
		return nil, err
	}
	a, err := c.Alpha(ls, k)
	if err != nil {
		return nil, err
	}
	t, err := ls.Temperature(k)
	if err != nil {
		return nil, err
	}
	q, err := ls.Humidity(k)
	if err != nil {
		return nil, err
	}
	tv := virtualTemperature(t, q)
	floats.Mul(a.Elements, tv.Elements)
	a.Scale(rd)
	phi.AddDense(a)
	return phi, nil
}

// Profile returns the full-level geopotential at every level in a single
// surface-to-top sweep; index k−1 holds level k. Computing L levels
// one by one with FullLevelGeopotential repeats the integration below
// each level and costs O(L²) field operations; Profile carries the
// half-level accumulator from one level to the next and costs O(L),
// adding terms in the same order so the results match bit for bit.
func (c Config) Profile(ls *LevelSet) ([]*sparse.DenseArray, error) {
	if !c.valid() {
		return nil, &ConfigError{Levels: c.max, reason: "configuration is unset or invalid"}
	}
	if err := c.checkSet(ls); err != nil {
		return nil, err
	}
	out := make([]*sparse.DenseArray, c.max)
	acc := ls.SurfaceGeopotential().Copy() // geopotential at the half level below level k
	for k := c.max; k >= 1; k-- {
		a, err := c.Alpha(ls, k)
		if err != nil {
			return nil, err
		}
		t, err := ls.Temperature(k)
		if err != nil {
			return nil, err
		}
		q, err := ls.Humidity(k)
		if err != nil {
			return nil, err
		}
		tv := virtualTemperature(t, q)
		floats.Mul(a.Elements, tv.Elements)
		a.Scale(rd)
		phi := acc.Copy()
		phi.AddDense(a)
		out[k-1] = phi
		if k > 1 {
			r, err := c.layerLogRatio(ls, k)
			if err != nil {
				return nil, err
			}
			floats.Mul(r.Elements, tv.Elements)
			r.Scale(rd)
			acc.AddDense(r)
		}
	}
	return out, nil
}

// HalfProfile returns the geopotential at the half level below each full
// level in a single sweep; index k−1 holds the half level below level k.
// Index MaxLevel−1 holds the surface geopotential. The accumulation
// order matches HalfLevelGeopotential, so the results do too.
func (c Config) HalfProfile(ls *LevelSet) ([]*sparse.DenseArray, error) {
	if !c.valid() {
		return nil, &ConfigError{Levels: c.max, reason: "configuration is unset or invalid"}
	}
	if err := c.checkSet(ls); err != nil {
		return nil, err
	}
	out := make([]*sparse.DenseArray, c.max)
	acc := ls.SurfaceGeopotential().Copy()
	for k := c.max; k >= 1; k-- {
		out[k-1] = acc.Copy()
		if k > 1 {
			term, err := c.layerTerm(ls, k)
			if err != nil {
				return nil, err
			}
			acc.AddDense(term)
		}
	}
	return out, nil
}
