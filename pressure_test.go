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
	"testing"

	"github.com/ctessum/sparse"
)

// variedLevelSet returns a three-level set over a 2×2 grid with
// cell-to-cell variation in every field.
func variedLevelSet() *LevelSet {
	field := func(vals ...float64) *sparse.DenseArray {
		a := sparse.ZerosDense(2, 2)
		copy(a.Elements, vals)
		return a
	}
	tl := []*sparse.DenseArray{
		field(210, 211, 212, 213),
		field(240, 242, 244, 246),
		field(288, 285, 290, 284),
	}
	ql := []*sparse.DenseArray{
		field(0, 0, 0, 0),
		field(0.0001, 0.0002, 0.0001, 0.0003),
		field(0.01, 0.008, 0.012, 0.009),
	}
	sp := field(100000, 90000, 80000, 101325)
	zs := field(0, 100, 4905, 981)
	ls, err := NewLevelSet(tl, ql, sp, zs)
	if err != nil {
		panic(err)
	}
	return ls
}

func TestPressureAtHalfLevel(t *testing.T) {
	const tolerance = 1.0e-8
	cfg, err := NewConfigScheme(SchemeL137, 3, testTable())
	if err != nil {
		t.Fatal(err)
	}
	ls := variedLevelSet()
	sp := ls.SurfacePressure()

	scaled := func(a, b float64) *sparse.DenseArray {
		p := sparse.ZerosDense(2, 2)
		for i, v := range sp.Elements {
			p.Elements[i] = a + b*v
		}
		return p
	}

	p, err := cfg.PressureAtHalfLevel(ls, 2, Above)
	if err != nil {
		t.Fatal(err)
	}
	arrayCompare(p, scaled(100, 0.3), tolerance, "level 2 above", t)

	p, err = cfg.PressureAtHalfLevel(ls, 2, Below)
	if err != nil {
		t.Fatal(err)
	}
	arrayCompare(p, scaled(200, 0.6), tolerance, "level 2 below", t)

	p, err = cfg.PressureAtHalfLevel(ls, 1, Above)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range p.Elements {
		if v != 0 {
			t.Errorf("top of atmosphere element %d: want 0 but have %g", i, v)
		}
	}
}

func TestPressureSurfaceShortcut(t *testing.T) {
	cfg, err := NewConfigScheme(SchemeL137, 3, testTable())
	if err != nil {
		t.Fatal(err)
	}
	ls := variedLevelSet()

	p, err := cfg.PressureAtHalfLevel(ls, 3, Below)
	if err != nil {
		t.Fatal(err)
	}
	// The half level below the bottom full level is the surface: the
	// result is the surface pressure exactly, not row 3 of the table.
	for i, v := range p.Elements {
		if v != ls.SurfacePressure().Elements[i] {
			t.Errorf("element %d: want %g but have %g", i, ls.SurfacePressure().Elements[i], v)
		}
	}
	p.Elements[0] = -1
	if ls.SurfacePressure().Elements[0] == -1 {
		t.Error("surface shortcut aliases the surface pressure field")
	}

	// The half level above the bottom full level still comes from the
	// table.
	p, err = cfg.PressureAtHalfLevel(ls, 3, Above)
	if err != nil {
		t.Fatal(err)
	}
	want := 200 + 0.6*ls.SurfacePressure().Elements[0]
	if p.Elements[0] != want {
		t.Errorf("level 3 above: want %g but have %g", want, p.Elements[0])
	}
}

func TestPressureSurfaceShortcutL60(t *testing.T) {
	cfg, err := NewConfigScheme(SchemeL60, 3, testTableL60())
	if err != nil {
		t.Fatal(err)
	}
	ls := variedLevelSet()

	// In the 60-level convention row k is the half level above full
	// level k, and the surface row is absent from the table entirely.
	p, err := cfg.PressureAtHalfLevel(ls, 3, Below)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range p.Elements {
		if v != ls.SurfacePressure().Elements[i] {
			t.Errorf("element %d: want %g but have %g", i, ls.SurfacePressure().Elements[i], v)
		}
	}

	p, err = cfg.PressureAtHalfLevel(ls, 3, Above)
	if err != nil {
		t.Fatal(err)
	}
	want := 200 + 0.6*ls.SurfacePressure().Elements[0]
	if p.Elements[0] != want {
		t.Errorf("level 3 above: want %g but have %g", want, p.Elements[0])
	}

	p, err = cfg.PressureAtHalfLevel(ls, 1, Below)
	if err != nil {
		t.Fatal(err)
	}
	want = 100 + 0.3*ls.SurfacePressure().Elements[0]
	if p.Elements[0] != want {
		t.Errorf("level 1 below: want %g but have %g", want, p.Elements[0])
	}
}

func TestPressureBadArguments(t *testing.T) {
	cfg, err := NewConfigScheme(SchemeL137, 3, testTable())
	if err != nil {
		t.Fatal(err)
	}
	ls := variedLevelSet()

	_, err = cfg.PressureAtHalfLevel(ls, 2, HalfLevel(9))
	if err == nil {
		t.Fatal("bad specifier: want error but have none")
	}
	lerr, ok := err.(*LevelError)
	if !ok {
		t.Fatalf("want *LevelError but have %T", err)
	}
	if !lerr.BadSpec || lerr.Spec != HalfLevel(9) {
		t.Errorf("want BadSpec with Spec 9 but have %+v", lerr)
	}

	for _, k := range []int{0, -1, 4} {
		if _, err := cfg.PressureAtHalfLevel(ls, k, Below); err == nil {
			t.Errorf("level %d: want error but have none", k)
		} else if _, ok := err.(*LevelError); !ok {
			t.Errorf("level %d: want *LevelError but have %T", k, err)
		}
	}
}

func TestPressureMonotonic(t *testing.T) {
	ls := variedLevelSet()
	cfgs := map[string]Config{}
	cfg137, err := NewConfigScheme(SchemeL137, 3, testTable())
	if err != nil {
		t.Fatal(err)
	}
	cfgs["L137"] = cfg137
	cfg60, err := NewConfigScheme(SchemeL60, 3, testTableL60())
	if err != nil {
		t.Fatal(err)
	}
	cfgs["L60"] = cfg60

	for name, cfg := range cfgs {
		for k := 1; k <= 3; k++ {
			pAbove, err := cfg.PressureAtHalfLevel(ls, k, Above)
			if err != nil {
				t.Fatal(err)
			}
			pBelow, err := cfg.PressureAtHalfLevel(ls, k, Below)
			if err != nil {
				t.Fatal(err)
			}
			for i := range pAbove.Elements {
				if pAbove.Elements[i] >= pBelow.Elements[i] {
					t.Errorf("%s level %d element %d: pressure above (%g) is not less than below (%g)",
						name, k, i, pAbove.Elements[i], pBelow.Elements[i])
				}
			}
		}
	}
}
