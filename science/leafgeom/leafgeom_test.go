/*
Copyright © 2017 the canopyrt authors.
This file is part of canopyrt.

canopyrt is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

canopyrt is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with canopyrt.  If not, see <http://www.gnu.org/licenses/>.
*/

package leafgeom

import (
	"math"
	"testing"
)

func TestByName(t *testing.T) {
	for name, want := range map[string]Geometry{
		"spherical":  Spherical{},
		"Uniform":    Spherical{},
		"horizontal": Horizontal{},
		"VERTICAL":   Vertical{},
	} {
		g, err := ByName(name)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if g != want {
			t.Errorf("%s: have %v, want %v", name, g, want)
		}
	}
	if _, err := ByName("ellipsoidal"); err == nil {
		t.Error("unknown distribution should be an error")
	}
}

func TestProjection(t *testing.T) {
	for _, mu := range []float64{0.1, 0.5, 0.9} {
		if g := (Spherical{}).G(mu); g != 0.5 {
			t.Errorf("spherical G(%g) = %g", mu, g)
		}
		if g := (Horizontal{}).G(mu); g != mu {
			t.Errorf("horizontal G(%g) = %g", mu, g)
		}
	}
	if g := (Vertical{}).G(1); g != 0 {
		t.Errorf("vertical G(1) = %g", g)
	}
	if g := (Vertical{}).G(0); math.Abs(g-2/math.Pi) > 1.e-15 {
		t.Errorf("vertical G(0) = %g", g)
	}
}

func TestInclinationDensity(t *testing.T) {
	if d := (Spherical{}).GDash(0); d != 1 {
		t.Errorf("spherical gDash(0) = %g", d)
	}
	if d := (Spherical{}).GDash(1); d != 0 {
		t.Errorf("spherical gDash(1) = %g", d)
	}
	if !math.IsInf((Horizontal{}).GDash(1), 1) || (Horizontal{}).GDash(0.5) != 0 {
		t.Error("horizontal gDash should be a delta at mu = 1")
	}
	if !math.IsInf((Vertical{}).GDash(0), 1) || (Vertical{}).GDash(0.5) != 0 {
		t.Error("vertical gDash should be a delta at mu = 0")
	}
}

func TestFuncs(t *testing.T) {
	f := Funcs{
		Name:      "linear",
		GFunc:     func(mu float64) float64 { return 0.3 + 0.2*mu },
		GDashFunc: func(mu float64) float64 { return 1 },
	}
	if math.Abs(f.G(0.5)-0.4) > 1.e-15 || f.GDash(0.2) != 1 {
		t.Errorf("G=%g, gDash=%g", f.G(0.5), f.GDash(0.2))
	}
	if f.String() != "funcs:linear" {
		t.Error(f.String())
	}
}
