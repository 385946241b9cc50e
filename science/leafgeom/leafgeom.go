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

// Package leafgeom provides leaf angle distributions for use as the
// geometry of canopy layers. Each distribution supplies the projection
// function G(mu) and the leaf inclination density gDash, and where a closed
// form exists, the average inverse diffuse optical depth (muBar) and the
// integral of cos²θ·gDash(cosθ) used for upscatter.
package leafgeom

import (
	"fmt"
	"math"
	"strings"
)

// Geometry is a leaf angle distribution.
type Geometry interface {
	// G is the mean projection of unit leaf area in direction mu.
	G(mu float64) float64
	// GDash is the leaf inclination density evaluated at mu = cos(θ).
	GDash(mu float64) float64
}

// Spherical is a spherical (isotropic) leaf angle distribution.
type Spherical struct{}

// G returns 0.5 for all directions.
func (Spherical) G(mu float64) float64 { return 0.5 }

// GDash returns sin(θ).
func (Spherical) GDash(mu float64) float64 { return math.Sqrt(math.Max(0, 1-mu*mu)) }

// MuBar returns the closed form of ∫ mu/G(mu) dmu over [0,1].
func (Spherical) MuBar() float64 { return 1 }

// IntegCosSqGDash returns the mean of cos² of the leaf inclination.
func (Spherical) IntegCosSqGDash() float64 { return 1. / 3. }

func (Spherical) String() string { return "spherical" }

// Horizontal is a canopy of horizontal (planophile) leaves.
// The inclination density is a Dirac delta at θ = 0, so it can
// only be integrated in closed form.
type Horizontal struct{}

// G returns mu.
func (Horizontal) G(mu float64) float64 { return mu }

// GDash is zero everywhere except at mu = 1 where it is infinite.
func (Horizontal) GDash(mu float64) float64 {
	if mu == 1 {
		return math.Inf(1)
	}
	return 0
}

// MuBar returns 1.
func (Horizontal) MuBar() float64 { return 1 }

// IntegCosSqGDash returns 1.
func (Horizontal) IntegCosSqGDash() float64 { return 1 }

func (Horizontal) String() string { return "horizontal" }

// Vertical is a canopy of vertical (erectophile) leaves with random
// azimuth. G vanishes at mu = 1, so it is not valid for overhead sun.
type Vertical struct{}

// G returns (2/π)·sqrt(1-mu²).
func (Vertical) G(mu float64) float64 { return 2 / math.Pi * math.Sqrt(math.Max(0, 1-mu*mu)) }

// GDash is zero everywhere except at mu = 0 where it is infinite.
func (Vertical) GDash(mu float64) float64 {
	if mu == 0 {
		return math.Inf(1)
	}
	return 0
}

// MuBar returns π/2.
func (Vertical) MuBar() float64 { return math.Pi / 2 }

// IntegCosSqGDash returns 0.
func (Vertical) IntegCosSqGDash() float64 { return 0 }

func (Vertical) String() string { return "vertical" }

// Funcs is a leaf angle distribution defined by arbitrary functions,
// for instance one fitted to measurements. Integrals over it are
// computed numerically.
type Funcs struct {
	// Name identifies the distribution. Distributions with different
	// functions must have different names because integrals are
	// cached by name.
	Name      string
	GFunc     func(mu float64) float64
	GDashFunc func(mu float64) float64
}

// G calls GFunc.
func (f Funcs) G(mu float64) float64 { return f.GFunc(mu) }

// GDash calls GDashFunc.
func (f Funcs) GDash(mu float64) float64 { return f.GDashFunc(mu) }

func (f Funcs) String() string { return "funcs:" + f.Name }

// ByName returns the named leaf angle distribution. Valid names are
// "spherical", "uniform" (a synonym for spherical, following JULES),
// "horizontal" and "vertical".
func ByName(name string) (Geometry, error) {
	switch strings.ToLower(name) {
	case "spherical", "uniform":
		return Spherical{}, nil
	case "horizontal":
		return Horizontal{}, nil
	case "vertical":
		return Vertical{}, nil
	default:
		return nil, fmt.Errorf("leafgeom: unknown leaf angle distribution '%s'", name)
	}
}
