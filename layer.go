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

package canopyrt

import (
	"math"

	"github.com/mcguirepatr/canopyrt/science/leafgeom"
)

// GammaScaling selects how the Meador and Weaver gamma coefficients are
// scaled to be consistent with the Sellers (1985) two-stream model.
type GammaScaling string

const (
	// Delta scales by 1/(G(mu)·muBar).
	Delta GammaScaling = "delta"
	// Quad is the modified quadrature closure, which scales by √3.
	Quad GammaScaling = "quad"
)

// LeafGeometry is the leaf angle distribution of a layer.
// Implementations may additionally supply closed forms by implementing
// any of:
//
//	MuBar() float64
//	IntegCosSqGDash() float64
//	BDirect(mu, leafR, leafT float64) float64
//	BDiffuse(leafR, leafT float64) float64
//
// Otherwise the quantities are computed by numerical integration.
// Package leafgeom provides common distributions.
type LeafGeometry interface {
	// G is the mean projection of unit leaf area in direction mu.
	G(mu float64) float64
	// GDash is the leaf inclination density evaluated at mu = cos(θ).
	GDash(mu float64) float64
}

type muBarer interface {
	MuBar() float64
}

type cosSqIntegrator interface {
	IntegCosSqGDash() float64
}

type upscatterer interface {
	BDirect(mu, leafR, leafT float64) float64
	BDiffuse(leafR, leafT float64) float64
}

// Tolerances for detecting degenerate closed forms and out-of-range results.
const (
	denomTol     = 1.e-12
	resonanceTol = 1.e-6
	rtTol        = 1.e-9
)

// Layer holds the optical properties of one canopy layer and calculates
// its reflectance and transmittance using the two-stream equations of
// Meador and Weaver (1980).
type Layer struct {
	LeafR float64 // Hemispherical leaf reflectance [0-1]
	LeafT float64 // Hemispherical leaf transmittance [0-1]
	LAI   float64 // Leaf area index of this layer [m²/m²]

	// Gamma coefficient scaling under direct and diffuse illumination.
	GammaScalingDirect  GammaScaling
	GammaScalingDiffuse GammaScaling

	Geometry  LeafGeometry // Leaf angle distribution
	Structure Zeta         // Optical depth modulation. nil means no structure.

	// Fluxes holds the results of the last Canopy.Fluxes calculation.
	Fluxes

	mu float64 // cosine of the illumination zenith angle
}

// NewLayer returns a layer illuminated from direction cosine mu, with
// default leaf properties, a spherical leaf angle distribution and no
// canopy structure.
func NewLayer(mu float64) *Layer {
	return &Layer{
		LeafR:               0.1,
		LeafT:               0.1,
		LAI:                 0.2,
		GammaScalingDirect:  Delta,
		GammaScalingDiffuse: Delta,
		Geometry:            leafgeom.Spherical{},
		Structure:           NoStructure(),
		mu:                  mu,
	}
}

// Mu returns the cosine of the illumination zenith angle.
func (l *Layer) Mu() float64 { return l.mu }

// W returns the leaf single scattering albedo, leaf_r + leaf_t.
func (l *Layer) W() float64 { return l.LeafR + l.LeafT }

// D returns leaf_r - leaf_t.
func (l *Layer) D() float64 { return l.LeafR - l.LeafT }

// G returns the leaf projection function at the layer's mu.
func (l *Layer) G() float64 { return l.Geometry.G(l.mu) }

// Z returns the optical depth modulation at the layer's mu.
func (l *Layer) Z() float64 {
	if l.Structure == nil {
		return 1
	}
	return l.Structure(l.mu)
}

// tau is the effective optical depth of the layer.
func (l *Layer) tau() float64 { return l.LAI * l.G() * l.Z() }

// Validate checks that the layer parameters are within their valid domains.
func (l *Layer) Validate() error {
	if !(l.mu > 0 && l.mu <= 1) {
		return newError(ErrInvalidParameter, "mu", map[string]float64{"mu": l.mu})
	}
	if !(l.LeafR >= 0 && l.LeafR <= 1) || !(l.LeafT >= 0 && l.LeafT <= 1) || l.LeafR+l.LeafT > 1 {
		return newError(ErrInvalidParameter, "leaf optical properties",
			map[string]float64{"leaf_r": l.LeafR, "leaf_t": l.LeafT})
	}
	if !(l.LAI >= 0) || math.IsInf(l.LAI, 0) {
		return newError(ErrInvalidParameter, "lai", map[string]float64{"lai": l.LAI})
	}
	if l.Geometry == nil {
		return newError(ErrInvalidParameter, "leaf geometry", nil)
	}
	if g := l.G(); !(g > 0) || math.IsInf(g, 0) {
		return newError(ErrInvalidParameter, "G(mu)", map[string]float64{"mu": l.mu, "G": g})
	}
	if z := l.Z(); !(z > 0) || math.IsInf(z, 0) {
		return newError(ErrInvalidParameter, "Z(mu)", map[string]float64{"mu": l.mu, "Z": z})
	}
	return nil
}

// Gamma returns the coefficients for the Meador and Weaver two-stream
// model that are consistent with the Sellers model.
func (l *Layer) Gamma(method GammaScaling) (g1, g2, g3, g4 float64, err error) {
	b, err := l.BDiffuse()
	if err != nil {
		return
	}
	b0, err := l.BDirect()
	if err != nil {
		return
	}
	var scale float64
	switch method {
	case Delta:
		var muBar float64
		muBar, err = l.MuBar()
		if err != nil {
			return
		}
		scale = 1 / (l.G() * muBar)
	case Quad:
		scale = math.Sqrt(3)
	default:
		err = newError(ErrUnsupportedConfiguration, "gamma scaling '"+string(method)+"'", nil)
		return
	}

	w := l.W()
	g1 = (1 - (1-b)*w) * scale
	g2 = w * b * scale
	g3 = b0
	g4 = 1 - g3

	if !(g2 >= 0 && g1 >= g2) || math.IsInf(g1, 0) {
		err = newError(ErrInvalidOpticalRegime, "gamma coefficients", map[string]float64{
			"g1": g1, "g2": g2, "g3": g3, "g4": g4,
		})
	}
	return
}

// RTDiffuse returns the reflectance and transmittance of the layer
// under diffuse illumination.
func (l *Layer) RTDiffuse() (r, t float64, err error) {
	if err = l.Validate(); err != nil {
		return
	}
	g1, g2, _, _, err := l.Gamma(l.GammaScalingDiffuse)
	if err != nil {
		return
	}
	tau := l.tau()
	k := math.Sqrt(g1*g1 - g2*g2)

	e1 := math.Exp(-k * tau)
	e2 := e1 * e1
	d := k + g1 + (k-g1)*e2
	if math.Abs(d) <= denomTol*(k+g1) {
		err = newError(ErrInvalidOpticalRegime, "diffuse denominator", map[string]float64{
			"D": d, "k": k, "g1": g1, "g2": g2, "tau": tau,
		})
		return
	}
	r = g2 * (1 - e2) / d
	t = 2 * k * e1 / d
	err = checkRT("diffuse", r, t)
	return
}

// RTDirect returns the reflectance and transmittance of the layer under
// direct illumination. The transmittance includes the uncollided beam.
//
// The closed form is rearranged so that only decaying exponentials are
// evaluated, which keeps it finite for optically thick layers.
func (l *Layer) RTDirect() (r, t float64, err error) {
	if err = l.Validate(); err != nil {
		return
	}
	g1, g2, g3, g4, err := l.Gamma(l.GammaScalingDirect)
	if err != nil {
		return
	}
	mu := l.mu
	w := l.W()
	tau := l.tau()
	eb := math.Exp(-tau / mu)
	if w == 0 {
		return 0, eb, nil
	}

	a1 := g1*g4 + g2*g3
	a2 := g1*g3 + g2*g4
	k := math.Sqrt(g1*g1 - g2*g2)
	km := k * mu

	res := 1 - km*km
	if math.Abs(res) < resonanceTol {
		err = newError(ErrInvalidOpticalRegime, "direct denominator", map[string]float64{
			"k": k, "mu": mu, "k*mu": km,
		})
		return
	}
	em := math.Exp(-k * tau)
	e2 := em * em
	d := res * ((k + g1) + (k-g1)*e2)
	if math.Abs(d) <= denomTol*math.Abs(res)*(k+g1) {
		err = newError(ErrInvalidOpticalRegime, "direct denominator", map[string]float64{
			"D": d, "k": k, "g1": g1, "g2": g2, "tau": tau,
		})
		return
	}

	f := (1 - km) * (a2 + k*g3)
	g := (1 + km) * (a2 - k*g3) * e2
	h := 2 * k * (g3 - a2*mu) * eb * em
	r = w / d * (f - g - h)

	f = (1 + km) * (a1 + k*g4) * eb
	g = (1 - km) * (a1 - k*g4) * e2 * eb
	h = 2 * k * (g4 + a1*mu) * em
	t = eb - w/d*(f-g-h)

	err = checkRT("direct", r, t)
	return
}

// TUncollidedDirect returns the fraction of collimated radiation that
// passes through the layer without interacting with it.
func (l *Layer) TUncollidedDirect() float64 {
	return math.Exp(-l.G() * l.Z() * l.LAI / l.mu)
}

// checkRT checks that reflectance and transmittance are physically valid.
func checkRT(illumination string, r, t float64) error {
	vals := map[string]float64{"R": r, "T": t}
	if !(r >= -rtTol && r <= 1+rtTol) {
		return newError(ErrInvalidOpticalRegime, illumination+" reflectance", vals)
	}
	if !(t >= -rtTol && t <= 1+rtTol) {
		return newError(ErrInvalidOpticalRegime, illumination+" transmittance", vals)
	}
	if r+t > 1+rtTol {
		return newError(ErrInvalidOpticalRegime, illumination+" reflectance+transmittance", vals)
	}
	return nil
}
