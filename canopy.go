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
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
)

// energyTol is the most negative energy balance residual
// that is attributed to rounding rather than a fault.
const energyTol = 1.e-9

// Fluxes holds the irradiance at the boundaries of a layer and the
// irradiance absorbed within it, normalized by the incident irradiance
// at the top of the canopy. Upward fluxes are at the top of the layer
// and downward fluxes at the bottom.
type Fluxes struct {
	IupDif float64 `desc:"Upward flux, diffuse illumination" units:"fraction"`
	IdnDif float64 `desc:"Downward flux, diffuse illumination" units:"fraction"`
	IabDif float64 `desc:"Absorbed flux, diffuse illumination" units:"fraction"`

	IupDirU float64 `desc:"Upward flux arising from the uncollided beam, direct illumination" units:"fraction"`
	IupDirC float64 `desc:"Upward flux arising from collided radiation, direct illumination" units:"fraction"`
	IdnDirU float64 `desc:"Downward flux arising from the uncollided beam, direct illumination" units:"fraction"`
	IdnDirC float64 `desc:"Downward flux arising from collided radiation, direct illumination" units:"fraction"`
	IupDir  float64 `desc:"Upward flux, direct illumination" units:"fraction"`
	IdnDir  float64 `desc:"Downward flux, direct illumination" units:"fraction"`
	IabDir  float64 `desc:"Absorbed flux, direct illumination" units:"fraction"`

	Iup float64 `desc:"Upward flux" units:"fraction"`
	Idn float64 `desc:"Downward flux" units:"fraction"`
	Iab float64 `desc:"Absorbed flux" units:"fraction"`
}

// Canopy is a vertical stack of layers above a reflecting lower
// boundary. It combines the optical properties of the individual layers
// using the adding method to calculate the vertical profile of fluxes.
type Canopy struct {
	// LowerBoundaryR is the Lambertian reflectance of the surface
	// beneath the lowest layer.
	LowerBoundaryR float64

	// PropDif is the fraction of the incident radiation that is diffuse.
	PropDif float64

	// Layers are ordered from the top of the canopy (index 0)
	// to the bottom.
	Layers []*Layer

	// Log receives status messages. It defaults to the logrus
	// standard logger.
	Log logrus.FieldLogger

	mu float64
}

// NewCanopy returns a canopy with nLayers default layers illuminated
// from direction cosine mu.
func NewCanopy(nLayers int, mu float64) (*Canopy, error) {
	if nLayers < 1 {
		return nil, newError(ErrInvalidParameter, "number of layers", map[string]float64{"nLayers": float64(nLayers)})
	}
	if !(mu > 0 && mu <= 1) {
		return nil, newError(ErrInvalidParameter, "mu", map[string]float64{"mu": mu})
	}
	c := &Canopy{
		LowerBoundaryR: 0.1,
		PropDif:        0,
		Layers:         make([]*Layer, nLayers),
		Log:            logrus.StandardLogger(),
		mu:             mu,
	}
	for i := range c.Layers {
		c.Layers[i] = NewLayer(mu)
	}
	return c, nil
}

// Mu returns the cosine of the illumination zenith angle.
func (c *Canopy) Mu() float64 { return c.mu }

// SetLayer sets the leaf optical properties, leaf area index and
// gamma scaling (for both direct and diffuse illumination) of layer i.
func (c *Canopy) SetLayer(i int, leafR, leafT, lai float64, scaling GammaScaling) error {
	if i < 0 || i >= len(c.Layers) {
		return newError(ErrInvalidParameter, "layer index", map[string]float64{"index": float64(i)})
	}
	l := c.Layers[i]
	l.LeafR, l.LeafT, l.LAI = leafR, leafT, lai
	l.GammaScalingDirect, l.GammaScalingDiffuse = scaling, scaling
	return atLayer(l.Validate(), i)
}

// SetBoundary sets the lower boundary reflectance and the diffuse
// fraction of the incident radiation.
func (c *Canopy) SetBoundary(lowerBoundaryR, propDif float64) error {
	c.LowerBoundaryR, c.PropDif = lowerBoundaryR, propDif
	return c.validateBoundary()
}

func (c *Canopy) validateBoundary() error {
	if !(c.LowerBoundaryR >= 0 && c.LowerBoundaryR <= 1) {
		return newError(ErrInvalidParameter, "lower boundary reflectance", map[string]float64{"lower_boundary_r": c.LowerBoundaryR})
	}
	if !(c.PropDif >= 0 && c.PropDif <= 1) {
		return newError(ErrInvalidParameter, "diffuse fraction", map[string]float64{"propDif": c.PropDif})
	}
	return nil
}

// Validate checks the boundary conditions and all of the layers.
func (c *Canopy) Validate() error {
	if len(c.Layers) == 0 {
		return newError(ErrInvalidParameter, "number of layers", map[string]float64{"nLayers": 0})
	}
	if err := c.validateBoundary(); err != nil {
		return err
	}
	for i, l := range c.Layers {
		if l == nil {
			return &Error{Kind: ErrInvalidParameter, Layer: i, Quantity: "layer"}
		}
		if l.mu != c.mu {
			return &Error{Kind: ErrInvalidParameter, Layer: i, Quantity: "mu",
				Values: map[string]float64{"layer mu": l.mu, "canopy mu": c.mu}}
		}
		if err := l.Validate(); err != nil {
			return atLayer(err, i)
		}
	}
	return nil
}

// multipleReflection returns 1 + z/(1-z), the factor accounting for
// repeated reflection between a layer and the stack beneath it.
func multipleReflection(z float64) (float64, error) {
	if !(1-z > denomTol) {
		return math.NaN(), newError(ErrInvalidOpticalRegime, "multiple reflection", map[string]float64{"Z": z})
	}
	return 1 + z/(1-z), nil
}

// DiffuseFluxes calculates the fluxes between each layer for the whole
// canopy under diffuse illumination.
func (c *Canopy) DiffuseFluxes() error {
	if err := c.Validate(); err != nil {
		return err
	}
	n := len(c.Layers)

	// Work from the lowest layer up, using adding to calculate the
	// reflectance and transmittance of each layer combined with
	// everything below it.
	rLast := c.LowerBoundaryR
	for i := n - 1; i >= 0; i-- {
		l := c.Layers[i]
		r, t, err := l.RTDiffuse()
		if err != nil {
			return atLayer(err, i)
		}
		m, err := multipleReflection(rLast * r)
		if err != nil {
			return atLayer(err, i)
		}
		r = r + t*t*rLast*m
		t = t * m
		rLast = r

		l.IupDif = r
		l.IdnDif = t
	}

	// Work back down through the layers, normalizing by the
	// total transmission of the layers above.
	tAbove := 1.
	for _, l := range c.Layers {
		t := l.IdnDif
		l.IupDif *= tAbove
		l.IdnDif *= tAbove
		tAbove *= t
	}

	for i, l := range c.Layers {
		idnAbove, iupBelow := c.neighbours(i, func(l *Layer) (float64, float64) { return l.IupDif, l.IdnDif })
		iab, err := absorption(iupBelow, l.IupDif, idnAbove, l.IdnDif)
		if err != nil {
			return atLayer(err, i)
		}
		l.IabDif = iab
	}

	c.log().WithFields(logrus.Fields{
		"illumination": "diffuse",
		"layers":       n,
		"Iup_top":      c.Layers[0].IupDif,
		"Idn_bottom":   c.Layers[n-1].IdnDif,
	}).Debug("canopyrt calculated fluxes")
	return nil
}

// DirectFluxes calculates the fluxes between each layer for the whole
// canopy under direct illumination.
//
// Two pairs of reflectance and transmittance are carried through the
// adding: one for radiation arising from the uncollided beam (Ru, Tu)
// and one for collided radiation (Rc, Tc), which is diffuse.
func (c *Canopy) DirectFluxes() error {
	if err := c.Validate(); err != nil {
		return err
	}
	n := len(c.Layers)

	ruLast := c.LowerBoundaryR
	rcLast := c.LowerBoundaryR
	for i := n - 1; i >= 0; i-- {
		l := c.Layers[i]
		ru, tu, err := l.RTDirect()
		if err != nil {
			return atLayer(err, i)
		}
		rc, tc, err := l.RTDiffuse()
		if err != nil {
			return atLayer(err, i)
		}
		u := l.TUncollidedDirect()

		// Once scattered, radiation is diffuse, so the collided
		// reflection governs the multiple reflections of both.
		m, err := multipleReflection(rcLast * rc)
		if err != nil {
			return atLayer(err, i)
		}

		// collimated beam
		ruNew := ru + u*ruLast*tc*m + (tu-u)*rcLast*tc*m
		tuNew := u + u*ruLast*rc*m + (tu-u)*m

		// collided radiation
		rcNew := rc + tc*rcLast*tc*m
		tcNew := tc * m

		ruLast = ruNew
		rcLast = rcNew

		l.IupDirU = ruNew
		l.IupDirC = rcNew
		l.IdnDirU = tuNew
		l.IdnDirC = tcNew
	}

	// Work back down through the layers, normalizing by the
	// uncollided and collided radiation incident on each layer.
	tu := 1.
	tc := 0.
	for _, l := range c.Layers {
		l.IupDirU *= tu
		l.IdnDirU *= tu
		l.IupDirC *= tc
		l.IdnDirC *= tc
		l.IupDir = l.IupDirC + l.IupDirU
		l.IdnDir = l.IdnDirC + l.IdnDirU

		// Uncollided radiation incident on the next layer down.
		tu *= l.TUncollidedDirect()
		// The beam attenuated so far that has not been absorbed or
		// reflected is a diffuse source for the layers below.
		s := l.IdnDirU - tu
		tc = l.IdnDirC + s
	}

	for i, l := range c.Layers {
		idnAbove, iupBelow := c.neighbours(i, func(l *Layer) (float64, float64) { return l.IupDir, l.IdnDir })
		iab, err := absorption(iupBelow, l.IupDir, idnAbove, l.IdnDir)
		if err != nil {
			return atLayer(err, i)
		}
		l.IabDir = iab
	}

	c.log().WithFields(logrus.Fields{
		"illumination": "direct",
		"layers":       n,
		"Iup_top":      c.Layers[0].IupDir,
		"Idn_bottom":   c.Layers[n-1].IdnDir,
	}).Debug("canopyrt calculated fluxes")
	return nil
}

// neighbours returns the downward flux entering layer i from above and
// the upward flux entering it from below, where fluxes returns the
// upward and downward fluxes of a layer.
func (c *Canopy) neighbours(i int, fluxes func(*Layer) (up, down float64)) (idnAbove, iupBelow float64) {
	n := len(c.Layers)
	if i == 0 {
		idnAbove = 1
	} else {
		_, idnAbove = fluxes(c.Layers[i-1])
	}
	if i == n-1 {
		_, idn := fluxes(c.Layers[i])
		iupBelow = idn * c.LowerBoundaryR
	} else {
		iupBelow, _ = fluxes(c.Layers[i+1])
	}
	return
}

// absorption solves the energy balance of a layer.
func absorption(iupBelow, iup, idnAbove, idn float64) (float64, error) {
	residual := iupBelow - iup + idnAbove - idn
	if !(residual >= -energyTol) {
		return residual, newError(ErrEnergyBalance, "absorption", map[string]float64{
			"residual": residual, "Iup_below": iupBelow, "Iup": iup, "Idn_above": idnAbove, "Idn": idn,
		})
	}
	return math.Max(residual, 0), nil
}

// Fluxes calculates the fluxes for direct and diffuse illumination and
// blends them according to PropDif. The results are stored in the
// layers and a copy is returned, ordered from the top of the canopy.
// It can be called again after the layer parameters change.
func (c *Canopy) Fluxes() ([]Fluxes, error) {
	if err := c.DirectFluxes(); err != nil {
		return nil, err
	}
	if err := c.DiffuseFluxes(); err != nil {
		return nil, err
	}
	p := c.PropDif
	out := make([]Fluxes, len(c.Layers))
	for i, l := range c.Layers {
		l.Iup = (1-p)*l.IupDir + p*l.IupDif
		l.Idn = (1-p)*l.IdnDir + p*l.IdnDif
		l.Iab = (1-p)*l.IabDir + p*l.IabDif
		out[i] = l.Fluxes
	}
	return out, nil
}

// ProfilePoint is the blended flux at one layer, located by the
// cumulative leaf area index from the top of the canopy to the
// bottom of the layer.
type ProfilePoint struct {
	Layer         int
	CumulativeLAI float64
	Iup, Idn, Iab float64
}

// Profile returns the vertical profile of the fluxes from the last
// call to Fluxes.
func (c *Canopy) Profile() []ProfilePoint {
	out := make([]ProfilePoint, len(c.Layers))
	cum := 0.
	for i, l := range c.Layers {
		cum += l.LAI
		out[i] = ProfilePoint{Layer: i, CumulativeLAI: cum, Iup: l.Iup, Idn: l.Idn, Iab: l.Iab}
	}
	return out
}

// EnergyBudget returns the fractions of the incident radiation that are
// absorbed by the canopy, reflected from its top, and transmitted into
// (and absorbed by) the lower boundary, from the last call to Fluxes.
// The three add up to one.
func (c *Canopy) EnergyBudget() (absorbed, reflected, transmitted float64) {
	iab := make([]float64, len(c.Layers))
	for i, l := range c.Layers {
		iab[i] = l.Iab
	}
	absorbed = floats.Sum(iab)
	reflected = c.Layers[0].Iup
	transmitted = c.Layers[len(c.Layers)-1].Idn * (1 - c.LowerBoundaryR)
	return
}

// SingleLayerEquivalent returns a one-layer canopy with the properties
// of the top layer of c and the total leaf area index of c. For a
// vertically homogeneous canopy its fluxes at the top and bottom of the
// canopy equal those of c.
func SingleLayerEquivalent(c *Canopy) (*Canopy, error) {
	if len(c.Layers) == 0 {
		return nil, newError(ErrInvalidParameter, "number of layers", map[string]float64{"nLayers": 0})
	}
	s, err := NewCanopy(1, c.mu)
	if err != nil {
		return nil, err
	}
	s.LowerBoundaryR, s.PropDif, s.Log = c.LowerBoundaryR, c.PropDif, c.Log
	top := *c.Layers[0]
	top.Fluxes = Fluxes{}
	top.LAI = 0
	for _, l := range c.Layers {
		top.LAI += l.LAI
	}
	s.Layers[0] = &top
	return s, nil
}

func (c *Canopy) log() logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

func (c *Canopy) String() string {
	return fmt.Sprintf("canopy (%d layers, mu=%g, lower_boundary_r=%g, propDif=%g)",
		len(c.Layers), c.mu, c.LowerBoundaryR, c.PropDif)
}
