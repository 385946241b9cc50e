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
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/ctessum/requestcache"
	"github.com/mcguirepatr/canopyrt/internal/hash"
	"gonum.org/v1/gonum/integrate/quad"
)

// Adaptive quadrature settings. The number of Gauss-Legendre nodes is
// doubled until two successive estimates agree.
const (
	quadMinNodes = 16
	quadMaxNodes = 1024
	quadRelTol   = 1.e-9
	quadAbsTol   = 1.e-14
)

// integrate integrates f over [a, b].
func integrate(f func(float64) float64, a, b float64) (float64, error) {
	prev := quad.Fixed(f, a, b, quadMinNodes, quad.Legendre{}, 1)
	for n := 2 * quadMinNodes; n <= quadMaxNodes; n *= 2 {
		cur := quad.Fixed(f, a, b, n, quad.Legendre{}, 1)
		diff := math.Abs(cur - prev)
		if diff <= quadAbsTol || diff <= quadRelTol*math.Abs(cur) {
			return cur, nil
		}
		prev = cur
	}
	return prev, newError(ErrNumericalIntegration, "quadrature", map[string]float64{
		"from": a, "to": b, "estimate": prev,
	})
}

// integralCacheSize is the number of integrals held in memory.
const integralCacheSize = 1000

var (
	integralCache     *requestcache.Cache
	integralCacheInit sync.Once
)

type integralRequest struct {
	f    func(float64) float64
	a, b float64
}

// integralResult carries integration failures through the cache as
// results so that they are cached like any other outcome.
type integralResult struct {
	v   float64
	err error
}

// cachedIntegral integrates f over [a, b], reusing the result of any
// earlier request with the same key. The cache is shared by all layers
// and is safe for concurrent use.
func cachedIntegral(key string, f func(float64) float64, a, b float64) (float64, error) {
	integralCacheInit.Do(func() {
		integralCache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			r := request.(integralRequest)
			v, err := integrate(r.f, r.a, r.b)
			return integralResult{v: v, err: err}, nil
		}, runtime.GOMAXPROCS(-1),
			requestcache.Deduplicate(), requestcache.Memory(integralCacheSize))
	})
	req := integralCache.NewRequest(context.Background(), integralRequest{f: f, a: a, b: b}, key)
	result, err := req.Result()
	if err != nil {
		return math.NaN(), err
	}
	res := result.(integralResult)
	if e, ok := res.err.(*Error); ok {
		// Cached errors are shared, so hand out a copy.
		cp := *e
		return res.v, &cp
	}
	return res.v, res.err
}

// MuBar returns the average inverse diffuse optical depth per unit leaf
// area, ∫ mu'/G(mu') dmu' over [0,1]. If the geometry of the layer has a
// closed form it is used, otherwise the integral is computed numerically.
func (l *Layer) MuBar() (float64, error) {
	if m, ok := l.Geometry.(muBarer); ok {
		return m.MuBar(), nil
	}
	g := l.Geometry
	return cachedIntegral("mubar_"+hash.Key(g), func(muDash float64) float64 {
		return muDash / g.G(muDash)
	}, 0, 1)
}

// IntegCosSqGDash returns the integral of cos²(θ)·gDash(cos θ) over
// θ in [0, π/2], used to calculate upscatter parameters
// (Pinty et al., 2006).
func (l *Layer) IntegCosSqGDash() (float64, error) {
	if c, ok := l.Geometry.(cosSqIntegrator); ok {
		return c.IntegCosSqGDash(), nil
	}
	g := l.Geometry
	return cachedIntegral("cos2gdash_"+hash.Key(g), func(theta float64) float64 {
		mu := math.Cos(theta)
		return g.GDash(mu) * mu * mu
	}, 0, math.Pi/2)
}

// BDiffuse returns the diffuse upscatter fraction
// (Pinty et al., 2006).
func (l *Layer) BDiffuse() (float64, error) {
	if u, ok := l.Geometry.(upscatterer); ok {
		return checkUpscatter("diffuse upscatter", u.BDiffuse(l.LeafR, l.LeafT))
	}
	w, d := l.W(), l.D()
	if w == 0 {
		return 0.5, nil // black leaves: upscatter is multiplied by w.
	}
	intg, err := l.IntegCosSqGDash()
	if err != nil {
		return math.NaN(), err
	}
	return checkUpscatter("diffuse upscatter", 0.5/w*(w+d*intg))
}

// BDirect returns the direct-beam upscatter fraction
// (Pinty et al., 2006, eqn. A3).
func (l *Layer) BDirect() (float64, error) {
	if u, ok := l.Geometry.(upscatterer); ok {
		return checkUpscatter("direct upscatter", u.BDirect(l.mu, l.LeafR, l.LeafT))
	}
	w, d := l.W(), l.D()
	if w == 0 {
		return 0.5, nil
	}
	intg, err := l.IntegCosSqGDash()
	if err != nil {
		return math.NaN(), err
	}
	return checkUpscatter("direct upscatter", 0.5/w*(w+d*l.mu/l.G()*intg))
}

// checkUpscatter checks that b is a valid fraction. Values within rtTol of
// [0, 1] are rounding error and are clamped.
func checkUpscatter(quantity string, b float64) (float64, error) {
	if !(b >= -rtTol && b <= 1+rtTol) {
		return b, newError(ErrInvalidOpticalRegime, quantity, map[string]float64{"B": b})
	}
	return math.Min(math.Max(b, 0), 1), nil
}
