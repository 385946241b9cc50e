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

// Zeta modulates the optical depth of a layer as a function of the
// direction cosine, accounting for canopy structure (clumping) that is
// not described by the leaf angle distribution.
type Zeta func(mu float64) float64

// NoStructure returns a Zeta for a canopy with no structural effects.
func NoStructure() Zeta {
	return func(mu float64) float64 { return 1 }
}

// PintyZeta returns the structure factor of Pinty et al. (2006),
// a + b(1-mu). It is physically meaningful for a > 0 and b >= 0.
func PintyZeta(a, b float64) Zeta {
	return func(mu float64) float64 {
		return a + b*(1-mu)
	}
}
