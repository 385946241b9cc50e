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
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kinds of failure. Use errors.Is to test which kind an error is.
var (
	// ErrInvalidParameter indicates an input outside of its valid domain,
	// e.g. leaf reflectance plus transmittance greater than one.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnsupportedConfiguration indicates an unknown option, such as an
	// unrecognized gamma scaling policy.
	ErrUnsupportedConfiguration = errors.New("unsupported configuration")

	// ErrInvalidOpticalRegime indicates that the two-stream closed forms are
	// not valid for the given inputs (non-real eigenvalue, vanishing
	// denominator, or a reflectance or transmittance outside [0,1]).
	ErrInvalidOpticalRegime = errors.New("invalid optical regime")

	// ErrNumericalIntegration indicates that an integral did not converge.
	ErrNumericalIntegration = errors.New("numerical integration failure")

	// ErrEnergyBalance indicates a layer whose energy budget
	// closes with the wrong sign.
	ErrEnergyBalance = errors.New("energy balance violation")
)

// Error describes a failed computation: which layer and which quantity
// triggered it, along with the offending values.
type Error struct {
	Kind     error              // One of the Err* kinds above.
	Layer    int                // Layer index, 0 = top. -1 if not attributable to a layer.
	Quantity string             // e.g. "gamma coefficients", "reflectance", "absorption"
	Values   map[string]float64 // Offending values.
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("canopyrt: ")
	if e.Layer >= 0 {
		fmt.Fprintf(&b, "layer %d: ", e.Layer)
	}
	if e.Quantity != "" {
		b.WriteString(e.Quantity)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.Error())
	if len(e.Values) > 0 {
		names := make([]string, 0, len(e.Values))
		for n := range e.Values {
			names = append(names, n)
		}
		sort.Strings(names)
		vals := make([]string, len(names))
		for i, n := range names {
			vals[i] = fmt.Sprintf("%s=%g", n, e.Values[n])
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(vals, ", "))
	}
	return b.String()
}

// Unwrap allows errors.Is to match the error kind.
func (e *Error) Unwrap() error { return e.Kind }

// newError returns an error that is not yet attributed to a layer.
func newError(kind error, quantity string, values map[string]float64) *Error {
	return &Error{Kind: kind, Layer: -1, Quantity: quantity, Values: values}
}

// atLayer attributes err to layer i if it is an *Error that
// does not already have a layer.
func atLayer(err error, i int) error {
	var e *Error
	if errors.As(err, &e) && e.Layer < 0 {
		e.Layer = i
	}
	return err
}
