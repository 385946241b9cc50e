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
	"reflect"
	"sort"

	"github.com/Knetic/govaluate"
)

// Outputter calculates user-specified output variables for each layer
// of a canopy. Output variables are expressions that can refer to the
// model variables listed by OutputVariables and to functions.
type Outputter struct {
	expressions map[string]*govaluate.EvaluableExpression
	names       []string
}

// NewOutputter initializes a new Outputter, where outputVariables maps
// the names of the requested output variables to the expressions that
// define them and outputFunctions supplies functions beyond the defaults.
// Default functions are:
//
// 'exp(x)' which applies the exponential function e^x.
//
// 'abs(x)' which returns the absolute value of x.
//
// 'max(x, y, ...)' and 'min(x, y, ...)' which return the largest and
// smallest of their arguments.
func NewOutputter(outputVariables map[string]string, outputFunctions map[string]govaluate.ExpressionFunction) (*Outputter, error) {
	if len(outputVariables) == 0 {
		return nil, fmt.Errorf("canopyrt: there are no output variables specified")
	}
	funcs := map[string]govaluate.ExpressionFunction{
		"exp": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("canopyrt: got %d arguments for function 'exp', but needs 1", len(arg))
			}
			return math.Exp(arg[0].(float64)), nil
		},
		"abs": func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("canopyrt: got %d arguments for function 'abs', but needs 1", len(arg))
			}
			return math.Abs(arg[0].(float64)), nil
		},
		"max": extremum("max", math.Max),
		"min": extremum("min", math.Min),
	}
	for key, val := range outputFunctions {
		funcs[key] = val
	}

	known := make(map[string]bool)
	for name := range OutputVariables() {
		known[name] = true
	}

	o := &Outputter{
		expressions: make(map[string]*govaluate.EvaluableExpression),
	}
	for name, exprString := range outputVariables {
		expr, err := govaluate.NewEvaluableExpressionWithFunctions(exprString, funcs)
		if err != nil {
			return nil, fmt.Errorf("canopyrt: output variable %s: %v", name, err)
		}
		for _, v := range expr.Vars() {
			if !known[v] {
				return nil, fmt.Errorf("canopyrt: output variable %s: unknown model variable '%s'", name, v)
			}
		}
		o.expressions[name] = expr
		o.names = append(o.names, name)
	}
	sort.Strings(o.names)
	return o, nil
}

func extremum(name string, f func(a, b float64) float64) govaluate.ExpressionFunction {
	return func(arg ...interface{}) (interface{}, error) {
		if len(arg) == 0 {
			return nil, fmt.Errorf("canopyrt: function '%s' needs at least 1 argument", name)
		}
		v := arg[0].(float64)
		for _, a := range arg[1:] {
			v = f(v, a.(float64))
		}
		return v, nil
	}
}

// Names returns the names of the output variables in alphabetical order.
func (o *Outputter) Names() []string { return o.names }

// Results evaluates the output variables for every layer of c using the
// results of the last call to c.Fluxes. The output maps each variable
// name to one value per layer, ordered from the top of the canopy.
func (o *Outputter) Results(c *Canopy) (map[string][]float64, error) {
	out := make(map[string][]float64, len(o.names))
	for _, name := range o.names {
		out[name] = make([]float64, len(c.Layers))
	}
	cum := 0.
	for i, l := range c.Layers {
		cum += l.LAI
		params := layerVariables(l, i, cum)
		for _, name := range o.names {
			v, err := o.expressions[name].Evaluate(params)
			if err != nil {
				return nil, fmt.Errorf("canopyrt: evaluating output variable %s for layer %d: %v", name, i, err)
			}
			f, ok := v.(float64)
			if !ok {
				return nil, fmt.Errorf("canopyrt: output variable %s evaluated to %v, which is not a number", name, v)
			}
			out[name][i] = f
		}
	}
	return out, nil
}

// OutputVariables returns the model variables that can be used in output
// expressions, along with their descriptions.
func OutputVariables() map[string]string {
	o := map[string]string{
		"Layer":         "Layer index, 0 = top",
		"LAI":           "Leaf area index of the layer",
		"CumulativeLAI": "Leaf area index from the top of the canopy to the bottom of the layer",
		"LeafR":         "Leaf reflectance",
		"LeafT":         "Leaf transmittance",
	}
	t := reflect.TypeOf(Fluxes{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		o[f.Name] = f.Tag.Get("desc") + " [" + f.Tag.Get("units") + "]"
	}
	return o
}

// layerVariables returns the values of the model variables for layer l.
func layerVariables(l *Layer, index int, cumulativeLAI float64) map[string]interface{} {
	o := map[string]interface{}{
		"Layer":         float64(index),
		"LAI":           l.LAI,
		"CumulativeLAI": cumulativeLAI,
		"LeafR":         l.LeafR,
		"LeafT":         l.LeafT,
	}
	v := reflect.ValueOf(l.Fluxes)
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		o[t.Field(i).Name] = v.Field(i).Float()
	}
	return o
}
