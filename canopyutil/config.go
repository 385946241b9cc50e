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

package canopyutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcguirepatr/canopyrt"
	"github.com/mcguirepatr/canopyrt/science/leafgeom"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// checkOutputVars removes end lines and expands environment
// variables in the output variables.
func checkOutputVars(vars map[string]string) (map[string]string, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("there are no variables specified for output. Please fill in " +
			"the OutputVariables configuration and try again.")
	}
	o := make(map[string]string, len(vars))
	for k, v := range vars {
		v = strings.Replace(v, "\r\n", " ", -1)
		v = strings.Replace(v, "\n", " ", -1)
		o[os.ExpandEnv(k)] = os.ExpandEnv(v)
	}
	return o, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expand any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: PlotFile="profile.png")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("canopyrt: the output file directory doesn't exist: %v", err)
	}
	return f, nil
}

// structure returns the canopy structure factor with the given name.
func structure(name string, pintyA, pintyB float64) (canopyrt.Zeta, error) {
	switch strings.ToLower(name) {
	case "", "none":
		return canopyrt.NoStructure(), nil
	case "pinty":
		if !(pintyA > 0) || !(pintyB >= 0) {
			return nil, fmt.Errorf("canopyrt: pinty structure factor needs PintyA > 0 and PintyB >= 0; have %g and %g", pintyA, pintyB)
		}
		return canopyrt.PintyZeta(pintyA, pintyB), nil
	default:
		return nil, fmt.Errorf("canopyrt: invalid Structure '%s'; options are 'none' and 'pinty'", name)
	}
}

// CanopyConfig creates a canopy from a viper configuration. If the
// ProfileFile option is set, the layers are read from it. Otherwise the
// canopy is made up of NLayers identical layers.
func CanopyConfig(cfg *viper.Viper) (*canopyrt.Canopy, error) {
	var layers []LayerConfig
	if f := os.ExpandEnv(cfg.GetString("ProfileFile")); f != "" {
		p, err := ReadProfile(f)
		if err != nil {
			return nil, err
		}
		layers = p.Layers
	} else {
		n := cfg.GetInt("NLayers")
		if n < 1 {
			return nil, fmt.Errorf("canopyrt: NLayers=%d but should be >0", n)
		}
		layers = make([]LayerConfig, n)
		for i := range layers {
			layers[i] = LayerConfig{
				LeafR: cfg.GetFloat64("LeafR"),
				LeafT: cfg.GetFloat64("LeafT"),
				LAI:   cfg.GetFloat64("LAI"),
			}
		}
	}

	c, err := canopyrt.NewCanopy(len(layers), cfg.GetFloat64("Mu"))
	if err != nil {
		return nil, err
	}
	if err := c.SetBoundary(cfg.GetFloat64("LowerBoundaryR"), cfg.GetFloat64("PropDif")); err != nil {
		return nil, err
	}

	defaultGeom := cfg.GetString("LeafGeometry")
	zeta, err := structure(cfg.GetString("Structure"), cfg.GetFloat64("PintyA"), cfg.GetFloat64("PintyB"))
	if err != nil {
		return nil, err
	}
	for i, lc := range layers {
		l := c.Layers[i]
		l.LeafR, l.LeafT, l.LAI = lc.LeafR, lc.LeafT, lc.LAI
		l.GammaScalingDirect = gammaScaling(lc.GammaScalingDirect, cfg.GetString("GammaScalingDirect"))
		l.GammaScalingDiffuse = gammaScaling(lc.GammaScalingDiffuse, cfg.GetString("GammaScalingDiffuse"))
		g := lc.LeafGeometry
		if g == "" {
			g = defaultGeom
		}
		if l.Geometry, err = leafgeom.ByName(g); err != nil {
			return nil, fmt.Errorf("canopyrt: layer %d: %w", i, err)
		}
		l.Structure = zeta
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// gammaScaling returns v, or def if v is empty.
func gammaScaling(v, def string) canopyrt.GammaScaling {
	if v == "" {
		v = def
	}
	return canopyrt.GammaScaling(strings.ToLower(v))
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch v := i.(type) {
	case map[string]string:
		return v, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(v)
	case string:
		if v == "" {
			return make(map[string]string), nil
		}
		d := json.NewDecoder(bytes.NewBufferString(v))
		o := make(map[string]string)
		if err := d.Decode(&o); err != nil {
			return nil, fmt.Errorf("canopyrt: parsing config variable %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("canopyrt: invalid type for config variable %s: %#v", varName, i)
	}
}
