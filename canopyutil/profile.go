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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// LayerConfig holds the properties of one layer in a canopy profile
// file. Empty gamma scaling and leaf geometry fields take the values of
// the GammaScalingDirect, GammaScalingDiffuse, and LeafGeometry options.
type LayerConfig struct {
	LeafR               float64 `toml:"LeafR" yaml:"LeafR"`
	LeafT               float64 `toml:"LeafT" yaml:"LeafT"`
	LAI                 float64 `toml:"LAI" yaml:"LAI"`
	GammaScalingDirect  string  `toml:"GammaScalingDirect" yaml:"GammaScalingDirect"`
	GammaScalingDiffuse string  `toml:"GammaScalingDiffuse" yaml:"GammaScalingDiffuse"`
	LeafGeometry        string  `toml:"LeafGeometry" yaml:"LeafGeometry"`
}

// Profile is a canopy profile: the layers from the top of the canopy down.
type Profile struct {
	Layers []LayerConfig `toml:"Layers" yaml:"Layers"`
}

// ReadProfile reads a canopy profile from a TOML (.toml) or
// YAML (.yaml or .yml) file.
func ReadProfile(fileName string) (*Profile, error) {
	p := new(Profile)
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".toml":
		md, err := toml.DecodeFile(fileName, p)
		if err != nil {
			return nil, fmt.Errorf("canopyrt: reading profile file: %v", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("canopyrt: reading profile file: unknown fields %v", undecoded)
		}
	case ".yaml", ".yml":
		f, err := os.Open(fileName)
		if err != nil {
			return nil, fmt.Errorf("canopyrt: reading profile file: %v", err)
		}
		defer f.Close()
		d := yaml.NewDecoder(f)
		d.KnownFields(true)
		if err := d.Decode(p); err != nil {
			return nil, fmt.Errorf("canopyrt: reading profile file: %v", err)
		}
	default:
		return nil, fmt.Errorf("canopyrt: profile file %s has unsupported extension '%s'; options are .toml, .yaml, and .yml", fileName, ext)
	}
	if len(p.Layers) == 0 {
		return nil, fmt.Errorf("canopyrt: profile file %s has no layers", fileName)
	}
	return p, nil
}
