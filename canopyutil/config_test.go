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
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mcguirepatr/canopyrt"
	"github.com/mcguirepatr/canopyrt/science/leafgeom"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig returns a configuration holding the default value of
// every option.
func testConfig() *viper.Viper {
	cfg := viper.New()
	for _, o := range options {
		cfg.Set(o.name, o.defaultVal)
	}
	return cfg
}

func TestGetStringMapString(t *testing.T) {
	cfg := viper.New()
	want := map[string]string{"a": "Iup", "b": "Idn"}

	cfg.Set("v", want)
	got, err := GetStringMapString("v", cfg)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	cfg.Set("v", map[string]interface{}{"a": "Iup", "b": "Idn"})
	got, err = GetStringMapString("v", cfg)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	cfg.Set("v", `{"a":"Iup","b":"Idn"}`)
	got, err = GetStringMapString("v", cfg)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	cfg.Set("v", "")
	got, err = GetStringMapString("v", cfg)
	require.NoError(t, err)
	assert.Empty(t, got)

	cfg.Set("v", `{"a":`)
	_, err = GetStringMapString("v", cfg)
	assert.Error(t, err)

	cfg.Set("v", 3)
	_, err = GetStringMapString("v", cfg)
	assert.Error(t, err)
}

func TestCheckOutputVars(t *testing.T) {
	os.Setenv("CANOPYRT_TEST_VAR", "Iab")
	defer os.Unsetenv("CANOPYRT_TEST_VAR")
	got, err := checkOutputVars(map[string]string{"x": "Iup +\nIdn", "y": "$CANOPYRT_TEST_VAR"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"x": "Iup + Idn", "y": "Iab"}, got)

	_, err = checkOutputVars(nil)
	assert.Error(t, err)
}

func TestCanopyConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Set("NLayers", 4)
	cfg.Set("Mu", 0.5)
	cfg.Set("LeafR", 0.2)
	cfg.Set("LAI", 0.7)
	cfg.Set("LowerBoundaryR", 0.3)
	cfg.Set("PropDif", 0.4)
	cfg.Set("GammaScalingDirect", "Quad")
	cfg.Set("LeafGeometry", "vertical")
	cfg.Set("Structure", "pinty")
	cfg.Set("PintyA", 0.8)
	cfg.Set("PintyB", 0.2)

	c, err := CanopyConfig(cfg)
	require.NoError(t, err)
	require.Len(t, c.Layers, 4)
	assert.Equal(t, 0.5, c.Mu())
	assert.Equal(t, 0.3, c.LowerBoundaryR)
	assert.Equal(t, 0.4, c.PropDif)
	for _, l := range c.Layers {
		assert.Equal(t, 0.2, l.LeafR)
		assert.Equal(t, 0.1, l.LeafT)
		assert.Equal(t, 0.7, l.LAI)
		assert.Equal(t, canopyrt.Quad, l.GammaScalingDirect)
		assert.Equal(t, canopyrt.Delta, l.GammaScalingDiffuse)
		assert.Equal(t, leafgeom.Vertical{}, l.Geometry)
		assert.InDelta(t, 0.9, l.Z(), 1.e-15)
	}
	_, err = c.Fluxes()
	assert.NoError(t, err)
}

func TestCanopyConfigErrors(t *testing.T) {
	for name, set := range map[string]func(cfg *viper.Viper){
		"layers":    func(cfg *viper.Viper) { cfg.Set("NLayers", 0) },
		"mu":        func(cfg *viper.Viper) { cfg.Set("Mu", 1.5) },
		"leaf":      func(cfg *viper.Viper) { cfg.Set("LeafR", 0.7); cfg.Set("LeafT", 0.7) },
		"boundary":  func(cfg *viper.Viper) { cfg.Set("LowerBoundaryR", -0.1) },
		"geometry":  func(cfg *viper.Viper) { cfg.Set("LeafGeometry", "ellipsoidal") },
		"structure": func(cfg *viper.Viper) { cfg.Set("Structure", "clumped") },
		"pinty":     func(cfg *viper.Viper) { cfg.Set("Structure", "pinty"); cfg.Set("PintyA", 0.0) },
		"profile":   func(cfg *viper.Viper) { cfg.Set("ProfileFile", "testdata/missing.toml") },
	} {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig()
			set(cfg)
			_, err := CanopyConfig(cfg)
			assert.Error(t, err)
		})
	}

	cfg := testConfig()
	cfg.Set("LeafT", 0.95)
	_, err := CanopyConfig(cfg)
	assert.True(t, errors.Is(err, canopyrt.ErrInvalidParameter), "%v", err)
}

func TestReadProfile(t *testing.T) {
	for _, f := range []string{"testdata/profile.toml", "testdata/profile.yaml"} {
		t.Run(filepath.Ext(f), func(t *testing.T) {
			p, err := ReadProfile(f)
			require.NoError(t, err)
			want := &Profile{Layers: []LayerConfig{
				{LeafR: 0.08, LeafT: 0.05, LAI: 1.5},
				{LeafR: 0.1, LeafT: 0.1, LAI: 1.0, GammaScalingDiffuse: "quad"},
				{LeafR: 0.12, LeafT: 0.1, LAI: 0.5, LeafGeometry: "horizontal"},
			}}
			assert.Equal(t, want, p)
		})
	}
}

func TestReadProfileErrors(t *testing.T) {
	dir := t.TempDir()
	write := func(name, contents string) string {
		f := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(f, []byte(contents), 0644))
		return f
	}

	_, err := ReadProfile(write("profile.json", `{"Layers":[]}`))
	assert.ErrorContains(t, err, "unsupported extension")

	_, err = ReadProfile(write("empty.toml", "# no layers\n"))
	assert.ErrorContains(t, err, "no layers")

	_, err = ReadProfile(write("unknown.toml", "[[Layers]]\nLeafR = 0.1\nLeafColor = \"green\"\n"))
	assert.ErrorContains(t, err, "unknown fields")

	_, err = ReadProfile(write("unknown.yml", "Layers:\n  - LeafR: 0.1\n    LeafColor: green\n"))
	assert.Error(t, err)
}

func TestCanopyConfigProfile(t *testing.T) {
	cfg := testConfig()
	cfg.Set("ProfileFile", "testdata/profile.toml")
	cfg.Set("NLayers", 10)
	c, err := CanopyConfig(cfg)
	require.NoError(t, err)
	require.Len(t, c.Layers, 3)
	assert.Equal(t, 1.5, c.Layers[0].LAI)
	assert.Equal(t, canopyrt.Quad, c.Layers[1].GammaScalingDiffuse)
	assert.Equal(t, canopyrt.Delta, c.Layers[1].GammaScalingDirect)
	assert.Equal(t, leafgeom.Spherical{}, c.Layers[1].Geometry)
	assert.Equal(t, leafgeom.Horizontal{}, c.Layers[2].Geometry)

	_, err = c.Fluxes()
	require.NoError(t, err)
	a, r, tr := c.EnergyBudget()
	assert.InDelta(t, 1, a+r+tr, 1.e-9)
}

func TestConfigExample(t *testing.T) {
	cfg := viper.New()
	cfg.SetConfigFile("../cmd/canopyrt/configExample.toml")
	require.NoError(t, cfg.ReadInConfig())

	c, err := CanopyConfig(cfg)
	require.NoError(t, err)
	assert.Len(t, c.Layers, 10)
	assert.Equal(t, 0.7, c.Mu())

	vars, err := GetStringMapString("OutputVariables", cfg)
	require.NoError(t, err)
	assert.Len(t, vars, 5)
	_, err = canopyrt.NewOutputter(vars, nil)
	assert.NoError(t, err)
}
