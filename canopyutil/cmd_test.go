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
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/mcguirepatr/canopyrt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetCfg sets every option back to its default value.
func resetCfg() {
	for _, o := range options {
		Cfg.Set(o.name, o.defaultVal)
	}
}

// execute runs the root command with args, returning its output.
func execute(args ...string) (string, error) {
	var out bytes.Buffer
	Root.SetOut(&out)
	Root.SetErr(io.Discard)
	Root.SetArgs(args)
	err := Root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	resetCfg()
	out, err := execute("version")
	require.NoError(t, err)
	assert.Equal(t, "canopyrt v"+canopyrt.Version+"\n", out)
}

func TestVariables(t *testing.T) {
	resetCfg()
	out, err := execute("variables")
	require.NoError(t, err)
	assert.Contains(t, out, "CumulativeLAI: ")
	assert.Contains(t, out, "Iab: Absorbed flux [fraction]")
}

func TestRun(t *testing.T) {
	resetCfg()
	outFile := filepath.Join(t.TempDir(), "out.csv")
	Cfg.Set("OutputFile", outFile)
	Cfg.Set("LeafGeometry", "horizontal")

	_, err := execute("run")
	require.NoError(t, err)

	f, err := os.Open(outFile)
	require.NoError(t, err)
	defer f.Close()
	recs, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 11)
	assert.Equal(t, []string{"CumulativeLAI", "Iab", "Idn", "Iup"}, recs[0])

	want := [][]float64{
		{0.2, 0.15488948177825335, 0.8362266216352305, 0.05696801420545275},
		{0.4, 0.12960159504323243, 0.6992839293265498, 0.0480841176189366},
	}
	for i, w := range want {
		for j, v := range w {
			have, err := strconv.ParseFloat(recs[i+1][j], 64)
			require.NoError(t, err)
			assert.InDelta(t, v, have, 1.e-12, "row %d column %s", i, recs[0][j])
		}
	}
	bottom, err := strconv.ParseFloat(recs[10][2], 64)
	require.NoError(t, err)
	assert.InDelta(t, 0.16755464272372197, bottom, 1.e-12)
}

func TestRunStdout(t *testing.T) {
	resetCfg()
	Cfg.Set("NLayers", 3)
	Cfg.Set("OutputVariables", `{"Net":"Idn - Iup", "Depth":"CumulativeLAI"}`)
	out, err := execute("run")
	require.NoError(t, err)
	recs, err := csv.NewReader(bytes.NewBufferString(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, []string{"Depth", "Net"}, recs[0])
	assert.Equal(t, "0.6000000000000001", recs[3][0])
}

func TestRunInvalid(t *testing.T) {
	resetCfg()
	Cfg.Set("LeafR", 0.7)
	Cfg.Set("LeafT", 0.7)
	_, err := execute("run")
	assert.True(t, errors.Is(err, canopyrt.ErrInvalidParameter), "%v", err)

	resetCfg()
	Cfg.Set("GammaScalingDiffuse", "two-point")
	_, err = execute("run")
	assert.True(t, errors.Is(err, canopyrt.ErrUnsupportedConfiguration), "%v", err)

	resetCfg()
	Cfg.Set("OutputVariables", `{"x":"Albedo"}`)
	_, err = execute("run")
	assert.ErrorContains(t, err, "unknown model variable")
}

func TestRunLogFile(t *testing.T) {
	resetCfg()
	defer resetCfg()
	dir := t.TempDir()
	logFile := filepath.Join(dir, "canopyrt.log")
	Cfg.Set("OutputFile", filepath.Join(dir, "out.csv"))
	Cfg.Set("LogFile", logFile)
	Cfg.Set("LogLevel", "debug")
	_, err := execute("run")
	require.NoError(t, err)

	b, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(b), "canopyrt calculated fluxes")
	assert.Contains(t, string(b), "canopyrt run complete")

	Cfg.Set("LogLevel", "loud")
	_, err = execute("run")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	resetCfg()
	defer resetCfg()
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.toml")
	outFile := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
NLayers = 2
LeafGeometry = "horizontal"
`), 0644))
	Cfg.Set("config", cfgFile)
	Cfg.Set("OutputFile", outFile)
	// Values set directly take precedence over the configuration file,
	// so clear the ones the file sets.
	Cfg.Set("NLayers", nil)
	Cfg.Set("LeafGeometry", nil)
	_, err := execute("run")
	require.NoError(t, err)
	assert.Equal(t, 2, Cfg.GetInt("NLayers"))
	assert.Equal(t, "horizontal", Cfg.GetString("LeafGeometry"))

	Cfg.Set("config", filepath.Join(dir, "missing.toml"))
	_, err = execute("version")
	assert.ErrorContains(t, err, "problem reading configuration file")
}

func TestCompare(t *testing.T) {
	resetCfg()
	Cfg.Set("Mu", 0.6)
	Cfg.Set("PropDif", 0.3)
	out, err := execute("compare")
	require.NoError(t, err)
	assert.Contains(t, out, "Iup (top)")
	assert.Contains(t, out, "Idn (bottom)")

	resetCfg()
	Cfg.Set("ProfileFile", "testdata/profile.toml")
	_, err = execute("compare")
	assert.ErrorContains(t, err, "single-layer equivalent")
}

func TestPlot(t *testing.T) {
	resetCfg()
	plotFile := filepath.Join(t.TempDir(), "profile.png")
	Cfg.Set("PlotFile", plotFile)
	Cfg.Set("ProfileFile", "testdata/profile.yaml")
	_, err := execute("plot")
	require.NoError(t, err)
	info, err := os.Stat(plotFile)
	require.NoError(t, err)
	assert.True(t, info.Size() > 0)

	Cfg.Set("PlotFile", filepath.Join(t.TempDir(), "missing", "profile.png"))
	_, err = execute("plot")
	assert.Error(t, err)
}

type failingCloser struct {
	bytes.Buffer
	err error
}

func (f *failingCloser) Close() error { return f.err }

func TestWriteAndClose(t *testing.T) {
	names := []string{"Iup"}
	results := map[string][]float64{"Iup": {0.5, 0.25}}

	ok := &failingCloser{}
	require.NoError(t, writeAndClose(ok, names, results))
	assert.Equal(t, "Iup\n0.5\n0.25\n", ok.String())

	closeErr := errors.New("disk full")
	bad := &failingCloser{err: closeErr}
	assert.ErrorIs(t, writeAndClose(bad, names, results), closeErr)
}
