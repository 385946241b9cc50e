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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/mcguirepatr/canopyrt"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// newLogger returns a logger that writes to the command's standard error
// and, if logFile is not empty, to logFile. The returned function closes
// the log file.
func newLogger(cmd *cobra.Command, level, logFile string) (*logrus.Logger, func(), error) {
	log := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, nil, fmt.Errorf("canopyrt: LogLevel: %v", err)
	}
	log.SetLevel(lvl)
	log.SetOutput(cmd.ErrOrStderr())
	if logFile == "" {
		return log, func() {}, nil
	}
	f, err := os.Create(os.ExpandEnv(logFile))
	if err != nil {
		return nil, nil, fmt.Errorf("canopyrt: problem creating log file: %v", err)
	}
	log.SetOutput(io.MultiWriter(cmd.ErrOrStderr(), f))
	return log, func() { f.Close() }, nil
}

func canopyLog(c *canopyrt.Canopy) logrus.FieldLogger {
	if c.Log == nil {
		return logrus.StandardLogger()
	}
	return c.Log
}

// Run calculates the fluxes in c and writes the output variables for each
// layer to outputFile in CSV format, or to w if outputFile is empty.
// outputVariables maps output names to expressions of the variables
// listed by canopyrt.OutputVariables.
func Run(w io.Writer, c *canopyrt.Canopy, outputFile string, outputVariables map[string]string) error {
	o, err := canopyrt.NewOutputter(outputVariables, nil)
	if err != nil {
		return err
	}
	if _, err := c.Fluxes(); err != nil {
		return fmt.Errorf("canopyrt: calculating fluxes: %w", err)
	}
	results, err := o.Results(c)
	if err != nil {
		return err
	}

	if outputFile != "" {
		f, cerr := os.Create(outputFile)
		if cerr != nil {
			return fmt.Errorf("canopyrt: creating output file: %v", cerr)
		}
		err = writeAndClose(f, o.Names(), results)
	} else {
		err = writeCSV(w, o.Names(), results)
	}
	if err != nil {
		return fmt.Errorf("canopyrt: writing output: %v", err)
	}

	a, r, t := c.EnergyBudget()
	canopyLog(c).WithFields(logrus.Fields{
		"layers":      len(c.Layers),
		"absorbed":    a,
		"reflected":   r,
		"transmitted": t,
	}).Info("canopyrt run complete")
	return nil
}

// writeAndClose writes the results to wc as CSV and closes it, returning
// the first error from either.
func writeAndClose(wc io.WriteCloser, names []string, results map[string][]float64) error {
	err := writeCSV(wc, names, results)
	if cerr := wc.Close(); err == nil {
		err = cerr
	}
	return err
}

// writeCSV writes one row per layer, with a column for each name.
func writeCSV(w io.Writer, names []string, results map[string][]float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(names); err != nil {
		return err
	}
	var n int
	if len(names) > 0 {
		n = len(results[names[0]])
	}
	row := make([]string, len(names))
	for i := 0; i < n; i++ {
		for j, name := range names {
			row[j] = strconv.FormatFloat(results[name][i], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Compare calculates the fluxes in c and in its single-layer equivalent
// and writes the upward flux at the top of the canopy and the downward flux
// at the bottom of the canopy for each to w. It returns an error if either
// differs by more than the relative tolerance.
func Compare(w io.Writer, c *canopyrt.Canopy, tolerance float64) error {
	s, err := canopyrt.SingleLayerEquivalent(c)
	if err != nil {
		return err
	}
	fc, err := c.Fluxes()
	if err != nil {
		return fmt.Errorf("canopyrt: calculating layered fluxes: %w", err)
	}
	fs, err := s.Fluxes()
	if err != nil {
		return fmt.Errorf("canopyrt: calculating single-layer fluxes: %w", err)
	}
	n := len(fc)
	rows := []struct {
		name            string
		layered, single float64
	}{
		{"Iup (top)", fc[0].Iup, fs[0].Iup},
		{"Idn (bottom)", fc[n-1].Idn, fs[0].Idn},
	}
	fmt.Fprintf(w, "%-14s %-22s %-22s %s\n", "", "layered", "single layer", "rel. difference")
	var failed []string
	for _, r := range rows {
		d := relDiff(r.layered, r.single)
		fmt.Fprintf(w, "%-14s %-22.17g %-22.17g %.3g\n", r.name, r.layered, r.single, d)
		if d > tolerance || math.IsNaN(d) {
			failed = append(failed, r.name)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("canopyrt: %v of the %d-layer canopy differ from the single-layer equivalent by more than %g", failed, n, tolerance)
	}
	return nil
}

func relDiff(a, b float64) float64 {
	if a == b {
		return 0
	}
	return 2 * math.Abs(a-b) / math.Abs(a+b)
}

// Plot calculates the fluxes in c and plots the upward, downward, and
// absorbed fluxes against cumulative leaf area index to fileName.
func Plot(c *canopyrt.Canopy, fileName string) error {
	if _, err := c.Fluxes(); err != nil {
		return fmt.Errorf("canopyrt: calculating fluxes: %w", err)
	}
	profile := c.Profile()
	up := make(plotter.XYs, len(profile)+1)
	dn := make(plotter.XYs, len(profile)+1)
	ab := make(plotter.XYs, len(profile))
	// Fluxes are plotted at the layer boundaries, with depth increasing
	// downward, and absorption at the middle of each layer.
	dn[0] = plotter.XY{X: 1, Y: 0}
	up[0] = plotter.XY{X: profile[0].Iup, Y: 0}
	prev := 0.
	for i, p := range profile {
		dn[i+1] = plotter.XY{X: p.Idn, Y: -p.CumulativeLAI}
		if i+1 < len(profile) {
			up[i+1] = plotter.XY{X: profile[i+1].Iup, Y: -p.CumulativeLAI}
		} else {
			up[i+1] = plotter.XY{X: p.Idn * c.LowerBoundaryR, Y: -p.CumulativeLAI}
		}
		ab[i] = plotter.XY{X: p.Iab, Y: -(prev + p.CumulativeLAI) / 2}
		prev = p.CumulativeLAI
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Canopy flux profile (mu=%g)", c.Mu())
	p.X.Label.Text = "Flux (fraction of incident)"
	p.Y.Label.Text = "-Cumulative LAI"
	if err := plotutil.AddLinePoints(p, "Iup", up, "Idn", dn, "Iab", ab); err != nil {
		return fmt.Errorf("canopyrt: plotting: %v", err)
	}
	p.Legend.Top = true
	if err := p.Save(5*vg.Inch, 5*vg.Inch, fileName); err != nil {
		return fmt.Errorf("canopyrt: saving plot: %v", err)
	}
	canopyLog(c).WithField("file", fileName).Info("canopyrt saved profile plot")
	return nil
}
