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
	"sort"

	"github.com/mcguirepatr/canopyrt"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options available to canopyrt.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Mu",
			usage: `
              Mu is the cosine of the zenith angle of the incident
              radiation. It must be in (0, 1].`,
			shorthand:  "m",
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "NLayers",
			usage: `
              NLayers is the number of canopy layers. It is ignored if
              ProfileFile is specified.`,
			shorthand:  "n",
			defaultVal: 10,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LeafR",
			usage: `
              LeafR is the hemispherical reflectance of the leaves in
              every layer.`,
			defaultVal: 0.1,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LeafT",
			usage: `
              LeafT is the hemispherical transmittance of the leaves in
              every layer.`,
			defaultVal: 0.1,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LAI",
			usage: `
              LAI is the leaf area index of each layer [m²/m²].`,
			defaultVal: 0.2,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LowerBoundaryR",
			usage: `
              LowerBoundaryR is the Lambertian reflectance of the surface
              beneath the canopy.`,
			defaultVal: 0.1,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "PropDif",
			usage: `
              PropDif is the fraction of the incident radiation that is
              diffuse.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "GammaScalingDirect",
			usage: `
              GammaScalingDirect specifies how the two-stream gamma
              coefficients are scaled under direct illumination.
              Options are "delta" and "quad".`,
			defaultVal: string(canopyrt.Delta),
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "GammaScalingDiffuse",
			usage: `
              GammaScalingDiffuse specifies how the two-stream gamma
              coefficients are scaled under diffuse illumination.
              Options are "delta" and "quad".`,
			defaultVal: string(canopyrt.Delta),
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LeafGeometry",
			usage: `
              LeafGeometry is the leaf angle distribution. Options are
              "spherical" (or "uniform"), "horizontal", and "vertical".`,
			shorthand:  "g",
			defaultVal: "spherical",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Structure",
			usage: `
              Structure specifies the canopy structure factor. Options
              are "none" and "pinty", which scales the optical depth by
              PintyA + PintyB·(1-Mu).`,
			defaultVal: "none",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "PintyA",
			usage: `
              PintyA is the constant term of the "pinty" structure factor.`,
			defaultVal: 1.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "PintyB",
			usage: `
              PintyB is the zenith-angle dependent term of the "pinty"
              structure factor.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "ProfileFile",
			usage: `
              ProfileFile is the path to a TOML or YAML file specifying
              the properties of each layer, from the top of the canopy
              down. If specified, it overrides NLayers, LeafR, LeafT, and LAI.`,
			shorthand:  "p",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired CSV output file.
              If empty, output is written to standard output.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "OutputVariables",
			usage: `
              OutputVariables specifies the variables to include in the
              output file, in the form {"VariableName":"Expression",...}.
              Expressions can refer to the variables listed by
              'canopyrt variables' and to the functions exp, abs, max, and min.`,
			defaultVal: map[string]string{
				"CumulativeLAI": "CumulativeLAI",
				"Iup":           "Iup",
				"Idn":           "Idn",
				"Iab":           "Iab",
			},
			flagsets: []*pflag.FlagSet{runCmd.Flags()},
		},
		{
			name: "PlotFile",
			usage: `
              PlotFile is the path to the vertical profile plot. The
              format is determined by the extension, e.g. .png, .svg, or .pdf.`,
			defaultVal: "profile.png",
			flagsets:   []*pflag.FlagSet{plotCmd.Flags()},
		},
		{
			name: "Tolerance",
			usage: `
              Tolerance is the largest relative difference between a
              layered canopy and its single-layer equivalent that
              'compare' accepts.`,
			defaultVal: 1.e-9,
			flagsets:   []*pflag.FlagSet{compareCmd.Flags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum severity of log messages. Options are
              "debug", "info", "warning", and "error".`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to a file that log messages are
              written to in addition to standard error.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("CANOPYRT")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case bool:
				if option.shorthand == "" {
					set.Bool(option.name, option.defaultVal.(bool), option.usage)
				} else {
					set.BoolP(option.name, option.shorthand, option.defaultVal.(bool), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := string(b.Bytes())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(runCmd)
	Root.AddCommand(compareCmd)
	Root.AddCommand(plotCmd)
	Root.AddCommand(variablesCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("canopyrt: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "canopyrt",
	Short: "A two-stream canopy radiative transfer model.",
	Long: `canopyrt calculates the vertical profile of radiation in a plant canopy
made up of horizontally homogeneous layers, using the two-stream equations of
Meador and Weaver (1980) for each layer and the adding method to combine them.
Use the subcommands specified below to access the model functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'CANOPYRT_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of canopyrt.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("canopyrt v%s\n", canopyrt.Version)
	},
	DisableAutoGenTag: true,
}

// runCmd is a command that calculates and writes the flux profile.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the model.",
	Long: `run calculates the fluxes through each layer of the canopy and writes
the output variables for each layer, from the top of the canopy down, in
CSV format.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, closeLog, err := newLogger(cmd, Cfg.GetString("LogLevel"), Cfg.GetString("LogFile"))
		if err != nil {
			return err
		}
		defer closeLog()

		outputVars, err := GetStringMapString("OutputVariables", Cfg)
		if err != nil {
			return err
		}
		outputVars, err = checkOutputVars(outputVars)
		if err != nil {
			return err
		}
		c, err := CanopyConfig(Cfg)
		if err != nil {
			return err
		}
		c.Log = log
		return Run(cmd.OutOrStdout(), c, os.ExpandEnv(Cfg.GetString("OutputFile")), outputVars)
	},
	DisableAutoGenTag: true,
}

// compareCmd is a command that checks a layered canopy against its
// single-layer equivalent.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare to the single-layer equivalent.",
	Long: `compare calculates the fluxes of the configured canopy and of a single layer
with the properties of the top layer and the total leaf area index of the canopy.
For a vertically homogeneous canopy the fluxes leaving the top and bottom of the
canopy should be the same. compare returns an error if their relative difference
is greater than Tolerance.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, closeLog, err := newLogger(cmd, Cfg.GetString("LogLevel"), Cfg.GetString("LogFile"))
		if err != nil {
			return err
		}
		defer closeLog()

		c, err := CanopyConfig(Cfg)
		if err != nil {
			return err
		}
		c.Log = log
		return Compare(cmd.OutOrStdout(), c, Cfg.GetFloat64("Tolerance"))
	},
	DisableAutoGenTag: true,
}

// plotCmd is a command that plots the flux profile.
var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Plot the vertical flux profile.",
	Long: `plot calculates the fluxes through each layer of the canopy and plots
the upward, downward, and absorbed fluxes against cumulative leaf area index.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log, closeLog, err := newLogger(cmd, Cfg.GetString("LogLevel"), Cfg.GetString("LogFile"))
		if err != nil {
			return err
		}
		defer closeLog()

		plotFile, err := checkOutputFile(Cfg.GetString("PlotFile"))
		if err != nil {
			return err
		}
		c, err := CanopyConfig(Cfg)
		if err != nil {
			return err
		}
		c.Log = log
		return Plot(c, plotFile)
	},
	DisableAutoGenTag: true,
}

// variablesCmd lists the model variables that can be used in output
// expressions.
var variablesCmd = &cobra.Command{
	Use:   "variables",
	Short: "List the available output variables.",
	Long: `variables lists the model variables that can be used in the
expressions in the OutputVariables configuration option.`,
	Run: func(cmd *cobra.Command, args []string) {
		vars := canopyrt.OutputVariables()
		names := make([]string, 0, len(vars))
		for name := range vars {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			cmd.Printf("%s: %s\n", name, vars[name])
		}
	},
	DisableAutoGenTag: true,
}
