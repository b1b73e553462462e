package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	upftrim "github.com/zhubonan/dojo-upf-trim"
	"github.com/zhubonan/dojo-upf-trim/config"
	"github.com/zhubonan/dojo-upf-trim/upf"
)

// app carries the state shared by every subcommand.
type app struct {
	log     *logrus.Logger
	cfgPath string
	verbose bool
	quiet   bool
}

// NewRootCommand builds the upftrim command tree.
func NewRootCommand() *cobra.Command {
	a := &app{log: logrus.New()}
	cmd := &cobra.Command{
		Use:   "upftrim",
		Short: "Trim PseudoDojo pseudopotential files to a smaller radial mesh",
		Long: `upftrim rewrites UPF v2.0.1 pseudopotential files so that every section
indexed by the radial mesh keeps only its first N points. PseudoDojo
pseudopotentials carry meshes far denser than plane-wave codes ever
sample; trimming them shrinks the files without touching the physics in
the retained range.`,
		Version:      upftrim.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			a.log.SetOutput(cmd.ErrOrStderr())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "", "TOML config file")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")
	pf.BoolVarP(&a.quiet, "quiet", "q", false, "log warnings and errors only")

	cmd.AddCommand(a.newTrimCmd(), a.newInspectCmd(), a.newCheckCmd(), a.newSchemaCmd())
	return cmd
}

// loadConfig resolves the effective configuration and applies the log
// level. Command line verbosity flags win over the config file.
func (a *app) loadConfig() (config.Config, error) {
	var (
		cfg config.Config
		err error
	)
	if a.cfgPath != "" {
		cfg, err = config.Load(a.cfgPath)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return cfg, err
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, fmt.Errorf("log_level: %w", err)
	}
	switch {
	case a.verbose:
		level = logrus.DebugLevel
	case a.quiet:
		level = logrus.WarnLevel
	}
	a.log.SetLevel(level)
	return cfg, nil
}

// sectionTable loads the user's extra section definitions, or returns nil
// when the config names none.
func (a *app) sectionTable(cfg config.Config) (*upf.Table, error) {
	if cfg.SectionsFile == "" {
		return nil, nil
	}
	rules, err := config.LoadSections(cfg.SectionsFile)
	if err != nil {
		return nil, err
	}
	return config.BuildTable(rules)
}
