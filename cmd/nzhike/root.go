package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pspoerri/nzhike/internal/catalog"
	"github.com/pspoerri/nzhike/internal/config"
)

// app carries global flags and state shared by subcommands.
type app struct {
	configPath string
	dataDir    string
	verbose    bool
	logFormat  string

	cfg *config.Config
	log *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "nzhike",
		Short:        "NZTM2000 conversion and DOC hiking overlays",
		Long:         "Converts NZTM2000 grid coordinates to WGS84 and builds GeoJSON and PMTiles\noverlays of Department of Conservation tracks, huts and campsites.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "TOML configuration file")
	pf.StringVar(&a.dataDir, "data", "", "catalog bundle directory (overrides data_dir)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging and progress output")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text or json (overrides log.format)")

	root.AddCommand(
		newConvertCmd(a),
		newSearchCmd(a),
		newNearCmd(a),
		newGeoJSONCmd(a),
		newTilesCmd(a),
		newInfoCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("data") {
		cfg.DataDir = a.dataDir
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	a.cfg = cfg

	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())
	switch cfg.Log.Format {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		return fmt.Errorf("unknown log format %q", cfg.Log.Format)
	}
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if a.verbose {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	a.log = log
	return nil
}

func (a *app) loadCatalog() (*catalog.Catalog, error) {
	return catalog.Load(a.cfg.DataDir, a.log)
}
