package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pspoerri/nzhike/internal/overlay"
)

func newGeoJSONCmd(a *app) *cobra.Command {
	var (
		paths bool
		kinds []string
	)
	cmd := &cobra.Command{
		Use:   "geojson OUT.geojson",
		Short: "Export the catalog as a GeoJSON FeatureCollection (\"-\" for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ks, err := parseKinds(kinds)
			if err != nil {
				return err
			}
			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			features, stats := overlay.Build(cat, overlay.Options{
				Kinds:   ks,
				Paths:   paths,
				Workers: a.cfg.Tiles.Concurrency,
			})
			a.log.WithFields(logrus.Fields{
				"points":  stats.Points,
				"paths":   stats.Paths,
				"skipped": stats.Skipped,
			}).Info("features built")

			if args[0] == "-" {
				return overlay.WriteGeoJSON(cmd.OutOrStdout(), features)
			}
			return writeGeoJSONFile(args[0], features)
		},
	}
	cmd.Flags().BoolVar(&paths, "paths", false, "include track lines")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "restrict to kinds: track, hut, campsite")
	return cmd
}

func writeGeoJSONFile(path string, features []overlay.Feature) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	bw := bufio.NewWriter(f)
	if err := overlay.WriteGeoJSON(bw, features); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}
