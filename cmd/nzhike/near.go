package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pspoerri/nzhike/internal/catalog"
)

func newNearCmd(a *app) *cobra.Command {
	var (
		k        int
		radiusKm float64
		kinds    []string
	)
	cmd := &cobra.Command{
		Use:   "near LAT LON",
		Short: "List the places closest to a WGS84 position",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid latitude %q", args[0])
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid longitude %q", args[1])
			}
			ks, err := parseKinds(kinds)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("k") {
				k = a.cfg.Near.K
			}
			if !cmd.Flags().Changed("radius-km") {
				radiusKm = a.cfg.Near.RadiusKm
			}

			cat, err := a.loadCatalog()
			if err != nil {
				return err
			}
			var places []catalog.Place
			if len(ks) == 0 {
				places = cat.Places()
			} else {
				places = cat.Search("", ks...)
			}
			idx := catalog.NewIndex(places)
			a.log.WithFields(logrus.Fields{"indexed": idx.Len(), "skipped": idx.Skipped()}).Debug("index built")

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DIST_KM\tKIND\tID\tNAME\tLAT\tLON")
			for _, h := range idx.Nearest(lat, lon, k, radiusKm) {
				fmt.Fprintf(tw, "%.2f\t%s\t%s\t%s\t%.6f\t%.6f\n",
					h.DistanceKm, h.Place.Kind, h.Place.ID, h.Place.Name, h.Lat, h.Lon)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&k, "k", 5, "maximum number of results (config near.k)")
	cmd.Flags().Float64Var(&radiusKm, "radius-km", 25, "search radius in km (config near.radius_km)")
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "restrict to kinds: track, hut, campsite")
	return cmd
}
