package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/pspoerri/nzhike/internal/catalog"
)

func newSearchCmd(a *app) *cobra.Command {
	var kinds []string
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Find tracks, huts and campsites by name or region",
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
			places := cat.Search(args[0], ks...)
			a.log.WithField("count", len(places)).Debug("search complete")
			return printPlaces(cmd.OutOrStdout(), places)
		},
	}
	cmd.Flags().StringSliceVar(&kinds, "kind", nil, "restrict to kinds: track, hut, campsite")
	return cmd
}

func parseKinds(names []string) ([]catalog.Kind, error) {
	var ks []catalog.Kind
	for _, n := range names {
		k, ok := catalog.ParseKind(n)
		if !ok {
			return nil, fmt.Errorf("unknown kind %q", n)
		}
		ks = append(ks, k)
	}
	return ks, nil
}

func printPlaces(w io.Writer, places []catalog.Place) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID\tNAME\tREGION\tLAT\tLON")
	for i := range places {
		p := &places[i]
		lat, lon := "-", "-"
		if la, lo, ok := p.Location(); ok {
			lat, lon = fmt.Sprintf("%.6f", la), fmt.Sprintf("%.6f", lo)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Kind, p.ID, p.Name, orDash(strings.Join(p.Regions, ", ")), lat, lon)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
