package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/pspoerri/nzhike/internal/encode"
	"github.com/pspoerri/nzhike/internal/pmtiles"
)

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info ARCHIVE.pmtiles",
		Short: "Print the header, metadata and tile counts of a PMTiles archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := pmtiles.OpenReader(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			out := cmd.OutOrStdout()
			h := r.Header()
			fmt.Fprintf(out, "File: %s\n", args[0])
			fmt.Fprintf(out, "Tile type: %s\n", orDash(encode.FormatForTileType(h.TileType)))
			fmt.Fprintf(out, "Zoom: %d - %d\n", h.MinZoom, h.MaxZoom)
			fmt.Fprintf(out, "Bounds: lon [%.6f, %.6f], lat [%.6f, %.6f]\n", h.MinLon, h.MaxLon, h.MinLat, h.MaxLat)
			fmt.Fprintf(out, "Center: %.6f, %.6f @ z%d\n", h.CenterLon, h.CenterLat, h.CenterZoom)
			fmt.Fprintf(out, "Tiles: %d addressed, %d entries, %d unique\n",
				h.NumAddressedTiles, h.NumTileEntries, h.NumTileContents)
			fmt.Fprintf(out, "Clustered: %t\n", h.Clustered)

			meta, err := r.ReadMetadata()
			if err != nil {
				return err
			}
			keys := make([]string, 0, len(meta))
			for k := range meta {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintln(out, "Metadata:")
			for _, k := range keys {
				fmt.Fprintf(out, "  %s: %v\n", k, meta[k])
			}

			fmt.Fprintln(out, "Tiles per zoom:")
			for z := int(h.MinZoom); z <= int(h.MaxZoom); z++ {
				fmt.Fprintf(out, "  z%-2d %d\n", z, len(r.TilesAtZoom(z)))
			}
			a.log.WithField("file", args[0]).Debug("archive inspected")
			return nil
		},
	}
}
