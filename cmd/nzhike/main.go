// Command nzhike converts NZTM2000 coordinates and turns the DOC track, hut
// and campsite catalog into GeoJSON and PMTiles map overlays.
package main

import (
	"os"
)

// Set via -ldflags at build time.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
