package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pspoerri/nzhike/internal/coord"
)

func newConvertCmd(a *app) *cobra.Command {
	var reverse bool
	cmd := &cobra.Command{
		Use:   "convert [EASTING NORTHING]...",
		Short: "Convert NZTM2000 easting/northing to WGS84 lat/lon",
		Long: "Converts coordinate pairs given as arguments or, with no arguments, one pair\n" +
			"per stdin line separated by spaces or commas. Values below 1,000,000 are\n" +
			"treated as already geographic and passed through swapped.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) > 0 {
				vals, err := parseNumbers(args)
				if err != nil {
					return err
				}
				if len(vals)%2 != 0 {
					return fmt.Errorf("expected coordinate pairs, got %d values", len(vals))
				}
				for i := 0; i < len(vals); i += 2 {
					writePair(out, vals[i], vals[i+1], reverse)
				}
				return nil
			}
			return convertStream(cmd.InOrStdin(), out, reverse)
		},
	}
	cmd.Flags().BoolVar(&reverse, "reverse", false, "read LAT LON and print NZTM2000 EASTING NORTHING")
	return cmd
}

func convertStream(r io.Reader, w io.Writer, reverse bool) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		vals, err := parseNumbers(splitFields(text))
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if len(vals) != 2 {
			return fmt.Errorf("line %d: expected 2 values, got %d", line, len(vals))
		}
		writePair(w, vals[0], vals[1], reverse)
	}
	return sc.Err()
}

func writePair(w io.Writer, a, b float64, reverse bool) {
	if reverse {
		var nztm coord.NZTM2000
		e, n := nztm.FromWGS84(b, a)
		fmt.Fprintf(w, "%.3f %.3f\n", e, n)
		return
	}
	lat, lon := coord.ToLatLon(a, b)
	fmt.Fprintf(w, "%.7f %.7f\n", lat, lon)
}

func splitFields(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
}

func parseNumbers(fields []string) ([]float64, error) {
	vals := make([]float64, 0, len(fields))
	for _, f := range fields {
		for _, part := range splitFields(f) {
			v, err := strconv.ParseFloat(part, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q", part)
			}
			vals = append(vals, v)
		}
	}
	return vals, nil
}
