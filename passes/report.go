package passes

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// WritePassReport writes one "above <date> below <date>" line per pass.
func WritePassReport(w io.Writer, passes []Pass) error {
	for _, p := range passes {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return err
		}
	}
	return nil
}

// WriteSkyTrackCSV writes the sky track with its polar plot coordinates.
func WriteSkyTrackCSV(w io.Writer, track []SkyPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "azimuth", "elevation", "range", "x", "y"}); err != nil {
		return err
	}
	for _, p := range track {
		x, y := p.Polar()
		row := []string{p.Time.UTC().Format(time.RFC3339)}
		for _, v := range []float64{p.Azimuth, p.Elevation, p.Range, x, y} {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
