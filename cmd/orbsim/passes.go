package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Nik6820/mipt-nik-2/passes"
)

var passesCmd = &cobra.Command{
	Use:   "passes",
	Short: "Predict the passes of satellites over an observer",
	Long: `Reads 3-line element sets and lists, for each satellite, the times at which it
goes above and below the minimum elevation. With --csv, the sky track of each
satellite (azimuth, elevation and the polar plot coordinates) is also written.

The window defaults to the next 24 hours.`,
	Args:    cobra.NoArgs,
	PreRunE: bindOnRun(passesKeys),
	RunE:    runPasses,
}

var passesKeys = map[string]string{
	"passes.tle_file":      "tle",
	"passes.lat":           "lat",
	"passes.lon":           "lon",
	"passes.alt":           "alt",
	"passes.start":         "start",
	"passes.end":           "end",
	"passes.min_elevation": "min-elevation",
	"passes.track_points":  "track-points",
	"passes.step":          "step",
	"passes.workers":       "workers",
}

func init() {
	f := passesCmd.Flags()
	f.String("tle", "", "TLE file")
	f.Float64("lat", 55.9496, "observer latitude in degrees")
	f.Float64("lon", 37.5018, "observer longitude in degrees, East positive")
	f.Float64("alt", 190, "observer altitude in m")
	f.String("start", "", "start of the window (RFC3339 or 2006-01-02 15:04:05, UTC)")
	f.String("end", "", "end of the window")
	f.Float64("min-elevation", 0, "minimum elevation in degrees")
	f.Int("track-points", 10000, "number of sky track points")
	f.Duration("step", passes.DefaultStep, "coarse scan step")
	f.Int("workers", 4, "satellites processed concurrently")
}

func runPasses(cmd *cobra.Command, args []string) error {
	conf, err := loadConfig()
	if err != nil {
		return err
	}
	pc := conf.Passes
	if pc.TLEFile == "" {
		return fmt.Errorf("no TLE file, use --tle or passes.tle_file")
	}
	f, err := os.Open(pc.TLEFile)
	if err != nil {
		return err
	}
	tles, err := passes.ParseTLE(f, logger)
	f.Close()
	if err != nil {
		return err
	}
	if len(tles) == 0 {
		return fmt.Errorf("no valid element set in %s", pc.TLEFile)
	}
	obs, err := passes.NewObserver("observer", pc.Lat, pc.Lon, pc.Alt)
	if err != nil {
		return err
	}
	start, end := pc.Start, pc.End
	if start.IsZero() {
		start = time.Now().UTC().Truncate(time.Second)
	}
	if end.IsZero() {
		end = start.Add(24 * time.Hour)
	}
	logger.Log("level", "info", "subsys", "passes", "observer", obs, "satellites", len(tles), "start", start, "end", end)

	ctx := cmd.Context()
	results := passes.Predict(ctx, passes.Request{
		Observer: obs,
		TLEs:     tles,
		Start:    start,
		End:      end,
		Events:   passes.EventConfig{MinElevation: pc.MinElevation, Step: pc.Step},
		Workers:  pc.Workers,
	}, logger)
	stats.ObservePasses(results)

	for _, r := range results {
		fmt.Fprintf(os.Stdout, "%s\n", r.TLE.Name)
		if err := passes.WritePassReport(os.Stdout, r.Passes); err != nil {
			return err
		}
		if r.Err != nil {
			fmt.Fprintf(os.Stdout, "error: %s\n", r.Err)
		}
	}

	if !conf.Export.CSV {
		return nil
	}
	for _, tle := range tles {
		prop, err := passes.NewPropagator(tle)
		if err != nil {
			logger.Log("level", "warning", "subsys", "passes", "sat", tle.Name, "err", err)
			continue
		}
		track, err := passes.SkyTrack(ctx, prop, obs, start, end, pc.TrackPoints)
		if err != nil {
			logger.Log("level", "warning", "subsys", "passes", "sat", tle.Name, "err", err)
			continue
		}
		path := filepath.Join(conf.Export.Dir, trackFilename(tle))
		out, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := passes.WriteSkyTrackCSV(out, track); err != nil {
			out.Close()
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		logger.Log("level", "notice", "subsys", "export", "file", path, "points", len(track))
	}
	return nil
}

func trackFilename(tle passes.TLE) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '/', '\\', ':':
			return '-'
		}
		return r
	}, strings.ToLower(tle.Name))
	return fmt.Sprintf("skytrack-%s-%d.csv", name, tle.NORADID)
}
