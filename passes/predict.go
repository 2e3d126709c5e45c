package passes

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	kitlog "github.com/go-kit/kit/log"
	"github.com/gonum/floats"
)

// SkyPoint is the direction of the target at a given time.
type SkyPoint struct {
	Time time.Time
	LookAngle
}

// Polar returns the point on a polar sky plot: North up, azimuth clockwise and the zenith at
// the centre, the radius being 90-elevation.
func (p SkyPoint) Polar() (x, y float64) {
	s, c := math.Sincos(p.Azimuth * d2r)
	ρ := 90 - p.Elevation
	return ρ * s, ρ * c
}

// SkyTrack samples n uniformly spaced dates in [start, end] and returns the points which are
// above the horizon.
func SkyTrack(ctx context.Context, tr Tracker, obs Observer, start, end time.Time, n int) ([]SkyPoint, error) {
	if !end.After(start) {
		return nil, ErrInvalidWindow
	}
	if n < 2 {
		return nil, fmt.Errorf("at least two sky track points are needed, got %d", n)
	}
	offsets := floats.Span(make([]float64, n), 0, end.Sub(start).Seconds())
	var track []SkyPoint
	for _, offset := range offsets {
		if err := ctx.Err(); err != nil {
			return track, err
		}
		dt := start.Add(time.Duration(offset * float64(time.Second)))
		la, err := tr.LookAt(obs, dt)
		if err != nil {
			return track, err
		}
		if la.Elevation > 0 {
			track = append(track, SkyPoint{dt, la})
		}
	}
	return track, nil
}

// Request holds the parameters of a prediction for several satellites.
type Request struct {
	Observer   Observer
	TLEs       []TLE
	Start, End time.Time
	Events     EventConfig
	Workers    int // number of satellites propagated concurrently, one if not positive
}

// Result holds the prediction of one satellite.
type Result struct {
	TLE    TLE
	Events []Event
	Passes []Pass
	Err    error
}

// Predict computes the events of every satellite of the request.
// Each satellite is processed in its own goroutine, bounded by a semaphore, and the results
// are in the order of the request. The error of one satellite does not stop the others.
func Predict(ctx context.Context, req Request, logger kitlog.Logger) []Result {
	workers := req.Workers
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	results := make([]Result, len(req.TLEs))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, tle := range req.TLEs {
		wg.Add(1)
		go func(idx int, tle TLE) {
			defer wg.Done()
			results[idx].TLE = tle
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[idx].Err = ctx.Err()
				return
			}

			prop, err := NewPropagator(tle)
			if err != nil {
				results[idx].Err = err
				logger.Log("level", "warning", "subsys", "passes", "sat", tle.Name, "err", err)
				return
			}
			events, err := FindEvents(ctx, prop, req.Observer, req.Start, req.End, req.Events)
			results[idx].Events = events
			results[idx].Passes = Passes(events)
			if err != nil {
				results[idx].Err = err
				logger.Log("level", "warning", "subsys", "passes", "sat", tle.Name, "err", err)
				return
			}
			logger.Log("level", "info", "subsys", "passes", "sat", tle.Name, "events", len(events), "passes", len(results[idx].Passes))
		}(i, tle)
	}

	wg.Wait()
	return results
}
