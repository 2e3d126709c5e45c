package passes

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// EventKind is the kind of a horizon event.
type EventKind uint8

const (
	// Rise is when the target goes above the minimum elevation.
	Rise EventKind = iota
	// Culminate is the maximum elevation between a rise and a set.
	Culminate
	// Set is when the target goes below the minimum elevation.
	Set
)

func (k EventKind) String() string {
	switch k {
	case Rise:
		return "above"
	case Culminate:
		return "culminate"
	case Set:
		return "below"
	}
	panic(fmt.Errorf("unknown event kind %d", k))
}

// Event is a horizon event of a target.
type Event struct {
	Kind EventKind
	Time time.Time
	LookAngle
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s (az=%.1f el=%.1f)", e.Kind, e.Time.UTC().Format(ReportDateFormat), e.Azimuth, e.Elevation)
}

// ErrInvalidWindow is returned when the search window is empty.
var ErrInvalidWindow = errors.New("end must be after start")

const (
	// DefaultStep is the default coarse scan step.
	DefaultStep = 30 * time.Second
	// DefaultPrecision is the default resolution of the event times.
	DefaultPrecision = time.Second
)

// EventConfig configures the event search.
// A pass shorter than Step may be missed entirely.
type EventConfig struct {
	MinElevation float64 // degrees
	Step         time.Duration
	Precision    time.Duration
}

func (c EventConfig) withDefaults() EventConfig {
	if c.Step <= 0 {
		c.Step = DefaultStep
	}
	if c.Precision <= 0 {
		c.Precision = DefaultPrecision
	}
	return c
}

type sample struct {
	dt time.Time
	la LookAngle
}

// FindEvents returns the rise, culmination and set events of the target between start and
// end, in chronological order. Crossings of the minimum elevation are found by a coarse
// scan and refined by bisection, the culmination is reported just before its set. A pass
// in progress at start has no rise, and one still in progress at end has neither
// culmination nor set.
func FindEvents(ctx context.Context, tr Tracker, obs Observer, start, end time.Time, cfg EventConfig) ([]Event, error) {
	if !end.After(start) {
		return nil, ErrInvalidWindow
	}
	cfg = cfg.withDefaults()
	above := func(la LookAngle) bool { return la.Elevation >= cfg.MinElevation }
	at := func(dt time.Time) (sample, error) {
		la, err := tr.LookAt(obs, dt)
		return sample{dt, la}, err
	}

	var events []Event
	prev, err := at(start)
	if err != nil {
		return nil, err
	}
	// Highest coarse sample of the current pass.
	best, inPass := prev, above(prev.la)
	for dt := start; dt.Before(end); {
		if err := ctx.Err(); err != nil {
			return events, err
		}
		dt = dt.Add(cfg.Step)
		if dt.After(end) {
			dt = end
		}
		cur, err := at(dt)
		if err != nil {
			return events, err
		}
		switch {
		case !above(prev.la) && above(cur.la):
			rise, err := bisect(tr, obs, prev, cur, above, cfg.Precision)
			if err != nil {
				return events, err
			}
			events = append(events, Event{Rise, rise.dt, rise.la})
			inPass, best = true, cur
		case above(prev.la) && !above(cur.la):
			// The maximum of a pass in progress at start may be before start.
			if !best.dt.Equal(start) {
				culm, err := culminate(tr, obs, best, cfg.Step, cfg.Precision)
				if err != nil {
					return events, err
				}
				events = append(events, Event{Culminate, culm.dt, culm.la})
			}
			set, err := bisect(tr, obs, cur, prev, above, cfg.Precision)
			if err != nil {
				return events, err
			}
			events = append(events, Event{Set, set.dt, set.la})
			inPass = false
		case inPass && cur.la.Elevation > best.la.Elevation:
			best = cur
		}
		prev = cur
	}
	return events, nil
}

// bisect returns the first sample, going from out towards in, which satisfies the predicate.
// `in` must satisfy it and `out` must not.
func bisect(tr Tracker, obs Observer, out, in sample, pred func(LookAngle) bool, precision time.Duration) (sample, error) {
	for {
		gap := in.dt.Sub(out.dt)
		if gap < 0 {
			gap = -gap
		}
		if gap <= precision {
			return in, nil
		}
		mid := out.dt.Add(in.dt.Sub(out.dt) / 2)
		la, err := tr.LookAt(obs, mid)
		if err != nil {
			return sample{}, err
		}
		if pred(la) {
			in = sample{mid, la}
		} else {
			out = sample{mid, la}
		}
	}
}

// culminate refines the maximum elevation around the best coarse sample by a ternary search
// over one step on each side.
func culminate(tr Tracker, obs Observer, best sample, step, precision time.Duration) (sample, error) {
	lo, hi := best.dt.Add(-step), best.dt.Add(step)
	for hi.Sub(lo) > precision {
		third := hi.Sub(lo) / 3
		m1, m2 := lo.Add(third), hi.Add(-third)
		la1, err := tr.LookAt(obs, m1)
		if err != nil {
			return sample{}, err
		}
		la2, err := tr.LookAt(obs, m2)
		if err != nil {
			return sample{}, err
		}
		if la1.Elevation < la2.Elevation {
			lo = m1
		} else {
			hi = m2
		}
	}
	mid := lo.Add(hi.Sub(lo) / 2)
	la, err := tr.LookAt(obs, mid)
	if err != nil {
		return sample{}, err
	}
	if la.Elevation < best.la.Elevation {
		return best, nil
	}
	return sample{mid, la}, nil
}

// Pass is a complete pass of a target above the minimum elevation.
type Pass struct {
	Rise, Culmination, Set Event
}

// Duration returns the time spent above the minimum elevation.
func (p Pass) Duration() time.Duration {
	return p.Set.Time.Sub(p.Rise.Time)
}

// ReportDateFormat is the date format of the pass reports.
const ReportDateFormat = "2006 Jan 02 15:04:05"

func (p Pass) String() string {
	return fmt.Sprintf("%s %s %s %s", Rise, p.Rise.Time.UTC().Format(ReportDateFormat), Set, p.Set.Time.UTC().Format(ReportDateFormat))
}

// Passes pairs each rise with the following set. Events of incomplete passes at the ends of
// the search window are dropped.
func Passes(events []Event) []Pass {
	var passes []Pass
	var cur *Pass
	for _, e := range events {
		switch e.Kind {
		case Rise:
			cur = &Pass{Rise: e}
		case Culminate:
			if cur != nil {
				cur.Culmination = e
			}
		case Set:
			if cur != nil {
				cur.Set = e
				passes = append(passes, *cur)
				cur = nil
			}
		}
	}
	return passes
}
