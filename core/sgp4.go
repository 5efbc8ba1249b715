package core

import (
	"context"
	"fmt"
	"time"

	"github.com/signalsfoundry/transit-recorder/model"
)

const (
	coarseStep = 30 * time.Second
	fineStep   = time.Second

	// Windows shorter than this are numerical grazes, not recordable passes.
	minWindowDuration = 10 * time.Second

	// How far ahead NextWindow scans before declaring the object has no
	// upcoming pass. Four days covers every LEO ground track repeat cycle
	// the recorder cares about.
	searchSpan = 4 * 24 * time.Hour

	// Longest above-horizon stretch the fine scan will follow before giving
	// up. Anything longer is not a pass (e.g. a geostationary object parked
	// over the observer).
	maxWindowSpan = 24 * time.Hour
)

// SGP4Predictor finds pass windows by propagating element sets and scanning
// observer elevation over time: a coarse scan locates an above-horizon
// region, a fine scan refines its rise, peak and set.
//
// It reports the geometry as-is; validity filtering (peak elevation
// threshold) belongs to the pass constructor.
type SGP4Predictor struct {
	observer   Observer
	horizonDeg float64
}

// NewSGP4Predictor builds a predictor for a fixed ground station.
func NewSGP4Predictor(station model.GroundStation) *SGP4Predictor {
	return &SGP4Predictor{
		observer:   NewObserver(station),
		horizonDeg: station.HorizonDeg,
	}
}

// NextWindow implements OrbitPredictor.
func (p *SGP4Predictor) NextWindow(ctx context.Context, sat *model.Satellite, after time.Time) (Window, error) {
	orbit := NewOrbitalModel(sat.TLE)
	limit := after.Add(searchSpan)

	t := after

	// If the object is already up at the query time, walk past the ongoing
	// window first so the returned rise is strictly after it.
	el, err := p.elevationAt(orbit, t)
	if err != nil {
		return Window{}, fmt.Errorf("%s: %w", sat.Name, err)
	}
	for el > p.horizonDeg {
		t = t.Add(coarseStep)
		if t.After(limit) {
			return Window{}, fmt.Errorf("%s: no pass within %v of %s", sat.Name, searchSpan, after.Format(time.RFC3339))
		}
		if el, err = p.elevationAt(orbit, t); err != nil {
			return Window{}, fmt.Errorf("%s: %w", sat.Name, err)
		}
	}

	for t.Before(limit) {
		if err := ctx.Err(); err != nil {
			return Window{}, fmt.Errorf("pass search for %s: %w", sat.Name, err)
		}

		el, err := p.elevationAt(orbit, t)
		if err != nil {
			return Window{}, fmt.Errorf("%s: %w", sat.Name, err)
		}
		if el <= p.horizonDeg {
			t = t.Add(coarseStep)
			continue
		}

		w, scanEnd, err := p.refine(ctx, orbit, t, after)
		if err != nil {
			return Window{}, fmt.Errorf("%s: %w", sat.Name, err)
		}
		if !w.Rise.IsZero() && w.Rise.After(after) && w.Duration() >= minWindowDuration {
			return w, nil
		}
		// Graze or boundary artifact; keep scanning past it.
		t = scanEnd.Add(coarseStep)
	}

	return Window{}, fmt.Errorf("%s: no pass within %v of %s", sat.Name, searchSpan, after.Format(time.RFC3339))
}

// refine walks an above-horizon region found by the coarse scan at
// one-second resolution, locating rise, peak and set. It returns a zero
// window when the region never produces a complete rise/set pair, along with
// the time where scanning stopped so the caller can resume past it.
func (p *SGP4Predictor) refine(ctx context.Context, orbit *OrbitalModel, coarseHit, notBefore time.Time) (Window, time.Time, error) {
	start := coarseHit.Add(-coarseStep)
	if start.Before(notBefore) {
		start = notBefore
	}
	fineLimit := start.Add(maxWindowSpan)

	var (
		w        Window
		rose     bool
		wasAbove bool
	)

	for t := start; t.Before(fineLimit); t = t.Add(fineStep) {
		if err := ctx.Err(); err != nil {
			return Window{}, t, err
		}

		el, err := p.elevationAt(orbit, t)
		if err != nil {
			return Window{}, t, err
		}
		above := el > p.horizonDeg

		if above && !wasAbove {
			w.Rise = t
			w.Peak = t
			w.PeakElevationDeg = el
			rose = true
		}
		if above && rose && el > w.PeakElevationDeg {
			w.PeakElevationDeg = el
			w.Peak = t
		}
		if !above && wasAbove && rose {
			w.Set = t
			return w, t, nil
		}

		wasAbove = above
	}

	// Never set within the span: not a usable window.
	return Window{}, fineLimit, nil
}

func (p *SGP4Predictor) elevationAt(orbit *OrbitalModel, t time.Time) (float64, error) {
	pos := orbit.PositionECEF(t)
	if !finitePosition(pos) {
		return 0, fmt.Errorf("propagation to %s produced no position", t.Format(time.RFC3339))
	}
	return p.observer.LookAt(pos).ElevationDeg, nil
}
