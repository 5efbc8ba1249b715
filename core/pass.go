package core

import (
	"time"

	"github.com/signalsfoundry/transit-recorder/model"
)

// PassStatus tracks where a live pass sits in its lifecycle. Closing a pass
// removes it from the live set immediately, so no closed status is stored.
type PassStatus string

const (
	PassQueued   PassStatus = "queued"   // valid, waiting for its rise time
	PassDeferred PassStatus = "deferred" // rise reached while the receiver was busy
	PassActive   PassStatus = "active"   // recording via the receiver
)

// Pass is one scheduled recording opportunity of a tracked object.
type Pass struct {
	Sat    *model.Satellite
	Window Window
	Status PassStatus
}

// NewPass classifies a predicted window against the construction-time clock
// reading. It returns nil when the window is not worth recording: already
// under way, peaking below the station threshold, or degenerate (set not
// after rise). Validity is decided exactly once, here; later ticks only run
// the lifecycle transitions.
func NewPass(sat *model.Satellite, w Window, now time.Time, minPeakElevationDeg float64) *Pass {
	if !w.Rise.After(now) {
		return nil
	}
	if w.PeakElevationDeg < minPeakElevationDeg {
		return nil
	}
	if !w.Set.After(w.Rise) {
		return nil
	}
	return &Pass{Sat: sat, Window: w, Status: PassQueued}
}
