package core

import (
	"context"
	"time"

	"github.com/signalsfoundry/transit-recorder/model"
)

// Window is one predicted pass of a tracked object over the observer.
type Window struct {
	Rise             time.Time
	Peak             time.Time
	Set              time.Time
	PeakElevationDeg float64
}

// Duration returns the above-horizon span of the window.
func (w Window) Duration() time.Duration { return w.Set.Sub(w.Rise) }

// OrbitPredictor produces the next pass window of a tracked object whose
// rise is strictly after the given time. Implementations must be repeatedly
// queryable: feeding a returned Set back as after walks forward through
// consecutive windows. An error means the object has no further usable
// windows (decayed, never visible, propagation failure) and callers drop it
// from scheduling.
type OrbitPredictor interface {
	NextWindow(ctx context.Context, sat *model.Satellite, after time.Time) (Window, error)
}
