package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/signalsfoundry/transit-recorder/internal/logging"
	"github.com/signalsfoundry/transit-recorder/internal/observability"
	"github.com/signalsfoundry/transit-recorder/model"
)

// nextCheckMargin pushes an object's next prediction past the end of the
// window just predicted, so the same physical pass is never returned twice.
const nextCheckMargin = time.Minute

// ErrReceiverIdleAtSet reports that a pass reached its end while marked
// active but the receiver was idle. Exclusivity bookkeeping is corrupted at
// that point and the process must not continue scheduling.
var ErrReceiverIdleAtSet = errors.New("active pass ended with receiver idle")

// trackedObject pairs a configured satellite with its scheduling state.
// Orbital elements stay immutable; only the scheduler touches nextCheck.
type trackedObject struct {
	sat       *model.Satellite
	nextCheck time.Time
	excluded  bool
}

// ObjectState is a read-only view of one tracked object.
type ObjectState struct {
	Name      string
	NextCheck time.Time
	Excluded  bool
}

// PassState is a read-only view of one live pass.
type PassState struct {
	Satellite        string
	Rise             time.Time
	Peak             time.Time
	Set              time.Time
	PeakElevationDeg float64
	Status           PassStatus
}

// Scheduler owns the live pass set. Each tick it predicts fresh passes for
// objects whose schedule elapsed (Refresh) and walks every live pass through
// the lifecycle state machine (Advance), issuing start and stop commands to
// the receiver. Not safe for concurrent use: a single goroutine must drive
// both methods.
type Scheduler struct {
	predictor  OrbitPredictor
	receiver   *Receiver
	minPeakDeg float64
	log        logging.Logger
	metrics    *observability.RecorderCollector
	objects    []*trackedObject
	passes     []*Pass
}

// NewScheduler tracks the given satellites against one station. The zero
// next-check timestamps make every object eligible for prediction on the
// first tick.
func NewScheduler(predictor OrbitPredictor, receiver *Receiver, station model.GroundStation, sats []*model.Satellite, log logging.Logger, metrics *observability.RecorderCollector) *Scheduler {
	if log == nil {
		log = logging.Noop()
	}
	station = station.ApplyDefaults()

	objects := make([]*trackedObject, 0, len(sats))
	for _, sat := range sats {
		objects = append(objects, &trackedObject{sat: sat})
	}
	return &Scheduler{
		predictor:  predictor,
		receiver:   receiver,
		minPeakDeg: station.MinPeakElevationDeg,
		log:        log,
		metrics:    metrics,
		objects:    objects,
	}
}

// Refresh predicts the next pass for every object whose next-check timestamp
// has elapsed. Valid passes join the live set as queued; ongoing, low or
// degenerate windows are dropped. Either way the object's next check moves
// past the predicted window. A predictor failure excludes the object from
// all further scheduling but never stops the process.
func (s *Scheduler) Refresh(ctx context.Context, now time.Time) {
	for _, obj := range s.objects {
		if obj.excluded || !now.After(obj.nextCheck) {
			continue
		}

		w, err := s.predictor.NextWindow(ctx, obj.sat, now)
		if err != nil {
			obj.excluded = true
			s.metrics.IncPredictorFailures()
			s.log.Warn(ctx, "orbit prediction failed, dropping object",
				logging.String("satellite", obj.sat.Name),
				logging.String("error", err.Error()),
			)
			continue
		}
		obj.nextCheck = w.Set.Add(nextCheckMargin)

		p := NewPass(obj.sat, w, now, s.minPeakDeg)
		if p == nil {
			s.metrics.IncPredicted(observability.PredictionSkipped)
			s.log.Debug(ctx, "ongoing or low pass, skipping",
				logging.String("satellite", obj.sat.Name),
				logging.String("tca", w.Peak.Format(time.RFC3339)),
				logging.Float64("peak_elevation_deg", w.PeakElevationDeg),
			)
			continue
		}

		s.passes = append(s.passes, p)
		s.metrics.IncPredicted(observability.PredictionScheduled)
		s.log.Info(ctx, "interesting pass, scheduling",
			logging.String("satellite", obj.sat.Name),
			logging.String("rise", w.Rise.Format(time.RFC3339)),
			logging.String("tca", w.Peak.Format(time.RFC3339)),
			logging.String("set", w.Set.Format(time.RFC3339)),
			logging.Float64("peak_elevation_deg", w.PeakElevationDeg),
		)
	}

	s.metrics.SetTrackedObjects(s.trackedCount())
	s.metrics.SetLivePasses(len(s.passes))
}

// Advance evaluates the lifecycle state machine once for every live pass, in
// insertion order, then rebuilds the live set without the closed ones. The
// returned error is fatal: either the receiver found its bookkeeping
// corrupted or the capture process could not be launched.
func (s *Scheduler) Advance(ctx context.Context, now time.Time) error {
	retained := make([]*Pass, 0, len(s.passes))
	for _, p := range s.passes {
		keep, err := s.step(ctx, now, p)
		if err != nil {
			return err
		}
		if keep {
			retained = append(retained, p)
		}
	}
	s.passes = retained
	s.metrics.SetLivePasses(len(retained))
	return nil
}

func (s *Scheduler) step(ctx context.Context, now time.Time, p *Pass) (keep bool, err error) {
	switch p.Status {
	case PassQueued:
		if now.Before(p.Window.Rise) {
			return true, nil
		}
		if s.receiver.IsBusy() {
			p.Status = PassDeferred
			s.metrics.IncRecordingsDeferred()
			s.log.Info(ctx, "raising, receiver busy, deferring reception",
				logging.String("satellite", p.Sat.Name))
			return true, nil
		}
		if err := s.receiver.Start(ctx, p.Sat); err != nil {
			return false, err
		}
		p.Status = PassActive
		s.metrics.IncRecordingsStarted()
		s.log.Info(ctx, "raising, starting reception",
			logging.String("satellite", p.Sat.Name))
		return true, nil

	case PassDeferred:
		if s.receiver.IsBusy() {
			return true, nil
		}
		if err := s.receiver.Start(ctx, p.Sat); err != nil {
			return false, err
		}
		p.Status = PassActive
		s.metrics.IncRecordingsStarted()
		s.log.Info(ctx, "receiver now free, starting reception",
			logging.String("satellite", p.Sat.Name))
		return true, nil

	case PassActive:
		if now.Before(p.Window.Set) {
			return true, nil
		}
		if !s.receiver.IsBusy() {
			return false, fmt.Errorf("%s: %w", p.Sat.Name, ErrReceiverIdleAtSet)
		}
		if s.receiver.FrequencyHz() != p.Sat.FrequencyHz {
			s.metrics.IncPassesMissed()
			s.log.Warn(ctx, "setting, pass missed",
				logging.String("satellite", p.Sat.Name))
			return false, nil
		}
		s.log.Info(ctx, "setting, stopping reception",
			logging.String("satellite", p.Sat.Name))
		if err := s.receiver.Stop(ctx); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

func (s *Scheduler) trackedCount() int {
	n := 0
	for _, obj := range s.objects {
		if !obj.excluded {
			n++
		}
	}
	return n
}

// Objects snapshots the scheduling state of every tracked object.
func (s *Scheduler) Objects() []ObjectState {
	out := make([]ObjectState, 0, len(s.objects))
	for _, obj := range s.objects {
		out = append(out, ObjectState{
			Name:      obj.sat.Name,
			NextCheck: obj.nextCheck,
			Excluded:  obj.excluded,
		})
	}
	return out
}

// Live snapshots the live pass set in insertion order.
func (s *Scheduler) Live() []PassState {
	out := make([]PassState, 0, len(s.passes))
	for _, p := range s.passes {
		out = append(out, PassState{
			Satellite:        p.Sat.Name,
			Rise:             p.Window.Rise,
			Peak:             p.Window.Peak,
			Set:              p.Window.Set,
			PeakElevationDeg: p.Window.PeakElevationDeg,
			Status:           p.Status,
		})
	}
	return out
}
