package core

import (
	"context"
	"time"

	"github.com/signalsfoundry/transit-recorder/internal/logging"
	"github.com/signalsfoundry/transit-recorder/internal/observability"
	"github.com/signalsfoundry/transit-recorder/timectrl"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// defaultTickInterval paces the polling loop. Pass timing is minute-scale,
// so second-scale polling is plenty.
const defaultTickInterval = time.Second

// Monitor is the top-level driver: every tick it captures the current time,
// refreshes predictions and advances the pass state machine. Single
// goroutine, no parallel ticks.
type Monitor struct {
	scheduler *Scheduler
	clock     timectrl.Clock
	interval  time.Duration
	log       logging.Logger
	metrics   *observability.RecorderCollector
	tracer    trace.Tracer

	tickListeners []func(time.Time)
}

// NewMonitor wires a monitor around the scheduler. A nil clock means wall
// time; a non-positive interval falls back to the default.
func NewMonitor(scheduler *Scheduler, clock timectrl.Clock, interval time.Duration, log logging.Logger, metrics *observability.RecorderCollector) *Monitor {
	if clock == nil {
		clock = timectrl.System()
	}
	if log == nil {
		log = logging.Noop()
	}
	if interval <= 0 {
		interval = defaultTickInterval
	}
	return &Monitor{
		scheduler: scheduler,
		clock:     clock,
		interval:  interval,
		log:       log,
		metrics:   metrics,
		tracer:    otel.Tracer("transit-recorder/monitor"),
	}
}

// RegisterTickListener adds a callback invoked after every healthy tick with
// the tick's scheduling time. Register before calling Run.
func (m *Monitor) RegisterTickListener(fn func(time.Time)) {
	m.tickListeners = append(m.tickListeners, fn)
}

// Run ticks until ctx is cancelled. Cancellation is a clean shutdown and
// deliberately leaves any in-progress recording running; a non-nil error
// means scheduling state is corrupted and the process must exit.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info(ctx, "starting monitor",
		logging.Int("objects", len(m.scheduler.Objects())),
		logging.String("interval", m.interval.String()),
	)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		if err := m.tick(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			m.log.Info(ctx, "monitor stopped")
			return nil
		case <-ticker.C:
		}
	}
}

func (m *Monitor) tick(ctx context.Context) error {
	ctx, span := m.tracer.Start(ctx, "monitor.tick")
	defer span.End()

	started := time.Now()
	now := m.clock.Now()

	m.scheduler.Refresh(ctx, now)
	err := m.scheduler.Advance(ctx, now)
	m.metrics.ObserveTick(time.Since(started))

	span.SetAttributes(
		attribute.Int("tracked_objects", m.scheduler.trackedCount()),
		attribute.Int("live_passes", len(m.scheduler.Live())),
	)
	if err != nil {
		span.RecordError(err)
		return err
	}

	for _, fn := range m.tickListeners {
		fn(now)
	}
	return nil
}
