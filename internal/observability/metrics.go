package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for passes_predicted_total.
const (
	PredictionScheduled = "scheduled"
	PredictionSkipped   = "skipped"
)

// Outcome labels for capture_exits_total.
const (
	ExitClean    = "clean"
	ExitAbnormal = "abnormal"
)

// RecorderCollector bundles Prometheus metrics for the pass scheduler, the
// receiver and the monitor loop. All recording methods are nil-safe so
// callers can run without metrics wired.
type RecorderCollector struct {
	gatherer prometheus.Gatherer

	PassesPredicted    *prometheus.CounterVec
	PredictorFailures  prometheus.Counter
	RecordingsStarted  prometheus.Counter
	RecordingsDeferred prometheus.Counter
	PassesMissed       prometheus.Counter
	CaptureExits       *prometheus.CounterVec
	RecordingDuration  prometheus.Histogram
	ReceiverBusy       prometheus.Gauge
	TrackedObjects     prometheus.Gauge
	LivePasses         prometheus.Gauge
	TickDuration       prometheus.Histogram
}

// NewRecorderCollector registers recorder metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewRecorderCollector(reg prometheus.Registerer) (*RecorderCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	predicted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "passes_predicted_total",
		Help: "Pass predictions by outcome: scheduled for recording, or skipped as ongoing/low/degenerate.",
	}, []string{"outcome"})
	predicted, err := registerCounterVec(reg, predicted, "passes_predicted_total")
	if err != nil {
		return nil, err
	}

	predictorFailures, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "predictor_failures_total",
		Help: "Tracked objects dropped because the orbit predictor could not produce a window.",
	}), "predictor_failures_total")
	if err != nil {
		return nil, err
	}

	started, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recordings_started_total",
		Help: "Recordings handed to the capture process.",
	}), "recordings_started_total")
	if err != nil {
		return nil, err
	}

	deferred, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "recordings_deferred_total",
		Help: "Passes that reached their rise time while the receiver was busy.",
	}), "recordings_deferred_total")
	if err != nil {
		return nil, err
	}

	missed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "passes_missed_total",
		Help: "Passes that ended while the receiver was tuned to another frequency.",
	}), "passes_missed_total")
	if err != nil {
		return nil, err
	}

	exits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "capture_exits_total",
		Help: "Capture process exits by outcome.",
	}, []string{"outcome"})
	exits, err = registerCounterVec(reg, exits, "capture_exits_total")
	if err != nil {
		return nil, err
	}

	recDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "recording_duration_seconds",
		Help:    "Wall-clock duration of completed recordings.",
		Buckets: []float64{30, 60, 120, 300, 600, 900, 1200, 1800},
	})
	recDuration, err = registerHistogram(reg, recDuration, "recording_duration_seconds")
	if err != nil {
		return nil, err
	}

	busy, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "receiver_busy",
		Help: "1 while the receiver holds a capture process, 0 while idle.",
	}), "receiver_busy")
	if err != nil {
		return nil, err
	}

	tracked, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tracked_objects",
		Help: "Tracked objects still eligible for scheduling.",
	}), "tracked_objects")
	if err != nil {
		return nil, err
	}

	livePasses, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_live_passes",
		Help: "Passes currently queued, deferred or active.",
	}), "scheduler_live_passes")
	if err != nil {
		return nil, err
	}

	tick := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "monitor_tick_duration_seconds",
		Help:    "Duration of one monitor tick: recomputation plus lifecycle evaluation.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	})
	tick, err = registerHistogram(reg, tick, "monitor_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &RecorderCollector{
		gatherer:           gatherer,
		PassesPredicted:    predicted,
		PredictorFailures:  predictorFailures,
		RecordingsStarted:  started,
		RecordingsDeferred: deferred,
		PassesMissed:       missed,
		CaptureExits:       exits,
		RecordingDuration:  recDuration,
		ReceiverBusy:       busy,
		TrackedObjects:     tracked,
		LivePasses:         livePasses,
		TickDuration:       tick,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *RecorderCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// Handler exposes a ready-to-use /metrics handler.
func (c *RecorderCollector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// IncPredicted counts one prediction outcome.
func (c *RecorderCollector) IncPredicted(outcome string) {
	if c == nil || c.PassesPredicted == nil {
		return
	}
	c.PassesPredicted.WithLabelValues(outcome).Inc()
}

// IncPredictorFailures counts a tracked object dropped on predictor error.
func (c *RecorderCollector) IncPredictorFailures() {
	if c == nil || c.PredictorFailures == nil {
		return
	}
	c.PredictorFailures.Inc()
}

// IncRecordingsStarted counts a capture handoff.
func (c *RecorderCollector) IncRecordingsStarted() {
	if c == nil || c.RecordingsStarted == nil {
		return
	}
	c.RecordingsStarted.Inc()
}

// IncRecordingsDeferred counts a pass parked behind a busy receiver.
func (c *RecorderCollector) IncRecordingsDeferred() {
	if c == nil || c.RecordingsDeferred == nil {
		return
	}
	c.RecordingsDeferred.Inc()
}

// IncPassesMissed counts a pass closed on a frequency mismatch.
func (c *RecorderCollector) IncPassesMissed() {
	if c == nil || c.PassesMissed == nil {
		return
	}
	c.PassesMissed.Inc()
}

// ObserveCaptureExit records a capture process exit.
func (c *RecorderCollector) ObserveCaptureExit(clean bool, duration time.Duration) {
	if c == nil {
		return
	}
	outcome := ExitAbnormal
	if clean {
		outcome = ExitClean
	}
	if c.CaptureExits != nil {
		c.CaptureExits.WithLabelValues(outcome).Inc()
	}
	if c.RecordingDuration != nil {
		c.RecordingDuration.Observe(duration.Seconds())
	}
}

// SetReceiverBusy reflects the receiver's exclusivity state.
func (c *RecorderCollector) SetReceiverBusy(busy bool) {
	if c == nil || c.ReceiverBusy == nil {
		return
	}
	if busy {
		c.ReceiverBusy.Set(1)
		return
	}
	c.ReceiverBusy.Set(0)
}

// SetTrackedObjects updates the eligible-object gauge.
func (c *RecorderCollector) SetTrackedObjects(count int) {
	if c == nil || c.TrackedObjects == nil {
		return
	}
	c.TrackedObjects.Set(float64(count))
}

// SetLivePasses updates the live-pass gauge.
func (c *RecorderCollector) SetLivePasses(count int) {
	if c == nil || c.LivePasses == nil {
		return
	}
	c.LivePasses.Set(float64(count))
}

// ObserveTick records one monitor tick duration.
func (c *RecorderCollector) ObserveTick(d time.Duration) {
	if c == nil || c.TickDuration == nil {
		return
	}
	c.TickDuration.Observe(d.Seconds())
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}
