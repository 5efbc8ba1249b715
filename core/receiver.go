package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/signalsfoundry/transit-recorder/internal/capture"
	"github.com/signalsfoundry/transit-recorder/internal/logging"
	"github.com/signalsfoundry/transit-recorder/internal/observability"
	"github.com/signalsfoundry/transit-recorder/model"
	"github.com/signalsfoundry/transit-recorder/timectrl"
)

// outputTimestampLayout names recordings after their local start time.
const outputTimestampLayout = "20060102-150405"

var (
	// ErrReceiverBusy is returned by Start while a capture process is held.
	ErrReceiverBusy = errors.New("receiver busy")
	// ErrReceiverIdle is returned by Stop when no capture process is held.
	ErrReceiverIdle = errors.New("receiver idle")
)

// Receiver owns the single radio frontend. At most one capture process runs
// at a time; callers must check IsBusy before Start and arbitrate access
// among competing passes themselves.
type Receiver struct {
	launcher  capture.Launcher
	clock     timectrl.Clock
	outputDir string
	log       logging.Logger
	metrics   *observability.RecorderCollector

	mu          sync.Mutex
	handle      capture.Handle
	satName     string
	frequencyHz float64
	demodPath   string
	iqPath      string
	startedAt   time.Time
}

// NewReceiver builds a receiver that writes recordings under outputDir.
func NewReceiver(launcher capture.Launcher, clock timectrl.Clock, outputDir string, log logging.Logger, metrics *observability.RecorderCollector) *Receiver {
	if clock == nil {
		clock = timectrl.System()
	}
	if log == nil {
		log = logging.Noop()
	}
	return &Receiver{
		launcher:  launcher,
		clock:     clock,
		outputDir: outputDir,
		log:       log,
		metrics:   metrics,
	}
}

// IsBusy reports whether the receiver holds a capture process. The receiver
// counts as busy until Stop is called, even if the underlying process has
// already exited on its own.
func (r *Receiver) IsBusy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.handle != nil
}

// FrequencyHz returns the frequency of the running capture, or 0 when idle.
func (r *Receiver) FrequencyHz() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frequencyHz
}

// CurrentOutputs returns the output paths of the running capture. Both are
// empty while the receiver is idle.
func (r *Receiver) CurrentOutputs() (demodPath, iqPath string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.demodPath, r.iqPath
}

// SatelliteName returns the name of the object being recorded, or "" when
// idle.
func (r *Receiver) SatelliteName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.satName
}

// Start tunes the receiver to sat and launches a capture process writing a
// timestamped file pair under the output directory. It fails with
// ErrReceiverBusy if a capture is already held.
func (r *Receiver) Start(ctx context.Context, sat *model.Satellite) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.handle != nil {
		return ErrReceiverBusy
	}

	ts := r.clock.Now().Format(outputTimestampLayout)
	demod := filepath.Join(r.outputDir, fmt.Sprintf("%s-%s-demod.wav", sat.OutputPrefix, ts))
	iq := filepath.Join(r.outputDir, fmt.Sprintf("%s-%s-iq.wav", sat.OutputPrefix, ts))

	handle, err := r.launcher.Start(capture.Spec{
		FrequencyHz: sat.FrequencyHz,
		DemodPath:   demod,
		IQPath:      iq,
	})
	if err != nil {
		return fmt.Errorf("start capture for %s: %w", sat.Name, err)
	}

	r.handle = handle
	r.satName = sat.Name
	r.frequencyHz = sat.FrequencyHz
	r.demodPath = demod
	r.iqPath = iq
	r.startedAt = r.clock.Now()
	r.metrics.SetReceiverBusy(true)

	r.log.Debug(ctx, "capture process launched",
		logging.String("satellite", sat.Name),
		logging.Float64("frequency_hz", sat.FrequencyHz),
		logging.String("demod_path", demod),
		logging.String("iq_path", iq),
	)
	return nil
}

// Stop terminates the running capture process and blocks until it exits.
// The receiver is freed regardless of how the process went down; an abnormal
// exit is logged but not returned as an error. Stop fails with
// ErrReceiverIdle when nothing is recording.
func (r *Receiver) Stop(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.handle == nil {
		return ErrReceiverIdle
	}

	// The process may already have exited on its own; Wait below settles it
	// either way.
	_ = r.handle.Signal(syscall.SIGTERM)
	status := r.handle.Wait()
	duration := r.clock.Now().Sub(r.startedAt)

	if !status.Clean() {
		r.log.Warn(ctx, "receiver process terminated abnormally",
			logging.String("satellite", r.satName),
			logging.String("status", status.String()),
		)
	}
	r.metrics.ObserveCaptureExit(status.Clean(), duration)

	r.handle = nil
	r.satName = ""
	r.frequencyHz = 0
	r.demodPath = ""
	r.iqPath = ""
	r.startedAt = time.Time{}
	r.metrics.SetReceiverBusy(false)
	return nil
}
