package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/signalsfoundry/transit-recorder/model"
	"github.com/signalsfoundry/transit-recorder/timectrl"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestMonitor_RunStopsOnCancel(t *testing.T) {
	s, _ := newTestScheduler(newScriptedPredictor(), &fakeLauncher{})
	m := NewMonitor(s, timectrl.NewManual(time.Now()), 5*time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}
}

func TestMonitor_DrivesRecordingThroughAPass(t *testing.T) {
	t0 := time.Date(2021, 10, 2, 12, 0, 0, 0, time.UTC)
	sat := issSatellite()
	predictor := newScriptedPredictor()
	predictor.add(sat.Name, window(t0.Add(time.Minute), t0.Add(2*time.Minute), 40))

	clock := timectrl.NewManual(t0)
	launcher := &fakeLauncher{}
	receiver := NewReceiver(launcher, clock, "/tmp", nil, nil)
	scheduler := NewScheduler(predictor, receiver, testStation(), []*model.Satellite{sat}, nil, nil)
	m := NewMonitor(scheduler, clock, time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	clock.Set(t0.Add(time.Minute))
	waitFor(t, receiver.IsBusy, "recording never started at rise")

	clock.Set(t0.Add(2 * time.Minute))
	waitFor(t, func() bool { return !receiver.IsBusy() }, "recording never stopped at set")

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop after cancellation")
	}
}

func TestMonitor_ReturnsFatalSchedulerError(t *testing.T) {
	t0 := time.Date(2021, 10, 2, 12, 0, 0, 0, time.UTC)
	sat := issSatellite()
	predictor := newScriptedPredictor()
	predictor.add(sat.Name, window(t0.Add(time.Minute), t0.Add(2*time.Minute), 40))

	clock := timectrl.NewManual(t0)
	receiver := NewReceiver(&fakeLauncher{}, clock, "/tmp", nil, nil)
	scheduler := NewScheduler(predictor, receiver, testStation(), []*model.Satellite{sat}, nil, nil)
	m := NewMonitor(scheduler, clock, time.Millisecond, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	clock.Set(t0.Add(time.Minute))
	waitFor(t, receiver.IsBusy, "recording never started at rise")

	// Yank the receiver out from under the active pass.
	if err := receiver.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	clock.Set(t0.Add(2 * time.Minute))

	select {
	case err := <-done:
		if !errors.Is(err, ErrReceiverIdleAtSet) {
			t.Fatalf("Run error = %v, want ErrReceiverIdleAtSet", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("monitor kept running with corrupted receiver state")
	}
}

func TestMonitor_TickListenersObserveTicks(t *testing.T) {
	t0 := time.Date(2021, 10, 2, 12, 0, 0, 0, time.UTC)
	s, _ := newTestScheduler(newScriptedPredictor(), &fakeLauncher{})
	m := NewMonitor(s, timectrl.NewManual(t0), time.Millisecond, nil, nil)

	var ticks atomic.Int64
	var sawWrongTime atomic.Bool
	m.RegisterTickListener(func(now time.Time) {
		ticks.Add(1)
		if !now.Equal(t0) {
			sawWrongTime.Store(true)
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	waitFor(t, func() bool { return ticks.Load() >= 3 }, "tick listener never invoked")
	cancel()
	<-done

	if sawWrongTime.Load() {
		t.Fatal("tick listener saw a time other than the manual clock's")
	}
}
