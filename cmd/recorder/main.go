package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/signalsfoundry/transit-recorder/core"
	"github.com/signalsfoundry/transit-recorder/internal/capture"
	"github.com/signalsfoundry/transit-recorder/internal/logging"
	"github.com/signalsfoundry/transit-recorder/internal/observability"
	"github.com/signalsfoundry/transit-recorder/internal/status"
	"github.com/signalsfoundry/transit-recorder/internal/tle"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "configs/recorder.json", "Path to the recorder configuration file")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for /metrics, /statusz and /healthz")
	interval := flag.Duration("interval", time.Second, "Polling interval of the scheduling loop")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	log := logging.NewFromEnv()
	ctx := context.Background()

	cfg, err := core.LoadConfig(*configPath)
	if err != nil {
		log.Error(ctx, "failed to load configuration", logging.String("path", *configPath), logging.String("error", err.Error()))
		os.Exit(1)
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Error(ctx, "failed to create output directory", logging.String("dir", cfg.OutputDir), logging.String("error", err.Error()))
		os.Exit(1)
	}

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		log.Error(ctx, "failed to initialise tracing", logging.String("error", err.Error()))
		os.Exit(1)
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	collector, err := observability.NewRecorderCollector(nil)
	if err != nil {
		log.Error(ctx, "failed to initialise metrics collector", logging.String("error", err.Error()))
		os.Exit(1)
	}

	statusStore := status.NewStore()
	httpSrv := serveHTTP(*metricsAddr, collector, statusStore, log)

	if err := resolveElements(ctx, cfg, log); err != nil {
		log.Error(ctx, "failed to resolve orbital elements", logging.String("error", err.Error()))
		os.Exit(1)
	}

	launcher := capture.NewExecLauncher(cfg.Capture.Command)
	receiver := core.NewReceiver(launcher, nil, cfg.OutputDir, log, collector)
	predictor := core.NewSGP4Predictor(cfg.Station)
	scheduler := core.NewScheduler(predictor, receiver, cfg.Station, cfg.Satellites, log, collector)
	monitor := core.NewMonitor(scheduler, nil, *interval, log, collector)
	monitor.RegisterTickListener(func(now time.Time) {
		statusStore.Publish(buildSnapshot(now, scheduler, receiver))
	})

	log.Info(ctx, "transit recorder starting",
		logging.String("version", version),
		logging.Int("satellites", len(cfg.Satellites)),
		logging.String("output_dir", cfg.OutputDir),
	)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runErr := monitor.Run(runCtx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if httpSrv != nil {
		_ = httpSrv.Shutdown(shutdownCtx)
	}

	if runErr != nil {
		log.Error(ctx, "monitor aborted", logging.String("error", runErr.Error()))
		os.Exit(1)
	}
}

// resolveElements fetches each configured element-source file once and
// attaches every satellite's TLE. A label missing from its source is a
// fatal configuration error.
func resolveElements(ctx context.Context, cfg *core.Config, log logging.Logger) error {
	client := tle.NewClient(cfg.TLE.BaseURL, log)
	sets := make(map[string]*tle.Set)

	for _, sat := range cfg.Satellites {
		set, fetched := sets[sat.ElementsFile]
		if !fetched {
			var err error
			set, err = client.Fetch(ctx, sat.ElementsFile)
			if err != nil {
				return err
			}
			sets[sat.ElementsFile] = set
			log.Info(ctx, "fetched orbital elements",
				logging.String("file", sat.ElementsFile),
				logging.Int("sets", set.Len()),
			)
		}

		t, ok := set.Find(sat.Name)
		if !ok {
			return fmt.Errorf("no element set labelled %q in %s", sat.Name, sat.ElementsFile)
		}
		sat.TLE = t
	}
	return nil
}

func buildSnapshot(now time.Time, scheduler *core.Scheduler, receiver *core.Receiver) *status.Snapshot {
	objects := scheduler.Objects()
	passes := scheduler.Live()

	snap := &status.Snapshot{
		Time:    now,
		Objects: make([]status.TrackedObject, 0, len(objects)),
		Passes:  make([]status.Pass, 0, len(passes)),
	}
	for _, o := range objects {
		snap.Objects = append(snap.Objects, status.TrackedObject{
			Name:      o.Name,
			NextCheck: o.NextCheck,
			Excluded:  o.Excluded,
		})
	}
	for _, p := range passes {
		snap.Passes = append(snap.Passes, status.Pass{
			Satellite:        p.Satellite,
			Rise:             p.Rise,
			Peak:             p.Peak,
			Set:              p.Set,
			PeakElevationDeg: p.PeakElevationDeg,
			Status:           string(p.Status),
		})
	}

	demod, iq := receiver.CurrentOutputs()
	snap.Receiver = status.ReceiverState{
		Busy:        receiver.IsBusy(),
		Satellite:   receiver.SatelliteName(),
		FrequencyHz: receiver.FrequencyHz(),
		DemodPath:   demod,
		IQPath:      iq,
	}
	return snap
}

func serveHTTP(addr string, collector *observability.RecorderCollector, store *status.Store, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	mux.Handle("/statusz", store.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn(context.Background(), "http server exited", logging.String("error", err.Error()))
		}
	}()

	log.Info(context.Background(), "serving metrics and status", logging.String("addr", addr))
	return srv
}
