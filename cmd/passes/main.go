package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/signalsfoundry/transit-recorder/core"
	"github.com/signalsfoundry/transit-recorder/internal/logging"
	"github.com/signalsfoundry/transit-recorder/internal/tle"
)

// passes prints upcoming visibility windows for the configured satellites
// without touching the receiver. Useful for sanity-checking a station
// setup before leaving the recorder running.
func main() {
	configPath := flag.String("config", "configs/recorder.json", "Path to the recorder configuration file")
	count := flag.Int("count", 3, "Passes to predict per satellite")
	within := flag.Duration("within", 48*time.Hour, "Only print passes rising within this window")
	flag.Parse()

	ctx := context.Background()
	log := logging.NewFromEnv()

	cfg, err := core.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	client := tle.NewClient(cfg.TLE.BaseURL, log)
	sets := make(map[string]*tle.Set)
	for _, sat := range cfg.Satellites {
		set, fetched := sets[sat.ElementsFile]
		if !fetched {
			set, err = client.Fetch(ctx, sat.ElementsFile)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			sets[sat.ElementsFile] = set
		}
		t, ok := set.Find(sat.Name)
		if !ok {
			fmt.Fprintf(os.Stderr, "no element set labelled %q in %s\n", sat.Name, sat.ElementsFile)
			os.Exit(1)
		}
		sat.TLE = t
	}

	predictor := core.NewSGP4Predictor(cfg.Station)
	now := time.Now().UTC()
	limit := now.Add(*within)

	fmt.Printf("Station %.4f, %.4f (horizon %.1f deg, recording threshold %.1f deg)\n",
		cfg.Station.LatitudeDeg, cfg.Station.LongitudeDeg,
		cfg.Station.HorizonDeg, cfg.Station.MinPeakElevationDeg,
	)

	for _, sat := range cfg.Satellites {
		fmt.Printf("%s (%.3f MHz):\n", sat.Name, sat.FrequencyHz/1e6)

		after := now
		for i := 0; i < *count; i++ {
			w, err := predictor.NextWindow(ctx, sat, after)
			if err != nil {
				fmt.Printf("  no further passes: %v\n", err)
				break
			}
			if w.Rise.After(limit) {
				break
			}

			verdict := "low"
			if w.PeakElevationDeg >= cfg.Station.MinPeakElevationDeg {
				verdict = "record"
			}
			fmt.Printf("  rise %s  tca %s  set %s  dur %6s  peak %4.1f deg  [%s]\n",
				w.Rise.Local().Format("2006-01-02 15:04:05"),
				w.Peak.Local().Format("15:04:05"),
				w.Set.Local().Format("15:04:05"),
				w.Duration().Round(time.Second),
				w.PeakElevationDeg,
				verdict,
			)
			after = w.Set
		}
	}
}
