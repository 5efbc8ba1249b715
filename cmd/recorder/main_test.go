package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/signalsfoundry/transit-recorder/core"
	"github.com/signalsfoundry/transit-recorder/internal/logging"
	"github.com/signalsfoundry/transit-recorder/model"
	"github.com/signalsfoundry/transit-recorder/timectrl"
)

const elementsFixture = `ISS (ZARYA)
1 25544U 98067A   21275.59097222  .00000204  00000-0  10270-4 0  9990
2 25544  51.6459 115.9059 0001817  61.3028  35.9198 15.49370953257760
NOAA 19
1 33591U 09005A   21275.51442709  .00000066  00000-0  59633-4 0  9992
2 33591  99.1856 278.2092 0013920 207.7683 152.2763 14.12501077651616
`

func testConfig(baseURL string) *core.Config {
	return &core.Config{
		Station:   model.GroundStation{LatitudeDeg: 44.4949, LongitudeDeg: 11.3426}.ApplyDefaults(),
		OutputDir: "/tmp",
		TLE:       core.TLEConfig{BaseURL: baseURL},
		Satellites: []*model.Satellite{
			{Name: "ISS (ZARYA)", ElementsFile: "stations.txt", FrequencyHz: 145.8e6, OutputPrefix: "iss"},
			{Name: "NOAA 19", ElementsFile: "stations.txt", FrequencyHz: 137.1e6, OutputPrefix: "noaa19"},
		},
	}
}

func TestResolveElements_AttachesTLEs(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(elementsFixture))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	if err := resolveElements(context.Background(), cfg, logging.Noop()); err != nil {
		t.Fatalf("resolveElements: %v", err)
	}

	for _, sat := range cfg.Satellites {
		if sat.TLE.Line1 == "" || sat.TLE.Line2 == "" {
			t.Errorf("satellite %s left without element lines", sat.Name)
		}
	}
	// Both satellites share one source file, fetched once.
	if n := requests.Load(); n != 1 {
		t.Fatalf("requests = %d, want 1", n)
	}
}

func TestResolveElements_MissingLabelIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(elementsFixture))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.Satellites = append(cfg.Satellites, &model.Satellite{
		Name: "METEOR-M 2", ElementsFile: "stations.txt", FrequencyHz: 137.9e6, OutputPrefix: "meteor",
	})

	if err := resolveElements(context.Background(), cfg, logging.Noop()); err == nil {
		t.Fatal("resolveElements accepted a label missing from its source")
	}
}

func TestBuildSnapshot(t *testing.T) {
	cfg := testConfig("")
	clock := timectrl.NewManual(time.Date(2021, 10, 2, 12, 0, 0, 0, time.UTC))
	receiver := core.NewReceiver(nil, clock, cfg.OutputDir, nil, nil)
	scheduler := core.NewScheduler(core.NewSGP4Predictor(cfg.Station), receiver, cfg.Station, cfg.Satellites, nil, nil)

	snap := buildSnapshot(clock.Now(), scheduler, receiver)

	if len(snap.Objects) != 2 {
		t.Fatalf("snapshot objects = %d, want 2", len(snap.Objects))
	}
	if snap.Objects[0].Name != "ISS (ZARYA)" || snap.Objects[1].Name != "NOAA 19" {
		t.Errorf("snapshot object names = %+v", snap.Objects)
	}
	if len(snap.Passes) != 0 {
		t.Errorf("snapshot passes = %+v, want none before any tick", snap.Passes)
	}
	if snap.Receiver.Busy {
		t.Error("snapshot reports a busy receiver before any recording")
	}
	if !snap.Time.Equal(clock.Now()) {
		t.Errorf("snapshot time = %v, want %v", snap.Time, clock.Now())
	}
}
