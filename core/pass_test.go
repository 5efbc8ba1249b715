package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/transit-recorder/model"
)

func TestNewPass_Classification(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	sat := &model.Satellite{Name: "NOAA 19", FrequencyHz: 137.1e6, OutputPrefix: "noaa19"}

	cases := []struct {
		name  string
		w     Window
		valid bool
	}{
		{
			name: "high future pass",
			w: Window{
				Rise:             now.Add(10 * time.Minute),
				Peak:             now.Add(15 * time.Minute),
				Set:              now.Add(20 * time.Minute),
				PeakElevationDeg: 62,
			},
			valid: true,
		},
		{
			name: "peak exactly at threshold",
			w: Window{
				Rise:             now.Add(10 * time.Minute),
				Peak:             now.Add(15 * time.Minute),
				Set:              now.Add(20 * time.Minute),
				PeakElevationDeg: 35,
			},
			valid: true,
		},
		{
			name: "low pass",
			w: Window{
				Rise:             now.Add(10 * time.Minute),
				Peak:             now.Add(15 * time.Minute),
				Set:              now.Add(20 * time.Minute),
				PeakElevationDeg: 20,
			},
			valid: false,
		},
		{
			name: "rise exactly now",
			w: Window{
				Rise:             now,
				Peak:             now.Add(5 * time.Minute),
				Set:              now.Add(10 * time.Minute),
				PeakElevationDeg: 62,
			},
			valid: false,
		},
		{
			name: "already under way",
			w: Window{
				Rise:             now.Add(-time.Minute),
				Peak:             now.Add(5 * time.Minute),
				Set:              now.Add(10 * time.Minute),
				PeakElevationDeg: 62,
			},
			valid: false,
		},
		{
			name: "degenerate window from ongoing pass",
			w: Window{
				Rise:             now.Add(90 * time.Minute),
				Peak:             now.Add(5 * time.Minute),
				Set:              now.Add(10 * time.Minute),
				PeakElevationDeg: 62,
			},
			valid: false,
		},
		{
			name: "set equals rise",
			w: Window{
				Rise:             now.Add(10 * time.Minute),
				Peak:             now.Add(10 * time.Minute),
				Set:              now.Add(10 * time.Minute),
				PeakElevationDeg: 62,
			},
			valid: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPass(sat, tc.w, now, model.DefaultMinPeakElevationDeg)
			if tc.valid && p == nil {
				t.Fatalf("expected valid pass, got nil")
			}
			if !tc.valid && p != nil {
				t.Fatalf("expected window to be discarded, got %+v", p)
			}
			if p != nil && p.Status != PassQueued {
				t.Fatalf("fresh pass status = %q, want %q", p.Status, PassQueued)
			}
		})
	}
}
