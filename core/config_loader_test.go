package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleConfig = `
{
  "station": {
    "latitude_deg": 44.4949,
    "longitude_deg": 11.3426,
    "altitude_m": 54,
    "horizon_deg": 5
  },
  "output_dir": "/srv/recordings",
  "capture": { "command": "./noaa_apt_rec.py" },
  "tle": { "base_url": "http://celestrak.com/NORAD/elements/" },
  "satellites": [
    {
      "name": "NOAA 19",
      "elements_file": "noaa.txt",
      "frequency_hz": 137100000,
      "output_prefix": "noaa19"
    },
    {
      "name": "ISS (ZARYA)",
      "elements_file": "stations.txt",
      "frequency_hz": 145800000
    }
  ]
}
`

func TestParseConfig_Valid(t *testing.T) {
	cfg, err := ParseConfig(strings.NewReader(sampleConfig))
	if err != nil {
		t.Fatalf("ParseConfig returned error: %v", err)
	}

	if cfg.Station.LatitudeDeg != 44.4949 || cfg.Station.LongitudeDeg != 11.3426 {
		t.Errorf("station = %+v, want Bologna coordinates", cfg.Station)
	}
	if cfg.Station.HorizonDeg != 5 {
		t.Errorf("horizon = %v, want 5", cfg.Station.HorizonDeg)
	}
	// min_peak_elevation_deg was omitted, so the default applies.
	if cfg.Station.MinPeakElevationDeg != 35 {
		t.Errorf("min peak elevation = %v, want default 35", cfg.Station.MinPeakElevationDeg)
	}
	if cfg.OutputDir != "/srv/recordings" {
		t.Errorf("output dir = %q, want /srv/recordings", cfg.OutputDir)
	}
	if cfg.Capture.Command != "./noaa_apt_rec.py" {
		t.Errorf("capture command = %q", cfg.Capture.Command)
	}
	if cfg.TLE.BaseURL != "http://celestrak.com/NORAD/elements/" {
		t.Errorf("tle base url = %q", cfg.TLE.BaseURL)
	}

	if len(cfg.Satellites) != 2 {
		t.Fatalf("satellites = %d, want 2", len(cfg.Satellites))
	}
	noaa := cfg.Satellites[0]
	if noaa.Name != "NOAA 19" || noaa.ElementsFile != "noaa.txt" || noaa.FrequencyHz != 137.1e6 {
		t.Errorf("first satellite = %+v", noaa)
	}
	if noaa.OutputPrefix != "noaa19" {
		t.Errorf("first satellite prefix = %q, want noaa19", noaa.OutputPrefix)
	}
	// output_prefix was omitted for the second entry, so it falls back to
	// the name.
	if iss := cfg.Satellites[1]; iss.OutputPrefix != "ISS (ZARYA)" {
		t.Errorf("second satellite prefix = %q, want the name", iss.OutputPrefix)
	}
}

func TestParseConfig_Rejections(t *testing.T) {
	cases := []struct {
		name string
		json string
	}{
		{"malformed", `{`},
		{"missing station", `{"output_dir":"/srv","satellites":[{"name":"A","elements_file":"a.txt","frequency_hz":1}]}`},
		{"latitude out of range", `{"station":{"latitude_deg":91},"output_dir":"/srv","satellites":[{"name":"A","elements_file":"a.txt","frequency_hz":1}]}`},
		{"longitude out of range", `{"station":{"longitude_deg":-200},"output_dir":"/srv","satellites":[{"name":"A","elements_file":"a.txt","frequency_hz":1}]}`},
		{"missing output dir", `{"station":{},"satellites":[{"name":"A","elements_file":"a.txt","frequency_hz":1}]}`},
		{"no satellites", `{"station":{},"output_dir":"/srv","satellites":[]}`},
		{"empty name", `{"station":{},"output_dir":"/srv","satellites":[{"name":"","elements_file":"a.txt","frequency_hz":1}]}`},
		{"duplicate name", `{"station":{},"output_dir":"/srv","satellites":[
			{"name":"A","elements_file":"a.txt","frequency_hz":1},
			{"name":"A","elements_file":"a.txt","frequency_hz":2}]}`},
		{"missing elements file", `{"station":{},"output_dir":"/srv","satellites":[{"name":"A","frequency_hz":1}]}`},
		{"zero frequency", `{"station":{},"output_dir":"/srv","satellites":[{"name":"A","elements_file":"a.txt","frequency_hz":0}]}`},
		{"negative frequency", `{"station":{},"output_dir":"/srv","satellites":[{"name":"A","elements_file":"a.txt","frequency_hz":-137}]}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseConfig(strings.NewReader(tc.json)); err == nil {
				t.Fatalf("ParseConfig accepted %s", tc.name)
			}
		})
	}
}

func TestLoadConfig_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recorder.json")
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.Satellites) != 2 {
		t.Fatalf("satellites = %d, want 2", len(cfg.Satellites))
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("LoadConfig succeeded on a missing file")
	}
}
