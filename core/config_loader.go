package core

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/signalsfoundry/transit-recorder/model"
)

// Config is the validated runtime configuration: one station, one output
// directory, and the set of objects to track. Satellite TLEs are resolved
// separately at startup; entries here carry only the element-source label.
type Config struct {
	Station    model.GroundStation
	OutputDir  string
	Capture    CaptureConfig
	TLE        TLEConfig
	Satellites []*model.Satellite
}

// CaptureConfig selects the external recording executable. An empty command
// falls back to the launcher's default.
type CaptureConfig struct {
	Command string
}

// TLEConfig selects the orbital-element source. An empty base URL falls back
// to the client's default.
type TLEConfig struct {
	BaseURL string
}

// internal JSON shapes – keep them unexported so we’re free to evolve them.
type configJSON struct {
	Station    *stationJSON    `json:"station"`
	OutputDir  string          `json:"output_dir"`
	Capture    captureJSON     `json:"capture"`
	TLE        tleJSON         `json:"tle"`
	Satellites []satelliteJSON `json:"satellites"`
}

type stationJSON struct {
	LatitudeDeg         float64 `json:"latitude_deg"`
	LongitudeDeg        float64 `json:"longitude_deg"`
	AltitudeM           float64 `json:"altitude_m"`
	HorizonDeg          float64 `json:"horizon_deg"`
	MinPeakElevationDeg float64 `json:"min_peak_elevation_deg"` // optional; defaults to 35
}

type captureJSON struct {
	Command string `json:"command"`
}

type tleJSON struct {
	BaseURL string `json:"base_url"`
}

type satelliteJSON struct {
	Name         string  `json:"name"`
	ElementsFile string  `json:"elements_file"`
	FrequencyHz  float64 `json:"frequency_hz"`
	OutputPrefix string  `json:"output_prefix"` // optional; defaults to name
}

// LoadConfig reads and validates the configuration file at path.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("LoadConfig: %w", err)
	}
	defer f.Close()
	return ParseConfig(f)
}

// ParseConfig decodes a JSON configuration from r. It fails on structural
// errors and on anything that would make scheduling impossible later: a
// missing station block, an empty object list, unusable per-object entries.
func ParseConfig(r io.Reader) (*Config, error) {
	var payload configJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("ParseConfig: decode failed: %w", err)
	}

	if payload.Station == nil {
		return nil, fmt.Errorf("ParseConfig: missing station block")
	}
	if lat := payload.Station.LatitudeDeg; lat < -90 || lat > 90 {
		return nil, fmt.Errorf("ParseConfig: station latitude %v out of range", lat)
	}
	if lon := payload.Station.LongitudeDeg; lon < -180 || lon > 180 {
		return nil, fmt.Errorf("ParseConfig: station longitude %v out of range", lon)
	}
	if payload.OutputDir == "" {
		return nil, fmt.Errorf("ParseConfig: missing output_dir")
	}
	if len(payload.Satellites) == 0 {
		return nil, fmt.Errorf("ParseConfig: no satellites configured")
	}

	cfg := &Config{
		Station: model.GroundStation{
			LatitudeDeg:         payload.Station.LatitudeDeg,
			LongitudeDeg:        payload.Station.LongitudeDeg,
			AltitudeM:           payload.Station.AltitudeM,
			HorizonDeg:          payload.Station.HorizonDeg,
			MinPeakElevationDeg: payload.Station.MinPeakElevationDeg,
		}.ApplyDefaults(),
		OutputDir:  payload.OutputDir,
		Capture:    CaptureConfig{Command: payload.Capture.Command},
		TLE:        TLEConfig{BaseURL: payload.TLE.BaseURL},
		Satellites: make([]*model.Satellite, 0, len(payload.Satellites)),
	}

	seen := make(map[string]bool, len(payload.Satellites))
	for i, js := range payload.Satellites {
		if js.Name == "" {
			return nil, fmt.Errorf("ParseConfig: satellite %d: empty name", i)
		}
		if seen[js.Name] {
			return nil, fmt.Errorf("ParseConfig: satellite %q listed twice", js.Name)
		}
		seen[js.Name] = true
		if js.ElementsFile == "" {
			return nil, fmt.Errorf("ParseConfig: satellite %q: missing elements_file", js.Name)
		}
		if js.FrequencyHz <= 0 {
			return nil, fmt.Errorf("ParseConfig: satellite %q: frequency_hz must be positive", js.Name)
		}

		prefix := js.OutputPrefix
		if prefix == "" {
			prefix = js.Name
		}
		cfg.Satellites = append(cfg.Satellites, &model.Satellite{
			Name:         js.Name,
			ElementsFile: js.ElementsFile,
			FrequencyHz:  js.FrequencyHz,
			OutputPrefix: prefix,
		})
	}

	return cfg, nil
}
