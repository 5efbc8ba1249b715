package model

// DefaultMinPeakElevationDeg is the pass validity threshold used when the
// station configuration leaves it unset.
const DefaultMinPeakElevationDeg = 35.0

// GroundStation is the fixed observer passes are predicted for.
type GroundStation struct {
	LatitudeDeg  float64
	LongitudeDeg float64

	// AltitudeM is metres above the WGS-84 ellipsoid.
	AltitudeM float64

	// HorizonDeg is the elevation boundary used for rise and set detection.
	HorizonDeg float64

	// MinPeakElevationDeg is the minimum peak elevation a predicted pass
	// must reach to be worth recording. Zero selects the default.
	MinPeakElevationDeg float64
}

// ApplyDefaults fills unset fields and returns the updated station.
func (g GroundStation) ApplyDefaults() GroundStation {
	if g.MinPeakElevationDeg == 0 {
		g.MinPeakElevationDeg = DefaultMinPeakElevationDeg
	}
	return g
}
