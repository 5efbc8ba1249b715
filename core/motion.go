package core

import (
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/transit-recorder/model"
)

// OrbitalModel propagates one tracked object's element set with SGP4.
type OrbitalModel struct {
	sat satellite.Satellite
}

// NewOrbitalModel constructs a propagator from resolved orbital elements.
func NewOrbitalModel(tle model.TLE) *OrbitalModel {
	sat := satellite.TLEToSat(tle.Line1, tle.Line2, satellite.GravityWGS72)
	return &OrbitalModel{sat: sat}
}

// PositionECEF propagates the object to t and returns its Earth-fixed
// position. go-satellite works in kilometres throughout.
func (m *OrbitalModel) PositionECEF(t time.Time) Vec3 {
	t = t.UTC()
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	posECI, _ := satellite.Propagate(m.sat, year, int(month), day, hour, min, sec)
	jd := satellite.JDay(year, int(month), day, hour, min, sec)
	gmst := satellite.ThetaG_JD(jd)
	posECEF := satellite.ECIToECEF(posECI, gmst)

	return Vec3{X: posECEF.X, Y: posECEF.Y, Z: posECEF.Z}
}

// finitePosition reports whether propagation produced usable coordinates.
// SGP4 yields NaN for decayed or badly conditioned element sets.
func finitePosition(v Vec3) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsNaN(v.Z) &&
		!math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0) && !math.IsInf(v.Z, 0)
}
