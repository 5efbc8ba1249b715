package model

// TLE is a two-line element set: the label line published with it plus the
// two data lines the propagator consumes.
type TLE struct {
	Name  string
	Line1 string
	Line2 string
}

// Satellite is a tracked object: one downlink the recorder watches.
type Satellite struct {
	// Name is the exact label used to select this object's element set from
	// the elements document. Resolution is a startup-fatal exact match.
	Name string

	// ElementsFile is the file name appended to the element source base URL.
	ElementsFile string

	// FrequencyHz is the downlink frequency handed to the capture process.
	FrequencyHz float64

	// OutputPrefix is the leading component of capture output file names.
	OutputPrefix string

	// TLE holds the resolved orbital elements, immutable after startup.
	TLE TLE
}
