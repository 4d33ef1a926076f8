package compute

// Anomaly status constants returned by Classify.
const (
	StatusCritical = "critical"
	StatusWarning  = "warning"
	StatusNormal   = "normal"
	StatusUnknown  = "unknown"
)

// Classification bounds for shaker load.
const (
	// loadMaxPlausible is the upper bound of a physically plausible load
	// reading; anything above it is sensor fault or mechanical failure.
	loadMaxPlausible = 150.0

	// loadLowThroughput is the mean load below which throughput is
	// abnormally low — typically screen blinding or underflow.
	loadLowThroughput = 20.0
)

// Classify maps the shaker-load mean and max to an anomaly status.
//
// Rules are evaluated in order, first match wins:
//
//	critical — mean < 0 or max > 150 (outside plausible bounds)
//	warning  — mean < 20 (abnormally low throughput)
//	normal   — otherwise
//
// It is a pure function of the two scalars; there is no hysteresis and no
// memory of prior classifications.
func Classify(loadMean, loadMax float64) string {
	switch {
	case loadMean < 0 || loadMax > loadMaxPlausible:
		return StatusCritical
	case loadMean < loadLowThroughput:
		return StatusWarning
	default:
		return StatusNormal
	}
}
