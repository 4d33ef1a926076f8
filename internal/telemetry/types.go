package telemetry

import (
	"sort"
	"time"
)

// Column headers as they appear in the rig's CSV export.
const (
	ColDate        = "YYYY/MM/DD"
	ColTime        = "HH:MM:SS"
	ColLoad        = "SHAKER #3 (PERCENT)"
	ColWeightOnBit = "Weight on Bit (klbs)"
	ColFlowRate    = "MA_Flow_Rate (gal/min)"
	ColUtilization = "Screen Utilization (%)"
	ColBitDepth    = "Bit Depth (feet)"
	ColHoleDepth   = "Hole Depth (feet)"
)

// DateFormat is the calendar-date form used throughout the API ("2006-01-02").
const DateFormat = "2006-01-02"

// Reading is one row of shaker telemetry. Fields beyond Timestamp, Date and
// Load are only meaningful when the owning Series' Schema says the column was
// present (or, for Utilization and SolidsRate, after derivation).
type Reading struct {
	Timestamp time.Time
	Date      string // calendar date, DateFormat

	Load        float64 // shaker load, percent
	WeightOnBit float64 // klbs
	FlowRate    float64 // gal/min
	Depth       float64 // feet
	Utilization float64 // percent of rated mesh capacity
	SolidsRate  float64 // gpm, derived
}

// Schema records which optional columns an upload carried. It is resolved
// once from the CSV header and never re-checked per computation.
type Schema struct {
	HasWeightOnBit bool
	HasFlowRate    bool
	HasUtilization bool

	// HasSolidsRate is set when utilization was derived rather than carried
	// by the upload; only then does the solids-rate column exist.
	HasSolidsRate bool

	// DepthColumn is ColBitDepth or ColHoleDepth (bit depth preferred when
	// both are present), or empty when the file has no depth column.
	DepthColumn string
}

// Series is an ordered collection of Readings from one upload. Order is parse
// order; rows are never re-sorted, so LastN means the last rows of the file.
type Series struct {
	Schema   Schema
	Readings []Reading

	// Dropped counts rows excluded during parsing (bad timestamp or
	// unparseable numeric cell). Individual rows are not reported.
	Dropped int
}

// Len returns the number of readings.
func (s Series) Len() int { return len(s.Readings) }

// Empty reports whether the series has no readings.
func (s Series) Empty() bool { return len(s.Readings) == 0 }

// Dates returns the distinct calendar dates present, sorted ascending.
func (s Series) Dates() []string {
	seen := make(map[string]struct{})
	for _, r := range s.Readings {
		seen[r.Date] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for d := range seen {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// FilterDate returns a new Series containing only readings on the given
// calendar date. Schema and parse order are preserved; Dropped carries over
// so the upload-level count stays visible.
func (s Series) FilterDate(date string) Series {
	out := Series{Schema: s.Schema, Dropped: s.Dropped}
	for _, r := range s.Readings {
		if r.Date == date {
			out.Readings = append(out.Readings, r)
		}
	}
	return out
}

// LastN returns a Series with at most the last n readings in parse order.
// n <= 0 returns the series unchanged.
func (s Series) LastN(n int) Series {
	if n <= 0 || len(s.Readings) <= n {
		return s
	}
	out := s
	out.Readings = s.Readings[len(s.Readings)-n:]
	return out
}
