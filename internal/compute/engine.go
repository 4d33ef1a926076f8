package compute

import (
	"fmt"
	"time"

	"github.com/shakerwatch/shakerwatch/internal/telemetry"
)

// epsilon guards the efficiency division when the inbound solids rate is zero.
const epsilon = 1e-5

// DefaultDropThreshold flags readings where shaker load falls below this
// value — a likely sensor or mechanical anomaly, not a plausible load.
const DefaultDropThreshold = -10

// Screen-life model constants. Life runs linearly from 120 hours at 0% mean
// utilization down to 90 hours at 100%. This is a calibration heuristic,
// not a physical wear model.
const (
	screenLifeBase      = 120.0
	screenLifeDepletion = 0.3 // hours lost per utilization point
)

// Params is the explicit per-computation configuration. There is no hidden
// session state: callers pass the mesh selection, the date filter and the
// operator's utilization threshold into every call that needs them.
type Params struct {
	MeshType string
	Date     string

	// UtilizationThreshold (50–100) is carried for the UI and reserved for
	// future threshold-based flagging; classification does not read it.
	UtilizationThreshold float64
}

// Metric is a single scalar that is either available or carries a reason why
// it could not be computed.
type Metric struct {
	Value       float64
	Unavailable string // empty when Value is usable
}

// OK reports whether the metric was computed.
func (m Metric) OK() bool { return m.Unavailable == "" }

// Stat is a mean/min/max triple over one column, available or not as a unit.
type Stat struct {
	Mean, Min, Max float64
	Unavailable    string
}

// OK reports whether the statistic was computed.
func (s Stat) OK() bool { return s.Unavailable == "" }

// DerivedMetrics is the summary value object consumed by the dashboard.
// Each field degrades independently: a missing depth column leaves the load
// statistics intact.
type DerivedMetrics struct {
	TotalDepth      Metric // max of the depth column, feet
	Load            Stat   // shaker load, percent
	Utilization     Stat   // screen utilization, percent
	ScreenLifeHours Metric // heuristic remaining life
	Status          string // StatusCritical | StatusWarning | StatusNormal | StatusUnknown
	EfficiencyMean  Metric // mean solids-removal efficiency, percent
}

// Unavailability reasons, as shown to the collaborator.
const (
	reasonEmptySeries = "empty series"
)

func reasonMissing(column string) string {
	return fmt.Sprintf("missing column %q", column)
}

// DeriveUtilization returns a copy of s with per-row solids rate and screen
// utilization filled in. It is a no-op when the upload already carried a
// utilization column, and passes the series through unchanged when weight on
// bit or flow rate are absent — the summary then reports utilization as
// unavailable.
//
// Formula: solids = wob * flow / 100; utilization = solids / capacity * 100.
// Inputs are not validated or clamped; negative or oversized values propagate.
func DeriveUtilization(s telemetry.Series, capacity float64) telemetry.Series {
	if s.Schema.HasUtilization {
		return s
	}
	if !s.Schema.HasWeightOnBit || !s.Schema.HasFlowRate {
		return s
	}

	out := s
	out.Readings = make([]telemetry.Reading, len(s.Readings))
	copy(out.Readings, s.Readings)
	for i := range out.Readings {
		r := &out.Readings[i]
		r.SolidsRate = r.WeightOnBit * r.FlowRate / 100
		r.Utilization = r.SolidsRate / capacity * 100
	}
	out.Schema.HasUtilization = true
	out.Schema.HasSolidsRate = true
	return out
}

// Summarize computes the DerivedMetrics for a series, typically after
// DeriveUtilization. An empty series yields every metric unavailable and
// StatusUnknown rather than zeros.
func Summarize(s telemetry.Series) DerivedMetrics {
	var m DerivedMetrics

	m.TotalDepth = depthMax(s)
	m.Load = columnStat(s, func(r telemetry.Reading) float64 { return r.Load }, telemetry.ColLoad, true)
	m.Utilization = columnStat(s, func(r telemetry.Reading) float64 { return r.Utilization },
		telemetry.ColUtilization, s.Schema.HasUtilization)

	if m.Utilization.OK() {
		m.ScreenLifeHours = Metric{Value: ScreenLife(m.Utilization.Mean)}
	} else {
		m.ScreenLifeHours = Metric{Unavailable: m.Utilization.Unavailable}
	}

	if m.Load.OK() {
		m.Status = Classify(m.Load.Mean, m.Load.Max)
	} else {
		m.Status = StatusUnknown
	}

	eff := Efficiency(s)
	m.EfficiencyMean = eff.Mean
	return m
}

// ScreenLife estimates remaining screen life in hours from mean utilization.
func ScreenLife(utilizationMean float64) float64 {
	return screenLifeBase - screenLifeDepletion*utilizationMean
}

// EfficiencyPoint is one row of the solids-removal efficiency series.
type EfficiencyPoint struct {
	Timestamp time.Time
	Value     float64 // percent, unclamped
}

// EfficiencyResult is the efficiency series plus its presentation split.
type EfficiencyResult struct {
	Points []EfficiencyPoint
	Mean   Metric // raw mean, unclamped

	// Removed and Losses are the pie-style two-slice split, clamped to
	// [0, 100] so the complement stays renderable. OutOfRange is set when
	// the raw mean left that range and the split was clamped.
	Removed    float64
	Losses     float64
	OutOfRange bool
}

// Efficiency computes per-row solids-removal efficiency:
// load / (wob*flow/100 + epsilon) * 100. A zero inbound rate yields a large
// finite value, never a division error.
func Efficiency(s telemetry.Series) EfficiencyResult {
	var out EfficiencyResult
	switch {
	case !s.Schema.HasWeightOnBit:
		out.Mean = Metric{Unavailable: reasonMissing(telemetry.ColWeightOnBit)}
		return out
	case !s.Schema.HasFlowRate:
		out.Mean = Metric{Unavailable: reasonMissing(telemetry.ColFlowRate)}
		return out
	case s.Empty():
		out.Mean = Metric{Unavailable: reasonEmptySeries}
		return out
	}

	out.Points = make([]EfficiencyPoint, 0, s.Len())
	var sum float64
	for _, r := range s.Readings {
		inRate := r.WeightOnBit * r.FlowRate / 100
		eff := r.Load / (inRate + epsilon) * 100
		sum += eff
		out.Points = append(out.Points, EfficiencyPoint{Timestamp: r.Timestamp, Value: eff})
	}

	mean := sum / float64(len(out.Points))
	out.Mean = Metric{Value: mean}
	out.Removed = clamp(mean, 0, 100)
	out.Losses = 100 - out.Removed
	out.OutOfRange = mean < 0 || mean > 100
	return out
}

// Drops returns the readings whose shaker load is below threshold, in parse
// order. Use DefaultDropThreshold unless the operator overrides it.
func Drops(s telemetry.Series, threshold float64) []telemetry.Reading {
	var out []telemetry.Reading
	for _, r := range s.Readings {
		if r.Load < threshold {
			out = append(out, r)
		}
	}
	return out
}

// --- internal ---------------------------------------------------------------

func depthMax(s telemetry.Series) Metric {
	if s.Schema.DepthColumn == "" {
		return Metric{Unavailable: reasonMissing(telemetry.ColBitDepth)}
	}
	if s.Empty() {
		return Metric{Unavailable: reasonEmptySeries}
	}
	max := s.Readings[0].Depth
	for _, r := range s.Readings[1:] {
		if r.Depth > max {
			max = r.Depth
		}
	}
	return Metric{Value: max}
}

// columnStat computes mean/min/max of one column. present is false when the
// schema says the column never existed for this upload.
func columnStat(s telemetry.Series, value func(telemetry.Reading) float64, column string, present bool) Stat {
	if !present {
		return Stat{Unavailable: reasonMissing(column)}
	}
	if s.Empty() {
		return Stat{Unavailable: reasonEmptySeries}
	}

	first := value(s.Readings[0])
	st := Stat{Mean: first, Min: first, Max: first}
	sum := first
	for _, r := range s.Readings[1:] {
		v := value(r)
		sum += v
		if v < st.Min {
			st.Min = v
		}
		if v > st.Max {
			st.Max = v
		}
	}
	st.Mean = sum / float64(s.Len())
	return st
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
