package api

import (
	"fmt"

	"github.com/shakerwatch/shakerwatch/internal/compute"
)

// DiagnosticHint is one human-readable insight about the selected day.
// The UI renders these as banner chips under the KPI row.
type DiagnosticHint struct {
	// Key is a stable machine-readable identifier (used for dedup/ordering).
	Key string `json:"key"`
	// Level is "ok" | "info" | "warning" | "critical".
	Level string `json:"level"`
	// Title is a short label shown on the chip.
	Title string `json:"title"`
	// Detail is the full explanation shown on click/hover.
	Detail string `json:"detail"`
	// Value is an optional numeric value associated with this hint.
	Value *float64 `json:"value,omitempty"`
}

// computeDiagnostics derives hints from a day's derived metrics and its
// drop-flag count. Ordered: critical first, then warnings, then info.
func computeDiagnostics(m compute.DerivedMetrics, dropCount int) []DiagnosticHint {
	var hints []DiagnosticHint

	switch m.Status {
	case compute.StatusCritical:
		v := 0.0
		if m.Load.OK() {
			v = m.Load.Max
		}
		hints = append(hints, DiagnosticHint{
			Key:   "load_anomaly",
			Level: "critical",
			Title: "Shaker load anomaly",
			Detail: fmt.Sprintf(
				"Shaker load readings are outside physically plausible bounds "+
					"(mean %.1f%%, max %.1f%%). A negative mean or a peak above 150%% "+
					"usually means a failing sensor or a mechanical problem on the unit. "+
					"Check the shaker before trusting any other number on this page.",
				m.Load.Mean, m.Load.Max),
			Value: &v,
		})
	case compute.StatusWarning:
		v := m.Load.Mean
		hints = append(hints, DiagnosticHint{
			Key:   "low_throughput",
			Level: "warning",
			Title: "Low shaker throughput",
			Detail: fmt.Sprintf(
				"Mean shaker load is %.1f%%, below the 20%% working floor. "+
					"This pattern is typical of screen blinding or underflow — "+
					"solids are arriving but not crossing the screen. "+
					"Inspect the screens and compare against the flow rate trend.",
				m.Load.Mean),
			Value: &v,
		})
	case compute.StatusUnknown:
		hints = append(hints, DiagnosticHint{
			Key:   "stats_unavailable",
			Level: "info",
			Title: "Statistics unavailable",
			Detail: fmt.Sprintf(
				"Shaker load statistics could not be computed (%s). "+
					"The selected day may have no rows, or the upload is missing "+
					"the shaker load column. Other panels degrade independently.",
				m.Load.Unavailable),
		})
	}

	if dropCount > 0 {
		v := float64(dropCount)
		hints = append(hints, DiagnosticHint{
			Key:   "drop_flags",
			Level: "warning",
			Title: fmt.Sprintf("%d drop flags", dropCount),
			Detail: fmt.Sprintf(
				"%d readings fell below the %.0f%% drop threshold. "+
					"Sustained sub-zero load is not a real operating state; "+
					"isolated flags are usually sensor noise, clusters point at "+
					"wiring or mounting issues.",
				dropCount, float64(compute.DefaultDropThreshold)),
			Value: &v,
		})
	}

	if m.ScreenLifeHours.OK() && m.Utilization.OK() {
		v := m.ScreenLifeHours.Value
		hints = append(hints, DiagnosticHint{
			Key:   "screen_life",
			Level: "info",
			Title: fmt.Sprintf("≈ %.0f h screen life", v),
			Detail: fmt.Sprintf(
				"Estimated remaining screen life is %.1f hours at %.1f%% mean "+
					"utilization. The estimate is a linear calibration heuristic "+
					"(120 h at idle, 90 h at full utilization), not a wear model — "+
					"treat it as a replacement planning hint.",
				v, m.Utilization.Mean),
			Value: &v,
		})
	}

	if m.EfficiencyMean.OK() && (m.EfficiencyMean.Value < 0 || m.EfficiencyMean.Value > 100) {
		v := m.EfficiencyMean.Value
		hints = append(hints, DiagnosticHint{
			Key:   "efficiency_out_of_range",
			Level: "warning",
			Title: "Efficiency out of range",
			Detail: fmt.Sprintf(
				"Mean solids-removal efficiency computed to %.1f%%, outside 0–100. "+
					"The pie split on the efficiency tab is clamped; the raw value "+
					"indicates the load and inbound-rate columns disagree in scale "+
					"for this day.",
				v),
			Value: &v,
		})
	}

	if len(hints) == 0 && m.Status == compute.StatusNormal {
		v := m.Load.Mean
		hints = append(hints, DiagnosticHint{
			Key:   "normal",
			Level: "ok",
			Title: "Operating normally",
			Detail: fmt.Sprintf(
				"Shaker load averaged %.1f%% with no anomalies or drop flags on "+
					"this day.",
				m.Load.Mean),
			Value: &v,
		})
	}

	return hints
}
