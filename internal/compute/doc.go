// Package compute is the derived-metrics engine for shaker telemetry.
//
// Every operation is a pure, stateless transform over an immutable Series
// snapshot: utilization derivation, summary statistics with a screen-life
// estimate, anomaly classification, solids-removal efficiency and drop-flag
// detection. Calling any of them twice with the same input yields the same
// output; nothing is cached or mutated.
//
// Metrics that cannot be computed (missing column, empty series) carry a
// structured unavailability reason instead of a zero value. The API layer
// decides how to render that; the engine never swallows a failure.
package compute
