// Package telemetry defines the shaker telemetry data model and the CSV
// ingestion that produces it. A Series is a parse-ordered collection of
// Readings for one uploaded export, together with a Schema describing which
// optional columns the file actually carried. The schema is resolved once at
// parse time; downstream computations never re-inspect column presence.
package telemetry
