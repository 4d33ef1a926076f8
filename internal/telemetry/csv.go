package telemetry

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// timestampLayout matches the concatenated date and time columns.
const timestampLayout = "2006/01/02 15:04:05"

// ErrMissingColumn is returned when the CSV header lacks a required column.
// Wrapped errors name the column.
var ErrMissingColumn = errors.New("missing required column")

// ErrEmptyFile is returned when the upload contains no header row.
var ErrEmptyFile = errors.New("empty csv file")

// ParseCSV reads a shaker CSV export and returns its Series.
//
// Required columns: date, time and shaker load. Weight on bit, flow rate,
// precomputed utilization and depth are optional and recorded in the Schema.
// Rows whose timestamp or numeric cells fail to parse are silently dropped;
// only the aggregate Dropped count is surfaced.
func ParseCSV(r io.Reader) (Series, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return Series{}, ErrEmptyFile
	}
	if err != nil {
		return Series{}, fmt.Errorf("read csv header: %w", err)
	}

	cols := indexColumns(header)
	if err := requireColumns(cols); err != nil {
		return Series{}, err
	}

	s := Series{Schema: resolveSchema(cols)}
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Ragged or malformed row — drop it like a bad timestamp.
			s.Dropped++
			continue
		}
		reading, ok := parseRow(record, cols, s.Schema)
		if !ok {
			s.Dropped++
			continue
		}
		s.Readings = append(s.Readings, reading)
	}

	if s.Dropped > 0 {
		slog.Debug("telemetry: dropped unparseable rows",
			"dropped", s.Dropped, "kept", len(s.Readings))
	}
	return s, nil
}

// columnIndex maps header names to field positions; -1 means absent.
type columnIndex map[string]int

func indexColumns(header []string) columnIndex {
	cols := columnIndex{
		ColDate:        -1,
		ColTime:        -1,
		ColLoad:        -1,
		ColWeightOnBit: -1,
		ColFlowRate:    -1,
		ColUtilization: -1,
		ColBitDepth:    -1,
		ColHoleDepth:   -1,
	}
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, tracked := cols[name]; tracked {
			cols[name] = i
		}
	}
	return cols
}

func requireColumns(cols columnIndex) error {
	for _, name := range []string{ColDate, ColTime, ColLoad} {
		if cols[name] < 0 {
			return fmt.Errorf("%w: %q", ErrMissingColumn, name)
		}
	}
	return nil
}

// resolveSchema fixes the optional-column layout once, from the header alone.
func resolveSchema(cols columnIndex) Schema {
	sch := Schema{
		HasWeightOnBit: cols[ColWeightOnBit] >= 0,
		HasFlowRate:    cols[ColFlowRate] >= 0,
		HasUtilization: cols[ColUtilization] >= 0,
	}
	switch {
	case cols[ColBitDepth] >= 0:
		sch.DepthColumn = ColBitDepth
	case cols[ColHoleDepth] >= 0:
		sch.DepthColumn = ColHoleDepth
	}
	return sch
}

// parseRow converts one CSV record into a Reading. ok is false when the row
// must be dropped.
func parseRow(record []string, cols columnIndex, sch Schema) (Reading, bool) {
	field := func(name string) (string, bool) {
		i := cols[name]
		if i < 0 || i >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[i]), true
	}

	dateStr, ok1 := field(ColDate)
	timeStr, ok2 := field(ColTime)
	if !ok1 || !ok2 {
		return Reading{}, false
	}
	ts, err := parseTimestamp(dateStr, timeStr)
	if err != nil {
		return Reading{}, false
	}

	r := Reading{Timestamp: ts, Date: ts.Format(DateFormat)}

	num := func(name string, dst *float64) bool {
		cell, ok := field(name)
		if !ok {
			return false
		}
		v, err := strconv.ParseFloat(cell, 64)
		if err != nil {
			return false
		}
		*dst = v
		return true
	}

	if !num(ColLoad, &r.Load) {
		return Reading{}, false
	}
	if sch.HasWeightOnBit && !num(ColWeightOnBit, &r.WeightOnBit) {
		return Reading{}, false
	}
	if sch.HasFlowRate && !num(ColFlowRate, &r.FlowRate) {
		return Reading{}, false
	}
	if sch.HasUtilization && !num(ColUtilization, &r.Utilization) {
		return Reading{}, false
	}
	if sch.DepthColumn != "" && !num(sch.DepthColumn, &r.Depth) {
		return Reading{}, false
	}
	return r, true
}

// parseTimestamp joins the separate date and time columns into one timestamp.
func parseTimestamp(date, clock string) (time.Time, error) {
	return time.Parse(timestampLayout, date+" "+clock)
}
