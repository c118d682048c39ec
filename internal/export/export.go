package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"gasgauge/internal/engine"
)

// ErrNoRecords is returned when there is nothing to export.
var ErrNoRecords = errors.New("no records to export")

// csvHeader is the stable column order of record exports.
var csvHeader = []string{"timestamp", "network", "base_fee", "priority_tip", "max_fee", "token_price_usd"}

// Write exports records in the named format, one of "csv" or "json".
func Write(w io.Writer, format string, records []engine.Record) error {
	switch format {
	case "csv":
		return WriteCSV(w, records)
	case "json":
		return WriteJSON(w, records)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// WriteCSV writes records as CSV with a header row. The token price
// column stays empty for unpriced records.
func WriteCSV(w io.Writer, records []engine.Record) error {
	if len(records) == 0 {
		return ErrNoRecords
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Timestamp,
			r.Network,
			formatFee(r.BaseFee),
			formatFee(r.PriorityTip),
			formatFee(r.MaxFee),
			optionalFee(r.TokenPriceUSD),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes records as an indented JSON array.
func WriteJSON(w io.Writer, records []engine.Record) error {
	if len(records) == 0 {
		return ErrNoRecords
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteStats exports statistics in the named format, one of "csv" or
// "json".
func WriteStats(w io.Writer, format string, stats *engine.AdvancedStats) error {
	switch format {
	case "csv":
		return WriteStatsCSV(w, stats)
	case "json":
		if stats == nil {
			return ErrNoRecords
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

// WriteStatsCSV flattens advanced statistics into Metric,Value rows.
// Grouped metrics indent their sub-rows under a blank group row.
func WriteStatsCSV(w io.Writer, stats *engine.AdvancedStats) error {
	if stats == nil {
		return ErrNoRecords
	}
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Metric", "Value"},
		{"count", strconv.Itoa(stats.Count)},
		{"base_fee", ""},
		{"  min", formatFee(stats.BaseFee.Min)},
		{"  max", formatFee(stats.BaseFee.Max)},
		{"  avg", formatFee(stats.BaseFee.Avg)},
		{"median", formatFee(stats.Median)},
		{"stdev", formatFee(stats.StdDev)},
		{"variance", formatFee(stats.Variance)},
		{"percentiles", ""},
		{"  p25", formatFee(stats.Percentiles.P25)},
		{"  p50", formatFee(stats.Percentiles.P50)},
		{"  p75", formatFee(stats.Percentiles.P75)},
		{"  p90", formatFee(stats.Percentiles.P90)},
		{"  p95", formatFee(stats.Percentiles.P95)},
		{"cv", formatFee(stats.CV)},
		{"volatility", stats.Volatility},
	}
	if stats.MaxFee != nil {
		rows = append(rows,
			[]string{"max_fee", ""},
			[]string{"  min", formatFee(stats.MaxFee.Min)},
			[]string{"  max", formatFee(stats.MaxFee.Max)},
			[]string{"  avg", formatFee(stats.MaxFee.Avg)},
		)
	}
	if stats.Tip != nil {
		rows = append(rows,
			[]string{"priority_tip", ""},
			[]string{"  min", formatFee(stats.Tip.Min)},
			[]string{"  max", formatFee(stats.Tip.Max)},
			[]string{"  avg", formatFee(stats.Tip.Avg)},
			[]string{"  median", formatFee(stats.Tip.Median)},
			[]string{"  stdev", formatFee(stats.Tip.StdDev)},
		)
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

// Filename builds a timestamped export filename for the format.
func Filename(format string) string {
	ext := ".csv"
	if format == "json" {
		ext = ".json"
	}
	return "gasgauge_export_" + time.Now().Format("20060102_150405") + ext
}

func formatFee(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optionalFee(v float64) string {
	if v == 0 {
		return ""
	}
	return formatFee(v)
}
