package render

import (
	"fmt"
	"strings"
	"testing"

	"gasgauge/internal/engine"
)

func TestSparkline_MapsLevels(t *testing.T) {
	// Range 0..8 normalizes to 0, 0.25, 0.5, 0.75, 1 and the index
	// scale *7 gives 0, 1.75, 3.5, 5.25, 7 which truncate to
	// 0, 1, 3, 5, 7.
	got := Sparkline([]float64{0, 2, 4, 6, 8})
	if got != "▁▂▄▆█" {
		t.Errorf("Sparkline = %q, want %q", got, "▁▂▄▆█")
	}
}

func TestSparkline_Extremes(t *testing.T) {
	if got := Sparkline([]float64{1, 3}); got != "▁█" {
		t.Errorf("Sparkline = %q, want %q", got, "▁█")
	}
}

func TestSparkline_FlatSeries(t *testing.T) {
	if got := Sparkline([]float64{5, 5, 5, 5}); got != "▁▁▁▁" {
		t.Errorf("flat Sparkline = %q, want four bottom blocks", got)
	}
}

func TestSparkline_Empty(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Errorf("Sparkline(nil) = %q, want empty", got)
	}
}

func TestBarChart_Empty(t *testing.T) {
	if got := BarChart(nil); got != "No data available" {
		t.Errorf("BarChart(nil) = %q", got)
	}
}

func TestBarChart_RowsOldestFirst(t *testing.T) {
	// Newest first, the way the store returns history.
	records := []engine.Record{
		{Timestamp: "2026-01-02T10:00:00Z", Network: "ethereum", BaseFee: 60},
		{Timestamp: "2026-01-02T09:00:00Z", Network: "ethereum", BaseFee: 30},
	}
	out := BarChart(records)
	lines := strings.Split(out, "\n")

	// The header element carries its own surrounding newlines, so the
	// top rule lands on line 3 and rows follow it.
	if lines[1] != "Gas Price History (Base Fee in Gwei)" {
		t.Errorf("header = %q", lines[1])
	}
	if len(lines[3]) != barChartWidth+25 {
		t.Errorf("rule width = %d, want %d", len(lines[3]), barChartWidth+25)
	}

	// 30 gwei is half of the 60 gwei maximum: 30 of 60 columns.
	wantOld := "2026-01-02T09:00 │ " + strings.Repeat("█", 30) + " 30.0"
	wantNew := "2026-01-02T10:00 │ " + strings.Repeat("█", 60) + " 60.0"
	if lines[4] != wantOld {
		t.Errorf("first row = %q, want %q", lines[4], wantOld)
	}
	if lines[5] != wantNew {
		t.Errorf("second row = %q, want %q", lines[5], wantNew)
	}
}

func TestBarChart_CapsAtTwentyBars(t *testing.T) {
	var records []engine.Record
	for i := 0; i < 25; i++ {
		records = append(records, engine.Record{
			Timestamp: fmt.Sprintf("2026-01-02T10:%02d:00Z", 40-i),
			Network:   "ethereum",
			BaseFee:   float64(10 + i),
		})
	}
	out := BarChart(records)
	lines := strings.Split(out, "\n")

	// 3 header lines + rule + 20 rows + rule.
	if len(lines) != 25 {
		t.Fatalf("line count = %d, want 25", len(lines))
	}
	// Oldest of the kept twenty is records[19]; rows run oldest to
	// newest.
	if !strings.HasPrefix(lines[4], records[19].Timestamp[:16]) {
		t.Errorf("first row = %q, want prefix %q", lines[4], records[19].Timestamp[:16])
	}
	if !strings.HasPrefix(lines[23], records[0].Timestamp[:16]) {
		t.Errorf("last row = %q, want prefix %q", lines[23], records[0].Timestamp[:16])
	}
}

func TestBarChart_ZeroFees(t *testing.T) {
	out := BarChart([]engine.Record{{Timestamp: "2026-01-02T10:00:00Z", BaseFee: 0}})
	if !strings.Contains(out, "2026-01-02T10:00 │  0.0") {
		t.Errorf("zero-fee row missing from:\n%s", out)
	}
}
