package render

import (
	"fmt"
	"strings"

	"gasgauge/internal/engine"
)

// sparkRunes maps normalized fee levels to block characters, low to high.
var sparkRunes = []rune("▁▂▃▄▅▆▇█")

const (
	barChartWidth   = 60
	barChartMaxBars = 20
	// timestampLabelLen trims stored timestamps to YYYY-MM-DDTHH:MM.
	timestampLabelLen = 16
)

// Sparkline renders values as one line of block characters. A flat
// series renders at the lowest level; an empty one renders nothing.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		return strings.Repeat(string(sparkRunes[0]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / (hi - lo) * float64(len(sparkRunes)-1))
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// BarChart renders base fees as a horizontal bar chart, one row per
// record. Records arrive newest first, the way the store returns them;
// the chart keeps the newest twenty and draws them oldest at the top.
func BarChart(records []engine.Record) string {
	if len(records) == 0 {
		return "No data available"
	}
	if len(records) > barChartMaxBars {
		records = records[:barChartMaxBars]
	}
	rows := make([]engine.Record, len(records))
	for i, r := range records {
		rows[len(records)-1-i] = r
	}

	maxFee := 0.0
	for _, r := range rows {
		if r.BaseFee > maxFee {
			maxFee = r.BaseFee
		}
	}

	border := strings.Repeat("=", barChartWidth+25)
	lines := []string{"\nGas Price History (Base Fee in Gwei)\n", border}
	for _, r := range rows {
		width := 0
		if maxFee > 0 {
			width = int(r.BaseFee / maxFee * barChartWidth)
		}
		label := r.Timestamp
		if len(label) > timestampLabelLen {
			label = label[:timestampLabelLen]
		}
		lines = append(lines, fmt.Sprintf("%s │ %s %.1f", label, strings.Repeat("█", width), r.BaseFee))
	}
	lines = append(lines, border)
	return strings.Join(lines, "\n")
}
