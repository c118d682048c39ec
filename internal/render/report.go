package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"gasgauge/internal/engine"
	"gasgauge/internal/networks"
)

const (
	reportWidth  = 60
	bandsWidth   = 70
	compareWidth = 100
	// labelWidth pads report labels so the values line up in a column.
	labelWidth = 25
)

func rule(ch string, width int) string { return strings.Repeat(ch, width) }

func labeled(label string, format string, args ...any) string {
	return fmt.Sprintf("%-*s", labelWidth, label) + fmt.Sprintf(format, args...)
}

// displayName resolves a network key to its registry name, falling back
// to the raw key for networks the registry does not know.
func displayName(key string) string {
	if n, ok := networks.Get(key); ok {
		return n.Name
	}
	if key == "" {
		return "Unknown"
	}
	return key
}

// titleCase turns a method identifier like "exponential_moving_average"
// into a heading like "Exponential Moving Average".
func titleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// RecommendationText expands an action slug from the stats engine into
// the advice line shown to users.
func RecommendationText(action string) string {
	switch action {
	case "excellent":
		return "EXCELLENT - Near historical minimum"
	case "good":
		return "GOOD - Below average, good time to transact"
	case "moderate":
		return "MODERATE - Around average, consider waiting"
	case "high-cost":
		return "HIGH - Above average, consider waiting"
	default:
		return "Insufficient data for recommendation"
	}
}

// CurrentSummary renders a live quote with optional recent statistics
// and the action recommendation.
func CurrentSummary(quote engine.Quote, stats *engine.BasicStats, recommendation string) string {
	lines := []string{
		"\n" + rule("=", reportWidth),
		fmt.Sprintf("Network: %s", displayName(quote.Network)),
		rule("=", reportWidth),
		fmt.Sprintf("Base Fee:      %.2f gwei", quote.BaseFee),
		fmt.Sprintf("Priority Tip:  %.2f gwei", quote.PriorityTip),
		fmt.Sprintf("Max Fee:       %.2f gwei", quote.MaxFee),
	}
	if quote.TokenPriceUSD > 0 {
		lines = append(lines, fmt.Sprintf("Token Price:   $%.2f", quote.TokenPriceUSD))
	}
	if stats != nil {
		lines = append(lines,
			"\n"+rule("-", reportWidth),
			"Statistics (Recent History):",
			fmt.Sprintf("   Min: %.2f gwei | Avg: %.2f gwei | Max: %.2f gwei",
				stats.BaseFee.Min, stats.BaseFee.Avg, stats.BaseFee.Max),
		)
	}
	lines = append(lines,
		"\n"+rule("-", reportWidth),
		fmt.Sprintf("Recommendation: %s", recommendation),
		rule("=", reportWidth)+"\n",
	)
	return strings.Join(lines, "\n")
}

// PredictionReport renders a forecast with its model diagnostics.
func PredictionReport(p *engine.Prediction) string {
	lines := []string{
		rule("=", reportWidth),
		fmt.Sprintf("GAS PRICE PREDICTION (%s)", titleCase(p.Method)),
		rule("=", reportWidth),
		labeled("Predicted Base Fee:", "%8.2f gwei", p.BaseFee),
		labeled("Predicted Priority Tip:", "%8.2f gwei", p.PriorityTip),
		labeled("Predicted Max Fee:", "%8.2f gwei", p.MaxFee),
		rule("-", reportWidth),
		labeled("Confidence:", "%8.1f%%", p.Confidence),
		labeled("Trend:", "%s", strings.ToUpper(p.Trend)),
	}
	if p.SampleSize > 0 {
		lines = append(lines, labeled("Sample Size:", "%8d", p.SampleSize))
	}
	lines = append(lines, rule("=", reportWidth))
	return strings.Join(lines, "\n")
}

// StatsReport renders advanced statistics for one network. hours is the
// timeframe the records were filtered to; zero means all history.
func StatsReport(stats *engine.AdvancedStats, network string, hours int) string {
	timeframe := "all history"
	if hours > 0 {
		timeframe = fmt.Sprintf("last %dh", hours)
	}
	lines := []string{
		rule("=", reportWidth),
		fmt.Sprintf("GAS FEE STATISTICS - %s (%s)", displayName(network), timeframe),
		rule("=", reportWidth),
		labeled("Samples:", "%8d", stats.Count),
		labeled("Min:", "%8.2f gwei", stats.BaseFee.Min),
		labeled("Avg:", "%8.2f gwei", stats.BaseFee.Avg),
		labeled("Max:", "%8.2f gwei", stats.BaseFee.Max),
		labeled("Median:", "%8.2f gwei", stats.Median),
		labeled("Std Dev:", "%8.2f gwei", stats.StdDev),
		labeled("Volatility:", "%8.1f%%  (%s)", stats.CV, stats.Volatility),
		rule("-", reportWidth),
		labeled("P25:", "%8.2f gwei", stats.Percentiles.P25),
		labeled("P50:", "%8.2f gwei", stats.Percentiles.P50),
		labeled("P75:", "%8.2f gwei", stats.Percentiles.P75),
		labeled("P90:", "%8.2f gwei", stats.Percentiles.P90),
		labeled("P95:", "%8.2f gwei", stats.Percentiles.P95),
	}
	if stats.Tip != nil {
		lines = append(lines,
			rule("-", reportWidth),
			labeled("Priority Tip Avg:", "%8.2f gwei", stats.Tip.Avg),
			labeled("Priority Tip Median:", "%8.2f gwei", stats.Tip.Median),
		)
	}
	lines = append(lines, rule("=", reportWidth))
	return strings.Join(lines, "\n")
}

// RangesReport renders the base fee spread with quartile bounds and
// any 1.5x IQR outliers.
func RangesReport(pr *engine.PriceRange) string {
	if pr == nil {
		return "No data available"
	}
	lines := []string{
		rule("=", reportWidth),
		"PRICE RANGE ANALYSIS",
		rule("=", reportWidth),
		labeled("Samples:", "%8d", pr.Count),
		labeled("Min:", "%8.2f gwei", pr.Min),
		labeled("Max:", "%8.2f gwei", pr.Max),
		labeled("Range:", "%8.2f gwei", pr.Range),
	}
	if pr.LowSample {
		lines = append(lines,
			rule("-", reportWidth),
			"Not enough samples for quartile analysis (need 4).",
		)
	} else {
		lines = append(lines,
			rule("-", reportWidth),
			labeled("Q1 / Q3:", "%8.2f / %.2f gwei", pr.Q1, pr.Q3),
			labeled("IQR:", "%8.2f gwei", pr.IQR),
			labeled("Fences:", "%8.2f / %.2f gwei", pr.LowerFence, pr.UpperFence),
			labeled("Outliers:", "%8d", pr.OutlierCount),
		)
		if len(pr.Outliers) > 0 {
			vals := make([]string, len(pr.Outliers))
			for i, v := range pr.Outliers {
				vals[i] = fmt.Sprintf("%.2f", v)
			}
			lines = append(lines, "  "+strings.Join(vals, ", "))
		}
	}
	lines = append(lines, rule("=", reportWidth))
	return strings.Join(lines, "\n")
}

// FeeBandsReport renders the three fee tiers as a table plus the
// volatility context they were derived from.
func FeeBandsReport(bands *engine.FeeBandSet, network string) string {
	withUSD := bands.Balanced.CostUSD > 0

	header := fmt.Sprintf("%-9s %9s %9s %9s %13s", "Tier", "Base Fee", "Priority", "Max Fee", "Cost(Native)")
	if withUSD {
		header += fmt.Sprintf("  %10s", "Cost (USD)")
	}

	row := func(name string, b engine.FeeBand) string {
		line := fmt.Sprintf("%-9s %9.2f %9.2f %9.2f %13.6f", name, b.BaseFee, b.PriorityTip, b.MaxFee, b.CostNative)
		if withUSD {
			line += fmt.Sprintf("  $%9.4f", b.CostUSD)
		}
		return line
	}

	lines := []string{
		rule("=", bandsWidth),
		fmt.Sprintf("RECOMMENDED FEE BANDS - %s (%s gas)", displayName(network), humanize.Comma(int64(bands.GasUnits))),
		rule("=", bandsWidth),
		header,
		rule("-", bandsWidth),
		row("eco", bands.Eco),
		row("balanced", bands.Balanced),
		row("priority", bands.Priority),
		rule("-", bandsWidth),
		labeled("Method:", "%s", titleCase(bands.Method)),
		labeled("Safety Buffer:", "%8.1f%%", bands.SafetyBuffer*100),
		labeled("Volatility Ratio:", "%8.2f", bands.VolatilityRatio),
		labeled("Confidence:", "%8.1f%%", bands.Confidence),
		labeled("Trend:", "%s", strings.ToUpper(bands.Trend)),
		rule("=", bandsWidth),
	}
	return strings.Join(lines, "\n")
}

// WindowReport renders hour-of-day seasonality and the wait advice.
func WindowReport(w *engine.OptimalWindow, network string) string {
	hh := func(h int) string { return fmt.Sprintf("%02d:00", h) }
	lines := []string{
		rule("=", reportWidth),
		fmt.Sprintf("OPTIMAL TIME WINDOW - %s (UTC)", displayName(network)),
		rule("=", reportWidth),
		labeled("Cheapest Hour:", "%8s  (avg %.2f gwei)", hh(w.CheapestHour), w.CheapestAvg),
		labeled("Most Expensive Hour:", "%8s  (avg %.2f gwei)", hh(w.MostExpensiveHour), w.MostExpensiveAvg),
		labeled("Current Hour:", "%8s", hh(w.CurrentHour)),
		labeled("Hours Until Cheapest:", "%8d", w.HoursUntilCheapest),
		rule("-", reportWidth),
		fmt.Sprintf("Recommendation: %s", w.Recommendation),
		rule("=", reportWidth),
	}
	return strings.Join(lines, "\n")
}

// HourlyTable renders per-hour fee aggregates, one row per hour that
// has observations.
func HourlyTable(stats []engine.HourlyStat) string {
	if len(stats) == 0 {
		return "No data available"
	}
	lines := []string{
		rule("=", reportWidth),
		"HOURLY GAS PATTERNS (UTC)",
		rule("=", reportWidth),
		fmt.Sprintf("%-6s %9s %9s %9s %9s %8s", "Hour", "Avg", "Min", "Max", "Median", "Samples"),
		rule("-", reportWidth),
	}
	for _, h := range stats {
		lines = append(lines, fmt.Sprintf("%02d:00  %9.2f %9.2f %9.2f %9.2f %8d",
			h.Hour, h.Avg, h.Min, h.Max, h.Median, h.Count))
	}
	lines = append(lines, rule("=", reportWidth))
	return strings.Join(lines, "\n")
}

// CompareTable renders a cross-network cost comparison, cheapest first.
// The leading marker flags the cheapest network; fetch failures are
// listed under ERRORS instead of silently vanishing.
func CompareTable(result *engine.CompareResult) string {
	txName := result.TxType
	if tx, ok := txTypeName(result.TxType); ok {
		txName = tx
	}

	lines := []string{
		rule("=", compareWidth),
		fmt.Sprintf("GAS PRICE COMPARISON - %s (%s gas)", txName, humanize.Comma(int64(result.GasUnits))),
		rule("=", compareWidth),
		fmt.Sprintf("%-20s %-15s %-15s %-15s %-15s %-15s",
			"Network", "Base Fee", "Priority", "Max Fee", "Cost (Native)", "Cost (USD)"),
		rule("-", compareWidth),
	}

	for i, row := range result.Rows {
		marker := "*"
		if i > 0 {
			marker = fmt.Sprintf("%d.", i+1)
		}
		lines = append(lines, fmt.Sprintf("%2s %-17s %10.2f gwei   %10.2f gwei   %10.2f gwei   %10.6f %-5s $%10.4f",
			marker, row.Name, row.BaseFee, row.PriorityTip, row.MaxFee, row.CostNative, row.Token, row.CostUSD))
	}

	if len(result.Errors) > 0 {
		keys := make([]string, 0, len(result.Errors))
		for k := range result.Errors {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		lines = append(lines, rule("-", compareWidth), "ERRORS:")
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("  ! %s: %s", displayName(k), result.Errors[k]))
		}
	}

	lines = append(lines, rule("=", compareWidth))
	return strings.Join(lines, "\n")
}

func txTypeName(key string) (string, bool) {
	for _, tx := range networks.TxTypes() {
		if tx.Key == key {
			return tx.Name, true
		}
	}
	return "", false
}
