package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gasgauge/internal/api"
	"gasgauge/internal/coingecko"
	"gasgauge/internal/config"
	"gasgauge/internal/db"
	"gasgauge/internal/engine"
	"gasgauge/internal/export"
	"gasgauge/internal/logger"
	"gasgauge/internal/networks"
	"gasgauge/internal/render"
	"gasgauge/internal/rpc"
	"gasgauge/internal/sampler"
)

var version = "dev"

// fetchTimeout bounds a single interactive fetch (quote, sample, compare).
const fetchTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warn("Env", fmt.Sprintf("Could not load .env: %v", err))
	}

	args := os.Args[1:]
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		printUsage()
		return
	}

	logger.Banner(version)

	if err := run(args[0], args[1:]); err != nil {
		logger.Error("CLI", err.Error())
		os.Exit(1)
	}
}

func run(command string, args []string) error {
	switch command {
	case "current":
		return cmdCurrent(args)
	case "sample":
		return cmdSample(args)
	case "history":
		return cmdHistory(args)
	case "stats":
		return cmdStats(args)
	case "predict":
		return cmdPredict(args)
	case "feebands":
		return cmdFeeBands(args)
	case "compare":
		return cmdCompare(args)
	case "window":
		return cmdWindow(args)
	case "watch":
		return cmdWatch(args)
	case "export":
		return cmdExport(args)
	case "prune":
		return cmdPrune(args)
	case "serve":
		return cmdServe(args)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// cliFlags carries the options every command shares.
type cliFlags struct {
	fs      *flag.FlagSet
	config  *string
	network *string
	dbPath  *string
}

func newFlags(name string) *cliFlags {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	return &cliFlags{
		fs:      fs,
		config:  fs.String("config", "config.yaml", "path to config file"),
		network: fs.String("network", "", "network key (default: first configured)"),
		dbPath:  fs.String("db", "", "override the database path"),
	}
}

// load reads config and opens the database. Callers own the Close.
func (f *cliFlags) load() (*config.Config, *db.DB, error) {
	cfg, err := config.Load(*f.config)
	if err != nil {
		return nil, nil, err
	}
	if *f.dbPath != "" {
		cfg.Database.Path = *f.dbPath
	}
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, database, nil
}

// pick resolves the target network: the -network flag, else the first
// configured network, else ethereum.
func (f *cliFlags) pick(cfg *config.Config) string {
	if *f.network != "" {
		return *f.network
	}
	if len(cfg.Sampler.Networks) > 0 {
		return cfg.Sampler.Networks[0]
	}
	return "ethereum"
}

func newSampler(cfg *config.Config, store sampler.RecordStore) *sampler.Sampler {
	fees := rpc.NewClient(time.Duration(cfg.RPC.TimeoutSeconds) * time.Second)
	prices := coingecko.NewClient(cfg.CoinGecko.APIKey)
	return sampler.New(cfg, fees, prices, store)
}

func cmdCurrent(args []string) error {
	f := newFlags("current")
	f.fs.Parse(args)

	cfg, database, err := f.load()
	if err != nil {
		return err
	}
	defer database.Close()

	network := f.pick(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	quote, err := newSampler(cfg, nil).Quote(ctx, network)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", network, err)
	}

	var stats *engine.BasicStats
	if records, err := database.RecordsByNetwork(network, 100); err == nil {
		stats = engine.ComputeBasicStats(records)
	}
	action := engine.RecommendAction(quote.BaseFee, stats)
	fmt.Println(render.CurrentSummary(quote, stats, render.RecommendationText(action)))
	return nil
}

func cmdSample(args []string) error {
	f := newFlags("sample")
	all := f.fs.Bool("all", false, "sample every configured network")
	f.fs.Parse(args)

	cfg, database, err := f.load()
	if err != nil {
		return err
	}
	defer database.Close()

	s := newSampler(cfg, database)
	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	if *all {
		if stored := s.SampleAll(ctx); stored == 0 {
			return fmt.Errorf("no network could be sampled")
		}
		return nil
	}

	network := f.pick(cfg)
	record, err := s.SampleNetwork(ctx, network)
	if err != nil {
		return fmt.Errorf("sample %s: %w", network, err)
	}
	logger.Success("Sampler", fmt.Sprintf("%s base fee %.2f gwei stored", network, record.BaseFee))
	return nil
}

func cmdHistory(args []string) error {
	f := newFlags("history")
	limit := f.fs.Int("limit", 20, "number of recent samples")
	f.fs.Parse(args)

	cfg, database, err := f.load()
	if err != nil {
		return err
	}
	defer database.Close()

	network := f.pick(cfg)
	records, err := database.RecordsByNetwork(network, *limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no records for %s; run the sample command first", network)
	}

	fmt.Println(render.BarChart(records))

	// Oldest first so the sparkline reads left to right in time.
	fees := make([]float64, len(records))
	for i, r := range records {
		fees[len(records)-1-i] = r.BaseFee
	}
	fmt.Println()
	fmt.Println("Sparkline: " + render.Sparkline(fees))
	return nil
}

func cmdStats(args []string) error {
	f := newFlags("stats")
	hours := f.fs.Int("hours", 0, "restrict to the last N hours (0 = all)")
	f.fs.Parse(args)

	cfg, database, err := f.load()
	if err != nil {
		return err
	}
	defer database.Close()

	network := f.pick(cfg)
	records, err := database.AllRecords(network)
	if err != nil {
		return err
	}
	if *hours > 0 {
		records = engine.FilterByTimeframe(records, *hours)
	}
	stats := engine.ComputeAdvancedStats(records)
	if stats == nil {
		return fmt.Errorf("no fee data for %s", network)
	}
	fmt.Println(render.StatsReport(stats, network, *hours))
	fmt.Println(render.RangesReport(engine.PriceRanges(records)))
	return nil
}

func cmdPredict(args []string) error {
	f := newFlags("predict")
	method := f.fs.String("method", string(engine.MethodMovingAverage), "moving_average, exponential, or linear")
	f.fs.Parse(args)

	cfg, database, err := f.load()
	if err != nil {
		return err
	}
	defer database.Close()

	network := f.pick(cfg)
	records, err := database.AllRecords(network)
	if err != nil {
		return err
	}
	prediction, err := engine.NewSeries(records).Predict(engine.Method(*method))
	if err != nil {
		return err
	}
	fmt.Println(render.PredictionReport(prediction))
	return nil
}

func cmdFeeBands(args []string) error {
	f := newFlags("feebands")
	method := f.fs.String("method", "", "forecast method (default: exponential)")
	txType := f.fs.String("tx", "simple", "transaction type for gas units")
	f.fs.Parse(args)

	cfg, database, err := f.load()
	if err != nil {
		return err
	}
	defer database.Close()

	network := f.pick(cfg)
	records, err := database.AllRecords(network)
	if err != nil {
		return err
	}

	params := engine.FeeBandParams{
		Method:   engine.Method(*method),
		GasUnits: networks.GasUnits(*txType),
	}
	if latest, ok := database.LatestRecord(network); ok {
		params.TokenPriceUSD = latest.TokenPriceUSD
	}

	bands, err := engine.NewSeries(records).FeeBands(params)
	if err != nil {
		return err
	}
	fmt.Println(render.FeeBandsReport(bands, network))
	return nil
}

func cmdCompare(args []string) error {
	f := newFlags("compare")
	txType := f.fs.String("tx", "simple", "transaction type for gas units")
	list := f.fs.String("networks", "", "comma separated network keys (default: configured list)")
	f.fs.Parse(args)

	cfg, database, err := f.load()
	if err != nil {
		return err
	}
	defer database.Close()

	keys := cfg.Sampler.Networks
	if *list != "" {
		keys = strings.Split(*list, ",")
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	result, err := engine.CompareNetworks(ctx, newSampler(cfg, nil), keys, *txType)
	if err != nil {
		return err
	}
	fmt.Println(render.CompareTable(result))
	return nil
}

func cmdWindow(args []string) error {
	f := newFlags("window")
	hours := f.fs.Int("hours", 24, "minimum records before a window is called")
	f.fs.Parse(args)

	cfg, database, err := f.load()
	if err != nil {
		return err
	}
	defer database.Close()

	network := f.pick(cfg)
	records, err := database.AllRecords(network)
	if err != nil {
		return err
	}

	window := engine.NewSeries(records).OptimalTimeWindow(*hours)
	if window == nil {
		return fmt.Errorf("need at least %d records for a time window, have %d", *hours, len(records))
	}
	fmt.Println(render.WindowReport(window, network))
	fmt.Println(render.HourlyTable(engine.HourlyPatterns(records)))
	return nil
}

func cmdWatch(args []string) error {
	f := newFlags("watch")
	f.fs.Parse(args)

	cfg, database, err := f.load()
	if err != nil {
		return err
	}
	defer database.Close()

	s := newSampler(cfg, database)

	logger.Section("Sampler")
	logger.Stats("Networks", strings.Join(cfg.Sampler.Networks, ", "))
	logger.Stats("Schedule", cfg.Sampler.Cron)
	logger.Stats("Database", cfg.Database.Path)

	// One round up front so the watch shows data before the cron fires.
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	s.SampleAll(ctx)
	cancel()

	if err := s.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("Sampler", "Shutting down")
	s.Stop()
	return nil
}

func cmdExport(args []string) error {
	f := newFlags("export")
	format := f.fs.String("format", "csv", "csv or json")
	out := f.fs.String("out", "", "output file (default: generated name, \"-\" for stdout)")
	limit := f.fs.Int("limit", 0, "cap on exported records, newest kept (0 = all)")
	statsOnly := f.fs.Bool("stats", false, "export aggregate statistics instead of raw records")
	f.fs.Parse(args)

	cfg, database, err := f.load()
	if err != nil {
		return err
	}
	defer database.Close()

	network := f.pick(cfg)

	// Export chronologically. A limit keeps the newest records but the
	// file still reads oldest first.
	var records []engine.Record
	if *limit > 0 {
		records, err = database.RecordsByNetwork(network, *limit)
		for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
			records[i], records[j] = records[j], records[i]
		}
	} else {
		records, err = database.AllRecords(network)
	}
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no records for %s; run the sample command first", network)
	}

	write := func(w io.Writer) error { return export.Write(w, *format, records) }
	wrote := fmt.Sprintf("%d records", len(records))
	if *statsOnly {
		stats := engine.ComputeAdvancedStats(records)
		if stats == nil {
			return fmt.Errorf("no fee data for %s", network)
		}
		write = func(w io.Writer) error { return export.WriteStats(w, *format, stats) }
		wrote = "statistics"
	}

	if *out == "-" {
		return write(os.Stdout)
	}

	path := *out
	if path == "" {
		path = export.Filename(*format)
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := write(file); err != nil {
		return err
	}
	logger.Success("Export", fmt.Sprintf("Wrote %s to %s", wrote, path))
	return nil
}

func cmdPrune(args []string) error {
	f := newFlags("prune")
	days := f.fs.Int("days", 30, "delete records older than this many days")
	f.fs.Parse(args)

	if *days <= 0 {
		return fmt.Errorf("days must be positive, got %d", *days)
	}

	_, database, err := f.load()
	if err != nil {
		return err
	}
	defer database.Close()

	pruned, err := database.PruneOlderThan(*days)
	if err != nil {
		return err
	}
	logger.Success("DB", fmt.Sprintf("Pruned %d records older than %d days", pruned, *days))
	return nil
}

func cmdServe(args []string) error {
	f := newFlags("serve")
	addr := f.fs.String("addr", "", "listen address (default: from config)")
	f.fs.Parse(args)

	cfg, database, err := f.load()
	if err != nil {
		return err
	}
	defer database.Close()

	s := newSampler(cfg, database)
	if err := s.Start(); err != nil {
		return err
	}
	defer s.Stop()

	srv := api.NewServer(cfg, s, database)

	listen := cfg.Server.Addr
	if *addr != "" {
		listen = *addr
	}
	logger.Server(listen)
	return http.ListenAndServe(listen, srv.Handler())
}

const usageText = `gasgauge tracks gas fees across EVM networks.

Usage:
  gasgauge <command> [flags]

Commands:
  current    Live fee quote with a recommendation
  sample     Fetch and store one observation (-all for every network)
  history    Bar chart and sparkline of recent samples
  stats      Statistical breakdown of stored fees
  predict    Forecast the next base fee
  feebands   Eco, balanced, and priority fee tiers
  compare    Rank networks by transaction cost
  window     Cheapest hour of day from hourly patterns
  watch      Run the cron sampler in the foreground
  export     Dump stored records as CSV or JSON
  prune      Delete stored records older than N days
  serve      Start the HTTP API (runs the sampler too)

Common flags:
  -config path   Config file (default config.yaml)
  -network key   Network to operate on (default: first configured)
  -db path       Override the database path

Run "gasgauge <command> -h" for command specific flags.
`

func printUsage() { fmt.Print(usageText) }
