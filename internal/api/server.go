package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gasgauge/internal/config"
	"gasgauge/internal/db"
	"gasgauge/internal/engine"
	"gasgauge/internal/networks"
)

const (
	// recentStatsLimit bounds the history read behind a live quote.
	recentStatsLimit = 100
	// rollingWindow is the sample count for rolling volatility.
	rollingWindow       = 20
	defaultHistoryLimit = 50
)

// Quoter supplies live quotes and on-demand samples; the sampler
// implements it.
type Quoter interface {
	Quote(ctx context.Context, network string) (engine.Quote, error)
	SampleNetwork(ctx context.Context, network string) (engine.Record, error)
}

// Server is the HTTP API server that connects the fetch layer, the
// analytics engine, and the database.
type Server struct {
	cfg    *config.Config
	quoter Quoter
	db     *db.DB
}

// NewServer creates a Server with the given config, quote source, and
// database.
func NewServer(cfg *config.Config, quoter Quoter, database *db.DB) *Server {
	return &Server{cfg: cfg, quoter: quoter, db: database}
}

// Handler returns the HTTP handler with all API routes and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/networks", s.handleNetworks)
	mux.HandleFunc("GET /api/gas/current", s.handleCurrent)
	mux.HandleFunc("GET /api/gas/history", s.handleHistory)
	mux.HandleFunc("GET /api/gas/stats", s.handleStats)
	mux.HandleFunc("GET /api/gas/prediction", s.handlePrediction)
	mux.HandleFunc("GET /api/gas/feebands", s.handleFeeBands)
	mux.HandleFunc("GET /api/gas/window", s.handleWindow)
	mux.HandleFunc("GET /api/gas/compare", s.handleCompare)
	mux.HandleFunc("POST /api/gas/sample", s.handleSample)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// engineStatus maps engine errors onto HTTP codes: bad request for an
// unknown forecast method, unprocessable for data-shape failures.
func engineStatus(err error) int {
	var unknown *engine.UnknownMethodError
	if errors.As(err, &unknown) {
		return 400
	}
	var insufficient *engine.InsufficientDataError
	if errors.As(err, &insufficient) {
		return 422
	}
	var degenerate *engine.DegenerateError
	if errors.As(err, &degenerate) {
		return 422
	}
	return 500
}

// networkParam resolves the network query parameter, defaulting to the
// first configured network. ok is false when no RPC endpoint is known
// for it.
func (s *Server) networkParam(r *http.Request) (string, bool) {
	network := r.URL.Query().Get("network")
	if network == "" {
		if len(s.cfg.Sampler.Networks) > 0 {
			network = s.cfg.Sampler.Networks[0]
		} else {
			network = "ethereum"
		}
	}
	_, ok := s.cfg.EndpointFor(network)
	return network, ok
}

func intParam(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	if v, err := strconv.Atoi(raw); err == nil && v > 0 {
		return v
	}
	return def
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	count, err := s.db.CountAllRecords()
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"records":  count,
		"networks": s.cfg.Sampler.Networks,
		"cron":     s.cfg.Sampler.Cron,
	})
}

func (s *Server) handleNetworks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"networks": networks.All(),
		"tx_types": networks.TxTypes(),
	})
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	network, ok := s.networkParam(r)
	if !ok {
		writeError(w, 400, fmt.Sprintf("unknown network %q", network))
		return
	}
	quote, err := s.quoter.Quote(r.Context(), network)
	if err != nil {
		writeError(w, 502, err.Error())
		return
	}

	var stats *engine.BasicStats
	if records, err := s.db.RecordsByNetwork(network, recentStatsLimit); err == nil {
		stats = engine.ComputeBasicStats(records)
	}
	writeJSON(w, map[string]interface{}{
		"quote":          quote,
		"stats":          stats,
		"recommendation": engine.RecommendAction(quote.BaseFee, stats),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	network, ok := s.networkParam(r)
	if !ok {
		writeError(w, 400, fmt.Sprintf("unknown network %q", network))
		return
	}
	limit := intParam(r, "limit", defaultHistoryLimit)
	records, err := s.db.RecordsByNetwork(network, limit)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"network": network,
		"count":   len(records),
		"records": records,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	network, ok := s.networkParam(r)
	if !ok {
		writeError(w, 400, fmt.Sprintf("unknown network %q", network))
		return
	}
	hours := intParam(r, "hours", 0)
	records, err := s.db.AllRecords(network)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	if hours > 0 {
		records = engine.FilterByTimeframe(records, hours)
	}
	stats := engine.ComputeAdvancedStats(records)
	if stats == nil {
		writeError(w, 422, fmt.Sprintf("no fee data for %s", network))
		return
	}
	result := map[string]interface{}{
		"network": network,
		"hours":   hours,
		"stats":   stats,
		"ranges":  engine.PriceRanges(records),
		"hourly":  engine.HourlyPatterns(records),
	}
	if vol, err := engine.RollingVolatility(records, rollingWindow); err == nil {
		result["rolling_volatility"] = vol
	}
	writeJSON(w, result)
}

func (s *Server) handlePrediction(w http.ResponseWriter, r *http.Request) {
	network, ok := s.networkParam(r)
	if !ok {
		writeError(w, 400, fmt.Sprintf("unknown network %q", network))
		return
	}
	method := engine.Method(r.URL.Query().Get("method"))
	if method == "" {
		method = engine.MethodMovingAverage
	}
	records, err := s.db.AllRecords(network)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	prediction, err := engine.NewSeries(records).Predict(method)
	if err != nil {
		writeError(w, engineStatus(err), err.Error())
		return
	}
	writeJSON(w, prediction)
}

func (s *Server) handleFeeBands(w http.ResponseWriter, r *http.Request) {
	network, ok := s.networkParam(r)
	if !ok {
		writeError(w, 400, fmt.Sprintf("unknown network %q", network))
		return
	}
	txType := r.URL.Query().Get("txtype")
	if txType == "" {
		txType = "simple"
	}
	records, err := s.db.AllRecords(network)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}

	params := engine.FeeBandParams{
		Method:   engine.Method(r.URL.Query().Get("method")),
		GasUnits: networks.GasUnits(txType),
	}
	if latest, ok := s.db.LatestRecord(network); ok {
		params.TokenPriceUSD = latest.TokenPriceUSD
	}
	bands, err := engine.NewSeries(records).FeeBands(params)
	if err != nil {
		writeError(w, engineStatus(err), err.Error())
		return
	}
	writeJSON(w, bands)
}

func (s *Server) handleWindow(w http.ResponseWriter, r *http.Request) {
	network, ok := s.networkParam(r)
	if !ok {
		writeError(w, 400, fmt.Sprintf("unknown network %q", network))
		return
	}
	hours := intParam(r, "hours", 24)
	records, err := s.db.AllRecords(network)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	window := engine.NewSeries(records).OptimalTimeWindow(hours)
	if window == nil {
		writeError(w, 422, fmt.Sprintf("need at least %d records for a time window", hours))
		return
	}
	writeJSON(w, window)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	txType := r.URL.Query().Get("txtype")
	if txType == "" {
		txType = "simple"
	}
	keys := s.cfg.Sampler.Networks
	if raw := r.URL.Query().Get("networks"); raw != "" {
		keys = strings.Split(raw, ",")
	}
	result, err := engine.CompareNetworks(r.Context(), s.quoter, keys, txType)
	if err != nil {
		writeError(w, 502, err.Error())
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	network, ok := s.networkParam(r)
	if !ok {
		writeError(w, 400, fmt.Sprintf("unknown network %q", network))
		return
	}
	record, err := s.quoter.SampleNetwork(r.Context(), network)
	if err != nil {
		writeError(w, 502, err.Error())
		return
	}
	writeJSON(w, record)
}
