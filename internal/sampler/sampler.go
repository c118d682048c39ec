package sampler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"gasgauge/internal/config"
	"gasgauge/internal/engine"
	"gasgauge/internal/logger"
	"gasgauge/internal/networks"
	"gasgauge/internal/rpc"
)

// tickTimeout bounds one full sampling round across all networks.
const tickTimeout = 60 * time.Second

// FeeSource yields live fee readings; the rpc client implements it.
type FeeSource interface {
	FeeHistory(ctx context.Context, url string) (rpc.FeeSample, error)
}

// PriceSource yields USD token prices; the coingecko client implements it.
type PriceSource interface {
	PriceUSD(ctx context.Context, coinID string) (float64, error)
}

// RecordStore persists sampled records; the db layer implements it.
type RecordStore interface {
	InsertRecord(engine.Record) error
}

// Sampler polls chains for live fees, stores observations, and doubles
// as the quote feed for network comparisons.
type Sampler struct {
	cfg    *config.Config
	fees   FeeSource
	prices PriceSource
	store  RecordStore

	cron *cron.Cron

	alertMu sync.Mutex
	alerted map[string]bool
}

// New creates a sampler. store may be nil for quote-only use.
func New(cfg *config.Config, fees FeeSource, prices PriceSource, store RecordStore) *Sampler {
	return &Sampler{
		cfg:     cfg,
		fees:    fees,
		prices:  prices,
		store:   store,
		cron:    cron.New(cron.WithSeconds()),
		alerted: make(map[string]bool),
	}
}

// Quote fetches a live fee snapshot for one network. A failed price
// lookup degrades to an unpriced quote rather than failing the fetch.
func (s *Sampler) Quote(ctx context.Context, network string) (engine.Quote, error) {
	url, ok := s.cfg.EndpointFor(network)
	if !ok {
		return engine.Quote{}, fmt.Errorf("unknown network %q", network)
	}

	sample, err := s.fees.FeeHistory(ctx, url)
	if err != nil {
		return engine.Quote{}, fmt.Errorf("fee history for %s: %w", network, err)
	}

	quote := engine.Quote{
		Network:     network,
		BaseFee:     sample.BaseFee,
		PriorityTip: sample.PriorityTip,
		MaxFee:      sample.MaxFee,
	}
	if n, known := networks.Get(network); known {
		price, err := s.prices.PriceUSD(ctx, n.CoinGeckoID)
		if err != nil {
			logger.Warn("PRICE", fmt.Sprintf("%s: %v", network, err))
		} else {
			quote.TokenPriceUSD = price
		}
	}
	return quote, nil
}

// SampleNetwork fetches and stores one observation for a network.
func (s *Sampler) SampleNetwork(ctx context.Context, network string) (engine.Record, error) {
	quote, err := s.Quote(ctx, network)
	if err != nil {
		return engine.Record{}, err
	}

	record := engine.Record{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Network:       network,
		BaseFee:       quote.BaseFee,
		PriorityTip:   quote.PriorityTip,
		MaxFee:        quote.MaxFee,
		TokenPriceUSD: quote.TokenPriceUSD,
	}
	if s.store != nil {
		if err := s.store.InsertRecord(record); err != nil {
			return engine.Record{}, err
		}
	}

	if threshold := s.cfg.Sampler.AlertBelowGwei; threshold > 0 && s.shouldAlert(network, record.BaseFee, threshold) {
		logger.Warn("ALERT", fmt.Sprintf("%s base fee %.2f gwei is below threshold %.2f gwei", network, record.BaseFee, threshold))
	}
	return record, nil
}

// shouldAlert latches once the fee crosses below the threshold and
// re-arms only after the fee rises back above it, so a sustained dip
// produces a single alert instead of one per sample.
func (s *Sampler) shouldAlert(network string, fee, threshold float64) bool {
	s.alertMu.Lock()
	defer s.alertMu.Unlock()
	if fee > threshold {
		s.alerted[network] = false
		return false
	}
	if s.alerted[network] {
		return false
	}
	s.alerted[network] = true
	return true
}

// SampleAll samples every configured network in parallel and reports
// how many succeeded. Per-network failures are logged, not returned;
// one dead RPC must not stall the others.
func (s *Sampler) SampleAll(ctx context.Context) int {
	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for _, network := range s.cfg.Sampler.Networks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			record, err := s.SampleNetwork(ctx, network)
			if err != nil {
				logger.Warn("SAMPLER", fmt.Sprintf("%s: %v", network, err))
				return
			}
			logger.Info("SAMPLER", fmt.Sprintf("%s base fee %.2f gwei", network, record.BaseFee))
			mu.Lock()
			ok++
			mu.Unlock()
		}()
	}
	wg.Wait()
	return ok
}

// Start registers the periodic sampling job and starts the scheduler.
func (s *Sampler) Start() error {
	if _, err := s.cron.AddFunc(s.cfg.Sampler.Cron, s.tick); err != nil {
		return fmt.Errorf("register sampler: %w", err)
	}
	s.cron.Start()
	logger.Info("SAMPLER", fmt.Sprintf("Scheduled %q over %d networks", s.cfg.Sampler.Cron, len(s.cfg.Sampler.Networks)))
	return nil
}

// Stop stops the scheduler; running jobs finish.
func (s *Sampler) Stop() {
	s.cron.Stop()
}

func (s *Sampler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()
	s.SampleAll(ctx)
}
