package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bademirci/prediction-markets/internal/buffer"
	"github.com/bademirci/prediction-markets/internal/config"
	"github.com/bademirci/prediction-markets/internal/feed"
	"github.com/bademirci/prediction-markets/internal/metrics"
	"github.com/bademirci/prediction-markets/internal/resolver"
	"github.com/bademirci/prediction-markets/internal/sink"
)

const shutdownTimeout = 10 * time.Second

// Ingestion is the pipeline orchestrator.
type Ingestion struct {
	cfg      *config.IngesterConfig
	store    sink.Store
	resolver *resolver.Resolver
	buffer   *buffer.Coordinator
	manager  *feed.Manager
	metrics  *metrics.Metrics
	logger   *slog.Logger

	tradesReceived atomic.Int64
	levelsReceived atomic.Int64
	tradesWritten  atomic.Int64
	levelsWritten  atomic.Int64
	resolveMisses  atomic.Int64

	// Cumulative drop counts already exported, for delta computation.
	lastFramesDropped int64
	lastEventsDropped int64
}

// New assembles the pipeline. source feeds metadata syncs; store receives
// all writes.
func New(cfg *config.IngesterConfig, source resolver.MarketSource, store sink.Store, m *metrics.Metrics, logger *slog.Logger) *Ingestion {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.New()
	}

	i := &Ingestion{
		cfg:     cfg,
		store:   store,
		metrics: m,
		logger:  logger,
	}

	i.buffer = buffer.NewCoordinator(store, logger)
	i.resolver = resolver.New(source, i.buffer, resolver.Config{
		PageSize:   cfg.Gamma.PageSize,
		MaxMarkets: cfg.Gamma.MaxMarkets,
	}, logger)
	i.manager = feed.NewManager(feed.ManagerConfig{
		URL:                 cfg.Feed.URL,
		TokensPerConnection: cfg.Feed.TokensPerConnection,
		MaxConnections:      cfg.Feed.MaxConnections,
		ReconnectBaseDelay:  cfg.Feed.ReconnectBaseDelay,
		ReconnectMaxDelay:   cfg.Feed.ReconnectMaxDelay,
		ReadTimeout:         cfg.Feed.ReadTimeout,
		WriteTimeout:        cfg.Feed.WriteTimeout,
	}, i, logger)

	return i
}

// Run executes the pipeline until ctx is cancelled. The initial metadata
// sync is fatal on failure; once streaming starts, all loop errors are
// logged and survived.
func (i *Ingestion) Run(ctx context.Context) error {
	n, err := i.resolver.Sync(ctx)
	if err != nil {
		return fmt.Errorf("initial metadata sync: %w", err)
	}
	i.metrics.MarketsSynced.Add(float64(n))

	// Persist the first snapshot before streaming starts so a category
	// filter can read it back.
	if _, err := i.buffer.Flush(ctx, buffer.KindMarkets); err != nil {
		i.logger.Warn("initial market flush failed", "error", err)
		i.metrics.BatchesDropped.WithLabelValues(buffer.KindMarkets).Inc()
	}

	tokens := i.tokenUniverse(ctx)
	if len(tokens) == 0 {
		i.logger.Warn("no tokens to ingest, exiting",
			"category_filter", i.cfg.Feed.CategoryFilter,
		)
		return nil
	}

	if err := i.manager.Start(ctx, tokens); err != nil {
		return fmt.Errorf("start stream connections: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return i.flushLoop(gctx) })
	g.Go(func() error { return i.resyncLoop(gctx) })
	g.Go(func() error { return i.statsLoop(gctx) })

	err = g.Wait()

	i.shutdown()

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// tokenUniverse determines the token IDs to subscribe. With a category
// filter the previously persisted metadata is authoritative; those rows
// are registered back into the resolver so enrichment still hits. Without
// one, or when the filter query fails or matches nothing, the resolver's
// full table is used.
func (i *Ingestion) tokenUniverse(ctx context.Context) []string {
	filter := i.cfg.Feed.CategoryFilter
	if filter == "" {
		return i.resolver.TokenIDs()
	}

	rows, err := i.store.TokensByCategory(ctx, filter)
	if err != nil {
		i.logger.Warn("category filter query failed, using full token set",
			"category", filter,
			"error", err,
		)
		return i.resolver.TokenIDs()
	}
	if len(rows) == 0 {
		i.logger.Warn("category filter matched no tokens, using full token set",
			"category", filter,
		)
		return i.resolver.TokenIDs()
	}

	tokens := make([]string, 0, len(rows))
	for tok, res := range rows {
		i.resolver.Register(tok, res)
		tokens = append(tokens, tok)
	}
	sort.Strings(tokens)

	i.logger.Info("category filter applied",
		"category", filter,
		"tokens", len(tokens),
	)
	return tokens
}

// flushLoop drains the buffer to the sink on a fixed interval.
func (i *Ingestion) flushLoop(ctx context.Context) error {
	ticker := time.NewTicker(i.cfg.Buffer.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			i.flushOnce(ctx)
		}
	}
}

func (i *Ingestion) flushOnce(ctx context.Context) {
	n, err := i.buffer.Flush(ctx, buffer.KindTrades)
	if err != nil {
		i.logger.Error("trade flush failed", "error", err)
		i.metrics.BatchesDropped.WithLabelValues(buffer.KindTrades).Inc()
	} else {
		i.tradesWritten.Add(int64(n))
		i.metrics.TradesWritten.Add(float64(n))
	}

	n, err = i.buffer.Flush(ctx, buffer.KindBookLevels)
	if err != nil {
		i.logger.Error("book level flush failed", "error", err)
		i.metrics.BatchesDropped.WithLabelValues(buffer.KindBookLevels).Inc()
	} else {
		i.levelsWritten.Add(int64(n))
		i.metrics.LevelsWritten.Add(float64(n))
	}

	if _, err = i.buffer.Flush(ctx, buffer.KindMarkets); err != nil {
		i.logger.Error("market flush failed", "error", err)
		i.metrics.BatchesDropped.WithLabelValues(buffer.KindMarkets).Inc()
	}
}

// resyncLoop refreshes the resolution table periodically. New tokens are
// not re-sharded onto live connections mid-run; the gap is logged and
// closes on restart.
func (i *Ingestion) resyncLoop(ctx context.Context) error {
	ticker := time.NewTicker(i.cfg.Gamma.SyncInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			before := i.resolver.TokenCount()
			n, err := i.resolver.Sync(ctx)
			if err != nil {
				i.logger.Error("metadata resync failed", "error", err)
				continue
			}
			i.metrics.MarketsSynced.Add(float64(n))

			if after := i.resolver.TokenCount(); after != before {
				i.logger.Info("token universe changed, subscriptions unchanged until restart",
					"tokens_before", before,
					"tokens_after", after,
				)
			}
		}
	}
}

// statsLoop logs throughput and refreshes gauges.
func (i *Ingestion) statsLoop(ctx context.Context) error {
	ticker := time.NewTicker(i.cfg.Buffer.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			frames, events := i.manager.Dropped()
			i.metrics.FramesDropped.Add(float64(frames - i.lastFramesDropped))
			i.metrics.EventsDropped.Add(float64(events - i.lastEventsDropped))
			i.lastFramesDropped = frames
			i.lastEventsDropped = events

			i.metrics.ConnectionsConnected.Set(float64(i.manager.ConnectedCount()))
			i.metrics.ResolvedTokens.Set(float64(i.resolver.TokenCount()))
			for _, kind := range buffer.Kinds {
				i.metrics.BufferPending.WithLabelValues(kind).Set(float64(i.buffer.Pending(kind)))
			}

			i.logger.Info("ingest stats",
				"trades_received", i.tradesReceived.Load(),
				"levels_received", i.levelsReceived.Load(),
				"trades_written", i.tradesWritten.Load(),
				"levels_written", i.levelsWritten.Load(),
				"resolve_misses", i.resolveMisses.Load(),
				"events_discarded", events,
				"connections", i.manager.ConnectedCount(),
			)
		}
	}
}

// shutdown stops the stream and performs a final flush on a fresh
// timeout context; the run context is already cancelled by now.
func (i *Ingestion) shutdown() {
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	i.manager.Stop(stopCtx)

	n, err := i.buffer.FlushAll(stopCtx)
	if err != nil {
		i.logger.Error("final flush failed", "error", err)
	}
	i.logger.Info("pipeline stopped", "final_flush_rows", n)
}
