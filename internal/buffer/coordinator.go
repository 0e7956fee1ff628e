package buffer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bademirci/prediction-markets/internal/model"
)

// Record kinds, used as flush identifiers and metric labels.
const (
	KindTrades     = "trades"
	KindBookLevels = "book_levels"
	KindMarkets    = "markets"
)

// Kinds lists every buffered record kind.
var Kinds = []string{KindTrades, KindBookLevels, KindMarkets}

// Sink receives flushed batches. Implementations report how many rows the
// write accepted; an error means the whole batch is gone.
type Sink interface {
	InsertTrades(ctx context.Context, trades []model.Trade) (int, error)
	InsertBookLevels(ctx context.Context, levels []model.BookLevel) (int, error)
	UpsertMarkets(ctx context.Context, markets []model.Market) (int, error)
}

// Coordinator buffers records per kind until flushed.
type Coordinator struct {
	sink   Sink
	logger *slog.Logger

	tradesMu sync.Mutex
	trades   []model.Trade

	levelsMu sync.Mutex
	levels   []model.BookLevel

	marketsMu sync.Mutex
	markets   []model.Market
}

// NewCoordinator creates a buffer coordinator writing to sink.
func NewCoordinator(sink Sink, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		sink:   sink,
		logger: logger,
	}
}

// AddTrades buffers trades for the next flush.
func (c *Coordinator) AddTrades(trades []model.Trade) {
	if len(trades) == 0 {
		return
	}
	c.tradesMu.Lock()
	c.trades = append(c.trades, trades...)
	c.tradesMu.Unlock()
}

// AddLevels buffers book levels, dropping fully empty ones.
func (c *Coordinator) AddLevels(levels []model.BookLevel) {
	kept := levels[:0:0]
	for _, l := range levels {
		if !l.Empty() {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return
	}
	c.levelsMu.Lock()
	c.levels = append(c.levels, kept...)
	c.levelsMu.Unlock()
}

// AddMarkets buffers market snapshot rows.
func (c *Coordinator) AddMarkets(markets []model.Market) {
	if len(markets) == 0 {
		return
	}
	c.marketsMu.Lock()
	c.markets = append(c.markets, markets...)
	c.marketsMu.Unlock()
}

// Flush writes the pending batch of one kind to the sink and returns the
// number of rows written. The batch is detached from the buffer before the
// write, so a failure drops it without touching records added since.
func (c *Coordinator) Flush(ctx context.Context, kind string) (int, error) {
	switch kind {
	case KindTrades:
		c.tradesMu.Lock()
		batch := c.trades
		c.trades = nil
		c.tradesMu.Unlock()

		if len(batch) == 0 {
			return 0, nil
		}
		n, err := c.sink.InsertTrades(ctx, batch)
		if err != nil {
			return 0, fmt.Errorf("flush %s (%d dropped): %w", kind, len(batch), err)
		}
		return n, nil

	case KindBookLevels:
		c.levelsMu.Lock()
		batch := c.levels
		c.levels = nil
		c.levelsMu.Unlock()

		if len(batch) == 0 {
			return 0, nil
		}
		n, err := c.sink.InsertBookLevels(ctx, batch)
		if err != nil {
			return 0, fmt.Errorf("flush %s (%d dropped): %w", kind, len(batch), err)
		}
		return n, nil

	case KindMarkets:
		c.marketsMu.Lock()
		batch := c.markets
		c.markets = nil
		c.marketsMu.Unlock()

		if len(batch) == 0 {
			return 0, nil
		}
		n, err := c.sink.UpsertMarkets(ctx, batch)
		if err != nil {
			return 0, fmt.Errorf("flush %s (%d dropped): %w", kind, len(batch), err)
		}
		return n, nil

	default:
		return 0, fmt.Errorf("unknown buffer kind %q", kind)
	}
}

// FlushAll flushes every kind, continuing past per-kind failures and
// returning the first error encountered.
func (c *Coordinator) FlushAll(ctx context.Context) (int, error) {
	var total int
	var firstErr error

	for _, kind := range Kinds {
		n, err := c.Flush(ctx, kind)
		total += n
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return total, firstErr
}

// Pending returns the number of buffered records of one kind.
func (c *Coordinator) Pending(kind string) int {
	switch kind {
	case KindTrades:
		c.tradesMu.Lock()
		defer c.tradesMu.Unlock()
		return len(c.trades)
	case KindBookLevels:
		c.levelsMu.Lock()
		defer c.levelsMu.Unlock()
		return len(c.levels)
	case KindMarkets:
		c.marketsMu.Lock()
		defer c.marketsMu.Unlock()
		return len(c.markets)
	default:
		return 0
	}
}
