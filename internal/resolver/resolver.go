package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/bademirci/prediction-markets/internal/gamma"
	"github.com/bademirci/prediction-markets/internal/model"
)

// MarketSource fetches the full set of active markets from the metadata API.
type MarketSource interface {
	AllMarkets(ctx context.Context, pageSize, maxMarkets int) ([]gamma.APIMarket, error)
}

// MarketSink receives market snapshots for persistence.
type MarketSink interface {
	AddMarkets(markets []model.Market)
}

// Config holds resolver settings.
type Config struct {
	PageSize   int
	MaxMarkets int
	// Overrides pins a computed category by market ID, taking precedence
	// over keyword-based categorization.
	Overrides map[string]string
}

// Resolver maps CLOB token IDs to market identity. The table is replaced
// atomically on each Sync; lookups between syncs see a consistent snapshot.
type Resolver struct {
	source MarketSource
	sink   MarketSink
	cfg    Config
	logger *slog.Logger

	mu      sync.RWMutex
	byToken map[string]model.Resolution
	markets int
}

// New creates a Resolver. sink may be nil if market snapshots should not
// be persisted.
func New(source MarketSource, sink MarketSink, cfg Config, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		source:  source,
		sink:    sink,
		cfg:     cfg,
		logger:  logger,
		byToken: make(map[string]model.Resolution),
	}
}

// Sync rebuilds the resolution table from a fresh metadata snapshot and
// forwards the market records to the sink. Returns the number of markets
// in the snapshot. On error the previous table is kept.
func (r *Resolver) Sync(ctx context.Context) (int, error) {
	apiMarkets, err := r.source.AllMarkets(ctx, r.cfg.PageSize, r.cfg.MaxMarkets)
	if err != nil {
		return 0, fmt.Errorf("fetch markets: %w", err)
	}

	table := make(map[string]model.Resolution, len(apiMarkets)*2)
	markets := make([]model.Market, 0, len(apiMarkets))

	for i := range apiMarkets {
		m := apiMarkets[i].ToModel()
		m.ComputedCategory = ComputeCategory(m, r.cfg.Overrides)
		markets = append(markets, m)

		res := model.Resolution{
			ConditionID:      m.ConditionID,
			MarketID:         m.MarketID,
			ComputedCategory: m.ComputedCategory,
		}
		for _, tok := range m.ClobTokenIDs {
			table[tok] = res
		}
	}

	r.mu.Lock()
	r.byToken = table
	r.markets = len(markets)
	r.mu.Unlock()

	if r.sink != nil {
		r.sink.AddMarkets(markets)
	}

	r.logger.Info("resolution table rebuilt",
		"markets", len(markets),
		"tokens", len(table),
	)

	return len(markets), nil
}

// Resolve looks up the market identity for a token ID.
func (r *Resolver) Resolve(tokenID string) (model.Resolution, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.byToken[tokenID]
	return res, ok
}

// Register adds or replaces a single token mapping. Used to seed the table
// from rows that did not come through a metadata sync.
func (r *Resolver) Register(tokenID string, res model.Resolution) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byToken[tokenID] = res
}

// TokenIDs returns all known token IDs in sorted order.
func (r *Resolver) TokenIDs() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.byToken))
	for tok := range r.byToken {
		out = append(out, tok)
	}
	r.mu.RUnlock()

	sort.Strings(out)
	return out
}

// MarketCount returns the number of markets in the last snapshot.
func (r *Resolver) MarketCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.markets
}

// TokenCount returns the number of mapped tokens.
func (r *Resolver) TokenCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byToken)
}
