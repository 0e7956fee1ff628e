package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/bademirci/prediction-markets/internal/config"
	"github.com/bademirci/prediction-markets/internal/gamma"
	"github.com/bademirci/prediction-markets/internal/model"
)

type fakeSource struct {
	markets []gamma.APIMarket
	err     error
}

func (f *fakeSource) AllMarkets(_ context.Context, _, _ int) ([]gamma.APIMarket, error) {
	return f.markets, f.err
}

type fakeStore struct {
	trades    []model.Trade
	levels    []model.BookLevel
	markets   []model.Market
	byCat     map[string]model.Resolution
	byCatErr  error
	catCalled int
}

func (s *fakeStore) InsertTrades(_ context.Context, trades []model.Trade) (int, error) {
	s.trades = append(s.trades, trades...)
	return len(trades), nil
}

func (s *fakeStore) InsertBookLevels(_ context.Context, levels []model.BookLevel) (int, error) {
	s.levels = append(s.levels, levels...)
	return len(levels), nil
}

func (s *fakeStore) UpsertMarkets(_ context.Context, markets []model.Market) (int, error) {
	s.markets = append(s.markets, markets...)
	return len(markets), nil
}

func (s *fakeStore) TokensByCategory(_ context.Context, _ string) (map[string]model.Resolution, error) {
	s.catCalled++
	return s.byCat, s.byCatErr
}

func (s *fakeStore) Ping(context.Context) error { return nil }
func (s *fakeStore) Close()                     {}

func testConfig() *config.IngesterConfig {
	return &config.IngesterConfig{
		Gamma: config.GammaConfig{PageSize: 100, MaxMarkets: 1000},
	}
}

func newTestIngestion(source *fakeSource, store *fakeStore) *Ingestion {
	return New(testConfig(), source, store, nil, nil)
}

func TestEnrichTrade(t *testing.T) {
	i := newTestIngestion(&fakeSource{}, &fakeStore{})
	i.resolver.Register("tok1", model.Resolution{
		ConditionID: "0xcond", MarketID: "516710", ComputedCategory: "Sports",
	})

	// The stream puts the condition ID in the market field.
	tr := model.Trade{TokenID: "tok1", MarketID: "0xcond"}
	i.enrichTrade(&tr)

	if tr.ConditionID != "0xcond" {
		t.Errorf("ConditionID = %q, want 0xcond", tr.ConditionID)
	}
	if tr.MarketID != "516710" {
		t.Errorf("MarketID = %q, want venue market ID", tr.MarketID)
	}
	if tr.TradeID == "" {
		t.Error("missing TradeID should be synthesized")
	}

	// Idempotent: enriching again changes nothing.
	id := tr.TradeID
	i.enrichTrade(&tr)
	if tr.MarketID != "516710" || tr.TradeID != id {
		t.Errorf("second enrich changed trade: %+v", tr)
	}
}

func TestEnrichTrade_DoesNotClobberMarketID(t *testing.T) {
	i := newTestIngestion(&fakeSource{}, &fakeStore{})
	i.resolver.Register("tok1", model.Resolution{ConditionID: "0xcond", MarketID: "516710"})

	tr := model.Trade{TokenID: "tok1", MarketID: "custom-id", TradeID: "t1"}
	i.enrichTrade(&tr)

	if tr.MarketID != "custom-id" {
		t.Errorf("MarketID = %q, want pre-existing value kept", tr.MarketID)
	}
	if tr.ConditionID != "0xcond" {
		t.Errorf("ConditionID = %q, want 0xcond", tr.ConditionID)
	}
}

func TestEnrichTrade_ResolverMissIsNonFatal(t *testing.T) {
	i := newTestIngestion(&fakeSource{}, &fakeStore{})

	tr := model.Trade{TokenID: "unknown", MarketID: "0xorig"}
	i.enrichTrade(&tr)

	if tr.MarketID != "0xorig" || tr.ConditionID != "" {
		t.Errorf("miss should leave identity untouched: %+v", tr)
	}
	if tr.TradeID == "" {
		t.Error("TradeID should still be synthesized on a miss")
	}
	if i.resolveMisses.Load() != 1 {
		t.Errorf("resolveMisses = %d, want 1", i.resolveMisses.Load())
	}
}

func TestOnTrades_EnrichesAndBuffers(t *testing.T) {
	store := &fakeStore{}
	i := newTestIngestion(&fakeSource{}, store)
	i.resolver.Register("tok1", model.Resolution{ConditionID: "0xc", MarketID: "1"})

	i.OnTrades([]model.Trade{{TokenID: "tok1", TradeID: "t1"}})

	if got := i.tradesReceived.Load(); got != 1 {
		t.Errorf("tradesReceived = %d, want 1", got)
	}

	n, err := i.buffer.Flush(context.Background(), "trades")
	if err != nil || n != 1 {
		t.Fatalf("Flush = %d, %v; want 1 row", n, err)
	}
	if store.trades[0].ConditionID != "0xc" {
		t.Errorf("buffered trade not enriched: %+v", store.trades[0])
	}
}

func TestRun_InitialSyncFailureIsFatal(t *testing.T) {
	i := newTestIngestion(&fakeSource{err: errors.New("api down")}, &fakeStore{})
	if err := i.Run(context.Background()); err == nil {
		t.Error("Run() = nil, want initial sync error")
	}
}

func TestRun_ZeroTokensExitsCleanly(t *testing.T) {
	store := &fakeStore{}
	i := newTestIngestion(&fakeSource{}, store)

	if err := i.Run(context.Background()); err != nil {
		t.Errorf("Run() = %v, want nil for empty token universe", err)
	}
}

func TestTokenUniverse_CategoryFilter(t *testing.T) {
	store := &fakeStore{byCat: map[string]model.Resolution{
		"t2": {ConditionID: "0x2", MarketID: "2", ComputedCategory: "Sports"},
		"t1": {ConditionID: "0x1", MarketID: "1", ComputedCategory: "Sports"},
	}}
	cfg := testConfig()
	cfg.Feed.CategoryFilter = "Sports"

	i := New(cfg, &fakeSource{}, store, nil, nil)
	tokens := i.tokenUniverse(context.Background())

	if len(tokens) != 2 || tokens[0] != "t1" || tokens[1] != "t2" {
		t.Errorf("tokens = %v, want sorted [t1 t2]", tokens)
	}

	// Filter rows must be resolvable for enrichment.
	res, ok := i.resolver.Resolve("t1")
	if !ok || res.MarketID != "1" {
		t.Errorf("Resolve(t1) = %+v, %v; want registered row", res, ok)
	}
}

func TestTokenUniverse_FilterFallsBackToResolver(t *testing.T) {
	store := &fakeStore{byCatErr: errors.New("query failed")}
	cfg := testConfig()
	cfg.Feed.CategoryFilter = "Sports"

	i := New(cfg, &fakeSource{}, store, nil, nil)
	i.resolver.Register("tokA", model.Resolution{ConditionID: "0xa", MarketID: "a"})

	tokens := i.tokenUniverse(context.Background())
	if len(tokens) != 1 || tokens[0] != "tokA" {
		t.Errorf("tokens = %v, want resolver fallback [tokA]", tokens)
	}
}
