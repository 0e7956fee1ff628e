package resolver

import (
	"context"
	"errors"
	"reflect"
	"testing"

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

type captureSink struct {
	markets []model.Market
}

func (c *captureSink) AddMarkets(markets []model.Market) {
	c.markets = append(c.markets, markets...)
}

func TestSync_BuildsTable(t *testing.T) {
	src := &fakeSource{markets: []gamma.APIMarket{
		{
			ID:           "100",
			ConditionID:  "0xaaa",
			Question:     "Will it rain tomorrow?",
			Category:     "Weather",
			ClobTokenIDs: `["t1", "t2"]`,
			Outcomes:     `["Yes", "No"]`,
		},
		{
			ID:           "200",
			ConditionID:  "0xbbb",
			Question:     "Arsenal vs Chelsea: who wins?",
			ClobTokenIDs: `["t3"]`,
		},
	}}
	sink := &captureSink{}

	r := New(src, sink, Config{PageSize: 100, MaxMarkets: 1000}, nil)

	n, err := r.Sync(context.Background())
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Sync() = %d markets, want 2", n)
	}
	if r.TokenCount() != 3 {
		t.Errorf("TokenCount() = %d, want 3", r.TokenCount())
	}

	res, ok := r.Resolve("t2")
	if !ok {
		t.Fatal("Resolve(t2) not found")
	}
	if res.ConditionID != "0xaaa" || res.MarketID != "100" {
		t.Errorf("Resolve(t2) = %+v, want condition 0xaaa market 100", res)
	}
	if res.ComputedCategory != "Weather" {
		t.Errorf("ComputedCategory = %q, want Weather", res.ComputedCategory)
	}

	// " vs " keyword makes the second market Sports.
	res, _ = r.Resolve("t3")
	if res.ComputedCategory != CategorySports {
		t.Errorf("Resolve(t3).ComputedCategory = %q, want Sports", res.ComputedCategory)
	}

	if len(sink.markets) != 2 {
		t.Errorf("sink received %d markets, want 2", len(sink.markets))
	}
}

func TestSync_ReplacesTableWholesale(t *testing.T) {
	src := &fakeSource{markets: []gamma.APIMarket{
		{ID: "100", ConditionID: "0xaaa", ClobTokenIDs: `["t1"]`},
	}}
	r := New(src, nil, Config{}, nil)

	if _, err := r.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	// Second snapshot drops t1 and introduces t9.
	src.markets = []gamma.APIMarket{
		{ID: "900", ConditionID: "0xccc", ClobTokenIDs: `["t9"]`},
	}
	if _, err := r.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if _, ok := r.Resolve("t1"); ok {
		t.Error("t1 should be gone after wholesale rebuild")
	}
	if _, ok := r.Resolve("t9"); !ok {
		t.Error("t9 should be present after rebuild")
	}
}

func TestSync_ErrorKeepsOldTable(t *testing.T) {
	src := &fakeSource{markets: []gamma.APIMarket{
		{ID: "100", ConditionID: "0xaaa", ClobTokenIDs: `["t1"]`},
	}}
	r := New(src, nil, Config{}, nil)
	if _, err := r.Sync(context.Background()); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	src.err = errors.New("api down")
	if _, err := r.Sync(context.Background()); err == nil {
		t.Fatal("Sync() = nil error, want failure")
	}

	if _, ok := r.Resolve("t1"); !ok {
		t.Error("failed sync must not clear the existing table")
	}
}

func TestRegisterAndTokenIDs(t *testing.T) {
	r := New(&fakeSource{}, nil, Config{}, nil)
	r.Register("zz", model.Resolution{ConditionID: "0x1", MarketID: "1"})
	r.Register("aa", model.Resolution{ConditionID: "0x2", MarketID: "2"})

	if got, want := r.TokenIDs(), []string{"aa", "zz"}; !reflect.DeepEqual(got, want) {
		t.Errorf("TokenIDs() = %v, want %v", got, want)
	}
}

func TestComputeCategory(t *testing.T) {
	tests := []struct {
		name      string
		market    model.Market
		overrides map[string]string
		want      string
	}{
		{
			name:   "override wins",
			market: model.Market{MarketID: "5", Question: "NBA champion?", Category: "Sports"},
			overrides: map[string]string{
				"5": "Politics",
			},
			want: "Politics",
		},
		{
			name:   "venue sports label",
			market: model.Market{Category: "sports", Question: "Anything"},
			want:   CategorySports,
		},
		{
			name:   "keyword in question",
			market: model.Market{Question: "Who wins the Champions League final?"},
			want:   CategorySports,
		},
		{
			name:   "keyword in slug",
			market: model.Market{Question: "Race winner?", Slug: "monaco-grand-prix-winner"},
			want:   CategorySports,
		},
		{
			name:   "venue category passthrough",
			market: model.Market{Question: "Fed rate hike in March?", Category: "Economics"},
			want:   "Economics",
		},
		{
			name:   "fallback",
			market: model.Market{Question: "Will it happen?"},
			want:   CategoryOther,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ComputeCategory(tt.market, tt.overrides); got != tt.want {
				t.Errorf("ComputeCategory() = %q, want %q", got, tt.want)
			}
		})
	}
}
