package ingest

import (
	"github.com/google/uuid"

	"github.com/bademirci/prediction-markets/internal/model"
)

// enrichTrade fills identity gaps on a normalized trade from the
// resolution table. The stream's "market" field holds the condition ID,
// so MarketID is replaced with the venue market ID when it is empty or
// still carrying the condition ID. Enrichment is idempotent; a resolver
// miss leaves the trade as-is.
func (i *Ingestion) enrichTrade(t *model.Trade) {
	if res, ok := i.resolver.Resolve(t.TokenID); ok {
		t.ConditionID = res.ConditionID
		if t.MarketID == "" || t.MarketID == res.ConditionID {
			t.MarketID = res.MarketID
		}
	} else {
		i.resolveMisses.Add(1)
	}

	if t.TradeID == "" {
		t.TradeID = uuid.NewString()
	}
}

// enrichLevel applies the same identity fill to a book level.
func (i *Ingestion) enrichLevel(l *model.BookLevel) {
	if res, ok := i.resolver.Resolve(l.TokenID); ok {
		l.ConditionID = res.ConditionID
		if l.MarketID == "" || l.MarketID == res.ConditionID {
			l.MarketID = res.MarketID
		}
	} else {
		i.resolveMisses.Add(1)
	}
}

// OnTrades implements feed.Handler.
func (i *Ingestion) OnTrades(trades []model.Trade) {
	for idx := range trades {
		i.enrichTrade(&trades[idx])
	}
	i.buffer.AddTrades(trades)
	i.tradesReceived.Add(int64(len(trades)))
	i.metrics.TradesReceived.Add(float64(len(trades)))
}

// OnLevels implements feed.Handler.
func (i *Ingestion) OnLevels(levels []model.BookLevel) {
	for idx := range levels {
		i.enrichLevel(&levels[idx])
	}
	i.buffer.AddLevels(levels)
	i.levelsReceived.Add(int64(len(levels)))
	i.metrics.LevelsReceived.Add(float64(len(levels)))
}
