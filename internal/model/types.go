package model

import (
	"strings"
	"time"
)

// Side is the taker side of a trade as reported by the venue.
type Side string

const (
	SideBuy     Side = "BUY"
	SideSell    Side = "SELL"
	SideUnknown Side = "UNKNOWN"
)

// SideFromString normalizes a venue-reported side string. Anything that is not
// a recognizable buy or sell maps to SideUnknown.
func SideFromString(s string) Side {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BUY":
		return SideBuy
	case "SELL":
		return SideSell
	default:
		return SideUnknown
	}
}

// -----------------------------------------------------------------------------
// Time-Series Types
// -----------------------------------------------------------------------------

// Trade represents one executed transaction. Trades are immutable once
// constructed: the normalizer creates them, enrichment fills identifier gaps,
// and the buffer coordinator consumes them exactly once.
type Trade struct {
	ExchangeTS   int64   // Venue-reported event time (µs since epoch)
	LocalTS      int64   // Receipt time at the ingester (µs since epoch)
	MarketID     string  // Venue market identifier
	ConditionID  string  // CLOB condition identifier
	TokenID      string  // Tradable instrument (outcome token) identifier
	Side         Side    // BUY, SELL, or UNKNOWN
	Price        float64 // Venue units, typically 0..1
	Size         float64 // Non-negative
	Outcome      string  // Outcome label (e.g. "Yes")
	OutcomeIndex int     // Index into the market's outcomes
	TradeID      string  // Venue-assigned identifier, dedup key at the sink
	MakerAddress string  // May be empty
	TakerAddress string  // May be empty
	Source       string  // Provenance tag (e.g. "ws")
}

// LatencyMicros returns LocalTS - ExchangeTS. Negative values are reported
// as-is when the venue clock runs ahead of ours.
func (t Trade) LatencyMicros() int64 {
	return t.LocalTS - t.ExchangeTS
}

// BookLevel is one depth rank of a side-aggregated orderbook snapshot for one
// instrument at one observed time. A rank may have a bid with no matching ask
// and vice versa, so all four measured fields are nullable.
type BookLevel struct {
	ExchangeTS  int64
	LocalTS     int64
	MarketID    string
	ConditionID string
	TokenID     string
	Level       int // 1-based rank, bounded by the normalizer's max depth
	BidPx       *float64
	BidSz       *float64
	AskPx       *float64
	AskSz       *float64
	Source      string
}

// Empty reports whether the level carries no data on either side. Fully empty
// levels are dropped before buffering.
func (l BookLevel) Empty() bool {
	return l.BidPx == nil && l.BidSz == nil && l.AskPx == nil && l.AskSz == nil
}

// -----------------------------------------------------------------------------
// Metadata Types
// -----------------------------------------------------------------------------

// Market is one metadata dimension row. Rows are superseded wholesale on each
// metadata sync; the sink's replace-on-key write semantics handle dedup.
type Market struct {
	MarketID         string
	ConditionID      string
	EventID          string
	Question         string
	Slug             string
	Category         string // Venue-assigned
	ComputedCategory string // Locally reclassified (e.g. heuristic Sports detection)
	Outcomes         []string
	ClobTokenIDs     []string // Tradable instruments belonging to this market
	EndDate          *time.Time
	Active           bool
	Closed           bool
	VolumeTotal      float64
	Liquidity        float64
	BestBid          float64
	BestAsk          float64
	LastTradePrice   float64
	UpdatedAt        int64 // µs since epoch
}

// Resolution is the value side of the token→market resolution table.
type Resolution struct {
	ConditionID      string
	MarketID         string
	ComputedCategory string
}
