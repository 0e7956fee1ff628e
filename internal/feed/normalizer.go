package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bademirci/prediction-markets/internal/model"
)

// MaxDepth is the number of book levels kept per side.
const MaxDepth = 10

// Result holds the records normalized from one stream frame.
type Result struct {
	Trades []model.Trade
	Levels []model.BookLevel
	// Discarded counts events that matched no known shape.
	Discarded int
}

// tradeTags are the explicit event tags that mark a trade.
var tradeTags = map[string]bool{
	"trade":            true,
	"last_trade_price": true,
	"TRADE":            true,
	"trade_executed":   true,
	"execution":        true,
}

// eventWire decodes a single stream event. Raw fields stay undecoded so
// key presence can be distinguished from zero values; the venue's shape
// detection depends on which keys exist, not on their values.
type eventWire struct {
	EventType    string          `json:"event_type"`
	Type         string          `json:"type"`
	AssetID      string          `json:"asset_id"`
	Asset        string          `json:"asset"`
	Market       string          `json:"market"`
	ConditionID  string          `json:"condition_id"`
	Price        json.RawMessage `json:"price"`
	Size         json.RawMessage `json:"size"`
	Side         json.RawMessage `json:"side"`
	Timestamp    json.RawMessage `json:"timestamp"`
	TS           json.RawMessage `json:"ts"`
	Bids         json.RawMessage `json:"bids"`
	Asks         json.RawMessage `json:"asks"`
	ID           json.RawMessage `json:"id"`
	TradeID      json.RawMessage `json:"trade_id"`
	Outcome      string          `json:"outcome"`
	OutcomeIndex json.RawMessage `json:"outcome_index"`
	Maker        string          `json:"maker_address"`
	Taker        string          `json:"taker_address"`
}

// levelWire is one side entry of a book event. Prices and sizes arrive
// as decimal strings.
type levelWire struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// Normalize decodes a raw stream frame into canonical records. Frames may
// be a single event object or an array of them. Events that match no
// known shape are counted in Result.Discarded, not errored; an error is
// returned only when the frame is not valid JSON at all.
func Normalize(data []byte, receivedAt time.Time) (Result, error) {
	var res Result

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return res, nil
	}

	var events []json.RawMessage
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return res, fmt.Errorf("decode frame array: %w", err)
		}
	} else {
		events = []json.RawMessage{trimmed}
	}

	for _, raw := range events {
		normalizeEvent(raw, receivedAt, &res)
	}

	return res, nil
}

func normalizeEvent(raw json.RawMessage, receivedAt time.Time, res *Result) {
	var ev eventWire
	if err := json.Unmarshal(raw, &ev); err != nil {
		res.Discarded++
		return
	}

	tag := ev.EventType
	if tag == "" {
		tag = ev.Type
	}

	hasBook := present(ev.Bids) || present(ev.Asks)
	hasTradeShape := present(ev.Price) && present(ev.Size) && present(ev.Side) && !hasBook

	switch {
	case tradeTags[tag] || hasTradeShape:
		if t, ok := ev.toTrade(receivedAt); ok {
			res.Trades = append(res.Trades, t)
		} else {
			res.Discarded++
		}
	case strings.EqualFold(tag, "book") || hasBook:
		res.Levels = append(res.Levels, ev.toLevels(receivedAt)...)
	default:
		res.Discarded++
	}
}

func (ev *eventWire) toTrade(receivedAt time.Time) (model.Trade, bool) {
	price, okP := flexFloat(ev.Price)
	size, okS := flexFloat(ev.Size)
	if !okP || !okS {
		return model.Trade{}, false
	}

	t := model.Trade{
		ExchangeTS:   ev.exchangeTS(receivedAt),
		LocalTS:      receivedAt.UnixMicro(),
		MarketID:     ev.marketID(),
		TokenID:      ev.tokenID(),
		Side:         model.SideFromString(flexString(ev.Side)),
		Price:        price,
		Size:         size,
		Outcome:      ev.Outcome,
		MakerAddress: ev.Maker,
		TakerAddress: ev.Taker,
		Source:       "ws",
	}

	if idx, ok := flexFloat(ev.OutcomeIndex); ok {
		t.OutcomeIndex = int(idx)
	}

	if id := flexString(ev.TradeID); id != "" {
		t.TradeID = id
	} else {
		t.TradeID = flexString(ev.ID)
	}

	return t, true
}

func (ev *eventWire) toLevels(receivedAt time.Time) []model.BookLevel {
	bids := decodeSide(ev.Bids)
	asks := decodeSide(ev.Asks)

	// Best bid first, best ask first.
	sort.Slice(bids, func(i, j int) bool { return bids[i].px > bids[j].px })
	sort.Slice(asks, func(i, j int) bool { return asks[i].px < asks[j].px })

	depth := len(bids)
	if len(asks) > depth {
		depth = len(asks)
	}
	if depth > MaxDepth {
		depth = MaxDepth
	}

	exchangeTS := ev.exchangeTS(receivedAt)
	localTS := receivedAt.UnixMicro()

	levels := make([]model.BookLevel, 0, depth)
	for i := 0; i < depth; i++ {
		lvl := model.BookLevel{
			ExchangeTS: exchangeTS,
			LocalTS:    localTS,
			MarketID:   ev.marketID(),
			TokenID:    ev.tokenID(),
			Level:      i + 1,
			Source:     "ws",
		}
		if i < len(bids) {
			lvl.BidPx = ptr(bids[i].px)
			lvl.BidSz = ptr(bids[i].sz)
		}
		if i < len(asks) {
			lvl.AskPx = ptr(asks[i].px)
			lvl.AskSz = ptr(asks[i].sz)
		}
		levels = append(levels, lvl)
	}

	return levels
}

// marketID prefers the market field; older event shapes carry only
// condition_id.
func (ev *eventWire) marketID() string {
	if ev.Market != "" {
		return ev.Market
	}
	return ev.ConditionID
}

// tokenID prefers asset_id; some event shapes use asset.
func (ev *eventWire) tokenID() string {
	if ev.AssetID != "" {
		return ev.AssetID
	}
	return ev.Asset
}

// exchangeTS returns the venue timestamp in microseconds, falling back to
// the local receipt time when the event carries none. Venue timestamps
// are milliseconds, as a number or a digit string.
func (ev *eventWire) exchangeTS(receivedAt time.Time) int64 {
	for _, raw := range []json.RawMessage{ev.Timestamp, ev.TS} {
		if ms, ok := flexInt(raw); ok && ms > 0 {
			return ms * 1000
		}
	}
	return receivedAt.UnixMicro()
}

type sideEntry struct {
	px, sz float64
}

func decodeSide(raw json.RawMessage) []sideEntry {
	if !present(raw) {
		return nil
	}

	var wire []levelWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil
	}

	entries := make([]sideEntry, 0, len(wire))
	for _, lw := range wire {
		if lw.Price == "" || lw.Size == "" {
			continue
		}
		px, errP := strconv.ParseFloat(lw.Price, 64)
		sz, errS := strconv.ParseFloat(lw.Size, 64)
		if errP != nil || errS != nil {
			continue
		}
		entries = append(entries, sideEntry{px: px, sz: sz})
	}
	return entries
}

// present reports whether a raw JSON field exists and is not null.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// flexFloat decodes a JSON number or a numeric string.
func flexFloat(raw json.RawMessage) (float64, bool) {
	if !present(raw) {
		return 0, false
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}

	return 0, false
}

// flexInt decodes a JSON integer or a digit string.
func flexInt(raw json.RawMessage) (int64, bool) {
	f, ok := flexFloat(raw)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// flexString decodes a JSON string, or renders a number as its literal.
func flexString(raw json.RawMessage) string {
	if !present(raw) {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	return string(bytes.TrimSpace(raw))
}

func ptr(f float64) *float64 {
	return &f
}
