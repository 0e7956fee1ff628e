package gamma

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/bademirci/prediction-markets/internal/model"
)

// ToModel converts an API market to the internal model type.
func (m *APIMarket) ToModel() model.Market {
	mkt := model.Market{
		MarketID:       m.ID,
		ConditionID:    m.ConditionID,
		Question:       m.Question,
		Slug:           m.Slug,
		Category:       m.Category,
		Outcomes:       decodeStringArray(m.Outcomes),
		ClobTokenIDs:   decodeStringArray(m.ClobTokenIDs),
		Active:         m.Active,
		Closed:         m.Closed,
		VolumeTotal:    m.VolumeNum,
		Liquidity:      m.LiquidityNum,
		BestBid:        m.BestBid,
		BestAsk:        m.BestAsk,
		LastTradePrice: m.LastTradePrice,
		UpdatedAt:      time.Now().UnixMicro(),
	}

	if len(m.Events) > 0 {
		mkt.EventID = m.Events[0].ID
	}

	if t, ok := parseEndDate(m.EndDate); ok {
		mkt.EndDate = &t
	}

	return mkt
}

// decodeStringArray decodes the API's JSON-array-in-a-string fields, e.g.
// `"[\"Yes\", \"No\"]"`. Malformed or empty input yields nil rather than
// an error; metadata quality varies and a bad field should not drop the
// whole market.
func decodeStringArray(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	var out []string
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil
	}

	// Drop empty entries; they show up in stale markets.
	filtered := out[:0]
	for _, v := range out {
		if v != "" {
			filtered = append(filtered, v)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	return filtered
}

// parseEndDate handles the timestamp formats the API has been seen to emit.
func parseEndDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z0700", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
