package gamma

// APIMarket is the wire format for a market returned by the Gamma API.
//
// Outcomes and ClobTokenIDs arrive as JSON arrays serialized into strings,
// e.g. `"[\"Yes\", \"No\"]"`. Use ToModel to decode them.
type APIMarket struct {
	ID             string     `json:"id"`
	ConditionID    string     `json:"conditionId"`
	Question       string     `json:"question"`
	Slug           string     `json:"slug"`
	Category       string     `json:"category"`
	Outcomes       string     `json:"outcomes"`
	ClobTokenIDs   string     `json:"clobTokenIds"`
	EndDate        string     `json:"endDate"`
	Active         bool       `json:"active"`
	Closed         bool       `json:"closed"`
	VolumeNum      float64    `json:"volumeNum"`
	LiquidityNum   float64    `json:"liquidityNum"`
	BestBid        float64    `json:"bestBid"`
	BestAsk        float64    `json:"bestAsk"`
	LastTradePrice float64    `json:"lastTradePrice"`
	Events         []APIEvent `json:"events"`
}

// APIEvent is the event a market belongs to.
type APIEvent struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug"`
}

// MarketsOptions control a Markets page request.
type MarketsOptions struct {
	Limit      int
	Offset     int
	ActiveOnly bool
}

// BookLevel is one price level in a CLOB order book response.
type BookLevel struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

// BookResponse is the CLOB API order book for a single token.
type BookResponse struct {
	Market    string      `json:"market"`
	AssetID   string      `json:"asset_id"`
	Timestamp string      `json:"timestamp"`
	Bids      []BookLevel `json:"bids"`
	Asks      []BookLevel `json:"asks"`
}
