package gamma

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Book fetches the current order book for a token from the CLOB API.
func (c *Client) Book(ctx context.Context, tokenID string) (*BookResponse, error) {
	query := url.Values{}
	query.Set("token_id", tokenID)

	var resp BookResponse
	if err := c.getBook(ctx, "/book", query, &resp); err != nil {
		return nil, fmt.Errorf("get book %s: %w", tokenID, err)
	}

	return &resp, nil
}

// BestBid returns the highest bid price in the book, or 0 if there are no bids.
func (b *BookResponse) BestBid() float64 {
	best := 0.0
	for _, lvl := range b.Bids {
		px, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil {
			continue
		}
		if px > best {
			best = px
		}
	}
	return best
}

// BestAsk returns the lowest ask price in the book, or 0 if there are no asks.
func (b *BookResponse) BestAsk() float64 {
	best := 0.0
	for _, lvl := range b.Asks {
		px, err := strconv.ParseFloat(lvl.Price, 64)
		if err != nil {
			continue
		}
		if best == 0 || px < best {
			best = px
		}
	}
	return best
}
