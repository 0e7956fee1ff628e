package gamma

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Markets fetches a single page of markets.
func (c *Client) Markets(ctx context.Context, opts MarketsOptions) ([]APIMarket, error) {
	query := url.Values{}

	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.ActiveOnly {
		query.Set("active", "true")
		query.Set("closed", "false")
	}

	var page []APIMarket
	if err := c.get(ctx, "/markets", query, &page); err != nil {
		return nil, fmt.Errorf("get markets: %w", err)
	}

	return page, nil
}

// AllMarkets fetches every active market by paginating with limit/offset.
// pageSize controls the page request size; maxMarkets caps the total.
func (c *Client) AllMarkets(ctx context.Context, pageSize, maxMarkets int) ([]APIMarket, error) {
	var all []APIMarket

	for offset := 0; len(all) < maxMarkets; offset += pageSize {
		page, err := c.Markets(ctx, MarketsOptions{
			Limit:      pageSize,
			Offset:     offset,
			ActiveOnly: true,
		})
		if err != nil {
			return nil, err
		}

		all = append(all, page...)

		c.logger.Debug("fetched markets page",
			"offset", offset,
			"count", len(page),
			"total", len(all),
		)

		// A short page means we've reached the end.
		if len(page) < pageSize {
			break
		}
	}

	if len(all) > maxMarkets {
		all = all[:maxMarkets]
	}

	return all, nil
}
