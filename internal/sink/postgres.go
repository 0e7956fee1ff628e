package sink

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bademirci/prediction-markets/internal/config"
	"github.com/bademirci/prediction-markets/internal/model"
)

// Store is the full persistence surface used by the orchestrator.
type Store interface {
	InsertTrades(ctx context.Context, trades []model.Trade) (int, error)
	InsertBookLevels(ctx context.Context, levels []model.BookLevel) (int, error)
	UpsertMarkets(ctx context.Context, markets []model.Market) (int, error)
	TokensByCategory(ctx context.Context, category string) (map[string]model.Resolution, error)
	Ping(ctx context.Context) error
	Close()
}

// Postgres writes to a Postgres/TimescaleDB database.
type Postgres struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Connect creates a connection pool and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DBConfig, logger *slog.Logger) (*Postgres, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(BuildConnString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	poolCfg.MinConns = int32(cfg.MinConns)
	poolCfg.MaxConns = int32(cfg.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Postgres{pool: pool, logger: logger}, nil
}

// InsertTrades batch-inserts trades. Duplicate trade IDs hit the
// ON CONFLICT clause and are counted out of the returned row count.
func (p *Postgres) InsertTrades(ctx context.Context, trades []model.Trade) (int, error) {
	if len(trades) == 0 {
		return 0, nil
	}

	start := time.Now()

	batch := &pgx.Batch{}
	for _, t := range trades {
		batch.Queue(`
			INSERT INTO trades_raw (
				exchange_ts, local_ts, market_id, condition_id, token_id,
				side, price, size, outcome, outcome_index,
				trade_id, maker_address, taker_address, source
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
			ON CONFLICT (trade_id) DO NOTHING
		`, t.ExchangeTS, t.LocalTS, t.MarketID, t.ConditionID, t.TokenID,
			string(t.Side), t.Price, t.Size, t.Outcome, t.OutcomeIndex,
			t.TradeID, t.MakerAddress, t.TakerAddress, t.Source)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	conflicts := 0
	for range trades {
		ct, err := results.Exec()
		if err != nil {
			return 0, fmt.Errorf("insert trades: %w", err)
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	p.logger.Debug("inserted trades",
		"count", len(trades),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)

	return len(trades) - conflicts, nil
}

// InsertBookLevels batch-inserts book level observations.
func (p *Postgres) InsertBookLevels(ctx context.Context, levels []model.BookLevel) (int, error) {
	if len(levels) == 0 {
		return 0, nil
	}

	start := time.Now()

	batch := &pgx.Batch{}
	for _, l := range levels {
		batch.Queue(`
			INSERT INTO orderbook_levels (
				exchange_ts, local_ts, market_id, condition_id, token_id,
				level, bid_px, bid_sz, ask_px, ask_sz, source
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, l.ExchangeTS, l.LocalTS, l.MarketID, l.ConditionID, l.TokenID,
			l.Level, l.BidPx, l.BidSz, l.AskPx, l.AskSz, l.Source)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range levels {
		if _, err := results.Exec(); err != nil {
			return 0, fmt.Errorf("insert book levels: %w", err)
		}
	}

	p.logger.Debug("inserted book levels",
		"count", len(levels),
		"duration", time.Since(start),
	)

	return len(levels), nil
}

// UpsertMarkets writes market dimension rows, replacing existing rows
// keyed by (condition_id, market_id).
func (p *Postgres) UpsertMarkets(ctx context.Context, markets []model.Market) (int, error) {
	if len(markets) == 0 {
		return 0, nil
	}

	start := time.Now()

	batch := &pgx.Batch{}
	for _, m := range markets {
		batch.Queue(`
			INSERT INTO markets_dim (
				market_id, condition_id, event_id, question, slug,
				category, computed_category, outcomes, clob_token_ids, end_date,
				active, closed, volume_total, liquidity,
				best_bid, best_ask, last_trade_price, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
			ON CONFLICT (condition_id, market_id) DO UPDATE SET
				event_id = EXCLUDED.event_id,
				question = EXCLUDED.question,
				slug = EXCLUDED.slug,
				category = EXCLUDED.category,
				computed_category = EXCLUDED.computed_category,
				outcomes = EXCLUDED.outcomes,
				clob_token_ids = EXCLUDED.clob_token_ids,
				end_date = EXCLUDED.end_date,
				active = EXCLUDED.active,
				closed = EXCLUDED.closed,
				volume_total = EXCLUDED.volume_total,
				liquidity = EXCLUDED.liquidity,
				best_bid = EXCLUDED.best_bid,
				best_ask = EXCLUDED.best_ask,
				last_trade_price = EXCLUDED.last_trade_price,
				updated_at = EXCLUDED.updated_at
		`, m.MarketID, m.ConditionID, m.EventID, m.Question, m.Slug,
			m.Category, m.ComputedCategory, m.Outcomes, m.ClobTokenIDs, m.EndDate,
			m.Active, m.Closed, m.VolumeTotal, m.Liquidity,
			m.BestBid, m.BestAsk, m.LastTradePrice, m.UpdatedAt)
	}

	results := p.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range markets {
		if _, err := results.Exec(); err != nil {
			return 0, fmt.Errorf("upsert markets: %w", err)
		}
	}

	p.logger.Debug("upserted markets",
		"count", len(markets),
		"duration", time.Since(start),
	)

	return len(markets), nil
}

// TokensByCategory returns the token→market resolutions for every market
// whose computed category matches. Used to restrict ingestion to one
// category from previously persisted metadata.
func (p *Postgres) TokensByCategory(ctx context.Context, category string) (map[string]model.Resolution, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT condition_id, market_id, unnest(clob_token_ids)
		FROM markets_dim
		WHERE computed_category = $1
		  AND cardinality(clob_token_ids) > 0
	`, category)
	if err != nil {
		return nil, fmt.Errorf("query tokens by category: %w", err)
	}
	defer rows.Close()

	out := make(map[string]model.Resolution)
	for rows.Next() {
		var conditionID, marketID, tokenID string
		if err := rows.Scan(&conditionID, &marketID, &tokenID); err != nil {
			return nil, fmt.Errorf("scan token row: %w", err)
		}
		out[tokenID] = model.Resolution{
			ConditionID:      conditionID,
			MarketID:         marketID,
			ComputedCategory: category,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate token rows: %w", err)
	}

	return out, nil
}

// Ping verifies the connection is healthy.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Close closes the connection pool.
func (p *Postgres) Close() {
	p.pool.Close()
}
