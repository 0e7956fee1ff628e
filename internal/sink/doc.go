// Package sink persists trades, book levels, and market metadata to
// Postgres/TimescaleDB. Batch inserts use pgx.Batch; trades carry an
// ON CONFLICT DO NOTHING on trade_id so replayed events dedupe at the
// database rather than in memory.
package sink
