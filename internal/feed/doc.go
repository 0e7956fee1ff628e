// Package feed manages the sharded WebSocket connections to the market
// data stream. Each connection subscribes to a partition of token IDs,
// reconnects on its own with doubling backoff, and hands normalized
// records to a Handler. Normalization is tolerant: the venue emits
// several event shapes and tag spellings, and unrecognized frames are
// counted and dropped rather than failing the stream.
package feed
