// Package model defines the canonical record types shared across the pipeline.
//
// Records carry two timestamps: the venue-reported event time (ExchangeTS) and
// the local receipt time at the ingester (LocalTS), both in microseconds since
// epoch. The difference between them is the feed latency and may be negative
// when clocks disagree.
package model
