// Package resolver maintains the token-to-market resolution table used to
// enrich streamed trades and book updates. The table is rebuilt wholesale
// from metadata API snapshots; lookups are lock-protected and cheap.
package resolver
