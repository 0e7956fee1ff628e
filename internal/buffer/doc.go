// Package buffer accumulates normalized records between sink flushes.
// Adds are lock-cheap appends; a flush swaps the slice out under the lock
// and writes to the sink outside it. A failed flush drops exactly that
// batch: records are handed to the sink at most once.
package buffer
