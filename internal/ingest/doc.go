// Package ingest wires the pipeline together: metadata sync, token
// partitioning, stream connections, enrichment, buffering, and periodic
// flushes to the sink. It owns every background loop; the other packages
// stay passive.
package ingest
