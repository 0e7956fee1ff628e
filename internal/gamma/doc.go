// Package gamma provides a client for the Polymarket Gamma metadata API
// and the CLOB REST API. It handles pagination, retries with jittered
// backoff, and decoding of the API's stringified JSON array fields.
package gamma
