// Package history fetches historical price series for instruments from the
// CLOB API, one at a time or as a bounded concurrent batch.
package history
