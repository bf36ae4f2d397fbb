// Package market implements the discovery catalog.
//
// The Catalog:
//   - Fetches the most popular open events from the Gamma API on start
//   - Refreshes them on a fixed interval
//   - Drops placeholder markets (generic "Option A" / "Player 1" outcomes)
//   - Indexes every outcome token to its event, question and outcome label
//   - Announces newly discovered top tokens so the stream can subscribe them
package market
