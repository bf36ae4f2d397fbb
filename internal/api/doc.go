// Package api provides REST clients for the Polymarket discovery and history
// services.
//
// Gamma (events, markets, search):
//   - https://gamma-api.polymarket.com
//
// CLOB (price history, market metadata):
//   - https://clob.polymarket.com
//
// Live quotes arrive over the market WebSocket channel and are handled by
// package connection, not here.
package api
