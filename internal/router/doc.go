// Package router turns raw market channel messages into quote updates.
//
// Recognized event types:
//   - book: full order book snapshot, top of book only
//   - price_change: best_bid / best_ask, top level or batched in price_changes
//   - last_trade_price: price of the latest execution
//
// Anything else (keepalive text, acks, unknown types, malformed fields) is
// dropped without surfacing an error to the caller.
package router
