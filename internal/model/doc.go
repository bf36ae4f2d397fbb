// Package model defines shared data types used across the live quote client.
//
// Conventions:
//   - Prices: float64 probabilities in [0, 1] as quoted by the venue
//   - Optional quote fields are pointers; nil means "unknown", never zero
//   - IDs: string token ids (InstrumentId) as issued by the CLOB
package model
