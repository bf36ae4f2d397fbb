package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/rickgao/polymarket-live/internal/model"
)

// ErrNotJSON is returned by Decode for payloads that are neither a JSON object
// nor an array, such as text keepalives.
var ErrNotJSON = errors.New("frame is not a json object or array")

// Decode parses one transport message into frames. A single object yields one
// frame; an array yields one frame per object element, skipping the rest.
// Empty or whitespace-only payloads yield no frames and no error.
func Decode(data []byte) ([]Frame, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '{':
		var f Frame
		if err := json.Unmarshal(trimmed, &f); err != nil {
			return nil, fmt.Errorf("decode object: %w", err)
		}
		return []Frame{f}, nil

	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(trimmed, &elems); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		frames := make([]Frame, 0, len(elems))
		for _, elem := range elems {
			var f Frame
			if json.Unmarshal(elem, &f) != nil || f == nil {
				continue
			}
			frames = append(frames, f)
		}
		return frames, nil
	}

	return nil, ErrNotJSON
}

// Normalize maps one frame to zero or more quote updates. Unknown event types,
// frames without an instrument id and fields that fail coercion produce
// nothing; a bad field never discards the good fields next to it.
func Normalize(f Frame) []model.QuoteUpdate {
	switch f.EventType() {
	case EventBook:
		return normalizeBook(f)
	case EventPriceChange:
		return normalizePriceChange(f)
	case EventLastTradePrice:
		return normalizeLastTrade(f)
	}
	return nil
}

// EventType returns the first non-empty discriminator.
func (f Frame) EventType() string {
	for _, key := range typeKeys {
		if s, ok := f.str(key); ok && s != "" {
			return s
		}
	}
	return ""
}

// AssetID returns the instrument id carried by the frame.
func (f Frame) AssetID() (string, bool) {
	for _, key := range assetIDKeys {
		if id, ok := f.id(key); ok {
			return id, true
		}
	}
	return "", false
}

func normalizeBook(f Frame) []model.QuoteUpdate {
	id, ok := f.AssetID()
	if !ok {
		return nil
	}

	var q model.Quote
	if p, ok := f.topOfBook(bidKeys); ok {
		q.BestBid = model.Float(p)
	}
	if p, ok := f.topOfBook(askKeys); ok {
		q.BestAsk = model.Float(p)
	}
	return single(id, q)
}

func normalizePriceChange(f Frame) []model.QuoteUpdate {
	frameID, hasFrameID := f.AssetID()

	var updates []model.QuoteUpdate
	if hasFrameID {
		updates = append(updates, single(frameID, bestPrices(f))...)
	}

	var entries []json.RawMessage
	if raw, ok := f["price_changes"]; ok && json.Unmarshal(raw, &entries) == nil {
		for _, raw := range entries {
			var entry Frame
			if json.Unmarshal(raw, &entry) != nil || entry == nil {
				continue
			}
			id, ok := entry.AssetID()
			if !ok {
				if !hasFrameID {
					continue
				}
				id = frameID
			}
			updates = append(updates, single(id, bestPrices(entry))...)
		}
	}

	return updates
}

func normalizeLastTrade(f Frame) []model.QuoteUpdate {
	id, ok := f.AssetID()
	if !ok {
		return nil
	}

	var q model.Quote
	if p, ok := f.price("price"); ok {
		q.LastTradePrice = model.Float(p)
	}
	return single(id, q)
}

// bestPrices reads best_bid / best_ask carried directly on a frame.
func bestPrices(f Frame) model.Quote {
	var q model.Quote
	if p, ok := f.price("best_bid"); ok {
		q.BestBid = model.Float(p)
	}
	if p, ok := f.price("best_ask"); ok {
		q.BestAsk = model.Float(p)
	}
	return q
}

func single(id string, q model.Quote) []model.QuoteUpdate {
	if q.IsEmpty() {
		return nil
	}
	return []model.QuoteUpdate{{AssetID: id, Quote: q}}
}

// topOfBook returns the price of the first level under the first present key.
// An empty or malformed side reports ok=false and leaves the field untouched.
func (f Frame) topOfBook(keys []string) (float64, bool) {
	for _, key := range keys {
		raw, ok := f[key]
		if !ok {
			continue
		}
		var levels []json.RawMessage
		if json.Unmarshal(raw, &levels) != nil || len(levels) == 0 {
			return 0, false
		}
		return levelPrice(levels[0])
	}
	return 0, false
}

// levelPrice tries each known level shape in turn: {"price": p, "size": s}
// and then [p, s].
func levelPrice(raw json.RawMessage) (float64, bool) {
	var obj bookLevelObject
	if json.Unmarshal(raw, &obj) == nil && obj.Price != nil {
		return parsePrice(obj.Price)
	}

	var arr []json.RawMessage
	if json.Unmarshal(raw, &arr) == nil && len(arr) >= 2 {
		return parsePrice(arr[0])
	}

	return 0, false
}

func (f Frame) price(key string) (float64, bool) {
	raw, ok := f[key]
	if !ok {
		return 0, false
	}
	return parsePrice(raw)
}

func (f Frame) str(key string) (string, bool) {
	raw, ok := f[key]
	if !ok {
		return "", false
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

// id reads an identifier that may be a JSON string or a bare number.
func (f Frame) id(key string) (string, bool) {
	if s, ok := f.str(key); ok {
		return s, s != ""
	}
	raw := bytes.TrimSpace(f[key])
	if len(raw) == 0 {
		return "", false
	}
	var n json.Number
	if json.Unmarshal(raw, &n) != nil {
		return "", false
	}
	return n.String(), true
}

// parsePrice coerces a JSON number or numeric string to float64. NaN, Inf,
// empty strings and non-numeric values are rejected.
func parsePrice(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, false
		}
		text = string(bytes.TrimSpace([]byte(s)))
	}
	if text == "" || text == "null" {
		return 0, false
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, false
	}
	v, _ := d.Float64()
	return v, true
}
