package router

import (
	"encoding/json"

	"github.com/rickgao/polymarket-live/internal/model"
)

// Event types carried in the event_type (or type) discriminator.
const (
	EventBook           = "book"
	EventPriceChange    = "price_change"
	EventLastTradePrice = "last_trade_price"
)

// Discriminator and identifier keys, tried in order.
var (
	typeKeys    = []string{"event_type", "type"}
	assetIDKeys = []string{"asset_id", "token_id"}
	bidKeys     = []string{"bids", "buys"}
	askKeys     = []string{"asks", "sells"}
)

// Frame is one decoded inbound object. Values stay raw so that each field can
// be parsed, and fail, on its own.
type Frame map[string]json.RawMessage

// Sink receives normalized updates.
type Sink interface {
	Apply(updates []model.QuoteUpdate)
}

// Stats contains runtime statistics.
type Stats struct {
	MessagesReceived int64 `json:"messages_received"` // transport messages handed to the router
	DecodeErrors     int64 `json:"decode_errors"`     // messages that were not JSON objects or arrays
	FramesIgnored    int64 `json:"frames_ignored"`    // frames that produced no update
	UpdatesApplied   int64 `json:"updates_applied"`   // per-instrument updates passed to the sink
}

// bookLevelObject is the object form of an order book level.
type bookLevelObject struct {
	Price json.RawMessage `json:"price"`
	Size  json.RawMessage `json:"size"`
}
