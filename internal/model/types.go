package model

import (
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Live Types
// -----------------------------------------------------------------------------

// Quote is the latest known state of one instrument.
// Each field is updated independently; a nil field has never been observed.
type Quote struct {
	BestBid        *float64 `json:"best_bid,omitempty"`
	BestAsk        *float64 `json:"best_ask,omitempty"`
	LastTradePrice *float64 `json:"last_trade_price,omitempty"`
}

// QuoteUpdate is a partial Quote for a single instrument produced from one frame.
type QuoteUpdate struct {
	AssetID string
	Quote
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// IsEmpty reports whether no field is set.
func (q Quote) IsEmpty() bool {
	return q.BestBid == nil && q.BestAsk == nil && q.LastTradePrice == nil
}

// Clone returns a deep copy that shares no pointers with q.
func (q Quote) Clone() Quote {
	return Quote{
		BestBid:        clonePtr(q.BestBid),
		BestAsk:        clonePtr(q.BestAsk),
		LastTradePrice: clonePtr(q.LastTradePrice),
	}
}

// Merge overlays the set fields of p onto q. Fields absent from p are kept.
func (q Quote) Merge(p Quote) Quote {
	out := q.Clone()
	if p.BestBid != nil {
		out.BestBid = clonePtr(p.BestBid)
	}
	if p.BestAsk != nil {
		out.BestAsk = clonePtr(p.BestAsk)
	}
	if p.LastTradePrice != nil {
		out.LastTradePrice = clonePtr(p.LastTradePrice)
	}
	return out
}

// Spread returns ask - bid when both sides are known.
func (q Quote) Spread() (float64, bool) {
	if q.BestBid == nil || q.BestAsk == nil {
		return 0, false
	}
	return *q.BestAsk - *q.BestBid, true
}

func clonePtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// -----------------------------------------------------------------------------
// Discovery Types
// -----------------------------------------------------------------------------

// Event groups one or more markets under a common question (e.g. an election).
type Event struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Volume      float64  `json:"volume"`
	Liquidity   float64  `json:"liquidity"`
	Markets     []Market `json:"markets"`
}

// Market is a single question within an event. TokenIDs, Outcomes and
// OutcomePrices are parallel: TokenIDs[i] trades Outcomes[i].
type Market struct {
	ID            string    `json:"id"`
	Question      string    `json:"question"`
	TokenIDs      []string  `json:"token_ids"`
	Outcomes      []string  `json:"outcomes"`
	OutcomePrices []float64 `json:"outcome_prices"`
	Volume        float64   `json:"volume"`
	Liquidity     float64   `json:"liquidity"`
}

// Instrument describes one tradable outcome token.
type Instrument struct {
	TokenID    string  `json:"token_id"`
	EventSlug  string  `json:"event_slug"`
	EventTitle string  `json:"event_title"`
	Question   string  `json:"question"`
	Outcome    string  `json:"outcome"`
	Volume     float64 `json:"volume"` // market volume, shared by its outcomes
}

// -----------------------------------------------------------------------------
// History Types
// -----------------------------------------------------------------------------

// PricePoint is one sample of a historical price series.
type PricePoint struct {
	Timestamp time.Time `json:"t"`
	Price     float64   `json:"p"`
}

// Interval selects the time range of a price history request.
type Interval string

const (
	IntervalDay  Interval = "1d"  // short recent window
	IntervalWeek Interval = "1w"  // medium window
	IntervalMax  Interval = "max" // full history
)

// ParseInterval validates an interval selector. "all" is accepted as an alias
// for the one week window.
func ParseInterval(s string) (Interval, error) {
	switch s {
	case "", string(IntervalDay):
		return IntervalDay, nil
	case string(IntervalWeek), "all":
		return IntervalWeek, nil
	case string(IntervalMax):
		return IntervalMax, nil
	}
	return "", fmt.Errorf("unknown interval %q", s)
}
