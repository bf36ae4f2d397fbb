package api

import (
	"github.com/shopspring/decimal"

	"github.com/rickgao/polymarket-live/internal/model"
)

var (
	hundred  = decimal.NewFromInt(100)
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
)

// ToModel converts an APIMarket to model.Market.
//
// Outcome prices come from outcomePrices, then prices, then a single
// price or lastPrice value.
func (m *APIMarket) ToModel() model.Market {
	prices := []float64(m.OutcomePrices)
	if len(prices) == 0 {
		prices = []float64(m.Prices)
	}
	if len(prices) == 0 && len(m.Outcomes) > 0 {
		switch {
		case m.Price != nil && *m.Price != 0:
			prices = []float64{m.Price.Float64()}
		case m.LastPrice != nil:
			prices = []float64{m.LastPrice.Float64()}
		}
	}

	return model.Market{
		ID:            m.ID,
		Question:      m.Question,
		TokenIDs:      append([]string(nil), m.ClobTokenIDs...),
		Outcomes:      append([]string(nil), m.Outcomes...),
		OutcomePrices: append([]float64(nil), prices...),
		Volume:        m.Volume.Float64(),
		Liquidity:     m.Liquidity.Float64(),
	}
}

// ToModel converts an APIEvent to model.Event.
func (e *APIEvent) ToModel() model.Event {
	return model.Event{
		ID:          e.ID,
		Slug:        e.Slug,
		Title:       e.Title,
		Description: e.Description,
		Volume:      e.Volume.Float64(),
		Liquidity:   e.Liquidity.Float64(),
		Markets:     ParseMarkets(e),
	}
}

// ParseMarkets converts every market of an event.
func ParseMarkets(e *APIEvent) []model.Market {
	markets := make([]model.Market, 0, len(e.Markets))
	for i := range e.Markets {
		markets = append(markets, e.Markets[i].ToModel())
	}
	return markets
}

// FirstTokenID returns the first token of the event's first market, usually
// the "Yes" outcome.
func FirstTokenID(e *APIEvent) (string, bool) {
	if len(e.Markets) == 0 || len(e.Markets[0].ClobTokenIDs) == 0 {
		return "", false
	}
	return e.Markets[0].ClobTokenIDs[0], true
}

// AllTokenIDs returns every token id across the event's markets.
func AllTokenIDs(e *APIEvent) []string {
	var ids []string
	for _, m := range e.Markets {
		ids = append(ids, m.ClobTokenIDs...)
	}
	return ids
}

// FormatPrice renders a 0-1 price as a percentage: 0.55 -> "55.0%".
func FormatPrice(price float64) string {
	return decimal.NewFromFloat(price).Mul(hundred).StringFixed(1) + "%"
}

// FormatVolume renders a dollar amount with a K or M suffix:
// 1234567 -> "$1.2M", 3400 -> "$3.4K", 12 -> "$12".
func FormatVolume(volume float64) string {
	v := decimal.NewFromFloat(volume)
	switch {
	case v.GreaterThanOrEqual(million):
		return "$" + v.Div(million).StringFixed(1) + "M"
	case v.GreaterThanOrEqual(thousand):
		return "$" + v.Div(thousand).StringFixed(1) + "K"
	}
	return "$" + v.StringFixed(0)
}
