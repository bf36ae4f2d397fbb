package api

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// APIEvent represents an event from the Gamma API.
type APIEvent struct {
	ID          string      `json:"id"`
	Slug        string      `json:"slug"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Active      bool        `json:"active"`
	Closed      bool        `json:"closed"`
	Volume      FlexFloat   `json:"volume"`
	Volume24hr  FlexFloat   `json:"volume24hr"`
	Liquidity   FlexFloat   `json:"liquidity"`
	Markets     []APIMarket `json:"markets"`
}

// APIMarket represents a market nested in a Gamma event.
type APIMarket struct {
	ID          string `json:"id"`
	Question    string `json:"question"`
	ConditionID string `json:"conditionId"`
	Slug        string `json:"slug"`
	Active      bool   `json:"active"`
	Closed      bool   `json:"closed"`

	// These arrive either as JSON arrays or as JSON-encoded strings.
	Outcomes      StringList `json:"outcomes"`
	OutcomePrices FloatList  `json:"outcomePrices"`
	Prices        FloatList  `json:"prices"`
	ClobTokenIDs  StringList `json:"clobTokenIds"`

	// Single-price fallbacks used when no price list is present.
	Price     *FlexFloat `json:"price"`
	LastPrice *FlexFloat `json:"lastPrice"`

	Volume    FlexFloat `json:"volume"`
	Liquidity FlexFloat `json:"liquidity"`
}

// SearchResponse from GET /public-search
type SearchResponse struct {
	Events []APIEvent `json:"events"`
}

// PriceHistoryResponse from GET /prices-history
type PriceHistoryResponse struct {
	History []APIPricePoint `json:"history"`
}

// APIPricePoint is one (unix seconds, price) sample.
type APIPricePoint struct {
	T int64     `json:"t"`
	P FlexFloat `json:"p"`
}

// CLOBMarket represents market metadata from GET /markets/{id} on the CLOB API.
type CLOBMarket struct {
	ConditionID string      `json:"condition_id"`
	QuestionID  string      `json:"question_id"`
	Question    string      `json:"question"`
	MarketSlug  string      `json:"market_slug"`
	Active      bool        `json:"active"`
	Closed      bool        `json:"closed"`
	Tokens      []CLOBToken `json:"tokens"`
}

// CLOBToken is one outcome token of a CLOB market.
type CLOBToken struct {
	TokenID string    `json:"token_id"`
	Outcome string    `json:"outcome"`
	Price   FlexFloat `json:"price"`
	Winner  bool      `json:"winner"`
}

// FlexFloat decodes a JSON number or numeric string. Anything else,
// including null and unparseable text, decodes to 0 without error.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(data []byte) error {
	*f = FlexFloat(flexFloat(data))
	return nil
}

// Float64 returns f as a float64.
func (f FlexFloat) Float64() float64 {
	return float64(f)
}

// StringList decodes a JSON array of strings or numbers, a JSON-encoded array
// inside a string, or a bare non-empty string treated as a single element.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	*l = nil

	elems, ok := rawList(data)
	if !ok {
		var s string
		if json.Unmarshal(data, &s) == nil && strings.TrimSpace(s) != "" {
			*l = StringList{s}
		}
		return nil
	}

	out := make(StringList, 0, len(elems))
	for _, elem := range elems {
		var s string
		if json.Unmarshal(elem, &s) == nil {
			out = append(out, s)
			continue
		}
		var n json.Number
		if json.Unmarshal(elem, &n) == nil {
			out = append(out, n.String())
		}
	}
	*l = out
	return nil
}

// FloatList decodes a JSON array or JSON-encoded array string of numbers or
// numeric strings. Unparseable elements become 0 so positions stay aligned
// with the matching outcomes.
type FloatList []float64

func (l *FloatList) UnmarshalJSON(data []byte) error {
	*l = nil

	elems, ok := rawList(data)
	if !ok {
		return nil
	}

	out := make(FloatList, len(elems))
	for i, elem := range elems {
		out[i] = flexFloat(elem)
	}
	*l = out
	return nil
}

// rawList returns the elements of a JSON array, unwrapping one level of
// string encoding ("[\"a\",\"b\"]").
func rawList(data []byte) ([]json.RawMessage, bool) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if json.Unmarshal(data, &s) != nil {
			return nil, false
		}
		data = bytes.TrimSpace([]byte(s))
	}

	if len(data) == 0 || data[0] != '[' {
		return nil, false
	}

	var elems []json.RawMessage
	if json.Unmarshal(data, &elems) != nil {
		return nil, false
	}
	return elems, true
}

func flexFloat(data []byte) float64 {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0
	}

	text := string(data)
	if data[0] == '"' {
		var s string
		if json.Unmarshal(data, &s) != nil {
			return 0
		}
		text = strings.TrimSpace(s)
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0
	}
	v, _ := d.Float64()
	return v
}
