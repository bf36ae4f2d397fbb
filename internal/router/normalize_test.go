package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/polymarket-live/internal/model"
	"github.com/rickgao/polymarket-live/internal/quote"
)

func mustDecode(t *testing.T, data string) []Frame {
	t.Helper()
	frames, err := Decode([]byte(data))
	require.NoError(t, err)
	return frames
}

func normalizeAll(t *testing.T, data string) []model.QuoteUpdate {
	t.Helper()
	var out []model.QuoteUpdate
	for _, f := range mustDecode(t, data) {
		out = append(out, Normalize(f)...)
	}
	return out
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		wantFrames int
		wantErr    bool
	}{
		{"empty", "", 0, false},
		{"whitespace", "  \n\t", 0, false},
		{"object", `{"event_type":"book"}`, 1, false},
		{"array of objects", `[{"event_type":"book"},{"event_type":"price_change"}]`, 2, false},
		{"array skips non objects", `[1, "x", null, {"type":"book"}]`, 1, false},
		{"empty array", `[]`, 0, false},
		{"keepalive text", "PONG", 0, true},
		{"bare number", "42", 0, true},
		{"truncated object", `{"event_type":`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frames, err := Decode([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, frames, tt.wantFrames)
		})
	}
}

func TestFrame_EventType(t *testing.T) {
	assert.Equal(t, "book", mustDecode(t, `{"event_type":"book","type":"x"}`)[0].EventType())
	assert.Equal(t, "book", mustDecode(t, `{"type":"book"}`)[0].EventType())
	assert.Equal(t, "book", mustDecode(t, `{"event_type":"","type":"book"}`)[0].EventType())
	assert.Equal(t, "", mustDecode(t, `{"event_type":7}`)[0].EventType())
}

func TestNormalize_BookEmptyAsksLeavesAskUntouched(t *testing.T) {
	store := quote.NewStore()
	store.Upsert("A", model.Quote{BestAsk: model.Float(0.42)})

	store.Apply(normalizeAll(t, `{"type":"book","asset_id":"A","bids":[{"price":"0.55"}],"asks":[]}`))

	q, ok := store.Get("A")
	require.True(t, ok)
	require.NotNil(t, q.BestBid)
	assert.Equal(t, 0.55, *q.BestBid)
	assert.Equal(t, 0.42, *q.BestAsk)
	assert.Nil(t, q.LastTradePrice)
}

func TestNormalize_BookLevelShapes(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantBid *float64
		wantAsk *float64
	}{
		{
			name:    "object levels",
			data:    `{"event_type":"book","asset_id":"A","bids":[{"price":"0.48","size":"10"},{"price":"0.47","size":"5"}],"asks":[{"price":"0.52","size":"3"}]}`,
			wantBid: model.Float(0.48),
			wantAsk: model.Float(0.52),
		},
		{
			name:    "array levels",
			data:    `{"event_type":"book","asset_id":"A","bids":[["0.30","100"]],"asks":[[0.35, 20]]}`,
			wantBid: model.Float(0.30),
			wantAsk: model.Float(0.35),
		},
		{
			name:    "buys and sells keys",
			data:    `{"event_type":"book","asset_id":"A","buys":[{"price":"0.11"}],"sells":[{"price":"0.12"}]}`,
			wantBid: model.Float(0.11),
			wantAsk: model.Float(0.12),
		},
		{
			name:    "short array level is ignored",
			data:    `{"event_type":"book","asset_id":"A","bids":[["0.30"]],"asks":[{"price":"0.9"}]}`,
			wantAsk: model.Float(0.9),
		},
		{
			name:    "object level without price is ignored",
			data:    `{"event_type":"book","asset_id":"A","bids":[{"size":"3"}],"asks":[{"price":"bad"}]}`,
			wantBid: nil,
			wantAsk: nil,
		},
		{
			name: "sides not arrays",
			data: `{"event_type":"book","asset_id":"A","bids":"oops","asks":{"price":"0.5"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updates := normalizeAll(t, tt.data)
			if tt.wantBid == nil && tt.wantAsk == nil {
				assert.Empty(t, updates)
				return
			}
			require.Len(t, updates, 1)
			assert.Equal(t, "A", updates[0].AssetID)
			assert.Equal(t, tt.wantBid, updates[0].BestBid)
			assert.Equal(t, tt.wantAsk, updates[0].BestAsk)
		})
	}
}

func TestNormalize_PriceChangeOnlyBid(t *testing.T) {
	store := quote.NewStore()
	store.Apply(normalizeAll(t, `{"type":"price_change","asset_id":"A","best_bid":"0.61"}`))

	q, ok := store.Get("A")
	require.True(t, ok)
	assert.Equal(t, 0.61, *q.BestBid)
	assert.Nil(t, q.BestAsk)
	assert.Nil(t, q.LastTradePrice)
}

func TestNormalize_PriceChangeBadFieldKeepsGoodField(t *testing.T) {
	updates := normalizeAll(t, `{"event_type":"price_change","asset_id":"A","best_bid":"abc","best_ask":0.7}`)

	require.Len(t, updates, 1)
	assert.Nil(t, updates[0].BestBid)
	assert.Equal(t, 0.7, *updates[0].BestAsk)
}

func TestNormalize_PriceChangeBatch(t *testing.T) {
	data := `{"event_type":"price_change","market":"0xabc","price_changes":[
		{"asset_id":"A","best_bid":"0.40","best_ask":"0.42"},
		{"asset_id":"B","best_bid":"NaN","best_ask":"0.60"},
		{"best_bid":"0.10"},
		"garbage"
	]}`

	updates := normalizeAll(t, data)

	require.Len(t, updates, 2)
	assert.Equal(t, "A", updates[0].AssetID)
	assert.Equal(t, 0.40, *updates[0].BestBid)
	assert.Equal(t, 0.42, *updates[0].BestAsk)
	assert.Equal(t, "B", updates[1].AssetID)
	assert.Nil(t, updates[1].BestBid)
	assert.Equal(t, 0.60, *updates[1].BestAsk)
}

func TestNormalize_PriceChangeBatchFallsBackToFrameID(t *testing.T) {
	updates := normalizeAll(t, `{"event_type":"price_change","asset_id":"A","price_changes":[{"best_ask":"0.3"}]}`)

	require.Len(t, updates, 1)
	assert.Equal(t, "A", updates[0].AssetID)
	assert.Equal(t, 0.3, *updates[0].BestAsk)
}

func TestNormalize_LastTradePrice(t *testing.T) {
	store := quote.NewStore()
	store.Apply(normalizeAll(t, `{"type":"last_trade_price","asset_id":"B","price":"0.33"}`))

	q, ok := store.Get("B")
	require.True(t, ok)
	assert.Equal(t, 0.33, *q.LastTradePrice)
	assert.Nil(t, q.BestBid)
	assert.Nil(t, q.BestAsk)
}

func TestNormalize_MissingAssetIDDropsFrame(t *testing.T) {
	frames := []string{
		`{"type":"book","bids":[{"price":"0.5"}],"asks":[{"price":"0.6"}]}`,
		`{"type":"price_change","best_bid":"0.61"}`,
		`{"type":"last_trade_price","price":"0.33"}`,
		`{"type":"last_trade_price","asset_id":"","price":"0.33"}`,
		`{"type":"last_trade_price","asset_id":null,"price":"0.33"}`,
	}

	for _, data := range frames {
		assert.Empty(t, normalizeAll(t, data), data)
	}
}

func TestNormalize_NumericAssetID(t *testing.T) {
	updates := normalizeAll(t, `{"type":"last_trade_price","asset_id":123456789012345678901234567890,"price":0.5}`)

	require.Len(t, updates, 1)
	assert.Equal(t, "123456789012345678901234567890", updates[0].AssetID)
}

func TestNormalize_UnknownType(t *testing.T) {
	assert.Empty(t, normalizeAll(t, `{"event_type":"tick_size_change","asset_id":"A","price":"0.5"}`))
	assert.Empty(t, normalizeAll(t, `{"asset_id":"A","price":"0.5"}`))
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{`"0.55"`, 0.55, true},
		{`" 0.55 "`, 0.55, true},
		{`0.55`, 0.55, true},
		{`1`, 1, true},
		{`"1e-2"`, 0.01, true},
		{`""`, 0, false},
		{`"abc"`, 0, false},
		{`"NaN"`, 0, false},
		{`"Inf"`, 0, false},
		{`null`, 0, false},
		{`true`, 0, false},
		{`{"p":1}`, 0, false},
		{`[0.5]`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parsePrice([]byte(tt.raw))
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-12)
			}
		})
	}
}
