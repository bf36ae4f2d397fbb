package api

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/rickgao/polymarket-live/internal/model"
)

// GetPriceHistory fetches the price series of one token, oldest first.
func (c *Client) GetPriceHistory(ctx context.Context, tokenID string, interval model.Interval) ([]model.PricePoint, error) {
	query := url.Values{}
	query.Set("market", tokenID)
	query.Set("interval", string(interval))

	var resp PriceHistoryResponse
	if err := c.get(ctx, c.clobURL, "/prices-history", query, &resp); err != nil {
		return nil, fmt.Errorf("get price history %s: %w", tokenID, err)
	}

	points := make([]model.PricePoint, 0, len(resp.History))
	for _, p := range resp.History {
		points = append(points, model.PricePoint{
			Timestamp: time.Unix(p.T, 0).UTC(),
			Price:     p.P.Float64(),
		})
	}
	slices.SortStableFunc(points, func(a, b model.PricePoint) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	return points, nil
}

// GetMarket fetches CLOB market metadata.
func (c *Client) GetMarket(ctx context.Context, id string) (*CLOBMarket, error) {
	var market CLOBMarket
	if err := c.get(ctx, c.clobURL, "/markets/"+url.PathEscape(id), nil, &market); err != nil {
		return nil, fmt.Errorf("get market %s: %w", id, err)
	}
	return &market, nil
}
