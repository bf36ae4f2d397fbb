package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// GetPopularEvents fetches open events ordered by 24h volume, highest first.
func (c *Client) GetPopularEvents(ctx context.Context, limit int) ([]APIEvent, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	query.Set("closed", "false")
	query.Set("order", "volume24hr")
	query.Set("ascending", "false")

	var events []APIEvent
	if err := c.get(ctx, c.gammaURL, "/events", query, &events); err != nil {
		return nil, fmt.Errorf("get popular events: %w", err)
	}

	return events, nil
}

// GetFeaturedEvents fetches open, non-archived events in the server's default order.
func (c *Client) GetFeaturedEvents(ctx context.Context, limit int) ([]APIEvent, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	query.Set("archived", "false")
	query.Set("closed", "false")

	var events []APIEvent
	if err := c.get(ctx, c.gammaURL, "/events", query, &events); err != nil {
		return nil, fmt.Errorf("get featured events: %w", err)
	}

	return events, nil
}

// SearchEvents runs a server-side substring search over open events.
// A blank query returns no events without making a request.
func (c *Client) SearchEvents(ctx context.Context, q string, limitPerType int) ([]APIEvent, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, nil
	}

	query := url.Values{}
	query.Set("q", q)
	if limitPerType > 0 {
		query.Set("limit_per_type", strconv.Itoa(limitPerType))
	}
	query.Set("events_status", "open")
	query.Set("search_profiles", "false")

	var resp SearchResponse
	if err := c.get(ctx, c.gammaURL, "/public-search", query, &resp); err != nil {
		return nil, fmt.Errorf("search events %q: %w", q, err)
	}

	return resp.Events, nil
}

// GetEvent fetches a single event by slug.
func (c *Client) GetEvent(ctx context.Context, slug string) (*APIEvent, error) {
	var event APIEvent
	if err := c.get(ctx, c.gammaURL, "/events/"+url.PathEscape(slug), nil, &event); err != nil {
		return nil, fmt.Errorf("get event %s: %w", slug, err)
	}
	return &event, nil
}
