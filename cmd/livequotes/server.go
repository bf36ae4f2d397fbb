package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/polymarket-live/internal/api"
	"github.com/rickgao/polymarket-live/internal/connection"
	"github.com/rickgao/polymarket-live/internal/live"
	"github.com/rickgao/polymarket-live/internal/market"
	"github.com/rickgao/polymarket-live/internal/model"
	"github.com/rickgao/polymarket-live/internal/version"
)

const (
	upstreamTimeout   = 30 * time.Second
	maxBatchHistory   = 50
	defaultEventLimit = 20
)

// quoteReader is the read side of live.Client.
type quoteReader interface {
	Get(id string) (model.Quote, bool)
	GetAll() map[string]model.Quote
	IsSubscribed(id string) bool
	Stats() live.Stats
}

// instrumentCatalog is satisfied by market.Catalog.
type instrumentCatalog interface {
	Events() []model.Event
	Lookup(tokenID string) (model.Instrument, bool)
	Search(ctx context.Context, query string) ([]model.Event, error)
}

// eventSource is the part of *api.Client queried directly.
type eventSource interface {
	GetEvent(ctx context.Context, slug string) (*api.APIEvent, error)
	GetFeaturedEvents(ctx context.Context, limit int) ([]api.APIEvent, error)
	GetMarket(ctx context.Context, id string) (*api.CLOBMarket, error)
}

// historyFetcher is satisfied by *history.Fetcher.
type historyFetcher interface {
	Fetch(ctx context.Context, tokenID string, interval model.Interval) ([]model.PricePoint, error)
	FetchAll(ctx context.Context, tokenIDs []string, interval model.Interval) (map[string][]model.PricePoint, error)
}

// handlerDeps are the collaborators behind the query API.
type handlerDeps struct {
	Quotes             quoteReader
	Catalog            instrumentCatalog
	Events             eventSource
	History            historyFetcher
	DefaultInterval    model.Interval
	FilterPlaceholders bool
	Logger             *slog.Logger
}

// quoteView is one quote as served over HTTP.
type quoteView struct {
	AssetID string `json:"asset_id"`
	model.Quote
	Subscribed bool              `json:"subscribed"`
	Spread     *float64          `json:"spread,omitempty"`
	Instrument *model.Instrument `json:"instrument,omitempty"`
}

// eventView is one event with its token ids resolved.
type eventView struct {
	Event          model.Event `json:"event"`
	PrimaryTokenID string      `json:"primary_token_id,omitempty"`
	TokenIDs       []string    `json:"token_ids"`
}

type server struct {
	handlerDeps
}

// newHandler creates the query API.
func newHandler(deps handlerDeps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	s := &server{handlerDeps: deps}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /quotes", s.handleQuotes)
	mux.HandleFunc("GET /quotes/{id}", s.handleQuote)
	mux.HandleFunc("GET /events", s.handleEvents)
	mux.HandleFunc("GET /events/{slug}", s.handleEvent)
	mux.HandleFunc("GET /markets/{id}", s.handleMarket)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /history", s.handleHistoryBatch)
	mux.HandleFunc("GET /history/{id}", s.handleHistory)
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.Quotes.Stats()

	health := struct {
		Status  string     `json:"status"`
		Version string     `json:"version"`
		Stream  live.Stats `json:"stream"`
	}{
		Status:  "healthy",
		Version: version.String(),
		Stream:  stats,
	}

	// Quotes are still served while reconnecting, just possibly stale.
	if stats.State != connection.StateOpen.String() {
		health.Status = "degraded"
	}

	writeJSON(w, http.StatusOK, health)
}

func (s *server) handleQuotes(w http.ResponseWriter, r *http.Request) {
	all := s.Quotes.GetAll()

	ids := make([]string, 0, len(all))
	for id := range all {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	views := make([]quoteView, 0, len(ids))
	for _, id := range ids {
		views = append(views, s.view(id, all[id]))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(views),
		"quotes": views,
	})
}

// handleQuote serves one quote. A subscribed id with no update yet is served
// with empty fields rather than 404.
func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	q, ok := s.Quotes.Get(id)
	if !ok && !s.Quotes.IsSubscribed(id) {
		writeError(w, http.StatusNotFound, "no quote for "+id)
		return
	}

	writeJSON(w, http.StatusOK, s.view(id, q))
}

// handleEvents serves the cached popular events, or the featured list when
// featured=true.
func (s *server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var events []model.Event

	if featured, _ := strconv.ParseBool(r.URL.Query().Get("featured")); featured {
		limit := defaultEventLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = n
		}

		ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
		defer cancel()

		raw, err := s.Events.GetFeaturedEvents(ctx, limit)
		if err != nil {
			s.upstreamError(w, "featured events", err)
			return
		}
		events = s.convert(raw)
	} else {
		events = s.Catalog.Events()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"count":  len(events),
		"events": events,
	})
}

func (s *server) handleEvent(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	ev, err := s.Events.GetEvent(ctx, slug)
	if err != nil {
		if api.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "no event "+slug)
			return
		}
		s.upstreamError(w, "event", err)
		return
	}

	view := eventView{
		Event:    ev.ToModel(),
		TokenIDs: api.AllTokenIDs(ev),
	}
	if view.TokenIDs == nil {
		view.TokenIDs = []string{}
	}
	if id, ok := api.FirstTokenID(ev); ok {
		view.PrimaryTokenID = id
	}

	writeJSON(w, http.StatusOK, view)
}

func (s *server) handleMarket(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	m, err := s.Events.GetMarket(ctx, id)
	if err != nil {
		if api.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "no market "+id)
			return
		}
		s.upstreamError(w, "market", err)
		return
	}

	writeJSON(w, http.StatusOK, m)
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	events, err := s.Catalog.Search(ctx, q)
	if err != nil {
		s.upstreamError(w, "search", err)
		return
	}
	if events == nil {
		events = []model.Event{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query":  q,
		"count":  len(events),
		"events": events,
	})
}

func (s *server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	interval, ok := s.interval(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	points, err := s.History.Fetch(ctx, id, interval)
	if err != nil {
		s.upstreamError(w, "history", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"asset_id": id,
		"interval": interval,
		"points":   points,
	})
}

// handleHistoryBatch serves several series at once. Ids whose fetch failed
// are listed under missing.
func (s *server) handleHistoryBatch(w http.ResponseWriter, r *http.Request) {
	ids := splitIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}
	if len(ids) > maxBatchHistory {
		writeError(w, http.StatusBadRequest, "at most "+strconv.Itoa(maxBatchHistory)+" ids per request")
		return
	}

	interval, ok := s.interval(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), upstreamTimeout)
	defer cancel()

	series, err := s.History.FetchAll(ctx, ids, interval)
	if err != nil {
		s.upstreamError(w, "history batch", err)
		return
	}

	missing := []string{}
	for _, id := range ids {
		if _, ok := series[id]; !ok {
			missing = append(missing, id)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"interval": interval,
		"series":   series,
		"missing":  missing,
	})
}

func (s *server) interval(w http.ResponseWriter, r *http.Request) (model.Interval, bool) {
	raw := r.URL.Query().Get("interval")
	if raw == "" {
		return s.DefaultInterval, true
	}
	parsed, err := model.ParseInterval(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return parsed, true
}

func (s *server) convert(raw []api.APIEvent) []model.Event {
	events := make([]model.Event, 0, len(raw))
	for i := range raw {
		ev := raw[i].ToModel()
		if s.FilterPlaceholders {
			var keep bool
			if ev, keep = market.FilterEvent(ev); !keep {
				continue
			}
		}
		events = append(events, ev)
	}
	return events
}

func (s *server) view(id string, q model.Quote) quoteView {
	v := quoteView{
		AssetID:    id,
		Quote:      q,
		Subscribed: s.Quotes.IsSubscribed(id),
	}
	if spread, ok := q.Spread(); ok {
		v.Spread = &spread
	}
	if inst, ok := s.Catalog.Lookup(id); ok {
		v.Instrument = &inst
	}
	return v
}

func (s *server) upstreamError(w http.ResponseWriter, what string, err error) {
	s.Logger.Warn("upstream request failed", "request", what, "error", err)
	writeError(w, http.StatusBadGateway, what+" unavailable")
}

func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
