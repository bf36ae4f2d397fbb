package history

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/polymarket-live/internal/api"
	"github.com/rickgao/polymarket-live/internal/model"
)

// funcSource adapts a function to Source.
type funcSource func(ctx context.Context, tokenID string, interval model.Interval) ([]model.PricePoint, error)

func (f funcSource) GetPriceHistory(ctx context.Context, tokenID string, interval model.Interval) ([]model.PricePoint, error) {
	return f(ctx, tokenID, interval)
}

func TestFetcher_FetchAllAgainstCLOB(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("market") {
		case "bad":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.Write([]byte(`{"history":[{"t":1700000000,"p":0.4},{"t":1700000060,"p":0.45}]}`))
		}
	}))
	defer server.Close()

	client := api.NewClient(server.URL, server.URL, api.WithRetries(0, time.Millisecond))
	f := New(Config{Concurrency: 2, Timeout: 5 * time.Second}, client, nil)

	got, err := f.FetchAll(context.Background(), []string{"a", "bad", "b"}, model.IntervalDay)
	require.NoError(t, err)

	assert.Len(t, got, 2)
	assert.Contains(t, got, "a")
	assert.Contains(t, got, "b")
	assert.NotContains(t, got, "bad")
	assert.Equal(t, 0.45, got["a"][1].Price)
}

func TestFetcher_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32

	src := funcSource(func(ctx context.Context, tokenID string, interval model.Interval) ([]model.PricePoint, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return []model.PricePoint{{Price: 1}}, nil
	})

	f := New(Config{Concurrency: 3}, src, nil)
	ids := []string{"1", "2", "3", "4", "5", "6", "7", "8"}

	got, err := f.FetchAll(context.Background(), ids, model.IntervalWeek)
	require.NoError(t, err)
	assert.Len(t, got, len(ids))
	assert.LessOrEqual(t, peak.Load(), int32(3))
}

func TestFetcher_FetchAllCancelled(t *testing.T) {
	src := funcSource(func(ctx context.Context, tokenID string, interval model.Interval) ([]model.PricePoint, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	f := New(Config{Concurrency: 2}, src, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := f.FetchAll(ctx, []string{"a", "b", "c"}, model.IntervalMax)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFetcher_FetchAppliesTimeout(t *testing.T) {
	src := funcSource(func(ctx context.Context, tokenID string, interval model.Interval) ([]model.PricePoint, error) {
		if _, ok := ctx.Deadline(); !ok {
			return nil, errors.New("no deadline")
		}
		return nil, nil
	})

	f := New(Config{Timeout: time.Second}, src, nil)
	_, err := f.Fetch(context.Background(), "a", model.IntervalDay)
	assert.NoError(t, err)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 10*time.Second, cfg.Timeout)

	f := New(Config{}, nil, nil)
	assert.Equal(t, 4, f.cfg.Concurrency)
}
