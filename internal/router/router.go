package router

import (
	"log/slog"
	"sync/atomic"

	"github.com/rickgao/polymarket-live/internal/model"
)

// Router decodes raw transport messages, normalizes every frame and hands the
// resulting updates to a Sink.
type Router struct {
	sink   Sink
	logger *slog.Logger

	received     atomic.Int64
	decodeErrors atomic.Int64
	ignored      atomic.Int64
	applied      atomic.Int64
}

// NewRouter creates a new Router.
func NewRouter(sink Sink, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}

	return &Router{
		sink:   sink,
		logger: logger,
	}
}

// Handle routes one raw message and returns the number of updates applied.
// It never fails: undecodable and unrecognized input is counted and dropped.
func (r *Router) Handle(data []byte) int {
	r.received.Add(1)

	frames, err := Decode(data)
	if err != nil {
		r.decodeErrors.Add(1)
		r.logger.Debug("dropping undecodable message",
			"error", err,
			"size", len(data),
		)
		return 0
	}

	var updates []model.QuoteUpdate
	for _, f := range frames {
		u := Normalize(f)
		if len(u) == 0 {
			r.ignored.Add(1)
			r.logger.Debug("skipping frame", "type", f.EventType())
			continue
		}
		updates = append(updates, u...)
	}

	if len(updates) == 0 {
		return 0
	}

	r.sink.Apply(updates)
	r.applied.Add(int64(len(updates)))

	return len(updates)
}

// Stats returns current statistics.
func (r *Router) Stats() Stats {
	return Stats{
		MessagesReceived: r.received.Load(),
		DecodeErrors:     r.decodeErrors.Load(),
		FramesIgnored:    r.ignored.Load(),
		UpdatesApplied:   r.applied.Load(),
	}
}
