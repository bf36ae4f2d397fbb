package connection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Session owns a single connection attempt. It never retries; the caller
// decides what happens after Run returns.
type Session struct {
	id      string
	client  Client
	subs    Subscriptions
	handler Handler
	logger  *slog.Logger

	// onOpen, if set, is called after the session enters Open and has sent
	// its subscription declaration.
	onOpen func()

	// mu serializes state transitions with subscription declarations so that
	// an incremental subscribe can never overtake the snapshot sent on open.
	mu    sync.Mutex
	state SessionState

	closeOnce sync.Once
	closing   chan struct{}
}

// NewSession creates a session over an unconnected client.
func NewSession(client Client, subs Subscriptions, handler Handler, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	id := uuid.NewString()
	return &Session{
		id:      id,
		client:  client,
		subs:    subs,
		handler: handler,
		logger:  logger.With("session_id", id),
		state:   SessionOpening,
		closing: make(chan struct{}),
	}
}

// ID returns the session's correlation id.
func (s *Session) ID() string {
	return s.id
}

// State returns the session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Run connects, declares the full subscription set, and dispatches inbound
// messages until the transport fails, ctx is cancelled or Close is called.
func (s *Session) Run(ctx context.Context) CloseReason {
	select {
	case <-s.closing:
		s.setState(SessionClosed)
		return CloseReason{Err: ErrSessionClosed}
	default:
	}

	if err := s.client.Connect(ctx); err != nil {
		s.setState(SessionClosed)
		return CloseReason{Err: fmt.Errorf("connect: %w", err)}
	}
	defer s.client.Close()

	if err := s.open(); err != nil {
		s.setState(SessionClosed)
		return CloseReason{Err: fmt.Errorf("declare subscriptions: %w", err)}
	}

	if s.onOpen != nil {
		s.onOpen()
	}

	for {
		select {
		case <-ctx.Done():
			return s.finish(CloseReason{Code: websocket.CloseNormalClosure, Err: ctx.Err()})

		case <-s.closing:
			return s.finish(CloseReason{Code: websocket.CloseNormalClosure, Text: "closed by client"})

		case err := <-s.client.Errors():
			s.drain()
			return s.finish(closeReason(err))

		case msg := <-s.client.Messages():
			s.handler.Handle(msg.Data)
		}
	}
}

// Subscribe sends an incremental declaration for ids. It is a no-op unless
// the session is Open.
func (s *Session) Subscribe(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SessionOpen {
		return ErrNotConnected
	}
	return s.declare(ids)
}

// Close asks a running session to stop. It is safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closing)
	})
}

// open enters Open and sends the full snapshot under the same lock.
func (s *Session) open() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = SessionOpen

	ids := s.subs.AllIDs()
	s.logger.Info("session open", "subscriptions", len(ids))
	if len(ids) == 0 {
		return nil
	}
	return s.declare(ids)
}

// declare must be called with mu held.
func (s *Session) declare(ids []string) error {
	data, err := json.Marshal(SubscribeMessage{AssetsIDs: ids, Type: MarketChannel})
	if err != nil {
		return err
	}
	if err := s.client.Send(data); err != nil {
		return err
	}
	s.logger.Debug("sent subscription", "count", len(ids))
	return nil
}

// drain dispatches messages that were buffered before the transport failed.
func (s *Session) drain() {
	for {
		select {
		case msg := <-s.client.Messages():
			s.handler.Handle(msg.Data)
		default:
			return
		}
	}
}

func (s *Session) finish(reason CloseReason) CloseReason {
	s.setState(SessionClosed)
	s.logger.Info("session closed", "reason", reason.String())
	return reason
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// closeReason unpacks a websocket close frame when the error carries one.
func closeReason(err error) CloseReason {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return CloseReason{Code: ce.Code, Text: ce.Text, Err: err}
	}
	return CloseReason{Err: err}
}
