package connection

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Supervisor keeps one Session running while the caller wants to be
// connected, waiting a fixed delay between attempts. The subscription set
// lives outside any session and is replayed in full on every open.
type Supervisor struct {
	cfg     SupervisorConfig
	subs    Subscriptions
	handler Handler
	logger  *slog.Logger

	newClient func() Client

	state    atomic.Int32
	sessions atomic.Int64

	// lifecycle serializes Connect and Disconnect so a loop is never
	// started while the previous one is still shutting down.
	lifecycle sync.Mutex

	mu      sync.Mutex
	session *Session
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewSupervisor creates a new Supervisor. Nothing connects until Connect.
func NewSupervisor(cfg SupervisorConfig, subs Subscriptions, handler Handler, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultSupervisorConfig().ReconnectDelay
	}

	s := &Supervisor{
		cfg:     cfg,
		subs:    subs,
		handler: handler,
		logger:  logger,
	}
	s.newClient = func() Client {
		return NewClient(s.cfg.Client, s.logger)
	}
	return s
}

// Connect records ids and starts the reconnect loop if it is not running.
// When a session is already open, only the newly added ids are declared on it.
func (s *Supervisor) Connect(ids []string) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	delta := s.subs.Add(ids)

	s.mu.Lock()
	if s.cancel == nil {
		ctx, cancel := context.WithCancel(context.Background())
		s.cancel = cancel
		s.done = make(chan struct{})
		s.state.Store(int32(StateConnecting))
		go s.run(ctx, s.done)
		s.mu.Unlock()

		s.logger.Info("supervisor started", "url", s.cfg.Client.URL, "subscriptions", len(s.subs.AllIDs()))
		return
	}
	session := s.session
	s.mu.Unlock()

	s.declare(session, delta)
}

// Subscribe records ids. If a session is open the new ones are declared
// immediately; otherwise they go out with the next open.
func (s *Supervisor) Subscribe(ids []string) {
	delta := s.subs.Add(ids)

	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	s.declare(session, delta)
}

// Disconnect stops the loop, closes the live session and waits for the loop
// to exit. Subscriptions and received quotes are kept.
func (s *Supervisor) Disconnect() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	cancel, done, session := s.cancel, s.done, s.session
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}

	s.state.Store(int32(StateClosing))
	cancel()
	if session != nil {
		session.Close()
	}
	<-done

	s.state.Store(int32(StateDisconnected))
	s.logger.Info("supervisor stopped")
}

// State returns the connection state.
func (s *Supervisor) State() State {
	return State(s.state.Load())
}

// Sessions returns the number of sessions started so far.
func (s *Supervisor) Sessions() int64 {
	return s.sessions.Load()
}

func (s *Supervisor) declare(session *Session, delta []string) {
	if session == nil || len(delta) == 0 {
		return
	}
	if err := session.Subscribe(delta); err != nil {
		// Picked up by the snapshot on the next open.
		s.logger.Debug("deferring subscription", "count", len(delta), "error", err)
	}
}

// run is the reconnect loop. ctx is checked at every iteration boundary.
func (s *Supervisor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for ctx.Err() == nil {
		session := NewSession(s.newClient(), s.subs, s.handler, s.logger)
		session.onOpen = func() {
			if ctx.Err() == nil {
				s.state.Store(int32(StateOpen))
			}
		}

		s.mu.Lock()
		s.session = session
		s.mu.Unlock()

		s.sessions.Add(1)
		s.setConnecting(ctx)
		reason := session.Run(ctx)

		s.mu.Lock()
		if s.session == session {
			s.session = nil
		}
		s.mu.Unlock()

		if ctx.Err() != nil {
			return
		}

		s.setConnecting(ctx)
		s.logger.Warn("stream disconnected, reconnecting",
			"reason", reason.String(),
			"delay", s.cfg.ReconnectDelay,
		)

		timer := time.NewTimer(s.cfg.ReconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *Supervisor) setConnecting(ctx context.Context) {
	if ctx.Err() == nil {
		s.state.Store(int32(StateConnecting))
	}
}
