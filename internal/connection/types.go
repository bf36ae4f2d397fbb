package connection

import (
	"errors"
	"fmt"
	"time"
)

// Errors
var (
	ErrNotConnected    = errors.New("not connected")
	ErrStaleConnection = errors.New("connection stale (no pong)")
	ErrAlreadyClosed   = errors.New("already closed")
	ErrSessionClosed   = errors.New("session closed")
)

// MarketChannel is the channel type carried in subscription declarations.
const MarketChannel = "market"

// TimestampedMessage wraps raw message data with receive timestamp.
type TimestampedMessage struct {
	Data       []byte    // Raw message bytes from WebSocket
	ReceivedAt time.Time // Local timestamp when ReadMessage() returned
}

// SubscribeMessage declares interest in a set of instruments.
type SubscribeMessage struct {
	AssetsIDs []string `json:"assets_ids"`
	Type      string   `json:"type"`
}

// Handler consumes raw inbound messages. router.Router satisfies it.
type Handler interface {
	Handle(data []byte) int
}

// Subscriptions is the subscription set replayed on every open.
// subscription.Registry satisfies it.
type Subscriptions interface {
	Add(ids []string) []string
	AllIDs() []string
}

// State is the supervisor's connection state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateOpen
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosing:
		return "closing"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// SessionState is the state of a single connection attempt.
type SessionState int32

const (
	SessionOpening SessionState = iota
	SessionOpen
	SessionClosed
)

func (s SessionState) String() string {
	switch s {
	case SessionOpening:
		return "opening"
	case SessionOpen:
		return "open"
	case SessionClosed:
		return "closed"
	}
	return fmt.Sprintf("session_state(%d)", int32(s))
}

// CloseReason describes why a session ended. Code and Text are set when the
// peer sent a close frame; Err holds the underlying transport error, if any.
type CloseReason struct {
	Code int
	Text string
	Err  error
}

func (r CloseReason) String() string {
	switch {
	case r.Code != 0 && r.Err != nil:
		return fmt.Sprintf("code %d (%s): %v", r.Code, r.Text, r.Err)
	case r.Code != 0:
		return fmt.Sprintf("code %d (%s)", r.Code, r.Text)
	case r.Err != nil:
		return r.Err.Error()
	}
	return "closed"
}

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	URL              string        // WebSocket URL (e.g., wss://ws-subscriptions-clob.polymarket.com/ws/market)
	PingInterval     time.Duration // How often to send a keepalive ping
	PongTimeout      time.Duration // Grace period after a missed pong before the connection is stale
	WriteTimeout     time.Duration // Write deadline for sends
	HandshakeTimeout time.Duration // Dial handshake timeout
	BufferSize       int           // Message channel buffer size
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		PingInterval:     10 * time.Second,
		PongTimeout:      5 * time.Second,
		WriteTimeout:     5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
		BufferSize:       1000,
	}
}

// SupervisorConfig configures the reconnect supervisor.
type SupervisorConfig struct {
	Client         ClientConfig
	ReconnectDelay time.Duration // Fixed wait between a closed session and the next attempt
}

// DefaultSupervisorConfig returns sensible defaults.
func DefaultSupervisorConfig() SupervisorConfig {
	return SupervisorConfig{
		Client:         DefaultClientConfig(),
		ReconnectDelay: 5 * time.Second,
	}
}
