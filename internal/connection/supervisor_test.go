package connection

import (
	"fmt"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/polymarket-live/internal/subscription"
)

// feedServer is a mock market feed that records the first message of every
// connection. Connections listed in dropAfterFirst are closed by the server
// right after their first message.
type feedServer struct {
	*httptest.Server

	mu             sync.Mutex
	connections    int
	firstMessages  [][]byte
	allMessages    [][]byte
	dropAfterFirst map[int]bool
	dropped        chan struct{}
	closed         chan struct{}
}

func newFeedServer(t *testing.T, dropAfterFirst ...int) *feedServer {
	fs := &feedServer{
		dropAfterFirst: make(map[int]bool),
		dropped:        make(chan struct{}, 10),
		closed:         make(chan struct{}, 10),
	}
	for _, n := range dropAfterFirst {
		fs.dropAfterFirst[n] = true
	}

	fs.Server = mockWSServer(t, func(conn *websocket.Conn) {
		fs.mu.Lock()
		fs.connections++
		n := fs.connections
		fs.mu.Unlock()

		defer func() { fs.closed <- struct{}{} }()

		first := true
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			fs.mu.Lock()
			if first {
				fs.firstMessages = append(fs.firstMessages, data)
			}
			fs.allMessages = append(fs.allMessages, data)
			fs.mu.Unlock()

			if first && fs.dropAfterFirst[n] {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "restart"))
				fs.dropped <- struct{}{}
				return
			}
			first = false
		}
	})
	return fs
}

func (fs *feedServer) Connections() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.connections
}

func (fs *feedServer) FirstMessages() [][]byte {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([][]byte(nil), fs.firstMessages...)
}

func (fs *feedServer) AllMessages() [][]byte {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return append([][]byte(nil), fs.allMessages...)
}

func newTestSupervisor(url string, delay time.Duration) (*Supervisor, *subscription.Registry) {
	reg := subscription.NewRegistry()
	cfg := SupervisorConfig{
		Client:         testClientConfig(url),
		ReconnectDelay: delay,
	}
	return NewSupervisor(cfg, reg, &recordingHandler{}, nil), reg
}

func TestSupervisor_ReconnectReplaysFullSet(t *testing.T) {
	server := newFeedServer(t, 1)
	defer server.Close()

	delay := 300 * time.Millisecond
	sup, reg := newTestSupervisor(wsURL(server.Server), delay)
	defer sup.Disconnect()

	sup.Connect([]string{"X", "Y"})

	select {
	case <-server.dropped:
	case <-time.After(2 * time.Second):
		t.Fatal("first session never declared its subscriptions")
	}

	// Wait until the supervisor has noticed the drop and is backing off.
	require.Eventually(t, func() bool {
		return sup.State() == StateConnecting && sup.Sessions() == 1
	}, time.Second, 5*time.Millisecond)

	// Added while no session is open.
	sup.Subscribe([]string{"Z"})
	assert.Equal(t, []string{"X", "Y", "Z"}, reg.AllIDs())

	require.Eventually(t, func() bool { return sup.State() == StateOpen && server.Connections() == 2 }, 2*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool { return len(server.FirstMessages()) == 2 }, time.Second, 10*time.Millisecond)

	first := server.FirstMessages()
	assert.Equal(t, []string{"X", "Y"}, decodeSubscribe(t, first[0]).AssetsIDs)
	assert.Equal(t, []string{"X", "Y", "Z"}, decodeSubscribe(t, first[1]).AssetsIDs)

	// Exactly one new session: nothing else starts while the second stays open.
	time.Sleep(2 * delay)
	assert.Equal(t, 2, server.Connections())
	assert.Equal(t, int64(2), sup.Sessions())
}

func TestSupervisor_DisconnectDuringOpen(t *testing.T) {
	server := newFeedServer(t)
	defer server.Close()

	delay := 100 * time.Millisecond
	sup, reg := newTestSupervisor(wsURL(server.Server), delay)

	sup.Connect([]string{"A"})
	require.Eventually(t, func() bool { return sup.State() == StateOpen }, time.Second, 5*time.Millisecond)

	sup.Disconnect()
	assert.Equal(t, StateDisconnected, sup.State())

	select {
	case <-server.closed:
	case <-time.After(time.Second):
		t.Fatal("server connection was not closed")
	}

	time.Sleep(3 * delay)
	assert.Equal(t, 1, server.Connections())
	assert.Equal(t, int64(1), sup.Sessions())
	assert.Equal(t, StateDisconnected, sup.State())

	// State survives for inspection.
	assert.Equal(t, []string{"A"}, reg.AllIDs())
}

func TestSupervisor_IncrementalSubscribeWhileOpen(t *testing.T) {
	server := newFeedServer(t)
	defer server.Close()

	sup, _ := newTestSupervisor(wsURL(server.Server), time.Second)
	defer sup.Disconnect()

	sup.Connect([]string{"A"})
	require.Eventually(t, func() bool { return sup.State() == StateOpen }, time.Second, 5*time.Millisecond)

	sup.Connect([]string{"A", "B"})
	sup.Subscribe([]string{"B", "C"})
	sup.Subscribe(nil)

	require.Eventually(t, func() bool { return len(server.AllMessages()) == 3 }, time.Second, 10*time.Millisecond)

	msgs := server.AllMessages()
	assert.Equal(t, []string{"A"}, decodeSubscribe(t, msgs[0]).AssetsIDs)
	assert.Equal(t, []string{"B"}, decodeSubscribe(t, msgs[1]).AssetsIDs)
	assert.Equal(t, []string{"C"}, decodeSubscribe(t, msgs[2]).AssetsIDs)
	assert.Equal(t, 1, server.Connections())
}

func TestSupervisor_RetriesUnreachableEndpoint(t *testing.T) {
	server := newFeedServer(t)
	url := wsURL(server.Server)
	server.Close()

	sup, _ := newTestSupervisor(url, 20*time.Millisecond)

	sup.Connect([]string{"A"})
	require.Eventually(t, func() bool { return sup.Sessions() >= 3 }, 2*time.Second, 10*time.Millisecond)
	assert.NotEqual(t, StateOpen, sup.State())

	sup.Disconnect()
	assert.Equal(t, StateDisconnected, sup.State())
}

func TestSupervisor_SubscribeBeforeConnect(t *testing.T) {
	sup, reg := newTestSupervisor("ws://127.0.0.1:1", time.Second)

	sup.Subscribe([]string{"A"})
	sup.Disconnect()

	assert.Equal(t, StateDisconnected, sup.State())
	assert.Equal(t, int64(0), sup.Sessions())
	assert.Equal(t, []string{"A"}, reg.AllIDs())
}

func TestSupervisor_ReconnectAfterDisconnect(t *testing.T) {
	server := newFeedServer(t)
	defer server.Close()

	sup, _ := newTestSupervisor(wsURL(server.Server), 50*time.Millisecond)
	defer sup.Disconnect()

	sup.Connect([]string{"A"})
	require.Eventually(t, func() bool { return sup.State() == StateOpen }, time.Second, 5*time.Millisecond)
	sup.Disconnect()

	sup.Connect([]string{"B"})
	require.Eventually(t, func() bool { return len(server.FirstMessages()) == 2 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, []string{"A", "B"}, decodeSubscribe(t, server.FirstMessages()[1]).AssetsIDs)
}

func TestSupervisor_ConnectOverlappingDisconnect(t *testing.T) {
	server := newFeedServer(t)
	defer server.Close()

	sup, _ := newTestSupervisor(wsURL(server.Server), 20*time.Millisecond)
	defer sup.Disconnect()

	declared := func(id string) bool {
		for _, msg := range server.AllMessages() {
			if slices.Contains(decodeSubscribe(t, msg).AssetsIDs, id) {
				return true
			}
		}
		return false
	}

	for i := 0; i < 20; i++ {
		sup.Connect([]string{"A"})
		require.Eventually(t, func() bool { return sup.State() == StateOpen }, 2*time.Second, 5*time.Millisecond)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			sup.Disconnect()
		}()
		go func() {
			defer wg.Done()
			sup.Connect([]string{fmt.Sprintf("B%d", i)})
		}()
		wg.Wait()

		if sup.State() == StateDisconnected {
			// Disconnect won; the loop must really be gone.
			sup.mu.Lock()
			running := sup.cancel != nil
			sup.mu.Unlock()
			assert.False(t, running, "iteration %d: loop left running while disconnected", i)
			continue
		}

		require.Eventually(t, func() bool { return sup.State() == StateOpen }, 2*time.Second, 5*time.Millisecond)

		id := fmt.Sprintf("C%d", i)
		sup.Subscribe([]string{id})
		require.Eventually(t, func() bool { return declared(id) }, time.Second, 5*time.Millisecond,
			"iteration %d: subscription %s never reached the open session", i, id)

		sup.Disconnect()
	}
}
