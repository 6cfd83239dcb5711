package hub

import (
	"encoding/json"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/anonchat/server/src/types"
	"github.com/rs/zerolog"
)

// mockConn implements types.Conn for testing without a real WebSocket.
type mockConn struct {
	mu       sync.Mutex
	written  []types.Event
	readCh   chan types.Inbound
	closed   bool
	closedCh chan struct{}
}

func newMockConn() *mockConn {
	return &mockConn{
		readCh:   make(chan types.Inbound, 16),
		closedCh: make(chan struct{}),
	}
}

func (m *mockConn) WriteJSON(v any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if evt, ok := v.(types.Event); ok {
		m.written = append(m.written, evt)
	}
	return nil
}

func (m *mockConn) ReadJSON(v any) error {
	select {
	case evt := <-m.readCh:
		if ptr, ok := v.(*types.Inbound); ok {
			*ptr = evt
		}
		return nil
	case <-m.closedCh:
		return &closeError{}
	}
}

func (m *mockConn) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.closedCh)
	}
	return nil
}

func (m *mockConn) getWritten() []types.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]types.Event, len(m.written))
	copy(cp, m.written)
	return cp
}

func (m *mockConn) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = nil
}

func (m *mockConn) eventsNamed(name string) []types.Event {
	var out []types.Event
	for _, evt := range m.getWritten() {
		if evt.Name == name {
			out = append(out, evt)
		}
	}
	return out
}

type closeError struct{}

func (e *closeError) Error() string { return "connection closed" }

// newTestHub creates a hub and starts its event loop in a goroutine.
func newTestHub(t *testing.T) *Hub {
	t.Helper()
	h := New(zerolog.Nop())
	go h.Run()
	t.Cleanup(func() { h.Stop() })
	return h
}

// connect creates a client with both pumps running, still unregistered.
func connect(t *testing.T, h *Hub, id string) (*Client, *mockConn) {
	t.Helper()
	conn := newMockConn()
	client := NewClient(id, conn, h)
	h.Register(client)
	go client.WritePump()
	go client.ReadPump()
	time.Sleep(20 * time.Millisecond)
	return client, conn
}

// sendRegister feeds a register event through the connection's read side.
func sendRegister(t *testing.T, conn *mockConn, ident string) {
	t.Helper()
	var data json.RawMessage
	if ident != "" {
		raw, err := json.Marshal(ident)
		if err != nil {
			t.Fatalf("marshal identity: %v", err)
		}
		data = raw
	}
	conn.readCh <- types.Inbound{Name: types.EventRegister, Data: data}
	time.Sleep(20 * time.Millisecond)
}

var identPattern = regexp.MustCompile(`^[a-z]{4}$`)

func TestRegisterAssignsRequestedIdentity(t *testing.T) {
	h := newTestHub(t)
	_, conn := connect(t, h, "c1")

	sendRegister(t, conn, "abcd")

	acks := conn.eventsNamed(types.EventUsername)
	if len(acks) != 1 {
		t.Fatalf("expected 1 username ack, got %d", len(acks))
	}
	if acks[0].Data != "abcd" {
		t.Errorf("expected identity abcd, got %v", acks[0].Data)
	}
	if joined := conn.eventsNamed(types.EventUserJoined); len(joined) != 0 {
		t.Errorf("joiner should not see its own join broadcast, got %d", len(joined))
	}
	rosters := conn.eventsNamed(types.EventOnlineUsers)
	if len(rosters) != 1 {
		t.Fatalf("expected 1 roster push, got %d", len(rosters))
	}
	roster, ok := rosters[0].Data.([]string)
	if !ok || len(roster) != 1 || roster[0] != "abcd" {
		t.Errorf("expected roster [abcd], got %v", rosters[0].Data)
	}
}

func TestJoinBroadcastExcludesSelf(t *testing.T) {
	h := newTestHub(t)
	_, conn1 := connect(t, h, "c1")
	sendRegister(t, conn1, "abcd")
	conn1.reset()

	_, conn2 := connect(t, h, "c2")
	sendRegister(t, conn2, "efgh")

	joined := conn1.eventsNamed(types.EventUserJoined)
	if len(joined) != 1 || joined[0].Data != "efgh" {
		t.Fatalf("expected c1 to see efgh join, got %v", joined)
	}
	rosters := conn1.eventsNamed(types.EventOnlineUsers)
	if len(rosters) != 1 {
		t.Fatalf("expected 1 roster push to c1, got %d", len(rosters))
	}
	roster := rosters[0].Data.([]string)
	if len(roster) != 2 || roster[0] != "abcd" || roster[1] != "efgh" {
		t.Errorf("expected roster in registration order [abcd efgh], got %v", roster)
	}
	if len(conn2.eventsNamed(types.EventUserJoined)) != 0 {
		t.Error("joiner received its own join broadcast")
	}
}

func TestDisconnectBroadcastsLeave(t *testing.T) {
	h := newTestHub(t)
	_, conn1 := connect(t, h, "c1")
	sendRegister(t, conn1, "abcd")
	_, conn2 := connect(t, h, "c2")
	sendRegister(t, conn2, "efgh")
	conn1.reset()

	conn2.Close()
	time.Sleep(20 * time.Millisecond)

	left := conn1.eventsNamed(types.EventUserLeft)
	if len(left) != 1 || left[0].Data != "efgh" {
		t.Fatalf("expected user-left efgh, got %v", left)
	}
	rosters := conn1.eventsNamed(types.EventOnlineUsers)
	if len(rosters) != 1 {
		t.Fatalf("expected roster push after leave, got %d", len(rosters))
	}
	roster := rosters[0].Data.([]string)
	if len(roster) != 1 || roster[0] != "abcd" {
		t.Errorf("expected roster [abcd], got %v", roster)
	}
	if h.OnlineCount() != 1 {
		t.Errorf("expected 1 online, got %d", h.OnlineCount())
	}
}

func TestUnregisteredDisconnectIsSilent(t *testing.T) {
	h := newTestHub(t)
	_, conn1 := connect(t, h, "c1")
	sendRegister(t, conn1, "abcd")
	_, conn2 := connect(t, h, "c2")
	conn1.reset()

	conn2.Close()
	time.Sleep(20 * time.Millisecond)

	if got := conn1.getWritten(); len(got) != 0 {
		t.Errorf("expected no broadcast for unregistered disconnect, got %v", got)
	}
	if h.OnlineCount() != 1 {
		t.Errorf("expected registry unchanged, got %d online", h.OnlineCount())
	}
}

func TestEmptyRegisterAllocatesIdentity(t *testing.T) {
	h := newTestHub(t)
	_, conn := connect(t, h, "c1")

	sendRegister(t, conn, "")

	acks := conn.eventsNamed(types.EventUsername)
	if len(acks) != 1 {
		t.Fatalf("expected 1 username ack, got %d", len(acks))
	}
	ident, ok := acks[0].Data.(string)
	if !ok || !identPattern.MatchString(ident) {
		t.Errorf("expected generated 4-letter identity, got %v", acks[0].Data)
	}
}

func TestTakenIdentityIsReassigned(t *testing.T) {
	h := newTestHub(t)
	_, conn1 := connect(t, h, "c1")
	sendRegister(t, conn1, "abcd")
	_, conn2 := connect(t, h, "c2")

	sendRegister(t, conn2, "abcd")

	acks := conn2.eventsNamed(types.EventUsername)
	if len(acks) != 1 {
		t.Fatalf("expected 1 username ack, got %d", len(acks))
	}
	ident, ok := acks[0].Data.(string)
	if !ok || ident == "abcd" || !identPattern.MatchString(ident) {
		t.Errorf("expected a fresh identity, got %v", acks[0].Data)
	}
	if h.OnlineCount() != 2 {
		t.Errorf("expected 2 online, got %d", h.OnlineCount())
	}
}

func TestDuplicateRegisterIgnored(t *testing.T) {
	h := newTestHub(t)
	_, conn := connect(t, h, "c1")
	sendRegister(t, conn, "abcd")
	sendRegister(t, conn, "wxyz")

	if acks := conn.eventsNamed(types.EventUsername); len(acks) != 1 {
		t.Errorf("expected a single username ack, got %d", len(acks))
	}
	roster := h.Identities()
	if len(roster) != 1 || roster[0] != "abcd" {
		t.Errorf("expected roster [abcd], got %v", roster)
	}
}

func TestIdentityReusableAfterDisconnect(t *testing.T) {
	h := newTestHub(t)
	_, conn1 := connect(t, h, "c1")
	sendRegister(t, conn1, "abcd")
	conn1.Close()
	time.Sleep(20 * time.Millisecond)

	_, conn2 := connect(t, h, "c2")
	sendRegister(t, conn2, "abcd")

	acks := conn2.eventsNamed(types.EventUsername)
	if len(acks) != 1 || acks[0].Data != "abcd" {
		t.Fatalf("expected abcd to be reusable, got %v", acks)
	}
}

func TestConcurrentRegistrationsStayUnique(t *testing.T) {
	h := newTestHub(t)
	const n = 20

	conns := make([]*mockConn, n)
	for i := range conns {
		_, conn := connect(t, h, "c"+string(rune('a'+i)))
		conns[i] = conn
	}
	var wg sync.WaitGroup
	for _, conn := range conns {
		wg.Add(1)
		go func(c *mockConn) {
			defer wg.Done()
			raw, _ := json.Marshal("abcd")
			c.readCh <- types.Inbound{Name: types.EventRegister, Data: raw}
		}(conn)
	}
	wg.Wait()
	time.Sleep(100 * time.Millisecond)

	if h.OnlineCount() != n {
		t.Fatalf("expected %d online, got %d", n, h.OnlineCount())
	}
	seen := make(map[string]bool)
	holders := 0
	for _, conn := range conns {
		acks := conn.eventsNamed(types.EventUsername)
		if len(acks) != 1 {
			t.Fatalf("expected 1 ack per connection, got %d", len(acks))
		}
		ident := acks[0].Data.(string)
		if seen[ident] {
			t.Fatalf("identity %q assigned twice", ident)
		}
		seen[ident] = true
		if ident == "abcd" {
			holders++
		}
	}
	if holders != 1 {
		t.Errorf("expected exactly one holder of abcd, got %d", holders)
	}
}
