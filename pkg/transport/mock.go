package transport

import (
	"context"
	"sync"
)

// mockBroker wires every MockTransport created from the same broker so
// OpenStream can find its peer by id, without any real networking.
type mockBroker struct {
	mu    sync.Mutex
	peers map[string]*MockTransport
}

// NewMockNetwork returns a broker that NewMockTransport instances register
// with, forming an in-process network for tests.
func NewMockNetwork() *mockBroker {
	return &mockBroker{peers: make(map[string]*MockTransport)}
}

// MockTransport is an in-process Transport backed by direct handler
// invocation — no goroutines, no real I/O — for deterministic unit and
// integration tests of the sync engine.
type MockTransport struct {
	broker *mockBroker
	self   string

	mu       sync.RWMutex
	handlers map[string]Handler

	// Unreachable, if set, makes OpenStream to these peer ids fail with
	// ErrPeerUnreachable, simulating an offline peer.
	Unreachable map[string]bool
}

// NewMockTransport creates a transport identified by self and registers it
// with broker.
func NewMockTransport(broker *mockBroker, self string) *MockTransport {
	t := &MockTransport{broker: broker, self: self, handlers: make(map[string]Handler), Unreachable: make(map[string]bool)}
	broker.mu.Lock()
	broker.peers[self] = t
	broker.mu.Unlock()
	return t
}

// Self implements Transport.
func (t *MockTransport) Self() string { return t.self }

// RegisterHandler implements Transport.
func (t *MockTransport) RegisterHandler(protocol string, handler Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[protocol] = handler
}

// OpenStream implements Transport by looking up the destination
// MockTransport in the shared broker and invoking its registered handler
// directly when the caller sends.
func (t *MockTransport) OpenStream(_ context.Context, peerID string, protocol string) (Stream, error) {
	if t.Unreachable[peerID] {
		return nil, ErrPeerUnreachable
	}
	t.broker.mu.Lock()
	dest, ok := t.broker.peers[peerID]
	t.broker.mu.Unlock()
	if !ok {
		return nil, ErrPeerUnreachable
	}
	return &mockStream{from: t.self, protocol: protocol, dest: dest}, nil
}

type mockStream struct {
	from     string
	protocol string
	dest     *MockTransport
	reply    []byte
	replied  bool
}

func (s *mockStream) Send(ctx context.Context, data []byte) error {
	s.dest.mu.RLock()
	handler, ok := s.dest.handlers[s.protocol]
	s.dest.mu.RUnlock()
	if !ok {
		return ErrNoHandler
	}
	reply, err := handler(ctx, s.from, data)
	if err != nil {
		return err
	}
	s.reply = reply
	return nil
}

func (s *mockStream) Recv(context.Context) ([]byte, error) {
	s.replied = true
	return s.reply, nil
}

func (s *mockStream) Close() error { return nil }
