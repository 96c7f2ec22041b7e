package transport

import (
	"bytes"
	"context"
	"testing"
)

func TestMockRequestReplyRoundTrip(t *testing.T) {
	net := NewMockNetwork()
	alice := NewMockTransport(net, "alice")
	bob := NewMockTransport(net, "bob")

	bob.RegisterHandler("echo", func(_ context.Context, from string, req []byte) ([]byte, error) {
		if from != "alice" {
			t.Fatalf("handler saw from=%q, want alice", from)
		}
		out := append([]byte("echo:"), req...)
		return out, nil
	})

	reply, err := RequestReply(context.Background(), alice, "bob", "echo", []byte("hi"))
	if err != nil {
		t.Fatalf("RequestReply: %v", err)
	}
	if !bytes.Equal(reply, []byte("echo:hi")) {
		t.Fatalf("reply = %q, want %q", reply, "echo:hi")
	}
}

func TestMockOpenStreamUnknownPeer(t *testing.T) {
	net := NewMockNetwork()
	alice := NewMockTransport(net, "alice")

	_, err := alice.OpenStream(context.Background(), "ghost", "echo")
	if err != ErrPeerUnreachable {
		t.Fatalf("expected ErrPeerUnreachable, got %v", err)
	}
}

func TestMockOpenStreamMarkedUnreachable(t *testing.T) {
	net := NewMockNetwork()
	alice := NewMockTransport(net, "alice")
	_ = NewMockTransport(net, "bob")
	alice.Unreachable["bob"] = true

	_, err := alice.OpenStream(context.Background(), "bob", "echo")
	if err != ErrPeerUnreachable {
		t.Fatalf("expected ErrPeerUnreachable, got %v", err)
	}
}

func TestMockRequestWithNoHandlerRegistered(t *testing.T) {
	net := NewMockNetwork()
	alice := NewMockTransport(net, "alice")
	_ = NewMockTransport(net, "bob")

	_, err := RequestReply(context.Background(), alice, "bob", "missing-protocol", []byte("hi"))
	if err != ErrNoHandler {
		t.Fatalf("expected ErrNoHandler, got %v", err)
	}
}

func TestMockSelf(t *testing.T) {
	net := NewMockNetwork()
	alice := NewMockTransport(net, "alice")
	if alice.Self() != "alice" {
		t.Fatalf("Self() = %q, want alice", alice.Self())
	}
}
