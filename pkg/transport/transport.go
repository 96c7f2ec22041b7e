// Package transport implements the authenticated bidirectional byte-stream
// interface the sync engine depends on (spec §6.2), plus a libp2p-backed
// production implementation and an in-process mock for tests.
package transport

import (
	"context"
	"errors"
)

// ErrPeerUnreachable is returned by OpenStream when a peer cannot be dialed.
var ErrPeerUnreachable = errors.New("transport: peer unreachable")

// ErrNoHandler is returned when a request arrives for a protocol tag with no
// registered handler.
var ErrNoHandler = errors.New("transport: no handler registered for protocol")

// Handler processes one request on a stream and returns the reply bytes.
type Handler func(ctx context.Context, fromPeer string, request []byte) (reply []byte, err error)

// Stream is a single authenticated bidirectional byte stream to one peer.
type Stream interface {
	Send(ctx context.Context, data []byte) error
	Recv(ctx context.Context) ([]byte, error)
	Close() error
}

// Transport is the external interface the core depends on (spec §6.2); the
// core has no runtime dependency on any specific P2P stack beyond this.
type Transport interface {
	// OpenStream dials peerID and returns a stream scoped to protocol.
	OpenStream(ctx context.Context, peerID string, protocol string) (Stream, error)
	// RegisterHandler installs handler for every inbound stream opened
	// against protocol.
	RegisterHandler(protocol string, handler Handler)
	// Self returns this transport's own peer id.
	Self() string
}

// RequestReply is a convenience most protocol code wants instead of raw
// streams: open a stream, send one request, read exactly one reply, close.
func RequestReply(ctx context.Context, t Transport, peerID, protocol string, request []byte) ([]byte, error) {
	stream, err := t.OpenStream(ctx, peerID, protocol)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	if err := stream.Send(ctx, request); err != nil {
		return nil, err
	}
	return stream.Recv(ctx)
}
