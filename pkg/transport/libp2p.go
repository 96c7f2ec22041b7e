package transport

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/discovery/mdns"
	"github.com/sirupsen/logrus"
)

// maxFrameSize bounds a single length-prefixed frame read off a libp2p
// stream, guarding against a misbehaving peer claiming an absurd length.
const maxFrameSize = 64 << 20

// LibP2PTransport is a Transport backed by a libp2p host: one stream per
// protocol tag per request, framed with a 4-byte big-endian length prefix,
// closed after one reply. Grounded on the teacher's node bootstrap
// (core/network.go: NewNode builds the host, NAT manager and mDNS
// discovery) but swaps the teacher's pubsub-topic gossip for direct
// request/reply streams, since the sync engine needs a reply to its own
// request rather than a broadcast.
type LibP2PTransport struct {
	host host.Host
	log  *logrus.Logger
}

// LibP2PConfig configures NewLibP2PTransport.
type LibP2PConfig struct {
	ListenAddr     string
	DiscoveryTag   string
	BootstrapPeers []string
}

// NewLibP2PTransport creates and bootstraps a libp2p host: listens on
// cfg.ListenAddr, dials cfg.BootstrapPeers, and starts mDNS discovery
// tagged cfg.DiscoveryTag.
func NewLibP2PTransport(ctx context.Context, cfg LibP2PConfig, log *logrus.Logger) (*LibP2PTransport, error) {
	h, err := libp2p.New(libp2p.ListenAddrStrings(cfg.ListenAddr))
	if err != nil {
		return nil, fmt.Errorf("transport: create host: %w", err)
	}

	t := &LibP2PTransport{host: h, log: log}

	for _, addr := range cfg.BootstrapPeers {
		info, err := peer.AddrInfoFromString(addr)
		if err != nil {
			log.WithFields(logrus.Fields{"addr": addr, "error": err}).Warn("bootstrap peer address invalid")
			continue
		}
		if err := h.Connect(ctx, *info); err != nil {
			log.WithFields(logrus.Fields{"addr": addr, "error": err}).Warn("bootstrap dial failed")
		}
	}

	disc := mdns.NewMdnsService(h, cfg.DiscoveryTag, &discoveryNotifee{host: h, log: log})
	if err := disc.Start(); err != nil {
		log.WithError(err).Warn("mdns discovery failed to start")
	}

	return t, nil
}

// Self implements Transport.
func (t *LibP2PTransport) Self() string { return t.host.ID().String() }

// Close shuts down the underlying libp2p host.
func (t *LibP2PTransport) Close() error { return t.host.Close() }

// RegisterHandler implements Transport by installing a libp2p stream handler
// for the given protocol id that reads one framed request, invokes handler,
// and writes back one framed reply.
func (t *LibP2PTransport) RegisterHandler(protocol string, handler Handler) {
	t.host.SetStreamHandler(protoID(protocol), func(s network.Stream) {
		defer s.Close()
		req, err := readFrame(s)
		if err != nil {
			t.log.WithError(err).Debug("stream read failed")
			return
		}
		reply, err := handler(context.Background(), s.Conn().RemotePeer().String(), req)
		if err != nil {
			t.log.WithFields(logrus.Fields{"protocol": protocol, "error": err}).Debug("handler failed")
			return
		}
		if err := writeFrame(s, reply); err != nil {
			t.log.WithError(err).Debug("stream write failed")
		}
	})
}

// OpenStream implements Transport by dialing peerID and returning a Stream
// scoped to one libp2p network.Stream.
func (t *LibP2PTransport) OpenStream(ctx context.Context, peerID string, protocol string) (Stream, error) {
	pid, err := peer.Decode(peerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPeerUnreachable, err)
	}
	s, err := t.host.NewStream(ctx, pid, protoID(protocol))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPeerUnreachable, err)
	}
	return &libp2pStream{s: s}, nil
}

type libp2pStream struct {
	s network.Stream
}

func (ls *libp2pStream) Send(_ context.Context, data []byte) error {
	return writeFrame(ls.s, data)
}

func (ls *libp2pStream) Recv(_ context.Context) ([]byte, error) {
	return readFrame(ls.s)
}

func (ls *libp2pStream) Close() error { return ls.s.Close() }

func protoID(protocol string) string { return "/bucketdag/" + protocol + "/1.0.0" }

func writeFrame(w io.Writer, data []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readFrame(r io.Reader) ([]byte, error) {
	br := bufio.NewReader(r)
	var lenBuf [4]byte
	if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFrameSize {
		return nil, fmt.Errorf("transport: frame of %d bytes exceeds limit", n)
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(br, data); err != nil {
		return nil, err
	}
	return data, nil
}

// discoveryNotifee connects to peers mDNS discovers on the LAN, mirroring
// the teacher's Node.HandlePeerFound (core/network.go) but without the
// teacher's separate peer-table bookkeeping — libp2p's own peerstore already
// tracks connected peers.
type discoveryNotifee struct {
	host host.Host
	log  *logrus.Logger
}

func (d *discoveryNotifee) HandlePeerFound(info peer.AddrInfo) {
	if info.ID == d.host.ID() {
		return
	}
	if err := d.host.Connect(context.Background(), info); err != nil {
		d.log.WithFields(logrus.Fields{"peer": info.ID.String(), "error": err}).Debug("mdns connect failed")
	}
}
