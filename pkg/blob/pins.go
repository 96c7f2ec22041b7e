package blob

import (
	"context"
	"encoding/binary"
	"fmt"
)

// PutPins serializes an ordered sequence of Links (spec §3.5: all Nodes and
// file blobs reachable from the current manifest) and stores it as its own
// blob, returning the blob's Link.
func PutPins(ctx context.Context, store Store, links []Link) (Link, error) {
	return store.Put(ctx, encodePins(links))
}

// GetPins retrieves and decodes the pins sequence stored at link.
func GetPins(ctx context.Context, store Store, link Link) ([]Link, error) {
	data, err := store.Get(ctx, link)
	if err != nil {
		return nil, err
	}
	return decodePins(data)
}

// encodePins writes a length-prefixed sequence of length-prefixed Link
// bytes — a fixed-schema binary framing consistent with the wire format the
// spec mandates for ping/pong (§6.2).
func encodePins(links []Link) []byte {
	var buf []byte
	var countBuf [4]byte
	binary.BigEndian.PutUint32(countBuf[:], uint32(len(links)))
	buf = append(buf, countBuf[:]...)
	for _, l := range links {
		b := l.Bytes()
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(b)))
		buf = append(buf, lenBuf[:]...)
		buf = append(buf, b...)
	}
	return buf
}

func decodePins(data []byte) ([]Link, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("blob: pins blob too short")
	}
	count := binary.BigEndian.Uint32(data[:4])
	data = data[4:]
	out := make([]Link, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(data) < 4 {
			return nil, fmt.Errorf("blob: truncated pins entry %d", i)
		}
		n := binary.BigEndian.Uint32(data[:4])
		data = data[4:]
		if uint32(len(data)) < n {
			return nil, fmt.Errorf("blob: truncated pins entry %d", i)
		}
		link, err := ParseLink(data[:n])
		if err != nil {
			return nil, fmt.Errorf("blob: pins entry %d: %w", i, err)
		}
		out = append(out, link)
		data = data[n:]
	}
	return out, nil
}
