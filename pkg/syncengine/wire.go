package syncengine

import (
	"encoding/binary"
	"fmt"

	"github.com/google/uuid"

	"github.com/bucketdag/core/pkg/blob"
)

// PingTag classifies a ping reply (spec §4.5.2, wire format §6.4).
type PingTag uint8

const (
	TagNotFound PingTag = 0
	TagAhead    PingTag = 1
	TagBehind   PingTag = 2
	TagInSync   PingTag = 3
)

// PingRequest carries the initiator's notion of its own head for one
// bucket (spec §4.5.2).
type PingRequest struct {
	BucketID  uuid.UUID
	OurLink   blob.Link
	OurHeight uint64
}

// PingReply is the responder's classification of the initiator relative to
// its own head, plus that head when the responder has one.
type PingReply struct {
	Tag             PingTag
	ResponderLink   blob.Link
	ResponderHeight uint64
}

// encodePing serializes req per spec §6.4: bucket_id (16B) || our_link
// (length-prefixed) || our_height (u64 LE).
func encodePing(req PingRequest) []byte {
	linkBytes := req.OurLink.Bytes()
	buf := make([]byte, 0, 16+4+len(linkBytes)+8)
	buf = append(buf, req.BucketID[:]...)

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(linkBytes)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, linkBytes...)

	var heightBuf [8]byte
	binary.LittleEndian.PutUint64(heightBuf[:], req.OurHeight)
	buf = append(buf, heightBuf[:]...)
	return buf
}

func decodePing(data []byte) (PingRequest, error) {
	if len(data) < 16+4 {
		return PingRequest{}, fmt.Errorf("syncengine: ping request truncated")
	}
	var req PingRequest
	copy(req.BucketID[:], data[:16])

	n := binary.LittleEndian.Uint32(data[16:20])
	off := 20
	if len(data) < off+int(n)+8 {
		return PingRequest{}, fmt.Errorf("syncengine: ping request truncated")
	}
	// A zero-length link means the initiator has no entry for the bucket;
	// OurLink is then left as the zero Link.
	if n > 0 {
		link, err := blob.ParseLink(data[off : off+int(n)])
		if err != nil {
			return PingRequest{}, err
		}
		req.OurLink = link
	}
	off += int(n)
	req.OurHeight = binary.LittleEndian.Uint64(data[off : off+8])
	return req, nil
}

// encodePingReply serializes reply per spec §6.4: tag (u8) || their_link
// (optional, length-prefixed) || their_height (optional, u64 LE). NotFound
// carries neither optional field.
func encodePingReply(reply PingReply) []byte {
	if reply.Tag == TagNotFound {
		return []byte{byte(reply.Tag)}
	}
	linkBytes := reply.ResponderLink.Bytes()
	buf := make([]byte, 0, 1+4+len(linkBytes)+8)
	buf = append(buf, byte(reply.Tag))

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(linkBytes)))
	buf = append(buf, lenBuf[:]...)
	buf = append(buf, linkBytes...)

	var heightBuf [8]byte
	binary.LittleEndian.PutUint64(heightBuf[:], reply.ResponderHeight)
	buf = append(buf, heightBuf[:]...)
	return buf
}

func decodePingReply(data []byte) (PingReply, error) {
	if len(data) < 1 {
		return PingReply{}, fmt.Errorf("syncengine: ping reply empty")
	}
	tag := PingTag(data[0])
	if tag == TagNotFound {
		return PingReply{Tag: tag}, nil
	}
	if len(data) < 5 {
		return PingReply{}, fmt.Errorf("syncengine: ping reply truncated")
	}
	n := binary.LittleEndian.Uint32(data[1:5])
	off := 5
	if len(data) < off+int(n)+8 {
		return PingReply{}, fmt.Errorf("syncengine: ping reply truncated")
	}
	link, err := blob.ParseLink(data[off : off+int(n)])
	if err != nil {
		return PingReply{}, err
	}
	off += int(n)
	height := binary.LittleEndian.Uint64(data[off : off+8])
	return PingReply{Tag: tag, ResponderLink: link, ResponderHeight: height}, nil
}
