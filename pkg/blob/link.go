// Package blob implements the content-addressed blob layer: encrypt-then-hash
// storage, pins-set codec, and verified fetch from a remote peer.
package blob

import (
	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/bucketdag/core/pkg/bucketcrypto"
)

// Link is the content hash of a stored blob: a BLAKE3-256 digest tagged with
// a codec so the wire/persisted form stays forward compatible (spec §6.1).
// It is backed by a CID so it encodes/decodes/prints the same way the rest
// of the content-addressing ecosystem expects.
type Link struct {
	c cid.Cid
}

// NilLink is the zero value; IsZero reports whether a Link was never set.
var NilLink Link

// IsZero reports whether l is the zero Link.
func (l Link) IsZero() bool { return !l.c.Defined() }

// NewLink computes the Link for data (BLAKE3-256, raw codec).
func NewLink(data []byte) (Link, error) {
	digest := bucketcrypto.Hash(data)
	encoded, err := mh.Encode(digest[:], mh.BLAKE3)
	if err != nil {
		return Link{}, err
	}
	return Link{c: cid.NewCidV1(cid.Raw, encoded)}, nil
}

// String renders the Link as its base32 CIDv1 text form.
func (l Link) String() string { return l.c.String() }

// Bytes returns the Link's binary encoding, suitable for the wire format and
// as a map/set key via string conversion.
func (l Link) Bytes() []byte { return l.c.Bytes() }

// ParseLink decodes a Link previously produced by Bytes.
func ParseLink(b []byte) (Link, error) {
	c, err := cid.Cast(b)
	if err != nil {
		return Link{}, err
	}
	return Link{c: c}, nil
}

// Less implements the byte-lexicographic ordering on links that the bucket
// log's canonical-head selection (spec §4.4) requires all peers to agree on.
func (l Link) Less(other Link) bool {
	return string(l.c.Bytes()) < string(other.c.Bytes())
}

// Equal reports whether two Links refer to the same content.
func (l Link) Equal(other Link) bool { return l.c.Equals(other.c) }
