// Package manifest implements the encrypted directory tree (Node), the
// per-principal access list (Share), and the signed, unencrypted top-level
// Manifest that versions a bucket (spec §3.4–§3.6).
package manifest

import (
	"time"

	"github.com/google/uuid"

	"github.com/bucketdag/core/pkg/bucketcrypto"
)

// NodeKind tags a NodeLink as pointing at a file or a child directory.
type NodeKind uint8

const (
	KindFile NodeKind = iota
	KindDir
)

// FileMeta carries a file NodeLink's optional MIME type and a free-form
// string map, per spec §3.4.
type FileMeta struct {
	MimeType string            `cbor:"1,keyasint,omitempty"`
	Attrs    map[string]string `cbor:"2,keyasint,omitempty"`
}

// NodeLink is the tagged union spec §3.4 calls File(blob_link, secret,
// metadata) | Dir(blob_link, secret). ModTime is additive metadata (see
// SPEC_FULL.md §4) and is not part of either spec.md variant's required
// fields.
type NodeLink struct {
	Kind     NodeKind           `cbor:"1,keyasint"`
	BlobLink []byte             `cbor:"2,keyasint"`
	Secret   bucketcrypto.Secret `cbor:"3,keyasint"`
	Meta     *FileMeta          `cbor:"4,keyasint,omitempty"`
	ModTime  int64              `cbor:"5,keyasint,omitempty"` // unix nanoseconds
}

// NewFileLink builds a File NodeLink.
func NewFileLink(blobLink []byte, secret bucketcrypto.Secret, mime string, attrs map[string]string) NodeLink {
	return NodeLink{
		Kind:     KindFile,
		BlobLink: blobLink,
		Secret:   secret,
		Meta:     &FileMeta{MimeType: mime, Attrs: attrs},
		ModTime:  time.Now().UnixNano(),
	}
}

// NewDirLink builds a Dir NodeLink.
func NewDirLink(blobLink []byte, secret bucketcrypto.Secret) NodeLink {
	return NodeLink{Kind: KindDir, BlobLink: blobLink, Secret: secret, ModTime: time.Now().UnixNano()}
}

// IsDir reports whether the link points at a child directory Node.
func (n NodeLink) IsDir() bool { return n.Kind == KindDir }

// Node is a mapping from name to NodeLink, unordered within the type but
// encoded deterministically by EncodeNode (spec §3.4).
type Node map[string]NodeLink

// Share grants a principal access to a bucket (spec §3.3).
type Share struct {
	Role          bucketcrypto.Role `cbor:"1,keyasint"`
	Identity      []byte            `cbor:"2,keyasint"` // Ed25519 public key
	WrappedSecret []byte            `cbor:"3,keyasint,omitempty"`
}

// Manifest is the signed, unencrypted top-level metadata record for one
// bucket version (spec §3.6).
type Manifest struct {
	ID        uuid.UUID        `cbor:"1,keyasint"`
	Name      string           `cbor:"2,keyasint"`
	Shares    map[string]Share `cbor:"3,keyasint"` // keyed by hex peer id
	Entry     []byte           `cbor:"4,keyasint"`
	Pins      []byte           `cbor:"5,keyasint"`
	Previous  []byte           `cbor:"6,keyasint,omitempty"`
	Height    uint64           `cbor:"7,keyasint"`
	Author    []byte           `cbor:"8,keyasint,omitempty"`
	Signature []byte           `cbor:"9,keyasint,omitempty"`
	Version   string           `cbor:"10,keyasint"`
}

// CurrentVersion is stamped into every Manifest this module produces.
const CurrentVersion = "bucketdag/1"

// IsGenesis reports whether m is a genesis manifest.
func (m *Manifest) IsGenesis() bool { return len(m.Previous) == 0 }
