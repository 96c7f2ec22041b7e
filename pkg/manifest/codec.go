package manifest

import (
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// canonicalMode encodes maps with sorted keys and uses the shortest-form
// integer/float encodings — the "canonical binary form" spec §3.4/§3.6
// require so two peers serializing the same Node or Manifest always produce
// byte-identical output (a precondition for content-addressing and for
// signature verification).
var canonicalMode = sync.OnceValue(func() cbor.EncMode {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(err) // static options; only fails on programmer error
	}
	return mode
})

// EncodeNode serializes a Node in canonical binary form.
func EncodeNode(n Node) ([]byte, error) {
	return canonicalMode().Marshal(n)
}

// DecodeNode deserializes a Node previously produced by EncodeNode.
func DecodeNode(data []byte) (Node, error) {
	var n Node
	if err := cbor.Unmarshal(data, &n); err != nil {
		return nil, err
	}
	return n, nil
}

// EncodeManifest serializes a Manifest in canonical binary form, signature
// included as-is.
func EncodeManifest(m *Manifest) ([]byte, error) {
	return canonicalMode().Marshal(m)
}

// DecodeManifest deserializes a Manifest previously produced by
// EncodeManifest.
func DecodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := cbor.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// CanonicalSigningBytes returns the canonical encoding of m with Signature
// cleared — the bytes a manifest is signed over and verified against
// (spec §3.6).
func CanonicalSigningBytes(m *Manifest) ([]byte, error) {
	clone := *m
	clone.Signature = nil
	return canonicalMode().Marshal(&clone)
}
