// Package mount materializes one bucket version into an in-memory file tree
// and applies the local operations spec §4.3 defines on it: add, mkdir, ls,
// cat, rm, mv, share management and save. Grounded on the teacher's
// accounts-trie mutation pattern (core/ledger.go's balance/nonce mutators
// that stage changes and commit a new state root) generalized from a single
// flat map to a lazily-loaded directory tree.
package mount

import (
	"context"

	"github.com/google/uuid"

	"github.com/bucketdag/core/pkg/blob"
	"github.com/bucketdag/core/pkg/bucketcrypto"
	"github.com/bucketdag/core/pkg/manifest"
)

// entry is one name's NodeLink, plus the lazily-loaded subtree when it names
// a directory.
type entry struct {
	kind     manifest.NodeKind
	blobLink blob.Link
	secret   bucketcrypto.Secret
	meta     *manifest.FileMeta
	modTime  int64
	sub      *dirState // non-nil only for directories that have been loaded
}

// dirState is one directory's in-memory contents. link/dirty track whether
// this directory's stored form is still current; secret is fixed for this
// directory's lifetime (the root directory uses the bucket Secret, every
// other directory its own Secret generated at Mkdir time).
type dirState struct {
	link    blob.Link
	secret  bucketcrypto.Secret
	entries map[string]*entry
	dirty   bool
}

// Mount is one bucket opened by a specific identity: its current manifest
// chain position, its decrypted file tree, and the share list governing who
// else may read or write it.
type Mount struct {
	id     uuid.UUID
	name   string
	self   bucketcrypto.Identity
	secret bucketcrypto.Secret
	store  blob.Store

	shares    map[string]manifest.Share
	published bool

	root *dirState

	previous blob.Link
	height   uint64
}

// New opens bucket at manifestLink for identity: it loads the manifest,
// unwraps the bucket Secret from identity's share, and decrypts the root
// directory Node. Fails ErrNotAMember if identity has no share, and
// ErrMirrorUnpublished if identity's share is a Mirror with no wrapped
// secret yet (spec §4.3).
func New(ctx context.Context, store blob.Store, manifestLink blob.Link, identity bucketcrypto.Identity) (*Mount, error) {
	m, err := manifest.LoadManifest(ctx, store, manifestLink)
	if err != nil {
		return nil, err
	}

	key := identity.PeerID()
	share, ok := m.Shares[key]
	if !ok {
		return nil, ErrNotAMember
	}
	if len(share.WrappedSecret) == 0 {
		return nil, ErrMirrorUnpublished
	}

	secret, err := bucketcrypto.UnwrapSecret(share.WrappedSecret, identity)
	if err != nil {
		return nil, err
	}

	entryLink, err := blob.ParseLink(m.Entry)
	if err != nil {
		return nil, err
	}
	rootNode, err := manifest.LoadNode(ctx, store, secret, entryLink)
	if err != nil {
		return nil, err
	}

	shares := make(map[string]manifest.Share, len(m.Shares))
	published := false
	for k, s := range m.Shares {
		shares[k] = s
		if s.Role == bucketcrypto.RoleMirror && len(s.WrappedSecret) > 0 {
			published = true
		}
	}

	mount := &Mount{
		id:        m.ID,
		name:      m.Name,
		self:      identity,
		secret:    secret,
		store:     store,
		shares:    shares,
		published: published,
		root:      buildDirState(secret, entryLink, rootNode),
		previous:  manifestLink,
		height:    m.Height,
	}
	return mount, nil
}

func buildDirState(secret bucketcrypto.Secret, link blob.Link, n manifest.Node) *dirState {
	d := &dirState{link: link, secret: secret, entries: make(map[string]*entry, len(n))}
	for name, nl := range n {
		bl, _ := blob.ParseLink(nl.BlobLink) // stored links are always well-formed
		d.entries[name] = &entry{kind: nl.Kind, blobLink: bl, secret: nl.Secret, meta: nl.Meta, modTime: nl.ModTime}
	}
	return d
}

// ID returns the bucket's UUID.
func (m *Mount) ID() uuid.UUID { return m.id }

// Name returns the bucket's display name as of the manifest this Mount was
// opened from.
func (m *Mount) Name() string { return m.name }

// Head returns the manifest link and height this Mount currently reflects
// (updated by Save on success).
func (m *Mount) Head() (blob.Link, uint64) { return m.previous, m.height }
