package mount

import (
	"context"
	"crypto/ed25519"
	crand "crypto/rand"

	"github.com/bucketdag/core/pkg/blob"
	"github.com/bucketdag/core/pkg/bucketcrypto"
	"github.com/bucketdag/core/pkg/manifest"
)

// Save commits the current in-memory tree as a new bucket version (spec
// §4.3.3): re-encrypt and re-store every changed directory Node bottom-up,
// recompute the pins set over the whole reachable tree, build and sign a
// new Manifest chained off the previous head, and store it. It does not
// append the result to any replicated log — per spec §4.3.3 that is the
// caller's responsibility (normally via the sync engine, immediately after
// a successful local Save), along with triggering an immediate ping to
// every tracked peer.
//
// If publish is true, every Mirror share currently missing a wrapped
// secret gets one, making this version (and the bucket Secret) available
// to all current mirrors going forward.
func (m *Mount) Save(ctx context.Context, publish bool, signer bucketcrypto.Identity) (newLink blob.Link, previous blob.Link, height uint64, err error) {
	if publish {
		for key, share := range m.shares {
			if share.Role == bucketcrypto.RoleMirror && len(share.WrappedSecret) == 0 {
				wrapped, werr := bucketcrypto.WrapSecret(m.secret, ed25519.PublicKey(share.Identity), crand.Reader)
				if werr != nil {
					return blob.Link{}, blob.Link{}, 0, werr
				}
				share.WrappedSecret = wrapped
				m.shares[key] = share
			}
		}
		m.published = true
	}

	rootLink, err := m.storeDir(ctx, m.root)
	if err != nil {
		return blob.Link{}, blob.Link{}, 0, err
	}

	pins := []blob.Link{rootLink}
	if err := m.collectPins(ctx, m.root, &pins); err != nil {
		return blob.Link{}, blob.Link{}, 0, err
	}
	pinsLink, err := blob.PutPins(ctx, m.store, pins)
	if err != nil {
		return blob.Link{}, blob.Link{}, 0, err
	}

	// Mount always opens from an already-stored manifest (even a genesis
	// one), so Save always produces the next height in the chain; minting
	// a fresh genesis is a separate bootstrap step outside Mount.
	newHeight := m.height + 1

	mf := &manifest.Manifest{
		ID:       m.id,
		Name:     m.name,
		Shares:   m.Shares(),
		Entry:    rootLink.Bytes(),
		Pins:     pinsLink.Bytes(),
		Previous: m.previous.Bytes(),
		Height:   newHeight,
		Version:  manifest.CurrentVersion,
	}
	if err := manifest.Sign(mf, signer); err != nil {
		return blob.Link{}, blob.Link{}, 0, err
	}
	if err := manifest.ValidateInvariants(mf); err != nil {
		return blob.Link{}, blob.Link{}, 0, err
	}

	link, err := manifest.StoreManifest(ctx, m.store, mf)
	if err != nil {
		return blob.Link{}, blob.Link{}, 0, err
	}

	previous = m.previous
	m.previous = link
	m.height = newHeight
	return link, previous, newHeight, nil
}
