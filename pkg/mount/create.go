package mount

import (
	"context"
	crand "crypto/rand"

	"github.com/google/uuid"

	"github.com/bucketdag/core/pkg/blob"
	"github.com/bucketdag/core/pkg/bucketcrypto"
	"github.com/bucketdag/core/pkg/manifest"
)

// CreateBucket mints a brand-new bucket: an empty root directory, a single
// Owner share for owner, and a signed height-0 manifest with no Previous
// (spec §3.6, §8.2 scenario S1, "Alice creates bucket demo"). It is the
// bootstrap step Mount itself does not perform — Mount only ever opens an
// already-stored manifest.
func CreateBucket(ctx context.Context, store blob.Store, name string, owner bucketcrypto.Identity) (*Mount, blob.Link, error) {
	bucketSecret, err := bucketcrypto.RandomSecret()
	if err != nil {
		return nil, blob.Link{}, err
	}

	rootLink, err := manifest.StoreNode(ctx, store, bucketSecret, manifest.Node{})
	if err != nil {
		return nil, blob.Link{}, err
	}
	pinsLink, err := blob.PutPins(ctx, store, []blob.Link{rootLink})
	if err != nil {
		return nil, blob.Link{}, err
	}

	wrapped, err := bucketcrypto.WrapSecret(bucketSecret, owner.Public, crand.Reader)
	if err != nil {
		return nil, blob.Link{}, err
	}
	ownerShare := manifest.Share{
		Role:          bucketcrypto.RoleOwner,
		Identity:      append([]byte(nil), owner.Public...),
		WrappedSecret: wrapped,
	}

	bucketID := uuid.New()
	genesis := &manifest.Manifest{
		ID:      bucketID,
		Name:    name,
		Shares:  map[string]manifest.Share{owner.PeerID(): ownerShare},
		Entry:   rootLink.Bytes(),
		Pins:    pinsLink.Bytes(),
		Height:  0,
		Version: manifest.CurrentVersion,
	}
	if err := manifest.Sign(genesis, owner); err != nil {
		return nil, blob.Link{}, err
	}
	if err := manifest.ValidateInvariants(genesis); err != nil {
		return nil, blob.Link{}, err
	}

	link, err := manifest.StoreManifest(ctx, store, genesis)
	if err != nil {
		return nil, blob.Link{}, err
	}

	m, err := New(ctx, store, link, owner)
	if err != nil {
		return nil, blob.Link{}, err
	}
	return m, link, nil
}
