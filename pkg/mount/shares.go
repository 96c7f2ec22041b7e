package mount

import (
	"crypto/ed25519"
	crand "crypto/rand"

	"github.com/bucketdag/core/pkg/bucketcrypto"
	"github.com/bucketdag/core/pkg/manifest"
)

// AddShare grants principal role on the bucket (spec §4.3.2). An Owner's
// wrapped_secret is always populated. A Mirror's is populated only if the
// bucket is currently published — set by a prior Save(ctx, publish=true,
// ...) — matching every other Mirror's wrapped_secret state.
func (m *Mount) AddShare(principal ed25519.PublicKey, role bucketcrypto.Role) error {
	key := manifest.PeerKey(principal)
	share := manifest.Share{Role: role, Identity: append([]byte(nil), principal...)}

	if role == bucketcrypto.RoleOwner || m.published {
		wrapped, err := bucketcrypto.WrapSecret(m.secret, principal, crand.Reader)
		if err != nil {
			return err
		}
		share.WrappedSecret = wrapped
	}

	m.shares[key] = share
	return nil
}

// RemoveShare revokes principal's access. Fails ErrNotFound if principal
// has no share, and ErrCannotRemoveLastOwner if removing it would leave the
// bucket with no Owner (spec §4.3.2: never removes the last Owner).
func (m *Mount) RemoveShare(principal ed25519.PublicKey) error {
	key := manifest.PeerKey(principal)
	if _, ok := m.shares[key]; !ok {
		return ErrNotFound
	}

	owners := 0
	for k, s := range m.shares {
		if k != key && s.Role == bucketcrypto.RoleOwner {
			owners++
		}
	}
	if owners == 0 && m.shares[key].Role == bucketcrypto.RoleOwner {
		return ErrCannotRemoveLastOwner
	}

	delete(m.shares, key)
	return nil
}

// Shares returns a copy of the current share list.
func (m *Mount) Shares() map[string]manifest.Share {
	out := make(map[string]manifest.Share, len(m.shares))
	for k, v := range m.shares {
		out[k] = v
	}
	return out
}
