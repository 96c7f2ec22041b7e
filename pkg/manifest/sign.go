package manifest

import (
	"crypto/ed25519"

	"github.com/bucketdag/core/pkg/bucketcrypto"
)

// Sign sets m.Author to id's public key and m.Signature to id's signature
// over the canonical form of m with Signature cleared.
func Sign(m *Manifest, id bucketcrypto.Identity) error {
	m.Author = append([]byte(nil), id.Public...)
	m.Signature = nil
	bytes, err := CanonicalSigningBytes(m)
	if err != nil {
		return err
	}
	m.Signature = id.Sign(bytes)
	return nil
}

// CheckSignature classifies and, where applicable, verifies m's
// Author/Signature pair per spec §4.5.4 step 2:
//   - both unset:     SigUnsignedLegacy, nil
//   - both set, valid: SigValid, nil
//   - both set, invalid, or exactly one set: ErrInvalidSignature
func CheckSignature(m *Manifest) (SigStatus, error) {
	hasAuthor := len(m.Author) > 0
	hasSig := len(m.Signature) > 0

	switch {
	case !hasAuthor && !hasSig:
		return SigUnsignedLegacy, nil
	case hasAuthor != hasSig:
		return 0, ErrInvalidSignature
	}

	bytes, err := CanonicalSigningBytes(m)
	if err != nil {
		return 0, err
	}
	if !bucketcrypto.VerifySignature(ed25519.PublicKey(m.Author), bytes, m.Signature) {
		return 0, ErrInvalidSignature
	}
	return SigValid, nil
}

// ValidateInvariants checks the structural invariants spec §3.6 requires of
// every Manifest, independent of its position in any log:
//   - height == 0 iff previous is unset
//   - if author is set, it must appear in shares
//   - shares must contain at least one Owner
func ValidateInvariants(m *Manifest) error {
	if (m.Height == 0) != (len(m.Previous) == 0) {
		return ErrHeightGenesisMismatch
	}
	if len(m.Author) > 0 {
		if _, ok := m.Shares[peerKey(m.Author)]; !ok {
			return ErrAuthorNotInShares
		}
	}
	hasOwner := false
	for _, sh := range m.Shares {
		if sh.Role == bucketcrypto.RoleOwner {
			hasOwner = true
			break
		}
	}
	if !hasOwner {
		return ErrNoOwner
	}
	return nil
}

// peerKey is the map key used for Shares — the hex peer id, matching
// bucketcrypto.Identity.PeerID().
func peerKey(pub []byte) string {
	const hextable = "0123456789abcdef"
	out := make([]byte, len(pub)*2)
	for i, b := range pub {
		out[i*2] = hextable[b>>4]
		out[i*2+1] = hextable[b&0x0f]
	}
	return string(out)
}

// PeerKey exports peerKey for callers (mount, syncengine) that need to
// index Shares by a public key the same way Manifest does.
func PeerKey(pub []byte) string { return peerKey(pub) }
