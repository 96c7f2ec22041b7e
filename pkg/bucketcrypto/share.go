package bucketcrypto

import (
	"crypto/ed25519"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

// Role is a principal's access level on a bucket.
type Role uint8

const (
	// RoleOwner has full read/write authority, including share management.
	RoleOwner Role = iota
	// RoleMirror has sync-only access; may decrypt only after publication.
	RoleMirror
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleMirror:
		return "mirror"
	default:
		return "unknown"
	}
}

// wrappedShareSize is the framed size of an Owner's wrapped_secret:
// 32-byte ephemeral X25519 public key || 40-byte AES-KW-wrapped Secret
// (32-byte Secret plus the 8-byte RFC 3394 integrity block).
const wrappedShareSize = 32 + (SecretSize + 8)

// WrapSecret produces the wrapped_secret bytes granting recipient access to
// bucket Secret: an ephemeral X25519 keypair is generated, ECDH'd against
// the recipient's Ed25519 identity (converted to X25519), and the result is
// used to derive an AES key-wrap key that wraps secret. The output is
// ephemeral_pubkey || wrapped_bytes (72 bytes).
//
// Fails with ErrKeyAgreement only if recipient is not a valid Ed25519 public
// key convertible to a curve point.
func WrapSecret(secret Secret, recipient ed25519.PublicKey, rand io.Reader) ([]byte, error) {
	recipientX, err := PublicKeyToX25519(recipient)
	if err != nil {
		return nil, err
	}

	var ephPriv [32]byte
	if _, err := io.ReadFull(rand, ephPriv[:]); err != nil {
		return nil, err
	}
	clamp(&ephPriv)

	ephPub, err := curve25519.X25519(ephPriv[:], curve25519.Basepoint)
	if err != nil {
		return nil, err
	}

	shared, err := curve25519.X25519(ephPriv[:], recipientX[:])
	if err != nil {
		return nil, ErrKeyAgreement
	}

	kek, err := deriveWrapKey(shared)
	if err != nil {
		return nil, err
	}

	wrapped, err := wrapKW(kek, secret[:])
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, wrappedShareSize)
	out = append(out, ephPub...)
	out = append(out, wrapped...)
	return out, nil
}

// UnwrapSecret inverts WrapSecret using the recipient's Identity.
func UnwrapSecret(wrapped []byte, recipient Identity) (Secret, error) {
	var zero Secret
	if len(wrapped) == 0 {
		return zero, ErrNotOwnerShare
	}
	if len(wrapped) != wrappedShareSize {
		return zero, ErrBadWrappedShare
	}
	ephPub := wrapped[:32]
	wrappedKey := wrapped[32:]

	myX := recipient.ToX25519Private()
	shared, err := curve25519.X25519(myX[:], ephPub)
	if err != nil {
		return zero, ErrKeyAgreement
	}

	kek, err := deriveWrapKey(shared)
	if err != nil {
		return zero, err
	}

	plain, err := unwrapKW(kek, wrappedKey)
	if err != nil {
		return zero, err
	}

	var s Secret
	copy(s[:], plain)
	return s, nil
}

// deriveWrapKey derives a 32-byte AES key-wrap key from a raw ECDH shared
// point via HKDF-SHA256, rather than using the shared point directly.
func deriveWrapKey(shared []byte) ([]byte, error) {
	kek := make([]byte, 32)
	h := hkdf.New(sha256.New, shared, nil, []byte("bucketdag-share-wrap"))
	if _, err := io.ReadFull(h, kek); err != nil {
		return nil, err
	}
	return kek, nil
}
