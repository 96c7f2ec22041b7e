package bucketcrypto

import (
	"crypto/ed25519"
	crand "crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"math/big"
)

// Identity is a peer's long-lived Ed25519 signing keypair. Its public key
// doubles as the peer's network identity ("peer id") and — via ToX25519 —
// as its key-agreement identity.
type Identity struct {
	Public  ed25519.PublicKey
	private ed25519.PrivateKey
}

// NewIdentity generates a fresh Ed25519 keypair.
func NewIdentity() (Identity, error) {
	pub, priv, err := ed25519.GenerateKey(crand.Reader)
	if err != nil {
		return Identity{}, err
	}
	return Identity{Public: pub, private: priv}, nil
}

// IdentityFromSeed reconstructs an Identity from a 32-byte seed, as produced
// by Seed. Useful for loading a persisted keypair.
func IdentityFromSeed(seed []byte) Identity {
	priv := ed25519.NewKeyFromSeed(seed)
	return Identity{Public: priv.Public().(ed25519.PublicKey), private: priv}
}

// Seed returns the 32-byte seed that deterministically regenerates this
// Identity's keypair. Callers persisting this should encrypt it at rest;
// bucketcrypto never does so itself.
func (id Identity) Seed() []byte {
	return append([]byte(nil), id.private.Seed()...)
}

// PeerID is the hex encoding of the public key, used as the network
// identity and as the key used to index Share.identity.
func (id Identity) PeerID() string {
	return hex.EncodeToString(id.Public)
}

// Sign signs msg with the identity's private key.
func (id Identity) Sign(msg []byte) []byte {
	return ed25519.Sign(id.private, msg)
}

// VerifySignature checks sig over msg under pub.
func VerifySignature(pub ed25519.PublicKey, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}

// ToX25519Private converts this identity's Ed25519 private key into an
// X25519 scalar suitable for ECDH, using the standard seed-hash-and-clamp
// birational construction (the same one used by age, libsodium's
// crypto_sign_ed25519_sk_to_curve25519, and signal's XEdDSA).
func (id Identity) ToX25519Private() [32]byte {
	return edPrivateToX25519(id.private)
}

func edPrivateToX25519(priv ed25519.PrivateKey) [32]byte {
	h := sha512.Sum512(priv.Seed())
	var scalar [32]byte
	copy(scalar[:], h[:32])
	clamp(&scalar)
	return scalar
}

func clamp(s *[32]byte) {
	s[0] &= 248
	s[31] &= 127
	s[31] |= 64
}

// edwards25519FieldPrime is p = 2^255 - 19.
var edwards25519FieldPrime = func() *big.Int {
	p := new(big.Int).Lsh(big.NewInt(1), 255)
	return p.Sub(p, big.NewInt(19))
}()

// PublicKeyToX25519 converts an Ed25519 public key into its Montgomery-form
// X25519 public key via the birational map u = (1+y)/(1-y) mod p, where y is
// the Edwards curve's y-coordinate recovered from the compressed public key.
// Returns ErrKeyAgreement if pub does not decode to a valid curve point.
func PublicKeyToX25519(pub ed25519.PublicKey) ([32]byte, error) {
	var out [32]byte
	if len(pub) != ed25519.PublicKeySize {
		return out, ErrKeyAgreement
	}

	// Little-endian compressed point: low 255 bits are y, top bit is the
	// sign of x. The sign bit is irrelevant to the Montgomery u coordinate.
	var buf [32]byte
	copy(buf[:], pub)
	buf[31] &= 0x7f

	y := new(big.Int).SetBytes(reverseBytes(buf[:]))
	p := edwards25519FieldPrime
	if y.Cmp(p) >= 0 {
		return out, ErrKeyAgreement
	}

	one := big.NewInt(1)
	num := new(big.Int).Mod(new(big.Int).Add(one, y), p)
	den := new(big.Int).Mod(new(big.Int).Sub(one, y), p)
	denInv := new(big.Int).ModInverse(den, p)
	if denInv == nil {
		return out, ErrKeyAgreement
	}
	u := new(big.Int).Mod(new(big.Int).Mul(num, denInv), p)

	ub := u.Bytes() // big-endian, may be shorter than 32 bytes
	var be [32]byte
	copy(be[32-len(ub):], ub)
	copy(out[:], reverseBytes(be[:])) // back to little-endian for X25519
	return out, nil
}

func reverseBytes(b []byte) []byte {
	out := make([]byte, len(b))
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out
}
