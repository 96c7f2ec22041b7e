// Package bucketcrypto implements the cryptographic primitives that every
// other bucket-storage package builds on: identity keypairs, the symmetric
// Secret used to encrypt bucket content, AEAD encrypt/decrypt, share
// wrapping via ECDH + AES key-wrap, and the content hash function.
package bucketcrypto

import "errors"

// Sentinel errors, matched with errors.Is — never by string comparison.
var (
	// ErrDecrypt is returned when AEAD authentication fails on decrypt.
	ErrDecrypt = errors.New("bucketcrypto: decryption failed")
	// ErrKeyAgreement is returned when a peer identity cannot be converted
	// into a valid X25519 key-agreement key.
	ErrKeyAgreement = errors.New("bucketcrypto: key agreement failed")
	// ErrBadCiphertext is returned when a framed ciphertext is too short to
	// contain a nonce and authentication tag.
	ErrBadCiphertext = errors.New("bucketcrypto: ciphertext too short")
	// ErrBadWrappedShare is returned when a wrapped secret is not the
	// expected 72-byte ephemeral-pubkey||wrapped-bytes framing.
	ErrBadWrappedShare = errors.New("bucketcrypto: malformed wrapped secret")
	// ErrNotOwnerShare is returned when UnwrapSecret is called with an empty
	// wrapped secret (e.g. an unpublished Mirror's share).
	ErrNotOwnerShare = errors.New("bucketcrypto: share carries no wrapped secret")
	// ErrBadSignature names a failed signature verification. No function in
	// this package returns it: VerifySignature reports the result as a bool.
	ErrBadSignature = errors.New("bucketcrypto: signature verification failed")
)
