package bucketcrypto

import (
	"crypto/rand"

	"golang.org/x/crypto/chacha20poly1305"
)

// SecretSize is the length in bytes of a bucket Secret.
const SecretSize = 32

// NonceSize is the length of the random nonce prepended to every ciphertext.
const NonceSize = chacha20poly1305.NonceSize // 12 bytes (96 bits)

// Secret is a 32-byte symmetric key used to encrypt bucket content: the root
// bucket Secret, and a fresh Secret per directory Node and per file.
type Secret [SecretSize]byte

// RandomSecret generates a fresh Secret from a CSPRNG.
func RandomSecret() (Secret, error) {
	var s Secret
	if _, err := rand.Read(s[:]); err != nil {
		return Secret{}, err
	}
	return s, nil
}

// Encrypt seals plaintext under s with a fresh, uniformly random 96-bit
// nonce (never a counter — the same Secret may re-encrypt a directory node
// across many unrelated updates, and no nonce state is persisted between
// them). The output is framed as nonce||ciphertext||tag.
func Encrypt(s Secret, plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s[:])
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, nonce...)
	return aead.Seal(out, nonce, plaintext, nil), nil
}

// Decrypt opens a nonce||ciphertext||tag framed blob produced by Encrypt.
// It returns ErrDecrypt if authentication fails, ErrBadCiphertext if the
// input is too short to contain a nonce and tag.
func Decrypt(s Secret, framed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(s[:])
	if err != nil {
		return nil, err
	}
	if len(framed) < NonceSize+aead.Overhead() {
		return nil, ErrBadCiphertext
	}
	nonce, ct := framed[:NonceSize], framed[NonceSize:]
	pt, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return pt, nil
}
