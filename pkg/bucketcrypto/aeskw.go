package bucketcrypto

import (
	"crypto/aes"
	"encoding/binary"
	"errors"
)

// RFC 3394 AES key wrap. No example or pack dependency implements key
// wrapping (the teacher's AEAD stack is XChaCha20-Poly1305, not key-wrap);
// this is stdlib crypto/aes only — see DESIGN.md for why no library could
// serve this specific, narrowly scoped primitive.

var defaultIV = [8]byte{0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6, 0xA6}

var errKWLength = errors.New("bucketcrypto: key-wrap input must be a non-empty multiple of 8 bytes")

// wrapKW wraps plaintext (a multiple of 8 bytes) under kek, per RFC 3394.
func wrapKW(kek, plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 || len(plaintext)%8 != 0 {
		return nil, errKWLength
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(plaintext) / 8
	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], plaintext[i*8:(i+1)*8])
	}

	var a [8]byte
	copy(a[:], defaultIV[:])

	var buf [16]byte
	for j := 0; j < 6; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[:8], a[:])
			copy(buf[8:], r[i-1][:])
			block.Encrypt(buf[:], buf[:])
			copy(a[:], buf[:8])
			t := uint64(n*j + i)
			xorCounter(&a, t)
			copy(r[i-1][:], buf[8:])
		}
	}

	out := make([]byte, 8+len(plaintext))
	copy(out[:8], a[:])
	for i := 0; i < n; i++ {
		copy(out[8+i*8:], r[i][:])
	}
	return out, nil
}

// unwrapKW reverses wrapKW.
func unwrapKW(kek, wrapped []byte) ([]byte, error) {
	if len(wrapped) < 16 || len(wrapped)%8 != 0 {
		return nil, errKWLength
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(wrapped)/8 - 1
	r := make([][8]byte, n)
	for i := 0; i < n; i++ {
		copy(r[i][:], wrapped[8+i*8:8+(i+1)*8])
	}
	var a [8]byte
	copy(a[:], wrapped[:8])

	var buf [16]byte
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			xorCounter(&a, t)
			copy(buf[:8], a[:])
			copy(buf[8:], r[i-1][:])
			block.Decrypt(buf[:], buf[:])
			copy(a[:], buf[:8])
			copy(r[i-1][:], buf[8:])
		}
	}
	if a != defaultIV {
		return nil, ErrDecrypt
	}

	out := make([]byte, n*8)
	for i := 0; i < n; i++ {
		copy(out[i*8:], r[i][:])
	}
	return out, nil
}

func xorCounter(a *[8]byte, t uint64) {
	var tb [8]byte
	binary.BigEndian.PutUint64(tb[:], t)
	for i := range a {
		a[i] ^= tb[i]
	}
}
