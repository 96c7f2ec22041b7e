package bucketcrypto

import (
	"bytes"
	crand "crypto/rand"
	"testing"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	cases := [][]byte{
		{},
		[]byte("hello"),
		bytes.Repeat([]byte{0x42}, 4096),
	}
	for _, pt := range cases {
		s, err := RandomSecret()
		if err != nil {
			t.Fatalf("RandomSecret: %v", err)
		}
		ct, err := Encrypt(s, pt)
		if err != nil {
			t.Fatalf("Encrypt: %v", err)
		}
		got, err := Decrypt(s, ct)
		if err != nil {
			t.Fatalf("Decrypt: %v", err)
		}
		if !bytes.Equal(got, pt) {
			t.Fatalf("round trip mismatch: got %x want %x", got, pt)
		}
	}
}

func TestEncryptNonceIsRandomNotCounter(t *testing.T) {
	s, _ := RandomSecret()
	a, err := Encrypt(s, []byte("same plaintext"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Encrypt(s, []byte("same plaintext"))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Equal(a[:NonceSize], b[:NonceSize]) {
		t.Fatal("two encryptions under the same secret produced the same nonce")
	}
	if bytes.Equal(a, b) {
		t.Fatal("two encryptions under the same secret produced identical ciphertext")
	}
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	s, _ := RandomSecret()
	ct, _ := Encrypt(s, []byte("payload"))
	ct[len(ct)-1] ^= 0xFF
	if _, err := Decrypt(s, ct); err != ErrDecrypt {
		t.Fatalf("expected ErrDecrypt, got %v", err)
	}
}

func TestDecryptRejectsShortCiphertext(t *testing.T) {
	s, _ := RandomSecret()
	if _, err := Decrypt(s, []byte{1, 2, 3}); err != ErrBadCiphertext {
		t.Fatalf("expected ErrBadCiphertext, got %v", err)
	}
}

func TestShareWrapUnwrapRoundTrip(t *testing.T) {
	secret, _ := RandomSecret()
	recipient, err := NewIdentity()
	if err != nil {
		t.Fatalf("NewIdentity: %v", err)
	}

	wrapped, err := WrapSecret(secret, recipient.Public, crand.Reader)
	if err != nil {
		t.Fatalf("WrapSecret: %v", err)
	}

	got, err := UnwrapSecret(wrapped, recipient)
	if err != nil {
		t.Fatalf("UnwrapSecret: %v", err)
	}
	if got != secret {
		t.Fatalf("unwrap mismatch: got %x want %x", got, secret)
	}
}

func TestShareUnwrapFailsForWrongRecipient(t *testing.T) {
	secret, _ := RandomSecret()
	recipient, _ := NewIdentity()
	other, _ := NewIdentity()

	wrapped, err := WrapSecret(secret, recipient.Public, crand.Reader)
	if err != nil {
		t.Fatalf("WrapSecret: %v", err)
	}
	if _, err := UnwrapSecret(wrapped, other); err == nil {
		t.Fatal("expected unwrap under the wrong identity to fail")
	}
}

func TestSignVerify(t *testing.T) {
	id, _ := NewIdentity()
	msg := []byte("manifest canonical bytes")
	sig := id.Sign(msg)
	if !VerifySignature(id.Public, msg, sig) {
		t.Fatal("signature did not verify")
	}
	tampered := append([]byte(nil), msg...)
	tampered[0] ^= 1
	if VerifySignature(id.Public, tampered, sig) {
		t.Fatal("signature verified over tampered message")
	}
}

func TestHashDeterministic(t *testing.T) {
	data := []byte("blob contents")
	if Hash(data) != Hash(data) {
		t.Fatal("Hash is not deterministic")
	}
	if Hash(data) == Hash([]byte("different")) {
		t.Fatal("Hash collided on different inputs")
	}
}

func TestIdentityFromSeedRoundTrip(t *testing.T) {
	id, _ := NewIdentity()
	seed := id.Seed()
	restored := IdentityFromSeed(seed)
	if !bytes.Equal(id.Public, restored.Public) {
		t.Fatal("restoring identity from seed produced a different public key")
	}
}
