package manifest

import (
	"context"

	"github.com/bucketdag/core/pkg/blob"
	"github.com/bucketdag/core/pkg/bucketcrypto"
)

// StoreNode encrypts n under secret and stores the ciphertext blob,
// returning its Link (spec §3.4).
func StoreNode(ctx context.Context, store blob.Store, secret bucketcrypto.Secret, n Node) (blob.Link, error) {
	plain, err := EncodeNode(n)
	if err != nil {
		return blob.Link{}, err
	}
	ct, err := bucketcrypto.Encrypt(secret, plain)
	if err != nil {
		return blob.Link{}, err
	}
	return store.Put(ctx, ct)
}

// LoadNode fetches and decrypts the Node stored at link under secret.
func LoadNode(ctx context.Context, store blob.Store, secret bucketcrypto.Secret, link blob.Link) (Node, error) {
	ct, err := store.Get(ctx, link)
	if err != nil {
		return nil, err
	}
	plain, err := bucketcrypto.Decrypt(secret, ct)
	if err != nil {
		return nil, err
	}
	return DecodeNode(plain)
}

// StoreFile encrypts data under secret and stores it, returning the Link to
// put into a File NodeLink.
func StoreFile(ctx context.Context, store blob.Store, secret bucketcrypto.Secret, data []byte) (blob.Link, error) {
	ct, err := bucketcrypto.Encrypt(secret, data)
	if err != nil {
		return blob.Link{}, err
	}
	return store.Put(ctx, ct)
}

// LoadFile fetches and decrypts a file's content.
func LoadFile(ctx context.Context, store blob.Store, secret bucketcrypto.Secret, link blob.Link) ([]byte, error) {
	ct, err := store.Get(ctx, link)
	if err != nil {
		return nil, err
	}
	return bucketcrypto.Decrypt(secret, ct)
}

// StoreManifest encodes (unencrypted — manifests are the one top-level
// plaintext object, spec §3.6) and stores m, returning its Link.
func StoreManifest(ctx context.Context, store blob.Store, m *Manifest) (blob.Link, error) {
	data, err := EncodeManifest(m)
	if err != nil {
		return blob.Link{}, err
	}
	return store.Put(ctx, data)
}

// LoadManifest fetches and decodes the Manifest stored at link.
func LoadManifest(ctx context.Context, store blob.Store, link blob.Link) (*Manifest, error) {
	data, err := store.Get(ctx, link)
	if err != nil {
		return nil, err
	}
	return DecodeManifest(data)
}
