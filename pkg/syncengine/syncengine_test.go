package syncengine

import (
	"context"
	crand "crypto/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bucketdag/core/pkg/blob"
	"github.com/bucketdag/core/pkg/bucketcrypto"
	"github.com/bucketdag/core/pkg/bucketlog"
	"github.com/bucketdag/core/pkg/manifest"
	"github.com/bucketdag/core/pkg/transport"
)

// ownerShare builds a Share for id with secret wrapped for it.
func ownerShare(t *testing.T, secret bucketcrypto.Secret, id bucketcrypto.Identity) manifest.Share {
	t.Helper()
	wrapped, err := bucketcrypto.WrapSecret(secret, id.Public, crand.Reader)
	if err != nil {
		t.Fatalf("WrapSecret: %v", err)
	}
	return manifest.Share{Role: bucketcrypto.RoleOwner, Identity: append([]byte(nil), id.Public...), WrappedSecret: wrapped}
}

// TestPingDrivenSyncConvergesTwoOwners reproduces spec §8.2 scenario S2:
// Alice adds Bob as Owner and saves while Bob is offline; Bob pings Alice
// once online and ends up with both log entries and the file content.
func TestPingDrivenSyncConvergesTwoOwners(t *testing.T) {
	ctx := context.Background()

	aliceID, err := bucketcrypto.NewIdentity()
	if err != nil {
		t.Fatalf("alice identity: %v", err)
	}
	bobID, err := bucketcrypto.NewIdentity()
	if err != nil {
		t.Fatalf("bob identity: %v", err)
	}

	aliceStore := blob.NewMemoryStore()
	bobStore := blob.NewMemoryStore()
	aliceLog := bucketlog.NewMemoryLog()
	bobLog := bucketlog.NewMemoryLog()

	net := transport.NewMockNetwork()
	aliceTransport := transport.NewMockTransport(net, aliceID.PeerID())
	bobTransport := transport.NewMockTransport(net, bobID.PeerID())

	logger := logrus.New()
	// Alice's engine only needs to exist to answer Bob's requests; its
	// handlers are wired into aliceTransport by the constructor.
	_ = NewEngine(DefaultEngineConfig(), aliceID, aliceStore, aliceLog, aliceTransport, logger)
	bobEngine := NewEngine(DefaultEngineConfig(), bobID, bobStore, bobLog, bobTransport, logger)

	bucketSecret, err := bucketcrypto.RandomSecret()
	if err != nil {
		t.Fatalf("bucket secret: %v", err)
	}
	fileSecret, err := bucketcrypto.RandomSecret()
	if err != nil {
		t.Fatalf("file secret: %v", err)
	}

	fileLink, err := manifest.StoreFile(ctx, aliceStore, fileSecret, []byte("hello"))
	if err != nil {
		t.Fatalf("StoreFile: %v", err)
	}
	root := manifest.Node{"notes.txt": manifest.NewFileLink(fileLink.Bytes(), fileSecret, "text/plain", nil)}
	rootLink, err := manifest.StoreNode(ctx, aliceStore, bucketSecret, root)
	if err != nil {
		t.Fatalf("StoreNode: %v", err)
	}
	pinsLink, err := blob.PutPins(ctx, aliceStore, []blob.Link{rootLink, fileLink})
	if err != nil {
		t.Fatalf("PutPins: %v", err)
	}

	bucketID := uuid.New()

	genesis := &manifest.Manifest{
		ID:      bucketID,
		Name:    "demo",
		Shares:  map[string]manifest.Share{aliceID.PeerID(): ownerShare(t, bucketSecret, aliceID)},
		Entry:   rootLink.Bytes(),
		Pins:    pinsLink.Bytes(),
		Height:  0,
		Version: manifest.CurrentVersion,
	}
	if err := manifest.Sign(genesis, aliceID); err != nil {
		t.Fatalf("sign genesis: %v", err)
	}
	genesisLink, err := manifest.StoreManifest(ctx, aliceStore, genesis)
	if err != nil {
		t.Fatalf("store genesis: %v", err)
	}
	if err := aliceLog.Append(ctx, bucketID, "demo", genesisLink, blob.Link{}, false, 0); err != nil {
		t.Fatalf("append genesis: %v", err)
	}

	v1 := &manifest.Manifest{
		ID:   bucketID,
		Name: "demo",
		Shares: map[string]manifest.Share{
			aliceID.PeerID(): ownerShare(t, bucketSecret, aliceID),
			bobID.PeerID():   ownerShare(t, bucketSecret, bobID),
		},
		Entry:    rootLink.Bytes(),
		Pins:     pinsLink.Bytes(),
		Previous: genesisLink.Bytes(),
		Height:   1,
		Version:  manifest.CurrentVersion,
	}
	if err := manifest.Sign(v1, aliceID); err != nil {
		t.Fatalf("sign v1: %v", err)
	}
	v1Link, err := manifest.StoreManifest(ctx, aliceStore, v1)
	if err != nil {
		t.Fatalf("store v1: %v", err)
	}
	if err := aliceLog.Append(ctx, bucketID, "demo", v1Link, genesisLink, true, 1); err != nil {
		t.Fatalf("append v1: %v", err)
	}

	// Bob was offline during the save; now he comes online and pings Alice.
	if err := bobEngine.doPing(ctx, bucketID, aliceID.PeerID()); err != nil {
		t.Fatalf("bob ping alice: %v", err)
	}
	if err := bobEngine.SyncBucket(ctx, bucketID, aliceID.PeerID()); err != nil {
		t.Fatalf("bob sync from alice: %v", err)
	}

	height, err := bobLog.Height(ctx, bucketID)
	if err != nil || height != 1 {
		t.Fatalf("bob log height: got (%d, %v), want (1, nil)", height, err)
	}
	heads, err := bobLog.Has(ctx, bucketID, genesisLink)
	if err != nil || len(heads) != 1 {
		t.Fatalf("bob log missing genesis entry: %v, %v", heads, err)
	}

	if err := bobEngine.FetchPins(ctx, bucketID, v1Link); err != nil {
		t.Fatalf("bob fetch pins: %v", err)
	}

	gotRoot, err := manifest.LoadNode(ctx, bobStore, bucketSecret, rootLink)
	if err != nil {
		t.Fatalf("bob load root node: %v", err)
	}
	fileEntry, ok := gotRoot["notes.txt"]
	if !ok {
		t.Fatal("bob's synced root node missing notes.txt")
	}
	gotFileLink, err := blob.ParseLink(fileEntry.BlobLink)
	if err != nil {
		t.Fatalf("parse file link: %v", err)
	}
	content, err := manifest.LoadFile(ctx, bobStore, fileEntry.Secret, gotFileLink)
	if err != nil {
		t.Fatalf("bob load file: %v", err)
	}
	if string(content) != "hello" {
		t.Fatalf("content = %q, want %q", content, "hello")
	}
}

// TestProvenanceRejectsAuthorNotOwner reproduces spec §8.2 scenario S4's
// sync-time rejection: a manifest authored by a non-Owner must be refused.
func TestProvenanceRejectsAuthorNotOwner(t *testing.T) {
	ctx := context.Background()

	aliceID, _ := bucketcrypto.NewIdentity()
	mallory, _ := bucketcrypto.NewIdentity()

	store := blob.NewMemoryStore()
	bucketSecret, _ := bucketcrypto.RandomSecret()
	root := manifest.Node{}
	rootLink, _ := manifest.StoreNode(ctx, store, bucketSecret, root)
	pinsLink, _ := blob.PutPins(ctx, store, []blob.Link{rootLink})

	bucketID := uuid.New()
	genesis := &manifest.Manifest{
		ID:   bucketID,
		Name: "demo",
		Shares: map[string]manifest.Share{
			aliceID.PeerID(): ownerShare(t, bucketSecret, aliceID),
			mallory.PeerID(): {Role: bucketcrypto.RoleMirror, Identity: append([]byte(nil), mallory.Public...)},
		},
		Entry:   rootLink.Bytes(),
		Pins:    pinsLink.Bytes(),
		Height:  0,
		Version: manifest.CurrentVersion,
	}
	manifest.Sign(genesis, aliceID)

	evil := &manifest.Manifest{
		ID:       bucketID,
		Name:     "demo",
		Shares:   genesis.Shares,
		Entry:    rootLink.Bytes(),
		Pins:     pinsLink.Bytes(),
		Previous: mustLink(t, genesis),
		Height:   1,
		Version:  manifest.CurrentVersion,
	}
	manifest.Sign(evil, mallory)

	lookup := func(_ context.Context, link blob.Link) (*manifest.Manifest, error) {
		if link.Equal(mustParsedLink(t, mustLink(t, genesis))) {
			return genesis, nil
		}
		return nil, blob.ErrNotFound
	}

	if err := verifyProvenance(ctx, evil, lookup); err != ErrAuthorNotOwner {
		t.Fatalf("expected ErrAuthorNotOwner, got %v", err)
	}
}

func mustLink(t *testing.T, m *manifest.Manifest) []byte {
	t.Helper()
	data, err := manifest.EncodeManifest(m)
	if err != nil {
		t.Fatalf("encode manifest: %v", err)
	}
	link, err := blob.NewLink(data)
	if err != nil {
		t.Fatalf("hash manifest: %v", err)
	}
	return link.Bytes()
}

func mustParsedLink(t *testing.T, b []byte) blob.Link {
	t.Helper()
	link, err := blob.ParseLink(b)
	if err != nil {
		t.Fatalf("parse link: %v", err)
	}
	return link
}
