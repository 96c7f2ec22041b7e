package blob

import (
	"bytes"
	"context"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestMemoryStorePutGetHasIdempotent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	data := []byte("hello bucket")
	l1, err := store.Put(ctx, data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	l2, err := store.Put(ctx, data)
	if err != nil {
		t.Fatalf("Put again: %v", err)
	}
	if !l1.Equal(l2) {
		t.Fatal("Put is not idempotent on content hash")
	}

	got, err := store.Get(ctx, l1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %q want %q", got, data)
	}

	has, err := store.Has(ctx, l1)
	if err != nil || !has {
		t.Fatalf("Has: got (%v, %v) want (true, nil)", has, err)
	}
}

func TestMemoryStoreGetMissing(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	l, _ := NewLink([]byte("never stored"))
	if _, err := store.Get(ctx, l); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDiskStorePutGet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewDiskStore(dir, 0, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	data := []byte("disk-backed content")
	link, err := store.Put(ctx, data)
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := store.Get(ctx, link)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("round trip mismatch: got %q want %q", got, data)
	}
}

func TestDiskStoreEvictsOldestOverCapacity(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewDiskStore(dir, 2, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}

	l1, _ := store.Put(ctx, []byte("one"))
	_, _ = store.Put(ctx, []byte("two"))
	_, _ = store.Put(ctx, []byte("three"))

	if has, _ := store.Has(ctx, l1); has {
		t.Fatal("expected oldest entry to be evicted once capacity exceeded")
	}
}

func TestPinsRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	a, _ := store.Put(ctx, []byte("a"))
	b, _ := store.Put(ctx, []byte("b"))
	c, _ := store.Put(ctx, []byte("c"))
	links := []Link{a, b, c}

	pinsLink, err := PutPins(ctx, store, links)
	if err != nil {
		t.Fatalf("PutPins: %v", err)
	}
	got, err := GetPins(ctx, store, pinsLink)
	if err != nil {
		t.Fatalf("GetPins: %v", err)
	}
	if len(got) != len(links) {
		t.Fatalf("pins length mismatch: got %d want %d", len(got), len(links))
	}
	for i := range links {
		if !got[i].Equal(links[i]) {
			t.Fatalf("pins[%d] mismatch: got %s want %s", i, got[i], links[i])
		}
	}
}

type fakeFetcher struct {
	blobs map[string][]byte
}

func (f *fakeFetcher) FetchBlob(_ context.Context, _ string, link Link) ([]byte, error) {
	data, ok := f.blobs[link.String()]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func TestFetchFromVerifiesHash(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	data := []byte("remote content")
	link, _ := NewLink(data)

	fetcher := &fakeFetcher{blobs: map[string][]byte{link.String(): data}}
	got, err := FetchFrom(ctx, store, fetcher, "peer-a", link)
	if err != nil {
		t.Fatalf("FetchFrom: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("mismatch: got %q want %q", got, data)
	}
	if has, _ := store.Has(ctx, link); !has {
		t.Fatal("FetchFrom did not store the verified blob locally")
	}
}

func TestFetchFromRejectsHashMismatch(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	data := []byte("remote content")
	link, _ := NewLink(data)

	// Fetcher returns different bytes than what was requested — simulates a
	// corrupt or malicious peer.
	fetcher := &fakeFetcher{blobs: map[string][]byte{link.String(): []byte("tampered content")}}
	if _, err := FetchFrom(ctx, store, fetcher, "peer-a", link); err != ErrCorrupt {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}
