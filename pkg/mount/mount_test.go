package mount

import (
	"context"
	"testing"

	"github.com/bucketdag/core/pkg/blob"
	"github.com/bucketdag/core/pkg/bucketcrypto"
)

// newGenesisBucket mints a single-owner, empty-root genesis bucket via
// CreateBucket and returns its manifest link.
func newGenesisBucket(t *testing.T, ctx context.Context, store blob.Store, owner bucketcrypto.Identity) blob.Link {
	t.Helper()
	_, link, err := CreateBucket(ctx, store, "demo", owner)
	if err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}
	return link
}

func TestCreateBucketProducesOpenableGenesis(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemoryStore()
	owner, _ := bucketcrypto.NewIdentity()

	mnt, link, err := CreateBucket(ctx, store, "demo", owner)
	if err != nil {
		t.Fatalf("CreateBucket: %v", err)
	}
	if mnt.Name() != "demo" {
		t.Fatalf("Name() = %q, want %q", mnt.Name(), "demo")
	}
	if _, height := mnt.Head(); height != 0 {
		t.Fatalf("Head() height = %d, want 0", height)
	}
	entries, err := mnt.Ls(ctx, "")
	if err != nil {
		t.Fatalf("Ls: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty root, got %d entries", len(entries))
	}

	reopened, err := New(ctx, store, link, owner)
	if err != nil {
		t.Fatalf("reopen via New: %v", err)
	}
	if reopened.ID() != mnt.ID() {
		t.Fatalf("reopened ID %s != original ID %s", reopened.ID(), mnt.ID())
	}
}

func TestAddCatRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemoryStore()
	owner, _ := bucketcrypto.NewIdentity()
	link := newGenesisBucket(t, ctx, store, owner)

	mnt, err := New(ctx, store, link, owner)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := mnt.Add(ctx, "docs/readme.txt", []byte("hello")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, err := mnt.Cat(ctx, "docs/readme.txt")
	if err != nil {
		t.Fatalf("Cat: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("Cat = %q, want %q", got, "hello")
	}
}

func TestAddOverExistingDirectoryFails(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemoryStore()
	owner, _ := bucketcrypto.NewIdentity()
	link := newGenesisBucket(t, ctx, store, owner)

	mnt, _ := New(ctx, store, link, owner)
	if err := mnt.Mkdir(ctx, "docs"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := mnt.Add(ctx, "docs", []byte("x")); err != ErrIsADirectory {
		t.Fatalf("expected ErrIsADirectory, got %v", err)
	}
}

func TestMkdirTwiceFails(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemoryStore()
	owner, _ := bucketcrypto.NewIdentity()
	link := newGenesisBucket(t, ctx, store, owner)

	mnt, _ := New(ctx, store, link, owner)
	if err := mnt.Mkdir(ctx, "a"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := mnt.Mkdir(ctx, "a"); err != ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestCatOnDirectoryFails(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemoryStore()
	owner, _ := bucketcrypto.NewIdentity()
	link := newGenesisBucket(t, ctx, store, owner)

	mnt, _ := New(ctx, store, link, owner)
	if err := mnt.Mkdir(ctx, "a"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := mnt.Cat(ctx, "a"); err != ErrNotAFile {
		t.Fatalf("expected ErrNotAFile, got %v", err)
	}
}

func TestRmThenNotFound(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemoryStore()
	owner, _ := bucketcrypto.NewIdentity()
	link := newGenesisBucket(t, ctx, store, owner)

	mnt, _ := New(ctx, store, link, owner)
	if err := mnt.Add(ctx, "a.txt", []byte("x")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := mnt.Rm(ctx, "a.txt"); err != nil {
		t.Fatalf("Rm: %v", err)
	}
	if _, err := mnt.Cat(ctx, "a.txt"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMvPreservesContentWithoutReEncryption(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemoryStore()
	owner, _ := bucketcrypto.NewIdentity()
	link := newGenesisBucket(t, ctx, store, owner)

	mnt, _ := New(ctx, store, link, owner)
	if err := mnt.Add(ctx, "a.txt", []byte("hello")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := mnt.Mkdir(ctx, "sub"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if err := mnt.Mv(ctx, "a.txt", "sub/b.txt"); err != nil {
		t.Fatalf("Mv: %v", err)
	}
	got, err := mnt.Cat(ctx, "sub/b.txt")
	if err != nil {
		t.Fatalf("Cat: %v", err)
	}
	if string(got) != "hello" {
		t.Fatalf("Cat = %q, want %q", got, "hello")
	}
	if _, err := mnt.Cat(ctx, "a.txt"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound at old path, got %v", err)
	}
}

func TestSaveProducesLoadableSuccessor(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemoryStore()
	owner, _ := bucketcrypto.NewIdentity()
	genesisLink := newGenesisBucket(t, ctx, store, owner)

	mnt, err := New(ctx, store, genesisLink, owner)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := mnt.Add(ctx, "notes/a.txt", []byte("v1")); err != nil {
		t.Fatalf("Add: %v", err)
	}
	newLink, previous, height, err := mnt.Save(ctx, false, owner)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !previous.Equal(genesisLink) {
		t.Fatalf("previous = %s, want %s", previous, genesisLink)
	}
	if height != 1 {
		t.Fatalf("height = %d, want 1", height)
	}

	reopened, err := New(ctx, store, newLink, owner)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reopened.Cat(ctx, "notes/a.txt")
	if err != nil {
		t.Fatalf("Cat after reopen: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("Cat = %q, want %q", got, "v1")
	}
}

func TestAddShareThenMirrorCanOpenAfterPublish(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemoryStore()
	owner, _ := bucketcrypto.NewIdentity()
	mirror, _ := bucketcrypto.NewIdentity()
	genesisLink := newGenesisBucket(t, ctx, store, owner)

	mnt, _ := New(ctx, store, genesisLink, owner)
	if err := mnt.AddShare(mirror.Public, bucketcrypto.RoleMirror); err != nil {
		t.Fatalf("AddShare: %v", err)
	}

	// Unpublished: the mirror's share carries no wrapped secret yet.
	newLink, _, _, err := mnt.Save(ctx, false, owner)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := New(ctx, store, newLink, mirror); err != ErrMirrorUnpublished {
		t.Fatalf("expected ErrMirrorUnpublished, got %v", err)
	}

	mnt2, _ := New(ctx, store, newLink, owner)
	publishedLink, _, _, err := mnt2.Save(ctx, true, owner)
	if err != nil {
		t.Fatalf("Save publish: %v", err)
	}
	if _, err := New(ctx, store, publishedLink, mirror); err != nil {
		t.Fatalf("mirror open after publish: %v", err)
	}
}

func TestRemoveShareRejectsLastOwner(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemoryStore()
	owner, _ := bucketcrypto.NewIdentity()
	genesisLink := newGenesisBucket(t, ctx, store, owner)

	mnt, _ := New(ctx, store, genesisLink, owner)
	if err := mnt.RemoveShare(owner.Public); err != ErrCannotRemoveLastOwner {
		t.Fatalf("expected ErrCannotRemoveLastOwner, got %v", err)
	}
}
