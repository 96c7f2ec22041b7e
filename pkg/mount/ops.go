package mount

import (
	"context"
	"time"

	"github.com/bucketdag/core/pkg/bucketcrypto"
	"github.com/bucketdag/core/pkg/manifest"
)

// Entry describes one name within a directory listing.
type Entry struct {
	Name    string
	IsDir   bool
	Size    int64 // file content length is not tracked; always 0 for now
	ModTime time.Time
	Mime    string
}

// Ls lists the contents of the directory at path (spec §4.3.1).
func (m *Mount) Ls(ctx context.Context, path string) ([]Entry, error) {
	dir, err := m.navigate(ctx, splitPath(path), false, false)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(dir.entries))
	for name, ent := range dir.entries {
		e := Entry{Name: name, IsDir: ent.kind == manifest.KindDir, ModTime: time.Unix(0, ent.modTime)}
		if ent.meta != nil {
			e.Mime = ent.meta.MimeType
		}
		out = append(out, e)
	}
	return out, nil
}

// Cat returns the decrypted content of the file at path.
func (m *Mount) Cat(ctx context.Context, path string) ([]byte, error) {
	parent, leaf, err := m.resolveParent(ctx, path, false, false)
	if err != nil {
		return nil, err
	}
	ent, ok := parent.entries[leaf]
	if !ok {
		return nil, ErrNotFound
	}
	if ent.kind == manifest.KindDir {
		return nil, ErrNotAFile
	}
	return manifest.LoadFile(ctx, m.store, ent.secret, ent.blobLink)
}

// Add writes data as a new file at path, generating a fresh Secret for its
// content (spec §4.3.1). Fails ErrIsADirectory if path already names a
// directory.
func (m *Mount) Add(ctx context.Context, path string, data []byte) error {
	return m.AddWithMeta(ctx, path, data, "", nil)
}

// AddWithMeta is Add with an explicit MIME type and attribute map stored in
// the file's NodeLink metadata.
func (m *Mount) AddWithMeta(ctx context.Context, path string, data []byte, mime string, attrs map[string]string) error {
	parent, leaf, err := m.resolveParent(ctx, path, true, true)
	if err != nil {
		return err
	}
	if leaf == "" {
		return ErrEmptyPath
	}
	if existing, ok := parent.entries[leaf]; ok && existing.kind == manifest.KindDir {
		return ErrIsADirectory
	}

	secret, err := bucketcrypto.RandomSecret()
	if err != nil {
		return err
	}
	link, err := manifest.StoreFile(ctx, m.store, secret, data)
	if err != nil {
		return err
	}
	parent.entries[leaf] = &entry{
		kind:     manifest.KindFile,
		blobLink: link,
		secret:   secret,
		meta:     &manifest.FileMeta{MimeType: mime, Attrs: attrs},
		modTime:  time.Now().UnixNano(),
	}
	parent.dirty = true
	return nil
}

// Mkdir creates an empty directory at path, with a fresh Secret of its own
// (spec §4.3.1). Fails ErrAlreadyExists if the terminal name is taken.
func (m *Mount) Mkdir(ctx context.Context, path string) error {
	parent, leaf, err := m.resolveParent(ctx, path, true, true)
	if err != nil {
		return err
	}
	if leaf == "" {
		return ErrEmptyPath
	}
	if _, ok := parent.entries[leaf]; ok {
		return ErrAlreadyExists
	}
	secret, err := bucketcrypto.RandomSecret()
	if err != nil {
		return err
	}
	parent.entries[leaf] = &entry{
		kind:    manifest.KindDir,
		sub:     &dirState{secret: secret, entries: make(map[string]*entry), dirty: true},
		secret:  secret,
		modTime: time.Now().UnixNano(),
	}
	parent.dirty = true
	return nil
}

// Rm removes the file or directory at path. Removing a directory removes
// its entire subtree (no recursion guard — spec §4.3.1 treats rm of a
// directory as removing its NodeLink wholesale).
func (m *Mount) Rm(ctx context.Context, path string) error {
	parent, leaf, err := m.resolveParent(ctx, path, false, true)
	if err != nil {
		return err
	}
	if leaf == "" {
		return ErrEmptyPath
	}
	if _, ok := parent.entries[leaf]; !ok {
		return ErrNotFound
	}
	delete(parent.entries, leaf)
	parent.dirty = true
	return nil
}

// Mv renames/moves the entry at src to dst, preserving its Secret and blob
// link — no re-encryption (spec §4.3.1). Fails ErrAlreadyExists if dst is
// already taken.
func (m *Mount) Mv(ctx context.Context, src, dst string) error {
	srcParent, srcLeaf, err := m.resolveParent(ctx, src, false, true)
	if err != nil {
		return err
	}
	if srcLeaf == "" {
		return ErrEmptyPath
	}
	ent, ok := srcParent.entries[srcLeaf]
	if !ok {
		return ErrNotFound
	}

	dstParent, dstLeaf, err := m.resolveParent(ctx, dst, true, true)
	if err != nil {
		return err
	}
	if dstLeaf == "" {
		return ErrEmptyPath
	}
	if _, exists := dstParent.entries[dstLeaf]; exists {
		return ErrAlreadyExists
	}

	delete(srcParent.entries, srcLeaf)
	dstParent.entries[dstLeaf] = ent
	srcParent.dirty = true
	dstParent.dirty = true
	return nil
}

// resolveParent splits path into its parent directory and terminal name,
// navigating (and optionally creating) the parent. markDirty flags every
// ancestor directory on the path as needing re-store, for mutating callers.
func (m *Mount) resolveParent(ctx context.Context, path string, create, markDirty bool) (*dirState, string, error) {
	names := splitPath(path)
	if len(names) == 0 {
		if markDirty {
			m.root.dirty = true
		}
		return m.root, "", nil
	}
	parent, err := m.navigate(ctx, names[:len(names)-1], create, markDirty)
	if err != nil {
		return nil, "", err
	}
	return parent, names[len(names)-1], nil
}
