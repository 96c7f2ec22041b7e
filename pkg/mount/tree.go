package mount

import (
	"context"
	"strings"
	"time"

	"github.com/bucketdag/core/pkg/blob"
	"github.com/bucketdag/core/pkg/bucketcrypto"
	"github.com/bucketdag/core/pkg/manifest"
)

// splitPath breaks a slash-separated path into non-empty components. "/",
// "", and "///" all yield the root (an empty slice).
func splitPath(path string) []string {
	parts := strings.Split(path, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// navigate walks from the root directory through names, returning the
// directory reached. createMissing makes intermediate directories that
// don't exist yet (used by Add and Mkdir's parent walk). markDirty flags
// every directory on the path as needing re-store on the next Save, since a
// mutated leaf invalidates every ancestor's stored encoding.
func (m *Mount) navigate(ctx context.Context, names []string, createMissing, markDirty bool) (*dirState, error) {
	cur := m.root
	if markDirty {
		cur.dirty = true
	}
	for _, name := range names {
		ent, ok := cur.entries[name]
		if !ok {
			if !createMissing {
				return nil, ErrNotFound
			}
			secret, err := bucketcrypto.RandomSecret()
			if err != nil {
				return nil, err
			}
			ent = &entry{
				kind:    manifest.KindDir,
				secret:  secret,
				sub:     &dirState{secret: secret, entries: make(map[string]*entry), dirty: true},
				modTime: time.Now().UnixNano(),
			}
			cur.entries[name] = ent
		}
		if ent.kind != manifest.KindDir {
			return nil, ErrNotADirectory
		}
		if ent.sub == nil {
			sub, err := m.loadDir(ctx, ent)
			if err != nil {
				return nil, err
			}
			ent.sub = sub
		}
		cur = ent.sub
		if markDirty {
			cur.dirty = true
		}
	}
	return cur, nil
}

// loadDir decrypts and decodes the directory Node ent points at.
func (m *Mount) loadDir(ctx context.Context, ent *entry) (*dirState, error) {
	n, err := manifest.LoadNode(ctx, m.store, ent.secret, ent.blobLink)
	if err != nil {
		return nil, err
	}
	return buildDirState(ent.secret, ent.blobLink, n), nil
}

// storeDir re-encrypts and re-stores d and every dirty descendant,
// bottom-up, updating each parent entry's blobLink to point at its child's
// freshly stored link. Clean subtrees are left untouched and their entries'
// blobLink/secret are reused as-is.
func (m *Mount) storeDir(ctx context.Context, d *dirState) (blob.Link, error) {
	for _, ent := range d.entries {
		if ent.kind == manifest.KindDir && ent.sub != nil && ent.sub.dirty {
			link, err := m.storeDir(ctx, ent.sub)
			if err != nil {
				return blob.Link{}, err
			}
			ent.blobLink = link
		}
	}
	if !d.dirty && !d.link.IsZero() {
		return d.link, nil
	}

	node := make(manifest.Node, len(d.entries))
	for name, ent := range d.entries {
		node[name] = manifest.NodeLink{
			Kind:     ent.kind,
			BlobLink: ent.blobLink.Bytes(),
			Secret:   ent.secret,
			Meta:     ent.meta,
			ModTime:  ent.modTime,
		}
	}
	link, err := manifest.StoreNode(ctx, m.store, d.secret, node)
	if err != nil {
		return blob.Link{}, err
	}
	d.link = link
	d.dirty = false
	return link, nil
}

// collectPins appends d's own entries' blob links and recurses into every
// child directory, loading any not yet loaded, to build the full reachable
// set a save's pins blob must cover (spec §3.5).
func (m *Mount) collectPins(ctx context.Context, d *dirState, out *[]blob.Link) error {
	for _, ent := range d.entries {
		*out = append(*out, ent.blobLink)
		if ent.kind != manifest.KindDir {
			continue
		}
		if ent.sub == nil {
			sub, err := m.loadDir(ctx, ent)
			if err != nil {
				return err
			}
			ent.sub = sub
		}
		if err := m.collectPins(ctx, ent.sub, out); err != nil {
			return err
		}
	}
	return nil
}
