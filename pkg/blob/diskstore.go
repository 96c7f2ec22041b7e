package blob

import (
	"context"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// defaultCacheEntries is the default bound on the number of blobs a
// DiskStore indexes. Once the bound is reached, each Put of a new blob evicts
// the earliest-inserted indexed blob and deletes its file.
const defaultCacheEntries = 10_000

// DiskStore is a local-filesystem-backed Store with a size-bounded
// in-process index, mirroring the teacher's disk cache (originally built to
// front an IPFS gateway) repurposed here to be the backing store itself
// rather than a cache in front of one. Eviction follows insertion order;
// reads and repeated Puts of a stored blob do not change that order.
type DiskStore struct {
	mu    sync.Mutex
	dir   string
	max   int
	index map[string]*diskEntry
	order []*diskEntry
	log   *zap.Logger
}

type diskEntry struct {
	path string
	size int64
	at   time.Time
}

// NewDiskStore opens (creating if absent) a blob store rooted at dir. Blobs
// are named hex(hash) under dir, per spec §6.3.
func NewDiskStore(dir string, maxEntries int, log *zap.Logger) (*DiskStore, error) {
	if maxEntries <= 0 {
		maxEntries = defaultCacheEntries
	}
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir, max: maxEntries, index: make(map[string]*diskEntry), log: log}, nil
}

// Put implements Store.
func (d *DiskStore) Put(_ context.Context, data []byte) (Link, error) {
	link, err := NewLink(data)
	if err != nil {
		return Link{}, err
	}
	key := filename(link)

	d.mu.Lock()
	defer d.mu.Unlock()
	if ent, ok := d.index[key]; ok {
		ent.at = time.Now()
		return link, nil
	}

	if len(d.index) >= d.max && len(d.order) > 0 {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.index, filepath.Base(oldest.path))
		_ = os.Remove(oldest.path)
	}

	path := filepath.Join(d.dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return Link{}, err
	}
	ent := &diskEntry{path: path, size: int64(len(data)), at: time.Now()}
	d.index[key] = ent
	d.order = append(d.order, ent)
	d.log.Debug("blob stored", zap.String("link", link.String()), zap.Int("bytes", len(data)))
	return link, nil
}

// Get implements Store.
func (d *DiskStore) Get(_ context.Context, link Link) ([]byte, error) {
	path := filepath.Join(d.dir, filename(link))
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	d.touch(link)
	return data, nil
}

// Has implements Store.
func (d *DiskStore) Has(_ context.Context, link Link) (bool, error) {
	_, err := os.Stat(filepath.Join(d.dir, filename(link)))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (d *DiskStore) touch(link Link) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if ent, ok := d.index[filename(link)]; ok {
		ent.at = time.Now()
	}
}

func filename(l Link) string {
	return hex.EncodeToString(l.Bytes())
}
