package bucketlog

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/bucketdag/core/pkg/blob"
)

// walRecord is the on-disk JSON representation of one Append call, mirroring
// the persisted-state column list spec §6.3 names
// (bucket_id, link, previous, height, name, created_at).
type walRecord struct {
	BucketID  uuid.UUID `json:"bucket_id"`
	Name      string    `json:"name"`
	Link      []byte    `json:"link"`
	Previous  []byte    `json:"previous,omitempty"`
	HasParent bool      `json:"has_parent"`
	Height    uint64    `json:"height"`
}

// FileLog is a MemoryLog fronted by an append-only WAL file, replayed on
// open — the same durability shape as the teacher's ledger WAL
// (core/ledger.go: NewLedger scans and replays a JSON-lines WAL before
// serving requests), adapted here to per-bucket DAG entries instead of a
// single linear block chain.
type FileLog struct {
	*MemoryLog
	mu   sync.Mutex
	file *os.File
}

// OpenFileLog opens (creating if absent) the WAL at path and replays it
// into a fresh in-memory index.
func OpenFileLog(path string) (*FileLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("bucketlog: open wal: %w", err)
	}

	mem := NewMemoryLog()
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	ctx := context.Background()
	for scanner.Scan() {
		var rec walRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			f.Close()
			return nil, fmt.Errorf("bucketlog: wal unmarshal: %w", err)
		}
		link, err := blob.ParseLink(rec.Link)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("bucketlog: wal link: %w", err)
		}
		var previous blob.Link
		if rec.HasParent {
			previous, err = blob.ParseLink(rec.Previous)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("bucketlog: wal previous link: %w", err)
			}
		}
		if err := mem.Append(ctx, rec.BucketID, rec.Name, link, previous, rec.HasParent, rec.Height); err != nil {
			f.Close()
			return nil, fmt.Errorf("bucketlog: wal replay: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		f.Close()
		return nil, fmt.Errorf("bucketlog: wal scan: %w", err)
	}

	return &FileLog{MemoryLog: mem, file: f}, nil
}

// Append validates and applies the entry in memory first, then appends it to
// the WAL and fsyncs. An entry rejected by validation is never written to the
// WAL. If the WAL write or fsync fails, the entry remains in the in-memory
// index but is not replayed on the next open.
func (l *FileLog) Append(ctx context.Context, id uuid.UUID, name string, link blob.Link, previous blob.Link, hasParent bool, height uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Validate against current in-memory state first so a rejected Append
	// never gets written to the WAL.
	if err := l.MemoryLog.Append(ctx, id, name, link, previous, hasParent, height); err != nil {
		return err
	}

	rec := walRecord{BucketID: id, Name: name, Link: link.Bytes(), HasParent: hasParent, Height: height}
	if hasParent {
		rec.Previous = previous.Bytes()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if _, err := l.file.Write(data); err != nil {
		return err
	}
	return l.file.Sync()
}

// Close flushes and closes the underlying WAL file.
func (l *FileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}
