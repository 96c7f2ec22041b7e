package syncengine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/bucketdag/core/pkg/blob"
)

// JobKind identifies one of the three job variants the worker processes
// (spec §4.5.1).
type JobKind int

const (
	JobPing JobKind = iota
	JobSyncBucket
	JobFetchPins
)

func (k JobKind) String() string {
	switch k {
	case JobPing:
		return "ping"
	case JobSyncBucket:
		return "sync_bucket"
	case JobFetchPins:
		return "fetch_pins"
	default:
		return "unknown"
	}
}

// Job is one unit of work for the sync engine's worker loop (spec §4.5.1).
type Job struct {
	Kind     JobKind
	Bucket   uuid.UUID
	Peer     string    // Ping, SyncBucket
	PinsLink blob.Link // FetchPins: the manifest link whose pins to ensure
}

// key identifies a job for queue-level dedup: same variant plus arguments
// collapses into the already-pending entry (spec §4.5.1, §4.5.6).
func (j Job) key() string {
	if j.Kind == JobFetchPins {
		return fmt.Sprintf("%d/%s/%s", j.Kind, j.Bucket, j.PinsLink.String())
	}
	return fmt.Sprintf("%d/%s/%s", j.Kind, j.Bucket, j.Peer)
}

// DefaultQueueCapacity is the default bound on a Queue's pending jobs.
const DefaultQueueCapacity = 256

// gracePeriod is how long Enqueue blocks a non-redundant job against a
// saturated queue before failing ErrQueueFull (spec §5).
const gracePeriod = 200 * time.Millisecond

// Queue is the sync engine's bounded, single-worker job queue. Jobs with
// the same key (kind + bucket + peer/pins-link) coalesce into whichever
// instance is already pending.
type Queue struct {
	ch chan Job

	mu      chan struct{} // binary mutex; guards pending
	pending map[string]struct{}
}

// NewQueue returns an empty Queue bounded to capacity pending jobs.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	q := &Queue{
		ch:      make(chan Job, capacity),
		mu:      make(chan struct{}, 1),
		pending: make(map[string]struct{}),
	}
	q.mu <- struct{}{}
	return q
}

func (q *Queue) lock()   { <-q.mu }
func (q *Queue) unlock() { q.mu <- struct{}{} }

// Enqueue admits job. A duplicate of an already-pending job is a silent
// no-op. On saturation with a non-redundant job, Enqueue waits up to a
// short grace period for room before failing ErrQueueFull.
func (q *Queue) Enqueue(job Job) error {
	key := job.key()

	q.lock()
	if _, dup := q.pending[key]; dup {
		q.unlock()
		return nil
	}
	q.pending[key] = struct{}{}
	q.unlock()

	select {
	case q.ch <- job:
		return nil
	default:
	}

	timer := time.NewTimer(gracePeriod)
	defer timer.Stop()
	select {
	case q.ch <- job:
		return nil
	case <-timer.C:
		q.lock()
		delete(q.pending, key)
		q.unlock()
		return ErrQueueFull
	}
}

// Dequeue blocks until a job is available or ctx is done.
func (q *Queue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case job := <-q.ch:
		q.lock()
		delete(q.pending, job.key())
		q.unlock()
		return job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}
