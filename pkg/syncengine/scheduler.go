package syncengine

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bucketdag/core/pkg/manifest"
)

// coalesceWindow is how long PingNow suppresses a repeat ping to the same
// (bucket, peer) pair, so a burst of saves in quick succession collapses
// into one outbound ping per peer instead of one per save.
const coalesceWindow = 500 * time.Millisecond

// pingCoalesceEntries bounds the recently-pinged LRU the scheduler uses to
// coalesce bursts of PingNow calls (spec §4.5.6).
const pingCoalesceEntries = 4096

// Scheduler periodically enqueues Ping jobs for every (bucket, peer) pair
// currently tracked, and on demand after a local save (spec §4.5.6).
type Scheduler struct {
	engine   *Engine
	interval time.Duration

	mu      sync.Mutex
	tracked map[uuid.UUID][]string

	recent *lru.Cache[string, time.Time]
}

// NewScheduler returns a Scheduler driving engine, ticking at interval (or
// DefaultPingInterval if interval <= 0).
func NewScheduler(engine *Engine, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultPingInterval
	}
	recent, _ := lru.New[string, time.Time](pingCoalesceEntries)
	return &Scheduler{engine: engine, interval: interval, tracked: make(map[uuid.UUID][]string), recent: recent}
}

// Track registers bucket's current peer membership from m.Shares,
// replacing any previously tracked set. Call this after loading a bucket
// and after every save or successful sync, so the scheduler pings current
// membership rather than a stale one.
func (s *Scheduler) Track(bucket uuid.UUID, m *manifest.Manifest) {
	peers := s.engine.sharePeers(m)
	s.mu.Lock()
	s.tracked[bucket] = peers
	s.mu.Unlock()
}

// PingNow immediately enqueues a Ping to every tracked peer of bucket — the
// side effect a local save triggers (spec §4.5.6) — coalescing repeat pings
// to the same peer within coalesceWindow so a burst of saves doesn't flood
// the queue with redundant jobs.
func (s *Scheduler) PingNow(bucket uuid.UUID) {
	s.mu.Lock()
	peers := append([]string(nil), s.tracked[bucket]...)
	s.mu.Unlock()

	now := time.Now()
	for _, peer := range peers {
		key := fmt.Sprintf("%s/%s", bucket, peer)
		if last, ok := s.recent.Get(key); ok && now.Sub(last) < coalesceWindow {
			continue
		}
		s.recent.Add(key, now)
		if err := s.engine.Enqueue(Job{Kind: JobPing, Bucket: bucket, Peer: peer}); err != nil {
			s.engine.logger.WithFields(logrus.Fields{"peer": peer, "error": err}).Debug("scheduler enqueue failed")
		}
	}
}

// Run ticks every s.interval, pinging every tracked (bucket, peer) pair,
// until ctx is done. Duplicate pings already queued are coalesced by the
// queue itself (spec §4.5.6).
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			buckets := make([]uuid.UUID, 0, len(s.tracked))
			for b := range s.tracked {
				buckets = append(buckets, b)
			}
			s.mu.Unlock()

			for _, b := range buckets {
				s.PingNow(b)
			}
		}
	}
}
