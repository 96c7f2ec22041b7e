// Package syncengine drives convergence between peers: the ping protocol,
// ancestor-walk chain download, provenance verification, pin fetch and the
// periodic scheduler (spec §4.5). Grounded on the teacher's single-writer
// ledger discipline (core/ledger.go) and gossip/inventory replication
// protocol (core/replication.go), rebuilt around this spec's job queue and
// request/reply transport instead of the teacher's pubsub broadcast.
package syncengine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/bucketdag/core/pkg/blob"
	"github.com/bucketdag/core/pkg/bucketcrypto"
	"github.com/bucketdag/core/pkg/bucketlog"
	"github.com/bucketdag/core/pkg/manifest"
	"github.com/bucketdag/core/pkg/transport"
)

const (
	pingProtocol = "ping"
	blobProtocol = "blob-fetch"

	// DefaultPingInterval is the scheduler's default ticker period (spec §4.5.6, §9).
	DefaultPingInterval = 60 * time.Second
	// DefaultBlobFetchTimeout is the default deadline for a blob fetch (spec §5).
	DefaultBlobFetchTimeout = 30 * time.Second
	// DefaultPingTimeout is the default deadline for a ping round trip (spec §5).
	DefaultPingTimeout = 5 * time.Second
	// DefaultMaxWalkDepth bounds the ancestor walk (spec §4.5.3: "implementations may impose a safety bound").
	DefaultMaxWalkDepth = 100_000
)

// EngineConfig bounds the sync engine's timeouts, depth limit and queue
// capacity.
type EngineConfig struct {
	PingInterval     time.Duration
	BlobFetchTimeout time.Duration
	PingTimeout      time.Duration
	MaxWalkDepth     int
	QueueCapacity    int
}

// DefaultEngineConfig returns the spec's stated defaults.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		PingInterval:     DefaultPingInterval,
		BlobFetchTimeout: DefaultBlobFetchTimeout,
		PingTimeout:      DefaultPingTimeout,
		MaxWalkDepth:     DefaultMaxWalkDepth,
		QueueCapacity:    DefaultQueueCapacity,
	}
}

// pingRecord is the freshest ping result for one peer on one bucket, used
// to order FetchPins peer candidates (spec §4.5.5: "try peers in
// ping-freshness order").
type pingRecord struct {
	link   blob.Link
	height uint64
	at     time.Time
}

// Engine is the sync engine runtime: a bounded job queue, a worker that
// drains it, and the ping/blob-fetch protocol handlers answering inbound
// requests (spec §4.5).
type Engine struct {
	cfg       EngineConfig
	identity  bucketcrypto.Identity
	self      string
	store     blob.Store
	log       bucketlog.Log
	transport transport.Transport
	queue     *Queue
	logger    *logrus.Logger

	mu        sync.Mutex
	freshness map[uuid.UUID]map[string]pingRecord
}

// NewEngine wires an Engine over the given blob store, bucket log and
// transport, and installs the ping and blob-fetch protocol handlers.
func NewEngine(cfg EngineConfig, identity bucketcrypto.Identity, store blob.Store, log bucketlog.Log, t transport.Transport, logger *logrus.Logger) *Engine {
	e := &Engine{
		cfg:       cfg,
		identity:  identity,
		self:      manifest.PeerKey(identity.Public),
		store:     store,
		log:       log,
		transport: t,
		queue:     NewQueue(cfg.QueueCapacity),
		logger:    logger,
		freshness: make(map[uuid.UUID]map[string]pingRecord),
	}
	t.RegisterHandler(pingProtocol, e.handlePing)
	t.RegisterHandler(blobProtocol, e.handleBlobFetch)
	return e
}

// Enqueue submits a job to the worker queue (spec §4.5.1).
func (e *Engine) Enqueue(job Job) error { return e.queue.Enqueue(job) }

// Run drains the job queue on the calling goroutine until ctx is done,
// processing one job to completion before dequeuing the next (spec
// §4.5.1).
func (e *Engine) Run(ctx context.Context) error {
	for {
		job, err := e.queue.Dequeue(ctx)
		if err != nil {
			return err
		}
		if err := e.process(ctx, job); err != nil {
			e.logger.WithFields(logrus.Fields{
				"kind":   job.Kind.String(),
				"bucket": job.Bucket.String(),
				"error":  err,
			}).Warn("sync job failed")
		}
	}
}

func (e *Engine) process(ctx context.Context, job Job) error {
	switch job.Kind {
	case JobPing:
		return e.doPing(ctx, job.Bucket, job.Peer)
	case JobSyncBucket:
		return e.SyncBucket(ctx, job.Bucket, job.Peer)
	case JobFetchPins:
		return e.FetchPins(ctx, job.Bucket, job.PinsLink)
	default:
		return fmt.Errorf("syncengine: unknown job kind %v", job.Kind)
	}
}

// localHead reports our log's head for bucket, and whether the bucket is
// known at all (an unknown bucket is not an error here — both ping and
// sync treat it as "our_head = None", spec §4.5.3 step 1).
func (e *Engine) localHead(ctx context.Context, bucket uuid.UUID) (link blob.Link, height uint64, known bool, err error) {
	link, height, err = e.log.Head(ctx, bucket)
	if err == bucketlog.ErrUnknownBucket {
		return blob.Link{}, 0, false, nil
	}
	if err != nil {
		return blob.Link{}, 0, false, err
	}
	return link, height, true, nil
}

// doPing sends one ping to peer for bucket and acts on the reply: records
// freshness and, if the peer is Ahead, enqueues a pull (spec §4.5.2's
// "after the initiator processes the reply" side effect).
func (e *Engine) doPing(ctx context.Context, bucket uuid.UUID, peer string) error {
	ourLink, ourHeight, _, err := e.localHead(ctx, bucket)
	if err != nil {
		return err
	}

	pingCtx, cancel := context.WithTimeout(ctx, e.cfg.PingTimeout)
	defer cancel()

	reqBytes := encodePing(PingRequest{BucketID: bucket, OurLink: ourLink, OurHeight: ourHeight})
	replyBytes, err := transport.RequestReply(pingCtx, e.transport, peer, pingProtocol, reqBytes)
	if err != nil {
		return err
	}
	reply, err := decodePingReply(replyBytes)
	if err != nil {
		return err
	}

	if reply.Tag != TagNotFound {
		e.recordFreshness(bucket, peer, reply.ResponderLink, reply.ResponderHeight)
	}
	if reply.Tag == TagAhead {
		if err := e.queue.Enqueue(Job{Kind: JobSyncBucket, Bucket: bucket, Peer: peer}); err != nil {
			e.logger.WithError(err).Debug("enqueue sync after ping ahead failed")
		}
	}
	return nil
}

// handlePing answers an inbound ping (spec §4.5.2) and, as a side effect
// that never blocks or corrupts the reply, evaluates whether to pull from
// the initiator.
func (e *Engine) handlePing(ctx context.Context, fromPeer string, request []byte) ([]byte, error) {
	req, err := decodePing(request)
	if err != nil {
		return nil, err
	}

	theirLink, theirHeight, known, err := e.localHead(ctx, req.BucketID)
	if err != nil {
		return nil, err
	}

	var reply PingReply
	switch {
	case !known:
		reply = PingReply{Tag: TagNotFound}
	case theirHeight > req.OurHeight || (theirHeight == req.OurHeight && req.OurLink.Less(theirLink)):
		reply = PingReply{Tag: TagAhead, ResponderLink: theirLink, ResponderHeight: theirHeight}
	case theirHeight < req.OurHeight || (theirHeight == req.OurHeight && theirLink.Less(req.OurLink)):
		reply = PingReply{Tag: TagBehind, ResponderLink: theirLink, ResponderHeight: theirHeight}
	default:
		reply = PingReply{Tag: TagInSync, ResponderLink: theirLink, ResponderHeight: theirHeight}
	}

	if known {
		e.recordFreshness(req.BucketID, fromPeer, req.OurLink, req.OurHeight)
	}
	if reply.Tag == TagBehind {
		go func() {
			if err := e.queue.Enqueue(Job{Kind: JobSyncBucket, Bucket: req.BucketID, Peer: fromPeer}); err != nil {
				e.logger.WithError(err).Debug("enqueue sync after ping behind failed")
			}
		}()
	}

	return encodePingReply(reply), nil
}

// handleBlobFetch answers an inbound blob-fetch request: request is a
// Link's bytes, reply is the blob's bytes (or the Store's NotFound error).
func (e *Engine) handleBlobFetch(ctx context.Context, _ string, request []byte) ([]byte, error) {
	link, err := blob.ParseLink(request)
	if err != nil {
		return nil, err
	}
	return e.store.Get(ctx, link)
}

// FetchBlob implements blob.PeerFetcher over the transport, so
// blob.FetchFrom can pull from a remote peer by hash.
func (e *Engine) FetchBlob(ctx context.Context, peerID string, link blob.Link) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.BlobFetchTimeout)
	defer cancel()
	return transport.RequestReply(fetchCtx, e.transport, peerID, blobProtocol, link.Bytes())
}

func (e *Engine) recordFreshness(bucket uuid.UUID, peer string, link blob.Link, height uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m := e.freshness[bucket]
	if m == nil {
		m = make(map[string]pingRecord)
		e.freshness[bucket] = m
	}
	m[peer] = pingRecord{link: link, height: height, at: time.Now()}
}

// freshPeers returns bucket's peers ordered most-recently-pinged first.
func (e *Engine) freshPeers(bucket uuid.UUID) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	type kv struct {
		peer string
		at   time.Time
	}
	all := make([]kv, 0, len(e.freshness[bucket]))
	for peer, rec := range e.freshness[bucket] {
		all = append(all, kv{peer, rec.at})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].at.After(all[j].at) })
	out := make([]string, len(all))
	for i, x := range all {
		out[i] = x.peer
	}
	return out
}

// sharePeers returns the peer ids in m.Shares, excluding self.
func (e *Engine) sharePeers(m *manifest.Manifest) []string {
	out := make([]string, 0, len(m.Shares))
	for peer := range m.Shares {
		if peer != e.self {
			out = append(out, peer)
		}
	}
	sort.Strings(out)
	return out
}

// peerHead returns the freshest known (link, height) peer has advertised
// for bucket, pinging first if we have never heard from them (spec
// §4.5.3 step 2).
func (e *Engine) peerHead(ctx context.Context, bucket uuid.UUID, peer string) (blob.Link, uint64, error) {
	e.mu.Lock()
	rec, ok := e.freshness[bucket][peer]
	e.mu.Unlock()
	if ok {
		return rec.link, rec.height, nil
	}

	if err := e.doPing(ctx, bucket, peer); err != nil {
		return blob.Link{}, 0, err
	}

	e.mu.Lock()
	rec, ok = e.freshness[bucket][peer]
	e.mu.Unlock()
	if !ok {
		return blob.Link{}, 0, ErrNoPeerHead
	}
	return rec.link, rec.height, nil
}
