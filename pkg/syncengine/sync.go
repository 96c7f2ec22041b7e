package syncengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bucketdag/core/pkg/blob"
	"github.com/bucketdag/core/pkg/manifest"
)

// SyncBucket pulls bucket's chain from peer (spec §4.5.3): walk back from
// peer's advertised head to the nearest link we already have, verify
// provenance on the whole chain, then append it to the log in ascending
// height order.
func (e *Engine) SyncBucket(ctx context.Context, bucket uuid.UUID, peer string) error {
	head, _, err := e.peerHead(ctx, bucket, peer)
	if err != nil {
		return err
	}

	type step struct {
		link blob.Link
		m    *manifest.Manifest
	}
	seen := make(map[string]*manifest.Manifest)
	var chain []step

	cursor := head
	depth := 0
	for {
		if e.cfg.MaxWalkDepth > 0 && depth >= e.cfg.MaxWalkDepth {
			return ErrWalkTooDeep
		}
		depth++

		heights, err := e.log.Has(ctx, bucket, cursor)
		if err != nil {
			return err
		}
		if len(heights) > 0 {
			break // ancestor already in our log
		}

		m, err := e.fetchManifest(ctx, peer, cursor)
		if err != nil {
			return err
		}
		seen[string(cursor.Bytes())] = m
		chain = append(chain, step{link: cursor, m: m})

		if m.IsGenesis() {
			break // full history pull: no parent left to walk to
		}
		prevLink, err := blob.ParseLink(m.Previous)
		if err != nil {
			return err
		}
		cursor = prevLink
	}

	// chain was built head-first (descending height); reverse to ascending.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	if len(chain) > 0 {
		if err := checkSelfAuthorized(e.self, chain[len(chain)-1].m); err != nil {
			return err
		}
	}

	lookupPrev := func(ctx context.Context, link blob.Link) (*manifest.Manifest, error) {
		if m, ok := seen[string(link.Bytes())]; ok {
			return m, nil
		}
		return manifest.LoadManifest(ctx, e.store, link)
	}

	for _, s := range chain {
		if err := verifyProvenance(ctx, s.m, lookupPrev); err != nil {
			return fmt.Errorf("syncengine: provenance check failed for %s: %w", s.link, err)
		}
	}

	for _, s := range chain {
		var prevLink blob.Link
		hasParent := !s.m.IsGenesis()
		if hasParent {
			prevLink, err = blob.ParseLink(s.m.Previous)
			if err != nil {
				return err
			}
		}
		if err := e.log.Append(ctx, bucket, s.m.Name, s.link, prevLink, hasParent, s.m.Height); err != nil {
			return fmt.Errorf("syncengine: log append: %w", err)
		}
	}

	canonicalHead, _, err := e.log.Head(ctx, bucket)
	if err != nil {
		return err
	}
	return e.queue.Enqueue(Job{Kind: JobFetchPins, Bucket: bucket, PinsLink: canonicalHead})
}

// fetchManifest returns the manifest at link, preferring local storage and
// falling back to a verified fetch from peer.
func (e *Engine) fetchManifest(ctx context.Context, peer string, link blob.Link) (*manifest.Manifest, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.BlobFetchTimeout)
	defer cancel()

	if has, err := e.store.Has(fetchCtx, link); err == nil && has {
		return manifest.LoadManifest(fetchCtx, e.store, link)
	}

	data, err := blob.FetchFrom(fetchCtx, e.store, e, peer, link)
	if err != nil {
		return nil, err
	}
	return manifest.DecodeManifest(data)
}
