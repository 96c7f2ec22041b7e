package syncengine

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bucketdag/core/pkg/blob"
	"github.com/bucketdag/core/pkg/manifest"
)

// FetchPins ensures every blob pinned by the manifest at manifestLink is
// locally available (spec §4.5.5), fetching missing ones in parallel from
// bucket's shares, preferring peers in ping-freshness order.
func (e *Engine) FetchPins(ctx context.Context, bucket uuid.UUID, manifestLink blob.Link) error {
	m, err := manifest.LoadManifest(ctx, e.store, manifestLink)
	if err != nil {
		return err
	}
	pinsLink, err := blob.ParseLink(m.Pins)
	if err != nil {
		return err
	}

	peers := prioritizeByFreshness(e.sharePeers(m), e.freshPeers(bucket))

	if has, err := e.store.Has(ctx, pinsLink); err != nil || !has {
		if err := e.fetchPin(ctx, peers, pinsLink); err != nil {
			return err
		}
	}
	hashes, err := blob.GetPins(ctx, e.store, pinsLink)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, h := range hashes {
		h := h
		has, err := e.store.Has(ctx, h)
		if err == nil && has {
			continue
		}
		g.Go(func() error {
			return e.fetchPin(gctx, peers, h)
		})
	}
	return g.Wait()
}

// fetchPin tries each candidate peer in order until one yields a
// hash-verified blob (spec §4.5.5 step 3: a mismatch is rejected and the
// next peer is tried).
func (e *Engine) fetchPin(ctx context.Context, peers []string, link blob.Link) error {
	var lastErr error = blob.ErrNotFound
	for _, peer := range peers {
		if peer == e.self {
			continue
		}
		fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.BlobFetchTimeout)
		_, err := blob.FetchFrom(fetchCtx, e.store, e, peer, link)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

// prioritizeByFreshness reorders peers so that any appearing in
// freshOrder come first, in that order, with the rest kept in their
// existing (stable) relative order after.
func prioritizeByFreshness(peers []string, freshOrder []string) []string {
	rank := make(map[string]int, len(freshOrder))
	for i, p := range freshOrder {
		rank[p] = i
	}
	out := append([]string(nil), peers...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rank[out[i]]
		rj, jok := rank[out[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok && !jok:
			return true
		default:
			return false
		}
	})
	return out
}
