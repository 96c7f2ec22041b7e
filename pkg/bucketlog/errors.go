// Package bucketlog implements the height-indexed, multi-head bucket DAG
// log (spec §3.7, §4.4): append, height/heads/has queries, and canonical
// head selection.
package bucketlog

import "errors"

var (
	// ErrInvalidGenesis is returned by Append when previous is unset but
	// height != 0.
	ErrInvalidGenesis = errors.New("bucketlog: genesis entry must have height 0")
	// ErrMissingParent is returned by Append when previous is set but no
	// entry exists for it at height-1.
	ErrMissingParent = errors.New("bucketlog: parent entry not found")
	// ErrUnknownBucket is returned by Height/Head when the bucket has no
	// entries at all.
	ErrUnknownBucket = errors.New("bucketlog: unknown bucket")
)
