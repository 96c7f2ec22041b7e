package syncengine

import "errors"

var (
	// ErrNotAuthorized is spec §4.5.4 step 1: our own peer identity does
	// not appear in a manifest's shares.
	ErrNotAuthorized = errors.New("syncengine: not authorized for this bucket")

	// ErrAuthorNotOwner is spec §4.5.4 step 3: the manifest's author is
	// not an Owner in the manifest itself.
	ErrAuthorNotOwner = errors.New("syncengine: manifest author is not an owner")

	// ErrAuthorWasNotOwner is spec §4.5.4 steps 4-5: the author was not
	// an Owner in the parent manifest (role continuity / share-removal
	// authority collapse to the same check).
	ErrAuthorWasNotOwner = errors.New("syncengine: manifest author was not an owner in the parent manifest")

	// ErrHeightContinuity is spec §4.5.4 step 6.
	ErrHeightContinuity = errors.New("syncengine: manifest height does not follow its parent")

	// ErrWalkTooDeep is the implementation-chosen safety bound on the
	// ancestor walk (spec §4.5.3).
	ErrWalkTooDeep = errors.New("syncengine: ancestor walk exceeded safety bound")

	// ErrQueueFull is returned by Queue.Enqueue when a non-redundant job
	// cannot be admitted within the grace period (spec §5).
	ErrQueueFull = errors.New("syncengine: job queue full")

	// ErrCancelled names a cancelled queue operation. Queue has no Close
	// method and no function in this package returns ErrCancelled; a
	// Dequeue whose context ends returns the context's error instead.
	ErrCancelled = errors.New("syncengine: queue closed")

	// ErrNoPeerHead is returned when a peer has never answered a ping for
	// a bucket, so SyncBucket has nothing to pull from.
	ErrNoPeerHead = errors.New("syncengine: no known head for peer")
)
