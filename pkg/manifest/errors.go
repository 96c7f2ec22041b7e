package manifest

import "errors"

var (
	// ErrInvalidSignature is returned when a signature fails to verify, or
	// when exactly one of Author/Signature is set (spec §3.6, §4.5.4).
	ErrInvalidSignature = errors.New("manifest: invalid signature")
	// ErrAuthorNotInShares is returned when a signed manifest's Author does
	// not appear in its own Shares map.
	ErrAuthorNotInShares = errors.New("manifest: author not present in shares")
	// ErrHeightGenesisMismatch is returned when height==0 does not agree
	// with Previous being unset, or vice versa.
	ErrHeightGenesisMismatch = errors.New("manifest: height/previous genesis mismatch")
	// ErrNoOwner is returned when a manifest's Shares contain no Owner,
	// making the bucket unmodifiable.
	ErrNoOwner = errors.New("manifest: shares contain no owner")
)

// SigStatus classifies the outcome of CheckSignature.
type SigStatus int

const (
	// SigValid: Author and Signature are both set and the signature
	// verifies over the canonical form.
	SigValid SigStatus = iota
	// SigUnsignedLegacy: neither Author nor Signature is set. Accepted for
	// backward compatibility (spec §3.6, §7).
	SigUnsignedLegacy
)
