package bucketcrypto

import "lukechampine.com/blake3"

// DigestSize is the length of the content hash in bytes (spec mandates a
// 256-bit collision-resistant digest).
const DigestSize = 32

// Digest is the raw content hash of a byte sequence. Higher layers (the blob
// store) wrap Digest into a codec-tagged Link; this package only computes
// the bytes.
type Digest [DigestSize]byte

// Hash returns the BLAKE3-256 digest of data.
func Hash(data []byte) Digest {
	return Digest(blake3.Sum256(data))
}
