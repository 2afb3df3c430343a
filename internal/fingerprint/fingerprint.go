// Package fingerprint computes similarity-preserving 64-bit fingerprints over
// free text. Texts sharing many word shingles converge to similar bit
// patterns, so the Hamming distance between two fingerprints approximates
// textual similarity. A coarse bucket derived from the low-order bits narrows
// candidate retrieval to a small set instead of a full scan; near-duplicates
// can land in different buckets, which is an accepted trade-off.
package fingerprint

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Width is the fingerprint width in bits.
const Width = 64

// Defaults for question-length text.
const (
	DefaultShingleSize = 2
	DefaultBucketBits  = 10
)

// Engine derives fingerprints and buckets. It holds no mutable state and is
// safe for concurrent use.
type Engine struct {
	shingleSize int
	bucketMask  uint64
}

// New creates an Engine. shingleSize is the word n-gram length (1-4),
// bucketBits the number of low-order fingerprint bits forming the bucket
// (1-16). Out-of-range values fall back to the defaults.
func New(shingleSize, bucketBits int) *Engine {
	if shingleSize < 1 || shingleSize > 4 {
		shingleSize = DefaultShingleSize
	}
	if bucketBits < 1 || bucketBits > 16 {
		bucketBits = DefaultBucketBits
	}
	return &Engine{
		shingleSize: shingleSize,
		bucketMask:  (1 << bucketBits) - 1,
	}
}

// Normalize lowercases, trims, and collapses whitespace runs. Inputs that
// differ only in case or whitespace normalize identically.
func Normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// Fingerprint computes the fingerprint over the concatenated inputs.
// Ingestion fingerprints the question text alone; the edit path feeds the
// question and its answers together so answer-set changes surface there.
// Deterministic: identical normalized input always yields the same value.
func (e *Engine) Fingerprint(texts ...string) uint64 {
	tokens := strings.Fields(Normalize(strings.Join(texts, " ")))
	if len(tokens) == 0 {
		return 0
	}

	n := e.shingleSize
	if n > len(tokens) {
		n = len(tokens)
	}

	// Weighted majority vote: each shingle hash votes +1/-1 per bit position.
	var votes [Width]int
	for i := 0; i+n <= len(tokens); i++ {
		h := xxhash.Sum64String(strings.Join(tokens[i:i+n], " "))
		for b := 0; b < Width; b++ {
			if h&(1<<uint(b)) != 0 {
				votes[b]++
			} else {
				votes[b]--
			}
		}
	}

	var fp uint64
	for b := 0; b < Width; b++ {
		if votes[b] > 0 {
			fp |= 1 << uint(b)
		}
	}
	return fp
}

// Bucket projects a fingerprint onto its low-order bits. Bucket equality is
// necessary but not sufficient for two texts being near-duplicates.
func (e *Engine) Bucket(fp uint64) int {
	return int(fp & e.bucketMask)
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	x := a ^ b
	count := 0
	for x != 0 {
		x &= x - 1
		count++
	}
	return count
}
