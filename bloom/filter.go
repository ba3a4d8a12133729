// Package bloom remembers page fingerprints so pagination can detect that a
// "next" control led back to a page that was already extracted.
package bloom

import (
	"strconv"

	"github.com/bits-and-blooms/bloom/v3"
)

// Filter is a probabilistic set of page fingerprints.
// False positives are possible; false negatives are not.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected fingerprints
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// Add records a fingerprint.
func (f *Filter) Add(fingerprint uint64) {
	f.f.AddString(key(fingerprint))
}

// Test reports whether the fingerprint may have been recorded.
func (f *Filter) Test(fingerprint uint64) bool {
	return f.f.TestString(key(fingerprint))
}

// TestAndAdd records the fingerprint and reports whether it may have been
// recorded before.
func (f *Filter) TestAndAdd(fingerprint uint64) bool {
	return f.f.TestAndAddString(key(fingerprint))
}

// EstimatedCount returns the approximate number of recorded fingerprints.
func (f *Filter) EstimatedCount() uint {
	return uint(f.f.ApproximatedSize())
}

func key(fingerprint uint64) string {
	return strconv.FormatUint(fingerprint, 16)
}
