package bloom_test

import (
	"testing"

	"github.com/fwojciec/revex/bloom"
	"github.com/stretchr/testify/assert"
)

func TestFilter_AddAndTest(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(100, 0.001)

	assert.False(t, f.Test(0xdeadbeef))

	f.Add(0xdeadbeef)

	assert.True(t, f.Test(0xdeadbeef))
	assert.False(t, f.Test(0xcafebabe))
}

func TestFilter_TestAndAdd(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(100, 0.001)

	assert.False(t, f.TestAndAdd(42), "first sighting")
	assert.True(t, f.TestAndAdd(42), "second sighting")
	assert.False(t, f.TestAndAdd(43))
}

func TestFilter_EstimatedCount(t *testing.T) {
	t.Parallel()

	f := bloom.NewFilter(1000, 0.01)

	assert.Equal(t, uint(0), f.EstimatedCount())

	f.Add(1)
	f.Add(2)
	f.Add(3)

	count := f.EstimatedCount()
	assert.True(t, count >= 2 && count <= 4, "expected count near 3, got %d", count)
}

func TestFilter_FalsePositiveRate(t *testing.T) {
	t.Parallel()

	const (
		numItems   = 1000
		fpRate     = 0.01
		testProbes = 10000
	)

	f := bloom.NewFilter(numItems, fpRate)
	for i := range uint64(numItems) {
		f.Add(i)
	}

	falsePositives := 0
	for i := range uint64(testProbes) {
		if f.Test(1_000_000 + i) {
			falsePositives++
		}
	}

	actualRate := float64(falsePositives) / float64(testProbes)
	assert.Less(t, actualRate, 0.02, "false positive rate %f exceeds 2%%", actualRate)
}
