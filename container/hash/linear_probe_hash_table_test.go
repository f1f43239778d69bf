package hash

import (
	"sort"
	"testing"

	testingpkg "github.com/ryogrid/samehada-executor/testing/testing_assert"
)

func TestLinearProbeHashTable(t *testing.T) {
	ht := NewLinearProbeHashTable(4, 0.75)
	testingpkg.Equals(t, uint32(4), ht.NumBuckets())

	// every key collides at bucket 0 when the table is small
	for i := uint32(0); i < 100; i++ {
		testingpkg.Ok(t, ht.Insert(i%10*16, i))
	}
	testingpkg.Equals(t, uint32(100), ht.Count())
	testingpkg.Assert(t, ht.NumBuckets() >= 128, "table should grow but %d buckets", ht.NumBuckets())

	for k := uint32(0); k < 10; k++ {
		values := ht.GetValue(k * 16)
		testingpkg.Equals(t, 10, len(values))
		for _, v := range values {
			testingpkg.Equals(t, k, v%10)
		}
	}

	found, ok := ht.Probe(3*16, func(value uint32) bool { return value == 53 })
	testingpkg.SimpleAssert(t, ok)
	testingpkg.Equals(t, uint32(53), found)
	_, ok = ht.Probe(3*16, func(value uint32) bool { return value == 54 })
	testingpkg.SimpleAssert(t, !ok)

	all := make([]int, 0)
	itr := ht.Iterator()
	for v, ok := itr.Next(); ok; v, ok = itr.Next() {
		all = append(all, int(v))
	}
	sort.Ints(all)
	testingpkg.Equals(t, 100, len(all))
	for i, v := range all {
		testingpkg.Equals(t, i, v)
	}

	buckets := ht.NumBuckets()
	ht.Clear()
	testingpkg.Equals(t, uint32(0), ht.Count())
	testingpkg.Equals(t, buckets, ht.NumBuckets())
	testingpkg.Equals(t, 0, len(ht.GetValue(0)))
}
