// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package hash

import (
	"github.com/cockroachdb/errors"
	"github.com/ryogrid/samehada-executor/common"
)

// size of one bucket in bytes. used for memory accounting of callers
const BucketSize = 12

type bucket struct {
	hash     uint32
	value    uint32
	occupied bool
}

/**
 * Implementation of linear probing hash table on memory.
 * keys are given as hash values and each bucket stores hash and an
 * uint32 value (usually index of an entry owned by the caller).
 * Non-unique keys are supported. the caller decides which one matches.
 * The table dynamically grows when the count exceeds fill factor.
 */
type LinearProbeHashTable struct {
	buckets    []bucket
	mask       uint32
	count      uint32
	fillFactor float64
	growAt     uint32
}

func roundUpPowerOf2(n uint32) uint32 {
	ret := uint32(1)
	for ret < n && ret < common.MaxHashTableBuckets {
		ret <<= 1
	}
	return ret
}

func NewLinearProbeHashTable(numBuckets uint32, fillFactor float64) *LinearProbeHashTable {
	common.SH_Assert(fillFactor > 0 && fillFactor <= 1, "fill factor must be in (0, 1]")
	if numBuckets == 0 {
		numBuckets = common.DefaultHashTableBuckets
	}
	ht := &LinearProbeHashTable{fillFactor: fillFactor}
	ht.allocate(roundUpPowerOf2(numBuckets))
	return ht
}

func (ht *LinearProbeHashTable) allocate(size uint32) {
	ht.buckets = make([]bucket, size)
	ht.mask = size - 1
	ht.growAt = uint32(float64(size) * ht.fillFactor)
	if ht.growAt >= size {
		// one bucket is kept empty so probing always terminates
		ht.growAt = size - 1
	}
}

func (ht *LinearProbeHashTable) Count() uint32 { return ht.count }

func (ht *LinearProbeHashTable) NumBuckets() uint32 { return uint32(len(ht.buckets)) }

func (ht *LinearProbeHashTable) BucketBytes() int64 {
	return int64(len(ht.buckets)) * BucketSize
}

/**
* Probe visits values stored with hash in probing order until match returns true.
* @return the matched value and true, or false when no value matched
 */
func (ht *LinearProbeHashTable) Probe(hash uint32, match func(value uint32) bool) (uint32, bool) {
	offset := hash & ht.mask
	for ht.buckets[offset].occupied { // stop the search and we find an empty spot
		b := &ht.buckets[offset]
		if b.hash == hash && match(b.value) {
			return b.value, true
		}
		offset = (offset + 1) & ht.mask
	}
	return 0, false
}

// GetValue returns all values stored with hash
func (ht *LinearProbeHashTable) GetValue(hash uint32) []uint32 {
	result := []uint32{}
	ht.Probe(hash, func(value uint32) bool {
		result = append(result, value)
		return false
	})
	return result
}

// WillGrow reports whether next Insert doubles the bucket array
func (ht *LinearProbeHashTable) WillGrow() bool {
	return ht.count+1 > ht.growAt && len(ht.buckets) < common.MaxHashTableBuckets
}

/**
* Insert stores value with hash. the bucket array is doubled before
* the count exceeds fill factor. stored hashes are reused for rehash.
 */
func (ht *LinearProbeHashTable) Insert(hash uint32, value uint32) error {
	if ht.count+1 > ht.growAt {
		if len(ht.buckets) >= common.MaxHashTableBuckets {
			if ht.count+1 >= uint32(len(ht.buckets)) {
				return errors.Newf("hash table size exceeded: %d entries", ht.count)
			}
		} else {
			ht.grow()
		}
	}
	ht.insertNoGrow(hash, value)
	ht.count++
	return nil
}

func (ht *LinearProbeHashTable) insertNoGrow(hash uint32, value uint32) {
	offset := hash & ht.mask
	for ht.buckets[offset].occupied {
		offset = (offset + 1) & ht.mask
	}
	ht.buckets[offset] = bucket{hash: hash, value: value, occupied: true}
}

func (ht *LinearProbeHashTable) grow() {
	old := ht.buckets
	ht.allocate(uint32(len(old)) * 2)
	for i := range old {
		if old[i].occupied {
			ht.insertNoGrow(old[i].hash, old[i].value)
		}
	}
	common.ShPrintf(common.DEBUG_INFO, "hash table grew to %d buckets\n", len(ht.buckets))
}

// Clear removes all values. bucket array is kept.
func (ht *LinearProbeHashTable) Clear() {
	for i := range ht.buckets {
		ht.buckets[i] = bucket{}
	}
	ht.count = 0
}
