// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package hash

// HashTableIterator walks values in bucket order.
// the table must not be modified while iterating.
type HashTableIterator struct {
	ht     *LinearProbeHashTable
	offset uint32
}

func (ht *LinearProbeHashTable) Iterator() *HashTableIterator {
	return &HashTableIterator{ht, 0}
}

func (itr *HashTableIterator) Next() (uint32, bool) {
	for itr.offset < uint32(len(itr.ht.buckets)) {
		b := &itr.ht.buckets[itr.offset]
		itr.offset++
		if b.occupied {
			return b.value, true
		}
	}
	return 0, false
}

// Reset moves the iterator to the first bucket
func (itr *HashTableIterator) Reset() {
	itr.offset = 0
}
