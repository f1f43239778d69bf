package grouping

import (
	"math/rand"

	"github.com/cockroachdb/errors"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/container/hash"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/memory"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

// accounted size of TupleHashEntry itself
const entryOverhead = 48

/**
 * TupleHashEntry is one group of the table. FirstTuple is the first input
 * tuple which had the key. Additional is caller owned zeroed space, such as
 * counters of set operations. Index is the position of the entry in
 * insertion order and can be used to keep per-group state outside.
 */
type TupleHashEntry struct {
	FirstTuple *tuple.MinimalTuple
	Additional []byte
	Hash       uint32
	Index      uint32
}

type TupleHashTableParams struct {
	InputDesc *schema.Schema
	KeyCols   []uint32
	// nil means default collation for all keys
	Collations []hash.Collation
	// nil means the equality of the collation
	EqualFns []expression.EqualFunc
	// nil means the hash of the collation
	HashFns []hash.HashFunc
	// expected number of groups. 0 is allowed
	NumBuckets uint32
	// bytes of Additional of each entry
	AdditionalSize int
	// 0 means common.DefaultConfig().HashFillFactor
	FillFactor float64
	// use random value as initial hash value instead of 0
	RandomizeSeed bool
}

/**
 * TupleHashTable groups tuples by key columns. keys are compared by
 * identity equality, so NULL matches NULL unlike SQL "=".
 * entries and tuples are charged to tableMem and live until Reset.
 * the table is owned by one executor and is not thread safe.
 */
type TupleHashTable struct {
	inputDesc      *schema.Schema
	keyCols        []uint32
	hashFns        []hash.HashFunc
	eqFns          []expression.EqualFunc
	additionalSize int
	seed           uint32

	ht      *hash.LinearProbeHashTable
	entries []*TupleHashEntry

	tableMem *memory.MemoryContext
	// bucket bytes which are currently charged to tableMem
	trackedBuckets int64

	// stored tuple is INNER and probing tuple is OUTER
	ectx       *expression.ExprContext
	tableSlot  *tuple.Slot
	inHashProg *expression.Program
	eqProg     *expression.Program
}

/**
 * BuildTupleHashTable creates empty table for tuples of params.InputDesc.
 * initial bucket count is given by params.NumBuckets and the table grows
 * when the count of groups exceeds fill factor.
 */
func BuildTupleHashTable(params *TupleHashTableParams, tableMem *memory.MemoryContext) (*TupleHashTable, error) {
	numKeys := len(params.KeyCols)
	if params.Collations != nil && len(params.Collations) != numKeys {
		return nil, common.NewInitError("%d collations are given for %d key columns", len(params.Collations), numKeys)
	}
	if params.EqualFns != nil && len(params.EqualFns) != numKeys {
		return nil, common.NewInitError("%d equality functions are given for %d key columns", len(params.EqualFns), numKeys)
	}
	if params.HashFns != nil && len(params.HashFns) != numKeys {
		return nil, common.NewInitError("%d hash functions are given for %d key columns", len(params.HashFns), numKeys)
	}
	if params.AdditionalSize < 0 {
		return nil, common.NewInitError("invalid additional size %d", params.AdditionalSize)
	}

	collations := params.Collations
	if collations == nil {
		collations = make([]hash.Collation, numKeys)
	}
	hashFns := make([]hash.HashFunc, numKeys)
	eqFns := make([]expression.EqualFunc, numKeys)
	for i := range params.KeyCols {
		hashFns[i] = hash.HashFuncFor(collations[i])
		if params.HashFns != nil && params.HashFns[i] != nil {
			hashFns[i] = params.HashFns[i]
		}
		eqFns[i] = collations[i].Equal
		if params.EqualFns != nil && params.EqualFns[i] != nil {
			eqFns[i] = params.EqualFns[i]
		}
	}

	fillFactor := params.FillFactor
	if fillFactor == 0 {
		fillFactor = common.DefaultConfig().HashFillFactor
	}
	if fillFactor < 0 || fillFactor > 1 {
		return nil, common.NewInitError("fill factor must be in (0, 1], got %v", fillFactor)
	}

	var seed uint32
	if params.RandomizeSeed {
		seed = rand.Uint32()
	}

	inHashProg, err := expression.BuildHash32FromAttrs(params.InputDesc, expression.OuterVar, params.KeyCols, hashFns, seed)
	if err != nil {
		return nil, err
	}
	eqProg, err := expression.BuildGroupingEqual(params.InputDesc, params.KeyCols, eqFns)
	if err != nil {
		return nil, err
	}

	ret := &TupleHashTable{
		inputDesc:      params.InputDesc,
		keyCols:        params.KeyCols,
		hashFns:        hashFns,
		eqFns:          eqFns,
		additionalSize: params.AdditionalSize,
		seed:           seed,
		ht:             hash.NewLinearProbeHashTable(params.NumBuckets, fillFactor),
		entries:        make([]*TupleHashEntry, 0),
		tableMem:       tableMem,
		ectx:           expression.NewExprContext(tableMem, nil),
		tableSlot:      tuple.NewSlot(params.InputDesc, tuple.MinimalSlot),
		inHashProg:     inHashProg,
		eqProg:         eqProg,
	}
	ret.ectx.SetInnerTuple(ret.tableSlot)
	if err := ret.trackBuckets(); err != nil {
		return nil, err
	}
	common.ShPrintf(common.DEBUG_INFO, "BuildTupleHashTable: %d keys, %d buckets, seed %d\n", numKeys, ret.ht.NumBuckets(), seed)
	return ret, nil
}

func (t *TupleHashTable) trackBuckets() error {
	delta := t.ht.BucketBytes() - t.trackedBuckets
	if delta <= 0 {
		return nil
	}
	if err := t.tableMem.Track(delta); err != nil {
		return err
	}
	t.trackedBuckets += delta
	return nil
}

// Seed is the initial hash value. probing programs built by caller must use it.
func (t *TupleHashTable) Seed() uint32 { return t.seed }

func (t *TupleHashTable) HashFns() []hash.HashFunc { return t.hashFns }

func (t *TupleHashTable) EqualFns() []expression.EqualFunc { return t.eqFns }

func (t *TupleHashTable) NumEntries() int { return len(t.entries) }

func (t *TupleHashTable) NumBuckets() uint32 { return t.ht.NumBuckets() }

func (t *TupleHashTable) InputDesc() *schema.Schema { return t.inputDesc }

// Entry returns the entry of insertion order idx
func (t *TupleHashTable) Entry(idx uint32) *TupleHashEntry { return t.entries[idx] }

// StoreEntry puts the first tuple of entry into slot
func (t *TupleHashTable) StoreEntry(entry *TupleHashEntry, slot *tuple.Slot) *tuple.Slot {
	return slot.ForceStoreMinimal(entry.FirstTuple, false)
}

/**
* LookupTupleHashEntry finds the entry for the key of slot. when it doesn't
* exist and insert is true, new entry holding copy of the tuple is created.
* @return the entry (nil when not found and insert is false), whether it
*         was created now, and the hash value of the key
 */
func (t *TupleHashTable) LookupTupleHashEntry(slot *tuple.Slot, insert bool) (*TupleHashEntry, bool, uint32, error) {
	t.ectx.SetOuterTuple(slot)
	defer t.ectx.ResetExprContext()
	h, err := t.inHashProg.Hash(t.ectx)
	if err != nil {
		return nil, false, 0, err
	}
	entry, err := t.lookup(h, t.eqProg)
	if err != nil || entry != nil || !insert {
		return entry, false, h, err
	}
	entry, err = t.insert(slot, h)
	if err != nil {
		return nil, false, h, err
	}
	return entry, true, h, nil
}

/**
* LookupTupleHashEntryHash is LookupTupleHashEntry with precomputed hash,
* which must have been calculated by the hashing of this table.
 */
func (t *TupleHashTable) LookupTupleHashEntryHash(slot *tuple.Slot, insert bool, h uint32) (*TupleHashEntry, bool, error) {
	t.ectx.SetOuterTuple(slot)
	defer t.ectx.ResetExprContext()
	entry, err := t.lookup(h, t.eqProg)
	if err != nil || entry != nil || !insert {
		return entry, false, err
	}
	entry, err = t.insert(slot, h)
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

/**
* FindTupleHashEntry searches the entry which matches slot without
* modifying the table. slot may have different shape from the input.
* hashProg must hash OUTER tuple consistently with the table (see Seed and
* HashFns), and eqProg compares INNER (stored) tuple with OUTER one.
 */
func (t *TupleHashTable) FindTupleHashEntry(slot *tuple.Slot, eqProg *expression.Program, hashProg *expression.Program) (*TupleHashEntry, error) {
	t.ectx.SetOuterTuple(slot)
	defer t.ectx.ResetExprContext()
	h, err := hashProg.Hash(t.ectx)
	if err != nil {
		return nil, err
	}
	return t.lookup(h, eqProg)
}

func (t *TupleHashTable) lookup(h uint32, eqProg *expression.Program) (*TupleHashEntry, error) {
	var evalErr error
	idx, found := t.ht.Probe(h, func(value uint32) bool {
		if evalErr != nil {
			return false
		}
		t.tableSlot.StoreMinimal(t.entries[value].FirstTuple, false)
		ok, err := eqProg.Qualify(t.ectx)
		if err != nil {
			evalErr = err
			return false
		}
		return ok
	})
	if evalErr != nil {
		return nil, evalErr
	}
	if !found {
		return nil, nil
	}
	return t.entries[idx], nil
}

func (t *TupleHashTable) insert(slot *tuple.Slot, h uint32) (*TupleHashEntry, error) {
	if t.ht.WillGrow() {
		// charge doubled bucket array before it is allocated
		if err := t.tableMem.Track(t.ht.BucketBytes()); err != nil {
			return nil, errors.Wrap(err, "tuple hash table can't grow")
		}
		t.trackedBuckets += t.ht.BucketBytes()
	}
	data, err := t.tableMem.CopyBytes(slot.GetMinimalTuple().Data())
	if err != nil {
		return nil, err
	}
	if err := t.tableMem.Track(entryOverhead); err != nil {
		return nil, err
	}
	entry := &TupleHashEntry{
		FirstTuple: tuple.NewMinimalTuple(data),
		Hash:       h,
		Index:      uint32(len(t.entries)),
	}
	if t.additionalSize > 0 {
		if entry.Additional, err = t.tableMem.Alloc(t.additionalSize); err != nil {
			return nil, err
		}
	}
	if err := t.ht.Insert(h, entry.Index); err != nil {
		return nil, common.NewOOMError("%v", err)
	}
	t.entries = append(t.entries, entry)
	return entry, nil
}

/**
* ResetTupleHashTable removes all entries. bucket array is kept and
* memory of entries is released by resetting tableMem. the kept buckets are
* accounted again, which fails with out of memory when the budget shrank.
 */
func (t *TupleHashTable) ResetTupleHashTable() error {
	t.ht.Clear()
	for i := range t.entries {
		t.entries[i] = nil
	}
	t.entries = t.entries[:0]
	t.tableSlot.Clear()
	t.tableMem.Reset()
	t.trackedBuckets = 0
	// buckets are still held
	return t.trackBuckets()
}

// TupleHashIterator visits entries in bucket order, which changes when the table grows.
type TupleHashIterator struct {
	table *TupleHashTable
	itr   *hash.HashTableIterator
	cur   *TupleHashEntry
}

func (t *TupleHashTable) Iterator() *TupleHashIterator {
	return &TupleHashIterator{table: t, itr: t.ht.Iterator()}
}

// Next advances the iterator and returns false at the end
func (it *TupleHashIterator) Next() bool {
	idx, ok := it.itr.Next()
	if !ok {
		it.cur = nil
		return false
	}
	it.cur = it.table.entries[idx]
	return true
}

func (it *TupleHashIterator) Entry() *TupleHashEntry { return it.cur }

func (it *TupleHashIterator) Reset() {
	it.itr.Reset()
	it.cur = nil
}
