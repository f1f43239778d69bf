package executors

import (
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/execution/grouping"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/memory"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

/**
* HashJoinExecutor executes hash join operations.
* all rows of the inner child are loaded into a hash table keyed by inner
* hash keys at the first fetch, then outer rows probe it. rows whose key
* has NULL never match.
 */
type HashJoinExecutor struct {
	*joinState
	/** The hash join plan node. */
	plan_ *plans.HashJoinPlanNode

	/** The hash table that we are using. groups inner rows by key */
	jht_     *grouping.TupleHashTable
	jht_mem_ *memory.MemoryContext
	// inner rows of each entry of jht_, indexed by entry index
	buckets_ [][]*tuple.MinimalTuple
	built    bool

	probeHash  *expression.Program
	probeEqual *expression.Program
	innerSlot  *tuple.Slot

	outerSlot *tuple.Slot
	// rows of the current outer row's key and next position in it
	cur_bucket_  []*tuple.MinimalTuple
	index_       int
	needNewOuter bool
	matchedOuter bool
}

/**
* Creates a new hash join executor.
* @param exec_ctx the context that the hash join should be performed in
* @param plan the hash join plan node
 */
func NewHashJoinExecutor(exec_ctx *ExecutorContext, plan *plans.HashJoinPlanNode) *HashJoinExecutor {
	return &HashJoinExecutor{joinState: newJoinState(exec_ctx, plan), plan_: plan, needNewOuter: true}
}

func (e *HashJoinExecutor) Init(eflags int) error {
	if err := checkCapabilities(e.PlanState, eflags, false, false); err != nil {
		return err
	}
	if err := e.initJoin(e.plan_, eflags, eflags&^(EXEC_FLAG_BACKWARD|EXEC_FLAG_MARK)); err != nil {
		return err
	}
	innerDesc := e.inner.GetOutputSchema()
	outerDesc := e.outer.GetOutputSchema()
	cfg := e.context.GetConfig()

	e.jht_mem_ = memory.NewMemoryContext("HashJoinTable", e.mem)
	var err error
	e.jht_, err = grouping.BuildTupleHashTable(&grouping.TupleHashTableParams{
		InputDesc:     innerDesc,
		KeyCols:       e.plan_.GetInnerKeys(),
		Collations:    e.plan_.GetCollations(),
		FillFactor:    cfg.HashFillFactor,
		RandomizeSeed: cfg.HashSeedRandomize,
	}, e.jht_mem_)
	if err != nil {
		return err
	}
	// outer rows are hashed the same way as inner rows in the table
	if e.probeHash, err = expression.BuildHash32FromAttrs(outerDesc, expression.OuterVar, e.plan_.GetOuterKeys(), e.jht_.HashFns(), e.jht_.Seed()); err != nil {
		return err
	}
	if e.probeEqual, err = expression.BuildKeyEqual(innerDesc, e.plan_.GetInnerKeys(), outerDesc, e.plan_.GetOuterKeys(), e.jht_.EqualFns()); err != nil {
		return err
	}
	e.innerSlot = tuple.NewSlot(innerDesc, tuple.MinimalSlot)
	return nil
}

func hasNullKey(slot *tuple.Slot, keys []uint32) bool {
	for _, k := range keys {
		if slot.GetValue(k).IsNull() {
			return true
		}
	}
	return false
}

// buildHashTable loads all inner rows
func (e *HashJoinExecutor) buildHashTable() error {
	innerKeys := e.plan_.GetInnerKeys()
	for {
		slot, done, err := ExecProcNode(e.inner)
		if err != nil {
			return err
		}
		if done {
			break
		}
		if hasNullKey(slot, innerKeys) {
			continue
		}
		entry, isNew, _, err := e.jht_.LookupTupleHashEntry(slot, true)
		if err != nil {
			return err
		}
		if isNew {
			e.buckets_ = append(e.buckets_, nil)
		}
		data, err := e.jht_mem_.CopyBytes(slot.GetMinimalTuple().Data())
		if err != nil {
			return err
		}
		e.buckets_[entry.Index] = append(e.buckets_[entry.Index], tuple.NewMinimalTuple(data))
	}
	e.built = true
	common.ShPrintf(common.DEBUG_INFO, "HashJoinExecutor: %d keys in hash table\n", e.jht_.NumEntries())
	return nil
}

func (e *HashJoinExecutor) Next() (*tuple.Slot, Done, error) {
	if !e.built {
		if err := e.buildHashTable(); err != nil {
			return nil, true, err
		}
	}
	// no row can be returned without inner rows
	if e.jht_.NumEntries() == 0 && (e.joinType == plans.InnerJoin || e.joinType == plans.SemiJoin) {
		return nil, true, nil
	}
	outerKeys := e.plan_.GetOuterKeys()
	for {
		if e.needNewOuter {
			outer, done, err := ExecProcNode(e.outer)
			if err != nil || done {
				return nil, true, err
			}
			e.outerSlot = outer
			e.needNewOuter = false
			e.matchedOuter = false
			e.cur_bucket_ = nil
			e.index_ = 0
			if !hasNullKey(outer, outerKeys) {
				entry, err := e.jht_.FindTupleHashEntry(outer, e.probeEqual, e.probeHash)
				if err != nil {
					return nil, true, err
				}
				if entry != nil {
					e.cur_bucket_ = e.buckets_[entry.Index]
				}
			}
		}

		if e.index_ >= len(e.cur_bucket_) {
			e.needNewOuter = true
			if !e.matchedOuter {
				slot, err := e.emitUnmatched(e.outerSlot)
				if err != nil {
					return nil, true, err
				}
				if slot != nil {
					return slot, false, nil
				}
			}
			continue
		}

		e.innerSlot.StoreMinimal(e.cur_bucket_[e.index_], false)
		e.index_++
		e.ectx.ResetExprContext()
		e.ectx.SetOuterTuple(e.outerSlot)
		e.ectx.SetInnerTuple(e.innerSlot)
		ok, err := e.qualify(e.joinQual)
		if err != nil {
			return nil, true, err
		}
		if !ok {
			continue
		}
		e.matchedOuter = true
		if e.joinType == plans.AntiJoin {
			e.needNewOuter = true
			continue
		}
		if e.joinType == plans.SemiJoin {
			e.needNewOuter = true
		}
		if ok, err = e.qualify(e.otherQual); err != nil {
			return nil, true, err
		}
		if ok {
			return e.project()
		}
	}
}

func (e *HashJoinExecutor) ReScan() error {
	e.needNewOuter = true
	e.matchedOuter = false
	e.cur_bucket_ = nil
	e.index_ = 0
	e.innerSlot.Clear()
	if e.built && !e.inner.GetPlanState().chgParam.IsEmpty() {
		// inner rows may change. the table is built again
		if err := e.jht_.ResetTupleHashTable(); err != nil {
			return err
		}
		e.buckets_ = nil
		e.built = false
	}
	if e.outer.GetPlanState().chgParam.IsEmpty() {
		return ExecReScan(e.outer)
	}
	return nil
}

func (e *HashJoinExecutor) End() {
	e.buckets_ = nil
	e.endChildren()
}
