package executors

import (
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

type mergeJoinState int

const (
	mjInitial mergeJoinState = iota
	// current outer and inner have equal keys
	mjJoinTuples
	mjNextInner
	mjNextOuter
	// compare current outer and inner, and skip the smaller one
	mjSkipTest
	mjEnd
)

/**
 * MergeJoinExecutor joins inputs sorted ascending on merge keys with NULLs
 * last. the inner child is marked at the first row of a key group and
 * restored when the next outer row has the same key.
 */
type MergeJoinExecutor struct {
	*joinState
	plan_ *plans.MergeJoinPlanNode

	state      mergeJoinState
	outerSlot  *tuple.Slot
	innerSlot  *tuple.Slot
	markedSlot *tuple.Slot
	outerKeys  []uint32
	innerKeys  []uint32
}

func NewMergeJoinExecutor(exec_ctx *ExecutorContext, plan *plans.MergeJoinPlanNode) *MergeJoinExecutor {
	e := &MergeJoinExecutor{joinState: newJoinState(exec_ctx, plan), plan_: plan}
	for _, k := range plan.GetMergeKeys() {
		e.outerKeys = append(e.outerKeys, k.First)
		e.innerKeys = append(e.innerKeys, k.Second)
	}
	return e
}

func (e *MergeJoinExecutor) Init(eflags int) error {
	if err := checkCapabilities(e.PlanState, eflags, false, false); err != nil {
		return err
	}
	if err := e.initJoin(e.plan_, eflags, eflags|EXEC_FLAG_MARK); err != nil {
		return err
	}
	e.markedSlot = tuple.NewSlot(e.inner.GetOutputSchema(), tuple.MinimalSlot)
	return nil
}

/**
 * compareKeys compares merge keys of outer and inner rows.
 * canMatch is false when a key is NULL on either side.
 */
func (e *MergeJoinExecutor) compareKeys(outer *tuple.Slot, inner *tuple.Slot) (c int, canMatch bool) {
	canMatch = true
	for i := range e.outerKeys {
		l := outer.GetValue(e.outerKeys[i])
		r := inner.GetValue(e.innerKeys[i])
		if l.IsNull() || r.IsNull() {
			canMatch = false
		}
		if c = l.CompareForSort(r, false); c != 0 {
			return c, canMatch
		}
	}
	return 0, canMatch
}

func (e *MergeJoinExecutor) fetchOuter() (bool, error) {
	slot, done, err := ExecProcNode(e.outer)
	if err != nil || done {
		e.outerSlot = nil
		return false, err
	}
	e.outerSlot = slot
	return true, nil
}

func (e *MergeJoinExecutor) fetchInner() (bool, error) {
	slot, done, err := ExecProcNode(e.inner)
	if err != nil || done {
		e.innerSlot = nil
		return false, err
	}
	e.innerSlot = slot
	return true, nil
}

func (e *MergeJoinExecutor) Next() (*tuple.Slot, Done, error) {
	for {
		switch e.state {
		case mjInitial:
			ok, err := e.fetchOuter()
			if err != nil || !ok {
				e.state = mjEnd
				return nil, true, err
			}
			if ok, err = e.fetchInner(); err != nil || !ok {
				e.state = mjEnd
				return nil, true, err
			}
			e.state = mjSkipTest

		case mjSkipTest:
			if e.outerSlot == nil || e.innerSlot == nil {
				e.state = mjEnd
				continue
			}
			c, canMatch := e.compareKeys(e.outerSlot, e.innerSlot)
			switch {
			case c == 0 && canMatch:
				ExecMarkPos(e.inner)
				e.markedSlot.ForceStoreMinimal(e.innerSlot.CopyMinimalTuple(), true)
				e.state = mjJoinTuples
			case c > 0:
				if _, err := e.fetchInner(); err != nil {
					return nil, true, err
				}
			default:
				// outer is smaller or has NULL key
				if _, err := e.fetchOuter(); err != nil {
					return nil, true, err
				}
			}

		case mjJoinTuples:
			e.state = mjNextInner
			e.ectx.ResetExprContext()
			e.ectx.SetOuterTuple(e.outerSlot)
			e.ectx.SetInnerTuple(e.innerSlot)
			ok, err := e.qualify(e.joinQual)
			if err != nil {
				return nil, true, err
			}
			if ok {
				if ok, err = e.qualify(e.otherQual); err != nil {
					return nil, true, err
				}
			}
			if ok {
				return e.project()
			}

		case mjNextInner:
			ok, err := e.fetchInner()
			if err != nil {
				return nil, true, err
			}
			e.state = mjNextOuter
			if ok {
				if c, canMatch := e.compareKeys(e.outerSlot, e.innerSlot); c == 0 && canMatch {
					e.state = mjJoinTuples
				}
			}

		case mjNextOuter:
			ok, err := e.fetchOuter()
			if err != nil || !ok {
				e.state = mjEnd
				return nil, true, err
			}
			if c, canMatch := e.compareKeys(e.outerSlot, e.markedSlot); c == 0 && canMatch {
				// same key as the previous outer row. read the group again
				if err := ExecRestrPos(e.inner); err != nil {
					return nil, true, err
				}
				e.innerSlot = e.markedSlot
				e.state = mjJoinTuples
				continue
			}
			e.state = mjSkipTest

		case mjEnd:
			return nil, true, nil
		}
	}
}

func (e *MergeJoinExecutor) ReScan() error {
	e.state = mjInitial
	e.outerSlot = nil
	e.innerSlot = nil
	e.markedSlot.Clear()
	return e.rescanChildren()
}

func (e *MergeJoinExecutor) End() {
	e.endChildren()
}
