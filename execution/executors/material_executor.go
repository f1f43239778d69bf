package executors

import (
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

/**
 * MaterialExecutor stores rows of its child in a tuplestore while passing
 * them up. once stored, rows can be read again in any direction, marked
 * and restored, and rescan doesn't run the child again unless params of
 * the child changed.
 */
type MaterialExecutor struct {
	*PlanState
	plan  *plans.MaterialPlanNode
	child Executor
	store *tuplestore
	// child returned all of its rows
	eof bool
	// index of the current row. -1 is before the first and count is after the last
	readPos int
	markPos int
}

func NewMaterialExecutor(context *ExecutorContext, plan *plans.MaterialPlanNode) *MaterialExecutor {
	return &MaterialExecutor{PlanState: newPlanState(context, plan), plan: plan, readPos: -1, markPos: -1}
}

func (e *MaterialExecutor) Init(eflags int) error {
	e.resultSlot = tuple.NewSlot(e.plan.OutputSchema(), tuple.MinimalSlot)
	e.store = newTuplestore(e.mem)
	// the store provides rewind, backward and mark for the child
	var err error
	e.child, err = e.initChild(0, eflags&^(EXEC_FLAG_REWIND|EXEC_FLAG_BACKWARD|EXEC_FLAG_MARK))
	return err
}

func (e *MaterialExecutor) fetchStored(idx int) (*tuple.Slot, Done, error) {
	mt, err := e.store.getTuple(idx)
	if err != nil {
		return nil, true, err
	}
	return e.resultSlot.StoreMinimal(mt, true), false, nil
}

func (e *MaterialExecutor) Next() (*tuple.Slot, Done, error) {
	if e.context.GetDirection() == access.BackwardScanDirection {
		if e.readPos > 0 {
			e.readPos--
			return e.fetchStored(e.readPos)
		}
		e.readPos = -1
		e.resultSlot.Clear()
		return nil, true, nil
	}

	if e.readPos+1 < e.store.count() {
		e.readPos++
		return e.fetchStored(e.readPos)
	}
	if e.eof {
		e.readPos = e.store.count()
		e.resultSlot.Clear()
		return nil, true, nil
	}
	t, done, err := ExecProcNode(e.child)
	if err != nil {
		return nil, true, err
	}
	if done {
		e.eof = true
		e.readPos = e.store.count()
		e.resultSlot.Clear()
		return nil, true, nil
	}
	if err := e.store.putTuple(t.GetMinimalTuple()); err != nil {
		return nil, true, err
	}
	e.readPos++
	return t, false, nil
}

func (e *MaterialExecutor) MarkPos() { e.markPos = e.readPos }

func (e *MaterialExecutor) RestrPos() error {
	e.readPos = e.markPos
	return nil
}

func (e *MaterialExecutor) ReScan() error {
	e.readPos = -1
	e.markPos = -1
	if e.child.GetPlanState().chgParam.IsEmpty() {
		// stored rows are still valid
		return nil
	}
	// child rescans itself at the next pull
	e.store.clear()
	e.mem.Reset()
	e.eof = false
	return nil
}

func (e *MaterialExecutor) End() {
	e.store.clear()
	e.resultSlot.Clear()
	e.endChildren()
}
