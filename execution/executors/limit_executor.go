package executors

import (
	"github.com/cockroachdb/errors"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

type limitState int32

const (
	limitInitial limitState = iota
	// no row can be returned
	limitEmpty
	limitInWindow
	// child returned no more rows before the window end
	limitSubplanEOF
	// stopped at the last row of the window
	limitWindowEnd
	// stopped at the first row of the window when moving backward
	limitWindowStart
)

// LimitExecutor implements the limit/offset operation
type LimitExecutor struct {
	*PlanState
	plan  *plans.LimitPlanNode // contains information about limit and offset
	child Executor             // the child executor that will provide tuples to the limit executor
	state limitState
	// 1-based position in child output of the row which was returned last
	position uint64
	subSlot  *tuple.Slot
}

func NewLimitExecutor(context *ExecutorContext, plan *plans.LimitPlanNode) *LimitExecutor {
	return &LimitExecutor{PlanState: newPlanState(context, plan), plan: plan}
}

func (e *LimitExecutor) Init(eflags int) error {
	if err := checkCapabilities(e.PlanState, eflags, true, false); err != nil {
		return err
	}
	var err error
	e.child, err = e.initChild(0, eflags)
	return err
}

// the window is full when limit rows after offset have been returned
func (e *LimitExecutor) windowFull() bool {
	return e.plan.GetLimit() != plans.LimitAll && e.position-e.plan.GetOffset() >= e.plan.GetLimit()
}

func (e *LimitExecutor) Next() (*tuple.Slot, Done, error) {
	forward := e.context.GetDirection() != access.BackwardScanDirection
	offset := e.plan.GetOffset()

	switch e.state {
	case limitInitial:
		if !forward {
			return nil, true, nil
		}
		if e.plan.GetLimit() == 0 {
			e.state = limitEmpty
			return nil, true, nil
		}
		if e.plan.GetLimit() != plans.LimitAll {
			ExecSetTupleBound(int64(offset+e.plan.GetLimit()), e.child)
		}
		// skip offset rows
		for {
			t, done, err := ExecProcNode(e.child)
			if err != nil {
				return nil, true, err
			}
			if done {
				e.state = limitEmpty
				return nil, true, nil
			}
			e.position++
			if e.position > offset {
				e.subSlot = t
				e.state = limitInWindow
				return t, false, nil
			}
		}

	case limitEmpty:
		return nil, true, nil

	case limitInWindow:
		if forward {
			if e.windowFull() {
				e.state = limitWindowEnd
				return nil, true, nil
			}
			t, done, err := ExecProcNode(e.child)
			if err != nil {
				return nil, true, err
			}
			if done {
				e.state = limitSubplanEOF
				return nil, true, nil
			}
			e.position++
			e.subSlot = t
			return t, false, nil
		}
		if e.position <= offset+1 {
			e.state = limitWindowStart
			return nil, true, nil
		}
		t, done, err := ExecProcNode(e.child)
		if err != nil {
			return nil, true, err
		}
		if done {
			return nil, true, errors.AssertionFailedf("LIMIT subplan failed to run backwards")
		}
		e.position--
		e.subSlot = t
		return t, false, nil

	case limitSubplanEOF:
		if forward {
			return nil, true, nil
		}
		// backing up from EOF returns the last row, which is in the window
		t, done, err := ExecProcNode(e.child)
		if err != nil {
			return nil, true, err
		}
		if done {
			return nil, true, errors.AssertionFailedf("LIMIT subplan failed to run backwards")
		}
		e.state = limitInWindow
		e.subSlot = t
		return t, false, nil

	case limitWindowEnd:
		if forward {
			return nil, true, nil
		}
		// child stays on the last row of the window
		e.state = limitInWindow
		return e.subSlot, false, nil

	case limitWindowStart:
		if !forward {
			return nil, true, nil
		}
		e.state = limitInWindow
		return e.subSlot, false, nil
	}
	return nil, true, errors.AssertionFailedf("impossible LIMIT state: %d", e.state)
}

func (e *LimitExecutor) ReScan() error {
	e.state = limitInitial
	e.position = 0
	e.subSlot = nil
	return e.rescanChildren()
}

func (e *LimitExecutor) End() { e.endChildren() }
