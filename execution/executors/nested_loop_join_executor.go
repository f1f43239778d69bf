package executors

import (
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

/**
 * NestedLoopJoinExecutor scans the inner child once for each outer row.
 * before each inner scan, nest params are set from the outer row and the
 * inner child is rescanned with them marked as changed.
 */
type NestedLoopJoinExecutor struct {
	*joinState
	plan_ *plans.NestedLoopJoinPlanNode

	outerSlot    *tuple.Slot
	needNewOuter bool
	matchedOuter bool
}

func NewNestedLoopJoinExecutor(exec_ctx *ExecutorContext, plan *plans.NestedLoopJoinPlanNode) *NestedLoopJoinExecutor {
	return &NestedLoopJoinExecutor{joinState: newJoinState(exec_ctx, plan), plan_: plan, needNewOuter: true}
}

func (e *NestedLoopJoinExecutor) Init(eflags int) error {
	if err := checkCapabilities(e.PlanState, eflags, false, false); err != nil {
		return err
	}
	// inner is rescanned for every outer row
	innerFlags := eflags | EXEC_FLAG_REWIND
	if len(e.plan_.GetNestParams()) > 0 {
		// rescan with new params reads the inner again anyway
		innerFlags = eflags &^ EXEC_FLAG_REWIND
	}
	if err := e.initJoin(e.plan_, eflags, innerFlags); err != nil {
		return err
	}
	outerCols := e.outer.GetOutputSchema().GetColumnCount()
	for _, param := range e.plan_.GetNestParams() {
		if param.Second >= outerCols {
			return common.NewInitError("nest param %d references column %d of outer", param.First, param.Second)
		}
	}
	return nil
}

func (e *NestedLoopJoinExecutor) Next() (*tuple.Slot, Done, error) {
	for {
		if e.needNewOuter {
			outer, done, err := ExecProcNode(e.outer)
			if err != nil || done {
				return nil, true, err
			}
			e.outerSlot = outer
			e.needNewOuter = false
			e.matchedOuter = false
			if err := e.rescanInner(); err != nil {
				return nil, true, err
			}
		}

		inner, done, err := ExecProcNode(e.inner)
		if err != nil {
			return nil, true, err
		}
		if done {
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

		e.ectx.ResetExprContext()
		e.ectx.SetOuterTuple(e.outerSlot)
		e.ectx.SetInnerTuple(inner)
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

// rescanInner passes values of the current outer row to the inner child and rescans it
func (e *NestedLoopJoinExecutor) rescanInner() error {
	innerState := e.inner.GetPlanState()
	for _, param := range e.plan_.GetNestParams() {
		e.context.SetParamExec(param.First, e.outerSlot.GetValue(param.Second))
		innerState.chgParam.Add(uint32(param.First))
	}
	return ExecReScan(e.inner)
}

func (e *NestedLoopJoinExecutor) ReScan() error {
	e.needNewOuter = true
	e.matchedOuter = false
	e.outerSlot = nil
	// inner is rescanned when the first outer row is read
	if e.outer.GetPlanState().chgParam.IsEmpty() {
		return ExecReScan(e.outer)
	}
	return nil
}

func (e *NestedLoopJoinExecutor) End() {
	e.endChildren()
}
