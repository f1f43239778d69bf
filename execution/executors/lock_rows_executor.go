package executors

import (
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/page"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

/**
 * LockRowsExecutor locks rows of the marked relations for each row of the
 * child, like SELECT ... FOR UPDATE. when some of them were updated
 * concurrently, the newest versions are locked and the child plan is
 * re-evaluated with them. rows which were deleted or can't be locked
 * under the wait policy are skipped.
 */
type LockRowsExecutor struct {
	*PlanState
	plan_  *plans.LockRowsPlanNode
	child_ Executor

	epq          *EPQState
	reevaluators []*Reevaluator
	relSchemas   []*schema.Schema
}

func NewLockRowsExecutor(exec_ctx *ExecutorContext, plan *plans.LockRowsPlanNode) *LockRowsExecutor {
	return &LockRowsExecutor{PlanState: newPlanState(exec_ctx, plan), plan_: plan}
}

func (e *LockRowsExecutor) Init(eflags int) error {
	if err := checkCapabilities(e.PlanState, eflags, false, false); err != nil {
		return err
	}
	var err error
	if e.child_, err = e.initChild(0, eflags); err != nil {
		return err
	}
	childCols := e.child_.GetOutputSchema().GetColumnCount()
	e.epq = EvalPlanQualInit(e.context, e.plan_.GetChildAt(0), e.plan_.GetRowMarks())
	for _, mark := range e.plan_.GetRowMarks() {
		if mark.RIDCol >= childCols {
			return common.NewInitError("row mark of rti %d references column %d which child doesn't have", mark.Rti, mark.RIDCol)
		}
		if eflags&EXEC_FLAG_EXPLAIN_ONLY != 0 {
			continue
		}
		desc, err := e.context.GetStorage().Schema(mark.Rel)
		if err != nil {
			return err
		}
		e.relSchemas = append(e.relSchemas, desc)
		e.reevaluators = append(e.reevaluators, NewReevaluator(e.epq, mark.Rel, mark.Wait))
	}
	return nil
}

func (e *LockRowsExecutor) clearTestSlots() {
	for _, slot := range e.epq.testSlots {
		slot.Clear()
	}
}

func (e *LockRowsExecutor) Next() (*tuple.Slot, Done, error) {
	ctx := e.context.GetContext()
	for {
		slot, done, err := ExecProcNode(e.child_)
		if err != nil || done {
			return nil, true, err
		}

		epqNeeded := false
		skip := false
		for i, mark := range e.plan_.GetRowMarks() {
			ridVal := slot.GetValue(mark.RIDCol)
			if ridVal.IsNull() {
				// no row of the relation was joined
				continue
			}
			out := &RecheckOutcome{}
			out.moveTo(RecheckInitial)
			superseded, err := e.reevaluators[i].lockLatest(ctx, page.NewRIDFromInt64(ridVal.ToBigInt()), mark.Mode, out)
			if err != nil {
				e.clearTestSlots()
				return nil, true, err
			}
			if out.State == RecheckGone {
				skip = true
				break
			}
			EvalPlanQualSlot(e.epq, mark.Rti, e.relSchemas[i]).StorePhysical(out.Locked, false)
			epqNeeded = epqNeeded || superseded
		}
		if skip {
			e.clearTestSlots()
			continue
		}
		if !epqNeeded {
			e.clearTestSlots()
			return slot, false, nil
		}

		// some rows were updated. check the child row computed with newest versions
		EvalPlanQualSetSlot(e.epq, slot)
		newSlot, err := evalPlanQualRun(e.epq)
		e.clearTestSlots()
		if err != nil {
			return nil, true, err
		}
		if newSlot != nil {
			return newSlot, false, nil
		}
	}
}

func (e *LockRowsExecutor) ReScan() error {
	e.clearTestSlots()
	return e.rescanChildren()
}

func (e *LockRowsExecutor) End() {
	EvalPlanQualEnd(e.epq)
	e.endChildren()
}
