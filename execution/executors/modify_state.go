package executors

import (
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/page"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

// modifyPlan is implemented by Update and Delete plan nodes
type modifyPlan interface {
	plans.Plan
	GetRelation() access.RelationID
	GetRTI() int
	GetRelationSchema() *schema.Schema
	GetRIDCol() uint32
	IsReturning() bool
	GetAuxRowMarks() []plans.RowMark
	GetRowMark() plans.RowMark
}

/**
 * modifyState is the common part of Update and Delete executors. a write
 * which meets concurrent modification of the target row is retried on the
 * version validated by the re-evaluation protocol.
 */
type modifyState struct {
	*PlanState
	mplan  modifyPlan
	child_ Executor

	epq         *EPQState
	reevaluator *Reevaluator
}

func newModifyState(context *ExecutorContext, plan modifyPlan) *modifyState {
	return &modifyState{PlanState: newPlanState(context, plan), mplan: plan}
}

func (ms *modifyState) initModify(eflags int) error {
	if err := checkCapabilities(ms.PlanState, eflags, false, false); err != nil {
		return err
	}
	var err error
	if ms.child_, err = ms.initChild(0, eflags&^(EXEC_FLAG_REWIND|EXEC_FLAG_BACKWARD|EXEC_FLAG_MARK)); err != nil {
		return err
	}
	if ms.mplan.GetRIDCol() >= ms.child_.GetOutputSchema().GetColumnCount() {
		return common.NewInitError("RID column %d does not exist in %s", ms.mplan.GetRIDCol(), ms.child_.GetOutputSchema())
	}
	ms.epq = EvalPlanQualInit(ms.context, ms.mplan.GetChildAt(0), ms.mplan.GetAuxRowMarks())
	ms.reevaluator = NewReevaluator(ms.epq, ms.mplan.GetRelation(), ms.mplan.GetRowMark().Wait)
	return nil
}

// targetRID returns the RID of the version which the child found
func (ms *modifyState) targetRID(planSlot *tuple.Slot) (page.RID, error) {
	val := planSlot.GetValue(ms.mplan.GetRIDCol())
	if val.IsNull() {
		return page.InvalidRID, common.NewEvalError("target row of relation %d has no RID", ms.mplan.GetRelation())
	}
	return page.NewRIDFromInt64(val.ToBigInt()), nil
}

/**
 * recheck runs the re-evaluation protocol for the row at rid which was
 * modified concurrently. it returns nil when the row is skipped.
 */
func (ms *modifyState) recheck(planSlot *tuple.Slot, rid page.RID) (*RecheckOutcome, error) {
	EvalPlanQualSetSlot(ms.epq, planSlot)
	out, err := ms.reevaluator.Recheck(ms.context.GetContext(), ms.mplan.GetRTI(), rid, ms.mplan.GetRowMark().Mode)
	if err != nil {
		return nil, err
	}
	common.ShPrintf(common.DEBUG_INFO, "%s: recheck of %s: %v\n", ms.mplan.GetType(), rid, out.Transitions)
	if out.State != RecheckQualifies {
		return nil, nil
	}
	return out, nil
}

func (ms *modifyState) ReScan() error { return ms.rescanChildren() }

func (ms *modifyState) End() {
	EvalPlanQualEnd(ms.epq)
	ms.endChildren()
}
