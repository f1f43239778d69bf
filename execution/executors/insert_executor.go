package executors

import (
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/tuple"
	"github.com/ryogrid/samehada-executor/types"
)

/**
 * InsertExecutor inserts raw values embedded in the plan, or rows of the
 * child executor. when the plan is returning, inserted rows are returned.
 */
type InsertExecutor struct {
	*PlanState
	plan   *plans.InsertPlanNode
	child_ Executor
	// position in raw values
	rawIdx int
}

func NewInsertExecutor(context *ExecutorContext, plan *plans.InsertPlanNode) *InsertExecutor {
	return &InsertExecutor{PlanState: newPlanState(context, plan), plan: plan}
}

func (e *InsertExecutor) Init(eflags int) error {
	if err := checkCapabilities(e.PlanState, eflags, false, false); err != nil {
		return err
	}
	relSchema := e.plan.GetRelationSchema()
	if len(e.plan.GetChildren()) > 0 {
		var err error
		if e.child_, err = e.initChild(0, eflags&^(EXEC_FLAG_REWIND|EXEC_FLAG_BACKWARD|EXEC_FLAG_MARK)); err != nil {
			return err
		}
		if !e.child_.GetOutputSchema().Equals(relSchema) {
			return common.NewInitError("rows of %s can't be inserted into %s", e.child_.GetOutputSchema(), relSchema)
		}
	}
	for _, values := range e.plan.GetRawValues() {
		if uint32(len(values)) != relSchema.GetColumnCount() {
			return common.NewInitError("%d values are given for %s", len(values), relSchema)
		}
	}
	e.resultSlot = tuple.NewVirtualSlot(relSchema)
	return nil
}

// nextValues returns the values of the next row to be inserted. nil means the end
func (e *InsertExecutor) nextValues() ([]types.Value, error) {
	if e.child_ == nil {
		if e.rawIdx >= len(e.plan.GetRawValues()) {
			return nil, nil
		}
		e.rawIdx++
		return e.plan.GetRawValues()[e.rawIdx-1], nil
	}
	slot, done, err := ExecProcNode(e.child_)
	if err != nil || done {
		return nil, err
	}
	return slot.GetAllValues(), nil
}

func (e *InsertExecutor) Next() (*tuple.Slot, Done, error) {
	for {
		values, err := e.nextValues()
		if err != nil || values == nil {
			return nil, true, err
		}
		rid, err := e.context.GetStorage().InsertRow(e.context.GetContext(), e.plan.GetRelation(), e.context.GetTransaction(), values)
		if err != nil {
			return nil, true, err
		}
		e.context.processed++
		if e.plan.IsReturning() {
			e.resultSlot.StoreValues(values)
			e.resultSlot.SetRID(rid)
			return e.resultSlot, false, nil
		}
	}
}

func (e *InsertExecutor) ReScan() error {
	e.rawIdx = 0
	return e.rescanChildren()
}

func (e *InsertExecutor) End() {
	e.endChildren()
}
