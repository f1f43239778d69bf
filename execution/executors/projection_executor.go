package executors

import (
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

/**
 * ProjectionExecutor computes target list over each row of its child.
 * mark and restore are passed through to the child.
 */
type ProjectionExecutor struct {
	*PlanState
	plan  *plans.ProjectionPlanNode
	child Executor
}

func NewProjectionExecutor(context *ExecutorContext, plan *plans.ProjectionPlanNode) *ProjectionExecutor {
	return &ProjectionExecutor{PlanState: newPlanState(context, plan), plan: plan}
}

func (e *ProjectionExecutor) Init(eflags int) error {
	var err error
	if e.child, err = e.initChild(0, eflags); err != nil {
		return err
	}
	binding := expression.NewBinding().Bind(expression.OuterVar, e.child.GetOutputSchema())
	return ExecAssignProjectionInfo(e.PlanState, e.plan.GetTargets(), binding)
}

func (e *ProjectionExecutor) Next() (*tuple.Slot, Done, error) {
	t, done, err := ExecProcNode(e.child)
	if err != nil || done {
		return nil, true, err
	}
	e.ectx.ResetExprContext()
	e.ectx.SetOuterTuple(t)
	ret, err := e.projInfo.Project(e.ectx)
	if err != nil {
		return nil, true, err
	}
	return ret, false, nil
}

func (e *ProjectionExecutor) MarkPos() { ExecMarkPos(e.child) }

func (e *ProjectionExecutor) RestrPos() error { return ExecRestrPos(e.child) }

func (e *ProjectionExecutor) ReScan() error { return e.rescanChildren() }

func (e *ProjectionExecutor) End() { e.endChildren() }
