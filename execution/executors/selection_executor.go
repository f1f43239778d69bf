package executors

import (
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

// do filtering according to WHERE clause for Plan(Executor) which has no filtering feature

type SelectionExecutor struct {
	*PlanState
	plan  *plans.SelectionPlanNode // contains information about where clause
	child Executor                 // the child executor that will provide tuples to the this executor
}

func NewSelectionExecutor(context *ExecutorContext, plan *plans.SelectionPlanNode) *SelectionExecutor {
	return &SelectionExecutor{PlanState: newPlanState(context, plan), plan: plan}
}

func (e *SelectionExecutor) Init(eflags int) error {
	if err := checkCapabilities(e.PlanState, eflags, true, false); err != nil {
		return err
	}
	var err error
	if e.child, err = e.initChild(0, eflags); err != nil {
		return err
	}
	binding := expression.NewBinding().Bind(expression.OuterVar, e.child.GetOutputSchema())
	e.qual, err = expression.CompileQual(e.plan.GetPredicate(), binding)
	return err
}

func (e *SelectionExecutor) Next() (*tuple.Slot, Done, error) {
	for {
		t, done, err := ExecProcNode(e.child)
		if err != nil || done {
			return nil, true, err
		}
		e.ectx.ResetExprContext()
		e.ectx.SetOuterTuple(t)
		ok, err := e.qual.Qualify(e.ectx)
		if err != nil {
			return nil, true, err
		}
		if ok {
			return t, false, nil
		}
	}
}

func (e *SelectionExecutor) ReScan() error { return e.rescanChildren() }

func (e *SelectionExecutor) End() { e.endChildren() }
