package executors

import (
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/tuple"
	"github.com/ryogrid/samehada-executor/types"
)

// joinPlan is implemented by all join plan nodes
type joinPlan interface {
	plans.Plan
	GetJoinType() plans.JoinType
	GetJoinQual() []expression.Expression
	GetOtherQual() []expression.Expression
	GetTargets() []expression.Expression
}

/**
 * joinState is the common part of join executors. quals and targets are
 * compiled with the outer row as OuterVar and the inner row as InnerVar.
 */
type joinState struct {
	*PlanState
	joinType  plans.JoinType
	joinQual  *expression.Program
	otherQual *expression.Program
	outer     Executor
	inner     Executor
	// inner row of all NULL for unmatched outer rows of left join
	nullInnerSlot *tuple.Slot
	values        []types.Value
}

func newJoinState(context *ExecutorContext, plan joinPlan) *joinState {
	return &joinState{PlanState: newPlanState(context, plan), joinType: plan.GetJoinType()}
}

// initJoin initializes both children and compiles quals and output of plan
func (js *joinState) initJoin(plan joinPlan, outerFlags int, innerFlags int) error {
	var err error
	if js.outer, err = js.initChild(0, outerFlags); err != nil {
		return err
	}
	if js.inner, err = js.initChild(1, innerFlags); err != nil {
		return err
	}
	binding := expression.NewBinding().
		Bind(expression.OuterVar, js.outer.GetOutputSchema()).
		Bind(expression.InnerVar, js.inner.GetOutputSchema())
	if js.joinQual, err = expression.CompileQual(plan.GetJoinQual(), binding); err != nil {
		return err
	}
	if js.otherQual, err = expression.CompileQual(plan.GetOtherQual(), binding); err != nil {
		return err
	}
	js.nullInnerSlot = tuple.NewVirtualSlot(js.inner.GetOutputSchema()).StoreAllNull()
	if plan.GetTargets() != nil {
		return ExecAssignProjectionInfo(js.PlanState, plan.GetTargets(), binding)
	}
	js.resultSlot = tuple.NewVirtualSlot(plan.OutputSchema())
	return nil
}

// qualify runs prog on the current outer and inner rows. nil prog is true
func (js *joinState) qualify(prog *expression.Program) (bool, error) {
	if prog == nil {
		return true, nil
	}
	return prog.Qualify(js.ectx)
}

// project builds the output row from the current outer and inner rows
func (js *joinState) project() (*tuple.Slot, Done, error) {
	if js.projInfo != nil {
		ret, err := js.projInfo.Project(js.ectx)
		if err != nil {
			return nil, true, err
		}
		return ret, false, nil
	}
	js.values = js.values[:0]
	js.values = append(js.values, js.ectx.GetSlot(expression.OuterVar).GetAllValues()...)
	if js.joinType != plans.SemiJoin && js.joinType != plans.AntiJoin {
		js.values = append(js.values, js.ectx.GetSlot(expression.InnerVar).GetAllValues()...)
	}
	return js.resultSlot.StoreValues(js.values), false, nil
}

// emitUnmatched returns the output for an outer row without match, or nil when nothing is returned
func (js *joinState) emitUnmatched(outer *tuple.Slot) (*tuple.Slot, error) {
	if js.joinType != plans.LeftJoin && js.joinType != plans.AntiJoin {
		return nil, nil
	}
	js.ectx.SetOuterTuple(outer)
	js.ectx.SetInnerTuple(js.nullInnerSlot)
	ok, err := js.qualify(js.otherQual)
	if err != nil || !ok {
		return nil, err
	}
	slot, _, err := js.project()
	return slot, err
}
