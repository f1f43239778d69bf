package executors

import (
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

/**
 * ValuesScanExecutor returns literal rows. rows are evaluated when they are
 * fetched, so params are read at that time. it can move in both directions
 * and supports mark and restore.
 */
type ValuesScanExecutor struct {
	*PlanState
	plan *plans.ValuesScanPlanNode
	rows []*expression.ProjectionInfo
	// index of the current row. -1 is before the first and len(rows) is after the last
	curr    int
	markPos int
}

func NewValuesScanExecutor(context *ExecutorContext, plan *plans.ValuesScanPlanNode) *ValuesScanExecutor {
	return &ValuesScanExecutor{PlanState: newPlanState(context, plan), plan: plan, curr: -1, markPos: -1}
}

func (e *ValuesScanExecutor) Init(eflags int) error {
	e.resultSlot = tuple.NewVirtualSlot(e.plan.OutputSchema())
	for _, row := range e.plan.GetRows() {
		projInfo, err := expression.BuildProjection(row, expression.NewBinding(), e.resultSlot)
		if err != nil {
			return err
		}
		e.rows = append(e.rows, projInfo)
	}
	return nil
}

func (e *ValuesScanExecutor) Next() (*tuple.Slot, Done, error) {
	switch e.context.GetDirection() {
	case access.ForwardScanDirection:
		if e.curr < len(e.rows) {
			e.curr++
		}
	case access.BackwardScanDirection:
		if e.curr >= 0 {
			e.curr--
		}
	}
	if e.curr < 0 || e.curr >= len(e.rows) {
		e.resultSlot.Clear()
		return nil, true, nil
	}
	e.ectx.ResetExprContext()
	slot, err := e.rows[e.curr].Project(e.ectx)
	if err != nil {
		return nil, true, err
	}
	return slot, false, nil
}

func (e *ValuesScanExecutor) MarkPos() { e.markPos = e.curr }

// RestrPos makes the marked row current. the next forward fetch returns the row after it
func (e *ValuesScanExecutor) RestrPos() error {
	e.curr = e.markPos
	return nil
}

func (e *ValuesScanExecutor) ReScan() error {
	e.curr = -1
	return nil
}

func (e *ValuesScanExecutor) End() {
	e.resultSlot.Clear()
}
