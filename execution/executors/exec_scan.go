package executors

import (
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

// fetches next raw row into the scan slot. nil means the end
type execScanAccessMtd func() (*tuple.Slot, error)

// tells whether the row substituted at re-evaluation is still what the scan would return
type execScanRecheckMtd func(slot *tuple.Slot) (bool, error)

/**
 * ScanState is the common part of nodes which scan a relation. while the
 * context re-evaluates rows, the scan returns the test row of its range
 * table entry once instead of reading storage.
 */
type ScanState struct {
	*PlanState
	scanSlot *tuple.Slot
	// range table index of the scanned relation
	rti int
}

func newScanState(context *ExecutorContext, plan plans.Plan, rti int) *ScanState {
	return &ScanState{PlanState: newPlanState(context, plan), rti: rti}
}

// initScan creates the scan slot and compiles qual and targets against it
func (ss *ScanState) initScan(scanDesc *schema.Schema, kind tuple.SlotKind, qual []expression.Expression, targets []expression.Expression) error {
	ss.scanSlot = tuple.NewSlot(scanDesc, kind)
	ss.scanSlot.SetMemoryContext(ss.mem)
	binding := expression.NewBinding().Bind(expression.ScanVar, scanDesc)
	var err error
	if ss.qual, err = expression.CompileQual(qual, binding); err != nil {
		return err
	}
	return ExecConditionalAssignProjectionInfo(ss.PlanState, ss.scanSlot, targets, binding)
}

/**
 * ExecScan returns the next row which satisfies qual, projected. accessMtd
 * reads raw rows and recheckMtd is used for the test row of re-evaluation.
 */
func ExecScan(ss *ScanState, accessMtd execScanAccessMtd, recheckMtd execScanRecheckMtd) (*tuple.Slot, Done, error) {
	if ss.context.epq != nil && ss.rti > 0 {
		return ss.execScanFetchEPQ(recheckMtd)
	}
	for {
		ss.ectx.ResetExprContext()
		slot, err := accessMtd()
		if err != nil {
			return nil, true, err
		}
		if slot == nil {
			return nil, true, nil
		}
		ss.ectx.SetScanTuple(slot)
		if ss.qual != nil {
			ok, err := ss.qual.Qualify(ss.ectx)
			if err != nil {
				return nil, true, err
			}
			if !ok {
				continue
			}
		}
		return ss.project(slot)
	}
}

func (ss *ScanState) execScanFetchEPQ(recheckMtd execScanRecheckMtd) (*tuple.Slot, Done, error) {
	epq := ss.context.epq
	if epq.done.Contains(ss.rti) {
		return nil, true, nil
	}
	epq.done.Add(ss.rti)

	ss.ectx.ResetExprContext()
	slot, err := epq.testRow(ss.rti, ss.scanSlot)
	if err != nil || slot == nil {
		return nil, true, err
	}
	if ok, err := recheckMtd(slot); err != nil || !ok {
		return nil, true, err
	}
	ss.ectx.SetScanTuple(slot)
	if ss.qual != nil {
		ok, err := ss.qual.Qualify(ss.ectx)
		if err != nil || !ok {
			return nil, true, err
		}
	}
	return ss.project(slot)
}

func (ss *ScanState) project(slot *tuple.Slot) (*tuple.Slot, Done, error) {
	if ss.projInfo == nil {
		return slot, false, nil
	}
	ret, err := ss.projInfo.Project(ss.ectx)
	if err != nil {
		return nil, true, err
	}
	return ret, false, nil
}

// rescanEPQ makes the test row available again after rescan inside re-evaluation
func (ss *ScanState) rescanEPQ() {
	if epq := ss.context.epq; epq != nil && ss.rti > 0 {
		epq.done.Remove(ss.rti)
	}
}

/**
 * ExecAssignProjectionInfo compiles targets which fill the result slot of
 * the node. the result slot is created for the output schema.
 */
func ExecAssignProjectionInfo(ps *PlanState, targets []expression.Expression, binding *expression.Binding) error {
	ps.resultSlot = tuple.NewVirtualSlot(ps.plan.OutputSchema())
	projInfo, err := expression.BuildProjection(targets, binding, ps.resultSlot)
	if err != nil {
		return err
	}
	ps.projInfo = projInfo
	return nil
}

/**
 * ExecConditionalAssignProjectionInfo is ExecAssignProjectionInfo which is
 * skipped when targets is nil. then the input slot is returned as it is,
 * and its shape must be the output schema.
 */
func ExecConditionalAssignProjectionInfo(ps *PlanState, inputSlot *tuple.Slot, targets []expression.Expression, binding *expression.Binding) error {
	if targets != nil {
		return ExecAssignProjectionInfo(ps, targets, binding)
	}
	if !inputSlot.Schema().Equals(ps.plan.OutputSchema()) {
		return common.NewInitError("%s outputs %s but its input is %s", ps.plan.GetType(), ps.plan.OutputSchema(), inputSlot.Schema())
	}
	ps.resultSlot = inputSlot
	ps.projInfo = nil
	return nil
}
