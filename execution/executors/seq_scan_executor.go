// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package executors

import (
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

/**
 * SeqScanExecutor executes a sequential scan over a relation.
 * the storage scan is opened at the first fetch.
 */
type SeqScanExecutor struct {
	*ScanState
	plan   *plans.SeqScanPlanNode
	cursor access.ScanCursor
}

// NewSeqScanExecutor creates a new sequential executor
func NewSeqScanExecutor(context *ExecutorContext, plan *plans.SeqScanPlanNode) *SeqScanExecutor {
	return &SeqScanExecutor{ScanState: newScanState(context, plan, plan.GetRTI()), plan: plan}
}

func (e *SeqScanExecutor) Init(eflags int) error {
	// parallel scan reads only part of pages and the part can't be read backward consistently
	if err := checkCapabilities(e.PlanState, eflags, !e.plan.IsParallel(), false); err != nil {
		return err
	}
	return e.initScan(e.plan.GetRelationSchema(), tuple.PhysicalSlot, e.plan.GetQual(), e.plan.GetTargets())
}

// Next implements the next method for the sequential scan operator
// It uses the storage cursor to iterate through the relation trying to
// find a row which satisfies the qual. It performs projection on-the-fly
func (e *SeqScanExecutor) Next() (*tuple.Slot, Done, error) {
	return ExecScan(e.ScanState, e.seqNext, e.seqRecheck)
}

func (e *SeqScanExecutor) openScan() error {
	storage := e.context.GetStorage()
	ctx := e.context.GetContext()
	var err error
	if ps, ok := storage.(access.PartitionedStorage); ok && e.plan.IsParallel() && e.context.nparts > 1 {
		e.cursor, err = ps.BeginPartialScan(ctx, e.plan.GetRelation(), e.context.GetSnapshot(), e.context.part, e.context.nparts)
	} else {
		e.cursor, err = storage.BeginScan(ctx, e.plan.GetRelation(), e.context.GetSnapshot())
	}
	return err
}

func (e *SeqScanExecutor) seqNext() (*tuple.Slot, error) {
	if e.cursor == nil {
		if err := e.openScan(); err != nil {
			return nil, err
		}
	}
	t, err := e.context.GetStorage().ScanNext(e.context.GetContext(), e.cursor, e.context.GetDirection())
	if err != nil {
		return nil, err
	}
	if t == nil {
		e.scanSlot.Clear()
		return nil, nil
	}
	return e.scanSlot.StorePhysical(t, false), nil
}

// the test row was locked as the latest version, so nothing to check
func (e *SeqScanExecutor) seqRecheck(slot *tuple.Slot) (bool, error) {
	return true, nil
}

func (e *SeqScanExecutor) ReScan() error {
	e.rescanEPQ()
	if e.cursor == nil {
		return nil
	}
	return e.context.GetStorage().RescanCursor(e.cursor)
}

func (e *SeqScanExecutor) End() {
	if e.cursor != nil {
		e.context.GetStorage().EndScan(e.cursor)
		e.cursor = nil
	}
	e.scanSlot.Clear()
}
