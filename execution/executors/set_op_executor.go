package executors

import (
	"encoding/binary"

	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/grouping"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/memory"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

// counters of left and right input are kept in Additional of each entry
const setOpCountersSize = 16

/**
 * SetOpExecutor computes INTERSECT and EXCEPT by counting how many times
 * each distinct row appears in both inputs.
 */
type SetOpExecutor struct {
	*PlanState
	plan_  *plans.SetOpPlanNode
	left_  Executor
	right_ Executor

	table    *grouping.TupleHashTable
	tableMem *memory.MemoryContext
	filled   bool
	nextIdx  int
	// copies of the current entry left to return
	remaining uint64
	current   *grouping.TupleHashEntry
}

func NewSetOpExecutor(exec_ctx *ExecutorContext, plan *plans.SetOpPlanNode) *SetOpExecutor {
	return &SetOpExecutor{PlanState: newPlanState(exec_ctx, plan), plan_: plan}
}

func (e *SetOpExecutor) Init(eflags int) error {
	if err := checkCapabilities(e.PlanState, eflags, false, false); err != nil {
		return err
	}
	childFlags := eflags &^ (EXEC_FLAG_REWIND | EXEC_FLAG_BACKWARD | EXEC_FLAG_MARK)
	var err error
	if e.left_, err = e.initChild(0, childFlags); err != nil {
		return err
	}
	if e.right_, err = e.initChild(1, childFlags); err != nil {
		return err
	}
	desc := e.left_.GetOutputSchema()
	if !desc.Equals(e.right_.GetOutputSchema()) {
		return common.NewInitError("inputs of %s have different shapes: %s and %s", e.plan_.GetCommand(), desc, e.right_.GetOutputSchema())
	}
	keyCols := make([]uint32, desc.GetColumnCount())
	for i := range keyCols {
		keyCols[i] = uint32(i)
	}
	cfg := e.context.GetConfig()
	e.tableMem = memory.NewMemoryContext("SetOpTable", e.mem)
	e.table, err = grouping.BuildTupleHashTable(&grouping.TupleHashTableParams{
		InputDesc:      desc,
		KeyCols:        keyCols,
		NumBuckets:     e.plan_.GetNumGroups(),
		AdditionalSize: setOpCountersSize,
		FillFactor:     cfg.HashFillFactor,
		RandomizeSeed:  cfg.HashSeedRandomize,
	}, e.tableMem)
	if err != nil {
		return err
	}
	e.resultSlot = tuple.NewSlot(desc, tuple.MinimalSlot)
	return nil
}

func addCount(counters []byte, off int) {
	binary.LittleEndian.PutUint64(counters[off:], binary.LittleEndian.Uint64(counters[off:])+1)
}

func (e *SetOpExecutor) fill() error {
	for {
		slot, done, err := ExecProcNode(e.left_)
		if err != nil {
			return err
		}
		if done {
			break
		}
		entry, _, _, err := e.table.LookupTupleHashEntry(slot, true)
		if err != nil {
			return err
		}
		addCount(entry.Additional, 0)
	}
	for {
		slot, done, err := ExecProcNode(e.right_)
		if err != nil {
			return err
		}
		if done {
			break
		}
		// rows only in the right input are never returned
		entry, _, _, err := e.table.LookupTupleHashEntry(slot, false)
		if err != nil {
			return err
		}
		if entry != nil {
			addCount(entry.Additional, 8)
		}
	}
	e.filled = true
	return nil
}

// outputCount returns how many copies of the row are returned for counts of both inputs
func (e *SetOpExecutor) outputCount(left uint64, right uint64) uint64 {
	switch e.plan_.GetCommand() {
	case plans.SetOpIntersect:
		if left > 0 && right > 0 {
			return 1
		}
	case plans.SetOpIntersectAll:
		if left < right {
			return left
		}
		return right
	case plans.SetOpExcept:
		if left > 0 && right == 0 {
			return 1
		}
	case plans.SetOpExceptAll:
		if left > right {
			return left - right
		}
	}
	return 0
}

func (e *SetOpExecutor) Next() (*tuple.Slot, Done, error) {
	if !e.filled {
		if err := e.fill(); err != nil {
			return nil, true, err
		}
	}
	for e.remaining == 0 {
		if e.nextIdx >= e.table.NumEntries() {
			return nil, true, nil
		}
		e.current = e.table.Entry(uint32(e.nextIdx))
		e.nextIdx++
		left := binary.LittleEndian.Uint64(e.current.Additional[0:])
		right := binary.LittleEndian.Uint64(e.current.Additional[8:])
		e.remaining = e.outputCount(left, right)
	}
	e.remaining--
	return e.table.StoreEntry(e.current, e.resultSlot), false, nil
}

func (e *SetOpExecutor) ReScan() error {
	e.nextIdx = 0
	e.remaining = 0
	e.current = nil
	if e.filled && e.left_.GetPlanState().chgParam.IsEmpty() && e.right_.GetPlanState().chgParam.IsEmpty() {
		return nil
	}
	e.filled = false
	e.resultSlot.Clear()
	if err := e.table.ResetTupleHashTable(); err != nil {
		return err
	}
	return e.rescanChildren()
}

func (e *SetOpExecutor) End() {
	e.endChildren()
}
