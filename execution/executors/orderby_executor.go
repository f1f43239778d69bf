package executors

import (
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/tuple"
	"github.com/ryogrid/samehada-executor/types"
	"golang.org/x/exp/slices"
)

// sortTuple is a stored row with its sort keys deformed once
type sortTuple struct {
	keys  []types.Value
	tuple *tuple.MinimalTuple
}

/**
* OrderbyExecutor sorts all rows of the child executor. sorted rows are kept,
* so the output can be read in both directions, marked and rescanned.
* when a bound is set, only the first bound rows are kept.
 */
type OrderbyExecutor struct {
	*PlanState
	/** The orderby plan node. */
	plan_ *plans.OrderbyPlanNode
	/** The child executor whose tuples we are sorting. */
	child_       Executor
	sort_tuples_ []*sortTuple
	sorted       bool
	cur_idx_     int // index of the current row. -1 is before the first
	mark_idx_    int
	bound        int64
	// bound which was used at the last sort
	boundDone int64
}

/**
 * Creates a new orderby executor.
 * @param exec_ctx the context that the orderby should be performed in
 * @param plan the orderby plan node
 */
func NewOrderbyExecutor(exec_ctx *ExecutorContext, plan *plans.OrderbyPlanNode) *OrderbyExecutor {
	return &OrderbyExecutor{PlanState: newPlanState(exec_ctx, plan), plan_: plan, cur_idx_: -1, mark_idx_: -1, bound: -1, boundDone: -1}
}

func (e *OrderbyExecutor) Init(eflags int) error {
	e.resultSlot = tuple.NewSlot(e.plan_.OutputSchema(), tuple.MinimalSlot)
	var err error
	if e.child_, err = e.initChild(0, eflags&^(EXEC_FLAG_REWIND|EXEC_FLAG_BACKWARD|EXEC_FLAG_MARK)); err != nil {
		return err
	}
	childCols := e.child_.GetOutputSchema().GetColumnCount()
	for _, col_idx := range e.plan_.GetColIdxs() {
		if col_idx >= childCols {
			return common.NewInitError("sort column %d does not exist in %s", col_idx, e.child_.GetOutputSchema())
		}
	}
	return nil
}

// SetBound is called by a parent which needs only the first bound rows
func (e *OrderbyExecutor) SetBound(bound int64) { e.bound = bound }

func (e *OrderbyExecutor) compare(a *sortTuple, b *sortTuple) int {
	orderTypes := e.plan_.GetOrderbyTypes()
	nullsFirst := e.plan_.GetNullsFirst()
	for idx := range a.keys {
		c := a.keys[idx].CompareForSort(b.keys[idx], nullsFirst[idx])
		if c == 0 {
			continue
		}
		if orderTypes[idx] == plans.DESC {
			// NULL position is decided by nullsFirst regardless of direction
			if !a.keys[idx].IsNull() && !b.keys[idx].IsNull() {
				return -c
			}
		}
		return c
	}
	return 0
}

func (e *OrderbyExecutor) performSort() error {
	colIdxs := e.plan_.GetColIdxs()
	bounded := e.bound >= 0
	e.sort_tuples_ = e.sort_tuples_[:0]
	for {
		tuple_, done, err := ExecProcNode(e.child_)
		if err != nil {
			return err
		}
		if done {
			break
		}
		st := &sortTuple{keys: make([]types.Value, len(colIdxs))}
		for i, col_idx := range colIdxs {
			st.keys[i] = tuple_.GetValue(col_idx)
		}
		if bounded {
			// keep first bound rows ordered. equal rows keep arrival order
			pos, _ := slices.BinarySearchFunc(e.sort_tuples_, st, func(a *sortTuple, t *sortTuple) int {
				if c := e.compare(a, t); c != 0 {
					return c
				}
				return -1
			})
			if int64(pos) >= e.bound {
				continue
			}
			if err := e.storeTuple(st, tuple_); err != nil {
				return err
			}
			e.sort_tuples_ = slices.Insert(e.sort_tuples_, pos, st)
			if int64(len(e.sort_tuples_)) > e.bound {
				e.sort_tuples_ = e.sort_tuples_[:e.bound]
			}
			continue
		}
		if err := e.storeTuple(st, tuple_); err != nil {
			return err
		}
		e.sort_tuples_ = append(e.sort_tuples_, st)
	}
	if !bounded {
		slices.SortStableFunc(e.sort_tuples_, e.compare)
	}
	e.sorted = true
	e.boundDone = e.bound
	common.ShPrintf(common.DEBUG_INFO, "OrderbyExecutor: sorted %d tuples (bound %d)\n", len(e.sort_tuples_), e.bound)
	return nil
}

func (e *OrderbyExecutor) storeTuple(st *sortTuple, slot *tuple.Slot) error {
	data, err := e.mem.CopyBytes(slot.GetMinimalTuple().Data())
	if err != nil {
		return err
	}
	st.tuple = tuple.NewMinimalTuple(data)
	return nil
}

func (e *OrderbyExecutor) Next() (*tuple.Slot, Done, error) {
	if !e.sorted {
		if err := e.performSort(); err != nil {
			return nil, true, err
		}
	}
	if e.context.GetDirection() == access.BackwardScanDirection {
		if e.cur_idx_ > 0 {
			e.cur_idx_--
			return e.resultSlot.StoreMinimal(e.sort_tuples_[e.cur_idx_].tuple, false), false, nil
		}
		e.cur_idx_ = -1
		return nil, true, nil
	}
	if e.cur_idx_+1 < len(e.sort_tuples_) {
		e.cur_idx_++
		return e.resultSlot.StoreMinimal(e.sort_tuples_[e.cur_idx_].tuple, false), false, nil
	}
	e.cur_idx_ = len(e.sort_tuples_)
	return nil, true, nil
}

func (e *OrderbyExecutor) MarkPos() { e.mark_idx_ = e.cur_idx_ }

func (e *OrderbyExecutor) RestrPos() error {
	e.cur_idx_ = e.mark_idx_
	return nil
}

func (e *OrderbyExecutor) ReScan() error {
	e.cur_idx_ = -1
	e.mark_idx_ = -1
	if !e.sorted {
		return nil
	}
	if e.child_.GetPlanState().chgParam.IsEmpty() && e.bound == e.boundDone {
		// sorted rows are still valid
		return nil
	}
	e.sorted = false
	e.resultSlot.Clear()
	e.mem.Reset()
	if e.child_.GetPlanState().chgParam.IsEmpty() {
		return ExecReScan(e.child_)
	}
	return nil
}

func (e *OrderbyExecutor) End() {
	e.sort_tuples_ = nil
	e.endChildren()
}
