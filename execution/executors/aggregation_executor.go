package executors

import (
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/execution/grouping"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/memory"
	"github.com/ryogrid/samehada-executor/storage/tuple"
	"github.com/ryogrid/samehada-executor/types"
)

/**
 * AggregationExecutor executes an aggregation operation (e.g. COUNT, SUM, MIN, MAX)
 * over the tuples produced by a child executor. without GROUP BY it returns
 * exactly one row. with GROUP BY, groups are collected in a tuple hash table
 * and returned in the order they first appeared.
 */
type AggregationExecutor struct {
	*PlanState
	/** The aggregation plan node. */
	plan_ *plans.AggregationPlanNode
	/** The child executor whose tuples we are aggregating. */
	child_ Executor

	aggFuncs  []*expression.AggregateFunction
	retTypes  []types.TypeID
	transProg *expression.Program
	having    *expression.Program

	/** The hash table of groups. nil for plain aggregation */
	aht_     *grouping.TupleHashTable
	aht_mem_ *memory.MemoryContext
	// transition states of each group, indexed by entry index
	groupStates [][]*expression.AggState
	plainStates []*expression.AggState
	groupSlot   *tuple.Slot

	filled  bool
	nextIdx int
	values  []types.Value
}

/**
 * Creates a new aggregation executor.
 * @param exec_ctx the context that the aggregation should be performed in
 * @param plan the aggregation plan node
 */
func NewAggregationExecutor(exec_ctx *ExecutorContext, plan *plans.AggregationPlanNode) *AggregationExecutor {
	return &AggregationExecutor{PlanState: newPlanState(exec_ctx, plan), plan_: plan}
}

func (e *AggregationExecutor) Init(eflags int) error {
	if err := checkCapabilities(e.PlanState, eflags, false, false); err != nil {
		return err
	}
	var err error
	if e.child_, err = e.initChild(0, eflags&^(EXEC_FLAG_REWIND|EXEC_FLAG_BACKWARD|EXEC_FLAG_MARK)); err != nil {
		return err
	}
	childDesc := e.child_.GetOutputSchema()
	groupBys := e.plan_.GetGroupBys()
	aggs := e.plan_.GetAggregates()
	if e.plan_.OutputSchema().GetColumnCount() != uint32(len(groupBys)+len(aggs)) {
		return common.NewInitError("aggregation outputs %d columns for %d group by columns and %d aggregates",
			e.plan_.OutputSchema().GetColumnCount(), len(groupBys), len(aggs))
	}

	specs := make([]expression.AggTransSpec, len(aggs))
	e.aggFuncs = make([]*expression.AggregateFunction, len(aggs))
	for i, agg := range aggs {
		if e.aggFuncs[i], err = expression.LookupAggregate(agg.Type.FunctionName()); err != nil {
			return err
		}
		specs[i] = expression.AggTransSpec{Func: e.aggFuncs[i], Arg: agg.Arg, Filter: agg.Filter}
	}
	binding := expression.NewBinding().Bind(expression.OuterVar, childDesc)
	if e.transProg, e.retTypes, err = expression.BuildAggTrans(specs, binding); err != nil {
		return err
	}
	// having reads only group values and aggregate results
	if e.having, err = expression.CompileQual(e.plan_.GetHaving(), expression.NewBinding()); err != nil {
		return err
	}

	if e.plan_.GetStrategy() == plans.AggHashed {
		cfg := e.context.GetConfig()
		e.aht_mem_ = memory.NewMemoryContext("AggregationTable", e.mem)
		e.aht_, err = grouping.BuildTupleHashTable(&grouping.TupleHashTableParams{
			InputDesc:     childDesc,
			KeyCols:       groupBys,
			NumBuckets:    e.plan_.GetNumGroups(),
			FillFactor:    cfg.HashFillFactor,
			RandomizeSeed: cfg.HashSeedRandomize,
		}, e.aht_mem_)
		if err != nil {
			return err
		}
		e.groupSlot = tuple.NewSlot(childDesc, tuple.MinimalSlot)
	} else {
		e.plainStates = expression.NewAggStates(len(aggs))
	}
	e.resultSlot = tuple.NewVirtualSlot(e.plan_.OutputSchema())
	return nil
}

// fill consumes all rows of the child into transition states
func (e *AggregationExecutor) fill() error {
	hashed := e.aht_ != nil
	e.ectx.AggStates = e.plainStates
	for {
		slot, done, err := ExecProcNode(e.child_)
		if err != nil {
			return err
		}
		if done {
			break
		}
		e.ectx.ResetExprContext()
		if hashed {
			entry, isNew, _, err := e.aht_.LookupTupleHashEntry(slot, true)
			if err != nil {
				return err
			}
			if isNew {
				e.groupStates = append(e.groupStates, expression.NewAggStates(len(e.aggFuncs)))
			}
			e.ectx.AggStates = e.groupStates[entry.Index]
		}
		e.ectx.SetOuterTuple(slot)
		if err := e.transProg.EvaluateVoid(e.ectx); err != nil {
			return err
		}
	}
	e.filled = true
	if hashed {
		common.ShPrintf(common.DEBUG_INFO, "AggregationExecutor: %d groups\n", e.aht_.NumEntries())
	}
	return nil
}

// finalizeGroup sets results of states to the expression context
func (e *AggregationExecutor) finalizeGroup(states []*expression.AggState) error {
	if len(e.ectx.AggValues) != len(states) {
		e.ectx.AggValues = make([]types.Value, len(states))
	}
	for i, st := range states {
		val, err := e.aggFuncs[i].Final(st, e.retTypes[i])
		if err != nil {
			return err
		}
		e.ectx.AggValues[i] = val
	}
	return nil
}

func (e *AggregationExecutor) Next() (*tuple.Slot, Done, error) {
	if !e.filled {
		if err := e.fill(); err != nil {
			return nil, true, err
		}
	}
	for {
		e.ectx.ResetExprContext()
		if e.aht_ == nil {
			if e.nextIdx > 0 {
				return nil, true, nil
			}
			e.nextIdx++
			e.ectx.GroupValues = nil
			if err := e.finalizeGroup(e.plainStates); err != nil {
				return nil, true, err
			}
		} else {
			if e.nextIdx >= e.aht_.NumEntries() {
				return nil, true, nil
			}
			entry := e.aht_.Entry(uint32(e.nextIdx))
			e.nextIdx++
			e.aht_.StoreEntry(entry, e.groupSlot)
			e.ectx.GroupValues = e.ectx.GroupValues[:0]
			for _, col := range e.plan_.GetGroupBys() {
				e.ectx.GroupValues = append(e.ectx.GroupValues, e.groupSlot.GetValue(col))
			}
			if err := e.finalizeGroup(e.groupStates[entry.Index]); err != nil {
				return nil, true, err
			}
		}
		if e.having != nil {
			ok, err := e.having.Qualify(e.ectx)
			if err != nil {
				return nil, true, err
			}
			if !ok {
				continue
			}
		}
		e.values = append(append(e.values[:0], e.ectx.GroupValues...), e.ectx.AggValues...)
		return e.resultSlot.StoreValues(e.values), false, nil
	}
}

func (e *AggregationExecutor) ReScan() error {
	e.nextIdx = 0
	if e.filled && e.chgParam.IsEmpty() && e.child_.GetPlanState().chgParam.IsEmpty() {
		// groups are still valid
		return nil
	}
	e.filled = false
	if e.aht_ != nil {
		if err := e.aht_.ResetTupleHashTable(); err != nil {
			return err
		}
		e.groupStates = nil
		e.groupSlot.Clear()
	} else {
		expression.ResetAggStates(e.plainStates)
	}
	if e.child_.GetPlanState().chgParam.IsEmpty() {
		return ExecReScan(e.child_)
	}
	return nil
}

func (e *AggregationExecutor) End() {
	e.groupStates = nil
	e.endChildren()
}
