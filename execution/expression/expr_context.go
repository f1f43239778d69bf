package expression

import (
	"context"

	"github.com/ryogrid/samehada-executor/memory"
	"github.com/ryogrid/samehada-executor/storage/tuple"
	"github.com/ryogrid/samehada-executor/types"
)

// ParamExecData is the current value of an executor parameter
type ParamExecData struct {
	Value types.Value
	Valid bool
}

/**
 * ExprContext holds everything a Program reads at evaluation: the slots
 * column references are bound to, parameters, aggregate values and the
 * per-tuple arena. it is passed to every evaluation explicitly.
 */
type ExprContext struct {
	slots [numVarnos]*tuple.Slot

	perTupleMemory *memory.MemoryContext
	perQueryMemory *memory.MemoryContext
	scopes         *memory.ScopeStack

	// shared by all ExprContexts of one executor state
	ParamExecVals []ParamExecData
	ParamList     []types.Value

	// results of aggregation for the current group
	AggValues   []types.Value
	GroupValues []types.Value
	// transition states of the current group
	AggStates []*AggState

	Ctx context.Context

	shutdownCallbacks []func()
}

/**
* NewExprContext creates context whose per-tuple arena is a child of perQuery.
* scopes is the memory scope stack of the owning executor state. nil is allowed.
 */
func NewExprContext(perQuery *memory.MemoryContext, scopes *memory.ScopeStack) *ExprContext {
	if perQuery == nil {
		perQuery = memory.NewRootContext("ExprContextQuery", 0)
	}
	return &ExprContext{
		perTupleMemory: memory.NewMemoryContext("ExprContext", perQuery),
		perQueryMemory: perQuery,
		scopes:         scopes,
		Ctx:            context.Background(),
	}
}

func (ectx *ExprContext) SetSlot(varno Varno, slot *tuple.Slot) { ectx.slots[varno] = slot }

func (ectx *ExprContext) GetSlot(varno Varno) *tuple.Slot { return ectx.slots[varno] }

func (ectx *ExprContext) SetScanTuple(slot *tuple.Slot) { ectx.slots[ScanVar] = slot }

func (ectx *ExprContext) SetOuterTuple(slot *tuple.Slot) { ectx.slots[OuterVar] = slot }

func (ectx *ExprContext) SetInnerTuple(slot *tuple.Slot) { ectx.slots[InnerVar] = slot }

func (ectx *ExprContext) GetPerTupleMemory() *memory.MemoryContext { return ectx.perTupleMemory }

func (ectx *ExprContext) GetPerQueryMemory() *memory.MemoryContext { return ectx.perQueryMemory }

// CurrentMemory returns the arena allocations of functions go to
func (ectx *ExprContext) CurrentMemory() *memory.MemoryContext {
	if ectx.scopes == nil {
		return ectx.perTupleMemory
	}
	return ectx.scopes.Current()
}

// SwitchToPerTupleMemory enters per-tuple arena. caller must Exit the guard.
func (ectx *ExprContext) SwitchToPerTupleMemory() *memory.Guard {
	if ectx.scopes == nil {
		return nil
	}
	return ectx.scopes.Enter(ectx.perTupleMemory)
}

// ResetExprContext frees everything allocated for the previous tuple
func (ectx *ExprContext) ResetExprContext() {
	ectx.perTupleMemory.Reset()
}

// RegisterExprContextCallback registers fn which is called at Shutdown
func (ectx *ExprContext) RegisterExprContextCallback(fn func()) {
	ectx.shutdownCallbacks = append(ectx.shutdownCallbacks, fn)
}

// Shutdown calls callbacks in reverse order of registration and frees the per-tuple arena
func (ectx *ExprContext) Shutdown() {
	for i := len(ectx.shutdownCallbacks) - 1; i >= 0; i-- {
		ectx.shutdownCallbacks[i]()
	}
	ectx.shutdownCallbacks = nil
	if !ectx.perTupleMemory.IsDeleted() {
		ectx.perTupleMemory.Delete()
	}
}
