package executors

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/memory"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

// execution flags which are given to Init of a node
const (
	// init only to show the plan. no scan is opened and no worker starts
	EXEC_FLAG_EXPLAIN_ONLY = 0x0001
	// parent may rescan the node and needs it to be cheap
	EXEC_FLAG_REWIND = 0x0004
	// parent may fetch in backward direction
	EXEC_FLAG_BACKWARD = 0x0008
	// parent may call mark and restore
	EXEC_FLAG_MARK = 0x0010
	// accepted and ignored
	EXEC_FLAG_SKIP_TRIGGERS = 0x0020
)

// Done tells the caller that the node has no more rows
type Done bool

// Executor executes a plan node
//
// Init initializes this executor and its children.
// This function must be called before Next() is called!
//
// Next produces the next row of this executor. returned slot is owned by
// the node and is valid until the next call. at the end, done is true and
// the slot is nil.
type Executor interface {
	Init(eflags int) error
	Next() (*tuple.Slot, Done, error)
	// ReScan resets the node to the state just after Init
	ReScan() error
	End()
	GetOutputSchema() *schema.Schema
	GetPlanState() *PlanState
}

// markRestorer is implemented by nodes which support EXEC_FLAG_MARK
type markRestorer interface {
	MarkPos()
	RestrPos() error
}

// shutdowner is implemented by nodes which hold resources to be released before End, such as workers
type shutdowner interface {
	Shutdown()
}

// boundSetter is implemented by nodes which can use the number of rows the parent needs
type boundSetter interface {
	SetBound(bound int64)
}

/**
 * PlanState is the run time state which every node kind has in common.
 * executors embed it.
 */
type PlanState struct {
	plan    plans.Plan
	context *ExecutorContext
	eflags  int
	self    Executor

	children []Executor
	// private arena of the node. deleted at End
	mem  *memory.MemoryContext
	ectx *expression.ExprContext

	resultSlot *tuple.Slot
	qual       *expression.Program
	projInfo   *expression.ProjectionInfo

	// exec params changed since the last scan. the node rescans itself at the next pull
	chgParam *roaring.Bitmap
	instr    *Instrumentation
	ended    bool
}

func newPlanState(context *ExecutorContext, plan plans.Plan) *PlanState {
	mem := memory.NewMemoryContext(plan.GetType().String(), context.GetQueryMemory())
	ectx := context.NewExprContext(mem)
	return &PlanState{
		plan:     plan,
		context:  context,
		mem:      mem,
		ectx:     ectx,
		chgParam: roaring.New(),
		instr:    &Instrumentation{},
	}
}

func (ps *PlanState) GetPlanState() *PlanState { return ps }

func (ps *PlanState) GetOutputSchema() *schema.Schema { return ps.plan.OutputSchema() }

func (ps *PlanState) GetPlan() plans.Plan { return ps.plan }

func (ps *PlanState) GetContext() *ExecutorContext { return ps.context }

func (ps *PlanState) GetChildren() []Executor { return ps.children }

func (ps *PlanState) GetInstrumentation() *Instrumentation { return ps.instr }

// initChild initializes executor of the i-th child plan with eflags
func (ps *PlanState) initChild(idx uint32, eflags int) (Executor, error) {
	child, err := ExecInitNode(ps.plan.GetChildAt(idx), ps.context, eflags)
	if err != nil {
		return nil, err
	}
	ps.children = append(ps.children, child)
	return child, nil
}

// rescanChildren rescans children now unless they are going to rescan themselves because of changed params
func (ps *PlanState) rescanChildren() error {
	for _, child := range ps.children {
		if child.GetPlanState().chgParam.IsEmpty() {
			if err := ExecReScan(child); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ps *PlanState) endChildren() {
	for _, child := range ps.children {
		ExecEndNode(child)
	}
}

// ExecInitNode creates the executor of plan and initializes it recursively.
// shape mismatches and capabilities the node can't provide are reported as initialization errors.
func ExecInitNode(plan plans.Plan, context *ExecutorContext, eflags int) (Executor, error) {
	if plan == nil {
		return nil, common.NewInitError("plan node is missing")
	}
	var e Executor
	switch p := plan.(type) {
	case *plans.SeqScanPlanNode:
		e = NewSeqScanExecutor(context, p)
	case *plans.ValuesScanPlanNode:
		e = NewValuesScanExecutor(context, p)
	case *plans.SelectionPlanNode:
		e = NewSelectionExecutor(context, p)
	case *plans.ProjectionPlanNode:
		e = NewProjectionExecutor(context, p)
	case *plans.LimitPlanNode:
		e = NewLimitExecutor(context, p)
	case *plans.LockRowsPlanNode:
		e = NewLockRowsExecutor(context, p)
	case *plans.MaterialPlanNode:
		e = NewMaterialExecutor(context, p)
	case *plans.OrderbyPlanNode:
		e = NewOrderbyExecutor(context, p)
	case *plans.NestedLoopJoinPlanNode:
		e = NewNestedLoopJoinExecutor(context, p)
	case *plans.HashJoinPlanNode:
		e = NewHashJoinExecutor(context, p)
	case *plans.MergeJoinPlanNode:
		e = NewMergeJoinExecutor(context, p)
	case *plans.AggregationPlanNode:
		e = NewAggregationExecutor(context, p)
	case *plans.SetOpPlanNode:
		e = NewSetOpExecutor(context, p)
	case *plans.GatherPlanNode:
		e = NewGatherExecutor(context, p)
	case *plans.InsertPlanNode:
		e = NewInsertExecutor(context, p)
	case *plans.UpdatePlanNode:
		e = NewUpdateExecutor(context, p)
	case *plans.DeletePlanNode:
		e = NewDeleteExecutor(context, p)
	default:
		return nil, common.NewInitError("unrecognized plan node type %T", plan)
	}

	ps := e.GetPlanState()
	ps.self = e
	ps.eflags = eflags
	if err := e.Init(eflags); err != nil {
		// release what was created before the failure
		ps.endChildren()
		ps.mem.Delete()
		return nil, err
	}
	common.ShPrintf(common.DEBUG_INFO, "ExecInitNode: %s eflags=%#x\n", plan.GetDebugStr(), eflags)
	return e, nil
}

// ExecProcNode pulls the next row from e. interrupts are checked and pending rescan is done first.
func ExecProcNode(e Executor) (*tuple.Slot, Done, error) {
	ps := e.GetPlanState()
	if err := ps.context.CheckForInterrupts(); err != nil {
		return nil, true, err
	}
	if !ps.chgParam.IsEmpty() {
		if err := ExecReScan(e); err != nil {
			return nil, true, err
		}
	}
	if !ps.context.instrument {
		return e.Next()
	}
	ps.instr.startNode()
	slot, done, err := e.Next()
	ps.instr.stopNode(!bool(done) && slot != nil)
	return slot, done, err
}

// UpdateChangedParamSet adds params of newChg which the subtree of e depends on to its changed set
func UpdateChangedParamSet(e Executor, newChg *roaring.Bitmap) {
	ps := e.GetPlanState()
	affected := roaring.And(ps.plan.GetAllParam(), newChg)
	if !affected.IsEmpty() {
		ps.chgParam.Or(affected)
	}
}

// ExecReScan resets e so that it produces its rows again, possibly with new param values
func ExecReScan(e Executor) error {
	ps := e.GetPlanState()
	if ps.instr.running {
		ps.instr.endLoop()
	}
	if !ps.chgParam.IsEmpty() {
		for _, child := range ps.children {
			UpdateChangedParamSet(child, ps.chgParam)
		}
	}
	ps.ectx.ResetExprContext()
	if err := e.ReScan(); err != nil {
		return err
	}
	ps.chgParam.Clear()
	return nil
}

func ExecMarkPos(e Executor) {
	ps := e.GetPlanState()
	common.SH_Assert(ps.eflags&EXEC_FLAG_MARK != 0, "mark is called on "+ps.plan.GetType().String()+" initialized without EXEC_FLAG_MARK")
	mr, ok := e.(markRestorer)
	common.SH_Assert(ok, "mark is called on "+ps.plan.GetType().String())
	mr.MarkPos()
}

func ExecRestrPos(e Executor) error {
	ps := e.GetPlanState()
	common.SH_Assert(ps.eflags&EXEC_FLAG_MARK != 0, "restore is called on "+ps.plan.GetType().String()+" initialized without EXEC_FLAG_MARK")
	mr, ok := e.(markRestorer)
	if !ok {
		return common.NewInitError("%s does not support restore", e.GetPlanState().plan.GetType())
	}
	return mr.RestrPos()
}

// ExecEndNode releases resources of e and its subtree. calling it twice is harmless.
func ExecEndNode(e Executor) {
	if e == nil {
		return
	}
	ps := e.GetPlanState()
	if ps.ended {
		return
	}
	ps.ended = true
	e.End()
	ps.ectx.Shutdown()
	if !ps.mem.IsDeleted() {
		ps.mem.Delete()
	}
	common.ShPrintf(common.DEBUG_INFO, "ExecEndNode: %s rows=%d loops=%d\n", ps.plan.GetType(), ps.instr.TuplesOut, ps.instr.Loops)
}

// ExecShutdownNode stops parallel workers and such in the subtree. the tree can still be ended after it.
func ExecShutdownNode(e Executor) {
	if e == nil {
		return
	}
	ps := e.GetPlanState()
	for _, child := range ps.children {
		ExecShutdownNode(child)
	}
	if s, ok := e.(shutdowner); ok {
		s.Shutdown()
	}
	if ps.instr.running {
		ps.instr.endLoop()
	}
}

/**
 * ExecSetTupleBound tells the node that the parent needs at most bound rows.
 * negative bound means no limit. it passes through nodes which don't change
 * the count of rows.
 */
func ExecSetTupleBound(bound int64, e Executor) {
	switch node := e.(type) {
	case boundSetter:
		node.SetBound(bound)
	case *ProjectionExecutor:
		ExecSetTupleBound(bound, node.children[0])
	}
}

// ExecSupportsBackwardScan tells whether the node produced from plan can be read backward
func ExecSupportsBackwardScan(plan plans.Plan) bool {
	if plan == nil {
		return false
	}
	switch p := plan.(type) {
	case *plans.SeqScanPlanNode:
		return !p.IsParallel()
	case *plans.ValuesScanPlanNode, *plans.MaterialPlanNode, *plans.OrderbyPlanNode:
		return true
	case *plans.SelectionPlanNode, *plans.ProjectionPlanNode, *plans.LimitPlanNode:
		return ExecSupportsBackwardScan(plan.GetChildAt(0))
	}
	return false
}

// ExecSupportsMarkRestore tells whether the node produced from plan supports mark and restore
func ExecSupportsMarkRestore(plan plans.Plan) bool {
	if plan == nil {
		return false
	}
	switch plan.(type) {
	case *plans.ValuesScanPlanNode, *plans.MaterialPlanNode, *plans.OrderbyPlanNode:
		return true
	case *plans.ProjectionPlanNode:
		return ExecSupportsMarkRestore(plan.GetChildAt(0))
	}
	return false
}

// ExecMaterializesOutput tells whether nodes of planType keep their whole output, so rescan is cheap
func ExecMaterializesOutput(planType plans.PlanType) bool {
	switch planType {
	case plans.Material, plans.Orderby:
		return true
	}
	return false
}

// checkCapabilities reports capabilities in eflags which the node kind doesn't have
func checkCapabilities(ps *PlanState, eflags int, backward bool, mark bool) error {
	if eflags&EXEC_FLAG_BACKWARD != 0 && !backward {
		return common.NewInitError("%s does not support backward scan", ps.plan.GetType())
	}
	if eflags&EXEC_FLAG_MARK != 0 && !mark {
		return common.NewInitError("%s does not support mark and restore", ps.plan.GetType())
	}
	return nil
}
