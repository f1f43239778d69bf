// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package executors

import (
	"github.com/cockroachdb/errors"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/storage/tuple"
	"github.com/ryogrid/samehada-executor/types"
)

// DestReceiver receives result rows of a query
type DestReceiver interface {
	Startup(desc *schema.Schema) error
	// ReceiveSlot is called per row. the slot is valid only until the next row is pulled.
	// returning false stops the run
	ReceiveSlot(slot *tuple.Slot) (bool, error)
	Shutdown()
}

// CollectReceiver keeps copies of all received rows
type CollectReceiver struct {
	Rows [][]types.Value
}

func (r *CollectReceiver) Startup(desc *schema.Schema) error { return nil }

func (r *CollectReceiver) ReceiveSlot(slot *tuple.Slot) (bool, error) {
	r.Rows = append(r.Rows, slot.CopyValues())
	return true, nil
}

func (r *CollectReceiver) Shutdown() {}

// DestFunc adapts a function to DestReceiver
type DestFunc func(slot *tuple.Slot) (bool, error)

func (f DestFunc) Startup(desc *schema.Schema) error { return nil }

func (f DestFunc) ReceiveSlot(slot *tuple.Slot) (bool, error) { return f(slot) }

func (f DestFunc) Shutdown() {}

/**
 * QueryDesc is everything the engine needs to run one plan tree,
 * from ExecutorStart to ExecutorEnd.
 */
type QueryDesc struct {
	Plan    plans.Plan
	Context *ExecutorContext
	Dest    DestReceiver

	root     Executor
	eflags   int
	started  bool
	finished bool
	ended    bool
}

func NewQueryDesc(plan plans.Plan, context *ExecutorContext, dest DestReceiver) *QueryDesc {
	return &QueryDesc{Plan: plan, Context: context, Dest: dest}
}

// GetRoot returns the executor of the root plan node. nil before ExecutorStart
func (qd *QueryDesc) GetRoot() Executor { return qd.root }

func (qd *QueryDesc) GetProcessed() uint64 { return qd.Context.GetProcessed() }

func isModifyPlan(plan plans.Plan) bool {
	switch plan.GetType() {
	case plans.Insert, plans.Update, plans.Delete:
		return true
	}
	return false
}

/**
 * ExecutorHooks decides what each step of the executor lifecycle does.
 * hooks which want to add something to a step wrap StandardHooks and call it.
 */
type ExecutorHooks interface {
	ExecutorStart(qd *QueryDesc, eflags int) error
	ExecutorRun(qd *QueryDesc, direction access.ScanDirection, count uint64) error
	ExecutorFinish(qd *QueryDesc) error
	ExecutorEnd(qd *QueryDesc)
}

type StandardHooks struct{}

var _ ExecutorHooks = StandardHooks{}

// ExecutorStart finalizes the plan if it isn't and initializes the executor tree
func (StandardHooks) ExecutorStart(qd *QueryDesc, eflags int) error {
	if qd.started {
		return errors.AssertionFailedf("query is already started")
	}
	if !qd.Plan.IsFinalized() {
		plans.FinalizePlan(qd.Plan)
	}
	if !qd.Plan.GetAllParam().IsEmpty() {
		qd.Context.reserveParams(int(qd.Plan.GetAllParam().Maximum()) + 1)
	}
	root, err := ExecInitNode(qd.Plan, qd.Context, eflags)
	if err != nil {
		return err
	}
	qd.root = root
	qd.eflags = eflags
	qd.started = true
	return nil
}

/**
 * ExecutorRun pulls rows in direction and sends them to Dest.
 * count 0 means all rows. when the tree runs out, parallel workers are shut down.
 */
func (StandardHooks) ExecutorRun(qd *QueryDesc, direction access.ScanDirection, count uint64) error {
	if !qd.started || qd.finished {
		return errors.AssertionFailedf("query is not running")
	}
	if direction.IsBackward() && qd.eflags&EXEC_FLAG_BACKWARD == 0 {
		return common.NewInitError("backward scan is requested without EXEC_FLAG_BACKWARD")
	}
	if qd.eflags&EXEC_FLAG_EXPLAIN_ONLY != 0 {
		return nil
	}
	if qd.Dest != nil {
		if err := qd.Dest.Startup(qd.root.GetOutputSchema()); err != nil {
			return err
		}
		defer qd.Dest.Shutdown()
	}
	qd.Context.SetDirection(direction)
	var sent uint64
	for count == 0 || sent < count {
		slot, done, err := ExecProcNode(qd.root)
		if err != nil {
			return err
		}
		if done {
			ExecShutdownNode(qd.root)
			break
		}
		sent++
		if qd.Dest == nil {
			continue
		}
		more, err := qd.Dest.ReceiveSlot(slot)
		if err != nil {
			return err
		}
		if !more {
			break
		}
	}
	return nil
}

func (StandardHooks) ExecutorFinish(qd *QueryDesc) error {
	if !qd.started {
		return errors.AssertionFailedf("query is not started")
	}
	if qd.finished {
		return nil
	}
	ExecShutdownNode(qd.root)
	qd.finished = true
	return nil
}

func (StandardHooks) ExecutorEnd(qd *QueryDesc) {
	if qd.ended {
		return
	}
	qd.ended = true
	if qd.root != nil {
		ExecEndNode(qd.root)
	}
	qd.Context.free()
}

type ExecutionEngine struct {
	hooks ExecutorHooks
}

// NewExecutionEngine creates engine running the lifecycle by hooks. nil means StandardHooks
func NewExecutionEngine(hooks ExecutorHooks) *ExecutionEngine {
	if hooks == nil {
		hooks = StandardHooks{}
	}
	return &ExecutionEngine{hooks}
}

func (e *ExecutionEngine) getHooks() ExecutorHooks {
	if e.hooks == nil {
		return StandardHooks{}
	}
	return e.hooks
}

func (e *ExecutionEngine) ExecutorStart(qd *QueryDesc, eflags int) error {
	return e.getHooks().ExecutorStart(qd, eflags)
}

func (e *ExecutionEngine) ExecutorRun(qd *QueryDesc, direction access.ScanDirection, count uint64) error {
	return e.getHooks().ExecutorRun(qd, direction, count)
}

func (e *ExecutionEngine) ExecutorFinish(qd *QueryDesc) error {
	return e.getHooks().ExecutorFinish(qd)
}

func (e *ExecutionEngine) ExecutorEnd(qd *QueryDesc) {
	e.getHooks().ExecutorEnd(qd)
}

// ExecutorRewind repositions the tree of a read only query to the start
func (e *ExecutionEngine) ExecutorRewind(qd *QueryDesc) error {
	if !qd.started || qd.ended {
		return errors.AssertionFailedf("query is not running")
	}
	if isModifyPlan(qd.Plan) {
		return errors.AssertionFailedf("a write query can't be rewound")
	}
	qd.finished = false
	return ExecReScan(qd.root)
}

/**
 * Execute runs plan to completion and returns copies of all result rows.
 * the context is consumed by the run.
 */
func (e *ExecutionEngine) Execute(plan plans.Plan, context *ExecutorContext) ([][]types.Value, error) {
	dest := &CollectReceiver{}
	qd := NewQueryDesc(plan, context, dest)
	defer e.ExecutorEnd(qd)
	if err := e.ExecutorStart(qd, 0); err != nil {
		return nil, err
	}
	if err := e.ExecutorRun(qd, access.ForwardScanDirection, 0); err != nil {
		return nil, err
	}
	if err := e.ExecutorFinish(qd); err != nil {
		return nil, err
	}
	return dest.Rows, nil
}
