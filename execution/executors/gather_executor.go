package executors

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

/**
 * GatherExecutor runs copies of the child plan on a worker pool and
 * returns their rows in arrival order. each worker has its own executor
 * context and scans its own part of parallel aware scans. the local copy
 * of the child is used when no worker can be started and for EXPLAIN.
 */
type GatherExecutor struct {
	*PlanState
	plan_  *plans.GatherPlanNode
	child_ Executor

	started  bool
	useLocal bool
	nworkers int
	run      *gatherRun
	bound    int64
}

/**
 * gatherRun is the state of one start of the workers. a rescan stops the
 * run and the next pull starts a new one, so nothing here is reused.
 */
type gatherRun struct {
	pool   *ants.Pool
	wg     *sync.WaitGroup
	cancel context.CancelFunc
	queue  chan *tuple.MinimalTuple
	errCh  chan error
	// closed after wg.Wait returned and queue was closed
	closerDone chan struct{}
}

func NewGatherExecutor(exec_ctx *ExecutorContext, plan *plans.GatherPlanNode) *GatherExecutor {
	return &GatherExecutor{PlanState: newPlanState(exec_ctx, plan), plan_: plan, bound: -1}
}

func (e *GatherExecutor) Init(eflags int) error {
	if err := checkCapabilities(e.PlanState, eflags, false, false); err != nil {
		return err
	}
	var err error
	if e.child_, err = e.initChild(0, eflags&^EXEC_FLAG_REWIND); err != nil {
		return err
	}
	e.nworkers = e.plan_.GetNumWorkers()
	if e.nworkers > e.context.GetConfig().GatherWorkers {
		e.nworkers = e.context.GetConfig().GatherWorkers
	}
	e.resultSlot = tuple.NewSlot(e.plan_.OutputSchema(), tuple.MinimalSlot)
	return nil
}

// SetBound is passed to the local child and to the trees of workers
func (e *GatherExecutor) SetBound(bound int64) {
	e.bound = bound
	ExecSetTupleBound(bound, e.child_)
}

func (e *GatherExecutor) startWorkers() error {
	e.started = true
	if e.nworkers <= 0 {
		e.useLocal = true
		return nil
	}
	run := &gatherRun{
		wg:         new(sync.WaitGroup),
		queue:      make(chan *tuple.MinimalTuple, common.GatherQueueSize),
		errCh:      make(chan error, e.nworkers),
		closerDone: make(chan struct{}),
	}
	pool, err := ants.NewPool(e.nworkers, ants.WithPanicHandler(func(p interface{}) {
		common.ShPrintf(common.ERROR, "GatherExecutor: worker panicked: %v\n", p)
		run.errCh <- errors.AssertionFailedf("gather worker panicked: %v", p)
		run.wg.Done()
	}))
	if err != nil {
		return errors.Wrap(err, "failed to create gather worker pool")
	}
	run.pool = pool
	ctx, cancel := context.WithCancel(e.context.GetContext())
	run.cancel = cancel

	var submitErr error
	for part := 0; part < e.nworkers; part++ {
		part := part
		run.wg.Add(1)
		if submitErr = pool.Submit(func() {
			e.runWorker(ctx, run, part)
			run.wg.Done()
		}); submitErr != nil {
			run.wg.Done()
			break
		}
	}
	go func() {
		run.wg.Wait()
		close(run.queue)
		close(run.closerDone)
	}()
	e.run = run
	if submitErr != nil {
		e.stopWorkers()
		return errors.Wrap(submitErr, "failed to start gather worker")
	}
	common.ShPrintf(common.DEBUG_INFO, "GatherExecutor: started %d workers\n", e.nworkers)
	return nil
}

// runWorker executes a copy of the child plan which reads part of the relation
func (e *GatherExecutor) runWorker(ctx context.Context, run *gatherRun, part int) {
	wctx := e.context.derive(ctx, "GatherWorker")
	wctx.part = part
	wctx.nparts = e.nworkers
	defer wctx.free()

	child, err := ExecInitNode(e.plan_.GetChildAt(0), wctx, e.eflags&^EXEC_FLAG_REWIND)
	if err != nil {
		run.errCh <- err
		return
	}
	defer ExecEndNode(child)
	if e.bound >= 0 {
		ExecSetTupleBound(e.bound, child)
	}
	for {
		slot, done, err := ExecProcNode(child)
		if err != nil {
			run.errCh <- err
			return
		}
		if done {
			return
		}
		select {
		case run.queue <- slot.CopyMinimalTuple():
		case <-ctx.Done():
			return
		}
	}
}

func (e *GatherExecutor) Next() (*tuple.Slot, Done, error) {
	if !e.started {
		if err := e.startWorkers(); err != nil {
			return nil, true, err
		}
	}
	if e.useLocal {
		return ExecProcNode(e.child_)
	}
	run := e.run
	select {
	case mt, ok := <-run.queue:
		if ok {
			return e.resultSlot.StoreMinimal(mt, true), false, nil
		}
		// all workers have finished. errors were sent before they did
		select {
		case err := <-run.errCh:
			return nil, true, err
		default:
			return nil, true, nil
		}
	case err := <-run.errCh:
		e.stopWorkers()
		return nil, true, err
	}
}

// stopWorkers cancels workers and waits until all of them and the queue closer exit
func (e *GatherExecutor) stopWorkers() {
	run := e.run
	if run == nil {
		return
	}
	e.run = nil
	run.cancel()
	<-run.closerDone
	run.pool.Release()
}

func (e *GatherExecutor) Shutdown() {
	e.stopWorkers()
}

func (e *GatherExecutor) ReScan() error {
	e.stopWorkers()
	e.started = false
	e.useLocal = false
	e.resultSlot.Clear()
	return e.rescanChildren()
}

func (e *GatherExecutor) End() {
	e.stopWorkers()
	e.endChildren()
}
