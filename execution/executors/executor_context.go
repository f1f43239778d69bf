package executors

import (
	"context"

	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/memory"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/types"
)

/**
 * ExecutorContext stores all the context necessary to run an executor tree.
 * one context serves one tree. parallel workers and re-evaluation trees
 * get their own copies.
 */
type ExecutorContext struct {
	ctx      context.Context
	storage  access.Storage
	txn      *access.Transaction
	snapshot *access.Snapshot
	config   *common.ExecutorConfig

	// values of exec params shared by expressions of the tree
	paramExecVals []expression.ParamExecData
	// values of external params
	paramList []types.Value

	queryMem *memory.MemoryContext
	scopes   *memory.ScopeStack

	direction access.ScanDirection
	// non nil in the tree which re-evaluates rows
	epq *EPQState

	// rows processed by modify nodes
	processed uint64
	// partition of the pages scanned by parallel aware scans
	part   int
	nparts int

	pullCount  int
	instrument bool
}

func NewExecutorContext(ctx context.Context, storage access.Storage, txn *access.Transaction, snapshot *access.Snapshot, config *common.ExecutorConfig) *ExecutorContext {
	if ctx == nil {
		ctx = context.Background()
	}
	if config == nil {
		config = common.DefaultConfig()
	}
	queryMem := memory.NewRootContext("ExecutorState", config.WorkMemBytes)
	return &ExecutorContext{
		ctx:       ctx,
		storage:   storage,
		txn:       txn,
		snapshot:  snapshot,
		config:    config,
		queryMem:  queryMem,
		scopes:    memory.NewScopeStack(queryMem),
		direction: access.ForwardScanDirection,
		nparts:    1,
	}
}

func (e *ExecutorContext) GetContext() context.Context { return e.ctx }

func (e *ExecutorContext) GetStorage() access.Storage { return e.storage }

func (e *ExecutorContext) GetTransaction() *access.Transaction { return e.txn }

func (e *ExecutorContext) SetTransaction(txn *access.Transaction) { e.txn = txn }

func (e *ExecutorContext) GetSnapshot() *access.Snapshot { return e.snapshot }

func (e *ExecutorContext) SetSnapshot(snapshot *access.Snapshot) { e.snapshot = snapshot }

func (e *ExecutorContext) GetConfig() *common.ExecutorConfig { return e.config }

func (e *ExecutorContext) GetQueryMemory() *memory.MemoryContext { return e.queryMem }

func (e *ExecutorContext) GetDirection() access.ScanDirection { return e.direction }

func (e *ExecutorContext) SetDirection(direction access.ScanDirection) { e.direction = direction }

func (e *ExecutorContext) GetProcessed() uint64 { return e.processed }

func (e *ExecutorContext) SetInstrument(on bool) { e.instrument = on }

func (e *ExecutorContext) SetParamList(params []types.Value) { e.paramList = params }

// reserveParams makes room for exec params 0..n-1. it must be done before expression contexts are made.
func (e *ExecutorContext) reserveParams(n int) {
	if n > len(e.paramExecVals) {
		vals := make([]expression.ParamExecData, n)
		copy(vals, e.paramExecVals)
		e.paramExecVals = vals
	}
}

func (e *ExecutorContext) SetParamExec(id int, val types.Value) {
	common.SH_Assert(id < len(e.paramExecVals), "exec param is not reserved")
	e.paramExecVals[id] = expression.ParamExecData{Value: val, Valid: true}
}

func (e *ExecutorContext) GetParamExec(id int) (types.Value, bool) {
	if id >= len(e.paramExecVals) || !e.paramExecVals[id].Valid {
		return types.Value{}, false
	}
	return e.paramExecVals[id].Value, true
}

// NewExprContext creates expression context whose per-tuple arena lives in mem
func (e *ExecutorContext) NewExprContext(mem *memory.MemoryContext) *expression.ExprContext {
	ectx := expression.NewExprContext(mem, e.scopes)
	ectx.ParamExecVals = e.paramExecVals
	ectx.ParamList = e.paramList
	ectx.Ctx = e.ctx
	return ectx
}

/**
 * CheckForInterrupts is the cancellation check of every pull. the check is
 * done once per config.InterruptCheckInterval pulls.
 */
func (e *ExecutorContext) CheckForInterrupts() error {
	e.pullCount++
	if e.pullCount < e.config.InterruptCheckInterval {
		return nil
	}
	e.pullCount = 0
	return common.CheckForInterrupts(e.ctx)
}

// isolation level of the running transaction. ReadCommitted when there is no transaction
func (e *ExecutorContext) isolationLevel() access.IsolationLevel {
	if e.txn == nil {
		return access.ReadCommitted
	}
	return e.txn.GetIsolationLevel()
}

/**
 * derive creates context for another tree which runs on the same
 * transaction and snapshot: a parallel worker or a re-evaluation tree.
 * it has its own arena, scope stack and copy of exec params.
 */
func (e *ExecutorContext) derive(ctx context.Context, name string) *ExecutorContext {
	ret := &ExecutorContext{
		ctx:        ctx,
		storage:    e.storage,
		txn:        e.txn,
		snapshot:   e.snapshot,
		config:     e.config,
		paramList:  e.paramList,
		queryMem:   memory.NewRootContext(name, e.config.WorkMemBytes),
		direction:  access.ForwardScanDirection,
		nparts:     1,
		instrument: e.instrument,
	}
	ret.scopes = memory.NewScopeStack(ret.queryMem)
	ret.paramExecVals = append([]expression.ParamExecData(nil), e.paramExecVals...)
	return ret
}

// free releases the arena of the context. nodes must have been ended.
func (e *ExecutorContext) free() {
	if !e.queryMem.IsDeleted() {
		e.queryMem.Delete()
	}
}
