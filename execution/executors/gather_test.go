package executors

import (
	"testing"

	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	testingpkg "github.com/ryogrid/samehada-executor/testing/testing_assert"
	"github.com/ryogrid/samehada-executor/types"
)

// numbers(n) holds rows 1..count spread over several pages
func setupNumbers(t *testing.T, env *testEnv, count int) *schema.Schema {
	sc := intSchema("n")
	rows := intRows(1, count)
	testingpkg.Ok(t, env.storage.CreateRelation(relItems, sc))
	env.insertCommitted(t, relItems, rows...)
	return sc
}

func parallelScan(sc *schema.Schema, qual ...expression.Expression) *plans.SeqScanPlanNode {
	return scanPlan(relItems, 1, sc, qual...).SetParallel(true)
}

func TestGatherReadsAllPartitions(t *testing.T) {
	env := newTestEnv()
	count := int(common.SlotsPerPage)*3 + 5
	sc := setupNumbers(t, env, count)

	for _, workers := range []int{1, 2, 4} {
		got := env.query(t, plans.NewGatherPlanNode(parallelScan(sc), workers))
		testingpkg.Assert(t, len(got) == count, "%d workers returned %d rows", workers, len(got))
		testingpkg.Equals(t, sortRows(intRows(1, count)), sortRows(got))
	}
}

func TestGatherWithoutWorkersRunsLocally(t *testing.T) {
	env := newTestEnv()
	sc := setupNumbers(t, env, 10)

	qual := cmp(intCol(expression.ScanVar, 0), expression.GreaterThan, constVal(7))
	got := env.query(t, plans.NewGatherPlanNode(parallelScan(sc, qual), 0))
	testingpkg.Equals(t, [][]interface{}{{8}, {9}, {10}}, got)
}

func TestLimitOverGather(t *testing.T) {
	env := newTestEnv()
	sc := setupNumbers(t, env, int(common.SlotsPerPage)*2)

	limit := plans.NewLimitPlanNode(plans.NewGatherPlanNode(parallelScan(sc), 2), 5, 0)
	qd, root := env.start(t, limit, 0)
	rows := drain(t, root)
	testingpkg.Equals(t, 5, len(rows))
	// workers are stopped once the limit is reached
	testingpkg.Ok(t, NewExecutionEngine(nil).ExecutorFinish(qd))
}

func TestGatherPropagatesWorkerError(t *testing.T) {
	env := newTestEnv()
	sc := setupNumbers(t, env, 20)

	// n / (n - 13) fails on one row of one worker
	div := expression.NewArithmetic(constVal(1),
		expression.NewArithmetic(intCol(expression.ScanVar, 0), constVal(13), types.OpSubtract), types.OpDivide)
	qual := cmp(div, expression.GreaterThanOrEqual, constVal(0))

	txn := env.txn_mgr.Begin(access.ReadCommitted)
	defer env.txn_mgr.Abort(txn)
	_, err := env.tryExecute(plans.NewGatherPlanNode(parallelScan(sc, qual), 2), txn)
	testingpkg.Assert(t, common.IsEvalError(err), "expected evaluation error but got %v", err)
}

func TestGatherRescan(t *testing.T) {
	env := newTestEnv()
	sc := setupNumbers(t, env, int(common.SlotsPerPage)+3)

	qd, root := env.start(t, plans.NewGatherPlanNode(parallelScan(sc), 2), EXEC_FLAG_REWIND)
	first := sortRows(drain(t, root))
	testingpkg.Ok(t, NewExecutionEngine(nil).ExecutorRewind(qd))
	testingpkg.Equals(t, first, sortRows(drain(t, root)))
}

func TestGatherRewindWhileWorkersRun(t *testing.T) {
	env := newTestEnv()
	count := 4*int(common.SlotsPerPage) + 1
	sc := setupNumbers(t, env, count)

	qd, root := env.start(t, plans.NewGatherPlanNode(parallelScan(sc), 4), EXEC_FLAG_REWIND)
	engine := NewExecutionEngine(nil)
	// workers are still producing when the rewind stops them
	for i := 0; i < 300; i++ {
		slot, done, err := ExecProcNode(root)
		testingpkg.Ok(t, err)
		testingpkg.Assert(t, !bool(done) && slot != nil, "round %d: no row", i)
		testingpkg.Ok(t, engine.ExecutorRewind(qd))
	}
	testingpkg.Equals(t, count, len(drain(t, root)))
}
