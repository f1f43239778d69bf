package executors

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/page"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/storage/tuple"
	testingpkg "github.com/ryogrid/samehada-executor/testing/testing_assert"
	"github.com/ryogrid/samehada-executor/testing/testing_util"
	"github.com/ryogrid/samehada-executor/types"
	"github.com/stretchr/testify/assert"
)

const (
	relItems access.RelationID = 1
	relDepts access.RelationID = 2
)

type testEnv struct {
	storage *access.MemStorage
	txn_mgr *access.TransactionManager
	config  *common.ExecutorConfig
}

func newTestEnv() *testEnv {
	txn_mgr := access.NewTransactionManager(access.NewLockManager())
	return &testEnv{access.NewMemStorage(txn_mgr), txn_mgr, common.DefaultConfig()}
}

func (env *testEnv) createRel(t *testing.T, rel access.RelationID, names []string, colTypes []types.TypeID, rows ...[]interface{}) *schema.Schema {
	sc := schema.NewSchemaFromTypes(names, colTypes)
	testingpkg.Ok(t, env.storage.CreateRelation(rel, sc))
	if len(rows) > 0 {
		env.insertCommitted(t, rel, rows...)
	}
	return sc
}

func (env *testEnv) insertCommitted(t *testing.T, rel access.RelationID, rows ...[]interface{}) []page.RID {
	txn := env.txn_mgr.Begin(access.ReadCommitted)
	rids := make([]page.RID, 0, len(rows))
	for _, row := range rows {
		rid, err := env.storage.InsertRow(context.Background(), rel, txn, testing_util.GetValues(row...))
		testingpkg.Ok(t, err)
		rids = append(rids, rid)
	}
	env.txn_mgr.Commit(txn)
	return rids
}

// newContext takes snapshot for the next statement of txn
func (env *testEnv) newContext(txn *access.Transaction) *ExecutorContext {
	return NewExecutorContext(context.Background(), env.storage, txn, env.txn_mgr.GetSnapshot(txn), env.config)
}

// execute runs plan as one statement of txn
func (env *testEnv) execute(t *testing.T, plan plans.Plan, txn *access.Transaction) [][]interface{} {
	rows, err := env.tryExecute(plan, txn)
	testingpkg.Ok(t, err)
	return rows
}

func (env *testEnv) tryExecute(plan plans.Plan, txn *access.Transaction) ([][]interface{}, error) {
	rows, err := NewExecutionEngine(nil).Execute(plan, env.newContext(txn))
	txn.CommandCounterIncrement()
	return toGoRows(rows), err
}

// query runs plan in a new committed transaction
func (env *testEnv) query(t *testing.T, plan plans.Plan) [][]interface{} {
	txn := env.txn_mgr.Begin(access.ReadCommitted)
	defer env.txn_mgr.Commit(txn)
	return env.execute(t, plan, txn)
}

// start initializes the tree of plan for pulling by hand
func (env *testEnv) start(t *testing.T, plan plans.Plan, eflags int) (*QueryDesc, Executor) {
	txn := env.txn_mgr.Begin(access.ReadCommitted)
	qd := NewQueryDesc(plan, env.newContext(txn), nil)
	testingpkg.Ok(t, StandardHooks{}.ExecutorStart(qd, eflags))
	t.Cleanup(func() {
		StandardHooks{}.ExecutorEnd(qd)
		env.txn_mgr.Commit(txn)
	})
	return qd, qd.GetRoot()
}

func toGoRows(rows [][]types.Value) [][]interface{} {
	ret := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, testing_util.ToGoValues(row))
	}
	return ret
}

// sortRows orders rows by their text form. for comparing outputs whose order is not defined
func sortRows(rows [][]interface{}) [][]interface{} {
	sort.Slice(rows, func(i, j int) bool { return fmt.Sprint(rows[i]) < fmt.Sprint(rows[j]) })
	return rows
}

func pull(t *testing.T, e Executor) []interface{} {
	slot, done, err := ExecProcNode(e)
	testingpkg.Ok(t, err)
	if done {
		return nil
	}
	return testing_util.ToGoValues(slot.GetAllValues())
}

func drain(t *testing.T, e Executor) [][]interface{} {
	ret := make([][]interface{}, 0)
	for row := pull(t, e); row != nil; row = pull(t, e) {
		ret = append(ret, row)
	}
	return ret
}

func colRef(varno expression.Varno, idx uint32, typ types.TypeID) expression.Expression {
	return expression.NewColumnValue(varno, idx, typ)
}

func intCol(varno expression.Varno, idx uint32) expression.Expression {
	return colRef(varno, idx, types.Integer)
}

func constVal(v interface{}) expression.Expression {
	val := testing_util.GetValue(v)
	return expression.NewConstantValue(val, val.ValueType())
}

func cmp(l expression.Expression, op expression.ComparisonType, r expression.Expression) expression.Expression {
	return expression.NewComparison(l, r, op)
}

func scanPlan(rel access.RelationID, rti int, sc *schema.Schema, qual ...expression.Expression) *plans.SeqScanPlanNode {
	return plans.NewSeqScanPlanNode(rel, rti, sc, qual, nil, nil)
}

// scanWithRID returns all columns of sc followed by RID of the row
func scanWithRID(rel access.RelationID, rti int, sc *schema.Schema, qual ...expression.Expression) *plans.SeqScanPlanNode {
	names := make([]string, 0)
	colTypes := make([]types.TypeID, 0)
	targets := make([]expression.Expression, 0)
	for i, col := range sc.GetColumns() {
		names = append(names, col.GetColumnName())
		colTypes = append(colTypes, col.GetType())
		targets = append(targets, colRef(expression.ScanVar, uint32(i), col.GetType()))
	}
	names = append(names, "rid")
	colTypes = append(colTypes, types.BigInt)
	targets = append(targets, colRef(expression.ScanVar, expression.RowIDColumn, types.BigInt))
	return plans.NewSeqScanPlanNode(rel, rti, sc, qual, targets, schema.NewSchemaFromTypes(names, colTypes))
}

func valuesPlan(sc *schema.Schema, rows ...[]interface{}) *plans.ValuesScanPlanNode {
	exprRows := make([][]expression.Expression, 0, len(rows))
	for _, row := range rows {
		exprs := make([]expression.Expression, 0, len(row))
		for _, v := range row {
			exprs = append(exprs, constVal(v))
		}
		exprRows = append(exprRows, exprs)
	}
	return plans.NewValuesScanPlanNode(sc, exprRows)
}

func intSchema(names ...string) *schema.Schema {
	colTypes := make([]types.TypeID, len(names))
	for i := range colTypes {
		colTypes[i] = types.Integer
	}
	return schema.NewSchemaFromTypes(names, colTypes)
}

func intRows(from int, to int) [][]interface{} {
	ret := make([][]interface{}, 0)
	for i := from; i <= to; i++ {
		ret = append(ret, []interface{}{i})
	}
	return ret
}

// items(id, price). price of id 4 is NULL
func setupItems(t *testing.T, env *testEnv) *schema.Schema {
	return env.createRel(t, relItems, []string{"id", "price"}, []types.TypeID{types.Integer, types.Integer},
		[]interface{}{1, 10}, []interface{}{2, 20}, []interface{}{3, 30},
		[]interface{}{4, nil}, []interface{}{5, 50}, []interface{}{6, 60})
}

func TestSimpleInsertAndSeqScan(t *testing.T) {
	env := newTestEnv()
	sc := env.createRel(t, relItems, []string{"a", "b"}, []types.TypeID{types.Integer, types.Varchar})

	txn := env.txn_mgr.Begin(access.ReadCommitted)
	rows := [][]types.Value{
		testing_util.GetValues(20, "twenty"),
		testing_util.GetValues(99, "ninety-nine"),
	}
	inserted := env.execute(t, plans.NewInsertPlanNode(rows, relItems, sc), txn)
	testingpkg.Equals(t, 0, len(inserted))
	env.txn_mgr.Commit(txn)

	got := env.query(t, scanPlan(relItems, 1, sc))
	testingpkg.Equals(t, [][]interface{}{{20, "twenty"}, {99, "ninety-nine"}}, got)
}

func TestInsertSelectReturning(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)
	copied := env.createRel(t, relDepts, []string{"id", "price"}, []types.TypeID{types.Integer, types.Integer})

	txn := env.txn_mgr.Begin(access.ReadCommitted)
	plan := plans.NewInsertSelectPlanNode(scanPlan(relItems, 1, sc, cmp(intCol(expression.ScanVar, 0), expression.GreaterThan, constVal(4))), relDepts, copied).
		SetReturning(true)
	qd := NewQueryDesc(plan, env.newContext(txn), &CollectReceiver{})
	engine := NewExecutionEngine(nil)
	testingpkg.Ok(t, engine.ExecutorStart(qd, 0))
	testingpkg.Ok(t, engine.ExecutorRun(qd, access.ForwardScanDirection, 0))
	testingpkg.Ok(t, engine.ExecutorFinish(qd))
	testingpkg.Equals(t, uint64(2), qd.GetProcessed())
	testingpkg.Equals(t, [][]interface{}{{5, 50}, {6, 60}}, toGoRows(qd.Dest.(*CollectReceiver).Rows))
	engine.ExecutorEnd(qd)
	env.txn_mgr.Commit(txn)

	testingpkg.Equals(t, 2, len(env.query(t, scanPlan(relDepts, 1, copied))))
}

func TestScanFilterProject(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)

	scan := scanPlan(relItems, 1, sc)
	selection := plans.NewSelectionPlanNode(scan, cmp(intCol(expression.OuterVar, 1), expression.GreaterThan, constVal(20)))
	doubled := expression.NewArithmetic(intCol(expression.OuterVar, 1), constVal(2), types.OpMultiply)
	projection := plans.NewProjectionPlanNode(selection, []expression.Expression{intCol(expression.OuterVar, 0), doubled}, intSchema("id", "doubled"))

	// NULL price is filtered out by the comparison
	got := env.query(t, projection)
	testingpkg.Equals(t, [][]interface{}{{3, 60}, {5, 100}, {6, 120}}, got)
}

func TestSeqScanQualAndRowID(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)

	got := env.query(t, scanWithRID(relItems, 1, sc, cmp(intCol(expression.ScanVar, 0), expression.LessThanOrEqual, constVal(2))))
	testingpkg.Equals(t, 2, len(got))
	for i, row := range got {
		testingpkg.Equals(t, i+1, row[0])
		rid := page.NewRIDFromInt64(row[2].(int64))
		testingpkg.SimpleAssert(t, rid.IsValid())
	}
}

func TestEvaluationErrorAbortsStatement(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)

	// 100 / (id - 3) divides by zero at id 3
	div := expression.NewArithmetic(constVal(100), expression.NewArithmetic(intCol(expression.OuterVar, 0), constVal(3), types.OpSubtract), types.OpDivide)
	projection := plans.NewProjectionPlanNode(scanPlan(relItems, 1, sc), []expression.Expression{div}, intSchema("q"))

	txn := env.txn_mgr.Begin(access.ReadCommitted)
	defer env.txn_mgr.Abort(txn)
	_, err := env.tryExecute(projection, txn)
	testingpkg.Nok(t, err)
	testingpkg.SimpleAssert(t, common.IsEvalError(err))
}

func TestLimitForwardAndBackward(t *testing.T) {
	env := newTestEnv()
	values := valuesPlan(intSchema("n"), intRows(1, 10)...)
	limit := plans.NewLimitPlanNode(values, 3, 2)

	qd, _ := env.start(t, limit, EXEC_FLAG_BACKWARD)
	engine := NewExecutionEngine(nil)

	forward := &CollectReceiver{}
	qd.Dest = forward
	testingpkg.Ok(t, engine.ExecutorRun(qd, access.ForwardScanDirection, 0))
	testingpkg.Equals(t, [][]interface{}{{3}, {4}, {5}}, toGoRows(forward.Rows))

	backward := &CollectReceiver{}
	qd.Dest = backward
	testingpkg.Ok(t, engine.ExecutorRun(qd, access.BackwardScanDirection, 0))
	testingpkg.Equals(t, [][]interface{}{{5}, {4}, {3}}, toGoRows(backward.Rows))
}

func TestRunWithCountStopsEarly(t *testing.T) {
	env := newTestEnv()
	qd, _ := env.start(t, valuesPlan(intSchema("n"), intRows(1, 10)...), 0)
	engine := NewExecutionEngine(nil)

	dest := &CollectReceiver{}
	qd.Dest = dest
	testingpkg.Ok(t, engine.ExecutorRun(qd, access.ForwardScanDirection, 4))
	testingpkg.Ok(t, engine.ExecutorRun(qd, access.ForwardScanDirection, 2))
	testingpkg.Equals(t, [][]interface{}{{1}, {2}, {3}, {4}, {5}, {6}}, toGoRows(dest.Rows))
}

func TestMaterialMarkAndRestore(t *testing.T) {
	env := newTestEnv()
	sc := env.createRel(t, relItems, []string{"n"}, []types.TypeID{types.Integer}, intRows(1, 6)...)
	material := plans.NewMaterialPlanNode(scanPlan(relItems, 1, sc))

	_, root := env.start(t, material, EXEC_FLAG_MARK|EXEC_FLAG_BACKWARD)
	testingpkg.Equals(t, []interface{}{1}, pull(t, root))
	testingpkg.Equals(t, []interface{}{2}, pull(t, root))
	testingpkg.Equals(t, []interface{}{3}, pull(t, root))
	ExecMarkPos(root)
	testingpkg.Equals(t, []interface{}{4}, pull(t, root))
	testingpkg.Equals(t, []interface{}{5}, pull(t, root))
	testingpkg.Ok(t, ExecRestrPos(root))
	// the marked row is current again, so reading resumes after it
	testingpkg.Equals(t, [][]interface{}{{4}, {5}, {6}}, drain(t, root))
}

func TestMarkRequiresMarkFlag(t *testing.T) {
	env := newTestEnv()
	sc := env.createRel(t, relItems, []string{"n"}, []types.TypeID{types.Integer}, intRows(1, 3)...)
	material := plans.NewMaterialPlanNode(scanPlan(relItems, 1, sc))

	_, root := env.start(t, material, 0)
	testingpkg.Equals(t, []interface{}{1}, pull(t, root))
	assert.Panics(t, func() { ExecMarkPos(root) })
	assert.Panics(t, func() { _ = ExecRestrPos(root) })
	testingpkg.Equals(t, [][]interface{}{{2}, {3}}, drain(t, root))
}

func TestMarkOnNodeWithoutSupportIsInitError(t *testing.T) {
	env := newTestEnv()
	limit := plans.NewLimitPlanNode(valuesPlan(intSchema("n"), intRows(1, 3)...), 1, 0)

	txn := env.txn_mgr.Begin(access.ReadCommitted)
	defer env.txn_mgr.Commit(txn)
	qd := NewQueryDesc(limit, env.newContext(txn), nil)
	err := StandardHooks{}.ExecutorStart(qd, EXEC_FLAG_MARK)
	testingpkg.Nok(t, err)
	testingpkg.SimpleAssert(t, common.IsInitError(err))
	testingpkg.SimpleAssert(t, !ExecSupportsMarkRestore(limit))
}

func TestRescanIsDeterministic(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)
	orderby := plans.NewOrderbyPlanNode(scanPlan(relItems, 1, sc), []uint32{1}, []plans.OrderbyType{plans.DESC}, nil)

	qd, root := env.start(t, orderby, EXEC_FLAG_REWIND)
	first := drain(t, root)
	// NULL goes last unless nulls first is requested, in either direction
	testingpkg.Equals(t, [][]interface{}{{6, 60}, {5, 50}, {3, 30}, {2, 20}, {1, 10}, {4, nil}}, first)

	engine := NewExecutionEngine(nil)
	for i := 0; i < 3; i++ {
		testingpkg.Ok(t, engine.ExecutorRewind(qd))
		testingpkg.Equals(t, first, drain(t, root))
	}
}

func TestOrderbyUnderLimitIsBounded(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)
	orderby := plans.NewOrderbyPlanNode(scanPlan(relItems, 1, sc), []uint32{1}, []plans.OrderbyType{plans.ASC}, []bool{true})
	limit := plans.NewLimitPlanNode(orderby, 3, 0)

	got := env.query(t, limit)
	testingpkg.Equals(t, [][]interface{}{{4, nil}, {1, 10}, {2, 20}}, got)
}

func TestUpdateAndDeleteReturning(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)

	txn := env.txn_mgr.Begin(access.ReadCommitted)
	child := scanWithRID(relItems, 1, sc, cmp(intCol(expression.ScanVar, 0), expression.LessThan, constVal(3)))
	update := plans.NewUpdatePlanNode(child, relItems, 1, sc, 2, []uint32{1},
		[]expression.Expression{expression.NewArithmetic(intCol(expression.OldVar, 1), constVal(1), types.OpAdd)}).
		SetReturning(true)
	got := env.execute(t, update, txn)
	testingpkg.Equals(t, [][]interface{}{{1, 11}, {2, 21}}, got)

	// rows written by the statement are seen by the next one
	child = scanWithRID(relItems, 1, sc, cmp(intCol(expression.ScanVar, 1), expression.Equal, constVal(21)))
	deleted := env.execute(t, plans.NewDeletePlanNode(child, relItems, 1, sc, 2).SetReturning(true), txn)
	testingpkg.Equals(t, [][]interface{}{{2, 21}}, deleted)
	env.txn_mgr.Commit(txn)

	got = env.query(t, scanPlan(relItems, 1, sc))
	testingpkg.Equals(t, [][]interface{}{{1, 11}, {3, 30}, {4, nil}, {5, 50}, {6, 60}}, sortRows(got))
}

func TestExplainOnlyDoesNotRun(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)
	del := plans.NewDeletePlanNode(scanWithRID(relItems, 1, sc), relItems, 1, sc, 2)

	qd, _ := env.start(t, del, EXEC_FLAG_EXPLAIN_ONLY)
	testingpkg.Ok(t, NewExecutionEngine(nil).ExecutorRun(qd, access.ForwardScanDirection, 0))
	testingpkg.Equals(t, uint64(0), qd.GetProcessed())
	testingpkg.Equals(t, 6, len(env.query(t, scanPlan(relItems, 1, sc))))
}

type countingHooks struct {
	StandardHooks
	calls []string
	rows  int
}

func (h *countingHooks) ExecutorStart(qd *QueryDesc, eflags int) error {
	h.calls = append(h.calls, "start")
	return h.StandardHooks.ExecutorStart(qd, eflags)
}

func (h *countingHooks) ExecutorRun(qd *QueryDesc, direction access.ScanDirection, count uint64) error {
	h.calls = append(h.calls, "run")
	inner := qd.Dest
	qd.Dest = DestFunc(func(slot *tuple.Slot) (bool, error) {
		h.rows++
		return inner.ReceiveSlot(slot)
	})
	defer func() { qd.Dest = inner }()
	return h.StandardHooks.ExecutorRun(qd, direction, count)
}

func (h *countingHooks) ExecutorEnd(qd *QueryDesc) {
	h.calls = append(h.calls, "end")
	h.StandardHooks.ExecutorEnd(qd)
}

func TestExecutorHooksWrapStandard(t *testing.T) {
	env := newTestEnv()
	hooks := &countingHooks{}
	engine := NewExecutionEngine(hooks)

	txn := env.txn_mgr.Begin(access.ReadCommitted)
	defer env.txn_mgr.Commit(txn)
	got, err := engine.Execute(valuesPlan(intSchema("n"), intRows(1, 5)...), env.newContext(txn))
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, 5, len(got))
	testingpkg.Equals(t, 5, hooks.rows)
	testingpkg.Equals(t, []string{"start", "run", "end"}, hooks.calls)
}

func TestCanceledQueryStops(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	txn := env.txn_mgr.Begin(access.ReadCommitted)
	defer env.txn_mgr.Commit(txn)
	ectx := NewExecutorContext(ctx, env.storage, txn, env.txn_mgr.GetSnapshot(txn), env.config)
	_, err := NewExecutionEngine(nil).Execute(scanPlan(relItems, 1, sc), ectx)
	testingpkg.Nok(t, err)
	testingpkg.SimpleAssert(t, common.IsCanceled(err))
}
