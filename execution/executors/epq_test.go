package executors

import (
	"context"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/access/mock_access"
	"github.com/ryogrid/samehada-executor/storage/page"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/storage/tuple"
	testingpkg "github.com/ryogrid/samehada-executor/testing/testing_assert"
	"github.com/ryogrid/samehada-executor/testing/testing_util"
	"github.com/ryogrid/samehada-executor/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priceBelow(limit int) expression.Expression {
	return cmp(intCol(expression.ScanVar, 1), expression.LessThan, constVal(limit))
}

// UPDATE items SET price = price + 1 WHERE price < 50 RETURNING id, price
func bumpCheapItems(sc *schema.Schema) *plans.UpdatePlanNode {
	return plans.NewUpdatePlanNode(scanWithRID(relItems, 1, sc, priceBelow(50)), relItems, 1, sc, 2, []uint32{1},
		[]expression.Expression{expression.NewArithmetic(intCol(expression.OldVar, 1), constVal(1), types.OpAdd)}).
		SetReturning(true)
}

// setPrice commits UPDATE items SET price = price WHERE id = id in its own transaction
func setPrice(t *testing.T, env *testEnv, sc *schema.Schema, id int, price int) {
	child := scanWithRID(relItems, 1, sc, cmp(intCol(expression.ScanVar, 0), expression.Equal, constVal(id)))
	update := plans.NewUpdatePlanNode(child, relItems, 1, sc, 2, []uint32{1}, []expression.Expression{constVal(price)})
	txn := env.txn_mgr.Begin(access.ReadCommitted)
	env.execute(t, update, txn)
	env.txn_mgr.Commit(txn)
}

func deleteItem(t *testing.T, env *testEnv, sc *schema.Schema, id int) {
	child := scanWithRID(relItems, 1, sc, cmp(intCol(expression.ScanVar, 0), expression.Equal, constVal(id)))
	txn := env.txn_mgr.Begin(access.ReadCommitted)
	env.execute(t, plans.NewDeletePlanNode(child, relItems, 1, sc, 2), txn)
	env.txn_mgr.Commit(txn)
}

// concurrentUpdate runs bumpCheapItems with a snapshot taken before concurrent runs
func concurrentUpdate(env *testEnv, sc *schema.Schema, level access.IsolationLevel, concurrent func()) ([][]interface{}, error) {
	txn := env.txn_mgr.Begin(level)
	ctx := env.newContext(txn)
	concurrent()
	rows, err := NewExecutionEngine(nil).Execute(bumpCheapItems(sc), ctx)
	if err != nil {
		env.txn_mgr.Abort(txn)
		return nil, err
	}
	env.txn_mgr.Commit(txn)
	return toGoRows(rows), nil
}

func TestUpdateSkipsRowDisqualifiedByConcurrentUpdate(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)

	got, err := concurrentUpdate(env, sc, access.ReadCommitted, func() { setPrice(t, env, sc, 1, 110) })
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, [][]interface{}{{2, 21}, {3, 31}}, got)

	final := env.query(t, scanPlan(relItems, 1, sc, cmp(intCol(expression.ScanVar, 0), expression.LessThanOrEqual, constVal(3))))
	testingpkg.Equals(t, [][]interface{}{{1, 110}, {2, 21}, {3, 31}}, sortRows(final))
}

func TestUpdateAppliesToNewestQualifyingVersion(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)

	got, err := concurrentUpdate(env, sc, access.ReadCommitted, func() { setPrice(t, env, sc, 1, 15) })
	testingpkg.Ok(t, err)
	// computed from 15, not from 10 which the snapshot saw
	testingpkg.Equals(t, [][]interface{}{{1, 16}, {2, 21}, {3, 31}}, sortRows(got))
}

func TestUpdateSkipsConcurrentlyDeletedRow(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)

	got, err := concurrentUpdate(env, sc, access.ReadCommitted, func() { deleteItem(t, env, sc, 2) })
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, [][]interface{}{{1, 11}, {3, 31}}, sortRows(got))
}

func TestRepeatableReadFailsOnConcurrentUpdate(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)

	_, err := concurrentUpdate(env, sc, access.RepeatableRead, func() { setPrice(t, env, sc, 3, 35) })
	testingpkg.Assert(t, common.IsSerializationError(err), "expected serialization failure but got %v", err)

	// the update was rolled back
	final := env.query(t, scanPlan(relItems, 1, sc, priceBelow(50)))
	testingpkg.Equals(t, [][]interface{}{{1, 10}, {2, 20}, {3, 35}}, sortRows(final))
}

func TestErrorOnConflictTurnsSkipIntoFailure(t *testing.T) {
	env := newTestEnv()
	env.config.ErrorOnConflict = true
	sc := setupItems(t, env)

	_, err := concurrentUpdate(env, sc, access.ReadCommitted, func() { setPrice(t, env, sc, 1, 110) })
	testingpkg.Assert(t, common.IsSerializationError(err), "expected serialization failure but got %v", err)

	// id 1 now costs 110 and is out of the scan. a version which still qualifies is not a conflict
	got, err := concurrentUpdate(env, sc, access.ReadCommitted, func() { setPrice(t, env, sc, 2, 25) })
	testingpkg.Ok(t, err)
	testingpkg.Equals(t, [][]interface{}{{2, 26}, {3, 31}}, sortRows(got))

	final := env.query(t, scanPlan(relItems, 1, sc, cmp(intCol(expression.ScanVar, 0), expression.LessThanOrEqual, constVal(3))))
	testingpkg.Equals(t, [][]interface{}{{1, 110}, {2, 26}, {3, 31}}, sortRows(final))
}

func TestDeleteRechecksConcurrentUpdate(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)

	txn := env.txn_mgr.Begin(access.ReadCommitted)
	ctx := env.newContext(txn)
	setPrice(t, env, sc, 1, 70)
	setPrice(t, env, sc, 2, 25)
	del := plans.NewDeletePlanNode(scanWithRID(relItems, 1, sc, priceBelow(50)), relItems, 1, sc, 2).SetReturning(true)
	rows, err := NewExecutionEngine(nil).Execute(del, ctx)
	testingpkg.Ok(t, err)
	env.txn_mgr.Commit(txn)

	testingpkg.Equals(t, [][]interface{}{{2, 25}, {3, 30}}, sortRows(toGoRows(rows)))
	remaining := env.query(t, scanPlan(relItems, 1, sc))
	testingpkg.Equals(t, [][]interface{}{{1, 70}, {4, nil}, {5, 50}, {6, 60}}, sortRows(remaining))
}

// reevaluatorFixture drives Reevaluator against a mocked storage
type reevaluatorFixture struct {
	storage *mock_access.MockStorage
	txn     *access.Transaction
	epq     *EPQState
	sc      *schema.Schema
}

func newReevaluatorFixture(t *testing.T, level access.IsolationLevel) *reevaluatorFixture {
	ctrl := gomock.NewController(t)
	storage := mock_access.NewMockStorage(ctrl)
	txn_mgr := access.NewTransactionManager(access.NewLockManager())
	txn := txn_mgr.Begin(level)
	t.Cleanup(func() { txn_mgr.Commit(txn) })

	sc := schema.NewSchemaFromTypes([]string{"id", "price"}, []types.TypeID{types.Integer, types.Integer})
	storage.EXPECT().Schema(relItems).Return(sc, nil).AnyTimes()

	plan := scanWithRID(relItems, 1, sc, priceBelow(50))
	plans.FinalizePlan(plan)
	ctx := NewExecutorContext(context.Background(), storage, txn, txn_mgr.GetSnapshot(txn), common.DefaultConfig())
	epq := EvalPlanQualInit(ctx, plan, nil)
	t.Cleanup(func() { EvalPlanQualEnd(epq) })
	return &reevaluatorFixture{storage, txn, epq, sc}
}

func (f *reevaluatorFixture) version(rid page.RID, values ...interface{}) *tuple.Tuple {
	t := tuple.NewTupleFromSchema(testing_util.GetValues(values...), f.sc)
	t.SetRID(&rid)
	return t
}

func (f *reevaluatorFixture) expectLock(rid page.RID, result access.TMFailureData) *gomock.Call {
	return f.storage.EXPECT().
		LockRow(gomock.Any(), relItems, rid, f.txn, access.LockNoKeyExclusive, access.WaitBlock).
		Return(result, nil)
}

func (f *reevaluatorFixture) recheck(rid page.RID) (*RecheckOutcome, error) {
	return NewReevaluator(f.epq, relItems, access.WaitBlock).Recheck(context.Background(), 1, rid, access.LockNoKeyExclusive)
}

func TestRecheckWithoutConflict(t *testing.T) {
	f := newReevaluatorFixture(t, access.ReadCommitted)
	rid := page.NewRID(0, 1)
	f.expectLock(rid, access.TMFailureData{Result: access.TMOk, Tuple: f.version(rid, 1, 10)})

	out, err := f.recheck(rid)
	require.NoError(t, err)
	assert.Equal(t, RecheckQualifies, out.State)
	assert.Equal(t, []RecheckState{RecheckInitial, RecheckLockAttempt, RecheckQualifies}, out.Transitions)
	assert.Nil(t, out.Slot)
	assert.Equal(t, rid, out.RID)
}

func TestRecheckFollowsUpdateChain(t *testing.T) {
	f := newReevaluatorFixture(t, access.ReadCommitted)
	rid1, rid2, rid3 := page.NewRID(0, 1), page.NewRID(0, 7), page.NewRID(1, 2)
	gomock.InOrder(
		f.expectLock(rid1, access.TMFailureData{Result: access.TMUpdated, Successor: rid2, Xmax: 5}),
		f.expectLock(rid2, access.TMFailureData{Result: access.TMUpdated, Successor: rid3, Xmax: 6}),
		f.expectLock(rid3, access.TMFailureData{Result: access.TMOk, Tuple: f.version(rid3, 1, 15)}),
	)

	out, err := f.recheck(rid1)
	require.NoError(t, err)
	assert.Equal(t, []RecheckState{RecheckInitial, RecheckLockAttempt, RecheckSuperseded, RecheckLockAttempt,
		RecheckSuperseded, RecheckLockAttempt, RecheckReCheck, RecheckQualifies}, out.Transitions)
	assert.Equal(t, rid3, out.RID)
	require.NotNil(t, out.Slot)
	assert.Equal(t, []interface{}{1, 15, rid3.ToInt64()}, testing_util.ToGoValues(out.Slot.GetAllValues()))
}

func TestRecheckDisqualifiesNewestVersion(t *testing.T) {
	f := newReevaluatorFixture(t, access.ReadCommitted)
	rid1, rid2 := page.NewRID(0, 1), page.NewRID(0, 2)
	gomock.InOrder(
		f.expectLock(rid1, access.TMFailureData{Result: access.TMUpdated, Successor: rid2}),
		f.expectLock(rid2, access.TMFailureData{Result: access.TMOk, Tuple: f.version(rid2, 1, 110)}),
	)

	out, err := f.recheck(rid1)
	require.NoError(t, err)
	assert.Equal(t, RecheckDisqualified, out.State)
	assert.True(t, out.State.IsTerminal())
	assert.Nil(t, out.Slot)
}

func TestRecheckOfDeletedRow(t *testing.T) {
	f := newReevaluatorFixture(t, access.ReadCommitted)
	rid := page.NewRID(0, 1)
	f.expectLock(rid, access.TMFailureData{Result: access.TMDeleted, Xmax: 5})

	out, err := f.recheck(rid)
	require.NoError(t, err)
	assert.Equal(t, []RecheckState{RecheckInitial, RecheckLockAttempt, RecheckSuperseded, RecheckGone}, out.Transitions)
}

func TestRecheckUnderRepeatableRead(t *testing.T) {
	for _, result := range []access.TMResult{access.TMUpdated, access.TMDeleted} {
		f := newReevaluatorFixture(t, access.RepeatableRead)
		rid := page.NewRID(0, 1)
		f.expectLock(rid, access.TMFailureData{Result: result, Successor: page.NewRID(0, 2)})

		_, err := f.recheck(rid)
		assert.True(t, common.IsSerializationError(err), "%s: %v", result, err)
	}
}

func TestRecheckOfInvisibleRowIsInternalError(t *testing.T) {
	f := newReevaluatorFixture(t, access.ReadCommitted)
	rid := page.NewRID(0, 1)
	f.expectLock(rid, access.TMFailureData{Result: access.TMInvisible})

	_, err := f.recheck(rid)
	require.Error(t, err)
	assert.False(t, common.IsSerializationError(err))
}

// SELECT id, price, rid FROM items WHERE price < 50 FOR UPDATE
func lockCheapItems(sc *schema.Schema, wait access.WaitPolicy, qual expression.Expression) *plans.LockRowsPlanNode {
	mark := plans.RowMark{Rti: 1, Rel: relItems, Mode: access.LockExclusive, Wait: wait, RIDCol: 2}
	return plans.NewLockRowsPlanNode(scanWithRID(relItems, 1, sc, qual), []plans.RowMark{mark})
}

func withoutRID(rows [][]interface{}) [][]interface{} {
	ret := make([][]interface{}, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row[:len(row)-1])
	}
	return ret
}

func TestLockRowsRechecksUpdatedRows(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)

	txn := env.txn_mgr.Begin(access.ReadCommitted)
	ctx := env.newContext(txn)
	setPrice(t, env, sc, 1, 15)
	setPrice(t, env, sc, 2, 120)
	rows, err := NewExecutionEngine(nil).Execute(lockCheapItems(sc, access.WaitBlock, priceBelow(50)), ctx)
	testingpkg.Ok(t, err)
	defer env.txn_mgr.Commit(txn)

	got := toGoRows(rows)
	testingpkg.Equals(t, [][]interface{}{{1, 15}, {3, 30}}, sortRows(withoutRID(got)))
	for _, row := range got {
		key := access.RowKey{Rel: relItems, RID: page.NewRIDFromInt64(row[2].(int64))}
		testingpkg.Assert(t, txn.IsExclusiveLocked(key), "row %v is not locked", row)
	}
}

func TestLockRowsWaitPolicies(t *testing.T) {
	env := newTestEnv()
	sc := setupItems(t, env)

	// holder keeps lock on the row of id 1
	holder := env.txn_mgr.Begin(access.ReadCommitted)
	locked := env.execute(t, lockCheapItems(sc, access.WaitBlock, cmp(intCol(expression.ScanVar, 0), expression.Equal, constVal(1))), holder)
	testingpkg.Equals(t, 1, len(locked))
	defer env.txn_mgr.Commit(holder)

	skipper := env.txn_mgr.Begin(access.ReadCommitted)
	got := env.execute(t, lockCheapItems(sc, access.WaitSkip, priceBelow(50)), skipper)
	testingpkg.Equals(t, [][]interface{}{{2, 20}, {3, 30}}, sortRows(withoutRID(got)))
	env.txn_mgr.Commit(skipper)

	nowait := env.txn_mgr.Begin(access.ReadCommitted)
	_, err := env.tryExecute(lockCheapItems(sc, access.WaitError, priceBelow(50)), nowait)
	testingpkg.Assert(t, common.IsLockNotAvailable(err), "expected lock failure but got %v", err)
	env.txn_mgr.Abort(nowait)
}
