package executors

import (
	"testing"

	pair "github.com/notEpsilon/go-pair"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	testingpkg "github.com/ryogrid/samehada-executor/testing/testing_assert"
	"github.com/ryogrid/samehada-executor/types"
)

// emps(id, dept) and depts(id, name). emp 4 has no dept and emp 5 refers missing dept
func setupEmpsAndDepts(t *testing.T, env *testEnv) (*schema.Schema, *schema.Schema) {
	emps := env.createRel(t, relItems, []string{"id", "dept"}, []types.TypeID{types.Integer, types.Integer},
		[]interface{}{1, 1}, []interface{}{2, 1}, []interface{}{3, 2}, []interface{}{4, nil}, []interface{}{5, 9})
	depts := env.createRel(t, relDepts, []string{"id", "name"}, []types.TypeID{types.Integer, types.Varchar},
		[]interface{}{1, "eng"}, []interface{}{2, "ops"}, []interface{}{3, "hr"})
	return emps, depts
}

func keyPair(outer uint32, inner uint32) []*pair.Pair[uint32, uint32] {
	return []*pair.Pair[uint32, uint32]{{First: outer, Second: inner}}
}

var expectedJoins = map[plans.JoinType][][]interface{}{
	plans.InnerJoin: {{1, 1, 1, "eng"}, {2, 1, 1, "eng"}, {3, 2, 2, "ops"}},
	plans.LeftJoin:  {{1, 1, 1, "eng"}, {2, 1, 1, "eng"}, {3, 2, 2, "ops"}, {4, nil, nil, nil}, {5, 9, nil, nil}},
	plans.SemiJoin:  {{1, 1}, {2, 1}, {3, 2}},
	plans.AntiJoin:  {{4, nil}, {5, 9}},
}

func TestNestedLoopJoinTypes(t *testing.T) {
	env := newTestEnv()
	emps, depts := setupEmpsAndDepts(t, env)

	qual := []expression.Expression{cmp(intCol(expression.OuterVar, 1), expression.Equal, intCol(expression.InnerVar, 0))}
	for joinType, expected := range expectedJoins {
		join := plans.NewNestedLoopJoinPlanNode(scanPlan(relItems, 1, emps), scanPlan(relDepts, 2, depts),
			joinType, qual, nil, nil, nil, nil)
		got := env.query(t, join)
		testingpkg.Assert(t, len(expected) == len(got), "%s join returned %v", joinType, got)
		testingpkg.Equals(t, expected, sortRows(got))
	}
}

func TestNestedLoopJoinWithNestParams(t *testing.T) {
	env := newTestEnv()
	emps, depts := setupEmpsAndDepts(t, env)

	// inner scan is rescanned with $0 = outer.dept for each outer row
	param := expression.NewParamValue(expression.ParamExec, 0, types.Integer)
	inner := scanPlan(relDepts, 2, depts, cmp(intCol(expression.ScanVar, 0), expression.Equal, param))
	nestParams := []*pair.Pair[int, uint32]{{First: 0, Second: 1}}
	join := plans.NewNestedLoopJoinPlanNode(scanPlan(relItems, 1, emps), plans.NewMaterialPlanNode(inner),
		plans.LeftJoin, nil, nil, nestParams,
		[]expression.Expression{intCol(expression.OuterVar, 0), colRef(expression.InnerVar, 1, types.Varchar)},
		schema.NewSchemaFromTypes([]string{"emp", "dept_name"}, []types.TypeID{types.Integer, types.Varchar}))

	got := env.query(t, join)
	testingpkg.Equals(t, [][]interface{}{{1, "eng"}, {2, "eng"}, {3, "ops"}, {4, nil}, {5, nil}}, got)
}

func TestExecutorStartComputesParamSets(t *testing.T) {
	env := newTestEnv()
	emps, depts := setupEmpsAndDepts(t, env)

	param := expression.NewParamValue(expression.ParamExec, 0, types.Integer)
	inner := plans.NewMaterialPlanNode(scanPlan(relDepts, 2, depts, cmp(intCol(expression.ScanVar, 0), expression.Equal, param)))
	nestParams := []*pair.Pair[int, uint32]{{First: 0, Second: 1}}
	join := plans.NewNestedLoopJoinPlanNode(scanPlan(relItems, 1, emps), inner, plans.InnerJoin, nil, nil, nestParams,
		[]expression.Expression{intCol(expression.OuterVar, 0), colRef(expression.InnerVar, 1, types.Varchar)},
		schema.NewSchemaFromTypes([]string{"emp", "dept_name"}, []types.TypeID{types.Integer, types.Varchar}))
	testingpkg.SimpleAssert(t, !join.IsFinalized())

	// material must drop its rows whenever the nest param changes
	got := env.query(t, join)
	testingpkg.Equals(t, [][]interface{}{{1, "eng"}, {2, "eng"}, {3, "ops"}}, got)
	testingpkg.SimpleAssert(t, join.IsFinalized())
	testingpkg.SimpleAssert(t, inner.GetAllParam().Contains(0))
	testingpkg.SimpleAssert(t, inner.GetExtParam().Contains(0))
	testingpkg.SimpleAssert(t, !join.GetExtParam().Contains(0))
}

func TestHashJoinTypes(t *testing.T) {
	env := newTestEnv()
	emps, depts := setupEmpsAndDepts(t, env)

	for joinType, expected := range expectedJoins {
		join := plans.NewHashJoinPlanNode(scanPlan(relItems, 1, emps), scanPlan(relDepts, 2, depts),
			joinType, keyPair(1, 0), nil, nil, nil, nil, nil)
		got := env.query(t, join)
		testingpkg.Assert(t, len(expected) == len(got), "%s join returned %v", joinType, got)
		testingpkg.Equals(t, expected, sortRows(got))
	}
}

func TestHashJoinNullKeysNeverMatch(t *testing.T) {
	env := newTestEnv()
	sc := intSchema("k")
	outer := valuesPlan(sc, []interface{}{nil}, []interface{}{1})
	inner := valuesPlan(sc, []interface{}{nil}, []interface{}{1}, []interface{}{1})
	join := plans.NewHashJoinPlanNode(outer, inner, plans.InnerJoin, keyPair(0, 0), nil, nil, nil, nil, nil)

	got := env.query(t, join)
	testingpkg.Equals(t, [][]interface{}{{1, 1}, {1, 1}}, got)
}

func TestHashJoinRescanRebuildsOnParamChange(t *testing.T) {
	env := newTestEnv()
	emps, depts := setupEmpsAndDepts(t, env)

	// hash join under nest loop: its inner depends on the param, so the table is rebuilt per outer row
	param := expression.NewParamValue(expression.ParamExec, 0, types.Integer)
	hashInner := scanPlan(relDepts, 3, depts, cmp(intCol(expression.ScanVar, 0), expression.Equal, param))
	hashJoin := plans.NewHashJoinPlanNode(scanPlan(relItems, 2, emps), hashInner, plans.InnerJoin, keyPair(1, 0),
		nil, nil, nil, []expression.Expression{intCol(expression.OuterVar, 0)}, intSchema("emp"))
	outer := valuesPlan(intSchema("d"), []interface{}{1}, []interface{}{2}, []interface{}{3})
	join := plans.NewNestedLoopJoinPlanNode(outer, hashJoin, plans.InnerJoin, nil, nil,
		[]*pair.Pair[int, uint32]{{First: 0, Second: 0}}, nil, nil)

	got := env.query(t, join)
	testingpkg.Equals(t, [][]interface{}{{1, 1}, {1, 2}, {2, 3}}, got)
}

func TestMergeJoinWithDuplicates(t *testing.T) {
	env := newTestEnv()
	sc := intSchema("k", "v")
	outer := valuesPlan(sc, []interface{}{1, 10}, []interface{}{2, 20}, []interface{}{2, 21}, []interface{}{4, 40}, []interface{}{nil, 0})
	inner := valuesPlan(sc, []interface{}{2, 200}, []interface{}{2, 201}, []interface{}{3, 300}, []interface{}{4, 400}, []interface{}{nil, 1})
	sortByKey := func(p plans.Plan) plans.Plan {
		return plans.NewOrderbyPlanNode(p, []uint32{0}, []plans.OrderbyType{plans.ASC}, nil)
	}
	join := plans.NewMergeJoinPlanNode(sortByKey(outer), sortByKey(inner), keyPair(0, 0), nil, nil,
		[]expression.Expression{intCol(expression.OuterVar, 1), intCol(expression.InnerVar, 1)}, intSchema("ov", "iv"))

	got := env.query(t, join)
	// inner rows of key 2 are read again for the second outer row of key 2
	testingpkg.Equals(t, [][]interface{}{{20, 200}, {20, 201}, {21, 200}, {21, 201}, {40, 400}}, got)
}

func TestMergeJoinNeedsMarkableInner(t *testing.T) {
	env := newTestEnv()
	emps, depts := setupEmpsAndDepts(t, env)
	join := plans.NewMergeJoinPlanNode(scanPlan(relItems, 1, emps), scanPlan(relDepts, 2, depts), keyPair(1, 0), nil, nil, nil, nil)

	txn := env.txn_mgr.Begin(access.ReadCommitted)
	defer env.txn_mgr.Commit(txn)
	_, err := env.tryExecute(join, txn)
	testingpkg.Nok(t, err)
}

func TestJoinOtherQualFiltersMatches(t *testing.T) {
	env := newTestEnv()
	emps, depts := setupEmpsAndDepts(t, env)

	// otherQual drops joined rows but doesn't make outer rows unmatched
	other := []expression.Expression{cmp(intCol(expression.OuterVar, 0), expression.NotEqual, constVal(2))}
	join := plans.NewHashJoinPlanNode(scanPlan(relItems, 1, emps), scanPlan(relDepts, 2, depts),
		plans.LeftJoin, keyPair(1, 0), nil, nil, other, []expression.Expression{intCol(expression.OuterVar, 0)}, intSchema("emp"))

	got := env.query(t, join)
	testingpkg.Equals(t, [][]interface{}{{1}, {3}, {4}, {5}}, sortRows(got))
}
