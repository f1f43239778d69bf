package executors

import (
	"testing"

	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	testingpkg "github.com/ryogrid/samehada-executor/testing/testing_assert"
	"github.com/ryogrid/samehada-executor/testing/testing_tbl_gen"
	"github.com/ryogrid/samehada-executor/types"
)

// salaries(dept, salary)
func setupSalaries(t *testing.T, env *testEnv) *schema.Schema {
	return env.createRel(t, relItems, []string{"dept", "salary"}, []types.TypeID{types.Integer, types.Integer},
		[]interface{}{1, 100}, []interface{}{1, 200}, []interface{}{2, 50}, []interface{}{nil, 70}, []interface{}{2, nil})
}

func aggOf(aggType plans.AggregationType, col uint32) plans.AggregateTerm {
	return plans.AggregateTerm{Type: aggType, Arg: intCol(expression.OuterVar, col)}
}

func TestPlainAggregation(t *testing.T) {
	env := newTestEnv()
	sc := setupSalaries(t, env)

	aggs := []plans.AggregateTerm{
		{Type: plans.COUNT_STAR_AGGREGATE},
		aggOf(plans.COUNT_AGGREGATE, 1),
		aggOf(plans.SUM_AGGREGATE, 1),
		aggOf(plans.MIN_AGGREGATE, 1),
		aggOf(plans.MAX_AGGREGATE, 1),
		aggOf(plans.AVG_AGGREGATE, 1),
	}
	out := schema.NewSchemaFromTypes([]string{"cnt_star", "cnt", "sum", "min", "max", "avg"},
		[]types.TypeID{types.BigInt, types.BigInt, types.BigInt, types.Integer, types.Integer, types.Float})
	agg := plans.NewAggregationPlanNode(out, scanPlan(relItems, 1, sc), nil, nil, aggs, 1)

	got := env.query(t, agg)
	// NULL salary is counted only by COUNT(*)
	testingpkg.Equals(t, [][]interface{}{{int64(5), int64(4), int64(420), 50, 200, float32(105)}}, got)
}

func TestPlainAggregationOverEmptyInput(t *testing.T) {
	env := newTestEnv()
	sc := setupSalaries(t, env)

	aggs := []plans.AggregateTerm{{Type: plans.COUNT_STAR_AGGREGATE}, aggOf(plans.SUM_AGGREGATE, 1)}
	out := schema.NewSchemaFromTypes([]string{"cnt", "sum"}, []types.TypeID{types.BigInt, types.BigInt})
	empty := scanPlan(relItems, 1, sc, constVal(false))
	got := env.query(t, plans.NewAggregationPlanNode(out, empty, nil, nil, aggs, 1))
	testingpkg.Equals(t, [][]interface{}{{int64(0), nil}}, got)
}

func TestHashedAggregationGroupsNullTogether(t *testing.T) {
	env := newTestEnv()
	sc := setupSalaries(t, env)
	env.insertCommitted(t, relItems, []interface{}{nil, 5})

	aggs := []plans.AggregateTerm{{Type: plans.COUNT_STAR_AGGREGATE}, aggOf(plans.SUM_AGGREGATE, 1)}
	out := schema.NewSchemaFromTypes([]string{"dept", "cnt", "sum"}, []types.TypeID{types.Integer, types.BigInt, types.BigInt})
	agg := plans.NewAggregationPlanNode(out, scanPlan(relItems, 1, sc), nil, []uint32{0}, aggs, 4)

	got := env.query(t, agg)
	testingpkg.Equals(t, [][]interface{}{
		{1, int64(2), int64(300)},
		{2, int64(2), int64(50)},
		{nil, int64(2), int64(75)},
	}, got)
}

func TestHashedAggregationHaving(t *testing.T) {
	env := newTestEnv()
	sc := setupSalaries(t, env)

	aggs := []plans.AggregateTerm{{Type: plans.COUNT_STAR_AGGREGATE}, aggOf(plans.SUM_AGGREGATE, 1)}
	out := schema.NewSchemaFromTypes([]string{"dept", "cnt", "sum"}, []types.TypeID{types.Integer, types.BigInt, types.BigInt})
	sum := expression.NewAggregateValueExpression(false, 1, types.BigInt)
	having := []expression.Expression{cmp(sum, expression.GreaterThan, constVal(int64(60)))}
	agg := plans.NewAggregationPlanNode(out, scanPlan(relItems, 1, sc), having, []uint32{0}, aggs, 4)

	got := env.query(t, agg)
	testingpkg.Equals(t, [][]interface{}{{1, int64(2), int64(300)}, {nil, int64(1), int64(70)}}, got)
}

func TestAggregateFilter(t *testing.T) {
	env := newTestEnv()
	sc := setupSalaries(t, env)

	// COUNT(*) FILTER (WHERE salary >= 100)
	aggs := []plans.AggregateTerm{{Type: plans.COUNT_STAR_AGGREGATE,
		Filter: cmp(intCol(expression.OuterVar, 1), expression.GreaterThanOrEqual, constVal(100))}}
	out := schema.NewSchemaFromTypes([]string{"cnt"}, []types.TypeID{types.BigInt})
	got := env.query(t, plans.NewAggregationPlanNode(out, scanPlan(relItems, 1, sc), nil, nil, aggs, 1))
	testingpkg.Equals(t, [][]interface{}{{int64(2)}}, got)
}

func TestAggregationOverGeneratedTable(t *testing.T) {
	env := newTestEnv()
	meta1, _, err := testing_tbl_gen.GenerateTestTabls(env.storage, 42)
	testingpkg.Ok(t, err)
	sc := testing_tbl_gen.MakeSchema(meta1)

	// colB is uniform in [0, 9]
	aggs := []plans.AggregateTerm{{Type: plans.COUNT_STAR_AGGREGATE}, aggOf(plans.MIN_AGGREGATE, 0), aggOf(plans.MAX_AGGREGATE, 0)}
	out := schema.NewSchemaFromTypes([]string{"colB", "cnt", "min", "max"},
		[]types.TypeID{types.Integer, types.BigInt, types.Integer, types.Integer})
	agg := plans.NewAggregationPlanNode(out, scanPlan(testing_tbl_gen.TestRel1, 1, sc), nil, []uint32{1}, aggs, 10)

	got := env.query(t, agg)
	testingpkg.Assert(t, len(got) <= 10, "%d groups for 10 distinct values", len(got))
	var total int64
	for _, row := range got {
		testingpkg.SimpleAssert(t, row[0].(int) >= 0 && row[0].(int) <= 9)
		testingpkg.SimpleAssert(t, row[2].(int) <= row[3].(int))
		total += row[1].(int64)
	}
	testingpkg.Equals(t, int64(testing_tbl_gen.TEST1_SIZE), total)
}

func TestSetOperations(t *testing.T) {
	env := newTestEnv()
	sc := intSchema("n")
	left := func() plans.Plan {
		return valuesPlan(sc, []interface{}{1}, []interface{}{1}, []interface{}{2}, []interface{}{3}, []interface{}{nil}, []interface{}{nil})
	}
	right := func() plans.Plan {
		return valuesPlan(sc, []interface{}{1}, []interface{}{3}, []interface{}{3}, []interface{}{nil}, []interface{}{4})
	}

	cases := []struct {
		cmd      plans.SetOpCommand
		expected [][]interface{}
	}{
		// NULL rows are the same row here
		{plans.SetOpIntersect, [][]interface{}{{1}, {3}, {nil}}},
		{plans.SetOpIntersectAll, [][]interface{}{{1}, {3}, {nil}}},
		{plans.SetOpExcept, [][]interface{}{{2}}},
		{plans.SetOpExceptAll, [][]interface{}{{1}, {2}, {nil}}},
	}
	for _, c := range cases {
		got := env.query(t, plans.NewSetOpPlanNode(c.cmd, left(), right(), 8))
		testingpkg.Assert(t, len(c.expected) == len(got), "%s returned %v", c.cmd, got)
		testingpkg.Equals(t, c.expected, got)
	}
}

func TestAggregationRescanReusesGroups(t *testing.T) {
	env := newTestEnv()
	sc := setupSalaries(t, env)

	aggs := []plans.AggregateTerm{aggOf(plans.SUM_AGGREGATE, 1)}
	out := schema.NewSchemaFromTypes([]string{"dept", "sum"}, []types.TypeID{types.Integer, types.BigInt})
	agg := plans.NewAggregationPlanNode(out, scanPlan(relItems, 1, sc), nil, []uint32{0}, aggs, 4)

	qd, root := env.start(t, agg, EXEC_FLAG_REWIND)
	first := drain(t, root)
	testingpkg.Equals(t, 3, len(first))
	testingpkg.Ok(t, NewExecutionEngine(nil).ExecutorRewind(qd))
	testingpkg.Equals(t, first, drain(t, root))
}
