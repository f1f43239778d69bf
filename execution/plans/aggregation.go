package plans

import (
	"fmt"

	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
)

// /** AggregationType enumerates all the possible aggregation functions in our system. */
type AggregationType int32

const (
	COUNT_AGGREGATE AggregationType = iota
	SUM_AGGREGATE
	MIN_AGGREGATE
	MAX_AGGREGATE
	// COUNT(*)
	COUNT_STAR_AGGREGATE
	AVG_AGGREGATE
)

// FunctionName is the name of the aggregate function in expression package
func (t AggregationType) FunctionName() string {
	return [...]string{"count", "sum", "min", "max", "count_star", "avg"}[t]
}

type AggregationStrategy int32

const (
	// no GROUP BY. exactly one row is returned
	AggPlain AggregationStrategy = iota
	// groups are collected in a hash table
	AggHashed
)

// AggregateTerm is one aggregate. Arg and Filter reference the child row (OuterVar).
type AggregateTerm struct {
	Type AggregationType
	// nil for COUNT(*)
	Arg    expression.Expression
	Filter expression.Expression
}

/**
 * AggregationPlanNode represents the various SQL aggregation functions.
 * For example, COUNT(), SUM(), MIN() and MAX().
 * AggregationPlanNode must always have exactly one child.
 *
 * output row is group by columns followed by aggregate results. having
 * references them with expression.AggregateValueExpression.
 */
type AggregationPlanNode struct {
	*AbstractPlanNode
	strategy   AggregationStrategy
	having_    []expression.Expression
	group_bys_ []uint32
	aggregates []AggregateTerm
	// expected number of groups
	numGroups uint32
}

/**
 * Creates a new AggregationPlanNode.
 * @param output_schema the output format of this plan node
 * @param child the child plan to aggregate data over
 * @param having the having clause of the aggregation
 * @param group_bys the columns of the child row to group by
 * @param aggregates the aggregates to be computed
 */
func NewAggregationPlanNode(output_schema *schema.Schema, child Plan, having []expression.Expression,
	group_bys []uint32, aggregates []AggregateTerm, numGroups uint32) *AggregationPlanNode {
	strategy := AggPlain
	if len(group_bys) > 0 {
		strategy = AggHashed
	}
	return &AggregationPlanNode{newAbstractPlanNode(output_schema, child), strategy, having, group_bys, aggregates, numGroups}
}

func (p *AggregationPlanNode) GetType() PlanType { return Aggregation }

/** @return the child of this aggregation plan node */
func (p *AggregationPlanNode) GetChildPlan() Plan {
	common.SH_Assert(len(p.GetChildren()) == 1, "Aggregation expected to only have one child.")
	return p.GetChildAt(0)
}

func (p *AggregationPlanNode) GetStrategy() AggregationStrategy { return p.strategy }

/** @return the having clause */
func (p *AggregationPlanNode) GetHaving() []expression.Expression { return p.having_ }

/** @return the group by columns */
func (p *AggregationPlanNode) GetGroupBys() []uint32 { return p.group_bys_ }

/** @return the aggregates */
func (p *AggregationPlanNode) GetAggregates() []AggregateTerm { return p.aggregates }

func (p *AggregationPlanNode) GetNumGroups() uint32 { return p.numGroups }

func (p *AggregationPlanNode) GetDebugStr() string {
	names := make([]string, 0, len(p.aggregates))
	for _, agg := range p.aggregates {
		names = append(names, agg.Type.FunctionName())
	}
	return fmt.Sprintf("Aggregation [group by: %v aggregates: %v having: %s]", p.group_bys_, names, exprListStr(p.having_))
}
