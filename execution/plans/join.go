package plans

import (
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
)

type JoinType int32

const (
	InnerJoin JoinType = iota
	// unmatched outer rows are returned with NULL inner columns
	LeftJoin
	// outer rows which have any match, once
	SemiJoin
	// outer rows which have no match
	AntiJoin
)

func (t JoinType) String() string {
	return [...]string{"Inner", "Left", "Semi", "Anti"}[t]
}

/**
 * joinPlanNode is the common part of join nodes. the first child is outer
 * (left) and the second one is inner (right). joinQual decides matching
 * and otherQual filters joined rows. when targets is nil, output is outer
 * columns followed by inner ones, or outer columns only for semi and anti join.
 */
type joinPlanNode struct {
	*AbstractPlanNode
	joinType  JoinType
	joinQual  []expression.Expression
	otherQual []expression.Expression
	targets   []expression.Expression
}

func newJoinPlanNode(outer Plan, inner Plan, joinType JoinType, joinQual []expression.Expression,
	otherQual []expression.Expression, targets []expression.Expression, outputSchema *schema.Schema) *joinPlanNode {
	if outputSchema == nil {
		if joinType == SemiJoin || joinType == AntiJoin {
			outputSchema = outer.OutputSchema()
		} else {
			outputSchema = makeMergedOutputSchema(outer.OutputSchema(), inner.OutputSchema())
		}
	}
	return &joinPlanNode{newAbstractPlanNode(outputSchema, outer, inner), joinType, joinQual, otherQual, targets}
}

func (p *joinPlanNode) GetJoinType() JoinType { return p.joinType }

func (p *joinPlanNode) GetJoinQual() []expression.Expression { return p.joinQual }

func (p *joinPlanNode) GetOtherQual() []expression.Expression { return p.otherQual }

func (p *joinPlanNode) GetTargets() []expression.Expression { return p.targets }

/** @return the outer (left) plan node of the join */
func (p *joinPlanNode) GetLeftPlan() Plan { return p.GetChildAt(0) }

/** @return the inner (right) plan node of the join */
func (p *joinPlanNode) GetRightPlan() Plan { return p.GetChildAt(1) }
