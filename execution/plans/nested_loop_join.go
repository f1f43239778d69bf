package plans

import (
	"fmt"

	"github.com/notEpsilon/go-pair"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
)

/**
 * NestedLoopJoinPlanNode rescans the inner plan for each outer row.
 * each nest param is a pair of exec param id and outer column. the param
 * is set from the outer row before the inner plan is rescanned, so the
 * inner plan can reference outer values with expression.ParamExec.
 */
type NestedLoopJoinPlanNode struct {
	*joinPlanNode
	nestParams []*pair.Pair[int, uint32]
}

func NewNestedLoopJoinPlanNode(outer Plan, inner Plan, joinType JoinType, joinQual []expression.Expression,
	otherQual []expression.Expression, nestParams []*pair.Pair[int, uint32],
	targets []expression.Expression, outputSchema *schema.Schema) *NestedLoopJoinPlanNode {
	return &NestedLoopJoinPlanNode{newJoinPlanNode(outer, inner, joinType, joinQual, otherQual, targets, outputSchema), nestParams}
}

func (p *NestedLoopJoinPlanNode) GetType() PlanType { return NestedLoopJoin }

func (p *NestedLoopJoinPlanNode) GetNestParams() []*pair.Pair[int, uint32] { return p.nestParams }

func (p *NestedLoopJoinPlanNode) GetDebugStr() string {
	return fmt.Sprintf("NestedLoopJoin [%s on: %s params: %d]", p.joinType, exprListStr(p.joinQual), len(p.nestParams))
}
