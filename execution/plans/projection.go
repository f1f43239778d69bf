package plans

import (
	"fmt"

	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
)

// ProjectionPlanNode computes targets from the child row (OuterVar)
type ProjectionPlanNode struct {
	*AbstractPlanNode
	targets []expression.Expression
}

func NewProjectionPlanNode(child Plan, targets []expression.Expression, projectColumns *schema.Schema) *ProjectionPlanNode {
	return &ProjectionPlanNode{newAbstractPlanNode(projectColumns, child), targets}
}

func (p *ProjectionPlanNode) GetType() PlanType { return Projection }

func (p *ProjectionPlanNode) GetTargets() []expression.Expression { return p.targets }

func (p *ProjectionPlanNode) GetDebugStr() string {
	return fmt.Sprintf("Projection [%s]", exprListStr(p.targets))
}
