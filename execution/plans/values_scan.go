package plans

import (
	"fmt"

	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
)

// ValuesScanPlanNode returns rows computed from constant expressions, like VALUES (...), (...)
type ValuesScanPlanNode struct {
	*AbstractPlanNode
	rows [][]expression.Expression
}

func NewValuesScanPlanNode(outputSchema *schema.Schema, rows [][]expression.Expression) *ValuesScanPlanNode {
	return &ValuesScanPlanNode{newAbstractPlanNode(outputSchema), rows}
}

func (p *ValuesScanPlanNode) GetType() PlanType { return ValuesScan }

func (p *ValuesScanPlanNode) GetRows() [][]expression.Expression { return p.rows }

func (p *ValuesScanPlanNode) GetDebugStr() string {
	return fmt.Sprintf("ValuesScan [%d rows]", len(p.rows))
}
