package plans

import (
	"fmt"

	"github.com/ryogrid/samehada-executor/execution/expression"
)

// do selection according to WHERE clause for Plan(Executor) which has no selection functionality

type SelectionPlanNode struct {
	*AbstractPlanNode
	// implicitly ANDed conditions on the child row (OuterVar)
	predicate []expression.Expression
}

func NewSelectionPlanNode(child Plan, predicate ...expression.Expression) *SelectionPlanNode {
	return &SelectionPlanNode{newAbstractPlanNode(child.OutputSchema(), child), predicate}
}

func (p *SelectionPlanNode) GetType() PlanType { return Selection }

func (p *SelectionPlanNode) GetPredicate() []expression.Expression { return p.predicate }

func (p *SelectionPlanNode) GetDebugStr() string {
	return fmt.Sprintf("Selection [%s]", exprListStr(p.predicate))
}
