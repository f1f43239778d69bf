package plans

import (
	"fmt"

	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
)

/**
 * UpdatePlanNode updates rows found by the child.
 * update_col_idxs[i] is set to the value of exprs[i], which can reference the
 * child row (OuterVar) and the current version of the row (OldVar).
 */
type UpdatePlanNode struct {
	*modifyPlanNode
	update_col_idxs []uint32
	exprs           []expression.Expression
}

func NewUpdatePlanNode(child Plan, rel access.RelationID, rti int, relSchema *schema.Schema, ridCol uint32,
	update_col_idxs []uint32, exprs []expression.Expression) *UpdatePlanNode {
	return &UpdatePlanNode{newModifyPlanNode(child, rel, rti, relSchema, ridCol), update_col_idxs, exprs}
}

func (p *UpdatePlanNode) GetType() PlanType { return Update }

func (p *UpdatePlanNode) GetUpdateColIdxs() []uint32 { return p.update_col_idxs }

func (p *UpdatePlanNode) GetExprs() []expression.Expression { return p.exprs }

// SetReturning makes the node return new versions of updated rows
func (p *UpdatePlanNode) SetReturning(returning bool) *UpdatePlanNode {
	p.returning = returning
	return p
}

// SetAuxRowMarks gives the marks of non-target relations read by the child
func (p *UpdatePlanNode) SetAuxRowMarks(marks []RowMark) *UpdatePlanNode {
	p.auxRowMarks = marks
	return p
}

func (p *UpdatePlanNode) GetRowMark() RowMark { return p.rowMark(access.LockNoKeyExclusive) }

func (p *UpdatePlanNode) GetDebugStr() string {
	return fmt.Sprintf("Update [rel: %d cols: %v set: %s]", p.rel, p.update_col_idxs, exprListStr(p.exprs))
}
