package plans

import (
	"fmt"

	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
)

/**
 * DeletePlanNode deletes rows found by the child.
 */
type DeletePlanNode struct {
	*modifyPlanNode
}

func NewDeletePlanNode(child Plan, rel access.RelationID, rti int, relSchema *schema.Schema, ridCol uint32) *DeletePlanNode {
	return &DeletePlanNode{newModifyPlanNode(child, rel, rti, relSchema, ridCol)}
}

func (p *DeletePlanNode) GetType() PlanType { return Delete }

// SetReturning makes the node return deleted rows
func (p *DeletePlanNode) SetReturning(returning bool) *DeletePlanNode {
	p.returning = returning
	return p
}

// SetAuxRowMarks gives the marks of non-target relations read by the child
func (p *DeletePlanNode) SetAuxRowMarks(marks []RowMark) *DeletePlanNode {
	p.auxRowMarks = marks
	return p
}

func (p *DeletePlanNode) GetRowMark() RowMark { return p.rowMark(access.LockExclusive) }

func (p *DeletePlanNode) GetDebugStr() string {
	return fmt.Sprintf("Delete [rel: %d]", p.rel)
}
