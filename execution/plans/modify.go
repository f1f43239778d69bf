package plans

import (
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
)

/**
 * modifyPlanNode is the common part of Update and Delete. the child finds
 * target rows and ridCol of its output carries the RID of the row version
 * of rti to be modified. concurrent modifications of target rows are
 * resolved by re-evaluating the child with the newest version.
 */
type modifyPlanNode struct {
	*AbstractPlanNode
	rel       access.RelationID
	rti       int
	relSchema *schema.Schema
	ridCol    uint32
	returning bool
	// rows of other relations joined to the target. they are fetched again at re-evaluation
	auxRowMarks []RowMark
}

func newModifyPlanNode(child Plan, rel access.RelationID, rti int, relSchema *schema.Schema, ridCol uint32) *modifyPlanNode {
	return &modifyPlanNode{newAbstractPlanNode(relSchema, child), rel, rti, relSchema, ridCol, false, nil}
}

func (p *modifyPlanNode) GetRelation() access.RelationID { return p.rel }

func (p *modifyPlanNode) GetRTI() int { return p.rti }

func (p *modifyPlanNode) GetRelationSchema() *schema.Schema { return p.relSchema }

func (p *modifyPlanNode) GetRIDCol() uint32 { return p.ridCol }

func (p *modifyPlanNode) IsReturning() bool { return p.returning }

// RowMark is the lock which the node takes on target rows
func (p *modifyPlanNode) rowMark(mode access.RowLockMode) RowMark {
	return RowMark{Rti: p.rti, Rel: p.rel, Mode: mode, Wait: access.WaitBlock, RIDCol: p.ridCol}
}

func (p *modifyPlanNode) GetAuxRowMarks() []RowMark { return p.auxRowMarks }
