package plans

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
)

type PlanType int

const (
	SeqScan PlanType = iota
	ValuesScan
	Selection
	Projection
	Limit
	LockRows
	Material
	Orderby
	NestedLoopJoin
	HashJoin
	MergeJoin
	Aggregation
	SetOp
	Gather
	Insert
	Update
	Delete
	numPlanTypes
)

func (t PlanType) String() string {
	return [...]string{"SeqScan", "ValuesScan", "Selection", "Projection", "Limit", "LockRows",
		"Material", "Orderby", "NestedLoopJoin", "HashJoin", "MergeJoin", "Aggregation", "SetOp",
		"Gather", "Insert", "Update", "Delete"}[t]
}

/**
 * Plan is a node of immutable plan tree which planner hands over to the executor.
 * expressions in a node reference the tuple of its scan with expression.ScanVar,
 * the output of the first child with expression.OuterVar and the output of the
 * second child with expression.InnerVar.
 */
type Plan interface {
	OutputSchema() *schema.Schema
	GetChildAt(childIndex uint32) Plan
	GetChildren() []Plan
	GetType() PlanType
	// unique id in the plan tree which is assigned by FinalizePlan
	GetPlanID() int
	// exec params which are set outside of this subtree and used in it
	GetExtParam() *roaring.Bitmap
	// exec params which affect this subtree
	GetAllParam() *roaring.Bitmap
	// true after FinalizePlan has been applied to a tree containing the node
	IsFinalized() bool
	GetDebugStr() string

	base() *AbstractPlanNode
}

type AbstractPlanNode struct {
	/**
	 * The schema for the output of this plan node. In the volcano model, every plan node will spit out tuples,
	 * and this tells you what schema this plan node's tuples will have.
	 */
	outputSchema *schema.Schema
	/** The children of this plan node. */
	children []Plan

	planID    int
	extParam  *roaring.Bitmap
	allParam  *roaring.Bitmap
	finalized bool
}

func newAbstractPlanNode(outputSchema *schema.Schema, children ...Plan) *AbstractPlanNode {
	return &AbstractPlanNode{
		outputSchema: outputSchema,
		children:     children,
		extParam:     roaring.New(),
		allParam:     roaring.New(),
	}
}

func (p *AbstractPlanNode) OutputSchema() *schema.Schema { return p.outputSchema }

func (p *AbstractPlanNode) GetChildAt(childIndex uint32) Plan {
	if childIndex >= uint32(len(p.children)) {
		return nil
	}
	return p.children[childIndex]
}

func (p *AbstractPlanNode) GetChildren() []Plan { return p.children }

func (p *AbstractPlanNode) GetPlanID() int { return p.planID }

func (p *AbstractPlanNode) GetExtParam() *roaring.Bitmap { return p.extParam }

func (p *AbstractPlanNode) GetAllParam() *roaring.Bitmap { return p.allParam }

func (p *AbstractPlanNode) IsFinalized() bool { return p.finalized }

func (p *AbstractPlanNode) base() *AbstractPlanNode { return p }
