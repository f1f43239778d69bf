// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package plans

import (
	"fmt"

	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/types"
)

/**
 * InsertPlanNode identifies a table that should be inserted into.
 * The values to be inserted are either embedded into the InsertPlanNode itself, i.e. a "raw insert",
 * or will come from the child of the InsertPlanNode. InsertPlanNode has at most one child.
 */
type InsertPlanNode struct {
	*AbstractPlanNode
	rawValues [][]types.Value
	rel       access.RelationID
	relSchema *schema.Schema
	returning bool
}

// NewInsertPlanNode creates a new insert plan node for inserting raw values
func NewInsertPlanNode(rawValues [][]types.Value, rel access.RelationID, relSchema *schema.Schema) *InsertPlanNode {
	return &InsertPlanNode{newAbstractPlanNode(relSchema), rawValues, rel, relSchema, false}
}

// NewInsertSelectPlanNode creates insert plan node which inserts rows of child
func NewInsertSelectPlanNode(child Plan, rel access.RelationID, relSchema *schema.Schema) *InsertPlanNode {
	return &InsertPlanNode{newAbstractPlanNode(relSchema, child), nil, rel, relSchema, false}
}

// GetRelation returns the identifier of the table that should be inserted into
func (p *InsertPlanNode) GetRelation() access.RelationID { return p.rel }

func (p *InsertPlanNode) GetRelationSchema() *schema.Schema { return p.relSchema }

// GetRawValues returns the raw values to be inserted
func (p *InsertPlanNode) GetRawValues() [][]types.Value { return p.rawValues }

func (p *InsertPlanNode) GetType() PlanType { return Insert }

func (p *InsertPlanNode) IsReturning() bool { return p.returning }

// SetReturning makes the node return inserted rows
func (p *InsertPlanNode) SetReturning(returning bool) *InsertPlanNode {
	p.returning = returning
	return p
}

func (p *InsertPlanNode) GetDebugStr() string {
	return fmt.Sprintf("Insert [rel: %d raw rows: %d]", p.rel, len(p.rawValues))
}
