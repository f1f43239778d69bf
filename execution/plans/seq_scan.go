package plans

import (
	"fmt"

	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
)

/**
 * SeqScanPlanNode scans all visible rows of a relation. qual and targets
 * reference the row with expression.ScanVar. when targets is nil, rows are
 * returned as stored and output schema is the one of the relation.
 */
type SeqScanPlanNode struct {
	*AbstractPlanNode
	rel access.RelationID
	// range table index. row marks and re-evaluation refer the scan by it
	rti       int
	relSchema *schema.Schema
	qual      []expression.Expression
	targets   []expression.Expression
	// pages are dealt to workers when it runs under Gather
	parallel bool
}

func NewSeqScanPlanNode(rel access.RelationID, rti int, relSchema *schema.Schema, qual []expression.Expression,
	targets []expression.Expression, outputSchema *schema.Schema) *SeqScanPlanNode {
	if outputSchema == nil {
		outputSchema = relSchema
	}
	return &SeqScanPlanNode{newAbstractPlanNode(outputSchema), rel, rti, relSchema, qual, targets, false}
}

func (p *SeqScanPlanNode) GetType() PlanType { return SeqScan }

func (p *SeqScanPlanNode) GetRelation() access.RelationID { return p.rel }

func (p *SeqScanPlanNode) GetRTI() int { return p.rti }

func (p *SeqScanPlanNode) GetRelationSchema() *schema.Schema { return p.relSchema }

func (p *SeqScanPlanNode) GetQual() []expression.Expression { return p.qual }

func (p *SeqScanPlanNode) GetTargets() []expression.Expression { return p.targets }

func (p *SeqScanPlanNode) IsParallel() bool { return p.parallel }

// SetParallel makes the scan read only its share of pages when it runs in a Gather worker
func (p *SeqScanPlanNode) SetParallel(parallel bool) *SeqScanPlanNode {
	p.parallel = parallel
	return p
}

func (p *SeqScanPlanNode) GetDebugStr() string {
	return fmt.Sprintf("SeqScan [rel: %d rti: %d qual: %s]", p.rel, p.rti, exprListStr(p.qual))
}
