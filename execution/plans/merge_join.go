package plans

import (
	"fmt"

	"github.com/notEpsilon/go-pair"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
)

/**
 * MergeJoinPlanNode joins two inputs which are sorted ascending on merge keys
 * (NULLs last). only inner join is supported. inner rows of a key group are
 * read again for each outer row of the same key using mark and restore.
 */
type MergeJoinPlanNode struct {
	*joinPlanNode
	mergeKeys []*pair.Pair[uint32, uint32]
}

func NewMergeJoinPlanNode(outer Plan, inner Plan, mergeKeys []*pair.Pair[uint32, uint32], joinQual []expression.Expression,
	otherQual []expression.Expression, targets []expression.Expression, outputSchema *schema.Schema) *MergeJoinPlanNode {
	common.SH_Assert(len(mergeKeys) > 0, "merge join needs at least one merge key")
	return &MergeJoinPlanNode{newJoinPlanNode(outer, inner, InnerJoin, joinQual, otherQual, targets, outputSchema), mergeKeys}
}

func (p *MergeJoinPlanNode) GetType() PlanType { return MergeJoin }

func (p *MergeJoinPlanNode) GetMergeKeys() []*pair.Pair[uint32, uint32] { return p.mergeKeys }

func (p *MergeJoinPlanNode) GetDebugStr() string {
	keys := make([]string, 0, len(p.mergeKeys))
	for _, k := range p.mergeKeys {
		keys = append(keys, fmt.Sprintf("%d=%d", k.First, k.Second))
	}
	return fmt.Sprintf("MergeJoin [keys: %v qual: %s]", keys, exprListStr(p.joinQual))
}
