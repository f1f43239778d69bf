package plans

import (
	"fmt"

	"github.com/notEpsilon/go-pair"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/container/hash"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
)

/**
 * HashJoinPlanNode is used to represent performing a hash join between two children plan nodes.
 * the inner (right) child is used to build the hash table, and the outer (left)
 * child is used in probing the hash table. hash keys are pairs of outer column
 * and inner column which are compared by SQL equality, so NULL keys never match.
 * joinQual holds conditions other than hash keys.
 */
type HashJoinPlanNode struct {
	*joinPlanNode
	hashKeys   []*pair.Pair[uint32, uint32]
	collations []hash.Collation
}

func NewHashJoinPlanNode(outer Plan, inner Plan, joinType JoinType, hashKeys []*pair.Pair[uint32, uint32],
	collations []hash.Collation, joinQual []expression.Expression, otherQual []expression.Expression,
	targets []expression.Expression, outputSchema *schema.Schema) *HashJoinPlanNode {
	common.SH_Assert(len(hashKeys) > 0, "hash join needs at least one hash key")
	if collations == nil {
		collations = make([]hash.Collation, len(hashKeys))
	}
	return &HashJoinPlanNode{newJoinPlanNode(outer, inner, joinType, joinQual, otherQual, targets, outputSchema), hashKeys, collations}
}

func (p *HashJoinPlanNode) GetType() PlanType { return HashJoin }

func (p *HashJoinPlanNode) GetHashKeys() []*pair.Pair[uint32, uint32] { return p.hashKeys }

func (p *HashJoinPlanNode) GetOuterKeys() []uint32 {
	ret := make([]uint32, 0, len(p.hashKeys))
	for _, k := range p.hashKeys {
		ret = append(ret, k.First)
	}
	return ret
}

func (p *HashJoinPlanNode) GetInnerKeys() []uint32 {
	ret := make([]uint32, 0, len(p.hashKeys))
	for _, k := range p.hashKeys {
		ret = append(ret, k.Second)
	}
	return ret
}

func (p *HashJoinPlanNode) GetCollations() []hash.Collation { return p.collations }

func (p *HashJoinPlanNode) GetDebugStr() string {
	return fmt.Sprintf("HashJoin [%s keys: %v qual: %s]", p.joinType, p.GetOuterKeys(), exprListStr(p.joinQual))
}
