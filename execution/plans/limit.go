// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package plans

import (
	"fmt"
	"math"
)

// no limit
const LimitAll = math.MaxUint64

type LimitPlanNode struct {
	*AbstractPlanNode
	limit  uint64
	offset uint64
}

func NewLimitPlanNode(child Plan, limit uint64, offset uint64) *LimitPlanNode {
	return &LimitPlanNode{newAbstractPlanNode(child.OutputSchema(), child), limit, offset}
}

func (p *LimitPlanNode) GetLimit() uint64 { return p.limit }

func (p *LimitPlanNode) GetOffset() uint64 { return p.offset }

func (p *LimitPlanNode) GetType() PlanType { return Limit }

func (p *LimitPlanNode) GetDebugStr() string {
	return fmt.Sprintf("Limit [limit: %d offset: %d]", p.limit, p.offset)
}
