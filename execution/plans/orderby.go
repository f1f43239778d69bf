package plans

import (
	"fmt"

	"github.com/ryogrid/samehada-executor/common"
)

// /** OrderbyType enumerates all the possible sort orders in our system. */
type OrderbyType int32

/** The type of the sort order. */
const (
	ASC OrderbyType = iota
	DESC
)

func (t OrderbyType) String() string {
	return [...]string{"ASC", "DESC"}[t]
}

/**
 * OrderbyPlanNode represents the ORDER BY clause of SQL.
 * NULL is sorted as larger than any other value unless nullsFirst is set.
 */
type OrderbyPlanNode struct {
	*AbstractPlanNode
	col_idxs_      []uint32
	orderby_types_ []OrderbyType
	nulls_first_   []bool
}

/**
 * Creates a new OrderbyPlanNode.
 * @param child the child plan to sort data over. output schema is same with it
 * @param col_idxs the specified columns idx at ORDER BY clause
 * @param order_types the order types of sorting with specifed columns
 * @param nulls_first whether NULL comes first for each column. nil means false for all
 */
func NewOrderbyPlanNode(child Plan, col_idxs []uint32, order_types []OrderbyType, nulls_first []bool) *OrderbyPlanNode {
	common.SH_Assert(len(col_idxs) == len(order_types), "count of sort columns and orders differ")
	if nulls_first == nil {
		nulls_first = make([]bool, len(col_idxs))
	}
	return &OrderbyPlanNode{newAbstractPlanNode(child.OutputSchema(), child), col_idxs, order_types, nulls_first}
}

func (p *OrderbyPlanNode) GetType() PlanType { return Orderby }

/** @return the child of this orderby plan node */
func (p *OrderbyPlanNode) GetChildPlan() Plan {
	common.SH_Assert(len(p.GetChildren()) == 1, "OrderBy expected to only have one child.")
	return p.GetChildAt(0)
}

/** @return column indexes to deside sort order */
func (p *OrderbyPlanNode) GetColIdxs() []uint32 { return p.col_idxs_ }

/** @return the Order type ASC or DESC */
func (p *OrderbyPlanNode) GetOrderbyTypes() []OrderbyType { return p.orderby_types_ }

func (p *OrderbyPlanNode) GetNullsFirst() []bool { return p.nulls_first_ }

func (p *OrderbyPlanNode) GetDebugStr() string {
	return fmt.Sprintf("Orderby [cols: %v orders: %v]", p.col_idxs_, p.orderby_types_)
}
