package plans

import (
	"fmt"

	"github.com/ryogrid/samehada-executor/storage/access"
)

/**
 * RowMark tells which scan of the child plan a row lock is taken on.
 * RIDCol is the child output column which carries the RID of the scanned
 * row (see expression.RowIDColumn).
 */
type RowMark struct {
	Rti    int
	Rel    access.RelationID
	Mode   access.RowLockMode
	Wait   access.WaitPolicy
	RIDCol uint32
}

func (m RowMark) String() string {
	return fmt.Sprintf("rti %d %s", m.Rti, m.Mode)
}

// LockRowsPlanNode locks rows returned by the child, like SELECT ... FOR UPDATE
type LockRowsPlanNode struct {
	*AbstractPlanNode
	rowMarks []RowMark
}

func NewLockRowsPlanNode(child Plan, rowMarks []RowMark) *LockRowsPlanNode {
	return &LockRowsPlanNode{newAbstractPlanNode(child.OutputSchema(), child), rowMarks}
}

func (p *LockRowsPlanNode) GetType() PlanType { return LockRows }

func (p *LockRowsPlanNode) GetRowMarks() []RowMark { return p.rowMarks }

func (p *LockRowsPlanNode) GetDebugStr() string {
	return fmt.Sprintf("LockRows %v", p.rowMarks)
}
