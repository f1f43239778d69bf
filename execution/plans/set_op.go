package plans

import (
	"fmt"

	"github.com/ryogrid/samehada-executor/common"
)

type SetOpCommand int32

const (
	SetOpIntersect SetOpCommand = iota
	SetOpIntersectAll
	SetOpExcept
	SetOpExceptAll
)

func (c SetOpCommand) String() string {
	return [...]string{"INTERSECT", "INTERSECT ALL", "EXCEPT", "EXCEPT ALL"}[c]
}

/**
 * SetOpPlanNode computes INTERSECT or EXCEPT of two inputs of same shape
 * with hashing. all columns are compared and NULLs are treated as equal.
 */
type SetOpPlanNode struct {
	*AbstractPlanNode
	cmd       SetOpCommand
	numGroups uint32
}

func NewSetOpPlanNode(cmd SetOpCommand, left Plan, right Plan, numGroups uint32) *SetOpPlanNode {
	common.SH_Assert(left.OutputSchema().Equals(right.OutputSchema()), "inputs of set operation have different shapes")
	return &SetOpPlanNode{newAbstractPlanNode(left.OutputSchema(), left, right), cmd, numGroups}
}

func (p *SetOpPlanNode) GetType() PlanType { return SetOp }

func (p *SetOpPlanNode) GetCommand() SetOpCommand { return p.cmd }

func (p *SetOpPlanNode) GetNumGroups() uint32 { return p.numGroups }

func (p *SetOpPlanNode) GetDebugStr() string {
	return fmt.Sprintf("SetOp [%s]", p.cmd)
}
