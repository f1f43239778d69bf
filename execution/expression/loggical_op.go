package expression

import (
	"github.com/ryogrid/samehada-executor/types"
)

type LogicalOpType int

/** LogicalOpType represents the type of logical operation that we want to perform. */
const (
	AND LogicalOpType = iota
	OR
	NOT
)

func (t LogicalOpType) String() string {
	return [...]string{"AND", "OR", "NOT"}[t]
}

/**
 * LogicalOp represents expressions being evaluated with logical operator
 * under three valued logic. AND and OR take two or more arguments, NOT takes one.
 */
type LogicalOp struct {
	*AbstractExpression
	logicalOpType LogicalOpType
}

// if logicalOpType is "NOT", right value must be nil
func NewLogicalOp(left Expression, right Expression, logicalOpType LogicalOpType) Expression {
	if logicalOpType == NOT {
		return &LogicalOp{newAbstractExpression(types.Boolean, left), NOT}
	}
	return &LogicalOp{newAbstractExpression(types.Boolean, left, right), logicalOpType}
}

func NewLogicalOpN(logicalOpType LogicalOpType, args ...Expression) Expression {
	return &LogicalOp{newAbstractExpression(types.Boolean, args...), logicalOpType}
}

func (c *LogicalOp) GetLogicalOpType() LogicalOpType {
	return c.logicalOpType
}

func (c *LogicalOp) GetType() ExpressionType {
	return EXPRESSION_TYPE_LOGICAL_OP
}

// AppendLogicalCondition combines conditions with opType flattening same kind of operators
func AppendLogicalCondition(baseConds Expression, opType LogicalOpType, addCond Expression) Expression {
	if baseConds == nil {
		return addCond
	}
	if addCond == nil {
		return baseConds
	}
	args := make([]Expression, 0)
	for _, cond := range []Expression{baseConds, addCond} {
		if op, ok := cond.(*LogicalOp); ok && op.logicalOpType == opType {
			args = append(args, op.children...)
		} else {
			args = append(args, cond)
		}
	}
	return NewLogicalOpN(opType, args...)
}
