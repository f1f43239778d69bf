// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package expression

import (
	"github.com/ryogrid/samehada-executor/types"
)

type ExpressionType int

const (
	EXPRESSION_TYPE_COLUMN_VALUE ExpressionType = iota
	EXPRESSION_TYPE_CONSTANT_VALUE
	EXPRESSION_TYPE_PARAM
	EXPRESSION_TYPE_COMPARISON
	EXPRESSION_TYPE_ARITHMETIC
	EXPRESSION_TYPE_LOGICAL_OP
	EXPRESSION_TYPE_NULL_TEST
	EXPRESSION_TYPE_DISTINCT
	EXPRESSION_TYPE_FUNC_CALL
	EXPRESSION_TYPE_CASE
	EXPRESSION_TYPE_COALESCE
	EXPRESSION_TYPE_NULLIF
	EXPRESSION_TYPE_AGGREGATE_VALUE
)

/**
 * Expression interface is the base of all the expressions in the system.
 * Expressions are modeled as trees, i.e. every expression may have a variable number of children.
 * trees are immutable source of Program. they are never evaluated directly.
 */
type Expression interface {
	// nil is returned when child_idx is out of range
	GetChildAt(child_idx uint32) Expression
	GetChildren() []Expression
	// Invalid means that the type is decided by input descriptor (column reference)
	GetReturnType() types.TypeID
	GetType() ExpressionType
}

type AbstractExpression struct {
	/** The children of this expression. Note that the order of appearance of children may matter. */
	children []Expression
	/** The return type of this expression. */
	ret_type types.TypeID
}

func newAbstractExpression(ret_type types.TypeID, children ...Expression) *AbstractExpression {
	return &AbstractExpression{children, ret_type}
}

/** @return the child_idx'th child of this expression */
func (e *AbstractExpression) GetChildAt(child_idx uint32) Expression {
	if int(child_idx) >= len(e.children) {
		return nil
	}
	return e.children[child_idx]
}

/** @return the children of this expression, ordering may matter */
func (e *AbstractExpression) GetChildren() []Expression { return e.children }

/** @return the type of this expression if it were to be evaluated */
func (e *AbstractExpression) GetReturnType() types.TypeID { return e.ret_type }
