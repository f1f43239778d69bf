package expression

import (
	"github.com/ryogrid/samehada-executor/types"
)

// NullTest is IS NULL or IS NOT NULL. the result is never NULL.
type NullTest struct {
	*AbstractExpression
	isNot bool
}

func NewNullTest(arg Expression, isNot bool) Expression {
	return &NullTest{newAbstractExpression(types.Boolean, arg), isNot}
}

func (n *NullTest) IsNot() bool { return n.isNot }

func (n *NullTest) GetType() ExpressionType { return EXPRESSION_TYPE_NULL_TEST }

// DistinctExpr is IS DISTINCT FROM or IS NOT DISTINCT FROM. NULL is regarded as a value.
type DistinctExpr struct {
	*AbstractExpression
	isNot bool
}

func NewDistinctExpr(left Expression, right Expression, isNot bool) Expression {
	return &DistinctExpr{newAbstractExpression(types.Boolean, left, right), isNot}
}

func (d *DistinctExpr) IsNot() bool { return d.isNot }

func (d *DistinctExpr) GetType() ExpressionType { return EXPRESSION_TYPE_DISTINCT }
