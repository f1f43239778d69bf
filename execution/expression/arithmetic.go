package expression

import (
	"github.com/ryogrid/samehada-executor/types"
)

// Arithmetic is binary arithmetic operator. it is compiled to strict builtin function.
type Arithmetic struct {
	*AbstractExpression
	op types.ArithmeticOp
}

// return type is promoted type of operands and decided at compile
func NewArithmetic(left Expression, right Expression, op types.ArithmeticOp) Expression {
	return &Arithmetic{newAbstractExpression(types.Invalid, left, right), op}
}

func (a *Arithmetic) GetOp() types.ArithmeticOp { return a.op }

func (a *Arithmetic) GetType() ExpressionType { return EXPRESSION_TYPE_ARITHMETIC }
