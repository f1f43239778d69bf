package expression

import (
	"github.com/ryogrid/samehada-executor/types"
)

// FuncCall is a call of resolved function
type FuncCall struct {
	*AbstractExpression
	fn *Function
}

func NewFuncCall(fn *Function, args ...Expression) Expression {
	return &FuncCall{newAbstractExpression(types.Invalid, args...), fn}
}

func (f *FuncCall) GetFunction() *Function { return f.fn }

func (f *FuncCall) GetType() ExpressionType { return EXPRESSION_TYPE_FUNC_CALL }
