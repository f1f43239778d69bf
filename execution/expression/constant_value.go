// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package expression

import (
	"github.com/ryogrid/samehada-executor/types"
)

type ConstantValue struct {
	*AbstractExpression
	value types.Value
}

func NewConstantValue(value types.Value, colType types.TypeID) Expression {
	return &ConstantValue{newAbstractExpression(colType), value}
}

func (c *ConstantValue) GetValue() types.Value { return c.value }

func (c *ConstantValue) GetType() ExpressionType { return EXPRESSION_TYPE_CONSTANT_VALUE }
