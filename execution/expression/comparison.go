// this code is from https://github.com/brunocalza/go-bustub
// there is license and copyright notice in licenses/go-bustub dir

package expression

import (
	"github.com/ryogrid/samehada-executor/types"
)

type ComparisonType int

/** ComparisonType represents the type of comparison that we want to perform. */
const (
	Equal ComparisonType = iota
	NotEqual
	LessThan
	LessThanOrEqual
	GreaterThan
	GreaterThanOrEqual
)

// name of builtin function which implements the comparison
func (c ComparisonType) FunctionName() string {
	return [...]string{"=", "<>", "<", "<=", ">", ">="}[c]
}

// Commute returns comparison which gives same result when operands are swapped
func (c ComparisonType) Commute() ComparisonType {
	switch c {
	case LessThan:
		return GreaterThan
	case LessThanOrEqual:
		return GreaterThanOrEqual
	case GreaterThan:
		return LessThan
	case GreaterThanOrEqual:
		return LessThanOrEqual
	}
	return c
}

/**
 * Comparison represents two expressions being compared with SQL semantics.
 * NULL operand makes the result NULL.
 */
type Comparison struct {
	*AbstractExpression
	comparisonType ComparisonType
}

func NewComparison(left Expression, right Expression, comparisonType ComparisonType) Expression {
	return &Comparison{newAbstractExpression(types.Boolean, left, right), comparisonType}
}

func (c *Comparison) GetComparisonType() ComparisonType {
	return c.comparisonType
}

func (c *Comparison) GetLeftSide() Expression { return c.children[0] }

func (c *Comparison) GetRightSide() Expression { return c.children[1] }

func (c *Comparison) GetType() ExpressionType { return EXPRESSION_TYPE_COMPARISON }
