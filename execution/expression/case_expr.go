package expression

import (
	"github.com/ryogrid/samehada-executor/types"
)

type CaseWhenClause struct {
	Cond   Expression
	Result Expression
}

/**
 * CaseExpr is CASE WHEN cond THEN result ... ELSE default END.
 * conditions are evaluated in order and only the selected result is evaluated.
 * nil default means NULL.
 */
type CaseExpr struct {
	*AbstractExpression
	whens         []CaseWhenClause
	defaultResult Expression
}

func NewCaseExpr(whens []CaseWhenClause, defaultResult Expression) Expression {
	children := make([]Expression, 0, len(whens)*2+1)
	for _, w := range whens {
		children = append(children, w.Cond, w.Result)
	}
	if defaultResult != nil {
		children = append(children, defaultResult)
	}
	return &CaseExpr{newAbstractExpression(types.Invalid, children...), whens, defaultResult}
}

func (c *CaseExpr) GetWhens() []CaseWhenClause { return c.whens }

func (c *CaseExpr) GetDefault() Expression { return c.defaultResult }

func (c *CaseExpr) GetType() ExpressionType { return EXPRESSION_TYPE_CASE }

// Coalesce returns the first non-NULL argument. remaining arguments are not evaluated.
type Coalesce struct {
	*AbstractExpression
}

func NewCoalesce(args ...Expression) Expression {
	return &Coalesce{newAbstractExpression(types.Invalid, args...)}
}

func (c *Coalesce) GetType() ExpressionType { return EXPRESSION_TYPE_COALESCE }

// NullIf returns NULL if the arguments are equal, otherwise the first one
type NullIf struct {
	*AbstractExpression
}

func NewNullIf(left Expression, right Expression) Expression {
	return &NullIf{newAbstractExpression(types.Invalid, left, right)}
}

func (n *NullIf) GetType() ExpressionType { return EXPRESSION_TYPE_NULLIF }
