package parser

import (
	"github.com/cockroachdb/errors"
	"github.com/pingcap/parser"
	"github.com/pingcap/parser/ast"
	"github.com/pingcap/parser/opcode"
	_ "github.com/pingcap/tidb/types/parser_driver"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/expression"
)

/**
 * ExprParser reads expressions written in SQL and builds expression trees
 * whose column references are resolved with a Scope. functions other than
 * the special forms are looked up in funcs.
 * ExprParser is not safe for concurrent use.
 */
type ExprParser struct {
	p     *parser.Parser
	funcs *expression.FunctionRegistry
}

// NewExprParser creates parser. nil funcs means the builtin functions
func NewExprParser(funcs *expression.FunctionRegistry) *ExprParser {
	return &ExprParser{parser.New(), funcs}
}

func (ep *ExprParser) parseSelect(sqlStr string) (*ast.SelectStmt, error) {
	stmt, err := ep.p.ParseOneStmt(sqlStr, "", "")
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "syntax error"), common.ErrInitialization)
	}
	sel, ok := stmt.(*ast.SelectStmt)
	if !ok {
		return nil, common.NewInitError("%q is not an expression", sqlStr)
	}
	return sel, nil
}

// ParseExpression builds one expression like "price * 2 + 1"
func (ep *ExprParser) ParseExpression(text string, scope *Scope) (expression.Expression, error) {
	exprs, _, err := ep.ParseTargetList(text, scope)
	if err != nil {
		return nil, err
	}
	if len(exprs) != 1 {
		return nil, common.NewInitError("%q has %d expressions", text, len(exprs))
	}
	return exprs[0], nil
}

/**
 * ParseQual builds qual list from a predicate like "a > 1 AND b IS NULL".
 * top level AND is split into list elements, which are implicitly ANDed.
 */
func (ep *ExprParser) ParseQual(text string, scope *Scope) ([]expression.Expression, error) {
	sel, err := ep.parseSelect("SELECT * FROM dual_ WHERE " + text)
	if err != nil {
		return nil, err
	}
	b := newExprBuilder(scope, ep.funcs)
	ret := make([]expression.Expression, 0)
	for _, conj := range splitConjunction(sel.Where, nil) {
		e, err := b.build(conj)
		if err != nil {
			return nil, err
		}
		ret = append(ret, e)
	}
	return ret, nil
}

/**
 * ParseTargetList builds expressions of a select list like "id, price * 2 AS doubled"
 * and returns output column names with them.
 */
func (ep *ExprParser) ParseTargetList(text string, scope *Scope) ([]expression.Expression, []string, error) {
	sel, err := ep.parseSelect("SELECT " + text)
	if err != nil {
		return nil, nil, err
	}
	b := newExprBuilder(scope, ep.funcs)
	exprs := make([]expression.Expression, 0, len(sel.Fields.Fields))
	names := make([]string, 0, len(sel.Fields.Fields))
	for _, field := range sel.Fields.Fields {
		if field.WildCard != nil {
			return nil, nil, common.NewInitError("* is not allowed in target list")
		}
		e, err := b.build(field.Expr)
		if err != nil {
			return nil, nil, err
		}
		exprs = append(exprs, e)
		names = append(names, targetName(field))
	}
	return exprs, names, nil
}

func splitConjunction(node ast.ExprNode, acc []ast.ExprNode) []ast.ExprNode {
	switch n := node.(type) {
	case *ast.BinaryOperationExpr:
		if n.Op == opcode.LogicAnd {
			return splitConjunction(n.R, splitConjunction(n.L, acc))
		}
	case *ast.ParenthesesExpr:
		return splitConjunction(n.Expr, acc)
	}
	return append(acc, node)
}

func targetName(field *ast.SelectField) string {
	if field.AsName.O != "" {
		return field.AsName.O
	}
	if col, ok := field.Expr.(*ast.ColumnNameExpr); ok {
		return col.Name.Name.O
	}
	return "?column?"
}

// ParseExpression parses text with the builtin functions
func ParseExpression(text string, scope *Scope) (expression.Expression, error) {
	return NewExprParser(nil).ParseExpression(text, scope)
}

// ParseQual parses predicate text with the builtin functions
func ParseQual(text string, scope *Scope) ([]expression.Expression, error) {
	return NewExprParser(nil).ParseQual(text, scope)
}

// ParseTargetList parses select list text with the builtin functions
func ParseTargetList(text string, scope *Scope) ([]expression.Expression, []string, error) {
	return NewExprParser(nil).ParseTargetList(text, scope)
}
