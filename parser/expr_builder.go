package parser

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/pingcap/parser/ast"
	"github.com/pingcap/parser/opcode"
	ptypes "github.com/pingcap/tidb/types"
	driver "github.com/pingcap/tidb/types/parser_driver"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/types"
)

var comparisonOps = map[opcode.Op]expression.ComparisonType{
	opcode.EQ: expression.Equal,
	opcode.NE: expression.NotEqual,
	opcode.LT: expression.LessThan,
	opcode.LE: expression.LessThanOrEqual,
	opcode.GT: expression.GreaterThan,
	opcode.GE: expression.GreaterThanOrEqual,
}

var arithmeticOps = map[opcode.Op]types.ArithmeticOp{
	opcode.Plus:  types.OpAdd,
	opcode.Minus: types.OpSubtract,
	opcode.Mul:   types.OpMultiply,
	opcode.Div:   types.OpDivide,
	opcode.Mod:   types.OpModulo,
}

// exprBuilder converts AST of an expression to the expression tree
type exprBuilder struct {
	scope *Scope
	funcs *expression.FunctionRegistry
}

func newExprBuilder(scope *Scope, funcs *expression.FunctionRegistry) *exprBuilder {
	if funcs == nil {
		funcs = expression.NewFunctionRegistry()
	}
	return &exprBuilder{scope, funcs}
}

func (b *exprBuilder) build(node ast.ExprNode) (expression.Expression, error) {
	switch n := node.(type) {
	case *driver.ValueExpr:
		val, err := datumToValue(n)
		if err != nil {
			return nil, err
		}
		return expression.NewConstantValue(val, val.ValueType()), nil
	case *ast.ColumnNameExpr:
		return b.scope.resolveColumn(n.Name.Table.L, n.Name.Name.O)
	case *ast.VariableExpr:
		if n.IsSystem || n.IsGlobal {
			return nil, common.NewInitError("system variable @@%s can't be used", n.Name)
		}
		return b.scope.resolveParam(n.Name)
	case *ast.ParenthesesExpr:
		return b.build(n.Expr)
	case *ast.BinaryOperationExpr:
		return b.buildBinary(n)
	case *ast.UnaryOperationExpr:
		return b.buildUnary(n)
	case *ast.IsNullExpr:
		arg, err := b.build(n.Expr)
		if err != nil {
			return nil, err
		}
		return expression.NewNullTest(arg, n.Not), nil
	case *ast.PatternInExpr:
		return b.buildIn(n)
	case *ast.BetweenExpr:
		return b.buildBetween(n)
	case *ast.CaseExpr:
		return b.buildCase(n)
	case *ast.FuncCallExpr:
		return b.buildFuncCall(n)
	}
	return nil, common.NewInitError("unsupported expression %T", node)
}

func (b *exprBuilder) buildList(nodes []ast.ExprNode) ([]expression.Expression, error) {
	ret := make([]expression.Expression, 0, len(nodes))
	for _, node := range nodes {
		e, err := b.build(node)
		if err != nil {
			return nil, err
		}
		ret = append(ret, e)
	}
	return ret, nil
}

func (b *exprBuilder) buildBinary(n *ast.BinaryOperationExpr) (expression.Expression, error) {
	l, err := b.build(n.L)
	if err != nil {
		return nil, err
	}
	r, err := b.build(n.R)
	if err != nil {
		return nil, err
	}
	if cmp, ok := comparisonOps[n.Op]; ok {
		return expression.NewComparison(l, r, cmp), nil
	}
	if op, ok := arithmeticOps[n.Op]; ok {
		return expression.NewArithmetic(l, r, op), nil
	}
	switch n.Op {
	case opcode.LogicAnd:
		return expression.NewLogicalOp(l, r, expression.AND), nil
	case opcode.LogicOr:
		return expression.NewLogicalOp(l, r, expression.OR), nil
	case opcode.NullEQ:
		// <=> is IS NOT DISTINCT FROM
		return expression.NewDistinctExpr(l, r, true), nil
	}
	return nil, common.NewInitError("unsupported operator %s", n.Op)
}

func (b *exprBuilder) buildUnary(n *ast.UnaryOperationExpr) (expression.Expression, error) {
	if n.Op == opcode.Minus {
		if lit, ok := n.V.(*driver.ValueExpr); ok {
			return negateLiteral(lit)
		}
	}
	arg, err := b.build(n.V)
	if err != nil {
		return nil, err
	}
	switch n.Op {
	case opcode.Not:
		return expression.NewLogicalOp(arg, nil, expression.NOT), nil
	case opcode.Plus:
		return arg, nil
	case opcode.Minus:
		zero := types.NewInteger(0)
		return expression.NewArithmetic(expression.NewConstantValue(zero, types.Integer), arg, types.OpSubtract), nil
	}
	return nil, common.NewInitError("unsupported operator %s", n.Op)
}

// x IN (a, b) is x = a OR x = b, so NULL in the list makes a miss NULL
func (b *exprBuilder) buildIn(n *ast.PatternInExpr) (expression.Expression, error) {
	if n.Sel != nil {
		return nil, common.NewInitError("IN with subquery is not supported")
	}
	arg, err := b.build(n.Expr)
	if err != nil {
		return nil, err
	}
	items, err := b.buildList(n.List)
	if err != nil {
		return nil, err
	}
	eqs := make([]expression.Expression, 0, len(items))
	for _, item := range items {
		eqs = append(eqs, expression.NewComparison(arg, item, expression.Equal))
	}
	var ret expression.Expression
	if len(eqs) == 1 {
		ret = eqs[0]
	} else {
		ret = expression.NewLogicalOpN(expression.OR, eqs...)
	}
	if n.Not {
		ret = expression.NewLogicalOp(ret, nil, expression.NOT)
	}
	return ret, nil
}

func (b *exprBuilder) buildBetween(n *ast.BetweenExpr) (expression.Expression, error) {
	exprs, err := b.buildList([]ast.ExprNode{n.Expr, n.Left, n.Right})
	if err != nil {
		return nil, err
	}
	ret := expression.NewLogicalOp(
		expression.NewComparison(exprs[0], exprs[1], expression.GreaterThanOrEqual),
		expression.NewComparison(exprs[0], exprs[2], expression.LessThanOrEqual),
		expression.AND)
	if n.Not {
		ret = expression.NewLogicalOp(ret, nil, expression.NOT)
	}
	return ret, nil
}

func (b *exprBuilder) buildCase(n *ast.CaseExpr) (expression.Expression, error) {
	var operand expression.Expression
	if n.Value != nil {
		var err error
		if operand, err = b.build(n.Value); err != nil {
			return nil, err
		}
	}
	whens := make([]expression.CaseWhenClause, 0, len(n.WhenClauses))
	for _, w := range n.WhenClauses {
		cond, err := b.build(w.Expr)
		if err != nil {
			return nil, err
		}
		if operand != nil {
			cond = expression.NewComparison(operand, cond, expression.Equal)
		}
		result, err := b.build(w.Result)
		if err != nil {
			return nil, err
		}
		whens = append(whens, expression.CaseWhenClause{Cond: cond, Result: result})
	}
	var def expression.Expression
	if n.ElseClause != nil {
		var err error
		if def, err = b.build(n.ElseClause); err != nil {
			return nil, err
		}
	}
	return expression.NewCaseExpr(whens, def), nil
}

func (b *exprBuilder) buildFuncCall(n *ast.FuncCallExpr) (expression.Expression, error) {
	args, err := b.buildList(n.Args)
	if err != nil {
		return nil, err
	}
	switch n.FnName.L {
	case "coalesce", "ifnull":
		return expression.NewCoalesce(args...), nil
	case "nullif":
		if len(args) != 2 {
			return nil, common.NewInitError("nullif takes 2 arguments but %d are given", len(args))
		}
		return expression.NewNullIf(args[0], args[1]), nil
	}
	fn, ok := b.funcs.Lookup(n.FnName.L)
	if !ok {
		return nil, common.NewInitError("function %s does not exist", n.FnName.O)
	}
	return expression.NewFuncCall(fn, args...), nil
}

// datumToValue converts literal. integers which fit int32 are Integer
func datumToValue(lit *driver.ValueExpr) (types.Value, error) {
	switch lit.Datum.Kind() {
	case ptypes.KindNull:
		return types.NewNull(types.Integer), nil
	case ptypes.KindInt64:
		return intValue(lit.Datum.GetInt64()), nil
	case ptypes.KindUint64:
		u := lit.Datum.GetUint64()
		if u > math.MaxInt64 {
			return types.Value{}, common.NewInitError("integer literal %d is out of range", u)
		}
		return intValue(int64(u)), nil
	case ptypes.KindFloat32, ptypes.KindFloat64:
		return types.NewFloat(float32(lit.Datum.GetFloat64())), nil
	case ptypes.KindMysqlDecimal:
		f, err := lit.Datum.GetMysqlDecimal().ToFloat64()
		if err != nil {
			return types.Value{}, errors.Wrapf(err, "invalid numeric literal %s", lit.Datum.GetMysqlDecimal())
		}
		return types.NewFloat(float32(f)), nil
	case ptypes.KindString, ptypes.KindBytes:
		return types.NewVarchar(lit.Datum.GetString()), nil
	}
	return types.Value{}, common.NewInitError("unsupported literal of kind %d", lit.Datum.Kind())
}

func intValue(v int64) types.Value {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return types.NewInteger(int32(v))
	}
	return types.NewBigInt(v)
}

func negateLiteral(lit *driver.ValueExpr) (expression.Expression, error) {
	val, err := datumToValue(lit)
	if err != nil {
		return nil, err
	}
	switch {
	case val.IsNull():
	case val.ValueType() == types.Integer:
		val = intValue(-int64(val.ToInteger()))
	case val.ValueType() == types.BigInt:
		val = types.NewBigInt(-val.ToBigInt())
	case val.ValueType() == types.Float:
		val = types.NewFloat(-val.ToFloat())
	default:
		return nil, common.NewInitError("can't negate %s", val.ValueType())
	}
	return expression.NewConstantValue(val, val.ValueType()), nil
}
