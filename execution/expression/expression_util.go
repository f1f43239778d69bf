package expression

import (
	"fmt"
	"strings"

	"github.com/ryogrid/samehada-executor/types"
)

// PrintExpTree returns text form of expression tree appended to inputStr
func PrintExpTree(exp Expression, inputStr string) string {
	retStr := inputStr

	childTraverse := func(exp Expression, sep string) string {
		strs := make([]string, 0)
		for _, child := range exp.GetChildren() {
			strs = append(strs, PrintExpTree(child, ""))
		}
		return strings.Join(strs, sep)
	}

	switch e := exp.(type) {
	case nil:
		return retStr + "<nil>"
	case *ColumnValue:
		return retStr + e.String()
	case *ConstantValue:
		if e.value.ValueType() == types.Varchar && !e.value.IsNull() {
			return retStr + "'" + e.value.ToVarchar() + "'"
		}
		return retStr + e.value.String()
	case *ParamValue:
		if e.kind == ParamExtern {
			return retStr + fmt.Sprintf("$%d", e.paramId+1)
		}
		return retStr + fmt.Sprintf("$exec%d", e.paramId)
	case *Comparison:
		return retStr + "(" + childTraverse(exp, " "+e.comparisonType.FunctionName()+" ") + ")"
	case *Arithmetic:
		return retStr + "(" + childTraverse(exp, " "+e.op.String()+" ") + ")"
	case *LogicalOp:
		if e.logicalOpType == NOT {
			return retStr + "NOT " + childTraverse(exp, "")
		}
		return retStr + "(" + childTraverse(exp, " "+e.logicalOpType.String()+" ") + ")"
	case *NullTest:
		if e.isNot {
			return retStr + childTraverse(exp, "") + " IS NOT NULL"
		}
		return retStr + childTraverse(exp, "") + " IS NULL"
	case *DistinctExpr:
		if e.isNot {
			return retStr + "(" + childTraverse(exp, " IS NOT DISTINCT FROM ") + ")"
		}
		return retStr + "(" + childTraverse(exp, " IS DISTINCT FROM ") + ")"
	case *FuncCall:
		return retStr + e.fn.Name + "(" + childTraverse(exp, ", ") + ")"
	case *CaseExpr:
		var sb strings.Builder
		sb.WriteString("CASE")
		for _, w := range e.whens {
			sb.WriteString(" WHEN " + PrintExpTree(w.Cond, "") + " THEN " + PrintExpTree(w.Result, ""))
		}
		if e.defaultResult != nil {
			sb.WriteString(" ELSE " + PrintExpTree(e.defaultResult, ""))
		}
		sb.WriteString(" END")
		return retStr + sb.String()
	case *Coalesce:
		return retStr + "COALESCE(" + childTraverse(exp, ", ") + ")"
	case *NullIf:
		return retStr + "NULLIF(" + childTraverse(exp, ", ") + ")"
	case *AggregateValueExpression:
		if e.is_group_by_term_ {
			return retStr + fmt.Sprintf("group#%d", e.term_idx_)
		}
		return retStr + fmt.Sprintf("agg#%d", e.term_idx_)
	}
	panic("illegal type expression object is passed!")
}

// ColumnRefs returns all column references in the tree in depth first order
func ColumnRefs(exp Expression) []*ColumnValue {
	ret := make([]*ColumnValue, 0)
	var walk func(e Expression)
	walk = func(e Expression) {
		if e == nil {
			return
		}
		if col, ok := e.(*ColumnValue); ok {
			ret = append(ret, col)
		}
		for _, child := range e.GetChildren() {
			walk(child)
		}
	}
	walk(exp)
	return ret
}

// ReplaceVarno returns copy of the tree whose column references of from are changed to to
func ReplaceVarno(exp Expression, from Varno, to Varno) Expression {
	switch e := exp.(type) {
	case nil:
		return nil
	case *ColumnValue:
		if e.varno == from {
			return NewColumnValue(to, e.colIndex, e.ret_type)
		}
		return e
	case *CaseExpr:
		whens := make([]CaseWhenClause, len(e.whens))
		for i, w := range e.whens {
			whens[i] = CaseWhenClause{ReplaceVarno(w.Cond, from, to), ReplaceVarno(w.Result, from, to)}
		}
		return NewCaseExpr(whens, ReplaceVarno(e.defaultResult, from, to))
	}
	if len(exp.GetChildren()) == 0 {
		return exp
	}
	children := make([]Expression, len(exp.GetChildren()))
	for i, child := range exp.GetChildren() {
		children[i] = ReplaceVarno(child, from, to)
	}
	switch e := exp.(type) {
	case *Comparison:
		return NewComparison(children[0], children[1], e.comparisonType)
	case *Arithmetic:
		return NewArithmetic(children[0], children[1], e.op)
	case *LogicalOp:
		return NewLogicalOpN(e.logicalOpType, children...)
	case *NullTest:
		return NewNullTest(children[0], e.isNot)
	case *DistinctExpr:
		return NewDistinctExpr(children[0], children[1], e.isNot)
	case *FuncCall:
		return NewFuncCall(e.fn, children...)
	case *Coalesce:
		return NewCoalesce(children...)
	case *NullIf:
		return NewNullIf(children[0], children[1])
	}
	return exp
}

// ExecParamRefs returns ids of exec params referenced in the tree
func ExecParamRefs(exp Expression) []int {
	ret := make([]int, 0)
	var walk func(e Expression)
	walk = func(e Expression) {
		if e == nil {
			return
		}
		if param, ok := e.(*ParamValue); ok && param.kind == ParamExec {
			ret = append(ret, param.paramId)
		}
		for _, child := range e.GetChildren() {
			walk(child)
		}
	}
	walk(exp)
	return ret
}
