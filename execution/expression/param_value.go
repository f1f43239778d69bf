package expression

import (
	"github.com/ryogrid/samehada-executor/types"
)

type ParamKind int

const (
	// set by executor at runtime. e.g. nest loop parameter passed to inner side
	ParamExec ParamKind = iota
	// given from outside of the query
	ParamExtern
)

type ParamValue struct {
	*AbstractExpression
	kind    ParamKind
	paramId int
}

func NewParamValue(kind ParamKind, paramId int, colType types.TypeID) Expression {
	return &ParamValue{newAbstractExpression(colType), kind, paramId}
}

func (p *ParamValue) GetKind() ParamKind { return p.kind }

func (p *ParamValue) GetParamId() int { return p.paramId }

func (p *ParamValue) GetType() ExpressionType { return EXPRESSION_TYPE_PARAM }
