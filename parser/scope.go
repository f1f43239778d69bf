package parser

import (
	"math"
	"strings"

	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/types"
)

type scopeRel struct {
	name  string
	varno expression.Varno
	desc  *schema.Schema
}

type scopeParam struct {
	kind expression.ParamKind
	id   int
	typ  types.TypeID
}

/**
 * Scope tells which tuple a column name of expression text refers to.
 * each relation is visible under its name and is read from the slot of
 * its varno. "@name" variables are resolved to parameters.
 */
type Scope struct {
	rels   []scopeRel
	params map[string]scopeParam
}

func NewScope() *Scope {
	return &Scope{params: make(map[string]scopeParam)}
}

// Add makes columns of desc visible as name.col, and as col when no other relation has it
func (s *Scope) Add(name string, varno expression.Varno, desc *schema.Schema) *Scope {
	s.rels = append(s.rels, scopeRel{strings.ToLower(name), varno, desc})
	return s
}

// AddParam makes @name refer to parameter id of kind
func (s *Scope) AddParam(name string, kind expression.ParamKind, id int, typ types.TypeID) *Scope {
	s.params[strings.ToLower(name)] = scopeParam{kind, id, typ}
	return s
}

// Binding returns the binding which compiles expressions parsed with s
func (s *Scope) Binding() *expression.Binding {
	ret := expression.NewBinding()
	for _, rel := range s.rels {
		ret.Bind(rel.varno, rel.desc)
	}
	return ret
}

func (s *Scope) resolveColumn(table string, col string) (expression.Expression, error) {
	var found expression.Expression
	for _, rel := range s.rels {
		if table != "" && rel.name != table {
			continue
		}
		idx := rel.desc.GetColIndex(col)
		if idx == math.MaxUint32 {
			continue
		}
		if found != nil {
			return nil, common.NewInitError("column reference %q is ambiguous", col)
		}
		found = expression.NewColumnValue(rel.varno, idx, rel.desc.GetColumn(idx).GetType())
	}
	if found == nil {
		if table != "" {
			return nil, common.NewInitError("column %s.%s does not exist", table, col)
		}
		return nil, common.NewInitError("column %q does not exist", col)
	}
	return found, nil
}

func (s *Scope) resolveParam(name string) (expression.Expression, error) {
	p, ok := s.params[strings.ToLower(name)]
	if !ok {
		return nil, common.NewInitError("parameter @%s is not defined", name)
	}
	return expression.NewParamValue(p.kind, p.id, p.typ), nil
}
