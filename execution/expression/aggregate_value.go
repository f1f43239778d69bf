package expression

import (
	"github.com/ryogrid/samehada-executor/types"
)

/**
 * AggregateValueExpression reads a value of the group being emitted by an
 * aggregation node: the term_idx-th grouping column when is_group_by_term
 * is true, otherwise the finished result of the term_idx-th aggregate.
 * it is valid only in the targets and having qual of aggregation.
 */
type AggregateValueExpression struct {
	*AbstractExpression
	is_group_by_term_ bool
	term_idx_         uint32
}

func NewAggregateValueExpression(is_group_by_term bool, term_idx uint32, ret_type types.TypeID) Expression {
	return &AggregateValueExpression{newAbstractExpression(ret_type), is_group_by_term, term_idx}
}

func (a *AggregateValueExpression) IsGroupByTerm() bool { return a.is_group_by_term_ }

func (a *AggregateValueExpression) GetTermIdx() uint32 { return a.term_idx_ }

func (a *AggregateValueExpression) GetType() ExpressionType { return EXPRESSION_TYPE_AGGREGATE_VALUE }
