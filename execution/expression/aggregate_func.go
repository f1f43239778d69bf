package expression

import (
	"github.com/cockroachdb/errors"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/types"
)

// AggState is transition state of one aggregate in one group
type AggState struct {
	Value types.Value
	Count int64
	// no input has been accepted yet
	NoValue bool
}

func (st *AggState) reset() {
	st.Value = types.Value{}
	st.Count = 0
	st.NoValue = true
}

/**
 * AggregateFunction folds input values into AggState.
 * strict aggregate skips NULL input. NArgs is 0 for COUNT(*).
 */
type AggregateFunction struct {
	Name   string
	Strict bool
	NArgs  int
	// result type of Final for the input type
	ResultType func(argType types.TypeID) (types.TypeID, error)
	Trans      func(st *AggState, arg types.Value) error
	Final      func(st *AggState, retType types.TypeID) (types.Value, error)
}

// NewAggStates returns initialized states for aggs
func NewAggStates(n int) []*AggState {
	ret := make([]*AggState, n)
	for i := range ret {
		ret[i] = new(AggState)
		ret[i].reset()
	}
	return ret
}

// ResetAggStates makes states as if no input was accepted
func ResetAggStates(states []*AggState) {
	for _, st := range states {
		st.reset()
	}
}

func LookupAggregate(name string) (*AggregateFunction, error) {
	for _, agg := range aggregateFunctions {
		if agg.Name == name {
			return agg, nil
		}
	}
	return nil, common.NewInitError("aggregate function %s does not exist", name)
}

func countFinal(st *AggState, _ types.TypeID) (types.Value, error) {
	return types.NewBigInt(st.Count), nil
}

func transValueOrNull(st *AggState, retType types.TypeID) (types.Value, error) {
	if st.NoValue {
		return types.NewNull(retType), nil
	}
	return st.Value, nil
}

func minMaxTrans(keepLarger bool) func(*AggState, types.Value) error {
	return func(st *AggState, arg types.Value) error {
		if st.NoValue {
			st.Value = arg
			st.NoValue = false
			return nil
		}
		cmp, err := arg.CompareTo(st.Value)
		if err != nil {
			return err
		}
		if (keepLarger && cmp > 0) || (!keepLarger && cmp < 0) {
			st.Value = arg
		}
		return nil
	}
}

func sumResultType(argType types.TypeID) (types.TypeID, error) {
	switch argType {
	case types.Integer, types.BigInt:
		return types.BigInt, nil
	case types.Float:
		return types.Float, nil
	}
	return types.Invalid, common.NewInitError("function sum(%s) does not exist", argType)
}

func sumTrans(st *AggState, arg types.Value) error {
	st.Count++
	if st.NoValue {
		if arg.ValueType() == types.Float {
			st.Value = arg
		} else {
			st.Value = types.NewBigInt(arg.ToInt64())
		}
		st.NoValue = false
		return nil
	}
	sum, err := st.Value.Add(arg)
	if err != nil {
		return err
	}
	st.Value = sum
	return nil
}

var aggregateFunctions = []*AggregateFunction{
	{Name: "count", Strict: true, NArgs: 1,
		ResultType: func(types.TypeID) (types.TypeID, error) { return types.BigInt, nil },
		Trans:      func(st *AggState, _ types.Value) error { st.Count++; return nil },
		Final:      countFinal},
	{Name: "count_star", Strict: false, NArgs: 0,
		ResultType: func(types.TypeID) (types.TypeID, error) { return types.BigInt, nil },
		Trans:      func(st *AggState, _ types.Value) error { st.Count++; return nil },
		Final:      countFinal},
	{Name: "sum", Strict: true, NArgs: 1, ResultType: sumResultType, Trans: sumTrans, Final: transValueOrNull},
	{Name: "min", Strict: true, NArgs: 1,
		ResultType: func(t types.TypeID) (types.TypeID, error) { return t, nil },
		Trans:      minMaxTrans(false), Final: transValueOrNull},
	{Name: "max", Strict: true, NArgs: 1,
		ResultType: func(t types.TypeID) (types.TypeID, error) { return t, nil },
		Trans:      minMaxTrans(true), Final: transValueOrNull},
	{Name: "avg", Strict: true, NArgs: 1,
		ResultType: func(t types.TypeID) (types.TypeID, error) {
			if !t.IsNumeric() {
				return types.Invalid, common.NewInitError("function avg(%s) does not exist", t)
			}
			return types.Float, nil
		},
		Trans: sumTrans,
		Final: func(st *AggState, retType types.TypeID) (types.Value, error) {
			if st.NoValue {
				return types.NewNull(retType), nil
			}
			if st.Count == 0 {
				return types.Value{}, errors.AssertionFailedf("avg has value without input")
			}
			return types.NewFloat(float32(st.Value.ToFloat64() / float64(st.Count))), nil
		}},
}
