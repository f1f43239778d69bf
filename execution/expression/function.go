package expression

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/memory"
	"github.com/ryogrid/samehada-executor/types"
)

// FunctionCallInfo is passed to each function call
type FunctionCallInfo struct {
	ectx *ExprContext
}

// Memory returns the arena which is current during the call. usually per-tuple memory.
func (fc *FunctionCallInfo) Memory() *memory.MemoryContext {
	if fc.ectx == nil {
		return nil
	}
	return fc.ectx.CurrentMemory()
}

func (fc *FunctionCallInfo) ExprContext() *ExprContext { return fc.ectx }

/**
 * Function is a scalar function resolved before compile.
 * strict function is not called when any argument is NULL and the
 * result is NULL. NArgs -1 means variadic.
 */
type Function struct {
	Name   string
	Strict bool
	NArgs  int
	// checks argument types and returns result type
	ResultType func(argTypes []types.TypeID) (types.TypeID, error)
	Fn         func(fc *FunctionCallInfo, args []types.Value) (types.Value, error)
}

type FunctionRegistry struct {
	functions map[string]*Function
}

// NewFunctionRegistry returns registry which has builtin functions
func NewFunctionRegistry() *FunctionRegistry {
	ret := &FunctionRegistry{make(map[string]*Function)}
	for _, fn := range builtinFunctions {
		ret.functions[fn.Name] = fn
	}
	return ret
}

func (r *FunctionRegistry) Lookup(name string) (*Function, bool) {
	fn, ok := r.functions[strings.ToLower(name)]
	return fn, ok
}

func (r *FunctionRegistry) Register(fn *Function) error {
	name := strings.ToLower(fn.Name)
	if _, exists := r.functions[name]; exists {
		return errors.Newf("function %s already exists", fn.Name)
	}
	r.functions[name] = fn
	return nil
}

// BuiltinFunction returns builtin function which operators are compiled into
func BuiltinFunction(name string) *Function {
	for _, fn := range builtinFunctions {
		if fn.Name == name {
			return fn
		}
	}
	panic(errors.AssertionFailedf("builtin function %s does not exist", name))
}

func comparableTypes(argTypes []types.TypeID) (types.TypeID, error) {
	l, r := argTypes[0], argTypes[1]
	if l == r || (l.IsNumeric() && r.IsNumeric()) {
		return types.Boolean, nil
	}
	return types.Invalid, common.NewInitError("operator does not exist: %s and %s can't be compared", l, r)
}

func numericTypes(argTypes []types.TypeID) (types.TypeID, error) {
	for _, t := range argTypes {
		if !t.IsNumeric() {
			return types.Invalid, common.NewInitError("operator does not exist: numeric operator on %s", t)
		}
	}
	if len(argTypes) == 1 {
		return argTypes[0], nil
	}
	return types.PromoteNumeric(argTypes[0], argTypes[1]), nil
}

func varcharTypes(ret types.TypeID) func([]types.TypeID) (types.TypeID, error) {
	return func(argTypes []types.TypeID) (types.TypeID, error) {
		for _, t := range argTypes {
			if t != types.Varchar {
				return types.Invalid, common.NewInitError("function does not exist: argument of %s is given", t)
			}
		}
		return ret, nil
	}
}

func anyTypes(ret types.TypeID) func([]types.TypeID) (types.TypeID, error) {
	return func([]types.TypeID) (types.TypeID, error) { return ret, nil }
}

func comparison(pred func(int) bool) func(*FunctionCallInfo, []types.Value) (types.Value, error) {
	return func(_ *FunctionCallInfo, args []types.Value) (types.Value, error) {
		cmp, err := args[0].CompareTo(args[1])
		if err != nil {
			return types.Value{}, err
		}
		return types.NewBoolean(pred(cmp)), nil
	}
}

func arithmetic(op types.ArithmeticOp) func(*FunctionCallInfo, []types.Value) (types.Value, error) {
	return func(_ *FunctionCallInfo, args []types.Value) (types.Value, error) {
		switch op {
		case types.OpAdd:
			return args[0].Add(args[1])
		case types.OpSubtract:
			return args[0].Subtract(args[1])
		case types.OpMultiply:
			return args[0].Multiply(args[1])
		case types.OpDivide:
			return args[0].Divide(args[1])
		}
		return args[0].Modulo(args[1])
	}
}

// newVarchar makes varchar result whose size is charged to the current arena
func newVarchar(fc *FunctionCallInfo, s string) (types.Value, error) {
	if mem := fc.Memory(); mem != nil {
		if err := mem.Track(int64(len(s))); err != nil {
			return types.Value{}, err
		}
	}
	return types.NewVarchar(s), nil
}

var builtinFunctions = []*Function{
	{Name: "=", Strict: true, NArgs: 2, ResultType: comparableTypes, Fn: comparison(func(c int) bool { return c == 0 })},
	{Name: "<>", Strict: true, NArgs: 2, ResultType: comparableTypes, Fn: comparison(func(c int) bool { return c != 0 })},
	{Name: "<", Strict: true, NArgs: 2, ResultType: comparableTypes, Fn: comparison(func(c int) bool { return c < 0 })},
	{Name: "<=", Strict: true, NArgs: 2, ResultType: comparableTypes, Fn: comparison(func(c int) bool { return c <= 0 })},
	{Name: ">", Strict: true, NArgs: 2, ResultType: comparableTypes, Fn: comparison(func(c int) bool { return c > 0 })},
	{Name: ">=", Strict: true, NArgs: 2, ResultType: comparableTypes, Fn: comparison(func(c int) bool { return c >= 0 })},
	{Name: "+", Strict: true, NArgs: 2, ResultType: numericTypes, Fn: arithmetic(types.OpAdd)},
	{Name: "-", Strict: true, NArgs: 2, ResultType: numericTypes, Fn: arithmetic(types.OpSubtract)},
	{Name: "*", Strict: true, NArgs: 2, ResultType: numericTypes, Fn: arithmetic(types.OpMultiply)},
	{Name: "/", Strict: true, NArgs: 2, ResultType: numericTypes, Fn: arithmetic(types.OpDivide)},
	{Name: "%", Strict: true, NArgs: 2, ResultType: numericTypes, Fn: arithmetic(types.OpModulo)},
	{Name: "abs", Strict: true, NArgs: 1, ResultType: numericTypes,
		Fn: func(_ *FunctionCallInfo, args []types.Value) (types.Value, error) {
			if args[0].ToFloat64() < 0 {
				return args[0].Negate()
			}
			return args[0], nil
		}},
	{Name: "lower", Strict: true, NArgs: 1, ResultType: varcharTypes(types.Varchar),
		Fn: func(fc *FunctionCallInfo, args []types.Value) (types.Value, error) {
			return newVarchar(fc, strings.ToLower(args[0].ToVarchar()))
		}},
	{Name: "upper", Strict: true, NArgs: 1, ResultType: varcharTypes(types.Varchar),
		Fn: func(fc *FunctionCallInfo, args []types.Value) (types.Value, error) {
			return newVarchar(fc, strings.ToUpper(args[0].ToVarchar()))
		}},
	{Name: "length", Strict: true, NArgs: 1, ResultType: varcharTypes(types.Integer),
		Fn: func(_ *FunctionCallInfo, args []types.Value) (types.Value, error) {
			return types.NewInteger(int32(len([]rune(args[0].ToVarchar())))), nil
		}},
	{Name: "||", Strict: true, NArgs: 2, ResultType: varcharTypes(types.Varchar),
		Fn: func(fc *FunctionCallInfo, args []types.Value) (types.Value, error) {
			return newVarchar(fc, args[0].ToVarchar()+args[1].ToVarchar())
		}},
	// NULL arguments are ignored
	{Name: "concat", Strict: false, NArgs: -1, ResultType: anyTypes(types.Varchar),
		Fn: func(fc *FunctionCallInfo, args []types.Value) (types.Value, error) {
			var sb strings.Builder
			for _, arg := range args {
				if !arg.IsNull() {
					sb.WriteString(arg.String())
				}
			}
			return newVarchar(fc, sb.String())
		}},
}
