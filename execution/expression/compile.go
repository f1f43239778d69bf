package expression

import (
	"github.com/cockroachdb/errors"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/container/hash"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/storage/tuple"
	"github.com/ryogrid/samehada-executor/types"
)

/**
 * Binding tells the compiler the descriptor of the tuple each varno
 * refers to. column references to unbound varno are compile errors.
 */
type Binding struct {
	descs [numVarnos]*schema.Schema
}

func NewBinding() *Binding {
	return &Binding{}
}

// Bind sets descriptor of varno and returns the receiver
func (b *Binding) Bind(varno Varno, desc *schema.Schema) *Binding {
	b.descs[varno] = desc
	return b
}

func (b *Binding) Desc(varno Varno) *schema.Schema {
	return b.descs[varno]
}

type compiler struct {
	p       *Program
	binding *Binding
	// body steps. FETCHSOME steps are put before them at finish
	steps []step
	natts [numVarnos]uint32
	used  [numVarnos]bool
	nregs int
	nbool int
}

func newCompiler(kind programKind, binding *Binding) *compiler {
	if binding == nil {
		binding = NewBinding()
	}
	return &compiler{p: &Program{kind: kind}, binding: binding}
}

func (c *compiler) newReg() int {
	c.nregs++
	return c.nregs - 1
}

func (c *compiler) emit(s step) int {
	c.steps = append(c.steps, s)
	return len(c.steps) - 1
}

// patch sets jump target of steps at idxs to the next step to be emitted
func (c *compiler) patch(idxs []int) {
	for _, i := range idxs {
		c.steps[i].jumpdone = len(c.steps)
	}
}

func (c *compiler) useColumn(varno Varno, colIndex uint32) (types.TypeID, error) {
	desc := c.binding.descs[varno]
	if desc == nil {
		return types.Invalid, common.NewInitError("column reference to %s tuple is not allowed here", varno)
	}
	if colIndex == RowIDColumn {
		c.used[varno] = true
		return types.BigInt, nil
	}
	if colIndex >= desc.GetColumnCount() {
		return types.Invalid, common.NewInitError("column %d does not exist in %s tuple %s", colIndex, varno, desc)
	}
	c.used[varno] = true
	if colIndex+1 > c.natts[varno] {
		c.natts[varno] = colIndex + 1
	}
	return desc.GetColumn(colIndex).GetType(), nil
}

func (c *compiler) finish(res int) *Program {
	prefix := make([]step, 0)
	for varno := Varno(0); varno < numVarnos; varno++ {
		if c.used[varno] {
			prefix = append(prefix, step{op: opFetchSome, varno: varno, natts: c.natts[varno], desc: c.binding.descs[varno]})
		}
	}
	shift := len(prefix)
	for i := range c.steps {
		c.steps[i].jumpdone += shift
	}
	p := c.p
	p.steps = append(prefix, c.steps...)
	p.regs = make([]types.Value, c.nregs)
	p.bools = make([]bool, c.nbool)
	if res >= 0 {
		common.ShPrintf(common.DEBUG_INFO_DETAIL, "compiled program: %d steps %d registers\n", len(p.steps), len(p.regs))
	}
	return p
}

func isCompatible(expected types.TypeID, actual types.TypeID) bool {
	return expected == types.Invalid || actual == types.Invalid || expected == actual ||
		(expected.IsNumeric() && actual.IsNumeric())
}

func (c *compiler) compileArgs(args []Expression) ([]int, []types.TypeID, error) {
	regs := make([]int, len(args))
	argTypes := make([]types.TypeID, len(args))
	for i, arg := range args {
		regs[i] = c.newReg()
		t, err := c.compileExpr(arg, regs[i])
		if err != nil {
			return nil, nil, err
		}
		argTypes[i] = t
	}
	return regs, argTypes, nil
}

func (c *compiler) compileFunc(fn *Function, args []Expression, res int) (types.TypeID, error) {
	if fn.NArgs >= 0 && fn.NArgs != len(args) {
		return types.Invalid, common.NewInitError("function %s takes %d arguments but %d are given", fn.Name, fn.NArgs, len(args))
	}
	regs, argTypes, err := c.compileArgs(args)
	if err != nil {
		return types.Invalid, err
	}
	retType, err := fn.ResultType(argTypes)
	if err != nil {
		return types.Invalid, err
	}
	op := opFuncExpr
	if fn.Strict {
		op = opFuncExprStrict
	}
	c.emit(step{op: op, res: res, fn: fn, args: regs, argVals: make([]types.Value, len(regs)), retType: retType})
	return retType, nil
}

func (c *compiler) compileBoolArg(arg Expression, res int) error {
	t, err := c.compileExpr(arg, res)
	if err != nil {
		return err
	}
	if t != types.Boolean && t != types.Invalid {
		return common.NewInitError("argument of logical operator must be boolean, not %s", t)
	}
	return nil
}

// compileExpr appends steps which leave the value of e in register res
func (c *compiler) compileExpr(e Expression, res int) (types.TypeID, error) {
	switch expr := e.(type) {
	case *ColumnValue:
		t, err := c.useColumn(expr.varno, expr.colIndex)
		if err != nil {
			return types.Invalid, err
		}
		if !isCompatible(expr.ret_type, t) {
			return types.Invalid, common.NewInitError("column %s is %s but %s is expected", expr, t, expr.ret_type)
		}
		c.emit(step{op: opVar, res: res, varno: expr.varno, attnum: expr.colIndex})
		return t, nil

	case *ConstantValue:
		c.emit(step{op: opConst, res: res, value: expr.value})
		if expr.value.IsNull() && expr.ret_type != types.Invalid {
			return expr.ret_type, nil
		}
		return expr.value.ValueType(), nil

	case *ParamValue:
		op := opParamExec
		if expr.kind == ParamExtern {
			op = opParamExtern
		}
		c.emit(step{op: op, res: res, paramId: expr.paramId})
		return expr.ret_type, nil

	case *Comparison:
		return c.compileFunc(BuiltinFunction(expr.comparisonType.FunctionName()), expr.children, res)

	case *Arithmetic:
		return c.compileFunc(BuiltinFunction(expr.op.String()), expr.children, res)

	case *FuncCall:
		return c.compileFunc(expr.fn, expr.children, res)

	case *LogicalOp:
		if expr.logicalOpType == NOT {
			if len(expr.children) != 1 {
				return types.Invalid, common.NewInitError("NOT takes one argument")
			}
			if err := c.compileBoolArg(expr.children[0], res); err != nil {
				return types.Invalid, err
			}
			c.emit(step{op: opBoolNot, res: res})
			return types.Boolean, nil
		}
		if len(expr.children) == 0 {
			return types.Invalid, common.NewInitError("%s without arguments", expr.logicalOpType)
		}
		if len(expr.children) == 1 {
			return types.Boolean, c.compileBoolArg(expr.children[0], res)
		}
		first, mid, last := opBoolAndFirst, opBoolAnd, opBoolAndLast
		if expr.logicalOpType == OR {
			first, mid, last = opBoolOrFirst, opBoolOr, opBoolOrLast
		}
		anynull := c.nbool
		c.nbool++
		jumps := make([]int, 0, len(expr.children))
		for i, arg := range expr.children {
			if err := c.compileBoolArg(arg, res); err != nil {
				return types.Invalid, err
			}
			op := mid
			switch i {
			case 0:
				op = first
			case len(expr.children) - 1:
				op = last
			}
			jumps = append(jumps, c.emit(step{op: op, res: res, anynull: anynull}))
		}
		c.patch(jumps)
		return types.Boolean, nil

	case *NullTest:
		tmp := c.newReg()
		if _, err := c.compileExpr(expr.children[0], tmp); err != nil {
			return types.Invalid, err
		}
		c.emit(step{op: opNullTest, res: res, args: []int{tmp}, not: expr.isNot})
		return types.Boolean, nil

	case *DistinctExpr:
		regs, argTypes, err := c.compileArgs(expr.children)
		if err != nil {
			return types.Invalid, err
		}
		if _, err = comparableTypes(argTypes); err != nil {
			return types.Invalid, err
		}
		// IS DISTINCT FROM is true when values differ. IS NOT DISTINCT FROM is its negation
		c.emit(step{op: opDistinct, res: res, args: regs, not: expr.isNot})
		return types.Boolean, nil

	case *CaseExpr:
		retType := types.Invalid
		endJumps := make([]int, 0)
		for _, when := range expr.whens {
			cond := c.newReg()
			if err := c.compileBoolArg(when.Cond, cond); err != nil {
				return types.Invalid, err
			}
			skip := c.emit(step{op: opJumpIfNotTrue, res: cond})
			t, err := c.compileExpr(when.Result, res)
			if err != nil {
				return types.Invalid, err
			}
			if !isCompatible(retType, t) {
				return types.Invalid, common.NewInitError("CASE types %s and %s cannot be matched", retType, t)
			}
			if retType == types.Invalid {
				retType = t
			}
			endJumps = append(endJumps, c.emit(step{op: opJump}))
			c.patch([]int{skip})
		}
		if expr.defaultResult != nil {
			t, err := c.compileExpr(expr.defaultResult, res)
			if err != nil {
				return types.Invalid, err
			}
			if !isCompatible(retType, t) {
				return types.Invalid, common.NewInitError("CASE types %s and %s cannot be matched", retType, t)
			}
			if retType == types.Invalid {
				retType = t
			}
		} else {
			c.emit(step{op: opConst, res: res, value: types.NewNull(retType)})
		}
		c.patch(endJumps)
		return retType, nil

	case *Coalesce:
		if len(expr.children) == 0 {
			return types.Invalid, common.NewInitError("COALESCE without arguments")
		}
		retType := types.Invalid
		endJumps := make([]int, 0)
		for _, arg := range expr.children {
			t, err := c.compileExpr(arg, res)
			if err != nil {
				return types.Invalid, err
			}
			if !isCompatible(retType, t) {
				return types.Invalid, common.NewInitError("COALESCE types %s and %s cannot be matched", retType, t)
			}
			if retType == types.Invalid {
				retType = t
			}
			endJumps = append(endJumps, c.emit(step{op: opJumpIfNotNull, res: res}))
		}
		c.patch(endJumps)
		return retType, nil

	case *NullIf:
		regs, argTypes, err := c.compileArgs(expr.children)
		if err != nil {
			return types.Invalid, err
		}
		if _, err = comparableTypes(argTypes); err != nil {
			return types.Invalid, err
		}
		c.emit(step{op: opNullIf, res: res, args: regs, retType: argTypes[0]})
		return argTypes[0], nil

	case *AggregateValueExpression:
		op := opAggRef
		if expr.is_group_by_term_ {
			op = opGroupRef
		}
		c.emit(step{op: op, res: res, aggno: int(expr.term_idx_)})
		return expr.ret_type, nil

	case nil:
		return types.Invalid, errors.AssertionFailedf("nil expression is compiled")
	}
	return types.Invalid, common.NewInitError("unsupported expression %T", e)
}

/**
* Compile translates expression tree into Program evaluated against the
* tuples described by binding. nil expression results in nil program.
 */
func Compile(e Expression, binding *Binding) (*Program, error) {
	if e == nil {
		return nil, nil
	}
	c := newCompiler(kindScalar, binding)
	res := c.newReg()
	retType, err := c.compileExpr(e, res)
	if err != nil {
		return nil, err
	}
	c.emit(step{op: opDone, res: res})
	p := c.finish(res)
	p.retType = retType
	return p, nil
}

/**
* CompileQual compiles an implicitly ANDed list of conditions. evaluation
* stops at the first condition which is false or NULL and the result is
* false then. empty list results in nil program which is always true.
 */
func CompileQual(quals []Expression, binding *Binding) (*Program, error) {
	if len(quals) == 0 {
		return nil, nil
	}
	c := newCompiler(kindQual, binding)
	res := c.newReg()
	jumps := make([]int, 0, len(quals))
	for _, qual := range quals {
		if err := c.compileBoolArg(qual, res); err != nil {
			return nil, err
		}
		jumps = append(jumps, c.emit(step{op: opQual, res: res}))
	}
	c.patch(jumps)
	c.emit(step{op: opDone, res: res})
	p := c.finish(res)
	p.retType = types.Boolean
	return p, nil
}

// CompileCheck compiles conditions of check constraint. NULL result is regarded as true by Check.
func CompileCheck(quals []Expression, binding *Binding) (*Program, error) {
	if len(quals) == 0 {
		return nil, nil
	}
	var cond Expression
	if len(quals) == 1 {
		cond = quals[0]
	} else {
		cond = NewLogicalOpN(AND, quals...)
	}
	p, err := Compile(cond, binding)
	if err != nil {
		return nil, err
	}
	if p.retType != types.Boolean {
		return nil, common.NewInitError("check condition must be boolean, not %s", p.retType)
	}
	p.kind = kindCheck
	return p, nil
}

// ProjectionInfo computes a target list into its result slot
type ProjectionInfo struct {
	program *Program
	slot    *tuple.Slot
}

func (pi *ProjectionInfo) Slot() *tuple.Slot { return pi.slot }

// Project evaluates target list in per-tuple arena and stores the result into the slot
func (pi *ProjectionInfo) Project(ectx *ExprContext) (*tuple.Slot, error) {
	if err := pi.program.EvaluateVoid(ectx); err != nil {
		return nil, err
	}
	return pi.slot.StoreValues(pi.program.resultValues), nil
}

func (c *compiler) compileTarget(target Expression, resultnum uint32, desc *schema.Schema) error {
	expected := desc.GetColumn(resultnum).GetType()
	if col, ok := target.(*ColumnValue); ok {
		// simple column reference is copied without register
		t, err := c.useColumn(col.varno, col.colIndex)
		if err != nil {
			return err
		}
		if !isCompatible(expected, t) {
			return common.NewInitError("target %d is %s but result column is %s", resultnum, t, expected)
		}
		c.emit(step{op: opAssignVar, varno: col.varno, attnum: col.colIndex, resultnum: resultnum})
		return nil
	}
	tmp := c.newReg()
	t, err := c.compileExpr(target, tmp)
	if err != nil {
		return err
	}
	if !isCompatible(expected, t) {
		return common.NewInitError("target %d is %s but result column is %s", resultnum, t, expected)
	}
	c.emit(step{op: opAssignTmp, args: []int{tmp}, resultnum: resultnum})
	return nil
}

/**
* BuildProjection compiles target list whose i-th expression fills the
* i-th column of resultSlot.
 */
func BuildProjection(targets []Expression, binding *Binding, resultSlot *tuple.Slot) (*ProjectionInfo, error) {
	desc := resultSlot.Schema()
	if uint32(len(targets)) != desc.GetColumnCount() {
		return nil, common.NewInitError("%d targets are given for result %s", len(targets), desc)
	}
	c := newCompiler(kindVoid, binding)
	for i, target := range targets {
		if err := c.compileTarget(target, uint32(i), desc); err != nil {
			return nil, err
		}
	}
	c.emit(step{op: opDoneNoReturn})
	p := c.finish(-1)
	p.resultValues = make([]types.Value, len(targets))
	return &ProjectionInfo{p, resultSlot}, nil
}

/**
* BuildUpdateProjection builds the new version of an updated row.
* updateCols[i] is computed by exprs[i] and other columns are copied
* from the OldVar tuple, whose descriptor is the one of resultSlot.
 */
func BuildUpdateProjection(updateCols []uint32, exprs []Expression, binding *Binding, resultSlot *tuple.Slot) (*ProjectionInfo, error) {
	if len(updateCols) != len(exprs) {
		return nil, common.NewInitError("%d columns are updated with %d expressions", len(updateCols), len(exprs))
	}
	desc := resultSlot.Schema()
	if binding == nil {
		binding = NewBinding()
	}
	if binding.Desc(OldVar) == nil {
		binding.Bind(OldVar, desc)
	}
	targets := make([]Expression, desc.GetColumnCount())
	for i, col := range updateCols {
		if col >= desc.GetColumnCount() {
			return nil, common.NewInitError("column %d of %s can't be updated", col, desc)
		}
		if targets[col] != nil {
			return nil, common.NewInitError("column %d is updated twice", col)
		}
		targets[col] = exprs[i]
	}
	for i := range targets {
		if targets[i] == nil {
			targets[i] = NewColumnValue(OldVar, uint32(i), types.Invalid)
		}
	}
	return BuildProjection(targets, binding, resultSlot)
}

/**
* BuildHash32FromAttrs builds program which hashes keyCols of the tuple of
* varno. per column hashes are combined by rotating the accumulated value
* one bit left and xoring. NULL column contributes 0. nonzero seed is the
* initial value of the accumulated hash.
 */
func BuildHash32FromAttrs(desc *schema.Schema, varno Varno, keyCols []uint32, hashFns []hash.HashFunc, seed uint32) (*Program, error) {
	if len(keyCols) != len(hashFns) {
		return nil, common.NewInitError("%d hash functions are given for %d columns", len(hashFns), len(keyCols))
	}
	c := newCompiler(kindHash, NewBinding().Bind(varno, desc))
	if seed != 0 {
		c.emit(step{op: opHashInit, seed: seed})
	}
	for i, col := range keyCols {
		if _, err := c.useColumn(varno, col); err != nil {
			return nil, err
		}
		tmp := c.newReg()
		c.emit(step{op: opVar, res: tmp, varno: varno, attnum: col})
		op := opHashDatumNext
		if i == 0 && seed == 0 {
			op = opHashDatumFirst
		}
		c.emit(step{op: op, args: []int{tmp}, hashFn: hashFns[i], seed: seed})
	}
	c.emit(step{op: opDoneNoReturn})
	return c.finish(-1), nil
}

/**
* BuildGroupingEqual builds qual program which tells whether the key columns
* of the InnerVar tuple and the OuterVar tuple are not distinct. both are
* described by desc. NULL equals NULL here.
 */
func BuildGroupingEqual(desc *schema.Schema, keyCols []uint32, eqFns []EqualFunc) (*Program, error) {
	return BuildKeyEqual(desc, keyCols, desc, keyCols, eqFns)
}

/**
* BuildKeyEqual is BuildGroupingEqual for tuples of different shape.
* innerCols[i] of the InnerVar tuple is compared with outerCols[i] of the
* OuterVar tuple. columns are compared from the last one since trailing
* columns differ more often.
 */
func BuildKeyEqual(innerDesc *schema.Schema, innerCols []uint32, outerDesc *schema.Schema, outerCols []uint32, eqFns []EqualFunc) (*Program, error) {
	if len(innerCols) != len(eqFns) || len(outerCols) != len(eqFns) {
		return nil, common.NewInitError("%d equality functions are given for %d and %d columns", len(eqFns), len(innerCols), len(outerCols))
	}
	c := newCompiler(kindQual, NewBinding().Bind(InnerVar, innerDesc).Bind(OuterVar, outerDesc))
	res := c.newReg()
	c.emit(step{op: opConst, res: res, value: types.NewBoolean(true)})
	jumps := make([]int, 0, len(eqFns))
	for i := len(eqFns) - 1; i >= 0; i-- {
		if _, err := c.useColumn(InnerVar, innerCols[i]); err != nil {
			return nil, err
		}
		if _, err := c.useColumn(OuterVar, outerCols[i]); err != nil {
			return nil, err
		}
		l, r := c.newReg(), c.newReg()
		c.emit(step{op: opVar, res: l, varno: InnerVar, attnum: innerCols[i]})
		c.emit(step{op: opVar, res: r, varno: OuterVar, attnum: outerCols[i]})
		c.emit(step{op: opDistinct, res: res, args: []int{l, r}, not: true, eqFn: eqFns[i]})
		jumps = append(jumps, c.emit(step{op: opQual, res: res}))
	}
	c.patch(jumps)
	c.emit(step{op: opDone, res: res})
	p := c.finish(res)
	p.retType = types.Boolean
	return p, nil
}

// AggTransSpec is one aggregate whose transition is compiled by BuildAggTrans
type AggTransSpec struct {
	Func *AggregateFunction
	// nil for aggregate without argument
	Arg Expression
	// rows which don't satisfy Filter are not aggregated. nil means all rows
	Filter Expression
}

/**
* BuildAggTrans builds program which folds the current input tuple into
* ectx.AggStates[i] for each aggs[i]. strict aggregate skips NULL input.
* it also returns the result types of aggregates.
 */
func BuildAggTrans(aggs []AggTransSpec, binding *Binding) (*Program, []types.TypeID, error) {
	c := newCompiler(kindVoid, binding)
	retTypes := make([]types.TypeID, len(aggs))
	for aggno, agg := range aggs {
		skips := make([]int, 0)
		if agg.Filter != nil {
			cond := c.newReg()
			if err := c.compileBoolArg(agg.Filter, cond); err != nil {
				return nil, nil, err
			}
			skips = append(skips, c.emit(step{op: opJumpIfNotTrue, res: cond}))
		}
		args := []int{}
		argType := types.Invalid
		if agg.Func.NArgs > 0 {
			if agg.Arg == nil {
				return nil, nil, common.NewInitError("aggregate %s needs an argument", agg.Func.Name)
			}
			arg := c.newReg()
			t, err := c.compileExpr(agg.Arg, arg)
			if err != nil {
				return nil, nil, err
			}
			args = append(args, arg)
			argType = t
			if agg.Func.Strict {
				skips = append(skips, c.emit(step{op: opAggStrictCheck, args: args}))
			}
		}
		retType, err := agg.Func.ResultType(argType)
		if err != nil {
			return nil, nil, err
		}
		retTypes[aggno] = retType
		c.emit(step{op: opAggTrans, args: args, aggno: aggno, agg: agg.Func})
		c.patch(skips)
	}
	c.emit(step{op: opDoneNoReturn})
	return c.finish(-1), retTypes, nil
}
