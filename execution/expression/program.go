package expression

import (
	"github.com/cockroachdb/errors"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/container/hash"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/storage/tuple"
	"github.com/ryogrid/samehada-executor/types"
)

type opcode uint8

const (
	// return value of res register
	opDone opcode = iota
	// return nothing. used by programs run for side effects
	opDoneNoReturn
	// deform leading natts columns of the slot of varno
	opFetchSome
	opVar
	// store column of slot to result values directly
	opAssignVar
	// store register to result values
	opAssignTmp
	opConst
	opParamExec
	opParamExtern
	opFuncExpr
	// NULL argument makes the result NULL without calling the function
	opFuncExprStrict
	opBoolAndFirst
	opBoolAnd
	opBoolAndLast
	opBoolOrFirst
	opBoolOr
	opBoolOrLast
	opBoolNot
	// false or NULL result finishes qual with false
	opQual
	opJump
	opJumpIfNull
	opJumpIfNotNull
	opJumpIfNotTrue
	opNullTest
	opDistinct
	opNullIf
	opAggRef
	opGroupRef
	opHashInit
	opHashDatumFirst
	opHashDatumNext
	// jump when any of args is NULL
	opAggStrictCheck
	opAggTrans
)

var opcodeNames = [...]string{
	"DONE", "DONE_NO_RETURN", "FETCHSOME", "VAR", "ASSIGN_VAR", "ASSIGN_TMP", "CONST",
	"PARAM_EXEC", "PARAM_EXTERN", "FUNCEXPR", "FUNCEXPR_STRICT",
	"BOOL_AND_STEP_FIRST", "BOOL_AND_STEP", "BOOL_AND_STEP_LAST",
	"BOOL_OR_STEP_FIRST", "BOOL_OR_STEP", "BOOL_OR_STEP_LAST", "BOOL_NOT_STEP",
	"QUAL", "JUMP", "JUMP_IF_NULL", "JUMP_IF_NOT_NULL", "JUMP_IF_NOT_TRUE",
	"NULLTEST", "DISTINCT", "NULLIF", "AGGREF", "GROUPREF",
	"HASHDATUM_SET_INITVAL", "HASHDATUM_FIRST", "HASHDATUM_NEXT32",
	"AGG_STRICT_INPUT_CHECK", "AGG_PLAIN_TRANS",
}

func (op opcode) String() string { return opcodeNames[op] }

// EqualFunc is identity equality of non-NULL values used by grouping
type EqualFunc func(l types.Value, r types.Value) bool

type step struct {
	op opcode
	// result register
	res int

	varno     Varno
	attnum    uint32
	natts     uint32
	desc      *schema.Schema
	resultnum uint32

	value   types.Value
	paramId int

	fn      *Function
	args    []int
	argVals []types.Value
	retType types.TypeID

	// jump target
	jumpdone int
	// index of flag which tells NULL was seen in AND/OR
	anynull int
	not     bool

	eqFn   EqualFunc
	hashFn hash.HashFunc
	seed   uint32

	aggno int
	agg   *AggregateFunction
}

type programKind int

const (
	kindScalar programKind = iota
	kindQual
	kindCheck
	kindVoid
	kindHash
)

/**
 * Program is a compiled expression. steps are evaluated from the first
 * one linearly and jumps go forward only. a program owns its registers,
 * so it must not be evaluated concurrently. it is bound to the descriptors
 * it was compiled against.
 */
type Program struct {
	kind    programKind
	steps   []step
	regs    []types.Value
	bools   []bool
	retType types.TypeID

	hashValue    uint32
	resultValues []types.Value
	fc           FunctionCallInfo
}

func (p *Program) ResultType() types.TypeID { return p.retType }

func (p *Program) NumSteps() int { return len(p.steps) }

// Evaluate runs the program and returns its result. NULL is returned as NULL value.
func (p *Program) Evaluate(ectx *ExprContext) (types.Value, error) {
	common.SH_Assert(p.kind != kindVoid, "program without return value is evaluated")
	return p.run(ectx)
}

// EvaluateSwitchContext is Evaluate in the per-tuple arena of ectx
func (p *Program) EvaluateSwitchContext(ectx *ExprContext) (types.Value, error) {
	guard := ectx.SwitchToPerTupleMemory()
	defer guard.Exit()
	return p.Evaluate(ectx)
}

/**
* Qualify evaluates a qual program. nil program means no condition and
* returns true. NULL is never returned by qual program.
 */
func (p *Program) Qualify(ectx *ExprContext) (bool, error) {
	if p == nil {
		return true, nil
	}
	common.SH_Assert(p.kind == kindQual, "Qualify is called with non qual program")
	ret, err := p.EvaluateSwitchContext(ectx)
	if err != nil {
		return false, err
	}
	common.SH_Assert(!ret.IsNull(), "qual program returned NULL")
	return ret.ToBoolean(), nil
}

// Check evaluates a check constraint. NULL is regarded as satisfied.
func (p *Program) Check(ectx *ExprContext) (bool, error) {
	if p == nil {
		return true, nil
	}
	ret, err := p.EvaluateSwitchContext(ectx)
	if err != nil {
		return false, err
	}
	if ret.IsNull() {
		return true, nil
	}
	return ret.ToBoolean(), nil
}

// EvaluateVoid runs a program compiled for side effects only
func (p *Program) EvaluateVoid(ectx *ExprContext) error {
	guard := ectx.SwitchToPerTupleMemory()
	defer guard.Exit()
	_, err := p.run(ectx)
	return err
}

// Hash runs a program built by BuildHash32FromAttrs
func (p *Program) Hash(ectx *ExprContext) (uint32, error) {
	common.SH_Assert(p.kind == kindHash, "Hash is called with non hash program")
	if err := p.EvaluateVoid(ectx); err != nil {
		return 0, err
	}
	return p.hashValue, nil
}

func markEvalError(err error) error {
	if common.IsEvalError(err) || common.IsOOMError(err) || common.IsCanceled(err) {
		return err
	}
	return errors.Mark(err, common.ErrEvaluation)
}

func (p *Program) callFunc(s *step) error {
	for i, a := range s.args {
		s.argVals[i] = p.regs[a]
	}
	ret, err := s.fn.Fn(&p.fc, s.argVals)
	if err != nil {
		return markEvalError(errors.Wrapf(err, "function %s", s.fn.Name))
	}
	p.regs[s.res] = ret
	return nil
}

func (p *Program) hashDatum(s *step) uint32 {
	v := p.regs[s.args[0]]
	if v.IsNull() {
		return 0
	}
	return s.hashFn(&v, s.seed)
}

func slotValue(slot *tuple.Slot, attnum uint32) types.Value {
	if attnum == RowIDColumn {
		return types.NewBigInt(slot.GetRID().ToInt64())
	}
	return slot.GetValue(attnum)
}

func (p *Program) run(ectx *ExprContext) (types.Value, error) {
	p.fc.ectx = ectx
	pc := 0
	for {
		s := &p.steps[pc]
		pc++
		switch s.op {
		case opDone:
			return p.regs[s.res], nil
		case opDoneNoReturn:
			return types.Value{}, nil

		case opFetchSome:
			slot := ectx.slots[s.varno]
			if slot == nil || slot.IsEmpty() {
				return types.Value{}, errors.AssertionFailedf("%s tuple is not set to expression context", s.varno)
			}
			if s.desc != nil && slot.Schema() != s.desc && !slot.Schema().Equals(s.desc) {
				return types.Value{}, errors.AssertionFailedf("program compiled for %s is evaluated on %s", s.desc, slot.Schema())
			}
			slot.SlotGetSomeAttrs(s.natts)
		case opVar:
			p.regs[s.res] = slotValue(ectx.slots[s.varno], s.attnum)
		case opAssignVar:
			p.resultValues[s.resultnum] = slotValue(ectx.slots[s.varno], s.attnum)
		case opAssignTmp:
			p.resultValues[s.resultnum] = p.regs[s.args[0]]
		case opConst:
			p.regs[s.res] = s.value
		case opParamExec:
			if s.paramId >= len(ectx.ParamExecVals) || !ectx.ParamExecVals[s.paramId].Valid {
				return types.Value{}, common.NewEvalError("no value found for parameter %d", s.paramId)
			}
			p.regs[s.res] = ectx.ParamExecVals[s.paramId].Value
		case opParamExtern:
			if s.paramId >= len(ectx.ParamList) {
				return types.Value{}, common.NewEvalError("no value found for parameter $%d", s.paramId+1)
			}
			p.regs[s.res] = ectx.ParamList[s.paramId]

		case opFuncExprStrict:
			hasNull := false
			for _, a := range s.args {
				if p.regs[a].IsNull() {
					hasNull = true
					break
				}
			}
			if hasNull {
				p.regs[s.res] = types.NewNull(s.retType)
				continue
			}
			if err := p.callFunc(s); err != nil {
				return types.Value{}, err
			}
		case opFuncExpr:
			if err := p.callFunc(s); err != nil {
				return types.Value{}, err
			}

		case opBoolAndFirst, opBoolAnd:
			if s.op == opBoolAndFirst {
				p.bools[s.anynull] = false
			}
			if v := p.regs[s.res]; v.IsNull() {
				p.bools[s.anynull] = true
			} else if !v.ToBoolean() {
				// result is already false
				pc = s.jumpdone
			}
		case opBoolAndLast:
			if v := p.regs[s.res]; v.IsNull() {
				p.bools[s.anynull] = true
			} else if !v.ToBoolean() {
				pc = s.jumpdone
				continue
			}
			if p.bools[s.anynull] {
				p.regs[s.res] = types.NewNull(types.Boolean)
			}
		case opBoolOrFirst, opBoolOr:
			if s.op == opBoolOrFirst {
				p.bools[s.anynull] = false
			}
			if v := p.regs[s.res]; v.IsNull() {
				p.bools[s.anynull] = true
			} else if v.ToBoolean() {
				pc = s.jumpdone
			}
		case opBoolOrLast:
			if v := p.regs[s.res]; v.IsNull() {
				p.bools[s.anynull] = true
			} else if v.ToBoolean() {
				pc = s.jumpdone
				continue
			}
			if p.bools[s.anynull] {
				p.regs[s.res] = types.NewNull(types.Boolean)
			}
		case opBoolNot:
			if v := p.regs[s.res]; !v.IsNull() {
				p.regs[s.res] = types.NewBoolean(!v.ToBoolean())
			}

		case opQual:
			if v := p.regs[s.res]; v.IsNull() || !v.ToBoolean() {
				p.regs[s.res] = types.NewBoolean(false)
				pc = s.jumpdone
			}
		case opJump:
			pc = s.jumpdone
		case opJumpIfNull:
			if p.regs[s.res].IsNull() {
				pc = s.jumpdone
			}
		case opJumpIfNotNull:
			if !p.regs[s.res].IsNull() {
				pc = s.jumpdone
			}
		case opJumpIfNotTrue:
			if v := p.regs[s.res]; v.IsNull() || !v.ToBoolean() {
				pc = s.jumpdone
			}

		case opNullTest:
			p.regs[s.res] = types.NewBoolean(p.regs[s.args[0]].IsNull() != s.not)
		case opDistinct:
			l, r := p.regs[s.args[0]], p.regs[s.args[1]]
			var distinct bool
			switch {
			case l.IsNull() && r.IsNull():
				distinct = false
			case l.IsNull() || r.IsNull():
				distinct = true
			case s.eqFn != nil:
				distinct = !s.eqFn(l, r)
			default:
				cmp, err := l.CompareTo(r)
				if err != nil {
					return types.Value{}, err
				}
				distinct = cmp != 0
			}
			p.regs[s.res] = types.NewBoolean(distinct != s.not)
		case opNullIf:
			l, r := p.regs[s.args[0]], p.regs[s.args[1]]
			p.regs[s.res] = l
			if !l.IsNull() && !r.IsNull() {
				cmp, err := l.CompareTo(r)
				if err != nil {
					return types.Value{}, err
				}
				if cmp == 0 {
					p.regs[s.res] = types.NewNull(s.retType)
				}
			}

		case opAggRef:
			if s.aggno >= len(ectx.AggValues) {
				return types.Value{}, errors.AssertionFailedf("aggregate %d is referenced outside of aggregation", s.aggno)
			}
			p.regs[s.res] = ectx.AggValues[s.aggno]
		case opGroupRef:
			if s.aggno >= len(ectx.GroupValues) {
				return types.Value{}, errors.AssertionFailedf("group by term %d is referenced outside of aggregation", s.aggno)
			}
			p.regs[s.res] = ectx.GroupValues[s.aggno]

		case opHashInit:
			p.hashValue = s.seed
		case opHashDatumFirst:
			p.hashValue = p.hashDatum(s)
		case opHashDatumNext:
			p.hashValue = hash.RotateLeft1(p.hashValue) ^ p.hashDatum(s)

		case opAggStrictCheck:
			for _, a := range s.args {
				if p.regs[a].IsNull() {
					pc = s.jumpdone
					break
				}
			}
		case opAggTrans:
			var arg types.Value
			if len(s.args) > 0 {
				arg = p.regs[s.args[0]]
			}
			if err := s.agg.Trans(ectx.AggStates[s.aggno], arg); err != nil {
				return types.Value{}, markEvalError(errors.Wrapf(err, "aggregate %s", s.agg.Name))
			}

		default:
			return types.Value{}, errors.AssertionFailedf("unknown opcode %d", s.op)
		}
	}
}
