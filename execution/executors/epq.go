package executors

import (
	"context"
	"math"

	"github.com/cockroachdb/errors"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/page"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

// param id which every node of a re-evaluation tree is marked with at reuse, so that nothing cached is returned
const epqParamID = math.MaxUint32

/**
 * EPQState re-evaluates the subplan of a modify or lock node for a newer
 * version of a row. the recheck tree runs in its own executor context in
 * which scan nodes return the test row of their relation once instead of
 * reading storage. relations listed in aux row marks are fetched again by
 * the RID carried in the original row.
 */
type EPQState struct {
	parent      *ExecutorContext
	plan        plans.Plan
	auxRowMarks []plans.RowMark

	testSlots map[int]*tuple.Slot
	// range table indexes whose test row was returned already
	done mapset.Set[int]
	// output row of the subplan which is being rechecked
	origSlot *tuple.Slot

	recheckContext   *ExecutorContext
	recheckPlanState Executor
	resultSlot       *tuple.Slot
}

// EvalPlanQualInit prepares re-evaluation of subplan. the recheck tree is created at the first use
func EvalPlanQualInit(parent *ExecutorContext, subplan plans.Plan, auxRowMarks []plans.RowMark) *EPQState {
	return &EPQState{
		parent:      parent,
		plan:        subplan,
		auxRowMarks: auxRowMarks,
		testSlots:   make(map[int]*tuple.Slot),
		done:        mapset.NewThreadUnsafeSet[int](),
	}
}

// EvalPlanQualSetPlan replaces the subplan. the recheck tree made for the old one is ended
func EvalPlanQualSetPlan(epq *EPQState, subplan plans.Plan, auxRowMarks []plans.RowMark) {
	EvalPlanQualEnd(epq)
	epq.plan = subplan
	epq.auxRowMarks = auxRowMarks
}

// EvalPlanQualSlot returns the test slot of rti, creating it for desc at the first call
func EvalPlanQualSlot(epq *EPQState, rti int, desc *schema.Schema) *tuple.Slot {
	slot, ok := epq.testSlots[rti]
	if !ok {
		slot = tuple.NewSlot(desc, tuple.PhysicalSlot)
		epq.testSlots[rti] = slot
	}
	return slot
}

// EvalPlanQualSetSlot tells which output row of the subplan is being rechecked
func EvalPlanQualSetSlot(epq *EPQState, slot *tuple.Slot) {
	epq.origSlot = slot
}

/**
 * EvalPlanQualBegin makes the recheck tree ready to run with the current
 * test rows. the tree is initialized at the first call and rescanned at
 * the following ones.
 */
func EvalPlanQualBegin(epq *EPQState) error {
	epq.done.Clear()
	if epq.recheckPlanState == nil {
		rc := epq.parent.derive(epq.parent.GetContext(), "EvalPlanQual")
		rc.epq = epq
		rc.reserveParams(len(epq.parent.paramExecVals))
		root, err := ExecInitNode(epq.plan, rc, 0)
		if err != nil {
			rc.free()
			return err
		}
		epq.recheckContext = rc
		epq.recheckPlanState = root
		epq.resultSlot = tuple.NewSlot(epq.plan.OutputSchema(), tuple.MinimalSlot)
		return nil
	}
	// params of the parent may have been changed since the last recheck
	copy(epq.recheckContext.paramExecVals, epq.parent.paramExecVals)
	markSubtreeChanged(epq.recheckPlanState)
	return nil
}

func markSubtreeChanged(e Executor) {
	ps := e.GetPlanState()
	ps.chgParam.Add(epqParamID)
	for _, child := range ps.children {
		markSubtreeChanged(child)
	}
}

// EvalPlanQualNext returns the next row of the recheck tree
func EvalPlanQualNext(epq *EPQState) (*tuple.Slot, Done, error) {
	common.SH_Assert(epq.recheckPlanState != nil, "EvalPlanQualNext is called before EvalPlanQualBegin")
	return ExecProcNode(epq.recheckPlanState)
}

// EvalPlanQualEnd releases the recheck tree. epq can be begun again after it
func EvalPlanQualEnd(epq *EPQState) {
	if epq.recheckPlanState != nil {
		ExecEndNode(epq.recheckPlanState)
		epq.recheckPlanState = nil
	}
	if epq.recheckContext != nil {
		epq.recheckContext.free()
		epq.recheckContext = nil
	}
	for _, slot := range epq.testSlots {
		slot.Clear()
	}
	epq.done.Clear()
	epq.origSlot = nil
}

/**
 * EvalPlanQual rechecks inputSlot, the newest version of the row of rti.
 * it returns the output row of the subplan computed with it, which is
 * independent of the recheck tree, or nil when the row no longer
 * satisfies the quals of the subplan.
 */
func EvalPlanQual(epq *EPQState, rti int, inputSlot *tuple.Slot) (*tuple.Slot, error) {
	testSlot := EvalPlanQualSlot(epq, rti, inputSlot.Schema())
	if inputSlot != testSlot {
		testSlot.CopyFrom(inputSlot)
	}
	defer testSlot.Clear()
	return evalPlanQualRun(epq)
}

func evalPlanQualRun(epq *EPQState) (*tuple.Slot, error) {
	if err := EvalPlanQualBegin(epq); err != nil {
		return nil, err
	}
	slot, done, err := EvalPlanQualNext(epq)
	if err != nil || done {
		return nil, err
	}
	// the row must survive the next rescan of the tree
	return epq.resultSlot.ForceStoreMinimal(slot.CopyMinimalTuple(), true), nil
}

/**
 * testRow gives the row which the scan of rti returns in the recheck
 * tree. nil means the scan returns nothing.
 */
func (epq *EPQState) testRow(rti int, scanSlot *tuple.Slot) (*tuple.Slot, error) {
	if slot, ok := epq.testSlots[rti]; ok && !slot.IsEmpty() {
		return slot, nil
	}
	for _, mark := range epq.auxRowMarks {
		if mark.Rti != rti {
			continue
		}
		if epq.origSlot == nil {
			return nil, errors.AssertionFailedf("no row is set to fetch relation of rti %d", rti)
		}
		ridVal := epq.origSlot.GetValue(mark.RIDCol)
		if ridVal.IsNull() {
			// outer join produced no row of this relation
			return nil, nil
		}
		rid := page.NewRIDFromInt64(ridVal.ToBigInt())
		ctx := epq.recheckContext.GetContext()
		t, found, err := epq.parent.GetStorage().FetchRow(ctx, mark.Rel, rid, nil)
		if err != nil || !found {
			return nil, err
		}
		return scanSlot.StorePhysical(t, false), nil
	}
	return nil, errors.AssertionFailedf("relation of rti %d has neither test row nor row mark", rti)
}

// RecheckState is a state of a row in the re-evaluation protocol
type RecheckState int32

const (
	RecheckInitial RecheckState = iota
	RecheckLockAttempt
	RecheckSuperseded
	RecheckReCheck
	RecheckQualifies
	RecheckGone
	RecheckDisqualified
)

func (s RecheckState) String() string {
	return [...]string{"Initial", "LockAttempt", "Superseded", "ReCheck", "Qualifies", "Gone", "Disqualified"}[s]
}

// IsTerminal tells whether the protocol stops at s
func (s RecheckState) IsTerminal() bool {
	return s == RecheckQualifies || s == RecheckGone || s == RecheckDisqualified
}

// RecheckOutcome is the result of Reevaluator.Recheck
type RecheckOutcome struct {
	// terminal state
	State RecheckState
	// states passed through, from Initial to State
	Transitions []RecheckState
	// output row of the subplan computed with the newest version. nil when no recheck was needed
	Slot *tuple.Slot
	// version which was locked. writes must be applied to it
	RID page.RID
	// the locked version
	Locked *tuple.Tuple
}

func (o *RecheckOutcome) moveTo(s RecheckState) {
	o.State = s
	o.Transitions = append(o.Transitions, s)
}

/**
 * Reevaluator locks the current version of a target row for a write
 * statement. when the row was updated concurrently, it follows the update
 * chain to the newest version and rechecks it with the subplan.
 */
type Reevaluator struct {
	epq  *EPQState
	rel  access.RelationID
	wait access.WaitPolicy
}

func NewReevaluator(epq *EPQState, rel access.RelationID, wait access.WaitPolicy) *Reevaluator {
	return &Reevaluator{epq: epq, rel: rel, wait: wait}
}

/**
 * Recheck takes lock of mode on the row at rid of relation rti. under
 * RepeatableRead a concurrent modification is a serialization failure.
 * Gone and Disqualified are errors too when ErrorOnConflict is set.
 */
func (r *Reevaluator) Recheck(ctx context.Context, rti int, rid page.RID, mode access.RowLockMode) (*RecheckOutcome, error) {
	out := &RecheckOutcome{RID: rid}
	out.moveTo(RecheckInitial)
	superseded, err := r.lockLatest(ctx, rid, mode, out)
	if err != nil {
		return nil, err
	}
	if out.State == RecheckGone {
		return out, nil
	}
	if !superseded {
		out.moveTo(RecheckQualifies)
		return out, nil
	}

	out.moveTo(RecheckReCheck)
	desc, err := r.epq.parent.GetStorage().Schema(r.rel)
	if err != nil {
		return nil, err
	}
	slot := EvalPlanQualSlot(r.epq, rti, desc)
	slot.StorePhysical(out.Locked, false)
	if out.Slot, err = EvalPlanQual(r.epq, rti, slot); err != nil {
		return nil, err
	}
	if out.Slot == nil {
		if err := r.conflict(out, RecheckDisqualified); err != nil {
			return nil, err
		}
		return out, nil
	}
	out.moveTo(RecheckQualifies)
	return out, nil
}

/**
 * lockLatest locks the newest version of the row following the update
 * chain from rid. on success out.RID and out.Locked are the locked version.
 * when the row can't be locked, out ends at Gone.
 */
func (r *Reevaluator) lockLatest(ctx context.Context, rid page.RID, mode access.RowLockMode, out *RecheckOutcome) (bool, error) {
	pctx := r.epq.parent
	storage := pctx.GetStorage()
	superseded := false
	for {
		out.moveTo(RecheckLockAttempt)
		res, err := storage.LockRow(ctx, r.rel, rid, pctx.GetTransaction(), mode, r.wait)
		if err != nil {
			return superseded, err
		}
		switch res.Result {
		case access.TMOk:
			out.RID = rid
			out.Locked = res.Tuple
			return superseded, nil

		case access.TMUpdated:
			if pctx.isolationLevel() == access.RepeatableRead {
				return superseded, common.NewSerializationError("could not serialize access due to concurrent update of row %s", rid)
			}
			out.moveTo(RecheckSuperseded)
			superseded = true
			common.ShPrintf(common.DEBUG_INFO, "Recheck: row %s was updated by txn %d. newer version is %s\n", rid, res.Xmax, res.Successor)
			rid = res.Successor

		case access.TMDeleted:
			if pctx.isolationLevel() == access.RepeatableRead {
				return superseded, common.NewSerializationError("could not serialize access due to concurrent delete of row %s", rid)
			}
			out.moveTo(RecheckSuperseded)
			return true, r.conflict(out, RecheckGone)

		case access.TMSelfModified, access.TMWouldBlock:
			// modified by this transaction, or locked by other and the caller skips such rows
			out.moveTo(RecheckGone)
			return superseded, nil

		default:
			return superseded, errors.AssertionFailedf("attempted to lock invisible row %s", rid)
		}
	}
}

// conflict ends the protocol at state caused by concurrent modification
func (r *Reevaluator) conflict(out *RecheckOutcome, state RecheckState) error {
	out.moveTo(state)
	if r.epq.parent.GetConfig().ErrorOnConflict {
		return common.NewSerializationError("row %s became %s by concurrent modification", out.RID, state)
	}
	return nil
}
