package executors

import (
	"github.com/cockroachdb/errors"
	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

/**
 * UpdateExecutor updates rows found by the child executor.
 * new versions are computed from the child row and the current version of
 * the target row. when the plan is returning, new versions are returned.
 */
type UpdateExecutor struct {
	*modifyState
	plan    *plans.UpdatePlanNode
	oldSlot *tuple.Slot
}

func NewUpdateExecutor(context *ExecutorContext, plan *plans.UpdatePlanNode) *UpdateExecutor {
	return &UpdateExecutor{modifyState: newModifyState(context, plan), plan: plan}
}

func (e *UpdateExecutor) Init(eflags int) error {
	if err := e.initModify(eflags); err != nil {
		return err
	}
	relSchema := e.plan.GetRelationSchema()
	e.oldSlot = tuple.NewSlot(relSchema, tuple.PhysicalSlot)
	e.resultSlot = tuple.NewVirtualSlot(relSchema)
	binding := expression.NewBinding().
		Bind(expression.OuterVar, e.child_.GetOutputSchema()).
		Bind(expression.OldVar, relSchema)
	var err error
	e.projInfo, err = expression.BuildUpdateProjection(e.plan.GetUpdateColIdxs(), e.plan.GetExprs(), binding, e.resultSlot)
	return err
}

// newVersion computes the new row from the child row and the old version
func (e *UpdateExecutor) newVersion(planSlot *tuple.Slot, old *tuple.Tuple) (*tuple.Slot, error) {
	e.ectx.ResetExprContext()
	e.oldSlot.StorePhysical(old, false)
	e.ectx.SetOuterTuple(planSlot)
	e.ectx.SetSlot(expression.OldVar, e.oldSlot)
	return e.projInfo.Project(e.ectx)
}

// Next updates rows of the child until a returning row is produced or the child ends
func (e *UpdateExecutor) Next() (*tuple.Slot, Done, error) {
	ctx := e.context.GetContext()
	storage := e.context.GetStorage()
	for {
		planSlot, done, err := ExecProcNode(e.child_)
		if err != nil || done {
			return nil, true, err
		}
		rid, err := e.targetRID(planSlot)
		if err != nil {
			return nil, true, err
		}
		// the version which the child read
		old, found, err := storage.FetchRow(ctx, e.plan.GetRelation(), rid, nil)
		if err != nil {
			return nil, true, err
		}
		if !found {
			return nil, true, errors.AssertionFailedf("target row %s of update is not found", rid)
		}

		var updated *tuple.Slot
	retry:
		for {
			newSlot, err := e.newVersion(planSlot, old)
			if err != nil {
				return nil, true, err
			}
			res, err := storage.UpdateRow(ctx, e.plan.GetRelation(), rid, e.context.GetTransaction(), newSlot.GetAllValues(), e.plan.GetRowMark().Wait)
			if err != nil {
				return nil, true, err
			}
			switch res.Result {
			case access.TMOk:
				newSlot.SetRID(res.NewRID)
				updated = newSlot
				break retry
			case access.TMUpdated, access.TMDeleted:
				out, err := e.recheck(planSlot, rid)
				if err != nil {
					return nil, true, err
				}
				if out == nil {
					break retry
				}
				// compute again from the validated version
				rid = out.RID
				old = out.Locked
				if out.Slot != nil {
					planSlot = out.Slot
				}
			case access.TMSelfModified, access.TMWouldBlock:
				break retry
			default:
				return nil, true, errors.AssertionFailedf("attempted to update invisible row %s", rid)
			}
		}
		if updated == nil {
			continue
		}
		e.context.processed++
		if e.plan.IsReturning() {
			return updated, false, nil
		}
	}
}
