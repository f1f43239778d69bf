package executors

import (
	"github.com/cockroachdb/errors"
	"github.com/ryogrid/samehada-executor/execution/plans"
	"github.com/ryogrid/samehada-executor/storage/access"
	"github.com/ryogrid/samehada-executor/storage/tuple"
)

/**
 * DeleteExecutor deletes rows found by the child executor.
 * when the plan is returning, deleted rows are returned one per call.
 */
type DeleteExecutor struct {
	*modifyState
	plan *plans.DeletePlanNode
}

func NewDeleteExecutor(context *ExecutorContext, plan *plans.DeletePlanNode) *DeleteExecutor {
	return &DeleteExecutor{newModifyState(context, plan), plan}
}

func (e *DeleteExecutor) Init(eflags int) error {
	if err := e.initModify(eflags); err != nil {
		return err
	}
	e.resultSlot = tuple.NewSlot(e.plan.GetRelationSchema(), tuple.PhysicalSlot)
	return nil
}

// Next deletes rows of the child until a returning row is produced or the child ends
func (e *DeleteExecutor) Next() (*tuple.Slot, Done, error) {
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

		deleted := false
	retry:
		for {
			res, err := storage.DeleteRow(ctx, e.plan.GetRelation(), rid, e.context.GetTransaction(), e.plan.GetRowMark().Wait)
			if err != nil {
				return nil, true, err
			}
			switch res.Result {
			case access.TMOk:
				deleted = true
				break retry
			case access.TMUpdated, access.TMDeleted:
				out, err := e.recheck(planSlot, rid)
				if err != nil {
					return nil, true, err
				}
				if out == nil {
					break retry
				}
				// delete the version which was validated
				rid = out.RID
			case access.TMSelfModified, access.TMWouldBlock:
				// already deleted by this statement, or skipped
				break retry
			default:
				return nil, true, errors.AssertionFailedf("attempted to delete invisible row %s", rid)
			}
		}
		if !deleted {
			continue
		}
		e.context.processed++
		if e.plan.IsReturning() {
			t, found, err := storage.FetchRow(ctx, e.plan.GetRelation(), rid, nil)
			if err != nil {
				return nil, true, err
			}
			if found {
				return e.resultSlot.StorePhysical(t, false), false, nil
			}
		}
	}
}
