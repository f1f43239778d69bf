package plans

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/ryogrid/samehada-executor/execution/expression"
)

// expressions returns all expressions held by the node itself
func nodeExpressions(plan Plan) []expression.Expression {
	ret := make([]expression.Expression, 0)
	switch p := plan.(type) {
	case *SeqScanPlanNode:
		ret = append(append(ret, p.qual...), p.targets...)
	case *ValuesScanPlanNode:
		for _, row := range p.rows {
			ret = append(ret, row...)
		}
	case *SelectionPlanNode:
		ret = append(ret, p.predicate...)
	case *ProjectionPlanNode:
		ret = append(ret, p.targets...)
	case *NestedLoopJoinPlanNode:
		ret = append(append(append(ret, p.joinQual...), p.otherQual...), p.targets...)
	case *HashJoinPlanNode:
		ret = append(append(append(ret, p.joinQual...), p.otherQual...), p.targets...)
	case *MergeJoinPlanNode:
		ret = append(append(append(ret, p.joinQual...), p.otherQual...), p.targets...)
	case *AggregationPlanNode:
		ret = append(ret, p.having_...)
		for _, agg := range p.aggregates {
			ret = append(ret, agg.Arg, agg.Filter)
		}
	case *UpdatePlanNode:
		ret = append(ret, p.exprs...)
	}
	return ret
}

/**
 * FinalizePlan numbers nodes of the tree in pre-order and computes exec
 * param sets. a nest loop join sets its nest params, so they are not
 * external for the join itself but they are for its inner subtree.
 * it must be called once after the tree is built.
 */
func FinalizePlan(root Plan) {
	nextID := 0
	var walk func(plan Plan) *roaring.Bitmap
	walk = func(plan Plan) *roaring.Bitmap {
		b := plan.base()
		b.planID = nextID
		nextID++

		all := roaring.New()
		for _, exp := range nodeExpressions(plan) {
			for _, id := range expression.ExecParamRefs(exp) {
				all.Add(uint32(id))
			}
		}
		for _, child := range plan.GetChildren() {
			all.Or(walk(child))
		}
		ext := all.Clone()
		if nl, ok := plan.(*NestedLoopJoinPlanNode); ok {
			for _, param := range nl.nestParams {
				ext.Remove(uint32(param.First))
			}
		}
		b.allParam = all
		b.extParam = ext
		b.finalized = true
		return ext
	}
	walk(root)
}
