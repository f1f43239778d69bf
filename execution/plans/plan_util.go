package plans

import (
	"strings"

	"github.com/ryogrid/samehada-executor/execution/expression"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
)

func makeMergedOutputSchema(left_schema *schema.Schema, right_schema *schema.Schema) *schema.Schema {
	return schema.ConcatSchema(left_schema, right_schema)
}

func exprListStr(exprs []expression.Expression) string {
	strs := make([]string, 0, len(exprs))
	for _, exp := range exprs {
		strs = append(strs, expression.PrintExpTree(exp, ""))
	}
	return strings.Join(strs, " AND ")
}

// PlanTreeString renders plan and its descendants, one node per line with indent by depth
func PlanTreeString(plan Plan) string {
	sb := new(strings.Builder)
	writePlanTree(sb, plan, 0)
	return sb.String()
}

func writePlanTree(sb *strings.Builder, plan Plan, indent int) {
	sb.WriteString(strings.Repeat(" ", indent))
	sb.WriteString(plan.GetDebugStr())
	sb.WriteString("\n")
	for _, child := range plan.GetChildren() {
		writePlanTree(sb, child, indent+2)
	}
}
