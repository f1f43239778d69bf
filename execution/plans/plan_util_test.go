package plans

import (
	"testing"

	"github.com/ryogrid/samehada-executor/storage/table/schema"
	testingpkg "github.com/ryogrid/samehada-executor/testing/testing_assert"
	"github.com/ryogrid/samehada-executor/types"
)

func TestPlanTreeString(t *testing.T) {
	sc := schema.NewSchemaFromTypes([]string{"id"}, []types.TypeID{types.Integer})
	scan := NewSeqScanPlanNode(1, 1, sc, nil, nil, nil)
	plan := NewLimitPlanNode(NewSelectionPlanNode(scan), 5, 1)

	expected := "Limit [limit: 5 offset: 1]\n" +
		"  Selection []\n" +
		"    SeqScan [rel: 1 rti: 1 qual: ]\n"
	testingpkg.Equals(t, expected, PlanTreeString(plan))
}
