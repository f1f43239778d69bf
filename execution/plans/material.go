package plans

// MaterialPlanNode stores rows of the child so they can be read again cheaply
type MaterialPlanNode struct {
	*AbstractPlanNode
}

func NewMaterialPlanNode(child Plan) *MaterialPlanNode {
	return &MaterialPlanNode{newAbstractPlanNode(child.OutputSchema(), child)}
}

func (p *MaterialPlanNode) GetType() PlanType { return Material }

func (p *MaterialPlanNode) GetDebugStr() string { return "Material" }
