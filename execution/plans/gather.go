package plans

import "fmt"

/**
 * GatherPlanNode runs copies of the child plan in worker goroutines and
 * returns rows of all of them in arrival order. parallel scans in the
 * child divide pages of the relation among the copies.
 */
type GatherPlanNode struct {
	*AbstractPlanNode
	numWorkers int
}

func NewGatherPlanNode(child Plan, numWorkers int) *GatherPlanNode {
	return &GatherPlanNode{newAbstractPlanNode(child.OutputSchema(), child), numWorkers}
}

func (p *GatherPlanNode) GetType() PlanType { return Gather }

func (p *GatherPlanNode) GetNumWorkers() int { return p.numWorkers }

func (p *GatherPlanNode) GetDebugStr() string {
	return fmt.Sprintf("Gather [workers: %d]", p.numWorkers)
}
