package executors

import (
	"fmt"
	"strings"
	"time"
)

// Instrumentation counts what a node did. it is updated only when the context has instrument on.
type Instrumentation struct {
	// rows returned over all loops
	TuplesOut uint64
	// completed scans. a rescan finishes a loop
	Loops     uint64
	TotalTime time.Duration

	running      bool
	tuplesInLoop uint64
	started      time.Time
}

func (in *Instrumentation) startNode() {
	in.running = true
	in.started = time.Now()
}

func (in *Instrumentation) stopNode(gotRow bool) {
	in.TotalTime += time.Since(in.started)
	if gotRow {
		in.TuplesOut++
		in.tuplesInLoop++
	}
}

func (in *Instrumentation) endLoop() {
	in.Loops++
	in.tuplesInLoop = 0
	in.running = false
}

/**
 * ExplainNode dumps the executor tree as indented text. counters are
 * printed when the tree ran with instrumentation.
 */
func ExplainNode(e Executor) string {
	var sb strings.Builder
	explainNode(&sb, e, 0)
	return sb.String()
}

func explainNode(sb *strings.Builder, e Executor, depth int) {
	ps := e.GetPlanState()
	sb.WriteString(strings.Repeat("  ", depth))
	if depth > 0 {
		sb.WriteString("-> ")
	}
	sb.WriteString(ps.plan.GetDebugStr())
	if ps.context.instrument {
		loops := ps.instr.Loops
		if ps.instr.running {
			loops++
		}
		fmt.Fprintf(sb, " (actual rows=%d loops=%d time=%s)", ps.instr.TuplesOut, loops, ps.instr.TotalTime)
	}
	sb.WriteString("\n")
	for _, child := range ps.children {
		explainNode(sb, child, depth+1)
	}
}
