package memory

import (
	"github.com/golang-collections/collections/stack"
	"github.com/ryogrid/samehada-executor/common"
)

// ScopeStack tracks the current memory context of one executor tree.
// it is not safe for concurrent use. each tree (and each parallel worker) has its own.
type ScopeStack struct {
	current *MemoryContext
	saved   *stack.Stack
}

func NewScopeStack(base *MemoryContext) *ScopeStack {
	return &ScopeStack{base, stack.New()}
}

func (s *ScopeStack) Current() *MemoryContext {
	return s.current
}

func (s *ScopeStack) Depth() int {
	return s.saved.Len()
}

// Enter makes mc current. returned guard must be exited, typically with defer.
func (s *ScopeStack) Enter(mc *MemoryContext) *Guard {
	s.saved.Push(s.current)
	s.current = mc
	return &Guard{s, mc, s.saved.Len()}
}

// Guard restores the context which was current before Enter
type Guard struct {
	scopes  *ScopeStack
	entered *MemoryContext
	depth   int
}

func (g *Guard) Exit() {
	if g == nil || g.scopes == nil {
		return
	}
	common.SH_Assert(g.scopes.saved.Len() == g.depth && g.scopes.current == g.entered,
		"memory scope guards must be exited in reverse order of enter")
	g.scopes.current = g.scopes.saved.Pop().(*MemoryContext)
	g.scopes = nil
}
