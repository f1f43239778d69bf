package memory

import (
	"fmt"

	"github.com/ryogrid/samehada-executor/common"
)

/**
 * MemoryContext is a scoped arena. allocations are not freed one by one but
 * at once when the context is reset or deleted. contexts form a tree, and
 * resetting or deleting a context does the same to its descendants.
 *
 * byte accounting goes up to the root, so a limit set on a context bounds
 * the sum of allocations of its whole subtree.
 */
type MemoryContext struct {
	name     string
	parent   *MemoryContext
	children []*MemoryContext

	chunks    [][]byte
	chunkSize int
	// offset of free space in last chunk
	freeOffset int

	// bytes allocated from this context itself
	selfBytes int64
	// bytes of this context and all descendants
	totalBytes int64
	// 0 means unlimited
	limit int64

	resetCallbacks []func()
	deleted        bool
}

func NewMemoryContext(name string, parent *MemoryContext) *MemoryContext {
	ret := &MemoryContext{name: name, parent: parent, chunkSize: common.MemoryChunkSize}
	if parent != nil {
		common.SH_Assert(!parent.deleted, "parent memory context is already deleted")
		parent.children = append(parent.children, ret)
	}
	return ret
}

// NewRootContext creates top level context whose subtree can't allocate more than limit bytes.
func NewRootContext(name string, limit int64) *MemoryContext {
	ret := NewMemoryContext(name, nil)
	ret.limit = limit
	return ret
}

func (mc *MemoryContext) Name() string {
	return mc.name
}

func (mc *MemoryContext) Parent() *MemoryContext {
	return mc.parent
}

func (mc *MemoryContext) SetLimit(limit int64) {
	mc.limit = limit
}

// AllocatedBytes returns bytes held by this context and its descendants.
func (mc *MemoryContext) AllocatedBytes() int64 {
	return mc.totalBytes
}

func (mc *MemoryContext) IsDeleted() bool {
	return mc.deleted
}

// reserve accounts size bytes to this context and ancestors
func (mc *MemoryContext) reserve(size int64) error {
	common.SH_Assert(!mc.deleted, fmt.Sprintf("memory context %s is already deleted", mc.name))
	for c := mc; c != nil; c = c.parent {
		if c.limit > 0 && c.totalBytes+size > c.limit {
			return common.NewOOMError("out of memory: failed on request of size %d in memory context \"%s\" (limit %d bytes of \"%s\")",
				size, mc.name, c.limit, c.name)
		}
	}
	mc.selfBytes += size
	for c := mc; c != nil; c = c.parent {
		c.totalBytes += size
	}
	return nil
}

func (mc *MemoryContext) release(size int64) {
	mc.selfBytes -= size
	for c := mc; c != nil; c = c.parent {
		c.totalBytes -= size
	}
}

// Alloc returns zeroed buffer of size bytes which lives until next reset of mc.
func (mc *MemoryContext) Alloc(size int) ([]byte, error) {
	if size < 0 {
		return nil, common.NewEvalError("invalid memory alloc request size %d", size)
	}
	// large request gets dedicated chunk
	if size > mc.chunkSize/4 {
		if err := mc.reserve(int64(size)); err != nil {
			return nil, err
		}
		chunk := make([]byte, size)
		if len(mc.chunks) == 0 {
			mc.chunks = append(mc.chunks, chunk)
			mc.freeOffset = size
		} else {
			// keep last chunk as current one
			last := mc.chunks[len(mc.chunks)-1]
			mc.chunks[len(mc.chunks)-1] = chunk
			mc.chunks = append(mc.chunks, last)
		}
		return chunk, nil
	}

	if len(mc.chunks) == 0 || mc.freeOffset+size > len(mc.chunks[len(mc.chunks)-1]) {
		if err := mc.reserve(int64(mc.chunkSize)); err != nil {
			return nil, err
		}
		mc.chunks = append(mc.chunks, make([]byte, mc.chunkSize))
		mc.freeOffset = 0
	}
	last := mc.chunks[len(mc.chunks)-1]
	ret := last[mc.freeOffset : mc.freeOffset+size : mc.freeOffset+size]
	mc.freeOffset += size
	return ret, nil
}

// CopyBytes copies src into buffer allocated from mc.
func (mc *MemoryContext) CopyBytes(src []byte) ([]byte, error) {
	buf, err := mc.Alloc(len(src))
	if err != nil {
		return nil, err
	}
	copy(buf, src)
	return buf, nil
}

// Track accounts memory which is held by go objects owned by mc,
// such as hash table entries. it is released at reset like Alloc-ed one.
func (mc *MemoryContext) Track(size int64) error {
	return mc.reserve(size)
}

// RegisterResetCallback registers fn which is called once when mc is reset or deleted next time.
func (mc *MemoryContext) RegisterResetCallback(fn func()) {
	mc.resetCallbacks = append(mc.resetCallbacks, fn)
}

func (mc *MemoryContext) callResetCallbacks() {
	// callbacks are called in reverse order of registration
	cbs := mc.resetCallbacks
	mc.resetCallbacks = nil
	for i := len(cbs) - 1; i >= 0; i-- {
		cbs[i]()
	}
}

// Reset frees all allocations of mc and descendants. descendants themselves are kept.
// first chunk is kept for reuse.
func (mc *MemoryContext) Reset() {
	if mc.deleted {
		return
	}
	for _, child := range mc.children {
		child.Reset()
	}
	mc.resetOnlySelf()
}

func (mc *MemoryContext) resetOnlySelf() {
	mc.callResetCallbacks()
	if mc.selfBytes == 0 {
		return
	}
	var keep []byte
	if len(mc.chunks) > 0 && len(mc.chunks[0]) == mc.chunkSize {
		keep = mc.chunks[0]
		for i := range keep {
			keep[i] = 0
		}
	}
	mc.release(mc.selfBytes)
	mc.chunks = mc.chunks[:0]
	mc.freeOffset = 0
	if keep != nil {
		mc.chunks = append(mc.chunks, keep)
		// kept chunk is still accounted
		mc.selfBytes += int64(len(keep))
		for c := mc; c != nil; c = c.parent {
			c.totalBytes += int64(len(keep))
		}
	}
}

// Delete frees everything of mc and descendants and detaches mc from its parent.
func (mc *MemoryContext) Delete() {
	if mc.deleted {
		return
	}
	for len(mc.children) > 0 {
		mc.children[len(mc.children)-1].Delete()
	}
	mc.callResetCallbacks()
	mc.release(mc.selfBytes)
	mc.chunks = nil
	mc.freeOffset = 0
	if mc.parent != nil {
		siblings := mc.parent.children
		for i, c := range siblings {
			if c == mc {
				mc.parent.children = append(siblings[:i], siblings[i+1:]...)
				break
			}
		}
	}
	mc.deleted = true
}

// DeleteChildren deletes all descendants of mc
func (mc *MemoryContext) DeleteChildren() {
	for len(mc.children) > 0 {
		mc.children[len(mc.children)-1].Delete()
	}
}

func (mc *MemoryContext) Children() []*MemoryContext {
	return mc.children
}
