package memory

import (
	"testing"

	"github.com/ryogrid/samehada-executor/common"
	"github.com/stretchr/testify/require"
)

func TestAllocAndReset(t *testing.T) {
	query := NewRootContext("query", 0)
	tuple := NewMemoryContext("per-tuple", query)

	buf, err := tuple.Alloc(100)
	require.NoError(t, err)
	require.Len(t, buf, 100)
	copy(buf, []byte("abc"))

	buf2, err := tuple.CopyBytes([]byte("xyz"))
	require.NoError(t, err)
	require.Equal(t, []byte("xyz"), buf2)
	require.Equal(t, int64(common.MemoryChunkSize), query.AllocatedBytes())

	resetCalled := 0
	tuple.RegisterResetCallback(func() { resetCalled++ })
	query.Reset()
	require.Equal(t, 1, resetCalled)
	// first chunk is kept for next rows
	require.Equal(t, int64(common.MemoryChunkSize), tuple.AllocatedBytes())

	again, err := tuple.Alloc(3)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 0, 0}, again)

	query.Reset()
	require.Equal(t, 0, resetCalled-1)
}

func TestLargeAllocGetsOwnChunk(t *testing.T) {
	mc := NewRootContext("q", 0)
	small, err := mc.Alloc(10)
	require.NoError(t, err)
	large, err := mc.Alloc(common.MemoryChunkSize)
	require.NoError(t, err)
	require.Len(t, large, common.MemoryChunkSize)
	small2, err := mc.Alloc(10)
	require.NoError(t, err)
	small[0] = 1
	small2[0] = 2
	require.Equal(t, byte(1), small[0])
	require.Equal(t, int64(2*common.MemoryChunkSize), mc.AllocatedBytes())
}

func TestLimitIsEnforcedOnSubtree(t *testing.T) {
	query := NewRootContext("query", 2*common.MemoryChunkSize)
	node := NewMemoryContext("node", query)

	_, err := node.Alloc(common.MemoryChunkSize)
	require.NoError(t, err)
	require.NoError(t, query.Track(common.MemoryChunkSize/2))
	_, err = node.Alloc(common.MemoryChunkSize)
	require.Error(t, err)
	require.True(t, common.IsOOMError(err))

	node.Delete()
	require.True(t, node.IsDeleted())
	require.Empty(t, query.Children())
	require.Equal(t, int64(common.MemoryChunkSize/2), query.AllocatedBytes())
}

func TestScopeGuard(t *testing.T) {
	query := NewRootContext("query", 0)
	tuple := NewMemoryContext("tuple", query)
	scopes := NewScopeStack(query)

	func() {
		g := scopes.Enter(tuple)
		defer g.Exit()
		require.Same(t, tuple, scopes.Current())
		require.Equal(t, 1, scopes.Depth())
	}()
	require.Same(t, query, scopes.Current())
	require.Equal(t, 0, scopes.Depth())

	outer := scopes.Enter(tuple)
	inner := scopes.Enter(query)
	require.Panics(t, func() { outer.Exit() })
	inner.Exit()
	outer.Exit()
	// second exit is no-op
	outer.Exit()
	require.Same(t, query, scopes.Current())
}
