package tuple

import (
	"testing"

	"github.com/ryogrid/samehada-executor/memory"
	"github.com/ryogrid/samehada-executor/storage/page"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/types"
	"github.com/stretchr/testify/require"
)

func testSchema() *schema.Schema {
	return schema.NewSchemaFromTypes([]string{"name", "age"}, []types.TypeID{types.Varchar, types.Integer})
}

func TestSlotRepresentationsAreInterchangeable(t *testing.T) {
	sc := testSchema()
	values := []types.Value{types.NewVarchar("A"), types.NewInteger(25)}

	virtual := NewVirtualSlot(sc)
	require.True(t, virtual.IsEmpty())
	virtual.StoreValues(values)

	minimal := NewSlot(sc, MinimalSlot)
	minimal.StoreMinimal(virtual.CopyMinimalTuple(), true)

	physical := NewSlot(sc, PhysicalSlot)
	tup := NewTupleFromSchema(values, sc)
	rid := page.NewRID(1, 2)
	tup.SetRID(&rid)
	physical.StorePhysical(tup, false)

	for _, s := range []*Slot{virtual, minimal, physical} {
		require.Equal(t, "A", s.GetValue(0).ToVarchar(), s.Kind().String())
		require.Equal(t, int32(25), s.GetValue(1).ToInteger(), s.Kind().String())
		require.Equal(t, "(A, 25)", s.String())
	}
	require.Equal(t, rid, physical.GetRID())
}

func TestSlotLazyDeform(t *testing.T) {
	sc := testSchema()
	s := NewSlot(sc, MinimalSlot)
	s.StoreMinimal(NewMinimalTupleFromSchema([]types.Value{types.NewVarchar("B"), types.NewInteger(40)}, sc), false)
	require.Equal(t, uint32(0), s.nvalid)
	s.SlotGetSomeAttrs(1)
	require.Equal(t, uint32(1), s.nvalid)
	require.Equal(t, int32(40), s.GetValue(1).ToInteger())
	require.Equal(t, uint32(2), s.nvalid)
}

func TestSlotMaterializeCopiesIntoArena(t *testing.T) {
	sc := testSchema()
	mc := memory.NewRootContext("slot", 0)
	data := NewMinimalTupleFromSchema([]types.Value{types.NewVarchar("C"), types.NewInteger(1)}, sc).Data()

	s := NewSlot(sc, MinimalSlot)
	s.SetMemoryContext(mc)
	s.StoreMinimal(NewMinimalTuple(data), false)
	require.False(t, s.ShouldFree())
	require.NoError(t, s.Materialize())
	require.True(t, s.ShouldFree())
	require.Greater(t, mc.AllocatedBytes(), int64(0))

	// changing the source does not affect materialized slot
	for i := range data {
		data[i] = 0
	}
	require.Equal(t, "C", s.GetValue(0).ToVarchar())
}

func TestSlotCopyFromAndAllNull(t *testing.T) {
	sc := testSchema()
	src := NewVirtualSlot(sc).StoreValues([]types.Value{types.NewVarchar("D"), types.NewInteger(3)})
	src.SetRID(page.NewRID(0, 9))
	dst := NewSlot(sc, MinimalSlot).CopyFrom(src)
	require.Equal(t, "(D, 3)", dst.String())
	require.Equal(t, page.NewRID(0, 9), dst.GetRID())

	dst.StoreAllNull()
	require.True(t, dst.GetValue(0).IsNull())
	require.True(t, dst.GetValue(1).IsNull())

	require.Panics(t, func() { NewVirtualSlot(sc).StoreValues([]types.Value{types.NewInteger(1)}) })
	require.Panics(t, func() { NewVirtualSlot(sc).StoreMinimal(src.CopyMinimalTuple(), true) })
}
