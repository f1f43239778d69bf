package tuple

import (
	"fmt"
	"strings"

	"github.com/ryogrid/samehada-executor/common"
	"github.com/ryogrid/samehada-executor/memory"
	"github.com/ryogrid/samehada-executor/storage/page"
	"github.com/ryogrid/samehada-executor/storage/table/schema"
	"github.com/ryogrid/samehada-executor/types"
)

type SlotKind int

const (
	// values array only
	VirtualSlot SlotKind = iota
	// backed by MinimalTuple
	MinimalSlot
	// backed by Tuple from storage
	PhysicalSlot
)

func (k SlotKind) String() string {
	return [...]string{"virtual", "minimal", "physical"}[k]
}

/**
 * Slot holds one row together with its descriptor. descriptor is fixed for
 * the lifetime of the slot but backing representation changes row by row.
 * values of backed tuple are deformed lazily on access.
 *
 * a slot is created once per node output (or scratch need) and reused for
 * every row: Clear then Store*.
 */
type Slot struct {
	kind   SlotKind
	schema *schema.Schema
	empty  bool

	values []types.Value
	// leading values which are already deformed
	nvalid uint32

	// slot owns the backing tuple and it is not shared with others
	shouldFree bool
	physical   *Tuple
	minimal    *MinimalTuple

	rid page.RID
	// arena to which Materialize copies borrowed tuple data. nil means go heap
	mem *memory.MemoryContext
}

func NewSlot(schema_ *schema.Schema, kind SlotKind) *Slot {
	return &Slot{
		kind:   kind,
		schema: schema_,
		empty:  true,
		values: make([]types.Value, schema_.GetColumnCount()),
		rid:    page.InvalidRID,
	}
}

func NewVirtualSlot(schema_ *schema.Schema) *Slot {
	return NewSlot(schema_, VirtualSlot)
}

func (s *Slot) Kind() SlotKind {
	return s.kind
}

func (s *Slot) Schema() *schema.Schema {
	return s.schema
}

func (s *Slot) IsEmpty() bool {
	return s.empty
}

func (s *Slot) SetMemoryContext(mc *memory.MemoryContext) {
	s.mem = mc
}

func (s *Slot) ShouldFree() bool {
	return s.shouldFree
}

// Clear makes the slot empty. backing tuple is released.
func (s *Slot) Clear() *Slot {
	s.empty = true
	s.nvalid = 0
	s.shouldFree = false
	s.physical = nil
	s.minimal = nil
	s.rid = page.InvalidRID
	return s
}

// StoreValues stores values as virtual tuple. any kind of slot can hold virtual tuple.
func (s *Slot) StoreValues(values []types.Value) *Slot {
	common.SH_Assert(uint32(len(values)) == s.schema.GetColumnCount(),
		fmt.Sprintf("slot of %s can't store %d values", s.schema, len(values)))
	s.Clear()
	copy(s.values, values)
	s.nvalid = uint32(len(values))
	s.empty = false
	return s
}

// StoreAllNull stores a row whose all columns are NULL. used by outer joins.
func (s *Slot) StoreAllNull() *Slot {
	s.Clear()
	for i, col := range s.schema.GetColumns() {
		s.values[i] = types.NewNull(col.GetType())
	}
	s.nvalid = s.schema.GetColumnCount()
	s.empty = false
	return s
}

func (s *Slot) StorePhysical(t *Tuple, shouldFree bool) *Slot {
	common.SH_Assert(s.kind == PhysicalSlot, "physical tuple can't be stored to "+s.kind.String()+" slot")
	common.SH_Assert(t != nil, "nil tuple is stored")
	s.Clear()
	s.physical = t
	s.shouldFree = shouldFree
	if t.GetRID() != nil {
		s.rid = *t.GetRID()
	}
	s.empty = false
	return s
}

func (s *Slot) StoreMinimal(mt *MinimalTuple, shouldFree bool) *Slot {
	common.SH_Assert(s.kind == MinimalSlot, "minimal tuple can't be stored to "+s.kind.String()+" slot")
	common.SH_Assert(mt != nil, "nil tuple is stored")
	s.Clear()
	s.minimal = mt
	s.shouldFree = shouldFree
	s.empty = false
	return s
}

// ForceStoreMinimal stores mt to any kind of slot converting representation if needed.
func (s *Slot) ForceStoreMinimal(mt *MinimalTuple, shouldFree bool) *Slot {
	switch s.kind {
	case MinimalSlot:
		return s.StoreMinimal(mt, shouldFree)
	case PhysicalSlot:
		return s.StorePhysical(NewTuple(nil, mt.Size(), mt.Data()), shouldFree)
	}
	s.Clear()
	for i := uint32(0); i < s.schema.GetColumnCount(); i++ {
		s.values[i] = mt.GetValue(s.schema, i)
	}
	s.nvalid = s.schema.GetColumnCount()
	s.empty = false
	return s
}

// SlotGetSomeAttrs deforms leading natts values
func (s *Slot) SlotGetSomeAttrs(natts uint32) {
	common.SH_Assert(!s.empty, "value is read from empty slot")
	if natts > s.schema.GetColumnCount() {
		natts = s.schema.GetColumnCount()
	}
	for ; s.nvalid < natts; s.nvalid++ {
		switch {
		case s.physical != nil:
			s.values[s.nvalid] = s.physical.GetValue(s.schema, s.nvalid)
		case s.minimal != nil:
			s.values[s.nvalid] = s.minimal.GetValue(s.schema, s.nvalid)
		default:
			panic("virtual slot has less values than its descriptor")
		}
	}
}

func (s *Slot) GetValue(colIndex uint32) types.Value {
	if colIndex >= s.nvalid {
		s.SlotGetSomeAttrs(colIndex + 1)
	}
	return s.values[colIndex]
}

// GetAllValues returns values of all columns. returned slice is borrowed from the slot.
func (s *Slot) GetAllValues() []types.Value {
	s.SlotGetSomeAttrs(s.schema.GetColumnCount())
	return s.values
}

// CopyValues returns copy of values which is valid after the slot is reused
func (s *Slot) CopyValues() []types.Value {
	return append([]types.Value(nil), s.GetAllValues()...)
}

// Materialize makes the slot independent of any external storage.
func (s *Slot) Materialize() error {
	if s.empty || s.shouldFree {
		return nil
	}
	copyData := func(src []byte) ([]byte, error) {
		if s.mem != nil {
			return s.mem.CopyBytes(src)
		}
		return append([]byte(nil), src...), nil
	}
	switch {
	case s.physical != nil:
		data, err := copyData(s.physical.Data())
		if err != nil {
			return err
		}
		t := NewTuple(s.physical.GetRID(), uint32(len(data)), data)
		t.SetHeader(s.physical.Header())
		s.physical = t
	case s.minimal != nil:
		data, err := copyData(s.minimal.Data())
		if err != nil {
			return err
		}
		s.minimal = NewMinimalTuple(data)
	}
	s.shouldFree = true
	return nil
}

// CopyFrom copies content of src into s. s and src must have compatible descriptors.
func (s *Slot) CopyFrom(src *Slot) *Slot {
	common.SH_Assert(s.schema.Equals(src.schema), "slots of different shape: "+s.schema.String()+" and "+src.schema.String())
	if src.empty {
		return s.Clear()
	}
	switch {
	case s.kind == PhysicalSlot && src.physical != nil:
		s.StorePhysical(src.physical.Copy(), true)
	case s.kind == MinimalSlot && src.minimal != nil:
		s.StoreMinimal(NewMinimalTuple(append([]byte(nil), src.minimal.Data()...)), true)
	default:
		s.StoreValues(src.GetAllValues())
		s.shouldFree = true
	}
	s.rid = src.rid
	return s
}

// CopyMinimalTuple forms a minimal tuple which is independent from the slot
func (s *Slot) CopyMinimalTuple() *MinimalTuple {
	common.SH_Assert(!s.empty, "minimal tuple is formed from empty slot")
	if s.minimal != nil {
		return NewMinimalTuple(append([]byte(nil), s.minimal.Data()...))
	}
	return NewMinimalTupleFromSchema(s.GetAllValues(), s.schema)
}

// GetMinimalTuple returns the backing minimal tuple or forms one
func (s *Slot) GetMinimalTuple() *MinimalTuple {
	if s.minimal != nil {
		return s.minimal
	}
	return s.CopyMinimalTuple()
}

// GetPhysicalTuple returns the backing tuple of a physical slot, otherwise forms new one.
func (s *Slot) GetPhysicalTuple() *Tuple {
	common.SH_Assert(!s.empty, "tuple is formed from empty slot")
	if s.physical != nil {
		return s.physical
	}
	t := NewTupleFromSchema(s.GetAllValues(), s.schema)
	if s.rid.IsValid() {
		rid := s.rid
		t.SetRID(&rid)
	}
	return t
}

func (s *Slot) GetRID() page.RID {
	return s.rid
}

func (s *Slot) SetRID(rid page.RID) {
	s.rid = rid
}

func (s *Slot) String() string {
	if s.empty {
		return "(empty)"
	}
	strs := make([]string, 0, s.schema.GetColumnCount())
	for _, v := range s.GetAllValues() {
		strs = append(strs, v.String())
	}
	return "(" + strings.Join(strs, ", ") + ")"
}
