package page

import (
	"testing"

	testingpkg "github.com/ryogrid/samehada-executor/testing/testing_assert"
	"github.com/ryogrid/samehada-executor/types"
)

func TestRID(t *testing.T) {
	rid := RID{}
	rid.Set(types.PageID(0), uint32(0))
	testingpkg.Equals(t, types.PageID(0), rid.GetPageId())
	testingpkg.Equals(t, uint32(0), rid.GetSlot())
	testingpkg.SimpleAssert(t, rid.IsValid())
	testingpkg.SimpleAssert(t, !InvalidRID.IsValid())
}

func TestRIDOrder(t *testing.T) {
	testingpkg.SimpleAssert(t, NewRID(0, 5).Less(NewRID(1, 0)))
	testingpkg.SimpleAssert(t, NewRID(1, 0).Less(NewRID(1, 1)))
	testingpkg.SimpleAssert(t, !NewRID(1, 1).Less(NewRID(1, 1)))
	testingpkg.Equals(t, "(2,3)", NewRID(2, 3).String())
}
