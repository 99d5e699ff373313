package forkchoice

import (
	"testing"

	"github.com/go-test/deep"
	"github.com/holiman/uint256"

	"github.com/gladcow/silkworm/common"
	"github.com/gladcow/silkworm/core/types"
)

func hash(b byte) common.Hash {
	var h common.Hash
	h[31] = b
	return h
}

func header(parent common.Hash, number uint64, difficulty uint64, h common.Hash) *types.BlockHeader {
	return types.NewBlockHeader(parent, number, uint256.NewInt(difficulty), h)
}

func TestResetHeadThenAddSameHeaderLeavesHeadUnchanged(t *testing.T) {
	v := New(DefaultWindow)
	h := hash(1)
	head := types.ChainHead{BlockId: types.BlockId{Number: 100, Hash: h}, TotalDifficulty: uint256.NewInt(1000)}

	v.ResetHead(head)
	v.Add(header(common.Hash{}, 100, 0, h))

	gotHeader, gotTD := v.Head()
	if diff := deep.Equal(gotHeader.Hash(), h); diff != nil {
		t.Fatalf("head hash changed: %v", diff)
	}
	if gotTD.Cmp(uint256.NewInt(1000)) != 0 {
		t.Fatalf("head TD changed: got %v want 1000", gotTD)
	}
	if v.HeadHeight() != 100 {
		t.Fatalf("head height changed: got %d want 100", v.HeadHeight())
	}
}

func TestAddPicksHeaviestChain(t *testing.T) {
	v := New(DefaultWindow)
	root := hash(0)
	v.ResetHead(types.ChainHead{BlockId: types.BlockId{Number: 0, Hash: root}, TotalDifficulty: uint256.NewInt(0)})

	lightTip := hash(1)
	heavyMid := hash(2)
	heavyTip := hash(3)

	v.Add(header(root, 1, 10, lightTip))
	v.Add(header(root, 1, 50, heavyMid))
	v.Add(header(heavyMid, 2, 10, heavyTip))

	if v.HeadHash() != heavyTip {
		t.Fatalf("expected heaviest tip %v, got %v", heavyTip, v.HeadHash())
	}
	if v.HeadHeight() != 2 {
		t.Fatalf("expected height 2, got %d", v.HeadHeight())
	}
}

func TestAddTieBreaksByLowerNumberThenHash(t *testing.T) {
	v := New(DefaultWindow)
	root := hash(0)
	v.ResetHead(types.ChainHead{BlockId: types.BlockId{Number: 0, Hash: root}, TotalDifficulty: uint256.NewInt(0)})

	a := hash(0xAA)
	b := hash(0xBB)

	// Equal cumulative TD (10), equal number (1): lexicographically
	// smaller hash must win regardless of insertion order.
	v.Add(header(root, 1, 10, b))
	v.Add(header(root, 1, 10, a))

	if v.HeadHash() != a {
		t.Fatalf("expected tie-break winner %v, got %v", a, v.HeadHash())
	}

	// Equal cumulative TD (10) at a greater number (2): the lower
	// number keeps the lead even though 0x02 sorts before 0xAA.
	mid := hash(0x01)
	deeper := hash(0x02)
	v.Add(header(root, 1, 4, mid))
	v.Add(header(mid, 2, 6, deeper))

	if v.HeadHash() != a {
		t.Fatalf("expected lower-number winner %v, got %v", a, v.HeadHash())
	}
}

func TestOrphanHeaderIsParkedNotBest(t *testing.T) {
	v := New(DefaultWindow)
	root := hash(0)
	v.ResetHead(types.ChainHead{BlockId: types.BlockId{Number: 0, Hash: root}, TotalDifficulty: uint256.NewInt(0)})

	unknownParent := hash(0xFF)
	orphan := hash(1)

	td := v.Add(header(unknownParent, 500, 1_000_000, orphan))
	if td == nil {
		t.Fatal("Add must never fail / return nil")
	}

	if v.HeadHash() != root {
		t.Fatalf("orphan must not become best; head is still %v, got %v", root, v.HeadHash())
	}
}

// TestResumeFeedsNonCanonicalSiblingWithHigherDifficulty reproduces
// the crash-recovery case where the engine's persisted fork-choice
// head lags behind blocks it already inserted on a heavier sibling
// chain: head=(100,anchor), and the last-headers window returned on
// resume is a sibling at 100 with 101-103 built on top of it. The
// sibling's own parent is never known to the view, so only
// AddTrusted's rooting lets that chain out-weigh the anchor.
func TestResumeFeedsNonCanonicalSiblingWithHigherDifficulty(t *testing.T) {
	v := New(DefaultWindow)
	anchor := hash(0xA1)
	v.ResetHead(types.ChainHead{BlockId: types.BlockId{Number: 100, Hash: anchor}, TotalDifficulty: uint256.NewInt(1000)})

	sibling := hash(0xB1)
	h101 := hash(0xB2)
	h102 := hash(0xB3)
	h103 := hash(0xB4)

	v.AddTrusted(header(hash(0x00), 100, 500, sibling))
	v.AddTrusted(header(sibling, 101, 10, h101))
	v.AddTrusted(header(h101, 102, 10, h102))
	v.AddTrusted(header(h102, 103, 10, h103))

	if v.HeadHash() != h103 {
		t.Fatalf("expected heavier sibling tip %v to become head, got %v", h103, v.HeadHash())
	}
	if v.HeadHeight() != 103 {
		t.Fatalf("expected head height 103, got %d", v.HeadHeight())
	}
}

func TestOrphanRelinksWhenParentArrives(t *testing.T) {
	v := New(DefaultWindow)
	root := hash(0)
	v.ResetHead(types.ChainHead{BlockId: types.BlockId{Number: 0, Hash: root}, TotalDifficulty: uint256.NewInt(0)})

	parent := hash(1)
	child := hash(2)

	// child arrives before its parent.
	v.Add(header(parent, 2, 100, child))
	if v.HeadHash() != root {
		t.Fatalf("child should still be parked, head=%v", v.HeadHash())
	}

	v.Add(header(root, 1, 100, parent))

	if v.HeadHash() != child {
		t.Fatalf("child should now be linked and best, got head=%v", v.HeadHash())
	}
	if v.HeadHeight() != 2 {
		t.Fatalf("expected height 2 after relink, got %d", v.HeadHeight())
	}
}
