// Package forkchoice implements an in-memory structure that tracks
// candidate headers by parent hash and exposes the current best head
// under the total-difficulty rule, the same role go-ethereum's
// core.HeaderChain plays for WriteHeader re-routing, just without a
// backing database.
package forkchoice

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
	"github.com/holiman/uint256"

	"github.com/gladcow/silkworm/common"
	"github.com/gladcow/silkworm/core/types"
)

// DefaultWindow is the default bound on the number of headers the
// view keeps. It is deliberately larger than the 128-entry resume
// look-back so a freshly resumed view never immediately evicts the
// headers resume just fed it.
const DefaultWindow = 8192

type entry struct {
	header       *types.BlockHeader
	cumulativeTD *uint256.Int
	linked       bool // false until its parent is known
}

// View is the fork-choice view. It is owned exclusively by the driver
// and needs no locking on that account, but takes an internal mutex
// anyway because the hashicorp/golang-lru cache it is built on is not
// itself safe to share without one, and a bounded mutex costs nothing
// on the driver's single-threaded call path.
type View struct {
	mu      sync.Mutex
	entries *lru.Cache // common.Hash -> *entry

	// pending maps a missing parent hash to the orphaned children
	// waiting on it, so a header that arrives out of order can be
	// relinked once its parent shows up.
	pending map[common.Hash][]common.Hash

	best     *entry
	bestHash common.Hash

	// anchorTD is the cumulative total difficulty ResetHead most
	// recently installed. AddTrusted roots any header whose parent it
	// cannot find here on this baseline, so a non-canonical tip
	// resume feeds in can still compete for best.
	anchorTD *uint256.Int
}

// New creates an empty view with the given window size. Use
// DefaultWindow unless a caller has a specific reason to tune it.
func New(window int) *View {
	if window < 128 {
		window = 128
	}
	cache, err := lru.New(window)
	if err != nil {
		// lru.New only fails for a non-positive size, which cannot
		// happen given the clamp above.
		panic(err)
	}
	return &View{
		entries:  cache,
		pending:  make(map[common.Hash][]common.Hash),
		anchorTD: uint256.NewInt(0),
	}
}

// ResetHead clears the view and installs head as the sole anchor.
func (v *View) ResetHead(head types.ChainHead) {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.entries.Purge()
	v.pending = make(map[common.Hash][]common.Hash)

	td := head.TotalDifficulty
	if td == nil {
		td = uint256.NewInt(0)
	}
	anchor := &entry{
		header:       types.NewBlockHeader(common.Hash{}, head.Number, td.Clone(), head.Hash),
		cumulativeTD: td.Clone(),
		linked:       true,
	}
	v.entries.Add(head.Hash, anchor)
	v.best = anchor
	v.bestHash = head.Hash
	v.anchorTD = td.Clone()
}

// Add folds header into the view, computing and storing its
// cumulative total difficulty, and returns that value so the caller
// can back-annotate a Block. If the header's parent is unknown the
// header is parked: it is stored but is never eligible to become
// best until its parent arrives. Add never fails. This is the path
// for headers arriving from network peers, which must never skip the
// parent check. See AddTrusted for headers the engine itself vouches
// for.
func (v *View) Add(header *types.BlockHeader) *uint256.Int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.add(header, false)
}

// AddTrusted folds header into the view the same way Add does, except
// that an unknown parent is not treated as an orphan: the header is
// linked immediately, rooted at the anchor's own cumulative
// difficulty. Resume uses this for headers fetched straight from the
// engine's own storage, which may belong to a non-canonical tip the
// engine inserted but never promoted to fork-choice head before a
// crash — without it, that tip can never out-weigh the anchor it
// diverged from.
func (v *View) AddTrusted(header *types.BlockHeader) *uint256.Int {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.add(header, true)
}

func (v *View) add(header *types.BlockHeader, trusted bool) *uint256.Int {
	hash := header.Hash()

	if existing, ok := v.entries.Get(hash); ok {
		return existing.(*entry).cumulativeTD.Clone()
	}

	diff := header.Difficulty
	if diff == nil {
		diff = uint256.NewInt(0)
	}

	e := &entry{header: header}

	if parentRaw, ok := v.entries.Get(header.ParentHash); ok {
		parent := parentRaw.(*entry)
		e.cumulativeTD = new(uint256.Int).Add(parent.cumulativeTD, diff)
		e.linked = parent.linked
	} else if trusted {
		e.cumulativeTD = v.anchorTD.Clone()
		e.linked = true
	} else {
		// Undefined linkage: store the header's own difficulty as a
		// placeholder so callers have *some* value to annotate their
		// Block with, but never let it compete for best.
		e.cumulativeTD = diff.Clone()
		e.linked = false
	}

	v.entries.Add(hash, e)

	if e.linked {
		v.considerBest(e)
		v.relinkChildren(hash)
	} else {
		v.pending[header.ParentHash] = append(v.pending[header.ParentHash], hash)
	}

	return e.cumulativeTD.Clone()
}

// relinkChildren re-derives cumulative difficulty for any headers
// that were parked waiting on hash, now that hash is linked.
func (v *View) relinkChildren(hash common.Hash) {
	children, ok := v.pending[hash]
	if !ok {
		return
	}
	delete(v.pending, hash)

	parentRaw, ok := v.entries.Get(hash)
	if !ok {
		return
	}
	parent := parentRaw.(*entry)

	for _, childHash := range children {
		childRaw, ok := v.entries.Get(childHash)
		if !ok {
			continue
		}
		child := childRaw.(*entry)
		diff := child.header.Difficulty
		if diff == nil {
			diff = uint256.NewInt(0)
		}
		child.cumulativeTD = new(uint256.Int).Add(parent.cumulativeTD, diff)
		child.linked = true
		v.considerBest(child)
		v.relinkChildren(childHash)
	}
}

// considerBest updates the best pointer if candidate beats it under
// the tie-break rule: higher cumulative total
// difficulty wins; ties broken by lower number (shorter chain), then
// by lexicographically smaller hash.
func (v *View) considerBest(candidate *entry) {
	if v.best == nil {
		v.setBest(candidate)
		return
	}
	cmp := candidate.cumulativeTD.Cmp(v.best.cumulativeTD)
	switch {
	case cmp > 0:
		v.setBest(candidate)
	case cmp == 0:
		if candidate.header.Number < v.best.header.Number {
			v.setBest(candidate)
		} else if candidate.header.Number == v.best.header.Number &&
			candidate.header.Hash().Less(v.bestHash) {
			v.setBest(candidate)
		}
	}
}

func (v *View) setBest(e *entry) {
	v.best = e
	v.bestHash = e.header.Hash()
}

// Head returns the current best header and its cumulative total
// difficulty.
func (v *View) Head() (*types.BlockHeader, *uint256.Int) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.best == nil {
		return nil, nil
	}
	return v.best.header, v.best.cumulativeTD.Clone()
}

// HeadHeight is a convenience accessor over Head.
func (v *View) HeadHeight() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.best == nil {
		return 0
	}
	return v.best.header.Number
}

// HeadHash is a convenience accessor over Head.
func (v *View) HeadHash() common.Hash {
	v.mu.Lock()
	defer v.mu.Unlock()

	return v.bestHash
}
