package execution

import (
	"context"
	"fmt"
	"sync"

	"github.com/gladcow/silkworm/common"
	"github.com/gladcow/silkworm/core/types"
)

// MemEngine is an in-memory Adapter that cmd/powsync wires in place of
// a real execution engine. It has no database and does no real state
// transition verification — callers script the verdict they want
// ValidateChain to return next.
type MemEngine struct {
	mu sync.Mutex

	head     types.ChainHead
	progress uint64
	byHash   map[common.Hash]*types.Block
	byNumber map[uint64]common.Hash
	headers  []*types.BlockHeader // oldest-first, in InsertBlocks order

	// Verdicts is consumed in order by ValidateChain; if exhausted,
	// ValidateChain returns ValidChain{CurrentHead: target}.
	Verdicts []Verdict

	InsertErr   error
	UpdateErr   error
	ValidateErr error
}

// NewMemEngine creates an engine seeded at head with block progress
// set to head's number.
func NewMemEngine(head types.ChainHead) *MemEngine {
	return &MemEngine{
		head:     head,
		progress: head.Number,
		byHash:   make(map[common.Hash]*types.Block),
		byNumber: make(map[uint64]common.Hash),
	}
}

func (e *MemEngine) LastForkChoice(ctx context.Context) (types.ChainHead, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.head, nil
}

func (e *MemEngine) BlockProgress(ctx context.Context) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress, nil
}

func (e *MemEngine) GetLastHeaders(ctx context.Context, n int) ([]*types.BlockHeader, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if n >= len(e.headers) {
		out := make([]*types.BlockHeader, len(e.headers))
		copy(out, e.headers)
		return out, nil
	}
	start := len(e.headers) - n
	out := make([]*types.BlockHeader, n)
	copy(out, e.headers[start:])
	return out, nil
}

func (e *MemEngine) InsertBlocks(ctx context.Context, blocks []*types.Block) error {
	if e.InsertErr != nil {
		return e.InsertErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, b := range blocks {
		hash := b.Header.Hash()
		if _, known := e.byHash[hash]; known {
			continue // idempotent in hash
		}
		e.byHash[hash] = b
		e.byNumber[b.Header.Number] = hash
		e.headers = append(e.headers, b.Header)
		if b.Header.Number > e.progress {
			e.progress = b.Header.Number
		}
	}
	return nil
}

func (e *MemEngine) ValidateChain(ctx context.Context, target common.Hash) (Verdict, error) {
	if e.ValidateErr != nil {
		return nil, e.ValidateErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.Verdicts) > 0 {
		v := e.Verdicts[0]
		e.Verdicts = e.Verdicts[1:]
		return v, nil
	}
	return ValidChain{CurrentHead: target}, nil
}

func (e *MemEngine) UpdateForkChoice(ctx context.Context, head common.Hash) error {
	if e.UpdateErr != nil {
		return e.UpdateErr
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.byHash[head]
	if !ok {
		return fmt.Errorf("update fork choice: engine does not have block %s", head.Hex())
	}
	e.head = types.ChainHead{BlockId: b.Header.Id(), TotalDifficulty: b.TotalDifficulty}
	return nil
}

func (e *MemEngine) GetBlockNum(ctx context.Context, hash common.Hash) (uint64, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.byHash[hash]
	if !ok {
		return 0, false, nil
	}
	return b.Header.Number, true, nil
}
