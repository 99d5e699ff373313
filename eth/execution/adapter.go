// Package execution defines the typed facade the sync driver uses to
// talk to the execution engine. The interface is a narrow capability
// surface, not an inheritance tree: any implementation — in-process
// calls, cross-thread channels, RPC — is valid so long as each call
// blocks the driver's goroutine the way a direct call would.
package execution

import (
	"context"

	"github.com/gladcow/silkworm/common"
	"github.com/gladcow/silkworm/core/types"
)

// Adapter is the ExecutionEngineAdapter contract.
type Adapter interface {
	// LastForkChoice returns the engine's persisted canonical head.
	LastForkChoice(ctx context.Context) (types.ChainHead, error)

	// BlockProgress returns the highest inserted block number,
	// canonical or not.
	BlockProgress(ctx context.Context) (uint64, error)

	// GetLastHeaders returns the n most recently inserted headers,
	// canonical or not; resume relies on this to see non-canonical
	// tips heavier than the persisted head. Order (newest-first vs oldest-first) is an engine contract the
	// caller must not assume beyond "arrival order".
	GetLastHeaders(ctx context.Context, n int) ([]*types.BlockHeader, error)

	// InsertBlocks inserts blocks into the engine's database.
	// Idempotent in hash: re-inserting a known block is a no-op.
	InsertBlocks(ctx context.Context, blocks []*types.Block) error

	// ValidateChain runs state-transition verification along the
	// ancestry to target. Blocking, and may be long-running.
	ValidateChain(ctx context.Context, target common.Hash) (Verdict, error)

	// UpdateForkChoice installs the canonical pointer. The engine
	// must already have the referenced block.
	UpdateForkChoice(ctx context.Context, head common.Hash) error

	// GetBlockNum translates a hash to a block number, used to
	// resolve InvalidChain.LatestValidHead. The bool return
	// distinguishes "no such block" from a transport failure, which
	// std::optional in the original cannot.
	GetBlockNum(ctx context.Context, hash common.Hash) (uint64, bool, error)
}
