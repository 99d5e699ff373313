package chainsync

import (
	"context"

	"github.com/gladcow/silkworm/core/types"
	"github.com/gladcow/silkworm/eth/exchange"
	"github.com/gladcow/silkworm/log"
)

// AnnouncementEmitter packages block/hash payloads with the
// is_first_sync flag and hands them to the exchange. It
// makes no decision about which peers receive what — that, and eth/67
// suppression, belongs to the exchange.
type AnnouncementEmitter struct {
	exchange exchange.Adapter
	log      log.Logger
}

// NewAnnouncementEmitter builds an emitter over ex.
func NewAnnouncementEmitter(ex exchange.Adapter) *AnnouncementEmitter {
	return &AnnouncementEmitter{exchange: ex, log: log.New("module", "announce")}
}

// EmitNewBlocks wraps blocks in an OutboundNewBlock announcement. A
// nil/empty slice is a no-op, matching the original's
// "if (blocks.empty()) return;" guard. Submission failures are
// logged and swallowed — submission must never block the main cycle.
func (e *AnnouncementEmitter) EmitNewBlocks(ctx context.Context, blocks []*types.Block, isFirstSync bool) {
	if len(blocks) == 0 {
		return
	}
	msg := exchange.OutboundNewBlock{Blocks: blocks, IsFirstSync: isFirstSync}
	if err := e.exchange.Accept(ctx, msg); err != nil {
		e.log.Error("Failed to submit new-block announcement", "err", err)
	}
}

// EmitNewBlockHashes submits an OutboundNewBlockHashes announcement.
// The message carries only the is_first_sync flag; no head or hash is
// attached to it.
func (e *AnnouncementEmitter) EmitNewBlockHashes(ctx context.Context, isFirstSync bool) {
	msg := exchange.OutboundNewBlockHashes{IsFirstSync: isFirstSync}
	if err := e.exchange.Accept(ctx, msg); err != nil {
		e.log.Error("Failed to submit new-block-hashes announcement", "err", err)
	}
}
