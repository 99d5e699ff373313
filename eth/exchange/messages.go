package exchange

import (
	"github.com/gladcow/silkworm/common"
	"github.com/gladcow/silkworm/core/types"
)

// Message is the sealed sum of everything the driver can hand the
// exchange through Accept: two outbound-announcement flavors and one
// internal bad-headers submission.
type Message interface {
	isMessage()
}

// OutboundNewBlock carries full blocks to announce, emitted after
// insertion and before verification (eth/67).
type OutboundNewBlock struct {
	Blocks      []*types.Block
	IsFirstSync bool
}

func (OutboundNewBlock) isMessage() {}

// OutboundNewBlockHashes announces only hashes, emitted after
// successful verification (eth/67).
type OutboundNewBlockHashes struct {
	IsFirstSync bool
}

func (OutboundNewBlockHashes) isMessage() {}

// BadHeadersMessage is a deferred mutation: an asynchronous submission
// that unions hashes into the exchange's own reject set. Completion is
// observable via Done; the result itself is always empty, so callers
// may discard the handle or await it — submission is fire-and-forget,
// and handle retention is optional.
type BadHeadersMessage struct {
	hashes []common.Hash
	done   chan struct{}
}

// NewBadHeadersMessage builds a submission for the given hashes.
func NewBadHeadersMessage(hashes []common.Hash) *BadHeadersMessage {
	return &BadHeadersMessage{hashes: hashes, done: make(chan struct{})}
}

// Done returns a channel that closes once the exchange has unioned
// these hashes into its reject set.
func (m *BadHeadersMessage) Done() <-chan struct{} { return m.done }

func (*BadHeadersMessage) isMessage() {}
