// Package types holds the data model the sync core operates over:
// BlockId, BlockHeader, Block and ChainHead.
package types

import (
	"github.com/holiman/uint256"

	"github.com/gladcow/silkworm/common"
)

// BlockId identifies a block by (number, hash). Total order is
// inherited from number; hash disambiguates siblings at the same
// height.
type BlockId struct {
	Number uint64
	Hash   common.Hash
}

// Less orders two BlockIds by number first, then by hash, matching
// the tie-break rule used throughout the fork-choice view.
func (id BlockId) Less(other BlockId) bool {
	if id.Number != other.Number {
		return id.Number < other.Number
	}
	return id.Hash.Less(other.Hash)
}

// NewHeight is the result of a forward-and-insert or resume pass: the
// tip of the fork-choice view's current best chain.
type NewHeight struct {
	Number uint64
	Hash   common.Hash
}

// BlockHeader is the subset of header fields the core interprets.
// Everything else about a real header (state root, receipts root,
// timestamp, ...) is opaque to this core and lives in Extra.
type BlockHeader struct {
	ParentHash common.Hash
	Number     uint64
	Difficulty *uint256.Int

	// hash is declared by the codec that produced this header; RLP
	// decoding and keccak hashing are a codec concern, not this
	// core's, which never recomputes a declared hash.
	hash common.Hash

	// Extra is the opaque remainder: everything a real header carries
	// that this core does not interpret (state root, receipts root,
	// timestamp, extra data, mix digest, nonce, base fee, ...).
	Extra []byte
}

// NewBlockHeader constructs a header with a pre-declared hash.
func NewBlockHeader(parent common.Hash, number uint64, difficulty *uint256.Int, hash common.Hash) *BlockHeader {
	return &BlockHeader{ParentHash: parent, Number: number, Difficulty: difficulty, hash: hash}
}

// Hash returns the header's declared hash.
func (h *BlockHeader) Hash() common.Hash { return h.hash }

// Id returns the (number, hash) identity of this header.
func (h *BlockHeader) Id() BlockId { return BlockId{Number: h.Number, Hash: h.hash} }

// Block owns a header and an opaque body payload, plus the two
// mutable fields the core itself writes: TotalDifficulty (computed by
// the fork-choice view on insertion) and ToAnnounce (set by the
// exchange when the block should be gossiped per eth/67).
type Block struct {
	Header *BlockHeader
	Body   BlockBody

	// TotalDifficulty is written by ForkChoiceView.Add when this
	// block's header is folded into the view; it is nil until then.
	TotalDifficulty *uint256.Int

	// ToAnnounce is set by the block exchange to mark blocks that
	// should be wrapped in an OutboundNewBlock announcement.
	ToAnnounce bool
}

// BlockBody is the opaque per-block payload (transactions, uncles,
// withdrawals, ...) this core never interprets.
type BlockBody struct {
	Raw []byte
}

// ChainHead is a snapshot of the currently preferred head: its
// identity plus the cumulative total difficulty backing it.
type ChainHead struct {
	BlockId
	TotalDifficulty *uint256.Int
}
