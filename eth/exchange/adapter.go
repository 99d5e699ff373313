// Package exchange implements the block-exchange coordination
// surface: the typed facade through which downloaded blocks flow into
// the driver and bad-header feedback and outbound announcements flow
// back out. The actual peer-to-peer transport and header/body
// download state machine are out of scope and are represented here
// only by the narrow Downloader capability a concrete Adapter
// delegates to.
package exchange

import (
	"context"

	"github.com/gladcow/silkworm/core/types"
)

// TargetTracking selects how the exchange decides what to fetch next.
type TargetTracking int

const (
	// ByAnnouncements tracks peers' announced heads.
	ByAnnouncements TargetTracking = iota
	// ByNewPeers tracks the best height seen among newly connected peers.
	ByNewPeers
)

func (t TargetTracking) String() string {
	switch t {
	case ByAnnouncements:
		return "by-announcements"
	case ByNewPeers:
		return "by-new-peers"
	default:
		return "unknown"
	}
}

// Adapter is the BlockExchangeAdapter contract.
type Adapter interface {
	// InitialState hands the downloader a bootstrap window so it can
	// locate peers' positions relative to the local chain.
	InitialState(ctx context.Context, lastHeaders []*types.BlockHeader) error

	// DownloadBlocks starts or resumes downloading above from.
	DownloadBlocks(ctx context.Context, from uint64, tracking TargetTracking) error

	// ResultQueue returns the FIFO channel of downloaded batches.
	ResultQueue() *ResultQueue

	// InSync reports the exchange's own view of catch-up completion.
	InSync() bool

	// CurrentHeight reports the exchange's own view of progress.
	CurrentHeight() uint64

	// StopDownloading cooperatively stops fetching. In-flight batches
	// remain drainable from the result queue afterward.
	StopDownloading(ctx context.Context) error

	// Accept delivers an outbound-announcement or bad-headers Message.
	// The exchange owns dispatch.
	Accept(ctx context.Context, msg Message) error
}
