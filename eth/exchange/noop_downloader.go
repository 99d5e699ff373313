package exchange

import (
	"context"
	"sync/atomic"

	"github.com/gladcow/silkworm/core/types"
)

// NoopDownloader is a Downloader that never fetches anything; it
// reports itself in sync at whatever height it was told to resume
// from. It exists for wiring and smoke-testing cmd/powsync without a
// real peer-to-peer stack, which this core leaves to an external
// collaborator.
type NoopDownloader struct {
	height atomic.Uint64
}

func (d *NoopDownloader) InitialState(ctx context.Context, lastHeaders []*types.BlockHeader) error {
	return nil
}

func (d *NoopDownloader) Download(ctx context.Context, from uint64, tracking TargetTracking, push func(Batch) bool) error {
	d.height.Store(from)
	return nil
}

func (d *NoopDownloader) Stop(ctx context.Context) error { return nil }

func (d *NoopDownloader) InSync() bool { return true }

func (d *NoopDownloader) CurrentHeight() uint64 { return d.height.Load() }
