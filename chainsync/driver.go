// Package chainsync implements the long-running control loop that
// arbitrates between downloading new blocks, verifying chain segments
// through the execution engine, handling invalid chains via unwind,
// and emitting outbound announcements. It is grounded directly on
// silkworm::chainsync::PoWSync from the original C++ source
// (_examples/original_source/silkworm/sync/sync_pow.cpp).
package chainsync

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/gladcow/silkworm/common"
	"github.com/gladcow/silkworm/core/forkchoice"
	"github.com/gladcow/silkworm/core/types"
	"github.com/gladcow/silkworm/eth/exchange"
	"github.com/gladcow/silkworm/eth/execution"
	"github.com/gladcow/silkworm/log"
)

// UnwindPoint names the height/hash a chain rewind is targeting, for
// the unwind hook.
type UnwindPoint struct {
	Number uint64
	Hash   common.Hash
}

// Driver is the sync driver. It is single-threaded: it owns the
// fork-choice view exclusively and never interleaves two engine calls.
type Driver struct {
	exchange exchange.Adapter
	engine   execution.Adapter
	view     *forkchoice.View
	emitter  *AnnouncementEmitter

	stopping  int32 // atomic bool
	firstSync bool

	waitTimeout     time.Duration
	resumeWindow    int
	bootstrapWindow int

	log log.Logger
}

// Option configures a Driver at construction time, following the
// same constructor-option shape the pack's onflow fifoqueue package
// uses for its own tunables.
type Option func(*Driver)

// WithWaitTimeout overrides the 100ms nominal timed wait on the
// result queue. A latency/responsiveness knob, not a correctness
// parameter.
func WithWaitTimeout(d time.Duration) Option {
	return func(drv *Driver) { drv.waitTimeout = d }
}

// WithResumeWindow overrides the 128-header resume look-back.
func WithResumeWindow(n int) Option {
	return func(drv *Driver) { drv.resumeWindow = n }
}

// WithBootstrapWindow overrides the 65536-header bootstrap window
// handed to the exchange at startup.
func WithBootstrapWindow(n int) Option {
	return func(drv *Driver) { drv.bootstrapWindow = n }
}

// NewDriver builds a Driver over the given exchange and engine
// adapters.
func NewDriver(ex exchange.Adapter, engine execution.Adapter, opts ...Option) *Driver {
	d := &Driver{
		exchange:        ex,
		engine:          engine,
		view:            forkchoice.New(forkchoice.DefaultWindow),
		firstSync:       true,
		waitTimeout:     100 * time.Millisecond,
		resumeWindow:    128,
		bootstrapWindow: 65536,
		log:             log.New("module", "sync"),
	}
	d.emitter = NewAnnouncementEmitter(ex)
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Stop flips the cooperative stop flag. A verification already in
// progress finishes and its verdict is dispatched before Run exits; a
// stop observed during resume or forward-and-insert makes Run exit
// without verifying. Batches still in the result queue are not
// applied.
func (d *Driver) Stop() { atomic.StoreInt32(&d.stopping, 1) }

func (d *Driver) isStopping() bool { return atomic.LoadInt32(&d.stopping) != 0 }

// Run is the execution loop: resume once, then alternate
// forward-and-insert with verify/announce/unwind until stopped or a
// fatal condition is hit.
func (d *Driver) Run(ctx context.Context) error {
	lastHeaders, err := d.engine.GetLastHeaders(ctx, d.bootstrapWindow)
	if err = d.wrapTransportErr(err); err != nil {
		return unwrapShutdown(err)
	}
	if err := d.wrapTransportErr(d.exchange.InitialState(ctx, lastHeaders)); err != nil {
		return unwrapShutdown(err)
	}

	isStartingUp := true
	for !d.isStopping() {
		var newHeight types.NewHeight
		var err error
		if isStartingUp {
			newHeight, err = d.resume(ctx)
		} else {
			newHeight, err = d.forwardAndInsertBlocks(ctx)
		}
		if err != nil {
			if errors.Is(err, errShuttingDown) {
				return nil
			}
			return err
		}

		// A stop observed during resume or forward-and-insert exits
		// without verifying what was inserted.
		if d.isStopping() {
			break
		}

		if newHeight.Number == 0 {
			// Empty-DB bootstrap: nothing to verify yet.
			isStartingUp = false
			continue
		}

		d.log.Info("Verifying chain", "head", newHeight.Number)
		verdict, err := d.engine.ValidateChain(ctx, newHeight.Hash)
		if err = d.wrapTransportErr(err); err != nil {
			return unwrapShutdown(err)
		}

		if err := d.dispatchVerdict(ctx, newHeight, verdict); err != nil {
			return err
		}

		d.firstSync = false
		isStartingUp = false
	}
	return nil
}

func (d *Driver) dispatchVerdict(ctx context.Context, newHeight types.NewHeight, verdict execution.Verdict) error {
	switch v := verdict.(type) {
	case execution.ValidChain:
		if v.CurrentHead != newHeight.Hash {
			return fatalf("invariant violation: validate_chain current_head=%s, want %s", v.CurrentHead.Hex(), newHeight.Hash.Hex())
		}
		d.log.Info("Valid chain", "head", newHeight.Number)
		if err := d.wrapTransportErr(d.engine.UpdateForkChoice(ctx, newHeight.Hash)); err != nil {
			return unwrapShutdown(err)
		}
		d.emitter.EmitNewBlockHashes(ctx, d.firstSync)
		return nil

	case execution.InvalidChain:
		latestValidHeight, ok, err := d.engine.GetBlockNum(ctx, v.LatestValidHead)
		if err = d.wrapTransportErr(err); err != nil {
			return unwrapShutdown(err)
		}
		if !ok {
			return fatalf("invariant violation: latest_valid_head %s has no known block number", v.LatestValidHead.Hex())
		}

		d.log.Warn("Invalid chain, unwinding", "down_to", latestValidHeight)
		d.unwind(UnwindPoint{Number: latestValidHeight, Hash: v.LatestValidHead}, v.BadBlock)

		if len(v.BadHeaders) > 0 {
			d.updateBadHeaders(ctx, v.BadHeaders)
		}
		if err := d.wrapTransportErr(d.engine.UpdateForkChoice(ctx, v.LatestValidHead)); err != nil {
			return unwrapShutdown(err)
		}
		return nil

	case execution.ValidationError:
		return fatalf("validation error: latest_valid_head=%s missing_block=%s", v.LatestValidHead.Hex(), v.MissingBlock.Hex())

	default:
		return fatalf("unknown validate_chain verdict %T", verdict)
	}
}

func unwrapShutdown(err error) error {
	if errors.Is(err, errShuttingDown) {
		return nil
	}
	return err
}

// resume reconciles the fork-choice view with the engine's persisted
// head.
func (d *Driver) resume(ctx context.Context) (types.NewHeight, error) {
	head, err := d.engine.LastForkChoice(ctx)
	if err = d.wrapTransportErr(err); err != nil {
		return types.NewHeight{}, err
	}
	progress, err := d.engine.BlockProgress(ctx)
	if err = d.wrapTransportErr(err); err != nil {
		return types.NewHeight{}, err
	}

	d.view.ResetHead(head)

	if head.Number > progress {
		return types.NewHeight{}, fatalf("invariant violation: canonical head %d beyond block progress %d", head.Number, progress)
	}

	if progress == head.Number {
		return types.NewHeight{Number: head.Number, Hash: head.Hash}, nil
	}

	prevHeaders, err := d.engine.GetLastHeaders(ctx, d.resumeWindow)
	if err = d.wrapTransportErr(err); err != nil {
		return types.NewHeight{}, err
	}
	for _, h := range prevHeaders {
		d.view.AddTrusted(h)
	}

	return types.NewHeight{Number: d.view.HeadHeight(), Hash: d.view.HeadHash()}, nil
}

// forwardAndInsertBlocks drives downloading above the current block
// progress, folding each arriving batch into the fork-choice view and
// the engine's database, until the exchange reports it has caught up.
func (d *Driver) forwardAndInsertBlocks(ctx context.Context) (types.NewHeight, error) {
	initialProgress, err := d.engine.BlockProgress(ctx)
	if err = d.wrapTransportErr(err); err != nil {
		return types.NewHeight{}, err
	}
	progress := initialProgress

	if err := d.wrapTransportErr(d.exchange.DownloadBlocks(ctx, initialProgress, exchange.ByAnnouncements)); err != nil {
		return types.NewHeight{}, err
	}

	meter := newProgressMeter(initialProgress)
	d.log.Info("Waiting for blocks", "from", initialProgress)

	queue := d.exchange.ResultQueue()
	for !d.isStopping() && !(d.exchange.InSync() && progress == d.exchange.CurrentHeight()) {
		batch, ok := queue.TimedWaitAndPop(d.waitTimeout)
		if !ok {
			continue
		}

		var toAnnounce []*types.Block
		for _, blk := range batch {
			blk.TotalDifficulty = d.view.Add(blk.Header)
			if blk.Header.Number > progress {
				progress = blk.Header.Number
			}
			if blk.ToAnnounce {
				toAnnounce = append(toAnnounce, blk)
			}
		}

		if err := d.wrapTransportErr(d.engine.InsertBlocks(ctx, batch)); err != nil {
			return types.NewHeight{}, err
		}

		// eth/67 requires new-block announcements after simple header
		// verification but before the full validate_chain pass.
		d.emitter.EmitNewBlocks(ctx, toAnnounce, d.firstSync)

		meter.update(progress)
		d.log.Info("Downloading progress", "delta", meter.delta(), "last", progress, "head", d.view.HeadHeight(), "elapsed", meter.elapsed())
	}

	if err := d.exchange.StopDownloading(ctx); err != nil {
		d.log.Warn("stop_downloading failed", "err", err)
	}
	d.log.Info("Downloading completed", "last", progress, "head", d.view.HeadHeight(), "elapsed", meter.elapsed())

	return types.NewHeight{Number: d.view.HeadHeight(), Hash: d.view.HeadHash()}, nil
}

// unwind is a reserved hook: in the PoW driver it
// does nothing — the engine performs its own rewind in response to
// the update_fork_choice call that follows it. The call site and its
// ordering relative to updateBadHeaders must be preserved so a
// future rule-set driver can attach invalidation behavior (e.g.
// mempool eviction) without restructuring the verify path.
func (d *Driver) unwind(point UnwindPoint, badBlock *common.Hash) {}

// updateBadHeaders submits hashes to the exchange so it will not
// re-serve them. Fire-and-forget: the handle is discarded.
func (d *Driver) updateBadHeaders(ctx context.Context, hashes []common.Hash) {
	msg := exchange.NewBadHeadersMessage(hashes)
	if err := d.exchange.Accept(ctx, msg); err != nil {
		d.log.Error("Failed to submit bad headers", "err", err)
	}
}
