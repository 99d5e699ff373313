package exchange

import (
	"context"

	mapset "github.com/deckarep/golang-set"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/gladcow/silkworm/common"
	"github.com/gladcow/silkworm/core/types"
	"github.com/gladcow/silkworm/log"
)

// Downloader is the out-of-scope header/body download state machine
// an Adapter delegates to. It owns peer selection and request
// pipelining; DefaultExchange only needs to start/stop it, read its
// progress, and give it a way to deliver what it fetches.
type Downloader interface {
	InitialState(ctx context.Context, lastHeaders []*types.BlockHeader) error

	// Download starts or resumes downloading above from. push is how
	// the downloader delivers each completed Batch back to
	// DefaultExchange's result queue; it mirrors ResultQueue.Push's
	// drop-on-full contract, so the downloader must never block a
	// fetch on a slow driver.
	Download(ctx context.Context, from uint64, tracking TargetTracking, push func(Batch) bool) error
	Stop(ctx context.Context) error
	InSync() bool
	CurrentHeight() uint64
}

// DefaultExchange implements Adapter's coordination surface — result
// queue, bad-header bookkeeping, and announcement dispatch — around a
// pluggable Downloader. This is the part of the block exchange that
// this core keeps in scope; the Downloader itself is a collaborator.
type DefaultExchange struct {
	downloader Downloader
	queue      *ResultQueue
	badHeaders mapset.Set // common.Hash elements

	limiter *rate.Limiter
	publish func(Message)

	msgCh  chan Message
	group  *errgroup.Group
	gctx   context.Context
	cancel context.CancelFunc

	log log.Logger
}

// NewDefaultExchange wires a DefaultExchange around downloader.
// publish is called for every outbound announcement once it clears
// the rate limiter; it stands in for the real p2p broadcast, which is
// out of scope here. announceRate/announceBurst bound how fast
// announcements are handed to publish, mirroring go-ethereum's use of
// golang.org/x/time/rate to pace outbound p2p traffic.
func NewDefaultExchange(downloader Downloader, queueCapacity int, publish func(Message), announceRate rate.Limit, announceBurst int) *DefaultExchange {
	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)

	ex := &DefaultExchange{
		downloader: downloader,
		queue:      NewResultQueue(queueCapacity),
		badHeaders: mapset.NewThreadUnsafeSet(),
		limiter:    rate.NewLimiter(announceRate, announceBurst),
		publish:    publish,
		msgCh:      make(chan Message, 64),
		group:      group,
		gctx:       gctx,
		cancel:     cancel,
		log:        log.New("module", "exchange"),
	}
	group.Go(func() error {
		ex.dispatchLoop(gctx)
		return nil
	})
	return ex
}

func (ex *DefaultExchange) dispatchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-ex.msgCh:
			ex.dispatch(ctx, msg)
		}
	}
}

func (ex *DefaultExchange) dispatch(ctx context.Context, msg Message) {
	switch m := msg.(type) {
	case *BadHeadersMessage:
		for _, h := range m.hashes {
			ex.badHeaders.Add(h)
		}
		close(m.done)
	case OutboundNewBlock, OutboundNewBlockHashes:
		if err := ex.limiter.Wait(ctx); err != nil {
			return // shutting down
		}
		if ex.publish != nil {
			ex.publish(msg)
		}
	default:
		ex.log.Warn("Dropping unknown exchange message", "type", msg)
	}
}

func (ex *DefaultExchange) InitialState(ctx context.Context, lastHeaders []*types.BlockHeader) error {
	return ex.downloader.InitialState(ctx, lastHeaders)
}

func (ex *DefaultExchange) DownloadBlocks(ctx context.Context, from uint64, tracking TargetTracking) error {
	return ex.downloader.Download(ctx, from, tracking, ex.queue.Push)
}

func (ex *DefaultExchange) ResultQueue() *ResultQueue { return ex.queue }

func (ex *DefaultExchange) InSync() bool { return ex.downloader.InSync() }

func (ex *DefaultExchange) CurrentHeight() uint64 { return ex.downloader.CurrentHeight() }

func (ex *DefaultExchange) StopDownloading(ctx context.Context) error {
	return ex.downloader.Stop(ctx)
}

func (ex *DefaultExchange) Accept(ctx context.Context, msg Message) error {
	select {
	case ex.msgCh <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HasBadHeader reports whether hash has been submitted through a
// BadHeadersMessage that the dispatch loop has already processed.
func (ex *DefaultExchange) HasBadHeader(hash common.Hash) bool {
	return ex.badHeaders.Contains(hash)
}

// Close stops the dispatch loop and waits for it to exit.
func (ex *DefaultExchange) Close() error {
	ex.cancel()
	return ex.group.Wait()
}
