// Command powsync wires a SyncDriver the way cmd/geth wires the real
// sync stack: parse flags with urfave/cli.v1, load tunables from TOML
// with naoina/toml, construct the adapters and run. The real
// execution engine and peer-to-peer transport are external
// collaborators; this binary wires the in-repo
// NoopDownloader and an in-memory execution engine so operators can
// exercise configuration loading and the driver's control flow
// end-to-end without either.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"golang.org/x/time/rate"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/gladcow/silkworm/chainsync"
	"github.com/gladcow/silkworm/common"
	"github.com/gladcow/silkworm/core/types"
	"github.com/gladcow/silkworm/eth/exchange"
	"github.com/gladcow/silkworm/eth/execution"
	"github.com/gladcow/silkworm/internal/config"
	"github.com/gladcow/silkworm/log"
)

var configFlag = cli.StringFlag{
	Name:  "config",
	Usage: "path to a powsync TOML config file",
}

func main() {
	app := cli.NewApp()
	app.Name = "powsync"
	app.Usage = "PoW chain synchronization driver"
	app.Flags = []cli.Flag{configFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		log.Crit("powsync exited with error", "err", err)
	}
}

func run(c *cli.Context) error {
	cfg := config.Default()
	if path := c.String(configFlag.Name); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	genesis := types.ChainHead{
		BlockId:         types.BlockId{Number: 0, Hash: common.Hash{}},
		TotalDifficulty: nil,
	}
	engine := execution.NewMemEngine(genesis)

	ex := exchange.NewDefaultExchange(
		&exchange.NoopDownloader{},
		cfg.ResultQueueCapacity,
		func(msg exchange.Message) { log.Info("Announcing", "msg", fmt.Sprintf("%T", msg)) },
		rate.Limit(cfg.AnnounceRatePerSecond),
		cfg.AnnounceBurst,
	)
	defer ex.Close()

	driver := chainsync.NewDriver(ex, engine,
		chainsync.WithWaitTimeout(cfg.ResultQueueWaitTimeout.Duration),
		chainsync.WithResumeWindow(cfg.ResumeHeaderWindow),
		chainsync.WithBootstrapWindow(cfg.BootstrapHeaderWindow),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	go func() {
		<-ctx.Done()
		driver.Stop()
	}()

	return driver.Run(ctx)
}
