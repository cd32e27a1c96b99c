// Command engine is the demo harness for the trade-engine core: it
// wires a config file into an internal/engine.Engine and either runs its
// event loop until interrupted (run; no market-data feed adapter is
// attached), drives it under synthetic load (bench), or replays a
// recorded event log (replay).
//
// Grounded on the teacher's cmd/server/main.go for overall component
// wiring (event log, risk, settlement, market data all constructed once
// and handed to the thing that drives them) and on the retrieval pack's
// spf13/cobra-based CLIs (NimbleMarkets-dbn-go's cmd/dbn-go-hist) for
// the subcommand/flag shape, since the teacher itself is a flag-based
// single-binary HTTP server rather than a multi-command CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/rishav/hft-trade-core/internal/config"
	"github.com/rishav/hft-trade-core/internal/engine"
	"github.com/rishav/hft-trade-core/internal/eventlog"
	"github.com/rishav/hft-trade-core/internal/features"
	"github.com/rishav/hft-trade-core/internal/logging"
	"github.com/rishav/hft-trade-core/internal/mpmc"
	"github.com/rishav/hft-trade-core/internal/ordermanager"
	"github.com/rishav/hft-trade-core/internal/orderbook"
	"github.com/rishav/hft-trade-core/internal/position"
	"github.com/rishav/hft-trade-core/internal/risk"
	"github.com/rishav/hft-trade-core/internal/settlement"
	"github.com/rishav/hft-trade-core/internal/spsc"
	"github.com/rishav/hft-trade-core/internal/strategy"
	"github.com/rishav/hft-trade-core/internal/types"
)

var configPath string

func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/engine.yaml", "Path to the deployment config YAML")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(replayCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "engine",
	Short: "Demo harness for the ultra-low-latency trade-engine core",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trade engine event loop until SIGINT/SIGTERM (no market data feed is attached)",
	RunE: func(cmd *cobra.Command, args []string) error {
		deployment, err := bootstrap(configPath)
		if err != nil {
			return err
		}
		defer deployment.close()

		_, cancel := context.WithCancel(context.Background())
		defer cancel()
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigCh
			deployment.log.Infof("shutdown signal received")
			deployment.eng.Stop()
			cancel()
		}()

		deployment.log.Infof("engine starting with %d tickers", len(deployment.cfg.Tickers))
		deployment.eng.Run()
		return nil
	},
}

var benchIterations int

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run the event loop for a fixed number of iterations with synthetic market data, reporting throughput",
	RunE: func(cmd *cobra.Command, args []string) error {
		deployment, err := bootstrap(configPath)
		if err != nil {
			return err
		}
		defer deployment.close()

		seedSyntheticBook(deployment)

		start := time.Now()
		for i := 0; i < benchIterations; i++ {
			deployment.eng.RunOnce()
		}
		elapsed := time.Since(start)

		counters := deployment.eng.Counters()
		fmt.Printf("processed %d messages, sent %d orders, dropped %d in %s (%.0f msgs/sec)\n",
			counters.MsgsProcessed.Value, counters.OrdersSent.Value, counters.Drops.Value,
			elapsed, float64(counters.MsgsProcessed.Value)/elapsed.Seconds())
		return nil
	},
}

var replayOutput string

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Replay a recorded event log and print every entry",
	RunE: func(cmd *cobra.Command, args []string) error {
		deployment, err := bootstrap(configPath)
		if err != nil {
			return err
		}
		defer deployment.close()

		out := os.Stdout
		if replayOutput != "-" {
			f, err := os.Create(replayOutput)
			if err != nil {
				return fmt.Errorf("create replay output: %w", err)
			}
			defer f.Close()
			out = f
		}

		return deployment.eventLog.Replay(func(ev eventlog.Event) error {
			fmt.Fprintf(out, "seq=%d kind=%s ticker=%d order=%d side=%s price=%d qty=%d leaves=%d ts=%d\n",
				ev.SequenceNum, ev.Kind, ev.Ticker, ev.OrderId, ev.Side, ev.Price, ev.Qty, ev.LeavesQty, ev.Ts)
			return nil
		})
	},
}

func init() {
	benchCmd.Flags().IntVarP(&benchIterations, "iterations", "n", 100000, "Number of event-loop iterations to run")
	replayCmd.Flags().StringVarP(&replayOutput, "output", "o", "-", "Output destination ('-' for stdout)")
}

// deployment bundles every component the demo harness constructs, so run
// and bench can share identical wiring.
type deployment struct {
	cfg       *config.Config
	log       logging.Sink
	eng       *engine.Engine
	eventLog  *eventlog.Log
	batcher   *eventlog.Batcher
	clearing  *settlement.ClearingHouse
	books     []*orderbook.Book
	mdRing    *spsc.Ring[types.MarketUpdate]
}

func (d *deployment) close() {
	if d.batcher != nil {
		d.batcher.Shutdown()
	}
	if d.eventLog != nil {
		d.eventLog.Close()
	}
}

func bootstrap(path string) (*deployment, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logging.NewDevelopment()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	maxTickers := len(cfg.Tickers)
	books := make([]*orderbook.Book, maxTickers)
	for i := range books {
		books[i] = orderbook.NewBook(10)
	}

	featEngine := features.New(maxTickers)
	positions := position.New(maxTickers)

	riskCfg := risk.Config{
		MaxPositionValue:   cfg.Risk.MaxPositionValue,
		MaxLoss:            cfg.Risk.MaxLoss,
		MaxOrderSize:       types.Qty(cfg.Risk.MaxOrderSize),
		MaxOrderRatePerSec: cfg.Risk.MaxOrderRatePerSec,
		MinPrice:           types.Price(cfg.Risk.MinPriceTicks),
		MaxPrice:           types.Price(cfg.Risk.MaxPriceTicks),
	}
	riskMgr := risk.New(maxTickers, riskCfg)

	orders := ordermanager.New(4096, maxTickers)

	evLog, err := eventlog.Open(eventlog.Config{Path: cfg.EventLog.Path, SyncMode: cfg.EventLog.SyncMode})
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	batcher := eventlog.NewBatcher(evLog, 0, 0, log)
	batcher.Start()

	clearing := settlement.NewClearingHouse()

	mdRing := spsc.New[types.MarketUpdate](cfg.Rings.MdCapacity)
	reqRing := mpmc.New[types.OrderRequest](cfg.Rings.ReqCapacity)
	respRing := mpmc.New[types.OrderResponse](cfg.Rings.RespCapacity)

	eng := engine.New(engine.Config{
		MdRings:   []*spsc.Ring[types.MarketUpdate]{mdRing},
		RespRing:  respRing,
		ReqRing:   reqRing,
		Books:     books,
		Features:  featEngine,
		Positions: positions,
		Risk:      riskMgr,
		Orders:    orders,
		Clearing:  clearing,
		Log:       log,
	})

	for i, t := range cfg.Tickers {
		ticker := types.TickerId(i)
		if t.MarketMaker {
			eng.AddStrategy(strategy.NewMarketMaker(strategy.MarketMakerConfig{
				Ticker:             ticker,
				SpreadBpsThreshold: t.SpreadBpsThresh,
				QuoteOffset:        types.Price(t.QuoteOffsetTicks),
				BaseClip:           types.Qty(t.BaseClip),
				MaxPosition:        t.MaxPosition,
			}, orders, positions))
		}
		if t.LiquidityTaker {
			eng.AddStrategy(strategy.NewLiquidityTaker(strategy.LiquidityTakerConfig{
				Ticker:             ticker,
				WindowTrades:       20,
				AsymmetryThreshold: 0.7,
				CooldownNs:         types.Timestamp(time.Second.Nanoseconds()),
				Qty:                types.Qty(t.BaseClip),
			}, eng))
		}
	}

	return &deployment{
		cfg:      cfg,
		log:      log,
		eng:      eng,
		eventLog: evLog,
		batcher:  batcher,
		clearing: clearing,
		books:    books,
		mdRing:   mdRing,
	}, nil
}

// seedSyntheticBook pushes a handful of synthetic ticks onto the MD ring
// so `bench` has something to process without a live feed.
func seedSyntheticBook(d *deployment) {
	now := types.Timestamp(time.Now().UnixNano())
	for i := range d.cfg.Tickers {
		ticker := types.TickerId(i)
		updates := []types.MarketUpdate{
			{Kind: types.MarketUpdateBid, Ticker: ticker, Level: 0, Price: 100_000, Qty: 100, Orders: 1, Ts: now},
			{Kind: types.MarketUpdateAsk, Ticker: ticker, Level: 0, Price: 100_010, Qty: 100, Orders: 1, Ts: now},
			{Kind: types.MarketUpdateTrade, Ticker: ticker, Price: 100_005, Qty: 10, Side: types.SideBuy, Ts: now},
		}
		for _, upd := range updates {
			slot := d.mdRing.ReserveWrite()
			if slot == nil {
				break
			}
			*slot = upd
			d.mdRing.CommitWrite()
		}
	}
}
