package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/quantlearn/quantbot"
	"github.com/quantlearn/quantbot/backtest"
	"github.com/quantlearn/quantbot/download"
	"github.com/quantlearn/quantbot/exchange"
	"github.com/quantlearn/quantbot/optimize"
	"github.com/quantlearn/quantbot/service"
	"github.com/quantlearn/quantbot/storage"
	"github.com/quantlearn/quantbot/strategies"
	"github.com/quantlearn/quantbot/tools/log"
)

func main() {
	app := &cli.App{
		Name:     "quantbot",
		HelpName: "quantbot",
		Usage:    "Download market data, backtest and optimize trading strategies",
		Commands: []*cli.Command{
			downloadCommand(),
			backtestCommand(),
			optimizeCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:     "download",
		HelpName: "download",
		Usage:    "Download historical candle data to a CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "pair",
				Aliases:  []string{"p"},
				Usage:    "eg. BTCUSDT",
				Required: true,
			},
			&cli.IntFlag{
				Name:    "days",
				Aliases: []string{"d"},
				Usage:   "eg. 100 (default 30 days)",
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "eg. 2021-12-01",
				Layout:  "2006-01-02",
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "eg. 2022-12-31",
				Layout:  "2006-01-02",
			},
			&cli.StringFlag{
				Name:     "timeframe",
				Aliases:  []string{"t"},
				Usage:    "eg. 1d",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "output",
				Aliases:  []string{"o"},
				Usage:    "eg. ./btc.csv",
				Required: true,
			},
			&cli.BoolFlag{
				Name:  "testnet",
				Usage: "use the exchange testnet endpoints",
			},
		},
		Action: func(c *cli.Context) error {
			var binanceOptions []exchange.BinanceOption
			if c.Bool("testnet") {
				binanceOptions = append(binanceOptions, exchange.WithTestNet())
			}

			exc, err := exchange.NewBinance(c.Context, binanceOptions...)
			if err != nil {
				return err
			}

			var options []download.Option
			if days := c.Int("days"); days > 0 {
				options = append(options, download.WithDays(days))
			}

			start := c.Timestamp("start")
			end := c.Timestamp("end")
			if start != nil && end != nil && !start.IsZero() && !end.IsZero() {
				options = append(options, download.WithInterval(*start, *end))
			} else if start != nil || end != nil {
				return fmt.Errorf("start and end must be informed together")
			}

			return download.NewDownloader(exc).Download(c.Context, c.String("pair"),
				c.String("timeframe"), c.String("output"), options...)
		},
	}
}

func backtestCommand() *cli.Command {
	return &cli.Command{
		Name:     "backtest",
		HelpName: "backtest",
		Usage:    "Run a strategy over a CSV candle file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "pair",
				Aliases:  []string{"p"},
				Usage:    "eg. BTCUSDT",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "csv",
				Aliases:  []string{"c"},
				Usage:    "eg. ./btc.csv",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "timeframe",
				Aliases: []string{"t"},
				Usage:   "eg. 1d (default: strategy timeframe)",
			},
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   fmt.Sprintf("one of %v", strategies.Names()),
				Value:   "rsi",
			},
			&cli.Float64Flag{
				Name:  "capital",
				Usage: "initial capital in quote currency",
				Value: 10000,
			},
			&cli.Float64Flag{
				Name:  "fee",
				Usage: "fee rate per order, eg. 0.001",
				Value: 0.001,
			},
			&cli.StringSliceFlag{
				Name:  "param",
				Usage: "strategy parameter override, eg. --param period=21 --param lower=25",
			},
			&cli.BoolFlag{
				Name:  "heikin-ashi",
				Usage: "convert candles to Heikin Ashi before feeding the strategy",
			},
			&cli.StringFlag{
				Name:  "database",
				Usage: "persist trades to a database file, eg. ./trades.db",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "directory to save per-trade returns as <pair>.csv",
			},
		},
		Action: func(c *cli.Context) error {
			params, err := parseParams(c.StringSlice("param"))
			if err != nil {
				return err
			}

			str, err := strategies.NewWithTimeframe(c.String("strategy"), c.String("timeframe"), params)
			if err != nil {
				return err
			}

			pair := c.String("pair")
			feed, err := exchange.NewCSVFeed(str.Timeframe(), exchange.PairFeed{
				Pair:       pair,
				File:       c.String("csv"),
				Timeframe:  str.Timeframe(),
				HeikinAshi: c.Bool("heikin-ashi"),
			})
			if err != nil {
				return err
			}

			settings := quantbot.Settings{
				Pairs:          []string{pair},
				InitialCapital: c.Float64("capital"),
				FeeRate:        c.Float64("fee"),
			}

			var engineOptions []backtest.Option
			if file := c.String("database"); file != "" {
				st, err := storage.FromFile(file)
				if err != nil {
					return err
				}
				engineOptions = append(engineOptions, backtest.WithStorage(st))
			}

			engine, err := backtest.NewEngine(settings, feed, str, engineOptions...)
			if err != nil {
				return err
			}

			if err := engine.Run(c.Context); err != nil {
				return err
			}

			engine.Summary()

			if outputDir := c.String("output"); outputDir != "" {
				return engine.SaveReturns(outputDir)
			}
			return nil
		},
	}
}

func optimizeCommand() *cli.Command {
	return &cli.Command{
		Name:     "optimize",
		HelpName: "optimize",
		Usage:    "Grid search strategy parameters over a CSV candle file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "pair",
				Aliases:  []string{"p"},
				Usage:    "eg. BTCUSDT",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "csv",
				Aliases:  []string{"c"},
				Usage:    "eg. ./btc.csv",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "timeframe",
				Aliases: []string{"t"},
				Usage:   "eg. 1d (default: strategy timeframe)",
			},
			&cli.StringFlag{
				Name:     "strategy",
				Aliases:  []string{"s"},
				Usage:    fmt.Sprintf("one of %v", strategies.Names()),
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:     "grid",
				Aliases:  []string{"g"},
				Usage:    "parameter grid, eg. --grid period=7:14:21 --grid lower=20:25:30",
				Required: true,
			},
			&cli.Float64Flag{
				Name:  "capital",
				Usage: "initial capital in quote currency",
				Value: 10000,
			},
			&cli.Float64Flag{
				Name:  "fee",
				Usage: "fee rate per order, eg. 0.001",
				Value: 0.001,
			},
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "number of concurrent backtests",
				Value:   4,
			},
			&cli.StringFlag{
				Name:  "metric",
				Usage: "ranking metric: profit, sqn or win-rate",
				Value: optimize.MetricProfit,
			},
			&cli.IntFlag{
				Name:  "top",
				Usage: "number of best combinations to print",
				Value: 10,
			},
		},
		Action: func(c *cli.Context) error {
			grid, err := parseGrid(c.StringSlice("grid"))
			if err != nil {
				return err
			}

			// 用默认参数实例确定回放的K线周期
			str, err := strategies.NewWithTimeframe(c.String("strategy"), c.String("timeframe"), nil)
			if err != nil {
				return err
			}
			timeframe := str.Timeframe()

			pair := c.String("pair")
			file := c.String("csv")
			newFeed := func() (service.Feeder, error) {
				return exchange.NewCSVFeed(timeframe, exchange.PairFeed{
					Pair:      pair,
					File:      file,
					Timeframe: timeframe,
				})
			}

			settings := quantbot.Settings{
				Pairs:          []string{pair},
				InitialCapital: c.Float64("capital"),
				FeeRate:        c.Float64("fee"),
			}

			optimizer, err := optimize.NewOptimizer(settings, c.String("strategy"), grid, newFeed,
				optimize.WithWorkers(c.Int("workers")),
				optimize.WithMetric(c.String("metric")),
			)
			if err != nil {
				return err
			}

			results, err := optimizer.Run(c.Context)
			if err != nil {
				return err
			}

			optimizer.Report(results, c.Int("top"))
			return nil
		},
	}
}

// parseParams 解析 name=value 形式的参数覆盖列表。
func parseParams(raw []string) (map[string]float64, error) {
	params := make(map[string]float64, len(raw))
	for _, item := range raw {
		name, value, found := strings.Cut(item, "=")
		if !found {
			return nil, fmt.Errorf("invalid parameter %q, expected name=value", item)
		}
		number, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid parameter value %q: %w", item, err)
		}
		params[name] = number
	}
	return params, nil
}

// parseGrid 解析 name=v1:v2:v3 形式的网格维度列表。
// 取值用冒号分隔，因为命令行库会把逗号拆成多个独立参数。
func parseGrid(raw []string) ([]optimize.Param, error) {
	grid := make([]optimize.Param, 0, len(raw))
	for _, item := range raw {
		name, list, found := strings.Cut(item, "=")
		if !found {
			return nil, fmt.Errorf("invalid grid dimension %q, expected name=v1:v2:...", item)
		}
		values := make([]float64, 0)
		for _, value := range strings.Split(list, ":") {
			number, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
			if err != nil {
				return nil, fmt.Errorf("invalid grid value %q: %w", item, err)
			}
			values = append(values, number)
		}
		if len(values) == 0 {
			return nil, fmt.Errorf("empty grid dimension %q", item)
		}
		grid = append(grid, optimize.Param{Name: name, Values: values})
	}
	return grid, nil
}
