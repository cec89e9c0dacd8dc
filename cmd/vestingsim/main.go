package main

import (
	"fmt"
	"os"
	"strings"

	rtt "github.com/filecoin-project/go-state-types/rt"
	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	builtin "github.com/filecoin-project/vesting-actors/actors/builtin"
)

var log = logging.Logger("vestingsim")

func main() {
	app := &cli.App{
		Name:     "vestingsim",
		Usage:    "replay vesting scenarios against an in-memory ledger",
		Commands: []*cli.Command{runCmd},
	}
	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var runCmd = &cli.Command{
	Name:      "run",
	Usage:     "run scenario files, each on its own ledger",
	ArgsUsage: "<scenario.toml>...",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "log-level",
			Value: "warn",
			Usage: "log level for the ledger and programs: debug, info, warn or error",
		},
	},
	Action: func(cctx *cli.Context) error {
		if cctx.NArg() == 0 {
			return xerrors.New("no scenario files given")
		}
		level, err := parseLogLevel(cctx.String("log-level"))
		if err != nil {
			return err
		}
		for _, name := range []string{"vestingsim", "vesting-vm"} {
			if err := logging.SetLogLevel(name, cctx.String("log-level")); err != nil {
				return xerrors.Errorf("set log level: %w", err)
			}
		}

		paths := cctx.Args().Slice()
		scenarios := make([]*scenario, len(paths))
		for i, path := range paths {
			if scenarios[i], err = loadScenario(path); err != nil {
				return err
			}
			builtin.SetProgramsLogLevel(level, scenarios[i].programID)
		}

		results := make([]*result, len(scenarios))
		g, ctx := errgroup.WithContext(cctx.Context)
		for i, sc := range scenarios {
			i, sc := i, sc
			g.Go(func() error {
				res, err := runScenario(ctx, sc)
				if err != nil {
					return err
				}
				results[i] = res
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		for _, res := range results {
			_, _ = fmt.Fprintf(cctx.App.Writer, "PASS %s (%d steps) state %s\n", res.path, res.steps, res.stateRoot)
		}
		return nil
	},
}

func parseLogLevel(s string) (rtt.LogLevel, error) {
	switch strings.ToLower(s) {
	case "debug":
		return rtt.DEBUG, nil
	case "info":
		return rtt.INFO, nil
	case "warn":
		return rtt.WARN, nil
	case "error":
		return rtt.ERROR, nil
	}
	return rtt.INFO, xerrors.Errorf("unknown log level %q", s)
}
