package cli

/*
 * Licensed under LGPL-3.0.
 *
 * You can get a copy of the LGPL-3.0 License at
 *
 * https://www.gnu.org/licenses/lgpl-3.0.en.html
 *
 * @wcgcyx - https://github.com/wcgcyx
 */

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/wcgcyx/ledgervm/version"
)

// NewCLI creates a CLI app.
func NewCLI() *cli.App {
	app := &cli.App{
		Name:      "ledgervm",
		HelpName:  "ledgervm",
		Usage:     "A conformance runner for a revertible account ledger",
		UsageText: "ledgervm [global options] command [arguments...]",
		Version:   version.Version,
		Description: "\n\t This replays declarative transaction scenarios against an\n" +
			"\t in-memory account ledger with nested substates.\n\n" +
			"\t The interpreter pulls every account, storage slot and block hash\n" +
			"\t it needs from the ledger, and the outcome is verified against\n" +
			"\t the expected post-state, output, gas, calls and logs\n",
		Authors: []*cli.Author{
			{
				Name:  "wcgcyx",
				Email: "wcgcyx@gmail.com",
			},
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:        "run",
			Usage:       "run scenario files",
			Description: "Run every scenario of the given files or directories",
			ArgsUsage:   "[files or directories...]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "config",
					Value: "",
					Usage: "specify config file",
				},
				&cli.IntFlag{
					Name:  "parallel",
					Value: 0,
					Usage: "specify number of scenarios run at the same time",
				},
				&cli.BoolFlag{
					Name:  "trace",
					Value: false,
					Usage: "emit every account store mutation as a debug log",
				},
				&cli.StringFlag{
					Name:  "metrics-addr",
					Value: "",
					Usage: "specify the address to serve metrics at",
				},
				&cli.StringFlag{
					Name:  "chain",
					Value: "mainnet",
					Usage: "specify the chain whose fork rules apply [mainnet,sepolia,holesky]",
				},
				&cli.StringFlag{
					Name:  "filter",
					Value: "",
					Usage: "only run scenarios whose name contains the given text",
				},
			},
			Action: func(ctx *cli.Context) error {
				return runScenarios(ctx)
			},
		},
		{
			Name:        "version",
			Usage:       "get version",
			Description: "Get the version",
			ArgsUsage:   " ",
			Action: func(c *cli.Context) error {
				fmt.Println("Version: ", version.Version)
				return nil
			},
		},
	}
	return app
}
