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
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/params"
	logging "github.com/ipfs/go-log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"github.com/wcgcyx/ledgervm/config"
	"github.com/wcgcyx/ledgervm/machine"
	"github.com/wcgcyx/ledgervm/oracle"
	"github.com/wcgcyx/ledgervm/worldstate"
)

// Logger
var log = logging.Logger("cli")

// chainConfig gets the chain config of given chain.
func chainConfig(chain string) (*params.ChainConfig, error) {
	switch chain {
	case "mainnet":
		return core.DefaultGenesisBlock().Config, nil
	case "sepolia":
		return core.DefaultSepoliaGenesisBlock().Config, nil
	case "holesky":
		return core.DefaultHoleskyGenesisBlock().Config, nil
	default:
		return nil, fmt.Errorf("unsupported chain %v", chain)
	}
}

func runScenarios(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("no scenario file given")
	}
	// Load config
	conf, err := config.NewConfig(c.String("config"))
	if err != nil {
		return err
	}
	if c.IsSet("parallel") {
		log.Infof("Override parallel to be %v", c.Int("parallel"))
		conf.Parallelism = c.Int("parallel")
	}
	if c.IsSet("trace") {
		log.Infof("Override trace to be %v", c.Bool("trace"))
		conf.TraceBackend = c.Bool("trace")
	}
	if c.IsSet("metrics-addr") {
		log.Infof("Override metrics-addr to be %v", c.String("metrics-addr"))
		conf.MetricsAddr = c.String("metrics-addr")
	}
	if c.IsSet("chain") {
		log.Infof("Override chain to be %v", c.String("chain"))
		conf.Chain = c.String("chain")
	}
	chainCfg, err := chainConfig(conf.Chain)
	if err != nil {
		return err
	}
	log.Infof("Use chain config for %v", conf.Chain)

	// Load scenarios
	loader, err := oracle.NewLoader(conf.ScenarioCacheSize)
	if err != nil {
		return err
	}
	scenarios, err := loader.LoadAll(c.Args().Slice())
	if err != nil {
		return err
	}
	if filter := c.String("filter"); filter != "" {
		filtered := make([]*oracle.Scenario, 0)
		for _, s := range scenarios {
			if strings.Contains(s.Name, filter) {
				filtered = append(filtered, s)
			}
		}
		scenarios = filtered
	}
	log.Infof("Loaded %v scenarios", len(scenarios))

	// Create metrics
	var metrics *oracle.Metrics
	if conf.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		metrics = oracle.NewMetrics(reg)
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		server := &http.Server{
			Addr:              conf.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			err := server.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("Fail to serve metrics: %v", err.Error())
			}
		}()
		log.Infof("Start serving metrics at %v", conf.MetricsAddr)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			server.Shutdown(ctx)
		}()
	}

	// Create oracle
	var hooks *worldstate.Hooks
	if conf.TraceBackend {
		hooks = worldstate.LogHooks()
	}
	o := oracle.NewOracle(oracle.NewMachineFactory(machine.Opts{
		ChainConfig:    chainCfg,
		CallDepthLimit: conf.CallDepthLimit,
		Hooks:          hooks,
	}), oracle.Opts{
		Hooks:   hooks,
		Metrics: metrics,
	})

	// Run
	start := time.Now()
	results := o.RunBatch(scenarios, conf.Parallelism)
	for _, res := range results {
		if !res.Passed {
			fmt.Printf("FAIL %v: %v\n", res.Name, res.Err)
		}
	}
	sum := oracle.Summarize(results)
	fmt.Printf("%v passed, %v mismatched, %v malformed, %v fatal in %v\n", sum.Passed, sum.Mismatch, sum.Malformed, sum.Fatal, time.Since(start))
	if sum.Passed != len(results) {
		return cli.Exit(fmt.Sprintf("%v of %v scenarios failed", len(results)-sum.Passed, len(results)), 1)
	}
	return nil
}
