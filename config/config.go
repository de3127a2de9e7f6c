package config

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
	"errors"
	"runtime"

	logging "github.com/ipfs/go-log"
	"github.com/spf13/viper"
)

// Logger
var log = logging.Logger("config")

const (
	defaultConfigPath = ".ledgervm"
)

type Config struct {
	// Global
	GlobalLoggingLevel string `mapstructure:"LOGGING"` // Log Level: FATAL, PANIC, ERROR, WARN, INFO, DEBUG.
	Chain              string `mapstructure:"CHAIN"`   // Chain whose fork rules are used: mainnet, sepolia, holesky.

	// Machine
	CallDepthLimit int  `mapstructure:"CALL_DEPTH_LIMIT"` // Max call depth of the interpreter.
	TraceBackend   bool `mapstructure:"TRACE_BACKEND"`    // Emit every account store mutation as a debug entry.

	// Oracle
	Parallelism       int    `mapstructure:"PARALLELISM"`         // Number of scenarios run at the same time.
	ScenarioCacheSize int    `mapstructure:"SCENARIO_CACHE_SIZE"` // Number of parsed scenario files to cache.
	MetricsAddr       string `mapstructure:"METRICS_ADDR"`        // Address to serve metrics at, disabled if empty.
}

// Default configs
var DefaultConfig Config = Config{
	GlobalLoggingLevel: "INFO",
	Chain:              "mainnet",
	CallDepthLimit:     1024,
	TraceBackend:       false,
	Parallelism:        runtime.NumCPU(),
	ScenarioCacheSize:  64,
	MetricsAddr:        "",
}

// NewConfig creates a new configuration.
//
// @output - configuration, error.
func NewConfig(configFile string) (Config, error) {
	// Try to load config file from $HOME/.ledgervm
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME/" + defaultConfigPath)
	if configFile != "" {
		viper.SetConfigFile(configFile)
	}
	viper.AutomaticEnv()
	err := viper.ReadInConfig()
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return Config{}, err
		}
	}

	conf := Config{}

	// Parse global config
	conf.GlobalLoggingLevel = viper.GetString("LOGGING")
	if conf.GlobalLoggingLevel == "" {
		conf.GlobalLoggingLevel = DefaultConfig.GlobalLoggingLevel
	}
	logLevel, err := logging.LevelFromString(conf.GlobalLoggingLevel)
	if err != nil {
		return Config{}, err
	}
	logging.SetAllLoggers(logLevel)
	conf.Chain = viper.GetString("CHAIN")
	if conf.Chain == "" {
		conf.Chain = DefaultConfig.Chain
		log.Infof("CHAIN not defined, use default: %v", conf.Chain)
	}

	// Parse machine config
	conf.CallDepthLimit = viper.GetInt("CALL_DEPTH_LIMIT")
	if conf.CallDepthLimit < 1 || conf.CallDepthLimit > 1024 {
		conf.CallDepthLimit = DefaultConfig.CallDepthLimit
		log.Infof("CALL_DEPTH_LIMIT is not between 1 and 1024, use default: %v", conf.CallDepthLimit)
	}
	conf.TraceBackend = viper.GetBool("TRACE_BACKEND")

	// Parse oracle config
	conf.Parallelism = viper.GetInt("PARALLELISM")
	if conf.Parallelism < 1 || conf.Parallelism > 256 {
		conf.Parallelism = DefaultConfig.Parallelism
		log.Infof("PARALLELISM is not between 1 and 256, use default: %v", conf.Parallelism)
	}
	conf.ScenarioCacheSize = viper.GetInt("SCENARIO_CACHE_SIZE")
	if conf.ScenarioCacheSize < 1 || conf.ScenarioCacheSize > 4096 {
		conf.ScenarioCacheSize = DefaultConfig.ScenarioCacheSize
		log.Infof("SCENARIO_CACHE_SIZE is not between 1 and 4096, use default: %v", conf.ScenarioCacheSize)
	}
	conf.MetricsAddr = viper.GetString("METRICS_ADDR")

	return conf, nil
}
