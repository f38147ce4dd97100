package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

const (
	ConfigDebug                = "debug"
	ConfigThreads              = "threads"
	ConfigTTMemoryFraction     = "tt-memory-fraction"
	ConfigTTSizePower          = "tt-size-power"
	ConfigMaxNodes             = "max-nodes"
	ConfigSolveTimeout         = "solve-timeout"
	ConfigEquivalenceReduction = "equivalence-reduction"
	ConfigQuickTricks          = "quick-tricks"
	ConfigNullWindow           = "null-window"
	ConfigTranspositionTable   = "transposition-table"
	ConfigNatsURL              = "nats-url"
	ConfigNatsSubject          = "nats-subject"
	ConfigDBPath               = "db-path"
	ConfigBenchDeals           = "bench-deals"
	ConfigBenchSeed            = "bench-seed"
	ConfigConfigFile           = "config-file"
)

const EnvPrefix = "DDSOLVER"

type Config struct {
	*viper.Viper
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(ConfigDebug, false)
	v.SetDefault(ConfigThreads, max(1, runtime.NumCPU()-1))
	v.SetDefault(ConfigTTMemoryFraction, 0.1)
	// 0 means size the table from tt-memory-fraction.
	v.SetDefault(ConfigTTSizePower, 0)
	v.SetDefault(ConfigMaxNodes, 0)
	v.SetDefault(ConfigSolveTimeout, "0s")
	v.SetDefault(ConfigEquivalenceReduction, true)
	v.SetDefault(ConfigQuickTricks, true)
	v.SetDefault(ConfigNullWindow, true)
	v.SetDefault(ConfigTranspositionTable, true)
	v.SetDefault(ConfigNatsURL, "nats://localhost:4222")
	v.SetDefault(ConfigNatsSubject, "ddsolver.solve")
	v.SetDefault(ConfigDBPath, "")
	v.SetDefault(ConfigBenchDeals, 100)
	v.SetDefault(ConfigBenchSeed, 0)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultConfig returns a config with only defaults and environment
// variables applied.
func DefaultConfig() *Config {
	return &Config{newViper()}
}

// Load builds the config from defaults, DDSOLVER_* environment variables,
// an optional yaml config file, and --key=value arguments, in increasing
// order of precedence.
func (c *Config) Load(args []string) error {
	c.Viper = newViper()
	overrides := map[string]string{}
	for _, arg := range args {
		if !strings.HasPrefix(arg, "--") {
			return fmt.Errorf("unexpected config argument %q", arg)
		}
		k, val, ok := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if !ok {
			// a bare flag is a boolean switch.
			val = "true"
		}
		overrides[k] = val
	}
	cfgFile := c.GetString(ConfigConfigFile)
	if f, ok := overrides[ConfigConfigFile]; ok {
		cfgFile = f
	}
	if cfgFile != "" {
		c.SetConfigFile(cfgFile)
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
	}
	for k, val := range overrides {
		c.Set(k, val)
	}
	return nil
}
