package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/ddsolver/config"
)

// version is set by ldflags during build
var version = "dev"

type Globals struct {
	Debug      bool     `help:"enable debug logging"`
	ConfigFile string   `help:"yaml config file" type:"path"`
	Set        []string `short:"s" help:"config override, key=value (e.g. threads=4)" sep:"none"`
}

// config merges the config file, environment and command line.
func (g *Globals) config() (*config.Config, error) {
	var args []string
	if g.ConfigFile != "" {
		args = append(args, "--"+config.ConfigConfigFile+"="+g.ConfigFile)
	}
	for _, kv := range g.Set {
		args = append(args, "--"+kv)
	}
	if g.Debug {
		args = append(args, "--"+config.ConfigDebug+"=true")
	}
	cfg := config.DefaultConfig()
	if err := cfg.Load(args); err != nil {
		return nil, err
	}
	setupLogger(cfg.GetBool(config.ConfigDebug))
	log.Debug().Interface("settings", cfg.AllSettings()).Msg("loaded-config")
	return cfg, nil
}

func setupLogger(debug bool) {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"show version"`
	Solve   SolveCmd         `cmd:"" help:"solve deals: tricks per strain and declarer"`
	Analyze AnalyzeCmd       `cmd:"" help:"solve a position part way through play, card by card"`
	Deal    DealCmd          `cmd:"" help:"generate random deals"`
	Bench   BenchCmd         `cmd:"" help:"measure hand evaluators against solved deals"`
	Serve   ServeCmd         `cmd:"" help:"answer solve requests over NATS"`
	Remote  RemoteCmd        `cmd:"" help:"send a solve request to a NATS server"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("ddsolve"),
		kong.Description("Double-dummy bridge solver"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
