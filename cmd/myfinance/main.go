package main

import (
	"github.com/alecthomas/kong"

	"myfinance/internal/cli"
	"myfinance/internal/config"
	"myfinance/internal/log"
)

// globals is bound into every command's Run.
type globals struct {
	Config *config.Config
	Logger *log.Logger
}

var commands struct {
	Run    runCmd    `cmd:"" help:"Start the interactive console."`
	Report reportCmd `cmd:"" help:"Print the report of one window and exit."`
}

func main() {
	ctx := kong.Parse(&commands)

	cfg, err := cli.LoadConfig()
	ctx.FatalIfErrorf(err)
	logger := cli.SetupLogger(cfg, nil)

	err = ctx.Run(&globals{Config: cfg, Logger: logger})
	ctx.FatalIfErrorf(err)
}
