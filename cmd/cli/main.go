package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/focuskeeper/internal/buildinfo"
	"github.com/dmitrijs2005/focuskeeper/internal/cli"
	"github.com/dmitrijs2005/focuskeeper/internal/config"
	"github.com/dmitrijs2005/focuskeeper/internal/logging"

	_ "modernc.org/sqlite"
)

func main() {
	buildinfo.PrintBuildData(os.Stdout)

	ctx := context.Background()
	cfg := config.LoadConfig()

	var logger logging.Logger
	switch {
	case cfg.LogFile != "":
		logger = logging.NewRotatingFileLogger(cfg.LogFile)
	case cfg.LogFormat == "text":
		logger = logging.NewTextLogger(os.Stderr)
	default:
		logger = logging.NewWriterLogger(os.Stderr)
	}

	app, err := cli.NewApp(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("%v", err)
	}

	if err := app.Run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}
