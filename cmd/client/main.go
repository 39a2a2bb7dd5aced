package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"CardKeeper/internal/cli/commands"
	"CardKeeper/internal/config"

	"go.uber.org/zap"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

func main() {
	// Load unified config (env + flags)
	cfg := config.NewConfig()

	if len(flag.Args()) > 0 && flag.Arg(0) == "version" {
		printVersion()
		return
	}

	logger, err := newLogger(cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := commands.NewApp(cfg, sugar)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(2)
	}

	// dispatcher
	exitCode := commands.Dispatch(ctx, app, flag.Args())
	app.Close()
	if exitCode == 0 {
		return
	}
	_ = logger.Sync()
	os.Exit(exitCode)
}

// newLogger: json — production-логгер, иначе development (в stderr).
func newLogger(format string) (*zap.Logger, error) {
	if format == "json" {
		return zap.NewProduction()
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func printVersion() {
	fmt.Printf("CardKeeper CLI\nVersion: %s\nBuild date: %s\n", version, buildDate)
}
