package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/weixin-sdk/internal/app"
	"github.com/samvad-hq/weixin-sdk/internal/config"
	"github.com/samvad-hq/weixin-sdk/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "weixin: %v\n", err)
		if errors.Is(err, app.ErrUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	logger.InfoObj("weixin cli starting", "config", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli, err := app.New(ctx, cfg, log, os.Stdout)
	if err != nil {
		logger.ErrorObj("failed to initialize weixin cli", "error", err)
		return err
	}
	defer func() {
		if err := cli.Close(); err != nil {
			logger.ErrorObj("weixin cli close failed", "error", err)
		}
	}()

	return cli.Run(ctx, args)
}
