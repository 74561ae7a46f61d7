// Copyright 2026 The tcgref Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tcgref/tcgref/lib/config"
	"github.com/tcgref/tcgref/lib/logging"
	"github.com/tcgref/tcgref/lib/process"
	"github.com/tcgref/tcgref/lib/version"
)

const binaryName = "tcgref-bot"

// errInterrupted reports a stop caused by a shutdown signal.
var errInterrupted = errors.New("interrupted")

func main() {
	err := run(os.Args[1:])
	switch {
	case err == nil:
	case errors.Is(err, errInterrupted):
		process.Exit(process.ExitInterrupted)
	default:
		process.Fatal(err)
	}
}

type options struct {
	configPath  string
	showVersion bool
	checkOnly   bool
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options
	flagSet := pflag.NewFlagSet(binaryName, pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.StringVarP(&opts.configPath, "config", "c", "", "path to the YAML config file (default: $"+config.EnvVar+")")
	flagSet.BoolVar(&opts.showVersion, "version", false, "print version information and exit")
	flagSet.BoolVar(&opts.checkOnly, "check", false, "validate the configuration and exit")
	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}
	if flagSet.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", flagSet.Args())
	}
	return opts, nil
}

func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(args []string) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.showVersion {
		version.Print(binaryName)
		return nil
	}

	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.checkOnly {
		fmt.Println("configuration ok")
		return nil
	}

	logger := logging.New(cfg.Log.LevelValue()).With("binary", binaryName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	logger.Info("tcgref starting", "version", version.Info(), "environment", cfg.Environment)
	err = app.Run(ctx)
	if ctx.Err() != nil {
		logger.Info("shutting down on signal")
		return errInterrupted
	}
	return err
}
