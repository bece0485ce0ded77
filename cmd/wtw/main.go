package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/mattn/go-isatty"

	"github.com/i474232898/whats-the-weather/internal/cli"
	"github.com/i474232898/whats-the-weather/internal/config"
)

func main() {
	fs := flag.NewFlagSet("wtw", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Get the weather in your terminal.\n\nUsage: wtw [flags] <city>\n\n")
		fs.PrintDefaults()
	}

	opts, err := cli.ParseOptions(fs, os.Args[1:])
	if err != nil {
		fs.Usage()
		config.Exitf("Error: %v", err)
	}

	// Logs are for debugging; the terminal output is the weather.
	if !opts.Verbose {
		log.SetOutput(io.Discard)
	}

	cfg, err := config.Load()
	if err != nil {
		config.Exitf("Error: %v", err)
	}
	if cfg.Verbose {
		log.SetOutput(os.Stderr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stdio := cli.Stdio{
		In:     os.Stdin,
		Out:    os.Stdout,
		Prompt: isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()),
	}
	if err := cli.Run(ctx, cfg, opts, stdio); err != nil {
		config.Exitf("Error: %v", err)
	}
}
