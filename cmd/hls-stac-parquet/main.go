package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/MAAP-Project/hls-stac-parquet/internal/config"
)

// Exit codes
const (
	ExitSuccess            = 0
	ExitGeneralError       = 1
	ExitInvalidArgs        = 2
	ExitCatalogUnavailable = 3
	ExitIncompleteLinks    = 4
	ExitStorageError       = 5
	ExitHighFailureRate    = 6
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "harvest":
		return runHarvest(cmdArgs)
	case "aggregate":
		return runAggregate(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: hls-stac-parquet <command> [options]

Commands:
  harvest    Query the CMR catalog for daily granules and cache item link manifests
  aggregate  Fetch a month's item documents and write a partitioned GeoParquet artifact

Run 'hls-stac-parquet <command> -h' for command-specific help.`)
}

// loadConfig builds the effective configuration: defaults, then the
// optional config file, then environment variables. Flag overrides are
// merged on top by the callers.
func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		fileCfg, err := config.LoadFromFile(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = fileCfg
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// newLogger builds the process logger. Verbose enables debug level and
// a development-friendly console encoding.
func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[hls] Received interrupt, shutting down...")
		cancel()
	}()

	return ctx, cancel
}
