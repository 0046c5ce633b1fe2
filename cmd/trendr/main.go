package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/byteowlz/trendr/internal/config"
	"github.com/byteowlz/trendr/internal/fetcher"
	"github.com/byteowlz/trendr/internal/logger"
	"github.com/byteowlz/trendr/internal/output"
	"github.com/byteowlz/trendr/internal/report"
	"github.com/byteowlz/trendr/pkg/trending"
)

// Exit codes for granular error handling
const (
	ExitSuccess      = 0
	ExitNetworkError = 1
	ExitNoRecords    = 2
	ExitInvalidInput = 3
	ExitConfigError  = 4
	ExitFileIOError  = 5
)

var (
	cfgFile           string
	outputDir         string
	topN              int
	timeout           int
	userAgent         string
	browserAgent      string
	noFollowRedirects bool
	allowEmpty        bool
	verbose           bool
	quiet             bool
	jsonLogs          bool
)

const version = "0.3.0"

var rootCmd = &cobra.Command{
	Use:   "trendr",
	Short: "Save the top trending GitHub repositories to CSV",
	Long: `trendr fetches https://github.com/trending, extracts the top repositories
(name and link) and writes them to a timestamped CSV file.`,
	Args:          cobra.NoArgs,
	Version:       version,
	RunE:          run,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ee *exitErr
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(ExitInvalidInput)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/trendr/config.toml)")

	rootCmd.Flags().IntVarP(&topN, "top", "n", 5, "number of repositories to extract")
	rootCmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory for the CSV file, or - for stdout")
	rootCmd.Flags().IntVar(&timeout, "timeout", 10, "request timeout in seconds")
	rootCmd.Flags().StringVar(&userAgent, "user-agent", "", "custom user agent string")
	rootCmd.Flags().StringVar(&browserAgent, "browser-agent", "", "browser agent type (auto|chrome|firefox|safari|edge)")
	rootCmd.Flags().BoolVar(&noFollowRedirects, "no-follow-redirects", false, "disable following HTTP redirects")
	rootCmd.Flags().BoolVar(&allowEmpty, "allow-empty", false, "exit successfully even when no repositories are found")

	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress all non-error output")
	rootCmd.Flags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON lines")
}

// initConfig creates the example config on first run so users have something to edit.
func initConfig() {
	if cfgFile != "" {
		return
	}
	path := config.DefaultPath()
	if path == "" {
		return
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return
	}
	if err := config.Default().CreateExampleConfig(path); err != nil {
		if verbose && !quiet {
			fmt.Fprintf(os.Stderr, "Error creating config file: %v\n", err)
		}
		return
	}
	if !quiet {
		fmt.Fprintf(os.Stderr, "Created config file: %s\n", path)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return exitError(ExitConfigError, "failed to load config: %v", err)
	}

	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return exitError(ExitConfigError, "%v", err)
	}

	logger.Init(logger.Options{
		Level:   cfg.Logging.Level,
		Verbose: verbose,
		Quiet:   quiet,
		JSON:    cfg.Logging.JSON,
	})

	// Console output goes to stdout unless stdout carries the CSV itself
	var console io.Writer = os.Stdout
	opts := trending.RunOptions{
		TopN:       cfg.Extraction.TopN,
		OutputDir:  cfg.Output.Directory,
		AllowEmpty: cfg.Run.AllowEmpty,
	}
	if outputDir == "-" {
		opts.Stdout = os.Stdout
		console = os.Stderr
	}
	if quiet {
		console = io.Discard
	}

	report.Banner(console, opts.TopN)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(cfg.Network.Timeout+5)*time.Second)
	defer cancel()

	result, err := trending.New(cfg).Run(ctx, opts)
	if err != nil {
		report.Failure(console, err)
		return exitError(exitCode(err), "")
	}

	report.Print(console, report.Summary{
		Records:  result.Records,
		File:     result.File,
		Page:     result.Page,
		Strategy: result.Strategy,
		Fallback: result.Fallback,
	})

	logger.Debug("run finished", "duration", result.ProcessingTime.String(), "skipped", result.Skipped)
	return nil
}

// applyFlags overrides config values with flags the user explicitly set.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("top") {
		cfg.Extraction.TopN = topN
	}
	if flags.Changed("output") && outputDir != "-" {
		cfg.Output.Directory = outputDir
	}
	if flags.Changed("timeout") {
		cfg.Network.Timeout = timeout
	}
	if flags.Changed("user-agent") {
		cfg.Network.UserAgent = userAgent
	}
	if flags.Changed("browser-agent") {
		cfg.Network.BrowserAgent = browserAgent
	}
	if flags.Changed("no-follow-redirects") {
		cfg.Network.FollowRedirects = !noFollowRedirects
	}
	if flags.Changed("allow-empty") {
		cfg.Run.AllowEmpty = allowEmpty
	}
	if flags.Changed("json-logs") {
		cfg.Logging.JSON = jsonLogs
	}
}

func exitCode(err error) int {
	var te *fetcher.TransportError
	var we *output.WriteError
	switch {
	case errors.As(err, &te):
		return ExitNetworkError
	case errors.As(err, &we):
		return ExitFileIOError
	case errors.Is(err, trending.ErrNoRecords):
		return ExitNoRecords
	default:
		return ExitInvalidInput
	}
}

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string {
	return e.msg
}

func exitError(code int, format string, args ...interface{}) *exitErr {
	msg := fmt.Sprintf(format, args...)
	if msg != "" && !quiet {
		fmt.Fprintf(os.Stderr, "%s\n", msg)
	}
	return &exitErr{code: code, msg: msg}
}
