package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"tweetstojson/pkg/config"
	"tweetstojson/pkg/export"
	"tweetstojson/pkg/logger"
	"tweetstojson/pkg/scraper"
	"tweetstojson/pkg/storage"
	"tweetstojson/pkg/timeline"
	"tweetstojson/pkg/twitter"
	"tweetstojson/pkg/ui"
)

var (
	// Version information, set with -ldflags at build time
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

type options struct {
	configFile string
	outputFile string
	logLevel   string
	quiet      bool
}

// newRootCmd builds the command; each call returns an independent instance
func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "tweetstojson",
		Short: "Save a user's tweets to a JSON file, fetching only what is new",
		Long: `tweetstojson fetches the timeline of the account named in the config file
and merges it into a local JSON file.

The first run fetches as far back as the API allows. Later runs only ask for
tweets newer than the newest one already saved, then deduplicate and sort the
combined collection before rewriting the file.

The API credential is read from TWITTER_BEARER_TOKEN (a .env file in the
working directory is honoured). Search parameters and the export format come
from a config file such as .tweets-to-jsonrc.yaml, searched for from the
working directory upwards.`,
		Example: `  # Fetch into ./tweets.json using the discovered config
  tweetstojson

  # Write somewhere else with an explicit config
  tweetstojson -o archive/jack.json -c jack.yaml

  # Show per-page request logs
  tweetstojson --log-level debug`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputFile, "output-file", "o", config.DefaultOutputFile, "specify where to output the tweets")
	cmd.Flags().StringVarP(&opts.configFile, "config", "c", "", "config file (default: discovered .tweets-to-jsonrc*)")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error, off)")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "only print the summary line and errors")

	cmd.SetVersionTemplate(`tweetstojson {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	cmd.CompletionOptions.DisableDefaultCmd = true

	return cmd
}

func run(cmd *cobra.Command, opts *options) error {
	config.LoadDotEnv()

	token, err := config.BearerToken()
	if err != nil {
		return err
	}

	flags := make(map[string]interface{})
	if cmd.Flags().Changed("output-file") {
		flags["output-file"] = opts.outputFile
	}
	if opts.logLevel != "" {
		flags["log-level"] = opts.logLevel
	}

	cfg, err := config.Load(opts.configFile, flags)
	if err != nil {
		return err
	}
	cfg.Twitter.BearerToken = token

	log, err := logger.Initialize(&cfg.Logging, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	log.WithFields(map[string]interface{}{
		"version": version,
		"config":  cfg.Path,
	}).Info("tweetstojson starting")

	exporter, err := export.New(cfg.Export.Format, cfg.Export.Fields)
	if err != nil {
		return err
	}

	order, err := timeline.ParseOrder(cfg.Output.Order)
	if err != nil {
		return err
	}

	store, err := storage.NewManager(cfg.Output.File, order, cfg.Output.Schema, log)
	if err != nil {
		return err
	}

	s, err := scraper.New(cfg, newTimelineClient(cfg, log), store, exporter, ui.NewPrinter(cmd.OutOrStdout(), opts.quiet))
	if err != nil {
		return err
	}

	_, err = s.Run(cmd.Context())
	return err
}

// newTimelineClient picks the backend named in the config
func newTimelineClient(cfg *config.Config, log logger.Logger) scraper.TimelineClient {
	if cfg.Twitter.Backend == "nitter" {
		logger.LogComponentStart(log, "nitter", map[string]interface{}{
			"url": cfg.Twitter.NitterURL,
		})
		return twitter.NewNitterClient(cfg.Twitter.NitterURL, cfg.Twitter.Timeout, log)
	}

	logger.LogComponentStart(log, "api", map[string]interface{}{
		"url": cfg.Twitter.BaseURL,
	})
	return twitter.NewClient(cfg.Twitter.BaseURL, cfg.Twitter.BearerToken, cfg.Twitter.Timeout, log)
}

// execute runs cmd with args, reporting a failure on the command's error
// stream. It returns the process exit code.
func execute(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		ui.NewPrinter(cmd.ErrOrStderr(), false).PrintError("Error", err)
		return 1
	}
	return 0
}

// Execute runs the root command against the process arguments
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return execute(ctx, newRootCmd(), os.Args[1:])
}
