package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"flyhigh/cmd/flyhigh/globals"
	"flyhigh/internal/archive"
	"flyhigh/internal/components/chrono"
	"flyhigh/internal/components/telemetry"
	"flyhigh/internal/config"
	"flyhigh/internal/offer"
	"flyhigh/internal/pipeline"
	"flyhigh/internal/store"
	"flyhigh/lib/osutil"
	libtelemetry "flyhigh/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool
	otel       libtelemetry.Telemetry
)

var rootCmd = &cobra.Command{
	Use:           "flyhigh",
	Short:         "flyhigh records airfare prices over time and reconstructs their price curves.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		level := libtelemetry.ParseLevel(cfg.LogLevel)
		if debug {
			level = slog.LevelDebug
		}
		libtelemetry.InitSlog(level)

		otel, err = libtelemetry.SetupFromEnv(cmd.Context(), "flyhigh")
		if err != nil {
			slog.Warn("failed to setup otel, continuing without it", "err", err)
		}

		clock, err := chrono.NewStandardImpl(cfg.Timezone)
		if err != nil {
			return err
		}
		cmd.SetContext(globals.Set(cmd.Context(), &globals.Value{
			Config:   cfg,
			Location: clock.Location(),
			Clock:    clock,
			Tel:      telemetry.SlogAPI{},
		}))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		err := otel.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to shutdown otel", "err", err)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json5", "path to the config file, <name>.local.json5 overrides it")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func Execute() {
	ctx, cancel := osutil.SignalContext(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, value *globals.Value) (store.Store, error) {
	return store.OpenConfig(ctx, value.Config.Database, store.Options{
		Location:  value.Location,
		Telemetry: value.Tel,
	})
}

// openArchive opens the configured archive, ok is false when archiving is not
// configured.
func openArchive(value *globals.Value, required bool) (a archive.Archive, ok bool, err error) {
	dir := value.Config.Archive.Dir
	if dir == "" {
		if required {
			return archive.Archive{}, false, fmt.Errorf("archive.dir is not configured")
		}
		return archive.Archive{}, false, nil
	}
	a, err = archive.Open(dir, value.Tel)
	if err != nil {
		return archive.Archive{}, false, err
	}
	return a, true, nil
}

func newPipeline(value *globals.Value, s store.Store, a pipeline.Archive, withFetcher bool) (pipeline.Pipeline, error) {
	opts := pipeline.Options{
		Route:      value.Config.Route,
		Extractor:  offer.NewExtractor(value.Config.Selectors, value.Tel),
		Normalizer: offer.NewNormalizer(value.Location),
		Store:      s,
		Archive:    a,
		Clock:      value.Clock,
		Telemetry:  value.Tel,
	}
	if withFetcher {
		fetcher, err := value.Config.Fetcher.Build(value.Tel)
		if err != nil {
			return pipeline.Pipeline{}, err
		}
		opts.Fetcher = fetcher
	}
	return pipeline.New(opts), nil
}
