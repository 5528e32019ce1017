package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/erpc/rpccheck/common"
	"github.com/erpc/rpccheck/harness"
	"github.com/erpc/rpccheck/telemetry"
	"github.com/erpc/rpccheck/util"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v3"
)

const defaultConfigPath = "./rpccheck.yaml"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if code := Run(ctx, afero.NewOsFs(), os.Args, os.Stdout); code != util.ExitCodeOK {
		util.OsExit(code)
	}
}

// Run executes the command line and maps the outcome to a process exit code.
func Run(ctx context.Context, fs afero.Fs, args []string, stdout io.Writer) int {
	err := newRootCommand(fs, stdout).Run(ctx, args)
	switch {
	case err == nil:
		return util.ExitCodeOK
	case common.HasErrorCode(err, common.ErrCodeAggregatedFailure):
		log.Warn().Err(err).Msg("conformance checks failed")
		return util.ExitCodeConformanceFailures
	default:
		log.Error().Msgf("failed to start rpccheck: %v", err)
		return util.ExitCodeStartFailed
	}
}

func newRootCommand(fs afero.Fs, stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "rpccheck",
		Usage:     "Validate recorded Ethereum JSON-RPC responses against per-method schemas",
		ArgsUsage: "[config file]",
		Writer:    stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   defaultConfigPath,
				Usage:   "Config file to use",
				Sources: cli.EnvVars("RPCCHECK_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "schemas",
				Usage: "Directory holding one schema file per method, overrides schemasDir",
			},
			&cli.StringSliceFlag{
				Name:  "samples",
				Usage: "Recorded sample files, overrides samples",
			},
			&cli.StringFlag{
				Name:  "only",
				Usage: "Only run cases whose method matches this filter, e.g. 'eth_* & !eth_getLogs'",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runSuite(ctx, fs, cmd)
		},
		Commands: []*cli.Command{
			newCheckCommand(fs),
			newSchemasCommand(fs),
		},
	}
}

// configPath prefers a positional argument over --config, like `rpccheck my.yaml`.
func configPath(cmd *cli.Command) string {
	if cmd.Args().Len() > 0 {
		return cmd.Args().First()
	}
	return cmd.String("config")
}

func loadConfig(fs afero.Fs, cmd *cli.Command, path string, required bool) (*common.Config, error) {
	var cfg *common.Config
	if _, err := fs.Stat(path); errors.Is(err, os.ErrNotExist) {
		if required {
			return nil, common.NewErrInvalidConfig(fmt.Sprintf("config file '%s' does not exist", path))
		}
		cfg = common.DefaultConfig()
	} else {
		log.Info().Msgf("loading configuration from %s", path)
		cfg, err = common.LoadConfig(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
		}
	}

	applyOverrides(cfg, cmd)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.LogLevel != "" && !logsDisabled() {
		level, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, common.NewErrInvalidConfig(fmt.Sprintf("logLevel: %v", err))
		}
		zerolog.SetGlobalLevel(level)
	}

	if cfg.Metrics != nil {
		if err := telemetry.SetHistogramBuckets(cfg.Metrics.HistogramBuckets); err != nil {
			return nil, common.NewErrInvalidConfig(fmt.Sprintf("metrics.histogramBuckets: %v", err))
		}
	}
	return cfg, nil
}

func applyOverrides(cfg *common.Config, cmd *cli.Command) {
	if dir := cmd.String("schemas"); dir != "" {
		cfg.SchemasDir = dir
	}
	if samples := cmd.StringSlice("samples"); len(samples) > 0 {
		cfg.Samples = samples
	}
	if only := cmd.String("only"); only != "" {
		cfg.Only = only
	}
	if cmd.Bool("no-color") {
		cfg.Color = common.ColorNever
	}
}

func paletteFor(mode common.ColorMode) util.Palette {
	switch mode {
	case common.ColorNever:
		return util.PlainPalette()
	case common.ColorAlways:
		return util.NewPalette(termenv.ANSI)
	}
	return util.DetectPalette()
}

func runSuite(ctx context.Context, fs afero.Fs, cmd *cli.Command) error {
	cfg, err := loadConfig(fs, cmd, configPath(cmd), true)
	if err != nil {
		return err
	}

	out := cmd.Root().Writer
	palette := paletteFor(cfg.Color)
	suite, err := harness.NewSuite(&log.Logger, fs, cfg,
		harness.WithOutput(out),
		harness.WithPalette(palette),
	)
	if err != nil {
		return fmt.Errorf("cannot initialize conformance suite: %w", err)
	}

	report, err := suite.Run(ctx)
	if report != nil {
		summary := fmt.Sprintf("%d passed, %d failed, %d skipped", report.Passed, report.Failed, report.Skipped)
		if report.Failed > 0 {
			fmt.Fprintln(out, palette.Failed(summary))
		} else {
			fmt.Fprintln(out, palette.Success(summary))
		}
	}
	return err
}
