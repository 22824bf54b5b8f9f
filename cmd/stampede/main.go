package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/stampedehq/stampede/internal/config"
	"github.com/stampedehq/stampede/internal/dashboard"
	"github.com/stampedehq/stampede/internal/executor"
	"github.com/stampedehq/stampede/internal/metrics"
	"github.com/stampedehq/stampede/internal/output"
	"github.com/stampedehq/stampede/internal/runner"
	"github.com/stampedehq/stampede/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}

	if cfg.InitConfig != "" {
		if err := config.WriteSampleConfig(cfg.InitConfig); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Sample configuration written to %s\n", cfg.InitConfig)
		return nil
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	provider, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("Trace exporter shutdown failed")
		}
	}()

	client := executor.NewClient(cfg.Timeout, cfg.Users)
	exec, err := executor.New(cfg, client, provider)
	if err != nil {
		return err
	}

	agg := metrics.NewAggregator()

	var requester runner.Requester = exec
	if cfg.LogErrors {
		requester = runner.WithFailureLogging(requester, logger)
	}

	orch, err := runner.New(runner.Options{
		Config:     cfg,
		Requester:  requester,
		Aggregator: agg,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	if !cfg.JSONOutput && !cfg.Dashboard {
		output.PrintBanner(os.Stdout, cfg.TargetURL, cfg.Users, cfg.Duration, cfg.RampUp)
	}

	var dash *dashboard.Dashboard
	if cfg.Dashboard {
		dash, err = dashboard.New(agg, dashboardConfig(cfg), orch.ActiveUsers, orch.Stop)
		if err != nil {
			return err
		}
		dash.Start()
	}

	var progress *output.ProgressReporter
	if !cfg.JSONOutput && !cfg.Dashboard {
		progress = output.NewProgressReporter(agg, progressInterval, os.Stdout)
		progress.EstimatedTotal = estimateTotalRequests(cfg)
		progress.RunDuration = cfg.Duration
		progress.ActiveUsers = orch.ActiveUsers
		progress.Start()
	}

	report, err := orch.Run(ctx)
	exec.CloseIdleConnections()

	// Tear the live surfaces down before printing so the report lands on a
	// clean terminal.
	if progress != nil {
		progress.Stop()
		fmt.Fprintln(os.Stdout)
	}
	if dash != nil {
		dash.Stop()
	}
	if err != nil {
		return err
	}

	if ctx.Err() != nil && !cfg.JSONOutput {
		fmt.Fprintln(os.Stdout, "\nTest interrupted by user")
	}

	if cfg.JSONOutput {
		if err := output.PrintJSONReport(os.Stdout, report); err != nil {
			return err
		}
	} else {
		output.PrintReport(os.Stdout, report)
	}

	msgW := io.Writer(os.Stdout)
	if cfg.JSONOutput {
		// Keep stdout machine-readable; status lines go to stderr.
		msgW = os.Stderr
	}
	saveArtifacts(cfg, report, msgW, logger)
	return nil
}

func newLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().
		Timestamp().
		Logger()
}

// estimateTotalRequests sizes the progress bar. Each user completes roughly
// one request per delay interval, and a rate cap bounds the whole run. A zero
// return means no usable estimate, which switches the bar to a plain counter.
func estimateTotalRequests(cfg *config.Config) int64 {
	if cfg.Duration <= 0 {
		return 0
	}
	var estimate int64
	if cfg.Delay > 0 {
		perUser := float64(cfg.Duration) / float64(cfg.Delay)
		estimate = int64(perUser * float64(cfg.Users))
	}
	if cfg.Rate > 0 {
		capped := int64(float64(cfg.Rate) * cfg.Duration.Seconds())
		if estimate == 0 || capped < estimate {
			estimate = capped
		}
	}
	return estimate
}

func dashboardConfig(cfg *config.Config) dashboard.TestConfig {
	return dashboard.TestConfig{
		TargetURL:  cfg.TargetURL,
		Users:      cfg.Users,
		Duration:   cfg.Duration,
		RampUp:     cfg.RampUp,
		Delay:      cfg.Delay,
		Rate:       cfg.Rate,
		Timeout:    cfg.Timeout,
		Method:     cfg.Method,
		ConfigFile: cfg.ConfigFile,
	}
}

// saveArtifacts writes the optional JSON and HTML result files. Failures are
// logged as warnings; the run itself already succeeded.
func saveArtifacts(cfg *config.Config, report *metrics.Report, w io.Writer, logger zerolog.Logger) {
	if cfg.OutputPath != "" {
		if err := output.WriteJSONFile(cfg.OutputPath, report); err != nil {
			logger.Warn().Err(err).Str("path", cfg.OutputPath).Msg("Failed to save results file")
		} else {
			fmt.Fprintf(w, "\nDetailed results saved to %s\n", cfg.OutputPath)
		}
	}
	if cfg.HTMLOutput != "" {
		if err := writeHTMLReport(cfg.HTMLOutput, report); err != nil {
			logger.Warn().Err(err).Str("path", cfg.HTMLOutput).Msg("Failed to save HTML report")
		} else {
			fmt.Fprintf(w, "HTML report saved to %s\n", cfg.HTMLOutput)
		}
	}
}

func writeHTMLReport(path string, report *metrics.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := output.GenerateHTMLReport(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
