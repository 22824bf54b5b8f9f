package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RegisterFlags exposes the full flag set on an existing cobra command, for
// embedding stampede's options into a larger CLI.
func RegisterFlags(cmd *cobra.Command) {
	configureFlags(cmd.Flags())
}

// newFlagCommand builds the cobra command the loader parses against.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stampede",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

func configureFlags(flags *pflag.FlagSet) {
	// Target request flags
	flags.String("url", "", "Target URL to load test")
	flags.StringP("method", "m", "GET", "HTTP method to use")
	flags.String("headers", "{}", "Request headers as a JSON object")
	flags.String("body", "", "Inline request body payload (sent for POST, PUT, and PATCH)")
	flags.String("body-file", "", "File to read the request body from")

	// Load profile flags
	flags.IntP("users", "u", 10, "Number of simulated concurrent users")
	flags.IntP("duration", "d", 60, "Test duration in seconds")
	flags.Int("ramp-up", 0, "Seconds over which to ramp up to the full user count")
	flags.Int("delay", 1000, "Delay between requests per user in milliseconds")
	flags.Int("timeout", 5000, "Per-request timeout in milliseconds")
	flags.IntP("rate", "r", 0, "Global requests per second cap across all users (0 means unpaced)")

	// Output flags
	flags.StringP("output", "o", "", "Write full results as JSON to the specified file path")
	flags.String("html-output", "", "Generate HTML report to the specified file path")
	flags.Bool("json-output", false, "Emit the final report as JSON on stdout")
	flags.Bool("dashboard", false, "Render a live terminal dashboard while the test runs")
	flags.Bool("log-errors", false, "Write a log line for every failed request")

	// Config file flags
	flags.StringP("config", "c", "", "Path to configuration file (JSON or YAML)")
	flags.String("init-config", "", "Write an annotated sample configuration file to the given path and exit")

	// Tracing flags
	flags.String("trace-endpoint", "", "OTLP endpoint for trace export (empty disables tracing)")
	flags.String("trace-protocol", "grpc", "OTLP transport protocol: 'grpc' or 'http'")
	flags.Bool("trace-insecure", false, "Disable TLS for OTLP export")
	flags.Float64("trace-sample-rate", 1.0, "Fraction of requests to trace (0.0 to 1.0)")
	flags.Bool("trace-propagate", false, "Inject W3C trace context headers into requests")
	flags.String("trace-service-name", "", "Service name reported on trace spans")
}

// displayHelp prints usage plus the flag reference.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fs := cmd.Flags()
	fs.SetOutput(out)
	cmd.Printf("Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs.PrintDefaults()
}

// applyFlagOverrides copies explicitly set flags onto cfg. Flags the user
// never touched leave cfg alone, so file settings and defaults survive.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	var firstErr error

	setString := func(name string, apply func(string)) {
		if firstErr != nil || !fs.Changed(name) {
			return
		}
		if val, err := fs.GetString(name); err != nil {
			firstErr = err
		} else {
			apply(val)
		}
	}
	setInt := func(name string, apply func(int)) {
		if firstErr != nil || !fs.Changed(name) {
			return
		}
		if val, err := fs.GetInt(name); err != nil {
			firstErr = err
		} else {
			apply(val)
		}
	}
	setBool := func(name string, apply func(bool)) {
		if firstErr != nil || !fs.Changed(name) {
			return
		}
		if val, err := fs.GetBool(name); err != nil {
			firstErr = err
		} else {
			apply(val)
		}
	}

	setString("url", func(v string) { cfg.TargetURL = strings.TrimSpace(v) })
	setString("method", func(v string) { cfg.Method = v })
	// body and body-file are mutually exclusive; the one set last wins.
	setString("body", func(v string) { cfg.Body = v; cfg.BodyFile = "" })
	setString("body-file", func(v string) { cfg.BodyFile = v; cfg.Body = "" })

	setInt("users", func(v int) { cfg.Users = v })
	setInt("duration", func(v int) { cfg.Duration = time.Duration(v) * time.Second })
	setInt("ramp-up", func(v int) { cfg.RampUp = time.Duration(v) * time.Second })
	setInt("delay", func(v int) { cfg.Delay = time.Duration(v) * time.Millisecond })
	setInt("timeout", func(v int) { cfg.Timeout = time.Duration(v) * time.Millisecond })
	setInt("rate", func(v int) { cfg.Rate = v })

	setString("output", func(v string) { cfg.OutputPath = strings.TrimSpace(v) })
	setString("html-output", func(v string) { cfg.HTMLOutput = strings.TrimSpace(v) })
	setBool("json-output", func(v bool) { cfg.JSONOutput = v })
	setBool("dashboard", func(v bool) { cfg.Dashboard = v })
	setBool("log-errors", func(v bool) { cfg.LogErrors = v })

	setString("trace-endpoint", func(v string) { cfg.Tracing.Endpoint = strings.TrimSpace(v) })
	setString("trace-protocol", func(v string) { cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(v)) })
	setBool("trace-insecure", func(v bool) { cfg.Tracing.Insecure = v })
	setBool("trace-propagate", func(v bool) { cfg.Tracing.Propagate = v })
	setString("trace-service-name", func(v string) { cfg.Tracing.ServiceName = strings.TrimSpace(v) })
	if firstErr == nil && fs.Changed("trace-sample-rate") {
		if val, err := fs.GetFloat64("trace-sample-rate"); err != nil {
			firstErr = err
		} else {
			cfg.Tracing.SampleRate = val
		}
	}

	if firstErr != nil {
		return firstErr
	}
	return mergeHeaderFlag(cfg, fs)
}

// mergeHeaderFlag folds --headers into cfg.Headers instead of replacing
// them, so config file headers survive unless the flag names the same key.
func mergeHeaderFlag(cfg *Config, fs *pflag.FlagSet) error {
	raw, err := fs.GetString("headers")
	if err != nil {
		return err
	}
	hdrs, err := ParseHeadersJSON(raw)
	if err != nil {
		return err
	}
	if len(hdrs) == 0 {
		return nil
	}
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	for key, value := range hdrs {
		cfg.Headers[key] = value
	}
	return nil
}
