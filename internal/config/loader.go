package config

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load builds a Config from command-line arguments and an optional config
// file. Precedence is defaults, then file values, then explicit flags.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	fs := cmd.Flags()
	configPath := fs.Lookup("config").Value.String()
	if helpRequested(fs) || (len(args) == 0 && configPath == "") {
		displayHelp(cmd)
		return nil, ErrHelpRequested
	}

	settings, err := fileSettings(configPath)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig(configPath)
	if err := applyConfigSettings(cfg, settings); err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(cfg, fs); err != nil {
		return nil, err
	}
	if initPath := fs.Lookup("init-config").Value.String(); initPath != "" {
		cfg.InitConfig = strings.TrimSpace(initPath)
	}

	normalize(cfg)
	return cfg, nil
}

// helpRequested reports whether the parsed flag set carries --help.
func helpRequested(fs *pflag.FlagSet) bool {
	flag := fs.Lookup("help")
	if flag == nil {
		return false
	}
	wants, err := strconv.ParseBool(flag.Value.String())
	return err == nil && wants
}

// fileSettings reads the config file into viper's normalized key map. An
// empty path yields no settings.
func fileSettings(path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	return v.AllSettings(), nil
}

// defaultConfig carries the flag defaults, so the file and flag layers only
// record what they change.
func defaultConfig(configPath string) *Config {
	return &Config{
		Method:     "GET",
		Headers:    map[string]string{},
		Users:      10,
		Duration:   60 * time.Second,
		Delay:      time.Second,
		Timeout:    5 * time.Second,
		ConfigFile: configPath,
		Tracing: TracingConfig{
			Protocol:   "grpc",
			SampleRate: 1.0,
		},
	}
}

func normalize(cfg *Config) {
	cfg.Method = strings.ToUpper(strings.TrimSpace(cfg.Method))
	cfg.TargetURL = strings.TrimSpace(cfg.TargetURL)
	cfg.BodyFile = strings.TrimSpace(cfg.BodyFile)
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
}

// applyConfigSettings folds file settings onto cfg. The snake and kebab
// aliases cover the spellings YAML and JSON files arrive with.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	r := readSettings(settings)
	r.stringKey(func(v string) { cfg.TargetURL = strings.TrimSpace(v) }, "url", "target")
	r.stringKey(func(v string) {
		if v != "" {
			cfg.Method = v
		}
	}, "method")
	r.apply([]string{"headers"}, func(raw interface{}) error {
		hdrs, err := asStringMap(raw)
		if err != nil {
			return err
		}
		if cfg.Headers == nil {
			cfg.Headers = map[string]string{}
		}
		for k, v := range hdrs {
			cfg.Headers[http.CanonicalHeaderKey(k)] = v
		}
		return nil
	})
	r.stringKey(func(v string) { cfg.Body = v }, "body")
	r.stringKey(func(v string) { cfg.BodyFile = v }, "body_file", "bodyfile", "body-file")
	r.intKey(func(v int) { cfg.Users = v }, "users")
	r.durationKey(time.Second, func(v time.Duration) { cfg.Duration = v }, "duration")
	r.durationKey(time.Second, func(v time.Duration) { cfg.RampUp = v }, "ramp_up", "rampup", "ramp-up")
	r.durationKey(time.Millisecond, func(v time.Duration) { cfg.Delay = v }, "delay")
	r.durationKey(time.Millisecond, func(v time.Duration) { cfg.Timeout = v }, "timeout")
	r.intKey(func(v int) { cfg.Rate = v }, "rate")
	r.stringKey(func(v string) { cfg.OutputPath = strings.TrimSpace(v) }, "output")
	r.stringKey(func(v string) { cfg.HTMLOutput = strings.TrimSpace(v) }, "html_output", "htmloutput", "html-output")
	r.boolKey(func(v bool) { cfg.JSONOutput = v }, "json_output", "jsonoutput", "json-output")
	r.boolKey(func(v bool) { cfg.Dashboard = v }, "dashboard")
	r.boolKey(func(v bool) { cfg.LogErrors = v }, "log_errors", "logerrors", "log-errors")
	r.apply([]string{"tracing"}, func(raw interface{}) error {
		tracing, err := parseTracing(raw, cfg.Tracing)
		if err != nil {
			return err
		}
		cfg.Tracing = tracing
		return nil
	})

	return r.err
}

func parseTracing(value interface{}, base TracingConfig) (TracingConfig, error) {
	if value == nil {
		return base, nil
	}
	entry, err := toStringKeyMap(value)
	if err != nil {
		return TracingConfig{}, err
	}

	tracing := base
	r := readSettings(entry)
	r.stringKey(func(v string) { tracing.Endpoint = strings.TrimSpace(v) }, "endpoint")
	r.stringKey(func(v string) { tracing.Protocol = strings.ToLower(strings.TrimSpace(v)) }, "protocol")
	r.boolKey(func(v bool) { tracing.Insecure = v }, "insecure")
	r.float64Key(func(v float64) { tracing.SampleRate = v }, "sample_rate", "samplerate", "sample-rate")
	r.boolKey(func(v bool) { tracing.Propagate = v }, "propagate")
	r.stringKey(func(v string) { tracing.ServiceName = strings.TrimSpace(v) }, "service_name", "servicename", "service-name")
	if r.err != nil {
		return TracingConfig{}, r.err
	}
	return tracing, nil
}
