package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

type Config struct {
	TargetURL  string            `mapstructure:"url"`
	Method     string            `mapstructure:"method"`
	Headers    map[string]string `mapstructure:"headers"`
	Body       string            `mapstructure:"body"`
	BodyFile   string            `mapstructure:"body_file"`
	Users      int               `mapstructure:"users"`
	Duration   time.Duration     `mapstructure:"duration"`
	RampUp     time.Duration     `mapstructure:"ramp_up"`
	Delay      time.Duration     `mapstructure:"delay"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	Rate       int               `mapstructure:"rate"`
	OutputPath string            `mapstructure:"output"`
	HTMLOutput string            `mapstructure:"html_output"`
	JSONOutput bool              `mapstructure:"json_output"`
	Dashboard  bool              `mapstructure:"dashboard"`
	LogErrors  bool              `mapstructure:"log_errors"`
	Tracing    TracingConfig     `mapstructure:"tracing"`
	ConfigFile string            `mapstructure:"-"`
	InitConfig string            `mapstructure:"-"`
}

type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Propagate   bool    `mapstructure:"propagate"`
	ServiceName string  `mapstructure:"service_name"`
}

// Enabled reports whether an OTLP endpoint has been configured.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// ShouldPropagate reports whether W3C trace headers should be injected into requests.
func (t TracingConfig) ShouldPropagate() bool {
	return t.Propagate
}

var allowedMethods = map[string]struct{}{
	"GET":     {},
	"POST":    {},
	"PUT":     {},
	"PATCH":   {},
	"DELETE":  {},
	"HEAD":    {},
	"OPTIONS": {},
}

// ValidationError collects every problem found in a Config so the user sees
// them all at once.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "invalid configuration"
	}
	return "invalid configuration: " + strings.Join(e.issues, "; ")
}

// Issues returns the individual problems behind the error.
func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string
	var warnings []string

	target := strings.TrimSpace(c.TargetURL)
	if target == "" {
		issues = append(issues, "url is required (use --help for usage information)")
	} else {
		parsed, err := url.Parse(target)
		if err != nil {
			issues = append(issues, fmt.Sprintf("url is not valid: %v", err))
		} else if parsed.Scheme != "http" && parsed.Scheme != "https" {
			issues = append(issues, fmt.Sprintf("url scheme must be http or https, got %q", parsed.Scheme))
		} else if parsed.Host == "" {
			issues = append(issues, "url must include a host")
		}
	}

	if method := strings.ToUpper(strings.TrimSpace(c.Method)); method != "" {
		if _, ok := allowedMethods[method]; !ok {
			issues = append(issues, fmt.Sprintf("method %q is not supported", c.Method))
		}
	}

	if c.Users < 1 {
		issues = append(issues, "users must be >= 1")
	}
	if c.Duration < time.Second {
		issues = append(issues, "duration must be >= 1 second")
	}
	if c.RampUp < 0 {
		issues = append(issues, "ramp-up must be >= 0")
	}
	if c.Delay < 0 {
		issues = append(issues, "delay must be >= 0")
	}
	if c.Timeout < time.Millisecond {
		issues = append(issues, "timeout must be >= 1 millisecond")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if strings.TrimSpace(c.Body) != "" && strings.TrimSpace(c.BodyFile) != "" {
		issues = append(issues, "body and body-file cannot both be set")
	}
	if c.Dashboard && c.JSONOutput {
		issues = append(issues, "dashboard cannot be combined with json-output")
	}

	// High-load safety warnings, mirrored to stderr so they survive JSON output mode.
	if c.Users > 500 {
		warnings = append(warnings, fmt.Sprintf("WARNING: High user count configured (%d simulated users). Ensure you have authorization to test the target system.", c.Users))
	}
	if c.Rate > 1000 {
		warnings = append(warnings, fmt.Sprintf("WARNING: High rate limit configured (%d RPS). Ensure you have authorization to test the target system.", c.Rate))
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, w)
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}

	return nil
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	if t.SampleRate < 0 || t.SampleRate > 1.0 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	if proto := strings.ToLower(strings.TrimSpace(t.Protocol)); proto != "" && proto != "grpc" && proto != "http" {
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	return issues
}
