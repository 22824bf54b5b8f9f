package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const sampleHeader = `# stampede configuration file.
# Values here are overridden by any flag passed explicitly on the command line.
# duration and ramp_up accept durations ("90s", "2m") or bare seconds;
# delay and timeout accept durations ("250ms") or bare milliseconds.
# Enable tracing by setting tracing.endpoint to an OTLP collector address.
`

type sampleConfig struct {
	URL       string            `yaml:"url"`
	Method    string            `yaml:"method"`
	Users     int               `yaml:"users"`
	Duration  string            `yaml:"duration"`
	RampUp    string            `yaml:"ramp_up"`
	Delay     string            `yaml:"delay"`
	Timeout   string            `yaml:"timeout"`
	Rate      int               `yaml:"rate"`
	Headers   map[string]string `yaml:"headers"`
	Output    string            `yaml:"output"`
	LogErrors bool              `yaml:"log_errors"`
}

// WriteSampleConfig writes an annotated starter configuration file to path.
// It refuses to overwrite an existing file.
func WriteSampleConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("refusing to overwrite existing file %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}

	sample := sampleConfig{
		URL:      "https://example.com/health",
		Method:   "GET",
		Users:    10,
		Duration: "60s",
		RampUp:   "10s",
		Delay:    "1000ms",
		Timeout:  "5000ms",
		Rate:     0,
		Headers: map[string]string{
			"Accept": "application/json",
		},
		Output:    "results.json",
		LogErrors: false,
	}

	data, err := yaml.Marshal(&sample)
	if err != nil {
		return fmt.Errorf("marshal sample config: %w", err)
	}

	content := append([]byte(sampleHeader), data...)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
