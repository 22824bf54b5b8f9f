package config

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseHeadersJSON parses the --headers flag value, a JSON object mapping
// header names to values. Keys are canonicalized; scalar values are accepted
// and rendered as strings, nested objects and arrays are rejected.
func ParseHeadersJSON(raw string) (map[string]string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return map[string]string{}, nil
	}

	if !gjson.Valid(trimmed) {
		return nil, fmt.Errorf("headers must be valid JSON: %q", raw)
	}

	parsed := gjson.Parse(trimmed)
	if !parsed.IsObject() {
		return nil, fmt.Errorf("headers must be a JSON object, got %s", parsed.Type)
	}

	headers := map[string]string{}
	var parseErr error
	parsed.ForEach(func(key, value gjson.Result) bool {
		name := strings.TrimSpace(key.String())
		if name == "" {
			parseErr = fmt.Errorf("headers: key cannot be empty")
			return false
		}
		if value.IsObject() || value.IsArray() {
			parseErr = fmt.Errorf("headers: value for %q must be a scalar", name)
			return false
		}
		headers[http.CanonicalHeaderKey(name)] = value.String()
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}

	return headers, nil
}
