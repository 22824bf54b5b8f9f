// Package config provides configuration loading and parsing for stampede.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// lookupSetting searches settings under each candidate key, falling back to
// the lowercase form viper normalizes file keys to.
func lookupSetting(settings map[string]interface{}, candidates ...string) (interface{}, bool) {
	for _, key := range candidates {
		if val, ok := settings[key]; ok {
			return val, true
		}
		if val, ok := settings[strings.ToLower(key)]; ok {
			return val, true
		}
	}
	return nil, false
}

// settingsReader walks a settings map, coercing and applying values until
// the first error. Errors are labeled with the leading candidate key.
type settingsReader struct {
	settings map[string]interface{}
	err      error
}

func readSettings(settings map[string]interface{}) *settingsReader {
	return &settingsReader{settings: settings}
}

func (r *settingsReader) apply(keys []string, coerce func(interface{}) error) {
	if r.err != nil {
		return
	}
	raw, ok := lookupSetting(r.settings, keys...)
	if !ok {
		return
	}
	if err := coerce(raw); err != nil {
		r.err = fmt.Errorf("%s: %w", keys[0], err)
	}
}

func (r *settingsReader) stringKey(set func(string), keys ...string) {
	r.apply(keys, func(raw interface{}) error {
		val, err := asString(raw)
		if err == nil {
			set(val)
		}
		return err
	})
}

func (r *settingsReader) intKey(set func(int), keys ...string) {
	r.apply(keys, func(raw interface{}) error {
		val, err := asInt(raw)
		if err == nil {
			set(val)
		}
		return err
	})
}

func (r *settingsReader) float64Key(set func(float64), keys ...string) {
	r.apply(keys, func(raw interface{}) error {
		val, err := asFloat64(raw)
		if err == nil {
			set(val)
		}
		return err
	})
}

func (r *settingsReader) boolKey(set func(bool), keys ...string) {
	r.apply(keys, func(raw interface{}) error {
		val, err := asBool(raw)
		if err == nil {
			set(val)
		}
		return err
	})
}

func (r *settingsReader) durationKey(unit time.Duration, set func(time.Duration), keys ...string) {
	r.apply(keys, func(raw interface{}) error {
		val, err := asDuration(raw, unit)
		if err == nil {
			set(val)
		}
		return err
	})
}

// Scalar settings are coerced with cast, the same rules viper applies in its
// typed getters, so a value reads identically whether the file was YAML or
// JSON. Durations need extra handling because bare numbers carry flag units.

func asString(value interface{}) (string, error) { return cast.ToStringE(value) }

func asInt(value interface{}) (int, error) { return cast.ToIntE(value) }

func asFloat64(value interface{}) (float64, error) { return cast.ToFloat64E(value) }

func asBool(value interface{}) (bool, error) { return cast.ToBoolE(value) }

// asDurationSeconds reads a duration setting where bare numbers mean seconds,
// matching the --duration and --ramp-up flags.
func asDurationSeconds(value interface{}) (time.Duration, error) {
	return asDuration(value, time.Second)
}

// asDurationMillis reads a duration setting where bare numbers mean
// milliseconds, matching the --delay and --timeout flags.
func asDurationMillis(value interface{}) (time.Duration, error) {
	return asDuration(value, time.Millisecond)
}

func asDuration(value interface{}, unit time.Duration) (time.Duration, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		return time.ParseDuration(s)
	}
	n, err := cast.ToIntE(value)
	if err != nil {
		return 0, fmt.Errorf("unsupported duration value %v (%T)", value, value)
	}
	return time.Duration(n) * unit, nil
}

// asStringMap flattens a headers table into string pairs. YAML hands nested
// maps over with interface{} keys; cast normalizes both key flavors.
func asStringMap(value interface{}) (map[string]string, error) {
	if value == nil {
		return nil, nil
	}
	headers, err := cast.ToStringMapStringE(value)
	if err != nil {
		return nil, err
	}
	for key := range headers {
		if strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("header key cannot be empty")
		}
	}
	return headers, nil
}

// toStringKeyMap normalizes a nested config section to lowercase string keys.
func toStringKeyMap(value interface{}) (map[string]interface{}, error) {
	section, err := cast.ToStringMapE(value)
	if err != nil {
		return nil, fmt.Errorf("expected map, got %T", value)
	}
	normalized := make(map[string]interface{}, len(section))
	for key, val := range section {
		normalized[strings.ToLower(strings.TrimSpace(key))] = val
	}
	return normalized, nil
}
