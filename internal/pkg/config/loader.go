// Package config provides environment loading primitives with validation and
// fallback-to-default semantics shared by every component's configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ConfigLoadResult represents the result of loading a configuration value.
//
// Fields:
//   - Value: The loaded configuration value (may be fallback if validation failed)
//   - Warnings: List of warning messages (one per fallback applied)
//   - FallbackApplied: True if the default value was used due to validation failure
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

func fallback(envKey, raw string, reason interface{}, defaultValue interface{}) ConfigLoadResult {
	return ConfigLoadResult{
		Value:           defaultValue,
		Warnings:        []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%v'", envKey, raw, reason, defaultValue)},
		FallbackApplied: true,
	}
}

// LoadEnvString loads a string value from an environment variable.
// Unset or empty variables yield defaultValue. No validation is performed.
func LoadEnvString(envKey, defaultValue string) string {
	value := os.Getenv(envKey)
	if value == "" {
		return defaultValue
	}
	return value
}

// LoadEnvWithFallback loads a string value and validates it. An invalid value
// is replaced by defaultValue and reported as a warning; it never fails.
//
// Example:
//
//	result := LoadEnvWithFallback("CRON_SCHEDULE", "0 * * * *", ValidateCronSchedule)
//	schedule := result.Value.(string)
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	value := os.Getenv(envKey)
	if value == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	if validator != nil {
		if err := validator(value); err != nil {
			return fallback(envKey, value, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: value}
}

// LoadEnvDuration loads a time.ParseDuration value ("30s", "5m", "1h30m")
// with the same fallback semantics as LoadEnvWithFallback.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fallback(envKey, raw, err, defaultValue)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(envKey, raw, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: parsed}
}

// LoadEnvInt loads a base-10 integer with the same fallback semantics as
// LoadEnvWithFallback.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return fallback(envKey, raw, "invalid integer format", defaultValue)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(envKey, raw, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: parsed}
}

// LoadEnvFloat loads a float64 with the same fallback semantics as
// LoadEnvWithFallback.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	parsed, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return fallback(envKey, raw, "invalid number format", defaultValue)
	}
	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(envKey, raw, err, defaultValue)
		}
	}
	return ConfigLoadResult{Value: parsed}
}

// LoadEnvBool loads a boolean ("1", "t", "true", "0", "f", "false", any case).
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}
	switch strings.ToLower(raw) {
	case "1", "t", "true":
		return ConfigLoadResult{Value: true}
	case "0", "f", "false":
		return ConfigLoadResult{Value: false}
	}
	return fallback(envKey, raw, "invalid boolean format, expected 'true' or 'false'", defaultValue)
}

// Loader reads several values, collecting warnings and recording every
// fallback on the component's ConfigMetrics.
//
// Example:
//
//	l := config.NewLoader(metrics)
//	limit := l.Int("DIGEST_CHUNK_TOKEN_LIMIT", 768, config.ValidatePositiveInt)
//	for _, w := range l.Warnings() {
//	    slog.Warn("configuration fallback", slog.String("warning", w))
//	}
type Loader struct {
	metrics  *ConfigMetrics
	warnings []string
}

// NewLoader returns a Loader. metrics may be nil.
func NewLoader(metrics *ConfigMetrics) *Loader {
	return &Loader{metrics: metrics}
}

func (l *Loader) note(envKey string, r ConfigLoadResult) {
	if !r.FallbackApplied {
		return
	}
	l.warnings = append(l.warnings, r.Warnings...)
	if l.metrics != nil {
		field := strings.ToLower(envKey)
		l.metrics.RecordValidationError(field)
		l.metrics.RecordFallback(field, "default")
	}
}

// String loads a validated string.
func (l *Loader) String(envKey, defaultValue string, validator func(string) error) string {
	r := LoadEnvWithFallback(envKey, defaultValue, validator)
	l.note(envKey, r)
	return r.Value.(string)
}

// Int loads a validated integer.
func (l *Loader) Int(envKey string, defaultValue int, validator func(int) error) int {
	r := LoadEnvInt(envKey, defaultValue, validator)
	l.note(envKey, r)
	return r.Value.(int)
}

// Float loads a validated float64.
func (l *Loader) Float(envKey string, defaultValue float64, validator func(float64) error) float64 {
	r := LoadEnvFloat(envKey, defaultValue, validator)
	l.note(envKey, r)
	return r.Value.(float64)
}

// Duration loads a validated duration.
func (l *Loader) Duration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) time.Duration {
	r := LoadEnvDuration(envKey, defaultValue, validator)
	l.note(envKey, r)
	return r.Value.(time.Duration)
}

// Bool loads a boolean.
func (l *Loader) Bool(envKey string, defaultValue bool) bool {
	r := LoadEnvBool(envKey, defaultValue)
	l.note(envKey, r)
	return r.Value.(bool)
}

// Warnings returns the fallback warnings collected so far.
func (l *Loader) Warnings() []string {
	return append([]string(nil), l.warnings...)
}

// FallbackApplied reports whether any value fell back to its default.
func (l *Loader) FallbackApplied() bool {
	return len(l.warnings) > 0
}

// Finish stamps the load time and publishes the fallback status.
func (l *Loader) Finish() {
	if l.metrics == nil {
		return
	}
	l.metrics.RecordLoadTimestamp()
	l.metrics.SetFallbackActive(l.FallbackApplied())
}
