package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// ValidateCronSchedule validates a five-field cron expression using the
// robfig/cron/v3 parser ("minute hour day month weekday").
//
// Example:
//
//	err := ValidateCronSchedule("*/15 * * * *")
func ValidateCronSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("invalid cron schedule: cannot be empty")
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// ValidateTimezone checks that an IANA timezone name can be loaded.
func ValidateTimezone(timezone string) error {
	if timezone == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
	}
	return nil
}

// ValidateDuration checks that duration lies in [min, max].
func ValidateDuration(duration, min, max time.Duration) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}
	if duration < min {
		return fmt.Errorf("duration %v is below minimum %v", duration, min)
	}
	if duration > max {
		return fmt.Errorf("duration %v exceeds maximum %v", duration, max)
	}
	return nil
}

// ValidatePositiveDuration rejects zero and negative durations.
func ValidatePositiveDuration(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", duration)
	}
	return nil
}

// ValidateIntRange checks that value lies in [min, max].
func ValidateIntRange(value, min, max int) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%d) cannot be greater than max (%d)", min, max)
	}
	if value < min {
		return fmt.Errorf("value %d is below minimum %d", value, min)
	}
	if value > max {
		return fmt.Errorf("value %d exceeds maximum %d", value, max)
	}
	return nil
}

// ValidatePositiveInt rejects zero and negative integers.
func ValidatePositiveInt(value int) error {
	if value <= 0 {
		return fmt.Errorf("value must be positive, got %d", value)
	}
	return nil
}

// ValidateNonNegativeInt rejects negative integers.
func ValidateNonNegativeInt(value int) error {
	if value < 0 {
		return fmt.Errorf("value must not be negative, got %d", value)
	}
	return nil
}

// ValidateOneOf returns a validator accepting only the given values,
// compared case-insensitively.
func ValidateOneOf(allowed ...string) func(string) error {
	return func(value string) error {
		for _, a := range allowed {
			if strings.EqualFold(value, a) {
				return nil
			}
		}
		return fmt.Errorf("must be one of [%s]", strings.Join(allowed, ", "))
	}
}
