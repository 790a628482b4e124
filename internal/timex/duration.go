// Package timex provides time helpers shared by configuration and the
// rotation engine.
package timex

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// Duration wraps time.Duration so it can be read from JSON either as a string
// understood by time.ParseDuration ("60s", "1h30m") or as integer nanoseconds.
type Duration struct {
	time.Duration
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
		return nil
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
		return nil
	default:
		return errors.New("invalid duration")
	}
}

// Clock returns the current time. Production code uses time.Now; tests
// substitute a controllable clock.
type Clock func() time.Time

// AddWholeDays converts a minute-denominated lifetime into whole days,
// truncating any remainder, and adds them as calendar days to now. Lifetimes
// shorter than one day fall back to exact duration arithmetic.
func AddWholeDays(now time.Time, lifetimeMinutes int) time.Time {
	days := lifetimeMinutes / common.MinutesPerDay
	if days == 0 {
		return now.Add(time.Duration(lifetimeMinutes) * time.Minute)
	}
	return now.AddDate(0, 0, days)
}
