package attendance

import (
	"fmt"
	"strings"
	"time"

	"github.com/frahmantamala/hr-portal/internal"
)

// LateMode selects how the late cutoff is evaluated.
type LateMode string

const (
	// LateModeClockMinute compares hour and minute separately:
	// hour >= start hour && minute > grace minutes. This is the rule the
	// dashboard has always applied; it only behaves as a real cutoff during
	// the shift start hour.
	LateModeClockMinute LateMode = "clock_minute"
	// LateModeSinceShiftStart marks late when the time elapsed since the
	// shift start exceeds the grace period.
	LateModeSinceShiftStart LateMode = "since_shift_start"
)

// Policy decides the calendar date and on-time status of a check-in.
type Policy struct {
	ShiftStartHour   int
	ShiftStartMinute int
	Grace            time.Duration
	Mode             LateMode
	Location         *time.Location
}

func DefaultPolicy() Policy {
	return Policy{
		ShiftStartHour:   9,
		ShiftStartMinute: 0,
		Grace:            15 * time.Minute,
		Mode:             LateModeClockMinute,
		Location:         time.Local,
	}
}

// PolicyFromConfig builds a policy, filling unset fields from DefaultPolicy.
func PolicyFromConfig(cfg internal.AttendanceConfig) (Policy, error) {
	p := DefaultPolicy()

	if tz := strings.TrimSpace(cfg.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Policy{}, fmt.Errorf("invalid attendance timezone %q: %w", tz, err)
		}
		p.Location = loc
	}

	if cfg.ShiftStart != "" {
		start, err := time.Parse("15:04", cfg.ShiftStart)
		if err != nil {
			return Policy{}, fmt.Errorf("invalid shift_start %q: %w", cfg.ShiftStart, err)
		}
		p.ShiftStartHour = start.Hour()
		p.ShiftStartMinute = start.Minute()
	}

	if cfg.GracePeriod > 0 {
		p.Grace = cfg.GracePeriod
	}

	switch LateMode(cfg.LatePolicy) {
	case "":
	case LateModeClockMinute, LateModeSinceShiftStart:
		p.Mode = LateMode(cfg.LatePolicy)
	default:
		return Policy{}, fmt.Errorf("unknown late_policy %q", cfg.LatePolicy)
	}

	if p.Mode == LateModeClockMinute {
		if p.Grace >= time.Hour {
			return Policy{}, fmt.Errorf("grace_period %s must be under one hour for the %s rule", p.Grace, LateModeClockMinute)
		}
		if p.Grace%time.Minute != 0 {
			return Policy{}, fmt.Errorf("grace_period %s must be whole minutes for the %s rule", p.Grace, LateModeClockMinute)
		}
	}

	return p, nil
}

func (p Policy) location() *time.Location {
	if p.Location == nil {
		return time.Local
	}
	return p.Location
}

// Date returns the calendar date of t in the policy location.
func (p Policy) Date(t time.Time) string {
	return t.In(p.location()).Format(DateLayout)
}

// StatusAt returns the status a check-in at t receives.
func (p Policy) StatusAt(t time.Time) string {
	local := t.In(p.location())

	switch p.Mode {
	case LateModeSinceShiftStart:
		start := time.Date(local.Year(), local.Month(), local.Day(), p.ShiftStartHour, p.ShiftStartMinute, 0, 0, p.location())
		if local.Sub(start) > p.Grace {
			return StatusLate
		}
		return StatusPresent
	default:
		graceMinutes := int(p.Grace / time.Minute)
		if local.Hour() >= p.ShiftStartHour && local.Minute() > graceMinutes {
			return StatusLate
		}
		return StatusPresent
	}
}
