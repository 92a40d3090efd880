package config

import (
	"strconv"
	"strings"

	"github.com/TApplencourt/xpumanager/internal/sysman"
	"github.com/TApplencourt/xpumanager/internal/xpumerr"
)

const (
	schedulerUsMin = 5000
	schedulerUsMax = 100000000
)

func badArgument(format string, args ...any) error {
	return xpumerr.New(xpumerr.BadArgument, format, args...)
}

// parseInt parses s as a base-10 integer, matching the original parser's
// fallible-parse-then-pattern-match style instead of exceptions.
func parseInt(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	return v, err == nil
}

// ParseScheduler parses a scheduler spec: "timeout,<us>" |
// "timeslice,<us>,<us>" | "exclusive". Keywords are case-insensitive.
// Every microsecond value must fall in [5000, 100000000].
func ParseScheduler(spec string) (sysman.SchedulerSpec, error) {
	parts := strings.Split(spec, ",")
	command := strings.ToLower(strings.TrimSpace(parts[0]))

	switch command {
	case "timeout":
		if len(parts) != 2 || parts[1] == "" {
			return sysman.SchedulerSpec{}, badArgument("invalid parameter: timeout")
		}
		v1, ok := parseInt(parts[1])
		if !ok {
			return sysman.SchedulerSpec{}, badArgument("invalid parameter: timeout")
		}
		if v1 < schedulerUsMin || v1 > schedulerUsMax {
			return sysman.SchedulerSpec{}, badArgument("invalid parameter: timeout should be between 5000 and 100000000 microseconds")
		}
		return sysman.SchedulerSpec{Mode: "timeout", V1: int64(v1)}, nil

	case "timeslice":
		if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
			return sysman.SchedulerSpec{}, badArgument("invalid parameter: timeslice")
		}
		v1, ok1 := parseInt(parts[1])
		v2, ok2 := parseInt(parts[2])
		if !ok1 || !ok2 {
			return sysman.SchedulerSpec{}, badArgument("invalid parameter: timeslice")
		}
		if v1 < schedulerUsMin || v1 > schedulerUsMax || v2 < schedulerUsMin || v2 > schedulerUsMax {
			return sysman.SchedulerSpec{}, badArgument("invalid parameter: timeslice values should be between 5000 and 100000000 microseconds")
		}
		return sysman.SchedulerSpec{Mode: "timeslice", V1: int64(v1), V2: int64(v2)}, nil

	case "exclusive":
		if len(parts) != 1 {
			return sysman.SchedulerSpec{}, badArgument("invalid parameter: exclusive")
		}
		return sysman.SchedulerSpec{Mode: "exclusive"}, nil

	default:
		return sysman.SchedulerSpec{}, badArgument("invalid scheduler mode")
	}
}

// FormatScheduler renders a SchedulerSpec back to its canonical
// comma-delimited form.
func FormatScheduler(s sysman.SchedulerSpec) string {
	switch s.Mode {
	case "timeout":
		return "timeout," + strconv.FormatInt(s.V1, 10)
	case "timeslice":
		return "timeslice," + strconv.FormatInt(s.V1, 10) + "," + strconv.FormatInt(s.V2, 10)
	case "exclusive":
		return "exclusive"
	default:
		return ""
	}
}

// ParsePowerLimit parses "<watts>[,<interval>]"; watts must be > 0.
func ParsePowerLimit(s string) (watts int, interval int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) == 0 || parts[0] == "" {
		return 0, 0, badArgument("invalid parameter: please check help information")
	}
	v1, ok := parseInt(parts[0])
	if !ok {
		return 0, 0, badArgument("invalid parameter: powerlimit")
	}
	if len(parts) == 2 && parts[1] == "" {
		return 0, 0, badArgument("invalid parameter: please check help information")
	}
	if v1 <= 0 {
		return 0, 0, badArgument("invalid parameter: power limit should bigger than 0")
	}
	iv := 0
	if len(parts) == 2 {
		v2, ok := parseInt(parts[1])
		if !ok {
			return 0, 0, badArgument("invalid parameter: powerlimit")
		}
		iv = v2
	}
	return v1, iv, nil
}

// ParseFrequencyRange parses "<min>,<max>"; both must be > 0, min <= max.
func ParseFrequencyRange(s string) (min int, max int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return 0, 0, badArgument("invalid parameter: please check help information")
	}
	v1, ok1 := parseInt(parts[0])
	v2, ok2 := parseInt(parts[1])
	if !ok1 || !ok2 {
		return 0, 0, badArgument("invalid parameter: frequency range")
	}
	if v1 <= 0 || v2 <= 0 {
		return 0, 0, badArgument("invalid parameter: min/max frequency should bigger than 0")
	}
	if v1 > v2 {
		return 0, 0, badArgument("invalid parameter: min frequency should not be bigger than max frequency")
	}
	return v1, v2, nil
}

// ParseStandby validates the standby keyword, case-insensitively.
func ParseStandby(s string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(s))
	switch mode {
	case "never", "default":
		return mode, nil
	default:
		return "", badArgument("invalid parameter: standby mode")
	}
}

// ParsePerformanceFactor parses "<engine>,<value>"; engine is
// compute|media, value in [0.0, 100.0].
func ParsePerformanceFactor(s string) (engine string, value float64, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 || parts[1] == "" {
		return "", 0, badArgument("invalid parameter: please check help information")
	}
	engine = strings.ToLower(strings.TrimSpace(parts[0]))
	if engine != "compute" && engine != "media" {
		return "", 0, badArgument("invalid engine")
	}
	v, perr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if perr != nil {
		return "", 0, badArgument("invalid factor")
	}
	if v < 0.0 || v > 100.0 {
		return "", 0, badArgument("invalid factor")
	}
	return engine, v, nil
}

// ParseFabricPort parses "<port>,<enabled>"; enabled is 0|1, port >= 0.
func ParseFabricPort(s string) (port int, enabled int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 || parts[1] == "" {
		return 0, 0, badArgument("invalid parameter: please check help information")
	}
	p, ok1 := parseInt(parts[0])
	e, ok2 := parseInt(parts[1])
	if !ok1 || !ok2 {
		return 0, 0, badArgument("invalid parameter: xeLink port")
	}
	if (e != 0 && e != 1) || p < 0 {
		return 0, 0, badArgument("invalid parameter enabled")
	}
	return p, e, nil
}

// ParseFabricBeaconing parses "<port>,<on>"; on is 0|1.
func ParseFabricBeaconing(s string) (port int, beaconing int, err error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 || parts[1] == "" {
		return 0, 0, badArgument("invalid parameter: please check help information")
	}
	p, ok1 := parseInt(parts[0])
	b, ok2 := parseInt(parts[1])
	if !ok1 || !ok2 {
		return 0, 0, badArgument("invalid parameter: xeLink beaconing")
	}
	if b != 0 && b != 1 {
		return 0, 0, badArgument("invalid parameter value: beaconing")
	}
	return p, b, nil
}

// ParseMemoryEcc parses "0"|"1".
func ParseMemoryEcc(s string) (enable int, err error) {
	v, ok := parseInt(s)
	if !ok {
		return 0, badArgument("invalid parameter value")
	}
	if v != 0 && v != 1 {
		return 0, badArgument("invalid parameter value")
	}
	return v, nil
}
