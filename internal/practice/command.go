package practice

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	TransposeStep = 1
	FineTuneStep  = 5
	SpeedStep     = 5
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArgument    = errors.New("bad argument")
)

type Op int

const (
	OpHelp Op = iota
	OpStatus
	OpTranspose
	OpFineTune
	OpSpeed
	OpReset
	OpMarkStart
	OpMarkEnd
	OpToggleLoop
	OpClearLoop
	OpPause
	OpSeek
	OpQuit
)

// Command is one parsed console line. For the three settings, Step is -1 or
// +1 for a relative change and 0 when Value is absolute. For marks and seeks,
// HasValue is false when the current position should be used.
type Command struct {
	Op       Op
	Step     int
	Value    float64
	HasValue bool
}

var opNames = map[string]Op{
	"h": OpHelp, "help": OpHelp, "?": OpHelp,
	"st": OpStatus, "status": OpStatus,
	"t": OpTranspose, "transpose": OpTranspose,
	"f": OpFineTune, "fine": OpFineTune,
	"s": OpSpeed, "speed": OpSpeed,
	"r": OpReset, "reset": OpReset,
	"a": OpMarkStart, "start": OpMarkStart,
	"b": OpMarkEnd, "end": OpMarkEnd,
	"l": OpToggleLoop, "loop": OpToggleLoop,
	"c": OpClearLoop, "clear": OpClearLoop,
	"p": OpPause, "pause": OpPause,
	"j": OpSeek, "jump": OpSeek,
	"q": OpQuit, "quit": OpQuit, "exit": OpQuit,
}

// CommandNames lists the long command names, for completion.
func CommandNames() []string {
	return []string{"help", "status", "transpose", "fine", "speed", "reset",
		"start", "end", "loop", "clear", "pause", "jump", "quit"}
}

// Parse reads a console line such as "t +", "t -3", "s 80", "a" or "a 12.5".
// Blank lines parse as a status request.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{Op: OpStatus}, nil
	}
	name := strings.ToLower(fields[0])
	args := fields[1:]

	// "t+" and "t-" are shorthand for "t +" and "t -".
	if len(args) == 0 && len(name) > 1 && (strings.HasSuffix(name, "+") || strings.HasSuffix(name, "-")) {
		args = []string{name[len(name)-1:]}
		name = name[:len(name)-1]
	}

	op, ok := opNames[name]
	if !ok {
		return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
	}
	if len(args) > 1 {
		return Command{}, fmt.Errorf("%w: %s takes at most one argument", ErrBadArgument, name)
	}

	cmd := Command{Op: op}
	switch op {
	case OpTranspose, OpFineTune, OpSpeed:
		if len(args) == 0 {
			return Command{}, fmt.Errorf("%w: %s needs +, - or a number", ErrBadArgument, name)
		}
		switch args[0] {
		case "+":
			cmd.Step = 1
		case "-":
			cmd.Step = -1
		default:
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return Command{}, fmt.Errorf("%w: %q is not a whole number", ErrBadArgument, args[0])
			}
			cmd.Value, cmd.HasValue = float64(v), true
		}
	case OpMarkStart, OpMarkEnd, OpSeek:
		if len(args) == 0 {
			if op == OpSeek {
				return Command{}, fmt.Errorf("%w: jump needs a time", ErrBadArgument)
			}
			break
		}
		v, err := ParseSeconds(args[0])
		if err != nil {
			return Command{}, err
		}
		cmd.Value, cmd.HasValue = v, true
	default:
		if len(args) > 0 {
			return Command{}, fmt.Errorf("%w: %s takes no argument", ErrBadArgument, name)
		}
	}
	return cmd, nil
}

// ParseSeconds accepts plain seconds ("75.5") or minutes and seconds ("1:15.5").
func ParseSeconds(s string) (float64, error) {
	minutes, rest := 0, s
	if m, after, found := strings.Cut(s, ":"); found {
		v, err := strconv.Atoi(m)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("%w: %q is not a time", ErrBadArgument, s)
		}
		minutes, rest = v, after
	}
	secs, err := strconv.ParseFloat(rest, 64)
	if err != nil || secs < 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0, fmt.Errorf("%w: %q is not a time", ErrBadArgument, s)
	}
	return float64(minutes)*60 + secs, nil
}

// FormatSeconds renders seconds as m:ss.s.
func FormatSeconds(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	minutes := int(seconds) / 60
	return fmt.Sprintf("%d:%04.1f", minutes, seconds-float64(minutes*60))
}
