// Package practice is the interactive console for a playback session: it
// parses short commands and applies them to the session and its player.
package practice

import (
	"fmt"
	"io"
	"strings"

	"github.com/partkeeper/partkeeper/internal/playback"
)

type pauser interface {
	Play() error
	Pause() error
	Paused() bool
}

type Console struct {
	session *playback.Session
	player  playback.Player
	out     io.Writer
}

func NewConsole(session *playback.Session, player playback.Player, out io.Writer) *Console {
	return &Console{session: session, player: player, out: out}
}

// Execute parses and runs one line. It reports true when the user asked to
// quit.
func (c *Console) Execute(line string) (bool, error) {
	cmd, err := Parse(line)
	if err != nil {
		return false, err
	}
	return c.Run(cmd)
}

func (c *Console) Run(cmd Command) (bool, error) {
	switch cmd.Op {
	case OpQuit:
		return true, nil
	case OpHelp:
		c.PrintHelp()
	case OpStatus:
		c.PrintStatus()
	case OpTranspose, OpFineTune, OpSpeed:
		c.adjust(cmd)
		c.printSettings()
	case OpReset:
		c.session.Reset()
		c.printSettings()
	case OpMarkStart, OpMarkEnd:
		c.mark(cmd)
	case OpToggleLoop:
		if _, ok := c.session.ToggleLoop(); !ok {
			fmt.Fprintln(c.out, "set both loop markers first")
			return false, nil
		}
		c.printLoop()
	case OpClearLoop:
		c.session.ClearLoop()
		c.printLoop()
	case OpPause:
		return false, c.togglePause()
	case OpSeek:
		if err := c.player.SeekTo(cmd.Value); err != nil {
			return false, fmt.Errorf("jump: %w", err)
		}
		fmt.Fprintf(c.out, "at %s\n", FormatSeconds(cmd.Value))
	}
	return false, nil
}

func (c *Console) adjust(cmd Command) {
	current := c.session.Settings()
	pick := func(value, step int) int {
		if cmd.Step != 0 {
			return value + cmd.Step*step
		}
		return int(cmd.Value)
	}
	switch cmd.Op {
	case OpTranspose:
		c.session.SetTranspose(pick(current.TransposeSemitones, TransposeStep))
	case OpFineTune:
		c.session.SetFineTune(pick(current.FineTuneCents, FineTuneStep))
	case OpSpeed:
		c.session.SetSpeed(pick(current.SpeedPercent, SpeedStep))
	}
}

func (c *Console) mark(cmd Command) {
	if cmd.HasValue {
		if cmd.Op == OpMarkStart {
			c.session.SetLoopStart(cmd.Value)
		} else {
			c.session.SetLoopEnd(cmd.Value)
		}
		c.printLoop()
		return
	}

	var ok bool
	if cmd.Op == OpMarkStart {
		_, ok = c.session.MarkStart()
	} else {
		_, ok = c.session.MarkEnd()
	}
	if !ok {
		fmt.Fprintln(c.out, "player is not ready")
		return
	}
	c.printLoop()
}

func (c *Console) togglePause() error {
	p, ok := c.player.(pauser)
	if !ok {
		fmt.Fprintln(c.out, "this player cannot pause")
		return nil
	}
	if p.Paused() {
		if err := p.Play(); err != nil {
			return fmt.Errorf("play: %w", err)
		}
		fmt.Fprintln(c.out, "playing")
		return nil
	}
	if err := p.Pause(); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	fmt.Fprintln(c.out, "paused")
	return nil
}

func (c *Console) PrintStatus() {
	c.printSettings()
	c.printLoop()
	if pos, err := c.player.CurrentTime(); err == nil {
		fmt.Fprintf(c.out, "at %s\n", FormatSeconds(pos))
	}
}

func (c *Console) printSettings() {
	s := c.session.Settings()
	fmt.Fprintf(c.out, "transpose %+d st, fine %+d ct, speed %d%%, A4 %.1f Hz, rate %.3fx\n",
		s.TransposeSemitones, s.FineTuneCents, s.SpeedPercent, s.PitchHz(), c.session.AppliedRate())
}

func (c *Console) printLoop() {
	fmt.Fprintf(c.out, "loop %s\n", DescribeLoop(c.session.Loop()))
}

// DescribeLoop renders a loop region and its state, e.g.
// "0:10.0 to 0:20.0 (active)".
func DescribeLoop(l playback.LoopRegion) string {
	state := l.State()
	switch {
	case l.Start != nil && l.End != nil:
		return fmt.Sprintf("%s to %s (%s)", FormatSeconds(*l.Start), FormatSeconds(*l.End), state)
	case l.Start != nil:
		return fmt.Sprintf("from %s (%s)", FormatSeconds(*l.Start), state)
	case l.End != nil:
		return fmt.Sprintf("until %s (%s)", FormatSeconds(*l.End), state)
	default:
		return state.String()
	}
}

func (c *Console) PrintHelp() {
	lines := []string{
		"t +|-|N    transpose by a semitone, or set semitones (-12..12)",
		"f +|-|N    fine-tune by 5 cents, or set cents (-100..100)",
		"s +|-|N    speed by 5%, or set percent (25..400)",
		"r          reset transpose, fine-tune and speed",
		"a [time]   set loop start (default: now)",
		"b [time]   set loop end (default: now)",
		"l          toggle the loop",
		"c          clear the loop",
		"p          pause or resume",
		"j time     jump to a time (seconds or m:ss)",
		"st         show status (or press enter)",
		"q          quit",
	}
	fmt.Fprintln(c.out, strings.Join(lines, "\n"))
}
