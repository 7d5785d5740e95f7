package chain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robotalks/flapchain/pkg/link"
)

// ClockMode selects whether and how a Schedule shows the time.
type ClockMode int

// Clock modes.
const (
	ClockOff ClockMode = iota
	Clock24
	Clock12
)

// ParseClockMode parses "off", "24h" or "12h". Empty is off.
func ParseClockMode(s string) (ClockMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off":
		return ClockOff, nil
	case "24", "24h":
		return Clock24, nil
	case "12", "12h":
		return Clock12, nil
	}
	return ClockOff, fmt.Errorf("invalid clock mode %q", s)
}

func (m ClockMode) String() string {
	switch m {
	case Clock24:
		return "24h"
	case Clock12:
		return "12h"
	}
	return "off"
}

// FormatClock renders t as HH:MM. A leading zero of the hour is blank.
func FormatClock(t time.Time, mode ClockMode) string {
	h := t.Hour()
	if mode == Clock12 {
		switch {
		case h == 0:
			h = 12
		case h > 12:
			h -= 12
		}
	}
	tens := byte(' ')
	if h >= 10 {
		tens = byte('0' + h/10)
	}
	return fmt.Sprintf("%c%d:%02d", tens, h%10, t.Minute())
}

// DefaultResetEvery is the period of reset-all when the schedule runs.
const DefaultResetEvery = 10 * time.Minute

// ScheduleConfig configures the local message source of a head board.
type ScheduleConfig struct {
	// Messages are shown in turn.
	Messages []string
	// ChangeEvery is the time each message stays, 0 keeps the first one.
	ChangeEvery time.Duration
	// ResetEvery is the period of reset-all, 0 never resets.
	ResetEvery time.Duration
	// Clock shows the time instead of Messages unless off.
	Clock ClockMode
}

// Active tells if the schedule has anything to show.
func (c ScheduleConfig) Active() bool {
	return c.Clock != ClockOff || len(c.Messages) > 0
}

// Tick is what a Schedule asks for at one instant.
type Tick struct {
	Message string
	// Show is set when Message differs from the last one shown or after a
	// reset.
	Show bool
	// Reset asks to home all modules before showing.
	Reset bool
}

// Schedule decides what a board shows on its own: the clock or a
// rotating list of messages, with a periodic reset-all.
type Schedule struct {
	cfg ScheduleConfig

	current    int
	shown      string
	started    bool
	lastSwitch time.Time
	lastReset  time.Time
}

// NewSchedule creates a Schedule.
func NewSchedule(cfg ScheduleConfig) *Schedule {
	return &Schedule{cfg: cfg}
}

// Config returns the configuration.
func (s *Schedule) Config() ScheduleConfig {
	return s.cfg
}

// Configure replaces the configuration. The next Tick shows the new
// message.
func (s *Schedule) Configure(cfg ScheduleConfig) {
	s.cfg = cfg
	s.current = 0
	s.shown = ""
}

// Tick advances the schedule to now.
func (s *Schedule) Tick(now time.Time) Tick {
	if !s.started {
		s.started = true
		s.lastSwitch, s.lastReset = now, now
	}
	if !s.cfg.Active() {
		return Tick{}
	}
	var t Tick
	if s.cfg.ResetEvery > 0 && now.Sub(s.lastReset) > s.cfg.ResetEvery {
		s.lastReset = now
		t.Reset = true
	}
	if s.cfg.Clock != ClockOff {
		s.lastSwitch = now
		t.Message = FormatClock(now, s.cfg.Clock)
	} else {
		if s.cfg.ChangeEvery <= 0 {
			s.lastSwitch = now
		} else if now.Sub(s.lastSwitch) > s.cfg.ChangeEvery {
			s.lastSwitch = now
			s.current++
		}
		s.current %= len(s.cfg.Messages)
		t.Message = s.cfg.Messages[s.current]
	}
	t.Show = t.Reset || t.Message != s.shown
	s.shown = t.Message
	return t
}

// Display is where Play sends a Schedule's ticks.
type Display interface {
	Show(msg string) error
	Reset() error
}

// Play ticks s every period and drives d until ctx is done.
func Play(ctx context.Context, s *Schedule, d Display, clock link.Clock, period time.Duration) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		t := s.Tick(clock.Now())
		if t.Reset {
			if err := d.Reset(); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
		}
		if t.Show {
			if err := d.Show(t.Message); err != nil {
				return fmt.Errorf("show %q: %w", t.Message, err)
			}
		}
		clock.Sleep(period)
	}
}
