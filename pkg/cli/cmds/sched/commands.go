// Package sched plays a message schedule from the shell: rotating messages
// or the clock, with a periodic reset-all.
package sched

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/flapchain/pkg/chain"
	"github.com/robotalks/flapchain/pkg/cli/sh"
	"github.com/robotalks/flapchain/pkg/link"
)

// TickPeriod is how often a playing schedule is checked.
const TickPeriod = time.Second

// Info is the printable form of a schedule.
type Info struct {
	Messages    []string `json:"messages"`
	ChangeEvery string   `json:"change_every"`
	ResetEvery  string   `json:"reset_every"`
	Clock       string   `json:"clock"`
}

// InfoOf describes cfg.
func InfoOf(cfg chain.ScheduleConfig) Info {
	return Info{
		Messages:    cfg.Messages,
		ChangeEvery: cfg.ChangeEvery.String(),
		ResetEvery:  cfg.ResetEvery.String(),
		Clock:       cfg.Clock.String(),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("messages %q every %s, clock %s, reset every %s",
		i.Messages, i.ChangeEvery, i.Clock, i.ResetEvery)
}

func update(c *ishell.Context, fn func(cfg *chain.ScheduleConfig) error) {
	s := sh.ShellFrom(c).Schedule
	cfg := s.Config()
	if err := fn(&cfg); err != nil {
		c.Err(err)
		return
	}
	s.Configure(cfg)
	sh.Print(c, InfoOf(cfg))
}

var (
	// MessagesCmd sets the messages shown in turn.
	MessagesCmd = ishell.Cmd{
		Name:    "sched.messages",
		Aliases: []string{"sm"},
		Help:    "MESSAGE...",
		Func: func(c *ishell.Context) {
			update(c, func(cfg *chain.ScheduleConfig) error {
				cfg.Messages = append([]string(nil), c.Args...)
				return nil
			})
		},
	}

	// ClockCmd switches the clock.
	ClockCmd = ishell.Cmd{
		Name: "sched.clock",
		Help: "off|12h|24h",
		Func: func(c *ishell.Context) {
			update(c, func(cfg *chain.ScheduleConfig) error {
				if len(c.Args) < 1 {
					return fmt.Errorf("mode required")
				}
				mode, err := chain.ParseClockMode(c.Args[0])
				cfg.Clock = mode
				return err
			})
		},
	}

	// EveryCmd sets the change and reset periods.
	EveryCmd = ishell.Cmd{
		Name: "sched.every",
		Help: "CHANGE [RESET] (e.g. 30s 10m, 0 disables)",
		Func: func(c *ishell.Context) {
			update(c, func(cfg *chain.ScheduleConfig) error {
				if len(c.Args) < 1 {
					return fmt.Errorf("CHANGE required")
				}
				periods := make([]time.Duration, len(c.Args))
				for n, arg := range c.Args {
					d, err := time.ParseDuration(arg)
					if err != nil || d < 0 {
						return fmt.Errorf("Invalid period: %q", arg)
					}
					periods[n] = d
				}
				cfg.ChangeEvery = periods[0]
				if len(periods) > 1 {
					cfg.ResetEvery = periods[1]
				}
				return nil
			})
		},
	}

	// ShowCmd prints the schedule.
	ShowCmd = ishell.Cmd{
		Name: "sched.show",
		Help: "",
		Func: func(c *ishell.Context) {
			sh.Print(c, InfoOf(sh.ShellFrom(c).Schedule.Config()))
		},
	}

	// PlayCmd plays the schedule on the chain, or on the bench port when
	// not connected.
	PlayCmd = ishell.Cmd{
		Name:    "sched.play",
		Aliases: []string{"sp"},
		Help:    "DURATION",
		Func: func(c *ishell.Context) {
			s := sh.ShellFrom(c)
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("DURATION required"))
				return
			}
			d, err := time.ParseDuration(c.Args[0])
			if err != nil || d <= 0 {
				c.Err(fmt.Errorf("Invalid DURATION: %q", c.Args[0]))
				return
			}
			if !s.Schedule.Config().Active() {
				c.Err(fmt.Errorf("no messages and clock off"))
				return
			}
			display, err := s.Display()
			if err != nil {
				c.Err(err)
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), d)
			defer cancel()
			err = chain.Play(ctx, s.Schedule, display, link.RealClock, TickPeriod)
			if err != nil && !errors.Is(err, context.DeadlineExceeded) {
				c.Err(err)
			}
		},
	}
)

func init() {
	sh.AddCmds(
		&MessagesCmd,
		&ClockCmd,
		&EveryCmd,
		&ShowCmd,
		&PlayCmd,
	)
}
