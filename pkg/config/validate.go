package config

import (
	"fmt"

	"github.com/robotalks/flapchain/pkg/chain"
	"github.com/robotalks/flapchain/pkg/env"
	"github.com/robotalks/flapchain/pkg/flap"
)

// Validate checks the configuration. It does not modify c.
func Validate(c *Config) error {
	if c.Board.Type == "" || c.Board.ID == "" {
		return fmt.Errorf("board type and id must be specified")
	}
	if err := ascii("board description", c.Board.Description); err != nil {
		return err
	}

	if len(c.Modules) > 0 && c.ModuleCount > 0 && c.ModuleCount != len(c.Modules) {
		return fmt.Errorf("module_count %d does not match %d listed modules", c.ModuleCount, len(c.Modules))
	}
	if c.ModuleCount < 0 {
		return fmt.Errorf("module_count must not be negative")
	}
	for i, m := range c.Modules {
		if m.Offset < 0 || m.Offset >= flap.StepsPerRevolution {
			return fmt.Errorf("module %d: offset %d out of [0, %d)", i, m.Offset, flap.StepsPerRevolution)
		}
	}

	if c.Timing.PollMs < 0 || c.Timing.ReplyTimeoutMs < 0 || c.Timing.StepPeriodMs < 0 {
		return fmt.Errorf("timing must not be negative")
	}

	if err := ascii("status placeholder", c.Status.Placeholder); err != nil {
		return err
	}
	if err := ascii("status separator", c.Status.Separator); err != nil {
		return err
	}
	for _, w := range c.Demo {
		if err := ascii("demo word", w); err != nil {
			return err
		}
	}

	for _, msg := range c.Messages {
		if err := ascii("message", msg); err != nil {
			return err
		}
	}
	if c.ChangeEvery < 0 || (c.ResetEvery != nil && *c.ResetEvery < 0) {
		return fmt.Errorf("change_every and reset_every must not be negative")
	}
	if _, err := chain.ParseClockMode(c.Clock.Mode); err != nil {
		return err
	}

	if _, err := env.ParseURL(c.Links.Upstream); err != nil {
		return fmt.Errorf("upstream link: %w", err)
	}
	if _, err := env.ParseURL(c.Links.Downstream); err != nil {
		return fmt.Errorf("downstream link: %w", err)
	}
	if c.Bank.Driver != "" {
		if err := env.CheckDriverURL(c.Bank.Driver); err != nil {
			return fmt.Errorf("bank driver: %w", err)
		}
	}

	if m := c.Mirror; m != nil {
		if m.Endpoint == "" {
			return fmt.Errorf("mirror endpoint must be specified")
		}
		if m.TimeoutMs < 0 {
			return fmt.Errorf("mirror timeout must not be negative")
		}
	}
	return nil
}

func ascii(what, s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7f {
			return fmt.Errorf("%s %q must contain ASCII characters only", what, s)
		}
	}
	return nil
}
