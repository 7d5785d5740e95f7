package bench

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/flapchain/pkg/cli/sh"
)

// Sweep pacing, as long as a module takes for a full turn.
const (
	SweepSettle = 3 * time.Second
	SweepDelay  = 3 * time.Second
)

var (
	// SendCmd sends a bench frame.
	SendCmd = ishell.Cmd{
		Name:    "send",
		Aliases: []string{"s"},
		Help:    "TEXT (\\ resets a module, @ resets all)",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("TEXT required"))
				return
			}
			if err := sh.ShellFrom(c).Sender.Send(strings.Join(c.Args, " ")); err != nil {
				c.Err(err)
			}
		}),
	}

	// ResetCmd homes all modules.
	ResetCmd = ishell.Cmd{
		Name:    "reset",
		Aliases: []string{"r"},
		Help:    "",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if err := sh.ShellFrom(c).Sender.Reset(); err != nil {
				c.Err(err)
			}
		}),
	}

	// SweepCmd shows every flap on N modules.
	SweepCmd = ishell.Cmd{
		Name: "sweep",
		Help: "N [DELAY(ms)]",
		Func: sh.MustBeOpen(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("N required"))
				return
			}
			n, err := strconv.Atoi(c.Args[0])
			if err != nil || n < 1 {
				c.Err(fmt.Errorf("Invalid N: %q", c.Args[0]))
				return
			}
			delay := SweepDelay
			if len(c.Args) > 1 {
				ms, err := strconv.Atoi(c.Args[1])
				if err != nil {
					c.Err(fmt.Errorf("Invalid DELAY: %v", err))
					return
				}
				delay = time.Duration(ms) * time.Millisecond
			}
			err = sh.ShellFrom(c).Sender.Sweep(context.Background(), n, SweepSettle, delay, func(ch byte) {
				c.Printf("%q\n", ch)
			})
			if err != nil {
				c.Err(err)
			}
		}),
	}
)

func init() {
	sh.AddCmds(
		&SendCmd,
		&ResetCmd,
		&SweepCmd,
	)
}
