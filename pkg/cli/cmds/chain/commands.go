package chain

import (
	"fmt"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/flapchain/pkg/cli/sh"
)

var (
	// ChainSetCmd displays a message on the chain.
	ChainSetCmd = ishell.Cmd{
		Name:    "chain.set",
		Aliases: []string{"cs"},
		Help:    "TEXT",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			if len(c.Args) < 1 {
				c.Err(fmt.Errorf("TEXT required"))
				return
			}
			reply, err := sh.ShellFrom(c).Operator.Set(strings.Join(c.Args, " "))
			if reply != nil {
				if sh.ShellFrom(c).OutputJSON {
					sh.Print(c, reply)
				} else {
					c.Printf("seq %d: estimate %d steps, status %q in %v\n",
						reply.Seq, reply.Estimate, reply.Status, reply.Elapsed)
				}
			}
			if err != nil {
				c.Err(err)
			}
		}),
	}

	// ChainStatsCmd prints the link counters.
	ChainStatsCmd = ishell.Cmd{
		Name: "chain.stats",
		Help: "",
		Func: sh.MustBeConnected(func(c *ishell.Context) {
			sh.Print(c, sh.ShellFrom(c).Operator.Link.Stats())
		}),
	}
)

func init() {
	sh.AddCmds(
		&ChainSetCmd,
		&ChainStatsCmd,
	)
}
