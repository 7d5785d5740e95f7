// Package all registers all shell commands.
package all

import (
	_ "github.com/robotalks/flapchain/pkg/cli/cmds/bench"
	_ "github.com/robotalks/flapchain/pkg/cli/cmds/chain"
	_ "github.com/robotalks/flapchain/pkg/cli/cmds/sched"
)
