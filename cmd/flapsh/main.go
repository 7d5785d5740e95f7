package main

import (
	"github.com/robotalks/flapchain/pkg/cli/sh"

	_ "github.com/robotalks/flapchain/pkg/cli/cmds/all"
)

//go-build: CGO_ENABLED=0

func main() {
	sh.Main()
}
