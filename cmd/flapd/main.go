package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/flapchain/pkg/board"
	"github.com/robotalks/flapchain/pkg/chain"
	"github.com/robotalks/flapchain/pkg/config"
	"github.com/robotalks/flapchain/pkg/framework"
)

var (
	configFile string
	simulate   bool
	demo       bool
)

func init() {
	config.SetupFlags()
	flag.StringVar(&configFile, "config", configFile, "Board file (YAML).")
	flag.BoolVar(&simulate, "sim", simulate, "Simulate the modules even if a driver is configured.")
	flag.BoolVar(&demo, "demo", demo, "Show demo words until the first message arrives.")
}

func main() {
	flag.Parse()

	conf := config.MustLoad(configFile)
	if simulate {
		conf.Bank.Driver = ""
	}
	if demo && len(conf.Demo) == 0 {
		conf.Demo = chain.DemoWords(conf.ModuleCount / 2)
	}
	b := board.MustNew(conf)
	defer b.Close()
	glog.Infof("board %s: %d modules", b.Info().Name(), b.Bank.NumModules())

	framework.NewLoop().Add(b).RunOrFail()
}
