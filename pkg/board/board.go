// Package board assembles one board of the chain from its configuration.
package board

import (
	"fmt"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/flapchain/pkg/bank"
	"github.com/robotalks/flapchain/pkg/chain"
	"github.com/robotalks/flapchain/pkg/config"
	"github.com/robotalks/flapchain/pkg/env"
	"github.com/robotalks/flapchain/pkg/framework"
	"github.com/robotalks/flapchain/pkg/link"
	"github.com/robotalks/flapchain/pkg/mirror"
	"github.com/robotalks/flapchain/pkg/telemetry"
)

// Board is a running board: its links, bank, coordinator and the optional
// telemetry publisher and register mirror.
type Board struct {
	Config      *config.Config
	Upstream    *link.Link
	Downstream  *link.Link
	Bank        bank.Bank
	Coordinator *chain.Coordinator
	Publisher   *telemetry.Publisher
	Mirror      *mirror.Writer

	closers []io.Closer
}

// New creates a Board from a validated and normalized config. Everything
// opened so far is closed on error.
func New(conf *config.Config) (*Board, error) {
	b := &Board{Config: conf}
	if err := b.setup(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Board) setup() (err error) {
	conf := b.Config
	up, err := b.open("upstream", conf.Links.Upstream, true)
	if err != nil {
		return err
	}
	down, err := b.open("downstream", conf.Links.Downstream, false)
	if err != nil {
		return err
	}
	b.Upstream, b.Downstream = link.New("upstream", up), link.New("downstream", down)

	if b.Bank, err = b.newBank(); err != nil {
		return err
	}
	b.Coordinator = chain.New(conf.ChainConfig(), b.Upstream, b.Downstream, b.Bank)

	if conf.Telemetry.MQTTURL != "" {
		if b.Publisher, err = telemetry.NewPublisher(conf.Telemetry.MQTTURL, b.Info()); err != nil {
			return fmt.Errorf("telemetry: %w", err)
		}
	}
	if m := conf.Mirror; m != nil {
		b.Mirror, err = mirror.New(mirror.Config{
			Endpoint:    m.Endpoint,
			UnitID:      m.UnitID,
			BaseAddress: m.BaseAddress,
			Timeout:     time.Duration(m.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return fmt.Errorf("mirror: %w", err)
		}
		b.closers = append(b.closers, b.Mirror)
	}
	return nil
}

// MustNew creates a Board and fails on error.
func MustNew(conf *config.Config) *Board {
	b, err := New(conf)
	if err != nil {
		glog.Exitln(err)
	}
	return b
}

func (b *Board) open(name, rawURL string, facingUp bool) (link.Transport, error) {
	t, closer, err := env.OpenTransport(rawURL, facingUp)
	if err != nil {
		return nil, fmt.Errorf("%s link %q: %w", name, rawURL, err)
	}
	b.closers = append(b.closers, closer)
	glog.Infof("%s link: %s", name, describe(rawURL))
	return t, nil
}

func (b *Board) newBank() (bank.Bank, error) {
	conf := b.Config
	if conf.Bank.Driver == "" {
		return bank.NewSim(conf.Offsets()...).WithStepPeriod(conf.StepPeriod()), nil
	}
	w, err := env.OpenDriverPort(conf.Bank.Driver)
	if err != nil {
		return nil, fmt.Errorf("module driver %q: %w", conf.Bank.Driver, err)
	}
	b.closers = append(b.closers, w)
	d := bank.NewDriver(w, conf.Offsets()...)
	d.StepPeriod = conf.StepPeriod()
	d.Reset()
	return d, nil
}

// Info describes the board for telemetry.
func (b *Board) Info() telemetry.BoardInfo {
	conf := b.Config
	return telemetry.BoardInfo{
		Type:        conf.Board.Type,
		ID:          conf.Board.ID,
		Description: conf.Board.Description,
		Modules:     b.Bank.NumModules(),
		Upstream:    describe(conf.Links.Upstream),
		Downstream:  describe(conf.Links.Downstream),
	}
}

// AddToLoop implements framework.LoopAdder.
func (b *Board) AddToLoop(l *framework.Loop) {
	l.Add(b.Coordinator)
	if b.Publisher != nil {
		l.Add(b.Publisher)
	}
	if b.Mirror != nil {
		l.Add(b.Mirror)
	}
}

// Close closes everything the board opened.
func (b *Board) Close() error {
	var errs framework.AggregatedError
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs.Add(b.closers[i].Close())
	}
	b.closers = nil
	return errs.Aggregate()
}

func describe(rawURL string) string {
	if rawURL == "" {
		return env.SchemeNone + ":"
	}
	return rawURL
}
