// Package sh provides the bench shell: it drives a module-driver board
// directly and plays the operator of a chain.
package sh

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/flapchain/pkg/bench"
	"github.com/robotalks/flapchain/pkg/chain"
	"github.com/robotalks/flapchain/pkg/env"
	"github.com/robotalks/flapchain/pkg/link"
)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	// Device is the bench port, found by product description when empty.
	Device string
	Baud   int
	// LinkURL is the operator side of the head board link.
	LinkURL    string
	AckTimeout time.Duration

	Shell    *ishell.Shell
	Sender   *bench.Sender
	Operator *chain.Operator
	// Schedule is played by the sched commands.
	Schedule *chain.Schedule

	port     io.Closer
	linkConn io.Closer
	portName string
}

const (
	shellKey     = "$shell"
	closedPrompt = "[none] > "
)

var (
	// flags

	evalOnly   bool
	outputJSON bool
	device     string
	baud       = 9600
	linkURL    string
	ackTimeout = time.Second

	// commands
	commands = []*ishell.Cmd{
		&OpenCmd,
		&CloseCmd,
		&ConnectCmd,
		&DisconnectCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
	flag.StringVar(&device, "device", device, "Bench serial device, found by product description if empty.")
	flag.IntVar(&baud, "baud", baud, "Bench serial baud rate.")
	flag.StringVar(&linkURL, "link", linkURL, "Head board link URL, e.g. ws://host:8090/link")
	flag.DurationVar(&ackTimeout, "ack-timeout", ackTimeout, "Time to wait for the chain ACK.")
}

// AddCmds is used by other commands providers during init func.
func AddCmds(cmds ...*ishell.Cmd) {
	commands = append(commands, cmds...)
}

// New creates a new shell with the command line settings.
func New() *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,
		Device:      device,
		Baud:        baud,
		LinkURL:     linkURL,
		AckTimeout:  ackTimeout,

		Shell:    ishell.New(),
		Schedule: chain.NewSchedule(chain.ScheduleConfig{ResetEvery: chain.DefaultResetEvery}),
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(closedPrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// MustBeOpen wraps command func requires the bench port.
func MustBeOpen(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Sender == nil {
			c.Err(fmt.Errorf("bench port not open"))
			return
		}
		fn(c)
	}
}

// MustBeConnected wraps command func requires a chain link.
func MustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		if ShellFrom(c).Operator == nil {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

// Print prints v as JSON or in its text form.
func Print(c *ishell.Context, v interface{}) {
	if ShellFrom(c).OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	if s, ok := v.(fmt.Stringer); ok {
		c.Println(s.String())
		return
	}
	c.Printf("%+v\n", v)
}

// Open opens the bench port.
func (s *Shell) Open(device string) error {
	sender, port, err := bench.Open(device, s.Baud)
	if err != nil {
		return err
	}
	s.Close()
	s.Sender, s.port = sender, port
	s.portName = device
	if s.portName == "" {
		s.portName = "bench"
	}
	s.updatePrompt()
	return nil
}

// Close closes the bench port.
func (s *Shell) Close() {
	if s.port != nil {
		s.port.Close()
		s.port, s.Sender, s.portName = nil, nil, ""
		s.updatePrompt()
	}
}

// Connect opens the link to the head board.
func (s *Shell) Connect(rawURL string) error {
	t, conn, err := env.OpenTransport(rawURL, false)
	if err != nil {
		return err
	}
	s.Disconnect()
	op := chain.NewOperator(link.New(rawURL, t))
	op.AckTimeout = s.AckTimeout
	s.Operator, s.linkConn = op, conn
	s.updatePrompt()
	return nil
}

// Disconnect closes the link to the head board.
func (s *Shell) Disconnect() {
	if s.linkConn != nil {
		s.linkConn.Close()
		s.linkConn, s.Operator = nil, nil
		s.updatePrompt()
	}
}

func (s *Shell) updatePrompt() {
	var name string
	if s.Sender != nil {
		name = s.portName
	}
	if s.Operator != nil {
		if name != "" {
			name += " "
		}
		name += s.Operator.Link.Name
	}
	if name == "" {
		s.Shell.SetPrompt(closedPrompt)
		return
	}
	s.Shell.SetPrompt(fmt.Sprintf("[%s] > ", name))
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	if s.LinkURL != "" {
		if err := s.Connect(s.LinkURL); err != nil {
			log.Fatalf("connect %q failed: %v", s.LinkURL, err)
		}
	}
	defer s.Disconnect()
	defer s.Close()

	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// OpenCmd opens the bench port.
	OpenCmd = ishell.Cmd{
		Name:    "open",
		Aliases: []string{"o"},
		Help:    "[DEVICE]",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			dev := s.Device
			if len(c.Args) > 0 {
				dev = c.Args[0]
			}
			if err := s.Open(dev); err != nil {
				c.Err(err)
			}
		},
	}

	// CloseCmd closes the bench port.
	CloseCmd = ishell.Cmd{
		Name: "close",
		Help: "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Close()
		},
	}

	// ConnectCmd connects the head board.
	ConnectCmd = ishell.Cmd{
		Name:    "connect",
		Aliases: []string{"c"},
		Help:    "URL",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			url := s.LinkURL
			if len(c.Args) > 0 {
				url = c.Args[0]
			}
			if url == "" {
				c.Err(fmt.Errorf("URL required"))
				return
			}
			if err := s.Connect(url); err != nil {
				c.Err(err)
			}
		},
	}

	// DisconnectCmd disconnects the head board.
	DisconnectCmd = ishell.Cmd{
		Name:    "disconnect",
		Aliases: []string{"d"},
		Help:    "",
		Func: func(c *ishell.Context) {
			ShellFrom(c).Disconnect()
		},
	}
)

// Main is a helper to provide a single call in main.
func Main() {
	flag.Parse()
	New().Run(flag.Args()...)
}
