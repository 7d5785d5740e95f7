package flap

// Module tracks the drum position of one split-flap module. The drum only
// turns forward.
type Module struct {
	// Offset is the motor position reported by the home sensor.
	Offset int

	pos    int
	target int
}

// NewModule creates a homed Module.
func NewModule(offset int) *Module {
	m := &Module{Offset: offset}
	m.Home()
	return m
}

// Home moves the position to the home sensor. The target is kept.
func (m *Module) Home() {
	m.pos = wrap(m.Offset)
}

// SetTarget selects the flap to show, unknown characters select blank.
func (m *Module) SetTarget(c byte) {
	m.target, _ = Index(c)
}

// Target returns the character the module is heading to.
func (m *Module) Target() byte {
	return Letter(m.target)
}

// Position returns the motor position.
func (m *Module) Position() int {
	return m.pos
}

// Distance returns the steps left to reach the target.
func (m *Module) Distance() int {
	return wrap(TargetStep(m.target) - m.pos)
}

// Moving indicates the target is not reached.
func (m *Module) Moving() bool {
	return m.Distance() != 0
}

// Advance turns the drum up to n steps towards the target and returns the
// steps actually made.
func (m *Module) Advance(n int) int {
	if d := m.Distance(); n > d {
		n = d
	}
	if n <= 0 {
		return 0
	}
	m.pos = wrap(m.pos + n)
	return n
}

// Showing returns the character in the window, the last flap that
// fell before the current position.
func (m *Module) Showing() byte {
	for i := Count - 1; i > 0; i-- {
		if TargetStep(i) <= m.pos {
			return Letter(i)
		}
	}
	return Letter(0)
}

func wrap(step int) int {
	step %= StepsPerRevolution
	if step < 0 {
		step += StepsPerRevolution
	}
	return step
}
