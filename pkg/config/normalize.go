package config

// Normalize fills in defaults. It must be called after Validate.
func Normalize(c *Config) {
	switch {
	case len(c.Modules) > 0:
		c.ModuleCount = len(c.Modules)
	case c.ModuleCount > 0:
		c.Modules = make([]Module, c.ModuleCount)
	default:
		c.ModuleCount = DefaultModuleCount
		c.Modules = make([]Module, DefaultModuleCount)
	}
	if c.Timing.StepPeriodMs == 0 {
		c.Timing.StepPeriodMs = DefaultStepPeriod
	}
	if m := c.Mirror; m != nil && m.TimeoutMs == 0 {
		m.TimeoutMs = 1000
	}
}
