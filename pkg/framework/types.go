// Package framework runs a board: a Loop of prioritized controllers fed
// with messages, and a Runner supervising background Runnables.
package framework

import (
	"context"
	"time"
)

// Named is implemented by things with a name.
type Named interface {
	Name() string
}

// Runnable is a background job, stopped by canceling the context.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Message is posted to the loop and consumed by controllers in the next
// iteration.
type Message interface {
	// NewMessage creates an empty message of the same type.
	NewMessage() Message
}

// Controller runs once per loop iteration.
type Controller interface {
	Control(ControlContext) error
}

// ControlFunc is the func form of Controller.
type ControlFunc func(ControlContext) error

// Control implements Controller.
func (f ControlFunc) Control(ctx ControlContext) error {
	return f(ctx)
}

// ControlContext is the context of the current iteration.
type ControlContext interface {
	// Context is canceled when the loop stops.
	Context() context.Context
	// Time is the start time of the iteration.
	Time() time.Time
	// PriorityLevel is the level of the running controller.
	PriorityLevel() int
	// Messages holds the messages posted before the iteration started.
	// Messages not taken are dropped when the iteration ends.
	Messages() MessageStore
	// PostRun injects one-shot hooks after the controllers of the current
	// level. Hooks injected by a hook run in the next iteration.
	PostRun(hooks ...Controller)

	LoopControl
}

// PriorityLevels is the number of priority levels.
const PriorityLevels int = 16

// Priority levels, lower runs first.
const (
	PrLvTop    int = 0
	PrLvHigh   int = 4
	PrLvNormal int = 8
	PrLvLow    int = 12
	PrLvIdle   int = PriorityLevels - 1

	// PrLvSense is for controllers reading inputs.
	PrLvSense = PrLvHigh
	// PrLvControl is for controllers deciding.
	PrLvControl = PrLvNormal
	// PrLvPostProc is for controllers reporting what happened, like
	// telemetry.
	PrLvPostProc = PrLvIdle - 1
)

// LoopControl is the part of the loop available to everyone.
type LoopControl interface {
	// PreRunAt injects one-shot hooks before the controllers of a level.
	PreRunAt(priorityLevel int, hooks ...Controller)
	// PostRunAt injects one-shot hooks after the controllers of a level.
	PostRunAt(priorityLevel int, hooks ...Controller)
	// PostMessage queues a message for the next iteration. It's safe
	// to call from any goroutine.
	PostMessage(Message)
	// TriggerNext starts the next iteration without waiting for the
	// interval.
	TriggerNext()
}

// MessageStore gives controllers access to the messages of an iteration.
type MessageStore interface {
	// ProcessMessages visits messages in posting order.
	ProcessMessages(MessageProcessor)
	// AddMessages appends messages visible to later controllers.
	AddMessages(msgs ...Message)
}

// MessageProcessor visits a message.
type MessageProcessor interface {
	ProcessMessage(MessageProcessingContext)
}

// ProcessMessageFunc is the func form of MessageProcessor.
type ProcessMessageFunc func(MessageProcessingContext)

// ProcessMessage implements MessageProcessor.
func (f ProcessMessageFunc) ProcessMessage(mc MessageProcessingContext) {
	f(mc)
}

// MessageProcessingContext is the context of the visited message.
type MessageProcessingContext interface {
	// CurrentMessage is the message being visited.
	CurrentMessage() Message
	// MessageTaken removes the message from the store.
	MessageTaken()
	// StopProcessing skips the remaining messages.
	StopProcessing()
}
