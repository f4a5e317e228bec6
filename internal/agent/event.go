// Package agent drives a configured support agent against a user message
// and yields an ordered sequence of events.
package agent

// Event is a sealed interface representing one emitted run event. The
// unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventFinal carries the authoritative last answer of a run.
type EventFinal struct {
	Text string
}

func (EventFinal) event() {}

// EventThought carries an intermediate textual fragment, in emission order.
type EventThought struct {
	Text string
}

func (EventThought) event() {}

// EventAction records a tool invocation requested by the model. Args is the
// raw JSON argument object.
type EventAction struct {
	Name string
	Args string
}

func (EventAction) event() {}

// Interface compliance checks.
var (
	_ Event = EventFinal{}
	_ Event = EventThought{}
	_ Event = EventAction{}
)
