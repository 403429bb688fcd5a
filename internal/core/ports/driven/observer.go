package driven

import (
	"github.com/docpilot-labs/docpilot/internal/core/domain"
)

// AgentObserver receives answer-policy state transitions. It is an
// explicit capability passed into the agent, used for structured
// logging and metrics; implementations must be safe for concurrent use.
type AgentObserver interface {
	// OnTransition is called at every state change of one request.
	OnTransition(traceID string, state domain.AgentState)

	// OnComplete is called once per request with the terminal state and
	// the elapsed-time breakdown.
	OnComplete(traceID string, state domain.AgentState, timings domain.Timings, chunksScanned int)

	// OnError is called when a request terminates in ERRORED.
	OnError(traceID string, err error)
}

// NopObserver discards all observations.
type NopObserver struct{}

// OnTransition implements AgentObserver.
func (NopObserver) OnTransition(string, domain.AgentState) {}

// OnComplete implements AgentObserver.
func (NopObserver) OnComplete(string, domain.AgentState, domain.Timings, int) {}

// OnError implements AgentObserver.
func (NopObserver) OnError(string, error) {}

var _ AgentObserver = NopObserver{}
