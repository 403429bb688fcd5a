package domain

import "time"

// AgentState tracks one request through the answer policy.
type AgentState int

const (
	// StateSearching is the initial state while retrieval runs.
	StateSearching AgentState = iota

	// StateInsufficientContext is terminal: too few candidates, canned
	// fallback returned without a generation call.
	StateInsufficientContext

	// StateGenerating means retrieval produced enough context and the
	// generation call is in flight.
	StateGenerating

	// StateAnswered is terminal: generation succeeded and no refusal
	// phrase matched.
	StateAnswered

	// StateFallback is terminal: generation succeeded but the output
	// matched a refusal phrase.
	StateFallback

	// StateErrored is terminal: retrieval or generation failed. The
	// caller still receives a structured response.
	StateErrored
)

// String returns the state name for logs and metrics.
func (s AgentState) String() string {
	switch s {
	case StateSearching:
		return "SEARCHING"
	case StateInsufficientContext:
		return "INSUFFICIENT_CONTEXT"
	case StateGenerating:
		return "GENERATING"
	case StateAnswered:
		return "ANSWERED"
	case StateFallback:
		return "FALLBACK"
	case StateErrored:
		return "ERRORED"
	default:
		return "UNKNOWN"
	}
}

// SourceAttribution identifies one cited source in an answer.
type SourceAttribution struct {
	// Index is the 1-based display index matching [Source N] citations.
	Index int `json:"index"`

	Title      string  `json:"title"`
	Source     string  `json:"source"`
	URI        string  `json:"uri"`
	Repo       string  `json:"repo,omitempty"`
	Similarity float64 `json:"similarity_score"`
}

// Timings partitions request wall-clock time for observability.
type Timings struct {
	Search     time.Duration `json:"search"`
	Generation time.Duration `json:"generation"`
	Total      time.Duration `json:"total"`
}

// AgentResponse is the structured reply for one question. The caller
// always receives one, whatever happened internally; "no relevant
// documents" versus "system failure" is distinguished by FallbackUsed
// plus the optional Error string, not by response shape.
type AgentResponse struct {
	Answer        string              `json:"answer"`
	Sources       []SourceAttribution `json:"sources"`
	TraceID       string              `json:"trace_id"`
	ChunksScanned int                 `json:"chunks_scanned"`
	Timings       Timings             `json:"timings"`
	FallbackUsed  bool                `json:"fallback_used"`
	State         AgentState          `json:"-"`

	// Error carries the failure description for ERRORED responses.
	Error string `json:"error,omitempty"`
}
