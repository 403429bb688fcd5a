package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driven"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driving"
	"github.com/docpilot-labs/docpilot/internal/logger"
)

// Ensure Agent implements the interface.
var _ driving.AgentService = (*Agent)(nil)

// DefaultMinContextChunks is the minimum candidate count below which
// the agent short-circuits to the canned fallback without a generation
// call.
const DefaultMinContextChunks = 2

// InsufficientContextAnswer is returned when retrieval finds too few
// candidates to attempt generation.
const InsufficientContextAnswer = "Je ne trouve pas suffisamment d'informations pertinentes dans la documentation pour répondre à cette question."

// FallbackClassifier decides post hoc whether generated text is a
// refusal. The default is a phrase-match heuristic; it is a single
// replaceable predicate so a structured no-answer signal can be
// swapped in later.
type FallbackClassifier func(answer string) bool

// fallbackPhrases are matched case-folded against generated output.
// False positives and negatives are accepted.
var fallbackPhrases = []string{
	"je ne trouve pas",
	"je ne sais pas",
	"informations insuffisantes",
	"pas d'informations pertinentes",
}

// PhraseFallbackClassifier is the default classifier.
func PhraseFallbackClassifier(answer string) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range fallbackPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Agent implements the answer policy: retrieve, assemble, generate
// once, classify. Every request terminates in a structured response;
// retrieval and generation failures become ERRORED responses rather
// than escaping to the transport layer.
type Agent struct {
	search     driving.SearchService
	builder    *ContextBuilder
	llm        driven.LLMService
	observer   driven.AgentObserver
	classifier FallbackClassifier

	minContextChunks int
	maxTokens        int
	temperature      float64
}

// AgentOption configures an Agent.
type AgentOption func(*Agent)

// WithMinContextChunks sets the candidate count below which the agent
// answers with the canned fallback.
func WithMinContextChunks(n int) AgentOption {
	return func(a *Agent) {
		if n > 0 {
			a.minContextChunks = n
		}
	}
}

// WithFallbackClassifier replaces the refusal detector.
func WithFallbackClassifier(c FallbackClassifier) AgentOption {
	return func(a *Agent) {
		if c != nil {
			a.classifier = c
		}
	}
}

// WithObserver sets the state-transition observer.
func WithObserver(o driven.AgentObserver) AgentOption {
	return func(a *Agent) {
		if o != nil {
			a.observer = o
		}
	}
}

// WithGeneration sets the generation parameters.
func WithGeneration(maxTokens int, temperature float64) AgentOption {
	return func(a *Agent) {
		if maxTokens > 0 {
			a.maxTokens = maxTokens
		}
		if temperature >= 0 {
			a.temperature = temperature
		}
	}
}

// NewAgent creates an agent over the given search service, context
// builder and LLM.
func NewAgent(
	search driving.SearchService,
	builder *ContextBuilder,
	llm driven.LLMService,
	opts ...AgentOption,
) *Agent {
	a := &Agent{
		search:           search,
		builder:          builder,
		llm:              llm,
		observer:         driven.NopObserver{},
		classifier:       PhraseFallbackClassifier,
		minContextChunks: DefaultMinContextChunks,
		maxTokens:        1000,
		temperature:      0.1,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Ask answers a question. The returned error is non-nil only for
// request validation failures; everything downstream produces a
// structured response.
func (a *Agent) Ask(
	ctx context.Context, question string, filter domain.SearchFilter,
) (*domain.AgentResponse, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	traceID := uuid.New().String()
	start := time.Now()

	logger.Info("[%s] Processing question: %s", traceID, question)
	a.observer.OnTransition(traceID, domain.StateSearching)

	searchStart := time.Now()
	candidates, err := a.search.Retrieve(ctx, question, filter)
	searchTime := time.Since(searchStart)
	if err != nil {
		return a.errored(traceID, err, searchTime, 0, start), nil
	}

	chunksScanned := len(candidates)
	logger.Info("[%s] Found %d relevant chunks in %s", traceID, chunksScanned, searchTime)

	if chunksScanned < a.minContextChunks {
		logger.Warn("[%s] Insufficient context: %d chunks < %d minimum",
			traceID, chunksScanned, a.minContextChunks)
		a.observer.OnTransition(traceID, domain.StateInsufficientContext)

		resp := &domain.AgentResponse{
			Answer:        InsufficientContextAnswer,
			Sources:       []domain.SourceAttribution{},
			TraceID:       traceID,
			ChunksScanned: chunksScanned,
			FallbackUsed:  true,
			State:         domain.StateInsufficientContext,
		}
		a.finish(resp, searchTime, 0, start)
		return resp, nil
	}

	a.observer.OnTransition(traceID, domain.StateGenerating)

	built := a.builder.Build(question, candidates)
	logger.Debug("[%s] Built RAG prompt with %d characters, %d of %d candidates included",
		traceID, len(built.Prompt), len(built.Included), chunksScanned)

	genStart := time.Now()
	answer, err := a.llm.Generate(ctx, built.Prompt, driven.GenerateOptions{
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	})
	genTime := time.Since(genStart)
	if err != nil {
		return a.errored(traceID, fmt.Errorf("%w: %w", domain.ErrGeneration, err), searchTime, genTime, start), nil
	}

	logger.Info("[%s] Generated response in %s", traceID, genTime)

	state := domain.StateAnswered
	fallback := a.classifier(answer)
	if fallback {
		state = domain.StateFallback
	}
	a.observer.OnTransition(traceID, state)

	resp := &domain.AgentResponse{
		Answer:        answer,
		Sources:       attributeSources(built.Included),
		TraceID:       traceID,
		ChunksScanned: chunksScanned,
		FallbackUsed:  fallback,
		State:         state,
	}
	a.finish(resp, searchTime, genTime, start)
	return resp, nil
}

// errored builds the structured failure response. The caller always
// gets a well-formed answer; the triggering error goes to logs and the
// observer.
func (a *Agent) errored(
	traceID string, err error, searchTime, genTime time.Duration, start time.Time,
) *domain.AgentResponse {
	logger.Error("[%s] Error processing question: %v", traceID, err)
	a.observer.OnTransition(traceID, domain.StateErrored)
	a.observer.OnError(traceID, err)

	resp := &domain.AgentResponse{
		Answer:       fmt.Sprintf("Une erreur s'est produite lors du traitement de votre question: %v", err),
		Sources:      []domain.SourceAttribution{},
		TraceID:      traceID,
		FallbackUsed: true,
		State:        domain.StateErrored,
		Error:        err.Error(),
	}
	a.finish(resp, searchTime, genTime, start)
	return resp
}

// finish stamps the elapsed-time breakdown and notifies the observer.
func (a *Agent) finish(resp *domain.AgentResponse, searchTime, genTime time.Duration, start time.Time) {
	resp.Timings = domain.Timings{
		Search:     searchTime,
		Generation: genTime,
		Total:      time.Since(start),
	}
	a.observer.OnComplete(resp.TraceID, resp.State, resp.Timings, resp.ChunksScanned)
	logger.Info("[%s] Complete in %s (search: %s, generation: %s)",
		resp.TraceID, resp.Timings.Total, searchTime, genTime)
}

// attributeSources builds the cited source list from the candidates
// that were actually included in the assembled context. Display
// indices match the [Source N] markers in the prompt.
func attributeSources(included []domain.Candidate) []domain.SourceAttribution {
	sources := make([]domain.SourceAttribution, len(included))
	for i, cand := range included {
		sources[i] = domain.SourceAttribution{
			Index:      i + 1,
			Title:      cand.Document.Title,
			Source:     cand.Document.Source,
			URI:        cand.Document.URI,
			Repo:       metadataString(cand.Chunk.Metadata, "repo"),
			Similarity: cand.Similarity,
		}
	}
	return sources
}
