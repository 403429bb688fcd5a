package services

import (
	"fmt"
	"strings"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
)

// DefaultMaxContextChars bounds the assembled documentary context.
const DefaultMaxContextChars = 8000

// candidateDelimiter separates rendered candidates in the prompt. It
// is distinct from chunk content so attributed segments can be split
// back apart unambiguously.
const candidateDelimiter = "\n---\n"

// RefusalAnswer is the canned refusal the model is instructed to
// reproduce verbatim when the context is insufficient. The fallback
// classifier matches against fragments of it, so the instruction text
// and the classifier phrases must stay in sync.
const RefusalAnswer = "Je ne trouve pas d'informations pertinentes dans la documentation pour répondre à cette question."

// BuiltContext is the outcome of assembling a prompt: the prompt text
// and which candidates actually made it into the context window.
type BuiltContext struct {
	Prompt   string
	Included []domain.Candidate
}

// ContextBuilder assembles a bounded prompt from ranked candidates.
type ContextBuilder struct {
	maxContextChars int
}

// NewContextBuilder creates a builder with the given context budget.
// Non-positive budgets fall back to the default.
func NewContextBuilder(maxContextChars int) *ContextBuilder {
	if maxContextChars <= 0 {
		maxContextChars = DefaultMaxContextChars
	}
	return &ContextBuilder{maxContextChars: maxContextChars}
}

// Build renders candidates in retrieval order until the next one would
// exceed the context budget. Truncation is by whole candidate: the
// overflowing candidate and everything after it are dropped, included
// candidates are kept untouched.
func (b *ContextBuilder) Build(question string, candidates []domain.Candidate) BuiltContext {
	var parts []string
	var included []domain.Candidate
	total := 0

	for i, cand := range candidates {
		rendered := renderCandidate(i+1, cand)
		if total+len(rendered) > b.maxContextChars {
			break
		}
		parts = append(parts, rendered)
		included = append(included, cand)
		total += len(rendered)
	}

	context := strings.Join(parts, candidateDelimiter)

	prompt := fmt.Sprintf(`Contexte documentaire:
%s

Question: %s

Instructions:
- Réponds uniquement en utilisant les informations du contexte fourni ci-dessus
- Cite explicitement les sources en mentionnant [Source X] dans ta réponse
- Si le contexte ne contient pas d'informations suffisantes, réponds: "%s"
- Sois précis et factuel
- Structure ta réponse clairement

Réponse:`, context, question, RefusalAnswer)

	return BuiltContext{Prompt: prompt, Included: included}
}

// renderCandidate formats one candidate with its source attribution
// header: "[Source i] <title> (<uri>) - similarity: <score>".
func renderCandidate(index int, cand domain.Candidate) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[Source %d]", index)
	if cand.Document.Title != "" {
		fmt.Fprintf(&sb, " %s", cand.Document.Title)
	}
	if cand.Document.URI != "" {
		fmt.Fprintf(&sb, " (%s)", cand.Document.URI)
	}
	fmt.Fprintf(&sb, " - similarity: %.3f\n%s\n", cand.Similarity, cand.Chunk.Text)
	return sb.String()
}
