package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
)

func candidateFixture(id int64, title, text string, similarity float64) domain.Candidate {
	return domain.Candidate{
		Chunk:      domain.Chunk{ID: id, DocID: id, Text: text},
		Document:   domain.Document{ID: id, Title: title, URI: fmt.Sprintf("github://org/repo/%d.md", id)},
		Distance:   1 - similarity,
		Similarity: similarity,
	}
}

func TestContextBuilder_Build_Empty(t *testing.T) {
	b := NewContextBuilder(0)

	built := b.Build("what is the deploy process?", nil)

	assert.Empty(t, built.Included)
	assert.Contains(t, built.Prompt, "Question: what is the deploy process?")
	assert.Contains(t, built.Prompt, RefusalAnswer)
}

func TestContextBuilder_Build_SourceHeaders(t *testing.T) {
	b := NewContextBuilder(0)
	candidates := []domain.Candidate{
		candidateFixture(1, "Deploy Guide", "Use blue-green rollout.", 0.91),
		candidateFixture(2, "Release Process", "Rollback via dashboard.", 0.82),
	}

	built := b.Build("deploy?", candidates)

	require.Len(t, built.Included, 2)
	assert.Contains(t, built.Prompt, "[Source 1] Deploy Guide (github://org/repo/1.md) - similarity: 0.910")
	assert.Contains(t, built.Prompt, "[Source 2] Release Process (github://org/repo/2.md) - similarity: 0.820")
	assert.Contains(t, built.Prompt, "\n---\n")
}

func TestContextBuilder_Build_WholeCandidateTruncation(t *testing.T) {
	// Budget fits the first candidate but not the second. The second
	// is dropped entirely, never partially included.
	first := candidateFixture(1, "A", strings.Repeat("a", 100), 0.9)
	second := candidateFixture(2, "B", strings.Repeat("b", 400), 0.8)
	firstLen := len(renderCandidate(1, first))

	b := NewContextBuilder(firstLen + 50)
	built := b.Build("q", []domain.Candidate{first, second})

	require.Len(t, built.Included, 1)
	assert.Equal(t, int64(1), built.Included[0].Chunk.ID)
	assert.NotContains(t, built.Prompt, "bbbb")
	assert.Contains(t, built.Prompt, strings.Repeat("a", 100))
}

func TestContextBuilder_Build_TruncationStopsAtFirstOverflow(t *testing.T) {
	// Once a candidate overflows, later smaller candidates are not
	// pulled forward past it.
	big := candidateFixture(2, "Big", strings.Repeat("b", 500), 0.8)
	small := candidateFixture(3, "Small", "tiny", 0.7)
	first := candidateFixture(1, "First", strings.Repeat("a", 100), 0.9)

	b := NewContextBuilder(len(renderCandidate(1, first)) + 50)
	built := b.Build("q", []domain.Candidate{first, big, small})

	require.Len(t, built.Included, 1)
	assert.NotContains(t, built.Prompt, "tiny")
}

func TestContextBuilder_Build_IncludedMatchesPromptIndices(t *testing.T) {
	b := NewContextBuilder(0)
	candidates := []domain.Candidate{
		candidateFixture(7, "Seven", "seven text", 0.9),
		candidateFixture(9, "Nine", "nine text", 0.8),
	}

	built := b.Build("q", candidates)

	require.Len(t, built.Included, 2)
	for i, cand := range built.Included {
		header := fmt.Sprintf("[Source %d] %s", i+1, cand.Document.Title)
		assert.Contains(t, built.Prompt, header)
	}
}

func TestContextBuilder_Build_InstructionsPresent(t *testing.T) {
	b := NewContextBuilder(0)

	built := b.Build("q", []domain.Candidate{candidateFixture(1, "T", "text", 0.9)})

	assert.Contains(t, built.Prompt, "Contexte documentaire:")
	assert.Contains(t, built.Prompt, "Cite explicitement les sources")
	assert.True(t, strings.HasSuffix(built.Prompt, "Réponse:"))
}
