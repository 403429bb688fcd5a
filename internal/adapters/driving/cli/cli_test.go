package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driving"
)

type mockSearchService struct {
	candidates []domain.Candidate
	err        error
	gotFilter  domain.SearchFilter
}

func (m *mockSearchService) Retrieve(_ context.Context, _ string, filter domain.SearchFilter) ([]domain.Candidate, error) {
	m.gotFilter = filter
	return m.candidates, m.err
}

type mockAgentService struct {
	resp *domain.AgentResponse
	err  error
}

func (m *mockAgentService) Ask(_ context.Context, _ string, _ domain.SearchFilter) (*domain.AgentResponse, error) {
	return m.resp, m.err
}

type mockIndexService struct {
	stats    domain.Stats
	indexed  int
	batched  []domain.RawDocument
	indexErr error
}

func (m *mockIndexService) Index(_ context.Context, _ domain.RawDocument) (*domain.Document, bool, error) {
	if m.indexErr != nil {
		return nil, false, m.indexErr
	}
	m.indexed++
	return &domain.Document{ID: int64(m.indexed)}, true, nil
}

func (m *mockIndexService) IndexBatch(_ context.Context, raws []domain.RawDocument) driving.BatchSummary {
	m.batched = raws
	return driving.BatchSummary{Indexed: len(raws)}
}

func (m *mockIndexService) Delete(_ context.Context, _ int64) error { return nil }

func (m *mockIndexService) Stats(_ context.Context) (domain.Stats, error) {
	return m.stats, nil
}

// testApp builds an app with preset services so init is a no-op.
func testApp(search *mockSearchService, agent *mockAgentService, indexer *mockIndexService) *app {
	return &app{
		search:  search,
		agent:   agent,
		indexer: indexer,
		ready:   true,
	}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	rootCmd := NewRootCmd("test")

	names := make(map[string]bool)
	for _, sub := range rootCmd.Commands() {
		names[sub.Name()] = true
	}

	for _, want := range []string{"ask", "search", "index", "sync", "stats", "serve", "mcp", "tui", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, newVersionCmd("1.2.3"))

	require.NoError(t, err)
	assert.Equal(t, "docpilot version 1.2.3\n", out)
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	_, err := execute(t, newAskCmd(testApp(nil, &mockAgentService{}, nil)))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_PrintsAnswerAndSources(t *testing.T) {
	agent := &mockAgentService{
		resp: &domain.AgentResponse{
			Answer:  "Le déploiement utilise un rollout blue-green [Source 1].",
			TraceID: "trace-1",
			Sources: []domain.SourceAttribution{
				{Index: 1, Title: "Deploy Guide", URI: "github://org/repo/deploy.md", Similarity: 0.91},
			},
		},
	}

	out, err := execute(t, newAskCmd(testApp(nil, agent, nil)), "comment déployer ?")

	require.NoError(t, err)
	assert.Contains(t, out, agent.resp.Answer)
	assert.Contains(t, out, "[1] Deploy Guide (github://org/repo/deploy.md) - 0.91")
	assert.Contains(t, out, "trace=trace-1")
}

func TestAskCmd_JSONOutput(t *testing.T) {
	agent := &mockAgentService{resp: &domain.AgentResponse{Answer: "ok", TraceID: "t"}}

	out, err := execute(t, newAskCmd(testApp(nil, agent, nil)), "--json", "question")

	require.NoError(t, err)
	assert.Contains(t, out, `"answer": "ok"`)
	assert.Contains(t, out, `"trace_id": "t"`)
}

func TestAskCmd_ValidationError(t *testing.T) {
	agent := &mockAgentService{err: domain.ErrInvalidInput}

	_, err := execute(t, newAskCmd(testApp(nil, agent, nil)), "question")

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSearchCmd_PrintsResults(t *testing.T) {
	search := &mockSearchService{
		candidates: []domain.Candidate{
			{
				Chunk:      domain.Chunk{Text: "Deployment uses blue-green rollout.\nMore detail below."},
				Document:   domain.Document{Title: "Deploy Guide", URI: "github://org/repo/deploy.md"},
				Similarity: 0.91,
			},
		},
	}

	out, err := execute(t, newSearchCmd(testApp(search, nil, nil)), "deploy")

	require.NoError(t, err)
	assert.Contains(t, out, "Results:")
	assert.Contains(t, out, "[1] Deploy Guide (0.91)")
	assert.Contains(t, out, "Deployment uses blue-green rollout.")
}

func TestSearchCmd_NoResults(t *testing.T) {
	out, err := execute(t, newSearchCmd(testApp(&mockSearchService{}, nil, nil)), "deploy")

	require.NoError(t, err)
	assert.Contains(t, out, "No results found.")
}

func TestSearchCmd_FilterFlags(t *testing.T) {
	search := &mockSearchService{}

	_, err := execute(t, newSearchCmd(testApp(search, nil, nil)),
		"--limit", "5", "--threshold", "0.4", "--source", "github", "--repo", "org/infra", "deploy")

	require.NoError(t, err)
	assert.Equal(t, 5, search.gotFilter.TopK)
	assert.Equal(t, 0.4, search.gotFilter.SimilarityThreshold)
	assert.Equal(t, "github", search.gotFilter.Source)
	assert.Equal(t, "org/infra", search.gotFilter.Repo)
}

func TestStatsCmd(t *testing.T) {
	indexer := &mockIndexService{stats: domain.Stats{
		Documents:          3,
		Chunks:             12,
		EmbeddingModel:     "text-embedding-3-small",
		EmbeddingDimension: 1536,
	}}

	out, err := execute(t, newStatsCmd(testApp(nil, nil, indexer)))

	require.NoError(t, err)
	assert.Contains(t, out, "Documents:           3")
	assert.Contains(t, out, "Chunks:              12")
	assert.Contains(t, out, "text-embedding-3-small")
}

func TestIndexCmd_RequiresArgs(t *testing.T) {
	_, err := execute(t, newIndexCmd(testApp(nil, nil, &mockIndexService{})))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestIndexCmd_IndexesDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.md"), []byte("# Deploy\n\nSteps."), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("plain notes"), 0o644))
	indexer := &mockIndexService{}

	out, err := execute(t, newIndexCmd(testApp(nil, nil, indexer)), dir)

	require.NoError(t, err)
	assert.Len(t, indexer.batched, 2)
	assert.Contains(t, out, "Indexed 2 document(s), 0 deduplicated, 0 failed.")
}

type fakeConnector struct {
	docs []domain.RawDocument
	errs []error
}

func (f *fakeConnector) Type() string                     { return domain.SourceGitHub }
func (f *fakeConnector) Validate(_ context.Context) error { return nil }
func (f *fakeConnector) Close() error                     { return nil }

func (f *fakeConnector) Fetch(_ context.Context) (<-chan domain.RawDocument, <-chan error) {
	docs := make(chan domain.RawDocument, len(f.docs))
	errs := make(chan error, len(f.errs))
	for _, d := range f.docs {
		docs <- d
	}
	for _, e := range f.errs {
		errs <- e
	}
	close(docs)
	close(errs)
	return docs, errs
}

func TestRunSync_CountsOutcomes(t *testing.T) {
	indexer := &mockIndexService{}
	a := testApp(nil, nil, indexer)
	conn := &fakeConnector{docs: []domain.RawDocument{
		{Source: domain.SourceGitHub, URI: "github://org/repo/a.md", Content: "a"},
		{Source: domain.SourceGitHub, URI: "github://org/repo/b.md", Content: "b"},
	}}

	cmd := &cobra.Command{RunE: func(cmd *cobra.Command, _ []string) error {
		return runSync(cmd, a, conn)
	}}
	out, err := execute(t, cmd)

	require.NoError(t, err)
	assert.Contains(t, out, "Sync complete: 2 indexed, 0 unchanged, 0 failed.")
}

func TestRunSync_ReportsFailures(t *testing.T) {
	indexer := &mockIndexService{indexErr: errors.New("embed down")}
	a := testApp(nil, nil, indexer)
	conn := &fakeConnector{docs: []domain.RawDocument{
		{Source: domain.SourceGitHub, URI: "github://org/repo/a.md", Content: "a"},
	}}

	cmd := &cobra.Command{RunE: func(cmd *cobra.Command, _ []string) error {
		return runSync(cmd, a, conn)
	}}
	out, err := execute(t, cmd)

	require.NoError(t, err)
	assert.Contains(t, out, "Sync complete: 0 indexed, 0 unchanged, 1 failed.")
}

func TestCollectDocuments(t *testing.T) {
	conn := &fakeConnector{
		docs: []domain.RawDocument{{URI: "file:///a.md"}, {URI: "file:///b.md"}},
		errs: []error{errors.New("skipped one")},
	}
	docs, errs := conn.Fetch(context.Background())

	raws := collectDocuments(docs, errs)

	assert.Len(t, raws, 2)
}
