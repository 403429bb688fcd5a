package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver

	"github.com/docpilot-labs/docpilot/internal/adapters/driven/storage/postgres/migrations"
	"github.com/docpilot-labs/docpilot/internal/core/domain"
	"github.com/docpilot-labs/docpilot/internal/core/ports/driven"
)

var (
	_ driven.DocumentStore  = (*Store)(nil)
	_ driven.VectorSearcher = (*Store)(nil)
)

// EmbeddingDim is the fixed dimensionality of the chunks.embedding
// column declared in the schema.
const EmbeddingDim = 768

// ValidateEmbeddingDim checks an embedder's output size against the
// schema's vector(768) column before any chunk is written. pgvector
// rejects inserts of a different length, so a mismatched provider
// would otherwise fail on the first ingested chunk.
func ValidateEmbeddingDim(dims int) error {
	if dims != EmbeddingDim {
		return fmt.Errorf(
			"embedding dimension %d does not match the vector(%d) schema; use a %d-dimension model such as text-embedding-004 (vertex provider)",
			dims, EmbeddingDim, EmbeddingDim)
	}
	return nil
}

// Store is a Postgres-backed document store and vector searcher.
type Store struct {
	db *sql.DB
}

// NewStore opens a connection pool to the given DSN and runs pending
// migrations. The target database needs the pgvector extension
// available.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// InsertDocument stores a document keyed by content hash. Concurrent
// inserts of identical content race on the unique constraint; the
// loser reads back the winner's row.
func (s *Store) InsertDocument(ctx context.Context, doc *domain.Document) (*domain.Document, bool, error) {
	meta, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return nil, false, fmt.Errorf("marshaling metadata: %w", err)
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO documents (source, uri, title, mime_type, content_hash, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (content_hash) DO NOTHING
		RETURNING id, created_at
	`, doc.Source, doc.URI, doc.Title, doc.MIME, doc.ContentHash, meta)

	stored := *doc
	err = row.Scan(&stored.ID, &stored.CreatedAt)
	if err == nil {
		return &stored, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("inserting document: %w", err)
	}

	existing, err := s.GetDocumentByHash(ctx, doc.ContentHash)
	if err != nil {
		return nil, false, fmt.Errorf("loading existing document: %w", err)
	}
	return existing, false, nil
}

// SaveChunks stores all chunks in one transaction.
func (s *Store) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (document_id, position, text, token_count, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5::vector, $6)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		meta, err := marshalMetadata(c.Metadata)
		if err != nil {
			return fmt.Errorf("marshaling chunk metadata: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, c.DocID, c.Position, c.Text, c.TokenCount, vectorToString(c.Embedding), meta); err != nil {
			return fmt.Errorf("inserting chunk %d of document %d: %w", c.Position, c.DocID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing chunks: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id int64) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, uri, title, mime_type, content_hash, metadata, created_at
		FROM documents WHERE id = $1
	`, id)
	return scanDocument(row)
}

// GetDocumentByHash retrieves a document by content hash.
func (s *Store) GetDocumentByHash(ctx context.Context, hash string) (*domain.Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source, uri, title, mime_type, content_hash, metadata, created_at
		FROM documents WHERE content_hash = $1
	`, hash)
	return scanDocument(row)
}

// DeleteDocument removes a document. Chunks cascade.
func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting document %d: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: document %d", domain.ErrNotFound, id)
	}
	return nil
}

// Stats reports document and chunk counts.
func (s *Store) Stats(ctx context.Context) (domain.Stats, error) {
	var stats domain.Stats
	row := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM documents),
			(SELECT COUNT(*) FROM chunks)
	`)
	if err := row.Scan(&stats.Documents, &stats.Chunks); err != nil {
		return domain.Stats{}, fmt.Errorf("counting corpus: %w", err)
	}
	return stats, nil
}

// NearestChunks runs an L2 nearest-neighbour scan over chunk
// embeddings, joining each hit with its document.
func (s *Store) NearestChunks(ctx context.Context, embedding []float32, k int) ([]driven.VectorHit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			c.id, c.document_id, c.position, c.text, c.token_count, c.metadata, c.embedding::text,
			d.id, d.source, d.uri, d.title, d.mime_type, d.content_hash, d.metadata, d.created_at,
			c.embedding <-> $1::vector AS distance
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
		WHERE c.embedding IS NOT NULL
		ORDER BY distance, c.id
		LIMIT $2
	`, vectorToString(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("nearest neighbour query: %w", err)
	}
	defer rows.Close()

	var hits []driven.VectorHit
	for rows.Next() {
		var (
			hit       driven.VectorHit
			chunkMeta []byte
			docMeta   []byte
			rawVector string
		)
		if err := rows.Scan(
			&hit.Chunk.ID, &hit.Chunk.DocID, &hit.Chunk.Position, &hit.Chunk.Text, &hit.Chunk.TokenCount, &chunkMeta, &rawVector,
			&hit.Document.ID, &hit.Document.Source, &hit.Document.URI, &hit.Document.Title, &hit.Document.MIME,
			&hit.Document.ContentHash, &docMeta, &hit.Document.CreatedAt,
			&hit.Distance,
		); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		if hit.Chunk.Embedding, err = parseVector(rawVector); err != nil {
			return nil, fmt.Errorf("parsing embedding: %w", err)
		}
		if hit.Chunk.Metadata, err = unmarshalMetadata(chunkMeta); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
		if hit.Document.Metadata, err = unmarshalMetadata(docMeta); err != nil {
			return nil, fmt.Errorf("unmarshaling document metadata: %w", err)
		}
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}
	return hits, nil
}

func scanDocument(row *sql.Row) (*domain.Document, error) {
	var (
		doc  domain.Document
		meta []byte
	)
	err := row.Scan(&doc.ID, &doc.Source, &doc.URI, &doc.Title, &doc.MIME, &doc.ContentHash, &meta, &doc.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	if doc.Metadata, err = unmarshalMetadata(meta); err != nil {
		return nil, fmt.Errorf("unmarshaling document metadata: %w", err)
	}
	return &doc, nil
}

func marshalMetadata(meta map[string]any) ([]byte, error) {
	if meta == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(meta)
}

func unmarshalMetadata(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var meta map[string]any
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, err
	}
	if len(meta) == 0 {
		return nil, nil
	}
	return meta, nil
}
