package semindex

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/jmoiron/sqlx"
	"github.com/pgvector/pgvector-go"

	"plutus/internal/adapters/embeddings"
	"plutus/internal/domain/portfolio"
	"plutus/pkg/errors"
	"plutus/pkg/logger"
)

// Compile-time check
var _ Index = (*PostgresIndex)(nil)

// PostgresIndex stores position embeddings in Postgres with pgvector and
// searches by cosine similarity.
type PostgresIndex struct {
	db       *sqlx.DB
	embedder embeddings.Provider
	log      *logger.Logger
}

// NewPostgresIndex creates a pgvector-backed semantic index.
func NewPostgresIndex(db *sqlx.DB, embedder embeddings.Provider) *PostgresIndex {
	return &PostgresIndex{
		db:       db,
		embedder: embedder,
		log:      logger.Get().With("component", "semindex"),
	}
}

// EnsureSchema creates the embeddings table if missing.
func (ix *PostgresIndex) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE EXTENSION IF NOT EXISTS vector;
		CREATE TABLE IF NOT EXISTS position_embeddings (
			ticker     TEXT PRIMARY KEY,
			document   TEXT NOT NULL,
			position   JSONB NOT NULL,
			embedding  VECTOR(` + dims(ix.embedder) + `) NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`
	if _, err := ix.db.ExecContext(ctx, query); err != nil {
		return errors.Wrap(err, "ensure position_embeddings schema")
	}
	return nil
}

type matchRow struct {
	Ticker   string  `db:"ticker"`
	Position []byte  `db:"position"`
	Score    float64 `db:"score"`
}

// Search embeds the query and returns the closest positions by cosine
// similarity.
func (ix *PostgresIndex) Search(ctx context.Context, query string, topK int) ([]Match, error) {
	if query == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "query cannot be empty")
	}
	if topK <= 0 {
		topK = 5
	}

	embedding, err := ix.embedder.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "embed search query")
	}

	var rows []matchRow
	sqlQuery := `
		SELECT ticker, position, 1 - (embedding <=> $1) AS score
		FROM position_embeddings
		ORDER BY embedding <=> $1
		LIMIT $2`

	if err := ix.db.SelectContext(ctx, &rows, sqlQuery, pgvector.NewVector(embedding), topK); err != nil {
		return nil, errors.Wrap(err, "search position embeddings")
	}

	matches := make([]Match, 0, len(rows))
	for _, row := range rows {
		var p portfolio.Position
		if err := json.Unmarshal(row.Position, &p); err != nil {
			ix.log.Warnw("skipping corrupt index row", "ticker", row.Ticker, "error", err)
			continue
		}
		matches = append(matches, Match{Position: p, Score: row.Score})
	}
	return matches, nil
}

// Reindex replaces the index contents with exactly the given positions.
// Embeddings are generated in one batch call.
func (ix *PostgresIndex) Reindex(ctx context.Context, positions []portfolio.Position) error {
	if len(positions) == 0 {
		if _, err := ix.db.ExecContext(ctx, `DELETE FROM position_embeddings`); err != nil {
			return errors.Wrap(err, "clear position embeddings")
		}
		return nil
	}

	documents := make([]string, len(positions))
	for i, p := range positions {
		documents[i] = renderDocument(p)
	}

	vectors, err := ix.embedder.GenerateBatchEmbeddings(ctx, documents)
	if err != nil {
		return errors.Wrap(err, "embed position documents")
	}

	tx, err := ix.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin reindex transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM position_embeddings`); err != nil {
		return errors.Wrap(err, "clear position embeddings")
	}

	insert := `
		INSERT INTO position_embeddings (ticker, document, position, embedding, updated_at)
		VALUES ($1, $2, $3, $4, NOW())`

	for i, p := range positions {
		positionJSON, err := json.Marshal(p)
		if err != nil {
			return errors.Wrapf(err, "marshal position %s", p.Ticker)
		}
		if _, err := tx.ExecContext(ctx, insert,
			p.Ticker, documents[i], positionJSON, pgvector.NewVector(vectors[i])); err != nil {
			return errors.Wrapf(err, "insert embedding for %s", p.Ticker)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit reindex transaction")
	}

	ix.log.Infow("reindexed portfolio", "positions", len(positions))
	return nil
}

func dims(p embeddings.Provider) string {
	d := p.Dimensions()
	if d <= 0 {
		d = 1536
	}
	return strconv.Itoa(d)
}
