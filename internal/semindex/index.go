package semindex

import (
	"context"

	"plutus/internal/domain/portfolio"
)

// Match is one semantic search hit.
type Match struct {
	Position portfolio.Position `json:"position"`
	Score    float64            `json:"score"` // cosine similarity in [0,1]
}

// Index provides semantic search over portfolio positions. The index is a
// mirror of the portfolio: Reindex replaces its contents with exactly the
// given set.
type Index interface {
	// Search returns the topK positions most relevant to the query,
	// ordered by descending similarity.
	Search(ctx context.Context, query string, topK int) ([]Match, error)

	// Reindex rebuilds the index from the given positions, removing
	// entries for positions no longer present.
	Reindex(ctx context.Context, positions []portfolio.Position) error
}
