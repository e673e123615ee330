package embeddings

import "context"

// Provider generates vector embeddings for text.
type Provider interface {
	// GenerateEmbedding creates a vector embedding for a single text.
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// GenerateBatchEmbeddings creates embeddings for multiple texts in one call.
	GenerateBatchEmbeddings(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the dimensionality of produced embeddings.
	Dimensions() int

	// Name returns the embedding model name.
	Name() string
}
