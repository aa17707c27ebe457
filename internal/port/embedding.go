package port

import "context"

// EmbeddingProvider abstracts the vector-embedding backend. Implementations
// must be safe for concurrent use; the composition root constructs one
// provider for the whole process.
type EmbeddingProvider interface {
	// ModelName returns the identifier of the embedding model/deployment.
	ModelName() string

	// EmbedBatch generates one L2-normalized vector per input text,
	// preserving input order. An empty input yields an empty result without
	// touching the network.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
