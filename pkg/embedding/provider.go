package embedding

import "context"

// Provider generates a fixed-length vector representation of a text.
// Implementations are expected to block on network I/O and must honor
// context cancellation.
type Provider interface {
	Generate(ctx context.Context, text string) ([]float32, error)
}
