package embeddings

import "context"

// MockGenerator is a configurable mock for testing.
type MockGenerator struct {
	// GenerateFunc is called when Generate is invoked.
	// If nil, returns a unit vector of the configured dimension.
	GenerateFunc func(ctx context.Context, text string) ([]float32, error)

	// Dim is returned by Dimensions. Defaults to 1536.
	Dim int

	// GenerateCalls tracks invocations for verification.
	GenerateCalls int
}

// Generate implements Generator.
func (m *MockGenerator) Generate(ctx context.Context, text string) ([]float32, error) {
	m.GenerateCalls++
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, text)
	}
	v := make([]float32, m.Dimensions())
	v[0] = 1
	return v, nil
}

// Dimensions implements Generator.
func (m *MockGenerator) Dimensions() int {
	if m.Dim == 0 {
		return 1536
	}
	return m.Dim
}

var _ Generator = (*MockGenerator)(nil)
