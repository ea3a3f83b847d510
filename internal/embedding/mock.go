package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockClient derives a stable unit vector from the text, for local runs and
// tests. Equal text always yields an equal vector.
type MockClient struct {
	dims int
}

func NewMockClient() *MockClient {
	return &MockClient{dims: Dimensions}
}

func (c *MockClient) Embed(_ context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, c.dims)
	var norm float64
	for i := range vec {
		// xorshift64
		seed ^= seed << 13
		seed ^= seed >> 7
		seed ^= seed << 17
		v := float64(seed%2001)/1000 - 1
		vec[i] = float32(v)
		norm += v * v
	}
	if norm == 0 {
		return vec, nil
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= scale
	}
	return vec, nil
}
