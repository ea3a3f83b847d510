package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	c, err := NewClient(ProviderMock, "")
	require.NoError(t, err)
	assert.IsType(t, &MockClient{}, c)

	_, err = NewClient(ProviderOpenAI, "")
	assert.Error(t, err)

	_, err = NewClient("cohere", "key")
	assert.ErrorContains(t, err, "unknown embedding provider")
}

func TestMockClient_Deterministic(t *testing.T) {
	ctx := context.Background()
	c := NewMockClient()

	a, err := c.Embed(ctx, "goal run 5k")
	require.NoError(t, err)
	b, err := c.Embed(ctx, "goal run 5k")
	require.NoError(t, err)
	other, err := c.Embed(ctx, "goal save money")
	require.NoError(t, err)

	assert.Len(t, a, Dimensions)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, other)

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-3)
}

func TestOpenAIClient_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req embeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, model, req.Model)
		assert.Equal(t, "hello", req.Input)

		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	vec, err := NewOpenAIClient("sk-test").WithBaseURL(srv.URL).Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestOpenAIClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer srv.Close()

	_, err := NewOpenAIClient("sk-test").WithBaseURL(srv.URL).Embed(context.Background(), "hello")
	assert.ErrorContains(t, err, "status 429")
}
