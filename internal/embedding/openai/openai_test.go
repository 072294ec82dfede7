package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	t.Setenv("TEST_EMBED_KEY", "secret")
	c, err := NewClient(Config{BaseURL: baseURL, APIKeyEnv: "TEST_EMBED_KEY"})
	require.NoError(t, err)
	return c
}

func embedServer(t *testing.T, vectors map[string][]float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		type item struct {
			Index     int       `json:"index"`
			Embedding []float64 `json:"embedding"`
		}
		var data []item
		for i, text := range req.Input {
			if vec, ok := vectors[text]; ok {
				data = append(data, item{Index: i, Embedding: vec})
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"data": data})
	}))
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("TEST_EMBED_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "TEST_EMBED_KEY"})
	require.Error(t, err)
}

func TestClient_EmbedMany_PositionalCorrespondence(t *testing.T) {
	srv := embedServer(t, map[string][]float64{
		"alpha": {1, 0},
		"beta":  {0, 1},
	})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	vectors, err := c.EmbedMany(context.Background(), []string{"alpha", "   ", "beta"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	require.Equal(t, []float64{1, 0}, vectors[0])
	require.Nil(t, vectors[1], "blank input keeps a nil placeholder")
	require.Equal(t, []float64{0, 1}, vectors[2])
	require.Equal(t, 2, c.Dimension())
}

func TestClient_EmbedMany_AllBlank(t *testing.T) {
	srv := embedServer(t, nil)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	vectors, err := c.EmbedMany(context.Background(), []string{"", "  "})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	require.Nil(t, vectors[0])
	require.Nil(t, vectors[1])
}

func TestClient_EmbedMany_MissingItemStaysNil(t *testing.T) {
	srv := embedServer(t, map[string][]float64{"known": {1, 2, 3}})
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	vectors, err := c.EmbedMany(context.Background(), []string{"known", "unknown"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	require.NotNil(t, vectors[0])
	require.Nil(t, vectors[1])
}

func TestClient_Embed_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{"index": 0, "embedding": []float64{0.5, 0.5}}},
		})
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	vec, err := c.Embed(context.Background(), "retry me")
	require.NoError(t, err)
	require.Equal(t, []float64{0.5, 0.5}, vec)
	require.Equal(t, int32(2), calls.Load())
}

func TestClient_Embed_ClientErrorIsFatal(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Embed(context.Background(), "text")
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load(), "4xx responses are not retried")
}
