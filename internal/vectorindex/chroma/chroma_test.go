package chroma

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"lumeni-retrieval/internal/vectorindex"
)

// fakeChroma records requests against the subset of the Chroma HTTP API the
// adapter uses.
type fakeChroma struct {
	mux       *http.ServeMux
	added     []map[string]any
	deleted   []map[string]any
	queryResp map[string]any
}

func newFakeChroma(t *testing.T) (*fakeChroma, *httptest.Server) {
	t.Helper()
	f := &fakeChroma{mux: http.NewServeMux()}
	f.mux.HandleFunc("/api/v1/collections", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": "col-1"})
	})
	f.mux.HandleFunc("/api/v1/collections/col-1/add", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.added = append(f.added, body)
		w.Write([]byte("true"))
	})
	f.mux.HandleFunc("/api/v1/collections/col-1/delete", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.deleted = append(f.deleted, body)
		w.Write([]byte("[]"))
	})
	f.mux.HandleFunc("/api/v1/collections/col-1/query", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.queryResp)
	})
	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func TestOpen_EnsuresCollection(t *testing.T) {
	_, srv := newFakeChroma(t)
	idx, err := Open(context.Background(), Config{URL: srv.URL})
	require.NoError(t, err)
	require.Equal(t, "col-1", idx.collectionID)
	require.Equal(t, DefaultCollection, idx.collection)
}

func TestOpen_NoURL(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	require.Error(t, err)
}

func TestIndex_Upsert(t *testing.T) {
	f, srv := newFakeChroma(t)
	idx, err := Open(context.Background(), Config{URL: srv.URL})
	require.NoError(t, err)

	err = idx.Upsert(context.Background(), []vectorindex.Entry{
		{
			ID:     "12-0-abc",
			Vector: []float64{0.1, 0.2},
			Metadata: vectorindex.Metadata{
				ModuleID: 3, MaterialID: 12, ChunkIndex: 0,
				Tag: "lecture", Source: "intro.pdf",
			},
			Text: "chunk text",
		},
	})
	require.NoError(t, err)
	require.Len(t, f.added, 1)

	added := f.added[0]
	require.Equal(t, []any{"12-0-abc"}, added["ids"])
	require.Equal(t, []any{"chunk text"}, added["documents"])
	metas := added["metadatas"].([]any)
	meta := metas[0].(map[string]any)
	require.Equal(t, float64(3), meta["module_id"])
	require.Equal(t, float64(12), meta["material_id"])
	require.Equal(t, "lecture", meta["tag"])
	require.Equal(t, "intro.pdf", meta["source"])
}

func TestIndex_DeleteWhere(t *testing.T) {
	f, srv := newFakeChroma(t)
	idx, err := Open(context.Background(), Config{URL: srv.URL})
	require.NoError(t, err)

	err = idx.DeleteWhere(context.Background(), vectorindex.Filter{MaterialID: 12})
	require.NoError(t, err)
	require.Len(t, f.deleted, 1)
	where := f.deleted[0]["where"].(map[string]any)
	require.Equal(t, float64(12), where["material_id"])
}

func TestIndex_DeleteWhere_RefusesUnfiltered(t *testing.T) {
	_, srv := newFakeChroma(t)
	idx, err := Open(context.Background(), Config{URL: srv.URL})
	require.NoError(t, err)

	require.Error(t, idx.DeleteWhere(context.Background(), vectorindex.Filter{}))
}

func TestIndex_Query(t *testing.T) {
	f, srv := newFakeChroma(t)
	f.queryResp = map[string]any{
		"ids":       [][]string{{"12-0-abc", "12-1-def"}},
		"documents": [][]string{{"first chunk", "second chunk"}},
		"metadatas": [][]map[string]any{{
			{"module_id": 3, "material_id": 12, "chunk_index": 0, "tag": "lecture", "source": "intro.pdf"},
			{"module_id": 3, "material_id": 12, "chunk_index": 1, "tag": "lecture", "source": "intro.pdf"},
		}},
		"distances": [][]float64{{0.0, 0.25}},
	}
	idx, err := Open(context.Background(), Config{URL: srv.URL})
	require.NoError(t, err)

	matches, err := idx.Query(context.Background(), []float64{1, 0}, 5, vectorindex.Filter{ModuleID: 3})
	require.NoError(t, err)
	require.Len(t, matches, 2)
	require.Equal(t, "first chunk", matches[0].Entry.Text)
	require.InDelta(t, 1.0, matches[0].Score, 1e-9)
	require.InDelta(t, 0.75, matches[1].Score, 1e-9)
	require.Equal(t, int64(12), matches[0].Entry.Metadata.MaterialID)
	require.Equal(t, "lecture", matches[0].Entry.Metadata.Tag)
}

func TestEncodeFilter(t *testing.T) {
	require.Nil(t, encodeFilter(vectorindex.Filter{}))

	one := encodeFilter(vectorindex.Filter{ModuleID: 5})
	require.Equal(t, map[string]any{"module_id": int64(5)}, one)

	both := encodeFilter(vectorindex.Filter{ModuleID: 5, MaterialID: 9})
	require.Contains(t, both, "$and")
}
