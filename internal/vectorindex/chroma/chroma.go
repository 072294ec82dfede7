// Package chroma is a minimal REST client for a Chroma collection
// implementing the vector index contract. The collection is created with
// cosine space if it does not exist.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"lumeni-retrieval/internal/vectorindex"
)

// DefaultCollection is the collection name used when none is configured.
const DefaultCollection = "module_materials"

// Config contains connection details for a Chroma server.
type Config struct {
	URL        string
	Collection string
	Timeout    time.Duration
}

var _ vectorindex.Index = (*Index)(nil)

// Index talks to one Chroma collection.
type Index struct {
	url          string
	collection   string
	collectionID string
	client       *http.Client
}

// Open connects to the server and ensures the collection exists. It is the
// single startup check for index availability: when it fails, callers run
// with a nil index and semantic retrieval is disabled.
func Open(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.URL == "" {
		return nil, errors.New("chroma: url not configured")
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	s := &Index{
		url:        cfg.URL,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}

	var resp struct {
		ID string `json:"id"`
	}
	body := map[string]any{
		"name":          s.collection,
		"get_or_create": true,
		"metadata":      map[string]any{"hnsw:space": "cosine"},
	}
	if err := s.postJSON(ctx, fmt.Sprintf("%s/api/v1/collections", s.url), body, &resp); err != nil {
		return nil, fmt.Errorf("chroma: ensure collection %s: %w", s.collection, err)
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("chroma: collection %s has no id", s.collection)
	}
	s.collectionID = resp.ID
	return s, nil
}

func (s *Index) Upsert(ctx context.Context, entries []vectorindex.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]string, len(entries))
	embeddings := make([][]float64, len(entries))
	metadatas := make([]map[string]any, len(entries))
	documents := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
		embeddings[i] = e.Vector
		metadatas[i] = encodeMetadata(e.Metadata)
		documents[i] = e.Text
	}
	body := map[string]any{
		"ids":        ids,
		"embeddings": embeddings,
		"metadatas":  metadatas,
		"documents":  documents,
	}
	return s.postJSON(ctx, s.collectionURL("add"), body, nil)
}

func (s *Index) DeleteWhere(ctx context.Context, f vectorindex.Filter) error {
	where := encodeFilter(f)
	if where == nil {
		return errors.New("chroma: refusing unfiltered delete")
	}
	return s.postJSON(ctx, s.collectionURL("delete"), map[string]any{"where": where}, nil)
}

func (s *Index) Query(ctx context.Context, vector []float64, k int, f vectorindex.Filter) ([]vectorindex.Match, error) {
	if k <= 0 {
		k = 5
	}
	body := map[string]any{
		"query_embeddings": [][]float64{vector},
		"n_results":        k,
		"include":          []string{"documents", "metadatas", "distances"},
	}
	if where := encodeFilter(f); where != nil {
		body["where"] = where
	}

	var resp struct {
		IDs       [][]string         `json:"ids"`
		Documents [][]string         `json:"documents"`
		Metadatas [][]map[string]any `json:"metadatas"`
		Distances [][]float64        `json:"distances"`
	}
	if err := s.postJSON(ctx, s.collectionURL("query"), body, &resp); err != nil {
		return nil, err
	}
	if len(resp.IDs) == 0 {
		return nil, nil
	}

	ids := resp.IDs[0]
	matches := make([]vectorindex.Match, 0, len(ids))
	for i, id := range ids {
		entry := vectorindex.Entry{ID: id}
		if len(resp.Documents) > 0 && i < len(resp.Documents[0]) {
			entry.Text = resp.Documents[0][i]
		}
		if len(resp.Metadatas) > 0 && i < len(resp.Metadatas[0]) {
			entry.Metadata = decodeMetadata(resp.Metadatas[0][i])
		}
		score := 0.0
		if len(resp.Distances) > 0 && i < len(resp.Distances[0]) {
			// cosine distance -> cosine similarity
			score = 1 - resp.Distances[0][i]
		}
		matches = append(matches, vectorindex.Match{Entry: entry, Score: score})
	}
	return matches, nil
}

func (s *Index) collectionURL(op string) string {
	return fmt.Sprintf("%s/api/v1/collections/%s/%s", s.url, s.collectionID, op)
}

func encodeMetadata(m vectorindex.Metadata) map[string]any {
	return map[string]any{
		"module_id":   m.ModuleID,
		"material_id": m.MaterialID,
		"chunk_index": m.ChunkIndex,
		"tag":         m.Tag,
		"source":      m.Source,
	}
}

func decodeMetadata(raw map[string]any) vectorindex.Metadata {
	var m vectorindex.Metadata
	if v, ok := raw["module_id"].(float64); ok {
		m.ModuleID = int64(v)
	}
	if v, ok := raw["material_id"].(float64); ok {
		m.MaterialID = int64(v)
	}
	if v, ok := raw["chunk_index"].(float64); ok {
		m.ChunkIndex = int(v)
	}
	if v, ok := raw["tag"].(string); ok {
		m.Tag = v
	}
	if v, ok := raw["source"].(string); ok {
		m.Source = v
	}
	return m
}

func encodeFilter(f vectorindex.Filter) map[string]any {
	var clauses []map[string]any
	if f.ModuleID != 0 {
		clauses = append(clauses, map[string]any{"module_id": f.ModuleID})
	}
	if f.MaterialID != 0 {
		clauses = append(clauses, map[string]any{"material_id": f.MaterialID})
	}
	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		return map[string]any{"$and": clauses}
	}
}

func (s *Index) postJSON(ctx context.Context, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("chroma POST %s failed: %s", url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
