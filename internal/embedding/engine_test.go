package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCosineSimilarityIdentical(t *testing.T) {
	a := []float32{1, 2, 3}
	sim, err := CosineSimilarity(a, a)
	if err != nil {
		t.Fatalf("CosineSimilarity failed: %v", err)
	}
	if math.Abs(sim-1.0) > 1e-9 {
		t.Errorf("similarity = %v, want 1.0", sim)
	}
}

func TestCosineSimilarityOrthogonal(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 0}, []float32{0, 1})
	if err != nil {
		t.Fatalf("CosineSimilarity failed: %v", err)
	}
	if math.Abs(sim) > 1e-9 {
		t.Errorf("similarity = %v, want 0", sim)
	}
}

func TestCosineSimilarityOpposite(t *testing.T) {
	sim, err := CosineSimilarity([]float32{1, 1}, []float32{-1, -1})
	if err != nil {
		t.Fatalf("CosineSimilarity failed: %v", err)
	}
	if math.Abs(sim+1.0) > 1e-9 {
		t.Errorf("similarity = %v, want -1.0", sim)
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	sim, err := CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3})
	if err != nil {
		t.Fatalf("CosineSimilarity failed: %v", err)
	}
	if sim != 0 {
		t.Errorf("similarity = %v, want 0 for zero-magnitude vector", sim)
	}
}

func TestCosineSimilarityLengthMismatch(t *testing.T) {
	if _, err := CosineSimilarity([]float32{1}, []float32{1, 2}); err == nil {
		t.Error("expected error for mismatched vector lengths")
	}
}

func TestNewEngineUnsupportedProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "watson"
	if _, err := NewEngine(cfg); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestNewEngineOllama(t *testing.T) {
	cfg := DefaultConfig()
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	if engine.Name() != "ollama:embeddinggemma" {
		t.Errorf("Name = %q, want ollama:embeddinggemma", engine.Name())
	}
	if engine.Dimensions() != 768 {
		t.Errorf("Dimensions = %d, want 768", engine.Dimensions())
	}
}

func TestOllamaEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embeddings" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "embeddinggemma" {
			t.Errorf("model = %q, want embeddinggemma", req.Model)
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	}))
	defer server.Close()

	engine, err := NewOllamaEngine(server.URL, "")
	if err != nil {
		t.Fatalf("NewOllamaEngine failed: %v", err)
	}

	vec, err := engine.Embed(context.Background(), "hello world")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 3 || vec[0] != 0.1 {
		t.Errorf("embedding = %v", vec)
	}
}

func TestOllamaEmbedBatchSequential(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{float32(calls)}})
	}))
	defer server.Close()

	engine, _ := NewOllamaEngine(server.URL, "embeddinggemma")
	vecs, err := engine.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedBatch failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("server calls = %d, want 3", calls)
	}
	if len(vecs) != 3 || vecs[2][0] != 3 {
		t.Errorf("embeddings = %v", vecs)
	}
}

func TestOllamaEmbedServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	engine, _ := NewOllamaEngine(server.URL, "missing")
	if _, err := engine.Embed(context.Background(), "x"); err == nil {
		t.Error("expected error for non-200 response")
	}
}
