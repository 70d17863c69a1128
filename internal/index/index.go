// Package index provides in-memory exemplar retrieval. Trained samples
// and their embeddings are held in index-aligned slices; queries rank
// exemplars by cosine similarity against the query vector.
package index

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"mirrorme/internal/embedding"
	"mirrorme/internal/logging"
	"mirrorme/internal/types"
)

// =============================================================================
// EXEMPLAR INDEX
// =============================================================================

// DefaultThreshold is the minimum cosine similarity for a match.
const DefaultThreshold = 0.30

// DefaultTopK is the maximum number of exemplars returned per query.
const DefaultTopK = 5

// Match is a retrieved exemplar with its similarity score.
type Match struct {
	Text       string
	Similarity float64
}

// ExemplarIndex holds trained exemplar texts alongside their embeddings.
// Texts and vectors are index-aligned; a rebuild replaces both slices as
// one unit so readers never observe a partial update.
type ExemplarIndex struct {
	mu      sync.RWMutex
	engine  embedding.Engine
	texts   []string
	vectors [][]float32

	threshold float64
	topK      int
}

// New creates an empty index backed by the given embedding engine.
func New(engine embedding.Engine) *ExemplarIndex {
	return &ExemplarIndex{
		engine:    engine,
		threshold: DefaultThreshold,
		topK:      DefaultTopK,
	}
}

// Rebuild replaces the index contents with the given samples and their
// precomputed vectors. Samples without a vector are skipped.
func (x *ExemplarIndex) Rebuild(samples []types.TrainingSample, vectors [][]float32) error {
	if len(samples) != len(vectors) {
		return fmt.Errorf("sample/vector count mismatch: %d != %d", len(samples), len(vectors))
	}

	texts := make([]string, 0, len(samples))
	vecs := make([][]float32, 0, len(vectors))
	for i, s := range samples {
		if len(vectors[i]) == 0 {
			continue
		}
		texts = append(texts, s.Content)
		vecs = append(vecs, vectors[i])
	}

	x.mu.Lock()
	x.texts = texts
	x.vectors = vecs
	x.mu.Unlock()

	logging.Index("exemplar index rebuilt: %d entries", len(texts))
	return nil
}

// Size returns the number of indexed exemplars.
func (x *ExemplarIndex) Size() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.texts)
}

// Search embeds the query and returns up to topK exemplars above the
// similarity threshold, ordered by similarity descending. Ties keep
// the lower index first.
func (x *ExemplarIndex) Search(ctx context.Context, query string) ([]Match, error) {
	queryVec, err := x.engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return x.SearchVector(queryVec)
}

// SearchVector ranks indexed exemplars against an already-computed
// query vector.
func (x *ExemplarIndex) SearchVector(queryVec []float32) ([]Match, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	type scored struct {
		idx int
		sim float64
	}

	candidates := make([]scored, 0, len(x.vectors))
	for i, vec := range x.vectors {
		sim, err := embedding.CosineSimilarity(queryVec, vec)
		if err != nil {
			return nil, fmt.Errorf("exemplar %d: %w", i, err)
		}
		if sim > x.threshold {
			candidates = append(candidates, scored{idx: i, sim: sim})
		}
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].sim > candidates[b].sim
	})

	if len(candidates) > x.topK {
		candidates = candidates[:x.topK]
	}

	matches := make([]Match, len(candidates))
	for i, c := range candidates {
		matches[i] = Match{Text: x.texts[c.idx], Similarity: c.sim}
	}

	logging.Index("search returned %d/%d exemplars above %.2f",
		len(matches), len(x.vectors), x.threshold)
	return matches, nil
}
