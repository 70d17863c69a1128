package store

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"mirrorme/internal/embedding"
	"mirrorme/internal/logging"
	"mirrorme/internal/types"
)

// =============================================================================
// SQLITE-VEC EXEMPLAR INDEX
// =============================================================================

// syncVecIndex rebuilds the vec0 side table from a freshly replaced
// exemplar set. Every step is non-fatal: when the sqlite-vec extension
// is not loaded (plain builds without the sqlite_vec tag), similarity
// search falls back to the JSON embeddings. Callers hold s.mu.
func (s *Store) syncVecIndex(samples []types.TrainingSample, vectors [][]float32) {
	// Dropping and recreating handles engine switches that change the
	// vector dimensionality between training runs.
	if _, err := s.db.Exec(`DROP TABLE IF EXISTS vec_exemplars`); err != nil {
		logging.Get(logging.CategoryStore).Warn("failed to drop vec_exemplars: %v", err)
		return
	}

	dims := 0
	for _, vec := range vectors {
		if len(vec) > 0 {
			dims = len(vec)
			break
		}
	}
	if dims == 0 {
		return
	}

	vecTable := fmt.Sprintf(`
	CREATE VIRTUAL TABLE IF NOT EXISTS vec_exemplars USING vec0(
		embedding float[%d],
		exemplar_id TEXT
	);
	`, dims)
	if _, err := s.db.Exec(vecTable); err != nil {
		logging.Get(logging.CategoryStore).Warn("failed to create vec_exemplars (sqlite-vec may not be available): %v", err)
		return
	}

	inserted := 0
	for i, sample := range samples {
		if len(vectors[i]) != dims {
			continue
		}
		if _, err := s.db.Exec(
			`INSERT INTO vec_exemplars (embedding, exemplar_id) VALUES (?, ?)`,
			encodeFloat32Blob(vectors[i]), sample.ID,
		); err != nil {
			logging.Get(logging.CategoryStore).Warn("failed to insert into vec_exemplars: %v", err)
			return
		}
		inserted++
	}
	logging.StoreDebug("vec_exemplars rebuilt: %d vectors, %d dims", inserted, dims)
}

// ExemplarMatch is a persisted exemplar ranked against a query vector.
type ExemplarMatch struct {
	Sample     types.TrainingSample
	Similarity float64
}

// SearchExemplars returns up to topK persisted exemplars most similar
// to the query vector, best first. Uses the vec0 table when available
// and falls back to a brute-force pass over the JSON embeddings.
func (s *Store) SearchExemplars(queryVec []float32, topK int) ([]ExemplarMatch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if topK <= 0 {
		topK = 5
	}

	matches, err := s.searchExemplarsVec(queryVec, topK)
	if err != nil {
		logging.StoreDebug("falling back to brute-force exemplar search: %v", err)
		return s.searchExemplarsBrute(queryVec, topK)
	}
	return matches, nil
}

// searchExemplarsVec ranks exemplars database-side with sqlite-vec.
func (s *Store) searchExemplarsVec(queryVec []float32, topK int) ([]ExemplarMatch, error) {
	rows, err := s.db.Query(`
		SELECT e.id, e.content, e.context, e.platform, e.created_at,
		       vec_distance_cosine(v.embedding, ?) AS distance
		FROM vec_exemplars v
		JOIN exemplars e ON e.id = v.exemplar_id
		ORDER BY distance ASC
		LIMIT ?`,
		encodeFloat32Blob(queryVec), topK,
	)
	if err != nil {
		return nil, fmt.Errorf("vec search failed: %w", err)
	}
	defer rows.Close()

	var out []ExemplarMatch
	for rows.Next() {
		var m ExemplarMatch
		var platform string
		var distance float64
		if err := rows.Scan(&m.Sample.ID, &m.Sample.Content, &m.Sample.Context, &platform, &m.Sample.Timestamp, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan vec match: %w", err)
		}
		m.Sample.Platform = types.Platform(platform)
		m.Similarity = 1 - distance
		out = append(out, m)
	}
	return out, rows.Err()
}

// searchExemplarsBrute ranks all persisted exemplars in Go.
func (s *Store) searchExemplarsBrute(queryVec []float32, topK int) ([]ExemplarMatch, error) {
	rows, err := s.db.Query(
		`SELECT id, content, context, platform, embedding, created_at FROM exemplars WHERE embedding IS NOT NULL`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query exemplars: %w", err)
	}
	defer rows.Close()

	var out []ExemplarMatch
	for rows.Next() {
		var sample types.TrainingSample
		var platform string
		var embJSON sql.NullString
		var ts time.Time
		if err := rows.Scan(&sample.ID, &sample.Content, &sample.Context, &platform, &embJSON, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan exemplar: %w", err)
		}
		sample.Platform = types.Platform(platform)
		sample.Timestamp = ts

		var vec []float32
		if err := json.Unmarshal([]byte(embJSON.String), &vec); err != nil {
			return nil, fmt.Errorf("failed to parse embedding for %s: %w", sample.ID, err)
		}
		sim, err := embedding.CosineSimilarity(queryVec, vec)
		if err != nil {
			return nil, fmt.Errorf("exemplar %s: %w", sample.ID, err)
		}
		out = append(out, ExemplarMatch{Sample: sample, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(a, b int) bool {
		return out[a].Similarity > out[b].Similarity
	})
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// encodeFloat32Blob serializes a vector the way sqlite-vec expects,
// 4 little-endian bytes per component.
func encodeFloat32Blob(vec []float32) []byte {
	buf := &bytes.Buffer{}
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil
	}
	return buf.Bytes()
}
