// Package store persists the twin's durable state in SQLite: the trained
// profile snapshot, exemplar texts with their embeddings, the consent
// audit trail, an archive of dispatched responses, the safety event log,
// and customized safety term sets. When the sqlite-vec extension is
// registered (sqlite_vec build tag), exemplar vectors additionally back
// a vec0 virtual table for database-side similarity search.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mirrorme/internal/logging"
	"mirrorme/internal/personality"
	"mirrorme/internal/types"
)

// Store wraps the SQLite database.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// New initializes the SQLite database at the given path.
func New(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("store opened at %s", path)
	return s, nil
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	profileTable := `
	CREATE TABLE IF NOT EXISTS profile (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		snapshot TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	exemplarTable := `
	CREATE TABLE IF NOT EXISTS exemplars (
		id TEXT PRIMARY KEY,
		content TEXT NOT NULL,
		context TEXT,
		platform TEXT,
		embedding TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_exemplars_platform ON exemplars(platform);
	`

	consentTable := `
	CREATE TABLE IF NOT EXISTS consent_audit (
		id TEXT PRIMARY KEY,
		sender TEXT NOT NULL,
		platform TEXT,
		action TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_consent_sender ON consent_audit(sender);
	`

	archiveTable := `
	CREATE TABLE IF NOT EXISTS response_archive (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		platform TEXT,
		sender TEXT,
		message TEXT,
		response TEXT,
		intent TEXT,
		mood TEXT,
		auto_reply INTEGER,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_archive_sender ON response_archive(sender);
	`

	eventTable := `
	CREATE TABLE IF NOT EXISTS safety_events (
		id TEXT PRIMARY KEY,
		sender TEXT,
		platform TEXT,
		message TEXT,
		response TEXT,
		safe INTEGER,
		reason TEXT,
		flags TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_safe ON safety_events(safe);
	`

	termTable := `
	CREATE TABLE IF NOT EXISTS safety_terms (
		kind TEXT NOT NULL,
		term TEXT NOT NULL,
		PRIMARY KEY (kind, term)
	);
	`

	for _, table := range []string{profileTable, exemplarTable, consentTable, archiveTable, eventTable, termTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// PROFILE SNAPSHOT
// =============================================================================

// modelSnapshot is the persisted form of a training run's output.
type modelSnapshot struct {
	Profile personality.Profile      `json:"profile"`
	Style   personality.StylePattern `json:"style"`
	Trained bool                     `json:"trained"`
}

// SaveProfile persists the trained profile and style pattern as one row.
func (s *Store) SaveProfile(profile personality.Profile, style personality.StylePattern, trained bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(modelSnapshot{Profile: profile, Style: style, Trained: trained})
	if err != nil {
		return fmt.Errorf("failed to serialize profile: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO profile (id, snapshot, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at`,
		string(data), time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	logging.Store("profile snapshot saved (trained=%v)", trained)
	return nil
}

// LoadProfile restores the persisted profile. The third return is false
// when no snapshot has been saved yet.
func (s *Store) LoadProfile() (personality.Profile, personality.StylePattern, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var data string
	err := s.db.QueryRow(`SELECT snapshot FROM profile WHERE id = 1`).Scan(&data)
	if err == sql.ErrNoRows {
		return personality.EmptyProfile(), personality.StylePattern{}, false, nil
	}
	if err != nil {
		return personality.EmptyProfile(), personality.StylePattern{}, false, fmt.Errorf("failed to load profile: %w", err)
	}

	var snap modelSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return personality.EmptyProfile(), personality.StylePattern{}, false, fmt.Errorf("failed to parse profile snapshot: %w", err)
	}
	return snap.Profile, snap.Style, snap.Trained, nil
}

// =============================================================================
// EXEMPLARS
// =============================================================================

// ReplaceExemplars swaps the whole exemplar table for a new training run.
// Samples and vectors must be index-aligned; the write is transactional.
func (s *Store) ReplaceExemplars(samples []types.TrainingSample, vectors [][]float32) error {
	if len(samples) != len(vectors) {
		return fmt.Errorf("sample/vector count mismatch: %d != %d", len(samples), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM exemplars`); err != nil {
		return fmt.Errorf("failed to clear exemplars: %w", err)
	}

	stmt, err := tx.Prepare(
		`INSERT INTO exemplars (id, content, context, platform, embedding, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, sample := range samples {
		var embJSON sql.NullString
		if len(vectors[i]) > 0 {
			data, err := json.Marshal(vectors[i])
			if err != nil {
				return fmt.Errorf("failed to serialize embedding %d: %w", i, err)
			}
			embJSON = sql.NullString{String: string(data), Valid: true}
		}

		ts := sample.Timestamp
		if ts.IsZero() {
			ts = time.Now()
		}
		if _, err := stmt.Exec(sample.ID, sample.Content, sample.Context, string(sample.Platform), embJSON, ts); err != nil {
			return fmt.Errorf("failed to insert exemplar: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit exemplars: %w", err)
	}

	s.syncVecIndex(samples, vectors)

	logging.Store("exemplar table replaced: %d rows", len(samples))
	return nil
}

// LoadExemplars returns all persisted exemplars with their vectors,
// index-aligned, in insertion order.
func (s *Store) LoadExemplars() ([]types.TrainingSample, [][]float32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, content, context, platform, embedding, created_at FROM exemplars ORDER BY rowid`,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query exemplars: %w", err)
	}
	defer rows.Close()

	var samples []types.TrainingSample
	var vectors [][]float32
	for rows.Next() {
		var sample types.TrainingSample
		var platform string
		var embJSON sql.NullString
		if err := rows.Scan(&sample.ID, &sample.Content, &sample.Context, &platform, &embJSON, &sample.Timestamp); err != nil {
			return nil, nil, fmt.Errorf("failed to scan exemplar: %w", err)
		}
		sample.Platform = types.Platform(platform)

		var vec []float32
		if embJSON.Valid {
			if err := json.Unmarshal([]byte(embJSON.String), &vec); err != nil {
				return nil, nil, fmt.Errorf("failed to parse embedding for %s: %w", sample.ID, err)
			}
		}
		samples = append(samples, sample)
		vectors = append(vectors, vec)
	}
	return samples, vectors, rows.Err()
}

// =============================================================================
// CONSENT AUDIT
// =============================================================================

// AppendConsentAction persists one consent audit entry.
func (s *Store) AppendConsentAction(a types.ConsentAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO consent_audit (id, sender, platform, action, created_at) VALUES (?, ?, ?, ?, ?)`,
		a.ID, a.Sender, string(a.Platform), a.Action, a.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append consent action: %w", err)
	}
	return nil
}

// LoadConsentAudit returns the full audit trail in insertion order.
func (s *Store) LoadConsentAudit() ([]types.ConsentAction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, sender, platform, action, created_at FROM consent_audit ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query consent audit: %w", err)
	}
	defer rows.Close()

	var out []types.ConsentAction
	for rows.Next() {
		var a types.ConsentAction
		var platform string
		if err := rows.Scan(&a.ID, &a.Sender, &platform, &a.Action, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan consent action: %w", err)
		}
		a.Platform = types.Platform(platform)
		out = append(out, a)
	}
	return out, rows.Err()
}

// =============================================================================
// SAFETY EVENTS
// =============================================================================

// AppendSafetyEvent persists one gate verdict.
func (s *Store) AppendSafetyEvent(e types.SafetyEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var flags sql.NullString
	if len(e.Flags) > 0 {
		data, err := json.Marshal(e.Flags)
		if err != nil {
			return fmt.Errorf("failed to serialize flags: %w", err)
		}
		flags = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO safety_events (id, sender, platform, message, response, safe, reason, flags, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Sender, string(e.Platform), e.Message, e.Response, e.Safe, e.Reason, flags, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append safety event: %w", err)
	}
	return nil
}

// RecentSafetyEvents returns up to limit persisted events, newest last.
func (s *Store) RecentSafetyEvents(limit int) ([]types.SafetyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(
		`SELECT id, sender, platform, message, response, safe, reason, flags, created_at
		 FROM (
			SELECT rowid AS rid, * FROM safety_events ORDER BY rowid DESC LIMIT ?
		 ) ORDER BY rid ASC`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query safety events: %w", err)
	}
	defer rows.Close()

	var out []types.SafetyEvent
	for rows.Next() {
		var e types.SafetyEvent
		var platform string
		var flags sql.NullString
		if err := rows.Scan(&e.ID, &e.Sender, &platform, &e.Message, &e.Response, &e.Safe, &e.Reason, &flags, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan safety event: %w", err)
		}
		e.Platform = types.Platform(platform)
		if flags.Valid {
			if err := json.Unmarshal([]byte(flags.String), &e.Flags); err != nil {
				return nil, fmt.Errorf("failed to parse flags for %s: %w", e.ID, err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// SAFETY TERMS
// =============================================================================

// Safety term kinds.
const (
	TermKindRedline   = "redline"
	TermKindSensitive = "sensitive"
)

// ReplaceSafetyTerms swaps the persisted term set of one kind. The gate
// works on full sets, so mutations persist the whole current set.
func (s *Store) ReplaceSafetyTerms(kind string, terms []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM safety_terms WHERE kind = ?`, kind); err != nil {
		return fmt.Errorf("failed to clear %s terms: %w", kind, err)
	}
	for _, term := range terms {
		if _, err := tx.Exec(`INSERT OR IGNORE INTO safety_terms (kind, term) VALUES (?, ?)`, kind, term); err != nil {
			return fmt.Errorf("failed to insert %s term: %w", kind, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s terms: %w", kind, err)
	}

	logging.Store("safety terms replaced: kind=%s count=%d", kind, len(terms))
	return nil
}

// LoadSafetyTerms returns the persisted term set of one kind. An empty
// result means the set was never customized.
func (s *Store) LoadSafetyTerms(kind string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT term FROM safety_terms WHERE kind = ? ORDER BY term`, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s terms: %w", kind, err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var term string
		if err := rows.Scan(&term); err != nil {
			return nil, fmt.Errorf("failed to scan term: %w", err)
		}
		out = append(out, term)
	}
	return out, rows.Err()
}

// =============================================================================
// RESPONSE ARCHIVE
// =============================================================================

// ArchiveResponse persists a dispatched response beyond the in-memory
// history window.
func (s *Store) ArchiveResponse(e types.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO response_archive (platform, sender, message, response, intent, mood, auto_reply, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(e.Platform), e.Sender, e.Message, e.Response, e.Intent, string(e.Mood), e.AutoReply, e.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to archive response: %w", err)
	}
	return nil
}

// RecentResponses returns up to limit archived responses, newest last.
func (s *Store) RecentResponses(limit int) ([]types.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		`SELECT platform, sender, message, response, intent, mood, auto_reply, created_at
		 FROM (
			SELECT rowid AS rid, * FROM response_archive ORDER BY rowid DESC LIMIT ?
		 ) ORDER BY rid ASC`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	defer rows.Close()

	var out []types.HistoryEntry
	for rows.Next() {
		var e types.HistoryEntry
		var platform, mood string
		if err := rows.Scan(&platform, &e.Sender, &e.Message, &e.Response, &e.Intent, &mood, &e.AutoReply, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan archive entry: %w", err)
		}
		e.Platform = types.Platform(platform)
		e.Mood = types.Mood(mood)
		out = append(out, e)
	}
	return out, rows.Err()
}
