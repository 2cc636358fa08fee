// Package store persists diff analysis results in SQLite, keyed by the
// (chapter, ai version, fan version, raw version, algo version) tuple,
// with a secondary content-hash lookup that survives version-id churn.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/valpere/noveldiff/internal"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	-- diff_results holds one immutable analysis per composite key;
	-- re-analysis overwrites the whole row, never patches it.
	CREATE TABLE IF NOT EXISTS diff_results (
		chapter_id TEXT NOT NULL,
		ai_version_id TEXT NOT NULL,
		fan_version_id TEXT NOT NULL DEFAULT '',
		raw_version_id TEXT NOT NULL,
		algo_version TEXT NOT NULL,
		ai_hash TEXT NOT NULL DEFAULT '',
		fan_hash TEXT NOT NULL DEFAULT '',
		raw_hash TEXT NOT NULL DEFAULT '',
		markers TEXT NOT NULL,
		analyzed_at INTEGER NOT NULL,
		cost_usd REAL NOT NULL DEFAULT 0,
		model TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (chapter_id, ai_version_id, fan_version_id, raw_version_id, algo_version)
	);

	-- analysis_requests is an audit trail of analysis triggers.
	CREATE TABLE IF NOT EXISTS analysis_requests (
		id TEXT PRIMARY KEY,
		chapter_id TEXT NOT NULL,
		model TEXT NOT NULL DEFAULT '',
		cost_usd REAL NOT NULL DEFAULT 0,
		cache_hit BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_diff_results_chapter ON diff_results(chapter_id);
	CREATE INDEX IF NOT EXISTS idx_requests_chapter ON analysis_requests(chapter_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Save writes a result under its composite key. Idempotent: saving the
// same key twice overwrites, last write wins.
func (s *Store) Save(ctx context.Context, res *internal.Result) error {
	markers, err := json.Marshal(res.Markers)
	if err != nil {
		return fmt.Errorf("failed to encode markers: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO diff_results
		 (chapter_id, ai_version_id, fan_version_id, raw_version_id, algo_version,
		  ai_hash, fan_hash, raw_hash, markers, analyzed_at, cost_usd, model)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.ChapterID, res.AIVersionID, res.FanVersionID, res.RawVersionID, res.AlgoVersion,
		res.AIHash, res.FanHash, res.RawHash, string(markers),
		res.AnalyzedAt.UnixMilli(), res.CostUSD, res.Model)
	return err
}

// Get returns the result stored under key, or nil when absent.
func (s *Store) Get(ctx context.Context, key internal.ResultKey) (*internal.Result, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT chapter_id, ai_version_id, fan_version_id, raw_version_id, algo_version,
		        ai_hash, fan_hash, raw_hash, markers, analyzed_at, cost_usd, model
		 FROM diff_results
		 WHERE chapter_id = ? AND ai_version_id = ? AND fan_version_id = ?
		   AND raw_version_id = ? AND algo_version = ?`,
		key.ChapterID, key.AIVersionID, key.FanVersionID, key.RawVersionID, key.AlgoVersion)

	res, err := scanResult(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return res, err
}

// GetByChapter returns every result stored for a chapter, most recently
// analyzed first.
func (s *Store) GetByChapter(ctx context.Context, chapterID string) ([]internal.Result, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chapter_id, ai_version_id, fan_version_id, raw_version_id, algo_version,
		        ai_hash, fan_hash, raw_hash, markers, analyzed_at, cost_usd, model
		 FROM diff_results WHERE chapter_id = ? ORDER BY analyzed_at DESC`,
		chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []internal.Result
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *res)
	}
	return results, rows.Err()
}

// Delete removes the result stored under key, if any.
func (s *Store) Delete(ctx context.Context, key internal.ResultKey) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM diff_results
		 WHERE chapter_id = ? AND ai_version_id = ? AND fan_version_id = ?
		   AND raw_version_id = ? AND algo_version = ?`,
		key.ChapterID, key.AIVersionID, key.FanVersionID, key.RawVersionID, key.AlgoVersion)
	return err
}

// DeleteError reports the keys a chapter-scoped delete failed to remove.
type DeleteError struct {
	Failed []internal.ResultKey
	Errs   []error
}

func (e *DeleteError) Error() string {
	keys := make([]string, len(e.Failed))
	for i, k := range e.Failed {
		keys[i] = fmt.Sprintf("(%s,%s,%s,%s,%s)",
			k.ChapterID, k.AIVersionID, k.FanVersionID, k.RawVersionID, k.AlgoVersion)
	}
	return fmt.Sprintf("failed to delete %d result(s): %s", len(e.Failed), strings.Join(keys, ", "))
}

// DeleteByChapter removes every result for a chapter. Deletion is
// per-key so that a partial failure can name exactly which keys remain
// instead of leaving silent partial state; the returned error is a
// *DeleteError in that case.
func (s *Store) DeleteByChapter(ctx context.Context, chapterID string) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chapter_id, ai_version_id, fan_version_id, raw_version_id, algo_version
		 FROM diff_results WHERE chapter_id = ?`, chapterID)
	if err != nil {
		return err
	}

	var keys []internal.ResultKey
	for rows.Next() {
		var k internal.ResultKey
		if err := rows.Scan(&k.ChapterID, &k.AIVersionID, &k.FanVersionID, &k.RawVersionID, &k.AlgoVersion); err != nil {
			rows.Close()
			return err
		}
		keys = append(keys, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	delErr := &DeleteError{}
	for _, k := range keys {
		if err := s.Delete(ctx, k); err != nil {
			delErr.Failed = append(delErr.Failed, k)
			delErr.Errs = append(delErr.Errs, err)
		}
	}
	if len(delErr.Failed) > 0 {
		return delErr
	}
	return nil
}

// FindByHashes is the secondary content-addressed lookup: it scans a
// chapter's results and returns the first whose algo version matches and
// whose content hashes equal the targets. Rules:
//
//   - rawHash falls back to the stored raw_version_id for legacy rows
//     that predate hash recording;
//   - a row with no stored ai_hash can never hash-match, even when the
//     other hashes coincide;
//   - fanHash must match exactly, including the case where both the
//     stored and target hash are absent ("").
//
// This recognizes identical content as already analyzed across
// version-id churn (re-imports, id migrations) without an LLM call.
func (s *Store) FindByHashes(ctx context.Context, chapterID, aiHash, fanHash, rawHash, algoVersion string) (*internal.Result, error) {
	results, err := s.GetByChapter(ctx, chapterID)
	if err != nil {
		return nil, err
	}

	for i := range results {
		res := &results[i]
		if res.AlgoVersion != algoVersion {
			continue
		}

		storedRaw := res.RawHash
		if storedRaw == "" {
			storedRaw = res.RawVersionID
		}
		if storedRaw != rawHash {
			continue
		}

		if res.AIHash == "" || res.AIHash != aiHash {
			continue
		}

		if res.FanHash != fanHash {
			continue
		}

		return res, nil
	}
	return nil, nil
}

// SaveAnalysisRequest records one analysis trigger in the audit trail.
func (s *Store) SaveAnalysisRequest(ctx context.Context, chapterID, model string, costUSD float64, cacheHit bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analysis_requests (id, chapter_id, model, cost_usd, cache_hit, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), chapterID, model, costUSD, cacheHit, time.Now())
	return err
}

// CacheStats summarises the diff result cache.
type CacheStats struct {
	TotalResults  int
	TotalChapters int
	TotalCostUSD  float64
	CacheHits     int
	TotalRequests int
}

// Stats returns summary statistics for the cache and audit trail.
func (s *Store) Stats(ctx context.Context) (*CacheStats, error) {
	stats := &CacheStats{}

	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT chapter_id), COALESCE(SUM(cost_usd), 0)
		FROM diff_results`).Scan(&stats.TotalResults, &stats.TotalChapters, &stats.TotalCostUSD)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN cache_hit THEN 1 ELSE 0 END), 0)
		FROM analysis_requests`).Scan(&stats.TotalRequests, &stats.CacheHits)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Clear removes every stored result and returns the number deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM diff_results`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanResult(row scanner) (*internal.Result, error) {
	var res internal.Result
	var markers string
	var analyzedAt int64

	err := row.Scan(
		&res.ChapterID, &res.AIVersionID, &res.FanVersionID, &res.RawVersionID, &res.AlgoVersion,
		&res.AIHash, &res.FanHash, &res.RawHash, &markers, &analyzedAt, &res.CostUSD, &res.Model)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(markers), &res.Markers); err != nil {
		return nil, fmt.Errorf("failed to decode markers: %w", err)
	}
	res.AnalyzedAt = time.UnixMilli(analyzedAt)
	return &res, nil
}
