package analysiscache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	_ "modernc.org/sqlite"
)

// Store caches raw analysis responses in SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Stats summarizes the cache contents.
type Stats struct {
	Path         string    `json:"path"`
	Entries      int       `json:"entries"`
	PayloadBytes int64     `json:"payload_bytes"`
	ImageBytes   int64     `json:"image_bytes"`
	FileBytes    int64     `json:"file_bytes"`
	Oldest       time.Time `json:"oldest,omitzero"`
	Newest       time.Time `json:"newest,omitzero"`
}

// String renders the stats on one line for CLI and log output.
func (s Stats) String() string {
	if s.Entries == 0 {
		return fmt.Sprintf("%s: empty (%s on disk)", s.Path, humanize.IBytes(uint64(max(s.FileBytes, 0))))
	}
	return fmt.Sprintf("%s: %s entries, %s of responses for %s of images, oldest %s (%s on disk)",
		s.Path,
		humanize.Comma(int64(s.Entries)),
		humanize.IBytes(uint64(s.PayloadBytes)),
		humanize.IBytes(uint64(s.ImageBytes)),
		humanize.Time(s.Oldest),
		humanize.IBytes(uint64(max(s.FileBytes, 0))),
	)
}

// Key derives the cache key for a preprocessed image sent to the backend at
// backendURL under pageID. Responses from a different backend never match.
func Key(backendURL string, image []byte, pageID string) string {
	h := sha256.New()
	h.Write([]byte(strings.TrimRight(strings.TrimSpace(backendURL), "/")))
	h.Write([]byte{0})
	h.Write(image)
	h.Write([]byte{0})
	h.Write([]byte(strings.TrimSpace(pageID)))
	return hex.EncodeToString(h.Sum(nil))
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

// Open initializes or connects to the cache database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("cache path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the cached payload for key. The boolean is false on a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM analyses WHERE cache_key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry: %w", err)
	}
	if _, err := s.exec(ctx, `UPDATE analyses SET last_hit_at = ? WHERE cache_key = ?`, s.now().Unix(), key); err != nil {
		return nil, false, fmt.Errorf("touch cache entry: %w", err)
	}
	return payload, true, nil
}

// Put stores or replaces the payload for key.
func (s *Store) Put(ctx context.Context, key, pageID string, imageBytes int, payload []byte) error {
	if strings.TrimSpace(key) == "" {
		return errors.New("cache key is empty")
	}
	now := s.now().Unix()
	_, err := s.exec(ctx, `
		INSERT INTO analyses (cache_key, page_id, image_bytes, payload, created_at, last_hit_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			page_id = excluded.page_id,
			image_bytes = excluded.image_bytes,
			payload = excluded.payload,
			created_at = excluded.created_at,
			last_hit_at = excluded.last_hit_at`,
		key, pageID, imageBytes, payload, now, now)
	if err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Prune removes entries not used within the retention window and returns
// how many were deleted.
func (s *Store) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-retention).Unix()
	res, err := s.exec(ctx, `DELETE FROM analyses WHERE last_hit_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune cache: %w", err)
	}
	return removed, nil
}

// Clear removes every entry and returns how many were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx, `DELETE FROM analyses`)
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	return removed, nil
}

// Stats reports entry counts, sizes and age range.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	stats := Stats{Path: s.path}
	var (
		payloadBytes, imageBytes sql.NullInt64
		oldest, newest           sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1), SUM(LENGTH(payload)), SUM(image_bytes), MIN(created_at), MAX(created_at)
		FROM analyses`).Scan(&stats.Entries, &payloadBytes, &imageBytes, &oldest, &newest)
	if err != nil {
		return stats, fmt.Errorf("cache stats: %w", err)
	}
	stats.PayloadBytes = payloadBytes.Int64
	stats.ImageBytes = imageBytes.Int64
	if oldest.Valid {
		stats.Oldest = time.Unix(oldest.Int64, 0)
	}
	if newest.Valid {
		stats.Newest = time.Unix(newest.Int64, 0)
	}
	if info, err := os.Stat(s.path); err == nil {
		stats.FileBytes = info.Size()
	}
	return stats, nil
}
