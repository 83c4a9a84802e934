package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/reviewgate/reviewgate/internal/models"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store using modernc.org/sqlite (pure Go, no CGO).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at the given path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// SQLite only supports one concurrent writer. Limiting to a single
	// connection serializes all DB access through Go's connection pool,
	// preventing "database is locked" errors from concurrent HTTP requests.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Set busy timeout so concurrent writes wait instead of failing immediately
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// newULID generates a new ULID string, used as the API key itself. The ULID
// timestamp is visible in the key, so the 80 entropy bits are the whole
// secret and must come from crypto/rand.
func newULID() string {
	return newULIDAt(time.Now())
}

func newULIDAt(t time.Time) string {
	return ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

// Migrate runs all embedded SQL migration files in order.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		filename TEXT PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()

		var count int
		err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations WHERE filename = ?", name).Scan(&count)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if count > 0 {
			continue
		}

		data, err := migrationsFS.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}

		if _, err := s.db.ExecContext(ctx, "INSERT INTO schema_migrations (filename) VALUES (?)", name); err != nil {
			return fmt.Errorf("record migration %s: %w", name, err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Authorize charges one use against an enabled key and returns its developer
// name. The conditional UPDATE both validates the key and increments the
// counter in one statement, so concurrent calls on the same key cannot race.
func (s *SQLiteStore) Authorize(ctx context.Context, apiKey string) (string, error) {
	var developer string
	err := s.db.QueryRowContext(ctx,
		`UPDATE api_keys SET usage_count = usage_count + 1
		WHERE api_key = ? AND enabled = 1
		RETURNING developer_name`, apiKey,
	).Scan(&developer)
	if err == sql.ErrNoRows {
		return "", ErrUnauthorized
	}
	if err != nil {
		return "", fmt.Errorf("authorize key: %w", err)
	}
	return developer, nil
}

// CreateKey generates a new enabled API key for a developer.
func (s *SQLiteStore) CreateKey(ctx context.Context, developerName string) (*models.APIKey, error) {
	k := &models.APIKey{
		Key:           newULID(),
		DeveloperName: developerName,
		Enabled:       true,
		CreatedAt:     time.Now().UTC(),
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO api_keys (api_key, developer_name, enabled, usage_count, created_at)
		VALUES (?, ?, 1, 0, ?)`,
		k.Key, k.DeveloperName, k.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create key: %w", err)
	}
	return k, nil
}

func (s *SQLiteStore) GetKey(ctx context.Context, apiKey string) (*models.APIKey, error) {
	k := &models.APIKey{}
	err := s.db.QueryRowContext(ctx,
		`SELECT api_key, developer_name, enabled, usage_count, created_at
		FROM api_keys WHERE api_key = ?`, apiKey,
	).Scan(&k.Key, &k.DeveloperName, &k.Enabled, &k.UsageCount, &k.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("key not found: %s", apiKey)
	}
	if err != nil {
		return nil, fmt.Errorf("get key: %w", err)
	}
	return k, nil
}

func (s *SQLiteStore) ListKeys(ctx context.Context) ([]*models.APIKey, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT api_key, developer_name, enabled, usage_count, created_at
		FROM api_keys ORDER BY developer_name`)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		k := &models.APIKey{}
		if err := rows.Scan(&k.Key, &k.DeveloperName, &k.Enabled, &k.UsageCount, &k.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (s *SQLiteStore) SetKeyEnabled(ctx context.Context, apiKey string, enabled bool) error {
	val := 0
	if enabled {
		val = 1
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE api_keys SET enabled = ? WHERE api_key = ?", val, apiKey)
	if err != nil {
		return fmt.Errorf("update key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update key: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("key not found: %s", apiKey)
	}
	return nil
}

func (s *SQLiteStore) DeleteKey(ctx context.Context, apiKey string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM api_keys WHERE api_key = ?", apiKey)
	if err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete key: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("key not found: %s", apiKey)
	}
	return nil
}
