package storage

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/kisanmitra/advisory/internal/models"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver
)

const sqliteTimeLayout = "2006-01-02 15:04:05.000"

// SQLiteLog keeps the query log in a single SQLite file.
type SQLiteLog struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewSQLiteLog opens (creating if needed) the database at path and applies
// the schema.
func NewSQLiteLog(path string, logger *zap.Logger) (*SQLiteLog, error) {
	dsn := "file:" + path + "?" + url.Values{
		"_pragma": []string{"busy_timeout(5000)", "journal_mode(WAL)", "synchronous(NORMAL)"},
	}.Encode()

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite is single-writer; one connection serializes writers in database/sql.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteLog{db: db, logger: logger, now: time.Now}
	if err := store.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite query log ready", zap.String("path", path))
	return store, nil
}

func (s *SQLiteLog) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations/sqlite.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *SQLiteLog) Append(ctx context.Context, record *models.QueryRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	createdAt := s.now().UTC().Truncate(time.Millisecond)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO queries (query_text, response_text, category, language, created_at, used_remote)
		VALUES (?, ?, ?, ?, ?, ?)`,
		record.QueryText,
		record.ResponseText,
		string(record.Category),
		record.Language,
		createdAt.Format(sqliteTimeLayout),
		record.UsedRemote,
	)
	if err != nil {
		return fmt.Errorf("error appending query record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("error reading record id: %w", err)
	}

	record.ID = id
	record.CreatedAt = createdAt
	return nil
}

func (s *SQLiteLog) CountAll(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM queries`)
}

func (s *SQLiteLog) CountBySource(ctx context.Context, usedRemote bool) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM queries WHERE used_remote = ?`, usedRemote)
}

func (s *SQLiteLog) CountOnDate(ctx context.Context, day time.Time) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM queries WHERE DATE(created_at) = ?`,
		day.UTC().Format("2006-01-02"))
}

func (s *SQLiteLog) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting queries: %w", err)
	}
	return n, nil
}

func (s *SQLiteLog) Recent(ctx context.Context, limit int) ([]models.QueryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, query_text, response_text, category, language, created_at, used_remote
		FROM queries
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying recent records: %w", err)
	}
	defer rows.Close()

	var records []models.QueryRecord
	for rows.Next() {
		var (
			r         models.QueryRecord
			category  string
			createdAt string
		)
		if err := rows.Scan(
			&r.ID,
			&r.QueryText,
			&r.ResponseText,
			&category,
			&r.Language,
			&createdAt,
			&r.UsedRemote,
		); err != nil {
			return nil, fmt.Errorf("error scanning query record: %w", err)
		}
		r.Category = models.Category(category)
		if r.CreatedAt, err = parseSQLiteTime(createdAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}

	return records, rows.Err()
}

// parseSQLiteTime accepts both the layout written by Append and the
// RFC 3339 form the driver produces for DATETIME columns.
func parseSQLiteTime(v string) (time.Time, error) {
	for _, layout := range []string{sqliteTimeLayout, "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("error parsing timestamp %q", v)
}

func (s *SQLiteLog) Close() error {
	return s.db.Close()
}
