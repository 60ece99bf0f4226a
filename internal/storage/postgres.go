package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/kisanmitra/advisory/internal/models"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c DatabaseConfig) connString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

type PostgresLog struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresLog(config DatabaseConfig, logger *zap.Logger) (*PostgresLog, error) {
	db, err := sql.Open("postgres", config.connString())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	store, err := newPostgresLog(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("PostgreSQL query log ready",
		zap.String("host", config.Host),
		zap.String("dbname", config.DBName))
	return store, nil
}

func newPostgresLog(db *sql.DB, logger *zap.Logger) (*PostgresLog, error) {
	store := &PostgresLog{db: db, logger: logger}
	if err := store.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}
	return store, nil
}

func (s *PostgresLog) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations/postgres.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

func (s *PostgresLog) Append(ctx context.Context, record *models.QueryRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}

	query := `
		INSERT INTO queries (query_text, response_text, category, language, used_remote)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(
		ctx,
		query,
		record.QueryText,
		record.ResponseText,
		string(record.Category),
		record.Language,
		record.UsedRemote,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("error appending query record: %w", err)
	}

	return nil
}

func (s *PostgresLog) CountAll(ctx context.Context) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM queries`)
}

func (s *PostgresLog) CountBySource(ctx context.Context, usedRemote bool) (int64, error) {
	return s.count(ctx, `SELECT COUNT(*) FROM queries WHERE used_remote = $1`, usedRemote)
}

func (s *PostgresLog) CountOnDate(ctx context.Context, day time.Time) (int64, error) {
	start, end := dayBounds(day)
	return s.count(ctx,
		`SELECT COUNT(*) FROM queries WHERE created_at >= $1 AND created_at < $2`,
		start, end)
}

func (s *PostgresLog) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("error counting queries: %w", err)
	}
	return n, nil
}

func (s *PostgresLog) Recent(ctx context.Context, limit int) ([]models.QueryRecord, error) {
	query := `
		SELECT id, query_text, response_text, category, language, created_at, used_remote
		FROM queries
		ORDER BY id DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying recent records: %w", err)
	}
	defer rows.Close()

	var records []models.QueryRecord
	for rows.Next() {
		var r models.QueryRecord
		var category string
		if err := rows.Scan(
			&r.ID,
			&r.QueryText,
			&r.ResponseText,
			&category,
			&r.Language,
			&r.CreatedAt,
			&r.UsedRemote,
		); err != nil {
			return nil, fmt.Errorf("error scanning query record: %w", err)
		}
		r.Category = models.Category(category)
		records = append(records, r)
	}

	return records, rows.Err()
}

func (s *PostgresLog) Close() error {
	return s.db.Close()
}
