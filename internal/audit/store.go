package audit

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/seclyra/veil/internal/logger"
)

// Event is one audit record for a processed document. It deliberately holds
// only counts and identifiers: original text and placeholder mappings never
// reach the database.
type Event struct {
	ID            int64         `db:"id"`
	RequestID     string        `db:"request_id"`
	CorrelationID string        `db:"correlation_id"`
	Profile       string        `db:"profile"`
	Direction     string        `db:"direction"` // inlet or outlet
	EntityCount   int           `db:"entity_count"`
	Duration      time.Duration `db:"duration_ns"`
	CreatedAt     time.Time     `db:"created_at"`
}

// Config contains audit database configuration
type Config struct {
	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store persists audit events to PostgreSQL. Write failures are logged and
// never fail the request being audited.
type Store struct {
	db     *sqlx.DB
	logger *logger.Logger
}

// NewStore connects to the audit database and ensures the schema exists.
func NewStore(config *Config, log *logger.Logger) (*Store, error) {
	db, err := sqlx.Connect("postgres", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	store := &Store{
		db:     db,
		logger: log.WithComponent("audit"),
	}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize audit store: %w", err)
	}

	store.logger.Info("Audit store initialized",
		zap.String("database_url", maskDatabaseURL(config.DatabaseURL)),
		zap.Int("max_open_conns", config.MaxOpenConns),
	)

	return store, nil
}

// initialize verifies the connection and creates the events table.
func (s *Store) initialize() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS privacy_events (
			id BIGSERIAL PRIMARY KEY,
			request_id TEXT NOT NULL,
			correlation_id TEXT NOT NULL DEFAULT '',
			profile TEXT NOT NULL DEFAULT '',
			direction TEXT NOT NULL,
			entity_count INT NOT NULL DEFAULT 0,
			duration_ns BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create privacy_events table: %w", err)
	}

	return nil
}

// Record inserts one audit event. Errors are logged, not returned; auditing
// is best-effort and must never fail the audited request.
func (s *Store) Record(ctx context.Context, event *Event) {
	query := `
		INSERT INTO privacy_events (request_id, correlation_id, profile, direction, entity_count, duration_ns)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.db.ExecContext(ctx, query,
		event.RequestID,
		event.CorrelationID,
		event.Profile,
		event.Direction,
		event.EntityCount,
		event.Duration.Nanoseconds(),
	)
	if err != nil {
		s.logger.Error("Failed to record audit event",
			zap.Error(err),
			zap.String("request_id", event.RequestID),
			zap.String("direction", event.Direction),
		)
	}
}

// RecentEvents returns the most recent audit events, newest first.
func (s *Store) RecentEvents(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}

	var events []Event
	query := `
		SELECT id, request_id, correlation_id, profile, direction, entity_count, duration_ns, created_at
		FROM privacy_events
		ORDER BY created_at DESC
		LIMIT $1`
	if err := s.db.SelectContext(ctx, &events, query, limit); err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	return events, nil
}

// Close releases the database connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// maskDatabaseURL hides credentials in a connection URL for logging.
func maskDatabaseURL(databaseURL string) string {
	parsed, err := url.Parse(databaseURL)
	if err != nil {
		return "***"
	}
	if parsed.User != nil {
		parsed.User = url.User("***")
	}
	return parsed.String()
}
