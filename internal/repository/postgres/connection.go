package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"registru/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Documents             string
	DocumentVersions      string
	Tasks                 string
	TaskStatusHistory     string
	TaskAssignmentHistory string
	TaskWatchers          string
	Contacts              string
	MessageThreads        string
	Messages              string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Documents:             prefix + "documents",
		DocumentVersions:      prefix + "document_versions",
		Tasks:                 prefix + "collaboration_tasks",
		TaskStatusHistory:     prefix + "task_status_history",
		TaskAssignmentHistory: prefix + "task_assignment_history",
		TaskWatchers:          prefix + "task_watchers",
		Contacts:              prefix + "contacts",
		MessageThreads:        prefix + "message_threads",
		Messages:              prefix + "messages",
	}
}

// CreateConnectionPool creates a pgx connection pool.
//
// By default pgx caches prepared statements, which transaction-pooling
// PgBouncer (port 6543) does not support. When that port is detected and the
// user has not overridden default_query_exec_mode in the connection string,
// the pool falls back to QueryExecModeCacheDescribe: it still uses the
// extended protocol (required for JSONB encoding of Go structs) but caches
// statement descriptions instead of prepared statements.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	if config.ConnConfig.Port == 6543 && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		slog.Debug("auto-configured cache_describe mode for PgBouncer compatibility", "port", 6543)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction from the context when one is present,
// otherwise the pool. Repositories automatically participate in transactions
// opened by the TransactionManager.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
