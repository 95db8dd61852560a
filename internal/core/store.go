package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/duynhne/callerid-service/config"
	"github.com/duynhne/callerid-service/internal/core/domain"
	"github.com/duynhne/callerid-service/internal/core/repository/memory"
	"github.com/duynhne/callerid-service/internal/core/repository/psql"
)

// Store is the directory store behind the services: PostgreSQL when DB_HOST
// is set, an in-process store for local development otherwise.
type Store struct {
	Accounts  domain.AccountRepository
	Contacts  domain.ContactRepository
	Reports   domain.SpamReportRepository
	Directory domain.DirectoryRepository

	pool *pgxpool.Pool
}

// Open connects the store and applies migrations when configured to.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Store, error) {
	if cfg.Database.Host == "" {
		if !cfg.IsDevelopment() {
			return nil, errors.New("DB_HOST is required outside development")
		}
		logger.Warn("DB_HOST not set, using in-memory store")
		return NewMemoryStore(memory.NewStore()), nil
	}

	pool, err := Connect(ctx, &cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.MigrateOnStart {
		if err := Migrate(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	logger.Info("Database connection pool established",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Name),
	)

	return &Store{
		Accounts:  psql.NewAccountRepository(pool),
		Contacts:  psql.NewContactRepository(pool),
		Reports:   psql.NewSpamReportRepository(pool),
		Directory: psql.NewDirectoryRepository(pool),
		pool:      pool,
	}, nil
}

// NewMemoryStore serves every repository from one in-memory store
func NewMemoryStore(m *memory.Store) *Store {
	return &Store{Accounts: m, Contacts: m, Reports: m, Directory: m}
}

// Backend names the active storage for logs
func (s *Store) Backend() string {
	if s.pool == nil {
		return "memory"
	}
	return "postgres"
}

// Ping checks the database is reachable; the in-memory store always is
func (s *Store) Ping(ctx context.Context) error {
	if s.pool == nil {
		return nil
	}
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}
