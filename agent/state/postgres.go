package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type threadRecord struct {
	bun.BaseModel `bun:"table:threads,alias:th"`

	ThreadID  string    `bun:"thread_id,pk"`
	History   []Turn    `bun:"history,type:jsonb"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

type PostgresConfig struct {
	DSN     string        `envconfig:"DSN" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// PostgresStore persists thread state in Postgres via bun.
type PostgresStore struct {
	db *bun.DB
}

func NewPostgresStore(cfg PostgresConfig) (*PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(timeout),
	))
	return &PostgresStore{db: bun.NewDB(sqldb, pgdialect.New())}, nil
}

// Init creates the threads table when it does not exist yet.
func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*threadRecord)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("create threads table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, threadID string) (*ThreadState, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, ErrInvalidThread
	}

	rec := new(threadRecord)
	err := s.db.NewSelect().
		Model(rec).
		Where("th.thread_id = ?", threadID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load thread state: %w", err)
	}

	return &ThreadState{
		ThreadID:  rec.ThreadID,
		History:   rec.History,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

func (s *PostgresStore) Save(ctx context.Context, st *ThreadState) error {
	if st == nil {
		return ErrNilThreadState
	}
	if strings.TrimSpace(st.ThreadID) == "" {
		return ErrInvalidThread
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now().UTC()
	}

	rec := &threadRecord{
		ThreadID:  st.ThreadID,
		History:   st.History,
		UpdatedAt: st.UpdatedAt.UTC(),
	}
	_, err := s.db.NewInsert().
		Model(rec).
		On("CONFLICT (thread_id) DO UPDATE").
		Set("history = EXCLUDED.history").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("save thread state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, threadID string) error {
	if strings.TrimSpace(threadID) == "" {
		return ErrInvalidThread
	}

	_, err := s.db.NewDelete().
		Model((*threadRecord)(nil)).
		Where("th.thread_id = ?", threadID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete thread state: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
