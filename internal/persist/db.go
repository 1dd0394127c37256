package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/arenashooter/core/internal/config"
)

// PGStore keeps save slots in PostgreSQL through a pgx connection pool.
type PGStore struct {
	Pool *pgxpool.Pool
	log  *zap.Logger
}

// NewPGStore connects, verifies the connection and applies migrations.
func NewPGStore(ctx context.Context, cfg config.StorageConfig, log *zap.Logger) (*PGStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	poolCfg.MaxConns = int32(cfg.MaxOpenConns)
	poolCfg.MinConns = int32(cfg.MaxIdleConns)
	poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	// Verify connection
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PGStore{Pool: pool, log: log}, nil
}

func (s *PGStore) Save(ctx context.Context, slot string, blob []byte) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO save_slots (name, blob, size, saved_at) VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (name) DO UPDATE SET blob = EXCLUDED.blob, size = EXCLUDED.size, saved_at = NOW()`,
		slot, blob, len(blob),
	)
	if err != nil {
		return fmt.Errorf("save %s: %w", slot, err)
	}
	return nil
}

func (s *PGStore) Load(ctx context.Context, slot string) ([]byte, error) {
	if err := checkSlot(slot); err != nil {
		return nil, err
	}
	var blob []byte
	err := s.Pool.QueryRow(ctx, `SELECT blob FROM save_slots WHERE name = $1`, slot).Scan(&blob)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", slot, ErrSlotNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", slot, err)
	}
	return blob, nil
}

func (s *PGStore) List(ctx context.Context) ([]SlotInfo, error) {
	rows, err := s.Pool.Query(ctx, `SELECT name, size, saved_at FROM save_slots ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	defer rows.Close()

	var out []SlotInfo
	for rows.Next() {
		var info SlotInfo
		if err := rows.Scan(&info.Name, &info.Size, &info.SavedAt); err != nil {
			return nil, fmt.Errorf("list saves: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *PGStore) Delete(ctx context.Context, slot string) error {
	if err := checkSlot(slot); err != nil {
		return err
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM save_slots WHERE name = $1`, slot)
	if err != nil {
		return fmt.Errorf("delete %s: %w", slot, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", slot, ErrSlotNotFound)
	}
	return nil
}

func (s *PGStore) RecordMatch(ctx context.Context, r MatchResult) error {
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO match_results (level, mode, duration, winner, ended_at) VALUES ($1, $2, $3, $4, $5)`,
		r.Level, r.Mode, r.Duration, r.Winner, r.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("record match: %w", err)
	}
	return nil
}

func (s *PGStore) Close() error {
	s.Pool.Close()
	return nil
}
