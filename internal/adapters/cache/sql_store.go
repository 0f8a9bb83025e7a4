package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mikey/clawtools/internal/usage"
	"go.uber.org/zap"
)

// sqlStore holds the queries shared by the SQLite and MySQL caches. Both
// keep one row per model plus a single metadata row with the fetch time.
type sqlStore struct {
	db          *sql.DB
	logger      *zap.Logger
	replaceMeta string
}

func (s *sqlStore) load(ctx context.Context) (*usage.PriceSnapshot, error) {
	snapshot := usage.EmptySnapshot()

	var fetchedAt string
	err := s.db.QueryRowContext(ctx, `SELECT fetched_at FROM price_meta WHERE id = 1`).Scan(&fetchedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return snapshot, nil
	case err != nil:
		return nil, fmt.Errorf("failed to query price metadata: %w", err)
	}
	if at, err := time.Parse(time.RFC3339Nano, fetchedAt); err == nil {
		snapshot.FetchedAt = &at
	} else {
		s.logger.Warn("Failed to parse fetched_at timestamp", zap.String("value", fetchedAt), zap.Error(err))
	}

	rows, err := s.db.QueryContext(ctx, `SELECT model, prompt, completion, image FROM model_prices`)
	if err != nil {
		return nil, fmt.Errorf("failed to query model prices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var model string
		var prompt, completion, image sql.NullFloat64
		if err := rows.Scan(&model, &prompt, &completion, &image); err != nil {
			return nil, fmt.Errorf("failed to scan model price: %w", err)
		}
		snapshot.Prices[model] = usage.ModelPrice{
			Prompt:     nullable(prompt),
			Completion: nullable(completion),
			Image:      nullable(image),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read model prices: %w", err)
	}
	return snapshot, nil
}

func (s *sqlStore) save(ctx context.Context, snapshot *usage.PriceSnapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM model_prices`); err != nil {
		return fmt.Errorf("failed to clear model prices: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO model_prices (model, prompt, completion, image) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for model, p := range snapshot.Prices {
		if _, err := stmt.ExecContext(ctx, model, valueOf(p.Prompt), valueOf(p.Completion), valueOf(p.Image)); err != nil {
			return fmt.Errorf("failed to insert price for %s: %w", model, err)
		}
	}

	fetchedAt := time.Now().UTC()
	if snapshot.FetchedAt != nil {
		fetchedAt = snapshot.FetchedAt.UTC()
	}
	if _, err := tx.ExecContext(ctx, s.replaceMeta, fetchedAt.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("failed to write price metadata: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit prices: %w", err)
	}
	s.logger.Debug("Saved model prices", zap.Int("models", len(snapshot.Prices)))
	return nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func valueOf(p *float64) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
