package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/medivet/vetcare-api/pkg/metrics"
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db      *sqlx.DB
	metrics *metrics.Metrics
}

// NewBaseRepository creates a new base repository. A nil metrics handle
// disables counting.
func NewBaseRepository(db *sqlx.DB, m *metrics.Metrics) BaseRepository {
	return BaseRepository{db: db, metrics: m}
}

// WithTx executes a function within a transaction. The multi-row operations
// (create-with-doses, cancel-with-doses) run through here so they either
// apply as a whole or not at all. The operation name labels the outcome
// counter.
func (r *BaseRepository) WithTx(ctx context.Context, operation string, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		r.observe(operation, err)
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		r.observe(operation, err)
		return err
	}

	err = tx.Commit()
	r.observe(operation, err)
	return err
}

func (r *BaseRepository) observe(operation string, err error) {
	if r.metrics == nil || r.metrics.DatabaseOperations == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.metrics.DatabaseOperations.WithLabelValues(operation, status).Inc()
}
