package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medivet/vetcare-api/internal/model"
	"github.com/medivet/vetcare-api/internal/repository"
	apperrors "github.com/medivet/vetcare-api/pkg/errors"
	"github.com/medivet/vetcare-api/pkg/metrics"
)

type treatmentRepository struct {
	BaseRepository
}

func NewTreatmentRepository(db *sqlx.DB, m *metrics.Metrics) repository.TreatmentRepository {
	return &treatmentRepository{BaseRepository: NewBaseRepository(db, m)}
}

func (r *treatmentRepository) CreateWithDoses(ctx context.Context, treatment *model.Treatment, doses []*model.Dose) error {
	treatment.CreatedAt = time.Now()
	treatment.UpdatedAt = time.Now()

	return r.WithTx(ctx, "create_with_doses", func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO treatments (
				id, patient_id, drug, dosage, frequency_hours, start_time, duration_days,
				status, next_dose_time, created_by, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`
		_, err := tx.ExecContext(ctx, query,
			treatment.ID,
			treatment.PatientID,
			treatment.Drug,
			treatment.Dosage,
			treatment.FrequencyHours,
			treatment.StartTime,
			treatment.DurationDays,
			treatment.Status,
			treatment.NextDoseTime,
			treatment.CreatedBy,
			treatment.CreatedAt,
			treatment.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create treatment: %w", err)
		}

		doseQuery := `
			INSERT INTO doses (id, treatment_id, scheduled_time, status, notification_sent)
			VALUES ($1, $2, $3, $4, $5)
		`
		for _, dose := range doses {
			if _, err := tx.ExecContext(ctx, doseQuery,
				dose.ID,
				dose.TreatmentID,
				dose.ScheduledTime,
				dose.Status,
				dose.NotificationSent,
			); err != nil {
				return fmt.Errorf("failed to create dose: %w", err)
			}
		}
		return nil
	})
}

func (r *treatmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Treatment, error) {
	query := `SELECT * FROM treatments WHERE id = $1`
	var treatment model.Treatment
	err := r.db.GetContext(ctx, &treatment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("treatment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get treatment: %w", err)
	}
	return &treatment, nil
}

func (r *treatmentRepository) Update(ctx context.Context, treatment *model.Treatment) error {
	query := `
		UPDATE treatments
		SET drug = $1, dosage = $2, frequency_hours = $3, duration_days = $4,
		    status = $5, next_dose_time = $6, completed_at = $7, completed_by = $8, updated_at = $9
		WHERE id = $10
	`
	treatment.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		treatment.Drug,
		treatment.Dosage,
		treatment.FrequencyHours,
		treatment.DurationDays,
		treatment.Status,
		treatment.NextDoseTime,
		treatment.CompletedAt,
		treatment.CompletedBy,
		treatment.UpdatedAt,
		treatment.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update treatment: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperrors.NotFound("treatment", nil)
	}
	return nil
}

// Delete removes the treatment and, through ON DELETE CASCADE, every dose it owns.
func (r *treatmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM treatments WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete treatment: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperrors.NotFound("treatment", nil)
	}
	return nil
}

func (r *treatmentRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Treatment, error) {
	query := `SELECT * FROM treatments WHERE patient_id = $1 ORDER BY created_at DESC`
	var treatments []*model.Treatment
	if err := r.db.SelectContext(ctx, &treatments, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list treatments: %w", err)
	}
	return treatments, nil
}

func (r *treatmentRepository) CancelWithDoses(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.WithTx(ctx, "cancel_with_doses", func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx,
			`UPDATE treatments SET status = $1, updated_at = $2 WHERE id = $3`,
			model.TreatmentStatusCancelled, at, id,
		)
		if err != nil {
			return fmt.Errorf("failed to cancel treatment: %w", err)
		}
		if rows, _ := result.RowsAffected(); rows == 0 {
			return apperrors.NotFound("treatment", nil)
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE doses SET status = $1 WHERE treatment_id = $2 AND status = $3`,
			model.DoseStatusMissed, id, model.DoseStatusPending,
		)
		if err != nil {
			return fmt.Errorf("failed to miss pending doses: %w", err)
		}
		return nil
	})
}
