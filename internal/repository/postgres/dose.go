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
)

type doseRepository struct {
	db *sqlx.DB
}

func NewDoseRepository(db *sqlx.DB) repository.DoseRepository {
	return &doseRepository{db: db}
}

func (r *doseRepository) Get(ctx context.Context, id uuid.UUID) (*model.Dose, error) {
	query := `SELECT * FROM doses WHERE id = $1`
	var dose model.Dose
	err := r.db.GetContext(ctx, &dose, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("dose", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dose: %w", err)
	}
	return &dose, nil
}

func (r *doseRepository) ListByTreatment(ctx context.Context, treatmentID uuid.UUID) ([]*model.Dose, error) {
	query := `SELECT * FROM doses WHERE treatment_id = $1 ORDER BY scheduled_time ASC`
	var doses []*model.Dose
	if err := r.db.SelectContext(ctx, &doses, query, treatmentID); err != nil {
		return nil, fmt.Errorf("failed to list doses: %w", err)
	}
	return doses, nil
}

func (r *doseRepository) Update(ctx context.Context, dose *model.Dose) error {
	query := `
		UPDATE doses
		SET scheduled_time = $1, status = $2, administration_time = $3,
		    administered_by = $4, notes = $5, notification_sent = $6
		WHERE id = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		dose.ScheduledTime,
		dose.Status,
		dose.AdministrationTime,
		dose.AdministeredBy,
		dose.Notes,
		dose.NotificationSent,
		dose.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dose: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperrors.NotFound("dose", nil)
	}
	return nil
}

func (r *doseRepository) NextPending(ctx context.Context, treatmentID uuid.UUID) (*model.Dose, error) {
	query := `
		SELECT * FROM doses
		WHERE treatment_id = $1 AND status = $2
		ORDER BY scheduled_time ASC
		LIMIT 1
	`
	var dose model.Dose
	err := r.db.GetContext(ctx, &dose, query, treatmentID, model.DoseStatusPending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get next pending dose: %w", err)
	}
	return &dose, nil
}

// FindDue is the due-dose selector: pending, unnotified, scheduled at least
// grace before now. A single query over the (status, notification_sent,
// scheduled_time) index joins in everything the dispatcher needs.
func (r *doseRepository) FindDue(ctx context.Context, now time.Time, grace time.Duration) ([]*model.DueDose, error) {
	cutoff := now.Add(-grace)
	query := `
		SELECT
			d.id              AS dose_id,
			d.treatment_id    AS treatment_id,
			t.patient_id      AS patient_id,
			d.scheduled_time  AS scheduled_time,
			p.name            AS patient_name,
			t.drug            AS drug,
			t.dosage          AS dosage,
			u.full_name       AS caretaker_name,
			u.phone           AS caretaker_phone,
			(
				SELECT n.content FROM notes n
				WHERE n.patient_id = p.id
				ORDER BY n.created_at DESC
				LIMIT 1
			) AS latest_note
		FROM doses d
		JOIN treatments t ON t.id = d.treatment_id
		JOIN patients p   ON p.id = t.patient_id
		JOIN users u      ON u.id = p.caretaker_id
		WHERE d.status = $1
		  AND d.notification_sent = FALSE
		  AND d.scheduled_time <= $2
		ORDER BY d.scheduled_time ASC
	`
	var due []*model.DueDose
	if err := r.db.SelectContext(ctx, &due, query, model.DoseStatusPending, cutoff); err != nil {
		return nil, fmt.Errorf("failed to find due doses: %w", err)
	}
	return due, nil
}

func (r *doseRepository) MarkNotified(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE doses SET notification_sent = TRUE WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark dose notified: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperrors.NotFound("dose", nil)
	}
	return nil
}
