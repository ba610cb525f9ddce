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

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, name, species, created_by, caretaker_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.Name,
		patient.Species,
		patient.CreatedBy,
		patient.CaretakerID,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE id = $1`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients SET name = $1, species = $2, caretaker_id = $3, updated_at = $4 WHERE id = $5
	`
	patient.UpdatedAt = time.Now()
	result, err := r.db.ExecContext(ctx, query,
		patient.Name,
		patient.Species,
		patient.CaretakerID,
		patient.UpdatedAt,
		patient.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperrors.NotFound("patient", nil)
	}
	return nil
}

// Delete removes the patient; treatments, doses and notes go with it through
// ON DELETE CASCADE.
func (r *patientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM patients WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return apperrors.NotFound("patient", nil)
	}
	return nil
}

func (r *patientRepository) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	query := `SELECT * FROM patients WHERE 1=1`
	args := []interface{}{}
	argn := 1

	if filters != nil && filters.Species != "" {
		query += fmt.Sprintf(" AND species = $%d", argn)
		args = append(args, filters.Species)
		argn++
	}
	if filters != nil && filters.CaretakerID != nil {
		query += fmt.Sprintf(" AND caretaker_id = $%d", argn)
		args = append(args, *filters.CaretakerID)
		argn++
	}
	query += " ORDER BY created_at DESC"

	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

func (r *patientRepository) AddNote(ctx context.Context, note *model.Note) error {
	query := `
		INSERT INTO notes (id, patient_id, content, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	note.CreatedAt = time.Now()
	_, err := r.db.ExecContext(ctx, query,
		note.ID,
		note.PatientID,
		note.Content,
		note.CreatedBy,
		note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}
	return nil
}

func (r *patientRepository) ListNotes(ctx context.Context, patientID uuid.UUID) ([]*model.Note, error) {
	query := `SELECT * FROM notes WHERE patient_id = $1 ORDER BY created_at DESC`
	var notes []*model.Note
	if err := r.db.SelectContext(ctx, &notes, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}
