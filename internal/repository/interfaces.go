package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/medivet/vetcare-api/internal/model"
)

// All repository interfaces in one file
type (
	// UserRepository handles caretaker/vet/admin accounts
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		// GetAdmin returns the administrator account used as the secondary
		// notification recipient.
		GetAdmin(ctx context.Context) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		List(ctx context.Context, role string) ([]*model.User, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
		AddNote(ctx context.Context, note *model.Note) error
		ListNotes(ctx context.Context, patientID uuid.UUID) ([]*model.Note, error)
	}

	TreatmentRepository interface {
		// CreateWithDoses persists a treatment and its full dose sequence in
		// one transaction. A partially created treatment is never visible.
		CreateWithDoses(ctx context.Context, treatment *model.Treatment, doses []*model.Dose) error
		Get(ctx context.Context, id uuid.UUID) (*model.Treatment, error)
		Update(ctx context.Context, treatment *model.Treatment) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Treatment, error)
		// CancelWithDoses marks the treatment cancelled and flips every still
		// pending dose to missed in the same transaction. Either all eligible
		// doses flip or the whole operation fails.
		CancelWithDoses(ctx context.Context, id uuid.UUID, at time.Time) error
	}

	DoseRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Dose, error)
		ListByTreatment(ctx context.Context, treatmentID uuid.UUID) ([]*model.Dose, error)
		Update(ctx context.Context, dose *model.Dose) error
		// NextPending returns the earliest still-pending dose of a treatment,
		// or nil when none remain.
		NextPending(ctx context.Context, treatmentID uuid.UUID) (*model.Dose, error)
		// FindDue selects doses eligible for notification at now: pending,
		// not yet notified, scheduled at least grace before now. One indexed
		// query joining patient and caretaker context.
		FindDue(ctx context.Context, now time.Time, grace time.Duration) ([]*model.DueDose, error)
		// MarkNotified flips notification_sent and commits immediately. This
		// is the idempotency boundary for notification delivery.
		MarkNotified(ctx context.Context, id uuid.UUID) error
	}
)
