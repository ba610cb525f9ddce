package patient

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/medivet/vetcare-api/internal/model"
	"github.com/medivet/vetcare-api/internal/repository"
	"github.com/medivet/vetcare-api/pkg/clock"
	apperrors "github.com/medivet/vetcare-api/pkg/errors"
	"github.com/medivet/vetcare-api/pkg/logger"
)

const (
	cacheTTL     = 5 * time.Minute
	cacheCleanup = 15 * time.Minute
)

// Service manages patients and their notes. Single-patient reads go through
// a short-lived cache; any write to a patient evicts its entry.
type Service struct {
	patients   repository.PatientRepository
	treatments repository.TreatmentRepository
	users      repository.UserRepository
	cache      *cache.Cache
	clock      clock.Clock
	logger     *logger.Logger
}

func NewService(
	patients repository.PatientRepository,
	treatments repository.TreatmentRepository,
	users repository.UserRepository,
	clk clock.Clock,
	log *logger.Logger,
) *Service {
	return &Service{
		patients:   patients,
		treatments: treatments,
		users:      users,
		cache:      cache.New(cacheTTL, cacheCleanup),
		clock:      clk,
		logger:     log.WithComponent("patient"),
	}
}

// CreatePatient registers a new animal. The assigned caretaker must be an
// active assistant: assistants are the default recipients of dose
// notifications and the only role that carries that duty.
func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest, createdBy uuid.UUID) (*model.Patient, error) {
	caretakerID, err := uuid.Parse(req.CaretakerID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid caretaker id", err)
	}
	if err := s.validateCaretaker(ctx, caretakerID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	patient := &model.Patient{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:        req.Name,
		Species:     req.Species,
		CreatedBy:   createdBy,
		CaretakerID: caretakerID,
	}

	if err := s.patients.Create(ctx, patient); err != nil {
		return nil, err
	}

	s.logger.Info("patient created", "patient_id", patient.ID.String(), "name", patient.Name)
	return patient, nil
}

// GetPatient returns the patient with treatments and notes attached.
func (s *Service) GetPatient(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.getCached(ctx, id)
	if err != nil {
		return nil, err
	}

	treatments, err := s.treatments.ListByPatient(ctx, id)
	if err != nil {
		return nil, err
	}
	notes, err := s.patients.ListNotes(ctx, id)
	if err != nil {
		return nil, err
	}

	patient.Treatments = treatments
	patient.Notes = notes
	return patient, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Species != nil {
		patient.Species = *req.Species
	}
	if req.CaretakerID != nil {
		caretakerID, err := uuid.Parse(*req.CaretakerID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid caretaker id", err)
		}
		if err := s.validateCaretaker(ctx, caretakerID); err != nil {
			return nil, err
		}
		patient.CaretakerID = caretakerID
	}
	patient.UpdatedAt = s.clock.Now()

	if err := s.patients.Update(ctx, patient); err != nil {
		return nil, err
	}

	s.cache.Delete(id.String())
	return patient, nil
}

// DeletePatient removes the patient. Treatments, doses and notes go with it
// through the schema's cascade rules.
func (s *Service) DeletePatient(ctx context.Context, id uuid.UUID) error {
	if err := s.patients.Delete(ctx, id); err != nil {
		return err
	}
	s.cache.Delete(id.String())
	s.logger.Info("patient deleted", "patient_id", id.String())
	return nil
}

func (s *Service) ListPatients(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	return s.patients.List(ctx, filters)
}

// AddNote appends a free-text observation. The newest note is what the
// notification payload carries, so there is no update or delete.
func (s *Service) AddNote(ctx context.Context, patientID uuid.UUID, req *model.CreateNoteRequest, createdBy uuid.UUID) (*model.Note, error) {
	if _, err := s.getCached(ctx, patientID); err != nil {
		return nil, err
	}

	note := &model.Note{
		ID:        uuid.New(),
		PatientID: patientID,
		Content:   req.Content,
		CreatedBy: createdBy,
		CreatedAt: s.clock.Now(),
	}
	if err := s.patients.AddNote(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) ListNotes(ctx context.Context, patientID uuid.UUID) ([]*model.Note, error) {
	if _, err := s.getCached(ctx, patientID); err != nil {
		return nil, err
	}
	return s.patients.ListNotes(ctx, patientID)
}

func (s *Service) getCached(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	if cached, ok := s.cache.Get(id.String()); ok {
		if patient, ok := cached.(*model.Patient); ok {
			copied := *patient
			return &copied, nil
		}
	}

	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Set(id.String(), patient, cache.DefaultExpiration)

	copied := *patient
	return &copied, nil
}

func (s *Service) validateCaretaker(ctx context.Context, id uuid.UUID) error {
	caretaker, err := s.users.Get(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.BadRequest("caretaker not found", err)
		}
		return err
	}
	if caretaker.Role != model.RoleAssistant {
		return apperrors.BadRequest("caretaker must be an assistant", nil)
	}
	if caretaker.Status != model.UserStatusActive {
		return apperrors.BadRequest("caretaker is not active", nil)
	}
	return nil
}
