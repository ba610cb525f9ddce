package treatment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medivet/vetcare-api/internal/model"
	"github.com/medivet/vetcare-api/internal/repository"
	"github.com/medivet/vetcare-api/internal/service/schedule"
	"github.com/medivet/vetcare-api/pkg/clock"
	apperrors "github.com/medivet/vetcare-api/pkg/errors"
	"github.com/medivet/vetcare-api/pkg/logger"
	"github.com/medivet/vetcare-api/pkg/messaging"
)

// Event channels published on lifecycle transitions.
const (
	eventChannel = "treatments"

	eventTreatmentCreated   = "treatment.created"
	eventTreatmentCancelled = "treatment.cancelled"
	eventDoseAdministered   = "dose.administered"
)

// Service is the treatment lifecycle manager and dose state machine. Every
// state transition commits as its own atomic unit; the poller and the request
// handlers share nothing but the repositories.
type Service struct {
	treatments repository.TreatmentRepository
	doses      repository.DoseRepository
	patients   repository.PatientRepository
	clock      clock.Clock
	broker     messaging.Broker
	logger     *logger.Logger
}

func NewService(
	treatments repository.TreatmentRepository,
	doses repository.DoseRepository,
	patients repository.PatientRepository,
	clk clock.Clock,
	broker messaging.Broker,
	log *logger.Logger,
) *Service {
	return &Service{
		treatments: treatments,
		doses:      doses,
		patients:   patients,
		clock:      clk,
		broker:     broker,
		logger:     log.WithComponent("treatment"),
	}
}

// CreateTreatment validates the patient, materializes the dose sequence and
// persists treatment plus doses as one transaction. Any failure along the way
// surfaces as TreatmentCreationFailed with the cause wrapped; a partially
// created treatment is never visible.
func (s *Service) CreateTreatment(ctx context.Context, patientID uuid.UUID, req *model.CreateTreatmentRequest, actor uuid.UUID) (*model.Treatment, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}

	start := s.clock.Now()
	if req.StartTime != nil {
		start = *req.StartTime
	}

	times, err := schedule.Generate(start, req.FrequencyHours, req.DurationDays)
	if err != nil {
		return nil, err
	}

	treatment := &model.Treatment{
		Base:           model.Base{ID: uuid.New()},
		PatientID:      patientID,
		Drug:           req.Drug,
		Dosage:         req.Dosage,
		FrequencyHours: req.FrequencyHours,
		StartTime:      start,
		DurationDays:   req.DurationDays,
		Status:         model.TreatmentStatusActive,
		NextDoseTime:   &times[0],
		CreatedBy:      actor,
	}

	doses := make([]*model.Dose, len(times))
	for i, at := range times {
		doses[i] = &model.Dose{
			ID:            uuid.New(),
			TreatmentID:   treatment.ID,
			ScheduledTime: at,
			Status:        model.DoseStatusPending,
		}
	}

	if err := s.treatments.CreateWithDoses(ctx, treatment, doses); err != nil {
		return nil, apperrors.TreatmentCreation(err)
	}
	treatment.Doses = doses

	s.publish(ctx, eventTreatmentCreated, map[string]interface{}{
		"treatment_id": treatment.ID,
		"patient_id":   patientID,
		"dose_count":   len(doses),
	})

	s.logger.Info("treatment created",
		"treatment_id", treatment.ID.String(),
		"doses", len(doses))
	return treatment, nil
}

// UpdateTreatment applies the whitelisted mutable fields. A frequency change
// recomputes next_dose_time for display only; the dose sequence is
// authoritative once created and is never regenerated here.
func (s *Service) UpdateTreatment(ctx context.Context, id uuid.UUID, req *model.UpdateTreatmentRequest) (*model.Treatment, error) {
	treatment, err := s.treatments.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Drug != nil {
		treatment.Drug = *req.Drug
	}
	if req.Dosage != nil {
		treatment.Dosage = *req.Dosage
	}
	if req.DurationDays != nil {
		if *req.DurationDays <= 0 {
			return nil, apperrors.BadRequest("duration must be positive", nil)
		}
		treatment.DurationDays = *req.DurationDays
	}
	if req.FrequencyHours != nil {
		if *req.FrequencyHours <= 0 {
			return nil, apperrors.BadRequest("frequency must be positive", nil)
		}
		treatment.FrequencyHours = *req.FrequencyHours
		next := s.clock.Now().Add(time.Duration(*req.FrequencyHours * float64(time.Hour)))
		treatment.NextDoseTime = &next
	}

	if err := s.treatments.Update(ctx, treatment); err != nil {
		return nil, err
	}
	return treatment, nil
}

// GetTreatment returns the treatment with its dose sequence attached.
func (s *Service) GetTreatment(ctx context.Context, id uuid.UUID) (*model.Treatment, error) {
	treatment, err := s.treatments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	doses, err := s.doses.ListByTreatment(ctx, id)
	if err != nil {
		return nil, err
	}
	treatment.Doses = doses
	return treatment, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Treatment, error) {
	return s.treatments.ListByPatient(ctx, patientID)
}

func (s *Service) DeleteTreatment(ctx context.Context, id uuid.UUID) error {
	return s.treatments.Delete(ctx, id)
}

// AdministerDose moves a pending dose to administered, repoints the parent
// treatment at its earliest remaining pending dose and, when none remain,
// completes the treatment with actor and timestamp recorded. Administering a
// non-pending dose is an error, not a silent no-op.
func (s *Service) AdministerDose(ctx context.Context, doseID, actor uuid.UUID, notes string) (*model.Dose, error) {
	dose, err := s.doses.Get(ctx, doseID)
	if err != nil {
		return nil, err
	}
	if dose.Status != model.DoseStatusPending {
		return nil, apperrors.NotFound("pending dose", fmt.Errorf("dose is %s", dose.Status))
	}

	treatment, err := s.treatments.Get(ctx, dose.TreatmentID)
	if err != nil {
		return nil, err
	}
	if treatment.Status != model.TreatmentStatusActive {
		return nil, apperrors.BadRequest(fmt.Sprintf("treatment is %s", treatment.Status), nil)
	}

	now := s.clock.Now()
	dose.Status = model.DoseStatusAdministered
	dose.AdministrationTime = &now
	dose.AdministeredBy = &actor
	if notes != "" {
		dose.Notes = &notes
	}
	if err := s.doses.Update(ctx, dose); err != nil {
		return nil, err
	}

	next, err := s.doses.NextPending(ctx, treatment.ID)
	if err != nil {
		return nil, err
	}
	if next != nil {
		treatment.NextDoseTime = &next.ScheduledTime
	} else {
		treatment.Status = model.TreatmentStatusCompleted
		treatment.CompletedAt = &now
		treatment.CompletedBy = &actor
	}
	if err := s.treatments.Update(ctx, treatment); err != nil {
		return nil, err
	}

	s.publish(ctx, eventDoseAdministered, map[string]interface{}{
		"dose_id":      dose.ID,
		"treatment_id": treatment.ID,
		"completed":    treatment.Status == model.TreatmentStatusCompleted,
	})
	return dose, nil
}

// CancelTreatment marks the treatment cancelled and flips every still-pending
// dose to missed in one atomic step. Cancelling an already-cancelled
// treatment is a no-op so callers can retry freely.
func (s *Service) CancelTreatment(ctx context.Context, id, actor uuid.UUID) error {
	treatment, err := s.treatments.Get(ctx, id)
	if err != nil {
		return err
	}
	if treatment.Status == model.TreatmentStatusCancelled {
		return nil
	}
	if treatment.Status == model.TreatmentStatusCompleted {
		return apperrors.BadRequest("treatment already completed", nil)
	}

	if err := s.treatments.CancelWithDoses(ctx, id, s.clock.Now()); err != nil {
		return err
	}

	s.publish(ctx, eventTreatmentCancelled, map[string]interface{}{
		"treatment_id": id,
		"actor":        actor,
	})

	s.logger.Info("treatment cancelled", "treatment_id", id.String())
	return nil
}

// ResetDose is an operational testing hook, not a dose-management feature. It
// forces the scheduled time into the past, clears the notification flag and
// the parent treatment's completion markers so the notification flow can be
// re-triggered against an existing dose.
func (s *Service) ResetDose(ctx context.Context, doseID uuid.UUID) (*model.Dose, error) {
	dose, err := s.doses.Get(ctx, doseID)
	if err != nil {
		return nil, err
	}

	dose.ScheduledTime = s.clock.Now().Add(-10 * time.Minute)
	dose.Status = model.DoseStatusPending
	dose.NotificationSent = false
	dose.AdministrationTime = nil
	dose.AdministeredBy = nil
	if err := s.doses.Update(ctx, dose); err != nil {
		return nil, err
	}

	treatment, err := s.treatments.Get(ctx, dose.TreatmentID)
	if err != nil {
		return nil, err
	}
	treatment.Status = model.TreatmentStatusActive
	treatment.CompletedAt = nil
	treatment.CompletedBy = nil
	treatment.NextDoseTime = &dose.ScheduledTime
	if err := s.treatments.Update(ctx, treatment); err != nil {
		return nil, err
	}

	s.logger.Warn("dose reset for notification re-trigger", "dose_id", doseID.String())
	return dose, nil
}

func (s *Service) publish(ctx context.Context, eventType string, payload map[string]interface{}) {
	if s.broker == nil {
		return
	}
	payload["type"] = eventType
	if err := s.broker.Publish(ctx, eventChannel, payload); err != nil {
		s.logger.Warn("event publish failed", "event", eventType, "error", err.Error())
	}
}
