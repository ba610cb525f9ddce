package model

import (
	"time"

	"github.com/google/uuid"
)

// TreatmentStatus transitions only forward: active -> completed, or
// active -> cancelled. Once completed or cancelled no dose may be administered.
type TreatmentStatus string

const (
	TreatmentStatusActive    TreatmentStatus = "active"
	TreatmentStatusCompleted TreatmentStatus = "completed"
	TreatmentStatusCancelled TreatmentStatus = "cancelled"
)

// Treatment is a prescription for a patient. Its dose sequence is materialized
// once at creation time; NextDoseTime is a display pointer to the earliest
// remaining pending dose and never drives scheduling.
type Treatment struct {
	Base
	PatientID      uuid.UUID       `json:"patient_id" db:"patient_id"`
	Drug           string          `json:"drug" db:"drug"`
	Dosage         string          `json:"dosage" db:"dosage"`
	FrequencyHours float64         `json:"frequency_hours" db:"frequency_hours"`
	StartTime      time.Time       `json:"start_time" db:"start_time"`
	DurationDays   float64         `json:"duration_days" db:"duration_days"`
	Status         TreatmentStatus `json:"status" db:"status"`
	NextDoseTime   *time.Time      `json:"next_dose_time,omitempty" db:"next_dose_time"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	CompletedBy    *uuid.UUID      `json:"completed_by,omitempty" db:"completed_by"`
	CreatedBy      uuid.UUID       `json:"created_by" db:"created_by"`

	Doses []*Dose `json:"doses,omitempty" db:"-"`
}

type CreateTreatmentRequest struct {
	Drug           string     `json:"drug" binding:"required"`
	Dosage         string     `json:"dosage" binding:"required"`
	FrequencyHours float64    `json:"frequency_hours" binding:"required"`
	DurationDays   float64    `json:"duration_days" binding:"required"`
	StartTime      *time.Time `json:"start_time"`
}

// UpdateTreatmentRequest carries the whitelisted mutable fields. Status,
// completion markers and ownership are not reachable through updates.
type UpdateTreatmentRequest struct {
	Drug           *string  `json:"drug"`
	Dosage         *string  `json:"dosage"`
	FrequencyHours *float64 `json:"frequency_hours"`
	DurationDays   *float64 `json:"duration_days"`
}
