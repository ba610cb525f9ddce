package model

import (
	"time"

	"github.com/google/uuid"
)

// DoseStatus has two terminal transitions: pending -> administered and
// pending -> missed. Nothing transitions out of a terminal state.
type DoseStatus string

const (
	DoseStatusPending      DoseStatus = "pending"
	DoseStatusAdministered DoseStatus = "administered"
	DoseStatusMissed       DoseStatus = "missed"
)

// Dose is a single scheduled administration, owned by exactly one treatment.
// NotificationSent flips false -> true exactly once; only the reset hook may
// clear it.
type Dose struct {
	ID                 uuid.UUID  `json:"id" db:"id"`
	TreatmentID        uuid.UUID  `json:"treatment_id" db:"treatment_id"`
	ScheduledTime      time.Time  `json:"scheduled_time" db:"scheduled_time"`
	Status             DoseStatus `json:"status" db:"status"`
	AdministrationTime *time.Time `json:"administration_time,omitempty" db:"administration_time"`
	AdministeredBy     *uuid.UUID `json:"administered_by,omitempty" db:"administered_by"`
	Notes              *string    `json:"notes,omitempty" db:"notes"`
	NotificationSent   bool       `json:"notification_sent" db:"notification_sent"`
}

type AdministerDoseRequest struct {
	Notes string `json:"notes"`
}

// DueDose is the notification read model: one row per due dose with the
// treatment, patient and caretaker context joined in, so the poller never
// walks treatments one by one.
type DueDose struct {
	DoseID         uuid.UUID `json:"dose_id" db:"dose_id"`
	TreatmentID    uuid.UUID `json:"treatment_id" db:"treatment_id"`
	PatientID      uuid.UUID `json:"patient_id" db:"patient_id"`
	ScheduledTime  time.Time `json:"scheduled_time" db:"scheduled_time"`
	PatientName    string    `json:"patient_name" db:"patient_name"`
	Drug           string    `json:"drug" db:"drug"`
	Dosage         string    `json:"dosage" db:"dosage"`
	CaretakerName  string    `json:"caretaker_name" db:"caretaker_name"`
	CaretakerPhone string    `json:"caretaker_phone" db:"caretaker_phone"`
	LatestNote     *string   `json:"latest_note,omitempty" db:"latest_note"`
}
