package model

import (
	"time"

	"github.com/google/uuid"
)

// Note is free-text observation on a patient. The most recent note rides
// along in the notification payload.
type Note struct {
	ID        uuid.UUID `json:"id" db:"id"`
	PatientID uuid.UUID `json:"patient_id" db:"patient_id"`
	Content   string    `json:"content" db:"content"`
	CreatedBy uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateNoteRequest struct {
	Content string `json:"content" binding:"required"`
}
