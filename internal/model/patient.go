package model

import (
	"github.com/google/uuid"
)

// Patient is an animal under care. It owns its treatments and notes; the
// assigned caretaker (an assistant user) is the default notification recipient.
type Patient struct {
	Base
	Name        string    `json:"name" db:"name"`
	Species     string    `json:"species" db:"species"`
	CreatedBy   uuid.UUID `json:"created_by" db:"created_by"`
	CaretakerID uuid.UUID `json:"caretaker_id" db:"caretaker_id"`

	Treatments []*Treatment `json:"treatments,omitempty" db:"-"`
	Notes      []*Note      `json:"notes,omitempty" db:"-"`
}

type CreatePatientRequest struct {
	Name        string `json:"name" binding:"required"`
	Species     string `json:"species" binding:"required"`
	CaretakerID string `json:"caretaker_id" binding:"required,uuid"`
}

type UpdatePatientRequest struct {
	Name        *string `json:"name"`
	Species     *string `json:"species"`
	CaretakerID *string `json:"caretaker_id" binding:"omitempty,uuid"`
}

type PatientFilters struct {
	Species     string     `form:"species"`
	CaretakerID *uuid.UUID `form:"-"`
	Pagination
}
