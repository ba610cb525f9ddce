package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/medivet/vetcare-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// RespondError maps an application error to its HTTP status and writes the
// error envelope. Unknown errors come back as 500 with a generic message.
func RespondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	status := http.StatusInternalServerError
	message := "internal server error"

	switch apperrors.Code(err) {
	case apperrors.ErrNotFound:
		status = http.StatusNotFound
	case apperrors.ErrBadRequest, apperrors.ErrInvalidSchedule:
		status = http.StatusBadRequest
	case apperrors.ErrUnauthorized:
		status = http.StatusUnauthorized
	case apperrors.ErrForbidden:
		status = http.StatusForbidden
	case apperrors.ErrTreatmentCreation:
		status = http.StatusUnprocessableEntity
	}

	if status != http.StatusInternalServerError {
		if errors.As(err, &appErr) {
			message = appErr.Message
		} else {
			message = err.Error()
		}
	}

	c.JSON(status, NewErrorResponse(message))
}
