package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

type ValidationErrorResponse struct {
	Error   string            `json:"error" example:"validation"`
	Message string            `json:"message" example:"amount must be greater than 0"`
	Details []ValidationError `json:"details,omitempty"`
}

// BindError answers a failed ShouldBindJSON with 400. Validator failures are
// listed per field; anything else (malformed JSON) gets a generic message.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		BadRequest(c, "malformed request body")
		return
	}

	details := make([]ValidationError, 0, len(verrs))
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fieldMessage(fe)
		details = append(details, ValidationError{Field: fe.Field(), Tag: fe.Tag(), Message: msg})
		msgs = append(msgs, msg)
	}
	c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Error:   "validation",
		Message: strings.Join(msgs, "; "),
		Details: details,
	})
}

func fieldMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must be at least " + fe.Param()
	case "max":
		return field + " must be at most " + fe.Param()
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "gte":
		return field + " must be greater than or equal to " + fe.Param()
	case "oneof":
		return field + " must be one of " + fe.Param()
	default:
		return field + " is invalid"
	}
}
