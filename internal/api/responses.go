package api

import (
	"strconv"

	"carpool/internal/apperr"
	"carpool/internal/logger"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error   string `json:"error" example:"seats_unavailable"`
	Message string `json:"message" example:"only 1 seat left on trip 4"`
}

type MessageResponse struct {
	Message string `json:"message" example:"ok"`
}

type HealthResponse struct {
	Status string            `json:"status" example:"ok"`
	Failed map[string]string `json:"failed,omitempty"`
}

// RespondError writes err as {"error": kind, "message": ...} with the status
// of its kind. Errors without a kind are logged and hidden behind a generic
// message.
func RespondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	msg := err.Error()
	if kind == apperr.KindInternal {
		logger.Error("request failed", "path", c.FullPath(), "error", err)
		msg = "internal server error"
	}
	c.JSON(apperr.HTTPStatus(kind), ErrorResponse{Error: string(kind), Message: msg})
}

func BadRequest(c *gin.Context, msg string) {
	RespondError(c, apperr.Validation("%s", msg))
}

// PathID parses a positive integer path parameter, writing a 400 when it is
// missing or malformed.
func PathID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		BadRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
