package departure

import (
	"context"
	"net/http"

	"carpool/internal/api"
	"carpool/internal/booking"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ConfirmDriver godoc
// @Summary      Driver confirms departure
// @Description  When the passenger has already confirmed, the trip starts and escrow is released.
// @Tags         departure
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {object}  Outcome
// @Failure      409  {object}  api.ErrorResponse
// @Router       /bookings/{id}/departure/driver [post]
func (h *Handler) ConfirmDriver(c *gin.Context) {
	h.confirm(c, h.service.ConfirmByDriver)
}

// ConfirmPassenger godoc
// @Summary      Passenger confirms departure
// @Tags         departure
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {object}  Outcome
// @Failure      409  {object}  api.ErrorResponse
// @Router       /bookings/{id}/departure/passenger [post]
func (h *Handler) ConfirmPassenger(c *gin.Context) {
	h.confirm(c, h.service.ConfirmByPassenger)
}

func (h *Handler) confirm(c *gin.Context, fn func(ctx context.Context, bookingID, userID int) (*Outcome, error)) {
	actor, ok := booking.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	id, ok := api.PathID(c, "id")
	if !ok {
		return
	}

	out, err := fn(c.Request.Context(), id, actor.UserID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
