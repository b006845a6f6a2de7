package booking

import (
	"context"
	"net/http"
	"time"

	"carpool/internal/api"
	"carpool/internal/auth"
	"carpool/internal/policy"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// ActorFrom reads the authenticated caller set by auth.AuthMiddleware.
func ActorFrom(c *gin.Context) (Actor, bool) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		return Actor{}, false
	}
	role, ok := auth.GetUserRole(c)
	if !ok {
		return Actor{}, false
	}
	return Actor{UserID: userID, Role: policy.Role(role)}, true
}

// CreateBooking godoc
// @Summary      Request seats on a trip
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        tripID   path      int                   true  "Trip ID"
// @Param        request  body      CreateBookingRequest  true  "Seats"
// @Success      201      {object}  Booking
// @Failure      409      {object}  api.ErrorResponse
// @Router       /trips/{tripID}/bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	actor, ok := ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	tripID, ok := api.PathID(c, "tripID")
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	b, err := h.service.Create(c.Request.Context(), tripID, actor.UserID, req.Seats)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, b)
}

// ConfirmBooking godoc
// @Summary      Accept a booking request
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {object}  Booking
// @Failure      409  {object}  api.ErrorResponse
// @Router       /bookings/{id}/confirm [post]
func (h *Handler) ConfirmBooking(c *gin.Context) {
	h.driverAction(c, h.service.Confirm)
}

// RejectBooking godoc
// @Summary      Decline a booking request
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {object}  Booking
// @Router       /bookings/{id}/reject [post]
func (h *Handler) RejectBooking(c *gin.Context) {
	h.driverAction(c, h.service.Reject)
}

// CompleteBooking godoc
// @Summary      Mark a started booking as completed
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {object}  Booking
// @Router       /bookings/{id}/complete [post]
func (h *Handler) CompleteBooking(c *gin.Context) {
	h.driverAction(c, h.service.Complete)
}

func (h *Handler) driverAction(c *gin.Context, fn func(ctx context.Context, id, driverID int) (*Booking, error)) {
	actor, ok := ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	id, ok := api.PathID(c, "id")
	if !ok {
		return
	}

	b, err := fn(c.Request.Context(), id, actor.UserID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// CancelBooking godoc
// @Summary      Cancel a booking
// @Description  Passengers cancel their own booking; a held payment is refunded, minus the penalty on or after the departure date.
// @Description  Drivers and admins may pass refund terms explicitly; without them a held payment stays in escrow.
// @Tags         bookings
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int            true   "Booking ID"
// @Param        request  body      CancelRequest  false  "Refund terms (driver/admin only)"
// @Success      200      {object}  CancelResult
// @Failure      409      {object}  api.ErrorResponse
// @Router       /bookings/{id}/cancel [post]
// @Router       /admin/bookings/{id}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	actor, ok := ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	id, ok := api.PathID(c, "id")
	if !ok {
		return
	}

	var req CancelRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			api.BadRequest(c, "invalid cancel request")
			return
		}
	}

	res, err := h.service.Cancel(c.Request.Context(), id, actor, req.Options())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// MarkNoShow godoc
// @Summary      Report a passenger no-show
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {object}  Booking
// @Failure      409  {object}  api.ErrorResponse
// @Router       /bookings/{id}/no-show [post]
// @Router       /admin/bookings/{id}/no-show [post]
func (h *Handler) MarkNoShow(c *gin.Context) {
	actor, ok := ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	id, ok := api.PathID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.MarkNoShow(c.Request.Context(), id, actor)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// GetBooking godoc
// @Summary      Get booking
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {object}  Booking
// @Failure      404  {object}  api.ErrorResponse
// @Router       /bookings/{id} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	actor, ok := ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	id, ok := api.PathID(c, "id")
	if !ok {
		return
	}

	b, err := h.service.Get(c.Request.Context(), id, actor)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, b)
}

// ListMyBookings godoc
// @Summary      List own bookings
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Booking
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	bookings, err := h.service.ListByPassenger(c.Request.Context(), userID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// ListTripBookings godoc
// @Summary      List bookings of a trip
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        tripID  path     int  true  "Trip ID"
// @Success      200     {array}  Booking
// @Router       /trips/{tripID}/bookings [get]
func (h *Handler) ListTripBookings(c *gin.Context) {
	actor, ok := ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	tripID, ok := api.PathID(c, "tripID")
	if !ok {
		return
	}

	bookings, err := h.service.ListByTrip(c.Request.Context(), tripID, actor)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// BookingStats godoc
// @Summary      Daily booking statistics
// @Description  Dates are YYYY-MM-DD; to is exclusive. Defaults to the last 30 days.
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        from  query    string  false  "First day"
// @Param        to    query    string  false  "Day after the last one"
// @Success      200   {array}  DailyStats
// @Failure      400   {object} api.ErrorResponse
// @Router       /admin/stats/bookings [get]
func (h *Handler) BookingStats(c *gin.Context) {
	to := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	from := to.AddDate(0, 0, -30)

	var err error
	if v := c.Query("from"); v != "" {
		if from, err = time.Parse(time.DateOnly, v); err != nil {
			api.BadRequest(c, "from must be YYYY-MM-DD")
			return
		}
	}
	if v := c.Query("to"); v != "" {
		if to, err = time.Parse(time.DateOnly, v); err != nil {
			api.BadRequest(c, "to must be YYYY-MM-DD")
			return
		}
	}

	stats, err := h.service.Stats(c.Request.Context(), from, to)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
