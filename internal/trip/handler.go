package trip

import (
	"net/http"
	"strconv"

	"carpool/internal/api"
	"carpool/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CreateTrip godoc
// @Summary      Publish a trip
// @Description  Registers a trip offered by the authenticated driver.
// @Tags         trips
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      CreateTripRequest  true  "Trip"
// @Success      201      {object}  Trip
// @Failure      400      {object}  api.ErrorResponse
// @Router       /trips [post]
func (h *Handler) CreateTrip(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	t, err := h.service.Create(c.Request.Context(), userID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, t)
}

// GetTrip godoc
// @Summary      Get trip
// @Tags         trips
// @Security     BearerAuth
// @Produce      json
// @Param        tripID  path      int  true  "Trip ID"
// @Success      200     {object}  Trip
// @Failure      404     {object}  api.ErrorResponse
// @Router       /trips/{tripID} [get]
func (h *Handler) GetTrip(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("tripID"))
	if err != nil {
		api.BadRequest(c, "invalid trip ID")
		return
	}

	t, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, t)
}

// ListMyTrips godoc
// @Summary      List trips of the authenticated driver
// @Tags         trips
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  Trip
// @Router       /trips [get]
func (h *Handler) ListMyTrips(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	trips, err := h.service.ListByDriver(c.Request.Context(), userID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, trips)
}
