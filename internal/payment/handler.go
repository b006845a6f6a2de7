package payment

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"time"

	"carpool/internal/api"
	"carpool/internal/booking"
	"carpool/internal/receipt"

	"github.com/gin-gonic/gin"
)

const webhookSecretHeader = "X-Webhook-Secret"

type Handler struct {
	service       Service
	webhookSecret string
}

func NewHandler(service Service, webhookSecret string) *Handler {
	return &Handler{service: service, webhookSecret: webhookSecret}
}

// InitiatePayment godoc
// @Summary      Pay for a confirmed booking
// @Description  Non-cash payments are charged immediately and held in escrow until departure.
// @Tags         payments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int              true  "Booking ID"
// @Param        request  body      InitiateRequest  true  "Payment method"
// @Success      201      {object}  Payment
// @Failure      409      {object}  api.ErrorResponse
// @Failure      502      {object}  api.ErrorResponse
// @Router       /bookings/{id}/payments [post]
func (h *Handler) InitiatePayment(c *gin.Context) {
	actor, ok := booking.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	bookingID, ok := api.PathID(c, "id")
	if !ok {
		return
	}

	var req InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.BindError(c, err)
		return
	}

	p, err := h.service.Initiate(c.Request.Context(), bookingID, actor.UserID, req.Method, req.Phone)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, p)
}

// ListBookingPayments godoc
// @Summary      List payment attempts of a booking
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Booking ID"
// @Success      200  {array}   Payment
// @Router       /bookings/{id}/payments [get]
func (h *Handler) ListBookingPayments(c *gin.Context) {
	actor, ok := booking.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	bookingID, ok := api.PathID(c, "id")
	if !ok {
		return
	}

	payments, err := h.service.ListByBooking(c.Request.Context(), bookingID, actor)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, payments)
}

// GetPayment godoc
// @Summary      Get a payment
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Payment ID"
// @Success      200  {object}  Payment
// @Failure      404  {object}  api.ErrorResponse
// @Router       /payments/{id} [get]
func (h *Handler) GetPayment(c *gin.Context) {
	p, ok := h.visiblePayment(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetReceipt godoc
// @Summary      Download a payment receipt
// @Tags         payments
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        id   path      int  true  "Payment ID"
// @Success      200  {file}    file
// @Router       /payments/{id}/receipt [get]
func (h *Handler) GetReceipt(c *gin.Context) {
	p, ok := h.visiblePayment(c)
	if !ok {
		return
	}

	pdf, err := receipt.Render(ReceiptData(p, time.Now()))
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt-%d.pdf", p.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *Handler) visiblePayment(c *gin.Context) (*Payment, bool) {
	actor, ok := booking.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return nil, false
	}
	id, ok := api.PathID(c, "id")
	if !ok {
		return nil, false
	}
	p, err := h.service.Get(c.Request.Context(), id, actor)
	if err != nil {
		api.RespondError(c, err)
		return nil, false
	}
	return p, true
}

// ConfirmCash godoc
// @Summary      Confirm a cash payment was received
// @Tags         payments
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Payment ID"
// @Success      200  {object}  Payment
// @Router       /payments/{id}/cash-received [post]
func (h *Handler) ConfirmCash(c *gin.Context) {
	actor, ok := booking.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}
	id, ok := api.PathID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.ConfirmCashReceipt(c.Request.Context(), id, actor.UserID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ReleasePayment godoc
// @Summary      Release escrow to the driver
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Payment ID"
// @Success      200  {object}  Payment
// @Failure      409  {object}  api.ErrorResponse
// @Router       /admin/payments/{id}/release [post]
func (h *Handler) ReleasePayment(c *gin.Context) {
	id, ok := api.PathID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.ReleaseToDriver(c.Request.Context(), id)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// RefundPayment godoc
// @Summary      Refund escrow to the passenger
// @Tags         admin
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      int            true   "Payment ID"
// @Param        request  body      RefundRequest  false  "Penalty"
// @Success      200      {object}  Payment
// @Failure      409      {object}  api.ErrorResponse
// @Router       /admin/payments/{id}/refund [post]
func (h *Handler) RefundPayment(c *gin.Context) {
	id, ok := api.PathID(c, "id")
	if !ok {
		return
	}
	var req RefundRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			api.BadRequest(c, "invalid refund request")
			return
		}
	}

	p, err := h.service.Refund(c.Request.Context(), id, req.ApplyPenalty)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// Webhook godoc
// @Summary      Provider charge callback
// @Tags         webhooks
// @Accept       json
// @Produce      json
// @Param        X-Webhook-Secret  header    string        true  "Shared secret"
// @Param        request           body      WebhookEvent  true  "Charge result"
// @Success      200               {object}  Payment
// @Failure      401               {object}  api.ErrorResponse
// @Router       /webhooks/payments [post]
func (h *Handler) Webhook(c *gin.Context) {
	got := c.GetHeader(webhookSecretHeader)
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) != 1 {
		c.JSON(http.StatusUnauthorized, api.ErrorResponse{Error: "unauthorized", Message: "invalid webhook secret"})
		return
	}

	var ev WebhookEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		api.BindError(c, err)
		return
	}

	var (
		p   *Payment
		err error
	)
	if ev.Status == "success" {
		p, err = h.service.HandlePaymentSuccess(c.Request.Context(), ev.TransactionID, ev.ExternalReference)
	} else {
		p, err = h.service.HandlePaymentFailure(c.Request.Context(), ev.TransactionID, ev.Message)
	}
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func ReceiptData(p *Payment, issued time.Time) receipt.Data {
	return receipt.Data{
		PaymentID:        p.ID,
		TransactionID:    p.TransactionID,
		BookingID:        p.BookingID,
		PayerID:          p.PayerID,
		PayeeID:          p.PayeeID,
		Method:           string(p.Method),
		Status:           string(p.Status),
		EscrowStatus:     string(p.EscrowStatus),
		Currency:         p.Currency,
		Amount:           p.Amount,
		DriverAmount:     p.DriverAmount,
		CommissionAmount: p.CommissionAmount,
		RefundAmount:     p.RefundAmount,
		PenaltyAmount:    p.PenaltyAmount,
		PaidAt:           p.PaidAt,
		IssuedAt:         issued,
	}
}
