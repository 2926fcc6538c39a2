package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/uzimatech/borehole-api/internal/application"
	"github.com/uzimatech/borehole-api/internal/domain/entity"
	"github.com/uzimatech/borehole-api/pkg/response"
	"github.com/uzimatech/borehole-api/pkg/validation"
)

type PaymentHandler struct {
	Svc    *application.PaymentService
	Logger *logrus.Logger
}

func NewPaymentHandler(svc *application.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{Svc: svc, Logger: logger}
}

func paymentBody(p *entity.Payment) gin.H {
	return gin.H{
		"id":                 p.ID,
		"user_id":            p.UserID,
		"service_request_id": p.ServiceRequestID,
		"amount":             p.Amount,
		"currency":           p.Currency,
		"method":             p.Method,
		"status":             p.Status,
		"transaction_id":     p.TransactionID,
		"details":            p.Details,
		"status_history":     p.StatusHistory,
		"refund":             p.Refund,
		"created_at":         p.CreatedAt,
		"updated_at":         p.UpdatedAt,
	}
}

type calculateChargesRequest struct {
	ServiceRequestID string `json:"service_request_id" binding:"required"`
}

func (h *PaymentHandler) CalculateCharges(c *gin.Context) {
	var req calculateChargesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid, _ := actor(c)
	b, err := h.Svc.CalculateCharges(c.Request.Context(), req.ServiceRequestID, uid)
	if err != nil {
		writeErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, b, "charge breakdown")
}

type processPaymentRequest struct {
	ServiceRequestID string `json:"service_request_id" binding:"required"`
	Method           string `json:"method" binding:"required"`
	CardToken        string `json:"card_token"`
	PhoneNumber      string `json:"phone_number" binding:"omitempty,phone"`
}

func (h *PaymentHandler) Process(c *gin.Context) {
	var req processPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid, _ := actor(c)
	p, err := h.Svc.Process(c.Request.Context(), uid, application.ProcessInput{
		RequestID:   req.ServiceRequestID,
		Method:      req.Method,
		CardToken:   req.CardToken,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	response.Success(c, http.StatusCreated, paymentBody(p), "payment completed")
}

func (h *PaymentHandler) Get(c *gin.Context) {
	uid, staff := actor(c)
	p, err := h.Svc.Get(c.Request.Context(), c.Param("id"), uid, staff)
	if err != nil {
		writeErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, paymentBody(p), "payment")
}

func (h *PaymentHandler) History(c *gin.Context) {
	uid, _ := actor(c)
	ps, err := h.Svc.History(c.Request.Context(), uid)
	if err != nil {
		writeErr(c, err)
		return
	}
	out := make([]gin.H, 0, len(ps))
	for _, p := range ps {
		out = append(out, paymentBody(p))
	}
	response.List(c, out, "payment history")
}

type refundRequest struct {
	Amount float64 `json:"amount" binding:"omitempty,gt=0"`
	Reason string  `json:"reason" binding:"required"`
}

func (h *PaymentHandler) Refund(c *gin.Context) {
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	p, err := h.Svc.Refund(c.Request.Context(), c.Param("id"), req.Amount, req.Reason)
	if err != nil {
		writeErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, paymentBody(p), "payment refunded")
}
