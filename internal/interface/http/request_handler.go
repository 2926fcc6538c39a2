package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/uzimatech/borehole-api/internal/application"
	"github.com/uzimatech/borehole-api/internal/domain/entity"
	"github.com/uzimatech/borehole-api/internal/interface/middleware"
	"github.com/uzimatech/borehole-api/pkg/response"
	"github.com/uzimatech/borehole-api/pkg/validation"
)

type RequestHandler struct {
	Svc            *application.RequestService
	Logger         *logrus.Logger
	MaxUploadBytes int64
}

func NewRequestHandler(svc *application.RequestService, logger *logrus.Logger, maxUploadBytes int64) *RequestHandler {
	return &RequestHandler{Svc: svc, Logger: logger, MaxUploadBytes: maxUploadBytes}
}

func actor(c *gin.Context) (string, bool) {
	return c.GetString(middleware.CtxUserIDKey), c.GetString(middleware.CtxRoleKey) == entity.RoleAdmin
}

type specificationsRequest struct {
	DesiredDepth           float64 `json:"desired_depth" binding:"required,gt=0"`
	GroundCondition        string  `json:"ground_condition"`
	WaterTableDepth        float64 `json:"water_table_depth"`
	PropertySize           string  `json:"property_size"`
	EquipmentTier          string  `json:"equipment_tier"`
	AdditionalRequirements string  `json:"additional_requirements"`
}

func (r specificationsRequest) toEntity() entity.Specifications {
	return entity.Specifications{
		DesiredDepth:           r.DesiredDepth,
		GroundCondition:        r.GroundCondition,
		WaterTableDepth:        r.WaterTableDepth,
		PropertySize:           r.PropertySize,
		EquipmentTier:          r.EquipmentTier,
		AdditionalRequirements: r.AdditionalRequirements,
	}
}

type createRequestRequest struct {
	ServiceType    string                `json:"service_type" binding:"required"`
	Address        string                `json:"address" binding:"required"`
	Specifications specificationsRequest `json:"specifications" binding:"required"`
	EstimatedCost  float64               `json:"estimated_cost"`
	Currency       string                `json:"currency"`
	RequestedDate  *time.Time            `json:"requested_date"`
}

func requestBody(r *entity.ServiceRequest) gin.H {
	return gin.H{
		"id":             r.ID,
		"user_id":        r.UserID,
		"service_type":   r.ServiceType,
		"location":       r.Location,
		"specifications": r.Specifications,
		"status":         r.Status,
		"status_history": r.StatusHistory,
		"estimated_cost": r.EstimatedCost,
		"schedule":       r.Schedule,
		"payment_status": r.PaymentStatus,
		"attachments":    r.Attachments,
		"comments":       r.Comments,
		"progress":       r.Progress(),
		"created_at":     r.CreatedAt,
		"updated_at":     r.UpdatedAt,
	}
}

func (h *RequestHandler) Create(c *gin.Context) {
	var req createRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid, _ := actor(c)
	r, err := h.Svc.Create(c.Request.Context(), uid, application.CreateRequestInput{
		ServiceType:    req.ServiceType,
		Address:        req.Address,
		Specifications: req.Specifications.toEntity(),
		EstimatedCost:  entity.Money{Amount: req.EstimatedCost, Currency: req.Currency},
		RequestedDate:  req.RequestedDate,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	response.Success(c, http.StatusCreated, requestBody(r), "service request created")
}

func (h *RequestHandler) List(c *gin.Context) {
	uid, _ := actor(c)
	rs, err := h.Svc.ListForUser(c.Request.Context(), uid)
	if err != nil {
		writeErr(c, err)
		return
	}
	out := make([]gin.H, 0, len(rs))
	for _, r := range rs {
		out = append(out, requestBody(r))
	}
	response.List(c, out, "service requests")
}

func (h *RequestHandler) Get(c *gin.Context) {
	uid, staff := actor(c)
	r, err := h.Svc.Get(c.Request.Context(), c.Param("id"), uid, staff)
	if err != nil {
		writeErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, requestBody(r), "service request")
}

type updateRequestRequest struct {
	Address        string                 `json:"address"`
	Specifications *specificationsRequest `json:"specifications"`
	RequestedDate  *time.Time             `json:"requested_date"`
}

func (h *RequestHandler) Update(c *gin.Context) {
	var req updateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid, _ := actor(c)
	in := application.UpdateRequestInput{Address: req.Address, RequestedDate: req.RequestedDate}
	if req.Specifications != nil {
		spec := req.Specifications.toEntity()
		in.Specifications = &spec
	}
	r, err := h.Svc.Update(c.Request.Context(), c.Param("id"), uid, in)
	if err != nil {
		writeErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, requestBody(r), "service request updated")
}

func (h *RequestHandler) Cancel(c *gin.Context) {
	uid, staff := actor(c)
	r, err := h.Svc.Cancel(c.Request.Context(), c.Param("id"), uid, staff)
	if err != nil {
		writeErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, requestBody(r), "service request cancelled")
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

func (h *RequestHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid, _ := actor(c)
	r, err := h.Svc.Transition(c.Request.Context(), c.Param("id"), uid, req.Status, req.Note)
	if err != nil {
		writeErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, requestBody(r), "status updated")
}

func (h *RequestHandler) Status(c *gin.Context) {
	uid, staff := actor(c)
	r, err := h.Svc.Get(c.Request.Context(), c.Param("id"), uid, staff)
	if err != nil {
		writeErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"id":       r.ID,
		"status":   r.Status,
		"progress": r.Progress(),
	}, "request status")
}

func (h *RequestHandler) Timeline(c *gin.Context) {
	uid, staff := actor(c)
	history, err := h.Svc.Timeline(c.Request.Context(), c.Param("id"), uid, staff)
	if err != nil {
		writeErr(c, err)
		return
	}
	response.List(c, history, "status history")
}

type commentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *RequestHandler) AddComment(c *gin.Context) {
	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	uid, staff := actor(c)
	r, err := h.Svc.AddComment(c.Request.Context(), c.Param("id"), uid, staff, req.Content)
	if err != nil {
		writeErr(c, err)
		return
	}
	response.Success(c, http.StatusCreated, requestBody(r), "comment added")
}

func (h *RequestHandler) AddAttachment(c *gin.Context) {
	uid, _ := actor(c)
	fh, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, "file is required", nil)
		return
	}
	if h.MaxUploadBytes > 0 && fh.Size > h.MaxUploadBytes {
		response.Error(c, http.StatusBadRequest, "file exceeds upload limit", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "unreadable upload", nil)
		return
	}
	defer func() { _ = f.Close() }()

	r, err := h.Svc.AddAttachment(c.Request.Context(), c.Param("id"), uid, f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		writeErr(c, err)
		return
	}
	response.Success(c, http.StatusCreated, requestBody(r), "attachment uploaded")
}

func (h *RequestHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error(c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		writeErr(c, err)
		return
	}
	response.List(c, hits, "search results")
}
