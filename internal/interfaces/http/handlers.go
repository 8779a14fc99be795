package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hokusei/nippo/internal/application/port"
	"github.com/hokusei/nippo/internal/application/service"
	"github.com/hokusei/nippo/internal/domain/entity"
	"github.com/hokusei/nippo/internal/domain/session"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	departments map[string]entity.Department
	sessions    *session.Manager
	formService *service.FormService
	submissions port.SubmissionRepository
	logger      Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	departments map[string]entity.Department,
	sessions *session.Manager,
	formService *service.FormService,
	submissions port.SubmissionRepository,
	logger Logger,
) *Handlers {
	return &Handlers{
		departments: departments,
		sessions:    sessions,
		formService: formService,
		submissions: submissions,
		logger:      logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// DepartmentResponse represents a department catalogue in API responses
type DepartmentResponse struct {
	Code         string   `json:"code"`
	Name         string   `json:"name"`
	Workers      []string `json:"workers"`
	SlotCap      int      `json:"slot_cap"`
	ReleaseNotes string   `json:"release_notes,omitempty"`
}

// SlotResponse represents one visible slot with its entered values and the
// select options the form should offer for it
type SlotResponse struct {
	Index           int                `json:"index"`
	Values          session.SlotValues `json:"values"`
	CustomerOptions []string           `json:"customer_options"`
	JobTypeOptions  []string           `json:"job_type_options,omitempty"`
	JobNumberShown  bool               `json:"job_number_shown"`
	DefaultNumber   string             `json:"default_number,omitempty"`
}

// SessionResponse represents the full form state for rendering
type SessionResponse struct {
	ID            string         `json:"id"`
	Department    string         `json:"department"`
	Title         string         `json:"title"`
	Date          string         `json:"date"`
	Worker        string         `json:"worker"`
	Workers       []string       `json:"workers"`
	SlotCount     int            `json:"slot_count"`
	SlotCap       int            `json:"slot_cap"`
	Slots         []SlotResponse `json:"slots"`
	ValidRows     int            `json:"valid_rows"`
	TotalHours    float64        `json:"total_hours"`
	AutoHours     float64        `json:"auto_hours,omitempty"`
	CanAddSlot    bool           `json:"can_add_slot"`
	CanSubmit     bool           `json:"can_submit"`
	Submitting    bool           `json:"submitting"`
	JustSubmitted bool           `json:"just_submitted"`
	Failure       string         `json:"failure,omitempty"`
	FailureHint   string         `json:"failure_hint,omitempty"`
	ReleaseNotes  string         `json:"release_notes,omitempty"`
}

// CreateSessionRequest represents the body of POST /api/sessions
type CreateSessionRequest struct {
	Department string `json:"department" binding:"required"`
}

// SlotFields carries the entered values of one slot
type SlotFields struct {
	Index         int    `json:"index" binding:"required"`
	Customer      string `json:"customer"`
	CustomerOther string `json:"customer_other"`
	JobType       string `json:"job_type"`
	JobNumber     string `json:"job_number"`
	Hours         string `json:"hours"`
}

// UpdateFieldsRequest represents the body of PUT /api/sessions/:id/fields
type UpdateFieldsRequest struct {
	Date   *string      `json:"date"`
	Worker *string      `json:"worker"`
	Slots  []SlotFields `json:"slots"`
}

// ListSubmissionsRequest represents query parameters for the journal listing
type ListSubmissionsRequest struct {
	Department string `form:"department"`
	Limit      int    `form:"limit"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

// ListDepartments handles GET /api/departments
func (h *Handlers) ListDepartments(c *gin.Context) {
	responses := make([]DepartmentResponse, 0, len(h.departments))
	for _, dept := range h.departments {
		responses = append(responses, DepartmentResponse{
			Code:         dept.Code,
			Name:         dept.Name,
			Workers:      dept.Workers,
			SlotCap:      dept.SlotCap,
			ReleaseNotes: dept.ReleaseNotes,
		})
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    responses,
	})
}

// CreateSession handles POST /api/sessions
func (h *Handlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid session request", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "department is required",
		})
		return
	}

	dept, ok := h.departments[req.Department]
	if !ok {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "unknown department",
		})
		return
	}

	sess := h.sessions.Create(dept)

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    h.toSessionResponse(sess),
	})
}

// GetSession handles GET /api/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "session not found",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.toSessionResponse(sess),
	})
}

// UpdateFields handles PUT /api/sessions/:id/fields
func (h *Handlers) UpdateFields(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "session not found",
		})
		return
	}

	var req UpdateFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid field update", "session_id", sess.ID, "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid field update",
		})
		return
	}

	if req.Date != nil {
		sess.SetDate(*req.Date)
	}
	if req.Worker != nil {
		if err := sess.SetWorker(*req.Worker); err != nil {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   err.Error(),
			})
			return
		}
	}
	for _, slot := range req.Slots {
		err := sess.SetSlot(slot.Index, session.SlotValues{
			Customer:      slot.Customer,
			CustomerOther: slot.CustomerOther,
			JobType:       slot.JobType,
			JobNumber:     slot.JobNumber,
			HoursText:     slot.Hours,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, Response{
				Success: false,
				Error:   err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    h.toSessionResponse(sess),
	})
}

// AddSlot handles POST /api/sessions/:id/slots
func (h *Handlers) AddSlot(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "session not found",
		})
		return
	}

	added := sess.AddSlot()
	if !added {
		h.logger.Info("Slot cap reached", "session_id", sess.ID)
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"added":      added,
			"slot_count": sess.SlotCount(),
		},
	})
}

// Submit handles POST /api/sessions/:id/submit
func (h *Handlers) Submit(c *gin.Context) {
	sess, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "session not found",
		})
		return
	}

	result, err := h.formService.Submit(c.Request.Context(), sess)
	if err != nil {
		h.logger.Error("Submit failed", "session_id", sess.ID, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "submit failed: " + err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    result,
	})
}

// ListSubmissions handles GET /api/submissions
func (h *Handlers) ListSubmissions(c *gin.Context) {
	var req ListSubmissionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}

	subs, err := h.submissions.ListRecent(c.Request.Context(), req.Department, req.Limit)
	if err != nil {
		h.logger.Error("Failed to list submissions", "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve submissions",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    subs,
	})
}

// GetSubmission handles GET /api/submissions/:id
func (h *Handlers) GetSubmission(c *gin.Context) {
	sub, err := h.submissions.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "submission not found",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    sub,
	})
}

// toSessionResponse renders the session the way the original form laid itself
// out: slots only appear once a worker is chosen, the job type select is
// hidden for miscellaneous work and the job number until a job type is picked.
func (h *Handlers) toSessionResponse(sess *session.Session) SessionResponse {
	dept := sess.Department

	resp := SessionResponse{
		ID:           sess.ID,
		Department:   dept.Code,
		Title:        dept.Name,
		Date:         sess.Date(),
		Worker:       sess.Worker(),
		Workers:      append([]string{entity.SentinelChoose}, dept.Workers...),
		SlotCount:    sess.SlotCount(),
		SlotCap:      dept.SlotCap,
		Submitting:   sess.Submitting(),
		Failure:      sess.Failure(),
		ReleaseNotes: dept.ReleaseNotes,
	}
	if resp.Failure != "" {
		resp.FailureHint = service.RemediationHint
	}
	resp.JustSubmitted = sess.ConsumeJustSubmitted()

	if resp.Worker == "" {
		return resp
	}
	resp.CanAddSlot = resp.SlotCount < dept.SlotCap

	records := h.formService.Collect(sess, dept, sess.SlotCount())
	vs := h.formService.Valid(dept, records)
	resp.ValidRows = len(vs.Records)
	resp.TotalHours = vs.Total
	resp.AutoHours = vs.AutoTotal

	// Submit stays disabled while a write is in flight or nothing is complete.
	resp.CanSubmit = !resp.Submitting && len(vs.Records) > 0

	resp.Slots = make([]SlotResponse, 0, sess.SlotCount())
	for i := 1; i <= sess.SlotCount(); i++ {
		values := sess.Slot(i)
		slot := SlotResponse{
			Index:           i,
			Values:          values,
			CustomerOptions: dept.CustomerOptions(),
		}
		if values.Customer != "" && values.Customer != entity.SentinelChoose && values.Customer != entity.CustomerMisc {
			slot.JobTypeOptions = dept.JobTypeOptions()
		}
		if values.JobType != "" && values.JobType != entity.SentinelChoose {
			slot.JobNumberShown = true
			if dept.EstimateJobType != "" && values.JobType == dept.EstimateJobType {
				slot.DefaultNumber = dept.EstimateJobNumber
			}
		}
		if values.Customer == entity.CustomerMisc {
			slot.JobNumberShown = true
		}
		resp.Slots = append(resp.Slots, slot)
	}

	return resp
}
