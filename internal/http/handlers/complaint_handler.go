// Complaint HTTP handlers.
//
// This file exposes the public endpoints:
//   - GET  /                 (liveness banner)
//   - POST /api/complaints   (classify and store a complaint)
//   - GET  /api/complaints   (list stored complaints, newest first)
//
// Handlers are transport-thin: they bind JSON, delegate to ComplaintService
// and translate service errors into the ErrorResponse envelope.
//
// Idempotency:
// If the client supplies an Idempotency-Key header and a stored response
// exists for (X-User-ID or "anonymous", key), the handler returns that
// response verbatim with `Idempotency-Replayed: true` and does no work.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/campuspulse-backend/internal/domain"
	"github.com/tbourn/campuspulse-backend/internal/http/middleware"
	"github.com/tbourn/campuspulse-backend/internal/repo"
	"github.com/tbourn/campuspulse-backend/internal/services"
)

//
// DTOs
//

// SubmitComplaintRequest is the JSON payload for a new complaint. Identity
// fields are optional and default to the anonymous placeholders.
type SubmitComplaintRequest struct {
	Description string `json:"description" example:"WiFi is down in Block C since this morning"`
	UserID      string `json:"user_id,omitempty" example:"s-10293"`
	UserEmail   string `json:"user_email,omitempty" example:"student@campus.edu"`
	UserName    string `json:"user_name,omitempty" example:"Priya N."`
}

// SubmitComplaintResponse is returned for a stored complaint.
type SubmitComplaintResponse struct {
	ID       string                `json:"id" example:"b6a2c2b8-1f7e-4d5e-9a43-0e4bbfa1f2d1"`
	Message  string                `json:"message" example:"Complaint processed successfully"`
	Analysis domain.Classification `json:"analysis"`
}

// StatusResponse is the liveness banner served at "/".
type StatusResponse struct {
	Message string `json:"message" example:"CampusPulse AI Backend is running"`
}

// ComplaintService is the service contract the handlers need.
type ComplaintService interface {
	Submit(ctx context.Context, sub domain.Submission) (*services.SubmitResult, error)
	List(ctx context.Context) ([]domain.Complaint, error)
}

// Handlers groups the complaint endpoints and their dependencies.
type Handlers struct {
	svc  ComplaintService
	idem repo.IdempotencyStore

	// IdempotencyTTL is how long a stored response can be replayed.
	IdempotencyTTL time.Duration
	// ExposeErrorDetail puts the raw error text into 500 responses.
	ExposeErrorDetail bool
}

// New constructs Handlers. A nil idempotency store disables replay storage.
func New(svc ComplaintService, idem repo.IdempotencyStore) *Handlers {
	if idem == nil {
		idem = repo.NoIdempotency{}
	}
	return &Handlers{
		svc:               svc,
		idem:              idem,
		IdempotencyTTL:    24 * time.Hour,
		ExposeErrorDetail: true,
	}
}

//
// Handlers
//

// Root godoc
// @ID          root
// @Summary     Liveness banner
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.StatusResponse
// @Router      / [get]
func (h *Handlers) Root(c *gin.Context) {
	ok(c, http.StatusOK, StatusResponse{Message: "CampusPulse AI Backend is running"})
}

// SubmitComplaint godoc
// @ID          submitComplaint
// @Summary     Submit a complaint
// @Description Classifies the complaint with the language model and stores the enriched record.
// @Description When the model is unavailable the record is stored with the fallback classification.
// @Description Supports idempotency via the Idempotency-Key header (same key → same result).
// @Tags        Complaints
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "Scope for Idempotency-Key"  example(s-10293)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.SubmitComplaintRequest  true  "Complaint"
//
// @Success     201  {object}  handlers.SubmitComplaintResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /api/complaints [post]
func (h *Handlers) SubmitComplaint(c *gin.Context) {
	if rec, found := middleware.Replay(c); found {
		c.Header(middleware.HeaderIdempotencyReplayed, "true")
		c.Data(rec.Status, "application/json; charset=utf-8", rec.Body)
		return
	}

	var req SubmitComplaintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ctx := c.Request.Context()
	res, err := h.svc.Submit(ctx, domain.Submission{
		Description: req.Description,
		UserID:      req.UserID,
		UserEmail:   req.UserEmail,
		UserName:    req.UserName,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyDescription):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "description is required")
		case errors.Is(err, services.ErrTooLong):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "description too long")
		default:
			h.internal(c, ErrCodeCreateFailed, "failed to process complaint", err)
		}
		return
	}

	body := SubmitComplaintResponse{
		ID:       res.ID,
		Message:  "Complaint processed successfully",
		Analysis: res.Analysis,
	}
	h.remember(c, res.ID, http.StatusCreated, body)
	ok(c, http.StatusCreated, body)
}

// ListComplaints godoc
// @ID          listComplaints
// @Summary     List complaints
// @Description Returns every stored complaint, newest first when the store can order them.
// @Tags        Complaints
// @Produce     json
// @Success     200  {array}   domain.Complaint
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /api/complaints [get]
func (h *Handlers) ListComplaints(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.internal(c, ErrCodeListFailed, "failed to list complaints", err)
		return
	}
	if items == nil {
		items = []domain.Complaint{}
	}
	ok(c, http.StatusOK, items)
}

// internal writes a 500 with the error text as detail, or the generic
// message when detail exposure is off.
func (h *Handlers) internal(c *gin.Context, code, msg string, err error) {
	detail := msg
	if h.ExposeErrorDetail {
		detail = err.Error()
	}
	_ = c.Error(err)
	failDetail(c, http.StatusInternalServerError, code, msg, detail)
}

// remember stores the response for replay when the request carried an
// Idempotency-Key. Failures are logged and never affect the response.
func (h *Handlers) remember(c *gin.Context, complaintID string, status int, body any) {
	key, found := middleware.GetIdempotencyKey(c)
	if !found {
		return
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return
	}
	rec := repo.NewIdempotencyRecord(middleware.IdempotencyScope(c), key, complaintID, status, raw, time.Now(), h.IdempotencyTTL)
	if err := h.idem.Put(c.Request.Context(), rec); err != nil && !errors.Is(err, repo.ErrDuplicate) {
		middleware.LoggerFrom(c).Warn().Err(err).Msg("idempotency record not stored")
	}
}
