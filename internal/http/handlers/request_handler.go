// OD request HTTP handlers.
//
// This file exposes REST endpoints for OD request resources:
//   - POST   /requests        (public submit)
//   - GET    /requests        (coordinator; list, paginated, ETag support)
//   - PUT    /requests/{id}   (coordinator; approve or reject)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/odautomation/od-backend/internal/domain"
	"github.com/odautomation/od-backend/internal/repo"
	"github.com/odautomation/od-backend/internal/services"
	"github.com/odautomation/od-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// RequestService defines the OD request lifecycle operations consumed by the
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type RequestService interface {
	// Submit validates a submission and persists one record per occupied
	// timetable period.
	Submit(ctx context.Context, in services.SubmitInput) ([]domain.ODRequest, error)
	// ListPage returns a page of requests (newest first) and the total count.
	ListPage(ctx context.Context, page, pageSize int) ([]domain.ODRequest, int64, error)
	// Approve moves a pending request to Approved.
	Approve(ctx context.Context, id string) (*domain.ODRequest, error)
	// Reject moves a pending request to Rejected.
	Reject(ctx context.Context, id string) (*domain.ODRequest, error)
}

// ReportService defines report generation and delivery operations.
type ReportService interface {
	// ExportApproved builds the approved-requests workbook and purges
	// processed records.
	ExportApproved(ctx context.Context) (*services.Report, error)
	// EmailApproved builds the workbook, emails it, and purges processed
	// records only after the send succeeds.
	EmailApproved(ctx context.Context, to, subject, message string) (*services.Report, error)
}

// AuthService validates the coordinator credential.
type AuthService interface {
	// Login returns nil only when both fields match the configured credential.
	Login(username, password string) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for requests, reports, and coordinator auth.
// It depends on abstract service interfaces to keep transport concerns
// separate from business logic.
type Handlers struct {
	reqSvc    RequestService
	reportSvc ReportService
	authSvc   AuthService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(reqSvc RequestService, reportSvc ReportService, authSvc AuthService) *Handlers {
	return &Handlers{reqSvc: reqSvc, reportSvc: reportSvc, authSvc: authSvc}
}

//
// DTOs
//

// SubmitRequestInput is the JSON payload for an OD submission. Field names
// match the record shape returned by list endpoints.
type SubmitRequestInput struct {
	Name             string `json:"name" example:"Priya Sharma"`
	EnrollmentNumber string `json:"enrollmentNumber" example:"A123456"`
	Email            string `json:"email" example:"priya@example.edu"`
	SubjectCode      string `json:"subjectCode" example:"CSE301 CSE302"`
	FacultyCode      string `json:"facultyCode" example:"FAC12 FAC15"`
	Date             string `json:"date" example:"2025-03-14"`
	TimeFrom         string `json:"timeFrom" example:"09:15 AM"`
	TimeTo           string `json:"timeTo" example:"11:10 AM"`
	Reason           string `json:"reason" example:"Inter-college hackathon"`
}

// SubmitRequestResponse confirms a submission and reports how many records
// (one per occupied period) were created.
type SubmitRequestResponse struct {
	Message  string             `json:"message"`
	Count    int                `json:"count"`
	Requests []domain.ODRequest `json:"requests"`
}

// DecisionRequest is the JSON payload for approving or rejecting a request.
type DecisionRequest struct {
	// Status must be "Approved" or "Rejected".
	Status string `json:"status" binding:"required" example:"Approved"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListRequestsResponse wraps a page of OD requests and pagination information.
type ListRequestsResponse struct {
	Requests   []domain.ODRequest `json:"requests"`
	Pagination Pagination         `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// SubmitRequest godoc
// @ID          submitRequest
// @Summary     Submit an OD request
// @Description Validates the submission, splits multi-period ranges into one record per period, and persists them as Pending.
// @Tags        Requests
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.SubmitRequestInput  true  "Submission payload"
//
// @Success     201  {object}  handlers.SubmitRequestResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation failure"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /requests [post]
func (h *Handlers) SubmitRequest(c *gin.Context) {
	var in SubmitRequestInput
	if err := c.ShouldBindJSON(&in); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	created, err := h.reqSvc.Submit(c.Request.Context(), services.SubmitInput{
		Name:             in.Name,
		EnrollmentNumber: in.EnrollmentNumber,
		Email:            in.Email,
		SubjectCode:      in.SubjectCode,
		FacultyCode:      in.FacultyCode,
		Date:             in.Date,
		TimeFrom:         in.TimeFrom,
		TimeTo:           in.TimeTo,
		Reason:           in.Reason,
	})
	if err != nil {
		if services.IsValidation(err) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeSubmitFailed, "could not save request")
		return
	}

	ok(c, http.StatusCreated, SubmitRequestResponse{
		Message:  "request submitted",
		Count:    len(created),
		Requests: created,
	})
}

// ListRequests godoc
// @ID          listRequests
// @Summary     List OD requests (paginated)
// @Description Returns a page of requests, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Requests
// @Produce     json
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListRequestsResponse
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Not logged in"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /requests [get]
func (h *Handlers) ListRequests(c *gin.Context) {
	ctx := c.Request.Context()
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, isConcrete := h.reqSvc.(*services.RequestService); isConcrete {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.RequestsStats(ctx, db)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"requests:%d:%d"`, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	items, total, err := h.reqSvc.ListPage(ctx, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list requests")
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListRequestsResponse{
		Requests: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// DecideRequest godoc
// @ID          decideRequest
// @Summary     Approve or reject a request
// @Description Moves a Pending request to Approved or Rejected. Already-processed requests yield 409; the transition never reopens a terminal record.
// @Tags        Requests
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Request ID (UUID)"  format(uuid)
// @Param       body  body  handlers.DecisionRequest  true  "Decision payload"
//
// @Success     200  {object} domain.ODRequest
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Not logged in"
// @Failure     404  {object} handlers.ErrorResponse "Request not found"
// @Failure     409  {object} handlers.ErrorResponse "Request already processed"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /requests/{id} [put]
func (h *Handlers) DecideRequest(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "request id must be a UUID")
		return
	}

	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, `status required ("Approved" or "Rejected")`)
		return
	}

	var (
		updated *domain.ODRequest
		err     error
	)
	switch strings.TrimSpace(req.Status) {
	case domain.StatusApproved:
		updated, err = h.reqSvc.Approve(c.Request.Context(), id)
	case domain.StatusRejected:
		updated, err = h.reqSvc.Reject(c.Request.Context(), id)
	default:
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, `status must be "Approved" or "Rejected"`)
		return
	}

	switch {
	case err == nil:
		ok(c, http.StatusOK, updated)
	case errors.Is(err, services.ErrRequestNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "request not found")
	case errors.Is(err, services.ErrRequestNotPending):
		fail(c, http.StatusConflict, ErrCodeConflict, "request already processed")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeUpdateFailed, "could not update request")
	}
}
