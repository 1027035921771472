// Report HTTP handlers.
//
// This file exposes the coordinator-only report endpoints:
//   - GET  /export        (download the approved-requests workbook)
//   - POST /export-email  (email the workbook to a recipient)
//
// Both endpoints purge processed (Approved and Rejected) records once the
// report has left the building; the email variant purges only after the send
// succeeds, so a failed delivery loses nothing.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/odautomation/od-backend/internal/mail"
	"github.com/odautomation/od-backend/internal/services"
)

// xlsxContentType is the MIME type for Office Open XML workbooks.
const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// EmailReportRequest is the JSON payload for mailing the approved report.
type EmailReportRequest struct {
	To      string `json:"to" binding:"required" example:"hod@example.edu"`
	Subject string `json:"subject" example:"Approved OD Requests Report"`
	Message string `json:"message"`
}

// EmailReportResponse confirms a delivered report.
type EmailReportResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
	To      string `json:"to"`
}

// ExportApproved godoc
// @ID          exportApproved
// @Summary     Download the approved-requests workbook
// @Description Builds an xlsx of all Approved requests grouped by faculty and period, streams it as a download, and purges processed records.
// @Tags        Reports
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//
// @Success     200  {file}   binary
// @Failure     401  {object} handlers.ErrorResponse "Not logged in"
// @Failure     404  {object} handlers.ErrorResponse "No approved requests"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /export [get]
func (h *Handlers) ExportApproved(c *gin.Context) {
	rep, err := h.reportSvc.ExportApproved(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoApprovedRequests) {
			fail(c, http.StatusNotFound, ErrCodeNoApprovedRequests, "no approved requests to export")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeExportFailed, "could not build report")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+rep.Filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, rep.Data)
}

// EmailApproved godoc
// @ID          emailApproved
// @Summary     Email the approved-requests workbook
// @Description Builds the xlsx report and emails it to the given recipient. Processed records are purged only after the send succeeds.
// @Tags        Reports
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.EmailReportRequest  true  "Recipient and optional subject/message"
//
// @Success     200  {object} handlers.EmailReportResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Not logged in"
// @Failure     404  {object} handlers.ErrorResponse "No approved requests"
// @Failure     502  {object} handlers.ErrorResponse "Delivery failed"
// @Failure     503  {object} handlers.ErrorResponse "SMTP disabled"
// @Router      /export-email [post]
func (h *Handlers) EmailApproved(c *gin.Context) {
	var req EmailReportRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.To) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "recipient email required")
		return
	}

	rep, err := h.reportSvc.EmailApproved(c.Request.Context(),
		strings.TrimSpace(req.To), req.Subject, req.Message)
	switch {
	case err == nil:
		ok(c, http.StatusOK, EmailReportResponse{
			Message: "report emailed",
			Count:   rep.Count,
			To:      strings.TrimSpace(req.To),
		})
	case errors.Is(err, services.ErrNoApprovedRequests):
		fail(c, http.StatusNotFound, ErrCodeNoApprovedRequests, "no approved requests to export")
	case errors.Is(err, mail.ErrDisabled):
		fail(c, http.StatusServiceUnavailable, ErrCodeEmailFailed, "email delivery is disabled")
	default:
		fail(c, http.StatusBadGateway, ErrCodeEmailFailed, "could not deliver report email")
	}
}
