package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/odautomation/od-backend/internal/mail"
	"github.com/odautomation/od-backend/internal/services"
)

// stubReportSvc lets each test script the report service outcome.
type stubReportSvc struct {
	report *services.Report
	err    error

	lastTo      string
	lastSubject string
}

func (s *stubReportSvc) ExportApproved(ctx context.Context) (*services.Report, error) {
	return s.report, s.err
}

func (s *stubReportSvc) EmailApproved(ctx context.Context, to, subject, message string) (*services.Report, error) {
	s.lastTo, s.lastSubject = to, subject
	return s.report, s.err
}

func newExportRouter(t *testing.T, svc ReportService) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	h := New(nil, svc, nil)
	r := gin.New()
	r.GET("/export", h.ExportApproved)
	r.POST("/export-email", h.EmailApproved)
	return r
}

func TestExportApproved_DownloadHeaders(t *testing.T) {
	svc := &stubReportSvc{report: &services.Report{
		Data:     []byte("xlsx-bytes"),
		Filename: "approved-od-requests-2025-03-14.xlsx",
		Count:    3,
	}}
	r := newExportRouter(t, svc)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != xlsxContentType {
		t.Fatalf("Content-Type = %q", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, `attachment`) || !strings.Contains(cd, svc.report.Filename) {
		t.Fatalf("Content-Disposition = %q", cd)
	}
	if w.Body.String() != "xlsx-bytes" {
		t.Fatalf("body = %q", w.Body.String())
	}
}

func TestExportApproved_Empty404(t *testing.T) {
	r := newExportRouter(t, &stubReportSvc{err: services.ErrNoApprovedRequests})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/export", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("got %d, want 404", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeNoApprovedRequests {
		t.Fatalf("envelope = %s", w.Body.String())
	}
}

func TestEmailApproved_Success(t *testing.T) {
	svc := &stubReportSvc{report: &services.Report{Count: 2, Filename: "r.xlsx"}}
	r := newExportRouter(t, svc)

	w := postJSON(t, r, "/export-email", EmailReportRequest{To: "hod@example.edu"})
	if w.Code != http.StatusOK {
		t.Fatalf("got %d, body %s", w.Code, w.Body.String())
	}
	var resp EmailReportResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 2 || resp.To != "hod@example.edu" {
		t.Fatalf("resp = %+v", resp)
	}
	if svc.lastTo != "hod@example.edu" {
		t.Fatalf("service saw to=%q", svc.lastTo)
	}
}

func TestEmailApproved_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrNoApprovedRequests, http.StatusNotFound, ErrCodeNoApprovedRequests},
		{mail.ErrDisabled, http.StatusServiceUnavailable, ErrCodeEmailFailed},
		{errors.New("smtp timeout"), http.StatusBadGateway, ErrCodeEmailFailed},
	}
	for _, tc := range cases {
		r := newExportRouter(t, &stubReportSvc{err: tc.err})
		w := postJSON(t, r, "/export-email", EmailReportRequest{To: "hod@example.edu"})
		if w.Code != tc.status {
			t.Fatalf("err %v: got %d, want %d", tc.err, w.Code, tc.status)
		}
		var er ErrorResponse
		if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != tc.code {
			t.Fatalf("err %v: envelope = %s", tc.err, w.Body.String())
		}
	}
}

func TestEmailApproved_MissingRecipient(t *testing.T) {
	r := newExportRouter(t, &stubReportSvc{})

	if w := postJSON(t, r, "/export-email", EmailReportRequest{}); w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", w.Code)
	}
}
