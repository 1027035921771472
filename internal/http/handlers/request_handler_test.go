package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/odautomation/od-backend/internal/domain"
	"github.com/odautomation/od-backend/internal/services"
)

// ---------- test DB + router ----------

func newHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()

	// Unique DSN per call to avoid cross-test contamination
	dsn := fmt.Sprintf("file:handlers_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.ODRequest{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// newRequestRouter mounts the request endpoints without the session gate;
// the gate has its own tests in the middleware package.
func newRequestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newHandlerDB(t)
	h := New(services.NewRequestService(db, nil), nil, nil)

	r := gin.New()
	r.POST("/requests", h.SubmitRequest)
	r.GET("/requests", h.ListRequests)
	r.PUT("/requests/:id", h.DecideRequest)
	return r, db
}

func postJSON(t *testing.T, r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func validSubmission() SubmitRequestInput {
	return SubmitRequestInput{
		Name:             "Priya Sharma",
		EnrollmentNumber: "A123456",
		Email:            "priya@example.edu",
		SubjectCode:      "CSE301 CSE302",
		FacultyCode:      "FAC12 FAC15",
		Date:             "2025-01-15",
		TimeFrom:         "09:15 AM",
		TimeTo:           "11:10 AM",
		Reason:           "Inter-college hackathon",
	}
}

// ---------- submit ----------

func TestSubmitRequest_CreatesOneRecordPerPeriod(t *testing.T) {
	r, db := newRequestRouter(t)

	w := postJSON(t, r, "/requests", validSubmission())
	if w.Code != http.StatusCreated {
		t.Fatalf("got %d, body %s", w.Code, w.Body.String())
	}

	var resp SubmitRequestResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 2 || len(resp.Requests) != 2 {
		t.Fatalf("expected 2 records, got count=%d len=%d", resp.Count, len(resp.Requests))
	}
	if resp.Requests[0].Status != domain.StatusPending {
		t.Fatalf("status = %q, want Pending", resp.Requests[0].Status)
	}

	var n int64
	db.Model(&domain.ODRequest{}).Count(&n)
	if n != 2 {
		t.Fatalf("persisted %d rows, want 2", n)
	}
}

func TestSubmitRequest_InvalidJSON(t *testing.T) {
	r, _ := newRequestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/requests", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", w.Code)
	}
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil || er.Code != ErrCodeBadRequest {
		t.Fatalf("envelope = %s", w.Body.String())
	}
}

func TestSubmitRequest_ValidationFailure(t *testing.T) {
	r, _ := newRequestRouter(t)

	in := validSubmission()
	in.Date = "2099-12-31" // future dates are rejected

	w := postJSON(t, r, "/requests", in)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, body %s", w.Code, w.Body.String())
	}
}

// ---------- list ----------

func TestListRequests_PaginationAndETag(t *testing.T) {
	r, _ := newRequestRouter(t)

	if w := postJSON(t, r, "/requests", validSubmission()); w.Code != http.StatusCreated {
		t.Fatalf("seed submit failed: %s", w.Body.String())
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/requests?page=1&page_size=10", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("got %d", w.Code)
	}

	var resp ListRequestsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Pagination.Total != 2 || len(resp.Requests) != 2 {
		t.Fatalf("pagination = %+v", resp.Pagination)
	}

	etag := w.Header().Get("ETag")
	if etag == "" {
		t.Fatal("expected ETag header")
	}

	// Conditional replay gets a 304.
	w2 := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/requests", nil)
	req.Header.Set("If-None-Match", etag)
	r.ServeHTTP(w2, req)
	if w2.Code != http.StatusNotModified {
		t.Fatalf("got %d, want 304", w2.Code)
	}
}

// ---------- decide ----------

func TestDecideRequest_ApproveThenConflict(t *testing.T) {
	r, db := newRequestRouter(t)

	if w := postJSON(t, r, "/requests", validSubmission()); w.Code != http.StatusCreated {
		t.Fatalf("seed submit failed: %s", w.Body.String())
	}
	var rec domain.ODRequest
	if err := db.First(&rec).Error; err != nil {
		t.Fatalf("load seeded row: %v", err)
	}

	put := func(id string, body any) *httptest.ResponseRecorder {
		b, _ := json.Marshal(body)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/requests/"+id, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	w := put(rec.ID, DecisionRequest{Status: domain.StatusApproved})
	if w.Code != http.StatusOK {
		t.Fatalf("approve: got %d, body %s", w.Code, w.Body.String())
	}
	var updated domain.ODRequest
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil || updated.Status != domain.StatusApproved {
		t.Fatalf("updated = %s", w.Body.String())
	}

	// A second decision on the same record is a conflict, not a flip.
	w = put(rec.ID, DecisionRequest{Status: domain.StatusRejected})
	if w.Code != http.StatusConflict {
		t.Fatalf("re-decide: got %d, want 409", w.Code)
	}

	var after domain.ODRequest
	db.First(&after, "id = ?", rec.ID)
	if after.Status != domain.StatusApproved {
		t.Fatalf("status flipped to %q", after.Status)
	}
}

func TestDecideRequest_BadInputs(t *testing.T) {
	r, _ := newRequestRouter(t)

	put := func(id string, raw string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/requests/"+id, bytes.NewBufferString(raw))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		return w
	}

	if w := put("not-a-uuid", `{"status":"Approved"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad uuid: got %d", w.Code)
	}
	if w := put(uuid.NewString(), `{"status":"Escalated"}`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad status: got %d", w.Code)
	}
	if w := put(uuid.NewString(), `{"status":"Approved"}`); w.Code != http.StatusNotFound {
		t.Fatalf("unknown id: got %d", w.Code)
	}
}
