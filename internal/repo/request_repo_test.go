package repo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/odautomation/od-backend/internal/domain"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:requestrepo_%s?mode=memory&cache=shared", uuid.NewString())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.Exec("PRAGMA foreign_keys=ON;")
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

func seedRequest(t *testing.T, db *gorm.DB, status string, createdAt time.Time) domain.ODRequest {
	t.Helper()
	r := domain.ODRequest{
		ID:               uuid.NewString(),
		Name:             "Jane Student",
		EnrollmentNumber: "A123",
		Email:            "jane@example.edu",
		SubjectCode:      "CS101",
		FacultyCode:      "FC01",
		Date:             "2026-08-20",
		TimeFrom:         "09:15 AM",
		TimeTo:           "10:10 AM",
		Reason:           "hackathon",
		Status:           status,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("seed request: %v", err)
	}
	return r
}

func TestCreateRequests_Batch(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()

	batch := []domain.ODRequest{
		{ID: uuid.NewString(), Name: "n", EnrollmentNumber: "A1", Email: "a@b.c", SubjectCode: "CS101", FacultyCode: "FC01", Date: "2026-08-20", TimeFrom: "09:15 AM", TimeTo: "10:10 AM", Reason: "r", Status: domain.StatusPending, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.NewString(), Name: "n", EnrollmentNumber: "A1", Email: "a@b.c", SubjectCode: "CS102", FacultyCode: "FC02", Date: "2026-08-20", TimeFrom: "10:15 AM", TimeTo: "11:10 AM", Reason: "r", Status: domain.StatusPending, CreatedAt: now, UpdatedAt: now},
	}
	if err := CreateRequests(context.Background(), db, batch); err != nil {
		t.Fatalf("CreateRequests: %v", err)
	}

	total, err := CountRequests(context.Background(), db)
	if err != nil || total != 2 {
		t.Fatalf("CountRequests = %d, %v; want 2, nil", total, err)
	}

	// Empty batch is a no-op.
	if err := CreateRequests(context.Background(), db, nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}

func TestListRequests_NewestFirst(t *testing.T) {
	db := newTestDB(t)
	old := seedRequest(t, db, domain.StatusPending, time.Now().UTC().Add(-time.Hour))
	fresh := seedRequest(t, db, domain.StatusPending, time.Now().UTC())

	out, err := ListRequests(context.Background(), db)
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d rows, want 2", len(out))
	}
	if out[0].ID != fresh.ID || out[1].ID != old.ID {
		t.Fatalf("wrong order: %s, %s", out[0].ID, out[1].ID)
	}
}

func TestGetRequest_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := GetRequest(context.Background(), db, uuid.NewString())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatus_CompareAndSwap(t *testing.T) {
	db := newTestDB(t)
	r := seedRequest(t, db, domain.StatusPending, time.Now().UTC())

	n, err := UpdateStatus(context.Background(), db, r.ID, domain.StatusApproved)
	if err != nil || n != 1 {
		t.Fatalf("first transition: n=%d err=%v; want 1, nil", n, err)
	}

	// Second transition must not touch the row: the status is terminal.
	n, err = UpdateStatus(context.Background(), db, r.ID, domain.StatusRejected)
	if err != nil {
		t.Fatalf("second transition errored: %v", err)
	}
	if n != 0 {
		t.Fatalf("second transition affected %d rows, want 0", n)
	}

	got, err := GetRequest(context.Background(), db, r.ID)
	if err != nil {
		t.Fatalf("GetRequest: %v", err)
	}
	if got.Status != domain.StatusApproved {
		t.Fatalf("status = %q, want Approved", got.Status)
	}
}

func TestPurgeProcessed_LeavesPending(t *testing.T) {
	db := newTestDB(t)
	seedRequest(t, db, domain.StatusApproved, time.Now().UTC())
	seedRequest(t, db, domain.StatusRejected, time.Now().UTC())
	pending := seedRequest(t, db, domain.StatusPending, time.Now().UTC())

	n, err := PurgeProcessed(context.Background(), db)
	if err != nil || n != 2 {
		t.Fatalf("PurgeProcessed = %d, %v; want 2, nil", n, err)
	}

	out, err := ListRequests(context.Background(), db)
	if err != nil {
		t.Fatalf("ListRequests: %v", err)
	}
	if len(out) != 1 || out[0].ID != pending.ID {
		t.Fatalf("expected only the pending row to survive, got %d rows", len(out))
	}
}

func TestListByStatus_SlotThenFacultyOrder(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()

	// Insert in scrambled order; the afternoon slot collates before the
	// morning ones as a raw string and must still come out last.
	a := seedRequest(t, db, domain.StatusApproved, now)
	db.Model(&domain.ODRequest{}).Where("id = ?", a.ID).Updates(map[string]any{"time_from": "01:15 PM", "faculty_code": "FC02"})
	b := seedRequest(t, db, domain.StatusApproved, now)
	db.Model(&domain.ODRequest{}).Where("id = ?", b.ID).Updates(map[string]any{"time_from": "09:15 AM", "faculty_code": "FC09"})
	c := seedRequest(t, db, domain.StatusApproved, now)
	db.Model(&domain.ODRequest{}).Where("id = ?", c.ID).Updates(map[string]any{"time_from": "10:15 AM", "faculty_code": "FC02"})
	seedRequest(t, db, domain.StatusPending, now)

	out, err := ListByStatus(context.Background(), db, domain.StatusApproved)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("got %d approved rows, want 3", len(out))
	}
	if out[0].ID != b.ID || out[1].ID != c.ID || out[2].ID != a.ID {
		t.Fatalf("wrong order: got slots %q, %q, %q; want chronological",
			out[0].TimeFrom, out[1].TimeFrom, out[2].TimeFrom)
	}
}

func TestListByStatus_SameSlotFacultyTiebreak(t *testing.T) {
	db := newTestDB(t)
	now := time.Now().UTC()

	a := seedRequest(t, db, domain.StatusApproved, now)
	db.Model(&domain.ODRequest{}).Where("id = ?", a.ID).Updates(map[string]any{"time_from": "09:15 AM", "faculty_code": "FC09"})
	b := seedRequest(t, db, domain.StatusApproved, now)
	db.Model(&domain.ODRequest{}).Where("id = ?", b.ID).Updates(map[string]any{"time_from": "09:15 AM", "faculty_code": "FC02"})

	out, err := ListByStatus(context.Background(), db, domain.StatusApproved)
	if err != nil {
		t.Fatalf("ListByStatus: %v", err)
	}
	if len(out) != 2 || out[0].ID != b.ID {
		t.Fatalf("faculty code should break ties within a slot")
	}
}

func TestRequestsStats(t *testing.T) {
	db := newTestDB(t)

	total, maxTS, err := RequestsStats(context.Background(), db)
	if err != nil || total != 0 {
		t.Fatalf("empty stats = %d, %v; want 0, nil", total, err)
	}
	_ = maxTS // may be nil on empty table

	seedRequest(t, db, domain.StatusPending, time.Now().UTC())
	total, maxTS, err = RequestsStats(context.Background(), db)
	if err != nil || total != 1 || maxTS == nil {
		t.Fatalf("stats = %d, %v, %v; want 1, non-nil, nil", total, maxTS, err)
	}
}
