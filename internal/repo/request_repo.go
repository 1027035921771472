// Package repo implements the data persistence layer for OD requests,
// backed by GORM. This file provides repository functions for the ODRequest
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a request is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// The status update is a compare-and-swap: UpdateStatus only moves a row out
// of Pending, so a request that has already been approved or rejected can
// never be transitioned again (its RowsAffected will be zero).
package repo

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/odautomation/od-backend/internal/domain"
	"github.com/odautomation/od-backend/internal/schedule"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateRequests inserts a batch of OD request rows in one statement.
// Callers assign IDs, timestamps, and per-period fields; a K-period
// submission arrives here as K rows sharing one CreatedAt.
func CreateRequests(ctx context.Context, db *gorm.DB, reqs []domain.ODRequest) error {
	if len(reqs) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&reqs).Error
}

// ListRequests returns all stored requests ordered by creation time
// descending (most recent first). It returns an empty slice when storage
// is empty. On DB error, it returns the error.
func ListRequests(ctx context.Context, db *gorm.DB) ([]domain.ODRequest, error) {
	var out []domain.ODRequest
	err := db.WithContext(ctx).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CountRequests returns the total number of stored requests.
func CountRequests(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.ODRequest{}).
		Count(&total).Error
	return total, err
}

// ListRequestsPage returns a paginated slice of requests ordered by creation
// time descending. Use CountRequests to obtain the total for pagination
// metadata.
//
// The caller is responsible for computing offset and limit (e.g., (page-1)*pageSize).
func ListRequestsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.ODRequest, error) {
	var out []domain.ODRequest
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListByStatus returns all requests with the given status, ordered by time
// slot then faculty code so the export reads in report order.
//
// time_from is stored in 12-hour clock form, which does not collate
// chronologically ("01:15 PM" sorts before "09:15 AM"), so rows are sorted
// in Go by timetable position rather than in SQL.
func ListByStatus(ctx context.Context, db *gorm.DB, status string) ([]domain.ODRequest, error) {
	var out []domain.ODRequest
	err := db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at asc").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		ai, aok := schedule.SlotIndex(a.TimeFrom)
		bi, bok := schedule.SlotIndex(b.TimeFrom)
		if aok != bok {
			return aok // rows with an unrecognized start sort last
		}
		if aok && ai != bi {
			return ai < bi
		}
		if a.FacultyCode != b.FacultyCode {
			return a.FacultyCode < b.FacultyCode
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out, nil
}

// GetRequest fetches a single request by its ID. If the record does not
// exist, it returns ErrNotFound. On other DB errors, the raw error is
// returned.
func GetRequest(ctx context.Context, db *gorm.DB, id string) (*domain.ODRequest, error) {
	var r domain.ODRequest
	err := db.WithContext(ctx).
		Where("id = ?", id).
		First(&r).Error
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// UpdateStatus transitions a Pending request to the given status, stamping
// updated_at. The WHERE clause pins the prior status to Pending so the
// transition is a compare-and-swap: if the row was already approved or
// rejected (or does not exist), no rows are affected and the caller must
// disambiguate via GetRequest.
//
// It returns the number of rows affected.
func UpdateStatus(ctx context.Context, db *gorm.DB, id, status string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.ODRequest{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

// PurgeProcessed hard-deletes every Approved and Rejected request, leaving
// Pending rows untouched. It returns the number of rows removed.
func PurgeProcessed(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).
		Where("status IN ?", []string{domain.StatusApproved, domain.StatusRejected}).
		Delete(&domain.ODRequest{})
	return res.RowsAffected, res.Error
}

// RequestsStats returns the total request count and the latest updated_at
// timestamp. Used to build a cheap weak ETag for the coordinator's list
// endpoint without loading rows.
func RequestsStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error) {
	var total int64
	if err := db.WithContext(ctx).
		Model(&domain.ODRequest{}).
		Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var maxTS *time.Time
	row := struct{ Max *time.Time }{}
	if err := db.WithContext(ctx).
		Model(&domain.ODRequest{}).
		Select("MAX(updated_at) AS max").
		Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	maxTS = row.Max

	return total, maxTS, nil
}
