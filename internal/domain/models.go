// Package domain defines the persistence model for On-Duty (OD) requests.
// The type is mapped with GORM and forms the core data layer of the
// OD automation application.
package domain

import (
	"time"
)

// Request status values. A request starts Pending and transitions exactly
// once to Approved or Rejected; both are terminal.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

// ODRequest represents one per-period On-Duty absence request awaiting (or
// past) coordinator review. A single form submission that spans K teaching
// periods is stored as K independent rows, each carrying exactly one
// period's time bounds and one positional subject/faculty code pair.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Name: requester's full name.
//   - EnrollmentNumber: requester identifier, lexical format A<digits>.
//   - Email: contact address used for approval/rejection notices.
//   - SubjectCode / FacultyCode: short alphanumeric codes (<letters><digits>).
//   - Date: calendar date of the absence (YYYY-MM-DD, never in the future).
//   - TimeFrom / TimeTo: bounds of exactly one fixed teaching period, in
//     12-hour form (e.g. "09:15 AM"), never the raw submitted range.
//   - Reason: free-text justification.
//   - Status: Pending | Approved | Rejected (enforced by DB constraint).
//   - CreatedAt / UpdatedAt: timestamps managed by GORM.
type ODRequest struct {
	ID               string    `json:"id"               gorm:"type:char(36);primaryKey"`
	Name             string    `json:"name"             gorm:"type:varchar(255);not null"`
	EnrollmentNumber string    `json:"enrollmentNumber" gorm:"type:varchar(32);not null;index:idx_requests_enrollment"`
	Email            string    `json:"email"            gorm:"type:varchar(255);not null"`
	SubjectCode      string    `json:"subjectCode"      gorm:"type:varchar(32);not null"`
	FacultyCode      string    `json:"facultyCode"      gorm:"type:varchar(32);not null"`
	Date             string    `json:"date"             gorm:"type:varchar(10);not null"`
	TimeFrom         string    `json:"timeFrom"         gorm:"type:varchar(8);not null"`
	TimeTo           string    `json:"timeTo"           gorm:"type:varchar(8);not null"`
	Reason           string    `json:"reason"           gorm:"type:text;not null"`
	Status           string    `json:"status"           gorm:"type:varchar(16);not null;default:'Pending';index:idx_requests_status;check:status IN ('Pending','Approved','Rejected')"`
	CreatedAt        time.Time `json:"created_at"       gorm:"index:idx_requests_created"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName returns the database table name for ODRequest.
func (ODRequest) TableName() string { return "od_requests" }

// IsTerminal reports whether the request has reached a terminal status.
func (r *ODRequest) IsTerminal() bool {
	return r.Status == StatusApproved || r.Status == StatusRejected
}
