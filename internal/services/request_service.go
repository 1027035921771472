// Package services – RequestService
//
// This file implements the RequestService, which owns the OD request
// lifecycle: it validates submissions, decomposes the requested time range
// into fixed teaching periods via the schedule package, persists one Pending
// record per period, and applies the coordinator's approve/reject
// transitions. Transitions are compare-and-swap against the Pending status,
// so a record can never leave a terminal state.
//
// Approval and rejection notices are delivered best-effort in the
// background: a dead mail server must never prevent a coordinator from
// processing a request, so notification failures are logged and swallowed.
//
// Service-level errors (e.g., ErrRequestNotFound, ErrRequestNotPending,
// *ValidationError) are returned for predictable cases so handlers can map
// them to HTTP results consistently.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/odautomation/od-backend/internal/domain"
	"github.com/odautomation/od-backend/internal/repo"
	"github.com/odautomation/od-backend/internal/schedule"
)

// Notifier delivers a decision notice (approved or rejected, depending on
// the record's status) to the requester's email address.
//
// Implementations should be safe for concurrent use.
type Notifier interface {
	SendDecision(ctx context.Context, r domain.ODRequest) error
}

// SubmitInput carries the raw, untrusted fields of one submission form.
type SubmitInput struct {
	Name             string
	EnrollmentNumber string
	Email            string
	SubjectCode      string
	FacultyCode      string
	Date             string
	TimeFrom         string
	TimeTo           string
	Reason           string
}

// RequestService provides the OD request lifecycle operations: submit,
// list, approve, and reject.
type RequestService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Notifier delivers decision notices. May be nil (notices skipped).
	Notifier Notifier
	// NotifyTimeout bounds a single background notification attempt.
	NotifyTimeout time.Duration
}

// NewRequestService constructs a RequestService with a sane notification
// timeout.
func NewRequestService(db *gorm.DB, n Notifier) *RequestService {
	return &RequestService{
		DB:            db,
		Notifier:      n,
		NotifyTimeout: 30 * time.Second,
	}
}

var (
	enrollmentRE = regexp.MustCompile(`^A\d+$`)
	codeRE       = regexp.MustCompile(`^[A-Za-z]+\d+$`)
	emailRE      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Submit validates a submission, expands its time range into teaching
// periods, and persists one Pending record per overlapped period. All
// records of a batch share one timestamp; subject and faculty codes are
// assigned positionally in schedule order.
//
// It returns the created batch, or a *ValidationError describing the first
// problem found.
func (s *RequestService) Submit(ctx context.Context, in SubmitInput) ([]domain.ODRequest, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.EnrollmentNumber = strings.TrimSpace(in.EnrollmentNumber)
	in.Email = strings.TrimSpace(in.Email)
	in.Date = strings.TrimSpace(in.Date)
	in.Reason = strings.TrimSpace(in.Reason)

	if in.Name == "" || in.EnrollmentNumber == "" || in.Email == "" ||
		strings.TrimSpace(in.SubjectCode) == "" || strings.TrimSpace(in.FacultyCode) == "" ||
		in.Date == "" || strings.TrimSpace(in.TimeFrom) == "" || strings.TrimSpace(in.TimeTo) == "" ||
		in.Reason == "" {
		return nil, validationf("all fields are required")
	}
	if !emailRE.MatchString(in.Email) {
		return nil, validationf("invalid email address")
	}
	if !enrollmentRE.MatchString(in.EnrollmentNumber) {
		return nil, validationf("enrollment number must look like A12345")
	}

	day, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return nil, validationf("date must be in YYYY-MM-DD form")
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if day.After(today) {
		return nil, validationf("date must not be in the future")
	}

	slots := schedule.ExpandToSlots(in.TimeFrom, in.TimeTo)
	if len(slots) == 0 {
		return nil, validationf("no valid time slot selected")
	}

	subjectCodes, err := schedule.SplitCodes(in.SubjectCode, len(slots))
	if err != nil {
		return nil, validationf("subject codes: %v", err)
	}
	facultyCodes, err := schedule.SplitCodes(in.FacultyCode, len(slots))
	if err != nil {
		return nil, validationf("faculty codes: %v", err)
	}
	for _, c := range append(append([]string{}, subjectCodes...), facultyCodes...) {
		if !codeRE.MatchString(strings.ReplaceAll(c, " ", "")) {
			return nil, validationf("code %q must be letters followed by digits", c)
		}
	}

	now := time.Now().UTC()
	batch := make([]domain.ODRequest, 0, len(slots))
	for i, slot := range slots {
		batch = append(batch, domain.ODRequest{
			ID:               uuid.NewString(),
			Name:             in.Name,
			EnrollmentNumber: in.EnrollmentNumber,
			Email:            in.Email,
			SubjectCode:      subjectCodes[i],
			FacultyCode:      facultyCodes[i],
			Date:             in.Date,
			TimeFrom:         slot.From,
			TimeTo:           slot.To,
			Reason:           in.Reason,
			Status:           domain.StatusPending,
			CreatedAt:        now,
			UpdatedAt:        now,
		})
	}

	if err := repo.CreateRequests(ctx, s.DB, batch); err != nil {
		return nil, err
	}
	return batch, nil
}

// List returns all stored requests, newest first (non-paginated).
// Prefer ListPage for the coordinator dashboard.
func (s *RequestService) List(ctx context.Context) ([]domain.ODRequest, error) {
	return repo.ListRequests(ctx, s.DB)
}

// ListPage returns a page of requests, newest first, and the total count.
// It applies defaults for invalid page/pageSize.
func (s *RequestService) ListPage(ctx context.Context, page, pageSize int) ([]domain.ODRequest, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountRequests(ctx, s.DB)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.ODRequest{}, 0, nil
	}

	items, err := repo.ListRequestsPage(ctx, s.DB, offset, pageSize)
	return items, total, err
}

// Approve transitions a Pending request to Approved and queues a
// best-effort approval notice.
func (s *RequestService) Approve(ctx context.Context, id string) (*domain.ODRequest, error) {
	return s.transition(ctx, id, domain.StatusApproved)
}

// Reject transitions a Pending request to Rejected and queues a
// best-effort rejection notice. The record stays in storage until the next
// export-time purge.
func (s *RequestService) Reject(ctx context.Context, id string) (*domain.ODRequest, error) {
	return s.transition(ctx, id, domain.StatusRejected)
}

// transition performs the Pending → status compare-and-swap. When the swap
// affects no rows it distinguishes "missing" from "already processed" with a
// follow-up read.
func (s *RequestService) transition(ctx context.Context, id, status string) (*domain.ODRequest, error) {
	n, err := repo.UpdateStatus(ctx, s.DB, id, status)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		if _, err := repo.GetRequest(ctx, s.DB, id); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, ErrRequestNotFound
			}
			return nil, err
		}
		return nil, ErrRequestNotPending
	}

	r, err := repo.GetRequest(ctx, s.DB, id)
	if err != nil {
		return nil, err
	}

	s.notifyAsync(*r)
	return r, nil
}

// notifyAsync delivers the decision notice in the background. The state
// change is already committed, so failures are logged and swallowed.
func (s *RequestService) notifyAsync(r domain.ODRequest) {
	if s.Notifier == nil {
		return
	}
	timeout := s.NotifyTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := s.Notifier.SendDecision(ctx, r); err != nil {
			log.Warn().
				Err(err).
				Str("request_id", r.ID).
				Str("status", r.Status).
				Msg("decision notice delivery failed")
		}
	}()
}
