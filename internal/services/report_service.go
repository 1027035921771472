// Package services – ReportService
//
// This file implements the ReportService, which turns the current Approved
// set into a coordinator-facing report: either an xlsx download or an email
// with the xlsx attached. After a report is successfully produced the
// processed records — Approved and Rejected alike — are purged from storage;
// once a batch has been filed with the administration it is deliberately
// removed to keep the review list small.
//
// A process-local mutex serializes report runs so two near-simultaneous
// exports cannot both read the same Approved set before either purges.
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/odautomation/od-backend/internal/domain"
	"github.com/odautomation/od-backend/internal/repo"
)

// WorkbookBuilder renders an ordered list of approved requests into an xlsx
// binary buffer.
type WorkbookBuilder interface {
	Build(reqs []domain.ODRequest) ([]byte, error)
}

// ReportSender delivers a report email with the workbook attached. The send
// must be confirmed before the caller purges storage.
type ReportSender interface {
	SendReport(ctx context.Context, to, subject, message string, attachment []byte, filename string, count int) error
}

// Report is the result of a successful export: the workbook bytes, a
// download filename, and how many approved records it contains.
type Report struct {
	Data     []byte
	Filename string
	Count    int
}

// ReportService builds and delivers approved-request reports and owns the
// post-report purge.
type ReportService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Builder renders the xlsx workbook.
	Builder WorkbookBuilder
	// Sender delivers report emails. Required only for EmailApproved.
	Sender ReportSender

	// mu serializes export/email runs; see package comment.
	mu sync.Mutex
}

// NewReportService constructs a ReportService.
func NewReportService(db *gorm.DB, b WorkbookBuilder, s ReportSender) *ReportService {
	return &ReportService{DB: db, Builder: b, Sender: s}
}

// reportFilename names the workbook after the day it was generated.
func reportFilename(now time.Time) string {
	return fmt.Sprintf("approved-od-requests-%s.xlsx", now.UTC().Format("2006-01-02"))
}

// collectApproved loads the Approved set in report order, or
// ErrNoApprovedRequests when there is nothing to export.
func (s *ReportService) collectApproved(ctx context.Context) ([]domain.ODRequest, error) {
	reqs, err := repo.ListByStatus(ctx, s.DB, domain.StatusApproved)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, ErrNoApprovedRequests
	}
	return reqs, nil
}

// purgeProcessed removes every Approved and Rejected record after a report
// has been filed. Pending rows are untouched.
//
// A purge failure is logged but never surfaced: the report has already been
// delivered, so the caller gets it either way. The unpurged rows stay put
// and will be included again in the next report. Duplicating a few rows in
// a later report is the acceptable outcome here; failing the request after
// a successful delivery (or silently dropping records) is not.
func (s *ReportService) purgeProcessed(ctx context.Context) {
	n, err := repo.PurgeProcessed(ctx, s.DB)
	if err != nil {
		// The report already went out; all that is lost is the cleanup.
		log.Error().Err(err).Msg("post-report purge failed")
		return
	}
	log.Info().Int64("deleted", n).Msg("purged processed requests after report")
}

// ExportApproved renders the current Approved set into an xlsx workbook and
// purges all processed (Approved and Rejected) records. With zero approved
// records it returns ErrNoApprovedRequests and leaves storage unchanged.
// The purge is best effort; see purgeProcessed for the failure semantics.
func (s *ReportService) ExportApproved(ctx context.Context) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqs, err := s.collectApproved(ctx)
	if err != nil {
		return nil, err
	}

	data, err := s.Builder.Build(reqs)
	if err != nil {
		return nil, err
	}

	s.purgeProcessed(ctx)

	return &Report{
		Data:     data,
		Filename: reportFilename(time.Now()),
		Count:    len(reqs),
	}, nil
}

// EmailApproved renders the same workbook as ExportApproved and delivers it
// as an attachment to the given address. The purge happens only after the
// send is confirmed; a transport failure surfaces to the caller and leaves
// storage untouched.
func (s *ReportService) EmailApproved(ctx context.Context, to, subject, message string) (*Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqs, err := s.collectApproved(ctx)
	if err != nil {
		return nil, err
	}

	data, err := s.Builder.Build(reqs)
	if err != nil {
		return nil, err
	}

	filename := reportFilename(time.Now())
	if err := s.Sender.SendReport(ctx, to, subject, message, data, filename, len(reqs)); err != nil {
		return nil, err
	}

	s.purgeProcessed(ctx)

	return &Report{
		Data:     data,
		Filename: filename,
		Count:    len(reqs),
	}, nil
}
