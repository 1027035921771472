// Package mail implements the outbound notification collaborator over SMTP.
//
// Two message kinds exist: plain-text decision notices sent to requesters
// when the coordinator approves or rejects a record, and the coordinator
// report email carrying the xlsx workbook as a base64 MIME attachment.
// Both go through the same configured SMTP account.
package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/odautomation/od-backend/internal/domain"
)

// ErrDisabled is returned when sending is attempted with SMTP turned off in
// configuration.
var ErrDisabled = errors.New("smtp delivery is disabled")

// Config holds SMTP transport settings.
type Config struct {
	Host     string // e.g. smtp.gmail.com
	Port     int    // e.g. 587
	Username string
	Password string
	From     string // sender address; falls back to Username when empty
	Enabled  bool
}

// sendFunc matches smtp.SendMail; swapped out in tests.
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends decision notices and report emails. Safe for concurrent use.
type Mailer struct {
	cfg  Config
	send sendFunc
}

// New constructs a Mailer from SMTP configuration.
func New(cfg Config) *Mailer {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// SendDecision emails the requester that their record was approved or
// rejected, based on the record's status.
func (m *Mailer) SendDecision(ctx context.Context, r domain.ODRequest) error {
	verb := "APPROVED"
	word := "Approved"
	closing := "Your On-Duty request is now approved. Please ensure you follow all institutional guidelines during your approved OD period."
	if r.Status == domain.StatusRejected {
		verb = "REJECTED"
		word = "Rejected"
		closing = "Your On-Duty request has been rejected. Please contact the coordinator for more information or submit a new request with corrected details."
	}

	subject := fmt.Sprintf("OD Request %s - %s", word, r.SubjectCode)
	body := fmt.Sprintf(`Dear %s,

Your OD request has been %s by the coordinator.

Request Details:
- Subject Code: %s
- Faculty Code: %s
- Date: %s
- Time: %s to %s
- Reason: %s
- Enrollment Number: %s

%s

Best regards,
OD Automation System
Coordinator Team
`, r.Name, verb, r.SubjectCode, r.FacultyCode, r.Date, r.TimeFrom, r.TimeTo, r.Reason, r.EnrollmentNumber, closing)

	msg := m.plainMessage(r.Email, subject, body)
	return m.deliver(ctx, r.Email, msg)
}

// SendReport emails the coordinator report with the workbook attached.
// Subject and message fall back to defaults when blank.
func (m *Mailer) SendReport(ctx context.Context, to, subject, message string, attachment []byte, filename string, count int) error {
	if strings.TrimSpace(subject) == "" {
		subject = "Approved OD Requests Report"
	}
	if strings.TrimSpace(message) == "" {
		message = "Please find attached the approved OD requests report."
	}
	body := fmt.Sprintf(`Dear Coordinator,

%s

Report Summary:
- Total Approved Requests: %d
- Generated: %s

Best regards,
OD Automation System
`, message, count, time.Now().UTC().Format("2006-01-02 15:04 UTC"))

	msg, err := m.attachmentMessage(to, subject, body, attachment, filename)
	if err != nil {
		return err
	}
	return m.deliver(ctx, to, msg)
}

// deliver hands the assembled message to SMTP, honoring context
// cancellation around the blocking send.
func (m *Mailer) deliver(ctx context.Context, to string, msg []byte) error {
	if !m.cfg.Enabled {
		return ErrDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	done := make(chan error, 1)
	go func() {
		done <- m.send(addr, auth, m.cfg.From, []string{to}, msg)
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// plainMessage assembles a text/plain RFC 5322 message.
func (m *Mailer) plainMessage(to, subject, body string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return b.Bytes()
}

// attachmentMessage assembles a multipart/mixed message with the workbook
// attached as base64.
func (m *Mailer) attachmentMessage(to, subject, body string, attachment []byte, filename string) ([]byte, error) {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	// Headers must precede the multipart body, so write them by hand.
	hdr := fmt.Sprintf("To: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: multipart/mixed; boundary=%q\r\n\r\n", to, subject, w.Boundary())
	b.WriteString(hdr)

	textHdr := textproto.MIMEHeader{}
	textHdr.Set("Content-Type", "text/plain; charset=utf-8")
	part, err := w.CreatePart(textHdr)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write([]byte(body)); err != nil {
		return nil, err
	}

	attHdr := textproto.MIMEHeader{}
	attHdr.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	attHdr.Set("Content-Transfer-Encoding", "base64")
	attHdr.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	part, err = w.CreatePart(attHdr)
	if err != nil {
		return nil, err
	}
	enc := base64.StdEncoding.EncodeToString(attachment)
	// Fold base64 at 76 chars per RFC 2045.
	for len(enc) > 0 {
		n := 76
		if len(enc) < n {
			n = len(enc)
		}
		if _, err := part.Write([]byte(enc[:n] + "\r\n")); err != nil {
			return nil, err
		}
		enc = enc[n:]
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}
