package registrations

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nmrschool/webinar-backend/internal/calendar"
	"github.com/nmrschool/webinar-backend/internal/mailer"
	"github.com/nmrschool/webinar-backend/internal/models"
)

// DeliveryPolicy decides whether a failed confirmation email fails the registration request.
type DeliveryPolicy string

const (
	// PolicyResilient logs delivery failures and still reports success.
	PolicyResilient DeliveryPolicy = "resilient"
	// PolicyStrict returns delivery failures to the caller.
	PolicyStrict DeliveryPolicy = "strict"
)

const qrServiceURL = "https://api.qrserver.com/v1/create-qr-code/?size=320x320&data="

// Registration outcome labels.
const (
	resultOK      = "ok"
	resultInvalid = "invalid"
	resultError   = "error"
)

// InputError reports missing required fields. Nothing is stored when it is returned.
type InputError struct {
	Missing []string
}

func (e *InputError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// ConfigError reports a server-side configuration problem found after the record was stored.
type ConfigError struct {
	Op   string
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Sender delivers confirmation emails.
type Sender interface {
	Send(ctx context.Context, msg *mailer.Message) error
}

// Recorder counts registration outcomes.
type Recorder interface {
	RecordRegistration(result string)
}

// RegisterInput is one sign-up as submitted.
type RegisterInput struct {
	FirstName string
	LastName  string
	OrgType   string
	OrgName   string
	Role      string
	Email     string
	Phone     string
	MoreInfo  bool
}

// Result is a stored registration plus the email outcome.
type Result struct {
	Registration models.Registration
	EmailSent    bool
	EmailErr     error // set only under PolicyResilient
}

// Options configures the confirmation email.
type Options struct {
	Event        models.EventDefinition
	TemplatePath string
	Subject      string
	Bcc          []string
	ICSURL       string
	Policy       DeliveryPolicy
}

// Service validates, stores and confirms registrations.
type Service struct {
	store    Store
	sender   Sender
	calendar *calendar.Builder
	opts     Options
	recorder Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a registration service. recorder may be nil.
func NewService(store Store, sender Sender, cal *calendar.Builder, opts Options, recorder Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Policy == "" {
		opts.Policy = PolicyResilient
	}
	return &Service{
		store:    store,
		sender:   sender,
		calendar: cal,
		opts:     opts,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// Policy returns the configured delivery policy.
func (s *Service) Policy() DeliveryPolicy { return s.opts.Policy }

// TemplatePath returns the configured template file.
func (s *Service) TemplatePath() string { return s.opts.TemplatePath }

// Register stores a valid sign-up and emails the confirmation with the calendar invite.
// Once stored, a registration is never rolled back, whatever fails afterwards.
// Caller cancellation is ignored; delivery is bounded by the backend timeouts.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	ctx = context.WithoutCancel(ctx)

	reg, err := s.newRegistration(in)
	if err != nil {
		s.record(resultInvalid)
		return nil, err
	}

	if err := s.store.Append(ctx, reg); err != nil {
		s.logger.Error("persist registration failed", zap.String("email", reg.Email), zap.Error(err))
	}

	res, err := s.confirm(ctx, reg)
	if err != nil {
		s.record(resultError)
		return nil, err
	}
	s.record(resultOK)
	return res, nil
}

func (s *Service) newRegistration(in RegisterInput) (*models.Registration, error) {
	reg := &models.Registration{
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		OrgType:   strings.TrimSpace(in.OrgType),
		OrgName:   strings.TrimSpace(in.OrgName),
		Role:      strings.TrimSpace(in.Role),
		Email:     strings.TrimSpace(in.Email),
		Phone:     strings.TrimSpace(in.Phone),
		MoreInfo:  in.MoreInfo,
		CreatedAt: ceilMillis(s.now().UTC()),
	}
	var missing []string
	if reg.FirstName == "" {
		missing = append(missing, "firstName")
	}
	if reg.LastName == "" {
		missing = append(missing, "lastName")
	}
	if reg.Email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return nil, &InputError{Missing: missing}
	}
	return reg, nil
}

// ceilMillis rounds t up so the stored time is never before the call.
func ceilMillis(t time.Time) time.Time {
	r := t.Truncate(time.Millisecond)
	if r.Before(t) {
		r = r.Add(time.Millisecond)
	}
	return r
}

func (s *Service) confirm(ctx context.Context, reg *models.Registration) (*Result, error) {
	// #nosec G304 -- template path comes from operator configuration
	tpl, err := os.ReadFile(s.opts.TemplatePath)
	if err != nil {
		s.logger.Error("load email template failed", zap.String("path", s.opts.TemplatePath), zap.Error(err))
		return nil, &ConfigError{Op: "read template", Path: s.opts.TemplatePath, Err: err}
	}

	html := mailer.RenderHTML(string(tpl), s.templateVars(reg))
	msg := &mailer.Message{
		To:      reg.Email,
		Bcc:     s.opts.Bcc,
		Subject: s.opts.Subject,
		HTML:    html,
		Attachment: &mailer.Attachment{
			Filename:    calendar.Filename,
			ContentType: calendar.ContentType,
			Content:     s.calendar.Build(),
		},
	}

	res := &Result{Registration: *reg}
	err = s.sender.Send(ctx, msg)
	switch {
	case err == nil:
		res.EmailSent = true
		return res, nil
	case errors.Is(err, mailer.ErrNoBackend):
		s.logger.Error("no email backend configured", zap.String("recipient", reg.Email))
		return nil, &ConfigError{Op: "send confirmation", Err: err}
	case s.opts.Policy == PolicyStrict:
		s.logger.Error("confirmation email failed", zap.String("recipient", reg.Email), zap.Error(err))
		return nil, err
	default:
		s.logger.Warn("confirmation email failed, registration kept",
			zap.String("recipient", reg.Email),
			zap.String("policy", string(s.opts.Policy)),
			zap.Error(err),
		)
		res.EmailErr = err
		return res, nil
	}
}

func (s *Service) templateVars(reg *models.Registration) map[string]any {
	ev := s.opts.Event
	moreInfo := "No"
	if reg.MoreInfo {
		moreInfo = "Sí"
	}
	return map[string]any{
		"firstName":  reg.FirstName,
		"lastName":   reg.LastName,
		"orgType":    reg.OrgType,
		"orgName":    reg.OrgName,
		"role":       reg.Role,
		"email":      reg.Email,
		"phone":      reg.Phone,
		"moreInfo":   moreInfo,
		"eventTitle": ev.Title,
		"zoomUrl":    ev.JoinURL,
		"meetingId":  ev.MeetingID,
		"pass1":      ev.Passcode1,
		"pass2":      ev.Passcode2,
		"dateText":   ev.DateText,
		"qrUrl":      qrServiceURL + url.QueryEscape(ev.JoinURL),
		"icsUrl":     s.opts.ICSURL,
	}
}

func (s *Service) record(result string) {
	if s.recorder != nil {
		s.recorder.RecordRegistration(result)
	}
}
