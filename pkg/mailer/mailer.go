package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/noah-isme/ccmr-api/pkg/config"
	"github.com/noah-isme/ccmr-api/pkg/jobs"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

// shellTmpl wraps every notification body in the standard CCMR mail layout.
var shellTmpl = template.Must(template.New("shell").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px;">
    CCMR System Notification
  </h2>
  <div style="background-color: #f8f9fa; padding: 20px; border-radius: 5px; margin: 20px 0;">
    {{.Body}}
  </div>
  <div style="margin-top: 20px; padding-top: 20px; border-top: 1px solid #ddd; color: #7f8c8d;">
    <p>This is an automated notification from the CCMR.</p>
    <p>Please do not reply to this email.</p>
  </div>
</div>
`))

// Message is a department-addressed email awaiting dispatch.
type Message struct {
	ToDepartment string
	Subject      string
	Body         template.HTML
}

// Mailer delivers office notifications through SendGrid. Dispatch runs on a
// background queue so request handlers never block on the relay, and delivery
// failures are logged rather than surfaced to callers.
type Mailer struct {
	enabled   bool
	apiKey    string
	from      *sgmail.Email
	mailboxes map[string]string
	logger    *zap.Logger
	queue     *jobs.Queue
}

// New builds a Mailer from the email configuration. Office mailboxes are
// keyed by department code (OPD, GCO, INF).
func New(cfg config.EmailConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Mailer{
		enabled: cfg.Enabled && cfg.APIKey != "",
		apiKey:  cfg.APIKey,
		from:    sgmail.NewEmail(cfg.FromName, cfg.FromAddress),
		mailboxes: map[string]string{
			"OPD": cfg.OPDMailbox,
			"GCO": cfg.GCOMailbox,
			"INF": cfg.INFMailbox,
		},
		logger: logger,
	}

	m.queue = jobs.NewQueue("email", m.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
		Logger:     logger,
	})

	return m
}

// Start launches the dispatch workers.
func (m *Mailer) Start(ctx context.Context) {
	m.queue.Start(ctx)
}

// Stop drains the dispatch workers.
func (m *Mailer) Stop() {
	m.queue.Stop()
}

// Notify queues a notification email for a department mailbox. Errors are
// logged only; a missed email never fails the calling operation.
func (m *Mailer) Notify(department, subject string, body template.HTML) {
	if !m.enabled {
		m.logger.Sugar().Debugw("email disabled, skipping notification", "department", department, "subject", subject)
		return
	}
	if _, ok := m.mailboxes[department]; !ok {
		m.logger.Sugar().Errorw("no mailbox for department", "department", department)
		return
	}

	err := m.queue.Enqueue(jobs.Job{
		ID:   uuid.NewString(),
		Type: "email.notify",
		Payload: Message{
			ToDepartment: department,
			Subject:      subject,
			Body:         body,
		},
	})
	if err != nil {
		m.logger.Sugar().Errorw("failed to enqueue email", "department", department, "subject", subject, "error", err)
	}
}

func (m *Mailer) handle(ctx context.Context, job jobs.Job) error {
	msg, ok := job.Payload.(Message)
	if !ok {
		m.logger.Sugar().Errorw("unexpected email payload", "job_id", job.ID)
		return nil
	}

	toEmail := m.mailboxes[msg.ToDepartment]

	var rendered bytes.Buffer
	if err := shellTmpl.Execute(&rendered, msg); err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	mail := sgmail.NewV3Mail()
	mail.SetFrom(m.from)
	mail.Subject = msg.Subject

	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(msg.ToDepartment+" Office", toEmail))
	mail.AddPersonalizations(p)
	mail.AddContent(sgmail.NewContent("text/html", rendered.String()))

	req := sendgrid.GetRequest(m.apiKey, sendgridEndpoint, sendgridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(mail)

	resp, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("send email: sendgrid returned %d", resp.StatusCode)
	}

	m.logger.Sugar().Infow("email notification sent", "department", msg.ToDepartment, "to", toEmail, "subject", msg.Subject)
	return nil
}
