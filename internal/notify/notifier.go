// internal/notify/notifier.go

// Package notify delivers qualification notifications over SES email with an
// SNS SMS fallback and records delivery on the qualification row, so a user is
// told about a given job at most once.
package notify

import (
	"context"
	"fmt"
	"strings"

	"labelmatch/internal/common/config"
	stderrors "labelmatch/internal/common/errors"
	"labelmatch/internal/common/logger"
	"labelmatch/internal/common/metrics"
	"labelmatch/internal/models"
	"labelmatch/internal/qualification"
)

// Channel names recorded on the qualification row.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// EmailSender delivers one rendered email. Satisfied by aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, from, to, subject, body string) error
}

// SMSSender delivers one rendered SMS. Satisfied by aws.SNSClient.
type SMSSender interface {
	SendSMS(ctx context.Context, senderID, phone, message string) error
}

// ContactResolver looks up a user's contact details.
type ContactResolver interface {
	Contact(ctx context.Context, userID string) (email, phone string, err error)
}

// Notifier sends one message per newly qualifying (job, user) pair. Email is
// preferred; SMS is the fallback when the user has no email or email is
// disabled.
type Notifier struct {
	cfg      config.NotificationConfig
	email    EmailSender
	sms      SMSSender
	contacts ContactResolver
	tracker  *qualification.Tracker
	log      logger.Logger
}

func NewNotifier(cfg config.NotificationConfig, email EmailSender, sms SMSSender, contacts ContactResolver, tracker *qualification.Tracker, log logger.Logger) *Notifier {
	return &Notifier{
		cfg:      cfg,
		email:    email,
		sms:      sms,
		contacts: contacts,
		tracker:  tracker,
		log:      log,
	}
}

// Summary reports one NotifyNewlyQualifying call.
type Summary struct {
	Sent    int
	Skipped int
	Errors  []error
}

// NotifyNewlyQualifying delivers to every pending qualification for the job
// and marks each delivered row as notified. A user with no reachable contact
// is skipped, not errored; they stay pending for the next run.
func (n *Notifier) NotifyNewlyQualifying(ctx context.Context, job models.JobRecord, pending []models.Qualification) Summary {
	var summary Summary
	for _, q := range pending {
		channel, err := n.notifyOne(ctx, job, q)
		switch {
		case err != nil:
			summary.Errors = append(summary.Errors, err)
			n.log.WithError(err).Error("notification failed", map[string]interface{}{
				"jobId":  q.JobID,
				"userId": q.UserID,
			})
		case channel == "":
			summary.Skipped++
		default:
			summary.Sent++
			metrics.NotificationsSent.WithLabelValues(channel).Inc()
			if err := n.tracker.MarkNotified(ctx, q.JobID, q.UserID, channel); err != nil {
				summary.Errors = append(summary.Errors, err)
			}
		}
	}
	return summary
}

func (n *Notifier) notifyOne(ctx context.Context, job models.JobRecord, q models.Qualification) (string, error) {
	email, phone, err := n.contacts.Contact(ctx, q.UserID)
	if err != nil {
		return "", stderrors.NewNotificationSendFailedError(ChannelEmail, fmt.Errorf("resolve contact for %s: %w", q.UserID, err))
	}

	data := map[string]string{
		"jobTitle": job.Title,
		"jobId":    job.ID,
		"score":    fmt.Sprintf("%.2f", q.FinalScore),
	}
	subject := renderTemplate(qualifiedSubject, data)
	body := renderTemplate(qualifiedBody, data)

	if n.cfg.Email.Enabled && email != "" {
		if err := n.email.SendEmail(ctx, n.cfg.Email.FromEmail, email, subject, body); err != nil {
			return "", stderrors.NewNotificationSendFailedError(ChannelEmail, err)
		}
		return ChannelEmail, nil
	}

	if n.cfg.SMS.Enabled && phone != "" {
		if err := n.sms.SendSMS(ctx, n.cfg.SMS.SenderID, phone, body); err != nil {
			return "", stderrors.NewNotificationSendFailedError(ChannelSMS, err)
		}
		return ChannelSMS, nil
	}

	n.log.Warn("no reachable contact for user", map[string]interface{}{
		"userId": q.UserID,
	})
	return "", nil
}

const (
	qualifiedSubject = "You qualify for {{jobTitle}}"
	qualifiedBody    = "Good news! You qualify for the job {{jobTitle}} (match score {{score}}). Log in to apply."
)

// renderTemplate substitutes {{key}} placeholders and strips any that have no
// value.
func renderTemplate(tmpl string, data map[string]string) string {
	result := tmpl
	for k, v := range data {
		result = strings.ReplaceAll(result, "{{"+k+"}}", v)
	}
	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
