// internal/notify/notifier_test.go
package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"labelmatch/internal/common/config"
	"labelmatch/internal/common/logger"
	"labelmatch/internal/models"
	"labelmatch/internal/qualification"
)

// ==========================
// Fakes
// ==========================

type emailSend struct {
	from, to, subject, body string
}

type fakeSES struct {
	sends []emailSend
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, from, to, subject, body string) error {
	f.sends = append(f.sends, emailSend{from: from, to: to, subject: subject, body: body})
	return f.err
}

type smsSend struct {
	senderID, phone, message string
}

type fakeSNS struct {
	sends []smsSend
	err   error
}

func (f *fakeSNS) SendSMS(_ context.Context, senderID, phone, message string) error {
	f.sends = append(f.sends, smsSend{senderID: senderID, phone: phone, message: message})
	return f.err
}

type mapContacts struct {
	emails map[string]string
	phones map[string]string
}

func (m *mapContacts) Contact(_ context.Context, userID string) (string, string, error) {
	return m.emails[userID], m.phones[userID], nil
}

// seededStore holds pre-seeded qualification rows with write-once notified_at.
type seededStore struct {
	mu   sync.Mutex
	rows map[string]models.Qualification
}

func storeWith(qs ...models.Qualification) *seededStore {
	s := &seededStore{rows: make(map[string]models.Qualification)}
	for _, q := range qs {
		s.rows[q.JobID+"|"+q.UserID] = q
	}
	return s
}

func (s *seededStore) Upsert(_ context.Context, q models.Qualification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[q.JobID+"|"+q.UserID] = q
	return nil
}

func (s *seededStore) FindByJob(_ context.Context, jobID string) ([]models.Qualification, error) {
	return s.FindPendingNotification(context.Background(), jobID)
}

func (s *seededStore) FindPendingNotification(_ context.Context, jobID string) ([]models.Qualification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Qualification
	for _, q := range s.rows {
		if q.JobID == jobID && q.Qualifies && q.NotifiedAt == nil && q.JobActive {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *seededStore) MarkNotified(_ context.Context, jobID, userID, via string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := jobID + "|" + userID
	if q, ok := s.rows[key]; ok && q.NotifiedAt == nil {
		q.NotifiedAt = &at
		q.NotifiedVia = via
		s.rows[key] = q
	}
	return nil
}

func (s *seededStore) SetJobActive(context.Context, string, bool) error { return nil }

// ==========================
// Fixtures
// ==========================

func pendingQualification(userID string) models.Qualification {
	return models.Qualification{
		JobID:      "job-1",
		UserID:     userID,
		Qualifies:  true,
		FinalScore: 0.87,
		JobActive:  true,
	}
}

func testJobRecord() models.JobRecord {
	return models.JobRecord{ID: "job-1", Title: "Medical Reviewer", Active: true}
}

func bothChannelsConfig() config.NotificationConfig {
	return config.NotificationConfig{
		Email: config.EmailConfig{Enabled: true, FromEmail: "noreply@example.com"},
		SMS:   config.SMSConfig{Enabled: true, SenderID: "labelmatch"},
	}
}

func newTestNotifier(cfg config.NotificationConfig, sesClnt *fakeSES, snsClnt *fakeSNS, contacts *mapContacts, store qualification.Store) *Notifier {
	log := logger.NewNoOpLogger()
	tracker := qualification.NewTracker(store, nil, log)
	return NewNotifier(cfg, sesClnt, snsClnt, contacts, tracker, log)
}

// ==========================
// Tests
// ==========================

func TestNotifyNewlyQualifying_PrefersEmail(t *testing.T) {
	sesClnt := &fakeSES{}
	snsClnt := &fakeSNS{}
	contacts := &mapContacts{
		emails: map[string]string{"user-1": "user1@example.com"},
		phones: map[string]string{"user-1": "+15550001111"},
	}
	store := storeWith(pendingQualification("user-1"))
	n := newTestNotifier(bothChannelsConfig(), sesClnt, snsClnt, contacts, store)

	summary := n.NotifyNewlyQualifying(context.Background(), testJobRecord(),
		[]models.Qualification{pendingQualification("user-1")})

	assert.Equal(t, 1, summary.Sent)
	assert.Zero(t, summary.Skipped)
	assert.Empty(t, summary.Errors)

	require.Len(t, sesClnt.sends, 1)
	assert.Empty(t, snsClnt.sends, "email reachable, SMS must not fire")
	send := sesClnt.sends[0]
	assert.Equal(t, "user1@example.com", send.to)
	assert.Equal(t, "noreply@example.com", send.from)
	assert.Contains(t, send.subject, "Medical Reviewer")
	assert.Contains(t, send.body, "0.87")

	row := store.rows["job-1|user-1"]
	require.NotNil(t, row.NotifiedAt)
	assert.Equal(t, ChannelEmail, row.NotifiedVia)
}

func TestNotifyNewlyQualifying_SMSFallback(t *testing.T) {
	sesClnt := &fakeSES{}
	snsClnt := &fakeSNS{}
	contacts := &mapContacts{phones: map[string]string{"user-1": "+15550001111"}}
	store := storeWith(pendingQualification("user-1"))
	n := newTestNotifier(bothChannelsConfig(), sesClnt, snsClnt, contacts, store)

	summary := n.NotifyNewlyQualifying(context.Background(), testJobRecord(),
		[]models.Qualification{pendingQualification("user-1")})

	assert.Equal(t, 1, summary.Sent)
	assert.Empty(t, sesClnt.sends)
	require.Len(t, snsClnt.sends, 1)
	assert.Equal(t, "+15550001111", snsClnt.sends[0].phone)
	assert.Equal(t, "labelmatch", snsClnt.sends[0].senderID)

	assert.Equal(t, ChannelSMS, store.rows["job-1|user-1"].NotifiedVia)
}

func TestNotifyNewlyQualifying_EmailDisabledUsesSMS(t *testing.T) {
	cfg := bothChannelsConfig()
	cfg.Email.Enabled = false

	sesClnt := &fakeSES{}
	snsClnt := &fakeSNS{}
	contacts := &mapContacts{
		emails: map[string]string{"user-1": "user1@example.com"},
		phones: map[string]string{"user-1": "+15550001111"},
	}
	store := storeWith(pendingQualification("user-1"))
	n := newTestNotifier(cfg, sesClnt, snsClnt, contacts, store)

	summary := n.NotifyNewlyQualifying(context.Background(), testJobRecord(),
		[]models.Qualification{pendingQualification("user-1")})

	assert.Equal(t, 1, summary.Sent)
	assert.Empty(t, sesClnt.sends)
	assert.Len(t, snsClnt.sends, 1)
}

func TestNotifyNewlyQualifying_NoContactSkipsAndStaysPending(t *testing.T) {
	sesClnt := &fakeSES{}
	snsClnt := &fakeSNS{}
	store := storeWith(pendingQualification("user-1"))
	n := newTestNotifier(bothChannelsConfig(), sesClnt, snsClnt, &mapContacts{}, store)

	summary := n.NotifyNewlyQualifying(context.Background(), testJobRecord(),
		[]models.Qualification{pendingQualification("user-1")})

	assert.Zero(t, summary.Sent)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, summary.Errors)

	// Still pending: the next run will pick the user up again.
	pending, err := store.FindPendingNotification(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestNotifyNewlyQualifying_SendFailureLeavesRowPending(t *testing.T) {
	sesClnt := &fakeSES{err: assert.AnError}
	snsClnt := &fakeSNS{}
	contacts := &mapContacts{emails: map[string]string{"user-1": "user1@example.com"}}
	store := storeWith(pendingQualification("user-1"))
	n := newTestNotifier(bothChannelsConfig(), sesClnt, snsClnt, contacts, store)

	summary := n.NotifyNewlyQualifying(context.Background(), testJobRecord(),
		[]models.Qualification{pendingQualification("user-1")})

	assert.Zero(t, summary.Sent)
	require.Len(t, summary.Errors, 1)
	assert.ErrorIs(t, summary.Errors[0], assert.AnError)
	assert.Nil(t, store.rows["job-1|user-1"].NotifiedAt)
}

func TestNotifyNewlyQualifying_MixedBatch(t *testing.T) {
	sesClnt := &fakeSES{}
	snsClnt := &fakeSNS{}
	contacts := &mapContacts{
		emails: map[string]string{"user-1": "user1@example.com"},
	}
	store := storeWith(pendingQualification("user-1"), pendingQualification("user-2"))
	n := newTestNotifier(bothChannelsConfig(), sesClnt, snsClnt, contacts, store)

	summary := n.NotifyNewlyQualifying(context.Background(), testJobRecord(), []models.Qualification{
		pendingQualification("user-1"),
		pendingQualification("user-2"), // unreachable
	})

	assert.Equal(t, 1, summary.Sent)
	assert.Equal(t, 1, summary.Skipped)
}

func TestRenderTemplate(t *testing.T) {
	out := renderTemplate("Hello {{name}}, score {{score}} {{missing}}",
		map[string]string{"name": "Ada", "score": "0.91"})
	assert.Equal(t, "Hello Ada, score 0.91 ", out)
}
