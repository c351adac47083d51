package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/smtp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifier_SendsConfirmationCode(t *testing.T) {
	m := &recordingMailer{}
	n := NewNotifier(m, DefaultNotifierConfig(), discard())

	n.SendConfirmationCode("alice@example.com", "alice", "abc123")
	require.NoError(t, n.Wait(context.Background()))

	require.Equal(t, 1, m.count())
	assert.Equal(t, "alice@example.com", m.sent[0].To)
	assert.Contains(t, m.sent[0].Body, "abc123")
	assert.Contains(t, m.sent[0].Body, "alice")
}

func TestNotifier_BreakerOpensAfterFailures(t *testing.T) {
	m := &recordingMailer{err: errors.New("relay down")}
	cfg := NotifierConfig{SendTimeout: time.Second, FailureThreshold: 2, OpenTimeout: time.Hour}
	n := NewNotifier(m, cfg, discard())

	for i := 0; i < 4; i++ {
		n.SendConfirmationCode("a@example.com", "a", "code")
		require.NoError(t, n.Wait(context.Background()))
	}

	// the open breaker short-circuits the last two attempts
	assert.Equal(t, 2, m.count())
}

func TestSMTPMailer_Send(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p", From: "noreply@yamdb.local"})
	m.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.NotNil(t, a)
		return nil
	}

	err := m.Send(context.Background(), Message{To: "alice@example.com", Subject: "Hi", Body: "code"})

	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@yamdb.local", gotFrom)
	assert.Equal(t, []string{"alice@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Hi\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\ncode")
}

func TestSMTPMailer_RespectsContext(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "smtp.example.com", Port: 25})
	release := make(chan struct{})
	defer close(release)
	m.sendMail = func(string, smtp.Auth, string, []string, []byte) error {
		<-release
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := m.Send(ctx, Message{To: "a@example.com"})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
