package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gobreaker "github.com/sony/gobreaker/v2"
)

var deliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "yamdb_mail_deliveries_total",
	Help: "Confirmation mail delivery attempts by result.",
}, []string{"result"})

// NotifierConfig tunes delivery and the circuit breaker around the mailer.
type NotifierConfig struct {
	SendTimeout      time.Duration
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

// DefaultNotifierConfig returns production defaults.
func DefaultNotifierConfig() NotifierConfig {
	return NotifierConfig{
		SendTimeout:      10 * time.Second,
		FailureThreshold: 5,
		OpenTimeout:      30 * time.Second,
	}
}

// Notifier dispatches mail in the background. Failures are logged, never returned.
type Notifier struct {
	mailer  Mailer
	cfg     NotifierConfig
	logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker[struct{}]
	wg      sync.WaitGroup
}

func NewNotifier(m Mailer, cfg NotifierConfig, logger *slog.Logger) *Notifier {
	n := &Notifier{mailer: m, cfg: cfg, logger: logger}
	n.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "mailer",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("mail circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return n
}

// SendConfirmationCode queues the code for delivery and returns immediately.
func (n *Notifier) SendConfirmationCode(email, username, code string) {
	msg := Message{
		To:      email,
		Subject: "YaMDb confirmation code",
		Body: fmt.Sprintf("Hello, %s!\n\nYour confirmation code: %s\n\n"+
			"Exchange it at /api/v1/auth/token/ together with your username.\n",
			username, code),
	}
	n.dispatch(msg)
}

func (n *Notifier) dispatch(msg Message) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		// detached from the request; it may finish after the response is sent
		ctx, cancel := context.WithTimeout(context.Background(), n.cfg.SendTimeout)
		defer cancel()

		_, err := n.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, n.mailer.Send(ctx, msg)
		})
		if err != nil {
			deliveries.WithLabelValues("failed").Inc()
			n.logger.Error("mail delivery failed", "to", msg.To, "error", err)
			return
		}
		deliveries.WithLabelValues("sent").Inc()
	}()
}

// Wait blocks until queued deliveries finish or ctx ends.
func (n *Notifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
