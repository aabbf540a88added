package notification

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mindhaven/platform/internal/crisis"
	"github.com/mindhaven/platform/internal/shared/metrics"
	"github.com/mindhaven/platform/internal/shared/types"
)

// ServiceConfig holds service configuration
type ServiceConfig struct {
	Workers       int
	BufferSize    int
	RetryAttempts int
	RetryDelay    time.Duration
}

// DefaultServiceConfig returns default configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Workers:       4,
		BufferSize:    1000,
		RetryAttempts: 3,
		RetryDelay:    30 * time.Second,
	}
}

// Service delivers alert notifications through per-channel providers with a
// worker pool and bounded retries
type Service struct {
	providers map[Channel]Provider

	mu    sync.RWMutex
	stats Stats

	notifCh chan *Notification
	config  ServiceConfig

	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewService creates a new notification service. Channels without a
// provider are unavailable for delivery.
func NewService(providers map[Channel]Provider, config ServiceConfig) *Service {
	return &Service{
		providers: providers,
		notifCh:   make(chan *Notification, config.BufferSize),
		config:    config,
		stopCh:    make(chan struct{}),
	}
}

// Start starts the delivery workers
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("service already started")
	}
	s.started = true
	s.mu.Unlock()

	for i := 0; i < s.config.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}

	return nil
}

// Stop stops the delivery workers
func (s *Service) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return fmt.Errorf("service not started")
	}
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()

	return nil
}

// Notify queues alert notifications for one care team member. Critical
// alerts go out on every channel the recipient can receive; lower tiers use
// the single best available channel. Implements the crisis module's
// notifier contract.
func (s *Service) Notify(ctx context.Context, alertID types.ID, recipient crisis.CareTeamMember, severity crisis.Severity) error {
	channels := s.selectChannels(recipient, severity)
	if len(channels) == 0 {
		return fmt.Errorf("no delivery channel available for %s", recipient.Role)
	}

	subject, body := buildMessage(alertID, recipient, severity)
	priority := priorityForSeverity(severity)

	for _, channel := range channels {
		n := &Notification{
			ID:            types.NewID(),
			Channel:       channel,
			Priority:      priority,
			Status:        StatusPending,
			AlertID:       alertID,
			RecipientID:   recipient.ID,
			RecipientRole: recipient.Role,
			Phone:         recipient.Contact.Phone,
			Email:         recipient.Contact.Email,
			DeviceToken:   recipient.Contact.DeviceToken,
			Subject:       subject,
			Body:          body,
			CreatedAt:     time.Now().UTC(),
		}

		if err := s.enqueue(n); err != nil {
			return err
		}
	}

	return nil
}

// selectChannels picks delivery channels by severity and reachable contact
// details, in preference order email, sms, push
func (s *Service) selectChannels(recipient crisis.CareTeamMember, severity crisis.Severity) []Channel {
	var available []Channel
	if recipient.Contact.Email != "" && s.providers[ChannelEmail] != nil {
		available = append(available, ChannelEmail)
	}
	if recipient.Contact.Phone != "" && s.providers[ChannelSMS] != nil {
		available = append(available, ChannelSMS)
	}
	if recipient.Contact.DeviceToken != "" && s.providers[ChannelPush] != nil {
		available = append(available, ChannelPush)
	}

	if severity == crisis.SeverityCritical || len(available) == 0 {
		return available
	}
	return available[:1]
}

func (s *Service) enqueue(n *Notification) error {
	s.mu.Lock()
	s.stats.TotalQueued++
	s.mu.Unlock()

	select {
	case s.notifCh <- n:
		return nil
	default:
		return fmt.Errorf("notification buffer full")
	}
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case n := <-s.notifCh:
			s.deliver(ctx, n)
		}
	}
}

func (s *Service) deliver(ctx context.Context, n *Notification) {
	provider := s.providers[n.Channel]
	if provider == nil {
		s.finish(n, fmt.Errorf("%s provider not configured", n.Channel))
		return
	}

	err := provider.Send(ctx, n)
	if err == nil {
		s.finish(n, nil)
		return
	}

	s.mu.Lock()
	n.RetryCount++
	n.ErrorMessage = err.Error()
	now := time.Now().UTC()
	n.LastRetryAt = &now
	exhausted := n.RetryCount >= s.config.RetryAttempts
	s.mu.Unlock()

	if exhausted {
		s.finish(n, err)
		return
	}

	slog.Warn("notification delivery failed, will retry",
		"notification_id", n.ID.String(),
		"channel", string(n.Channel),
		"attempt", n.RetryCount,
		"error", err)

	go func() {
		select {
		case <-time.After(s.config.RetryDelay):
		case <-s.stopCh:
			return
		}
		select {
		case s.notifCh <- n:
		default:
		}
	}()
}

func (s *Service) finish(n *Notification, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stats.ByChannel == nil {
		s.stats.ByChannel = make(map[Channel]int64)
	}
	if s.stats.ByPriority == nil {
		s.stats.ByPriority = make(map[Priority]int64)
	}
	s.stats.ByChannel[n.Channel]++
	s.stats.ByPriority[n.Priority]++

	if err != nil {
		n.Status = StatusFailed
		n.ErrorMessage = err.Error()
		s.stats.TotalFailed++
		slog.Error("notification delivery failed permanently",
			"notification_id", n.ID.String(),
			"alert_id", n.AlertID.String(),
			"channel", string(n.Channel),
			"error", err)
	} else {
		now := time.Now().UTC()
		n.SentAt = &now
		n.Status = StatusSent
		s.stats.TotalSent++
	}

	delivered := s.stats.TotalSent + s.stats.TotalFailed
	if delivered > 0 {
		s.stats.DeliveryRate = float64(s.stats.TotalSent) / float64(delivered)
	}

	metrics.RecordNotification(string(n.Channel), err == nil)
}

// GetStats returns a snapshot of delivery statistics
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := s.stats
	stats.ByChannel = make(map[Channel]int64, len(s.stats.ByChannel))
	for k, v := range s.stats.ByChannel {
		stats.ByChannel[k] = v
	}
	stats.ByPriority = make(map[Priority]int64, len(s.stats.ByPriority))
	for k, v := range s.stats.ByPriority {
		stats.ByPriority[k] = v
	}
	return stats
}
