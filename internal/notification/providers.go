package notification

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Provider delivers one notification over one channel
type Provider interface {
	Send(ctx context.Context, notification *Notification) error
}

// MockProvider records sent notifications for testing
type MockProvider struct {
	mu         sync.RWMutex
	channel    Channel
	sent       []*Notification
	failOnSend bool
	sendDelay  time.Duration
}

// NewMockProvider creates a mock provider for a channel
func NewMockProvider(channel Channel) *MockProvider {
	return &MockProvider{channel: channel}
}

// Send records the notification (mock implementation)
func (p *MockProvider) Send(ctx context.Context, notification *Notification) error {
	if p.sendDelay > 0 {
		select {
		case <-time.After(p.sendDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.failOnSend {
		return fmt.Errorf("mock send failure")
	}
	switch p.channel {
	case ChannelSMS:
		if notification.Phone == "" {
			return fmt.Errorf("no phone number provided")
		}
	case ChannelEmail:
		if notification.Email == "" {
			return fmt.Errorf("no email address provided")
		}
	case ChannelPush:
		if notification.DeviceToken == "" {
			return fmt.Errorf("no device token provided")
		}
	}

	p.sent = append(p.sent, notification)
	return nil
}

// SetFailOnSend sets whether Send should fail
func (p *MockProvider) SetFailOnSend(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failOnSend = fail
}

// SetSendDelay sets artificial delay for Send
func (p *MockProvider) SetSendDelay(delay time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sendDelay = delay
}

// Sent returns a copy of all sent notifications
func (p *MockProvider) Sent() []*Notification {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*Notification(nil), p.sent...)
}

// ConsoleProvider logs notifications to stdout (for development)
type ConsoleProvider struct {
	channel Channel
}

// NewConsoleProvider creates a console logging provider
func NewConsoleProvider(channel Channel) *ConsoleProvider {
	return &ConsoleProvider{channel: channel}
}

// Send logs the notification to console
func (p *ConsoleProvider) Send(ctx context.Context, notification *Notification) error {
	fmt.Printf("\n[%s NOTIFICATION]\n", p.channel)
	fmt.Printf("  ID:        %s\n", notification.ID)
	fmt.Printf("  Alert:     %s\n", notification.AlertID)
	fmt.Printf("  Priority:  %s\n", notification.Priority)
	fmt.Printf("  Recipient: %s (%s)\n", notification.RecipientID, notification.RecipientRole)
	fmt.Printf("  Subject:   %s\n", notification.Subject)
	fmt.Printf("  Body:\n%s\n", notification.Body)
	fmt.Println()
	return nil
}
