package notification

import (
	"fmt"
	"time"

	"github.com/mindhaven/platform/internal/crisis"
	"github.com/mindhaven/platform/internal/shared/types"
)

// Channel is a delivery channel
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Priority orders notifications for delivery urgency
type Priority string

const (
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityUrgent   Priority = "urgent"
	PriorityCritical Priority = "critical"
)

// Status is the delivery lifecycle state
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Notification is one alert message bound for one care team member over
// one channel
type Notification struct {
	ID       types.ID `json:"id"`
	Channel  Channel  `json:"channel"`
	Priority Priority `json:"priority"`
	Status   Status   `json:"status"`

	AlertID       types.ID `json:"alert_id"`
	RecipientID   types.ID `json:"recipient_id"`
	RecipientRole string   `json:"recipient_role"`

	// Contact details resolved from the care team assignment
	Phone       string `json:"phone,omitempty"`
	Email       string `json:"email,omitempty"`
	DeviceToken string `json:"device_token,omitempty"`

	Subject string `json:"subject"`
	Body    string `json:"body"`

	RetryCount   int        `json:"retry_count"`
	LastRetryAt  *time.Time `json:"last_retry_at,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`

	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

// Stats aggregates delivery outcomes since startup
type Stats struct {
	TotalQueued  int64              `json:"total_queued"`
	TotalSent    int64              `json:"total_sent"`
	TotalFailed  int64              `json:"total_failed"`
	ByChannel    map[Channel]int64  `json:"by_channel"`
	ByPriority   map[Priority]int64 `json:"by_priority"`
	DeliveryRate float64            `json:"delivery_rate"`
}

// priorityForSeverity maps an alert severity onto delivery priority
func priorityForSeverity(severity crisis.Severity) Priority {
	switch severity {
	case crisis.SeverityCritical:
		return PriorityCritical
	case crisis.SeverityHigh:
		return PriorityUrgent
	case crisis.SeverityMedium:
		return PriorityHigh
	default:
		return PriorityNormal
	}
}

// buildMessage composes the alert message for one recipient. The body never
// includes journal text or indicator phrases.
func buildMessage(alertID types.ID, recipient crisis.CareTeamMember, severity crisis.Severity) (subject, body string) {
	subject = fmt.Sprintf("Crisis alert (%s severity)", severity)

	switch recipient.Role {
	case crisis.RoleEmergencyContact:
		body = fmt.Sprintf(
			"A person who listed you as their emergency contact may need support right now. "+
				"Please reach out to them as soon as you can. Reference: %s", alertID)
	default:
		body = fmt.Sprintf(
			"A patient under your care triggered a %s severity crisis alert and may need immediate attention. "+
				"Review the alert in the clinician dashboard. Reference: %s", severity, alertID)
	}
	return subject, body
}
