package subscriber

import "time"

// Status is the persisted lifecycle state of a subscriber record.
type Status string

const (
	StatusPending      Status = "pending"
	StatusActive       Status = "active"
	StatusUnsubscribed Status = "unsubscribed"
)

// Source records how a subscriber entered the list.
type Source string

const (
	SourceForm   Source = "form"
	SourceImport Source = "import"
)

// Subscriber is stored as JSON under "subscriber:<email>". Field names keep
// the camelCase of records written by earlier deployments.
type Subscriber struct {
	Email             string     `json:"email"`
	SubscribedAt      time.Time  `json:"subscribedAt"`
	Status            Status     `json:"status"`
	ConfirmationToken string     `json:"confirmationToken,omitempty"`
	TokenExpiresAt    *time.Time `json:"tokenExpiresAt,omitempty"`
	ConfirmedAt       *time.Time `json:"confirmedAt,omitempty"`
	UnsubscribeToken  string     `json:"unsubscribeToken,omitempty"`
	UnsubscribedAt    *time.Time `json:"unsubscribedAt,omitempty"`
	UserAgent         string     `json:"userAgent,omitempty"`
	IP                string     `json:"ip,omitempty"`
	Source            Source     `json:"source,omitempty"`
}

func (s *Subscriber) IsPending() bool      { return s.Status == StatusPending }
func (s *Subscriber) IsActive() bool       { return s.Status == StatusActive }
func (s *Subscriber) IsUnsubscribed() bool { return s.Status == StatusUnsubscribed }

// ConfirmationExpired reports whether the pending confirmation token has
// expired at now. Records without an expiry never expire.
func (s *Subscriber) ConfirmationExpired(now time.Time) bool {
	return s.TokenExpiresAt != nil && now.After(*s.TokenExpiresAt)
}

func (s *Subscriber) state() State {
	return State(s.Status)
}

func timePtr(t time.Time) *time.Time {
	return &t
}
