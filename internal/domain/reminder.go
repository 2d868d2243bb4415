package domain

import "time"

type ReminderType string

const (
	ReminderQuotePending  ReminderType = "QUOTE_PENDING"
	ReminderQuoteExpiring ReminderType = "QUOTE_EXPIRING"
	ReminderLeadFollowUp  ReminderType = "LEAD_FOLLOW_UP"
)

func (t ReminderType) Valid() bool {
	switch t {
	case ReminderQuotePending, ReminderQuoteExpiring, ReminderLeadFollowUp:
		return true
	}
	return false
}

type ReminderStatus string

const (
	ReminderPending   ReminderStatus = "PENDING"
	ReminderSent      ReminderStatus = "SENT"
	ReminderCancelled ReminderStatus = "CANCELLED"
	ReminderFailed    ReminderStatus = "FAILED"
)

// Terminal reports whether no further transition is defined from s.
func (s ReminderStatus) Terminal() bool {
	return s == ReminderSent || s == ReminderCancelled || s == ReminderFailed
}

type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelSMS   Channel = "SMS"
	ChannelPush  Channel = "PUSH"
	ChannelAll   Channel = "ALL"
)

// Expand returns the concrete delivery channels implied by c.
func (c Channel) Expand() []Channel {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush:
		return []Channel{c}
	case ChannelAll:
		return []Channel{ChannelEmail, ChannelSMS, ChannelPush}
	}
	return nil
}

const (
	VariantA = "A"
	VariantB = "B"
)

type Reminder struct {
	ID              int64
	Type            ReminderType
	EntityID        int64
	UserID          int64
	Email           string
	Phone           string
	Channel         Channel
	Status          ReminderStatus
	ScheduledAt     time.Time
	Timezone        string
	Variant         string
	RetryCount      int
	Language        string
	RecipientName   string
	TreatmentType   string
	ReferenceNumber string
	Subject         string
	Message         string
	SentAt          *time.Time
	ErrorMessage    string
	LockedUntil     *time.Time
	ResponseAction  string
	RespondedAt     *time.Time
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// VariantStat aggregates delivered reminders of one A/B variant.
type VariantStat struct {
	Variant   string
	Sent      int
	Responded int
}
