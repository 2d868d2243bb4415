package kafka

import "time"

// BookingEvent is published on every booking status change.
type BookingEvent struct {
	Type      string    `json:"type"`
	Token     string    `json:"token"`
	FlightID  int64     `json:"flight_id"`
	Seats     int       `json:"seats"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ReminderTrigger asks the reminder engine to schedule a reminder for a quote
// or lead. Upstream services emit it when a quote is sent or a lead arrives.
type ReminderTrigger struct {
	Type            string     `json:"type"`
	EntityID        int64      `json:"entity_id"`
	UserID          int64      `json:"user_id"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	Name            string     `json:"name"`
	Language        string     `json:"language"`
	Country         string     `json:"country"`
	Timezone        string     `json:"timezone"`
	TreatmentType   string     `json:"treatment_type"`
	ReferenceNumber string     `json:"reference_number"`
	SentAt          *time.Time `json:"sent_at,omitempty"`
	ValidUntil      *time.Time `json:"valid_until,omitempty"`
	DaysLater       int        `json:"days_later,omitempty"`
}

// NotificationMessage is a rendered reminder handed to the delivery side.
type NotificationMessage struct {
	ReminderID int64     `json:"reminder_id"`
	UserID     int64     `json:"user_id"`
	Channel    string    `json:"channel"`
	To         string    `json:"to"`
	Subject    string    `json:"subject,omitempty"`
	Body       string    `json:"body"`
	Variant    string    `json:"variant,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
