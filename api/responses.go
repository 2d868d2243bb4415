package api

import (
	"time"

	"github.com/Domenick1991/healthtrip/internal/domain"
)

type flightResponse struct {
	ID             int64  `json:"id"`
	FromAirport    string `json:"from_airport"`
	ToAirport      string `json:"to_airport"`
	DepartureTime  string `json:"departure_time"`
	ArrivalTime    string `json:"arrival_time"`
	TotalSeats     int    `json:"total_seats"`
	AvailableSeats int    `json:"available_seats"`
	IsBookable     bool   `json:"is_bookable"`
	PriceCents     int64  `json:"price_cents"`
}

func toFlightResponse(f *domain.Flight) flightResponse {
	return flightResponse{
		ID:             f.ID,
		FromAirport:    f.FromAirport,
		ToAirport:      f.ToAirport,
		DepartureTime:  f.DepartureTime.Format(time.RFC3339),
		ArrivalTime:    f.ArrivalTime.Format(time.RFC3339),
		TotalSeats:     f.TotalSeats,
		AvailableSeats: f.AvailableSeats,
		IsBookable:     f.IsBookable,
		PriceCents:     f.PriceCents,
	}
}

type bookingResponse struct {
	Token     string `json:"token"`
	Status    string `json:"status"`
	ExpiresAt string `json:"expires_at"`
	FlightID  int64  `json:"flight_id"`
	Seats     int    `json:"seats"`
	Email     string `json:"email"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		Token:     b.Token,
		Status:    string(b.Status),
		ExpiresAt: b.ExpiresAt.Format(time.RFC3339),
		FlightID:  b.FlightID,
		Seats:     b.Seats,
		Email:     b.Email,
	}
}

type reminderResponse struct {
	ID             int64      `json:"id"`
	Type           string     `json:"type"`
	EntityID       int64      `json:"entity_id"`
	UserID         int64      `json:"user_id"`
	Channel        string     `json:"channel"`
	Status         string     `json:"status"`
	ScheduledAt    time.Time  `json:"scheduled_at"`
	Timezone       string     `json:"timezone,omitempty"`
	Variant        string     `json:"variant"`
	Language       string     `json:"language"`
	Subject        string     `json:"subject"`
	Message        string     `json:"message"`
	RetryCount     int        `json:"retry_count"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	ResponseAction string     `json:"response_action,omitempty"`
	RespondedAt    *time.Time `json:"responded_at,omitempty"`
}

func toReminderResponse(r *domain.Reminder) reminderResponse {
	return reminderResponse{
		ID:             r.ID,
		Type:           string(r.Type),
		EntityID:       r.EntityID,
		UserID:         r.UserID,
		Channel:        string(r.Channel),
		Status:         string(r.Status),
		ScheduledAt:    r.ScheduledAt,
		Timezone:       r.Timezone,
		Variant:        r.Variant,
		Language:       r.Language,
		Subject:        r.Subject,
		Message:        r.Message,
		RetryCount:     r.RetryCount,
		SentAt:         r.SentAt,
		ErrorMessage:   r.ErrorMessage,
		ResponseAction: r.ResponseAction,
		RespondedAt:    r.RespondedAt,
	}
}

func toReminderResponses(list []domain.Reminder) []reminderResponse {
	resp := make([]reminderResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toReminderResponse(&list[i]))
	}
	return resp
}
