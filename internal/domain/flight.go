package domain

import "time"

// Flight is a seat pool. AvailableSeats only moves through the conditional
// updates in the seat controller; Version increases on every committed change.
type Flight struct {
	ID             int64
	FromAirport    string
	ToAirport      string
	DepartureTime  time.Time
	ArrivalTime    time.Time
	TotalSeats     int
	AvailableSeats int
	IsBookable     bool
	Version        int64
	PriceCents     int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasCapacity reports whether count seats could be reserved from this snapshot.
func (f *Flight) HasCapacity(count int) bool {
	return f.IsBookable && f.AvailableSeats >= count
}
