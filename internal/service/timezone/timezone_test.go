package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedClock(t time.Time) Option {
	return WithClock(func() time.Time { return t })
}

func TestResolve(t *testing.T) {
	r := NewResolver("UTC")

	assert.Equal(t, "Europe/Istanbul", r.Resolve("TR"))
	assert.Equal(t, "Europe/Istanbul", r.Resolve(" tr "))
	assert.Equal(t, "Asia/Kolkata", r.Resolve("IN"))
	assert.Equal(t, "UTC", r.Resolve("XX"))
	assert.Equal(t, "UTC", r.Resolve(""))
}

func TestNewResolver_BadFallback(t *testing.T) {
	r := NewResolver("Mars/Olympus_Mons")
	assert.Equal(t, "UTC", r.Fallback())

	r = NewResolver("Europe/Berlin")
	assert.Equal(t, "Europe/Berlin", r.Fallback())
	assert.Equal(t, "Europe/Berlin", r.Resolve("ZZ"))
}

func TestLocation_FallsBack(t *testing.T) {
	r := NewResolver("UTC")

	assert.Equal(t, time.UTC, r.Location(""))
	assert.Equal(t, time.UTC, r.Location("Local"))
	assert.Equal(t, time.UTC, r.Location("Not/AZone"))
	assert.Equal(t, "Asia/Tokyo", r.Location("Asia/Tokyo").String())
	assert.False(t, r.Valid("Not/AZone"))
	assert.True(t, r.Valid("Asia/Tokyo"))
}

func TestIsAppropriateHour(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		zone string
		want bool
	}{
		{name: "afternoon utc", now: time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC), zone: "UTC", want: true},
		{name: "late utc", now: time.Date(2026, 5, 1, 23, 0, 0, 0, time.UTC), zone: "UTC", want: false},
		{name: "window start", now: time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC), zone: "UTC", want: true},
		{name: "window end", now: time.Date(2026, 5, 1, 22, 0, 0, 0, time.UTC), zone: "UTC", want: false},
		// 05:00 UTC is 08:00 in Istanbul (UTC+3).
		{name: "istanbul morning", now: time.Date(2026, 5, 1, 5, 0, 0, 0, time.UTC), zone: "Europe/Istanbul", want: true},
		{name: "invalid zone uses fallback", now: time.Date(2026, 5, 1, 3, 0, 0, 0, time.UTC), zone: "Bogus/Zone", want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := NewResolver("UTC", fixedClock(tc.now))
			assert.Equal(t, tc.want, r.IsAppropriateHour(tc.zone))
		})
	}
}

func TestOptimalSendInstant(t *testing.T) {
	now := time.Date(2026, 5, 1, 14, 30, 0, 0, time.UTC)
	r := NewResolver("UTC", fixedClock(now))

	assert.Equal(t, time.Date(2026, 5, 3, 10, 0, 0, 0, time.UTC), r.OptimalSendInstant("UTC", 2))
	// 10:00 Istanbul is 07:00 UTC.
	assert.Equal(t, time.Date(2026, 5, 4, 7, 0, 0, 0, time.UTC), r.OptimalSendInstant("Europe/Istanbul", 3))
	assert.Equal(t, time.Date(2026, 5, 3, 10, 0, 0, 0, time.UTC), r.OptimalSendInstant("nope", 2))
}

func TestNextSendWindow(t *testing.T) {
	late := NewResolver("UTC", fixedClock(time.Date(2026, 5, 1, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC), late.NextSendWindow("UTC"))

	early := NewResolver("UTC", fixedClock(time.Date(2026, 5, 1, 5, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), early.NextSendWindow("UTC"))
}

func TestAdjustForZone(t *testing.T) {
	r := NewResolver("UTC")

	inWindow := time.Date(2026, 5, 1, 15, 0, 0, 0, time.UTC)
	assert.Equal(t, inWindow, r.AdjustForZone(inWindow, "UTC"))

	beforeWindow := time.Date(2026, 5, 1, 6, 15, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC), r.AdjustForZone(beforeWindow, "UTC"))

	afterWindow := time.Date(2026, 5, 1, 22, 45, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC), r.AdjustForZone(afterWindow, "UTC"))

	// 20:00 UTC is 23:00 in Istanbul; next local 09:00 is 06:00 UTC.
	istanbulNight := time.Date(2026, 5, 1, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 5, 2, 6, 0, 0, 0, time.UTC), r.AdjustForZone(istanbulNight, "Europe/Istanbul"))
}
