// Package timezone answers send-window questions in a recipient's local time.
// Unknown or malformed zone names never fail; they resolve to the fallback
// zone.
package timezone

import (
	"strings"
	"sync"
	"time"
	_ "time/tzdata"
)

const (
	// Local hours in [WindowStart, WindowEnd) are appropriate for sending.
	WindowStart = 8
	WindowEnd   = 22

	OptimalHour  = 10
	AdjustedHour = 9
)

var countryZones = map[string]string{
	"TR": "Europe/Istanbul",
	"US": "America/New_York",
	"GB": "Europe/London",
	"DE": "Europe/Berlin",
	"FR": "Europe/Paris",
	"IT": "Europe/Rome",
	"ES": "Europe/Madrid",
	"NL": "Europe/Amsterdam",
	"BE": "Europe/Brussels",
	"CH": "Europe/Zurich",
	"AT": "Europe/Vienna",
	"SE": "Europe/Stockholm",
	"NO": "Europe/Oslo",
	"DK": "Europe/Copenhagen",
	"FI": "Europe/Helsinki",
	"PL": "Europe/Warsaw",
	"CZ": "Europe/Prague",
	"GR": "Europe/Athens",
	"PT": "Europe/Lisbon",
	"IE": "Europe/Dublin",
	"AU": "Australia/Sydney",
	"CA": "America/Toronto",
	"MX": "America/Mexico_City",
	"BR": "America/Sao_Paulo",
	"AR": "America/Argentina/Buenos_Aires",
	"JP": "Asia/Tokyo",
	"CN": "Asia/Shanghai",
	"IN": "Asia/Kolkata",
	"AE": "Asia/Dubai",
	"SA": "Asia/Riyadh",
	"ZA": "Africa/Johannesburg",
	"EG": "Africa/Cairo",
}

type Resolver struct {
	fallbackName string
	fallback     *time.Location
	now          func() time.Time
	locations    sync.Map
}

type Option func(*Resolver)

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver uses fallback for empty or unknown zones. An unusable fallback
// itself degrades to UTC.
func NewResolver(fallback string, opts ...Option) *Resolver {
	r := &Resolver{fallbackName: "UTC", fallback: time.UTC, now: time.Now}
	if loc, ok := load(fallback); ok {
		r.fallbackName = loc.String()
		r.fallback = loc
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func load(name string) (*time.Location, bool) {
	name = strings.TrimSpace(name)
	// LoadLocation maps "" and "Local" to the host zone, which is not a
	// recipient's zone.
	if name == "" || strings.EqualFold(name, "local") {
		return nil, false
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, false
	}
	return loc, true
}

// Location returns the named zone, or the fallback zone.
func (r *Resolver) Location(name string) *time.Location {
	if cached, ok := r.locations.Load(name); ok {
		return cached.(*time.Location)
	}
	loc, ok := load(name)
	if !ok {
		loc = r.fallback
	}
	r.locations.Store(name, loc)
	return loc
}

// Valid reports whether name is a loadable zone.
func (r *Resolver) Valid(name string) bool {
	_, ok := load(name)
	return ok
}

func (r *Resolver) Fallback() string {
	return r.fallbackName
}

// Resolve maps an ISO 3166 alpha-2 country code to its primary zone.
func (r *Resolver) Resolve(countryCode string) string {
	zone, ok := countryZones[strings.ToUpper(strings.TrimSpace(countryCode))]
	if !ok || !r.Valid(zone) {
		return r.fallbackName
	}
	return zone
}

func (r *Resolver) LocalHour(zone string) int {
	return r.now().In(r.Location(zone)).Hour()
}

// IsAppropriateHour reports whether the current local hour in zone is in
// [WindowStart, WindowEnd).
func (r *Resolver) IsAppropriateHour(zone string) bool {
	return appropriate(r.LocalHour(zone))
}

func appropriate(hour int) bool {
	return hour >= WindowStart && hour < WindowEnd
}

// OptimalSendInstant is OptimalHour local time, days calendar days from today.
func (r *Resolver) OptimalSendInstant(zone string, days int) time.Time {
	local := r.now().In(r.Location(zone))
	return time.Date(local.Year(), local.Month(), local.Day()+days, OptimalHour, 0, 0, 0, local.Location()).UTC()
}

// NextSendWindow is the next OptimalHour local time strictly after now.
func (r *Resolver) NextSendWindow(zone string) time.Time {
	now := r.now()
	today := r.OptimalSendInstant(zone, 0)
	if today.After(now) {
		return today
	}
	return r.OptimalSendInstant(zone, 1)
}

// AdjustForZone moves an instant that falls outside the local send window to
// AdjustedHour local time: the same day when it is before WindowStart, the
// next day when it is WindowEnd or later.
func (r *Resolver) AdjustForZone(at time.Time, zone string) time.Time {
	local := at.In(r.Location(zone))
	hour := local.Hour()
	if appropriate(hour) {
		return at.UTC()
	}
	day := local.Day()
	if hour >= WindowEnd {
		day++
	}
	return time.Date(local.Year(), local.Month(), day, AdjustedHour, 0, 0, 0, local.Location()).UTC()
}
