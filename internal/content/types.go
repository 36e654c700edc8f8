// Package content defines the three admin-editable site documents:
// events, sponsors, and luminaries. Each is stored whole in the GitHub
// document store and versioned by its lastModified stamp (epoch ms),
// which the frontend polls for staleness.
package content

import (
	"errors"
	"time"
)

// Document names as stored (data/{name}.json).
const (
	DocEvents     = "events"
	DocSponsors   = "sponsors"
	DocLuminaries = "luminaries"
)

// EventItem is one past event entry.
type EventItem struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// PastEventGroup holds a category of past events, or a coming-soon marker.
type PastEventGroup struct {
	Events     []EventItem `json:"events,omitempty"`
	ComingSoon bool        `json:"comingSoon,omitempty"`
}

// Countdown is the frontend's precomputed time-to-event display.
type Countdown struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// UpcomingEvent is one scheduled symposium event.
type UpcomingEvent struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Date             string    `json:"date"`
	Time             string    `json:"time"`
	Location         string    `json:"location"`
	Description      string    `json:"description"`
	RegistrationLink string    `json:"registrationLink"`
	Countdown        Countdown `json:"countdown"`
}

// EventsDocument is the whole events configuration.
type EventsDocument struct {
	PastEvents     map[string]PastEventGroup `json:"pastEvents"`
	UpcomingEvents []UpcomingEvent           `json:"upcomingEvents"`
	LastModified   int64                     `json:"lastModified"`
}

// Sponsor is one sponsoring organization.
type Sponsor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Logo        string `json:"logo"`
	Industry    string `json:"industry"`
	Description string `json:"description"`
	Website     string `json:"website,omitempty"`
	IsActive    bool   `json:"isActive"`
}

// SponsorsDocument is the whole sponsors configuration.
type SponsorsDocument struct {
	Sponsors     []Sponsor `json:"sponsors"`
	LastModified int64     `json:"lastModified"`
}

// TeamMember is one faculty or student-leadership bio.
type TeamMember struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	Bio          string   `json:"bio"`
	Image        string   `json:"image"`
	Email        string   `json:"email"`
	LinkedIn     string   `json:"linkedin,omitempty"`
	Achievements []string `json:"achievements"`
	Expertise    []string `json:"expertise"`
	Quote        string   `json:"quote"`
	IsLeadership bool     `json:"isLeadership,omitempty"`
}

// LuminariesDocument is the whole faculty-and-leadership configuration.
type LuminariesDocument struct {
	Faculty      []TeamMember `json:"faculty"`
	Leadership   []TeamMember `json:"leadership"`
	LastModified int64        `json:"lastModified"`
}

// Shape errors returned by Validate; these map to 400 responses. Market
// data gets approximated under failure, but a malformed admin edit is the
// one class we refuse to guess at.
var (
	ErrEventsShape     = errors.New("events document needs pastEvents and an upcomingEvents array")
	ErrSponsorsShape   = errors.New("sponsors document needs a sponsors array")
	ErrLuminariesShape = errors.New("luminaries document needs faculty and leadership arrays")
)

// Validate checks the required top-level shape.
func (d *EventsDocument) Validate() error {
	if d.PastEvents == nil || d.UpcomingEvents == nil {
		return ErrEventsShape
	}
	return nil
}

// Touch stamps the document with the current epoch-ms version.
func (d *EventsDocument) Touch() { d.LastModified = nowMillis() }

// Version returns the document's lastModified stamp.
func (d *EventsDocument) Version() int64 { return d.LastModified }

// Validate checks the required top-level shape.
func (d *SponsorsDocument) Validate() error {
	if d.Sponsors == nil {
		return ErrSponsorsShape
	}
	return nil
}

// Touch stamps the document with the current epoch-ms version.
func (d *SponsorsDocument) Touch() { d.LastModified = nowMillis() }

// Version returns the document's lastModified stamp.
func (d *SponsorsDocument) Version() int64 { return d.LastModified }

// Validate checks the required top-level shape.
func (d *LuminariesDocument) Validate() error {
	if d.Faculty == nil || d.Leadership == nil {
		return ErrLuminariesShape
	}
	return nil
}

// Touch stamps the document with the current epoch-ms version.
func (d *LuminariesDocument) Touch() { d.LastModified = nowMillis() }

// Version returns the document's lastModified stamp.
func (d *LuminariesDocument) Version() int64 { return d.LastModified }

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
