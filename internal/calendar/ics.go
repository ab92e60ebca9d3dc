// Package calendar builds the iCalendar invite attached to confirmation emails.
package calendar

import (
	"strings"
	"time"

	"github.com/nmrschool/webinar-backend/internal/models"
)

const (
	// Filename is the attachment name used for the invite.
	Filename = "nmrschool-webinar.ics"
	// ContentType is the MIME type of the invite attachment.
	ContentType = "text/calendar; charset=utf-8; method=PUBLISH"

	stampLayout = "20060102T150405Z"
	crlf        = "\r\n"
)

// Builder produces invites for one event. Now defaults to time.Now.
type Builder struct {
	Event models.EventDefinition
	Now   func() time.Time
}

// NewBuilder creates a builder for ev using the wall clock.
func NewBuilder(ev models.EventDefinition) *Builder {
	return &Builder{Event: ev, Now: time.Now}
}

// Build renders the invite stamped with the current time.
func (b *Builder) Build() []byte {
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	return Build(b.Event, now())
}

// Build renders the invite for ev. Only UID and DTSTAMP depend on now.
func Build(ev models.EventDefinition, now time.Time) []byte {
	stamp := now.UTC().Format(stampLayout)

	// DESCRIPTION must stay on one content line, so line breaks are the escaped "\n".
	desc := strings.Join([]string{
		"Ponente: " + ev.Speaker,
		"Tema: " + ev.Topic,
		"Organiza: " + ev.Organizer,
		"",
		"Unirse por Zoom: " + ev.JoinURL,
		"ID: " + ev.MeetingID,
		"Códigos: " + ev.Passcode1 + " / " + ev.Passcode2,
		"Más info: " + ev.InfoURL,
	}, `\n`)

	lines := []string{
		"BEGIN:VCALENDAR",
		"PRODID:" + ev.ProdID,
		"VERSION:2.0",
		"CALSCALE:GREGORIAN",
		"METHOD:PUBLISH",
		"BEGIN:VEVENT",
		"UID:nmrschool-" + stamp + "@" + ev.UIDDomain,
		"DTSTAMP:" + stamp,
		"DTSTART:" + ev.Start.UTC().Format(stampLayout),
		"DTEND:" + ev.End.UTC().Format(stampLayout),
		"SUMMARY:" + ev.Title,
		"LOCATION:" + ev.Location,
		"DESCRIPTION:" + desc,
		"URL:" + ev.JoinURL,
		"END:VEVENT",
		"END:VCALENDAR",
	}

	var sb strings.Builder
	for _, l := range lines {
		sb.WriteString(l)
		sb.WriteString(crlf)
	}
	return []byte(sb.String())
}
