package models

import (
	"time"
)

// EventDefinition describes the single webinar registrants sign up for.
// It is process-wide configuration, not user data.
type EventDefinition struct {
	Title     string
	Start     time.Time // UTC
	End       time.Time // UTC
	JoinURL   string
	MeetingID string
	Passcode1 string
	Passcode2 string
	Speaker   string
	Topic     string
	Organizer string
	InfoURL   string
	Location  string
	DateText  string // human readable local date line used in the email body
	ProdID    string
	UIDDomain string
}

// DefaultEvent returns the NMR School decoupling webinar.
// 26 Nov 2025 10:00 America/Mexico_City = 16:00Z, one hour.
func DefaultEvent() EventDefinition {
	return EventDefinition{
		Title:     "WEBINAR — El Arte del Desacoplamiento en RMN (LatAm NMR School)",
		Start:     time.Date(2025, time.November, 26, 16, 0, 0, 0, time.UTC),
		End:       time.Date(2025, time.November, 26, 17, 0, 0, 0, time.UTC),
		JoinURL:   "https://redanahuac.zoom.us/j/86761915216",
		MeetingID: "867 6191 5216",
		Passcode1: "LtG3#x",
		Passcode2: "643917",
		Speaker:   "Dr. Adolfo Botana (JEOL)",
		Topic:     "El Arte del Desacoplamiento en Resonancia Magnética Nuclear",
		Organizer: "LatAm NMR School",
		InfoURL:   "www.nmrschool.com",
		Location:  "Zoom",
		DateText:  "Miércoles 26 de noviembre de 2025 · 10:00 AM (CDMX)",
		ProdID:    "-//LatAm NMR School//Webinar//ES",
		UIDDomain: "nmrschool.com",
	}
}
