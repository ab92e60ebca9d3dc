package calendar_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/nmrschool/webinar-backend/internal/calendar"
	"github.com/nmrschool/webinar-backend/internal/models"
)

func TestBuild_Layout(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.October, 1, 12, 30, 45, 999, time.FixedZone("CST", -6*3600))
	out := string(calendar.Build(models.DefaultEvent(), now))

	require.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n"))
	require.True(t, strings.HasSuffix(out, "END:VCALENDAR\r\n"))

	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	for _, l := range lines {
		assert.NotContains(t, l, "\n", "bare line feed inside %q", l)
	}

	assert.Contains(t, lines, "UID:nmrschool-20251001T183045Z@nmrschool.com")
	assert.Contains(t, lines, "DTSTAMP:20251001T183045Z")
	assert.Contains(t, lines, "DTSTART:20251126T160000Z")
	assert.Contains(t, lines, "DTEND:20251126T170000Z")
	assert.Contains(t, lines, "LOCATION:Zoom")
	assert.Contains(t, lines, "URL:https://redanahuac.zoom.us/j/86761915216")
	assert.Contains(t, out, `DESCRIPTION:Ponente: Dr. Adolfo Botana (JEOL)\nTema: `)
	assert.Contains(t, out, `\n\nUnirse por Zoom: https://redanahuac.zoom.us/j/86761915216\nID: 867 6191 5216\n`)
}

func TestBuilder_UsesClock(t *testing.T) {
	t.Parallel()

	b := calendar.NewBuilder(models.DefaultEvent())
	b.Now = func() time.Time { return time.Date(2030, time.January, 2, 3, 4, 5, 0, time.UTC) }

	assert.Contains(t, string(b.Build()), "DTSTAMP:20300102T030405Z\r\n")
}

func TestBuild_EventTimesIndependentOfClock(t *testing.T) {
	ev := models.DefaultEvent()
	rapid.Check(t, func(rt *rapid.T) {
		sec := rapid.Int64Range(0, 4102444800).Draw(rt, "unix")
		out := string(calendar.Build(ev, time.Unix(sec, 0)))

		if !strings.HasPrefix(out, "BEGIN:VCALENDAR\r\n") || !strings.HasSuffix(out, "END:VCALENDAR\r\n") {
			rt.Fatalf("missing structural markers")
		}
		if !strings.Contains(out, "\r\nDTSTART:20251126T160000Z\r\n") || !strings.Contains(out, "\r\nDTEND:20251126T170000Z\r\n") {
			rt.Fatalf("event times changed with clock %d", sec)
		}
	})
}
