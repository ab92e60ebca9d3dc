package registrations

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/nmrschool/webinar-backend/internal/models"
)

func TestWriteCSV_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "firstName,lastName,orgType,orgName,role,email,phone,moreInfo,createdAt\n", buf.String())
}

func TestWriteCSV_QuotesEverything(t *testing.T) {
	t.Parallel()

	records := []models.Registration{{
		FirstName: `Ana "la" María`,
		LastName:  "Ruiz, Jr.",
		Email:     "ana@example.com",
		MoreInfo:  true,
		CreatedAt: time.Date(2025, time.October, 1, 10, 0, 0, 123_000_000, time.UTC),
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, `"Ana ""la"" María","Ruiz, Jr.","","","","ana@example.com","","true","2025-10-01T10:00:00.123Z"`, lines[1])

	parsed, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, `Ana "la" María`, parsed[1][0])
	assert.Equal(t, "Ruiz, Jr.", parsed[1][1])
}

func TestWriteCSV_LineCountAndQuoteDoubling(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		field := rapid.StringMatching(`[^\r\n]{0,16}`)
		n := rapid.IntRange(0, 20).Draw(rt, "n")
		records := make([]models.Registration, n)
		for i := range records {
			records[i] = models.Registration{
				FirstName: field.Draw(rt, "first"),
				LastName:  field.Draw(rt, "last"),
				OrgName:   field.Draw(rt, "org"),
				Email:     field.Draw(rt, "email"),
				CreatedAt: time.Unix(int64(i), 0),
			}
		}

		var buf bytes.Buffer
		if err := WriteCSV(&buf, records); err != nil {
			rt.Fatalf("write: %v", err)
		}
		out := buf.String()
		if got := strings.Count(out, "\n"); got != n+1 {
			rt.Fatalf("got %d lines, want %d", got, n+1)
		}
		lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
		for i, r := range records {
			want := `"` + strings.ReplaceAll(r.FirstName, `"`, `""`) + `",`
			if !strings.HasPrefix(lines[i+1], want) {
				rt.Fatalf("line %d = %q, want prefix %q", i+1, lines[i+1], want)
			}
		}
	})
}
