package registrations

import (
	"io"
	"strconv"
	"strings"

	"github.com/nmrschool/webinar-backend/internal/models"
)

// isoMillis matches the createdAt format of the JSON export.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// CSVHeader is the fixed first line of the export.
var CSVHeader = strings.Join(models.RegistrationFields, ",")

// WriteCSV writes the header and one line per record. Every value is quoted
// and embedded quotes are doubled; every line ends with "\n".
func WriteCSV(w io.Writer, records []models.Registration) error {
	var sb strings.Builder
	sb.WriteString(CSVHeader)
	sb.WriteByte('\n')
	for _, r := range records {
		values := []string{
			r.FirstName,
			r.LastName,
			r.OrgType,
			r.OrgName,
			r.Role,
			r.Email,
			r.Phone,
			strconv.FormatBool(r.MoreInfo),
			r.CreatedAt.UTC().Format(isoMillis),
		}
		for i, v := range values {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(quoteCSV(v))
		}
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func quoteCSV(v string) string {
	return `"` + strings.ReplaceAll(v, `"`, `""`) + `"`
}
