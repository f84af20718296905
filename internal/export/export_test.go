package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"jobmatch-engine/internal/domain"
)

func TestEscapeField(t *testing.T) {
	assert.Equal(t, "plain", EscapeField("plain"))
	assert.Equal(t, " leading space", EscapeField(" leading space"))
	assert.Equal(t, `"a,b"`, EscapeField("a,b"))
	assert.Equal(t, `"say ""hi"""`, EscapeField(`say "hi"`))
	assert.Equal(t, "\"two\nlines\"", EscapeField("two\nlines"))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []string{"a", "b"}, [][]string{{"1", "x,y"}, {"2", ""}}))
	assert.Equal(t, "a,b\n1,\"x,y\"\n2,\n", buf.String())
}

func TestFilename(t *testing.T) {
	now := time.Date(2026, 10, 19, 8, 5, 9, 0, time.UTC)
	assert.Equal(t, "jobs_export_2026-10-19_080509.csv", Filename("jobs_export", "csv", now))
}

func TestWriteXLSX(t *testing.T) {
	company := "Mydin"
	jobs := []domain.Job{{ID: 7, Title: "Cashier", Company: &company, GenderRequirement: "any", MinAge: 18, MaxAge: 60, ExpireBy: "2030-01-01"}}

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "Jobs", JobHeader, JobRows(jobs)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Jobs")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "title", rows[0][2])
	assert.Equal(t, "Cashier", rows[1][2])
	assert.Equal(t, "Mydin", rows[1][3])
}

func TestModerationRows(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	rows := ModerationRows([]domain.ModerationEvent{{ID: 1, ApplicantID: "601", Action: "ban", Actor: "a", Detail: "7d", At: at}})
	assert.Equal(t, []string{"1", "601", "ban", "a", "7d", "2026-01-02T03:04:05Z"}, rows[0])
}
