package jobimport

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobmatch-engine/internal/export"
)

const templateHeader = "title,company,industry,location_city,location_state,salary_range,gender_requirement,min_age,max_age,min_experience_years,expire_by,url"

func TestParseCSVShuffledHeader(t *testing.T) {
	text := "URL, Title ,company,industry,location_state,location_city,salary_range,gender_requirement,min_age,max_age,min_experience_years,expire_by\r\n" +
		"https://jobs.example.my/1,Cashier,Mydin,Retail,Kuala Lumpur,Kuala Lumpur,\"RM1,500 - RM1,800\",any,18,45,0,2030-12-31\r\n"

	rows, err := ParseCSV(text, RequiredColumns)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Cashier", rows[0][ColTitle])
	assert.Equal(t, "https://jobs.example.my/1", rows[0][ColURL])
	assert.Equal(t, "RM1,500 - RM1,800", rows[0][ColSalaryRange])
	assert.Equal(t, "2030-12-31", rows[0][ColExpireBy])
	_, hasOptional := rows[0][ColExternalJobID]
	assert.False(t, hasOptional)
}

func TestParseCSVMissingColumns(t *testing.T) {
	text := "title,company\nCashier,Mydin\n"
	rows, err := ParseCSV(text, RequiredColumns)
	assert.Nil(t, rows)

	var he *HeaderError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, []string{
		"industry", "location_city", "location_state", "salary_range", "gender_requirement",
		"min_age", "max_age", "min_experience_years", "expire_by", "url",
	}, he.Missing)
	assert.True(t, strings.HasPrefix(err.Error(), "Missing required columns: industry, location_city"))
}

func TestParseCSVTooFewRows(t *testing.T) {
	_, err := ParseCSV(templateHeader+"\n\n   \n", RequiredColumns)
	assert.ErrorIs(t, err, ErrTooFewRows)

	_, err = ParseCSV("", RequiredColumns)
	assert.ErrorIs(t, err, ErrTooFewRows)
}

func TestParseCSVSkipsBlankLinesAndPadsShortRows(t *testing.T) {
	text := "\ufeff" + templateHeader + "\n\nPacker,ACME\n\n"
	rows, err := ParseCSV(text, RequiredColumns)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Packer", rows[0][ColTitle])
	assert.Equal(t, "ACME", rows[0][ColCompany])
	assert.Equal(t, "", rows[0][ColURL])
	assert.Len(t, rows[0], len(RequiredColumns))
}

func TestParseCSVOptionalColumns(t *testing.T) {
	text := templateHeader + ",external_job_id,location_postcode\n" +
		"Cook,,,,,,,,,,2030-01-01,,JOB-9,50450\n"
	rows, err := ParseCSV(text, RequiredColumns)
	require.NoError(t, err)
	assert.Equal(t, "JOB-9", rows[0][ColExternalJobID])
	assert.Equal(t, "50450", rows[0][ColLocationPostcode])
	_, hasAddress := rows[0][ColLocationAddress]
	assert.False(t, hasAddress)
}

func TestSplitFields(t *testing.T) {
	assert.Equal(t, []string{"a", "b,c", `say "hi"`, ""}, splitFields(`a,"b,c","say ""hi""",`))
	assert.Equal(t, []string{""}, splitFields(""))
}

func TestExportEscapingRoundTrips(t *testing.T) {
	fields := []string{"plain", "a, \"b\"\nc", `"quoted"`, "", "trailing,"}
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = export.EscapeField(f)
	}
	assert.Equal(t, fields, splitFields(strings.Join(escaped, ",")))
}

func TestQuotedNewlineStaysInRecord(t *testing.T) {
	var b strings.Builder
	require.NoError(t, export.WriteCSV(&b, RequiredColumns, [][]string{
		{"Cook", "Kedai \"Makan\"", "F&B", "Ipoh", "Perak", "RM1,800", "any", "", "", "", "2030-01-01", "line1\nline2"},
	}))

	rows, err := ParseCSV(b.String(), RequiredColumns)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, `Kedai "Makan"`, rows[0][ColCompany])
	assert.Equal(t, "line1\nline2", rows[0][ColURL])
}

func TestTemplateCSV(t *testing.T) {
	tpl := TemplateCSV()
	assert.Equal(t, templateHeader+"\n", tpl)
	assert.Len(t, strings.Split(strings.TrimSpace(tpl), ","), 12)
	assert.Equal(t, 1, strings.Count(tpl, "\n"))
}

func TestParseCSVStrayQuoteKeepsFollowingRows(t *testing.T) {
	text := templateHeader + "\n" +
		`TV 32" installer,A,B,Ipoh,Perak,RM2000,any,,,,2030-01-01,https://jobs.example.my/1` + "\n" +
		"Cashier,Mydin,Retail,Ipoh,Perak,RM1800,any,,,,2030-01-01,https://jobs.example.my/2\n" +
		"Packer,ACME,Logistics,Ipoh,Perak,RM1700,any,,,,2030-01-01,https://jobs.example.my/3\n"

	rows, err := ParseCSV(text, RequiredColumns)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, `TV 32" installer`, rows[0][ColTitle])
	assert.Equal(t, "A", rows[0][ColCompany])
	assert.Equal(t, "Cashier", rows[1][ColTitle])
	assert.Equal(t, "Packer", rows[2][ColTitle])
	assert.Equal(t, "https://jobs.example.my/3", rows[2][ColURL])
}

func TestSplitFieldsMidFieldQuoteIsLiteral(t *testing.T) {
	assert.Equal(t, []string{`5'6"`, "x,y", `a"b"c`}, splitFields(`5'6","x,y",a"b"c`))
	assert.Equal(t, []string{`say "hi"`, "z"}, splitFields(`"say ""hi""",z`))
}
