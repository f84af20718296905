package jobimport

import "strings"

// Column names of the import file.
const (
	ColTitle              = "title"
	ColCompany            = "company"
	ColIndustry           = "industry"
	ColLocationCity       = "location_city"
	ColLocationState      = "location_state"
	ColSalaryRange        = "salary_range"
	ColGenderRequirement  = "gender_requirement"
	ColMinAge             = "min_age"
	ColMaxAge             = "max_age"
	ColMinExperienceYears = "min_experience_years"
	ColExpireBy           = "expire_by"
	ColURL                = "url"

	ColExternalJobID    = "external_job_id"
	ColLocationAddress  = "location_address"
	ColLocationPostcode = "location_postcode"
)

// RequiredColumns is also the column order of the download template.
var RequiredColumns = []string{
	ColTitle, ColCompany, ColIndustry, ColLocationCity, ColLocationState, ColSalaryRange,
	ColGenderRequirement, ColMinAge, ColMaxAge, ColMinExperienceYears, ColExpireBy, ColURL,
}

// OptionalColumns are carried into RawRow only when the header has them.
var OptionalColumns = []string{ColExternalJobID, ColLocationAddress, ColLocationPostcode}

// RawRow maps column name to the cell text exactly as it appeared in the file.
type RawRow map[string]string

// Value is the trimmed cell; "" for absent columns.
func (r RawRow) Value(col string) string {
	return strings.TrimSpace(r[col])
}

type ResolutionMethod string

const (
	ResolutionNone  ResolutionMethod = "none"
	ResolutionLocal ResolutionMethod = "local"
	ResolutionAI    ResolutionMethod = "ai"
)

func (m ResolutionMethod) rank() int {
	switch m {
	case ResolutionLocal:
		return 2
	case ResolutionAI:
		return 1
	default:
		return 0
	}
}

type ParsedRow struct {
	RowNumber        int              `json:"rowNumber"`
	Raw              RawRow           `json:"raw"`
	Latitude         *float64         `json:"latitude"`
	Longitude        *float64         `json:"longitude"`
	LocationResolved bool             `json:"locationResolved"`
	ResolutionMethod ResolutionMethod `json:"resolutionMethod"`
	IsExisting       bool             `json:"isExisting"`
	Imported         bool             `json:"imported"`
	Errors           []string         `json:"errors"`
}

func NewParsedRow(n int, raw RawRow) ParsedRow {
	return ParsedRow{RowNumber: n, Raw: raw, ResolutionMethod: ResolutionNone, Errors: []string{}}
}

// applyResolution records coordinates only when m outranks the row's current
// method, so a later stage never downgrades an earlier, better answer.
func (r *ParsedRow) applyResolution(m ResolutionMethod, lat, lng float64) bool {
	if m.rank() <= r.ResolutionMethod.rank() {
		return false
	}
	r.Latitude = &lat
	r.Longitude = &lng
	r.LocationResolved = true
	r.ResolutionMethod = m
	return true
}

func (r ParsedRow) HasErrors() bool { return len(r.Errors) > 0 }

// Importable rows are error-free, not already in the store and not yet
// written by this session.
func (r ParsedRow) Importable() bool { return !r.HasErrors() && !r.IsExisting && !r.Imported }

func (r ParsedRow) ExternalID() string { return r.Raw.Value(ColExternalJobID) }

func cloneRows(rows []ParsedRow) []ParsedRow {
	out := make([]ParsedRow, len(rows))
	copy(out, rows)
	return out
}
