package jobimport

import "jobmatch-engine/internal/metrics"

// Process runs parse, validate, duplicate detection and local location
// resolution over one file.
func Process(text string, g *Gazetteer, existing ExistingIDs) ([]ParsedRow, error) {
	raws, err := ParseCSV(text, RequiredColumns)
	if err != nil {
		return nil, err
	}
	rows := make([]ParsedRow, 0, len(raws))
	for i, raw := range raws {
		r := NewParsedRow(i+1, raw)
		r.Errors = ValidateRow(raw)
		rows = append(rows, r)
	}
	MarkExisting(rows, existing)
	ResolveLocal(rows, g)
	metrics.ImportRowsParsed.Add(float64(len(rows)))
	return rows, nil
}

type Summary struct {
	Total           int `json:"total"`
	NewCount        int `json:"newCount"`
	ExistingCount   int `json:"existingCount"`
	ErrorCount      int `json:"errorCount"`
	ResolvedCount   int `json:"resolvedCount"`
	UnresolvedCount int `json:"unresolvedCount"`
	ReadyCount      int `json:"readyCount"`
	ImportedCount   int `json:"importedCount"`
}

func Summarize(rows []ParsedRow) Summary {
	s := Summary{Total: len(rows)}
	for _, r := range rows {
		if r.IsExisting {
			s.ExistingCount++
			continue
		}
		s.NewCount++
		if r.HasErrors() {
			s.ErrorCount++
			continue
		}
		if r.Imported {
			s.ImportedCount++
			continue
		}
		s.ReadyCount++
		if r.LocationResolved {
			s.ResolvedCount++
		} else {
			s.UnresolvedCount++
		}
	}
	return s
}
