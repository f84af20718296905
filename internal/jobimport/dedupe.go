package jobimport

import "strings"

// ExistingIDs is the set of external job identifiers already stored,
// fetched once per session.
type ExistingIDs map[string]struct{}

func NewExistingIDs(ids []string) ExistingIDs {
	set := make(ExistingIDs, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

func (s ExistingIDs) Has(id string) bool {
	if id == "" {
		return false
	}
	_, ok := s[id]
	return ok
}

// MarkExisting flags rows whose identifier is already stored. Matching is
// exact; rows without an identifier are never flagged.
func MarkExisting(rows []ParsedRow, existing ExistingIDs) int {
	n := 0
	for i := range rows {
		if existing.Has(rows[i].ExternalID()) {
			rows[i].IsExisting = true
			n++
		}
	}
	return n
}
