package events

import (
	"encoding/json"
	"time"
)

// Event types pushed to /events.
const (
	TypePing           = "ping"
	TypeJobCreated     = "job_created"
	TypeJobDeleted     = "job_deleted"
	TypeJobsImported   = "jobs_imported"
	TypeAIProgress     = "import.ai_progress"
	TypeAIDone         = "import.ai_done"
	TypeImportProgress = "import.progress"
	TypeImportDone     = "import.done"
	TypeImportFailed   = "import.failed"
	TypeBanChanged     = "ban_changed"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
