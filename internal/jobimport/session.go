package jobimport

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"jobmatch-engine/internal/domain"
)

type State string

const (
	StateIdle         State = "idle"
	StateFileSelected State = "file_selected"
	StateHeaderError  State = "header_error"
	StateParsed       State = "parsed"
	StateAIResolving  State = "ai_resolving"
	StateImporting    State = "importing"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

func (s State) Busy() bool { return s == StateAIResolving || s == StateImporting }

var (
	ErrSessionBusy     = errors.New("import session is busy")
	ErrSessionNotFound = errors.New("import session not found")
	ErrNothingParsed   = errors.New("no parsed file in this session")
)

// Source supplies the per-session reference data.
type Source interface {
	ListLocations(ctx context.Context) ([]domain.MalaysiaLocation, error)
	ExistingExternalIDs(ctx context.Context) ([]string, error)
}

// Session holds one operator's file from upload to commit. AI resolution
// and import are mutually exclusive; each works on a private copy of the
// rows and publishes it back when it finishes.
type Session struct {
	mu        sync.Mutex
	id        string
	state     State
	fileName  string
	rows      []ParsedRow
	errMsg    string
	gazetteer *Gazetteer
	existing  ExistingIDs
	ai        *AIResult
	result    *ImportResult
	createdAt time.Time
	touched   time.Time
	closed    bool
	now       func() time.Time
}

type Snapshot struct {
	ID        string        `json:"id"`
	State     State         `json:"state"`
	FileName  string        `json:"fileName,omitempty"`
	Error     string        `json:"error,omitempty"`
	Summary   Summary       `json:"summary"`
	Rows      []ParsedRow   `json:"rows"`
	AI        *AIResult     `json:"ai,omitempty"`
	Import    *ImportResult `json:"import,omitempty"`
	Locations int           `json:"gazetteerSize"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

func newSession(g *Gazetteer, existing ExistingIDs, now func() time.Time) *Session {
	t := now()
	return &Session{
		id:        uuid.NewString(),
		state:     StateIdle,
		gazetteer: g,
		existing:  existing,
		createdAt: t,
		touched:   t,
		now:       now,
		rows:      []ParsedRow{},
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		ID:        s.id,
		State:     s.state,
		FileName:  s.fileName,
		Error:     s.errMsg,
		Summary:   Summarize(s.rows),
		Rows:      cloneRows(s.rows),
		AI:        s.ai,
		Import:    s.result,
		Locations: s.gazetteer.Len(),
		CreatedAt: s.createdAt,
		UpdatedAt: s.touched,
	}
}

// SelectFile replaces whatever file the session held and runs the
// synchronous stages over it.
func (s *Session) SelectFile(name, text string) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Summary{}, ErrSessionNotFound
	}
	if s.state.Busy() {
		return Summary{}, ErrSessionBusy
	}
	s.state = StateFileSelected
	s.fileName = name
	s.ai, s.result, s.errMsg = nil, nil, ""
	s.touched = s.now()

	rows, err := Process(text, s.gazetteer, s.existing)
	if err != nil {
		s.state = StateHeaderError
		s.rows = []ParsedRow{}
		s.errMsg = err.Error()
		return Summary{}, err
	}
	s.rows = rows
	s.state = StateParsed
	return Summarize(rows), nil
}

func (s *Session) begin(next State) ([]ParsedRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionNotFound
	}
	if s.state.Busy() {
		return nil, ErrSessionBusy
	}
	if s.state != StateParsed && s.state != StateFailed {
		return nil, ErrNothingParsed
	}
	s.state = next
	s.touched = s.now()
	return cloneRows(s.rows), nil
}

// ResolveAI runs the AI stage to completion and returns to Parsed.
func (s *Session) ResolveAI(ctx context.Context, r *AIResolver, onProgress func(Progress)) (AIResult, error) {
	run, err := s.StartAI(r)
	if err != nil {
		return AIResult{}, err
	}
	return run(ctx, onProgress), nil
}

// StartAI claims the session for the AI stage and returns the run that
// finishes it. Callers that answer before the work is done use this to
// report busy sessions synchronously. The run must be called exactly once.
func (s *Session) StartAI(r *AIResolver) (func(context.Context, func(Progress)) AIResult, error) {
	rows, err := s.begin(StateAIResolving)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, onProgress func(Progress)) AIResult {
		res := r.Resolve(ctx, rows, onProgress)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.rows = rows
		s.ai = &res
		s.state = StateParsed
		s.touched = s.now()
		return res
	}, nil
}

// Commit imports the importable rows. Rows written before a failure are
// marked so a retry from Failed only sends the remainder.
func (s *Session) Commit(ctx context.Context, im *Importer, actor string, onProgress func(Progress)) (ImportResult, error) {
	run, err := s.StartCommit(im, actor)
	if err != nil {
		return ImportResult{}, err
	}
	return run(ctx, onProgress)
}

// StartCommit is the two-step form of Commit.
func (s *Session) StartCommit(im *Importer, actor string) (func(context.Context, func(Progress)) (ImportResult, error), error) {
	rows, err := s.begin(StateImporting)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context, onProgress func(Progress)) (ImportResult, error) {
		res, err := im.Import(ctx, rows, actor, onProgress)

		marked := 0
		for i := range rows {
			if marked >= res.Inserted {
				break
			}
			if rows[i].Importable() {
				rows[i].Imported = true
				marked++
				if id := rows[i].ExternalID(); id != "" {
					s.addExisting(id)
				}
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		s.rows = rows
		s.result = &res
		s.touched = s.now()
		switch {
		case errors.Is(err, ErrNoValidRows):
			s.state = StateParsed
			s.errMsg = err.Error()
		case err != nil:
			s.state = StateFailed
			s.errMsg = err.Error()
		default:
			s.state = StateDone
			s.errMsg = ""
		}
		return res, err
	}, nil
}

func (s *Session) addExisting(id string) {
	s.mu.Lock()
	s.existing[id] = struct{}{}
	s.mu.Unlock()
}

// closeIfIdle marks the session closed unless a stage is running. Once
// closed, no stage can start on it.
func (s *Session) closeIfIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Busy() {
		return false
	}
	s.closed = true
	return true
}

// closeIfIdleSince is closeIfIdle restricted to sessions untouched since t.
func (s *Session) closeIfIdleSince(t time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Busy() || !s.touched.Before(t) {
		return false
	}
	s.closed = true
	return true
}

// Sessions owns every open import session.
type Sessions struct {
	mu  sync.Mutex
	m   map[string]*Session
	src Source
	Now func() time.Time
}

func NewSessions(src Source) *Sessions {
	return &Sessions{m: make(map[string]*Session), src: src, Now: time.Now}
}

// Open fetches the gazetteer and the stored identifiers concurrently and
// starts an Idle session over them.
func (m *Sessions) Open(ctx context.Context) (*Session, error) {
	var locs []domain.MalaysiaLocation
	var ids []string

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		locs, err = m.src.ListLocations(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ids, err = m.src.ExistingExternalIDs(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := newSession(NewGazetteer(locs), NewExistingIDs(ids), m.Now)
	m.mu.Lock()
	m.m[s.id] = s
	m.mu.Unlock()
	return s, nil
}

func (m *Sessions) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.m[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Sessions) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.m[id]
	if !ok {
		return ErrSessionNotFound
	}
	if !s.closeIfIdle() {
		return ErrSessionBusy
	}
	delete(m.m, id)
	return nil
}

// Sweep drops sessions untouched for longer than ttl. Busy ones are kept.
func (m *Sessions) Sweep(ttl time.Duration) int {
	cutoff := m.Now().Add(-ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.m {
		if s.closeIfIdleSince(cutoff) {
			delete(m.m, id)
			n++
		}
	}
	return n
}

func (m *Sessions) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.m)
}
