package wizard

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/educator"
)

// Session is one wizard dialog of an educator. All methods are safe for concurrent use.
type Session struct {
	id        string
	def       *Definition
	owner     educator.Educator
	validator *Validator
	notifier  Notifier
	outbox    outbox

	mu         sync.Mutex
	open       bool
	mode       Mode
	entityID   string
	fields     Fields
	nav        Navigator
	errors     []string
	submitting bool
	generation uint64 // bumped on open and close; stale pipeline results are dropped
	updatedAt  time.Time
}

// State is a snapshot of a session.
type State struct {
	ID         string                 `json:"id"`
	Kind       string                 `json:"kind"`
	Open       bool                   `json:"open"`
	Mode       Mode                   `json:"mode"`
	EntityID   string                 `json:"entityId,omitempty"`
	Step       int                    `json:"step"`
	StepID     string                 `json:"stepId"`
	Steps      []string               `json:"steps"`
	Terminal   bool                   `json:"terminal"`
	Fields     map[string]interface{} `json:"fields"`
	Pending    int                    `json:"pending"`
	Errors     []string               `json:"errors"`
	Submitting bool                   `json:"submitting"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

func NewSession(def *Definition, owner educator.Educator, validator *Validator, notifier Notifier) *Session {
	return &Session{
		id:        uuid.NewString(),
		def:       def,
		owner:     owner,
		validator: validator,
		notifier:  notifier,
		mode:      ModeCreate,
		fields:    def.Defaults(),
		nav:       NewNavigator(def.Steps),
		updatedAt: time.Now(),
	}
}

func (s *Session) ID() string                    { return s.id }
func (s *Session) Kind() string                  { return s.def.Kind }
func (s *Session) Definition() *Definition       { return s.def }
func (s *Session) Owner() educator.Educator      { return s.owner }
func (s *Session) Notifications() []Notification { return s.outbox.drain() }

// Ack marks the notification numbered seq as delivered; it is not handed out again.
func (s *Session) Ack(seq uint64) { s.outbox.ack(seq) }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	errs := s.errors
	if errs == nil {
		errs = []string{}
	}
	return State{
		ID:         s.id,
		Kind:       s.def.Kind,
		Open:       s.open,
		Mode:       s.mode,
		EntityID:   s.entityID,
		Step:       s.nav.Current(),
		StepID:     s.nav.Step().ID,
		Steps:      s.nav.StepIDs(),
		Terminal:   s.nav.IsTerminal(),
		Fields:     s.fields.View(),
		Pending:    s.fields.Pending(),
		Errors:     append([]string{}, errs...),
		Submitting: s.submitting,
		UpdatedAt:  s.updatedAt,
	}
}

// Fields returns a copy of the session fields.
func (s *Session) Fields() Fields {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fields.Clone()
}

// Open shows the dialog. A nil entity starts a create session, otherwise the fields are hydrated from entity.
func (s *Session) Open(entity Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open {
		return ErrAlreadyOpen
	}
	if entity == nil && s.def.EditOnly {
		return ErrEditOnly
	}

	s.reset()
	if entity != nil {
		s.mode = ModeEdit
		s.entityID = entity.ID()
		s.fields = s.def.Hydrate(entity)
	}
	s.open = true
	return nil
}

// Close hides the dialog, resets the fields and step and drops pending uploads. Closing twice is a no-op.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
}

// reset must be called with mu held.
func (s *Session) reset() {
	s.open = false
	s.mode = ModeCreate
	s.entityID = ""
	s.fields = s.def.Defaults()
	s.nav.Reset()
	s.errors = nil
	s.submitting = false
	s.generation++
	s.updatedAt = time.Now()
}

// editable must be called with mu held.
func (s *Session) editable() error {
	if !s.open {
		return ErrClosed
	}
	if s.submitting {
		return ErrSubmitting
	}
	return nil
}

// Update merges patch into the fields. Keys must belong to the wizard.
func (s *Session) Update(patch map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}

	defaults := s.def.Defaults()
	clean := make(map[string]interface{}, len(patch))
	var fldErrs []core.FieldError
	for key, value := range patch {
		def, known := defaults[key]
		if !known {
			fldErrs = append(fldErrs, core.FieldError{Field: key, Error: "unknown field"})
			continue
		}
		switch def.(type) {
		case []string:
			clean[key] = toStrings(normalize(value))
			continue
		case []interface{}:
			clean[key] = coerce(def, value)
			continue
		}
		if _, isFile := s.def.FileKind(key); isFile {
			if _, ok := value.(string); !ok && value != nil {
				fldErrs = append(fldErrs, core.FieldError{Field: key, Error: "expected a URL or an upload"})
				continue
			}
		}
		clean[key] = value
	}
	if len(fldErrs) > 0 {
		return core.NewValidationError(nil, fldErrs...)
	}

	s.fields.Update(clean)
	s.updatedAt = time.Now()
	return nil
}

// Toggle flips value in the set field.
func (s *Session) Toggle(field, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if _, ok := s.def.Defaults()[field].([]string); !ok {
		return core.NewValidationError(nil, core.FieldError{Field: field, Error: "not a selectable set"})
	}
	s.fields.Toggle(field, value)
	s.updatedAt = time.Now()
	return nil
}

// Attach puts a pending file in a file field. Image and video fields hold one file; asset lists append.
func (s *Session) Attach(field string, file *File) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if _, ok := s.def.FileKind(field); !ok {
		return core.NewValidationError(nil, core.FieldError{Field: field, Error: "does not accept files"})
	}
	if s.def.isAsset(field) {
		s.fields[field] = append(append([]interface{}{}, s.fields.List(field)...), file)
	} else {
		s.fields[field] = file
	}
	s.updatedAt = time.Now()
	return nil
}

// Detach removes the file (or URL) at index of an asset list, or clears a single file field.
func (s *Session) Detach(field string, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	if _, ok := s.def.FileKind(field); !ok {
		return core.NewValidationError(nil, core.FieldError{Field: field, Error: "does not accept files"})
	}
	if !s.def.isAsset(field) {
		s.fields[field] = nil
		return nil
	}
	items := s.fields.List(field)
	if index < 0 || index >= len(items) {
		return core.NewValidationError(nil, core.FieldError{Field: field, Error: "no such item"})
	}
	out := make([]interface{}, 0, len(items)-1)
	out = append(out, items[:index]...)
	s.fields[field] = append(out, items[index+1:]...)
	s.updatedAt = time.Now()
	return nil
}

// Next validates the current step and moves forward when it passes.
// Failures are returned, kept as the session errors and notified.
func (s *Session) Next() ([]core.FieldError, error) {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	errs := s.nav.Next(func(step Step) []core.FieldError {
		return s.validator.Validate(step, s.fields)
	})
	s.errors = messages(errs)
	s.updatedAt = time.Now()
	s.mu.Unlock()

	if len(errs) > 0 {
		s.notify(LevelError, errs[0].Error, false)
	}
	return errs, nil
}

// Back moves to the previous step without validating.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(); err != nil {
		return err
	}
	s.nav.Back()
	s.errors = nil
	s.updatedAt = time.Now()
	return nil
}

func (s *Session) notify(level Level, message string, secondary bool) {
	n := Notification{
		SessionID: s.id,
		Kind:      s.def.Kind,
		Level:     level,
		Message:   message,
		Secondary: secondary,
		At:        time.Now(),
		Owner:     s.owner,
	}
	n = s.outbox.push(n)
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}

func messages(errs []core.FieldError) []string {
	if len(errs) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error)
	}
	return msgs
}

// submission is the snapshot a pipeline works on.
type submission struct {
	generation uint64
	mode       Mode
	entityID   string
	fields     Fields
}

func (s *Session) beginSubmit() (*submission, error) {
	s.mu.Lock()
	if err := s.editable(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !s.nav.IsTerminal() {
		s.mu.Unlock()
		return nil, ErrNotTerminal
	}
	if errs := s.validator.ValidateAll(s.def.Steps, s.fields); len(errs) > 0 {
		s.errors = messages(errs)
		s.mu.Unlock()
		s.notify(LevelError, errs[0].Error, false)
		return nil, core.NewValidationError(nil, errs...)
	}

	s.submitting = true
	s.errors = nil
	sub := &submission{
		generation: s.generation,
		mode:       s.mode,
		entityID:   s.entityID,
		fields:     s.fields.Clone(),
	}
	s.mu.Unlock()
	return sub, nil
}

func (s *Session) endSubmit(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		s.submitting = false
	}
}

// alive reports whether the pipeline of generation gen may still touch the session.
func (s *Session) alive(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation == gen
}

// resolve replaces an uploaded file by its URL. index is ignored for single file fields.
func (s *Session) resolve(gen uint64, field string, index int, url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != gen {
		return false
	}
	if !s.def.isAsset(field) {
		s.fields[field] = url
		return true
	}
	items := append([]interface{}{}, s.fields.List(field)...)
	if index >= 0 && index < len(items) {
		items[index] = url
	}
	s.fields[field] = items
	return true
}

// fail keeps the session open on its step with msgs as errors, and notifies each message.
func (s *Session) fail(gen uint64, msgs []string) bool {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return false
	}
	s.errors = msgs
	s.updatedAt = time.Now()
	s.mu.Unlock()

	for _, msg := range msgs {
		s.notify(LevelError, msg, false)
	}
	return true
}

// complete resets and closes the session after a successful save.
func (s *Session) complete(gen uint64, message string) bool {
	s.mu.Lock()
	if s.generation != gen {
		s.mu.Unlock()
		return false
	}
	s.reset()
	s.mu.Unlock()

	s.notify(LevelSuccess, message, false)
	return true
}
