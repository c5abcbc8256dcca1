package wizard

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/educator"
)

// Backend is the remote API the pipeline talks to.
type Backend interface {
	UploadImage(ctx context.Context, file *File, folder string) (string, error)
	UploadPDF(ctx context.Context, file *File) (string, error)
	UploadIntroVideo(ctx context.Context, resource, entityID string, file *File) (string, error)
	// Save creates the entity when id is empty, updates it otherwise.
	Save(ctx context.Context, resource, id string, payload map[string]interface{}) (Entity, error)
}

// Store keeps sessions between requests.
type Store interface {
	Save(sess *Session) error
	Get(id string) (*Session, error) // returns ErrSessionNotFound
	Delete(id string) error
}

// FilePreparer checks and transforms files before they are attached.
type FilePreparer interface {
	Prepare(kind FileKind, file *File) (*File, error)
}

type Options struct {
	Backend         Backend
	Store           Store
	Validator       *Validator
	Notifier        Notifier
	Logger          core.Logger
	Preparer        FilePreparer
	FollowUpTimeout time.Duration

	// Persisted runs after every successful write to the backend,
	// including the ones whose session was closed meanwhile.
	Persisted func(resource string, owner educator.Educator, entity Entity)
}

// Controller runs wizard sessions for a set of definitions.
type Controller struct {
	defs            map[string]*Definition
	backend         Backend
	store           Store
	validator       *Validator
	notifier        Notifier
	logger          core.Logger
	preparer        FilePreparer
	followUpTimeout time.Duration
	persisted       func(resource string, owner educator.Educator, entity Entity)
	followUps       sync.WaitGroup
}

func NewController(opts Options, defs ...*Definition) *Controller {
	c := &Controller{
		defs:            make(map[string]*Definition, len(defs)),
		backend:         opts.Backend,
		store:           opts.Store,
		validator:       opts.Validator,
		notifier:        opts.Notifier,
		logger:          opts.Logger,
		preparer:        opts.Preparer,
		followUpTimeout: opts.FollowUpTimeout,
		persisted:       opts.Persisted,
	}
	if c.logger == nil {
		c.logger = nopLogger{}
	}
	if c.followUpTimeout <= 0 {
		c.followUpTimeout = 10 * time.Minute
	}
	for _, def := range defs {
		c.defs[def.Kind] = def
	}
	return c
}

func (c *Controller) Definition(kind string) (*Definition, bool) {
	def, ok := c.defs[kind]
	return def, ok
}

func (c *Controller) Kinds() []string {
	kinds := make([]string, 0, len(c.defs))
	for kind := range c.defs {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Open starts a new open session. A nil entity means create mode.
func (c *Controller) Open(kind string, owner educator.Educator, entity Entity) (*Session, error) {
	def, ok := c.defs[kind]
	if !ok {
		return nil, ErrUnknownKind
	}
	sess := NewSession(def, owner, c.validator, c.notifier)
	if err := sess.Open(entity); err != nil {
		return nil, err
	}
	if err := c.store.Save(sess); err != nil {
		return nil, errors.Wrap(err, "storing session")
	}
	return sess, nil
}

// Get returns the session id of owner.
func (c *Controller) Get(id string, owner educator.Educator) (*Session, error) {
	sess, err := c.store.Get(id)
	if err != nil {
		return nil, err
	}
	if sess.Owner().ID != owner.ID {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Reopen opens a closed session again.
func (c *Controller) Reopen(id string, owner educator.Educator, entity Entity) (*Session, error) {
	sess, err := c.Get(id, owner)
	if err != nil {
		return nil, err
	}
	if err := sess.Open(entity); err != nil {
		return nil, err
	}
	return sess, nil
}

// Close closes the session; results of an in-flight submission are dropped.
func (c *Controller) Close(id string, owner educator.Educator) (*Session, error) {
	sess, err := c.Get(id, owner)
	if err != nil {
		return nil, err
	}
	sess.Close()
	return sess, nil
}

// Discard closes the session and forgets it.
func (c *Controller) Discard(id string, owner educator.Educator) error {
	sess, err := c.Get(id, owner)
	if err != nil {
		return err
	}
	sess.Close()
	return c.store.Delete(id)
}

// Attach prepares file and puts it in field.
func (c *Controller) Attach(id string, owner educator.Educator, field string, file *File) (*Session, error) {
	sess, err := c.Get(id, owner)
	if err != nil {
		return nil, err
	}
	kind, ok := sess.Definition().FileKind(field)
	if !ok {
		return nil, core.NewValidationError(nil, core.FieldError{Field: field, Error: "does not accept files"})
	}
	if c.preparer != nil {
		if file, err = c.preparer.Prepare(kind, file); err != nil {
			return nil, err
		}
	}
	if err := sess.Attach(field, file); err != nil {
		return nil, err
	}
	return sess, nil
}

// Submit runs the submission pipeline of a session on its last step:
// image upload, PDF asset uploads in order, then one create/update call.
// Any failure before the save aborts it and leaves the session open.
// Every successful save reaches Options.Persisted.
// On success onSaved gets the saved entity once, the session is reset and closed,
// and the intro video (if any) is uploaded in the background.
// When the session is closed meanwhile, results are dropped and ErrDiscarded is returned.
func (c *Controller) Submit(ctx context.Context, id string, owner educator.Educator, onSaved func(Entity)) (Entity, error) {
	sess, err := c.Get(id, owner)
	if err != nil {
		return nil, err
	}
	sub, err := sess.beginSubmit()
	if err != nil {
		return nil, err
	}
	defer sess.endSubmit(sub.generation)

	def := sess.Definition()
	fields := sub.fields

	if file, ok := fields.File(def.Image); ok {
		url, err := c.backend.UploadImage(ctx, file, def.ImageFolder)
		if !sess.alive(sub.generation) {
			return nil, c.discarded(sess)
		}
		if err != nil {
			c.logger.Error(errors.Wrap(err, "uploading image").Error(), owner)
			sess.fail(sub.generation, []string{"Failed to upload image"})
			return nil, &UploadError{Field: def.Image, File: file.Name, Err: err}
		}
		fields[def.Image] = url
		sess.resolve(sub.generation, def.Image, -1, url)
	}

	for _, field := range def.Assets {
		items := fields.List(field)
		for i, item := range items {
			file, ok := item.(*File)
			if !ok {
				continue
			}
			url, err := c.backend.UploadPDF(ctx, file)
			if !sess.alive(sub.generation) {
				return nil, c.discarded(sess)
			}
			if err != nil {
				c.logger.Error(errors.Wrapf(err, "uploading %s", file.Name).Error(), owner)
				sess.fail(sub.generation, []string{fmt.Sprintf("Failed to upload %s", file.Name)})
				return nil, &UploadError{Field: field, File: file.Name, Err: err}
			}
			items[i] = url
			sess.resolve(sub.generation, field, i, url)
		}
		fields[field] = items
	}

	entity, err := c.backend.Save(ctx, def.Resource, sub.entityID, def.payload(fields, owner))
	if err == nil && c.persisted != nil {
		c.persisted(def.Resource, owner, entity)
	}
	if !sess.alive(sub.generation) {
		return nil, c.discarded(sess)
	}
	verb := "create"
	if sub.mode == ModeEdit {
		verb = "update"
	}
	if err != nil {
		c.logger.Error(errors.Wrapf(err, "%s %s", verb, def.Kind).Error(), owner)
		msgs := FailureMessages(err, fmt.Sprintf("Failed to %s %s", verb, def.Label))
		sess.fail(sub.generation, msgs)
		return nil, &SaveError{Messages: msgs, Err: err}
	}

	if onSaved != nil {
		onSaved(entity)
	}
	sess.complete(sub.generation, fmt.Sprintf("%s %sd successfully", capitalize(def.Label), verb))

	if video, ok := fields.File(def.Video); ok {
		c.uploadVideo(ctx, sess, def, entity.ID(), video)
	}
	return entity, nil
}

// uploadVideo uploads the intro video in the background. Failure only raises a warning.
// The upload keeps the values of ctx (auth) but outlives it.
func (c *Controller) uploadVideo(parent context.Context, sess *Session, def *Definition, entityID string, video *File) {
	if entityID == "" {
		c.logger.Warn("saved entity has no id, skipping intro video", def.Kind)
		sess.notify(LevelWarning, "Intro video could not be uploaded", true)
		return
	}
	c.followUps.Add(1)
	go func() {
		defer c.followUps.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), c.followUpTimeout)
		defer cancel()

		if _, err := c.backend.UploadIntroVideo(ctx, def.Resource, entityID, video); err != nil {
			c.logger.Warn(errors.Wrap(err, "uploading intro video").Error(), sess.Owner())
			sess.notify(LevelWarning, fmt.Sprintf("%s saved, but the intro video upload failed", capitalize(def.Label)), true)
			return
		}
		if c.persisted != nil {
			c.persisted(def.Resource, sess.Owner(), Entity{"_id": entityID})
		}
		sess.notify(LevelSuccess, "Intro video uploaded", true)
	}()
}

// Wait blocks until background follow-ups are done.
func (c *Controller) Wait() {
	c.followUps.Wait()
}

func (c *Controller) discarded(sess *Session) error {
	c.logger.Info("dropping submission result of closed session", sess.ID())
	return ErrDiscarded
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}
