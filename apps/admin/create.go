package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/educator"
	"github.com/trezcool/tutordesk/core/forms"
	"github.com/trezcool/tutordesk/core/wizard"
	"github.com/trezcool/tutordesk/services/media"
	"github.com/trezcool/tutordesk/storage/inmem"
)

// fixture describes a wizard run:
//
//	kind: webinar
//	educator: {id: 5f1d7c3e2a9b4c0012345678, name: Jane}
//	entityId: ""              # set to edit an existing entity
//	fields:
//	  title: Go 101
//	  startTime: "2026-11-01T10:00"
//	  duration: 90
//	files:
//	  - {field: image, path: cover.png}
type fixture struct {
	Kind     string                 `yaml:"kind"`
	Educator educator.Educator      `yaml:"educator"`
	EntityID string                 `yaml:"entityId"`
	Fields   map[string]interface{} `yaml:"fields"`
	Files    []fixtureFile          `yaml:"files"`

	dir string
}

type fixtureFile struct {
	Field string `yaml:"field"`
	Path  string `yaml:"path"` // relative to the fixture
}

func loadFixture(path string) (*fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading fixture")
	}
	fx := new(fixture)
	if err := yaml.Unmarshal(data, fx); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if fx.Kind == "" {
		return nil, errors.Errorf("%s: kind is required", path)
	}
	if fx.Educator.ID == "" {
		return nil, errors.Errorf("%s: educator.id is required", path)
	}
	for key, value := range fx.Fields {
		fx.Fields[key] = plainYAML(value)
	}
	fx.dir = filepath.Dir(path)
	return fx, nil
}

// plainYAML turns the yaml timestamps back into the strings the forms expect.
func plainYAML(value interface{}) interface{} {
	switch v := value.(type) {
	case time.Time:
		if v.Hour() == 0 && v.Minute() == 0 && v.Second() == 0 {
			return v.Format("2006-01-02")
		}
		return v.Format(time.RFC3339)
	case []interface{}:
		for i := range v {
			v[i] = plainYAML(v[i])
		}
	}
	return value
}

// create runs the wizard of fx the way the dashboard does: one step at a time, then submit.
func (cli *commandLine) create(ctx context.Context, fx *fixture) error {
	validate, translator := core.NewValidator()
	ctrl := wizard.NewController(
		wizard.Options{
			Backend:         cli.backend,
			Store:           inmem.NewSessionStore(time.Hour),
			Validator:       wizard.NewValidator(validate, translator),
			Logger:          cli.logger,
			Preparer:        mediasvc.NewPreparer(cli.conf.Wizard),
			FollowUpTimeout: cli.conf.Wizard.FollowUpTimeout,
		},
		forms.All()...,
	)
	defer ctrl.Wait()

	def, ok := ctrl.Definition(fx.Kind)
	if !ok {
		return errors.Wrap(wizard.ErrUnknownKind, fx.Kind)
	}
	var err error
	var entity wizard.Entity
	if fx.EntityID != "" {
		if entity, err = cli.backend.Get(ctx, def.Resource, fx.EntityID); err != nil {
			return errors.Wrapf(err, "loading %s %s", def.Resource, fx.EntityID)
		}
	}
	sess, err := ctrl.Open(def.Kind, fx.Educator, entity)
	if err != nil {
		return errors.Wrap(err, "opening wizard")
	}
	if err := sess.Update(fx.Fields); err != nil {
		return errors.Wrap(err, "filling fields")
	}
	for _, f := range fx.Files {
		path := f.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(fx.dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "reading %s", f.Path)
		}
		file := &wizard.File{Name: filepath.Base(path), Data: data}
		if _, err := ctrl.Attach(sess.ID(), fx.Educator, f.Field, file); err != nil {
			return errors.Wrapf(err, "attaching %s", f.Path)
		}
	}

	for !sess.State().Terminal {
		step := sess.State().StepID
		errs, err := sess.Next()
		if err != nil {
			return err
		}
		if len(errs) > 0 {
			return core.NewValidationError(nil, errs...)
		}
		fmt.Fprintf(cli.out, "step %q ok\n", step)
	}

	saved, err := ctrl.Submit(ctx, sess.ID(), fx.Educator, nil)
	ctrl.Wait()
	for _, n := range sess.Notifications() {
		fmt.Fprintf(cli.out, "[%s] %s\n", n.Level, n.Message)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s %s\n", def.Resource, saved.ID())
	return nil
}
