package echoapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/wizard"
	"github.com/trezcool/tutordesk/services/backend"
	"github.com/trezcool/tutordesk/services/notify"
)

type sessionApi struct {
	ctrl       *wizard.Controller
	backend    Backend
	hub        *notifysvc.Hub
	logger     core.Logger
	validate   *validator.Validate
	translator ut.Translator
}

func registerSessionAPI(g *echo.Group, jwt, wsJwt echo.MiddlewareFunc, deps ServerDeps) {
	api := sessionApi{
		ctrl:       deps.Controller,
		backend:    deps.Backend,
		hub:        deps.Hub,
		logger:     deps.Logger,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	g.GET("/wizards", api.kinds, jwt, educatorMiddleware())
	g.POST("/wizards/:kind/sessions", api.open, jwt, educatorMiddleware())

	// the events stream authenticates with a query token
	g.GET("/sessions/:id/events", api.events, wsJwt, educatorMiddleware())

	sg := g.Group("/sessions/:id", jwt, educatorMiddleware())
	sg.GET("", api.retrieve)
	sg.DELETE("", api.discard)
	sg.PATCH("/fields", api.update)
	sg.POST("/toggle", api.toggle)
	sg.POST("/files/:field", api.attach)
	sg.DELETE("/files/:field/:index", api.detach)
	sg.POST("/next", api.next)
	sg.POST("/back", api.back)
	sg.POST("/submit", api.submit)
	sg.POST("/close", api.close)
	sg.POST("/reopen", api.reopen)
	sg.GET("/notifications", api.notifications)
}

// Handlers

func (api *sessionApi) kinds(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.ctrl.Kinds())
}

func (api *sessionApi) open(ctx echo.Context) error {
	edu, err := getContextEducator(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context educator")
	}
	def, ok := api.ctrl.Definition(ctx.Param("kind"))
	if !ok {
		return wizard.ErrUnknownKind
	}
	entity, err := api.entity(ctx, def)
	if err != nil {
		return err
	}

	sess, err := api.ctrl.Open(def.Kind, edu, entity)
	if err != nil {
		return errors.Wrap(err, "opening session")
	}
	return ctx.JSON(http.StatusCreated, sess.State())
}

// entity loads the entity to edit, if any. The profile wizard always edits the educator.
func (api *sessionApi) entity(ctx echo.Context, def *wizard.Definition) (wizard.Entity, error) {
	var data OpenRequest
	if err := ctx.Bind(&data); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "binding to OpenRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return nil, err
	}
	if def.EditOnly && data.EntityID == "" {
		edu, err := getContextEducator(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "getting context educator")
		}
		data.EntityID = edu.ID
	}
	if data.EntityID == "" {
		return nil, nil
	}
	entity, err := api.backend.Get(api.backendCtx(ctx), def.Resource, data.EntityID)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s %s", def.Resource, data.EntityID)
	}
	return entity, nil
}

func (api *sessionApi) session(ctx echo.Context) (*wizard.Session, error) {
	edu, err := getContextEducator(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting context educator")
	}
	return api.ctrl.Get(ctx.Param("id"), edu)
}

func (api *sessionApi) retrieve(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.State())
}

func (api *sessionApi) discard(ctx echo.Context) error {
	edu, err := getContextEducator(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context educator")
	}
	if err := api.ctrl.Discard(ctx.Param("id"), edu); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *sessionApi) update(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	// decoded by hand: echo would bind the path params into the map
	patch := make(map[string]interface{})
	dec := json.NewDecoder(ctx.Request().Body)
	dec.UseNumber()
	if err := dec.Decode(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "fields must be a JSON object").SetInternal(err)
	}
	if err := sess.Update(patch); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.State())
}

func (api *sessionApi) toggle(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	var data ToggleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ToggleRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	if err := sess.Toggle(data.Field, data.Value); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.State())
}

func (api *sessionApi) attach(ctx echo.Context) error {
	edu, err := getContextEducator(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context educator")
	}
	fh, err := ctx.FormFile("file")
	if err != nil {
		return errFileMissing
	}
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return errors.Wrap(err, "reading uploaded file")
	}

	file := &wizard.File{Name: fh.Filename, ContentType: fh.Header.Get(echo.HeaderContentType), Data: data}
	sess, err := api.ctrl.Attach(ctx.Param("id"), edu, ctx.Param("field"), file)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.State())
}

func (api *sessionApi) detach(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		return errBadIndex
	}
	if err := sess.Detach(ctx.Param("field"), index); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.State())
}

// next answers 200 either way; a refused move carries its errors.
func (api *sessionApi) next(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	fldErrs, err := sess.Next()
	if err != nil {
		return err
	}
	msgs := make([]string, 0, len(fldErrs))
	for _, fe := range fldErrs {
		msgs = append(msgs, fe.Error)
	}
	return ctx.JSON(http.StatusOK, StepResponse{Errors: msgs, Session: sess.State()})
}

func (api *sessionApi) back(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	if err := sess.Back(); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.State())
}

func (api *sessionApi) submit(ctx echo.Context) error {
	edu, err := getContextEducator(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context educator")
	}
	sess, err := api.ctrl.Get(ctx.Param("id"), edu)
	if err != nil {
		return err
	}
	// the owner's list cache is dropped by the controller's Persisted hook
	entity, err := api.ctrl.Submit(api.backendCtx(ctx), sess.ID(), edu, nil)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SubmitResponse{Entity: entity, Session: sess.State()})
}

func (api *sessionApi) close(ctx echo.Context) error {
	edu, err := getContextEducator(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context educator")
	}
	sess, err := api.ctrl.Close(ctx.Param("id"), edu)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.State())
}

func (api *sessionApi) reopen(ctx echo.Context) error {
	edu, err := getContextEducator(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context educator")
	}
	sess, err := api.ctrl.Get(ctx.Param("id"), edu)
	if err != nil {
		return err
	}
	entity, err := api.entity(ctx, sess.Definition())
	if err != nil {
		return err
	}
	if _, err := api.ctrl.Reopen(sess.ID(), edu, entity); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sess.State())
}

func (api *sessionApi) notifications(ctx echo.Context) error {
	sess, err := api.session(ctx)
	if err != nil {
		return err
	}
	notifs := sess.Notifications()
	if notifs == nil {
		notifs = []wizard.Notification{}
	}
	return ctx.JSON(http.StatusOK, notifs)
}

// backendCtx forwards the educator token to the backend.
func (api *sessionApi) backendCtx(ctx echo.Context) context.Context {
	return educatorContext(ctx)
}

func educatorContext(ctx echo.Context) context.Context {
	c := ctx.Request().Context()
	if token, _, err := getContextToken(ctx); err == nil {
		c = backend.WithToken(c, token.Raw)
	}
	return c
}
