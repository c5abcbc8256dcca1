package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutordesk/core/questionbank"
	"github.com/trezcool/tutordesk/services/backend"
)

// collections the dashboard lists and deletes.
var collections = map[string]bool{
	"courses":      true,
	"live-classes": true,
	"webinars":     true,
	"live-tests":   true,
	"test-series":  true,
	"questions":    true,
	"posts":        true,
	"queries":      true,
}

// questionBankLimit is how many questions the bank filter looks at.
const questionBankLimit = 1000

type collectionApi struct {
	backend    Backend
	validate   *validator.Validate
	translator ut.Translator
}

func registerCollectionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := collectionApi{
		backend:    deps.Backend,
		validate:   deps.Validate,
		translator: deps.Translator,
	}

	ag := g.Group("", jwt, educatorMiddleware())
	ag.GET("/question-bank", api.questionBank)
	ag.POST("/queries/:id/answer", api.answer)

	cg := ag.Group("/collections/:resource", collectionMiddleware())
	cg.GET("", api.list)
	cg.DELETE("/:id", api.destroy)
}

func collectionMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if !collections[ctx.Param("resource")] {
				return errUnknownResource
			}
			return next(ctx)
		}
	}
}

// Handlers

func (api *collectionApi) list(ctx echo.Context) error {
	edu, err := getContextEducator(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context educator")
	}
	var page Pagination
	page.Bind(ctx)

	list, err := api.backend.List(educatorContext(ctx), ctx.Param("resource"), edu.ID, page.Page, page.Limit)
	if err != nil {
		return errors.Wrapf(err, "listing %s", ctx.Param("resource"))
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *collectionApi) destroy(ctx echo.Context) error {
	edu, err := getContextEducator(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context educator")
	}
	resource := ctx.Param("resource")
	if err := api.validate.Var(ctx.Param("id"), "objectid"); err != nil {
		return errHttpNotFound
	}
	if err := api.backend.Delete(educatorContext(ctx), resource, ctx.Param("id")); err != nil {
		return errors.Wrapf(err, "deleting %s", resource)
	}
	api.backend.InvalidateList(resource, edu.ID)
	return ctx.NoContent(http.StatusNoContent)
}

func (api *collectionApi) questionBank(ctx echo.Context) error {
	edu, err := getContextEducator(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context educator")
	}
	var filter questionbank.Filter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to questionbank.Filter")
	}

	list, err := api.backend.List(educatorContext(ctx), "questions", edu.ID, 1, questionBankLimit)
	if err != nil {
		return errors.Wrap(err, "listing questions")
	}
	questions := questionbank.Apply(questionbank.FromEntities(list.Items), filter)
	if questions == nil {
		questions = []questionbank.Question{}
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *collectionApi) answer(ctx echo.Context) error {
	edu, err := getContextEducator(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context educator")
	}
	var data AnswerRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnswerRequest")
	}
	data.clean()
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	if err := api.validate.Var(ctx.Param("id"), "objectid"); err != nil {
		return errHttpNotFound
	}

	query, err := api.backend.AnswerQuery(educatorContext(ctx), ctx.Param("id"), data.Answer)
	if err != nil {
		return errors.Wrap(err, "answering query")
	}
	api.backend.InvalidateList("queries", edu.ID)
	return ctx.JSON(http.StatusOK, query)
}

var _ Backend = (*backend.Client)(nil)
