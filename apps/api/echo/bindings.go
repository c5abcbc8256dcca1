package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

type Pagination struct {
	Page  int
	Limit int
}

// Bind reads `page` and `limit`; bad values fall back to the first page of defaultPageLimit items.
func (p *Pagination) Bind(ctx echo.Context) {
	p.Page, p.Limit = 1, defaultPageLimit
	if n, err := strconv.Atoi(ctx.QueryParam("page")); err == nil && n > 0 {
		p.Page = n
	}
	if n, err := strconv.Atoi(ctx.QueryParam("limit")); err == nil && n > 0 {
		p.Limit = n
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
}

type (
	OpenRequest struct {
		EntityID string `json:"entityId" validate:"omitempty,objectid"`
	}

	ToggleRequest struct {
		Field string `json:"field" validate:"required,notblank"`
		Value string `json:"value" validate:"required"`
	}

	AnswerRequest struct {
		Answer string `json:"answer" validate:"required,notblank"`
	}

	StepResponse struct {
		Errors  []string    `json:"errors"`
		Session interface{} `json:"session"`
	}

	SubmitResponse struct {
		Entity  interface{} `json:"entity"`
		Session interface{} `json:"session"`
	}
)

func (r *AnswerRequest) clean() {
	r.Answer = strings.TrimSpace(r.Answer)
}
