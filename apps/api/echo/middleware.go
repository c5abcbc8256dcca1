package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// educatorMiddleware lets educators (and admins) through.
func educatorMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			edu, err := getContextEducator(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context educator")
			}
			if edu.ID == "" || !edu.IsEducator() {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}
