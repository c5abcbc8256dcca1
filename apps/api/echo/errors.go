package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/educator"
	"github.com/trezcool/tutordesk/core/wizard"
	"github.com/trezcool/tutordesk/services/backend"
)

var (
	errUnauthorized     = echo.NewHTTPError(http.StatusUnauthorized, "educator not authenticated")
	errHttpForbidden    = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound     = echo.NewHTTPError(http.StatusNotFound, "not found")
	errUnknownResource  = echo.NewHTTPError(http.StatusNotFound, "unknown collection")
	errFileMissing      = echo.NewHTTPError(http.StatusBadRequest, "file is required")
	errBadIndex         = echo.NewHTTPError(http.StatusBadRequest, "index must be a number")
	errWebsocketUpgrade = echo.NewHTTPError(http.StatusBadRequest, "websocket upgrade failed")
)

// wizardErrors maps the wizard sentinel errors to their HTTP status.
var wizardErrors = []struct {
	err  error
	code int
}{
	{wizard.ErrUnknownKind, http.StatusNotFound},
	{wizard.ErrSessionNotFound, http.StatusNotFound},
	{wizard.ErrAlreadyOpen, http.StatusConflict},
	{wizard.ErrSubmitting, http.StatusConflict},
	{wizard.ErrDiscarded, http.StatusConflict},
	{wizard.ErrClosed, http.StatusGone},
	{wizard.ErrEditOnly, http.StatusBadRequest},
	{wizard.ErrNotTerminal, http.StatusBadRequest},
}

func wizardErrorCode(err error) (int, bool) {
	for _, we := range wizardErrors {
		if errors.Is(err, we.err) {
			return we.code, true
		}
	}
	return 0, false
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		var (
			uploadErr *wizard.UploadError
			saveErr   *wizard.SaveError
			apiErr    *backend.APIError
			circuit   *backend.CircuitOpenError
		)
		origErr := errors.Cause(err)
		wizCode, isWizErr := wizardErrorCode(err)

		switch {
		case isWizErr:
			code = wizCode
			message = origErr.Error()
		case errors.As(err, &uploadErr), errors.As(err, &saveErr):
			// the session already got its notifications
			code = http.StatusBadGateway
			if errors.As(err, &apiErr) && apiErr.Status < http.StatusInternalServerError {
				code = http.StatusUnprocessableEntity
			} else if errors.As(err, &circuit) {
				code = http.StatusServiceUnavailable
			}
			message = echo.Map{"errors": wizard.FailureMessages(err, err.Error())}
		case errors.As(err, &circuit):
			code = http.StatusServiceUnavailable
			message = echo.Map{"errors": circuit.UserMessages()}
		case errors.As(err, &apiErr):
			code = http.StatusBadGateway
			if apiErr.Status == http.StatusNotFound {
				code = http.StatusNotFound
			}
			msgs := apiErr.UserMessages()
			if len(msgs) == 0 {
				msgs = []string{http.StatusText(apiErr.Status)}
			}
			message = echo.Map{"errors": msgs}
		default:
			switch origErr := origErr.(type) {
			case *echo.HTTPError:
				if origErr == middleware.ErrJWTMissing {
					code = http.StatusUnauthorized
					message = origErr.Message
					break
				}
				if origErr.Internal != nil {
					if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
						origErr = herr
					}
				}
				code = origErr.Code
				message = origErr.Message
			case validator.ValidationErrors:
				fldErrs := make(map[string]string, len(origErr))
				for _, vErr := range origErr {
					fldErrs[vErr.Field()] = vErr.Translate(translator)
				}
				code = http.StatusBadRequest
				message = fldErrs
			case *core.ValidationError:
				if origErr.Fields != nil {
					fldErrs := make(map[string]string, len(origErr.Fields))
					for _, fErr := range origErr.Fields {
						fldErrs[fErr.Field] = fErr.Error
					}
					message = fldErrs
				} else {
					message = origErr.Error()
				}
				code = http.StatusBadRequest
			default: // any other error is a server error
				code = http.StatusInternalServerError
				msg := http.StatusText(http.StatusInternalServerError)
				message = msg

				var edu educator.Educator
				if _, claims, cErr := getContextToken(ctx); cErr == nil {
					edu = claims.Educator()
				}
				logger.Error(msg, errors.Wrap(err, msg), edu)

				// shutting down...
				if core.IsShutdown(err) {
					signalShutdown()
				}
			}
		}

		if ctx.Echo().Debug && code == http.StatusInternalServerError {
			message = err.Error()
		}
		if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
