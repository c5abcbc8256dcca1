package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/wizard"
	"github.com/trezcool/tutordesk/services/backend"
	"github.com/trezcool/tutordesk/services/notify"
)

type (
	// Backend is the part of the tutoring backend the API reads and deletes through.
	Backend interface {
		Get(ctx context.Context, resource, id string) (wizard.Entity, error)
		Delete(ctx context.Context, resource, id string) error
		List(ctx context.Context, resource, owner string, page, limit int) (backend.List, error)
		InvalidateList(resource, owner string)
		AnswerQuery(ctx context.Context, id, answer string) (wizard.Entity, error)
	}

	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Controller *wizard.Controller
		Backend    Backend
		Hub        *notifysvc.Hub
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.BodyLimit(bodyLimit(conf.Wizard.MaxUploadSize)))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.Logger.SetLevel(log.INFO)

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(jwtConfig(conf.SecretKey, "header:"+echo.HeaderAuthorization))
	wsJwt := middleware.JWTWithConfig(jwtConfig(conf.SecretKey, "query:token")) // browsers cannot set websocket headers

	registerSessionAPI(v1, jwt, wsJwt, s.deps)
	registerCollectionAPI(v1, jwt, s.deps)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error {
	return s.errors
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Tutordesk API!")
}

// bodyLimit formats the upload limit for middleware.BodyLimit ("512M").
func bodyLimit(size int64) string {
	if size <= 0 {
		size = 512 << 20
	}
	mb := size >> 20
	if mb == 0 {
		mb = 1
	}
	return strconv.FormatInt(mb+1, 10) + "M" // room for the multipart envelope
}
