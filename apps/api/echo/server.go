package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/scaffold/core"
	"github.com/trezcool/scaffold/core/nav"
	"github.com/trezcool/scaffold/core/session"
	"github.com/trezcool/scaffold/core/user"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		UserSvc    *user.Service
		Codec      *session.Codec
		Menu       *nav.Menu
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		conf       *core.Config
		logger     core.Logger
		usrSvc     *user.Service
		codec      *session.Codec
		menu       *nav.Menu
		validate   *validator.Validate
		translator ut.Translator

		app      *echo.Echo
		sealer   cookieSealer
		routes   map[string]string
		errors   chan error
		shutdown chan os.Signal
	}
)

func NewServer(deps ServerDeps) (*Server, error) {
	sealer, err := newCookieSealer(deps.Conf)
	if err != nil {
		return nil, errors.Wrap(err, "creating cookie sealer")
	}

	s := &Server{
		conf:       deps.Conf,
		logger:     deps.Logger,
		usrSvc:     deps.UserSvc,
		codec:      deps.Codec,
		menu:       deps.Menu,
		validate:   deps.Validate,
		translator: deps.Translator,
		app:        echo.New(),
		sealer:     sealer,
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	if err = s.setup(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setup() error {
	renderer, err := newTemplateRenderer()
	if err != nil {
		return errors.Wrap(err, "parsing templates")
	}

	s.app.HideBanner = true
	s.app.Debug = s.conf.Debug
	s.app.Renderer = renderer
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s, s.signalShutdown)
	s.app.Logger.SetLevel(log.INFO)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !s.conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(s.sessionMiddleware, anonymousGuard)

	s.app.GET("/healthz", s.health)

	registerAuthRoutes(s)
	registerPages(s)
	registerAPI(s)

	s.routes = routeIndex(s.app.Routes())
	return nil
}

func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok", "build": s.conf.Build})
}
