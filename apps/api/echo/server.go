package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/audit"
	"github.com/tasmiapp/tasmi/core/examiner"
	"github.com/tasmiapp/tasmi/core/setoran"
	"github.com/tasmiapp/tasmi/core/student"
	"github.com/tasmiapp/tasmi/core/subscription"
	"github.com/tasmiapp/tasmi/core/user"
)

type (
	ServerDeps struct {
		Conf            *core.Config
		Logger          core.Logger
		UserSvc         user.ServiceInterface
		StudentSvc      *student.Service
		ExaminerSvc     *examiner.Service
		SetoranSvc      *setoran.Service
		SubscriptionSvc *subscription.Service
		AuditSvc        *audit.Service
		Validate        *validator.Validate
		Translator      ut.Translator
		DisableReqLogs  bool
	}

	Server interface {
		http.Handler
		Start()
		Shutdown(context.Context) error
		Close() error
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
	}

	server struct {
		deps       ServerDeps
		app        *echo.Echo
		errs       chan error
		shutdownCh chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	initAuth(deps.Conf)

	s := &server{
		deps:       deps,
		app:        echo.New(),
		errs:       make(chan error, 1),
		shutdownCh: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerUserAPI(v1, jwt, s.deps.UserSvc, s.deps.SubscriptionSvc, s.deps.Validate, s.deps.Translator)
	registerPricingAPI(v1, s.deps.SubscriptionSvc)
	registerStudentAPI(v1, jwt, s.deps.StudentSvc, s.deps.Validate)
	registerExaminerAPI(v1, jwt, s.deps.ExaminerSvc, s.deps.Validate)
	registerSetoranAPI(v1, jwt, s.deps.SetoranSvc, s.deps.Validate)
	registerSubscriptionAPI(v1, jwt, s.deps.SubscriptionSvc, s.deps.Validate)
	registerAdminAPI(v1, jwt, s.deps.UserSvc, s.deps.SubscriptionSvc, s.deps.AuditSvc, s.deps.Validate)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) Errors() <-chan error {
	return s.errs
}

func (s *server) ShutdownSignal() <-chan os.Signal {
	return s.shutdownCh
}

// signalShutdown requests a graceful shutdown on an unrecoverable error.
func (s *server) signalShutdown() {
	s.shutdownCh <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Tasmi API!")
}
