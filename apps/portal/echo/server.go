package echoportal

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/csamedu/portal/core"
	"github.com/csamedu/portal/core/schoolapi"
	"github.com/csamedu/portal/core/session"
)

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		Store          session.Store
		API            *schoolapi.Client
		MailSvc        core.EmailService
		DisableReqLogs bool
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
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
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

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)
	s.app.Debug = conf.Debug
	s.app.HideBanner = true

	// public marketing pages
	s.app.GET("/", s.home)
	s.app.GET("/testimonials", s.testimonials)
	s.app.GET("/news", s.news)
	s.app.GET("/blog", s.blog)
	s.app.POST("/contact", s.contact)

	// role areas: three independent authentication domains
	for _, role := range session.AllRoles {
		role := role
		s.app.GET(loginPath(role), s.loginPage(role))
		s.app.POST(loginPath(role), s.login(role))
		s.app.POST("/"+string(role)+"/logout", s.logout(role))

		g := s.app.Group("/"+string(role), s.requireSession(role))
		g.GET("/home", s.portalHome(role))
		g.GET("/exams", s.exams(role))
		g.GET("/attendance", s.attendance(role))
		g.GET("/notifications", s.notifications(role))
		g.GET("/notifications/unread-count", s.unreadCount(role))
	}

	s.app.POST("/teacher/register", s.registerTeacher)
	s.app.POST("/admin/register", s.registerAdmin)
}

func (s *server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errs <- err
	}
}

func (s *server) Errors() <-chan error { return s.errs }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
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

func (s *server) home(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"app":     s.deps.Conf.AppName,
		"message": "Welcome to the CSAM portal API",
	})
}
