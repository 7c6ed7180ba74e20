package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/csamedu/portal/core"
	"github.com/csamedu/portal/core/schoolapi"
	"github.com/csamedu/portal/core/session"

	echoportal "github.com/csamedu/portal/apps/portal/echo"
	emailsvc "github.com/csamedu/portal/services/email"
	logsvc "github.com/csamedu/portal/services/logger"
	inmemstore "github.com/csamedu/portal/storage/session/inmem"
	pgstore "github.com/csamedu/portal/storage/session/postgres"
	redisstore "github.com/csamedu/portal/storage/session/redis"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	std := log.New(os.Stdout, "PORTAL : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		rollbarLogger := logsvc.NewRollbarLogger(std, conf)
		rollbarLogger.Enable(true)
		logger = rollbarLogger
	}

	store, cleanup, err := setUpSessionStore(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up session store: %v", err), err)
	}
	defer cleanup()

	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	api := schoolapi.NewClient(conf, logger)

	// =========================================================================
	// Start Portal Service

	logger.Info(fmt.Sprintf("Portal initializing : version %q", conf.Build))
	defer logger.Info("Portal stopped")

	server := echoportal.NewServer(echoportal.ServerDeps{
		Conf:    conf,
		Logger:  logger,
		Store:   store,
		API:     api,
		MailSvc: mailSvc,
	})

	go server.Start()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpSessionStore(conf *core.Config) (session.Store, func(), error) {
	switch conf.Sessions.Store {
	case "redis":
		return redisstore.New(conf), func() {}, nil
	case "postgres":
		store, err := pgstore.Open(conf.Sessions.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := store.EnsureSchema(context.Background()); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	default:
		return inmemstore.New(), func() {}, nil
	}
}
