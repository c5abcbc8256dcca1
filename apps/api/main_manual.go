package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"

	echoapi "github.com/trezcool/tutordesk/apps/api/echo"
	"github.com/trezcool/tutordesk/core"
	"github.com/trezcool/tutordesk/core/educator"
	"github.com/trezcool/tutordesk/core/forms"
	"github.com/trezcool/tutordesk/core/wizard"
	"github.com/trezcool/tutordesk/services/backend"
	emailsvc "github.com/trezcool/tutordesk/services/email"
	logsvc "github.com/trezcool/tutordesk/services/logger"
	mediasvc "github.com/trezcool/tutordesk/services/media"
	notifysvc "github.com/trezcool/tutordesk/services/notify"
	"github.com/trezcool/tutordesk/storage/inmem"
)

func startManual() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)
	defer logger.Wait()

	backendLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "BACKEND : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	backendLogger.Enable(!conf.Debug)

	// set up services
	client := backend.NewClient(conf.Backend, backendLogger)
	hub := notifysvc.NewHub(logger)
	notifiers := wizard.Fanout{hub}
	if conf.Notify.EmailWarnings {
		var mailSvc core.EmailService
		if conf.Debug {
			mailSvc = emailsvc.NewConsoleService(conf, log.New(os.Stdout, "MAIL : ", log.LstdFlags))
		} else {
			mailSvc = emailsvc.NewSendgridService(conf, logger)
		}
		notifiers = append(notifiers, notifysvc.NewMailNotifier(mailSvc))
	}

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()

	ctrl := wizard.NewController(
		wizard.Options{
			Backend:         client,
			Store:           inmem.NewSessionStore(conf.Wizard.SessionTTL),
			Validator:       wizard.NewValidator(validate, translator),
			Notifier:        notifiers,
			Logger:          logger,
			Preparer:        mediasvc.NewPreparer(conf.Wizard),
			FollowUpTimeout: conf.Wizard.FollowUpTimeout,
			Persisted: func(resource string, owner educator.Educator, _ wizard.Entity) {
				client.InvalidateList(resource, owner.ID)
			},
		},
		forms.All()...,
	)
	// let intro video uploads finish before leaving
	defer ctrl.Wait()

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.Publish("backendCircuit", expvar.Func(func() interface{} { return client.CircuitState() }))

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:       conf,
			Logger:     logger,
			Controller: ctrl,
			Backend:    client,
			Hub:        hub,
			Validate:   validate,
			Translator: translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err := <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err := server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}
