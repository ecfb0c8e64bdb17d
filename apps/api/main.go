package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/tasmiapp/tasmi/apps/api/echo"
	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/audit"
	"github.com/tasmiapp/tasmi/core/examiner"
	"github.com/tasmiapp/tasmi/core/setoran"
	"github.com/tasmiapp/tasmi/core/student"
	"github.com/tasmiapp/tasmi/core/subscription"
	"github.com/tasmiapp/tasmi/core/user"
	emailsvc "github.com/tasmiapp/tasmi/services/email"
	sendgridmail "github.com/tasmiapp/tasmi/services/email/sendgrid"
	logsvc "github.com/tasmiapp/tasmi/services/logger"
	"github.com/tasmiapp/tasmi/storage/database"
	sqlxrepos "github.com/tasmiapp/tasmi/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = sendgridmail.NewService(conf.SendgridAPIKey, conf.AppName, conf.DefaultFromEmail.Address, logger)
	}

	studentRepo := sqlxrepos.NewStudentRepository(db)
	examinerRepo := sqlxrepos.NewExaminerRepository(db)

	usrSvc := user.NewService(db, sqlxrepos.NewUserRepository(db), mailSvc, conf)
	auditSvc := audit.NewService(sqlxrepos.NewAuditRepository(db), logger)
	subSvc := subscription.NewService(
		sqlxrepos.NewSubscriptionRepository(db),
		studentRepo, examinerRepo, usrSvc,
		auditSvc, mailSvc, logger, conf,
	)
	studentSvc := student.NewService(studentRepo, subSvc)
	examinerSvc := examiner.NewService(examinerRepo, subSvc)
	setoranSvc := setoran.NewService(sqlxrepos.NewSetoranRepository(db), studentSvc, examinerSvc)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	subscription.InitValidators(validate, translator)
	setoran.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	user.LoadCommonPasswords(logger)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)

	go func() {
		if err = http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:            conf,
			Logger:          logger,
			UserSvc:         usrSvc,
			StudentSvc:      studentSvc,
			ExaminerSvc:     examinerSvc,
			SetoranSvc:      setoranSvc,
			SubscriptionSvc: subSvc,
			AuditSvc:        auditSvc,
			Validate:        validate,
			Translator:      translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
