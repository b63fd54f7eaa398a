package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/akadahq/akada/apps/api/echo"
	"github.com/akadahq/akada/core"
	"github.com/akadahq/akada/core/academic"
	logsvc "github.com/akadahq/akada/services/logger"
	"github.com/akadahq/akada/storage/database"
	sqlxrepos "github.com/akadahq/akada/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(std, err)

	var logger core.Logger
	if conf.RollbarToken != "" {
		logger = logsvc.NewRollbarLogger(std, conf)
	} else {
		logger = logsvc.NewConsoleLogger(std)
	}
	// keep local debug runs out of the error tracker
	logger.Enable(!conf.Debug || conf.RollbarToken == "")

	// set up DB
	db, err := database.Open(conf)
	errAndDie(std, err)
	defer func() { _ = db.Close() }()

	// set up validation
	validate := validator.New()
	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	translator, _ := uni.GetTranslator("en")
	core.InitValidators(validate, translator)

	// set up services
	academicSvc := academic.NewService(
		sqlxrepos.NewCatalogRepository(db),
		sqlxrepos.NewStudentRepository(db),
		logger,
	)

	// start API server
	app := echoapi.NewServer(
		&echoapi.Options{
			Addr:        conf.Server.Address(),
			Conf:        conf,
			Logger:      logger,
			AcademicSvc: academicSvc,
			Validate:    validate,
			Translator:  translator,
		},
	)

	go func() {
		app.Start()
	}()

	// block until the listener dies or a shutdown is requested (OS signal or
	// a fatal store failure caught by the error handler)
	select {
	case err = <-app.Errors():
		std.Fatalf("server error: %v", err)

	case sig := <-app.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err = app.Stop(ctx); err != nil {
			std.Fatalf("could not stop server gracefully: %v", err)
		}
	}
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatal(err)
	}
}
