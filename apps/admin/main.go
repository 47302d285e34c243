package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/scaffold/core"
	"github.com/trezcool/scaffold/core/user"
	logsvc "github.com/trezcool/scaffold/services/logger"
	"github.com/trezcool/scaffold/storage"
)

func main() {
	stdLogger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	if err != nil {
		stdLogger.Fatal(err)
	}
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)

	// set up store
	store, err := storage.Open(conf, logger)
	if err != nil {
		logger.Fatal("opening profile store", err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(logger)

	// start CLI
	cli := commandLine{
		usrSvc:     user.NewService(store.Repo, user.NewVerifier(conf, store.Repo), validate),
		store:      store,
		translator: translator,
		out:        os.Stdout,
	}
	err = cli.run(os.Args)
	if cErr := store.Close(); cErr != nil {
		logger.Error("closing profile store", cErr)
	}
	if err != nil {
		if err != errHelp {
			stdLogger.Printf("\nerror: %s\n", cli.describe(err))
		}
		os.Exit(1)
	}
}
