package dig_container

import (
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/scaffold/apps/api/echo"
	"github.com/trezcool/scaffold/core"
	"github.com/trezcool/scaffold/core/nav"
	"github.com/trezcool/scaffold/core/session"
	"github.com/trezcool/scaffold/core/user"
	logsvc "github.com/trezcool/scaffold/services/logger"
	"github.com/trezcool/scaffold/storage"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStore(conf *core.Config, loggerParam DBLoggerParam) (*storage.Store, user.Repository, error) {
	st, err := storage.Open(conf, loggerParam.Logger)
	if err != nil {
		return nil, nil, errors.Wrap(err, "opening profile store")
	}
	return st, st.Repo, nil
}

func newValidator(translator ut.Translator, logger core.Logger) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(logger)
	return validate
}

func newSessionLoader(svc *user.Service) session.Loader {
	return svc
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	usrSvc *user.Service,
	codec *session.Codec,
	menu *nav.Menu,
	validate *validator.Validate,
	translator ut.Translator,
) (*echoapi.Server, error) {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:       conf,
		Logger:     logger,
		UserSvc:    usrSvc,
		Codec:      codec,
		Menu:       menu,
		Validate:   validate,
		Translator: translator,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(user.NewVerifier))
	must(c.Provide(user.NewService))
	must(c.Provide(newSessionLoader))
	must(c.Provide(session.NewCodec))
	must(c.Provide(nav.NewMenu))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
