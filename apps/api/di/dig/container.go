package dig_container

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/nxtwiseedu/nxtwise-lms/apps/api/echo"
	"github.com/nxtwiseedu/nxtwise-lms/core"
	"github.com/nxtwiseedu/nxtwise-lms/core/auth"
	"github.com/nxtwiseedu/nxtwise-lms/core/course"
	"github.com/nxtwiseedu/nxtwise-lms/core/progress"
	logsvc "github.com/nxtwiseedu/nxtwise-lms/services/logger"
	"github.com/nxtwiseedu/nxtwise-lms/storage"
)

// Shutdown receives the signal that stops the application.
type Shutdown chan os.Signal

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type ServerParams struct {
	dig.In
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Sessions   *progress.Sessions
	Courses    *course.Service
	Shutdown   Shutdown
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	course.InitValidators(validate, translator)
	return validate, translator
}

func newBackend(conf *core.Config, validate *validator.Validate, loggerParam DBLoggerParam) (*storage.Backend, error) {
	return storage.Open(context.Background(), conf, validate, loggerParam.Logger)
}

func newCourseService(backend *storage.Backend) *course.Service {
	return course.NewService(backend.Catalog, backend.Enrolled)
}

func newSessions(backend *storage.Backend, courses *course.Service, logger core.Logger) *progress.Sessions {
	return progress.NewSessions(courses, backend.Progress, auth.ContextProvider{}, logger)
}

func newShutdown() Shutdown {
	shutdown := make(Shutdown, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	return shutdown
}

func newServer(p ServerParams) echoapi.Server {
	return echoapi.NewServer(&echoapi.Options{
		Address:    p.Conf.Server.Address,
		Conf:       p.Conf,
		Logger:     p.Logger,
		Validate:   p.Validate,
		Translator: p.Translator,
		Sessions:   p.Sessions,
		Courses:    p.Courses,
		SignalShutdown: func() {
			select {
			case p.Shutdown <- syscall.SIGTERM:
			default:
			}
		},
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newValidator))
	must(c.Provide(newBackend))
	must(c.Provide(newCourseService))
	must(c.Provide(newSessions))
	must(c.Provide(newShutdown))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
