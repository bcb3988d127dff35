package main

import (
	"context"
	"log"
	"os"

	"github.com/nxtwiseedu/nxtwise-lms/core"
	"github.com/nxtwiseedu/nxtwise-lms/core/course"
	logsvc "github.com/nxtwiseedu/nxtwise-lms/services/logger"
	"github.com/nxtwiseedu/nxtwise-lms/storage"
)

func main() {
	conf := core.NewConfig()
	stdLogger := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)

	validate, translator := core.NewValidator()
	course.InitValidators(validate, translator)

	// set up storage
	ctx := context.Background()
	backend, err := storage.Open(ctx, conf, validate, logger)
	if err != nil {
		logger.Fatal(err.Error(), err)
	}

	// start CLI
	cli := commandLine{
		conf:       conf,
		backend:    backend,
		validate:   validate,
		translator: translator,
		out:        os.Stdout,
	}
	err = cli.run(os.Args)
	if cerr := backend.Close(ctx); cerr != nil {
		logger.Error("closing storage: "+cerr.Error(), cerr)
	}
	if err != nil {
		if err != errHelp {
			stdLogger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
