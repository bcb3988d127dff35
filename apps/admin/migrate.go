package main

import (
	"github.com/pkg/errors"

	"github.com/nxtwiseedu/nxtwise-lms/storage/database"
)

var migrateFunc = database.Migrate // mockable

var errNoSQL = errors.New("migrate: only available with the postgres storage")

func (cli *commandLine) migrate(args []string) error {
	if cli.backend.SQL == nil {
		return errNoSQL
	}
	return migrateFunc(cli.backend.SQL.DB, args[0], args[1:]...)
}
