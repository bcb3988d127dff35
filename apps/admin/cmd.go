package main

import (
	"errors"
	"flag"
	"fmt"
	"io"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/nxtwiseedu/nxtwise-lms/core"
	"github.com/nxtwiseedu/nxtwise-lms/storage"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	conf       *core.Config
	backend    *storage.Backend
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]             - run a goose migration command (postgres storage only)")
	fmt.Fprintln(cli.out, "  importcourse -file FILE            - validate and store the course described by a YAML file")
	fmt.Fprintln(cli.out, "  progress -user USER -course COURSE - print a user's progress record")
	fmt.Fprintln(cli.out, "  token -user USER [-email EMAIL]    - print a signed API token")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	importCmd := flag.NewFlagSet("importcourse", flag.ContinueOnError)
	importFile := importCmd.String("file", "", "Path of the course YAML file.")

	progressCmd := flag.NewFlagSet("progress", flag.ContinueOnError)
	progressUser := progressCmd.String("user", "", "The user's id.")
	progressCourse := progressCmd.String("course", "", "The course id.")

	tokenCmd := flag.NewFlagSet("token", flag.ContinueOnError)
	tokenUser := tokenCmd.String("user", "", "The user's id (token subject).")
	tokenEmail := tokenCmd.String("email", "", "The user's email.")

	for _, cmd := range []*flag.FlagSet{importCmd, progressCmd, tokenCmd} {
		cmd.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "importcourse":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importCourse(*importFile)
	case "progress":
		if err := progressCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *progressUser == "" || *progressCourse == "" {
			progressCmd.Usage()
			return errHelp
		}
		return cli.printProgress(*progressUser, *progressCourse)
	case "token":
		if err := tokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *tokenUser == "" {
			tokenCmd.Usage()
			return errHelp
		}
		return cli.token(*tokenUser, *tokenEmail)
	default:
		cli.printUsage()
		return errHelp
	}
}
