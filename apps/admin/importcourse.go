package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/nxtwiseedu/nxtwise-lms/core"
	"github.com/nxtwiseedu/nxtwise-lms/core/course"
)

// importCourse creates or replaces the course described by the YAML file at path.
func (cli *commandLine) importCourse(path string) error {
	c, err := course.ReadYAMLFile(path)
	if err != nil {
		return err
	}
	stored, err := cli.backend.ImportCourse(context.Background(), c, cli.validate)
	if verrs, ok := err.(validator.ValidationErrors); ok {
		fields := core.TranslateValidationErrors(verrs, cli.translator)
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(cli.out, "  %s: %s\n", name, fields[name])
		}
		return fmt.Errorf("invalid course %q", core.CleanString(c.ID))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "imported course %q: %d modules, %d sections\n", stored.ID, len(stored.Modules), stored.TotalSections())
	return nil
}
