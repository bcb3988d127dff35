package echoapi

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nxtwiseedu/nxtwise-lms/core"
)

// sectionRef designates a section by ids.
type sectionRef struct {
	ModuleID  string `json:"module_id" validate:"required"`
	SectionID string `json:"section_id" validate:"required"`
}

func (ref *sectionRef) Bind(ctx echo.Context, validate *validator.Validate) error {
	if err := ctx.Bind(ref); err != nil {
		return errors.Wrap(err, "binding section reference")
	}
	ref.ModuleID = core.CleanString(ref.ModuleID)
	ref.SectionID = core.CleanString(ref.SectionID)
	return validate.Struct(ref)
}

var errInvalidSectionIndex = errors.New("invalid section index")

const indexText = "must be an integer"

// sectionIndex designates a section by its indexes in the normalized course.
type sectionIndex struct {
	Module  int
	Section int
}

func (idx *sectionIndex) Bind(ctx echo.Context) error {
	var (
		err    error
		fields []core.FieldError
	)
	if idx.Module, err = strconv.Atoi(ctx.Param("moduleIndex")); err != nil {
		fields = append(fields, core.FieldError{Field: "moduleIndex", Error: indexText})
	}
	if idx.Section, err = strconv.Atoi(ctx.Param("sectionIndex")); err != nil {
		fields = append(fields, core.FieldError{Field: "sectionIndex", Error: indexText})
	}
	if len(fields) > 0 {
		return core.NewValidationError(errInvalidSectionIndex, fields...)
	}
	return nil
}
