package course

import (
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/nxtwiseedu/nxtwise-lms/core"
)

var (
	uniqueOrderTag  = "uniqueorder"
	uniqueOrderText = "order values must be unique among siblings"

	uniqueIDTag  = "uniqueid"
	uniqueIDText = "ids must be unique within the course"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(courseStructValidation, Course{})
	validate.RegisterStructValidation(moduleStructValidation, Module{})
	core.RegisterCustomTranslation(validate, translator, uniqueOrderTag, uniqueOrderText)
	core.RegisterCustomTranslation(validate, translator, uniqueIDTag, uniqueIDText)
}

// Validate checks the course structure: ids, non-negative and unique sibling orders, unique ids.
func (c *Course) Validate(validate *validator.Validate) error {
	c.ID = core.CleanString(c.ID)
	c.MainTitle = core.CleanString(c.MainTitle)
	for mi := range c.Modules {
		c.Modules[mi].ID = core.CleanString(c.Modules[mi].ID)
		for si := range c.Modules[mi].Sections {
			c.Modules[mi].Sections[si].ID = core.CleanString(c.Modules[mi].Sections[si].ID)
		}
	}
	return validate.Struct(c)
}

// Densify rewrites module and section orders to 0..n-1 while keeping their sequence.
func Densify(c Course) Course {
	c = Normalize(c)
	for mi := range c.Modules {
		c.Modules[mi].Order = mi
		for si := range c.Modules[mi].Sections {
			c.Modules[mi].Sections[si].Order = si
		}
	}
	return c
}

// courseStructValidation reports duplicate module orders and duplicate module/section ids.
func courseStructValidation(sl validator.StructLevel) {
	c, ok := sl.Current().Interface().(Course)
	if !ok {
		return
	}
	orders := make(map[int]bool, len(c.Modules))
	ids := make(map[string]bool, len(c.Modules)+c.TotalSections())
	for mi, m := range c.Modules {
		if orders[m.Order] {
			sl.ReportError(m.Order, fmt.Sprintf("modules[%d].order", mi), "Order", uniqueOrderTag, "")
		}
		orders[m.Order] = true
		if ids["m:"+m.ID] {
			sl.ReportError(m.ID, fmt.Sprintf("modules[%d].id", mi), "ID", uniqueIDTag, "")
		}
		ids["m:"+m.ID] = true
		for si, s := range m.Sections {
			if ids["s:"+s.ID] {
				sl.ReportError(s.ID, fmt.Sprintf("modules[%d].sections[%d].id", mi, si), "ID", uniqueIDTag, "")
			}
			ids["s:"+s.ID] = true
		}
	}
}

// moduleStructValidation reports duplicate section orders within a module.
func moduleStructValidation(sl validator.StructLevel) {
	m, ok := sl.Current().Interface().(Module)
	if !ok {
		return
	}
	orders := make(map[int]bool, len(m.Sections))
	for si, s := range m.Sections {
		if orders[s.Order] {
			sl.ReportError(s.Order, fmt.Sprintf("sections[%d].order", si), "Order", uniqueOrderTag, "")
		}
		orders[s.Order] = true
	}
}
