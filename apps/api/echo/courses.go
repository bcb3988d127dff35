package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nxtwiseedu/nxtwise-lms/core/auth"
	"github.com/nxtwiseedu/nxtwise-lms/core/course"
)

type courseApi struct {
	service  *course.Service
	identity auth.Provider
}

func registerCourseAPI(g *echo.Group, service *course.Service) {
	api := courseApi{
		service:  service,
		identity: auth.ContextProvider{},
	}

	g.GET("/courses", api.list)
}

// list returns the catalogue split into the caller's enrolled and available courses.
// Guests get every course as available.
func (api *courseApi) list(ctx echo.Context) error {
	userID, _ := api.identity.CurrentUserID(ctx.Request().Context())
	listing, err := api.service.ListForUser(ctx.Request().Context(), userID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, listing)
}
