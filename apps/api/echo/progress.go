package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nxtwiseedu/nxtwise-lms/core/course"
	"github.com/nxtwiseedu/nxtwise-lms/core/progress"
)

type (
	progressApi struct {
		sessions *progress.Sessions
		validate *validator.Validate
	}

	currentSection struct {
		course.Section
		TotalDuration  int    `json:"totalDuration"`
		PrimaryVideoID string `json:"primaryVideoId,omitempty"`
	}

	stateResponse struct {
		progress.State
		Changed *bool           `json:"changed,omitempty"`
		Current *currentSection `json:"current,omitempty"`
	}
)

func registerProgressAPI(g *echo.Group, sessions *progress.Sessions, validate *validator.Validate) {
	api := progressApi{
		sessions: sessions,
		validate: validate,
	}

	cg := g.Group("/courses/:courseId")
	cg.GET("/progress", api.retrieve)
	cg.POST("/modules/:moduleId/toggle", api.toggleModule)
	cg.GET("/modules/:moduleIndex/sections/:sectionIndex/accessible", api.accessible)
	cg.PUT("/position", api.changeSection)
	cg.POST("/complete", api.markComplete)
	cg.POST("/next", api.next)
	cg.POST("/prev", api.previous)
}

func newStateResponse(st progress.State, changed ...bool) stateResponse {
	resp := stateResponse{State: st}
	if len(changed) > 0 {
		resp.Changed = &changed[0]
	}
	if sec, ok := st.CurrentSectionData(); ok {
		resp.Current = &currentSection{Section: sec, TotalDuration: progress.SectionDuration(sec)}
		resp.Current.PrimaryVideoID, _ = progress.PrimaryVideoID(sec)
	}
	return resp
}

// tracker returns the caller's tracker for the course in the path.
func (api *progressApi) tracker(ctx echo.Context) (*progress.Tracker, progress.State, error) {
	tr, st, err := api.sessions.Get(ctx.Request().Context(), ctx.Param("courseId"), contextGuestID(ctx))
	if err != nil {
		return nil, st, errors.Wrap(err, "getting progress session")
	}
	if st.NotFound {
		return nil, st, errCourseNotFound
	}
	return tr, st, nil
}

// Handlers

func (api *progressApi) retrieve(ctx echo.Context) error {
	_, st, err := api.tracker(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, newStateResponse(st))
}

func (api *progressApi) toggleModule(ctx echo.Context) error {
	tr, _, err := api.tracker(ctx)
	if err != nil {
		return err
	}
	changed := tr.ToggleModuleExpanded(ctx.Param("moduleId"))
	return ctx.JSON(http.StatusOK, newStateResponse(tr.State(), changed))
}

func (api *progressApi) accessible(ctx echo.Context) error {
	var idx sectionIndex
	if err := idx.Bind(ctx); err != nil {
		return err
	}
	tr, _, err := api.tracker(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"accessible": tr.IsSectionAccessible(idx.Module, idx.Section)})
}

func (api *progressApi) changeSection(ctx echo.Context) error {
	var ref sectionRef
	if err := ref.Bind(ctx, api.validate); err != nil {
		return err
	}
	tr, _, err := api.tracker(ctx)
	if err != nil {
		return err
	}
	_, changed := tr.ChangeSection(ref.ModuleID, ref.SectionID)
	return ctx.JSON(http.StatusOK, newStateResponse(tr.State(), changed))
}

func (api *progressApi) markComplete(ctx echo.Context) error {
	var ref sectionRef
	if err := ref.Bind(ctx, api.validate); err != nil {
		return err
	}
	tr, _, err := api.tracker(ctx)
	if err != nil {
		return err
	}
	_, changed := tr.MarkComplete(ref.ModuleID, ref.SectionID)
	return ctx.JSON(http.StatusOK, newStateResponse(tr.State(), changed))
}

func (api *progressApi) next(ctx echo.Context) error {
	tr, _, err := api.tracker(ctx)
	if err != nil {
		return err
	}
	_, changed := tr.GoToNext()
	return ctx.JSON(http.StatusOK, newStateResponse(tr.State(), changed))
}

func (api *progressApi) previous(ctx echo.Context) error {
	tr, _, err := api.tracker(ctx)
	if err != nil {
		return err
	}
	_, changed := tr.GoToPrevious()
	return ctx.JSON(http.StatusOK, newStateResponse(tr.State(), changed))
}
