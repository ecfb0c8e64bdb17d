package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tasmiapp/tasmi/core/examiner"
	"github.com/tasmiapp/tasmi/core/setoran"
	"github.com/tasmiapp/tasmi/core/student"
)

type setoranApi struct {
	svc      *setoran.Service
	validate *validator.Validate
}

func registerSetoranAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *setoran.Service, validate *validator.Validate) {
	api := setoranApi{svc: svc, validate: validate}

	sg := g.Group("/setoran", jwt, tenantMiddleware())
	sg.POST("", api.create)
	sg.GET("", api.query)
	sg.GET("/progress/:studentID", api.studentProgress)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.DELETE("/:id", api.destroy)
}

func (api *setoranApi) create(ctx echo.Context) error {
	tenantID, err := contextTenantID(ctx)
	if err != nil {
		return err
	}

	var data setoran.NewSetoran
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSetoran")
	}
	data.Clean()
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	s, err := api.svc.Create(ctx.Request().Context(), tenantID, data)
	if err != nil {
		switch errors.Cause(err) {
		case student.ErrNotFound, examiner.ErrNotFound:
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *setoranApi) query(ctx echo.Context) error {
	tenantID, err := contextTenantID(ctx)
	if err != nil {
		return err
	}

	filter := new(setoran.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []setoran.Setoran{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	entries, err := api.svc.Query(ctx.Request().Context(), tenantID, filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying setoran")
	}
	if entries == nil {
		entries = []setoran.Setoran{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *setoranApi) retrieve(ctx echo.Context) error {
	tenantID, err := contextTenantID(ctx)
	if err != nil {
		return err
	}

	s, err := api.svc.GetByID(ctx.Request().Context(), tenantID, ctx.Param("id"))
	if err != nil {
		return notFoundHTTPError(err, setoran.ErrNotFound)
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *setoranApi) update(ctx echo.Context) error {
	tenantID, err := contextTenantID(ctx)
	if err != nil {
		return err
	}

	var data setoran.UpdateSetoran
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSetoran")
	}
	data.Clean()
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	s, err := api.svc.Update(ctx.Request().Context(), tenantID, ctx.Param("id"), data)
	if err != nil {
		switch errors.Cause(err) {
		case setoran.ErrNotFound, examiner.ErrNotFound:
			return errHttpNotFound
		}
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *setoranApi) destroy(ctx echo.Context) error {
	tenantID, err := contextTenantID(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), tenantID, ctx.Param("id")); err != nil {
		return notFoundHTTPError(err, setoran.ErrNotFound)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *setoranApi) studentProgress(ctx echo.Context) error {
	tenantID, err := contextTenantID(ctx)
	if err != nil {
		return err
	}

	progress, err := api.svc.StudentProgress(ctx.Request().Context(), tenantID, ctx.Param("studentID"))
	if err != nil {
		return notFoundHTTPError(err, student.ErrNotFound)
	}
	return ctx.JSON(http.StatusOK, progress)
}
