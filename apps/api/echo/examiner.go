package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tasmiapp/tasmi/core/examiner"
)

type examinerApi struct {
	svc      *examiner.Service
	validate *validator.Validate
}

func registerExaminerAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *examiner.Service, validate *validator.Validate) {
	api := examinerApi{svc: svc, validate: validate}

	eg := g.Group("/examiners", jwt, tenantMiddleware())
	eg.POST("", api.create)
	eg.GET("", api.query)
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id", api.update)
	eg.DELETE("/:id", api.destroy)
}

func (api *examinerApi) create(ctx echo.Context) error {
	tenantID, err := contextTenantID(ctx)
	if err != nil {
		return err
	}

	var data examiner.NewExaminer
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExaminer")
	}
	data.Clean()
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	e, err := api.svc.Create(ctx.Request().Context(), tenantID, data)
	if err != nil {
		return entitlementHTTPError(err)
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *examinerApi) query(ctx echo.Context) error {
	tenantID, err := contextTenantID(ctx)
	if err != nil {
		return err
	}

	filter := new(examiner.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []examiner.Examiner{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	examiners, err := api.svc.Query(ctx.Request().Context(), tenantID, filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying examiners")
	}
	if examiners == nil {
		examiners = []examiner.Examiner{}
	}
	return ctx.JSON(http.StatusOK, examiners)
}

func (api *examinerApi) retrieve(ctx echo.Context) error {
	tenantID, err := contextTenantID(ctx)
	if err != nil {
		return err
	}

	e, err := api.svc.GetByID(ctx.Request().Context(), tenantID, ctx.Param("id"))
	if err != nil {
		return notFoundHTTPError(err, examiner.ErrNotFound)
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *examinerApi) update(ctx echo.Context) error {
	tenantID, err := contextTenantID(ctx)
	if err != nil {
		return err
	}

	var data examiner.UpdateExaminer
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateExaminer")
	}
	data.Clean()
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	e, err := api.svc.Update(ctx.Request().Context(), tenantID, ctx.Param("id"), data)
	if err != nil {
		return notFoundHTTPError(err, examiner.ErrNotFound)
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *examinerApi) destroy(ctx echo.Context) error {
	tenantID, err := contextTenantID(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), tenantID, ctx.Param("id")); err != nil {
		return notFoundHTTPError(err, examiner.ErrNotFound)
	}
	return ctx.NoContent(http.StatusNoContent)
}
