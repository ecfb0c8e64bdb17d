package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tasmiapp/tasmi/core/subscription"
)

type subscriptionApi struct {
	svc      *subscription.Service
	validate *validator.Validate
}

// registerPricingAPI exposes the public plan catalog; no auth required.
func registerPricingAPI(g *echo.Group, svc *subscription.Service) {
	api := subscriptionApi{svc: svc}
	g.GET("/pricing", api.pricing)
}

func registerSubscriptionAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *subscription.Service, validate *validator.Validate) {
	api := subscriptionApi{svc: svc, validate: validate}

	sg := g.Group("/subscription", jwt, tenantMiddleware())
	sg.GET("", api.status)
	sg.POST("/upgrade", api.requestUpgrade)
	sg.GET("/upgrade", api.queryUpgrades)
}

func (api *subscriptionApi) pricing(ctx echo.Context) error {
	plans, err := api.svc.Plans(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying plans")
	}
	return ctx.JSON(http.StatusOK, plans)
}

// status reports the tenant's tier, usage counts and feature flags.
func (api *subscriptionApi) status(ctx echo.Context) error {
	tenantID, err := contextTenantID(ctx)
	if err != nil {
		return err
	}

	status, err := api.svc.Status(ctx.Request().Context(), tenantID)
	if err != nil {
		return entitlementHTTPError(err)
	}
	return ctx.JSON(http.StatusOK, status)
}

func (api *subscriptionApi) requestUpgrade(ctx echo.Context) error {
	tenantID, err := contextTenantID(ctx)
	if err != nil {
		return err
	}

	var data subscription.NewUpgradeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUpgradeRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	req, err := api.svc.RequestUpgrade(ctx.Request().Context(), tenantID, data.RequestedTier)
	if err != nil {
		return entitlementHTTPError(err)
	}
	return ctx.JSON(http.StatusCreated, req)
}

// queryUpgrades lists the tenant's own upgrade requests, newest first.
func (api *subscriptionApi) queryUpgrades(ctx echo.Context) error {
	tenantID, err := contextTenantID(ctx)
	if err != nil {
		return err
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	reqs, err := api.svc.QueryRequests(ctx.Request().Context(), &subscription.RequestFilter{TenantID: tenantID}, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying upgrade requests")
	}
	if reqs == nil {
		reqs = []subscription.UpgradeRequest{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}
