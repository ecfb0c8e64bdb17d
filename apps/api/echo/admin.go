package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/tasmiapp/tasmi/core/audit"
	"github.com/tasmiapp/tasmi/core/subscription"
	"github.com/tasmiapp/tasmi/core/user"
)

type adminApi struct {
	userSvc  user.ServiceInterface
	subSvc   *subscription.Service
	auditSvc *audit.Service
	validate *validator.Validate
}

// registerAdminAPI wires the back-office endpoints; all of them require an
// admin account.
func registerAdminAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	userSvc user.ServiceInterface,
	subSvc *subscription.Service,
	auditSvc *audit.Service,
	validate *validator.Validate,
) {
	api := adminApi{userSvc: userSvc, subSvc: subSvc, auditSvc: auditSvc, validate: validate}

	ag := g.Group("/admin", jwt, adminMiddleware())

	ag.GET("/upgrade-requests", api.queryUpgradeRequests)
	ag.GET("/upgrade-requests/:id", api.retrieveUpgradeRequest)
	ag.POST("/upgrade-requests/:id/approve", api.approveUpgradeRequest)
	ag.POST("/upgrade-requests/:id/reject", api.rejectUpgradeRequest)
	ag.POST("/upgrade-requests/:id/start-payment", api.startPayment)
	ag.POST("/upgrade-requests/:id/complete-payment", api.completePayment)
	ag.POST("/upgrade-requests/:id/fail-payment", api.failPayment)

	ag.GET("/pricing", api.pricing)
	ag.PUT("/pricing", api.replacePricing)

	ag.GET("/tenants", api.queryTenants)
	ag.POST("/tenants/:id/cancel-subscription", api.cancelSubscription)

	ag.GET("/audit", api.queryAudit)
}

// contextActor identifies the admin performing the action for audit purposes.
func contextActor(ctx echo.Context) (audit.Actor, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return audit.Actor{}, errors.Wrap(err, "getting context claims")
	}
	return audit.Actor{ID: claims.Subject, Name: claims.Username}, nil
}

func (api *adminApi) queryUpgradeRequests(ctx echo.Context) error {
	filter := new(subscription.RequestFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []subscription.UpgradeRequest{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	reqs, err := api.subSvc.QueryRequests(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying upgrade requests")
	}
	if reqs == nil {
		reqs = []subscription.UpgradeRequest{}
	}
	return ctx.JSON(http.StatusOK, reqs)
}

func (api *adminApi) retrieveUpgradeRequest(ctx echo.Context) error {
	req, err := api.subSvc.GetRequest(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundHTTPError(err, subscription.ErrRequestNotFound)
	}

	resp := UpgradeRequestDetail{UpgradeRequest: req}
	if pay, err := api.subSvc.GetPaymentByRequest(ctx.Request().Context(), req.ID); err == nil {
		resp.Payment = &pay
	} else if errors.Cause(err) != subscription.ErrPaymentNotFound {
		return errors.Wrap(err, "finding payment")
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *adminApi) approveUpgradeRequest(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	req, err := api.subSvc.Approve(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return notFoundHTTPError(err, subscription.ErrRequestNotFound)
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *adminApi) rejectUpgradeRequest(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	req, err := api.subSvc.Reject(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return notFoundHTTPError(err, subscription.ErrRequestNotFound)
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *adminApi) startPayment(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data StartPaymentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StartPaymentRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	req, err := api.subSvc.StartPayment(ctx.Request().Context(), actor, ctx.Param("id"), data.Method, data.Reference)
	if err != nil {
		return notFoundHTTPError(err, subscription.ErrRequestNotFound)
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *adminApi) completePayment(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	req, err := api.subSvc.CompletePayment(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return notFoundHTTPError(err, subscription.ErrRequestNotFound)
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *adminApi) failPayment(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	req, err := api.subSvc.FailPayment(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return notFoundHTTPError(err, subscription.ErrRequestNotFound)
	}
	return ctx.JSON(http.StatusOK, req)
}

func (api *adminApi) pricing(ctx echo.Context) error {
	plans, err := api.subSvc.Plans(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying plans")
	}
	return ctx.JSON(http.StatusOK, plans)
}

// replacePricing overwrites the plan catalog; new limits bind immediately.
func (api *adminApi) replacePricing(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	var data ReplacePricingRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReplacePricingRequest")
	}
	for i := range data.Plans {
		if err := api.validate.Struct(&data.Plans[i]); err != nil {
			return err
		}
	}

	if err := api.subSvc.ReplacePlans(ctx.Request().Context(), actor, data.Plans); err != nil {
		return err
	}
	plans, err := api.subSvc.Plans(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying plans")
	}
	return ctx.JSON(http.StatusOK, plans)
}

func (api *adminApi) queryTenants(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	filter := &user.QueryFilter{Roles: user.TenantRoles}
	if search := ctx.QueryParam("search"); search != "" {
		filter.Search = search
		filter.Clean()
	}

	tenants, err := api.userSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying tenants")
	}

	resp := make([]TenantAccount, 0, len(tenants))
	for _, t := range tenants {
		acct := TenantAccount{User: t}
		if sub, err := api.subSvc.GetByTenant(ctx.Request().Context(), t.ID); err == nil {
			acct.Subscription = &sub
		} else if errors.Cause(err) != subscription.ErrNoSubscription {
			return errors.Wrap(err, "finding subscription")
		}
		resp = append(resp, acct)
	}
	return ctx.JSON(http.StatusOK, resp)
}

func (api *adminApi) cancelSubscription(ctx echo.Context) error {
	actor, err := contextActor(ctx)
	if err != nil {
		return err
	}

	sub, err := api.subSvc.Cancel(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return notFoundHTTPError(err, subscription.ErrNoSubscription)
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *adminApi) queryAudit(ctx echo.Context) error {
	filter := new(audit.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []audit.Entry{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	entries, err := api.auditSvc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying audit entries")
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

type (
	StartPaymentRequest struct {
		Method    string `json:"method" validate:"required"`
		Reference string `json:"reference"`
	}

	ReplacePricingRequest struct {
		Plans []subscription.Plan `json:"plans" validate:"required"`
	}

	UpgradeRequestDetail struct {
		subscription.UpgradeRequest
		Payment *subscription.Payment `json:"payment,omitempty"`
	}

	TenantAccount struct {
		user.User
		Subscription *subscription.Subscription `json:"subscription,omitempty"`
	}
)
