package subscription

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/audit"
	"github.com/tasmiapp/tasmi/core/user"
)

var (
	ErrInvalidTransition = errors.New("invalid upgrade request transition")
	ErrOpenRequestExists = errors.New("an upgrade request is already in progress")
	ErrNotAnUpgrade      = errors.New("requested tier is not an upgrade")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateSubscription(ctx context.Context, sub Subscription) (Subscription, error)
		GetSubscriptionByTenant(ctx context.Context, tenantID string) (Subscription, error)
		UpdateSubscription(ctx context.Context, sub Subscription) (Subscription, error)

		QueryPlans(ctx context.Context) ([]Plan, error)
		GetPlan(ctx context.Context, tier Tier) (Plan, error)
		// ReplacePlans overwrites the catalog wholesale.
		ReplacePlans(ctx context.Context, plans []Plan) error

		CreateUpgradeRequest(ctx context.Context, req UpgradeRequest) (UpgradeRequest, error)
		GetUpgradeRequest(ctx context.Context, id string) (UpgradeRequest, error)
		// GetOpenUpgradeRequestByTenant returns the tenant's non-terminal request,
		// or ErrRequestNotFound when none is open.
		GetOpenUpgradeRequestByTenant(ctx context.Context, tenantID string) (UpgradeRequest, error)
		QueryUpgradeRequests(ctx context.Context, filter *RequestFilter, ordering []core.DBOrdering) ([]UpgradeRequest, error)
		UpdateUpgradeRequest(ctx context.Context, req UpgradeRequest) (UpgradeRequest, error)

		CreatePayment(ctx context.Context, p Payment) (Payment, error)
		GetPaymentByRequest(ctx context.Context, requestID string) (Payment, error)
		UpdatePayment(ctx context.Context, p Payment) (Payment, error)

		// CompleteUpgrade persists the payment-success batch atomically:
		// the request, its payment and the tenant's subscription change
		// together or not at all.
		CompleteUpgrade(ctx context.Context, req UpgradeRequest, pay Payment, sub Subscription) error
	}

	StudentCounter interface {
		CountActiveStudents(ctx context.Context, tenantID string) (int, error)
	}

	ExaminerCounter interface {
		CountActiveExaminers(ctx context.Context, tenantID string) (int, error)
	}

	TenantGetter interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service struct {
		repo      Repository
		students  StudentCounter
		examiners ExaminerCounter
		tenants   TenantGetter
		auditSvc  *audit.Service
		mailSvc   core.EmailService
		logger    core.Logger
		conf      *core.Config
	}
)

func NewService(
	repo Repository,
	students StudentCounter,
	examiners ExaminerCounter,
	tenants TenantGetter,
	auditSvc *audit.Service,
	mailSvc core.EmailService,
	logger core.Logger,
	conf *core.Config,
) *Service {
	return &Service{
		repo:      repo,
		students:  students,
		examiners: examiners,
		tenants:   tenants,
		auditSvc:  auditSvc,
		mailSvc:   mailSvc,
		logger:    logger,
		conf:      conf,
	}
}

// StartTrial creates the tenant's trial subscription at signup.
func (svc *Service) StartTrial(ctx context.Context, tenantID string) (Subscription, error) {
	plan, err := svc.repo.GetPlan(ctx, TierTrial)
	if err != nil {
		return Subscription{}, errors.Wrap(err, "finding trial plan")
	}

	now := nowFunc().UTC()
	trialEnd := now.Add(time.Duration(plan.TrialDays) * 24 * time.Hour)
	sub := Subscription{
		TenantID:     tenantID,
		Tier:         TierTrial,
		Status:       StatusActive,
		StartDate:    now,
		TrialEndDate: &trialEnd,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	sub, err = svc.repo.CreateSubscription(ctx, sub)
	return sub, errors.Wrap(err, "creating trial subscription")
}

func (svc *Service) GetByTenant(ctx context.Context, tenantID string) (Subscription, error) {
	return svc.repo.GetSubscriptionByTenant(ctx, tenantID)
}

// Status summarizes the tenant's entitlements for the dashboard.
// A trial found lapsed is also persisted as expired.
func (svc *Service) Status(ctx context.Context, tenantID string) (TenantStatus, error) {
	sub, err := svc.repo.GetSubscriptionByTenant(ctx, tenantID)
	if err != nil {
		return TenantStatus{}, errors.Wrap(err, "finding subscription")
	}
	plan, err := svc.subscribedPlan(ctx, sub.Tier)
	if err != nil {
		return TenantStatus{}, err
	}

	now := nowFunc().UTC()
	if sub.IsTrialExpired(now) && sub.Status == StatusActive {
		sub.Status = StatusExpired
		sub.UpdatedAt = now
		if sub, err = svc.repo.UpdateSubscription(ctx, sub); err != nil {
			return TenantStatus{}, errors.Wrap(err, "expiring trial subscription")
		}
	}

	students, err := svc.students.CountActiveStudents(ctx, tenantID)
	if err != nil {
		return TenantStatus{}, errors.Wrap(err, "counting students")
	}
	examiners, err := svc.examiners.CountActiveExaminers(ctx, tenantID)
	if err != nil {
		return TenantStatus{}, errors.Wrap(err, "counting examiners")
	}

	return TenantStatus{
		Tier:               sub.Tier,
		Status:             sub.Status,
		CanUseApp:          CanUse(sub, now),
		IsTrialExpired:     sub.IsTrialExpired(now),
		TrialDaysRemaining: sub.TrialDaysRemaining(now),
		MaxStudents:        plan.MaxStudents,
		StudentCount:       students,
		MaxExaminers:       plan.MaxExaminers,
		ExaminerCount:      examiners,
		CanExport:          plan.CanExport,
		PrioritySupport:    plan.PrioritySupport,
		Analytics:          plan.Analytics,
	}, nil
}

// subscribedPlan looks up the plan backing an existing subscription.
// ReplacePlans guarantees every tier a row, so a miss means the catalog is
// corrupt and nothing can be served safely until an operator intervenes.
func (svc *Service) subscribedPlan(ctx context.Context, tier Tier) (Plan, error) {
	plan, err := svc.repo.GetPlan(ctx, tier)
	if errors.Cause(err) == ErrPlanNotFound {
		return Plan{}, core.NewShutdownError(fmt.Sprintf("plan catalog is missing tier %q", tier))
	}
	return plan, errors.Wrap(err, "finding plan")
}

// CanAddStudent reports whether the tenant may create one more student.
// A missing subscription record denies (fail closed).
func (svc *Service) CanAddStudent(ctx context.Context, tenantID string) error {
	sub, err := svc.repo.GetSubscriptionByTenant(ctx, tenantID)
	if err != nil {
		return errors.Wrap(err, "finding subscription")
	}
	plan, err := svc.subscribedPlan(ctx, sub.Tier)
	if err != nil {
		return err
	}
	count, err := svc.students.CountActiveStudents(ctx, tenantID)
	if err != nil {
		return errors.Wrap(err, "counting students")
	}
	return checkAdd(sub, plan.MaxStudents, count, nowFunc().UTC())
}

// CanAddExaminer reports whether the tenant may create one more examiner.
func (svc *Service) CanAddExaminer(ctx context.Context, tenantID string) error {
	sub, err := svc.repo.GetSubscriptionByTenant(ctx, tenantID)
	if err != nil {
		return errors.Wrap(err, "finding subscription")
	}
	plan, err := svc.subscribedPlan(ctx, sub.Tier)
	if err != nil {
		return err
	}
	count, err := svc.examiners.CountActiveExaminers(ctx, tenantID)
	if err != nil {
		return errors.Wrap(err, "counting examiners")
	}
	return checkAdd(sub, plan.MaxExaminers, count, nowFunc().UTC())
}

// Plans returns the catalog.
func (svc *Service) Plans(ctx context.Context) ([]Plan, error) {
	return svc.repo.QueryPlans(ctx)
}

// ReplacePlans overwrites the catalog wholesale. Existing subscribers are not
// migrated; new limits apply to subsequent entitlement checks immediately.
func (svc *Service) ReplacePlans(ctx context.Context, actor audit.Actor, plans []Plan) error {
	seen := make(map[Tier]bool, len(plans))
	for _, p := range plans {
		if !p.Tier.Valid() {
			return core.NewValidationError(errors.Errorf("unknown tier %q", p.Tier))
		}
		if seen[p.Tier] {
			return core.NewValidationError(errors.Errorf("duplicate tier %q", p.Tier))
		}
		seen[p.Tier] = true
	}
	for _, tier := range AllTiers {
		if !seen[tier] {
			return core.NewValidationError(errors.Errorf("missing tier %q", tier))
		}
	}

	if err := svc.repo.ReplacePlans(ctx, plans); err != nil {
		return errors.Wrap(err, "replacing plans")
	}
	svc.auditSvc.Record(ctx, actor, "pricing.replace", "plan", "", fmt.Sprintf("%d plans", len(plans)))
	return nil
}

// RequestUpgrade opens a pending upgrade request for the tenant.
func (svc *Service) RequestUpgrade(ctx context.Context, tenantID string, requested Tier) (UpgradeRequest, error) {
	sub, err := svc.repo.GetSubscriptionByTenant(ctx, tenantID)
	if err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "finding subscription")
	}
	if requested.Rank() <= sub.Tier.Rank() {
		return UpgradeRequest{}, core.NewValidationError(ErrNotAnUpgrade,
			core.FieldError{Field: "requested_tier", Error: ErrNotAnUpgrade.Error()})
	}

	if _, err = svc.repo.GetOpenUpgradeRequestByTenant(ctx, tenantID); err == nil {
		return UpgradeRequest{}, core.NewValidationError(ErrOpenRequestExists)
	} else if errors.Cause(err) != ErrRequestNotFound {
		return UpgradeRequest{}, errors.Wrap(err, "finding open upgrade request")
	}

	plan, err := svc.repo.GetPlan(ctx, requested)
	if err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "finding requested plan")
	}

	now := nowFunc().UTC()
	req := UpgradeRequest{
		TenantID:      tenantID,
		CurrentTier:   sub.Tier,
		RequestedTier: requested,
		Status:        RequestPending,
		AmountIDR:     plan.PriceIDR,
		RequestDate:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	req, err = svc.repo.CreateUpgradeRequest(ctx, req)
	return req, errors.Wrap(err, "creating upgrade request")
}

func (svc *Service) GetRequest(ctx context.Context, id string) (UpgradeRequest, error) {
	return svc.repo.GetUpgradeRequest(ctx, id)
}

func (svc *Service) QueryRequests(ctx context.Context, filter *RequestFilter, ordering []core.DBOrdering) ([]UpgradeRequest, error) {
	return svc.repo.QueryUpgradeRequests(ctx, filter, ordering)
}

func (svc *Service) GetPaymentByRequest(ctx context.Context, requestID string) (Payment, error) {
	return svc.repo.GetPaymentByRequest(ctx, requestID)
}

// Approve moves a pending request to approved and opens its payment record.
func (svc *Service) Approve(ctx context.Context, actor audit.Actor, requestID string) (UpgradeRequest, error) {
	req, err := svc.repo.GetUpgradeRequest(ctx, requestID)
	if err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "finding upgrade request")
	}
	// pending only: the payment_pending -> approved fallback belongs to
	// FailPayment, a second approval here would open a duplicate payment.
	if req.Status != RequestPending {
		return UpgradeRequest{}, ErrInvalidTransition
	}

	now := nowFunc().UTC()
	req.Status = RequestApproved
	req.UpdatedAt = now
	if req, err = svc.repo.UpdateUpgradeRequest(ctx, req); err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "updating upgrade request")
	}

	pay := Payment{
		UpgradeRequestID: req.ID,
		TenantID:         req.TenantID,
		AmountIDR:        req.AmountIDR,
		Status:           PaymentPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if _, err = svc.repo.CreatePayment(ctx, pay); err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "creating payment")
	}

	svc.auditSvc.Record(ctx, actor, "upgrade.approve", "upgrade_request", req.ID, string(req.RequestedTier))
	svc.notifyTenant(ctx, req.TenantID, "Upgrade request approved", "upgrade-approved", req)
	return req, nil
}

// Reject closes a pending request; terminal.
func (svc *Service) Reject(ctx context.Context, actor audit.Actor, requestID string) (UpgradeRequest, error) {
	req, err := svc.repo.GetUpgradeRequest(ctx, requestID)
	if err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "finding upgrade request")
	}
	if !req.Status.CanTransitionTo(RequestRejected) {
		return UpgradeRequest{}, ErrInvalidTransition
	}

	now := nowFunc().UTC()
	req.Status = RequestRejected
	req.ProcessedAt = &now
	req.ProcessedBy = actor.ID
	req.UpdatedAt = now
	if req, err = svc.repo.UpdateUpgradeRequest(ctx, req); err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "updating upgrade request")
	}

	svc.auditSvc.Record(ctx, actor, "upgrade.reject", "upgrade_request", req.ID, string(req.RequestedTier))
	return req, nil
}

// StartPayment marks the approved request as awaiting a transfer. Payments
// are terminal once completed, failed or refunded, so a retry after a failed
// attempt gets its own payment record.
func (svc *Service) StartPayment(ctx context.Context, actor audit.Actor, requestID, method, reference string) (UpgradeRequest, error) {
	req, err := svc.repo.GetUpgradeRequest(ctx, requestID)
	if err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "finding upgrade request")
	}
	if !req.Status.CanTransitionTo(RequestPaymentPending) {
		return UpgradeRequest{}, ErrInvalidTransition
	}
	pay, err := svc.repo.GetPaymentByRequest(ctx, requestID)
	if err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "finding payment")
	}

	now := nowFunc().UTC()
	req.Status = RequestPaymentPending
	req.UpdatedAt = now
	if req, err = svc.repo.UpdateUpgradeRequest(ctx, req); err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "updating upgrade request")
	}

	if pay.Status.IsTerminal() {
		// the previous attempt failed and stays on record; open a fresh one
		pay = Payment{
			UpgradeRequestID: req.ID,
			TenantID:         req.TenantID,
			AmountIDR:        req.AmountIDR,
			Status:           PaymentProcessing,
			Method:           method,
			Reference:        reference,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if _, err = svc.repo.CreatePayment(ctx, pay); err != nil {
			return UpgradeRequest{}, errors.Wrap(err, "creating payment")
		}
	} else {
		pay.Status = PaymentProcessing
		pay.Method = method
		pay.Reference = reference
		pay.UpdatedAt = now
		if _, err = svc.repo.UpdatePayment(ctx, pay); err != nil {
			return UpgradeRequest{}, errors.Wrap(err, "updating payment")
		}
	}

	svc.auditSvc.Record(ctx, actor, "upgrade.start_payment", "upgrade_request", req.ID, method)
	return req, nil
}

// CompletePayment settles a successful payment: the payment, the request and
// the tenant's subscription change together in one transaction.
func (svc *Service) CompletePayment(ctx context.Context, actor audit.Actor, requestID string) (UpgradeRequest, error) {
	req, err := svc.repo.GetUpgradeRequest(ctx, requestID)
	if err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "finding upgrade request")
	}
	if !req.Status.CanTransitionTo(RequestCompleted) {
		return UpgradeRequest{}, ErrInvalidTransition
	}
	pay, err := svc.repo.GetPaymentByRequest(ctx, requestID)
	if err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "finding payment")
	}
	sub, err := svc.repo.GetSubscriptionByTenant(ctx, req.TenantID)
	if err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "finding subscription")
	}

	now := nowFunc().UTC()
	req.Status = RequestCompleted
	req.ProcessedAt = &now
	req.ProcessedBy = actor.ID
	req.UpdatedAt = now

	pay.Status = PaymentCompleted
	pay.UpdatedAt = now

	sub.Tier = req.RequestedTier
	sub.Status = StatusActive
	sub.StartDate = now
	sub.TrialEndDate = nil
	sub.EndDate = nil
	sub.UpdatedAt = now

	if err = svc.repo.CompleteUpgrade(ctx, req, pay, sub); err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "completing upgrade")
	}

	svc.auditSvc.Record(ctx, actor, "upgrade.complete", "upgrade_request", req.ID, string(req.RequestedTier))
	svc.notifyTenant(ctx, req.TenantID, "Subscription upgraded", "upgrade-completed", req)
	return req, nil
}

// FailPayment records a failed transfer; the request returns to approved so
// the admin can retry manually.
func (svc *Service) FailPayment(ctx context.Context, actor audit.Actor, requestID string) (UpgradeRequest, error) {
	req, err := svc.repo.GetUpgradeRequest(ctx, requestID)
	if err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "finding upgrade request")
	}
	if req.Status != RequestPaymentPending {
		return UpgradeRequest{}, ErrInvalidTransition
	}
	pay, err := svc.repo.GetPaymentByRequest(ctx, requestID)
	if err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "finding payment")
	}

	now := nowFunc().UTC()
	req.Status = RequestApproved
	req.UpdatedAt = now
	if req, err = svc.repo.UpdateUpgradeRequest(ctx, req); err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "updating upgrade request")
	}

	pay.Status = PaymentFailed
	pay.UpdatedAt = now
	if _, err = svc.repo.UpdatePayment(ctx, pay); err != nil {
		return UpgradeRequest{}, errors.Wrap(err, "updating payment")
	}

	svc.auditSvc.Record(ctx, actor, "upgrade.fail_payment", "upgrade_request", req.ID, "")
	return req, nil
}

// Cancel explicitly ends a tenant's subscription; only an admin may do this.
func (svc *Service) Cancel(ctx context.Context, actor audit.Actor, tenantID string) (Subscription, error) {
	sub, err := svc.repo.GetSubscriptionByTenant(ctx, tenantID)
	if err != nil {
		return Subscription{}, errors.Wrap(err, "finding subscription")
	}

	now := nowFunc().UTC()
	sub.Status = StatusCancelled
	sub.EndDate = &now
	sub.UpdatedAt = now
	if sub, err = svc.repo.UpdateSubscription(ctx, sub); err != nil {
		return Subscription{}, errors.Wrap(err, "cancelling subscription")
	}

	svc.auditSvc.Record(ctx, actor, "subscription.cancel", "subscription", sub.ID, tenantID)
	return sub, nil
}

// notifyTenant emails the tenant account; missing accounts or emails are logged and skipped.
func (svc *Service) notifyTenant(ctx context.Context, tenantID, subject, template string, req UpgradeRequest) {
	usr, err := svc.tenants.GetByID(ctx, tenantID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("notifying tenant %s: %v", tenantID, err))
		return
	}
	if usr.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      subject,
		TemplateName: template,
		TemplateData: struct {
			Name          string
			RequestedTier string
			AmountIDR     int64
		}{usr.Name, string(req.RequestedTier), req.AmountIDR},
	})
}
