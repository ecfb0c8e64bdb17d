package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tasmiapp/tasmi/core"
	"github.com/tasmiapp/tasmi/core/subscription"
)

type SubscriptionRepository struct {
	mu    sync.RWMutex
	subs  map[string]subscription.Subscription // keyed by tenant ID
	plans map[subscription.Tier]subscription.Plan
	reqs  map[string]subscription.UpgradeRequest
	pays  []subscription.Payment // in insertion order, possibly several per request

	// FailCompleteUpgrade forces the atomic batch to fail, for tests.
	FailCompleteUpgrade error
}

func NewSubscriptionRepository() *SubscriptionRepository {
	plans := make(map[subscription.Tier]subscription.Plan)
	for _, p := range subscription.DefaultPlans() {
		plans[p.Tier] = p
	}
	return &SubscriptionRepository{
		subs:  make(map[string]subscription.Subscription),
		plans: plans,
		reqs:  make(map[string]subscription.UpgradeRequest),
	}
}

func (repo *SubscriptionRepository) CreateSubscription(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	sub.ID = uuid.New().String()
	repo.subs[sub.TenantID] = sub
	return sub, nil
}

func (repo *SubscriptionRepository) GetSubscriptionByTenant(ctx context.Context, tenantID string) (subscription.Subscription, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	sub, ok := repo.subs[tenantID]
	if !ok {
		return subscription.Subscription{}, subscription.ErrNoSubscription
	}
	return sub, nil
}

func (repo *SubscriptionRepository) UpdateSubscription(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.subs[sub.TenantID]; !ok {
		return subscription.Subscription{}, subscription.ErrNoSubscription
	}
	repo.subs[sub.TenantID] = sub
	return sub, nil
}

func (repo *SubscriptionRepository) QueryPlans(ctx context.Context) ([]subscription.Plan, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	plans := make([]subscription.Plan, 0, len(repo.plans))
	for _, p := range repo.plans {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].PriceIDR < plans[j].PriceIDR })
	return plans, nil
}

func (repo *SubscriptionRepository) GetPlan(ctx context.Context, tier subscription.Tier) (subscription.Plan, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	p, ok := repo.plans[tier]
	if !ok {
		return subscription.Plan{}, subscription.ErrPlanNotFound
	}
	return p, nil
}

func (repo *SubscriptionRepository) ReplacePlans(ctx context.Context, plans []subscription.Plan) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	repo.plans = make(map[subscription.Tier]subscription.Plan, len(plans))
	for _, p := range plans {
		repo.plans[p.Tier] = p
	}
	return nil
}

func (repo *SubscriptionRepository) CreateUpgradeRequest(ctx context.Context, req subscription.UpgradeRequest) (subscription.UpgradeRequest, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	req.ID = uuid.New().String()
	repo.reqs[req.ID] = req
	return req, nil
}

func (repo *SubscriptionRepository) GetUpgradeRequest(ctx context.Context, id string) (subscription.UpgradeRequest, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	req, ok := repo.reqs[id]
	if !ok {
		return subscription.UpgradeRequest{}, subscription.ErrRequestNotFound
	}
	return req, nil
}

func (repo *SubscriptionRepository) GetOpenUpgradeRequestByTenant(ctx context.Context, tenantID string) (subscription.UpgradeRequest, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for _, req := range repo.reqs {
		if req.TenantID == tenantID && !req.Status.IsTerminal() {
			return req, nil
		}
	}
	return subscription.UpgradeRequest{}, subscription.ErrRequestNotFound
}

func (repo *SubscriptionRepository) QueryUpgradeRequests(ctx context.Context, filter *subscription.RequestFilter, ordering []core.DBOrdering) ([]subscription.UpgradeRequest, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	var reqs []subscription.UpgradeRequest
	for _, req := range repo.reqs {
		if filter != nil {
			if filter.TenantID != "" && req.TenantID != filter.TenantID {
				continue
			}
			if filter.Status != "" && req.Status != filter.Status {
				continue
			}
		}
		reqs = append(reqs, req)
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].RequestDate.After(reqs[j].RequestDate) })
	return reqs, nil
}

func (repo *SubscriptionRepository) UpdateUpgradeRequest(ctx context.Context, req subscription.UpgradeRequest) (subscription.UpgradeRequest, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.reqs[req.ID]; !ok {
		return subscription.UpgradeRequest{}, subscription.ErrRequestNotFound
	}
	repo.reqs[req.ID] = req
	return req, nil
}

func (repo *SubscriptionRepository) CreatePayment(ctx context.Context, p subscription.Payment) (subscription.Payment, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	p.ID = uuid.New().String()
	repo.pays = append(repo.pays, p)
	return p, nil
}

// GetPaymentByRequest returns the request's latest payment attempt.
func (repo *SubscriptionRepository) GetPaymentByRequest(ctx context.Context, requestID string) (subscription.Payment, error) {
	repo.mu.RLock()
	defer repo.mu.RUnlock()

	for i := len(repo.pays) - 1; i >= 0; i-- {
		if repo.pays[i].UpgradeRequestID == requestID {
			return repo.pays[i], nil
		}
	}
	return subscription.Payment{}, subscription.ErrPaymentNotFound
}

func (repo *SubscriptionRepository) UpdatePayment(ctx context.Context, p subscription.Payment) (subscription.Payment, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for i := range repo.pays {
		if repo.pays[i].ID == p.ID {
			repo.pays[i] = p
			return p, nil
		}
	}
	return subscription.Payment{}, subscription.ErrPaymentNotFound
}

func (repo *SubscriptionRepository) CompleteUpgrade(ctx context.Context, req subscription.UpgradeRequest, pay subscription.Payment, sub subscription.Subscription) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if repo.FailCompleteUpgrade != nil {
		return repo.FailCompleteUpgrade
	}
	repo.reqs[req.ID] = req
	for i := range repo.pays {
		if repo.pays[i].ID == pay.ID {
			repo.pays[i] = pay
		}
	}
	repo.subs[sub.TenantID] = sub
	return nil
}
