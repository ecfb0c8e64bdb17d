package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tasmiapp/tasmi/core/audit"
	"github.com/tasmiapp/tasmi/core/subscription"
	"github.com/tasmiapp/tasmi/core/user"
	testutil "github.com/tasmiapp/tasmi/tests"
)

func TestPricingApi_publicCatalog(t *testing.T) {
	app := setup(t)

	req, rec := newRequest(http.MethodGet, "/v1/pricing")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("pricing failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var plans []subscription.Plan
	if err := json.Unmarshal(rec.Body.Bytes(), &plans); err != nil {
		t.Fatalf("unmarshalling plans: %v", err)
	}
	if len(plans) != len(subscription.AllTiers) {
		t.Errorf("expected %d plans, got %d", len(subscription.AllTiers), len(plans))
	}
}

func TestSubscriptionApi_status(t *testing.T) {
	app := setup(t)

	tenant := testutil.CreateUser(t, usrRepo, "Madrasah", "madrasah1", "m1@madrasah.id", "pwd", user.TenantRoles, true)
	token := getToken(t, tenant)

	// no subscription record denies everything
	req, rec := newAuthRequest(http.MethodGet, "/v1/subscription", token)
	app.ServeHTTP(rec, req)
	tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "no subscription found"})}
	checkCodeAndData(t, tt, rec)

	startTrial(t, tenant.ID)

	req, rec = newAuthRequest(http.MethodGet, "/v1/subscription", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var status subscription.TenantStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("unmarshalling status: %v", err)
	}
	if status.Tier != subscription.TierTrial {
		t.Errorf("tier = %v; want %v", status.Tier, subscription.TierTrial)
	}
	if !status.CanUseApp {
		t.Error("expected a usable trial")
	}
	if status.TrialDaysRemaining == 0 {
		t.Error("expected remaining trial days")
	}
}

func TestSubscriptionApi_upgradeWorkflow(t *testing.T) {
	app := setup(t)

	tenant := testutil.CreateUser(t, usrRepo, "Madrasah", "madrasah1", "m1@madrasah.id", "pwd", user.TenantRoles, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@tasmi.app", "pwd", user.AdminRoles, true)
	startTrial(t, tenant.ID)

	tenantToken := getToken(t, tenant)
	adminToken := getToken(t, admin)

	// trial -> trial is not an upgrade
	req, rec := newAuthRequest(http.MethodPost, "/v1/subscription/upgrade", tenantToken,
		marchallObj(t, map[string]string{"requested_tier": "trial"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("downgrade: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	// open a pro upgrade request
	req, rec = newAuthRequest(http.MethodPost, "/v1/subscription/upgrade", tenantToken,
		marchallObj(t, map[string]string{"requested_tier": "pro"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upgrade request failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var upReq subscription.UpgradeRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &upReq); err != nil {
		t.Fatalf("unmarshalling request: %v", err)
	}
	if upReq.Status != subscription.RequestPending {
		t.Errorf("status = %v; want %v", upReq.Status, subscription.RequestPending)
	}
	if upReq.AmountIDR != 99000 {
		t.Errorf("amount = %v; want 99000", upReq.AmountIDR)
	}

	// only one open request at a time
	req, rec = newAuthRequest(http.MethodPost, "/v1/subscription/upgrade", tenantToken,
		marchallObj(t, map[string]string{"requested_tier": "premium"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("second open request: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	// tenants cannot reach the back office
	req, rec = newAuthRequest(http.MethodPost, "/v1/admin/upgrade-requests/"+upReq.ID+"/approve", tenantToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("tenant approve: code = %v; want %v", rec.Code, http.StatusForbidden)
	}

	// complete-payment before approval is an invalid transition
	req, rec = newAuthRequest(http.MethodPost, "/v1/admin/upgrade-requests/"+upReq.ID+"/complete-payment", adminToken)
	app.ServeHTTP(rec, req)
	tt := httpTest{wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "invalid upgrade request transition"})}
	checkCodeAndData(t, tt, rec)

	// approve
	req, rec = newAuthRequest(http.MethodPost, "/v1/admin/upgrade-requests/"+upReq.ID+"/approve", adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}

	// start payment
	req, rec = newAuthRequest(http.MethodPost, "/v1/admin/upgrade-requests/"+upReq.ID+"/start-payment", adminToken,
		marchallObj(t, map[string]string{"method": "bank_transfer", "reference": "TRX-001"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("start-payment failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}

	// complete payment: request, payment and subscription flip together
	req, rec = newAuthRequest(http.MethodPost, "/v1/admin/upgrade-requests/"+upReq.ID+"/complete-payment", adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete-payment failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &upReq); err != nil {
		t.Fatalf("unmarshalling request: %v", err)
	}
	if upReq.Status != subscription.RequestCompleted {
		t.Errorf("status = %v; want %v", upReq.Status, subscription.RequestCompleted)
	}

	sub, err := subRepo.GetSubscriptionByTenant(context.Background(), tenant.ID)
	if err != nil {
		t.Fatalf("GetSubscriptionByTenant() failed: %v", err)
	}
	if sub.Tier != subscription.TierPro {
		t.Errorf("tier = %v; want %v", sub.Tier, subscription.TierPro)
	}
	if sub.TrialEndDate != nil {
		t.Error("expected trial end date to be cleared")
	}

	// completed requests are terminal
	req, rec = newAuthRequest(http.MethodPost, "/v1/admin/upgrade-requests/"+upReq.ID+"/approve", adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("approve completed: code = %v; want %v", rec.Code, http.StatusConflict)
	}

	// the workflow left an audit trail
	entries, err := auditRepo.QueryEntries(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("QueryEntries() failed: %v", err)
	}
	actions := make(map[string]bool, len(entries))
	for _, e := range entries {
		actions[e.Action] = true
		if e.ActorID != admin.ID {
			t.Errorf("actor = %v; want %v", e.ActorID, admin.ID)
		}
	}
	for _, action := range []string{"upgrade.approve", "upgrade.start_payment", "upgrade.complete"} {
		if !actions[action] {
			t.Errorf("missing audit action %q", action)
		}
	}
}

func TestAdminApi_rejectAndCancel(t *testing.T) {
	app := setup(t)

	tenant := testutil.CreateUser(t, usrRepo, "Madrasah", "madrasah1", "m1@madrasah.id", "pwd", user.TenantRoles, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@tasmi.app", "pwd", user.AdminRoles, true)
	startTrial(t, tenant.ID)

	tenantToken := getToken(t, tenant)
	adminToken := getToken(t, admin)

	req, rec := newAuthRequest(http.MethodPost, "/v1/subscription/upgrade", tenantToken,
		marchallObj(t, map[string]string{"requested_tier": "premium"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upgrade request failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var upReq subscription.UpgradeRequest
	if err := json.Unmarshal(rec.Body.Bytes(), &upReq); err != nil {
		t.Fatalf("unmarshalling request: %v", err)
	}

	// reject unblocks a new request
	req, rec = newAuthRequest(http.MethodPost, "/v1/admin/upgrade-requests/"+upReq.ID+"/reject", adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodPost, "/v1/subscription/upgrade", tenantToken,
		marchallObj(t, map[string]string{"requested_tier": "pro"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Errorf("request after reject: code = %v; want %v", rec.Code, http.StatusCreated)
	}

	// admin cancels the subscription; the tenant loses access
	req, rec = newAuthRequest(http.MethodPost, "/v1/admin/tenants/"+tenant.ID+"/cancel-subscription", adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	req, rec = newAuthRequest(http.MethodPost, "/v1/students", tenantToken, marchallObj(t, map[string]string{"name": "Ahmad"}))
	app.ServeHTTP(rec, req)
	tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "subscription is not active"})}
	checkCodeAndData(t, tt, rec)
}

func TestAdminApi_tenantsAndAudit(t *testing.T) {
	app := setup(t)

	tenant := testutil.CreateUser(t, usrRepo, "Madrasah", "madrasah1", "m1@madrasah.id", "pwd", user.TenantRoles, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@tasmi.app", "pwd", user.AdminRoles, true)
	startTrial(t, tenant.ID)

	adminToken := getToken(t, admin)

	req, rec := newAuthRequest(http.MethodGet, "/v1/admin/tenants", adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("tenants failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var accounts []struct {
		user.User
		Subscription *subscription.Subscription `json:"subscription"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &accounts); err != nil {
		t.Fatalf("unmarshalling accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("expected 1 tenant, got %d", len(accounts))
	}
	if accounts[0].ID != tenant.ID {
		t.Errorf("tenant ID = %v; want %v", accounts[0].ID, tenant.ID)
	}
	if accounts[0].Subscription == nil || accounts[0].Subscription.Tier != subscription.TierTrial {
		t.Errorf("expected a trial subscription, got %+v", accounts[0].Subscription)
	}

	// replacing pricing is audited and applies immediately
	plans := subscription.DefaultPlans()
	for i := range plans {
		if plans[i].Tier == subscription.TierPro {
			plans[i].PriceIDR = 120000
		}
	}
	req, rec = newAuthRequest(http.MethodPut, "/v1/admin/pricing", adminToken, marchallObj(t, map[string]interface{}{"plans": plans}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("replace pricing failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}

	// a partial catalog is rejected
	req, rec = newAuthRequest(http.MethodPut, "/v1/admin/pricing", adminToken,
		marchallObj(t, map[string]interface{}{"plans": plans[:2]}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("partial catalog: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/admin/audit?action=pricing.replace", adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("audit failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var entries []audit.Entry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("unmarshalling entries: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 audit entry, got %d", len(entries))
	}
}
