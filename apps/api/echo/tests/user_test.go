package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/tasmiapp/tasmi/core/subscription"
	"github.com/tasmiapp/tasmi/core/user"
	testutil "github.com/tasmiapp/tasmi/tests"
)

func TestUserApi_signup(t *testing.T) {
	app := setup(t)

	body := marchallObj(t, map[string]string{
		"name":             "Madrasah An-Nur",
		"email":            "annur@madrasah.id",
		"password":         "B4rakallahu#fik",
		"password_confirm": "B4rakallahu#fik",
	})
	req, rec := newRequest(http.MethodPost, "/v1/users/signup", body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("signup failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var usr user.User
	if err := json.Unmarshal(rec.Body.Bytes(), &usr); err != nil {
		t.Fatalf("unmarshalling user: %v", err)
	}
	if !usr.IsTenant() {
		t.Errorf("expected tenant roles, got %v", usr.Roles)
	}

	// a trial subscription is started alongside
	sub, err := subRepo.GetSubscriptionByTenant(context.Background(), usr.ID)
	if err != nil {
		t.Fatalf("GetSubscriptionByTenant() failed: %v", err)
	}
	if sub.Tier != subscription.TierTrial {
		t.Errorf("tier = %v; want %v", sub.Tier, subscription.TierTrial)
	}
	if sub.TrialEndDate == nil {
		t.Error("expected a trial end date")
	}

	// same email cannot sign up twice
	req, rec = newRequest(http.MethodPost, "/v1/users/signup", body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("duplicate signup: code = %v; want %v", rec.Code, http.StatusBadRequest)
	}
}

func TestUserApi_login(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Madrasah Al-Hikmah", "alhikmah", "hikmah@madrasah.id", "L0ve&Quran!", user.TenantRoles, true)

	tests := []httpTest{
		{
			name:     "empty credentials",
			body:     marchallObj(t, map[string]string{}),
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown user",
			body:     marchallObj(t, map[string]string{"username": "lol", "password": "lol"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, map[string]string{"username": usr.Username, "password": "lol"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "login with username",
			body:     marchallObj(t, map[string]string{"username": usr.Username, "password": "L0ve&Quran!"}),
			wantCode: http.StatusOK,
		},
		{
			name:     "login with email",
			body:     marchallObj(t, map[string]string{"username": usr.Email, "password": "L0ve&Quran!"}),
			wantCode: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body = %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			if tt.wantCode == http.StatusOK {
				var resp struct {
					Token string `json:"token"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("unmarshalling token: %v", err)
				}
				if resp.Token == "" {
					t.Error("expected a token")
				}
			} else if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
			}
		})
	}
}

func TestUserApi_adminOnlyEndpoints(t *testing.T) {
	app := setup(t)

	tenant := testutil.CreateUser(t, usrRepo, "Madrasah", "madrasah1", "m1@madrasah.id", "pwd", user.TenantRoles, true)
	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin1", "admin@tasmi.app", "pwd", user.AdminRoles, true)

	tests := []httpTest{
		{
			name: "query users requires auth", method: http.MethodGet, path: "/v1/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "query users requires admin", method: http.MethodGet, path: "/v1/users",
			token: getToken(t, tenant), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "admin queries users", method: http.MethodGet, path: "/v1/users",
			token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallList(t, admin, tenant),
		},
		{
			name: "roles", method: http.MethodGet, path: "/v1/users/roles",
			token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, user.Roles),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestUserApi_tokenRefresh(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Madrasah", "madrasah1", "m1@madrasah.id", "pwd", user.TenantRoles, true)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", getToken(t, usr))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh failed! code = %v, body = %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshalling token: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
}
