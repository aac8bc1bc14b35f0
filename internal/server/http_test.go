package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PerpGateway/internal/observability"
	"PerpGateway/internal/orchestrator"
	"PerpGateway/internal/server"
	"PerpGateway/internal/venue"
	"PerpGateway/internal/venue/venuetest"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const feeStr = "100000000000000"

type webFixture struct {
	t      *testing.T
	router http.Handler
	owner  uuid.UUID
	user   uuid.UUID
}

type stoppedClock struct {
	now time.Time
}

func (c *stoppedClock) Now() time.Time { return c.now }

func newWebFixture(t *testing.T) (*webFixture, *stoppedClock, *venuetest.Fake) {
	t.Helper()

	owner := uuid.New()
	user := uuid.New()
	fake := venuetest.New()
	clock := &stoppedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}

	orch := orchestrator.New(orchestrator.Config{
		Owner:  owner,
		Clock:  clock,
		Router: fake,
		Reader: fake,
		Logger: zerolog.Nop(),
	})

	health := observability.NewHealthChecker()
	health.SetReady(true)

	srv := server.New(orch, health, nil, zerolog.Nop())
	return &webFixture{t: t, router: srv.Router(), owner: owner, user: user}, clock, fake
}

func (f *webFixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	f.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			f.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *webFixture) setup() {
	f.t.Helper()

	rec := f.do(http.MethodPost, "/api/admin/whitelist/add", map[string]string{
		"caller_id": f.owner.String(),
		"user_id":   f.user.String(),
	})
	if rec.Code != http.StatusOK {
		f.t.Fatalf("whitelist: %d %s", rec.Code, rec.Body)
	}
	rec = f.do(http.MethodPost, "/api/accounts", map[string]string{"user_id": f.user.String()})
	if rec.Code != http.StatusCreated {
		f.t.Fatalf("create account: %d %s", rec.Code, rec.Body)
	}
	rec = f.do(http.MethodPost, "/api/margin/transfer", map[string]interface{}{
		"user_id": f.user.String(),
		"amount":  1_000_000,
	})
	if rec.Code != http.StatusOK {
		f.t.Fatalf("deposit: %d %s", rec.Code, rec.Body)
	}
}

func (f *webFixture) openBody(margin int64) map[string]interface{} {
	return map[string]interface{}{
		"user_id":        f.user.String(),
		"index_asset":    "WETH",
		"is_long":        true,
		"margin":         margin,
		"size_delta":     "1000000",
		"execution_fee":  feeStr,
		"attached_value": feeStr,
	}
}

func TestHealthEndpoints(t *testing.T) {
	f, _, _ := newWebFixture(t)

	if rec := f.do(http.MethodGet, "/healthz", nil); rec.Code != http.StatusOK {
		t.Errorf("healthz = %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/readyz", nil); rec.Code != http.StatusOK {
		t.Errorf("readyz = %d", rec.Code)
	}
}

func TestOpenPositionFlow(t *testing.T) {
	f, _, _ := newWebFixture(t)
	f.setup()

	rec := f.do(http.MethodPost, "/api/positions/open", f.openBody(250_000))
	if rec.Code != http.StatusCreated {
		t.Fatalf("open = %d %s", rec.Code, rec.Body)
	}
	var resp struct {
		OrderKey string `json:"order_key"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.OrderKey == "" {
		t.Fatalf("order key missing: %s", rec.Body)
	}

	rec = f.do(http.MethodGet, "/api/users/"+f.user.String()+"/balance", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balance = %d", rec.Code)
	}
	var bal struct {
		Collateral int64 `json:"collateral"`
		Escrow     int64 `json:"escrow"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &bal); err != nil {
		t.Fatal(err)
	}
	if bal.Collateral != 750_000 || bal.Escrow != 250_000 {
		t.Errorf("balance = %+v", bal)
	}

	rec = f.do(http.MethodGet, "/api/orders/"+resp.OrderKey, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get order = %d", rec.Code)
	}
}

func TestStatusMapping(t *testing.T) {
	f, clock, _ := newWebFixture(t)
	f.setup()

	// non-whitelisted caller
	stranger := uuid.New()
	body := f.openBody(1000)
	body["user_id"] = stranger.String()
	if rec := f.do(http.MethodPost, "/api/positions/open", body); rec.Code != http.StatusForbidden {
		t.Errorf("non-whitelisted open = %d, want 403", rec.Code)
	}

	// duplicate account
	if rec := f.do(http.MethodPost, "/api/accounts", map[string]string{"user_id": f.user.String()}); rec.Code != http.StatusConflict {
		t.Errorf("duplicate account = %d, want 409", rec.Code)
	}

	// fee mismatch
	body = f.openBody(1000)
	body["attached_value"] = "1"
	if rec := f.do(http.MethodPost, "/api/positions/open", body); rec.Code != http.StatusBadRequest {
		t.Errorf("fee mismatch = %d, want 400", rec.Code)
	}

	// over-withdrawal
	rec := f.do(http.MethodPost, "/api/margin/withdraw", map[string]interface{}{
		"user_id": f.user.String(),
		"amount":  2_000_000,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("over-withdraw = %d, want 400", rec.Code)
	}

	// unknown order
	rec = f.do(http.MethodPost, "/api/orders/nope/cancel", map[string]string{"user_id": f.user.String()})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown order cancel = %d, want 404", rec.Code)
	}

	// early cancellation
	rec = f.do(http.MethodPost, "/api/positions/open", f.openBody(1000))
	if rec.Code != http.StatusCreated {
		t.Fatalf("open = %d %s", rec.Code, rec.Body)
	}
	var resp struct {
		OrderKey string `json:"order_key"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	rec = f.do(http.MethodPost, "/api/orders/"+resp.OrderKey+"/cancel", map[string]string{"user_id": f.user.String()})
	if rec.Code != http.StatusTooEarly {
		t.Errorf("early cancel = %d, want 425", rec.Code)
	}

	// after the delay the cancel succeeds
	clock.now = clock.now.Add(181 * time.Second)
	rec = f.do(http.MethodPost, "/api/orders/"+resp.OrderKey+"/cancel", map[string]string{"user_id": f.user.String()})
	if rec.Code != http.StatusOK {
		t.Errorf("late cancel = %d, want 200: %s", rec.Code, rec.Body)
	}

	// admin call by non-owner
	rec = f.do(http.MethodPost, "/api/admin/assets/add", map[string]string{
		"caller_id": f.user.String(),
		"symbol":    "ARB",
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-owner admin = %d, want 403", rec.Code)
	}
}

func TestCancelExecutedOrderReportsFinalized(t *testing.T) {
	f, clock, fake := newWebFixture(t)
	f.setup()

	rec := f.do(http.MethodPost, "/api/positions/open", f.openBody(1000))
	if rec.Code != http.StatusCreated {
		t.Fatalf("open = %d", rec.Code)
	}
	var resp struct {
		OrderKey string `json:"order_key"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if err := fake.ExecuteIncrease(venue.OrderKey(resp.OrderKey)); err != nil {
		t.Fatal(err)
	}

	clock.now = clock.now.Add(181 * time.Second)
	rec = f.do(http.MethodPost, "/api/orders/"+resp.OrderKey+"/cancel", map[string]string{"user_id": f.user.String()})
	if rec.Code != http.StatusConflict {
		t.Fatalf("executed cancel = %d, want 409: %s", rec.Code, rec.Body)
	}
	var out struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Status != "finalized" {
		t.Errorf("status = %q, want finalized", out.Status)
	}
}

func TestAccountLookupEndpoint(t *testing.T) {
	f, _, _ := newWebFixture(t)
	f.setup()

	rec := f.do(http.MethodGet, "/api/users/"+f.user.String()+"/account", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get account = %d %s", rec.Code, rec.Body)
	}
	var out struct {
		Account string `json:"account"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Account == "" {
		t.Error("account missing from response")
	}

	rec = f.do(http.MethodGet, "/api/users/"+uuid.NewString()+"/account", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown user account = %d, want 404", rec.Code)
	}
}

func TestAssetsEndpoint(t *testing.T) {
	f, _, _ := newWebFixture(t)

	rec := f.do(http.MethodGet, "/api/assets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("assets = %d", rec.Code)
	}
	var out struct {
		Assets []string `json:"assets"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Assets) == 0 {
		t.Error("no default assets")
	}
}
