package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/msvcdojo/accounts-service/internal/core/domain"
	"github.com/msvcdojo/accounts-service/internal/core/service"
	"github.com/msvcdojo/accounts-service/internal/infrastructure/db/memory"
	"github.com/msvcdojo/accounts-service/internal/infrastructure/http/handlers"
)

func newTestRouter(t *testing.T, secret string) *echo.Echo {
	t.Helper()
	repo := memory.NewAccountRepository()
	svc := service.NewAccountService(repo, nil, zerolog.Nop())
	return NewRouter(RouterConfig{
		Service:    svc,
		Checks:     map[string]handlers.Check{"memory": repo.Ping},
		JWTSecret:  secret,
		WriteRoles: []string{"admin"},
		Logger:     zerolog.Nop(),
		Registerer: prometheus.NewRegistry(),
	})
}

type response struct {
	code   int
	header http.Header
	body   map[string]any
}

func do(t *testing.T, e *echo.Echo, method, target, body string, headers ...string) response {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	resp := response{code: rec.Code, header: rec.Header()}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp.body); err != nil {
			t.Fatalf("%s %s: invalid json %q: %v", method, target, rec.Body.String(), err)
		}
	}
	return resp
}

func embeddedAccounts(t *testing.T, body map[string]any) []map[string]any {
	t.Helper()
	embedded, _ := body["_embedded"].(map[string]any)
	raw, ok := embedded["accounts"].([]any)
	if !ok {
		t.Fatalf("no _embedded.accounts in %v", body)
	}
	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.(map[string]any))
	}
	return out
}

func TestRouter_AccountLifecycle(t *testing.T) {
	e := newTestRouter(t, "")

	// Store alice(admin) then bob(null).
	r := do(t, e, http.MethodPost, "/accounts", `{"username":"alice","role":"admin"}`)
	if r.code != http.StatusCreated || r.body["id"] != float64(1) {
		t.Fatalf("create alice: %d %v", r.code, r.body)
	}
	if loc := r.header.Get(echo.HeaderLocation); loc != "/accounts/1" {
		t.Errorf("Location = %q", loc)
	}
	r = do(t, e, http.MethodPost, "/accounts", `{"username":"bob"}`)
	if r.code != http.StatusCreated || r.body["id"] != float64(2) {
		t.Fatalf("create bob: %d %v", r.code, r.body)
	}

	r = do(t, e, http.MethodGet, "/accounts/search/findByRole?role=admin", "")
	if got := embeddedAccounts(t, r.body); len(got) != 1 || got[0]["username"] != "alice" {
		t.Fatalf("findByRole admin = %v", got)
	}

	r = do(t, e, http.MethodGet, "/accounts/search/findByUsername?username=bob", "")
	if got := embeddedAccounts(t, r.body); len(got) != 1 || got[0]["id"] != float64(2) {
		t.Fatalf("findByUsername bob = %v", got)
	}

	if r = do(t, e, http.MethodDelete, "/accounts/1", ""); r.code != http.StatusNoContent {
		t.Fatalf("delete: %d", r.code)
	}

	r = do(t, e, http.MethodGet, "/accounts", "")
	if got := embeddedAccounts(t, r.body); len(got) != 1 || got[0]["username"] != "bob" {
		t.Fatalf("list after delete = %v", got)
	}

	r = do(t, e, http.MethodGet, "/accounts/1", "")
	if r.code != http.StatusNotFound || r.body["error"] != "account not found" {
		t.Fatalf("get deleted: %d %v", r.code, r.body)
	}
}

func TestRouter_UpdateAndPatch(t *testing.T) {
	e := newTestRouter(t, "")
	do(t, e, http.MethodPost, "/accounts", `{"username":"carol","role":"user"}`)

	r := do(t, e, http.MethodPut, "/accounts/1", `{"username":"caroline"}`)
	if r.code != http.StatusOK || r.body["username"] != "caroline" || r.body["role"] != nil {
		t.Fatalf("put: %d %v", r.code, r.body)
	}

	r = do(t, e, http.MethodPatch, "/accounts/1", `{"role":"admin"}`)
	if r.code != http.StatusOK || r.body["username"] != "caroline" || r.body["role"] != "admin" {
		t.Fatalf("patch role: %d %v", r.code, r.body)
	}

	r = do(t, e, http.MethodPatch, "/accounts/1", `{"role":null}`)
	if r.code != http.StatusOK || r.body["role"] != nil {
		t.Fatalf("patch clear: %d %v", r.code, r.body)
	}

	r = do(t, e, http.MethodPut, "/accounts/99", `{"username":"ghost"}`)
	if r.code != http.StatusNotFound {
		t.Fatalf("put missing: %d %v", r.code, r.body)
	}

	r = do(t, e, http.MethodPatch, "/accounts/1", `{"username":""}`)
	if r.code != http.StatusBadRequest {
		t.Fatalf("patch empty username: %d %v", r.code, r.body)
	}

	r = do(t, e, http.MethodGet, "/accounts", "")
	if got := embeddedAccounts(t, r.body); len(got) != 1 || got[0]["username"] != "caroline" {
		t.Fatalf("list after updates = %v", got)
	}
}

func TestRouter_BadRequests(t *testing.T) {
	e := newTestRouter(t, "")

	tests := []struct {
		method, target, body string
	}{
		{http.MethodPost, "/accounts", `{"role":"admin"}`},
		{http.MethodPost, "/accounts", `not json`},
		{http.MethodGet, "/accounts/abc", ""},
		{http.MethodGet, "/accounts/search/findByUsername", ""},
		{http.MethodGet, "/accounts/search/findByRole?role=", ""},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.method, tt.target), func(t *testing.T) {
			r := do(t, e, tt.method, tt.target, tt.body)
			if r.code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d %v", r.code, r.body)
			}
			if _, ok := r.body["error"]; !ok {
				t.Errorf("missing error envelope: %v", r.body)
			}
		})
	}
}

func TestRouter_DeleteAbsentIsNoContent(t *testing.T) {
	e := newTestRouter(t, "")
	for _, target := range []string{"/accounts/42", "/accounts/0", "/accounts/42"} {
		if r := do(t, e, http.MethodDelete, target, ""); r.code != http.StatusNoContent {
			t.Fatalf("DELETE %s: expected 204, got %d", target, r.code)
		}
	}
}

func TestRouter_EmptyRole(t *testing.T) {
	e := newTestRouter(t, "")

	r := do(t, e, http.MethodPost, "/accounts", `{"username":"dora","role":""}`)
	if role, ok := r.body["role"]; r.code != http.StatusCreated || !ok || role != "" {
		t.Fatalf("create: %d %v", r.code, r.body)
	}
	if r = do(t, e, http.MethodGet, "/accounts/1", ""); r.body["role"] != "" {
		t.Fatalf("get: %v", r.body)
	}
	if r = do(t, e, http.MethodGet, "/accounts/search/findByRole?role=", ""); r.code != http.StatusBadRequest {
		t.Fatalf("findByRole empty: %d %v", r.code, r.body)
	}
}

func TestRouter_WriteAuth(t *testing.T) {
	const secret = "secret"
	e := newTestRouter(t, secret)

	sign := func(role string) string {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"username": "ops", "role": role})
		s, err := tok.SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return "Bearer " + s
	}

	if r := do(t, e, http.MethodPost, "/accounts", `{"username":"alice"}`); r.code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", r.code)
	}
	if r := do(t, e, http.MethodPost, "/accounts", `{"username":"alice"}`, "Authorization", sign("user")); r.code != http.StatusForbidden {
		t.Fatalf("wrong role: %d", r.code)
	}
	if r := do(t, e, http.MethodPost, "/accounts", `{"username":"alice"}`, "Authorization", sign("admin")); r.code != http.StatusCreated {
		t.Fatalf("admin: %d %v", r.code, r.body)
	}
	if r := do(t, e, http.MethodGet, "/accounts/1", ""); r.code != http.StatusOK {
		t.Fatalf("reads stay open: %d", r.code)
	}
}

func TestRouter_Health(t *testing.T) {
	e := newTestRouter(t, "")

	if r := do(t, e, http.MethodGet, "/health", ""); r.code != http.StatusOK {
		t.Fatalf("liveness: %d", r.code)
	}
	r := do(t, e, http.MethodGet, "/health/ready", "")
	if r.code != http.StatusOK || r.body["status"] != "ok" {
		t.Fatalf("readiness: %d %v", r.code, r.body)
	}
}

func TestHTTPErrorHandler_Mapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
		msg  string
	}{
		{fmt.Errorf("x: %w", domain.ErrNotFound), http.StatusNotFound, "account not found"},
		{fmt.Errorf("%w: username is required", domain.ErrInvalidArgument), http.StatusBadRequest, "invalid argument: username is required"},
		{fmt.Errorf("find: %w: %w", domain.ErrStorage, errors.New("conn reset")), http.StatusBadGateway, "storage unavailable"},
		{echo.NewHTTPError(http.StatusUnauthorized, "invalid token"), http.StatusUnauthorized, "invalid token"},
		{errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}

	h := NewHTTPErrorHandler(zerolog.Nop())
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			h(tt.err, c)

			if rec.Code != tt.code {
				t.Fatalf("code = %d, want %d", rec.Code, tt.code)
			}
			var body errorResponse
			_ = json.Unmarshal(rec.Body.Bytes(), &body)
			if body.Error != tt.msg {
				t.Errorf("error = %q, want %q", body.Error, tt.msg)
			}
		})
	}
}

func TestHTTPErrorHandler_CommittedResponse(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	_ = c.NoContent(http.StatusNoContent)

	NewHTTPErrorHandler(zerolog.Nop())(errors.New("late"), c)

	if rec.Code != http.StatusNoContent || rec.Body.Len() != 0 {
		t.Fatalf("committed response was rewritten: %d %q", rec.Code, rec.Body.String())
	}
}
