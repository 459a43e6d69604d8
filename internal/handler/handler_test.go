package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"linkhub-gateway/internal/database"
	"linkhub-gateway/internal/infrastructure/config"
	"linkhub-gateway/internal/infrastructure/di"
	"linkhub-gateway/internal/server"
	"linkhub-gateway/internal/testutil"
)

type testEnv struct {
	db  *database.Database
	c   *di.Container
	srv *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.OpenDB(t)
	testutil.SeedProfile(t, db, "alice", testutil.SeedOptions{WithServices: true})
	testutil.SeedProfile(t, db, "bob", testutil.SeedOptions{})

	cfg := config.Default()
	cfg.Gateway.BaseURL = "https://linkhub.test"
	cfg.Gateway.MaxBodyBytes = 4096

	c, err := di.New(cfg, db, nil)
	if err != nil {
		t.Fatalf("di.New: %v", err)
	}
	s := server.New()
	c.Handler.RegisterRoutes(s.Router)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		c.Close()
	})
	return &testEnv{db: db, c: c, srv: srv}
}

func (e *testEnv) do(t *testing.T, method, path, body string, header http.Header) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, e.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	return resp, raw
}

func (e *testEnv) rpc(t *testing.T, username, token, body string) (int, map[string]interface{}) {
	t.Helper()
	h := http.Header{"Content-Type": {"application/json"}}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	resp, raw := e.do(t, http.MethodPost, "/mcp/"+username, body, h)
	if len(raw) == 0 {
		return resp.StatusCode, nil
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return resp.StatusCode, out
}

func owner(username string) http.Header {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth(username, testutil.OwnerPassword)
	return http.Header{
		"Authorization": req.Header["Authorization"],
		"Content-Type":  {"application/json"},
	}
}

func decode(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return out
}

func rpcErrorCode(resp map[string]interface{}) int {
	e, _ := resp["error"].(map[string]interface{})
	code, _ := e["code"].(float64)
	return int(code)
}

func TestGatewayOverHTTP(t *testing.T) {
	e := newTestEnv(t)

	status, resp := e.rpc(t, "alice", "", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	if status != http.StatusOK {
		t.Fatalf("tools/list status = %d", status)
	}
	tools := resp["result"].(map[string]interface{})["tools"].([]interface{})
	if len(tools) != 5 {
		t.Errorf("expected 5 tools for alice, got %d", len(tools))
	}

	status, resp = e.rpc(t, "alice", "", `{"jsonrpc":"2.0","id":1,`)
	if status != http.StatusBadRequest || rpcErrorCode(resp) != -32700 || resp["id"].(float64) != 0 {
		t.Errorf("parse error: status %d resp %v", status, resp)
	}

	status, resp = e.rpc(t, "alice", "lh_nope", `{"jsonrpc":"2.0","id":2,"method":"ping"}`)
	if status != http.StatusUnauthorized || rpcErrorCode(resp) != -32001 {
		t.Errorf("invalid key: status %d resp %v", status, resp)
	}

	status, resp = e.rpc(t, "alice", "", `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	if status != http.StatusAccepted || resp != nil {
		t.Errorf("notification: status %d resp %v", status, resp)
	}
}

func TestGatewayRejectsOversizedBody(t *testing.T) {
	e := newTestEnv(t)
	big := `{"jsonrpc":"2.0","id":1,"method":"ping","params":{"pad":"` + strings.Repeat("x", 8192) + `"}}`
	status, resp := e.rpc(t, "alice", "", big)
	if status != http.StatusBadRequest || rpcErrorCode(resp) != -32700 {
		t.Fatalf("oversized body: status %d resp %v", status, resp)
	}

	// Rejected bodies still count as visits.
	e.c.Gateway.Wait()
	p, err := e.db.GetProfileByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatal(err)
	}
	a, err := e.db.GetVisitAnalytics(context.Background(), p.ID, database.AnalyticsTimeRange{
		Start: time.Now().Add(-time.Hour), End: time.Now().Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("GetVisitAnalytics: %v", err)
	}
	if a.TotalVisits != 1 || len(a.Methods) != 1 || a.Methods[0].Method != "unknown" {
		t.Errorf("expected one visit with method unknown, got %+v", a)
	}
}

func TestUnauthorizedCarriesChallenge(t *testing.T) {
	e := newTestEnv(t)
	resp, _ := e.do(t, http.MethodPost, "/mcp/alice", `{"jsonrpc":"2.0","id":1,"method":"ping"}`,
		http.Header{"Authorization": {"Bearer lh_bad"}})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("WWW-Authenticate"), "Bearer") {
		t.Errorf("missing bearer challenge: %q", resp.Header.Get("WWW-Authenticate"))
	}
}

func TestPreflightOnGatewayPath(t *testing.T) {
	e := newTestEnv(t)
	resp, _ := e.do(t, http.MethodOptions, "/mcp/alice", "", http.Header{
		"Origin":                        {"https://agent.example"},
		"Access-Control-Request-Method": {"POST"},
	})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status = %d", resp.StatusCode)
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("allow-origin = %q", resp.Header.Get("Access-Control-Allow-Origin"))
	}
}

func TestDiscoveryDocument(t *testing.T) {
	e := newTestEnv(t)
	resp, raw := e.do(t, http.MethodGet, "/.well-known/mcp.json", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	doc := decode(t, raw)
	if doc["endpoint"] != "https://linkhub.test/mcp/{username}" {
		t.Errorf("endpoint = %v", doc["endpoint"])
	}
	if tools, _ := doc["tools"].([]interface{}); len(tools) != 5 {
		t.Errorf("expected 5 tools, got %d", len(tools))
	}
	if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Error("discovery must be CORS-enabled")
	}
}

func TestAPIKeyLifecycle(t *testing.T) {
	e := newTestEnv(t)

	resp, raw := e.do(t, http.MethodPost, "/api/v1/profiles/alice/keys",
		`{"name":"assistant","permissions":["read","inquire"],"rate_limit":100}`, owner("alice"))
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d body %s", resp.StatusCode, raw)
	}
	data := decode(t, raw)["data"].(map[string]interface{})
	secret, _ := data["key"].(string)
	id, _ := data["id"].(string)
	if !strings.HasPrefix(secret, "lh_") || id == "" {
		t.Fatalf("unexpected create payload: %v", data)
	}

	call := `{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"send_message","arguments":{"name":"Ada","email":"ada@example.com","message":"hi"}}}`
	status, out := e.rpc(t, "alice", secret, call)
	if status != http.StatusOK {
		t.Fatalf("send_message status = %d: %v", status, out)
	}
	if isErr, _ := out["result"].(map[string]interface{})["isError"].(bool); isErr {
		t.Fatalf("send_message failed: %v", out)
	}

	resp, raw = e.do(t, http.MethodGet, "/api/v1/profiles/alice/keys", "", owner("alice"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	if bytes.Contains(raw, []byte(secret)) {
		t.Error("list must never return the raw key")
	}
	if n := decode(t, raw)["data"].(map[string]interface{})["count"].(float64); n != 1 {
		t.Errorf("count = %v", n)
	}

	resp, raw = e.do(t, http.MethodPatch, "/api/v1/profiles/alice/keys/"+id, `{"is_active":false}`, owner("alice"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch status = %d body %s", resp.StatusCode, raw)
	}
	if status, out = e.rpc(t, "alice", secret, call); status != http.StatusUnauthorized || rpcErrorCode(out) != -32001 {
		t.Errorf("inactive key: status %d resp %v", status, out)
	}

	resp, _ = e.do(t, http.MethodDelete, "/api/v1/profiles/alice/keys/"+id, "", owner("alice"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp, _ = e.do(t, http.MethodDelete, "/api/v1/profiles/alice/keys/"+id, "", owner("alice"))
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", resp.StatusCode)
	}

	resp, raw = e.do(t, http.MethodGet, "/api/v1/profiles/alice/inquiries?page=1&limit=10", "", owner("alice"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("inquiries status = %d", resp.StatusCode)
	}
	inq := decode(t, raw)["data"].(map[string]interface{})
	if inq["total"].(float64) != 1 {
		t.Errorf("expected one stored inquiry, got %v", inq)
	}
}

func TestAPIKeyValidationAndOwnership(t *testing.T) {
	e := newTestEnv(t)

	resp, raw := e.do(t, http.MethodPost, "/api/v1/profiles/alice/keys", `{"name":"x","rate_limit":7}`, owner("alice"))
	if resp.StatusCode != http.StatusBadRequest || decode(t, raw)["code"] != "VALIDATION_ERROR" {
		t.Errorf("bad rate limit: status %d body %s", resp.StatusCode, raw)
	}

	resp, _ = e.do(t, http.MethodPost, "/api/v1/profiles/alice/keys", `{"name":"x","bogus":1}`, owner("alice"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown field: status %d", resp.StatusCode)
	}

	resp, _ = e.do(t, http.MethodGet, "/api/v1/profiles/alice/keys", "", owner("bob"))
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("cross-owner: status %d, want 403", resp.StatusCode)
	}

	resp, _ = e.do(t, http.MethodGet, "/api/v1/profiles/alice/keys", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous: status %d, want 401", resp.StatusCode)
	}
}

func TestVisitAnalytics(t *testing.T) {
	e := newTestEnv(t)

	req, _ := http.NewRequest(http.MethodPost, e.srv.URL+"/mcp/alice", strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	req.Header.Set("User-Agent", "Claude-User/1.0")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	e.c.Gateway.Wait()

	resp, raw := e.do(t, http.MethodGet, "/api/v1/profiles/alice/visits?timeRange=24h", "", owner("alice"))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("visits status = %d body %s", resp.StatusCode, raw)
	}
	data := decode(t, raw)["data"].(map[string]interface{})
	if data["totalVisits"].(float64) != 1 {
		t.Errorf("totalVisits = %v", data["totalVisits"])
	}
	agents := data["agents"].([]interface{})
	if len(agents) != 1 || agents[0].(map[string]interface{})["agentName"] != "Claude" {
		t.Errorf("agents = %v", agents)
	}

	resp, _ = e.do(t, http.MethodGet, "/api/v1/profiles/alice/visits?timeRange=2w", "", owner("alice"))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad time range: status %d", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	e := newTestEnv(t)

	resp, raw := e.do(t, http.MethodGet, "/api/v1/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health status = %d", resp.StatusCode)
	}
	if decode(t, raw)["data"].(map[string]interface{})["status"] != "healthy" {
		t.Errorf("health body %s", raw)
	}

	e.rpc(t, "alice", "", `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	resp, raw = e.do(t, http.MethodGet, "/metrics", "", nil)
	if resp.StatusCode != http.StatusOK || !bytes.Contains(raw, []byte("linkhub_gateway_requests_total")) {
		t.Errorf("metrics status %d missing gateway counter", resp.StatusCode)
	}
}
