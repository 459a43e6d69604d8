package gateway

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"linkhub-gateway/internal/apikey"
	"linkhub-gateway/internal/domain/entities"
	domainerrors "linkhub-gateway/internal/domain/errors"
	"linkhub-gateway/internal/domain/repositories"
	"linkhub-gateway/internal/ratelimit"
)

func TestParseBearer(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{"Bearer lh_abc", "lh_abc", false},
		{"bearer   lh_abc  ", "lh_abc", false},
		{"Basic dXNlcjpwYXNz", "", true},
		{"Bearer", "", true},
		{"Bearer    ", "", true},
		{"lh_abc", "", true},
	}
	for _, tt := range tests {
		got, err := ParseBearer(tt.header)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseBearer(%q) = %q, %v", tt.header, got, err)
		}
	}
}

// memKeys is a minimal key store keyed by hash.
type memKeys struct {
	byHash  map[string]*entities.APIKey
	touched chan string
	err     error
}

var _ repositories.APIKeyRepository = (*memKeys)(nil)

func (m *memKeys) Create(context.Context, *entities.APIKey, string) error { return nil }
func (m *memKeys) GetByID(context.Context, string) (*entities.APIKey, error) {
	return nil, domainerrors.ErrAPIKeyNotFound
}
func (m *memKeys) GetByHash(_ context.Context, h string) (*entities.APIKey, error) {
	if m.err != nil {
		return nil, m.err
	}
	k, ok := m.byHash[h]
	if !ok {
		return nil, domainerrors.ErrAPIKeyNotFound
	}
	return k, nil
}
func (m *memKeys) ListByProfile(context.Context, string) ([]entities.APIKey, error) { return nil, nil }
func (m *memKeys) Update(context.Context, string, repositories.APIKeyUpdate) error  { return nil }
func (m *memKeys) TouchLastUsed(_ context.Context, id string) error {
	m.touched <- id
	return nil
}
func (m *memKeys) Delete(context.Context, string) error { return nil }

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string, int) (ratelimit.Decision, error) {
	return ratelimit.Decision{Allowed: true}, errors.New("redis: connection refused")
}

func TestValidator(t *testing.T) {
	secret, hash, err := apikey.GenerateAPIKey()
	if err != nil {
		t.Fatal(err)
	}
	keys := &memKeys{
		byHash:  map[string]*entities.APIKey{hash: {ID: "k1", ProfileID: "p1", Permissions: []string{"read"}, RateLimit: 50, IsActive: true}},
		touched: make(chan string, 10),
	}
	bg := NewBackground(time.Second, nil)
	v := NewValidator(keys, ratelimit.NewMemoryLimiter(time.Minute), bg, nil)
	ctx := context.Background()

	res := v.Validate(ctx, "Bearer "+secret)
	if !res.Valid || res.ProfileID != "p1" || !res.Has("read") || res.Has("inquire") {
		t.Fatalf("unexpected result %+v", res)
	}
	bg.Wait()
	select {
	case id := <-keys.touched:
		if id != "k1" {
			t.Errorf("touched %q", id)
		}
	default:
		t.Error("expected last-used touch")
	}

	if res := v.Validate(ctx, "Bearer lh_"+hash); res.Valid || res.Error != "Invalid API key" {
		t.Errorf("unknown key: %+v", res)
	}
	if res := v.Validate(ctx, "Token "+secret); res.Valid {
		t.Errorf("wrong scheme accepted: %+v", res)
	}

	keys.byHash[hash].IsActive = false
	if res := v.Validate(ctx, "Bearer "+secret); res.Valid || res.Error != "API key is inactive" {
		t.Errorf("inactive key: %+v", res)
	}
}

func TestValidatorFailsOpenWhenLimiterErrors(t *testing.T) {
	secret, hash, _ := apikey.GenerateAPIKey()
	keys := &memKeys{
		byHash:  map[string]*entities.APIKey{hash: {ID: "k1", ProfileID: "p1", RateLimit: 50, IsActive: true}},
		touched: make(chan string, 10),
	}
	bg := NewBackground(time.Second, nil)
	v := NewValidator(keys, failingLimiter{}, bg, nil)
	if res := v.Validate(context.Background(), "Bearer "+secret); !res.Valid {
		t.Errorf("expected fail-open, got %+v", res)
	}
	bg.Wait()
}

func TestValidatorStoreError(t *testing.T) {
	secret, _, _ := apikey.GenerateAPIKey()
	keys := &memKeys{err: errors.New("disk I/O error"), touched: make(chan string, 1)}
	v := NewValidator(keys, nil, NewBackground(time.Second, nil), nil)
	res := v.Validate(context.Background(), "Bearer "+secret)
	if res.Valid || !res.Internal {
		t.Fatalf("store failure must be reported as internal: %+v", res)
	}

	g := New(newTestDispatcher(t, brokenProfiles{}), v, nil)
	out := g.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","id":9,"method":"tools/list"}`), "alice", "Bearer "+secret, "test")
	if out.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", out.Status)
	}
	if out.Response.Error == nil || out.Response.Error.Code != CodeInternalError {
		t.Fatalf("expected -32603, got %+v", out.Response.Error)
	}
	if string(out.Response.ID) != "9" {
		t.Errorf("id = %s", out.Response.ID)
	}
}

// panicKeys blows up on lookup.
type panicKeys struct{ memKeys }

func (p *panicKeys) GetByHash(context.Context, string) (*entities.APIKey, error) {
	panic("driver bug")
}

func TestGatewayRecoversKeyStorePanic(t *testing.T) {
	secret, _, _ := apikey.GenerateAPIKey()
	v := NewValidator(&panicKeys{}, nil, NewBackground(time.Second, nil), nil)
	g := New(newTestDispatcher(t, brokenProfiles{}), v, nil)

	var out *Outcome
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("panic escaped the gateway: %v", r)
			}
		}()
		out = g.Handle(context.Background(), []byte(`{"jsonrpc":"2.0","id":"p","method":"ping"}`), "alice", "Bearer "+secret, "test")
	}()

	if out.Status != http.StatusOK || out.Response.Error == nil || out.Response.Error.Code != CodeInternalError {
		t.Fatalf("unexpected outcome %d %+v", out.Status, out.Response)
	}
	if string(out.Response.ID) != `"p"` {
		t.Errorf("id = %s", out.Response.ID)
	}
	if out.Response.Error.Message != "Internal error" {
		t.Errorf("panic details leaked: %q", out.Response.Error.Message)
	}
}
