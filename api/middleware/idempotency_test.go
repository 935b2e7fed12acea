package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.data[key] = fmt.Sprint(value)
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	f.data[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "fake:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

const addItemPath = "/api/v1/shop/orders/active/offer-items"

func mutation(method, target, body, key string, id Identity) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if key != "" {
		req.Header.Set(idempotencyHeader, key)
	}
	return req.WithContext(WithIdentity(req.Context(), id))
}

func errorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode error body %q: %v", resp.Body.String(), err)
	}
	return payload.Error.Code
}

func TestIdempotencyTTL(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   time.Duration
		ok     bool
	}{
		{http.MethodPost, "/api/v1/shop/checkout", checkoutIdempotencyTTL, true},
		{http.MethodPost, addItemPath, defaultIdempotencyTTL, true},
		{http.MethodPatch, "/api/v1/shop/orders/active/lines/" + uuid.NewString(), defaultIdempotencyTTL, true},
		{http.MethodPost, "/api/admin/v1/offers/" + uuid.NewString() + "/pause", defaultIdempotencyTTL, true},
		{http.MethodPatch, "/api/admin/v1/offers/" + uuid.NewString(), 0, false},
		{http.MethodPost, "/api/admin/v1/offers/a/b/pause", 0, false},
		{http.MethodGet, "/api/v1/shop/orders/active", 0, false},
	}
	for _, tt := range tests {
		ttl, ok := idempotencyTTL(tt.method, tt.path)
		if ok != tt.ok || ttl != tt.want {
			t.Fatalf("%s %s: got (%v, %v) want (%v, %v)", tt.method, tt.path, ttl, ok, tt.want, tt.ok)
		}
	}
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	called := false
	handler := Idempotency(newFakeStore(), nil)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, mutation(http.MethodPost, addItemPath, `{"quantity":1}`, "", Identity{SessionToken: "g"}))

	if resp.Code != http.StatusBadRequest || called {
		t.Fatalf("expected 400 without running the handler, got %d called=%v", resp.Code, called)
	}
}

func TestIdempotencyReplaysPerCaller(t *testing.T) {
	store := newFakeStore()
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"code":"ORD-1"}}`))
	}))

	customer := uuid.New()
	buyer := Identity{UserID: uuid.New(), CustomerID: &customer}
	guest := Identity{SessionToken: "guest-1"}

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, mutation(http.MethodPost, addItemPath, `{"quantity":1}`, "abc", buyer))
	if first.Code != http.StatusCreated || first.Header().Get(replayHeader) != "" {
		t.Fatalf("first call should run the handler, got %d", first.Code)
	}

	// same client key from another caller is a separate request
	handler.ServeHTTP(httptest.NewRecorder(), mutation(http.MethodPost, addItemPath, `{"quantity":1}`, "abc", guest))

	replayed := httptest.NewRecorder()
	handler.ServeHTTP(replayed, mutation(http.MethodPost, addItemPath, `{"quantity":1}`, "abc", buyer))

	if calls != 2 {
		t.Fatalf("handler ran %d times, want 2", calls)
	}
	if replayed.Code != http.StatusCreated || replayed.Header().Get(replayHeader) != "true" {
		t.Fatalf("expected replayed 201, got %d headers=%v", replayed.Code, replayed.Header())
	}
	if replayed.Header().Get("Content-Type") != "application/json" || replayed.Body.String() != `{"data":{"code":"ORD-1"}}` {
		t.Fatalf("replay did not reproduce the response: %q", replayed.Body.String())
	}
}

func TestIdempotencyRejectsInFlightDuplicate(t *testing.T) {
	store := newFakeStore()
	var inner http.Handler
	mw := Idempotency(store, nil)
	nestedCode := 0
	inner = mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// a retry arriving while the first request is still running
		dup := httptest.NewRecorder()
		mw(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			t.Fatalf("duplicate must not reach the handler")
		})).ServeHTTP(dup, mutation(http.MethodPost, "/api/v1/shop/checkout", `{}`, "k1", Identity{SessionToken: "g"}))
		nestedCode = dup.Code
		w.WriteHeader(http.StatusOK)
	}))

	inner.ServeHTTP(httptest.NewRecorder(), mutation(http.MethodPost, "/api/v1/shop/checkout", `{}`, "k1", Identity{SessionToken: "g"}))

	if nestedCode != http.StatusConflict {
		t.Fatalf("expected in-flight duplicate to get 409, got %d", nestedCode)
	}
}

func TestIdempotencyReleasesKeyOnServerError(t *testing.T) {
	store := newFakeStore()
	status := http.StatusServiceUnavailable
	calls := 0
	handler := Idempotency(store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), mutation(http.MethodPost, "/api/v1/shop/checkout", `{}`, "retry-me", Identity{SessionToken: "g"}))
	if len(store.data) != 0 {
		t.Fatalf("expected key released after 503, store=%v", store.data)
	}

	status = http.StatusOK
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, mutation(http.MethodPost, "/api/v1/shop/checkout", `{}`, "retry-me", Identity{SessionToken: "g"}))
	if resp.Code != http.StatusOK || calls != 2 {
		t.Fatalf("retry should run the handler again, got %d calls=%d", resp.Code, calls)
	}
}

func TestIdempotencyDetectsDifferentRequest(t *testing.T) {
	handler := Idempotency(newFakeStore(), nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	guest := Identity{SessionToken: "g"}

	handler.ServeHTTP(httptest.NewRecorder(), mutation(http.MethodPost, addItemPath, `{"quantity":1}`, "xyz", guest))

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, mutation(http.MethodPost, addItemPath, `{"quantity":2}`, "xyz", guest))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	if code := errorCode(t, resp); code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected %s got %s", pkgerrors.CodeIdempotency, code)
	}
}

func TestIdempotencyIgnoresUnlistedRoutes(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, mutation(http.MethodPatch, "/api/admin/v1/offers/"+uuid.NewString(), `{}`, "", Identity{}))
	if resp.Code != http.StatusOK || len(store.data) != 0 {
		t.Fatalf("unlisted route should pass through untouched, got %d store=%v", resp.Code, store.data)
	}
}
