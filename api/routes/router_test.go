package routes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/JoeyLyman/yaycsa/internal/customers"
	"github.com/JoeyLyman/yaycsa/internal/fulfillment"
	"github.com/JoeyLyman/yaycsa/internal/marketplace"
	"github.com/JoeyLyman/yaycsa/internal/offerorders"
	"github.com/JoeyLyman/yaycsa/internal/offers"
	"github.com/JoeyLyman/yaycsa/internal/orders"
	"github.com/JoeyLyman/yaycsa/pkg/auth"
	"github.com/JoeyLyman/yaycsa/pkg/config"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
	"github.com/JoeyLyman/yaycsa/pkg/metrics"
	"github.com/JoeyLyman/yaycsa/pkg/outbox"
)

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type memStore struct {
	data   map[string]string
	counts map[string]int64
}

func newMemStore() *memStore {
	return &memStore{data: map[string]string{}, counts: map[string]int64{}}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.counts[scope]++
	return m.counts[scope] <= limit, m.counts[scope], nil
}

type stubChannels struct {
	defaultChannel *models.Channel
	sellerChannels map[uuid.UUID]*models.Channel
}

func (s stubChannels) Resolve(context.Context, string) (*models.Channel, error) {
	return s.defaultChannel, nil
}

func (s stubChannels) SellerChannel(_ context.Context, sellerID uuid.UUID) (*models.Channel, error) {
	if ch, ok := s.sellerChannels[sellerID]; ok {
		return ch, nil
	}
	return nil, errors.New("no seller channel")
}

type stubOffers struct {
	listChannel uuid.UUID
}

func (s *stubOffers) List(_ context.Context, channelID uuid.UUID, _ offers.ListParams) (*offers.ListResult, error) {
	s.listChannel = channelID
	return &offers.ListResult{Items: []offers.OfferDTO{}}, nil
}

func (s *stubOffers) Get(_ context.Context, _ uuid.UUID, id uuid.UUID) (*offers.OfferDTO, error) {
	return &offers.OfferDTO{ID: id}, nil
}

func (s *stubOffers) ListActiveForBuyer(context.Context, uuid.UUID, customers.Buyer, *uuid.UUID) ([]offers.OfferDTO, error) {
	return []offers.OfferDTO{}, nil
}

func (s *stubOffers) OfferLineItemForBuyer(context.Context, customers.Buyer, uuid.UUID) (*offers.LineItemView, error) {
	return nil, nil
}

func (s *stubOffers) Create(context.Context, *models.Channel, offers.CreateOfferInput) (*offers.OfferDTO, error) {
	return &offers.OfferDTO{ID: uuid.New()}, nil
}

func (s *stubOffers) Update(_ context.Context, _ uuid.UUID, input offers.UpdateOfferInput) (*offers.OfferDTO, error) {
	return &offers.OfferDTO{ID: input.ID}, nil
}

func (s *stubOffers) Activate(_ context.Context, _ uuid.UUID, id uuid.UUID, _ *outbox.ActorRef) (*offers.OfferDTO, error) {
	return &offers.OfferDTO{ID: id, Status: enums.OfferStatusActive}, nil
}

func (s *stubOffers) Pause(_ context.Context, _ uuid.UUID, id uuid.UUID, _ *outbox.ActorRef) (*offers.OfferDTO, error) {
	return &offers.OfferDTO{ID: id, Status: enums.OfferStatusPaused}, nil
}

func (s *stubOffers) Expire(_ context.Context, _ uuid.UUID, id uuid.UUID, _ *outbox.ActorRef) (*offers.OfferDTO, error) {
	return &offers.OfferDTO{ID: id, Status: enums.OfferStatusExpired}, nil
}

func (s *stubOffers) PrefillData(context.Context, uuid.UUID) (*offers.OfferDTO, error) {
	return nil, nil
}

type stubOfferOrders struct {
	calls int
}

func (s *stubOfferOrders) AddOfferItem(context.Context, customers.Buyer, uuid.UUID, offerorders.AddOfferItemInput) (*orders.OrderDTO, error) {
	s.calls++
	return &orders.OrderDTO{ID: uuid.New()}, nil
}

func (s *stubOfferOrders) AdjustOfferItemQuantity(context.Context, customers.Buyer, offerorders.AdjustOfferItemInput) (*orders.OrderDTO, error) {
	s.calls++
	return &orders.OrderDTO{ID: uuid.New()}, nil
}

type stubOrders struct{}

func (stubOrders) Get(context.Context, customers.Buyer) (*orders.OrderDTO, error) {
	return nil, nil
}

type stubMarketplace struct{}

func (stubMarketplace) ListSellers(context.Context, bool) ([]marketplace.SellerDTO, error) {
	return []marketplace.SellerDTO{}, nil
}

func (stubMarketplace) SellerBySlug(context.Context, string) (*marketplace.SellerDTO, error) {
	return &marketplace.SellerDTO{}, nil
}

type stubFulfillment struct{}

func (stubFulfillment) List(context.Context, uuid.UUID, fulfillment.ListParams) (*fulfillment.ListResult, error) {
	return &fulfillment.ListResult{Items: []fulfillment.OptionDTO{}}, nil
}

func (stubFulfillment) Get(_ context.Context, _ uuid.UUID, id uuid.UUID) (*fulfillment.OptionDTO, error) {
	return &fulfillment.OptionDTO{ID: id}, nil
}

func (stubFulfillment) Create(context.Context, *models.Channel, fulfillment.CreateInput) (*fulfillment.OptionDTO, error) {
	return &fulfillment.OptionDTO{}, nil
}

func (stubFulfillment) Update(_ context.Context, _ uuid.UUID, input fulfillment.UpdateInput) (*fulfillment.OptionDTO, error) {
	return &fulfillment.OptionDTO{ID: input.ID}, nil
}

func (stubFulfillment) Delete(context.Context, uuid.UUID, uuid.UUID) (*fulfillment.DeletionResponse, error) {
	return &fulfillment.DeletionResponse{Result: fulfillment.Deleted}, nil
}

type testEnv struct {
	cfg         *config.Config
	router      http.Handler
	offers      *stubOffers
	offerOrders *stubOfferOrders
	defaultCh   *models.Channel
	sellerID    uuid.UUID
	sellerCh    *models.Channel
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", CORSOrigins: []string{"http://localhost:3000"}},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "yaycsa", ExpirationMinutes: 60},
		RateLimit: config.RateLimitConfig{
			OrderMutationWindow: time.Minute,
			OrderMutationLimit:  2,
		},
		Channels: config.ChannelsConfig{
			DefaultToken:  "__default_channel__",
			TokenHeader:   "X-Channel-Token",
			SessionHeader: "X-Session-Token",
		},
	}
}

func newTestEnv(t *testing.T, redisErr error) *testEnv {
	t.Helper()
	cfg := testConfig()
	sellerID := uuid.New()
	env := &testEnv{
		cfg:         cfg,
		offers:      &stubOffers{},
		offerOrders: &stubOfferOrders{},
		defaultCh:   &models.Channel{ID: uuid.New(), Code: "default"},
		sellerID:    sellerID,
		sellerCh:    &models.Channel{ID: uuid.New(), Code: "farm", SellerID: &sellerID},
	}
	reg := prometheus.NewRegistry()
	metrics.NewOrderMutationMetrics(reg).Observe("add_offer_item", "success", 10*time.Millisecond)

	logg := logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
	env.router = NewRouter(cfg, logg, Dependencies{
		DB:          stubPinger{},
		Redis:       stubPinger{err: redisErr},
		Store:       newMemStore(),
		Gatherer:    reg,
		Channels:    stubChannels{defaultChannel: env.defaultCh, sellerChannels: map[uuid.UUID]*models.Channel{sellerID: env.sellerCh}},
		Customers:   customerResolverFunc(func(context.Context, uuid.UUID) (*uuid.UUID, error) { return nil, nil }),
		Offers:      env.offers,
		Orders:      stubOrders{},
		OfferOrders: env.offerOrders,
		Marketplace: stubMarketplace{},
		Fulfillment: stubFulfillment{},
	})
	return env
}

type customerResolverFunc func(context.Context, uuid.UUID) (*uuid.UUID, error)

func (f customerResolverFunc) CustomerIDForUser(ctx context.Context, userID uuid.UUID) (*uuid.UUID, error) {
	return f(ctx, userID)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.ActorRole, sellerID *uuid.UUID) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{
		UserID:   uuid.New(),
		Role:     role,
		SellerID: sellerID,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthRoutes(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for live got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	env.router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for ready got %d: %s", resp.Code, resp.Body.String())
	}

	down := newTestEnv(t, errors.New("dial tcp: refused"))
	resp = httptest.NewRecorder()
	down.router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when redis is down got %d", resp.Code)
	}
}

func TestMetricsEndpointServesRegistry(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "add_offer_item") {
		t.Fatalf("expected order mutation series in output")
	}
}

func TestShopRoutesAllowGuests(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/shop/offers", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for guest offer listing got %d: %s", resp.Code, resp.Body.String())
	}

	resp = httptest.NewRecorder()
	env.router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/shop/orders/active", nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"data":null`) {
		t.Fatalf("expected null active order for anonymous caller, got %d %s", resp.Code, resp.Body.String())
	}
}

func TestShopMutationsRequireIdempotencyKeyAndAreRateLimited(t *testing.T) {
	env := newTestEnv(t, nil)
	body := fmt.Sprintf(`{"offerLineItemId":"%s","quantity":1}`, uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shop/orders/active/offer-items", strings.NewReader(body))
	req.Header.Set("X-Session-Token", "guest-1")
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/shop/orders/active/offer-items", strings.NewReader(body))
	req.Header.Set("X-Session-Token", "guest-1")
	req.Header.Set("Idempotency-Key", "add-1")
	resp = httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if env.offerOrders.calls != 1 {
		t.Fatalf("expected one mutation, got %d", env.offerOrders.calls)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/shop/orders/active/offer-items", strings.NewReader(body))
	req.Header.Set("X-Session-Token", "guest-1")
	req.Header.Set("Idempotency-Key", "add-2")
	resp = httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the window is spent got %d", resp.Code)
	}
}

func TestAdminRoutesRequireAdminOrSeller(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/admin/v1/offers", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/offers", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, env.cfg, enums.ActorRoleCustomer, nil))
	resp = httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for customers got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/offers", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, env.cfg, enums.ActorRoleAdmin, nil))
	resp = httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d: %s", resp.Code, resp.Body.String())
	}
	if env.offers.listChannel != env.defaultCh.ID {
		t.Fatalf("expected admin to list the default channel")
	}
}

func TestAdminSellerIsScopedToOwnChannel(t *testing.T) {
	env := newTestEnv(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/offers", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, env.cfg, enums.ActorRoleSeller, &env.sellerID))
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if env.offers.listChannel != env.sellerCh.ID {
		t.Fatalf("expected seller channel %s got %s", env.sellerCh.ID, env.offers.listChannel)
	}
}

func TestAdminOfferTransitionRoute(t *testing.T) {
	env := newTestEnv(t, nil)
	id := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/offers/"+id.String()+"/expire", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, env.cfg, enums.ActorRoleAdmin, nil))
	req.Header.Set("Idempotency-Key", "expire-1")
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"expired"`) {
		t.Fatalf("expected expired offer, got %d %s", resp.Code, resp.Body.String())
	}
}
