package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JoeyLyman/yaycsa/api/middleware"
	"github.com/JoeyLyman/yaycsa/internal/fulfillment"
	"github.com/JoeyLyman/yaycsa/internal/offers"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	pkgerrors "github.com/JoeyLyman/yaycsa/pkg/errors"
	"github.com/JoeyLyman/yaycsa/pkg/outbox"
)

func adminRequest(method, target, body string, channel *models.Channel, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	ctx = middleware.WithIdentity(ctx, middleware.Identity{UserID: uuid.New(), Role: enums.ActorRoleAdmin})
	if channel != nil {
		ctx = middleware.WithChannel(ctx, channel)
	}
	return req.WithContext(ctx)
}

type stubOffers struct {
	listParams offers.ListParams
	create     offers.CreateOfferInput
	update     offers.UpdateOfferInput
	actor      *outbox.ActorRef
	prefill    *offers.OfferDTO
	err        error
}

func (s *stubOffers) List(_ context.Context, _ uuid.UUID, params offers.ListParams) (*offers.ListResult, error) {
	s.listParams = params
	return &offers.ListResult{Items: []offers.OfferDTO{}}, s.err
}

func (s *stubOffers) Get(_ context.Context, _ uuid.UUID, id uuid.UUID) (*offers.OfferDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &offers.OfferDTO{ID: id}, nil
}

func (s *stubOffers) Create(_ context.Context, _ *models.Channel, input offers.CreateOfferInput) (*offers.OfferDTO, error) {
	s.create = input
	return &offers.OfferDTO{ID: uuid.New(), Status: enums.OfferStatusDraft}, s.err
}

func (s *stubOffers) Update(_ context.Context, _ uuid.UUID, input offers.UpdateOfferInput) (*offers.OfferDTO, error) {
	s.update = input
	return &offers.OfferDTO{ID: input.ID}, s.err
}

func (s *stubOffers) transition(status enums.OfferStatus) func(context.Context, uuid.UUID, uuid.UUID, *outbox.ActorRef) (*offers.OfferDTO, error) {
	return func(_ context.Context, _ uuid.UUID, id uuid.UUID, actor *outbox.ActorRef) (*offers.OfferDTO, error) {
		s.actor = actor
		if s.err != nil {
			return nil, s.err
		}
		return &offers.OfferDTO{ID: id, Status: status}, nil
	}
}

func (s *stubOffers) Activate(ctx context.Context, channelID, id uuid.UUID, actor *outbox.ActorRef) (*offers.OfferDTO, error) {
	return s.transition(enums.OfferStatusActive)(ctx, channelID, id, actor)
}

func (s *stubOffers) Pause(ctx context.Context, channelID, id uuid.UUID, actor *outbox.ActorRef) (*offers.OfferDTO, error) {
	return s.transition(enums.OfferStatusPaused)(ctx, channelID, id, actor)
}

func (s *stubOffers) Expire(ctx context.Context, channelID, id uuid.UUID, actor *outbox.ActorRef) (*offers.OfferDTO, error) {
	return s.transition(enums.OfferStatusExpired)(ctx, channelID, id, actor)
}

func (s *stubOffers) PrefillData(context.Context, uuid.UUID) (*offers.OfferDTO, error) {
	return s.prefill, s.err
}

func TestListOffersParsesFilters(t *testing.T) {
	svc := &stubOffers{}
	sellerID := uuid.New()
	channel := &models.Channel{ID: uuid.New()}

	resp := httptest.NewRecorder()
	ListOffers(svc, nil).ServeHTTP(resp, adminRequest(http.MethodGet, "/offers?status=active&limit=10&sellerId="+sellerID.String(), "", channel, nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.listParams.Status == nil || *svc.listParams.Status != enums.OfferStatusActive {
		t.Fatalf("expected active status filter, got %v", svc.listParams.Status)
	}
	if svc.listParams.Limit != 10 || svc.listParams.SellerID == nil || *svc.listParams.SellerID != sellerID {
		t.Fatalf("unexpected params %+v", svc.listParams)
	}

	resp = httptest.NewRecorder()
	ListOffers(svc, nil).ServeHTTP(resp, adminRequest(http.MethodGet, "/offers?status=bogus", "", channel, nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", resp.Code)
	}
}

func TestCreateOfferDecodesBody(t *testing.T) {
	svc := &stubOffers{}
	variantID := uuid.New()
	body := `{"validFrom":"2026-05-01T00:00:00Z","fulfillmentOptionIds":[],"lineItems":[{"productVariantId":"` + variantID.String() + `","price":500,"pricingMode":"case","priceTiers":[{"quantity":12,"casePrice":4800}]}]}`

	resp := httptest.NewRecorder()
	CreateOffer(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPost, "/offers", body, &models.Channel{ID: uuid.New()}, nil))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if !svc.create.ValidFrom.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)) || len(svc.create.LineItems) != 1 {
		t.Fatalf("unexpected create input %+v", svc.create)
	}
	if item := svc.create.LineItems[0]; item.ProductVariantID != variantID || item.PricingMode == nil || *item.PricingMode != enums.PricingModeCase {
		t.Fatalf("unexpected line item %+v", item)
	}

	resp = httptest.NewRecorder()
	CreateOffer(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPost, "/offers", `{"lineItems":[{"price":-1}]}`, &models.Channel{ID: uuid.New()}, nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpdateOfferUsesRouteID(t *testing.T) {
	svc := &stubOffers{}
	id := uuid.New()
	resp := httptest.NewRecorder()
	UpdateOffer(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPatch, "/offers/"+id.String(), `{"notes":null,"validUntil":"2026-06-01T00:00:00Z"}`, &models.Channel{ID: uuid.New()}, map[string]string{"id": id.String()}))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.update.ID != id {
		t.Fatalf("expected id %s got %s", id, svc.update.ID)
	}
	if !svc.update.Notes.Set || svc.update.Notes.Value != nil {
		t.Fatalf("expected explicit null notes, got %+v", svc.update.Notes)
	}
	if !svc.update.ValidUntil.Set || svc.update.ValidUntil.Value == nil {
		t.Fatalf("expected validUntil to be set")
	}
}

func TestTransitionOfferPassesActor(t *testing.T) {
	svc := &stubOffers{}
	id := uuid.New()
	resp := httptest.NewRecorder()
	TransitionOffer(svc.Pause, nil).ServeHTTP(resp, adminRequest(http.MethodPost, "/offers/"+id.String()+"/pause", "", &models.Channel{ID: uuid.New()}, map[string]string{"id": id.String()}))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var dto offers.OfferDTO
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal(env.Data, &dto); err != nil || dto.Status != enums.OfferStatusPaused {
		t.Fatalf("expected paused offer, got %s", env.Data)
	}
	if svc.actor == nil || svc.actor.UserID == nil || svc.actor.Role != "admin" {
		t.Fatalf("expected admin actor, got %+v", svc.actor)
	}

	missing := &stubOffers{err: pkgerrors.Newf(pkgerrors.CodeNotFound, "Offer with id '%s' not found", id)}
	resp = httptest.NewRecorder()
	TransitionOffer(missing.Activate, nil).ServeHTTP(resp, adminRequest(http.MethodPost, "/", "", &models.Channel{ID: uuid.New()}, map[string]string{"id": id.String()}))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestOfferPrefillNull(t *testing.T) {
	resp := httptest.NewRecorder()
	OfferPrefill(&stubOffers{}, nil).ServeHTTP(resp, adminRequest(http.MethodGet, "/offers/prefill", "", &models.Channel{ID: uuid.New()}, nil))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"data":null`) {
		t.Fatalf("expected null prefill, got %d %s", resp.Code, resp.Body.String())
	}
}

func TestAdminHandlersRequireChannel(t *testing.T) {
	resp := httptest.NewRecorder()
	ListOffers(&stubOffers{}, nil).ServeHTTP(resp, adminRequest(http.MethodGet, "/offers", "", nil, nil))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without channel context, got %d", resp.Code)
	}
}

type stubFulfillment struct {
	create fulfillment.CreateInput
	update fulfillment.UpdateInput
	params fulfillment.ListParams
}

func (s *stubFulfillment) List(_ context.Context, _ uuid.UUID, params fulfillment.ListParams) (*fulfillment.ListResult, error) {
	s.params = params
	return &fulfillment.ListResult{Items: []fulfillment.OptionDTO{}}, nil
}

func (s *stubFulfillment) Get(_ context.Context, _ uuid.UUID, id uuid.UUID) (*fulfillment.OptionDTO, error) {
	return &fulfillment.OptionDTO{ID: id}, nil
}

func (s *stubFulfillment) Create(_ context.Context, _ *models.Channel, input fulfillment.CreateInput) (*fulfillment.OptionDTO, error) {
	s.create = input
	return &fulfillment.OptionDTO{ID: uuid.New(), Code: input.Code}, nil
}

func (s *stubFulfillment) Update(_ context.Context, _ uuid.UUID, input fulfillment.UpdateInput) (*fulfillment.OptionDTO, error) {
	s.update = input
	return &fulfillment.OptionDTO{ID: input.ID}, nil
}

func (s *stubFulfillment) Delete(_ context.Context, _ uuid.UUID, id uuid.UUID) (*fulfillment.DeletionResponse, error) {
	return &fulfillment.DeletionResponse{Result: fulfillment.Deleted}, nil
}

func TestFulfillmentOptionHandlers(t *testing.T) {
	svc := &stubFulfillment{}
	channel := &models.Channel{ID: uuid.New()}

	resp := httptest.NewRecorder()
	CreateFulfillmentOption(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPost, "/fulfillment-options", `{"code":"stand","name":"Farm stand","type":"pickup","recurrence":"weekly"}`, channel, nil))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.create.Code != "stand" || svc.create.Recurrence == nil || *svc.create.Recurrence != enums.RecurrenceWeekly {
		t.Fatalf("unexpected create input %+v", svc.create)
	}

	resp = httptest.NewRecorder()
	CreateFulfillmentOption(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPost, "/fulfillment-options", `{"name":"No code"}`, channel, nil))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}

	id := uuid.New()
	resp = httptest.NewRecorder()
	UpdateFulfillmentOption(svc, nil).ServeHTTP(resp, adminRequest(http.MethodPatch, "/", `{"description":null,"active":false}`, channel, map[string]string{"id": id.String()}))
	if resp.Code != http.StatusOK || svc.update.ID != id || !svc.update.Description.Set || svc.update.Active == nil || *svc.update.Active {
		t.Fatalf("unexpected update %d %+v", resp.Code, svc.update)
	}

	resp = httptest.NewRecorder()
	ListFulfillmentOptions(svc, nil).ServeHTTP(resp, adminRequest(http.MethodGet, "/fulfillment-options?limit=5&cursor=abc", "", channel, nil))
	if resp.Code != http.StatusOK || svc.params.Limit != 5 || svc.params.Cursor != "abc" {
		t.Fatalf("unexpected list %d %+v", resp.Code, svc.params)
	}

	resp = httptest.NewRecorder()
	DeleteFulfillmentOption(svc, nil).ServeHTTP(resp, adminRequest(http.MethodDelete, "/", "", channel, map[string]string{"id": id.String()}))
	if resp.Code != http.StatusOK || !strings.Contains(resp.Body.String(), `"DELETED"`) {
		t.Fatalf("unexpected delete response %d %s", resp.Code, resp.Body.String())
	}
}
