package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JoeyLyman/yaycsa/api/controllers"
	"github.com/JoeyLyman/yaycsa/api/controllers/admin"
	"github.com/JoeyLyman/yaycsa/api/controllers/shop"
	"github.com/JoeyLyman/yaycsa/api/middleware"
	checkoutsvc "github.com/JoeyLyman/yaycsa/internal/checkout"
	"github.com/JoeyLyman/yaycsa/internal/customers"
	"github.com/JoeyLyman/yaycsa/internal/fulfillment"
	"github.com/JoeyLyman/yaycsa/internal/marketplace"
	"github.com/JoeyLyman/yaycsa/internal/offerorders"
	"github.com/JoeyLyman/yaycsa/internal/offers"
	"github.com/JoeyLyman/yaycsa/internal/orders"
	"github.com/JoeyLyman/yaycsa/pkg/config"
	"github.com/JoeyLyman/yaycsa/pkg/db/models"
	"github.com/JoeyLyman/yaycsa/pkg/enums"
	"github.com/JoeyLyman/yaycsa/pkg/logger"
	"github.com/JoeyLyman/yaycsa/pkg/outbox"
	pkgredis "github.com/JoeyLyman/yaycsa/pkg/redis"
)

// ChannelService resolves request channels and seller channels.
type ChannelService interface {
	Resolve(ctx context.Context, token string) (*models.Channel, error)
	SellerChannel(ctx context.Context, sellerID uuid.UUID) (*models.Channel, error)
}

type OfferService interface {
	List(ctx context.Context, channelID uuid.UUID, params offers.ListParams) (*offers.ListResult, error)
	Get(ctx context.Context, channelID, id uuid.UUID) (*offers.OfferDTO, error)
	ListActiveForBuyer(ctx context.Context, channelID uuid.UUID, buyer customers.Buyer, sellerID *uuid.UUID) ([]offers.OfferDTO, error)
	OfferLineItemForBuyer(ctx context.Context, buyer customers.Buyer, id uuid.UUID) (*offers.LineItemView, error)
	Create(ctx context.Context, channel *models.Channel, input offers.CreateOfferInput) (*offers.OfferDTO, error)
	Update(ctx context.Context, channelID uuid.UUID, input offers.UpdateOfferInput) (*offers.OfferDTO, error)
	Activate(ctx context.Context, channelID, id uuid.UUID, actor *outbox.ActorRef) (*offers.OfferDTO, error)
	Pause(ctx context.Context, channelID, id uuid.UUID, actor *outbox.ActorRef) (*offers.OfferDTO, error)
	Expire(ctx context.Context, channelID, id uuid.UUID, actor *outbox.ActorRef) (*offers.OfferDTO, error)
	PrefillData(ctx context.Context, channelID uuid.UUID) (*offers.OfferDTO, error)
}

type OrderReader interface {
	Get(ctx context.Context, owner customers.Buyer) (*orders.OrderDTO, error)
}

type OfferOrderService interface {
	AddOfferItem(ctx context.Context, buyer customers.Buyer, channelID uuid.UUID, input offerorders.AddOfferItemInput) (*orders.OrderDTO, error)
	AdjustOfferItemQuantity(ctx context.Context, buyer customers.Buyer, input offerorders.AdjustOfferItemInput) (*orders.OrderDTO, error)
}

type MarketplaceService interface {
	ListSellers(ctx context.Context, activeOffersOnly bool) ([]marketplace.SellerDTO, error)
	SellerBySlug(ctx context.Context, slug string) (*marketplace.SellerDTO, error)
}

type FulfillmentService interface {
	List(ctx context.Context, channelID uuid.UUID, params fulfillment.ListParams) (*fulfillment.ListResult, error)
	Get(ctx context.Context, channelID, id uuid.UUID) (*fulfillment.OptionDTO, error)
	Create(ctx context.Context, channel *models.Channel, input fulfillment.CreateInput) (*fulfillment.OptionDTO, error)
	Update(ctx context.Context, channelID uuid.UUID, input fulfillment.UpdateInput) (*fulfillment.OptionDTO, error)
	Delete(ctx context.Context, channelID, id uuid.UUID) (*fulfillment.DeletionResponse, error)
}

// RequestStore backs idempotency records and rate-limit windows.
type RequestStore interface {
	pkgredis.IdempotencyStore
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// Dependencies carries everything the router hands to middleware and
// controllers.
type Dependencies struct {
	DB          controllers.Pinger
	Redis       controllers.Pinger
	Store       RequestStore
	Gatherer    prometheus.Gatherer
	HTTPMetrics middleware.RequestObserver
	Channels    ChannelService
	Customers   middleware.CustomerResolver
	Offers      OfferService
	Orders      OrderReader
	OfferOrders OfferOrderService
	Checkout    checkoutsvc.Service
	Marketplace MarketplaceService
	Fulfillment FulfillmentService
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins, cfg.Channels.TokenHeader, cfg.Channels.SessionHeader),
	)

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	store := deps.Store
	orderMutations := middleware.NewRateLimitPolicy("order_mutation", cfg.RateLimit.OrderMutationWindow, cfg.RateLimit.OrderMutationLimit)

	r.Route("/api/v1/shop", func(r chi.Router) {
		r.Use(middleware.OptionalAuth(cfg.JWT, cfg.Channels.SessionHeader, deps.Customers, logg))
		r.Use(middleware.Channel(cfg.Channels.TokenHeader, deps.Channels, logg))
		if store != nil {
			r.Use(middleware.RateLimit(orderMutations, store, logg))
			r.Use(middleware.Idempotency(store, logg))
		}

		r.Get("/offers", shop.ListOffers(deps.Offers, logg))
		r.Get("/offer-line-items/{id}", shop.OfferLineItem(deps.Offers, logg))
		r.Get("/sellers", shop.ListSellers(deps.Marketplace, logg))
		r.Get("/sellers/{slug}", shop.SellerBySlug(deps.Marketplace, logg))

		r.Route("/orders/active", func(r chi.Router) {
			r.Get("/", shop.ActiveOrder(deps.Orders, logg))
			r.Post("/offer-items", shop.AddOfferItem(deps.OfferOrders, logg))
			r.Patch("/lines/{lineId}", shop.AdjustOfferItemQuantity(deps.OfferOrders, logg))
		})
		r.Post("/checkout", shop.Checkout(deps.Checkout, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin, enums.ActorRoleSeller))
		r.Use(middleware.Channel(cfg.Channels.TokenHeader, deps.Channels, logg))
		r.Use(middleware.SellerScope(cfg.Channels.TokenHeader, deps.Channels, logg))
		if store != nil {
			r.Use(middleware.Idempotency(store, logg))
		}

		r.Route("/offers", func(r chi.Router) {
			r.Get("/", admin.ListOffers(deps.Offers, logg))
			r.Post("/", admin.CreateOffer(deps.Offers, logg))
			r.Get("/prefill", admin.OfferPrefill(deps.Offers, logg))
			r.Get("/{id}", admin.GetOffer(deps.Offers, logg))
			r.Patch("/{id}", admin.UpdateOffer(deps.Offers, logg))
			if deps.Offers != nil {
				r.Post("/{id}/activate", admin.TransitionOffer(deps.Offers.Activate, logg))
				r.Post("/{id}/pause", admin.TransitionOffer(deps.Offers.Pause, logg))
				r.Post("/{id}/expire", admin.TransitionOffer(deps.Offers.Expire, logg))
			}
		})

		r.Route("/fulfillment-options", func(r chi.Router) {
			r.Get("/", admin.ListFulfillmentOptions(deps.Fulfillment, logg))
			r.Post("/", admin.CreateFulfillmentOption(deps.Fulfillment, logg))
			r.Get("/{id}", admin.GetFulfillmentOption(deps.Fulfillment, logg))
			r.Patch("/{id}", admin.UpdateFulfillmentOption(deps.Fulfillment, logg))
			r.Delete("/{id}", admin.DeleteFulfillmentOption(deps.Fulfillment, logg))
		})
	})

	return r
}
