package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gatepasshq/gatepass-backend/api/controllers"
	"github.com/gatepasshq/gatepass-backend/api/middleware"
	"github.com/gatepasshq/gatepass-backend/internal/escrow"
	"github.com/gatepasshq/gatepass-backend/internal/events"
	"github.com/gatepasshq/gatepass-backend/internal/payouts"
	"github.com/gatepasshq/gatepass-backend/internal/tickets"
	"github.com/gatepasshq/gatepass-backend/internal/tokens"
	"github.com/gatepasshq/gatepass-backend/pkg/config"
	"github.com/gatepasshq/gatepass-backend/pkg/db"
	"github.com/gatepasshq/gatepass-backend/pkg/enums"
	"github.com/gatepasshq/gatepass-backend/pkg/logger"
	"github.com/gatepasshq/gatepass-backend/pkg/metrics"
	"github.com/gatepasshq/gatepass-backend/pkg/payments"
	pkgredis "github.com/gatepasshq/gatepass-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	client *db.Client,
	redisClient *pkgredis.Client,
	ledgerMetrics *metrics.LedgerMetrics,
	gatherer prometheus.Gatherer,
	rail payments.Rail,
	escrowService escrow.Service,
	eventService events.Service,
	ticketService tickets.Service,
	payoutService payouts.Service,
	tokenService tokens.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(ledgerMetrics),
	)

	var idemStore pkgredis.IdempotencyStore
	var cachePinger pkgredis.Pinger
	buyGuard := func(next http.Handler) http.Handler { return next }
	if redisClient != nil {
		idemStore = redisClient
		cachePinger = redisClient
		buyPolicy := middleware.NewRateLimitPolicy("buy", cfg.RateLimit.BuyWindow, cfg.RateLimit.BuyLimit)
		buyGuard = middleware.RateLimit(buyPolicy, redisClient, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, client, cachePinger, logg))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	if cfg.App.IsDev() {
		r.Post("/api/v1/auth/dev-token", controllers.DevTokenMint(cfg, logg))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Route("/events", func(r chi.Router) {
			r.Get("/", controllers.EventList(eventService, logg))
			r.Post("/", controllers.EventCreate(eventService, logg))
			r.Get("/mine", controllers.EventListMine(eventService, logg))
			r.Route("/{eventID}", func(r chi.Router) {
				r.Get("/", controllers.EventGet(eventService, logg))
				r.Put("/", controllers.EventUpdate(eventService, logg))
				r.Delete("/", controllers.EventDelete(eventService, logg))
				r.Get("/tickets", controllers.TicketList(ticketService, logg))
				r.With(buyGuard).Post("/tickets", controllers.TicketBuy(ticketService, logg))
				r.Post("/payout", controllers.EventPayout(payoutService, logg))
			})
		})

		r.Get("/tokens/mine", controllers.TokenListMine(tokenService, logg))
		r.Get("/accounts/me/balance", controllers.AccountBalance(rail, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
		r.Use(middleware.Idempotency(idemStore, logg))

		r.Post("/accounts/{account}/credit", controllers.AdminAccountCredit(client, rail, logg))
		r.Get("/escrow", controllers.AdminEscrowBalance(escrowService, logg))
	})

	return r
}
