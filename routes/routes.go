package routes

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"yatra/alerts"
	"yatra/auth"
	"yatra/booking"
	"yatra/crowd"
	"yatra/db"
	"yatra/metrics"
	"yatra/middleware"
	"yatra/rdx"
	"yatra/temples"
	"yatra/utils"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const livenessText = "Pilgrimage Management API is running..."

// Deps is everything the route table needs. Cache and Metrics may be nil.
type Deps struct {
	Store   db.Store
	Tokens  *auth.TokenIssuer
	Cache   *rdx.TempleCache
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	Timeout time.Duration
}

// NewRouter builds the handlers and registers every route.
func NewRouter(d Deps) *httprouter.Router {
	var (
		templeCache temples.Cache
		invalidator crowd.Invalidator
	)
	// a nil *TempleCache must stay a nil interface
	if d.Cache != nil {
		templeCache = d.Cache
		invalidator = d.Cache
	}

	gate := middleware.NewGate(d.Tokens, d.Logger)
	router := httprouter.New()

	AddUtilityRoutes(router, d.Metrics)
	router.GET("/health", Health(d.Store, d.Timeout, d.Logger))
	AddAuthRoutes(router, auth.NewHandler(d.Store.Users(), d.Tokens, d.Logger, d.Timeout), d.Metrics)
	AddTempleRoutes(router, temples.NewHandler(d.Store.Temples(), templeCache, d.Metrics, d.Logger, d.Timeout), d.Metrics)
	AddBookingRoutes(router, booking.NewHandler(d.Store.Bookings(), d.Store.Temples(), d.Metrics, d.Logger, d.Timeout), gate, d.Metrics)
	AddCrowdRoutes(router, crowd.NewHandler(d.Store.CrowdSamples(), d.Store.Temples(), invalidator, d.Metrics, d.Logger, d.Timeout), d.Metrics)
	AddAlertRoutes(router, alerts.NewHandler(d.Store.Alerts(), d.Metrics, d.Logger, d.Timeout), gate, d.Metrics)

	return router
}

// Index is the liveness check.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, livenessText)
}

// Health reports 503 while the store cannot be reached.
func Health(store db.Store, timeout time.Duration, logger *zap.Logger) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			utils.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func AddUtilityRoutes(router *httprouter.Router, m *metrics.Metrics) {
	router.GET("/", Index)
	if m != nil {
		router.Handler(http.MethodGet, "/metrics", m.Handler())
	}
}

func AddAuthRoutes(router *httprouter.Router, h *auth.Handler, m *metrics.Metrics) {
	router.POST("/api/auth/register", m.Instrument("/api/auth/register", h.Register))
	router.POST("/api/auth/login", m.Instrument("/api/auth/login", h.Login))
}

func AddTempleRoutes(router *httprouter.Router, h *temples.Handler, m *metrics.Metrics) {
	router.GET("/api/temples", m.Instrument("/api/temples", h.ListTemples))
}

func AddBookingRoutes(router *httprouter.Router, h *booking.Handler, gate *middleware.Gate, m *metrics.Metrics) {
	router.POST("/api/bookings", m.Instrument("/api/bookings", gate.Authenticate(h.CreateBooking)))
	router.GET("/api/bookings", m.Instrument("/api/bookings", gate.Authenticate(h.ListBookings)))
	router.GET("/api/bookings/:id/qr", m.Instrument("/api/bookings/:id/qr", gate.Authenticate(h.QRImage)))
	router.GET("/api/bookings/:id/pass", m.Instrument("/api/bookings/:id/pass", gate.Authenticate(h.Pass)))
}

func AddCrowdRoutes(router *httprouter.Router, h *crowd.Handler, m *metrics.Metrics) {
	router.POST("/api/data/crowd", m.Instrument("/api/data/crowd", h.Ingest))
}

func AddAlertRoutes(router *httprouter.Router, h *alerts.Handler, gate *middleware.Gate, m *metrics.Metrics) {
	router.POST("/api/alerts/panic", m.Instrument("/api/alerts/panic", gate.Authenticate(h.RaisePanic)))
}
