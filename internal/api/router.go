package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/smileworks/dental-booking-service/internal/booking"
)

type RouterConfig struct {
	Service        *booking.Service
	Mongo          *mongo.Client
	Redis          *redis.Client
	Logger         *zap.Logger
	Env            string
	Version        string
	AllowedOrigins []string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health endpoints
	health := NewHealthHandler(cfg.Mongo, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Dentist endpoints
	r.Get("/dentists", listDentistsHandler(cfg.Service))
	r.Get("/dentists/{id}", getDentistHandler(cfg.Service))
	r.Get("/dentists/{id}/slots", listSlotsHandler(cfg.Service))

	// Appointment endpoints; booking and cancellation are rate limited per
	// client IP since they mutate shared slot state.
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(30, time.Minute))
		r.Post("/appointments", bookAppointmentHandler(cfg.Service))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Service))
	})
	r.Get("/appointments", appointmentsByPhoneHandler(cfg.Service))

	return r
}
