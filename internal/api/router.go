package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"companion-booking-backend/internal/model"
	"companion-booking-backend/internal/mw"
	"companion-booking-backend/internal/reservation"
	"companion-booking-backend/internal/store"
	"companion-booking-backend/internal/verification"
)

// Deps bundles what the router needs to build its handlers.
type Deps struct {
	Service   *reservation.Service
	Verifier  *verification.Service
	Store     store.Store
	WebPush   *webpush.Options
	JWTSecret string

	RateLimit rate.Limit // requests per second per client IP
	Burst     int
	CacheTTL  time.Duration
}

// NewRouter creates and configures a new Gin router.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger())

	handler := NewHandler(d.Service, d.Verifier, d.Store, d.WebPush)

	if d.RateLimit <= 0 {
		d.RateLimit = 10
	}
	if d.Burst <= 0 {
		d.Burst = 5
	}
	if d.CacheTTL <= 0 {
		d.CacheTTL = 5 * time.Minute
	}
	rateLimiter := mw.RateLimiter(mw.NewIPRateLimiter(d.RateLimit, d.Burst, 10*time.Minute))
	caching := mw.Cache(cache.New(d.CacheTTL, 2*d.CacheTTL), d.CacheTTL)

	r.GET("/healthz", handler.Healthz)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/services", caching, handler.GetServices)
		api.POST("/quotes", handler.PostQuote)
		api.POST("/auth/phone/send", handler.SendPhoneCode)
		api.POST("/auth/phone/verify", handler.VerifyPhoneCode)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	authed := api.Group("")
	authed.Use(mw.Auth(d.JWTSecret))
	{
		authed.POST("/reservations", handler.CreateReservation)
		authed.GET("/reservations", handler.ListReservations)
		authed.GET("/reservations/:id", handler.GetReservation)
		authed.GET("/reservations/:id/history", handler.GetReservationHistory)
		authed.GET("/reservations/:id/settlement", handler.GetSettlement)
		authed.PATCH("/reservations/:id/status", handler.ChangeReservationStatus)
		authed.PATCH("/reservations/:id/assign", handler.AssignManager)
		authed.DELETE("/reservations/:id", handler.CancelReservation)

		authed.GET("/managers/available", handler.GetAvailableManagers)

		authed.GET("/subscriptions", handler.GetSubscription)
		authed.PUT("/subscriptions", handler.PutSubscription)
		authed.DELETE("/subscriptions", handler.DeleteSubscription)
	}

	admin := authed.Group("/managers")
	admin.Use(mw.RequireRole(model.RoleAdmin))
	{
		admin.POST("", handler.RegisterManager)
		admin.PATCH("/:id/status", handler.SetManagerStatus)
	}

	self := authed.Group("/managers/me")
	self.Use(mw.RequireRole(model.RoleManager))
	{
		self.GET("/schedules", handler.ListMySchedules)
		self.POST("/schedules", handler.CreateMySchedule)
		self.DELETE("/schedules/:id", handler.DeleteMySchedule)
	}

	return r
}
