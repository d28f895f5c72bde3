package controller

import (
	"github.com/labstack/echo/v4"
	"github.com/vibast-solutions/ms-go-reservations/app/auth"
	"github.com/vibast-solutions/ms-go-reservations/app/middleware"
	"github.com/vibast-solutions/ms-go-reservations/app/service"
)

type Router struct {
	Reservations *ReservationController
	Payments     *PaymentController
	Webhooks     *WebhookController
	Auth         *AuthController
	Admin        *AdminController
	Tokens       *auth.TokenIssuer
	Limiter      *middleware.RateLimiter
}

func NewRouter(
	reservationService *service.ReservationService,
	webhookService *service.WebhookService,
	tokens *auth.TokenIssuer,
	authController *AuthController,
	limiter *middleware.RateLimiter,
) *Router {
	return &Router{
		Reservations: NewReservationController(reservationService),
		Payments:     NewPaymentController(reservationService),
		Webhooks:     NewWebhookController(webhookService),
		Auth:         authController,
		Admin:        NewAdminController(reservationService),
		Tokens:       tokens,
		Limiter:      limiter,
	}
}

func (r *Router) Register(e *echo.Echo) {
	requireAuth := middleware.JWTAuth(r.Tokens)
	optionalAuth := middleware.OptionalJWT(r.Tokens)
	requireAdmin := middleware.RequireRole(service.RoleAdmin)
	limited := r.Limiter.Middleware()

	e.GET("/health", r.Reservations.Health)
	e.GET("/rooms", r.Reservations.ListRooms)
	e.POST("/auth/login", r.Auth.Login, limited)

	reservations := e.Group("/reservations")
	reservations.POST("", r.Reservations.Submit, limited, optionalAuth)
	reservations.GET("", r.Reservations.List, requireAuth)
	reservations.GET("/:id", r.Reservations.Get, requireAuth)
	reservations.PUT("/:id", r.Reservations.Update, requireAuth)
	reservations.POST("/:id/cancel", r.Reservations.Cancel, requireAuth)

	payment := e.Group("/payment")
	payment.POST("/calculate", r.Payments.Calculate, limited)
	payment.POST("/create-reservation", r.Payments.CreateReservation, limited, optionalAuth)
	payment.GET("/session/:sessionId", r.Payments.SessionStatus)
	payment.POST("/refund/:reservationId", r.Payments.Refund, requireAuth, requireAdmin)

	admin := e.Group("/admin", requireAuth, requireAdmin)
	admin.GET("/stats", r.Admin.Stats)
	admin.GET("/reservations/export", r.Admin.Export)
	admin.GET("/reservations/:id/payments", r.Admin.ReservationPayments)

	e.POST("/webhooks/stripe", r.Webhooks.Stripe)
}
