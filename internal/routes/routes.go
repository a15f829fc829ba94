package routes

import (
	"net/http"

	"github.com/clipforge/clipforge/internal/app"
	"github.com/clipforge/clipforge/internal/handler"
	"github.com/clipforge/clipforge/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.VerificationService, app.Cfg)
	account := handler.NewAccountHandler(app.CreditService)
	billing := handler.NewBillingHandler(app.BillingService, app.PaymentService)
	video := handler.NewVideoHandler(app.VideoService, app.Cfg.RenderWebhookSecret)

	mux := http.NewServeMux()

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("POST /auth/signup", rateLimiter(auth.Signup))
	mux.HandleFunc("POST /auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// OAuth
	mux.HandleFunc("GET /auth/google", rateLimiter(auth.GoogleAuth))
	mux.HandleFunc("GET /auth/google/callback", rateLimiter(auth.GoogleCallback))

	// Email verification
	mux.HandleFunc("GET /auth/verify", auth.VerifyEmail)
	mux.HandleFunc("POST /auth/verify/resend", rateLimiter(middleware.RequireAuth(auth.ResendVerification)))

	// Account
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(account.Me))
	mux.HandleFunc("GET /api/credits", middleware.RequireAuth(account.Credits))

	// Billing
	mux.HandleFunc("POST /api/billing/checkout", middleware.RequireVerified(billing.CreateCheckout))
	mux.HandleFunc("GET /api/billing/portal", middleware.RequireAuth(billing.CustomerPortal))

	// Videos
	mux.HandleFunc("POST /api/videos", middleware.RequireVerified(video.Create))
	mux.HandleFunc("GET /api/videos", middleware.RequireAuth(video.List))
	mux.HandleFunc("GET /api/videos/{id}", middleware.RequireAuth(video.Get))

	// Webhooks
	// Payment provider webhook (works with both Polar and Stripe)
	mux.HandleFunc("POST /webhooks/payment", billing.Webhook)
	// Render worker completion callback
	mux.HandleFunc("POST /webhooks/render", video.RenderCallback)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.Config(app.Cfg),
		middleware.RequestLogging,
		middleware.AuthMiddleware(app.AuthService, app.UserRepository),
	)
}
