package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/FACorreiaa/go-journeymate/docs"
	"github.com/FACorreiaa/go-journeymate/internal/api/auth"
	"github.com/FACorreiaa/go-journeymate/internal/api/catalog"
	"github.com/FACorreiaa/go-journeymate/internal/api/chat"
	"github.com/FACorreiaa/go-journeymate/internal/api/company"
	"github.com/FACorreiaa/go-journeymate/internal/api/favourites"
	"github.com/FACorreiaa/go-journeymate/internal/api/interactions"
	"github.com/FACorreiaa/go-journeymate/internal/api/payment"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AllowedOrigins      []string
	TokenParser         *auth.TokenParser
	AuthHandler         *auth.AuthHandler
	CatalogHandler      *catalog.CatalogHandler
	FavouritesHandler   *favourites.FavouritesHandler
	InteractionsHandler *interactions.InteractionsHandler
	ChatHandler         *chat.ChatHandler
	PaymentHandler      *payment.PaymentHandler
	CompanyHandler      *company.CompanyHandler
	Logger              *slog.Logger
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) is applied in main.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", catalog.SessionHeader},
		ExposedHeaders:   []string{catalog.SessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/api/v1", func(r chi.Router) {
		// Identity is optional everywhere; handlers decide what needs it.
		r.Use(auth.Identify(cfg.Logger, cfg.TokenParser))

		r.Get("/auth/session", cfg.AuthHandler.GetSession)

		// catalog
		r.Get("/tours", cfg.CatalogHandler.ListTours)
		r.Get("/tours/discounted", cfg.CatalogHandler.ListDiscounted)
		r.Get("/tours/leaving-soon", cfg.CatalogHandler.ListLeavingSoon)
		r.Get("/tours/{id}", cfg.CatalogHandler.GetTour)
		r.Post("/catalog/reload", cfg.CatalogHandler.ReloadCatalog)
		r.Get("/categories", cfg.CatalogHandler.ListCategories)
		r.Get("/destinations", cfg.CatalogHandler.ListDestinations)
		r.Get("/destinations/{city}", cfg.CatalogHandler.GetDestination)
		r.Get("/browse", cfg.CatalogHandler.GetBrowse)
		r.Patch("/browse", cfg.CatalogHandler.UpdateBrowse)

		r.Get("/companies/{id}", cfg.CompanyHandler.GetCompany)

		// toggling answers anonymous callers itself with a sign-in redirect
		r.Post("/favourites/{tourID}/toggle", cfg.FavouritesHandler.ToggleFavourite)
		r.Post("/payments/webhook", cfg.PaymentHandler.Webhook)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(cfg.Logger))

			r.Get("/favourites", cfg.FavouritesHandler.ListFavourites)

			r.Get("/interactions", cfg.InteractionsHandler.ListPending)
			r.Post("/interactions", cfg.InteractionsHandler.RecordInteraction)
			r.Post("/interactions/flush", cfg.InteractionsHandler.FlushInteractions)
			r.Post("/interactions/session", cfg.InteractionsHandler.StartSession)

			r.Post("/chat/messages", cfg.ChatHandler.SendMessage)
			r.Get("/chat/stream", cfg.ChatHandler.Stream)

			r.Post("/payments/checkout", cfg.PaymentHandler.CreateCheckout)
		})
	})

	return r
}
