package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/Nemanja264/Servizo/internal/config"
	"github.com/Nemanja264/Servizo/internal/http/handlers"
	"github.com/Nemanja264/Servizo/internal/middleware"
	"github.com/Nemanja264/Servizo/internal/ws"
)

func NewRouter(h *handlers.Handler, wsServer *ws.Server, logger *zap.Logger, cfg config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger(logger))
	r.Use(middleware.RequestID())

	if cfg.Env == "development" || len(cfg.CorsAllowedOrigins) > 0 {
		options := cors.Options{
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
			AllowCredentials: true,
			MaxAge:           300,
		}
		if cfg.Env == "development" {
			options.AllowOriginFunc = func(_ *http.Request, origin string) bool { return true }
		} else {
			options.AllowedOrigins = cfg.CorsAllowedOrigins
		}
		r.Use(cors.Handler(options))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/session/resolve", h.SessionResolve)
		r.Get("/session", h.SessionCurrent)
		r.Post("/session/logout", h.SessionLogout)

		r.Route("/cart/{table}", func(r chi.Router) {
			r.Get("/", h.CartGet)
			r.Delete("/", h.CartClear)
			r.Post("/items", h.CartAddItem)
			r.Post("/items/{itemID}/quantity", h.CartChangeQuantity)
			r.Delete("/items/{itemID}", h.CartRemoveItem)
			r.Post("/seed", h.CartSeed)
			r.Get("/share", h.CartShare)
		})

		r.Route("/orders/{table}", func(r chi.Router) {
			r.Get("/", h.OrdersUnpaid)
			r.Post("/submit", h.OrdersSubmit)
			r.Post("/pay-all", h.OrdersPayAll)
			r.Post("/pay/{orderID}", h.OrdersPayOne)
			r.Post("/cash-request", h.OrdersCashRequest)
			r.Post("/cash-request/{orderID}", h.OrdersCashRequest)
			r.Get("/badges", h.OrdersBadges)
		})

		r.Get("/menu", h.Menu)
		r.Get("/favorites", h.FavoritesList)
		r.Post("/favorites/{itemID}", h.FavoritesAdd)
		r.Delete("/favorites/{itemID}", h.FavoritesRemove)

		r.Post("/payments/intent", h.PaymentIntent)

		r.Get("/staff/tables", h.StaffTables)
		r.Post("/staff/tables/{tableID}/select", h.StaffSelect)
	})

	r.Get("/ws/guest", wsServer.HandleGuest)
	r.Get("/ws/staff", wsServer.HandleStaff)

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Info("",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.status),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
