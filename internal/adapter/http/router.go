package http

import (
	"context"
	"net/http"

	"github.com/YelzhanWeb/pos/internal/adapter/logger"
	"github.com/YelzhanWeb/pos/internal/interfaces"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

// RouterDeps is everything NewRouter mounts.
type RouterDeps struct {
	Auth       interfaces.AuthService
	Catalog    interfaces.CatalogService
	Orders     interfaces.OrderService
	TempOrders interfaces.TempOrderService
	// Realtime serves GET /ws.
	Realtime http.Handler
	// IntakeLimiter throttles POST /pedidos-temp per client IP. Nil disables it.
	IntakeLimiter *RateLimiter
	// StrictRoutes requires a token for the trust patch, the rejection and
	// the pending listing.
	StrictRoutes bool
	// Health reports whether the backing store is reachable.
	Health func(ctx context.Context) error
	Logger logger.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	authH := NewAuthHandler(d.Auth, d.Logger)
	catalogH := NewCatalogHandler(d.Catalog, d.Logger)
	orderH := NewOrderHandler(d.Orders, d.Logger)
	tempH := NewTempOrderHandler(d.TempOrders, d.Logger)

	requireAuth := AuthMiddleware(d.Auth, d.Logger)
	strict := func(next http.Handler) http.Handler {
		if d.StrictRoutes {
			return requireAuth(next)
		}
		return next
	}

	r := chi.NewRouter()
	r.Use(LoggingMiddleware(d.Logger))
	r.Use(RecoveryMiddleware(d.Logger))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Servidor funcionando..."))
	})
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if d.Health != nil {
			if err := d.Health(r.Context()); err != nil {
				d.Logger.Error("health_check_failed", "Store is unreachable", logger.RequestID(r.Context()), nil, err)
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if d.Realtime != nil {
		r.Method(http.MethodGet, "/ws", d.Realtime)
	}

	r.Group(func(r chi.Router) {
		r.Use(MaxBodyMiddleware(maxBodyBytes))

		r.Post("/login", authH.Login)

		r.Route("/products", func(r chi.Router) {
			r.Get("/public", catalogH.ListProducts)
			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/", catalogH.ListProducts)
				r.Get("/types", catalogH.ProductTypes)
				r.Post("/", catalogH.CreateProduct)
				r.Put("/{id}", catalogH.UpdateProduct)
				r.Delete("/{id}", catalogH.DeleteProduct)
			})
		})

		r.Route("/tables", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", catalogH.ListTables)
			r.Post("/", catalogH.CreateTable)
			r.Put("/{id}", catalogH.UpdateTable)
			r.Delete("/{id}", catalogH.DeleteTable)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/", orderH.ListOrders)
			r.Get("/{tableId}", orderH.OpenOrderForTable)
			r.Post("/", orderH.CreateOrder)
			r.Put("/order-items/{id}", orderH.UpdateItem)
			r.Delete("/order-items/{id}", orderH.DeleteItem)
			r.Put("/{id}/close", orderH.CloseOrder)
		})

		r.Route("/configuracion", func(r chi.Router) {
			r.Get("/public", catalogH.Settings)
			r.With(requireAuth).Get("/", catalogH.Settings)
			r.With(requireAuth).Put("/", catalogH.UpdateSettings)
		})

		r.Route("/pedidos-temp", func(r chi.Router) {
			submit := http.Handler(http.HandlerFunc(tempH.Submit))
			if d.IntakeLimiter != nil {
				submit = d.IntakeLimiter.Middleware(submit)
			}
			r.Method(http.MethodPost, "/", submit)

			r.Get("/", tempH.ListAll)
			r.With(strict).Get("/pendientes", tempH.ListPending)
			r.Get("/verificarTelefono/{telefono}", tempH.VerifyPhone)

			r.With(requireAuth).Get("/personDomicilios", tempH.ListForDelivery)
			r.With(requireAuth).Delete("/personDomicilios/{id}", tempH.Delete)
			r.With(strict).Patch("/personDomicilios/{id}/confiable", tempH.SetTrusted)

			r.With(strict).Delete("/{id}", tempH.Reject)
			r.With(requireAuth).Post("/{id}/aprobar", tempH.Approve)
		})
	})

	return r
}
