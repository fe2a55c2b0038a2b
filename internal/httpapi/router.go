package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tokobuah/storefront/internal/identity"
)

// RouterDeps collects everything the HTTP surface needs. Handlers are
// constructed by the caller so tests can mount a subset.
type RouterDeps struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Products *ProductHandler
	Orders   *OrdersHandler
	Profile  *ProfileHandler
	Auth     *identity.Middleware
}

// NewRouter wires the full route table. The legacy /api paths keep the wire
// contract the web client already speaks; everything else lives under /api/v1.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(chimw.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Payment endpoints on their original paths. The notification route is
	// hit both by the gateway (no bearer token, signature verified instead)
	// and by the browser after snap resolves, so auth is optional there.
	r.Route("/api", func(r chi.Router) {
		r.With(deps.Auth.RequireAuth).Post("/create-transaction", deps.Checkout.CreateTransaction)
		r.With(deps.Auth.OptionalAuth).Post("/midtrans-notification", deps.Checkout.Notification)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/shipping-options", deps.Checkout.ShippingOptions)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", deps.Products.List)
			r.Get("/{id}", deps.Products.Get)

			// mutations are back-office only
			r.Group(func(r chi.Router) {
				r.Use(deps.Auth.RequireAuth, deps.Auth.RequireAdmin)
				r.Post("/", deps.Products.Create)
				r.Put("/{id}", deps.Products.Update)
				r.Delete("/{id}", deps.Products.Delete)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireAuth)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", deps.Cart.GetCart)
				r.Delete("/", deps.Cart.ClearCart)
				r.Post("/items", deps.Cart.AddItem)
				r.Put("/items/{product_id}", deps.Cart.UpdateQuantity)
				r.Delete("/items/{product_id}", deps.Cart.RemoveItem)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", deps.Orders.ListOwn)
				r.Get("/{order_id}", deps.Orders.Get)
			})

			r.Post("/users", deps.Profile.Bootstrap)
			r.Get("/profile", deps.Profile.Get)
			r.Put("/profile", deps.Profile.Update)

			r.Route("/admin", func(r chi.Router) {
				r.Use(deps.Auth.RequireAdmin)

				r.Get("/orders", deps.Orders.ListAll)
			})
		})
	})

	return otelhttp.NewHandler(r, "storefront")
}
