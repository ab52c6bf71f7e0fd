package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"checkoutcore/internal/auth"
	"checkoutcore/internal/cache"
	"checkoutcore/internal/domain/cart"
	"checkoutcore/internal/domain/deliveryaddress"
	"checkoutcore/internal/domain/invoice"
	"checkoutcore/internal/domain/product"
	"checkoutcore/internal/domain/sale"
	"checkoutcore/internal/domain/storage"
	"checkoutcore/internal/domain/user"
	"checkoutcore/internal/ratelimiter"
)

// application bundles the configuration, collaborators, and domain
// services every handler needs.
type application struct {
	config        config
	store         *storage.Container
	logger        *zap.SugaredLogger
	authenticator *auth.Authenticator
	revocation    *auth.RevocationStore
	cache         *cache.Cache
	rateLimiter   *ratelimiter.FixedWindowRateLimiter
	loginLimiter  *ratelimiter.FixedWindowRateLimiter

	users     *user.Service
	addresses *deliveryaddress.Service
	products  *product.Service
	carts     *cart.Service
	sales     *sale.Service
	invoices  *invoice.Service
}

type config struct {
	addr        string
	env         string
	db          dbConfig
	jwt         jwtConfig
	cacheConfig cacheConfig
	rateLimiter rateLimiterConfig
}

type dbConfig struct {
	addr         string
	maxOpenConns int
	maxIdleTime  time.Duration
}

type jwtConfig struct {
	algorithm         string // RS256 or HS256
	secret            string // HS256
	privateKey        string // RS256 PEM
	publicKey         string // RS256 PEM
	issuer            string
	audience          string
	accessTokenExpiry  time.Duration
	refreshTokenExpiry time.Duration
}

type cacheConfig struct {
	redisAddr     string
	redisUsername string
	redisPassword string
	defaultTTL    time.Duration
}

type rateLimiterConfig struct {
	RequestsPerTimeFrame int
	TimeFrame            time.Duration
	Enabled              bool
}

func (app *application) mount() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiterMiddleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", app.healthCheckHandler)

	r.Route("/users", func(r chi.Router) {
		r.With(app.StrictLimiterMiddleware(app.loginLimiter)).Post("/register", app.registerUserHandler)
		r.With(app.StrictLimiterMiddleware(app.loginLimiter)).Post("/login", app.loginHandler)
		r.Post("/refresh", app.refreshTokenHandler)
		r.Post("/logout", app.logoutHandler)
		r.Post("/logout-access", app.logoutAccessHandler)

		r.Group(func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)

			r.Get("/{id}", app.getUserHandler)
			r.Put("/{id}", app.updateUserHandler)
			r.Delete("/{id}", app.deleteUserHandler)

			r.With(app.RequireAdminMiddleware).Post("/{id}/make-admin", app.makeAdminHandler)

			r.Route("/{id}/delivery-addresses", func(r chi.Router) {
				r.Post("/", app.createDeliveryAddressHandler)
				r.Get("/", app.listDeliveryAddressesHandler)
				r.Get("/{aid}", app.getDeliveryAddressHandler)
				r.Put("/{aid}", app.updateDeliveryAddressHandler)
				r.Delete("/{aid}", app.deleteDeliveryAddressHandler)
			})
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Get("/", app.listProductsHandler)
			r.Get("/{id}", app.getProductHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(app.AuthTokenMiddleware)
			r.Use(app.RequireAdminMiddleware)
			r.Post("/", app.createProductHandler)
			r.Put("/{id}", app.updateProductHandler)
			r.Delete("/{id}", app.deleteProductHandler)
		})
	})

	r.Route("/sales", func(r chi.Router) {
		r.Use(app.AuthTokenMiddleware)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", app.getCartHandler)
			r.Post("/add", app.addCartLineHandler)
			r.Put("/product/{id}", app.updateCartLineHandler)
			r.Delete("/product/{id}", app.removeCartLineHandler)
			r.Post("/clear", app.clearCartHandler)
			r.Get("/total", app.cartTotalHandler)
			r.Get("/validate", app.validateCartHandler)
		})

		r.With(app.RequireCustomerMiddleware).Post("/checkout", app.checkoutHandler)

		r.Get("/sales", app.listSalesHandler)
		r.Get("/sales/{id}", app.getSaleHandler)

		r.Route("/invoices", func(r chi.Router) {
			r.Post("/", app.createInvoiceHandler)
			r.Get("/{id}", app.getInvoiceHandler)
			r.Put("/{id}", app.updateInvoiceHandler)
			r.Delete("/{id}", app.deleteInvoiceHandler)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(app.RequireAdminMiddleware)
			r.Get("/sales", app.adminListSalesHandler)
			r.Get("/sales/{id}", app.adminGetSaleHandler)
			r.Patch("/sales/{id}", app.adminAdjustSaleTotalHandler)
		})
	})

	return r
}

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	_ = app.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok", "env": app.config.env})
}

func (app *application) run(mux http.Handler, cancel context.CancelFunc) error {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:         "0.0.0.0:" + port,
		Handler:      mux,
		WriteTimeout: 30 * time.Second,
		ReadTimeout:  10 * time.Second,
		IdleTimeout:  time.Minute,
	}

	shutdown := make(chan error, 1)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		s := <-quit
		app.logger.Infow("signal caught", "signal", s.String())

		cancel()

		ctx, cancelTimeout := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelTimeout()

		if err := srv.Shutdown(ctx); err != nil {
			shutdown <- err
		}
		close(shutdown)
	}()

	app.logger.Infow("server has started", "addr", app.config.addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		app.logger.Errorw("server error", "error", err)
		return err
	}

	if err := <-shutdown; err != nil {
		return err
	}
	app.logger.Infow("server has stopped", "addr", app.config.addr, "env", app.config.env)
	return nil
}
