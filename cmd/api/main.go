package main

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"checkoutcore/internal/auth"
	"checkoutcore/internal/cache"
	"checkoutcore/internal/db"
	"checkoutcore/internal/domain/cart"
	"checkoutcore/internal/domain/deliveryaddress"
	"checkoutcore/internal/domain/invoice"
	"checkoutcore/internal/domain/product"
	"checkoutcore/internal/domain/sale"
	"checkoutcore/internal/domain/storage"
	"checkoutcore/internal/domain/user"
	"checkoutcore/internal/ratelimiter"
)

func main() {
	_ = godotenv.Load()

	logger := zap.Must(zap.NewProduction()).Sugar()
	defer logger.Sync()

	cfg := config{
		addr: envString("ADDR", ":8080"),
		env:  envString("ENV", "development"),
		db: dbConfig{
			addr:         envString("DATABASE_URL", ""),
			maxOpenConns: envInt("DB_MAX_OPEN_CONNS", 30),
			maxIdleTime:  envDuration("DB_MAX_IDLE_TIME", 15*time.Minute),
		},
		jwt: jwtConfig{
			algorithm:          envString("JWT_ALGORITHM", "HS256"),
			secret:             envString("JWT_SECRET", ""),
			privateKey:         envString("JWT_PRIVATE_KEY", ""),
			publicKey:          envString("JWT_PUBLIC_KEY", ""),
			issuer:             envString("JWT_ISSUER", "checkoutcore"),
			audience:           envString("JWT_AUDIENCE", "checkoutcore-clients"),
			accessTokenExpiry:  envDuration("JWT_ACCESS_TOKEN_EXPIRES", 900*time.Second),
			refreshTokenExpiry: envDuration("JWT_REFRESH_TOKEN_EXPIRES", 604800*time.Second),
		},
		cacheConfig: cacheConfig{
			redisAddr:     fmt.Sprintf("%s:%s", envString("REDIS_HOST", "localhost"), envString("REDIS_PORT", "6379")),
			redisUsername: envString("REDIS_USERNAME", ""),
			redisPassword: envString("REDIS_PASSWORD", ""),
			defaultTTL:    envDuration("CACHE_DEFAULT_TIMEOUT", 10*time.Minute),
		},
		rateLimiter: rateLimiterConfig{
			RequestsPerTimeFrame: envInt("RATE_LIMITER_REQUESTS_COUNT", 100),
			TimeFrame:            envDuration("RATE_LIMITER_TIME_FRAME", 5*time.Second),
			Enabled:              envBool("RATE_LIMITER_ENABLED", true),
		},
	}

	dbPool, err := db.New(cfg.db.addr, int32(cfg.db.maxOpenConns), cfg.db.maxIdleTime)
	if err != nil {
		logger.Fatalw("failed to connect to database", "error", err)
	}
	defer dbPool.Close()
	logger.Info("database connection pool established")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.cacheConfig.redisAddr,
		Username: cfg.cacheConfig.redisUsername,
		Password: cfg.cacheConfig.redisPassword,
	})
	defer rdb.Close()

	tokenEngine, err := buildTokenEngine(cfg.jwt)
	if err != nil {
		logger.Fatalw("failed to build token engine", "error", err)
	}

	revocation := auth.NewRevocationStore(rdb)
	authenticator := auth.NewAuthenticator(tokenEngine, revocation)
	appCache := cache.New(rdb, cfg.cacheConfig.defaultTTL, logger)

	store := storage.NewContainer(dbPool)

	userSvc := user.NewService(store.Users, tokenEngine, revocation)
	addressSvc := deliveryaddress.NewService(store.DeliveryAddrs)
	productSvc := product.NewService(store.Products, appCache)
	cartSvc := cart.NewService(store.Carts, store.Products, appCache)
	saleSvc, err := sale.NewService(store, store.Sales, store.DeliveryAddrs, cartSvc, appCache, envString("SALE_REFERENCE_SALT", "checkoutcore-reference"), logger)
	if err != nil {
		logger.Fatalw("failed to build sale service", "error", err)
	}
	invoiceSvc := invoice.NewService(store.Invoices, store.Sales, store.DeliveryAddrs)

	app := &application{
		config:        cfg,
		store:         store,
		logger:        logger,
		authenticator: authenticator,
		revocation:    revocation,
		cache:         appCache,
		rateLimiter:   ratelimiter.NewFixedWindowLimiter(cfg.rateLimiter.RequestsPerTimeFrame, cfg.rateLimiter.TimeFrame),
		loginLimiter:  ratelimiter.NewFixedWindowLimiter(5, time.Minute),

		users:     userSvc,
		addresses: addressSvc,
		products:  productSvc,
		carts:     cartSvc,
		sales:     saleSvc,
		invoices:  invoiceSvc,
	}

	_, cancel := context.WithCancel(context.Background())
	defer cancel()

	mux := app.mount()
	if err := app.run(mux, cancel); err != nil {
		logger.Fatalw("server stopped with error", "error", err)
	}
}

func buildTokenEngine(cfg jwtConfig) (auth.TokenEngine, error) {
	switch cfg.algorithm {
	case "RS256":
		block, _ := pem.Decode([]byte(cfg.privateKey))
		if block == nil {
			return nil, fmt.Errorf("JWT_PRIVATE_KEY is not valid PEM")
		}
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			keyAny, err2 := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err2 != nil {
				return nil, fmt.Errorf("parse RSA private key: %w", err)
			}
			rsaKey, ok := keyAny.(*rsa.PrivateKey)
			if !ok {
				return nil, fmt.Errorf("JWT_PRIVATE_KEY is not an RSA key")
			}
			key = rsaKey
		}
		return auth.NewRS256Engine(key, cfg.issuer, cfg.audience, cfg.accessTokenExpiry, cfg.refreshTokenExpiry), nil
	default:
		if len(cfg.secret) < 32 {
			return nil, fmt.Errorf("JWT_SECRET of at least 32 bytes is required when JWT_ALGORITHM is HS256")
		}
		return auth.NewHS256Engine(cfg.secret, cfg.secret+":refresh", cfg.issuer, cfg.audience, cfg.accessTokenExpiry, cfg.refreshTokenExpiry), nil
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
