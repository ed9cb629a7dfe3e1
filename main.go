package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/fitrank/fitrank-api/handlers"
	"github.com/fitrank/fitrank-api/internal/config"
	"github.com/fitrank/fitrank-api/internal/database"
	"github.com/fitrank/fitrank-api/internal/mail"
	"github.com/fitrank/fitrank-api/internal/notifications"
	"github.com/fitrank/fitrank-api/internal/rankings"
	"github.com/fitrank/fitrank-api/internal/sessions"
	"github.com/fitrank/fitrank-api/internal/storage"
	"github.com/fitrank/fitrank-api/internal/tokens"
	"github.com/fitrank/fitrank-api/internal/users"
	"github.com/fitrank/fitrank-api/pkg/logger"
	"github.com/fitrank/fitrank-api/pkg/metrics"
	"github.com/fitrank/fitrank-api/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.Log.Level)
	logger.SetFormat(cfg.Log.Format)
	logger.Infow("config loaded", "env", cfg.Server.Environment, "redis", cfg.Redis.Addr(),
		"sendgrid", cfg.Mail.SendGridAPIKey != "", "fcm", cfg.FCM.CredentialsFile != "" || cfg.FCM.ProjectID != "")

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Postgres.DSN == "" {
		logger.Fatalf("POSTGRES_DSN is required")
	}
	db, err := database.ConnectPostgres(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	sqlDB, _ := db.DB()
	defer sqlDB.Close()
	logger.Infof("connected to Postgres")

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		// sessions cannot work without Redis; keep serving so /ready reports it
		logger.Errorw("redis ping failed", "addr", cfg.Redis.Addr(), "err", err)
	} else {
		logger.Infof("connected to Redis at %s", cfg.Redis.Addr())
	}

	var mailer mail.Mailer = mail.LogMailer{}
	if cfg.Mail.SendGridAPIKey != "" {
		mailer = mail.NewSendGridMailer(cfg.Mail)
	}

	issuer := tokens.NewIssuer(cfg.JWT)
	sessionsSvc := sessions.NewService(sessions.NewRedisStore(rdb, ""), issuer)
	userRepo := users.NewGormRepository(db)
	userSvc := users.NewService(userRepo, mailer)
	rankingSvc := rankings.NewService(rankings.NewGormRepository(db))

	var notifySvc *notifications.Service
	if cfg.FCM.CredentialsFile != "" || cfg.FCM.ProjectID != "" {
		sender, err := notifications.NewFCMSender(ctx, cfg.FCM)
		if err != nil {
			logger.Warnf("push notifications disabled: %v", err)
		} else {
			notifySvc = notifications.NewService(userRepo, sender)
		}
	} else {
		logger.Warnf("FCM not configured: push notifications disabled")
	}

	var images handlers.ImageStore
	var objectStore *storage.MinIOStorage
	if mcfg := storage.LoadMinIOConfig(); mcfg.Endpoint != "" {
		objectStore, err = storage.NewMinIOStorage(mcfg)
		if err != nil {
			logger.Warnf("image uploads disabled: %v", err)
		} else {
			images = objectStore
		}
	} else {
		logger.Warnf("MINIO_ENDPOINT not set: image uploads disabled")
	}

	r := gin.New()
	r.Use(cors())
	r.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())

	// newLimiter builds an independent limiter; nil when rate limiting is off
	newLimiter := func() gin.HandlerFunc {
		if !cfg.RateLimit.Enabled {
			return nil
		}
		if cfg.RateLimit.UseRedis {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			return middleware.RedisRateLimitMiddleware(rdb, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		}
		return middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
	// the global limiter runs before auth and therefore keys by client IP
	if ipLimit := newLimiter(); ipLimit != nil {
		r.Use(ipLimit)
		logger.Infow("rate limiter enabled", "redis", cfg.RateLimit.UseRedis, "rps", cfg.RateLimit.RPS, "burst", cfg.RateLimit.Burst)
	}

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: 200 only when the stores every request depends on answer
	r.GET("/ready", func(c *gin.Context) {
		rctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		deps := map[string]bool{
			"postgres": sqlDB.PingContext(rctx) == nil,
			"redis":    rdb.Ping(rctx).Err() == nil,
		}
		ready := deps["postgres"] && deps["redis"]
		if objectStore != nil {
			deps["storage"] = objectStore.Ping(rctx) == nil
		}
		deps["push"] = notifySvc != nil

		status, label := http.StatusOK, "ready"
		if !ready {
			status, label = http.StatusServiceUnavailable, "not_ready"
		}
		c.JSON(status, gin.H{"status": label, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	cookies := middleware.Cookies{
		Secure:     cfg.Server.SecureCookie,
		AccessTTL:  issuer.AccessTTL(),
		RefreshTTL: issuer.RefreshTTL(),
	}
	// session-bound routes get a second limiter after auth, keyed by user id
	guard := []gin.HandlerFunc{middleware.AccessAuth(sessionsSvc, cookies)}
	if userLimit := newLimiter(); userLimit != nil {
		guard = append(guard, userLimit)
	}
	handlers.NewUserHandler(userSvc, sessionsSvc, images, cookies).Register(r, guard...)
	handlers.NewRankingHandler(rankingSvc).Register(r, guard...)
	handlers.NewNotificationHandler(notifySvc).Register(r, guard...)
	handlers.RegisterSwagger(r)

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting fitrank-api on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("graceful shutdown failed", "err", err)
	}
}

// cors answers preflight requests and echoes the caller's Origin so
// credentialed requests carry the session cookies.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			origin = "*"
		} else {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Add("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length, X-Access-Token")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
