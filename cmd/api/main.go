package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qrpresence/internal/attendance"
	"qrpresence/internal/auth"
	"qrpresence/internal/config"
	"qrpresence/internal/feed"
	"qrpresence/internal/httpmiddleware"
	"qrpresence/internal/metrics"
	"qrpresence/internal/qr"
	"qrpresence/internal/queue"
	"qrpresence/internal/scanner"
	"qrpresence/internal/store"
	"qrpresence/internal/viewer"
)

const maxAdminListLimit = 500

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.Migrate(context.Background()); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	var insertFeed feed.Feed
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:notify")
	}
	if cfg.FeedBackend == "memory" {
		insertFeed = feed.NewMemory()
	} else {
		insertFeed = feed.NewRedisFeed(redisClient.Client, feed.Channel)
	}

	repo := attendance.NewRepository(db.Client)
	recorder := attendance.NewService(repo, insertFeed, q, cfg.Location())
	sessions := scanner.NewRegistry(recorder, cfg.ScanCooldown, cfg.ErrorCooldown)
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	var limiter httpmiddleware.Limiter
	if cfg.RateLimitBackend == "memory" {
		limiter = httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	} else {
		limiter = httpmiddleware.NewRedisLimiter(redisClient.Client, cfg.RateLimitPerMin)
	}
	r.Use(httpmiddleware.RateLimit(limiter))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	// Token issuance stands in for the identity provider in dev. A real
	// deployment puts the IdP in front and this endpoint goes away.
	r.POST("/v1/auth/token", func(c *gin.Context) {
		var req struct {
			UserID       string `json:"user_id" binding:"required"`
			Role         string `json:"role" binding:"required,oneof=student admin"`
			Name         string `json:"name"`
			Section      string `json:"section"`
			ParentNumber string `json:"parent_number"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		token, exp, err := auth.Issue(req.UserID, req.Role, req.Name, req.Section, req.ParentNumber,
			cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"access_token": token, "expires_at": exp.Unix()})
	})

	authGroup := r.Group("/v1", auth.Bearer(cfg.JWTSigningKey, cfg.JWTIssuer))

	// A student's own QR code, rebuilt from token claims on every request.
	authGroup.GET("/qrcode", auth.RequireRole(auth.RoleStudent), func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		payload := attendance.ScanPayload{
			UserID:       claims.Subject,
			Name:         claims.Name,
			Section:      claims.Section,
			ParentNumber: claims.ParentNumber,
		}
		size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))
		png, err := qr.EncodePNG(payload, size)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "qr encode failed"})
			return
		}
		c.Data(http.StatusOK, "image/png", png)
	})

	authGroup.POST("/scans", auth.RequireRole(auth.RoleAdmin), func(c *gin.Context) {
		var req struct {
			Payload string `json:"payload" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		claims, _ := auth.FromContext(c)

		start := time.Now()
		res := sessions.Get(claims.Subject).Scan(c.Request.Context(), req.Payload)
		collector.RecordScan(string(res.Outcome), time.Since(start))

		switch res.Outcome {
		case scanner.OutcomeRecorded:
			c.JSON(http.StatusCreated, gin.H{
				"record":      res.Record,
				"message":     res.Message,
				"retry_after": res.RetryAfter.Seconds(),
			})
		case scanner.OutcomeDuplicate:
			c.JSON(http.StatusConflict, gin.H{
				"error":       res.Message,
				"retry_after": res.RetryAfter.Seconds(),
			})
		case scanner.OutcomeInvalid:
			c.JSON(http.StatusBadRequest, gin.H{
				"error":       res.Message,
				"retry_after": res.RetryAfter.Seconds(),
			})
		case scanner.OutcomeCooling:
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       res.Message,
				"retry_after": res.RetryAfter.Seconds(),
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":       res.Message,
				"retry_after": res.RetryAfter.Seconds(),
			})
		}
	})

	// Record lists follow the viewer contract: a store failure is non-fatal
	// and surfaces as an empty list with a load_error the client can retry.
	authGroup.GET("/records", func(c *gin.Context) {
		claims, _ := auth.FromContext(c)

		var (
			records []attendance.Record
			err     error
		)
		if claims.Role == auth.RoleAdmin {
			limit := cfg.AdminListLimit
			if v := c.Query("limit"); v != "" {
				if parsed, perr := strconv.Atoi(v); perr == nil && parsed > 0 {
					limit = parsed
				}
			}
			if limit > maxAdminListLimit {
				limit = maxAdminListLimit
			}
			records, err = repo.ListRecent(c.Request.Context(), limit)
		} else {
			records, err = repo.ListByStudent(c.Request.Context(), claims.Subject)
		}
		if err != nil {
			log.Printf("record list failed for %s: %v", claims.Subject, err)
			c.JSON(http.StatusOK, gin.H{"records": []attendance.Record{}, "load_error": "could not load records"})
			return
		}
		if records == nil {
			records = []attendance.Record{}
		}
		c.JSON(http.StatusOK, gin.H{"records": records})
	})

	// SSE stream of insert events scoped to the caller. The subscription
	// is released when the client goes away.
	authGroup.GET("/records/live", func(c *gin.Context) {
		claims, _ := auth.FromContext(c)
		scope := viewer.All(0)
		if claims.Role == auth.RoleStudent {
			scope = viewer.Self(claims.Subject)
		}

		sub, err := insertFeed.Subscribe(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live feed unavailable"})
			return
		}
		defer sub.Close()

		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Stream(func(w io.Writer) bool {
			select {
			case rec, open := <-sub.Records():
				if !open {
					return false
				}
				if scope.Matches(rec) {
					c.SSEvent("insert", rec)
				}
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
