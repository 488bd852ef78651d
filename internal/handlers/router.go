package handlers

import (
	"fmt"

	"github.com/ezparkk/site-api/internal/metrics"
	"github.com/ezparkk/site-api/internal/middleware"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterConfig struct {
	AllowedOrigins []string
	// TrustedProxies are the only peers whose X-Forwarded-For is honoured.
	// Empty keys clients, and so rate limits, on the socket address.
	TrustedProxies []string
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	// RateLimiter guards the POST routes; nil disables limiting.
	RateLimiter *middleware.RateLimiter
}

// NewRouter wires every route the site's forms and pages call.
func NewRouter(cfg RouterConfig, submissions *SubmissionHandler, roles *RoleHandler) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(gin.Recovery(), middleware.RequestLogger(cfg.Logger, cfg.Metrics))

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", middleware.RequestIDHeader}
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	r.Use(cors.New(corsConfig))

	// multipart bodies beyond this spill to temp files
	r.MaxMultipartMemory = maxFormSize

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	submit := []gin.HandlerFunc{}
	if cfg.RateLimiter != nil {
		submit = append(submit, cfg.RateLimiter.Middleware())
	}

	api := r.Group("/api/v1")
	{
		api.GET("/health", HealthCheck)

		// Careers
		api.GET("/roles", roles.ListRoles)
		api.GET("/roles/:roleId", roles.GetRole)

		// Form submissions
		posts := api.Group("", submit...)
		posts.POST("/waitlist", submissions.JoinWaitlist)
		posts.POST("/resumes", submissions.UploadResume)
		posts.POST("/applications", submissions.SubmitApplication)
		posts.POST("/careers/:roleId/apply", submissions.ApplyForRole)
	}

	return r, nil
}
