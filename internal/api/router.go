package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"movequote-backend/config"
	"movequote-backend/internal/mw"
	"movequote-backend/internal/pricing"
	"movequote-backend/internal/wizard"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(store *wizard.Store, svc *wizard.Service, engine *pricing.Engine, cfg *config.ServerConfig) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(store, svc, engine)

	// The wizard pages are served from a different origin than this API.
	corsCfg := cors.DefaultConfig()
	if len(cfg.CORSOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.CORSOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowMethods = []string{"GET", "POST", "DELETE"}
	r.Use(cors.New(corsCfg))

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/healthz", Healthz)
		api.GET("/catalog", caching, handler.GetCatalog)

		api.POST("/sessions", handler.CreateSession)
		api.GET("/sessions/:id", handler.GetSession)
		api.POST("/sessions/:id/items", handler.UpdateCount)
		api.POST("/sessions/:id/images", handler.AddImages)
		api.DELETE("/sessions/:id/images/:image_id", handler.RemoveImage)
		api.POST("/sessions/:id/addresses", handler.SetAddresses)
		api.POST("/sessions/:id/quote", handler.SubmitQuote)
		api.POST("/sessions/:id/modify", handler.Modify)
		api.POST("/sessions/:id/schedule", handler.BeginSchedule)
		api.POST("/sessions/:id/schedule/fields", handler.UpdateFormField)
		api.POST("/sessions/:id/schedule/submit", handler.SubmitSchedule)
		api.POST("/sessions/:id/payment", handler.CompletePayment)
		api.POST("/sessions/:id/reset", handler.Reset)
	}

	return r
}
