package router

import (
	"context"
	"html/template"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/stemsi/formbuilder/internal/config"
	"github.com/stemsi/formbuilder/internal/handler"
	"github.com/stemsi/formbuilder/internal/middleware"
	"github.com/stemsi/formbuilder/internal/render"
	"github.com/stemsi/formbuilder/internal/response"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Question *handler.QuestionHandler
	Page     *handler.PageHandler
	Drag     *handler.DragHandler
	System   *handler.SystemHandler
}

// SetupRouter configures the editor page, the JSON API, the drag socket and
// the ops endpoints. ctx bounds background work such as the rate limiter
// sweep.
func SetupRouter(ctx context.Context, handlers *Handlers, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Remaining"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.AccessLog(log))
	router.Use(middleware.Brotli())

	router.SetHTMLTemplate(template.Must(render.Templates()))

	// ─── Ops ───────────────────────────────────────────────────────────
	router.GET("/health", handlers.System.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ─── 1. Editor Page (HTML, Post/Redirect/Get) ──────────────────────
	router.GET("/", middleware.NoStore(), handlers.Page.Editor)
	ui := router.Group("/ui")
	{
		ui.POST("/questions", handlers.Page.AddQuestion)
		ui.POST("/questions/:id", handlers.Page.SaveQuestion)
		ui.POST("/questions/:id/children", handlers.Page.AddChildQuestion)
		ui.POST("/questions/:id/delete", handlers.Page.DeleteQuestion)
		ui.POST("/submit", handlers.Page.Submit)
	}

	// ─── 2. Form API (JSON) ────────────────────────────────────────────
	api := router.Group("/api/v1/form")
	api.Use(middleware.NoStore())
	if cfg.RateLimitPerMinute > 0 {
		limiter := middleware.NewRateLimiter(ctx, cfg.RateLimitPerMinute, time.Minute)
		api.Use(limiter.Middleware())
	}
	{
		api.GET("", handlers.Question.GetForm)
		api.PUT("", handlers.Question.ImportForm)
		api.DELETE("", handlers.Question.ResetForm)

		api.POST("/questions", handlers.Question.AddQuestion)
		api.PUT("/questions/:id", handlers.Question.UpdateQuestion)
		api.DELETE("/questions/:id", handlers.Question.DeleteQuestion)
		api.PATCH("/questions/:id/text", handlers.Question.SetText)
		api.PATCH("/questions/:id/kind", handlers.Question.SetKind)
		api.POST("/questions/:id/children", handlers.Question.AddChildQuestion)

		api.POST("/move", handlers.Question.MoveQuestion)
		api.POST("/submit", handlers.Question.SubmitForm)
		api.GET("/submission", handlers.Question.GetSubmission)
	}

	// ─── 3. WebSocket ──────────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/form/drag", handlers.Drag.DragStream)
	}

	return router
}
