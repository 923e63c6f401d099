package handler

import (
	"log/slog"
	"net/http"

	"petcare-booking/internal/domain/user"
	"petcare-booking/internal/handler/api"
	"petcare-booking/internal/handler/middleware"
	"petcare-booking/internal/infra/metrics"
	"petcare-booking/internal/pkg/config"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/fx"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type RouterParams struct {
	fx.In

	Engine              *gin.Engine
	Config              config.Config
	Logger              *slog.Logger
	BookingHandler      *api.BookingHandler
	AvailabilityHandler *api.AvailabilityHandler
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimiter         *middleware.RateLimiter
	Metrics             *metrics.BookingMetrics
}

func NewRouter(p RouterParams) {
	setupMiddleware(p)
	setupRoutes(p)
}

func setupMiddleware(p RouterParams) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	p.Engine.Use(middleware.CustomRecovery(p.Logger))
	p.Engine.Use(middleware.NewCORSMiddleware(p.Config.CORS, p.Logger))
	p.Engine.Use(middleware.WrapLogger(p.Logger, p.Config.Business.Location()).LoggingMiddleware())
	p.Engine.Use(middleware.ErrorHandler(p.Logger))
}

func setupRoutes(p RouterParams) {
	engine := p.Engine
	auth := p.AuthMiddleware
	bookings := p.BookingHandler

	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(p.Metrics.Handler()))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	apiGroup.Use(p.RateLimiter.Middleware(), auth.RequireAuth())
	{
		addRoutes(apiGroup.Group("/employees"), []route{
			{Method: http.MethodGet, Path: "/:id/availability", Handler: p.AvailabilityHandler.GetSlots},
		})

		customerOnly := auth.RequireRole(user.RoleCustomer)
		staffOnly := auth.RequireRole(user.RoleEmployee, user.RoleAdmin)

		addRoutes(apiGroup.Group("/bookings"), []route{
			{Method: http.MethodPost, Path: "", Handler: bookings.Create, Mw: []gin.HandlerFunc{customerOnly}},
			{Method: http.MethodGet, Path: "", Handler: bookings.List},
			{Method: http.MethodGet, Path: "/statistics", Handler: bookings.Statistics},
			{Method: http.MethodGet, Path: "/:id", Handler: bookings.Get},
			{Method: http.MethodPatch, Path: "/:id", Handler: bookings.Update},
			{Method: http.MethodPost, Path: "/:id/cancel", Handler: bookings.Cancel},
			{Method: http.MethodPost, Path: "/:id/status", Handler: bookings.UpdateStatus, Mw: []gin.HandlerFunc{staffOnly}},
			{Method: http.MethodPost, Path: "/:id/rating", Handler: bookings.AddRating, Mw: []gin.HandlerFunc{customerOnly}},
		})
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
