package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmhub/internal/domain/models"
	"github.com/mamadbah2/farmhub/internal/ratelimit"
	"github.com/mamadbah2/farmhub/internal/server/handlers"
	"github.com/mamadbah2/farmhub/internal/server/middleware"
)

// LoginLimit throttles login attempts per client IP.
type LoginLimit struct {
	Limiter ratelimit.Limiter
	Rate    float64
	Burst   int
}

// Dependencies are the handlers and cross-cutting pieces the router mounts.
type Dependencies struct {
	Auth          *handlers.AuthHandler
	Farmers       *handlers.FarmerHandler
	Settlements   *handlers.SettlementHandler
	Storage       *handlers.StorageHandler
	Notifications *handlers.NotificationHandler

	Tokens middleware.TokenParser

	// Registry receives the HTTP metrics; nil disables /metrics.
	Registry *prometheus.Registry
	// LoginLimit is optional.
	LoginLimit *LoginLimit
}

// New wires the Gin engine with required routes and middlewares.
func New(deps Dependencies, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger))

	if deps.Registry != nil {
		r.Use(middleware.NewMetrics(deps.Registry).Handler())
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	login := []gin.HandlerFunc{}
	if l := deps.LoginLimit; l != nil && l.Limiter != nil {
		login = append(login, middleware.RateLimit(l.Limiter, "login", l.Rate, l.Burst, logger.Named("ratelimit")))
	}
	login = append(login, deps.Auth.Login)

	api.POST("/auth/register-admin", deps.Auth.RegisterAdmin)
	api.POST("/auth/login", login...)

	authed := api.Group("", middleware.Authenticate(deps.Tokens))
	operators := middleware.RequireRole(models.RoleAdmin, models.RoleManager)
	admins := middleware.RequireRole(models.RoleAdmin)

	authed.GET("/auth/me", deps.Auth.Me)
	authed.POST("/admin/users", admins, deps.Auth.CreateUser)
	authed.POST("/admin/notifications", admins, deps.Notifications.SendMessage)

	authed.POST("/farmers", operators, deps.Farmers.Create)
	authed.GET("/farmers", operators, deps.Farmers.List)
	authed.GET("/farmers/:id", deps.Farmers.Get)

	authed.POST("/warehouses", admins, deps.Storage.CreateWarehouse)
	authed.GET("/warehouses", deps.Storage.ListWarehouses)

	authed.POST("/sales", operators, deps.Settlements.RecordSale)
	authed.POST("/input-invoices", operators, deps.Settlements.RecordInputInvoice)
	authed.POST("/settlements/calculate", operators, deps.Settlements.Calculate)
	authed.POST("/settlements/profitability", operators, deps.Settlements.Profitability)
	authed.GET("/sales/:id/settlement/preview", deps.Settlements.Preview)
	authed.GET("/sales/:id/settlement", deps.Settlements.Get)
	authed.POST("/sales/:id/settlement", operators, deps.Settlements.Settle)

	storage := authed.Group("/storage")
	storage.POST("/lots", operators, deps.Storage.StoreLot)
	storage.POST("/lots/:id/retrieve", operators, deps.Storage.RetrieveLot)
	storage.POST("/lots/:id/invoice", operators, deps.Storage.IssueInvoice)
	storage.GET("/lots/:id/fee", deps.Storage.LotFee)
	storage.GET("/lots/:id/estimate", deps.Storage.Estimate)
	storage.GET("/warehouses/:id/fees", operators, deps.Storage.WarehouseFees)
	storage.GET("/invoices/:number/pdf", operators, deps.Storage.InvoicePDF)

	logger.Info("router initialized")

	return r
}
