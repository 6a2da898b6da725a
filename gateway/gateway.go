// Package gateway is the HTTP surface of the marketplace engine. It
// resolves the principal, checks nothing business-related itself, and
// maps the engine's error taxonomy onto HTTP statuses and stable codes.
package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/example/marketplace/pkg/auth"
	"github.com/example/marketplace/pkg/cart"
	"github.com/example/marketplace/pkg/catalog"
	"github.com/example/marketplace/pkg/config"
	"github.com/example/marketplace/pkg/errs"
	"github.com/example/marketplace/pkg/orders"
	"github.com/example/marketplace/pkg/repository"
	"github.com/example/marketplace/pkg/settings"
	"github.com/example/marketplace/pkg/verification"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

const principalKey = "principal"

type Gateway struct {
	config   *config.Config
	logger   *zap.Logger
	router   *gin.Engine
	sessions *auth.SessionStore
	carts    *cart.Store
	catalog  *catalog.Store
	settings *settings.Store
	orders   *orders.Service
	sellers  *verification.Service
	audit    *repository.MongoRepository
}

type Deps struct {
	Sessions *auth.SessionStore
	Carts    *cart.Store
	Catalog  *catalog.Store
	Settings *settings.Store
	Orders   *orders.Service
	Sellers  *verification.Service
	Audit    *repository.MongoRepository
}

func NewGateway(cfg *config.Config, logger *zap.Logger, deps Deps) *Gateway {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggerMiddleware(logger))

	return &Gateway{
		config:   cfg,
		logger:   logger,
		router:   router,
		sessions: deps.Sessions,
		carts:    deps.Carts,
		catalog:  deps.Catalog,
		settings: deps.Settings,
		orders:   deps.Orders,
		sellers:  deps.Sellers,
		audit:    deps.Audit,
	}
}

func (g *Gateway) SetupRoutes() {
	// Health check
	g.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := g.router.Group("/api/v1")
	v1.Use(g.authMiddleware())
	{
		carts := v1.Group("/cart")
		{
			carts.GET("", g.getCart)
			carts.POST("/items", g.addCartItem)
			carts.DELETE("/items/:productID", g.removeCartItem)
		}

		ordersGroup := v1.Group("/orders")
		{
			ordersGroup.POST("", g.checkout)
			ordersGroup.GET("", g.listOrders)
			ordersGroup.GET("/:number", g.getOrder)
			ordersGroup.PUT("/:number/status", g.overrideStatus)
			ordersGroup.PUT("/:number/shipping", g.updateShipping)
			ordersGroup.POST("/:number/confirm", g.confirmReceipt)
			ordersGroup.POST("/:number/items/:itemID/sent", g.markSent)
			ordersGroup.GET("/:number/audit", g.getOrderAudit)
		}

		seller := v1.Group("/seller")
		{
			seller.POST("/verification", g.requestSeller)
			seller.POST("/revert", g.revertToCustomer)
		}

		admin := v1.Group("/admin")
		{
			admin.GET("/verifications", g.listPendingVerifications)
			admin.POST("/verifications/:userID/approve", g.approveVerification)
			admin.POST("/verifications/:userID/reject", g.rejectVerification)
		}
	}

	// Swagger
	g.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (g *Gateway) Start() error {
	addr := fmt.Sprintf("%s:%d", g.config.Gateway.Host, g.config.Gateway.Port)
	g.logger.Info("Gateway starting", zap.String("address", addr))
	return g.router.Run(addr)
}

// authMiddleware resolves the bearer token into a principal. Session
// issuance lives in the external auth service; this side only reads.
func (g *Gateway) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			g.respondError(c, errs.ErrUnauthorized)
			c.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		principal, err := g.sessions.Resolve(c.Request.Context(), token)
		if err != nil {
			g.respondError(c, err)
			c.Abort()
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func (g *Gateway) principal(c *gin.Context) auth.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(auth.Principal); ok {
			return p
		}
	}
	return auth.Principal{}
}

// signOut reacts to the role-change signal from the verification
// workflow: every live session of the user is revoked so no request
// keeps acting under the old role.
func (g *Gateway) signOut(c *gin.Context, userID string) {
	if err := g.sessions.RevokeUser(c.Request.Context(), userID); err != nil {
		g.logger.Error("Failed to revoke sessions after role change",
			zap.String("user_id", userID),
			zap.Error(err))
	}
}

func (g *Gateway) respondError(c *gin.Context, err error) {
	status, code := httpStatus(err)
	body := gin.H{"error": err.Error(), "code": code}
	if fields := errs.Fields(err); fields != nil {
		body["fields"] = fields
	}
	if status >= http.StatusInternalServerError {
		g.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	c.JSON(status, body)
}

func httpStatus(err error) (int, string) {
	switch {
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, errs.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, errs.ErrEmptyCart):
		return http.StatusBadRequest, "empty_cart"
	case errors.Is(err, errs.ErrPriceMismatch):
		return http.StatusUnprocessableEntity, "price_mismatch"
	case errors.Is(err, errs.ErrInvalidTransition):
		return http.StatusConflict, "invalid_transition"
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, errs.ErrInvalidInput):
		return http.StatusBadRequest, "invalid_input"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func loggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
