// api/router/router.go

package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/warden-labs/zerotrust/api/controller"
	"github.com/warden-labs/zerotrust/api/engine"
	"github.com/warden-labs/zerotrust/api/middleware"
)

func SetupRouter(
	controllers *controller.Controllers,
	metrics *engine.Metrics,
	rateLimitRequests int,
	rateLimitDuration time.Duration,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitRequests, rateLimitDuration))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := router.Group("/api/v1")

	// Policy management needs an authenticated admin; evaluation and trust
	// signals are called service-to-service by the wallet backends.
	admin := api.Group("")
	admin.Use(middleware.GroupAuthMiddleware([]string{"zerotrust-admin"}))
	controllers.Policy.RegisterRoutes(admin)

	controllers.Access.RegisterRoutes(api)

	return router
}
