package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/baserisk/scanguard/internal/httpapi/handler"
	"github.com/baserisk/scanguard/internal/httpapi/middleware"
)

// SetupRoutes wires the full HTTP surface: health check, preflight, and the
// scan lifecycle group.
func SetupRoutes(engine *gin.Engine, scanHandler *handler.ScanHandler, traceHeaderName string) {
	engine.Use(middleware.Recovery(), middleware.TraceID(traceHeaderName), middleware.Logger())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")
	{
		api.GET("/preflight/contract-code", scanHandler.Preflight)

		scans := api.Group("/scans")
		scans.POST("", scanHandler.CreateScan)
		scans.GET("/:id", scanHandler.GetScan)
		scans.POST("/:id/run", scanHandler.RunScan)
		scans.GET("/:id/events", scanHandler.ListEvents)
		scans.GET("/:id/stream", scanHandler.Stream)
		scans.POST("/:id/chat", scanHandler.Chat)
	}
}
