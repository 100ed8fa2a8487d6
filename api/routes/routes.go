package routes

import (
	"github.com/gin-gonic/gin"

	"activity-insights/api/handlers"
	"activity-insights/api/middleware"
)

// SetupRoutes wires all endpoints onto the engine.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")

	ds := v1.Group("/dataset")
	{
		ds.POST("/load", h.Dataset.Load)
		ds.POST("/prepare", h.Dataset.Prepare)
		ds.GET("/status/:taskId", h.Dataset.GetStatus)
		ds.GET("/download", h.Dataset.Download)
	}

	v1.POST("/analysis", h.Analysis.Analyze)
}
