package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter registers HTTP routes and returns the engine with middleware.
func NewRouter(app *App) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = app.Cfg.MaxUploadBytes
	r.Use(gin.Recovery(), WithRequestID(), WithLogging(app.Metrics))

	props := r.Group("/properties/:id")
	{
		props.GET("", app.getPropertyHandler)
		props.PUT("", app.updatePropertyHandler)
		props.POST("/featured-images", app.uploadFeaturedHandler)
		props.GET("/gallery", app.getGalleryHandler)
		props.POST("/gallery", app.uploadGalleryHandler)
	}
	gallery := r.Group("/gallery/:imageId")
	{
		gallery.PATCH("", app.updateGalleryImageHandler)
		gallery.DELETE("", app.deleteGalleryImageHandler)
	}
	r.GET("/comments", app.listCommentsHandler)
	r.GET("/uploads/:name", app.uploadBlobHandler)

	r.GET("/healthz", app.healthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(app.Gatherer, promhttp.HandlerOpts{})))
	r.GET("/openapi.yaml", app.openapiHandler)
	r.GET("/docs", app.docsHandler)
	return r
}
