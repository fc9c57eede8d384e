package enrollment

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches enrollment endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authenticated gin.HandlerFunc) {
	router.GET("/enrollments", authenticated, handler.List)
}
