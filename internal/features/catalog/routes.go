package catalog

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches catalog endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authenticated gin.HandlerFunc) {
	router.GET("/courses/:courseId/outline", authenticated, handler.Outline)
}
