package progress

import "github.com/gin-gonic/gin"

// RegisterRoutes attaches progress endpoints to the router.
func RegisterRoutes(router *gin.RouterGroup, handler *Handler, authenticated gin.HandlerFunc) {
	router.GET("/progress", authenticated, handler.List)
	router.GET("/courses/:courseId/progress", authenticated, handler.Get)
	router.DELETE("/courses/:courseId/progress", authenticated, handler.Reset)
	router.PUT("/videos/:videoId/progress", authenticated, handler.Update)
}
