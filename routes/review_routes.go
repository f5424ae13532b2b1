package routes

import (
	"github.com/escape-finder/api-go/controllers"
	"github.com/escape-finder/api-go/middleware"
	"github.com/gin-gonic/gin"
)

// SetupReviewRoutes mounts review reads with optional auth so signed-in
// callers see their own votes; writes require a token.
func SetupReviewRoutes(public *gin.RouterGroup, d Deps, limit gin.HandlerFunc, reviews *controllers.ReviewController) {
	auth := middleware.AuthMiddleware(d.Config.JWTSecret)

	public.GET("/rooms/:slug/reviews", middleware.OptionalAuth(d.Config.JWTSecret), reviews.List)
	public.POST("/rooms/:slug/reviews", auth, limit, reviews.Create)

	reviewGroup := public.Group("/reviews")
	reviewGroup.Use(auth)
	{
		reviewGroup.POST("/:id/helpful", limit, reviews.ToggleHelpful)
		reviewGroup.POST("/:id/report", limit, reviews.Report)
		reviewGroup.DELETE("/:id", reviews.Delete)
	}
}
