package routes

import (
	"github.com/escape-finder/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupValidationRoutes(public *gin.RouterGroup, validationController *controllers.ValidationController) {
	validation := public.Group("/validation")
	{
		validation.GET("/email/:email", validationController.ValidateEmail)
		validation.GET("/state/:state", validationController.ValidateState)
		validation.GET("/slug/:slug", validationController.ValidateSlug)
	}
}
