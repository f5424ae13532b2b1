package routes

import (
	"github.com/escape-finder/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupUploadRoutes(r *gin.RouterGroup, uploadController *controllers.UploadController) {
	upload := r.Group("/upload")
	{
		upload.POST("/presigned-url", uploadController.GetPresignedURL)

		// Up to ten listing photos in one call
		upload.POST("/multiple-presigned-urls", uploadController.GetMultiplePresignedURLs)

		upload.POST("/confirm", uploadController.ConfirmUpload)
		upload.DELETE("/file/*key", uploadController.DeleteFile)
	}
}
