package routes

import (
	"github.com/escape-finder/api-go/controllers"
	"github.com/gin-gonic/gin"
)

func SetupListingRoutes(protected *gin.RouterGroup, limit gin.HandlerFunc, listings *controllers.ListingController) {
	listingGroup := protected.Group("/listings")
	{
		listingGroup.POST("", limit, listings.Submit)
		listingGroup.GET("/mine", listings.ListMine)
		listingGroup.GET("/mine/:id", listings.GetMine)
		listingGroup.PUT("/mine/:id", limit, listings.UpdateMine)
		listingGroup.DELETE("/mine/:id", listings.Withdraw)
	}
}

func SetupModerationRoutes(admin *gin.RouterGroup, moderation *controllers.ModerationController) {
	listingGroup := admin.Group("/listings")
	{
		listingGroup.GET("", moderation.ListPending)
		listingGroup.GET("/:id", moderation.GetListing)
		listingGroup.POST("/:id/approve", moderation.Approve)
		listingGroup.POST("/:id/reject", moderation.Reject)
	}

	reportGroup := admin.Group("/reports")
	{
		reportGroup.GET("", moderation.ListReports)
		reportGroup.POST("/:id/resolve", moderation.ResolveReport)
	}
}
