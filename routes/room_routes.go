package routes

import (
	"github.com/escape-finder/api-go/controllers"
	"github.com/escape-finder/api-go/middleware"
	"github.com/gin-gonic/gin"
)

func SetupRoomRoutes(public *gin.RouterGroup, d Deps, rooms *controllers.RoomController, ranking *controllers.RankingController, themes *controllers.ThemeController) {
	roomGroup := public.Group("/rooms")
	roomGroup.Use(d.Cache.Handler(middleware.CacheRooms))
	{
		roomGroup.GET("", rooms.ListRooms)
		roomGroup.GET("/top", ranking.GetTopRooms)
		roomGroup.GET("/:slug", rooms.GetRoom)
	}

	themeGroup := public.Group("/themes")
	themeGroup.Use(d.Cache.Handler(middleware.CacheThemes))
	{
		themeGroup.GET("", themes.GetThemes)
		themeGroup.GET("/:slug", themes.GetTheme)
	}
}

func SetupLocationRoutes(public *gin.RouterGroup, d Deps, locations *controllers.LocationController) {
	locationGroup := public.Group("/locations")
	locationGroup.Use(d.Cache.Handler(middleware.CacheLocations))
	{
		locationGroup.GET("", locations.GetCountries)
		locationGroup.GET("/:country", locations.GetStates)
		locationGroup.GET("/:country/:state", locations.GetCities)
		locationGroup.GET("/:country/:state/:city", locations.GetCity)
		locationGroup.GET("/:country/:state/:city/:venue", locations.GetVenue)
	}
}

func SetupBlogRoutes(public *gin.RouterGroup, d Deps, blog *controllers.BlogController) {
	blogGroup := public.Group("/blog")
	blogGroup.Use(d.Cache.Handler(middleware.CacheBlog))
	{
		blogGroup.GET("", blog.ListPosts)
		blogGroup.GET("/:slug", blog.GetPost)
	}
}
