package routes

import (
	"github.com/escape-finder/api-go/captcha"
	"github.com/escape-finder/api-go/catalog"
	"github.com/escape-finder/api-go/config"
	"github.com/escape-finder/api-go/content"
	"github.com/escape-finder/api-go/controllers"
	"github.com/escape-finder/api-go/events"
	"github.com/escape-finder/api-go/metrics"
	"github.com/escape-finder/api-go/middleware"
	"github.com/escape-finder/api-go/seo"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Deps is everything the handlers need. Redis, Google and the CMS may be
// absent; the features behind them switch off.
type Deps struct {
	Config    config.Config
	DB        *gorm.DB
	Redis     *redis.Client
	Cache     *middleware.ResponseCache
	Catalog   *catalog.Catalog
	CMS       *content.Client
	Captcha   captcha.Verifier
	Publisher events.Publisher
	Metrics   *metrics.Metrics
	Google    *config.GoogleConfig
	R2        *config.R2Config
	Log       *zap.Logger
}

func SetupRoutes(r *gin.Engine, d Deps) {
	site := seo.Site{Name: d.Config.SiteName, BaseURL: d.Config.SiteURL}
	limit := middleware.RateLimit(config.LoadRateLimitConfig(), d.Redis, d.Log)
	auth := middleware.AuthMiddleware(d.Config.JWTSecret)

	uploadController := controllers.NewUploadController(d.R2, d.Log)
	authController := controllers.NewAuthController(d.DB, d.Config, d.Google, uploadController, d.Log)
	roomController := controllers.NewRoomController(d.DB, d.Catalog, site, d.Log)
	rankingController := controllers.NewRankingController(d.DB, d.Catalog, d.Log)
	locationController := controllers.NewLocationController(d.DB, site, d.Log, d.Metrics)
	themeController := controllers.NewThemeController(d.DB, d.Catalog, site, d.Log)
	blogController := controllers.NewBlogController(d.CMS, site, d.Log)
	seoController := controllers.NewSEOController(d.DB, d.Catalog, d.CMS, site, d.Log)
	listingController := controllers.NewListingController(d.DB, d.Catalog, d.Captcha, uploadController, d.Publisher, d.Metrics, d.Log)
	moderationController := controllers.NewModerationController(d.DB, d.Publisher, d.Metrics, d.Log)
	reviewController := controllers.NewReviewController(d.DB, d.Captcha, d.Publisher, d.Metrics, d.Log)
	dashboardController := controllers.NewDashboardController(d.DB, d.Log)
	validationController := controllers.NewValidationController(d.DB, d.Log)
	healthController := controllers.NewHealthController(d.DB, d.Redis)

	r.GET("/health", healthController.Health)
	r.GET("/sitemap.xml", d.Cache.Handler(middleware.CacheSitemap), seoController.Sitemap)
	if d.Config.MetricsEnabled {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	// Public routes
	public := r.Group("/api")
	{
		public.POST("/register", limit, authController.Register)
		public.POST("/register/email-check", limit, authController.RegisterEmailCheck)
		public.POST("/login", limit, authController.Login)
		public.POST("/auth/google", limit, authController.GoogleLogin)
		public.POST("/refresh-token", limit, authController.RefreshToken)
		public.POST("/upload/avatar-temp", limit, uploadController.GetAvatarTempURL)

		SetupRoomRoutes(public, d, roomController, rankingController, themeController)
		SetupLocationRoutes(public, d, locationController)
		SetupBlogRoutes(public, d, blogController)
		SetupReviewRoutes(public, d, limit, reviewController)
		SetupValidationRoutes(public, validationController)
	}

	// Protected routes
	protected := r.Group("/api")
	protected.Use(auth)
	{
		protected.POST("/logout", authController.Logout)
		protected.GET("/profile", authController.GetProfile)
		protected.PUT("/profile", authController.UpdateProfile)
		protected.GET("/dashboard", dashboardController.GetDashboard)

		SetupUploadRoutes(protected, uploadController)
		SetupListingRoutes(protected, limit, listingController)
	}

	admin := r.Group("/api/admin")
	admin.Use(auth, middleware.RequireRole("admin"))
	{
		admin.GET("/stats", dashboardController.GetAdminStats)
		SetupModerationRoutes(admin, moderationController)
	}
}
