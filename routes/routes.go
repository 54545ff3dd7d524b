package routes

import (
	"net/http"

	"yogastore-backend/config"
	"yogastore-backend/controllers"
	"yogastore-backend/metrics"
	"yogastore-backend/services"
	"yogastore-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Deps are the services the HTTP surface is built on.
type Deps struct {
	Config    *config.Config
	Auth      *services.AuthService
	Catalog   *services.CatalogService
	Purchases *services.PurchaseService
	Profiles  *services.ProfileService
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	origins := d.Config.AllowedOrigins()
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	r.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return allowed[origin]
		},
	}))

	r.Use(config.PerformanceLogger())

	requireAuth := controllers.AuthMiddleware(d.Auth)
	optionalAuth := controllers.OptionalAuth(d.Auth)
	loginLimiter := utils.NewRateLimiter(d.Config.LoginRatePerSec, d.Config.LoginBurst)

	authController := controllers.NewAuthController(d.Auth, d.Profiles, d.Config.JWTExpiryHours)
	courseController := controllers.NewCourseController(d.Catalog, d.Purchases)
	teacherController := controllers.NewTeacherController(d.Catalog)
	profileController := controllers.NewProfileController(d.Profiles)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := r.Group("/auth")
	{
		auth.POST("/register", authController.Register)
		auth.POST("/login", loginLimiter.Middleware(), authController.Login)

		auth.Use(requireAuth)
		auth.POST("/logout", authController.Logout)
		auth.GET("/me", authController.Me)
	}

	api := r.Group("/api")
	{
		// Course routes
		courses := api.Group("/courses")
		{
			courses.GET("", requireAuth, courseController.Discover)
			courses.GET("/mine", requireAuth, courseController.MyCourses)
			courses.GET("/:id", optionalAuth, courseController.GetCourse)
			courses.POST("/:id/purchase", optionalAuth, courseController.Purchase)
		}

		// Teacher routes
		teachers := api.Group("/teachers")
		{
			teachers.GET("", teacherController.GetTeachers)
			teachers.GET("/:id", teacherController.GetTeacher)
		}

		// Profile and balance routes
		account := api.Group("", requireAuth)
		{
			account.GET("/profile", profileController.GetProfile)
			account.PUT("/profile", profileController.UpdateProfile)
			account.GET("/transactions", profileController.GetTransactions)
			account.POST("/transactions/top-up", profileController.TopUp)
			account.GET("/ledger", profileController.GetLedger)
		}
	}

	return r
}
