package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/service"
)

// SetupRouter builds the gin engine and mounts the API under /api/v1.
// The rate limiter is optional; passing nil leaves recipe writes unmetered.
func SetupRouter(
	db *gorm.DB,
	log *logrus.Logger,
	auth *service.AuthService,
	recipes *service.RecipeService,
	membership *service.MembershipService,
	shopping *service.ShoppingListService,
	limiter *middleware.RateLimiter,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := api.NewAuthHandler(auth)
	userHandler := api.NewUserHandler(db, auth, membership)
	recipeHandler := api.NewRecipeHandler(recipes, membership, shopping, auth)
	catalogHandler := api.NewCatalogHandler(db)

	v1 := router.Group("/api/v1")
	authHandler.RegisterRoutes(v1)
	userHandler.RegisterRoutes(v1, auth)
	recipeHandler.RegisterRoutes(v1, auth, limiter)
	catalogHandler.RegisterRoutes(v1)

	return router
}
