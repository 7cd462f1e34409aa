// Package routesはroutingを行います。
package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"trackit/internal/config"
	"trackit/internal/handlers"
	"trackit/internal/repositories"
	"trackit/internal/services"
)

// Options はルーターの設定です。
type Options struct {
	JWTSecret    string
	JWTExpiry    time.Duration
	CORSOrigins  []string
	StrictStatus bool
}

// OptionsFromConfig はサーバー設定からOptionsを作ります。
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		JWTSecret:    cfg.JWTSecret,
		JWTExpiry:    cfg.JWTExpiry,
		CORSOrigins:  cfg.CORSOrigins,
		StrictStatus: cfg.StrictStatus,
	}
}

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(store *repositories.Store, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())

	// CORS対策
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = opts.CORSOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	corsConfig.ExposeHeaders = []string{RequestIDHeader}
	r.Use(cors.New(corsConfig))

	// サービス
	taskService := services.NewTaskService(store.Tasks, opts.StrictStatus)
	userService := services.NewUserService(store.Users)
	jwtService := services.NewJWTService(opts.JWTSecret, opts.JWTExpiry)

	// ハンドラー
	userHandler := handlers.NewUserHandler(userService, jwtService)
	taskHandler := handlers.NewTaskHandler(taskService)

	// ルーティング
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API is running...")
	})
	r.GET("/api/health", func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "Database connection failed", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Database connection is healthy"})
	})

	users := r.Group("/api/users")
	users.POST("/register", userHandler.RegisterHandler)
	users.POST("/login", userHandler.LoginHandler)
	users.GET("/me", AuthMiddleware(jwtService), userHandler.MeHandler)

	tasks := r.Group("/api/tasks")
	tasks.Use(AuthMiddleware(jwtService))
	{
		tasks.GET("", taskHandler.GetTasksHandler)
		tasks.POST("", taskHandler.CreateTaskHandler)
		tasks.GET("/:id", taskHandler.GetTaskByIDHandler)
		tasks.PUT("/:id", taskHandler.UpdateTaskHandler)
		tasks.PATCH("/:id/move", taskHandler.MoveTaskHandler)
		tasks.DELETE("/:id", taskHandler.DeleteTaskHandler)
	}

	return r
}
