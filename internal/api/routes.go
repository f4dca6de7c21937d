package api

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/tablesim/internal/api/handlers"
	"github.com/playmatatu/tablesim/internal/config"
	"github.com/playmatatu/tablesim/internal/middleware"
	"github.com/redis/go-redis/v9"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	router.Use(middleware.CORSMiddleware(cfg))

	if cfg.Environment != "production" {
		router.Use(func(c *gin.Context) {
			c.Header("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
			c.Header("Pragma", "no-cache")
			c.Header("Expires", "0")
			c.Next()
		})
		log.Println("[DEV MODE] No-cache headers enabled for all routes")
	}

	router.GET("/health", handlers.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", handlers.HealthCheck)

		// Batch replay, no table needed
		v1.POST("/replay", handlers.RunReplay())

		tables := v1.Group("/tables")
		{
			tables.POST("", handlers.CreateTable(cfg))
			tables.GET("/:id", handlers.GetTable())
			tables.GET("/:id/transform", handlers.GetTransform(cfg))
			tables.POST("/:id/hit-test", handlers.HitTest(cfg))
			tables.GET("/:id/ws", middleware.WebSocketCORSCheck(cfg), handlers.HandleTableWebSocket())

			// Mutations need the table token from create
			tables.POST("/:id/shot", handlers.TableAuthMiddleware(cfg), handlers.TakeShot())
			tables.POST("/:id/rack", handlers.TableAuthMiddleware(cfg), handlers.RackTable())
		}

		adm := v1.Group("/admin", handlers.OperatorAuthMiddleware(db))
		{
			adm.GET("/tables", handlers.AdminListTables(db))
			adm.DELETE("/tables/:id", handlers.AdminDeleteTable(db))
			adm.GET("/tables/:id/shots", handlers.AdminListShots(db))
			adm.GET("/replays", handlers.AdminListReplays(db))
			adm.GET("/audit", handlers.AdminAuditLogs(db))
		}
	}

	if rdb == nil {
		log.Println("[API] Redis not configured; frames are delivered in-process only")
	}
}
