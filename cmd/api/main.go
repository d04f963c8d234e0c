package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rakhaaa/todo-breeze-blade/internal/database"
	"github.com/rakhaaa/todo-breeze-blade/internal/handlers"
	"github.com/rakhaaa/todo-breeze-blade/internal/middleware"
	"github.com/rakhaaa/todo-breeze-blade/internal/monitoring"
	"github.com/rakhaaa/todo-breeze-blade/internal/utils"
)

func main() {
	if err := utils.EnsureJWTReady(); err != nil {
		log.Fatal("JWT configuration error: ", err)
	}

	database.InitDB()
	defer database.CloseDB()
	database.CreateTables()

	monitor := monitoring.NewService(time.Now())

	router := gin.Default()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(monitoring.RequestMetricsMiddleware())

	router.GET("/health", handlers.HealthCheck)
	router.GET("/api/status", handlers.Status)
	router.POST("/auth/login", handlers.Login)

	todos := router.Group("/todos", middleware.AuthMiddleware())
	{
		todos.GET("", handlers.ListTodos)
		todos.POST("", handlers.CreateTodo)
		todos.PUT("/:id", handlers.UpdateTodo)
		todos.DELETE("/:id", handlers.DeleteTodo)
	}

	users := router.Group("/users", middleware.AuthMiddleware(), middleware.RequireAdmin())
	{
		users.GET("", handlers.ListUsers)
		users.POST("", handlers.CreateUser)
		users.PUT("/:id", handlers.UpdateUser)
		users.DELETE("/:id", handlers.DeleteUser)
	}

	router.GET("/api/admin/stats", middleware.AuthMiddleware(), middleware.RequireAdmin(), handlers.AdminStats(monitor))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Println("Todo admin API starting on :" + port)
	if err := router.Run(":" + port); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
