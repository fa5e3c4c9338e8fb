package routes

import (
	"backend/controllers"
	"backend/middleware"

	"github.com/gin-gonic/gin"
)

func InitializeRoutes(router *gin.Engine) {
	router.POST("/auth/register", controllers.Register)
	router.POST("/auth/login", controllers.Login)
	router.POST("/auth/forgot-password", controllers.RequestPasswordReset)
	router.POST("/auth/reset-password", controllers.ResetPassword)
	router.Static("/uploads", "./uploads")

	orders := router.Group("/orders")
	orders.Use(middleware.AuthMiddleware("admin", "seller"))
	{
		orders.POST("/new", controllers.CreateOrder)
		orders.GET("", controllers.GetOrders)
		orders.GET("/stats", controllers.GetOrderStats)
		orders.GET("/:id", controllers.GetOrderByID)
		orders.PUT("/:id", controllers.UpdateOrder)
		orders.DELETE("/:id", controllers.DeleteOrder)
	}

	products := router.Group("/products")
	products.Use(middleware.AuthMiddleware("admin", "seller"))
	{
		products.GET("", controllers.GetProducts)
		products.GET("/ready", controllers.GetReadyProducts)
		products.GET("/clients", controllers.ListClients)
		products.POST("/new", controllers.AddProduct)
		products.POST("/pay", controllers.PayDebt)
		products.POST("/in", controllers.AddInput)
		products.GET("/in", controllers.GetInputs)
		products.DELETE("/in/:id", controllers.DeleteInput)
		products.POST("/photo/:id", controllers.SaveProductPhoto)
		products.GET("/:id", controllers.GetProduct)
		products.PUT("/:id", controllers.EditProduct)
		products.DELETE("/:id", controllers.DeleteProduct)
	}

	clients := router.Group("/clients")
	clients.Use(middleware.AuthMiddleware("admin", "seller"))
	{
		clients.GET("", controllers.ListClients)
		clients.POST("", controllers.AddClient)
		clients.GET("/:id", controllers.GetClient)
		clients.PUT("/:id", controllers.UpdateClient)
		clients.DELETE("/:id", controllers.DeleteClient)
		clients.GET("/:id/history", controllers.GetClientHistory)
	}
}
