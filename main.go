package main

import (
	"fmt"
	"log"
	"os"

	"tuc-canteen-backend/database"
	"tuc-canteen-backend/handlers"
	"tuc-canteen-backend/middleware"
	"tuc-canteen-backend/reconcile"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env == "development" {
		if err := godotenv.Load(".env.development"); err != nil {
			log.Println("WARN: could not load .env.development, using system environment")
		}
	} else {
		if err := godotenv.Load(".env.production"); err != nil {
			log.Println("WARN: could not load .env.production, using system environment")
		}
	}

	middleware.LoadSecret()

	mongoURI := os.Getenv("MONGODB_URI")
	dbName := os.Getenv("MONGODB_NAME")

	database.Connect(mongoURI, dbName)

	if err := database.EnsureIndexes(); err != nil {
		log.Println("WARN: could not create indexes:", err)
	}

	handlers.InitEngine(reconcile.NewEngine(database.NewPaymentStore()))

	router := gin.Default()

	allowedOrigins := []string{
		"http://localhost:5173",
		"https://tuc-canteen.web.app",
		"capacitor://localhost",
	}

	router.Use(func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		for _, o := range allowedOrigins {
			if o == origin {
				c.Writer.Header().Set("Access-Control-Allow-Origin", o)
				break
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.POST("/login", handlers.LoginHandler)
	router.POST("/logout", handlers.LogoutHandler)

	router.GET("/auth/me", handlers.AuthMeHandler(database.AdminCollection))
	router.POST("/admin/bootstrap", handlers.BootstrapAdminHandler)

	sellersGroup := router.Group("/sellers")
	sellersGroup.Use(middleware.AuthMiddleware())
	{
		sellersGroup.GET("", handlers.GetSellersHandler)
		sellersGroup.POST("", middleware.RequireLeader(), handlers.CreateSellerHandler)
		sellersGroup.PUT("/:id", middleware.RequireLeader(), handlers.UpdateSellerHandler)
		sellersGroup.DELETE("/:id", middleware.RequireLeader(), handlers.DeactivateSellerHandler)
	}

	attendanceGroup := router.Group("/attendance")
	attendanceGroup.Use(middleware.AuthMiddleware())
	{
		attendanceGroup.GET("", handlers.GetAttendanceHandler)
		attendanceGroup.PUT("", handlers.SetAttendanceHandler)
	}

	paymentsGroup := router.Group("/payments")
	paymentsGroup.Use(middleware.AuthMiddleware())
	{
		paymentsGroup.GET("", handlers.GetPaymentsHandler)
		paymentsGroup.GET("/week", handlers.GetWeekViewHandler)
		paymentsGroup.GET("/week/live", handlers.LiveWeekViewHandler)
		paymentsGroup.POST("/collect", handlers.CollectPaymentHandler)
		paymentsGroup.GET("/receipts/:id", handlers.GetReceiptHandler)
	}

	reportsGroup := router.Group("/reports")
	reportsGroup.Use(middleware.AuthMiddleware())
	{
		reportsGroup.GET("/dashboard", handlers.DashboardStatsHandler)
		reportsGroup.GET("/weekly-summary", handlers.WeeklySummaryHandler)
		reportsGroup.GET("/week.csv", handlers.ExportWeekCSVHandler)
		reportsGroup.GET("/attendance-status", handlers.AttendanceStatusHandler)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Println("INFO: PORT not set, defaulting to " + port)
	}

	fmt.Printf("Server running in %s mode on http://localhost:%s\n", env, port)
	router.Run(":" + port)
}
