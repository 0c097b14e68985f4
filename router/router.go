package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/controllers"
	"github.com/tablebook/reservation-app/database"
	"github.com/tablebook/reservation-app/middlewares"
	"github.com/tablebook/reservation-app/services"
)

// SetupRouter wires the services, controllers and middleware into one
// gin engine.
func SetupRouter(db *gorm.DB, loc *time.Location) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	locks := services.NewTableLocks()
	availability := services.NewAvailabilityService(db)
	if loc != nil {
		availability.Loc = loc
	}
	catalog := services.NewCatalogService(db, locks)
	bookings := services.NewBookingService(db, availability, catalog, locks)
	seeder := database.NewSeeder(db, catalog, loc)

	userCtrl := controllers.NewUserController(db)
	tableCtrl := controllers.NewTableController(db, catalog)
	bookingCtrl := controllers.NewBookingController(db, bookings, loc)
	availabilityCtrl := controllers.NewAvailabilityController(availability)
	hoursCtrl := controllers.NewOpeningHoursController(availability)
	reportCtrl := controllers.NewReportController(db, loc)
	adminCtrl := controllers.NewAdminController(db, seeder, loc)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	api := r.Group("/api/v1")

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	strict := middlewares.NewStrictRateLimiter()
	api.POST("/auth/register", strict, userCtrl.Register)
	api.POST("/auth/login", strict, userCtrl.Login)

	// The embeddable widget talks to these without a session.
	api.POST("/bookings/external", strict, bookingCtrl.CreateExternalBooking)
	api.GET("/tables/availability", availabilityCtrl.GetAvailableTables)
	api.GET("/tables/availability/times", availabilityCtrl.GetAvailableTimeSlots)
	api.GET("/opening-hours", hoursCtrl.GetOpeningHours)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := api.Group("")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.GET("/auth/me", userCtrl.GetProfile)

		auth.GET("/bookings", bookingCtrl.GetAllBookings)
		auth.POST("/bookings", bookingCtrl.CreateBooking)
		auth.PATCH("/bookings/status", bookingCtrl.UpdateBookingStatus)
		auth.GET("/bookings/:booking_id", bookingCtrl.GetBookingByID)
		auth.PATCH("/bookings/:booking_id", bookingCtrl.UpdateBooking)
		auth.DELETE("/bookings/:booking_id", bookingCtrl.CancelBooking)

		auth.GET("/tables", tableCtrl.GetAllTables)
		auth.POST("/tables", tableCtrl.CreateTable)
		auth.GET("/tables/:table_id", tableCtrl.GetTableByID)
		auth.PATCH("/tables/:table_id", tableCtrl.UpdateTable)

		auth.GET("/reports", reportCtrl.GetReport)
		auth.GET("/admin/stats", adminCtrl.GetDashboardStats)
	}

	admin := api.Group("")
	admin.Use(middlewares.AuthMiddleware(), middlewares.RequireAdmin())
	{
		admin.DELETE("/tables/:table_id", tableCtrl.DeleteTable)
		admin.PUT("/opening-hours", hoursCtrl.ReplaceOpeningHours)
		admin.POST("/admin/seed", adminCtrl.SeedDatabase)
		admin.POST("/admin/init", adminCtrl.InitDatabase)
	}

	ws := r.Group("/ws")
	ws.Use(middlewares.WebSocketAuthMiddleware())
	{
		ws.GET("/events", controllers.EventsHandler)
	}

	return r
}
