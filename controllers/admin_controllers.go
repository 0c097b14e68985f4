package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/database"
	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/utils"
)

type AdminController struct {
	DB     *gorm.DB
	Seeder *database.Seeder
	Loc    *time.Location
}

func NewAdminController(db *gorm.DB, seeder *database.Seeder, loc *time.Location) *AdminController {
	if loc == nil {
		loc = time.Local
	}
	return &AdminController{DB: db, Seeder: seeder, Loc: loc}
}

type dashboardStats struct {
	TotalBookings int64 `json:"total_bookings"`
	TodayBookings int64 `json:"today_bookings"`
	BookingStats  struct {
		Pending   int64 `json:"pending"`
		Confirmed int64 `json:"confirmed"`
		Cancelled int64 `json:"cancelled"`
	} `json:"booking_stats"`
	TableStats struct {
		Available int64 `json:"available"`
		Reserved  int64 `json:"reserved"`
		Occupied  int64 `json:"occupied"`
		Total     int64 `json:"total"`
	} `json:"table_stats"`
}

// GetDashboardStats summarizes the ledger and catalog for the admin
// dashboard.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	var stats dashboardStats

	now := time.Now().In(ac.Loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, ac.Loc)

	ac.DB.Model(&models.Booking{}).Count(&stats.TotalBookings)
	ac.DB.Model(&models.Booking{}).
		Where("booking_time >= ? AND booking_time < ?", today, today.Add(24*time.Hour)).
		Count(&stats.TodayBookings)

	ac.DB.Model(&models.Booking{}).Where("status = ?", models.BookingPending).Count(&stats.BookingStats.Pending)
	ac.DB.Model(&models.Booking{}).Where("status = ?", models.BookingConfirmed).Count(&stats.BookingStats.Confirmed)
	ac.DB.Model(&models.Booking{}).Where("status = ?", models.BookingCancelled).Count(&stats.BookingStats.Cancelled)

	ac.DB.Model(&models.Table{}).Where("status = ?", models.TableAvailable).Count(&stats.TableStats.Available)
	ac.DB.Model(&models.Table{}).Where("status = ?", models.TableReserved).Count(&stats.TableStats.Reserved)
	ac.DB.Model(&models.Table{}).Where("status = ?", models.TableOccupied).Count(&stats.TableStats.Occupied)
	stats.TableStats.Total = stats.TableStats.Available + stats.TableStats.Reserved + stats.TableStats.Occupied

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}

// SeedDatabase wipes everything and recreates the demo data set.
func (ac *AdminController) SeedDatabase(c *gin.Context) {
	if err := ac.Seeder.Seed(); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Database seeded", nil)
}

// InitDatabase resets tables and hours to defaults, optionally
// preserving the booking ledger across the reset.
func (ac *AdminController) InitDatabase(c *gin.Context) {
	preserve := c.Query("preserveBookings") == "true"
	if err := ac.Seeder.Init(preserve); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Database initialized", gin.H{
		"preserve_bookings": preserve,
	})
}
