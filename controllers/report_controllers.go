package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/utils"
)

type ReportController struct {
	DB  *gorm.DB
	Loc *time.Location
}

func NewReportController(db *gorm.DB, loc *time.Location) *ReportController {
	if loc == nil {
		loc = time.Local
	}
	return &ReportController{DB: db, Loc: loc}
}

// GetReport aggregates the ledger over a period: totals, status
// breakdown, guest counts and per-table booking counts.
func (rc *ReportController) GetReport(c *gin.Context) {
	period := c.DefaultQuery("period", "all")

	now := time.Now().In(rc.Loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, rc.Loc)

	var startDate time.Time
	switch period {
	case "today":
		startDate = today
	case "week":
		// Week starts on Monday.
		offset := (int(today.Weekday()) + 6) % 7
		startDate = today.AddDate(0, 0, -offset)
	case "month":
		startDate = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, rc.Loc)
	case "3months":
		startDate = today.AddDate(0, -3, 0)
	default:
		startDate = time.Date(2000, 1, 1, 0, 0, 0, 0, rc.Loc)
	}
	endDate := today.Add(24 * time.Hour)

	var bookings []models.Booking
	if err := rc.DB.Preload("Table").
		Where("booking_time >= ? AND booking_time < ?", startDate, endDate).
		Find(&bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var confirmed, pending, cancelled, totalGuests int
	bookingsByTable := make(map[string]int)
	for _, booking := range bookings {
		switch booking.Status {
		case models.BookingConfirmed:
			confirmed++
		case models.BookingPending:
			pending++
		case models.BookingCancelled:
			cancelled++
		}
		totalGuests += booking.PartySize
		bookingsByTable[fmt.Sprintf("%d", booking.TableID)]++
	}

	averagePartySize := 0.0
	if len(bookings) > 0 {
		averagePartySize = float64(totalGuests) / float64(len(bookings))
	}

	var tables []models.Table
	if err := rc.DB.Order("table_id asc").Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Report", gin.H{
		"period":             period,
		"total_bookings":     len(bookings),
		"confirmed_bookings": confirmed,
		"pending_bookings":   pending,
		"cancelled_bookings": cancelled,
		"total_guests":       totalGuests,
		"average_party_size": fmt.Sprintf("%.1f", averagePartySize),
		"bookings_by_table":  bookingsByTable,
		"tables":             tables,
	})
}
