package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/events"
	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/services"
	"github.com/tablebook/reservation-app/utils"
)

type BookingController struct {
	DB      *gorm.DB
	Service *services.BookingService
	Loc     *time.Location
}

func NewBookingController(db *gorm.DB, service *services.BookingService, loc *time.Location) *BookingController {
	if loc == nil {
		loc = time.Local
	}
	return &BookingController{DB: db, Service: service, Loc: loc}
}

func (bc *BookingController) startOfDay(t time.Time) time.Time {
	local := t.In(bc.Loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, bc.Loc)
}

// GetAllBookings lists ledger entries, filtered by status, a single
// date, an explicit range, or a named period.
func (bc *BookingController) GetAllBookings(c *gin.Context) {
	query := bc.DB.Preload("Table").Order("booking_time asc")

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	if date := c.Query("date"); date != "" {
		day, err := time.ParseInLocation("2006-01-02", date, bc.Loc)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		query = query.Where("booking_time >= ? AND booking_time < ?", day, day.Add(24*time.Hour))
	} else if start, end := c.Query("startDate"), c.Query("endDate"); start != "" && end != "" {
		startDate, err := time.ParseInLocation("2006-01-02", start, bc.Loc)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		endDate, err := time.ParseInLocation("2006-01-02", end, bc.Loc)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		query = query.Where("booking_time >= ? AND booking_time < ?", startDate, endDate.Add(24*time.Hour))
	} else if period := c.Query("period"); period != "" {
		today := bc.startOfDay(time.Now())
		switch period {
		case "today":
			query = query.Where("booking_time >= ? AND booking_time < ?", today, today.Add(24*time.Hour))
		case "future":
			query = query.Where("booking_time >= ?", today.Add(24*time.Hour))
		case "past":
			query = query.Where("booking_time < ?", today)
		case "week":
			query = query.Where("booking_time >= ? AND booking_time < ?", today, today.Add(7*24*time.Hour))
		case "month":
			query = query.Where("booking_time >= ? AND booking_time < ?", today, today.Add(30*24*time.Hour))
		case "upcoming":
			query = query.Where("booking_time >= ?", today).
				Where("status IN ?", []string{models.BookingPending, models.BookingConfirmed})
		}
	}

	var bookings []models.Booking
	if err := query.Find(&bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of bookings", bookings)
}

// GetBookingByID returns one booking by its external id.
func (bc *BookingController) GetBookingByID(c *gin.Context) {
	booking, err := bc.Service.FindByBookingID(c.Param("booking_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Booking detail", booking)
}

type bookingRequest struct {
	CustomerName string  `json:"customer_name" binding:"required"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	PartySize    int     `json:"party_size" binding:"required"`
	TableID      *int    `json:"table_id"`
	BookingTime  string  `json:"booking_time" binding:"required"`
	Duration     int     `json:"duration"`
	Status       string  `json:"status"`
	Notes        string  `json:"notes"`
}

func (bc *BookingController) parseBookingTime(raw string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	// Datetime-local inputs arrive without a zone; interpret them in
	// the restaurant's timezone.
	if t, err := time.ParseInLocation("2006-01-02T15:04", raw, bc.Loc); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", raw, bc.Loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// CreateBooking admits and persists a reservation for an internal
// actor. The caller may pick a table or leave it to auto-assign.
func (bc *BookingController) CreateBooking(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	bookingTime, ok := bc.parseBookingTime(req.BookingTime)
	if !ok {
		utils.RespondErrorDetails(c, http.StatusBadRequest,
			&services.EngineError{Kind: services.KindInvalidInput, Message: "invalid booking time format"},
			gin.H{"provided_time": req.BookingTime})
		return
	}

	booking, err := bc.Service.Create(services.CreateBookingRequest{
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Phone:        req.Phone,
		PartySize:    req.PartySize,
		TableID:      req.TableID,
		BookingTime:  bookingTime,
		Duration:     req.Duration,
		Status:       req.Status,
		Notes:        req.Notes,
		Source:       models.SourceInternal,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastBookingCreate(*booking)
	utils.RespondJSON(c, http.StatusCreated, "Booking created successfully", booking)
}

// CreateExternalBooking is the public path used by the embeddable
// widget: always auto-assigned and always pending regardless of the
// submitted payload.
func (bc *BookingController) CreateExternalBooking(c *gin.Context) {
	var req bookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	bookingTime, ok := bc.parseBookingTime(req.BookingTime)
	if !ok {
		utils.RespondErrorDetails(c, http.StatusBadRequest,
			&services.EngineError{Kind: services.KindInvalidInput, Message: "invalid booking time format"},
			gin.H{"provided_time": req.BookingTime})
		return
	}

	source := models.SourceExternal
	if c.Query("embedded") == "true" {
		source = models.SourceEmbeddedForm
	}

	booking, err := bc.Service.Create(services.CreateBookingRequest{
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Phone:        req.Phone,
		PartySize:    req.PartySize,
		BookingTime:  bookingTime,
		Duration:     req.Duration,
		Notes:        req.Notes,
		Source:       source,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastBookingCreate(*booking)
	utils.RespondJSON(c, http.StatusCreated, "Booking received", booking)
}

// UpdateBooking merge-edits a booking, re-running the admission check
// with the booking itself excluded from conflict detection.
func (bc *BookingController) UpdateBooking(c *gin.Context) {
	var req struct {
		CustomerName *string `json:"customer_name"`
		Email        *string `json:"email"`
		Phone        *string `json:"phone"`
		PartySize    *int    `json:"party_size"`
		TableID      *int    `json:"table_id"`
		BookingTime  *string `json:"booking_time"`
		Duration     *int    `json:"duration"`
		Notes        *string `json:"notes"`
		Status       *string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	patch := services.BookingPatch{
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Phone:        req.Phone,
		PartySize:    req.PartySize,
		TableID:      req.TableID,
		Duration:     req.Duration,
		Notes:        req.Notes,
		Status:       req.Status,
	}
	if req.BookingTime != nil {
		bookingTime, ok := bc.parseBookingTime(*req.BookingTime)
		if !ok {
			utils.RespondErrorDetails(c, http.StatusBadRequest,
				&services.EngineError{Kind: services.KindInvalidInput, Message: "invalid booking time format"},
				gin.H{"provided_time": *req.BookingTime})
			return
		}
		patch.BookingTime = &bookingTime
	}

	booking, err := bc.Service.Reschedule(c.Param("booking_id"), patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastBookingUpdate(*booking)
	utils.RespondJSON(c, http.StatusOK, "Booking updated", booking)
}

// UpdateBookingStatus applies one lifecycle transition.
func (bc *BookingController) UpdateBookingStatus(c *gin.Context) {
	var req struct {
		BookingID string `json:"booking_id" binding:"required"`
		Status    string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	booking, err := bc.Service.SetStatus(req.BookingID, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastBookingStatus(*booking)
	utils.RespondJSON(c, http.StatusOK, "Booking status updated", booking)
}

// CancelBooking soft-deletes: the booking stays in the ledger as
// cancelled and stops blocking its table.
func (bc *BookingController) CancelBooking(c *gin.Context) {
	booking, err := bc.Service.Cancel(c.Param("booking_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastBookingStatus(*booking)
	utils.RespondJSON(c, http.StatusOK, "Booking cancelled", booking)
}
