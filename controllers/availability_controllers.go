package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tablebook/reservation-app/services"
	"github.com/tablebook/reservation-app/utils"
)

type AvailabilityController struct {
	Availability *services.AvailabilityService
}

func NewAvailabilityController(availability *services.AvailabilityService) *AvailabilityController {
	return &AvailabilityController{Availability: availability}
}

// GetAvailableTables answers "which tables are free at this date and
// time". A closed restaurant is reported with is_open=false, not an
// error.
func (ac *AvailabilityController) GetAvailableTables(c *gin.Context) {
	date := c.Query("date")
	clock := c.Query("time")
	if date == "" || clock == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("missing required parameters: date and time"))
		return
	}

	duration, _ := strconv.Atoi(c.DefaultQuery("duration", "120"))
	partySize, _ := strconv.Atoi(c.Query("partySize"))

	result, err := ac.Availability.AvailableTables(date, clock, duration, partySize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table availability", result)
}

// GetAvailableTimeSlots answers "which start times are offerable for
// this date and party size".
func (ac *AvailabilityController) GetAvailableTimeSlots(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.RespondError(c, http.StatusBadRequest, errors.New("missing required parameter: date"))
		return
	}

	partySize, _ := strconv.Atoi(c.DefaultQuery("partySize", "2"))
	duration, _ := strconv.Atoi(c.DefaultQuery("duration", "120"))
	granularity, _ := strconv.Atoi(c.DefaultQuery("granularity", "30"))

	result, err := ac.Availability.AvailableTimeSlots(date, partySize, duration, granularity)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Available time slots", result)
}
