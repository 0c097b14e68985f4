package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tablebook/reservation-app/events"
	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/services"
	"github.com/tablebook/reservation-app/utils"
)

type OpeningHoursController struct {
	Availability *services.AvailabilityService
}

func NewOpeningHoursController(availability *services.AvailabilityService) *OpeningHoursController {
	return &OpeningHoursController{Availability: availability}
}

// GetOpeningHours lists the weekly calendar, seeding defaults if the
// calendar has never been set up.
func (oc *OpeningHoursController) GetOpeningHours(c *gin.Context) {
	hours, err := oc.Availability.ListHours()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Opening hours", hours)
}

// ReplaceOpeningHours atomically replaces all seven entries. A single
// malformed entry rejects the whole update.
func (oc *OpeningHoursController) ReplaceOpeningHours(c *gin.Context) {
	var req []struct {
		DayOfWeek int    `json:"day_of_week"`
		IsOpen    bool   `json:"is_open"`
		OpenTime  string `json:"open_time"`
		CloseTime string `json:"close_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	entries := make([]models.OpeningHours, 0, len(req))
	for _, entry := range req {
		entries = append(entries, models.OpeningHours{
			DayOfWeek: entry.DayOfWeek,
			IsOpen:    entry.IsOpen,
			OpenTime:  entry.OpenTime,
			CloseTime: entry.CloseTime,
		})
	}

	saved, err := oc.Availability.ReplaceAllHours(entries)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastMessage(events.Message{Event: events.EventHoursUpdate, Data: saved})
	utils.RespondJSON(c, http.StatusOK, "Opening hours updated", saved)
}
