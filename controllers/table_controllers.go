package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/events"
	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/services"
	"github.com/tablebook/reservation-app/utils"
)

type TableController struct {
	DB      *gorm.DB
	Catalog *services.CatalogService
}

func NewTableController(db *gorm.DB, catalog *services.CatalogService) *TableController {
	return &TableController{DB: db, Catalog: catalog}
}

// GetAllTables lists tables ordered by table id, with an optional
// ?status= filter.
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Catalog.ListTables(c.Query("status"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// GetTableByID returns one table with its active bookings.
func (tc *TableController) GetTableByID(c *gin.Context) {
	tableID, err := strconv.Atoi(c.Param("table_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, svcErr := tc.Catalog.FindByTableID(tableID)
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}

	var bookings []models.Booking
	if err := tc.DB.
		Where("table_id = ?", tableID).
		Where("status IN ?", []string{models.BookingPending, models.BookingConfirmed}).
		Order("booking_time asc").
		Find(&bookings).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table detail", gin.H{
		"table":    table,
		"bookings": bookings,
	})
}

// CreateTable adds a new table.
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		TableID  int    `json:"table_id" binding:"required"`
		Capacity int    `json:"capacity" binding:"required"`
		Location string `json:"location" binding:"required"`
		Status   string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Catalog.Create(req.TableID, req.Capacity, req.Location, req.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	events.BroadcastTableCreate(*table)
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// UpdateTable applies a partial edit to a table.
func (tc *TableController) UpdateTable(c *gin.Context) {
	tableID, err := strconv.Atoi(c.Param("table_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var req struct {
		Capacity *int    `json:"capacity"`
		Location *string `json:"location"`
		Status   *string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, svcErr := tc.Catalog.Update(tableID, services.TableUpdate{
		Capacity: req.Capacity,
		Location: req.Location,
		Status:   req.Status,
	})
	if svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}

	events.BroadcastTableUpdate(*table)
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// DeleteTable removes a table unless it still has active bookings.
func (tc *TableController) DeleteTable(c *gin.Context) {
	tableID, err := strconv.Atoi(c.Param("table_id"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if svcErr := tc.Catalog.Delete(tableID); svcErr != nil {
		respondServiceError(c, svcErr)
		return
	}

	events.BroadcastTableDelete(tableID)
	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"table_id": tableID})
}
