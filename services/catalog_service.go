package services

import (
	"time"

	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/utils"
)

// CatalogService owns the physical tables and their cached status.
type CatalogService struct {
	DB    *gorm.DB
	Locks *TableLocks
}

func NewCatalogService(db *gorm.DB, locks *TableLocks) *CatalogService {
	return &CatalogService{DB: db, Locks: locks}
}

// ListTables returns tables ordered by table id, optionally filtered
// by cached status.
func (s *CatalogService) ListTables(status string) ([]models.Table, error) {
	query := s.DB.Order("table_id asc")
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var tables []models.Table
	if err := query.Find(&tables).Error; err != nil {
		return nil, err
	}
	return tables, nil
}

// FindByTableID looks a table up by its external id.
func (s *CatalogService) FindByTableID(tableID int) (*models.Table, error) {
	var table models.Table
	if err := s.DB.Where("table_id = ?", tableID).First(&table).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, newErrorf(KindNotFound, "table not found", map[string]interface{}{"table_id": tableID})
		}
		return nil, err
	}
	return &table, nil
}

// Create adds a new table. Duplicate external ids are rejected.
func (s *CatalogService) Create(tableID, capacity int, location, status string) (*models.Table, error) {
	if tableID <= 0 || capacity <= 0 {
		return nil, newError(KindInvalidInput, "table id and capacity must be positive integers")
	}

	var count int64
	if err := s.DB.Model(&models.Table{}).Where("table_id = ?", tableID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, newErrorf(KindConflict, "table with this id already exists", map[string]interface{}{"table_id": tableID})
	}

	if status == "" {
		status = models.TableAvailable
	}
	table := models.Table{
		TableID:  tableID,
		Capacity: capacity,
		Location: location,
		Status:   status,
	}
	if err := s.DB.Create(&table).Error; err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Table %d created (capacity=%d, location=%s)", table.TableID, table.Capacity, table.Location)
	return &table, nil
}

// TableUpdate carries the optional fields of a table edit.
type TableUpdate struct {
	Capacity *int
	Location *string
	Status   *string
}

// Update applies a partial edit to an existing table.
func (s *CatalogService) Update(tableID int, update TableUpdate) (*models.Table, error) {
	table, err := s.FindByTableID(tableID)
	if err != nil {
		return nil, err
	}

	if update.Capacity != nil {
		if *update.Capacity <= 0 {
			return nil, newError(KindInvalidInput, "capacity must be a positive integer")
		}
		table.Capacity = *update.Capacity
	}
	if update.Location != nil {
		table.Location = *update.Location
	}
	if update.Status != nil {
		table.Status = *update.Status
	}

	if err := s.DB.Save(table).Error; err != nil {
		return nil, err
	}
	return table, nil
}

// Delete removes a table. Any pending or confirmed booking on the
// table, past or future, blocks deletion; the check and the delete run
// under the table's lock so a concurrent admission cannot slip in
// between them.
func (s *CatalogService) Delete(tableID int) error {
	unlock := s.Locks.Acquire(tableID)
	defer unlock()

	table, err := s.FindByTableID(tableID)
	if err != nil {
		return err
	}

	var active int64
	if err := s.DB.Model(&models.Booking{}).
		Where("table_id = ?", tableID).
		Where("status IN ?", []string{models.BookingPending, models.BookingConfirmed}).
		Count(&active).Error; err != nil {
		return err
	}
	if active > 0 {
		return newErrorf(KindConflict, "cannot delete table with active bookings", map[string]interface{}{
			"table_id":        tableID,
			"active_bookings": active,
		})
	}

	if err := s.DB.Delete(table).Error; err != nil {
		return err
	}

	utils.InfoLogger.Printf("Table %d deleted", tableID)
	return nil
}

// RecomputeStatus derives the table's cached status from the ledger:
// occupied when a confirmed booking spans asOf, reserved when a
// pending booking spans asOf or any active booking starts later,
// available otherwise.
func (s *CatalogService) RecomputeStatus(db *gorm.DB, tableID int, asOf time.Time) error {
	if db == nil {
		db = s.DB
	}

	var table models.Table
	if err := db.Where("table_id = ?", tableID).First(&table).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			// Table may have been deleted; nothing to reconcile.
			return nil
		}
		return err
	}

	var occupied int64
	if err := db.Model(&models.Booking{}).
		Where("table_id = ? AND status = ?", tableID, models.BookingConfirmed).
		Where("booking_time <= ? AND end_time > ?", asOf, asOf).
		Count(&occupied).Error; err != nil {
		return err
	}

	status := models.TableAvailable
	if occupied > 0 {
		status = models.TableOccupied
	} else {
		var held int64
		if err := db.Model(&models.Booking{}).
			Where("table_id = ?", tableID).
			Where("status IN ?", []string{models.BookingPending, models.BookingConfirmed}).
			Where("booking_time > ? OR (booking_time <= ? AND end_time > ?)", asOf, asOf, asOf).
			Count(&held).Error; err != nil {
			return err
		}
		if held > 0 {
			status = models.TableReserved
		}
	}

	if table.Status == status {
		return nil
	}
	table.Status = status
	return db.Save(&table).Error
}
