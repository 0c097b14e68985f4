package database

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/services"
	"github.com/tablebook/reservation-app/utils"
)

// Seeder populates the catalog and calendar with defaults and can
// restore existing bookings across a reset.
type Seeder struct {
	DB      *gorm.DB
	Catalog *services.CatalogService
	Loc     *time.Location
}

func NewSeeder(db *gorm.DB, catalog *services.CatalogService, loc *time.Location) *Seeder {
	if loc == nil {
		loc = time.Local
	}
	return &Seeder{DB: db, Catalog: catalog, Loc: loc}
}

// Migrate creates or updates the schema for every model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.OpeningHours{},
		&models.Booking{},
	)
}

func newBookingID() string {
	return uuid.NewString()
}

func defaultTables() []models.Table {
	return []models.Table{
		{TableID: 1, Capacity: 2, Location: "Window", Status: models.TableAvailable},
		{TableID: 2, Capacity: 4, Location: "Center", Status: models.TableAvailable},
		{TableID: 3, Capacity: 4, Location: "Window", Status: models.TableAvailable},
		{TableID: 4, Capacity: 6, Location: "Corner", Status: models.TableAvailable},
		{TableID: 5, Capacity: 8, Location: "Private Room", Status: models.TableAvailable},
		{TableID: 6, Capacity: 2, Location: "Bar", Status: models.TableAvailable},
		{TableID: 7, Capacity: 4, Location: "Patio", Status: models.TableAvailable},
		{TableID: 8, Capacity: 6, Location: "Garden", Status: models.TableAvailable},
	}
}

type sampleBooking struct {
	customerName string
	tableID      int
	partySize    int
	dayOffset    int
	hour, minute int
	duration     int
	notes        string
	status       string
}

func sampleBookings() []sampleBooking {
	return []sampleBooking{
		{"John Doe", 3, 4, 0, 19, 0, 120, "Window seat preferred", models.BookingConfirmed},
		{"Jane Smith", 1, 2, 0, 18, 30, 90, "Anniversary celebration", models.BookingConfirmed},
		{"Robert Johnson", 5, 6, 0, 20, 0, 150, "Birthday party", models.BookingPending},
		{"Emily Davis", 2, 3, 0, 19, 30, 120, "Allergic to nuts", models.BookingConfirmed},
		{"Michael Wilson", 4, 5, 0, 18, 0, 120, "", models.BookingCancelled},
		{"Sarah Brown", 6, 2, 1, 18, 0, 90, "Quiet area preferred", models.BookingConfirmed},
		{"David Miller", 7, 4, 1, 19, 0, 120, "", models.BookingConfirmed},
		{"Jennifer Taylor", 8, 6, 1, 20, 0, 150, "Business dinner", models.BookingPending},
	}
}

// Seed wipes the catalog, calendar and ledger and recreates the demo
// data set.
func (s *Seeder) Seed() error {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.Table{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.OpeningHours{}).Error; err != nil {
			return err
		}

		tables := defaultTables()
		if err := tx.Create(&tables).Error; err != nil {
			return err
		}

		hours := models.DefaultOpeningHours()
		if err := tx.Create(&hours).Error; err != nil {
			return err
		}

		now := time.Now().In(s.Loc)
		for _, sample := range sampleBookings() {
			start := time.Date(now.Year(), now.Month(), now.Day(), sample.hour, sample.minute, 0, 0, s.Loc).
				AddDate(0, 0, sample.dayOffset)
			booking := models.Booking{
				BookingID:    newBookingID(),
				CustomerName: sample.customerName,
				PartySize:    sample.partySize,
				TableID:      sample.tableID,
				BookingTime:  start,
				EndTime:      start.Add(time.Duration(sample.duration) * time.Minute),
				Duration:     sample.duration,
				Status:       sample.status,
				Notes:        sample.notes,
				Source:       models.SourceInternal,
			}
			if err := tx.Create(&booking).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.recomputeAll(); err != nil {
		return err
	}

	utils.InfoLogger.Printf("Database seeded: %d tables, 7 opening-hours entries, %d sample bookings",
		len(defaultTables()), len(sampleBookings()))
	return nil
}

// Init resets tables and opening hours to defaults. With
// preserveBookings the ledger survives the reset; either way every
// table's cached status is recomputed from the ledger afterwards.
func (s *Seeder) Init(preserveBookings bool) error {
	var preserved []models.Booking
	if preserveBookings {
		if err := s.DB.Find(&preserved).Error; err != nil {
			return err
		}
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.Booking{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.Table{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.OpeningHours{}).Error; err != nil {
			return err
		}

		tables := defaultTables()
		if err := tx.Create(&tables).Error; err != nil {
			return err
		}
		hours := models.DefaultOpeningHours()
		if err := tx.Create(&hours).Error; err != nil {
			return err
		}

		for i := range preserved {
			preserved[i].ID = 0
			if err := tx.Create(&preserved[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.recomputeAll(); err != nil {
		return err
	}

	utils.InfoLogger.Printf("Database initialized (preserveBookings=%v, restored=%d)", preserveBookings, len(preserved))
	return nil
}

// recomputeAll reconciles every table's cached status against the
// ledger, as required after any bulk restore.
func (s *Seeder) recomputeAll() error {
	var tables []models.Table
	if err := s.DB.Find(&tables).Error; err != nil {
		return err
	}
	now := time.Now()
	for _, table := range tables {
		if err := s.Catalog.RecomputeStatus(nil, table.TableID, now); err != nil {
			return err
		}
	}
	return nil
}
