package database

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/services"
	"github.com/tablebook/reservation-app/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

func newSeeder(t *testing.T, name string) (*gorm.DB, *Seeder) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:seed_"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	catalog := services.NewCatalogService(db, services.NewTableLocks())
	return db, NewSeeder(db, catalog, time.Local)
}

func TestSeedPopulatesCatalogAndLedger(t *testing.T) {
	db, seeder := newSeeder(t, "populate")
	require.NoError(t, seeder.Seed())

	var tables []models.Table
	require.NoError(t, db.Order("table_id asc").Find(&tables).Error)
	require.Len(t, tables, 8)
	assert.Equal(t, 1, tables[0].TableID)
	assert.Equal(t, 2, tables[0].Capacity)

	var bookings int64
	require.NoError(t, db.Model(&models.Booking{}).Count(&bookings).Error)
	assert.NotZero(t, bookings)

	// Every seeded booking has a usable external id and a consistent
	// end time.
	var all []models.Booking
	require.NoError(t, db.Find(&all).Error)
	for _, booking := range all {
		assert.NotEmpty(t, booking.BookingID)
		assert.Equal(t, booking.BookingTime.Add(time.Duration(booking.Duration)*time.Minute), booking.EndTime)
	}

	// Seeding twice resets rather than accumulates.
	require.NoError(t, seeder.Seed())
	require.NoError(t, db.Order("table_id asc").Find(&tables).Error)
	assert.Len(t, tables, 8)
}

func TestInitPreservesBookings(t *testing.T) {
	db, seeder := newSeeder(t, "preserve")
	require.NoError(t, seeder.Seed())

	var before int64
	require.NoError(t, db.Model(&models.Booking{}).Count(&before).Error)

	require.NoError(t, seeder.Init(true))
	var after int64
	require.NoError(t, db.Model(&models.Booking{}).Count(&after).Error)
	assert.Equal(t, before, after)

	require.NoError(t, seeder.Init(false))
	require.NoError(t, db.Model(&models.Booking{}).Count(&after).Error)
	assert.Zero(t, after)

	var tables int64
	require.NoError(t, db.Model(&models.Table{}).Count(&tables).Error)
	assert.EqualValues(t, 8, tables)
}
