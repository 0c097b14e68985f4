package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablebook/reservation-app/models"
)

func TestCatalogCreateAndUpdate(t *testing.T) {
	db := setupEngineDB(t, "catalogcrud")
	svc := NewCatalogService(db, NewTableLocks())

	table, err := svc.Create(9, 4, "Patio", "")
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, table.Status)

	// Duplicate external id.
	_, err = svc.Create(9, 2, "Bar", "")
	engineErr, _ := AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindConflict, engineErr.Kind)

	// Non-positive inputs.
	_, err = svc.Create(0, 4, "Patio", "")
	engineErr, _ = AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindInvalidInput, engineErr.Kind)

	updated, err := svc.Update(9, TableUpdate{Capacity: intPtr(6), Location: strPtr("Garden")})
	require.NoError(t, err)
	assert.Equal(t, 6, updated.Capacity)
	assert.Equal(t, "Garden", updated.Location)

	_, err = svc.Update(9, TableUpdate{Capacity: intPtr(0)})
	engineErr, _ = AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindInvalidInput, engineErr.Kind)

	_, err = svc.Update(99, TableUpdate{})
	engineErr, _ = AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindNotFound, engineErr.Kind)
}

func TestCatalogListByStatus(t *testing.T) {
	db := setupEngineDB(t, "cataloglist")
	svc := NewCatalogService(db, NewTableLocks())

	seedTable(t, db, 1, 2)
	seedTable(t, db, 2, 4)
	require.NoError(t, db.Model(&models.Table{}).Where("table_id = ?", 2).Update("status", models.TableOccupied).Error)

	all, err := svc.ListTables("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	occupied, err := svc.ListTables(models.TableOccupied)
	require.NoError(t, err)
	require.Len(t, occupied, 1)
	assert.Equal(t, 2, occupied[0].TableID)
}

func TestCatalogDeleteGuard(t *testing.T) {
	db := setupEngineDB(t, "catalogdelete")
	locks := NewTableLocks()
	svc := NewCatalogService(db, locks)
	seedTable(t, db, 1, 4)
	day := futureDay()

	booking := seedBooking(t, db, 1, at(day, 19, 0), 120, models.BookingPending)

	// Active bookings block deletion.
	err := svc.Delete(1)
	engineErr, _ := AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindConflict, engineErr.Kind)

	// Cancelling the booking unblocks it.
	require.NoError(t, db.Model(&models.Booking{}).
		Where("booking_id = ?", booking.BookingID).
		Update("status", models.BookingCancelled).Error)
	require.NoError(t, svc.Delete(1))

	_, err = svc.FindByTableID(1)
	engineErr, _ = AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindNotFound, engineErr.Kind)

	// Deleting a missing table reports not found.
	err = svc.Delete(1)
	engineErr, _ = AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindNotFound, engineErr.Kind)
}

func TestRecomputeStatus(t *testing.T) {
	db := setupEngineDB(t, "recompute")
	svc := NewCatalogService(db, NewTableLocks())
	seedTable(t, db, 1, 4)
	now := time.Now()

	// Confirmed booking spanning now: occupied.
	spanning := seedBooking(t, db, 1, now.Add(-time.Hour), 120, models.BookingConfirmed)
	require.NoError(t, svc.RecomputeStatus(nil, 1, now))
	table, err := svc.FindByTableID(1)
	require.NoError(t, err)
	assert.Equal(t, models.TableOccupied, table.Status)

	// Same booking demoted to pending: reserved.
	require.NoError(t, db.Model(&models.Booking{}).
		Where("booking_id = ?", spanning.BookingID).
		Update("status", models.BookingPending).Error)
	require.NoError(t, svc.RecomputeStatus(nil, 1, now))
	table, err = svc.FindByTableID(1)
	require.NoError(t, err)
	assert.Equal(t, models.TableReserved, table.Status)

	// Cancelled: back to available.
	require.NoError(t, db.Model(&models.Booking{}).
		Where("booking_id = ?", spanning.BookingID).
		Update("status", models.BookingCancelled).Error)
	require.NoError(t, svc.RecomputeStatus(nil, 1, now))
	table, err = svc.FindByTableID(1)
	require.NoError(t, err)
	assert.Equal(t, models.TableAvailable, table.Status)

	// A confirmed booking later today holds the table as reserved, not
	// occupied.
	seedBooking(t, db, 1, now.Add(3*time.Hour), 120, models.BookingConfirmed)
	require.NoError(t, svc.RecomputeStatus(nil, 1, now))
	table, err = svc.FindByTableID(1)
	require.NoError(t, err)
	assert.Equal(t, models.TableReserved, table.Status)

	// Recomputing a deleted table is a no-op, not an error.
	assert.NoError(t, svc.RecomputeStatus(nil, 42, now))
}
