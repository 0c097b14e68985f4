package services

import (
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

func setupEngineDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.OpeningHours{},
		&models.Booking{},
	))
	return db
}

func seedHours(t *testing.T, db *gorm.DB, open, close string) {
	t.Helper()
	for day := 0; day < 7; day++ {
		require.NoError(t, db.Create(&models.OpeningHours{
			DayOfWeek: day,
			IsOpen:    true,
			OpenTime:  open,
			CloseTime: close,
		}).Error)
	}
}

func seedTable(t *testing.T, db *gorm.DB, tableID, capacity int) {
	t.Helper()
	require.NoError(t, db.Create(&models.Table{
		TableID:  tableID,
		Capacity: capacity,
		Location: "Test",
		Status:   models.TableAvailable,
	}).Error)
}

func seedBooking(t *testing.T, db *gorm.DB, tableID int, start time.Time, duration int, status string) models.Booking {
	t.Helper()
	booking := models.Booking{
		BookingID:    uuid.NewString(),
		CustomerName: "Fixture",
		PartySize:    2,
		TableID:      tableID,
		BookingTime:  start,
		EndTime:      start.Add(time.Duration(duration) * time.Minute),
		Duration:     duration,
		Status:       status,
		Source:       models.SourceInternal,
	}
	require.NoError(t, db.Create(&booking).Error)
	return booking
}

// futureDay returns midnight of a day next week, so the past-date
// guard never interferes.
func futureDay() time.Time {
	now := time.Now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	return day.AddDate(0, 0, 7)
}

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, time.Local)
}

func TestOverlaps(t *testing.T) {
	day := futureDay()
	a1, a2 := at(day, 19, 0), at(day, 21, 0)
	b1, b2 := at(day, 20, 0), at(day, 22, 0)

	assert.True(t, Overlaps(a1, a2, b1, b2))
	assert.True(t, Overlaps(b1, b2, a1, a2), "overlap must be symmetric")

	// Adjacent half-open spans never conflict.
	c1, c2 := at(day, 21, 0), at(day, 22, 0)
	assert.False(t, Overlaps(a1, a2, c1, c2))
	assert.False(t, Overlaps(c1, c2, a1, a2))
}

func TestCheckConflicts(t *testing.T) {
	db := setupEngineDB(t, "conflicts")
	svc := NewAvailabilityService(db)
	day := futureDay()

	seedTable(t, db, 3, 4)
	existing := seedBooking(t, db, 3, at(day, 19, 0), 120, models.BookingConfirmed)
	seedBooking(t, db, 3, at(day, 13, 0), 60, models.BookingCancelled)

	// Overlapping window reports the confirmed booking.
	conflicts, err := svc.CheckConflicts(nil, 3, at(day, 20, 0), at(day, 21, 0), "")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, existing.BookingID, conflicts[0].BookingID)

	// Touching boundary is free.
	conflicts, err = svc.CheckConflicts(nil, 3, at(day, 21, 0), at(day, 22, 0), "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// Cancelled bookings never block.
	conflicts, err = svc.CheckConflicts(nil, 3, at(day, 13, 0), at(day, 14, 0), "")
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	// A booking never conflicts with itself when excluded.
	conflicts, err = svc.CheckConflicts(nil, 3, at(day, 19, 0), at(day, 21, 0), existing.BookingID)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestCheckWithinHours(t *testing.T) {
	db := setupEngineDB(t, "hours")
	svc := NewAvailabilityService(db)
	seedHours(t, db, "12:00", "23:00")
	day := futureDay()

	// Inside the window.
	assert.NoError(t, svc.CheckWithinHours(at(day, 19, 0), 120))

	// Ending exactly at close is allowed.
	assert.NoError(t, svc.CheckWithinHours(at(day, 22, 0), 60))

	// Starting before open.
	err := svc.CheckWithinHours(at(day, 11, 30), 60)
	engineErr, ok := AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, KindOutsideOpeningHours, engineErr.Kind)
	assert.Equal(t, "outside_window", engineErr.Details["reason"])

	// Running past close.
	err = svc.CheckWithinHours(at(day, 22, 30), 60)
	engineErr, ok = AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, KindOutsideOpeningHours, engineErr.Kind)

	// 23:30 on a day closing at 23:00.
	err = svc.CheckWithinHours(at(day, 23, 30), 60)
	engineErr, ok = AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, KindOutsideOpeningHours, engineErr.Kind)
}

func TestCheckWithinHoursClosedDay(t *testing.T) {
	db := setupEngineDB(t, "closedday")
	svc := NewAvailabilityService(db)
	day := futureDay()
	for weekday := 0; weekday < 7; weekday++ {
		require.NoError(t, db.Create(&models.OpeningHours{
			DayOfWeek: weekday,
			IsOpen:    false,
			OpenTime:  "12:00",
			CloseTime: "23:00",
		}).Error)
	}

	err := svc.CheckWithinHours(at(day, 19, 0), 120)
	engineErr, ok := AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, KindOutsideOpeningHours, engineErr.Kind)
	assert.Equal(t, "closed_day", engineErr.Details["reason"])
}

func TestValidateAdmissionExplicitTable(t *testing.T) {
	db := setupEngineDB(t, "admission")
	svc := NewAvailabilityService(db)
	seedHours(t, db, "12:00", "23:00")
	seedTable(t, db, 3, 4)
	day := futureDay()
	seedBooking(t, db, 3, at(day, 19, 0), 120, models.BookingConfirmed)

	tableID := 3

	// 20:00 for 60 minutes overlaps the 19:00-21:00 booking.
	_, err := svc.ValidateAdmission(AdmissionRequest{
		TableID:     &tableID,
		PartySize:   2,
		BookingTime: at(day, 20, 0),
		Duration:    60,
	})
	engineErr, ok := AsEngineError(err)
	require.True(t, ok)
	assert.Equal(t, KindSlotConflict, engineErr.Kind)
	assert.NotEmpty(t, engineErr.Details["conflicting_bookings"])

	// 21:00 touches the boundary and succeeds.
	admission, err := svc.ValidateAdmission(AdmissionRequest{
		TableID:     &tableID,
		PartySize:   2,
		BookingTime: at(day, 21, 0),
		Duration:    60,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, admission.TableID)
	assert.Equal(t, at(day, 22, 0), admission.EndTime)
}

func TestValidateAdmissionChecksOrder(t *testing.T) {
	db := setupEngineDB(t, "admissionorder")
	svc := NewAvailabilityService(db)
	seedHours(t, db, "12:00", "23:00")
	seedTable(t, db, 1, 2)

	// Invalid input wins first.
	_, err := svc.ValidateAdmission(AdmissionRequest{PartySize: 0, BookingTime: at(futureDay(), 19, 0)})
	engineErr, _ := AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindInvalidInput, engineErr.Kind)

	// Unknown table.
	missing := 42
	_, err = svc.ValidateAdmission(AdmissionRequest{
		TableID:     &missing,
		PartySize:   2,
		BookingTime: at(futureDay(), 19, 0),
	})
	engineErr, _ = AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindNotFound, engineErr.Kind)

	// Capacity beats the hours check: an oversized party at a closed
	// hour reports the capacity problem.
	tableID := 1
	_, err = svc.ValidateAdmission(AdmissionRequest{
		TableID:     &tableID,
		PartySize:   6,
		BookingTime: at(futureDay(), 3, 0),
	})
	engineErr, _ = AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindCapacity, engineErr.Kind)

	// Default duration applies.
	admission, err := svc.ValidateAdmission(AdmissionRequest{
		TableID:     &tableID,
		PartySize:   2,
		BookingTime: at(futureDay(), 19, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDuration, admission.Duration)
}

func TestValidateAdmissionAutoAssign(t *testing.T) {
	db := setupEngineDB(t, "autoassign")
	svc := NewAvailabilityService(db)
	seedHours(t, db, "12:00", "23:00")
	seedTable(t, db, 5, 8)
	seedTable(t, db, 4, 6)
	day := futureDay()

	// Smallest adequate capacity wins: table 4 (6 seats) over table 5
	// (8 seats) for a party of 6.
	admission, err := svc.ValidateAdmission(AdmissionRequest{
		PartySize:   6,
		BookingTime: at(day, 19, 0),
		Duration:    120,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, admission.TableID)

	// Capacity ties break by ascending table id.
	seedTable(t, db, 7, 6)
	seedBooking(t, db, 4, at(day, 19, 0), 120, models.BookingPending)
	admission, err = svc.ValidateAdmission(AdmissionRequest{
		PartySize:   6,
		BookingTime: at(day, 19, 0),
		Duration:    120,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, admission.TableID)

	// No table big enough.
	_, err = svc.ValidateAdmission(AdmissionRequest{
		PartySize:   20,
		BookingTime: at(day, 19, 0),
	})
	engineErr, _ := AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindNoAvailableTable, engineErr.Kind)

	// Every adequate table occupied.
	seedBooking(t, db, 5, at(day, 19, 0), 120, models.BookingConfirmed)
	seedBooking(t, db, 7, at(day, 19, 0), 120, models.BookingConfirmed)
	_, err = svc.ValidateAdmission(AdmissionRequest{
		PartySize:   6,
		BookingTime: at(day, 19, 0),
		Duration:    120,
	})
	engineErr, _ = AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindNoAvailableTable, engineErr.Kind)
}

func TestAvailableTables(t *testing.T) {
	db := setupEngineDB(t, "availabletables")
	svc := NewAvailabilityService(db)
	seedHours(t, db, "12:00", "23:00")
	seedTable(t, db, 1, 2)
	seedTable(t, db, 2, 4)
	seedTable(t, db, 3, 6)
	day := futureDay()
	date := day.Format("2006-01-02")

	seedBooking(t, db, 2, at(day, 19, 0), 120, models.BookingConfirmed)

	result, err := svc.AvailableTables(date, "19:00", 60, 0)
	require.NoError(t, err)
	assert.True(t, result.IsOpen)
	require.Len(t, result.AvailableTables, 2)
	assert.Equal(t, 1, result.AvailableTables[0].TableID)
	assert.Equal(t, 3, result.AvailableTables[1].TableID)
	assert.Equal(t, 3, result.TotalTables)
	assert.Equal(t, 1, result.BookedTables)

	// Capacity filter.
	result, err = svc.AvailableTables(date, "19:00", 60, 5)
	require.NoError(t, err)
	require.Len(t, result.AvailableTables, 1)
	assert.Equal(t, 3, result.AvailableTables[0].TableID)

	// Outside the window is a query result, not an error.
	result, err = svc.AvailableTables(date, "23:30", 60, 0)
	require.NoError(t, err)
	assert.True(t, result.IsOpen)
	assert.Empty(t, result.AvailableTables)
	assert.NotEmpty(t, result.Message)
}

func TestAvailableTablesClosedDay(t *testing.T) {
	db := setupEngineDB(t, "availclosed")
	svc := NewAvailabilityService(db)
	for weekday := 0; weekday < 7; weekday++ {
		require.NoError(t, db.Create(&models.OpeningHours{
			DayOfWeek: weekday,
			IsOpen:    false,
			OpenTime:  "12:00",
			CloseTime: "23:00",
		}).Error)
	}
	seedTable(t, db, 1, 4)

	result, err := svc.AvailableTables(futureDay().Format("2006-01-02"), "19:00", 60, 0)
	require.NoError(t, err)
	assert.False(t, result.IsOpen)
	assert.Empty(t, result.AvailableTables)
}

func TestAvailableTimeSlots(t *testing.T) {
	db := setupEngineDB(t, "timeslots")
	svc := NewAvailabilityService(db)
	seedHours(t, db, "12:00", "23:00")
	seedTable(t, db, 1, 4)
	day := futureDay()
	date := day.Format("2006-01-02")

	result, err := svc.AvailableTimeSlots(date, 2, 120, 30)
	require.NoError(t, err)
	assert.True(t, result.IsOpen)
	// 12:00 through 21:00 inclusive at 30-minute steps.
	require.Len(t, result.AvailableTimes, 19)
	assert.Equal(t, "12:00", result.AvailableTimes[0])
	assert.Equal(t, "21:00", result.AvailableTimes[len(result.AvailableTimes)-1])

	// Booking the only table 18:00-20:00 removes every slot whose
	// 2-hour window overlaps it.
	seedBooking(t, db, 1, at(day, 18, 0), 120, models.BookingConfirmed)
	result, err = svc.AvailableTimeSlots(date, 2, 120, 30)
	require.NoError(t, err)
	for _, slot := range result.AvailableTimes {
		assert.NotContains(t, []string{"16:30", "17:00", "17:30", "18:00", "18:30", "19:00", "19:30"}, slot)
	}
	assert.Contains(t, result.AvailableTimes, "16:00")
	assert.Contains(t, result.AvailableTimes, "20:00")

	// A second adequate table restores the slots.
	seedTable(t, db, 2, 4)
	result, err = svc.AvailableTimeSlots(date, 2, 120, 30)
	require.NoError(t, err)
	assert.Contains(t, result.AvailableTimes, "18:00")

	// Party size no table can seat is a distinct rejection.
	_, err = svc.AvailableTimeSlots(date, 10, 120, 30)
	engineErr, _ := AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindNoAvailableTable, engineErr.Kind)

	// Past dates are rejected.
	_, err = svc.AvailableTimeSlots("2020-01-01", 2, 120, 30)
	engineErr, _ = AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindInvalidInput, engineErr.Kind)
}

func TestAvailableTimeSlotsClosedDay(t *testing.T) {
	db := setupEngineDB(t, "slotsclosed")
	svc := NewAvailabilityService(db)
	for weekday := 0; weekday < 7; weekday++ {
		require.NoError(t, db.Create(&models.OpeningHours{
			DayOfWeek: weekday,
			IsOpen:    false,
			OpenTime:  "12:00",
			CloseTime: "23:00",
		}).Error)
	}
	seedTable(t, db, 1, 4)

	result, err := svc.AvailableTimeSlots(futureDay().Format("2006-01-02"), 2, 120, 30)
	require.NoError(t, err)
	assert.False(t, result.IsOpen)
	assert.Empty(t, result.AvailableTimes)
}

func TestReplaceAllHours(t *testing.T) {
	db := setupEngineDB(t, "replacehours")
	svc := NewAvailabilityService(db)
	seedHours(t, db, "12:00", "23:00")

	valid := make([]models.OpeningHours, 0, 7)
	for day := 0; day < 7; day++ {
		valid = append(valid, models.OpeningHours{
			DayOfWeek: day,
			IsOpen:    day != 1, // closed Mondays
			OpenTime:  "10:00",
			CloseTime: "20:00",
		})
	}

	saved, err := svc.ReplaceAllHours(valid)
	require.NoError(t, err)
	require.Len(t, saved, 7)
	assert.Equal(t, "10:00", saved[0].OpenTime)
	assert.False(t, saved[1].IsOpen)

	// Wrong count rejected.
	_, err = svc.ReplaceAllHours(valid[:6])
	engineErr, _ := AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindValidation, engineErr.Kind)

	// Duplicate weekday rejected with no partial write.
	dupe := make([]models.OpeningHours, 7)
	copy(dupe, valid)
	dupe[6].DayOfWeek = 0
	_, err = svc.ReplaceAllHours(dupe)
	engineErr, _ = AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindValidation, engineErr.Kind)

	// Open >= close rejected.
	bad := make([]models.OpeningHours, 7)
	copy(bad, valid)
	bad[2].OpenTime = "21:00"
	bad[2].CloseTime = "09:00"
	_, err = svc.ReplaceAllHours(bad)
	engineErr, _ = AsEngineError(err)
	require.NotNil(t, engineErr)
	assert.Equal(t, KindValidation, engineErr.Kind)

	// The valid calendar from the first replace is still intact.
	hours, err := svc.HoursFor(0)
	require.NoError(t, err)
	assert.Equal(t, "10:00", hours.OpenTime)
}

func TestReplaceAllHoursPersistsClosedDays(t *testing.T) {
	db := setupEngineDB(t, "closedpersist")
	svc := NewAvailabilityService(db)
	seedHours(t, db, "12:00", "23:00")

	// Close the whole week.
	closed := make([]models.OpeningHours, 0, 7)
	for day := 0; day < 7; day++ {
		closed = append(closed, models.OpeningHours{
			DayOfWeek: day,
			IsOpen:    false,
			OpenTime:  "12:00",
			CloseTime: "23:00",
		})
	}
	_, err := svc.ReplaceAllHours(closed)
	require.NoError(t, err)

	// The closed flag must survive the database round trip; a false
	// value swallowed on insert would reopen the restaurant.
	for day := 0; day < 7; day++ {
		hours, err := svc.HoursFor(day)
		require.NoError(t, err)
		assert.False(t, hours.IsOpen, "day %d must stay closed", day)
	}

	err = svc.CheckWithinHours(at(futureDay(), 19, 0), 120)
	engineErr, ok := AsEngineError(err)
	require.True(t, ok, "admission on a closed day must be rejected")
	assert.Equal(t, KindOutsideOpeningHours, engineErr.Kind)
	assert.Equal(t, "closed_day", engineErr.Details["reason"])
}
