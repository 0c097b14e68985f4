package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/models"
)

// AvailabilityService is the availability and conflict engine. Its
// decision functions are pure reads over the ledger, catalog and
// calendar; persisting an admitted request is BookingService's job.
type AvailabilityService struct {
	DB  *gorm.DB
	Loc *time.Location

	// hoursMu makes calendar replacement atomic with respect to
	// concurrent hour checks: readers see the old or the new set of
	// seven entries, never a mix.
	hoursMu sync.RWMutex
}

func NewAvailabilityService(db *gorm.DB) *AvailabilityService {
	return &AvailabilityService{DB: db, Loc: time.Local}
}

// Overlaps reports whether the half-open spans [aStart,aEnd) and
// [bStart,bEnd) intersect. A booking ending exactly when another
// begins does not conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// HoursFor returns the calendar entry for a weekday (0 = Sunday).
func (s *AvailabilityService) HoursFor(dayOfWeek int) (models.OpeningHours, error) {
	s.hoursMu.RLock()
	defer s.hoursMu.RUnlock()
	return s.hoursForLocked(dayOfWeek)
}

func (s *AvailabilityService) hoursForLocked(dayOfWeek int) (models.OpeningHours, error) {
	var hours models.OpeningHours
	if err := s.DB.Where("day_of_week = ?", dayOfWeek).First(&hours).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return hours, newError(KindNotFound, fmt.Sprintf("no opening hours for day %d", dayOfWeek))
		}
		return hours, err
	}
	return hours, nil
}

// ListHours returns all seven calendar entries ordered by weekday,
// seeding the defaults first if the calendar has never been set up.
func (s *AvailabilityService) ListHours() ([]models.OpeningHours, error) {
	s.hoursMu.Lock()
	defer s.hoursMu.Unlock()

	var hours []models.OpeningHours
	if err := s.DB.Order("day_of_week asc").Find(&hours).Error; err != nil {
		return nil, err
	}
	if len(hours) > 0 {
		return hours, nil
	}

	defaults := models.DefaultOpeningHours()
	if err := s.DB.Create(&defaults).Error; err != nil {
		return nil, err
	}
	return defaults, nil
}

// ReplaceAllHours atomically replaces the whole calendar. The input
// must contain exactly one well-formed entry per weekday 0-6; a single
// malformed entry rejects the whole update with no partial write.
func (s *AvailabilityService) ReplaceAllHours(entries []models.OpeningHours) ([]models.OpeningHours, error) {
	if len(entries) != 7 {
		return nil, newErrorf(KindValidation, "expected exactly 7 opening hours entries", map[string]interface{}{
			"got": len(entries),
		})
	}

	seen := make(map[int]bool, 7)
	for _, entry := range entries {
		if entry.DayOfWeek < 0 || entry.DayOfWeek > 6 || seen[entry.DayOfWeek] {
			return nil, newErrorf(KindValidation, "entries must cover each weekday 0-6 exactly once", map[string]interface{}{
				"invalid_entry": entry,
			})
		}
		seen[entry.DayOfWeek] = true

		openMin, err := models.ParseClock(entry.OpenTime)
		if err != nil {
			return nil, newErrorf(KindValidation, err.Error(), map[string]interface{}{"invalid_entry": entry})
		}
		closeMin, err := models.ParseClock(entry.CloseTime)
		if err != nil {
			return nil, newErrorf(KindValidation, err.Error(), map[string]interface{}{"invalid_entry": entry})
		}
		if entry.IsOpen && openMin >= closeMin {
			return nil, newErrorf(KindValidation, "open time must be before close time", map[string]interface{}{
				"invalid_entry": entry,
			})
		}
	}

	s.hoursMu.Lock()
	defer s.hoursMu.Unlock()

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.OpeningHours{}).Error; err != nil {
			return err
		}
		for i := range entries {
			entries[i].ID = 0
			if err := tx.Create(&entries[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].DayOfWeek < entries[j].DayOfWeek })
	return entries, nil
}

// CheckWithinHours verifies that a booking starting at t and running
// durationMinutes fits inside that day's open window. The close
// boundary is inclusive: a booking may run right up to close, not past
// it. Returns nil when the check passes.
func (s *AvailabilityService) CheckWithinHours(t time.Time, durationMinutes int) error {
	s.hoursMu.RLock()
	defer s.hoursMu.RUnlock()

	local := t.In(s.Loc)
	hours, err := s.hoursForLocked(int(local.Weekday()))
	if err != nil {
		if _, ok := AsEngineError(err); ok {
			return newErrorf(KindOutsideOpeningHours, "the restaurant is closed on the selected day", map[string]interface{}{
				"reason":      "closed_day",
				"day_of_week": int(local.Weekday()),
			})
		}
		return err
	}

	if !hours.IsOpen {
		return newErrorf(KindOutsideOpeningHours, "the restaurant is closed on the selected day", map[string]interface{}{
			"reason":      "closed_day",
			"day_of_week": hours.DayOfWeek,
		})
	}

	openMin, err := models.ParseClock(hours.OpenTime)
	if err != nil {
		return err
	}
	closeMin, err := models.ParseClock(hours.CloseTime)
	if err != nil {
		return err
	}

	start := local.Hour()*60 + local.Minute()
	if start < openMin || start+durationMinutes > closeMin {
		return newErrorf(KindOutsideOpeningHours, "booking time is outside of opening hours or too close to closing time", map[string]interface{}{
			"reason":       "outside_window",
			"booking_time": models.FormatClock(start),
			"open_time":    hours.OpenTime,
			"close_time":   hours.CloseTime,
			"duration":     durationMinutes,
		})
	}
	return nil
}

// CheckConflicts returns every active booking on the table whose span
// overlaps [start, end), excluding excludeBookingID when re-checking a
// booking that is being edited.
func (s *AvailabilityService) CheckConflicts(db *gorm.DB, tableID int, start, end time.Time, excludeBookingID string) ([]models.Booking, error) {
	if db == nil {
		db = s.DB
	}
	query := db.
		Where("table_id = ?", tableID).
		Where("status IN ?", []string{models.BookingPending, models.BookingConfirmed}).
		Where("booking_time < ? AND end_time > ?", end, start)
	if excludeBookingID != "" {
		query = query.Where("booking_id <> ?", excludeBookingID)
	}

	var conflicts []models.Booking
	if err := query.Find(&conflicts).Error; err != nil {
		return nil, err
	}
	return conflicts, nil
}

// AdmissionRequest is one reservation request to be checked. A nil
// TableID means "auto-assign the smallest adequate table".
type AdmissionRequest struct {
	TableID          *int
	PartySize        int
	BookingTime      time.Time
	Duration         int // minutes, 0 means the default
	ExcludeBookingID string
}

// Admission is a legal assignment ready to be persisted.
type Admission struct {
	TableID     int       `json:"table_id"`
	BookingTime time.Time `json:"booking_time"`
	EndTime     time.Time `json:"end_time"`
	Duration    int       `json:"duration"`
}

// ValidateAdmission decides whether a reservation request is legal.
// Checks run in a fixed order and the first failure wins: input shape,
// table existence and capacity, opening hours, then slot conflicts
// (or candidate search in auto-assign mode). Performs no writes.
func (s *AvailabilityService) ValidateAdmission(req AdmissionRequest) (*Admission, error) {
	if req.BookingTime.IsZero() {
		return nil, newError(KindInvalidInput, "booking time is required")
	}
	if req.PartySize <= 0 {
		return nil, newError(KindInvalidInput, "party size must be a positive integer")
	}
	duration := req.Duration
	if duration == 0 {
		duration = models.DefaultDuration
	}
	if duration < 0 {
		return nil, newError(KindInvalidInput, "duration must be a positive number of minutes")
	}

	var table *models.Table
	if req.TableID != nil {
		found, err := s.findTable(*req.TableID)
		if err != nil {
			return nil, err
		}
		if found.Capacity < req.PartySize {
			return nil, newErrorf(KindCapacity, "table capacity is not sufficient for the party size", map[string]interface{}{
				"table_id":       found.TableID,
				"table_capacity": found.Capacity,
				"party_size":     req.PartySize,
			})
		}
		table = found
	}

	if err := s.CheckWithinHours(req.BookingTime, duration); err != nil {
		return nil, err
	}

	endTime := req.BookingTime.Add(time.Duration(duration) * time.Minute)

	if table != nil {
		conflicts, err := s.CheckConflicts(nil, table.TableID, req.BookingTime, endTime, req.ExcludeBookingID)
		if err != nil {
			return nil, err
		}
		if len(conflicts) > 0 {
			return nil, newErrorf(KindSlotConflict, "table is already booked for this time slot", map[string]interface{}{
				"table_id":             table.TableID,
				"conflicting_bookings": conflicts,
				"requested_time":       req.BookingTime,
				"requested_end_time":   endTime,
			})
		}
		return &Admission{TableID: table.TableID, BookingTime: req.BookingTime, EndTime: endTime, Duration: duration}, nil
	}

	// Auto-assign: smallest adequate table first, ties by table id.
	var candidates []models.Table
	if err := s.DB.
		Where("capacity >= ?", req.PartySize).
		Order("capacity asc, table_id asc").
		Find(&candidates).Error; err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, newErrorf(KindNoAvailableTable, "no tables can seat this party size", map[string]interface{}{
			"party_size": req.PartySize,
		})
	}

	for _, candidate := range candidates {
		conflicts, err := s.CheckConflicts(nil, candidate.TableID, req.BookingTime, endTime, req.ExcludeBookingID)
		if err != nil {
			return nil, err
		}
		if len(conflicts) == 0 {
			return &Admission{TableID: candidate.TableID, BookingTime: req.BookingTime, EndTime: endTime, Duration: duration}, nil
		}
	}

	return nil, newErrorf(KindNoAvailableTable, "no tables available for this time slot", map[string]interface{}{
		"party_size":         req.PartySize,
		"requested_time":     req.BookingTime,
		"requested_end_time": endTime,
	})
}

func (s *AvailabilityService) findTable(tableID int) (*models.Table, error) {
	var table models.Table
	if err := s.DB.Where("table_id = ?", tableID).First(&table).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, newErrorf(KindNotFound, "table not found", map[string]interface{}{"table_id": tableID})
		}
		return nil, err
	}
	return &table, nil
}

// HoursWindow mirrors the calendar entry on availability responses.
type HoursWindow struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// AvailabilityResult answers "which tables are free at this time".
// A closed restaurant is not an error here: availability is a query,
// not an admission decision.
type AvailabilityResult struct {
	AvailableTables []models.Table `json:"available_tables"`
	TotalTables     int            `json:"total_tables"`
	BookedTables    int            `json:"booked_tables"`
	IsOpen          bool           `json:"is_open"`
	OpeningHours    *HoursWindow   `json:"opening_hours,omitempty"`
	Message         string         `json:"message,omitempty"`
}

// AvailableTables lists every table with no conflicting active booking
// in [time, time+duration) on the given date, optionally filtered by
// party size.
func (s *AvailabilityService) AvailableTables(date, clock string, durationMinutes, partySize int) (*AvailabilityResult, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.Loc)
	if err != nil {
		return nil, newError(KindInvalidInput, "invalid date format, expected YYYY-MM-DD")
	}
	startMinutes, err := models.ParseClock(clock)
	if err != nil {
		return nil, newError(KindInvalidInput, "invalid time format, expected HH:MM")
	}
	if durationMinutes <= 0 {
		durationMinutes = models.DefaultDuration
	}

	start := day.Add(time.Duration(startMinutes) * time.Minute)
	end := start.Add(time.Duration(durationMinutes) * time.Minute)

	hours, err := s.HoursFor(int(start.Weekday()))
	if err != nil {
		if _, ok := AsEngineError(err); ok {
			return &AvailabilityResult{AvailableTables: []models.Table{}, IsOpen: false, Message: "the restaurant is closed on the selected day"}, nil
		}
		return nil, err
	}
	if !hours.IsOpen {
		return &AvailabilityResult{AvailableTables: []models.Table{}, IsOpen: false, Message: "the restaurant is closed on the selected day"}, nil
	}

	window := &HoursWindow{Open: hours.OpenTime, Close: hours.CloseTime}

	if err := s.CheckWithinHours(start, durationMinutes); err != nil {
		if _, ok := AsEngineError(err); ok {
			return &AvailabilityResult{
				AvailableTables: []models.Table{},
				IsOpen:          true,
				OpeningHours:    window,
				Message:         "booking time is outside of opening hours",
			}, nil
		}
		return nil, err
	}

	var allTables []models.Table
	if err := s.DB.Order("table_id asc").Find(&allTables).Error; err != nil {
		return nil, err
	}

	var overlapping []models.Booking
	if err := s.DB.
		Where("status IN ?", []string{models.BookingPending, models.BookingConfirmed}).
		Where("booking_time < ? AND end_time > ?", end, start).
		Find(&overlapping).Error; err != nil {
		return nil, err
	}

	booked := make(map[int]bool, len(overlapping))
	for _, booking := range overlapping {
		booked[booking.TableID] = true
	}

	available := make([]models.Table, 0, len(allTables))
	for _, table := range allTables {
		if booked[table.TableID] {
			continue
		}
		if partySize > 0 && table.Capacity < partySize {
			continue
		}
		available = append(available, table)
	}

	return &AvailabilityResult{
		AvailableTables: available,
		TotalTables:     len(allTables),
		BookedTables:    len(allTables) - len(available),
		IsOpen:          true,
		OpeningHours:    window,
	}, nil
}

// TimeSlotsResult answers "which start times are offerable for a date
// and party size".
type TimeSlotsResult struct {
	AvailableTimes []string     `json:"available_times"`
	IsOpen         bool         `json:"is_open"`
	OpeningHours   *HoursWindow `json:"opening_hours,omitempty"`
}

// AvailableTimeSlots generates candidate start times at
// granularityMinutes steps from open through close-duration inclusive
// and keeps the ones where at least one adequate table is free. A
// closed day yields an empty list, not an error. A party size no table
// can seat at all is a distinct rejection.
func (s *AvailabilityService) AvailableTimeSlots(date string, partySize, durationMinutes, granularityMinutes int) (*TimeSlotsResult, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.Loc)
	if err != nil {
		return nil, newError(KindInvalidInput, "invalid date format, expected YYYY-MM-DD")
	}

	today := time.Now().In(s.Loc)
	todayStart := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, s.Loc)
	if day.Before(todayStart) {
		return nil, newError(KindInvalidInput, "cannot book dates in the past")
	}

	if partySize <= 0 {
		partySize = 2
	}
	if durationMinutes <= 0 {
		durationMinutes = models.DefaultDuration
	}
	if granularityMinutes <= 0 {
		granularityMinutes = 30
	}

	hours, err := s.HoursFor(int(day.Weekday()))
	if err != nil {
		if _, ok := AsEngineError(err); ok {
			return &TimeSlotsResult{AvailableTimes: []string{}, IsOpen: false}, nil
		}
		return nil, err
	}
	if !hours.IsOpen {
		return &TimeSlotsResult{AvailableTimes: []string{}, IsOpen: false}, nil
	}

	openMin, err := models.ParseClock(hours.OpenTime)
	if err != nil {
		return nil, err
	}
	closeMin, err := models.ParseClock(hours.CloseTime)
	if err != nil {
		return nil, err
	}

	var tables []models.Table
	if err := s.DB.Where("capacity >= ?", partySize).Find(&tables).Error; err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, newErrorf(KindNoAvailableTable, "no tables can seat this party size", map[string]interface{}{
			"party_size": partySize,
		})
	}

	dayEnd := day.Add(24 * time.Hour)
	var bookings []models.Booking
	if err := s.DB.
		Where("status IN ?", []string{models.BookingPending, models.BookingConfirmed}).
		Where("booking_time >= ? AND booking_time < ?", day, dayEnd).
		Find(&bookings).Error; err != nil {
		return nil, err
	}

	byTable := make(map[int][]models.Booking)
	for _, booking := range bookings {
		byTable[booking.TableID] = append(byTable[booking.TableID], booking)
	}

	window := &HoursWindow{Open: hours.OpenTime, Close: hours.CloseTime}
	available := []string{}
	for minutes := openMin; minutes <= closeMin-durationMinutes; minutes += granularityMinutes {
		slotStart := day.Add(time.Duration(minutes) * time.Minute)
		slotEnd := slotStart.Add(time.Duration(durationMinutes) * time.Minute)

		for _, table := range tables {
			free := true
			for _, booking := range byTable[table.TableID] {
				if Overlaps(slotStart, slotEnd, booking.BookingTime, booking.EndTime) {
					free = false
					break
				}
			}
			if free {
				available = append(available, models.FormatClock(minutes))
				break
			}
		}
	}

	return &TimeSlotsResult{AvailableTimes: available, IsOpen: true, OpeningHours: window}, nil
}
