package services

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tablebook/reservation-app/models"
	"github.com/tablebook/reservation-app/utils"
)

// BookingService is the reservation lifecycle manager. It persists
// admitted requests, applies status transitions and keeps the cached
// table statuses consistent with the ledger. Every check-then-insert
// runs under the target table's lock so two concurrent admissions for
// an overlapping window cannot both succeed.
type BookingService struct {
	DB           *gorm.DB
	Availability *AvailabilityService
	Catalog      *CatalogService
	Locks        *TableLocks
}

func NewBookingService(db *gorm.DB, availability *AvailabilityService, catalog *CatalogService, locks *TableLocks) *BookingService {
	return &BookingService{DB: db, Availability: availability, Catalog: catalog, Locks: locks}
}

// CreateBookingRequest is a reservation creation request. TableID nil
// means auto-assign. Status is only honored for internal callers;
// external and embedded-form submissions are always forced to pending.
type CreateBookingRequest struct {
	CustomerName string
	Email        *string
	Phone        *string
	PartySize    int
	TableID      *int
	BookingTime  time.Time
	Duration     int
	Status       string
	Notes        string
	Source       string
}

// Create admits and persists a new booking.
func (s *BookingService) Create(req CreateBookingRequest) (*models.Booking, error) {
	if req.CustomerName == "" {
		return nil, newError(KindInvalidInput, "customer name is required")
	}

	source := req.Source
	if source == "" {
		source = models.SourceInternal
	}

	status := req.Status
	if status == "" {
		status = models.BookingPending
	}
	if status != models.BookingPending && status != models.BookingConfirmed {
		return nil, newError(KindInvalidInput, "status must be pending or confirmed at creation")
	}
	// Trust boundary: only internal actors may create confirmed
	// bookings directly.
	if source != models.SourceInternal {
		status = models.BookingPending
	}

	admissionReq := AdmissionRequest{
		TableID:     req.TableID,
		PartySize:   req.PartySize,
		BookingTime: req.BookingTime,
		Duration:    req.Duration,
	}

	if req.TableID != nil {
		unlock := s.Locks.Acquire(*req.TableID)
		defer unlock()

		admission, err := s.Availability.ValidateAdmission(admissionReq)
		if err != nil {
			return nil, err
		}
		return s.persist(req, admission, status, source)
	}

	// Auto-assign: validate the request once, then walk the candidate
	// tables smallest-first, re-checking under each table's lock.
	// Trying the next candidate is a new decision, not a retry.
	if _, err := s.Availability.ValidateAdmission(admissionReq); err != nil {
		return nil, err
	}

	duration := req.Duration
	if duration == 0 {
		duration = models.DefaultDuration
	}
	endTime := req.BookingTime.Add(time.Duration(duration) * time.Minute)

	var candidates []models.Table
	if err := s.DB.
		Where("capacity >= ?", req.PartySize).
		Order("capacity asc, table_id asc").
		Find(&candidates).Error; err != nil {
		return nil, err
	}

	for _, candidate := range candidates {
		booking, ok, err := s.tryCandidate(req, candidate.TableID, endTime, duration, status, source)
		if err != nil {
			return nil, err
		}
		if ok {
			return booking, nil
		}
	}

	return nil, newErrorf(KindNoAvailableTable, "no tables available for this time slot", map[string]interface{}{
		"party_size":         req.PartySize,
		"requested_time":     req.BookingTime,
		"requested_end_time": endTime,
	})
}

func (s *BookingService) tryCandidate(req CreateBookingRequest, tableID int, endTime time.Time, duration int, status, source string) (*models.Booking, bool, error) {
	unlock := s.Locks.Acquire(tableID)
	defer unlock()

	conflicts, err := s.Availability.CheckConflicts(nil, tableID, req.BookingTime, endTime, "")
	if err != nil {
		return nil, false, err
	}
	if len(conflicts) > 0 {
		return nil, false, nil
	}

	admission := &Admission{TableID: tableID, BookingTime: req.BookingTime, EndTime: endTime, Duration: duration}
	booking, err := s.persist(req, admission, status, source)
	if err != nil {
		return nil, false, err
	}
	return booking, true, nil
}

func (s *BookingService) persist(req CreateBookingRequest, admission *Admission, status, source string) (*models.Booking, error) {
	booking := models.Booking{
		BookingID:    uuid.NewString(),
		CustomerName: req.CustomerName,
		Email:        req.Email,
		Phone:        req.Phone,
		PartySize:    req.PartySize,
		TableID:      admission.TableID,
		BookingTime:  admission.BookingTime,
		EndTime:      admission.EndTime,
		Duration:     admission.Duration,
		Status:       status,
		Notes:        req.Notes,
		Source:       source,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&booking).Error; err != nil {
			return err
		}
		return s.Catalog.RecomputeStatus(tx, admission.TableID, time.Now())
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Booking %s created: table %d, party %d, %s (%s)",
		booking.BookingID, booking.TableID, booking.PartySize,
		booking.BookingTime.Format(time.RFC3339), booking.Status)
	return &booking, nil
}

// FindByBookingID looks a booking up by its external id.
func (s *BookingService) FindByBookingID(bookingID string) (*models.Booking, error) {
	var booking models.Booking
	if err := s.DB.Preload("Table").Where("booking_id = ?", bookingID).First(&booking).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, newErrorf(KindNotFound, "booking not found", map[string]interface{}{"booking_id": bookingID})
		}
		return nil, err
	}
	return &booking, nil
}

// allowedTransitions is the lifecycle state machine. Cancelled is
// terminal; confirmed never goes back to pending.
var allowedTransitions = map[string][]string{
	models.BookingPending:   {models.BookingConfirmed, models.BookingCancelled},
	models.BookingConfirmed: {models.BookingCancelled},
}

func transitionAllowed(from, to string) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SetStatus applies one lifecycle transition and recomputes the
// table's cached status.
func (s *BookingService) SetStatus(bookingID, newStatus string) (*models.Booking, error) {
	if newStatus != models.BookingPending && newStatus != models.BookingConfirmed && newStatus != models.BookingCancelled {
		return nil, newErrorf(KindInvalidInput, "invalid status, must be one of: pending, confirmed, cancelled", map[string]interface{}{
			"status": newStatus,
		})
	}

	booking, err := s.FindByBookingID(bookingID)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(booking.Status, newStatus) {
		return nil, newErrorf(KindInvalidTransition, "illegal status transition", map[string]interface{}{
			"booking_id": bookingID,
			"from":       booking.Status,
			"to":         newStatus,
		})
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Booking{}).Where("booking_id = ?", bookingID).Update("status", newStatus).Error; err != nil {
			return err
		}
		return s.Catalog.RecomputeStatus(tx, booking.TableID, time.Now())
	})
	if err != nil {
		return nil, err
	}

	booking.Status = newStatus
	utils.InfoLogger.Printf("Booking %s status changed to %s", bookingID, newStatus)
	return booking, nil
}

// Cancel is a soft delete: the booking stays in the ledger with
// status cancelled.
func (s *BookingService) Cancel(bookingID string) (*models.Booking, error) {
	return s.SetStatus(bookingID, models.BookingCancelled)
}

// BookingPatch carries the optional fields of a booking edit. Nil
// fields keep their current values.
type BookingPatch struct {
	CustomerName *string
	Email        *string
	Phone        *string
	PartySize    *int
	TableID      *int
	BookingTime  *time.Time
	Duration     *int
	Notes        *string
	Status       *string
}

// Reschedule merges the patch over the existing booking, re-runs the
// admission check with the booking itself excluded, then writes the
// result. Old and new table statuses are both recomputed since they
// may differ.
func (s *BookingService) Reschedule(bookingID string, patch BookingPatch) (*models.Booking, error) {
	booking, err := s.FindByBookingID(bookingID)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil && *patch.Status != booking.Status {
		if !transitionAllowed(booking.Status, *patch.Status) {
			return nil, newErrorf(KindInvalidTransition, "illegal status transition", map[string]interface{}{
				"booking_id": bookingID,
				"from":       booking.Status,
				"to":         *patch.Status,
			})
		}
	}

	oldTableID := booking.TableID

	merged := AdmissionRequest{
		PartySize:        booking.PartySize,
		BookingTime:      booking.BookingTime,
		Duration:         booking.Duration,
		ExcludeBookingID: bookingID,
	}
	targetTable := booking.TableID
	if patch.TableID != nil {
		targetTable = *patch.TableID
	}
	merged.TableID = &targetTable
	if patch.PartySize != nil {
		merged.PartySize = *patch.PartySize
	}
	if patch.BookingTime != nil {
		merged.BookingTime = *patch.BookingTime
	}
	if patch.Duration != nil {
		merged.Duration = *patch.Duration
	}

	unlock := s.Locks.Acquire(targetTable)
	defer unlock()

	admission, err := s.Availability.ValidateAdmission(merged)
	if err != nil {
		return nil, err
	}

	if patch.CustomerName != nil {
		booking.CustomerName = *patch.CustomerName
	}
	if patch.Email != nil {
		booking.Email = patch.Email
	}
	if patch.Phone != nil {
		booking.Phone = patch.Phone
	}
	if patch.Notes != nil {
		booking.Notes = *patch.Notes
	}
	if patch.Status != nil {
		booking.Status = *patch.Status
	}
	booking.PartySize = merged.PartySize
	booking.TableID = admission.TableID
	booking.BookingTime = admission.BookingTime
	booking.EndTime = admission.EndTime
	booking.Duration = admission.Duration

	booking.Table = nil
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Table").Save(booking).Error; err != nil {
			return err
		}
		now := time.Now()
		if err := s.Catalog.RecomputeStatus(tx, admission.TableID, now); err != nil {
			return err
		}
		if oldTableID != admission.TableID {
			return s.Catalog.RecomputeStatus(tx, oldTableID, now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.Printf("Booking %s rescheduled: table %d, %s", bookingID, booking.TableID, booking.BookingTime.Format(time.RFC3339))
	return booking, nil
}
