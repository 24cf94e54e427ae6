package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	redisclient "github.com/smileworks/dental-booking-service/internal/redis"
)

// Service orchestrates the booking workflow: slot resolution, patient
// registration, race-free reservation, cancellation, and the lazy expiry
// sweep.
type Service struct {
	repo     *Repository
	locker   redisclient.Locker
	log      *zap.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewService(repo *Repository, locker redisclient.Locker, log *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		locker:   locker,
		log:      log,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		now:      time.Now,
	}
}

// PatientInfo is the intake form submitted with a booking.
type PatientInfo struct {
	FirstName        string `json:"first_name" validate:"required"`
	LastName         string `json:"last_name" validate:"required"`
	Email            string `json:"email" validate:"omitempty,email"`
	PhoneNumber      string `json:"phone_number" validate:"required"`
	DateOfBirth      string `json:"date_of_birth"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergency_contact"`
	MedicalHistory   string `json:"medical_history"`
	InsuranceInfo    string `json:"insurance_info"`
}

type BookingRequest struct {
	DentistID     string       `json:"dentist_id" validate:"required"`
	Date          string       `json:"date" validate:"required,datetime=2006-01-02"`
	Time          string       `json:"time" validate:"required"`
	Patient       PatientInfo  `json:"patient"`
	ProcedureType string       `json:"procedure_type"`
	UrgencyLevel  UrgencyLevel `json:"urgency_level" validate:"omitempty,oneof=routine urgent emergency"`
	Notes         string       `json:"notes"`
}

func (s *Service) validateBooking(req BookingRequest) error {
	err := s.validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Namespace())
		}
		return &ValidationError{Fields: fields}
	}
	return &ValidationError{Fields: []string{err.Error()}}
}

// BookSlot reserves a slot and creates the appointment. The reservation is a
// conditional flip of the slot's availability flag, so two callers can never
// both book the same slot: the loser gets ErrConcurrentBooking (or
// ErrSlotUnavailable if it read the slot after the winner's flip).
func (s *Service) BookSlot(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if err := s.validateBooking(req); err != nil {
		return nil, err
	}
	if req.ProcedureType == "" {
		req.ProcedureType = "General Consultation"
	}
	if req.UrgencyLevel == "" {
		req.UrgencyLevel = UrgencyRoutine
	}

	if _, err := s.repo.GetDentist(ctx, req.DentistID); err != nil {
		return nil, err
	}

	slot, err := s.findSlot(ctx, req.DentistID, req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	if !slot.IsAvailable {
		s.log.Info("booking rejected, slot unavailable",
			zap.String("dentist_id", req.DentistID),
			zap.String("date", req.Date),
			zap.String("time", req.Time),
		)
		return nil, ErrSlotUnavailable
	}

	patientID, err := s.getOrCreatePatient(ctx, req.Patient)
	if err != nil {
		return nil, err
	}

	var created *Appointment

	err = s.locker.WithSlotLock(ctx, slot.ID, func(lockCtx context.Context) error {
		won, err := s.repo.ReserveSlot(lockCtx, slot.ID)
		if err != nil {
			return err
		}
		if !won {
			return ErrConcurrentBooking
		}

		appt := &Appointment{
			DentistID:       req.DentistID,
			PatientID:       patientID,
			SlotID:          slot.ID,
			AppointmentDate: req.Date,
			AppointmentTime: req.Time,
			ProcedureType:   req.ProcedureType,
			UrgencyLevel:    req.UrgencyLevel,
			Status:          StatusScheduled,
			Notes:           req.Notes,
		}

		if _, err := s.repo.CreateAppointment(lockCtx, appt); err != nil {
			// The slot was reserved but the appointment write failed. Roll
			// the reservation back so the slot is not stranded, and surface
			// the partial completion instead of swallowing it.
			if relErr := s.repo.ReleaseSlot(lockCtx, slot.ID); relErr != nil {
				s.log.Error("slot stranded after failed appointment create",
					zap.String("slot_id", slot.ID),
					zap.Error(relErr),
				)
			}
			return fmt.Errorf("appointment create after slot reserved: %w", err)
		}

		created = appt
		s.log.Info("slot reserved",
			zap.String("slot_id", slot.ID),
			zap.String("appointment_id", appt.ID),
			zap.String("dentist_id", req.DentistID),
			zap.String("patient_id", patientID),
			zap.String("date", req.Date),
			zap.String("time", req.Time),
		)
		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrConcurrentBooking
		}
		return nil, err
	}

	return created, nil
}

// Cancel marks the appointment cancelled and restores its slot. A missing
// slot never fails the cancellation: the appointment-status update is the
// user-visible operation, the slot restore degrades to a logged warning.
func (s *Service) Cancel(ctx context.Context, appointmentID, date, slotTime, dentistID string) error {
	appt, err := s.repo.GetAppointment(ctx, appointmentID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateAppointmentStatus(ctx, appointmentID, StatusCancelled); err != nil {
		return err
	}

	slot, err := s.slotForCancellation(ctx, appt, date, slotTime, dentistID)
	if err != nil || slot == nil {
		s.log.Warn("cancellation orphaned, slot not restored",
			zap.String("appointment_id", appointmentID),
			zap.String("dentist_id", dentistID),
			zap.String("date", date),
			zap.String("time", slotTime),
			zap.Error(err),
		)
		return nil
	}

	if err := s.repo.ReleaseSlot(ctx, slot.ID); err != nil {
		return err
	}

	s.log.Info("appointment cancelled, slot restored",
		zap.String("appointment_id", appointmentID),
		zap.String("slot_id", slot.ID),
	)
	return nil
}

// slotForCancellation prefers the appointment's recorded slot_id; records
// created before slot ids existed fall back to the date/day-of-week match.
func (s *Service) slotForCancellation(ctx context.Context, appt *Appointment, date, slotTime, dentistID string) (*AvailabilitySlot, error) {
	if appt.SlotID != "" {
		slot, err := s.repo.GetSlot(ctx, appt.SlotID)
		if err == nil {
			return slot, nil
		}
		if !errors.Is(err, ErrSlotNotFound) {
			return nil, err
		}
	}
	return s.findSlot(ctx, dentistID, date, slotTime)
}

func (s *Service) ListDentists(ctx context.Context) ([]Dentist, error) {
	return s.repo.ListDentists(ctx)
}

func (s *Service) GetDentist(ctx context.Context, id string) (*Dentist, error) {
	return s.repo.GetDentist(ctx, id)
}

// AppointmentsByPhone looks a patient up by phone number and returns their
// appointments newest-first, each hydrated with its dentist, after running
// the expiry sweep over them.
func (s *Service) AppointmentsByPhone(ctx context.Context, phone string) ([]AppointmentDetail, error) {
	if phone == "" {
		return nil, &ValidationError{Fields: []string{"phone"}}
	}

	patient, err := s.repo.FindPatientByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, ErrPatientNotFound
	}

	appts, err := s.repo.ListAppointmentsByPatient(ctx, patient.ID)
	if err != nil {
		return nil, err
	}

	sort.Slice(appts, func(i, j int) bool {
		if appts[i].AppointmentDate != appts[j].AppointmentDate {
			return appts[i].AppointmentDate > appts[j].AppointmentDate
		}
		return appts[i].AppointmentTime > appts[j].AppointmentTime
	})

	appts = s.RefreshExpiry(ctx, appts)

	dentists := make(map[string]*Dentist)
	details := make([]AppointmentDetail, 0, len(appts))
	for _, a := range appts {
		d, ok := dentists[a.DentistID]
		if !ok {
			d, err = s.repo.GetDentist(ctx, a.DentistID)
			if err != nil && !errors.Is(err, ErrDentistNotFound) {
				return nil, err
			}
			dentists[a.DentistID] = d
		}
		details = append(details, AppointmentDetail{
			Appointment: a,
			Dentist:     d,
			Patient:     patient,
		})
	}

	return details, nil
}
