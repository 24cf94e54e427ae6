package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/smileworks/dental-booking-service/internal/store"
)

// Repository adapts the generic document store to the typed reads and writes
// the booking workflow needs. It owns the collection names and timestamps.
type Repository struct {
	store store.Store
	now   func() time.Time
}

func NewRepository(st store.Store) *Repository {
	return &Repository{store: st, now: time.Now}
}

func (r *Repository) ListDentists(ctx context.Context) ([]Dentist, error) {
	var dentists []Dentist
	if err := r.store.ListWhere(ctx, store.CollectionDentists, nil, &dentists); err != nil {
		return nil, fmt.Errorf("list dentists: %w", err)
	}
	return dentists, nil
}

func (r *Repository) GetDentist(ctx context.Context, id string) (*Dentist, error) {
	var d Dentist
	if err := r.store.GetByID(ctx, store.CollectionDentists, id, &d); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDentistNotFound
		}
		return nil, fmt.Errorf("get dentist: %w", err)
	}
	return &d, nil
}

func (r *Repository) ListSlotsByDentist(ctx context.Context, dentistID string) ([]AvailabilitySlot, error) {
	var slots []AvailabilitySlot
	filter := store.Filter{"dentist_id": dentistID}
	if err := r.store.ListWhere(ctx, store.CollectionAvailability, filter, &slots); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

func (r *Repository) GetSlot(ctx context.Context, id string) (*AvailabilitySlot, error) {
	var s AvailabilitySlot
	if err := r.store.GetByID(ctx, store.CollectionAvailability, id, &s); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("get slot: %w", err)
	}
	return &s, nil
}

// ReserveSlot flips is_available to false only if it is still true. The
// boolean reports whether this caller won the slot.
func (r *Repository) ReserveSlot(ctx context.Context, id string) (bool, error) {
	won, err := r.store.UpdateFieldsWhere(ctx, store.CollectionAvailability, id,
		store.Filter{"is_available": true},
		store.Fields{"is_available": false, "updated_at": r.now()},
	)
	if err != nil {
		return false, fmt.Errorf("reserve slot: %w", err)
	}
	return won, nil
}

func (r *Repository) ReleaseSlot(ctx context.Context, id string) error {
	err := r.store.UpdateFields(ctx, store.CollectionAvailability, id,
		store.Fields{"is_available": true, "updated_at": r.now()})
	if err != nil {
		return fmt.Errorf("release slot: %w", err)
	}
	return nil
}

// FindPatientByPhone returns the first patient with an exact phone match,
// or nil when none exists.
func (r *Repository) FindPatientByPhone(ctx context.Context, phone string) (*Patient, error) {
	var patients []Patient
	filter := store.Filter{"phone_number": phone}
	if err := r.store.ListWhere(ctx, store.CollectionPatients, filter, &patients); err != nil {
		return nil, fmt.Errorf("find patient by phone: %w", err)
	}
	if len(patients) == 0 {
		return nil, nil
	}
	return &patients[0], nil
}

func (r *Repository) CreatePatient(ctx context.Context, p *Patient) (string, error) {
	p.CreatedAt = r.now()
	p.UpdatedAt = p.CreatedAt
	id, err := r.store.Insert(ctx, store.CollectionPatients, p)
	if err != nil {
		return "", fmt.Errorf("create patient: %w", err)
	}
	p.ID = id
	return id, nil
}

func (r *Repository) CreateAppointment(ctx context.Context, a *Appointment) (string, error) {
	a.CreatedAt = r.now()
	a.UpdatedAt = a.CreatedAt
	id, err := r.store.Insert(ctx, store.CollectionAppointments, a)
	if err != nil {
		return "", fmt.Errorf("create appointment: %w", err)
	}
	a.ID = id
	return id, nil
}

func (r *Repository) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	var a Appointment
	if err := r.store.GetByID(ctx, store.CollectionAppointments, id, &a); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return &a, nil
}

func (r *Repository) ListAppointmentsByPatient(ctx context.Context, patientID string) ([]Appointment, error) {
	var appts []Appointment
	filter := store.Filter{"patient_id": patientID}
	if err := r.store.ListWhere(ctx, store.CollectionAppointments, filter, &appts); err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return appts, nil
}

func (r *Repository) UpdateAppointmentStatus(ctx context.Context, id string, status AppointmentStatus) error {
	err := r.store.UpdateFields(ctx, store.CollectionAppointments, id,
		store.Fields{"status": string(status), "updated_at": r.now()})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrAppointmentNotFound
		}
		return fmt.Errorf("update appointment status: %w", err)
	}
	return nil
}
