package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smileworks/dental-booking-service/internal/store"
)

func TestRefreshExpiry(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return now }

	yesterday := "2026-08-27"
	tomorrow := "2026-08-29"

	mk := func(date, slotTime string, status AppointmentStatus) Appointment {
		id := env.addAppointment(t, Appointment{
			DentistID:       "dentist-1",
			PatientID:       "patient-1",
			AppointmentDate: date,
			AppointmentTime: slotTime,
			Status:          status,
		})
		return env.getAppointment(t, id)
	}

	appts := []Appointment{
		mk(yesterday, "09:00", StatusScheduled),
		mk(yesterday, "09:00", StatusConfirmed),
		mk(tomorrow, "09:00", StatusScheduled),
		mk(yesterday, "09:00", StatusCancelled),
		mk(yesterday, "09:00", StatusCompleted),
		mk(yesterday, "09:00", StatusExpired),
		// Same day, earlier and later than noon.
		mk("2026-08-28", "10:30", StatusScheduled),
		mk("2026-08-28", "14:00", StatusScheduled),
	}

	out := svc.RefreshExpiry(ctx, appts)

	wantStatus := []AppointmentStatus{
		StatusExpired,
		StatusExpired,
		StatusScheduled,
		StatusCancelled,
		StatusCompleted,
		StatusExpired,
		StatusExpired,
		StatusScheduled,
	}
	for i, want := range wantStatus {
		require.Equal(t, want, out[i].Status, "appointment %d", i)
		require.Equal(t, want, env.getAppointment(t, out[i].ID).Status, "appointment %d persisted status", i)
	}
}

func TestRefreshExpiry_PersistFailureDoesNotFailTheRead(t *testing.T) {
	svc, env := newTestService(t)
	ctx := context.Background()

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return now }

	id := env.addAppointment(t, Appointment{
		DentistID:       "dentist-1",
		PatientID:       "patient-1",
		AppointmentDate: "2026-08-20",
		AppointmentTime: "09:00",
		Status:          StatusScheduled,
	})
	appt := env.getAppointment(t, id)

	env.store.Intercept = func(op, collection string) error {
		if op == "update" && collection == store.CollectionAppointments {
			return errors.New("store unreachable")
		}
		return nil
	}

	out := svc.RefreshExpiry(ctx, []Appointment{appt})
	require.Len(t, out, 1)
	require.Equal(t, StatusScheduled, out[0].Status,
		"a failed persist leaves the reported status at what the store still holds")
}
