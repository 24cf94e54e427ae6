package booking

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// RefreshExpiry reclassifies past-due scheduled or confirmed appointments as
// expired. It runs lazily when a patient's appointment list is viewed, not
// on a schedule. Persists are best-effort per record: a failed write is
// logged and the appointment keeps its stored status in the returned slice,
// and the overall read never fails because of it.
func (s *Service) RefreshExpiry(ctx context.Context, appts []Appointment) []Appointment {
	now := s.now()

	for i := range appts {
		a := &appts[i]
		if a.Status != StatusScheduled && a.Status != StatusConfirmed {
			continue
		}
		if !isPast(a.AppointmentDate, a.AppointmentTime, now) {
			continue
		}

		if err := s.repo.UpdateAppointmentStatus(ctx, a.ID, StatusExpired); err != nil {
			s.log.Error("failed to expire appointment",
				zap.String("appointment_id", a.ID),
				zap.Error(err),
			)
			continue
		}

		a.Status = StatusExpired
		s.log.Info("appointment expired",
			zap.String("appointment_id", a.ID),
			zap.String("date", a.AppointmentDate),
			zap.String("time", a.AppointmentTime),
		)
	}

	return appts
}

// isPast reports whether the date+time pair is strictly before now,
// interpreted in now's location since slot times are clinic-local.
func isPast(date, slotTime string, now time.Time) bool {
	y, m, d, err := splitDate(date)
	if err != nil {
		return false
	}

	hour, minute := 0, 0
	if len(slotTime) == 5 && slotTime[2] == ':' {
		hour = int(slotTime[0]-'0')*10 + int(slotTime[1]-'0')
		minute = int(slotTime[3]-'0')*10 + int(slotTime[4]-'0')
	}

	at := time.Date(y, time.Month(m), d, hour, minute, 0, 0, now.Location())
	return at.Before(now)
}
