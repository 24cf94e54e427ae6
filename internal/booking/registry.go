package booking

import (
	"context"

	"go.uber.org/zap"
)

// getOrCreatePatient resolves a patient id for the submitted intake form.
// Phone number is the dedup key: when a patient with the same phone already
// exists, their id is returned and the stored record is left untouched even
// if the new submission differs. First write wins.
func (s *Service) getOrCreatePatient(ctx context.Context, info PatientInfo) (string, error) {
	existing, err := s.repo.FindPatientByPhone(ctx, info.PhoneNumber)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return existing.ID, nil
	}

	patient := &Patient{
		FirstName:        info.FirstName,
		LastName:         info.LastName,
		Email:            info.Email,
		PhoneNumber:      info.PhoneNumber,
		DateOfBirth:      info.DateOfBirth,
		Address:          info.Address,
		EmergencyContact: info.EmergencyContact,
		MedicalHistory:   info.MedicalHistory,
		InsuranceInfo:    info.InsuranceInfo,
	}

	id, err := s.repo.CreatePatient(ctx, patient)
	if err != nil {
		return "", err
	}

	s.log.Info("patient registered", zap.String("patient_id", id))
	return id, nil
}
