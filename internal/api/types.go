package api

import (
	"time"

	"github.com/smileworks/dental-booking-service/internal/booking"
)

type BookAppointmentRequest struct {
	DentistID     string              `json:"dentist_id"`
	Date          string              `json:"date"`
	Time          string              `json:"time"`
	Patient       booking.PatientInfo `json:"patient"`
	ProcedureType string              `json:"procedure_type"`
	UrgencyLevel  string              `json:"urgency_level"`
	Notes         string              `json:"notes"`
}

type CancelAppointmentRequest struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	DentistID string `json:"dentist_id"`
}

type AppointmentResponse struct {
	ID              string    `json:"id"`
	DentistID       string    `json:"dentist_id"`
	PatientID       string    `json:"patient_id"`
	SlotID          string    `json:"slot_id,omitempty"`
	AppointmentDate string    `json:"appointment_date"`
	AppointmentTime string    `json:"appointment_time"`
	ProcedureType   string    `json:"procedure_type"`
	UrgencyLevel    string    `json:"urgency_level"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func toAppointmentResponse(a *booking.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:              a.ID,
		DentistID:       a.DentistID,
		PatientID:       a.PatientID,
		SlotID:          a.SlotID,
		AppointmentDate: a.AppointmentDate,
		AppointmentTime: a.AppointmentTime,
		ProcedureType:   a.ProcedureType,
		UrgencyLevel:    string(a.UrgencyLevel),
		Status:          string(a.Status),
		Notes:           a.Notes,
		CreatedAt:       a.CreatedAt,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
