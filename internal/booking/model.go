package booking

import (
	"strings"
	"time"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusCompleted AppointmentStatus = "completed"
	StatusExpired   AppointmentStatus = "expired"
)

type UrgencyLevel string

const (
	UrgencyRoutine   UrgencyLevel = "routine"
	UrgencyUrgent    UrgencyLevel = "urgent"
	UrgencyEmergency UrgencyLevel = "emergency"
)

type Dentist struct {
	ID                string    `bson:"_id,omitempty" json:"id"`
	FirstName         string    `bson:"first_name" json:"first_name"`
	LastName          string    `bson:"last_name" json:"last_name"`
	Specialization    string    `bson:"specialization" json:"specialization"`
	YearsOfExperience int       `bson:"years_of_experience" json:"years_of_experience"`
	Education         string    `bson:"education" json:"education"`
	Certifications    string    `bson:"certifications" json:"certifications"`
	Email             string    `bson:"email" json:"email"`
	PhoneNumber       string    `bson:"phone_number" json:"phone_number"`
	LicenseNumber     string    `bson:"license_number" json:"license_number"`
	Languages         string    `bson:"languages" json:"languages"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
}

type Patient struct {
	ID               string    `bson:"_id,omitempty" json:"id"`
	FirstName        string    `bson:"first_name" json:"first_name"`
	LastName         string    `bson:"last_name" json:"last_name"`
	Email            string    `bson:"email" json:"email"`
	PhoneNumber      string    `bson:"phone_number" json:"phone_number"`
	DateOfBirth      string    `bson:"date_of_birth" json:"date_of_birth"`
	Address          string    `bson:"address" json:"address"`
	EmergencyContact string    `bson:"emergency_contact" json:"emergency_contact"`
	MedicalHistory   string    `bson:"medical_history" json:"medical_history"`
	InsuranceInfo    string    `bson:"insurance_info" json:"insurance_info"`
	CreatedAt        time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt        time.Time `bson:"updated_at" json:"updated_at"`
}

// AvailabilitySlot is one bookable 30-minute unit for one dentist. Older
// records carry only a day_of_week; newer ones carry an explicit date that
// takes precedence when matching.
type AvailabilitySlot struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	DentistID   string    `bson:"dentist_id" json:"dentist_id"`
	DayOfWeek   string    `bson:"day_of_week" json:"day_of_week"`
	Date        string    `bson:"date,omitempty" json:"date,omitempty"`
	SlotTime    string    `bson:"slot_time" json:"slot_time"`
	IsAvailable bool      `bson:"is_available" json:"is_available"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

func (s AvailabilitySlot) Binding() SlotBinding {
	if s.Date != "" {
		return SlotBinding{date: s.Date}
	}
	return SlotBinding{weekday: s.DayOfWeek}
}

// SlotBinding is the tagged variant behind slot matching: a slot is bound
// either to a concrete calendar date or to a recurring weekday.
type SlotBinding struct {
	date    string
	weekday string
}

func DateBound(date string) SlotBinding       { return SlotBinding{date: date} }
func WeekdayBound(weekday string) SlotBinding { return SlotBinding{weekday: weekday} }

// Matches reports whether the binding covers the given calendar date.
// weekday is the precomputed lowercase day name for date.
func (b SlotBinding) Matches(date, weekday string) bool {
	if b.date != "" {
		return b.date == date
	}
	return strings.EqualFold(b.weekday, weekday)
}

type Appointment struct {
	ID              string            `bson:"_id,omitempty" json:"id"`
	DentistID       string            `bson:"dentist_id" json:"dentist_id"`
	PatientID       string            `bson:"patient_id" json:"patient_id"`
	SlotID          string            `bson:"slot_id,omitempty" json:"slot_id,omitempty"`
	AppointmentDate string            `bson:"appointment_date" json:"appointment_date"`
	AppointmentTime string            `bson:"appointment_time" json:"appointment_time"`
	ProcedureType   string            `bson:"procedure_type" json:"procedure_type"`
	UrgencyLevel    UrgencyLevel      `bson:"urgency_level" json:"urgency_level"`
	Status          AppointmentStatus `bson:"status" json:"status"`
	Notes           string            `bson:"notes" json:"notes"`
	CreatedAt       time.Time         `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time         `bson:"updated_at" json:"updated_at"`
}

// AppointmentDetail is an appointment hydrated with its dentist and patient
// for the phone-lookup listing.
type AppointmentDetail struct {
	Appointment
	Dentist *Dentist `json:"dentist,omitempty"`
	Patient *Patient `json:"patient,omitempty"`
}
