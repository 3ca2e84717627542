package booking

import (
	"errors"
	"time"
)

var ErrInvalidBooking = errors.New("booking: invalid request")

// CallerSafeFailure is what the voice layer speaks verbatim when a booking
// transaction fails. Internal detail stays in logs, never in the caller's ear.
const CallerSafeFailure = "Booking failed, transferring to a specialist."

// Customer is keyed by phone number. Repeat callers update name and email in
// place rather than creating duplicates.
type Customer struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	PhoneE164 string    `json:"phone_e164" db:"phone_e164"`
	Email     string    `json:"email,omitempty" db:"email"`
	Address   string    `json:"address,omitempty" db:"address_json"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type JobStatus string

const (
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusConfirmed  JobStatus = "confirmed"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCanceled   JobStatus = "canceled"
)

// Job is a scheduled appointment occupying a fixed 2-hour window.
type Job struct {
	ID          string    `json:"id" db:"id"`
	JobNumber   int64     `json:"job_number" db:"job_number"`
	CustomerID  string    `json:"customer_id" db:"customer_id"`
	ServiceType string    `json:"svc_type" db:"svc_type"`
	Category    string    `json:"category" db:"category"`
	Description string    `json:"description" db:"description"`
	Urgency     string    `json:"urgency" db:"urgency"`
	WindowStart time.Time `json:"window_start" db:"window_start"`
	WindowEnd   time.Time `json:"window_end" db:"window_end"`
	Status      JobStatus `json:"status" db:"status"`
	Priority    string    `json:"priority" db:"priority"`

	// Source and BookingChannel record how the job entered the system.
	Source         string `json:"source" db:"source"`
	BookingChannel string `json:"booking_channel" db:"booking_channel"`

	// EstimatedCost is whole dollars; zero means no estimate was given.
	EstimatedCost int64 `json:"estimated_cost" db:"estimated_cost"`

	LeadTimeHours int  `json:"lead_time_hours" db:"lead_time_hours"`
	IsAfterHours  bool `json:"is_after_hours" db:"is_after_hours"`
	DepositPaid   bool `json:"deposit_paid" db:"deposit_paid"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Request carries everything needed to book an appointment in one call.
type Request struct {
	CustomerName string
	Phone        string
	Email        string
	Address      string
	ServiceType  string
	Description  string
	ScheduledAt  time.Time

	// EstimatedCost in whole dollars; zero falls back to the default
	// deposit base.
	EstimatedCost int64
	Emergency     bool
}

func (r Request) validate() error {
	if r.CustomerName == "" || r.Phone == "" || r.Address == "" || r.ServiceType == "" || r.ScheduledAt.IsZero() {
		return ErrInvalidBooking
	}
	return nil
}

// Result is returned to the voice layer after a committed booking.
type Result struct {
	JobID         string    `json:"job_id"`
	JobNumber     int64     `json:"job_number"`
	CustomerID    string    `json:"customer_id"`
	DepositAmount int64     `json:"deposit_amount"`
	CheckoutURL   string    `json:"checkout_url"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
}
