package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// CallsSummaryRequest requests aggregated call metrics for the dashboard.

type CallsSummaryRequest struct {
	Range TimeRange `json:"range"`
}

type CallsSummary struct {
	TotalCalls           int `json:"total_calls"`
	CompletedCalls       int `json:"completed_calls"`
	EscalatedCalls       int `json:"escalated_calls"`
	ConsentDeclinedCalls int `json:"consent_declined_calls"`
	FailedCalls          int `json:"failed_calls"`
	AfterHoursCalls      int `json:"after_hours_calls"`

	RecordingConsentGranted int `json:"recording_consent_granted"`
	MarketingConsentGranted int `json:"marketing_consent_granted"`

	TotalDurationSeconds   int `json:"total_duration_seconds"`
	AverageDurationSeconds int `json:"average_duration_seconds"`
}

// BookingFunnelRequest requests call-to-booking conversion metrics.

type BookingFunnelRequest struct {
	Range TimeRange `json:"range"`
}

type BookingFunnel struct {
	TotalCalls   int `json:"total_calls"`
	JobsBooked   int `json:"jobs_booked"`
	DepositsPaid int `json:"deposits_paid"`

	BookingRate float64 `json:"booking_rate"`
	DepositRate float64 `json:"deposit_rate"`
}
