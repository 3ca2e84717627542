package pricing

// ServiceType selects the base rate bucket for a quote.
type ServiceType string

const (
	ServiceDiagnostic  ServiceType = "diagnostic"
	ServiceRepair      ServiceType = "repair"
	ServiceMaintenance ServiceType = "maintenance"
)

// Rate is a base price band in whole dollars.
type Rate struct {
	Min int64
	Max int64
	Avg int64
}

// Quote is the caller-facing price breakdown. Amounts are whole dollars;
// conversion to minor units happens only at the payment boundary.
type Quote struct {
	ServiceType ServiceType `json:"service_type"`

	// ServiceCall is the trip fee, 30% of the total estimate.
	ServiceCall     int64  `json:"service_call"`
	EstimatedRepair int64  `json:"estimated_repair"`
	Range           string `json:"range"`
	TotalEstimate   int64  `json:"total_estimate"`

	// EmergencyFee is nonzero only for emergency or after-hours work.
	EmergencyFee int64 `json:"emergency_fee"`

	Emergency bool `json:"emergency"`
}
