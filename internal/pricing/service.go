package pricing

import (
	"fmt"
	"math"
	"strings"
)

// Engine computes quotes from a static rate table.
//
// Contract:
// - Pure calculation, no storage or network access.
// - Unknown service types fall back to the diagnostic band.
// - Same inputs always produce the same quote.
type Engine struct {
	rates               map[ServiceType]Rate
	emergencyMultiplier float64
	multiSystemFactor   float64
	emergencyKeywords   []string
}

func NewEngine() *Engine {
	return &Engine{
		rates: map[ServiceType]Rate{
			ServiceDiagnostic:  {Min: 150, Max: 250, Avg: 200},
			ServiceRepair:      {Min: 300, Max: 800, Avg: 550},
			ServiceMaintenance: {Min: 120, Max: 180, Avg: 150},
		},
		emergencyMultiplier: 1.5,
		multiSystemFactor:   1.2,
		emergencyKeywords: []string{
			"gas leak", "smoke", "carbon monoxide", "no heat", "no cooling",
		},
	}
}

// HasEmergencyKeywords reports whether the description mentions a safety
// hazard that warrants emergency dispatch.
func (e *Engine) HasEmergencyKeywords(description string) bool {
	desc := strings.ToLower(description)
	for _, kw := range e.emergencyKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

// CalculateQuote prices a job. Emergency keywords and after-hours both apply
// the emergency multiplier; mentioning multiple systems bumps the estimate a
// further 20%.
func (e *Engine) CalculateQuote(serviceType ServiceType, description string, afterHours bool) Quote {
	base, ok := e.rates[serviceType]
	if !ok {
		serviceType = ServiceDiagnostic
		base = e.rates[ServiceDiagnostic]
	}

	desc := strings.ToLower(description)
	emergency := e.HasEmergencyKeywords(desc) || afterHours

	estimate := float64(base.Avg)
	if emergency {
		estimate *= e.emergencyMultiplier
	}
	if strings.Contains(desc, "multiple") || strings.Contains(desc, "system") {
		estimate *= e.multiSystemFactor
	}

	total := int64(math.Round(estimate))
	q := Quote{
		ServiceType:     serviceType,
		ServiceCall:     int64(math.Round(estimate * 0.3)),
		EstimatedRepair: total,
		Range:           fmt.Sprintf("$%d-$%d", base.Min, base.Max),
		TotalEstimate:   total,
		Emergency:       emergency,
	}
	if emergency {
		q.EmergencyFee = int64(math.Round(estimate * 0.3))
	}
	return q
}
