package pricing

import "testing"

func TestCalculateQuote_BaseRates(t *testing.T) {
	e := NewEngine()
	tests := []struct {
		st        ServiceType
		wantTotal int64
		wantRange string
	}{
		{ServiceDiagnostic, 200, "$150-$250"},
		{ServiceRepair, 550, "$300-$800"},
		{ServiceMaintenance, 150, "$120-$180"},
	}
	for _, tc := range tests {
		q := e.CalculateQuote(tc.st, "pilot light out", false)
		if q.TotalEstimate != tc.wantTotal {
			t.Errorf("%s: total = %d, want %d", tc.st, q.TotalEstimate, tc.wantTotal)
		}
		if q.Range != tc.wantRange {
			t.Errorf("%s: range = %q, want %q", tc.st, q.Range, tc.wantRange)
		}
		if q.EmergencyFee != 0 {
			t.Errorf("%s: unexpected emergency fee %d", tc.st, q.EmergencyFee)
		}
		if q.ServiceCall != int64(float64(tc.wantTotal)*0.3+0.5) {
			t.Errorf("%s: service call = %d", tc.st, q.ServiceCall)
		}
	}
}

func TestCalculateQuote_UnknownTypeFallsBackToDiagnostic(t *testing.T) {
	e := NewEngine()
	q := e.CalculateQuote("installation", "new unit", false)
	if q.ServiceType != ServiceDiagnostic {
		t.Fatalf("expected diagnostic fallback, got %s", q.ServiceType)
	}
	if q.TotalEstimate != 200 {
		t.Fatalf("expected diagnostic avg 200, got %d", q.TotalEstimate)
	}
}

func TestCalculateQuote_EmergencyKeywordMultiplier(t *testing.T) {
	e := NewEngine()
	q := e.CalculateQuote(ServiceRepair, "I smell a gas leak near the furnace", false)
	if !q.Emergency {
		t.Fatalf("expected emergency flag")
	}
	if q.TotalEstimate != 825 { // 550 * 1.5
		t.Fatalf("total = %d, want 825", q.TotalEstimate)
	}
	if q.EmergencyFee != 248 { // round(825 * 0.3)
		t.Fatalf("emergency fee = %d, want 248", q.EmergencyFee)
	}
}

func TestCalculateQuote_AfterHoursMultiplier(t *testing.T) {
	e := NewEngine()
	q := e.CalculateQuote(ServiceDiagnostic, "furnace making noise", true)
	if q.TotalEstimate != 300 { // 200 * 1.5
		t.Fatalf("total = %d, want 300", q.TotalEstimate)
	}
	if q.EmergencyFee != 90 {
		t.Fatalf("emergency fee = %d, want 90", q.EmergencyFee)
	}
}

func TestCalculateQuote_MultiSystemBump(t *testing.T) {
	e := NewEngine()
	q := e.CalculateQuote(ServiceRepair, "multiple units acting up", false)
	if q.TotalEstimate != 660 { // 550 * 1.2
		t.Fatalf("total = %d, want 660", q.TotalEstimate)
	}

	q = e.CalculateQuote(ServiceRepair, "no cooling on both systems", true)
	// 550 * 1.5 * 1.2 = 990
	if q.TotalEstimate != 990 {
		t.Fatalf("stacked total = %d, want 990", q.TotalEstimate)
	}
	if q.EmergencyFee != 297 {
		t.Fatalf("stacked emergency fee = %d, want 297", q.EmergencyFee)
	}
}

func TestHasEmergencyKeywords(t *testing.T) {
	e := NewEngine()
	if !e.HasEmergencyKeywords("Carbon Monoxide alarm going off") {
		t.Fatalf("expected carbon monoxide to match case-insensitively")
	}
	if e.HasEmergencyKeywords("annual maintenance visit") {
		t.Fatalf("did not expect a match")
	}
}
