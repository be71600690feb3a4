package sellsy

import (
	"testing"
)

const currenciesPayload = `{
	"defaultCurrency": "1",
	"1": {"id": "1", "name": "EUR", "symbol": "€"},
	"2": {"id": "2", "name": "USD", "symbol": "$"}
}`

const payMediumsPayload = `{
	"10": {"id": "10", "syscode": "check", "value": "Chèque"},
	"11": {"id": "11", "syscode": "transfer", "value": "Virement"},
	"12": {"id": "12", "syscode": "cb", "value": "Carte bancaire"}
}`

const payDatesPayload = `{
	"payDates": {
		"20": {"id": "20", "syscode": "30days"},
		"21": {"id": "21", "syscode": "endmonth"}
	}
}`

const taxesPayload = `{
	"defaultTax": "30",
	"30": {"id": "30", "value": "20"},
	"31": {"id": "31", "value": "5.5"},
	"32": {"id": "32", "value": "0"}
}`

const propertiesPayload = `{
	"result": {
		"7": {"id": "7", "code": "crm-ref", "type": "numeric"},
		"8": {"id": "8", "code": "segment", "type": "select"}
	}
}`

func TestCurrencyID(t *testing.T) {
	api := newFakeAPI(t)
	api.stub("AccountPrefs.getCurrencies", currenciesPayload)
	client := newTestClient(api)

	tests := []struct {
		code     string
		expected int64
		found    bool
	}{
		{"EUR", 1, true},
		{"USD", 2, true},
		{"GBP", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			id, found, err := client.CurrencyID(tt.code, false)
			if err != nil {
				t.Fatalf("CurrencyID(%q) returned error: %v", tt.code, err)
			}
			if found != tt.found || id != tt.expected {
				t.Errorf("CurrencyID(%q) = (%d, %v), expected (%d, %v)", tt.code, id, found, tt.expected, tt.found)
			}
		})
	}
}

func TestCurrencyTableIsCached(t *testing.T) {
	api := newFakeAPI(t)
	api.stub("AccountPrefs.getCurrencies", currenciesPayload)
	client := newTestClient(api)

	for i := 0; i < 3; i++ {
		if _, _, err := client.CurrencyID("EUR", false); err != nil {
			t.Fatalf("CurrencyID() returned error: %v", err)
		}
	}

	if n := api.callCount("AccountPrefs.getCurrencies"); n != 1 {
		t.Errorf("expected a single fetch of the currency table, got %d", n)
	}

	// A forced resolution refetches.
	if _, _, err := client.CurrencyID("EUR", true); err != nil {
		t.Fatalf("CurrencyID() returned error: %v", err)
	}
	if n := api.callCount("AccountPrefs.getCurrencies"); n != 2 {
		t.Errorf("expected a second fetch after force, got %d", n)
	}
}

func TestPaymentModeID(t *testing.T) {
	api := newFakeAPI(t)
	api.stub("Accountdatas.getPayMediums", payMediumsPayload)
	client := newTestClient(api)

	tests := []struct {
		name     string
		code     string
		expected int64
		found    bool
	}{
		{"by syscode", "transfer", 11, true},
		{"by display value", "Chèque", 10, true},
		{"unknown", "bitcoin", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, found, err := client.PaymentModeID(tt.code, false)
			if err != nil {
				t.Fatalf("PaymentModeID(%q) returned error: %v", tt.code, err)
			}
			if found != tt.found || id != tt.expected {
				t.Errorf("PaymentModeID(%q) = (%d, %v), expected (%d, %v)", tt.code, id, found, tt.expected, tt.found)
			}
		})
	}
}

func TestPaymentDateID(t *testing.T) {
	api := newFakeAPI(t)
	api.stub("Accountdatas.getPayDates", payDatesPayload)
	client := newTestClient(api)

	id, found, err := client.PaymentDateID("30days", false)
	if err != nil {
		t.Fatalf("PaymentDateID() returned error: %v", err)
	}
	if !found || id != 20 {
		t.Errorf("PaymentDateID(30days) = (%d, %v), expected (20, true)", id, found)
	}

	_, found, err = client.PaymentDateID("90days", false)
	if err != nil {
		t.Fatalf("PaymentDateID() returned error: %v", err)
	}
	if found {
		t.Error("PaymentDateID(90days) should not resolve")
	}
}

func TestTaxID(t *testing.T) {
	api := newFakeAPI(t)
	api.stub("Accountdatas.getTaxes", taxesPayload)
	client := newTestClient(api)

	tests := []struct {
		name     string
		rate     float64
		expected int64
		found    bool
	}{
		{"whole rate", 20, 30, true},
		{"whole rate given as float", 20.0, 30, true},
		{"fractional rate", 5.5, 31, true},
		{"zero rate", 0, 32, true},
		{"unknown rate", 19.6, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, found, err := client.TaxID(tt.rate, false)
			if err != nil {
				t.Fatalf("TaxID(%v) returned error: %v", tt.rate, err)
			}
			if found != tt.found || id != tt.expected {
				t.Errorf("TaxID(%v) = (%d, %v), expected (%d, %v)", tt.rate, id, found, tt.expected, tt.found)
			}
		})
	}
}

func TestNormalizeTaxValue(t *testing.T) {
	tests := []struct {
		rate     float64
		expected string
	}{
		{20, "20"},
		{20.0, "20"},
		{5.5, "5.5"},
		{0, "0"},
	}

	for _, tt := range tests {
		if got := normalizeTaxValue(tt.rate); got != tt.expected {
			t.Errorf("normalizeTaxValue(%v) = %q, expected %q", tt.rate, got, tt.expected)
		}
	}
}

func TestPropertyID(t *testing.T) {
	api := newFakeAPI(t)
	api.stub("CustomFields.getList", propertiesPayload)
	client := newTestClient(api)

	id, found, err := client.PropertyID("crm-ref", false)
	if err != nil {
		t.Fatalf("PropertyID() returned error: %v", err)
	}
	if !found || id != 7 {
		t.Errorf("PropertyID(crm-ref) = (%d, %v), expected (7, true)", id, found)
	}

	_, found, err = client.PropertyID("nonexistent", false)
	if err != nil {
		t.Fatalf("PropertyID() returned error: %v", err)
	}
	if found {
		t.Error("PropertyID(nonexistent) should not resolve")
	}

	// The list is fetched with a single all-in-one page.
	calls := api.callsTo("CustomFields.getList")
	if len(calls) != 1 {
		t.Fatalf("expected 1 CustomFields.getList call, got %d", len(calls))
	}
	pagination, ok := calls[0].Params["pagination"].(map[string]any)
	if !ok || pagination["nbperpage"] != float64(5000) {
		t.Errorf("unexpected pagination: %v", calls[0].Params)
	}
}
