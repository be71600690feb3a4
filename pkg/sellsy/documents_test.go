package sellsy

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func stubDocumentAPI(t *testing.T) *fakeAPI {
	api := newFakeAPI(t)
	api.stub("Accountdatas.getTaxes", taxesPayload)
	api.stub("Document.create", `{"doc_id":"99"}`)
	api.stub("Document.getOne", `{"id":"99","status":"draft"}`)
	return api
}

func contentRow(title string, price float64) DocumentRow {
	return DocumentRow{
		Title:     title,
		UnitPrice: decimal.NewFromFloat(price),
		Quantity:  decimal.NewFromInt(1),
		TaxRate:   20,
	}
}

func TestPrepareDocumentRows(t *testing.T) {
	api := stubDocumentAPI(t)
	client := newTestClient(api)

	rows, err := client.prepareDocumentRows([]DocumentRow{
		contentRow("Consulting", 100),
		contentRow("Hosting", 50),
	}, true)
	if err != nil {
		t.Fatalf("prepareDocumentRows() returned error: %v", err)
	}

	// Two content rows plus exactly one trailing sum row.
	if len(rows) != 3 {
		t.Fatalf("expected 3 prepared rows, got %d", len(rows))
	}
	if rows[0]["row_type"] != "once" || rows[0]["row_name"] != "Consulting" {
		t.Errorf("unexpected first row: %v", rows[0])
	}
	if rows[0]["row_taxid"] != int64(30) {
		t.Errorf("tax rate not resolved to id: %v", rows[0]["row_taxid"])
	}
	if rows[2]["row_type"] != "sum" {
		t.Errorf("last row should be the sum row: %v", rows[2])
	}
}

func TestPrepareDocumentRowsSuppressedSum(t *testing.T) {
	api := stubDocumentAPI(t)
	client := newTestClient(api)

	rows, err := client.prepareDocumentRows([]DocumentRow{contentRow("Consulting", 100)}, false)
	if err != nil {
		t.Fatalf("prepareDocumentRows() returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 prepared row, got %d", len(rows))
	}
	if rows[0]["row_type"] != "once" {
		t.Errorf("no sum row should be appended: %v", rows)
	}
}

func TestPrepareDocumentRowsPassthrough(t *testing.T) {
	api := stubDocumentAPI(t)
	client := newTestClient(api)

	rows, err := client.prepareDocumentRows([]DocumentRow{
		{Type: "shipping", TaxRate: 20, Extra: map[string]any{"row_name": "Shipping"}},
	}, false)
	if err != nil {
		t.Fatalf("prepareDocumentRows() returned error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 prepared row, got %d", len(rows))
	}
	if rows[0]["row_type"] != "shipping" || rows[0]["row_name"] != "Shipping" {
		t.Errorf("non-content rows must pass through: %v", rows[0])
	}
	if rows[0]["row_taxid"] != int64(30) {
		t.Errorf("passthrough rows still get their tax resolved: %v", rows[0])
	}
}

func TestCreateInvoiceRequiredFields(t *testing.T) {
	api := stubDocumentAPI(t)
	client := newTestClient(api)

	if _, _, err := client.CreateInvoice(DocumentInput{Rows: []DocumentRow{contentRow("x", 1)}}); err == nil {
		t.Error("CreateInvoice() without a client id should fail")
	}
	if _, _, err := client.CreateInvoice(DocumentInput{ClientID: 42}); err == nil {
		t.Error("CreateInvoice() without rows should fail")
	}
	if n := api.callCount("Document.create"); n != 0 {
		t.Errorf("no remote call should be issued on local validation failure, got %d", n)
	}
}

func TestCreateInvoice(t *testing.T) {
	api := stubDocumentAPI(t)
	client := newTestClient(api)

	subject := "March retainer"
	in := DocumentInput{
		ClientID: 42,
		Subject:  &subject,
		Rows:     []DocumentRow{contentRow("Consulting", 100)},
	}

	id, fetched, err := client.CreateInvoice(in)
	if err != nil {
		t.Fatalf("CreateInvoice() returned error: %v", err)
	}
	if id != 99 {
		t.Errorf("CreateInvoice() id = %d, expected 99", id)
	}
	if fetched == nil || fetched["status"] != "draft" {
		t.Errorf("the created document should be re-fetched: %v", fetched)
	}

	calls := api.callsTo("Document.create")
	if len(calls) != 1 {
		t.Fatalf("expected 1 Document.create call, got %d", len(calls))
	}
	doc, _ := calls[0].Params["document"].(map[string]any)
	if doc["doctype"] != "invoice" || doc["thirdid"] != float64(42) {
		t.Errorf("unexpected document payload: %v", doc)
	}
	if doc["subject"] != "March retainer" {
		t.Errorf("subject not transmitted: %v", doc)
	}

	// Unset optional fields stay off the payload entirely.
	for _, key := range []string{"ident", "notes", "displayedDate", "globalDiscount", "tags", "parentId"} {
		if _, ok := doc[key]; ok {
			t.Errorf("optional field %q should be absent: %v", key, doc)
		}
	}

	if n := api.callCount("Document.getOne"); n != 1 {
		t.Errorf("expected a re-fetch of the created document, got %d getOne calls", n)
	}
}

func TestCreateInvoiceRecordsCustomValues(t *testing.T) {
	api := stubDocumentAPI(t)
	api.stub("CustomFields.getList", propertiesPayload)
	client := newTestClient(api)

	_, _, err := client.CreateInvoice(DocumentInput{
		ClientID: 42,
		Rows:     []DocumentRow{contentRow("Consulting", 100)},
		Custom:   map[string]any{"crm-ref": 55},
	})
	if err != nil {
		t.Fatalf("CreateInvoice() returned error: %v", err)
	}

	records := api.callsTo("CustomFields.recordValues")
	if len(records) != 1 {
		t.Fatalf("expected 1 recordValues call, got %d", len(records))
	}
	params := records[0].Params
	if params["linkedtype"] != "document" || params["linkedid"] != float64(99) {
		t.Errorf("unexpected recordValues target: %v", params)
	}
}

func TestUpdateInvoiceStatus(t *testing.T) {
	api := newFakeAPI(t)
	client := newTestClient(api)

	if _, err := client.UpdateInvoiceStatus(99, "paid"); err != nil {
		t.Fatalf("UpdateInvoiceStatus() returned error: %v", err)
	}

	calls := api.callsTo("Document.updateStep")
	if len(calls) != 1 {
		t.Fatalf("expected 1 updateStep call, got %d", len(calls))
	}
	doc, _ := calls[0].Params["document"].(map[string]any)
	if doc["doctype"] != "invoice" || doc["step"] != "paid" {
		t.Errorf("unexpected updateStep payload: %v", calls[0].Params)
	}
}

func TestUpdateInvoiceStatusRejectsUnknownStep(t *testing.T) {
	api := newFakeAPI(t)
	client := newTestClient(api)

	if _, err := client.UpdateInvoiceStatus(99, "archived"); err == nil {
		t.Error("an unknown status should be rejected locally")
	}
	if n := api.callCount("Document.updateStep"); n != 0 {
		t.Errorf("no remote call should be issued for an invalid status, got %d", n)
	}
}

func TestValidateInvoice(t *testing.T) {
	api := newFakeAPI(t)
	client := newTestClient(api)

	ts := int64(1700000000)
	if _, err := client.ValidateInvoice(99, &ts); err != nil {
		t.Fatalf("ValidateInvoice() returned error: %v", err)
	}

	calls := api.callsTo("Document.validate")
	if len(calls) != 1 {
		t.Fatalf("expected 1 validate call, got %d", len(calls))
	}
	if calls[0].Params["docid"] != float64(99) || calls[0].Params["date"] != float64(1700000000) {
		t.Errorf("unexpected validate params: %v", calls[0].Params)
	}
}

const proformaPayload = `{
	"id": "12",
	"thirdid": "42",
	"displayedDate": "15/03/2024",
	"globalDiscount": "0",
	"tags": {
		"1": {"word": "retainer"},
		"2": {"word": "march"}
	},
	"map": {
		"rows": {
			"1": {"type": "once", "name": "Consulting", "notes": "March", "unitAmount": "100.00", "qt": "2", "taxrate": "20.00", "discount": "0", "discountUnit": "0"},
			"2": {"type": "sum"},
			"3": "break",
			"4": {"type": "once", "name": "Hosting", "notes": "", "unitAmount": "50.00", "qt": "1", "taxrate": "20.00", "discount": "10", "discountUnit": "2"}
		}
	}
}`

func TestProformaContentRows(t *testing.T) {
	proforma, err := decodeMap([]byte(proformaPayload))
	if err != nil {
		t.Fatalf("failed to decode fixture: %v", err)
	}

	rows, err := proformaContentRows(proforma)
	if err != nil {
		t.Fatalf("proformaContentRows() returned error: %v", err)
	}

	// Sum rows and bare markers are dropped; only "once" rows survive.
	if len(rows) != 2 {
		t.Fatalf("expected 2 content rows, got %d", len(rows))
	}

	first := rows[0]
	if first.Title != "Consulting" || first.Description != "March" {
		t.Errorf("unexpected first row: %+v", first)
	}
	if !first.UnitPrice.Equal(decimal.NewFromInt(100)) || !first.Quantity.Equal(decimal.NewFromInt(2)) {
		t.Errorf("numeric strings not converted: %+v", first)
	}
	if first.TaxRate != 20 {
		t.Errorf("tax rate not converted: %+v", first)
	}
	if first.Discount != nil {
		t.Errorf("zero discount should stay unset: %+v", first)
	}

	second := rows[1]
	if second.Discount == nil || second.DiscountUnit == nil {
		t.Fatalf("discount with unit should carry over: %+v", second)
	}
	if !second.Discount.Equal(decimal.NewFromInt(10)) || *second.DiscountUnit != 2 {
		t.Errorf("unexpected discount: %v / %v", second.Discount, *second.DiscountUnit)
	}
}

func TestJoinTagWords(t *testing.T) {
	tags := map[string]any{
		"2": map[string]any{"word": "march"},
		"1": map[string]any{"word": "retainer"},
		"3": "stray",
	}
	if got := joinTagWords(tags); got != "retainer,march" {
		t.Errorf("joinTagWords() = %q, expected %q", got, "retainer,march")
	}
	if got := joinTagWords(nil); got != "" {
		t.Errorf("joinTagWords(nil) = %q, expected empty", got)
	}
}

func TestJoinTagWordsNumericKeyOrder(t *testing.T) {
	// Keys order numerically, so "10" comes after "2".
	tags := map[string]any{
		"10": map[string]any{"word": "third"},
		"2":  map[string]any{"word": "second"},
		"1":  map[string]any{"word": "first"},
	}
	if got := joinTagWords(tags); got != "first,second,third" {
		t.Errorf("joinTagWords() = %q, expected %q", got, "first,second,third")
	}
}

func TestCreateInvoiceFromProforma(t *testing.T) {
	api := newFakeAPI(t)
	api.stub("Accountdatas.getTaxes", taxesPayload)
	api.stub("Document.getOne", proformaPayload)
	api.stub("Document.create", `{"doc_id":"99"}`)
	client := newTestClient(api)

	id, _, err := client.CreateInvoiceFromProforma(12)
	if err != nil {
		t.Fatalf("CreateInvoiceFromProforma() returned error: %v", err)
	}
	if id != 99 {
		t.Errorf("CreateInvoiceFromProforma() = %d, expected 99", id)
	}

	calls := api.callsTo("Document.create")
	if len(calls) != 1 {
		t.Fatalf("expected 1 Document.create call, got %d", len(calls))
	}
	doc, _ := calls[0].Params["document"].(map[string]any)
	if doc["doctype"] != "invoice" || doc["thirdid"] != float64(42) {
		t.Errorf("unexpected document payload: %v", doc)
	}
	if doc["parentId"] != float64(12) {
		t.Errorf("the invoice must reference its proforma: %v", doc)
	}
	if doc["tags"] != "retainer,march" {
		t.Errorf("tags not rejoined: %v", doc["tags"])
	}

	wantDate, err := time.ParseInLocation(displayedDateLayout, "15/03/2024", time.Local)
	if err != nil {
		t.Fatalf("failed to parse expected date: %v", err)
	}
	if doc["displayedDate"] != float64(wantDate.Unix()) {
		t.Errorf("displayed date not reparsed: %v", doc["displayedDate"])
	}

	rows, _ := calls[0].Params["row"].([]any)
	// Two rebuilt content rows plus the trailing sum row.
	if len(rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(rows))
	}
}
