package sellsy

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// validDocumentSteps is the fixed set of statuses accepted by
// Document.updateStep.
var validDocumentSteps = map[string]bool{
	"draft":           true,
	"sent":            true,
	"read":            true,
	"accepted":        true,
	"expired":         true,
	"advanced":        true,
	"partialinvoiced": true,
	"invoiced":        true,
	"paid":            true,
	"partialspend":    true,
	"spent":           true,
	"late":            true,
	"cancelled":       true,
}

// displayedDateLayout is the format the vendor uses when rendering document
// dates in fetched records.
const displayedDateLayout = "02/01/2006"

// DocumentRow is one row of a commercial document. An empty Type means a
// regular "once" content row. Rows of any other type are passed through
// with only their tax id resolved, carrying their payload in Extra.
type DocumentRow struct {
	Type        string
	Title       string
	Description string
	UnitPrice   decimal.Decimal
	Quantity    decimal.Decimal
	TaxRate     float64

	Discount     *decimal.Decimal
	DiscountUnit *int
	Comment      *string

	Extra map[string]any
}

// DocumentPayDate selects a payment due-date rule for a document. Code is
// one of PaymentDateCodes; Extra carries rule-specific parameters such as
// the day count for "xdays".
type DocumentPayDate struct {
	Code  string
	Extra map[string]any
}

// DocumentInput is the input for creating a document. ClientID and Rows are
// required; every other field is included in the remote call only when set,
// never defaulted.
type DocumentInput struct {
	ClientID int64
	Rows     []DocumentRow

	// SkipSumRow suppresses the trailing sum row normally appended to the
	// prepared rows.
	SkipSumRow bool

	ParentID     *int64
	Number       *string
	Date         *int64 // epoch seconds
	Subject      *string
	Notes        *string
	Discount     *decimal.Decimal
	DiscountUnit *string
	Tags         *string
	PaymentModes []string
	PayDate      *DocumentPayDate
	Custom       map[string]any
}

// prepareDocumentRows shapes rows for Document.create, resolving tax rates
// to ids and appending a single trailing sum row unless suppressed.
func (c *Client) prepareDocumentRows(rows []DocumentRow, appendSumRow bool) ([]map[string]any, error) {
	prepared := make([]map[string]any, 0, len(rows)+1)

	for _, row := range rows {
		taxID, found, err := c.TaxID(row.TaxRate, false)
		if err != nil {
			return nil, err
		}
		var tax any
		if found {
			tax = taxID
		}

		if row.Type != "" && row.Type != "once" {
			p := map[string]any{}
			for k, v := range row.Extra {
				p[k] = v
			}
			p["row_type"] = row.Type
			p["row_taxid"] = tax
			prepared = append(prepared, p)
			continue
		}

		p := map[string]any{
			"row_type":       "once",
			"row_name":       row.Title,
			"row_notes":      row.Description,
			"row_unitAmount": row.UnitPrice,
			"row_qt":         row.Quantity,
			"row_taxid":      tax,
		}
		if row.Discount != nil {
			p["row_discount"] = *row.Discount
			if row.DiscountUnit != nil {
				p["row_discountUnit"] = *row.DiscountUnit
			}
		}
		if row.Comment != nil {
			p["row_comment"] = *row.Comment
		}
		prepared = append(prepared, p)
	}

	if appendSumRow {
		prepared = append(prepared, map[string]any{"row_type": "sum"})
	}
	return prepared, nil
}

// GetDocumentByID fetches a document of the given type by id.
func (c *Client) GetDocumentByID(docType string, docID int64) (map[string]any, error) {
	raw, err := c.Call("Document.getOne", map[string]any{
		"doctype": docType,
		"docid":   docID,
	})
	if err != nil {
		return nil, err
	}
	return decodeMap(raw)
}

// createDocument builds Document.create parameters strictly from the fields
// present on the input, records optional custom values against the new id,
// and returns both the id and the freshly re-fetched document.
func (c *Client) createDocument(docType string, in DocumentInput) (int64, map[string]any, error) {
	if in.ClientID == 0 {
		return 0, nil, errors.New("a client id is required to create a document")
	}
	if len(in.Rows) == 0 {
		return 0, nil, errors.New("rows are required to create a document")
	}

	doc := map[string]any{
		"doctype": docType,
		"thirdid": in.ClientID,
	}
	if in.ParentID != nil {
		doc["parentId"] = *in.ParentID
	}
	if in.Number != nil {
		doc["ident"] = *in.Number
	}
	if in.Date != nil {
		doc["displayedDate"] = *in.Date
	}
	if in.Subject != nil {
		doc["subject"] = *in.Subject
	}
	if in.Notes != nil {
		doc["notes"] = *in.Notes
	}
	if in.Discount != nil {
		doc["globalDiscount"] = *in.Discount
		if in.DiscountUnit != nil {
			doc["globalDiscountUnit"] = *in.DiscountUnit
		}
	}
	if in.Tags != nil {
		doc["tags"] = *in.Tags
	}
	if len(in.PaymentModes) > 0 {
		mediums := make([]any, 0, len(in.PaymentModes))
		for _, code := range in.PaymentModes {
			id, found, err := c.PaymentModeID(code, false)
			if err != nil {
				return 0, nil, err
			}
			var v any
			if found {
				v = id
			}
			mediums = append(mediums, v)
		}
		doc["payMediums"] = mediums
	}

	rows, err := c.prepareDocumentRows(in.Rows, !in.SkipSumRow)
	if err != nil {
		return 0, nil, err
	}

	params := map[string]any{
		"document": doc,
		"row":      rows,
	}
	if in.PayDate != nil {
		paydate := map[string]any{}
		for k, v := range in.PayDate.Extra {
			paydate[k] = v
		}
		id, found, err := c.PaymentDateID(in.PayDate.Code, false)
		if err != nil {
			return 0, nil, err
		}
		var v any
		if found {
			v = id
		}
		paydate["id"] = v
		params["paydate"] = paydate
	}

	raw, err := c.Call("Document.create", params)
	if err != nil {
		return 0, nil, err
	}

	var resp struct {
		DocID FlexInt `json:"doc_id"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, nil, fmt.Errorf("failed to decode created document: %w", err)
	}
	docID := int64(resp.DocID)

	if len(in.Custom) > 0 {
		if _, err := c.RecordPropertyValues("document", docID, in.Custom); err != nil {
			return docID, nil, err
		}
	}

	fetched, err := c.GetDocumentByID(docType, docID)
	if err != nil {
		return docID, nil, err
	}
	return docID, fetched, nil
}

// CreateInvoice creates an invoice and returns its id along with the
// freshly fetched document.
func (c *Client) CreateInvoice(in DocumentInput) (int64, map[string]any, error) {
	return c.createDocument(DocumentTypeInvoice, in)
}

// CreateProforma creates a proforma and returns its id along with the
// freshly fetched document.
func (c *Client) CreateProforma(in DocumentInput) (int64, map[string]any, error) {
	return c.createDocument(DocumentTypeProforma, in)
}

// CreateCreditNote creates a credit note and returns its id along with the
// freshly fetched document.
func (c *Client) CreateCreditNote(in DocumentInput) (int64, map[string]any, error) {
	return c.createDocument(DocumentTypeCreditNote, in)
}

// CreateInvoiceFromProforma fetches a proforma and creates the matching
// invoice: content rows are rebuilt from the proforma's row map (anything
// that is not a structured "once" row is skipped), tags are rejoined from
// the tag words, and the displayed date is reparsed into epoch seconds.
func (c *Client) CreateInvoiceFromProforma(proformaID int64) (int64, map[string]any, error) {
	proforma, err := c.GetDocumentByID(DocumentTypeProforma, proformaID)
	if err != nil {
		return 0, nil, err
	}

	rows, err := proformaContentRows(proforma)
	if err != nil {
		return 0, nil, err
	}

	displayed, _ := proforma["displayedDate"].(string)
	date, err := time.ParseInLocation(displayedDateLayout, displayed, time.Local)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to parse proforma date %q: %w", displayed, err)
	}
	epoch := date.Unix()

	clientID, _ := toFloat(proforma["thirdid"])
	tags := joinTagWords(proforma["tags"])

	in := DocumentInput{
		ClientID: int64(clientID),
		ParentID: &proformaID,
		Date:     &epoch,
		Tags:     &tags,
		Rows:     rows,
	}
	if discount, ok := toFloat(proforma["globalDiscount"]); ok {
		d := decimal.NewFromFloat(discount)
		in.Discount = &d
		if unit, ok := proforma["globalDiscountUnit"].(string); ok {
			in.DiscountUnit = &unit
		}
	}

	return c.CreateInvoice(in)
}

// proformaContentRows walks the fetched row map in key order, keeping only
// structured rows of type "once" and converting their numeric string fields.
func proformaContentRows(proforma map[string]any) ([]DocumentRow, error) {
	docMap, _ := proforma["map"].(map[string]any)
	rawRows, _ := docMap["rows"].(map[string]any)

	keys := sortedRowKeys(rawRows)

	rows := make([]DocumentRow, 0, len(keys))
	for _, key := range keys {
		entry, ok := rawRows[key].(map[string]any)
		if !ok {
			// Row slots holding bare markers carry no product data.
			continue
		}
		if entry["type"] != "once" {
			continue
		}

		unitPrice, _ := toFloat(entry["unitAmount"])
		quantity, _ := toFloat(entry["qt"])
		taxRate, _ := toFloat(entry["taxrate"])
		title, _ := entry["name"].(string)
		notes, _ := entry["notes"].(string)

		row := DocumentRow{
			Title:       title,
			Description: notes,
			UnitPrice:   decimal.NewFromFloat(unitPrice),
			Quantity:    decimal.NewFromInt(int64(quantity)),
			TaxRate:     taxRate,
		}

		if discount, _ := toFloat(entry["discount"]); discount != 0 {
			if unitValue, _ := toFloat(entry["discountUnit"]); int(unitValue) != 0 {
				d := decimal.NewFromFloat(discount)
				u := int(unitValue)
				row.Discount = &d
				row.DiscountUnit = &u
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// sortedRowKeys orders the keys of a fetched row or tag map numerically,
// falling back to string order for non-numeric keys.
func sortedRowKeys(table map[string]any) []string {
	keys := make([]string, 0, len(table))
	for key := range table {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})
	return keys
}

// joinTagWords rebuilds a document tag list as a comma-joined string of the
// tag words, in stable order.
func joinTagWords(tags any) string {
	table, _ := tags.(map[string]any)
	keys := sortedRowKeys(table)

	words := make([]string, 0, len(keys))
	for _, key := range keys {
		spec, ok := table[key].(map[string]any)
		if !ok {
			continue
		}
		if word, ok := spec["word"].(string); ok {
			words = append(words, word)
		}
	}
	return strings.Join(words, ",")
}

// ValidateInvoice validates an invoice, optionally at an explicit date.
func (c *Client) ValidateInvoice(invoiceID int64, ts *int64) (json.RawMessage, error) {
	params := map[string]any{"docid": invoiceID}
	if ts != nil {
		params["date"] = *ts
	}
	return c.Call("Document.validate", params)
}

func (c *Client) updateDocumentStatus(docType string, docID int64, status string) (json.RawMessage, error) {
	if !validDocumentSteps[status] {
		return nil, fmt.Errorf("%q is not a valid %s status", status, docType)
	}
	return c.Call("Document.updateStep", map[string]any{
		"docid": docID,
		"document": map[string]any{
			"doctype": docType,
			"step":    status,
		},
	})
}

// UpdateInvoiceStatus moves an invoice to a new step. The status is checked
// locally against the fixed step set before any call is issued.
func (c *Client) UpdateInvoiceStatus(invoiceID int64, status string) (json.RawMessage, error) {
	return c.updateDocumentStatus(DocumentTypeInvoice, invoiceID, status)
}

// UpdateProformaStatus moves a proforma to a new step.
func (c *Client) UpdateProformaStatus(proformaID int64, status string) (json.RawMessage, error) {
	return c.updateDocumentStatus(DocumentTypeProforma, proformaID, status)
}

// UpdateCreditNoteStatus moves a credit note to a new step.
func (c *Client) UpdateCreditNoteStatus(creditNoteID int64, status string) (json.RawMessage, error) {
	return c.updateDocumentStatus(DocumentTypeCreditNote, creditNoteID, status)
}
