package sellsy

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// PaymentBank identifies the bank deposit of a standalone payment.
type PaymentBank struct {
	ID   int64
	Date int64 // epoch seconds
}

// PaymentInput is the input for recording a payment. Date, Amount and Mode
// are always required. With InvoiceID set, the payment is recorded against
// that document; otherwise it is a standalone payment and Type, LinkedID
// and a resolvable currency are required as well.
type PaymentInput struct {
	Date   int64 // epoch seconds
	Amount decimal.Decimal
	Mode   string // payment mode code, see PaymentModeCodes

	Reference  *string
	DeadlineID *int64
	InvoiceID  *int64

	// Standalone payment fields (Payments.create).
	Type     string // "debit" or "credit"
	Currency string // currency code; empty means the configured default
	LinkedID int64  // client or supplier id the payment attaches to
	Bank     *PaymentBank
}

// CreatePayment records a payment. An empty docType means invoice.
func (c *Client) CreatePayment(in PaymentInput, docType string) (int64, error) {
	if docType == "" {
		docType = DocumentTypeInvoice
	}

	mediumID, found, err := c.PaymentModeID(in.Mode, false)
	if err != nil {
		return 0, err
	}
	var medium any
	if found {
		medium = mediumID
	}

	base := map[string]any{
		"date":   in.Date,
		"amount": in.Amount,
	}
	if in.Reference != nil {
		base["ident"] = *in.Reference
	}
	if in.DeadlineID != nil {
		base["deadlineid"] = []int64{*in.DeadlineID}
	}

	var method string
	var params map[string]any

	if in.InvoiceID != nil {
		base["medium"] = medium
		base["doctype"] = docType
		base["docid"] = *in.InvoiceID
		method = "Document.createPayment"
		params = map[string]any{"payment": base}
	} else {
		if in.Type != "debit" && in.Type != "credit" {
			return 0, fmt.Errorf("%q is not a valid standalone payment type", in.Type)
		}
		if in.LinkedID == 0 {
			return 0, errors.New("a linked third id is required for a standalone payment")
		}

		currency := in.Currency
		if currency == "" {
			currency = c.defaultCurrency
		}
		currencyID, ok, err := c.CurrencyID(currency, false)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, fmt.Errorf("unknown currency %q for standalone payment", currency)
		}

		base["type"] = in.Type
		base["currencyid"] = currencyID
		base["linkedid"] = in.LinkedID
		base["mediumid"] = medium
		if in.Bank != nil {
			base["inBank"] = "Y"
			base["bank"] = map[string]any{
				"id":   in.Bank.ID,
				"date": in.Bank.Date,
			}
		} else {
			base["inBank"] = "N"
		}
		method = "Payments.create"
		params = base
	}

	raw, err := c.Call(method, params)
	if err != nil {
		return 0, err
	}

	var resp struct {
		PayID FlexInt `json:"payid"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, fmt.Errorf("failed to decode created payment: %w", err)
	}
	return int64(resp.PayID), nil
}
