package sellsy

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// refData caches the vendor's reference tables for the lifetime of a Client.
// Resolvers take a force flag because the cache has no invalidation hooks:
// every mutating operation that depends on a resolved id refreshes the table
// it reads immediately beforehand. Concurrent forced refreshes race benignly
// (last fetch wins).
type refData struct {
	mu             sync.Mutex
	currencies     map[string]json.RawMessage
	paymentModes   map[string]json.RawMessage
	paymentDates   map[string]json.RawMessage
	taxes          map[string]json.RawMessage
	properties     map[string]json.RawMessage
	propertyGroups map[string]json.RawMessage
	clients        map[string]json.RawMessage
	products       map[string]json.RawMessage
}

func (r *refData) load(table *map[string]json.RawMessage, force bool, fetch func() (map[string]json.RawMessage, error)) (map[string]json.RawMessage, error) {
	r.mu.Lock()
	cached := *table
	r.mu.Unlock()

	if cached != nil && !force {
		return cached, nil
	}

	fresh, err := fetch()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	*table = fresh
	r.mu.Unlock()
	return fresh, nil
}

// fetchTable calls a remote method and decodes the payload as a table keyed
// by opaque record ids.
func (c *Client) fetchTable(method string, params any) (map[string]json.RawMessage, error) {
	raw, err := c.Call(method, params)
	if err != nil {
		return nil, err
	}
	var table map[string]json.RawMessage
	if err := json.Unmarshal(raw, &table); err != nil {
		return nil, fmt.Errorf("failed to decode %s table: %w", method, err)
	}
	return table, nil
}

// fetchResultTable is fetchTable for the list methods that nest the table
// under a "result" key.
func (c *Client) fetchResultTable(method string, params any) (map[string]json.RawMessage, error) {
	raw, err := c.Call(method, params)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s table: %w", method, err)
	}
	return payload.Result, nil
}

// Currencies

// CurrenciesRawData returns the cached currency table, fetching it on first
// use or when force is set.
func (c *Client) CurrenciesRawData(force bool) (map[string]json.RawMessage, error) {
	return c.refdata.load(&c.refdata.currencies, force, func() (map[string]json.RawMessage, error) {
		return c.fetchTable("AccountPrefs.getCurrencies", nil)
	})
}

// CurrencyID resolves a currency code (e.g. "EUR") to its remote id. A code
// with no match yields ok=false, never an error.
func (c *Client) CurrencyID(code string, force bool) (int64, bool, error) {
	table, err := c.CurrenciesRawData(force)
	if err != nil {
		return 0, false, err
	}
	for key, raw := range table {
		if key == "defaultCurrency" {
			continue
		}
		var entry struct {
			ID   FlexInt `json:"id"`
			Name string  `json:"name"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if entry.Name == code {
			return int64(entry.ID), true, nil
		}
	}
	return 0, false, nil
}

// Payment modes

func (c *Client) PaymentModesRawData(force bool) (map[string]json.RawMessage, error) {
	return c.refdata.load(&c.refdata.paymentModes, force, func() (map[string]json.RawMessage, error) {
		return c.fetchTable("Accountdatas.getPayMediums", nil)
	})
}

// PaymentModeID resolves a payment mode code to its remote id. Both the
// vendor syscode and the display value are accepted; see PaymentModeCodes
// for the legal syscodes.
func (c *Client) PaymentModeID(code string, force bool) (int64, bool, error) {
	table, err := c.PaymentModesRawData(force)
	if err != nil {
		return 0, false, err
	}
	for _, raw := range table {
		var entry struct {
			ID      FlexInt `json:"id"`
			Syscode string  `json:"syscode"`
			Value   string  `json:"value"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if entry.Syscode == code || entry.Value == code {
			return int64(entry.ID), true, nil
		}
	}
	return 0, false, nil
}

// Payment due dates

func (c *Client) PaymentDatesRawData(force bool) (map[string]json.RawMessage, error) {
	return c.refdata.load(&c.refdata.paymentDates, force, func() (map[string]json.RawMessage, error) {
		raw, err := c.Call("Accountdatas.getPayDates", nil)
		if err != nil {
			return nil, err
		}
		var payload struct {
			PayDates map[string]json.RawMessage `json:"payDates"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("failed to decode pay dates table: %w", err)
		}
		return payload.PayDates, nil
	})
}

// PaymentDateID resolves a payment due-date rule code to its remote id; see
// PaymentDateCodes for the legal values.
func (c *Client) PaymentDateID(code string, force bool) (int64, bool, error) {
	table, err := c.PaymentDatesRawData(force)
	if err != nil {
		return 0, false, err
	}
	for _, raw := range table {
		var entry struct {
			ID      FlexInt `json:"id"`
			Syscode string  `json:"syscode"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if entry.Syscode == code {
			return int64(entry.ID), true, nil
		}
	}
	return 0, false, nil
}

// Taxes

func (c *Client) TaxesRawData(force bool) (map[string]json.RawMessage, error) {
	return c.refdata.load(&c.refdata.taxes, force, func() (map[string]json.RawMessage, error) {
		return c.fetchTable("Accountdatas.getTaxes", nil)
	})
}

// normalizeTaxValue renders a tax rate the way the vendor stores it: whole
// rates without a fractional part ("20"), others as-is ("5.5").
func normalizeTaxValue(rate float64) string {
	return decimal.NewFromFloat(rate).String()
}

// TaxID resolves a tax rate to its remote id. The rate is matched against
// the table's string values, so 20.0 and 20 resolve identically.
func (c *Client) TaxID(rate float64, force bool) (int64, bool, error) {
	table, err := c.TaxesRawData(force)
	if err != nil {
		return 0, false, err
	}
	want := normalizeTaxValue(rate)
	for key, raw := range table {
		if strings.HasPrefix(key, "default") {
			continue
		}
		var entry struct {
			ID    FlexInt `json:"id"`
			Value string  `json:"value"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if entry.Value == want {
			return int64(entry.ID), true, nil
		}
	}
	return 0, false, nil
}

// Custom properties

func (c *Client) PropertiesRawData(force bool) (map[string]json.RawMessage, error) {
	return c.refdata.load(&c.refdata.properties, force, func() (map[string]json.RawMessage, error) {
		return c.fetchResultTable("CustomFields.getList", map[string]any{
			"pagination": paginationAll,
		})
	})
}

// PropertyID resolves a custom property code to its remote id.
func (c *Client) PropertyID(code string, force bool) (int64, bool, error) {
	table, err := c.PropertiesRawData(force)
	if err != nil {
		return 0, false, err
	}
	return matchByCode(table, code)
}

// Custom property groups

func (c *Client) PropertyGroupsRawData(force bool) (map[string]json.RawMessage, error) {
	return c.refdata.load(&c.refdata.propertyGroups, force, func() (map[string]json.RawMessage, error) {
		return c.fetchResultTable("CustomFields.getGroupsList", map[string]any{
			"pagination": paginationAll,
		})
	})
}

// PropertyGroupID resolves a custom property group code to its remote id.
func (c *Client) PropertyGroupID(code string, force bool) (int64, bool, error) {
	table, err := c.PropertyGroupsRawData(force)
	if err != nil {
		return 0, false, err
	}
	return matchByCode(table, code)
}

// matchByCode scans a table for an entry with the given code.
func matchByCode(table map[string]json.RawMessage, code string) (int64, bool, error) {
	for _, raw := range table {
		var entry struct {
			ID   FlexInt `json:"id"`
			Code string  `json:"code"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if entry.Code == code {
			return int64(entry.ID), true, nil
		}
	}
	return 0, false, nil
}

// Clients and products keep full record pages rather than code/id pairs; the
// bulk operations scan them.

func (c *Client) ClientsRawData(force bool) (map[string]json.RawMessage, error) {
	return c.refdata.load(&c.refdata.clients, force, func() (map[string]json.RawMessage, error) {
		return c.fetchResultTable("Client.getList", map[string]any{
			"pagination": paginationAll,
		})
	})
}

func (c *Client) ProductsRawData(force bool, productType string) (map[string]json.RawMessage, error) {
	if productType == "" {
		productType = ProductTypeItem
	}
	return c.refdata.load(&c.refdata.products, force, func() (map[string]json.RawMessage, error) {
		return c.fetchResultTable("Catalogue.getList", map[string]any{
			"type":       productType,
			"pagination": paginationAll,
		})
	})
}
