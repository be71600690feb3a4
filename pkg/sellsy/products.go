package sellsy

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// defaultProductUnit is the vendor's unit label applied when the caller
// supplies none.
const defaultProductUnit = "unité"

// prepareProductData fills in the defaults the vendor expects on a catalogue
// entry: trade name falls back to the name, the unit label to the fixed
// default, the tax id to the configured default VAT rate and the active flag
// to yes.
func (c *Client) prepareProductData(data map[string]any) (map[string]any, error) {
	if _, ok := data["tradename"]; !ok {
		data["tradename"] = data["name"]
	}
	if _, ok := data["unit"]; !ok {
		data["unit"] = defaultProductUnit
	}
	if _, ok := data["taxid"]; !ok {
		taxID, found, err := c.TaxID(c.defaultVATRate, false)
		if err != nil {
			return nil, err
		}
		var v any
		if found {
			v = taxID
		}
		data["taxid"] = v
	}
	if _, ok := data["actif"]; !ok {
		data["actif"] = "Y"
	}
	return data, nil
}

// CreateProduct creates a catalogue entry, then records its custom field
// values in a second call keyed by the new id. An empty productType means
// a plain item.
func (c *Client) CreateProduct(name, description string, price decimal.Decimal, extra, custom map[string]any, productType string) (int64, error) {
	if productType == "" {
		productType = ProductTypeItem
	}

	data := map[string]any{
		"name":       name,
		"notes":      description,
		"unitAmount": price,
	}
	for k, v := range extra {
		data[k] = v
	}

	data, err := c.prepareProductData(data)
	if err != nil {
		return 0, err
	}

	raw, err := c.Call("Catalogue.create", map[string]any{
		"type":      productType,
		productType: data,
	})
	if err != nil {
		return 0, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, fmt.Errorf("failed to decode created product: %w", err)
	}
	var id FlexInt
	if err := json.Unmarshal(payload[productType+"_id"], &id); err != nil {
		return 0, fmt.Errorf("failed to decode created product id: %w", err)
	}

	if len(custom) > 0 {
		if _, err := c.RecordPropertyValues(productType, int64(id), custom); err != nil {
			return int64(id), err
		}
	}

	return int64(id), nil
}

// AllProducts returns every catalogue entry of the given type.
func (c *Client) AllProducts(productType string) ([]map[string]any, error) {
	table, err := c.ProductsRawData(false, productType)
	if err != nil {
		return nil, err
	}

	products := make([]map[string]any, 0, len(table))
	for _, raw := range table {
		var record map[string]any
		if err := json.Unmarshal(raw, &record); err != nil {
			continue
		}
		products = append(products, record)
	}
	return products, nil
}

// DeleteProduct deletes a catalogue entry by id.
func (c *Client) DeleteProduct(productID int64, productType string) error {
	if productType == "" {
		productType = ProductTypeItem
	}
	_, err := c.Call("Catalogue.delete", map[string]any{
		"type": productType,
		"id":   productID,
	})
	return err
}

// DeleteAllProducts deletes every catalogue item one by one, with no
// batching and no partial-failure recovery: the first error aborts the rest
// and whatever was already deleted stays deleted.
func (c *Client) DeleteAllProducts() error {
	table, err := c.ProductsRawData(false, ProductTypeItem)
	if err != nil {
		return err
	}

	for _, raw := range table {
		var entry struct {
			ID FlexInt `json:"id"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if err := c.DeleteProduct(int64(entry.ID), ProductTypeItem); err != nil {
			return err
		}
	}
	return nil
}
