package sellsy

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

// ThirdInput is the input for creating or updating a client or contact.
// Third carries the vendor's third fields; Contact and Address are optional
// sub-payloads merged into the same call. Custom values are recorded in a
// second, separate call once the new id is known — the two calls are not
// atomic, and a failure in the second leaves an entity without its custom
// values. Callers are responsible for detecting and reconciling that.
type ThirdInput struct {
	Third   map[string]any
	Contact map[string]any
	Address map[string]any
	Custom  map[string]any
}

// thirdTypeFor maps a client type to the linked type used when recording
// custom field values.
func thirdTypeFor(clientType string) string {
	if clientType == ClientTypeCorporation {
		return "client"
	}
	return "people"
}

func (c *Client) createClient(clientType string, in ThirdInput) (int64, error) {
	third := map[string]any{}
	for k, v := range in.Third {
		third[k] = v
	}
	third["type"] = clientType

	params := map[string]any{"third": third}
	if in.Contact != nil {
		params["contact"] = in.Contact
	}
	if in.Address != nil {
		params["address"] = in.Address
	}

	raw, err := c.Call("Client.create", params)
	if err != nil {
		return 0, err
	}

	var resp struct {
		ClientID FlexInt `json:"client_id"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, fmt.Errorf("failed to decode created client: %w", err)
	}
	id := int64(resp.ClientID)

	if len(in.Custom) > 0 {
		if _, err := c.RecordPropertyValues(thirdTypeFor(clientType), id, in.Custom); err != nil {
			// The entity exists but carries no custom values; return the id
			// alongside the error so the caller can reconcile.
			return id, err
		}
	}

	return id, nil
}

func (c *Client) updateClient(clientType string, clientID int64, in ThirdInput) (int64, error) {
	third := map[string]any{}
	for k, v := range in.Third {
		third[k] = v
	}
	third["type"] = clientType

	params := map[string]any{
		"clientid": clientID,
		"third":    third,
	}
	if in.Contact != nil {
		params["contact"] = in.Contact
	}
	if in.Address != nil {
		params["address"] = in.Address
	}

	raw, err := c.Call("Client.update", params)
	if err != nil {
		return 0, err
	}
	slog.Debug("client update response", "client_id", clientID, "response", string(raw))

	if len(in.Custom) > 0 {
		if _, err := c.RecordPropertyValues(thirdTypeFor(clientType), clientID, in.Custom); err != nil {
			return clientID, err
		}
	}

	return clientID, nil
}

// CreateCompany creates a corporation third, then records its custom field
// values against the linked type "client".
func (c *Client) CreateCompany(in ThirdInput) (int64, error) {
	return c.createClient(ClientTypeCorporation, in)
}

// CreateContact creates a person third, then records its custom field
// values against the linked type "people".
func (c *Client) CreateContact(in ThirdInput) (int64, error) {
	return c.createClient(ClientTypePerson, in)
}

// UpdateCompany updates an existing corporation third.
func (c *Client) UpdateCompany(companyID int64, in ThirdInput) (int64, error) {
	return c.updateClient(ClientTypeCorporation, companyID, in)
}

// CreateCompanyContact creates a contact and associates it to an existing
// company, then records custom values and an optional address in separate
// calls.
func (c *Client) CreateCompanyContact(companyID int64, in ThirdInput) (int64, error) {
	raw, err := c.Call("Client.addContact", map[string]any{
		"clientid": companyID,
		"contact":  in.Contact,
	})
	if err != nil {
		return 0, err
	}

	var contactID FlexInt
	if err := json.Unmarshal(raw, &contactID); err != nil {
		return 0, fmt.Errorf("failed to decode created contact: %w", err)
	}
	id := int64(contactID)

	if len(in.Custom) > 0 {
		if _, err := c.RecordPropertyValues("people", id, in.Custom); err != nil {
			return id, err
		}
	}

	if in.Address != nil {
		params := map[string]any{
			"linkedtype": "people",
			"linkedid":   id,
		}
		for k, v := range in.Address {
			params[k] = v
		}
		if _, err := c.Call("Addresses.create", params); err != nil {
			return id, err
		}
	}

	return id, nil
}

// GetClientByID fetches a client record by id. When the vendor reports an
// error for the lookup the result is absent (nil, nil) so callers can branch
// on "not found"; transport failures still surface as errors.
func (c *Client) GetClientByID(clientID int64) (map[string]any, error) {
	raw, err := c.GetOne("Client", map[string]any{"clientid": clientID})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			slog.Error("cannot find a sellsy client with the given id",
				"client_id", clientID, "error", apiErr)
			return nil, nil
		}
		return nil, err
	}
	return decodeMap(raw)
}

// SearchClientsByName searches clients on their name.
func (c *Client) SearchClientsByName(name string) (map[string]any, error) {
	raw, err := c.Search("Client", map[string]any{"name": name})
	if err != nil {
		return nil, err
	}
	return decodeMap(raw)
}

// prepareSearchValue shapes a custom-field search value. The vendor has no
// scalar-equality search for numeric custom fields, so numeric values are
// expressed as a {start, stop} range collapsing to the value itself.
func prepareSearchValue(value any) any {
	var n int64
	switch x := value.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case float32:
		n = int64(x)
	case float64:
		n = int64(x)
	case bool:
		if !x {
			return map[string]any{"start": 0, "stop": 0}
		}
		n = 1
	case string:
		parsed, err := strconv.ParseInt(x, 10, 64)
		if err != nil {
			return value
		}
		n = parsed
	default:
		return value
	}
	return map[string]any{"start": n, "stop": n}
}

// SearchClientsByProperty searches clients on a custom property value and
// returns the result page keyed by client id.
func (c *Client) SearchClientsByProperty(code string, value any) (map[string]any, error) {
	propertyID, ok, err := c.PropertyID(code, false)
	if err != nil {
		return nil, err
	}
	var cfid any
	if ok {
		cfid = propertyID
	}

	raw, err := c.Search("Client", map[string]any{
		"customfields": []map[string]any{
			{
				"cfid":  cfid,
				"value": prepareSearchValue(value),
			},
		},
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Result map[string]any `json:"result"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode client search: %w", err)
	}
	return payload.Result, nil
}

// ClientIDByPropertyValue resolves the single client holding a property
// value. No match yields ok=false; more than one match is an error because
// the caller assumed uniqueness.
func (c *Client) ClientIDByPropertyValue(code string, value any) (int64, bool, error) {
	results, err := c.SearchClientsByProperty(code, value)
	if err != nil {
		return 0, false, err
	}

	switch len(results) {
	case 0:
		return 0, false, nil
	case 1:
		for key := range results {
			id, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				return 0, false, fmt.Errorf("unexpected client id %q in search result", key)
			}
			return id, true, nil
		}
		return 0, false, nil
	default:
		return 0, false, errors.New("multiple clients exist with this property value")
	}
}

// DeleteClient deletes a client by id.
func (c *Client) DeleteClient(clientID int64) error {
	_, err := c.Call("Client.delete", map[string]any{"clientid": clientID})
	return err
}

// DeleteAllClients deletes every client matching the having filter (standard
// or custom fields, all entries must match). Deletions are issued one by one
// with no recovery: the first failure aborts the rest.
func (c *Client) DeleteAllClients(having map[string]any) error {
	table, err := c.ClientsRawData(true)
	if err != nil {
		return err
	}

	for key, raw := range table {
		var record map[string]any
		if err := json.Unmarshal(raw, &record); err != nil {
			continue
		}

		matches := true
		for k, v := range having {
			if !checkStandardOrCustomField(record, k, v) {
				matches = false
				break
			}
		}
		if !matches {
			continue
		}

		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			continue
		}
		if err := c.DeleteClient(id); err != nil {
			return err
		}
	}

	return nil
}
