package sellsy

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// prepareChoices builds a CustomFields.create choice list. The first choice
// is both the default and the checked one; the others are neither.
func prepareChoices(choices []string) []map[string]string {
	prepared := make([]map[string]string, 0, len(choices))
	for i, choice := range choices {
		flag := yn(i == 0)
		prepared = append(prepared, map[string]string{
			"value":     choice,
			"isDefault": flag,
			"checked":   flag,
		})
	}
	return prepared
}

// CreateProperty creates a custom property definition.
//
// The code must not contain underscores, only dashes. See PropertyDataTypes
// for the legal dataType values. Each objType gets a useOn_<type> flag with
// any trailing plural marker stripped; amount properties get the default
// currency injected into their preferences.
func (c *Client) CreateProperty(code, label string, objTypes []string, dataType string, choices []string, prefs map[string]any) (int64, error) {
	useOn := []string{"showIn_list", "showIn_filter"}
	for _, objType := range objTypes {
		useOn = append(useOn, "useOn_"+strings.TrimRight(objType, "s"))
	}

	params := map[string]any{
		"code":  code,
		"name":  label,
		"type":  dataType,
		"useOn": useOn,
	}

	preferences := map[string]any{}
	for k, v := range prefs {
		preferences[k] = v
	}
	if dataType == "amount" {
		currencyID, ok, err := c.CurrencyID(c.defaultCurrency, false)
		if err != nil {
			return 0, err
		}
		if ok {
			preferences["currencyid"] = currencyID
		}
	}
	params["preferences"] = preferences

	if len(choices) > 0 {
		params["preferenceslist"] = prepareChoices(choices)
	}

	raw, err := c.Call("CustomFields.create", params)
	if err != nil {
		return 0, err
	}

	var resp struct {
		ID FlexInt `json:"id"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return 0, fmt.Errorf("failed to decode created property: %w", err)
	}
	return int64(resp.ID), nil
}

// preparePropertyValues resolves each property code to a cfid, skipping
// falsy values. Codes are processed in sorted order so payloads are stable.
// Every resolution forces a table refresh; an unresolved code is sent with a
// null cfid and left for the vendor to reject.
func (c *Client) preparePropertyValues(values map[string]any) ([]map[string]any, error) {
	codes := make([]string, 0, len(values))
	for code := range values {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	prepared := make([]map[string]any, 0, len(codes))
	for _, code := range codes {
		value := values[code]
		if isFalsy(value) {
			continue
		}
		id, ok, err := c.PropertyID(code, true)
		if err != nil {
			return nil, err
		}
		var cfid any
		if ok {
			cfid = id
		}
		prepared = append(prepared, map[string]any{
			"cfid":  cfid,
			"value": value,
		})
	}
	return prepared, nil
}

// RecordPropertyValues records custom field values against an existing
// entity. linkedType is the vendor object type the values attach to:
// "client", "people", "document" or a catalogue entry type.
func (c *Client) RecordPropertyValues(linkedType string, linkedID int64, values map[string]any) (json.RawMessage, error) {
	prepared, err := c.preparePropertyValues(values)
	if err != nil {
		return nil, err
	}
	return c.Call("CustomFields.recordValues", map[string]any{
		"linkedtype": linkedType,
		"linkedid":   linkedID,
		"values":     prepared,
	})
}

// DeleteProperty deletes a custom property by code. An unknown code is a
// no-op issuing no delete call.
func (c *Client) DeleteProperty(code string) error {
	id, ok, err := c.PropertyID(code, true)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	_, err = c.Call("CustomFields.delete", map[string]any{"id": id})
	return err
}

// DeleteAllProperties deletes every custom property definition, one call at
// a time with the configured delay between calls. There is no rollback: a
// failure leaves earlier deletions applied.
func (c *Client) DeleteAllProperties() error {
	table, err := c.PropertiesRawData(true)
	if err != nil {
		return err
	}
	for _, raw := range table {
		var entry struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if err := c.DeleteProperty(entry.Code); err != nil {
			return err
		}
		c.wait()
	}
	return nil
}

// prepareGroupPropertySpecs builds the ordered member list of a property
// group. Codes that do not resolve are passed through literally.
func (c *Client) prepareGroupPropertySpecs(props []string) ([]map[string]string, error) {
	specs := make([]map[string]string, 0, len(props))
	for i, prop := range props {
		id, ok, err := c.PropertyID(prop, true)
		if err != nil {
			return nil, err
		}
		cfid := prop
		if ok {
			cfid = strconv.FormatInt(id, 10)
		}
		specs = append(specs, map[string]string{
			"cfid": cfid,
			"rank": strconv.Itoa(i),
		})
	}
	return specs, nil
}

// CreatePropertyGroup creates a custom property group holding the given
// properties in order. The code must not contain underscores, only dashes.
func (c *Client) CreatePropertyGroup(code, label string, props []string) (json.RawMessage, error) {
	specs, err := c.prepareGroupPropertySpecs(props)
	if err != nil {
		return nil, err
	}
	return c.Call("CustomFields.createGroup", map[string]any{
		"code":         code,
		"name":         label,
		"customFields": specs,
	})
}

// UpdatePropertyGroup updates a property group. groupID may be zero when the
// code is given; it is then resolved with a forced refresh.
func (c *Client) UpdatePropertyGroup(code, label string, groupID int64, props []string) (json.RawMessage, error) {
	if groupID == 0 && code == "" {
		return nil, errors.New("at least a group id or a code must be given")
	}

	if groupID == 0 {
		id, ok, err := c.PropertyGroupID(code, true)
		if err != nil {
			return nil, err
		}
		if ok {
			groupID = id
		}
	}

	params := map[string]any{
		"id":   groupID,
		"code": code,
		"name": label,
	}
	if len(props) > 0 {
		specs, err := c.prepareGroupPropertySpecs(props)
		if err != nil {
			return nil, err
		}
		params["customFields"] = specs
	}

	return c.Call("CustomFields.updateGroup", params)
}

// DeletePropertyGroup deletes a property group by code. An unknown code is a
// no-op issuing no delete call.
func (c *Client) DeletePropertyGroup(code string) error {
	id, ok, err := c.PropertyGroupID(code, true)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	_, err = c.Call("CustomFields.deleteGroup", map[string]any{"groupid": id})
	return err
}

// DeleteAllPropertyGroups deletes every property group, one call at a time
// with the configured delay between calls.
func (c *Client) DeleteAllPropertyGroups() error {
	table, err := c.PropertyGroupsRawData(true)
	if err != nil {
		return err
	}
	for _, raw := range table {
		var entry struct {
			Code string `json:"code"`
		}
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if err := c.DeletePropertyGroup(entry.Code); err != nil {
			return err
		}
		c.wait()
	}
	return nil
}
