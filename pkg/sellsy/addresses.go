package sellsy

import "encoding/json"

// AddressInput is the input for attaching an address to a third.
type AddressInput struct {
	Name        string // defaults to "Main address"
	Address     string
	Address2    string
	ZipCode     string
	City        string
	CountryCode string
}

// CreateAddress attaches an address to a client.
func (c *Client) CreateAddress(clientID int64, in AddressInput, asMain bool) (json.RawMessage, error) {
	name := in.Name
	if name == "" {
		name = "Main address"
	}
	return c.Call("Addresses.create", map[string]any{
		"linkedtype":  "third",
		"linkedid":    clientID,
		"isMain":      yn(asMain),
		"name":        name,
		"part1":       in.Address,
		"part2":       in.Address2,
		"zip":         in.ZipCode,
		"town":        in.City,
		"countrycode": in.CountryCode,
	})
}

// BankAccountInput is the input for attaching a bank account to a third.
type BankAccountInput struct {
	Label string // defaults to "Main bank account"
	BIC   string
	IBAN  string

	SEPAAuthorizationNumber       string
	SEPATransmitterNationalNumber string
	SEPAMandateSignatureTS        int64 // epoch seconds
}

// CreateBankAccount attaches an enabled IBAN bank account to a client.
func (c *Client) CreateBankAccount(clientID int64, in BankAccountInput) (json.RawMessage, error) {
	label := in.Label
	if label == "" {
		label = "Main bank account"
	}
	return c.Call("BankAccount.create", map[string]any{
		"bankAccount": map[string]any{
			"linkedtype":                     "third",
			"linkedid":                       clientID,
			"label":                          label,
			"isEnabled":                      "Y",
			"hasiban":                        "Y",
			"bic":                            in.BIC,
			"iban":                           in.IBAN,
			"sepa_authorizationNumber":       in.SEPAAuthorizationNumber,
			"sepa_transmitterNationalNumber": in.SEPATransmitterNationalNumber,
			"sepa_signaturemandat":           in.SEPAMandateSignatureTS,
		},
	})
}
