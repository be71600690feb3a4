// Package sellsy provides a client for the Sellsy v1 API.
//
// The client wraps the vendor's single-endpoint RPC surface: every operation
// is a POST of a JSON-encoded {method, params} envelope, authenticated with
// an OAuth1 PLAINTEXT header built from four credential values. Higher-level
// methods (thirds, products, documents, payments, custom properties) are
// built on Call and on a per-client cache of the vendor's reference tables.
package sellsy

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultEndpoint is the production Sellsy API endpoint.
const DefaultEndpoint = "https://apifeed.sellsy.com/0/"

// ClientConfig represents the configuration for a Sellsy API client.
type ClientConfig struct {
	Endpoint       string
	ConsumerToken  string
	ConsumerSecret string
	UserToken      string
	UserSecret     string

	// DefaultCurrency is the currency code used when creating "amount"
	// custom properties and standalone payments.
	DefaultCurrency string

	// DefaultVATRate is the tax rate applied to products created without an
	// explicit tax id. Default: 20.
	DefaultVATRate float64

	Timeout time.Duration // Default: 30 seconds

	// PostCallDelay is slept after each call issued by a bulk delete, to
	// stay under the vendor rate limit. Default: 1 second.
	PostCallDelay time.Duration
}

// Client is a Sellsy API client. The reference-data cache it carries is
// scoped to the instance; two clients never share cached tables.
type Client struct {
	httpClient     *http.Client
	endpoint       string
	consumerToken  string
	consumerSecret string
	userToken      string
	userSecret     string

	defaultCurrency string
	defaultVATRate  float64
	postCallDelay   time.Duration

	refdata refData
}

// NewClient creates a new Sellsy API client.
func NewClient(config ClientConfig) *Client {
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	delay := config.PostCallDelay
	if delay == 0 {
		delay = time.Second
	}
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	vatRate := config.DefaultVATRate
	if vatRate == 0 {
		vatRate = 20
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		endpoint:        endpoint,
		consumerToken:   config.ConsumerToken,
		consumerSecret:  config.ConsumerSecret,
		userToken:       config.UserToken,
		userSecret:      config.UserSecret,
		defaultCurrency: config.DefaultCurrency,
		defaultVATRate:  vatRate,
		postCallDelay:   delay,
	}
}

// Call invokes a named remote method and returns the raw response payload.
// A vendor error envelope is returned as *APIError. No retries are performed;
// callers decide.
func (c *Client) Call(method string, params any) (json.RawMessage, error) {
	if params == nil {
		params = map[string]any{}
	}

	doIn, err := json.Marshal(map[string]any{
		"method": method,
		"params": params,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request for %s: %w", method, err)
	}

	form := url.Values{}
	form.Set("request", "1")
	form.Set("io_mode", "json")
	form.Set("do_in", string(doIn))

	req, err := http.NewRequest("POST", c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", c.oauthHeader())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response for %s: %w", method, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sellsy API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to decode response for %s: %s", method, strings.TrimSpace(string(body)))
	}

	if env.Status != "success" {
		return nil, parseAPIError(env.Error)
	}

	return env.Response, nil
}

// Search lists a resource with the given search criteria, using the vendor's
// <Resource>.getList naming convention.
func (c *Client) Search(resource string, search map[string]any) (json.RawMessage, error) {
	return c.Call(resource+".getList", map[string]any{"search": search})
}

// GetOne fetches a single resource, using the vendor's <Resource>.getOne
// naming convention.
func (c *Client) GetOne(resource string, params map[string]any) (json.RawMessage, error) {
	return c.Call(resource+".getOne", params)
}

// oauthHeader builds the OAuth1 PLAINTEXT Authorization header the vendor
// expects: the signature is the two secrets joined by an encoded ampersand,
// no request signing involved.
func (c *Client) oauthHeader() string {
	signature := url.QueryEscape(c.consumerSecret + "&" + c.userSecret)

	fields := []string{
		fmt.Sprintf("oauth_consumer_key=%q", c.consumerToken),
		fmt.Sprintf("oauth_token=%q", c.userToken),
		fmt.Sprintf("oauth_nonce=%q", fmt.Sprintf("%d", time.Now().UnixNano())),
		fmt.Sprintf("oauth_timestamp=%q", fmt.Sprintf("%d", time.Now().Unix())),
		`oauth_signature_method="PLAINTEXT"`,
		`oauth_version="1.0"`,
		fmt.Sprintf("oauth_signature=%q", signature),
	}

	return "OAuth " + strings.Join(fields, ", ")
}

// wait sleeps for the configured post-call delay. Bulk deletes call it after
// every deletion to stay under the vendor rate limit.
func (c *Client) wait() {
	time.Sleep(c.postCallDelay)
}
